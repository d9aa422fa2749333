package main

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const sweepTimeout = 5 * time.Minute

// StaleEnrollmentSweeper defines the reminder sweep run by the scheduler
type StaleEnrollmentSweeper interface {
	// SweepStaleEnrollments queues reminders for incomplete enrollments and returns how many were queued
	SweepStaleEnrollments(ctx context.Context, now time.Time) (int, error)
}

// Scheduler runs the stale enrollment sweep on a cron schedule
type Scheduler struct {
	schedule cron.Schedule
	sweeper  StaleEnrollmentSweeper
	logger   *zap.Logger
	stopChan chan struct{}
	done     chan struct{}
	now      func() time.Time
}

// NewScheduler creates a new scheduler instance for a standard five-field cron spec
func NewScheduler(spec string, sweeper StaleEnrollmentSweeper, logger *zap.Logger) (*Scheduler, error) {
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("invalid cron expression: %w", err)
	}

	return &Scheduler{
		schedule: schedule,
		sweeper:  sweeper,
		logger:   logger,
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
		now:      time.Now,
	}, nil
}

// Start starts the scheduler
func (s *Scheduler) Start() {
	s.logger.Info("Scheduler started", zap.Time("next_run", s.nextRun()))
	go s.run()
}

// Stop stops the scheduler and waits for a running sweep to finish
func (s *Scheduler) Stop() {
	close(s.stopChan)
	<-s.done
	s.logger.Info("Scheduler stopped")
}

// nextRun returns the next activation time after now
func (s *Scheduler) nextRun() time.Time {
	return s.schedule.Next(s.now())
}

// run executes the scheduler loop
func (s *Scheduler) run() {
	defer close(s.done)

	for {
		timer := time.NewTimer(time.Until(s.nextRun()))
		select {
		case <-timer.C:
			s.sweep()
		case <-s.stopChan:
			timer.Stop()
			return
		}
	}
}

// sweep runs a single reminder sweep
func (s *Scheduler) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	queued, err := s.sweeper.SweepStaleEnrollments(ctx, s.now())
	if err != nil {
		s.logger.Error("Stale enrollment sweep failed", zap.Error(err))
		return
	}
	s.logger.Info("Stale enrollment sweep finished", zap.Int("queued", queued))
}
