package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wellnesshub/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func TestReminderService_SweepStaleEnrollments(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	stale := []models.CourseProgress{
		{ID: primitive.NewObjectID(), UserID: primitive.NewObjectID(), CourseID: primitive.NewObjectID(), UserName: "Ana"},
		{ID: primitive.NewObjectID(), UserID: primitive.NewObjectID(), CourseID: primitive.NewObjectID(), UserName: "Ben"},
	}

	tests := []struct {
		name             string
		repo             *mockStaleRepository
		notifier         *mockNotifier
		expectedQueued   int
		expectedReminded int
		expectedError    bool
	}{
		{
			name:             "queues and marks each ledger",
			repo:             &mockStaleRepository{ledgers: stale},
			notifier:         &mockNotifier{},
			expectedQueued:   2,
			expectedReminded: 2,
		},
		{
			name:     "queue failure leaves ledgers for next sweep",
			repo:     &mockStaleRepository{ledgers: stale},
			notifier: &mockNotifier{err: errors.New("redis down")},
		},
		{
			name:     "mark failure not counted",
			repo:     &mockStaleRepository{ledgers: stale, markErr: errors.New("timeout")},
			notifier: &mockNotifier{},
		},
		{
			name:          "query failure",
			repo:          &mockStaleRepository{findErr: errors.New("timeout")},
			notifier:      &mockNotifier{},
			expectedError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewReminderService(tt.repo, tt.notifier, 48*time.Hour, zap.NewNop())

			queued, err := svc.SweepStaleEnrollments(context.Background(), now)
			if tt.expectedError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expectedQueued, queued)
			assert.Len(t, tt.repo.reminded, tt.expectedReminded)
			assert.Equal(t, now.Add(-48*time.Hour), tt.repo.cutoff)
			assert.Equal(t, int64(reminderBatchSize), tt.repo.lastLimit)
		})
	}
}

func TestReminderService_NotificationContent(t *testing.T) {
	ledger := models.CourseProgress{ID: primitive.NewObjectID(), UserID: primitive.NewObjectID(), CourseID: primitive.NewObjectID(), UserName: "Ana"}
	notifier := &mockNotifier{}
	svc := NewReminderService(&mockStaleRepository{ledgers: []models.CourseProgress{ledger}}, notifier, time.Hour, zap.NewNop())

	_, err := svc.SweepStaleEnrollments(context.Background(), time.Now())
	require.NoError(t, err)
	require.Len(t, notifier.sent, 1)
	assert.Equal(t, models.NotificationStaleEnrollment, notifier.sent[0].Type)
	assert.Equal(t, ledger.UserID.Hex(), notifier.sent[0].RecipientID)
	assert.Contains(t, notifier.sent[0].Message, "Ana")
}
