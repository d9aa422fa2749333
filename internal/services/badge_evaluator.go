package services

import (
	"time"

	"github.com/wellnesshub/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CompletionPath selects which progress badges an evaluation may award
type CompletionPath int

const (
	// LessonCompletionPath awards progress badges below 100 whose threshold is reached
	LessonCompletionPath CompletionPath = iota
	// CourseCompletionPath awards progress-100 badges only
	CourseCompletionPath
)

// Award is the outcome of a badge evaluation
type Award struct {
	Entries     []models.EarnedBadge
	TotalWeight float64
	// Weights holds the trigger weight of every entry, keyed by badge id
	Weights map[primitive.ObjectID]float64
}

// subset returns the award restricted to entries, which must come from a.Entries
func (a Award) subset(entries []models.EarnedBadge) Award {
	sub := Award{Entries: entries, Weights: make(map[primitive.ObjectID]float64, len(entries))}
	for _, e := range entries {
		w := a.Weights[e.BadgeID]
		sub.Weights[e.BadgeID] = w
		sub.TotalWeight += w
	}
	return sub
}

// EvaluateBadges returns the badges newly earned by a learner and the sum of their weights.
//
// Badges already in earned, soft-deleted badges, badges whose trigger is not in the index
// and triggers of a kind other than progress never qualify. The returned entries are
// disjoint from earned.
func EvaluateBadges(badges []models.Badge, triggers models.TriggerIndex, earned []models.EarnedBadge, path CompletionPath, percentage float64, now time.Time) Award {
	seen := make(map[primitive.ObjectID]struct{}, len(earned)+len(badges))
	for _, e := range earned {
		seen[e.BadgeID] = struct{}{}
	}

	award := Award{Weights: map[primitive.ObjectID]float64{}}
	for _, badge := range badges {
		if badge.IsDeleted {
			continue
		}
		if _, ok := seen[badge.ID]; ok {
			continue
		}

		trigger, ok := triggers[badge.TriggerID]
		if !ok || trigger.Condition.Kind != models.TriggerKindProgress {
			continue
		}

		if !qualifies(trigger.Condition.Threshold, path, percentage) {
			continue
		}

		seen[badge.ID] = struct{}{}
		award.Entries = append(award.Entries, models.EarnedBadge{BadgeID: badge.ID, EarnedOn: now})
		award.TotalWeight += trigger.Weight
		award.Weights[badge.ID] = trigger.Weight
	}

	return award
}

func qualifies(threshold uint8, path CompletionPath, percentage float64) bool {
	switch path {
	case LessonCompletionPath:
		return threshold != models.CompletionThreshold && float64(threshold) <= percentage
	case CourseCompletionPath:
		return threshold == models.CompletionThreshold
	default:
		return false
	}
}

// completionPercentage returns 100 * completed / total, capped at 100
func completionPercentage(completed, total int) float64 {
	if total <= 0 {
		return 0
	}
	pct := 100 * float64(completed) / float64(total)
	if pct > 100 {
		return 100
	}
	return pct
}
