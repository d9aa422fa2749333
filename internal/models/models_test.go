package models

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestParseTriggerCondition(t *testing.T) {
	tests := []struct {
		name          string
		raw           string
		expected      TriggerCondition
		expectedError bool
	}{
		{name: "progress 50", raw: "progress-50", expected: TriggerCondition{Kind: TriggerKindProgress, Threshold: 50}},
		{name: "progress 100", raw: "progress-100", expected: TriggerCondition{Kind: TriggerKindProgress, Threshold: 100}},
		{name: "progress 0", raw: " progress-0 ", expected: TriggerCondition{Kind: TriggerKindProgress, Threshold: 0}},
		{name: "other kind parses", raw: "streak-7", expected: TriggerCondition{Kind: "streak", Threshold: 7}},
		{name: "missing separator", raw: "progress50", expectedError: true},
		{name: "missing kind", raw: "-50", expectedError: true},
		{name: "not a number", raw: "progress-half", expectedError: true},
		{name: "above 100", raw: "progress-101", expectedError: true},
		{name: "negative", raw: "progress--5", expectedError: true},
		{name: "empty", raw: "", expectedError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cond, err := ParseTriggerCondition(tt.raw)
			if tt.expectedError {
				assert.True(t, errors.Is(err, ErrMalformedCondition))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, cond)
		})
	}
}

func TestNewTriggerIndex(t *testing.T) {
	good := BadgeTrigger{ID: primitive.NewObjectID(), Name: "Halfway", Condition: "progress-50", Weight: 10}
	bad := BadgeTrigger{ID: primitive.NewObjectID(), Name: "Broken", Condition: "progress", Weight: 5}

	index, skipped := NewTriggerIndex([]BadgeTrigger{good, bad})

	require.Len(t, index, 1)
	assert.Equal(t, uint8(50), index[good.ID].Condition.Threshold)
	assert.Equal(t, 10.0, index[good.ID].Weight)
	assert.Equal(t, []BadgeTrigger{bad}, skipped)
}

func TestCourse_Lookups(t *testing.T) {
	lesson := Lesson{ID: primitive.NewObjectID(), Title: "Breathing"}
	active := Badge{ID: primitive.NewObjectID(), Name: "Starter"}
	deleted := Badge{ID: primitive.NewObjectID(), Name: "Old", IsDeleted: true}
	course := &Course{Lessons: []Lesson{lesson}, Badges: []Badge{active, deleted}}

	found, ok := course.FindLesson(lesson.ID)
	assert.True(t, ok)
	assert.Equal(t, lesson, found)

	_, ok = course.FindLesson(primitive.NewObjectID())
	assert.False(t, ok)

	_, ok = course.FindBadge(deleted.ID)
	assert.True(t, ok)
	assert.Equal(t, []Badge{active}, course.ActiveBadges())

	progress := &CourseProgress{EarnedBadges: []EarnedBadge{{BadgeID: active.ID}}}
	assert.True(t, progress.HasEarned(active.ID))
	assert.False(t, progress.HasEarned(deleted.ID))
}
