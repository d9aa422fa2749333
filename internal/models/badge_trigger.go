package models

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// BadgeTrigger is read-only reference data describing when a badge is awarded
type BadgeTrigger struct {
	ID        primitive.ObjectID `bson:"_id" json:"id"`
	Name      string             `bson:"name" json:"name"`
	Condition string             `bson:"condition" json:"condition"` // "{kind}-{threshold}", e.g. "progress-50"
	Weight    float64            `bson:"weightage" json:"weightage"`
}

// TriggerKind is the kind of a trigger condition
type TriggerKind string

const (
	TriggerKindProgress TriggerKind = "progress"
)

// CompletionThreshold is reserved for explicit course completion
const CompletionThreshold uint8 = 100

var ErrMalformedCondition = errors.New("malformed trigger condition")

// TriggerCondition is the parsed form of BadgeTrigger.Condition
type TriggerCondition struct {
	Kind      TriggerKind
	Threshold uint8 // percentage, 0-100
}

// ParseTriggerCondition parses a "{kind}-{threshold}" condition
func ParseTriggerCondition(raw string) (TriggerCondition, error) {
	kind, threshold, ok := strings.Cut(strings.TrimSpace(raw), "-")
	if !ok || kind == "" {
		return TriggerCondition{}, fmt.Errorf("%w: %q", ErrMalformedCondition, raw)
	}

	value, err := strconv.ParseUint(threshold, 10, 8)
	if err != nil || value > 100 {
		return TriggerCondition{}, fmt.Errorf("%w: %q", ErrMalformedCondition, raw)
	}

	return TriggerCondition{Kind: TriggerKind(kind), Threshold: uint8(value)}, nil
}

// ResolvedTrigger is a trigger whose condition has been parsed
type ResolvedTrigger struct {
	ID        primitive.ObjectID
	Name      string
	Condition TriggerCondition
	Weight    float64
}

// TriggerIndex maps trigger ids to resolved triggers
type TriggerIndex map[primitive.ObjectID]ResolvedTrigger

// NewTriggerIndex parses every trigger once. Triggers with malformed conditions are
// left out and returned as skipped so the caller can log them
func NewTriggerIndex(triggers []BadgeTrigger) (TriggerIndex, []BadgeTrigger) {
	index := make(TriggerIndex, len(triggers))
	var skipped []BadgeTrigger
	for _, t := range triggers {
		cond, err := ParseTriggerCondition(t.Condition)
		if err != nil {
			skipped = append(skipped, t)
			continue
		}
		index[t.ID] = ResolvedTrigger{ID: t.ID, Name: t.Name, Condition: cond, Weight: t.Weight}
	}
	return index, skipped
}
