package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Badge is an award defined on a course. A badge references exactly one trigger
type Badge struct {
	ID          primitive.ObjectID `bson:"_id" json:"id"`
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	TriggerID   primitive.ObjectID `bson:"triggerId" json:"triggerId"`
	CreatorID   primitive.ObjectID `bson:"creatorId" json:"creatorId"`
	CourseID    primitive.ObjectID `bson:"courseId" json:"courseId"`
	IsDeleted   bool               `bson:"isDeleted" json:"isDeleted"` // Soft delete flag
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// ItemID implements the list item contract of the overflow list store
func (b Badge) ItemID() primitive.ObjectID {
	return b.ID
}

// CreateBadgeRequest represents a request to add a badge to a course
type CreateBadgeRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	TriggerID   string `json:"triggerId"`
}

// UpdateBadgeRequest represents a partial badge update
type UpdateBadgeRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	TriggerID   *string `json:"triggerId,omitempty"`
}

// EarnedBadgeResponse is an earned badge resolved against the course badge list
type EarnedBadgeResponse struct {
	Badge    Badge     `json:"badge"`
	EarnedOn time.Time `json:"earnedOn"`
}
