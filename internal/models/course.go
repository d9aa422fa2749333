package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Course is the course document. Lessons and Badges hold only the primary partition;
// items past the list capacity live in the matching overflow collection
type Course struct {
	ID                  primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CreatorID           primitive.ObjectID `bson:"creatorId" json:"creatorId"`
	Title               string             `bson:"title" json:"title"`
	Description         string             `bson:"description,omitempty" json:"description,omitempty"`
	Lessons             []Lesson           `bson:"lessons" json:"lessons"`
	LessonCount         int                `bson:"lessonCount" json:"lessonCount"` // total across primary and overflow
	HasMoreLessons      bool               `bson:"hasMoreLessons" json:"hasMoreLessons"`
	Badges              []Badge            `bson:"badges" json:"badges"`
	BadgeCount          int                `bson:"badgeCount" json:"badgeCount"`
	HasMoreBadges       bool               `bson:"hasMoreBadges" json:"hasMoreBadges"`
	Questions           []Question         `bson:"questions,omitempty" json:"questions,omitempty"`
	UserOngoing         int                `bson:"userOngoing" json:"userOngoing"`
	UserCompletedCourse int                `bson:"userCompletedCourse" json:"userCompletedCourse"`
	CreatedAt           time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt           time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Question is a feedback question asked at course completion
type Question struct {
	ID       primitive.ObjectID `bson:"_id" json:"id"`
	Question string             `bson:"question" json:"question"`
}

// ActiveBadges returns the badges that are not soft-deleted
func (c *Course) ActiveBadges() []Badge {
	active := make([]Badge, 0, len(c.Badges))
	for _, b := range c.Badges {
		if !b.IsDeleted {
			active = append(active, b)
		}
	}
	return active
}

// FindLesson returns the lesson with the given id
func (c *Course) FindLesson(id primitive.ObjectID) (Lesson, bool) {
	for _, l := range c.Lessons {
		if l.ID == id {
			return l, true
		}
	}
	return Lesson{}, false
}

// FindBadge returns the badge with the given id, including soft-deleted ones
func (c *Course) FindBadge(id primitive.ObjectID) (Badge, bool) {
	for _, b := range c.Badges {
		if b.ID == id {
			return b, true
		}
	}
	return Badge{}, false
}

// OverflowRecord holds the items of one list kind that did not fit on the course document.
// CourseID is the foreign key; the record has its own ID
type OverflowRecord[T any] struct {
	ID       primitive.ObjectID `bson:"_id,omitempty"`
	CourseID primitive.ObjectID `bson:"courseId"`
	Items    []T                `bson:"items"`
	Count    int                `bson:"count"`
}
