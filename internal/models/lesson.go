package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Lesson is a single lesson embedded in a course or its overflow record
type Lesson struct {
	ID          primitive.ObjectID `bson:"_id" json:"id"`
	CourseID    primitive.ObjectID `bson:"courseId" json:"courseId"`
	Number      int                `bson:"number" json:"number"` // unique within the course
	Title       string             `bson:"title" json:"title"`   // unique within the course
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Duration    int                `bson:"duration" json:"duration"` // seconds
	VideoURL    string             `bson:"videoUrl,omitempty" json:"videoUrl,omitempty"`
	PdfURL      string             `bson:"pdfUrl,omitempty" json:"pdfUrl,omitempty"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// ItemID implements the list item contract of the overflow list store
func (l Lesson) ItemID() primitive.ObjectID {
	return l.ID
}

// CreateLessonRequest represents a request to add a lesson to a course
type CreateLessonRequest struct {
	Number      int    `json:"number"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Duration    int    `json:"duration"`
	VideoURL    string `json:"videoUrl"`
	PdfURL      string `json:"pdfUrl"`
}

// UpdateLessonRequest represents a partial lesson update
type UpdateLessonRequest struct {
	Number      *int    `json:"number,omitempty"`
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Duration    *int    `json:"duration,omitempty"`
	VideoURL    *string `json:"videoUrl,omitempty"`
	PdfURL      *string `json:"pdfUrl,omitempty"`
}
