package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CourseProgress is the progress ledger of one learner in one course
type CourseProgress struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID           primitive.ObjectID `bson:"userId" json:"userId"`
	CourseID         primitive.ObjectID `bson:"courseId" json:"courseId"`
	UserName         string             `bson:"userName" json:"userName"`
	UserPic          string             `bson:"userPic,omitempty" json:"userPic,omitempty"`
	IsCompleted      bool               `bson:"isCompleted" json:"isCompleted"`
	Review           string             `bson:"review,omitempty" json:"review,omitempty"`
	Rating           float64            `bson:"rating,omitempty" json:"rating,omitempty"`
	CompletedLessons []CompletedLesson  `bson:"completedLessons" json:"completedLessons"`
	EarnedBadges     []EarnedBadge      `bson:"earnedBadges" json:"earnedBadges"`
	Answers          []Answer           `bson:"answers" json:"answers"`
	ReminderSentAt   *time.Time         `bson:"reminderSentAt,omitempty" json:"-"`
	CreatedAt        time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt        time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// CompletedLesson is an entry of the completed lesson set
type CompletedLesson struct {
	LessonID    primitive.ObjectID `bson:"lessonId" json:"lessonId"`
	CompletedAt time.Time          `bson:"completedAt" json:"completedAt"`
}

// EarnedBadge is an entry of the earned badge set
type EarnedBadge struct {
	BadgeID  primitive.ObjectID `bson:"badgeId" json:"badgeId"`
	EarnedOn time.Time          `bson:"earnedOn" json:"earnedOn"`
}

// Answer is a learner's answer to a course question
type Answer struct {
	QuestionID primitive.ObjectID `bson:"questionId" json:"questionId"`
	Question   string             `bson:"question" json:"question"`
	Answer     string             `bson:"answer" json:"answer"`
}

// HasEarned reports whether the badge is already in the earned set
func (p *CourseProgress) HasEarned(badgeID primitive.ObjectID) bool {
	for _, e := range p.EarnedBadges {
		if e.BadgeID == badgeID {
			return true
		}
	}
	return false
}

// CompleteCourseRequest represents a request to complete a course
type CompleteCourseRequest struct {
	Review  string          `json:"review"`
	Rating  float64         `json:"rating"`
	Answers []AnswerRequest `json:"answers"`
}

// AnswerRequest is an answer submitted at course completion
type AnswerRequest struct {
	QuestionID string `json:"questionId"`
	Answer     string `json:"answer"`
}

// ProgressResponse summarizes a learner's progress in a course
type ProgressResponse struct {
	CourseID         primitive.ObjectID `json:"courseId"`
	LessonCount      int                `json:"lessonCount"`
	CompletedLessons []CompletedLesson  `json:"completedLessons"`
	Percentage       float64            `json:"percentage"`
	IsCompleted      bool               `json:"isCompleted"`
	EarnedBadges     []EarnedBadge      `json:"earnedBadges"`
}

// AwardResponse is returned by completion operations
type AwardResponse struct {
	NewBadges     []EarnedBadge `json:"newBadges"`
	WeightAwarded float64       `json:"weightAwarded"`
}
