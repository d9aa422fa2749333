package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Account is the subset of the learner account used by course progress
type Account struct {
	ID              primitive.ObjectID   `bson:"_id" json:"id"`
	Name            string               `bson:"name" json:"name"`
	Email           string               `bson:"email" json:"email"`
	ProfilePic      string               `bson:"profilePic,omitempty" json:"profilePic,omitempty"`
	ProgressBar     float64              `bson:"progressBar" json:"progressBar"` // sum of earned badge weights
	Badges          int                  `bson:"badges" json:"badges"`
	EnrolledCourses []primitive.ObjectID `bson:"enrolledCourses" json:"enrolledCourses"`
}
