package services

import "errors"

// Rejected results. Handlers map them to client errors with the message as-is.
var (
	ErrNotEnrolled           = errors.New("learner is not enrolled in this course")
	ErrAlreadyEnrolled       = errors.New("learner is already enrolled in this course")
	ErrAlreadyCompleted      = errors.New("course is already completed")
	ErrLessonAlreadyRecorded = errors.New("lesson is already completed")
	ErrCourseNotFound        = errors.New("course not found")
	ErrLessonNotFound        = errors.New("lesson not found")
	ErrBadgeNotFound         = errors.New("badge not found")
	ErrNotCourseOwner        = errors.New("only the course creator can change its content")
	ErrDuplicateLessonNumber = errors.New("a lesson with this number already exists")
	ErrDuplicateLessonTitle  = errors.New("a lesson with this title already exists")
	ErrDuplicateBadgeName    = errors.New("a badge with this name already exists")
	ErrDuplicateBadgeTrigger = errors.New("a badge with this trigger already exists")
	ErrInvalidTrigger        = errors.New("badge trigger does not exist")
	ErrInvalidRequest        = errors.New("invalid request")
)
