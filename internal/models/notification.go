package models

// NotificationType is the kind of queued notification
type NotificationType string

const (
	NotificationEnrolled        NotificationType = "enrolled"
	NotificationCourseFeedback  NotificationType = "course_feedback"
	NotificationStaleEnrollment NotificationType = "stale_enrollment"
)

// Notification is the payload of a queued notification task
type Notification struct {
	Type        NotificationType `json:"type"`
	RecipientID string           `json:"recipientId"`
	ActorID     string           `json:"actorId,omitempty"`
	CourseID    string           `json:"courseId"`
	CourseTitle string           `json:"courseTitle,omitempty"`
	Message     string           `json:"message"`
}
