package models

import "time"

// NotificationKind classifies workflow notifications.
type NotificationKind string

const (
	NotificationSubmissionReceived NotificationKind = "SUBMISSION_RECEIVED"
	NotificationSubmissionApproved NotificationKind = "SUBMISSION_APPROVED"
	NotificationSubmissionRejected NotificationKind = "SUBMISSION_REJECTED"
	NotificationClearanceComplete  NotificationKind = "CLEARANCE_COMPLETE"
)

// Notification is a persisted in-app message for a user. Delivery to
// external channels (email, SMS) is out of scope; this is the portal feed.
type Notification struct {
	ID        string           `db:"id" json:"id"`
	UserID    string           `db:"user_id" json:"user_id"`
	Kind      NotificationKind `db:"kind" json:"kind"`
	Message   string           `db:"message" json:"message"`
	Read      bool             `db:"read" json:"read"`
	CreatedAt time.Time        `db:"created_at" json:"created_at"`
}
