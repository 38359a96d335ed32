package models

import "time"

// RequestStatus tracks a student's overall clearance progress.
type RequestStatus string

const (
	RequestPending    RequestStatus = "PENDING"
	RequestInProgress RequestStatus = "IN_PROGRESS"
	RequestCompleted  RequestStatus = "COMPLETED"
)

// ClearanceRequest is the per-student umbrella record. Exactly one active
// (non-deleted) request exists per student. Status moves to COMPLETED only
// through the workflow engine's gating computation, never by client write,
// and completion is monotonic.
type ClearanceRequest struct {
	ID                string        `db:"id" json:"id"`
	StudentID         string        `db:"student_id" json:"student_id"`
	Status            RequestStatus `db:"status" json:"status"`
	CurrentStepNumber int           `db:"current_step_number" json:"current_step_number"`
	CompletedAt       *time.Time    `db:"completed_at" json:"completed_at,omitempty"`
	NYSCAccessed      bool          `db:"nysc_accessed" json:"nysc_accessed"`
	IsDeleted         bool          `db:"is_deleted" json:"-"`
	CreatedAt         time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time     `db:"updated_at" json:"updated_at"`
}

// RequestFilter constrains request listing queries.
type RequestFilter struct {
	Status    []RequestStatus
	StudentID string
	Limit     int
	Offset    int
}
