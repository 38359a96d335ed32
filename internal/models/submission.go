package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// SubmissionStatus captures the per-submission state machine. A submission
// transitions PENDING to APPROVED or REJECTED exactly once; a rejected
// submission is superseded by a brand-new PENDING record on resubmission.
type SubmissionStatus string

const (
	SubmissionPending  SubmissionStatus = "PENDING"
	SubmissionApproved SubmissionStatus = "APPROVED"
	SubmissionRejected SubmissionStatus = "REJECTED"
)

// Document is one file reference attached to a submission. The portal
// stores references only; upload and retrieval happen elsewhere.
type Document struct {
	FileName string `json:"file_name"`
	FileURL  string `json:"file_url"`
	FileType string `json:"file_type"`
}

// DocumentList stores the ordered document references as a JSONB column.
type DocumentList []Document

// Value implements driver.Valuer.
func (d DocumentList) Value() (driver.Value, error) {
	if d == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(d)
}

// Scan implements sql.Scanner.
func (d *DocumentList) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*d = nil
		return nil
	case []byte:
		return json.Unmarshal(v, d)
	case string:
		return json.Unmarshal([]byte(v), d)
	default:
		return fmt.Errorf("unsupported document list source %T", src)
	}
}

// ClearanceSubmission is one student's document package directed at one
// office for one workflow pass. Records are append-only: rejection keeps
// the row for audit and a resubmission creates a new current row.
type ClearanceSubmission struct {
	ID            string           `db:"id" json:"id"`
	StudentID     string           `db:"student_id" json:"student_id"`
	StudentName   string           `db:"student_name" json:"student_name"`
	StudentMatric string           `db:"student_matric" json:"student_matric"`
	DepartmentID  string           `db:"department_id" json:"department_id"`
	FacultyID     string           `db:"faculty_id" json:"faculty_id"`
	OfficeID      string           `db:"office_id" json:"office_id"`
	OfficerID     *string          `db:"officer_id" json:"officer_id,omitempty"`
	Documents     DocumentList     `db:"documents" json:"documents"`
	Status        SubmissionStatus `db:"status" json:"status"`
	Comment       *string          `db:"comment" json:"comment,omitempty"`
	CreatedAt     time.Time        `db:"created_at" json:"created_at"`
	ActionedAt    *time.Time       `db:"actioned_at" json:"actioned_at,omitempty"`
	IsDeleted     bool             `db:"is_deleted" json:"-"`
}

// SubmissionFilter constrains listing queries. Zero values are ignored.
type SubmissionFilter struct {
	OfficeID       string
	StudentID      string
	OfficerID      string
	Status         []SubmissionStatus
	DepartmentID   string
	FacultyID      string
	IncludeHistory bool
	Limit          int
	Offset         int
}

// OfficeStatistics aggregates submission counts for one office. Counts are
// recomputed on read, never persisted.
type OfficeStatistics struct {
	OfficeID string `json:"office_id"`
	Total    int    `json:"total"`
	Pending  int    `json:"pending"`
	Approved int    `json:"approved"`
	Rejected int    `json:"rejected"`
}
