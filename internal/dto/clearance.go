package dto

import "github.com/clearhub-ng/clearance-api/internal/models"

// CreateSubmissionRequest is the student-facing submit payload. Student
// identity fields come from the resolved session, never from the body.
type CreateSubmissionRequest struct {
	OfficeID  string            `json:"office_id" validate:"required"`
	Documents []DocumentPayload `json:"documents" validate:"required,min=1,dive"`
}

// DocumentPayload is one uploaded file reference.
type DocumentPayload struct {
	FileName string `json:"file_name" validate:"required"`
	FileURL  string `json:"file_url" validate:"required,url"`
	FileType string `json:"file_type" validate:"required"`
}

// DecisionRequest captures an officer's approve payload.
type DecisionRequest struct {
	Comment string `json:"comment"`
}

// RejectionRequest captures an officer's reject payload; the reason is
// mandatory so the student knows what to fix before resubmitting.
type RejectionRequest struct {
	Reason string `json:"reason" validate:"required"`
}

// SubmissionResult is the uniform mutation outcome.
type SubmissionResult struct {
	SubmissionID string `json:"submission_id,omitempty"`
	Message      string `json:"message"`
}

// OfficeStatus is one row of a student's per-office breakdown.
type OfficeStatus struct {
	OfficeID   string                  `json:"office_id"`
	OfficeName string                  `json:"office_name"`
	StepNumber int                     `json:"step_number"`
	Status     models.SubmissionStatus `json:"status,omitempty"`
	Submitted  bool                    `json:"submitted"`
	Comment    *string                 `json:"comment,omitempty"`
}

// StudentStatusResponse aggregates a student's clearance progress.
type StudentStatusResponse struct {
	StudentID          string               `json:"student_id"`
	RequestStatus      models.RequestStatus `json:"request_status"`
	CurrentStepNumber  int                  `json:"current_step_number"`
	Offices            []OfficeStatus       `json:"offices"`
	ApprovedCount      int                  `json:"approved_count"`
	TotalOffices       int                  `json:"total_offices"`
	ProgressPercentage int                  `json:"progress_percentage"`
	CanAccessNYSC      bool                 `json:"can_access_nysc"`
}

// SubmissionQuery mirrors supported listing filters for office views.
type SubmissionQuery struct {
	Status         []models.SubmissionStatus
	DepartmentID   string
	IncludeHistory bool
	Limit          int
	Offset         int
}

// DashboardSummary is the oversight roll-up across all offices.
type DashboardSummary struct {
	TotalRequests     int                       `json:"total_requests"`
	InProgress        int                       `json:"in_progress"`
	Completed         int                       `json:"completed"`
	OfficeStatistics  []models.OfficeStatistics `json:"office_statistics"`
	GeneratedAtUnix   int64                     `json:"generated_at_unix"`
	RegistryOfficeIDs []string                  `json:"registry_office_ids"`
}
