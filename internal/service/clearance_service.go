package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/clearhub-ng/clearance-api/internal/dto"
	"github.com/clearhub-ng/clearance-api/internal/models"
	"github.com/clearhub-ng/clearance-api/internal/policy"
	"github.com/clearhub-ng/clearance-api/internal/registry"
	"github.com/clearhub-ng/clearance-api/internal/repository"
	appErrors "github.com/clearhub-ng/clearance-api/pkg/errors"
	"github.com/clearhub-ng/clearance-api/pkg/export"
)

type submissionStore interface {
	Create(ctx context.Context, submission *models.ClearanceSubmission) error
	GetByID(ctx context.Context, id string) (*models.ClearanceSubmission, error)
	LatestPerOffice(ctx context.Context, studentID string) (map[string]models.ClearanceSubmission, error)
	List(ctx context.Context, filter models.SubmissionFilter) ([]models.ClearanceSubmission, error)
	ApplyDecision(ctx context.Context, params repository.DecisionParams) error
	CountByStatus(ctx context.Context, officeID, departmentID string) (*models.OfficeStatistics, error)
}

type requestStore interface {
	Create(ctx context.Context, request *models.ClearanceRequest) error
	GetActiveByStudent(ctx context.Context, studentID string) (*models.ClearanceRequest, error)
	List(ctx context.Context, filter models.RequestFilter) ([]models.ClearanceRequest, error)
	CountByStatus(ctx context.Context) (map[models.RequestStatus]int, error)
	UpdateProgress(ctx context.Context, id string, status models.RequestStatus, currentStep int) error
	MarkCompleted(ctx context.Context, id string, completedAt time.Time) error
	MarkNYSCAccessed(ctx context.Context, id string) error
}

type officerDirectory interface {
	ListOfficersByOffice(ctx context.Context, officeID string) ([]string, error)
}

type auditLogger interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// Notifier is the side-effect sink for workflow state transitions. Delivery
// is fire-and-forget: failures are the sink's problem, never the workflow's.
type Notifier interface {
	Notify(userID string, kind models.NotificationKind, message string)
}

// NotifierFunc allows using plain functions as sinks.
type NotifierFunc func(userID string, kind models.NotificationKind, message string)

// Notify implements Notifier.
func (f NotifierFunc) Notify(userID string, kind models.NotificationKind, message string) {
	f(userID, kind, message)
}

type workflowMetrics interface {
	RecordSubmission(officeID string)
	RecordDecision(officeID string, status models.SubmissionStatus)
	RecordCompletion()
}

type statsCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// ClearanceService is the workflow engine: it owns the ordered multi-office
// approval state machine, officer routing, and the submission lifecycle.
// Completion is always derived from the current registry's gating
// computation; reporting queries elsewhere are views, not authority.
type ClearanceService struct {
	submissions submissionStore
	requests    requestStore
	registry    *registry.Registry
	policy      *policy.Policy
	officers    officerDirectory
	notifier    Notifier
	audit       auditLogger
	cache       statsCache
	metrics     workflowMetrics
	logger      *zap.Logger
	validator   *validator.Validate

	statsTTL     time.Duration
	maxDocuments int
}

// ClearanceOption configures the service.
type ClearanceOption func(*ClearanceService)

// WithNotifier sets the side-effect sink.
func WithNotifier(n Notifier) ClearanceOption {
	return func(s *ClearanceService) {
		if n != nil {
			s.notifier = n
		}
	}
}

// WithStatsCache enables cached statistics reads.
func WithStatsCache(cache statsCache, ttl time.Duration) ClearanceOption {
	return func(s *ClearanceService) {
		s.cache = cache
		if ttl > 0 {
			s.statsTTL = ttl
		}
	}
}

// WithWorkflowMetrics wires Prometheus workflow counters.
func WithWorkflowMetrics(m workflowMetrics) ClearanceOption {
	return func(s *ClearanceService) {
		s.metrics = m
	}
}

// WithOfficerDirectory wires pooled-office notification fan-out.
func WithOfficerDirectory(d officerDirectory) ClearanceOption {
	return func(s *ClearanceService) {
		s.officers = d
	}
}

// WithMaxDocuments caps the accepted document list length.
func WithMaxDocuments(n int) ClearanceOption {
	return func(s *ClearanceService) {
		if n > 0 {
			s.maxDocuments = n
		}
	}
}

// NewClearanceService constructs the workflow engine.
func NewClearanceService(
	submissions submissionStore,
	requests requestStore,
	reg *registry.Registry,
	pol *policy.Policy,
	audit auditLogger,
	logger *zap.Logger,
	opts ...ClearanceOption,
) *ClearanceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &ClearanceService{
		submissions:  submissions,
		requests:     requests,
		registry:     reg,
		policy:       pol,
		audit:        audit,
		logger:       logger,
		validator:    validator.New(),
		notifier:     NotifierFunc(func(string, models.NotificationKind, string) {}),
		statsTTL:     2 * time.Minute,
		maxDocuments: 10,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc
}

// Submit records a student's document package for one office. The gating
// rule requires every lower-step office to be APPROVED first, and only one
// PENDING submission may exist per student+office.
func (s *ClearanceService) Submit(ctx context.Context, req dto.CreateSubmissionRequest, actor policy.Actor, student *models.StudentProfile, studentName string) (*dto.SubmissionResult, error) {
	if actor.Claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if student == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student profile not found")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid submission payload")
	}
	if len(req.Documents) > s.maxDocuments {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("at most %d documents per submission", s.maxDocuments))
	}
	for _, doc := range req.Documents {
		if _, err := url.ParseRequestURI(doc.FileURL); err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("malformed document url %q", doc.FileURL))
		}
	}

	office, ok := s.registry.Get(req.OfficeID)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "unknown clearance office")
	}

	latest, err := s.submissions.LatestPerOffice(ctx, student.UserID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to load submission history")
	}

	for _, gate := range s.registry.StepsBelow(office.StepNumber) {
		prior, submitted := latest[gate.ID]
		if !submitted || prior.Status != models.SubmissionApproved {
			return nil, appErrors.Clone(appErrors.ErrOutOfSequence, fmt.Sprintf("%s must approve before %s", gate.Name, office.Name))
		}
	}

	if current, ok := latest[office.ID]; ok {
		switch current.Status {
		case models.SubmissionPending:
			return nil, appErrors.Clone(appErrors.ErrDuplicatePending, fmt.Sprintf("a pending submission for %s already exists", office.Name))
		case models.SubmissionApproved:
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s has already approved this clearance", office.Name))
		}
	}

	submission := &models.ClearanceSubmission{
		StudentID:     student.UserID,
		StudentName:   studentName,
		StudentMatric: student.MatricNumber,
		DepartmentID:  student.DepartmentID,
		FacultyID:     student.FacultyID,
		OfficeID:      office.ID,
		Documents:     toDocumentList(req.Documents),
		Status:        models.SubmissionPending,
	}
	if office.Routed() {
		routed := office.RoutedOfficerID
		submission.OfficerID = &routed
	}
	if err := s.submissions.Create(ctx, submission); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to create submission")
	}

	if err := s.touchRequest(ctx, student.UserID, office.StepNumber); err != nil {
		return nil, err
	}

	s.emitAudit(ctx, &models.AuditLog{
		UserID:     strPtr(actor.UserID()),
		Action:     models.AuditActionSubmissionCreate,
		Resource:   "clearance_submission",
		ResourceID: &submission.ID,
		NewValues:  mustJSON(map[string]string{"office_id": office.ID, "status": string(submission.Status)}),
	})
	s.notifyOffice(ctx, office, submission)
	if s.metrics != nil {
		s.metrics.RecordSubmission(office.ID)
	}

	return &dto.SubmissionResult{
		SubmissionID: submission.ID,
		Message:      fmt.Sprintf("submitted to %s", office.Name),
	}, nil
}

// Approve transitions a PENDING submission to APPROVED and recomputes the
// student's overall progress. Two racing approvals resolve
// first-committer-wins through the store's conditional update.
func (s *ClearanceService) Approve(ctx context.Context, submissionID string, req dto.DecisionRequest, actor policy.Actor) (*dto.SubmissionResult, error) {
	submission, err := s.loadActionable(ctx, submissionID, actor)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if err := s.submissions.ApplyDecision(ctx, repository.DecisionParams{
		ID:         submission.ID,
		Status:     models.SubmissionApproved,
		OfficerID:  actor.UserID(),
		ActionedAt: now,
		Comment:    optionalString(req.Comment),
	}); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrAlreadyActioned
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to record approval")
	}

	office, _ := s.registry.Get(submission.OfficeID)
	completed, recomputeErr := s.recomputeRequest(ctx, submission.StudentID)
	if recomputeErr != nil {
		// The approval itself committed; surface the recompute failure
		// rather than pretending progress advanced.
		return nil, recomputeErr
	}

	s.emitAudit(ctx, &models.AuditLog{
		UserID:     strPtr(actor.UserID()),
		Action:     models.AuditActionSubmissionAction,
		Resource:   "clearance_submission",
		ResourceID: &submission.ID,
		NewValues:  mustJSON(map[string]string{"status": string(models.SubmissionApproved), "office_id": submission.OfficeID}),
	})
	s.notifier.Notify(submission.StudentID, models.NotificationSubmissionApproved,
		fmt.Sprintf("%s approved your clearance submission", office.Name))
	if completed {
		s.notifier.Notify(submission.StudentID, models.NotificationClearanceComplete,
			"congratulations, your clearance is complete; the NYSC form is now available")
	}
	if s.metrics != nil {
		s.metrics.RecordDecision(submission.OfficeID, models.SubmissionApproved)
		if completed {
			s.metrics.RecordCompletion()
		}
	}

	return &dto.SubmissionResult{SubmissionID: submission.ID, Message: "submission approved"}, nil
}

// Reject transitions a PENDING submission to REJECTED. The reason is
// mandatory; the student's request stays IN_PROGRESS so they can resubmit.
func (s *ClearanceService) Reject(ctx context.Context, submissionID string, req dto.RejectionRequest, actor policy.Actor) (*dto.SubmissionResult, error) {
	if strings.TrimSpace(req.Reason) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "a rejection reason is required")
	}

	submission, err := s.loadActionable(ctx, submissionID, actor)
	if err != nil {
		return nil, err
	}

	reason := strings.TrimSpace(req.Reason)
	if err := s.submissions.ApplyDecision(ctx, repository.DecisionParams{
		ID:         submission.ID,
		Status:     models.SubmissionRejected,
		OfficerID:  actor.UserID(),
		ActionedAt: time.Now().UTC(),
		Comment:    &reason,
	}); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrAlreadyActioned
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to record rejection")
	}

	office, _ := s.registry.Get(submission.OfficeID)
	s.emitAudit(ctx, &models.AuditLog{
		UserID:     strPtr(actor.UserID()),
		Action:     models.AuditActionSubmissionAction,
		Resource:   "clearance_submission",
		ResourceID: &submission.ID,
		NewValues:  mustJSON(map[string]string{"status": string(models.SubmissionRejected), "reason": reason}),
	})
	s.notifier.Notify(submission.StudentID, models.NotificationSubmissionRejected,
		fmt.Sprintf("%s rejected your submission: %s", office.Name, reason))
	if s.metrics != nil {
		s.metrics.RecordDecision(submission.OfficeID, models.SubmissionRejected)
	}

	return &dto.SubmissionResult{SubmissionID: submission.ID, Message: "submission rejected"}, nil
}

// StudentStatus is the pure-read per-office breakdown with aggregate
// progress percentage.
func (s *ClearanceService) StudentStatus(ctx context.Context, studentID string) (*dto.StudentStatusResponse, error) {
	latest, err := s.submissions.LatestPerOffice(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to load submission history")
	}

	offices := s.registry.List()
	breakdown := make([]dto.OfficeStatus, 0, len(offices))
	approved := 0
	for _, office := range offices {
		row := dto.OfficeStatus{OfficeID: office.ID, OfficeName: office.Name, StepNumber: office.StepNumber}
		if submission, ok := latest[office.ID]; ok {
			row.Submitted = true
			row.Status = submission.Status
			row.Comment = submission.Comment
			if submission.Status == models.SubmissionApproved {
				approved++
			}
		}
		breakdown = append(breakdown, row)
	}

	resp := &dto.StudentStatusResponse{
		StudentID:          studentID,
		RequestStatus:      models.RequestPending,
		Offices:            breakdown,
		ApprovedCount:      approved,
		TotalOffices:       len(offices),
		ProgressPercentage: progressPercentage(approved, len(offices)),
	}

	request, err := s.requests.GetActiveByStudent(ctx, studentID)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to load clearance request")
		}
	} else {
		resp.RequestStatus = request.Status
		resp.CurrentStepNumber = request.CurrentStepNumber
		resp.CanAccessNYSC = request.Status == models.RequestCompleted
	}
	return resp, nil
}

// CanAccessFinalForms reports whether downstream artifacts (NYSC form, ID
// card) are unlocked. Completion is monotonic: once true, always true.
func (s *ClearanceService) CanAccessFinalForms(ctx context.Context, studentID string) (bool, error) {
	request, err := s.requests.GetActiveByStudent(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to load clearance request")
	}
	return request.Status == models.RequestCompleted, nil
}

// AccessNYSCForm gates the NYSC form behind completion and stamps first
// access for reporting.
func (s *ClearanceService) AccessNYSCForm(ctx context.Context, actor policy.Actor, studentID string) (*models.ClearanceRequest, error) {
	request, err := s.requests.GetActiveByStudent(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "clearance has not been completed")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to load clearance request")
	}
	if request.Status != models.RequestCompleted {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "clearance has not been completed")
	}
	if !request.NYSCAccessed {
		if err := s.requests.MarkNYSCAccessed(ctx, request.ID); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to record NYSC access")
		}
		request.NYSCAccessed = true
		s.emitAudit(ctx, &models.AuditLog{
			UserID:     strPtr(actor.UserID()),
			Action:     models.AuditActionNYSCAccess,
			Resource:   "clearance_request",
			ResourceID: &request.ID,
		})
	}
	return request, nil
}

// OfficePending lists a single office's open queue, scoped by the access
// policy (out-of-scope submissions are excluded, not errored).
func (s *ClearanceService) OfficePending(ctx context.Context, actor policy.Actor, officeID string, query dto.SubmissionQuery) ([]models.ClearanceSubmission, error) {
	if err := s.policy.CanViewOffice(actor, officeID); err != nil {
		return nil, err
	}
	filter := models.SubmissionFilter{
		OfficeID:     officeID,
		Status:       []models.SubmissionStatus{models.SubmissionPending},
		DepartmentID: query.DepartmentID,
		Limit:        query.Limit,
		Offset:       query.Offset,
	}
	filter = s.policy.NarrowFilter(actor, filter)
	submissions, err := s.submissions.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to list pending submissions")
	}
	return submissions, nil
}

// OfficeAll lists an office's full submission view including decided and,
// when asked, superseded history rows.
func (s *ClearanceService) OfficeAll(ctx context.Context, actor policy.Actor, officeID string, query dto.SubmissionQuery) ([]models.ClearanceSubmission, error) {
	if err := s.policy.CanViewOffice(actor, officeID); err != nil {
		return nil, err
	}
	filter := models.SubmissionFilter{
		OfficeID:       officeID,
		Status:         query.Status,
		DepartmentID:   query.DepartmentID,
		IncludeHistory: query.IncludeHistory,
		Limit:          query.Limit,
		Offset:         query.Offset,
	}
	filter = s.policy.NarrowFilter(actor, filter)
	submissions, err := s.submissions.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to list submissions")
	}
	return submissions, nil
}

// GlobalSubmissions bypasses per-office scoping for oversight roles only.
func (s *ClearanceService) GlobalSubmissions(ctx context.Context, actor policy.Actor, query dto.SubmissionQuery) ([]models.ClearanceSubmission, error) {
	if !s.policy.CanReadGlobal(actor) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "global submission queries require an oversight role")
	}
	submissions, err := s.submissions.List(ctx, models.SubmissionFilter{
		Status:         query.Status,
		DepartmentID:   query.DepartmentID,
		IncludeHistory: query.IncludeHistory,
		Limit:          query.Limit,
		Offset:         query.Offset,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to list submissions")
	}
	return submissions, nil
}

// GlobalRequests lists per-student umbrella records for oversight roles.
func (s *ClearanceService) GlobalRequests(ctx context.Context, actor policy.Actor, filter models.RequestFilter) ([]models.ClearanceRequest, error) {
	if !s.policy.CanReadGlobal(actor) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "global request queries require an oversight role")
	}
	requests, err := s.requests.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to list clearance requests")
	}
	return requests, nil
}

// OfficeStatistics returns aggregate counts for one office, recomputed on
// read and cached briefly. Storage failures degrade to zero-valued counts
// rather than failing the page.
func (s *ClearanceService) OfficeStatistics(ctx context.Context, actor policy.Actor, officeID, departmentID string) (*models.OfficeStatistics, error) {
	if err := s.policy.CanViewOffice(actor, officeID); err != nil {
		return nil, err
	}
	if _, ok := s.registry.Get(officeID); !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "unknown clearance office")
	}

	key := fmt.Sprintf("clearance:stats:%s:%s", officeID, departmentID)
	if s.cache != nil {
		var cached models.OfficeStatistics
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return &cached, nil
		}
	}

	stats, err := s.submissions.CountByStatus(ctx, officeID, departmentID)
	if err != nil {
		s.logger.Warn("statistics read degraded to zero values",
			zap.String("office_id", officeID), zap.Error(err))
		return &models.OfficeStatistics{OfficeID: officeID}, nil
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, stats, s.statsTTL); err != nil {
			s.logger.Warn("failed to cache office statistics", zap.Error(err))
		}
	}
	return stats, nil
}

// DashboardSummary is the oversight roll-up: request totals plus per-office
// statistics, a reporting view over the engine's state.
func (s *ClearanceService) DashboardSummary(ctx context.Context, actor policy.Actor) (*dto.DashboardSummary, error) {
	if !s.policy.CanReadGlobal(actor) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "the dashboard requires an oversight role")
	}

	counts, err := s.requests.CountByStatus(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to count clearance requests")
	}

	summary := &dto.DashboardSummary{
		InProgress:      counts[models.RequestInProgress] + counts[models.RequestPending],
		Completed:       counts[models.RequestCompleted],
		GeneratedAtUnix: time.Now().Unix(),
	}
	for _, n := range counts {
		summary.TotalRequests += n
	}
	for _, office := range s.registry.List() {
		summary.RegistryOfficeIDs = append(summary.RegistryOfficeIDs, office.ID)
		stats, err := s.submissions.CountByStatus(ctx, office.ID, "")
		if err != nil {
			s.logger.Warn("dashboard office statistics degraded", zap.String("office_id", office.ID), zap.Error(err))
			stats = &models.OfficeStatistics{OfficeID: office.ID}
		}
		summary.OfficeStatistics = append(summary.OfficeStatistics, *stats)
	}
	return summary, nil
}

// ExportRequestsCSV renders every clearance request as a CSV report for
// oversight download.
func (s *ClearanceService) ExportRequestsCSV(ctx context.Context, actor policy.Actor) ([]byte, error) {
	if !s.policy.CanReadGlobal(actor) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "request exports require an oversight role")
	}

	requests, err := s.requests.List(ctx, models.RequestFilter{})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to list clearance requests")
	}

	dataset := export.Dataset{
		Headers: []string{"student_id", "status", "current_step", "completed_at", "nysc_accessed"},
	}
	for _, request := range requests {
		row := map[string]string{
			"student_id":    request.StudentID,
			"status":        string(request.Status),
			"current_step":  fmt.Sprintf("%d", request.CurrentStepNumber),
			"nysc_accessed": fmt.Sprintf("%t", request.NYSCAccessed),
		}
		if request.CompletedAt != nil {
			row["completed_at"] = request.CompletedAt.UTC().Format(time.RFC3339)
		}
		dataset.Rows = append(dataset.Rows, row)
	}

	data, err := export.NewCSVExporter().Render(dataset)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}
	return data, nil
}

// loadActionable fetches a submission and runs the shared approve/reject
// preconditions: existence, PENDING state, and the access policy.
func (s *ClearanceService) loadActionable(ctx context.Context, submissionID string, actor policy.Actor) (*models.ClearanceSubmission, error) {
	submission, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "submission not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to load submission")
	}
	if submission.Status != models.SubmissionPending {
		return nil, appErrors.ErrAlreadyActioned
	}
	if err := s.policy.CanAct(actor, submission); err != nil {
		return nil, err
	}
	return submission, nil
}

// touchRequest creates or advances the per-student umbrella record after a
// new submission.
func (s *ClearanceService) touchRequest(ctx context.Context, studentID string, step int) error {
	request, err := s.requests.GetActiveByStudent(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			request = &models.ClearanceRequest{
				StudentID:         studentID,
				Status:            models.RequestInProgress,
				CurrentStepNumber: step,
			}
			if err := s.requests.Create(ctx, request); err != nil {
				return appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to create clearance request")
			}
			return nil
		}
		return appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to load clearance request")
	}
	if err := s.requests.UpdateProgress(ctx, request.ID, models.RequestInProgress, step); err != nil {
		return appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to update clearance request")
	}
	return nil
}

// recomputeRequest re-reads the latest statuses for every gating office and
// derives the request state. Returns true when the request is COMPLETED.
// The recompute is idempotent: a racing duplicate completion is a no-op.
func (s *ClearanceService) recomputeRequest(ctx context.Context, studentID string) (bool, error) {
	latest, err := s.submissions.LatestPerOffice(ctx, studentID)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to recompute clearance progress")
	}

	allApproved := true
	nextStep := 0
	for _, office := range s.registry.List() {
		submission, ok := latest[office.ID]
		if !ok || submission.Status != models.SubmissionApproved {
			allApproved = false
			if nextStep == 0 || office.StepNumber < nextStep {
				nextStep = office.StepNumber
			}
		}
	}

	request, err := s.requests.GetActiveByStudent(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Submissions without an umbrella record should not happen, but
			// the recompute can rebuild one.
			request = &models.ClearanceRequest{StudentID: studentID, Status: models.RequestInProgress, CurrentStepNumber: nextStep}
			if err := s.requests.Create(ctx, request); err != nil {
				return false, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to rebuild clearance request")
			}
		} else {
			return false, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to load clearance request")
		}
	}

	if allApproved {
		if err := s.requests.MarkCompleted(ctx, request.ID, time.Now().UTC()); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				// Another recompute completed it first.
				return true, nil
			}
			return false, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to mark clearance completed")
		}
		return true, nil
	}

	if request.Status != models.RequestCompleted {
		if err := s.requests.UpdateProgress(ctx, request.ID, models.RequestInProgress, nextStep); err != nil {
			return false, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to advance clearance request")
		}
	}
	return false, nil
}

// notifyOffice routes the submission-received event: routed offices get the
// named officer, pooled offices fan out to every assigned officer.
func (s *ClearanceService) notifyOffice(ctx context.Context, office models.ClearanceOffice, submission *models.ClearanceSubmission) {
	message := fmt.Sprintf("new clearance submission from %s (%s)", submission.StudentName, submission.StudentMatric)
	if office.Routed() {
		s.notifier.Notify(office.RoutedOfficerID, models.NotificationSubmissionReceived, message)
		return
	}
	if s.officers == nil {
		return
	}
	officerIDs, err := s.officers.ListOfficersByOffice(ctx, office.ID)
	if err != nil {
		s.logger.Warn("failed to resolve office officers for notification",
			zap.String("office_id", office.ID), zap.Error(err))
		return
	}
	for _, officerID := range officerIDs {
		s.notifier.Notify(officerID, models.NotificationSubmissionReceived, message)
	}
}

func (s *ClearanceService) emitAudit(ctx context.Context, log *models.AuditLog) {
	if s.audit == nil || log == nil {
		return
	}
	log.IPAddress = "system"
	log.UserAgent = "clearance-service"
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to persist audit log", zap.Error(err))
	}
}

func progressPercentage(approved, total int) int {
	if total <= 0 {
		return 0
	}
	pct := approved * 100 / total
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}

func toDocumentList(docs []dto.DocumentPayload) models.DocumentList {
	out := make(models.DocumentList, 0, len(docs))
	for _, doc := range docs {
		out = append(out, models.Document{FileName: doc.FileName, FileURL: doc.FileURL, FileType: doc.FileType})
	}
	return out
}

func optionalString(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func strPtr(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

func mustJSON(v interface{}) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		return []byte("{}")
	}
	return data
}
