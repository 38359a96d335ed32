package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/clearhub-ng/clearance-api/internal/dto"
	"github.com/clearhub-ng/clearance-api/internal/models"
	"github.com/clearhub-ng/clearance-api/internal/service"
	appErrors "github.com/clearhub-ng/clearance-api/pkg/errors"
	"github.com/clearhub-ng/clearance-api/pkg/response"
)

type studentResolver interface {
	FindStudentProfile(ctx context.Context, userID string) (*models.StudentProfile, error)
}

// ClearanceHandler exposes the clearance workflow over HTTP.
type ClearanceHandler struct {
	service  *service.ClearanceService
	students studentResolver
}

// NewClearanceHandler creates a new handler.
func NewClearanceHandler(svc *service.ClearanceService, students studentResolver) *ClearanceHandler {
	return &ClearanceHandler{service: svc, students: students}
}

// Submit godoc
// @Summary Submit clearance documents
// @Description Submit a document package to one clearance office
// @Tags Clearance
// @Accept json
// @Produce json
// @Param payload body dto.CreateSubmissionRequest true "Submission payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /clearance/submissions [post]
func (h *ClearanceHandler) Submit(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.CreateSubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid submission payload"))
		return
	}

	student, err := h.students.FindStudentProfile(c.Request.Context(), actor.UserID())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "no student profile for this account"))
			return
		}
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve student profile"))
		return
	}

	result, err := h.service.Submit(c.Request.Context(), req, actor, student, actor.Claims.FullName)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// Status godoc
// @Summary Clearance status
// @Description Per-office breakdown of the caller's clearance progress
// @Tags Clearance
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /clearance/status [get]
func (h *ClearanceHandler) Status(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	status, err := h.service.StudentStatus(c.Request.Context(), actor.UserID())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, status, nil)
}

// NYSCForm godoc
// @Summary Access the NYSC form
// @Description Available only after every clearance office has approved
// @Tags Clearance
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /clearance/nysc-form [get]
func (h *ClearanceHandler) NYSCForm(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	request, err := h.service.AccessNYSCForm(c.Request.Context(), actor, actor.UserID())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, gin.H{
		"request":     request,
		"form_status": "available",
	}, nil)
}

// Approve godoc
// @Summary Approve a submission
// @Description Approve a pending submission assigned to the caller's office
// @Tags Clearance
// @Accept json
// @Produce json
// @Param id path string true "Submission ID"
// @Param payload body dto.DecisionRequest false "Optional comment"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /clearance/submissions/{id}/approve [post]
func (h *ClearanceHandler) Approve(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.DecisionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid decision payload"))
			return
		}
	}

	result, err := h.service.Approve(c.Request.Context(), c.Param("id"), req, actor)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, result, nil)
}

// Reject godoc
// @Summary Reject a submission
// @Description Reject a pending submission with a mandatory reason
// @Tags Clearance
// @Accept json
// @Produce json
// @Param id path string true "Submission ID"
// @Param payload body dto.RejectionRequest true "Rejection reason"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /clearance/submissions/{id}/reject [post]
func (h *ClearanceHandler) Reject(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.RejectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "a rejection reason is required"))
		return
	}

	result, err := h.service.Reject(c.Request.Context(), c.Param("id"), req, actor)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, result, nil)
}

// OfficePending godoc
// @Summary Pending submissions for an office
// @Tags Clearance
// @Produce json
// @Param officeID path string true "Office ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /clearance/offices/{officeID}/pending [get]
func (h *ClearanceHandler) OfficePending(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	submissions, err := h.service.OfficePending(c.Request.Context(), actor, c.Param("officeID"), submissionQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, submissions, nil)
}

// OfficeSubmissions godoc
// @Summary All submissions for an office
// @Description Full office view, optionally including superseded history
// @Tags Clearance
// @Produce json
// @Param officeID path string true "Office ID"
// @Param status query string false "Comma-separated status filter"
// @Param include_history query bool false "Include superseded submissions"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /clearance/offices/{officeID}/submissions [get]
func (h *ClearanceHandler) OfficeSubmissions(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	submissions, err := h.service.OfficeAll(c.Request.Context(), actor, c.Param("officeID"), submissionQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, submissions, nil)
}

// OfficeStatistics godoc
// @Summary Aggregate counts for an office
// @Tags Clearance
// @Produce json
// @Param officeID path string true "Office ID"
// @Param department_id query string false "Department filter"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /clearance/offices/{officeID}/statistics [get]
func (h *ClearanceHandler) OfficeStatistics(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	stats, err := h.service.OfficeStatistics(c.Request.Context(), actor, c.Param("officeID"), c.Query("department_id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, stats, nil)
}

// GlobalSubmissions godoc
// @Summary Cross-office submission listing
// @Description Read-only oversight query across every office
// @Tags Oversight
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /clearance/submissions [get]
func (h *ClearanceHandler) GlobalSubmissions(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	submissions, err := h.service.GlobalSubmissions(c.Request.Context(), actor, submissionQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, submissions, nil)
}

// GlobalRequests godoc
// @Summary Cross-office clearance request listing
// @Tags Oversight
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /clearance/requests [get]
func (h *ClearanceHandler) GlobalRequests(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	filter := models.RequestFilter{
		StudentID: c.Query("student_id"),
		Limit:     queryInt(c, "limit", 50),
		Offset:    queryInt(c, "offset", 0),
	}
	for _, raw := range splitQueryList(c.Query("status")) {
		filter.Status = append(filter.Status, models.RequestStatus(raw))
	}

	requests, err := h.service.GlobalRequests(c.Request.Context(), actor, filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, requests, nil)
}

// ExportRequests godoc
// @Summary Export clearance requests as CSV
// @Tags Oversight
// @Produce text/csv
// @Success 200 {file} file
// @Failure 403 {object} response.Envelope
// @Router /clearance/requests/export [get]
func (h *ClearanceHandler) ExportRequests(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	data, err := h.service.ExportRequestsCSV(c.Request.Context(), actor)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="clearance-requests.csv"`)
	c.Data(http.StatusOK, "text/csv", data)
}

// Dashboard godoc
// @Summary Oversight dashboard
// @Description Request totals plus per-office statistics
// @Tags Oversight
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /clearance/dashboard [get]
func (h *ClearanceHandler) Dashboard(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	summary, err := h.service.DashboardSummary(c.Request.Context(), actor)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, summary, nil)
}

func submissionQuery(c *gin.Context) dto.SubmissionQuery {
	query := dto.SubmissionQuery{
		DepartmentID:   c.Query("department_id"),
		IncludeHistory: queryBool(c, "include_history"),
		Limit:          queryInt(c, "limit", 50),
		Offset:         queryInt(c, "offset", 0),
	}
	for _, raw := range splitQueryList(c.Query("status")) {
		query.Status = append(query.Status, models.SubmissionStatus(raw))
	}
	return query
}

func splitQueryList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.ToUpper(strings.TrimSpace(p)); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
