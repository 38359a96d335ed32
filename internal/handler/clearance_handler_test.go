package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/clearhub-ng/clearance-api/internal/middleware"
	"github.com/clearhub-ng/clearance-api/internal/models"
	"github.com/clearhub-ng/clearance-api/internal/policy"
	"github.com/clearhub-ng/clearance-api/internal/registry"
	"github.com/clearhub-ng/clearance-api/internal/repository"
	"github.com/clearhub-ng/clearance-api/internal/service"
)

// handlerSubmissionStore is a minimal in-memory store for routing tests;
// workflow semantics are covered by the service tests.
type handlerSubmissionStore struct {
	submissions []*models.ClearanceSubmission
}

func (m *handlerSubmissionStore) Create(_ context.Context, s *models.ClearanceSubmission) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	s.CreatedAt = time.Now().UTC()
	clone := *s
	m.submissions = append(m.submissions, &clone)
	return nil
}

func (m *handlerSubmissionStore) GetByID(_ context.Context, id string) (*models.ClearanceSubmission, error) {
	for _, s := range m.submissions {
		if s.ID == id {
			clone := *s
			return &clone, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *handlerSubmissionStore) LatestPerOffice(_ context.Context, studentID string) (map[string]models.ClearanceSubmission, error) {
	latest := make(map[string]models.ClearanceSubmission)
	for _, s := range m.submissions {
		if s.StudentID == studentID {
			latest[s.OfficeID] = *s
		}
	}
	return latest, nil
}

func (m *handlerSubmissionStore) List(_ context.Context, filter models.SubmissionFilter) ([]models.ClearanceSubmission, error) {
	var out []models.ClearanceSubmission
	for _, s := range m.submissions {
		if filter.OfficeID != "" && s.OfficeID != filter.OfficeID {
			continue
		}
		out = append(out, *s)
	}
	return out, nil
}

func (m *handlerSubmissionStore) ApplyDecision(_ context.Context, params repository.DecisionParams) error {
	for _, s := range m.submissions {
		if s.ID == params.ID {
			if s.Status != models.SubmissionPending {
				return sql.ErrNoRows
			}
			s.Status = params.Status
			return nil
		}
	}
	return sql.ErrNoRows
}

func (m *handlerSubmissionStore) CountByStatus(_ context.Context, officeID, _ string) (*models.OfficeStatistics, error) {
	return &models.OfficeStatistics{OfficeID: officeID}, nil
}

type handlerRequestStore struct {
	requests map[string]*models.ClearanceRequest
}

func (m *handlerRequestStore) Create(_ context.Context, r *models.ClearanceRequest) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if m.requests == nil {
		m.requests = make(map[string]*models.ClearanceRequest)
	}
	m.requests[r.StudentID] = r
	return nil
}

func (m *handlerRequestStore) GetActiveByStudent(_ context.Context, studentID string) (*models.ClearanceRequest, error) {
	if r, ok := m.requests[studentID]; ok {
		return r, nil
	}
	return nil, sql.ErrNoRows
}

func (m *handlerRequestStore) List(_ context.Context, _ models.RequestFilter) ([]models.ClearanceRequest, error) {
	var out []models.ClearanceRequest
	for _, r := range m.requests {
		out = append(out, *r)
	}
	return out, nil
}

func (m *handlerRequestStore) CountByStatus(_ context.Context) (map[models.RequestStatus]int, error) {
	counts := make(map[models.RequestStatus]int)
	for _, r := range m.requests {
		counts[r.Status]++
	}
	return counts, nil
}

func (m *handlerRequestStore) UpdateProgress(_ context.Context, id string, status models.RequestStatus, step int) error {
	for _, r := range m.requests {
		if r.ID == id {
			r.Status = status
			r.CurrentStepNumber = step
			return nil
		}
	}
	return sql.ErrNoRows
}

func (m *handlerRequestStore) MarkCompleted(_ context.Context, id string, completedAt time.Time) error {
	for _, r := range m.requests {
		if r.ID == id {
			r.Status = models.RequestCompleted
			r.CompletedAt = &completedAt
			return nil
		}
	}
	return sql.ErrNoRows
}

func (m *handlerRequestStore) MarkNYSCAccessed(_ context.Context, id string) error {
	for _, r := range m.requests {
		if r.ID == id {
			r.NYSCAccessed = true
			return nil
		}
	}
	return sql.ErrNoRows
}

type staticStudents struct{}

func (staticStudents) FindStudentProfile(_ context.Context, userID string) (*models.StudentProfile, error) {
	return &models.StudentProfile{UserID: userID, MatricNumber: "CSC/2021/001", DepartmentID: "csc", FacultyID: "science"}, nil
}

type nopAudit struct{}

func (nopAudit) CreateAuditLog(_ context.Context, _ *models.AuditLog) error { return nil }

// testIdentity injects claims from headers so routes can be exercised
// without real tokens.
func testIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetHeader("X-Test-Role")
		if role == "" {
			c.Next()
			return
		}
		claims := &models.JWTClaims{
			UserID:   c.GetHeader("X-Test-User"),
			Role:     models.UserRole(role),
			FullName: "Ada Obi",
		}
		actor := policy.Actor{Claims: claims}
		if office := c.GetHeader("X-Test-Office"); office != "" {
			actor.Officer = &models.OfficerProfile{UserID: claims.UserID, AssignedOfficeID: office}
		}
		c.Set(middleware.ContextUserKey, claims)
		c.Set(middleware.ContextActorKey, actor)
		c.Next()
	}
}

func buildClearanceRouter(t *testing.T) (*gin.Engine, *handlerSubmissionStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	reg, err := registry.New([]models.ClearanceOffice{
		{ID: "hod", Name: "Head of Department", StepNumber: 1, Assignment: models.AssignmentPooled},
		{ID: "faculty", Name: "Faculty Office", StepNumber: 2, Assignment: models.AssignmentPooled},
	})
	require.NoError(t, err)

	submissions := &handlerSubmissionStore{}
	svc := service.NewClearanceService(
		submissions,
		&handlerRequestStore{},
		reg,
		policy.New(reg),
		nopAudit{},
		zap.NewNop(),
	)
	h := NewClearanceHandler(svc, staticStudents{})
	officeHandler := NewOfficeHandler(reg)

	router := gin.New()
	router.Use(testIdentity())
	router.POST("/clearance/submissions", h.Submit)
	router.GET("/clearance/status", h.Status)
	router.GET("/clearance/nysc-form", h.NYSCForm)
	router.POST("/clearance/submissions/:id/approve", h.Approve)
	router.POST("/clearance/submissions/:id/reject", h.Reject)
	router.GET("/clearance/offices/:officeID/pending", h.OfficePending)
	router.GET("/clearance/dashboard", h.Dashboard)
	router.GET("/offices", officeHandler.List)
	router.GET("/offices/:id", officeHandler.Get)
	return router, submissions
}

func performRequest(router *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func submitBody(officeID string) *bytes.Buffer {
	payload := map[string]interface{}{
		"office_id": officeID,
		"documents": []map[string]string{
			{"file_name": "form.pdf", "file_url": "https://files.example.edu/form.pdf", "file_type": "application/pdf"},
		},
	}
	raw, _ := json.Marshal(payload)
	return bytes.NewBuffer(raw)
}

func TestSubmitEndpoint(t *testing.T) {
	router, _ := buildClearanceRouter(t)

	req, _ := http.NewRequest(http.MethodPost, "/clearance/submissions", submitBody("hod"))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Test-Role", string(models.RoleStudent))
	req.Header.Set("X-Test-User", "s1")
	resp := performRequest(router, req)

	require.Equal(t, http.StatusCreated, resp.Code)
	assert.Contains(t, resp.Body.String(), `"submission_id"`)
}

func TestSubmitEndpointUnauthenticated(t *testing.T) {
	router, _ := buildClearanceRouter(t)

	req, _ := http.NewRequest(http.MethodPost, "/clearance/submissions", submitBody("hod"))
	req.Header.Set("Content-Type", "application/json")
	resp := performRequest(router, req)

	require.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestSubmitEndpointOutOfSequence(t *testing.T) {
	router, _ := buildClearanceRouter(t)

	req, _ := http.NewRequest(http.MethodPost, "/clearance/submissions", submitBody("faculty"))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Test-Role", string(models.RoleStudent))
	req.Header.Set("X-Test-User", "s1")
	resp := performRequest(router, req)

	require.Equal(t, http.StatusConflict, resp.Code)
	assert.Contains(t, resp.Body.String(), "OUT_OF_SEQUENCE")
}

func TestApproveEndpointOfficeIsolation(t *testing.T) {
	router, submissions := buildClearanceRouter(t)

	req, _ := http.NewRequest(http.MethodPost, "/clearance/submissions", submitBody("hod"))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Test-Role", string(models.RoleStudent))
	req.Header.Set("X-Test-User", "s1")
	require.Equal(t, http.StatusCreated, performRequest(router, req).Code)
	require.Len(t, submissions.submissions, 1)
	submissionID := submissions.submissions[0].ID

	approve := func(officerID, officeID string) *httptest.ResponseRecorder {
		r, _ := http.NewRequest(http.MethodPost, fmt.Sprintf("/clearance/submissions/%s/approve", submissionID), nil)
		r.Header.Set("X-Test-Role", string(models.RoleOfficer))
		r.Header.Set("X-Test-User", officerID)
		r.Header.Set("X-Test-Office", officeID)
		return performRequest(router, r)
	}

	resp := approve("officer-fac", "faculty")
	require.Equal(t, http.StatusForbidden, resp.Code)

	resp = approve("officer-hod", "hod")
	require.Equal(t, http.StatusOK, resp.Code)

	// Second approval of the same submission conflicts.
	resp = approve("officer-hod", "hod")
	require.Equal(t, http.StatusConflict, resp.Code)
	assert.Contains(t, resp.Body.String(), "ALREADY_ACTIONED")
}

func TestRejectEndpointRequiresReason(t *testing.T) {
	router, submissions := buildClearanceRouter(t)

	req, _ := http.NewRequest(http.MethodPost, "/clearance/submissions", submitBody("hod"))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Test-Role", string(models.RoleStudent))
	req.Header.Set("X-Test-User", "s1")
	require.Equal(t, http.StatusCreated, performRequest(router, req).Code)
	submissionID := submissions.submissions[0].ID

	r, _ := http.NewRequest(http.MethodPost, fmt.Sprintf("/clearance/submissions/%s/reject", submissionID), bytes.NewBufferString(`{"reason":""}`))
	r.Header.Set("Content-Type", "application/json")
	r.Header.Set("X-Test-Role", string(models.RoleOfficer))
	r.Header.Set("X-Test-User", "officer-hod")
	r.Header.Set("X-Test-Office", "hod")
	resp := performRequest(router, r)

	require.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestStatusEndpoint(t *testing.T) {
	router, _ := buildClearanceRouter(t)

	req, _ := http.NewRequest(http.MethodGet, "/clearance/status", nil)
	req.Header.Set("X-Test-Role", string(models.RoleStudent))
	req.Header.Set("X-Test-User", "s1")
	resp := performRequest(router, req)

	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"progress_percentage":0`)
	assert.Contains(t, resp.Body.String(), `"total_offices":2`)
}

func TestNYSCFormEndpointLockedBeforeCompletion(t *testing.T) {
	router, _ := buildClearanceRouter(t)

	req, _ := http.NewRequest(http.MethodGet, "/clearance/nysc-form", nil)
	req.Header.Set("X-Test-Role", string(models.RoleStudent))
	req.Header.Set("X-Test-User", "s1")
	resp := performRequest(router, req)

	require.Equal(t, http.StatusForbidden, resp.Code)
}

func TestDashboardEndpointRequiresOversight(t *testing.T) {
	router, _ := buildClearanceRouter(t)

	req, _ := http.NewRequest(http.MethodGet, "/clearance/dashboard", nil)
	req.Header.Set("X-Test-Role", string(models.RoleStudent))
	req.Header.Set("X-Test-User", "s1")
	resp := performRequest(router, req)
	require.Equal(t, http.StatusForbidden, resp.Code)

	req, _ = http.NewRequest(http.MethodGet, "/clearance/dashboard", nil)
	req.Header.Set("X-Test-Role", string(models.RoleOverseer))
	req.Header.Set("X-Test-User", "boss")
	resp = performRequest(router, req)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"office_statistics"`)
}

func TestOfficeEndpoints(t *testing.T) {
	router, _ := buildClearanceRouter(t)

	req, _ := http.NewRequest(http.MethodGet, "/offices", nil)
	resp := performRequest(router, req)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"step_number":1`)

	req, _ = http.NewRequest(http.MethodGet, "/offices/unknown", nil)
	resp = performRequest(router, req)
	require.Equal(t, http.StatusNotFound, resp.Code)
}
