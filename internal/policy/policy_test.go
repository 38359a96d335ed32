package policy

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/clearhub-ng/clearance-api/internal/models"
	"github.com/clearhub-ng/clearance-api/internal/registry"
	appErrors "github.com/clearhub-ng/clearance-api/pkg/errors"
)

func newTestRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	reg, err := registry.New([]models.ClearanceOffice{
		{ID: "library", Name: "Library", StepNumber: 1},
		{ID: "bursary", Name: "Bursary", StepNumber: 2},
		{ID: "hostel", Name: "Hostel", StepNumber: 3, Assignment: models.AssignmentRouted, RoutedOfficerID: "officer-9"},
		{ID: "student-affairs", Name: "Student Affairs", StepNumber: 4, Oversight: true},
	})
	require.NoError(t, err)
	return reg
}

func officerActor(userID, officeID string) Actor {
	return Actor{
		Claims:  &models.JWTClaims{UserID: userID, Role: models.RoleOfficer},
		Officer: &models.OfficerProfile{UserID: userID, AssignedOfficeID: officeID},
	}
}

func TestCanActEnforcesOfficeIsolation(t *testing.T) {
	p := New(newTestRegistry(t))
	actor := officerActor("officer-1", "bursary")
	submission := &models.ClearanceSubmission{ID: "sub-1", OfficeID: "library", StudentID: "student-1"}

	err := p.CanAct(actor, submission)
	require.Error(t, err)
	require.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestCanActAllowsMatchingOffice(t *testing.T) {
	p := New(newTestRegistry(t))
	actor := officerActor("officer-1", "library")
	submission := &models.ClearanceSubmission{ID: "sub-1", OfficeID: "library", StudentID: "student-1"}

	require.NoError(t, p.CanAct(actor, submission))
}

func TestCanActRejectsNonOfficer(t *testing.T) {
	p := New(newTestRegistry(t))
	actor := Actor{Claims: &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin}}
	submission := &models.ClearanceSubmission{ID: "sub-1", OfficeID: "library"}

	err := p.CanAct(actor, submission)
	require.Error(t, err)
	require.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestCanActRoutedOfficeOnlyNamedOfficer(t *testing.T) {
	p := New(newTestRegistry(t))
	submission := &models.ClearanceSubmission{ID: "sub-1", OfficeID: "hostel"}

	err := p.CanAct(officerActor("officer-1", "hostel"), submission)
	require.Error(t, err)

	require.NoError(t, p.CanAct(officerActor("officer-9", "hostel"), submission))
}

func TestCanActDepartmentScope(t *testing.T) {
	p := New(newTestRegistry(t))
	dept := "mech-eng"
	actor := Actor{
		Claims:  &models.JWTClaims{UserID: "officer-1", Role: models.RoleOfficer},
		Officer: &models.OfficerProfile{UserID: "officer-1", AssignedOfficeID: "library", DepartmentID: &dept},
	}

	inScope := &models.ClearanceSubmission{ID: "sub-1", OfficeID: "library", DepartmentID: "mech-eng"}
	require.NoError(t, p.CanAct(actor, inScope))

	outOfScope := &models.ClearanceSubmission{ID: "sub-2", OfficeID: "library", DepartmentID: "physics"}
	err := p.CanAct(actor, outOfScope)
	require.Error(t, err)
	require.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestCanReadGlobal(t *testing.T) {
	p := New(newTestRegistry(t))

	require.True(t, p.CanReadGlobal(Actor{Claims: &models.JWTClaims{UserID: "a", Role: models.RoleOverseer}}))
	require.True(t, p.CanReadGlobal(Actor{Claims: &models.JWTClaims{UserID: "a", Role: models.RoleStudentAffair}}))
	require.True(t, p.CanReadGlobal(officerActor("officer-3", "student-affairs")))
	require.False(t, p.CanReadGlobal(officerActor("officer-1", "library")))
	require.False(t, p.CanReadGlobal(Actor{Claims: &models.JWTClaims{UserID: "s", Role: models.RoleStudent}}))
}

func TestNarrowFilterAppliesScope(t *testing.T) {
	p := New(newTestRegistry(t))
	dept := "mech-eng"
	faculty := "engineering"
	actor := Actor{
		Claims: &models.JWTClaims{UserID: "officer-1", Role: models.RoleOfficer},
		Officer: &models.OfficerProfile{
			UserID:           "officer-1",
			AssignedOfficeID: "library",
			DepartmentID:     &dept,
			FacultyID:        &faculty,
		},
	}

	filter := p.NarrowFilter(actor, models.SubmissionFilter{OfficeID: "library"})
	require.Equal(t, "mech-eng", filter.DepartmentID)
	require.Equal(t, "engineering", filter.FacultyID)
}

func TestCanViewOffice(t *testing.T) {
	p := New(newTestRegistry(t))

	require.NoError(t, p.CanViewOffice(officerActor("officer-1", "library"), "library"))
	require.Error(t, p.CanViewOffice(officerActor("officer-1", "library"), "bursary"))
	require.NoError(t, p.CanViewOffice(Actor{Claims: &models.JWTClaims{UserID: "a", Role: models.RoleAdmin}}, "bursary"))
}
