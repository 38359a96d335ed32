package policy

import (
	"github.com/clearhub-ng/clearance-api/internal/models"
	"github.com/clearhub-ng/clearance-api/internal/registry"
	appErrors "github.com/clearhub-ng/clearance-api/pkg/errors"
)

// Actor bundles the resolved identity of the caller. Claims come from the
// transport layer; Officer is the profile row for officer users, nil
// otherwise. The workflow engine never re-derives identity.
type Actor struct {
	Claims  *models.JWTClaims
	Officer *models.OfficerProfile
}

// UserID returns the acting user id, empty when unauthenticated.
func (a Actor) UserID() string {
	if a.Claims == nil {
		return ""
	}
	return a.Claims.UserID
}

// Policy decides which submissions an officer may see and act on.
type Policy struct {
	registry *registry.Registry
}

// New constructs the policy over the office registry.
func New(reg *registry.Registry) *Policy {
	return &Policy{registry: reg}
}

// CanAct authorizes a mutating action (approve/reject) on a submission.
// Office isolation is hard: a mismatch is Forbidden, never silently
// filtered. Oversight roles get no mutation bypass.
func (p *Policy) CanAct(actor Actor, submission *models.ClearanceSubmission) error {
	if actor.Claims == nil {
		return appErrors.ErrUnauthorized
	}
	if actor.Officer == nil {
		return appErrors.Clone(appErrors.ErrForbidden, "only clearance officers may action submissions")
	}
	if actor.Officer.AssignedOfficeID != submission.OfficeID {
		return appErrors.Clone(appErrors.ErrForbidden, "submission belongs to a different office")
	}

	office, ok := p.registry.Get(submission.OfficeID)
	if !ok {
		return appErrors.Clone(appErrors.ErrNotFound, "unknown clearance office")
	}
	if office.Routed() && office.RoutedOfficerID != actor.Officer.UserID {
		return appErrors.Clone(appErrors.ErrForbidden, "submission is routed to another officer")
	}
	if submission.OfficerID != nil && *submission.OfficerID != "" && office.Routed() && *submission.OfficerID != actor.Officer.UserID {
		return appErrors.Clone(appErrors.ErrForbidden, "submission is routed to another officer")
	}

	if !p.inScope(actor.Officer, submission) {
		return appErrors.Clone(appErrors.ErrForbidden, "student is outside your department or faculty scope")
	}
	return nil
}

// CanViewOffice authorizes per-office listing access. Oversight roles may
// read any office; regular officers only their own.
func (p *Policy) CanViewOffice(actor Actor, officeID string) error {
	if actor.Claims == nil {
		return appErrors.ErrUnauthorized
	}
	if p.CanReadGlobal(actor) {
		return nil
	}
	if actor.Officer == nil || actor.Officer.AssignedOfficeID != officeID {
		return appErrors.Clone(appErrors.ErrForbidden, "you are not assigned to this office")
	}
	return nil
}

// CanReadGlobal reports whether the actor may run cross-office read-only
// queries: oversight roles, or an officer assigned to a recognized
// oversight office.
func (p *Policy) CanReadGlobal(actor Actor) bool {
	if actor.Claims == nil {
		return false
	}
	if actor.Claims.Role.IsOversight() {
		return true
	}
	if actor.Officer != nil && p.registry.IsOversightOffice(actor.Officer.AssignedOfficeID) {
		return true
	}
	return false
}

// NarrowFilter applies the actor's department/faculty scope to a listing
// filter. Submissions outside scope are excluded, not surfaced as errors.
func (p *Policy) NarrowFilter(actor Actor, filter models.SubmissionFilter) models.SubmissionFilter {
	if actor.Officer == nil {
		return filter
	}
	if actor.Officer.DepartmentID != nil && *actor.Officer.DepartmentID != "" {
		filter.DepartmentID = *actor.Officer.DepartmentID
	}
	if actor.Officer.FacultyID != nil && *actor.Officer.FacultyID != "" {
		filter.FacultyID = *actor.Officer.FacultyID
	}
	return filter
}

func (p *Policy) inScope(officer *models.OfficerProfile, submission *models.ClearanceSubmission) bool {
	if officer.DepartmentID != nil && *officer.DepartmentID != "" && submission.DepartmentID != *officer.DepartmentID {
		return false
	}
	if officer.FacultyID != nil && *officer.FacultyID != "" && submission.FacultyID != *officer.FacultyID {
		return false
	}

	office, ok := p.registry.Get(submission.OfficeID)
	if !ok {
		return false
	}
	if office.DepartmentScope != "" && submission.DepartmentID != office.DepartmentScope {
		return false
	}
	if office.FacultyScope != "" && submission.FacultyID != office.FacultyScope {
		return false
	}
	return true
}
