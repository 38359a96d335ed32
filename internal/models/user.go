package models

import "time"

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleAdmin         UserRole = "ADMIN"
	RoleOverseer      UserRole = "OVERSEER"
	RoleStudentAffair UserRole = "STUDENT_AFFAIRS"
	RoleOfficer       UserRole = "OFFICER"
	RoleStudent       UserRole = "STUDENT"
)

// OversightRoles may read across all offices but never mutate outside
// their own office assignment.
var OversightRoles = map[UserRole]struct{}{
	RoleAdmin:         {},
	RoleOverseer:      {},
	RoleStudentAffair: {},
}

// IsOversight reports whether the role has read-only global visibility.
func (r UserRole) IsOversight() bool {
	_, ok := OversightRoles[r]
	return ok
}

// User represents an application user stored in the users table.
type User struct {
	ID           string     `db:"id" json:"id"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	FullName     string     `db:"full_name" json:"full_name"`
	Role         UserRole   `db:"role" json:"role"`
	Active       bool       `db:"active" json:"active"`
	LastLogin    *time.Time `db:"last_login" json:"last_login,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// StudentProfile carries the academic identity of a student user.
type StudentProfile struct {
	UserID       string `db:"user_id" json:"user_id"`
	MatricNumber string `db:"matric_number" json:"matric_number"`
	DepartmentID string `db:"department_id" json:"department_id"`
	FacultyID    string `db:"faculty_id" json:"faculty_id"`
	Level        string `db:"level" json:"level"`
}

// OfficerProfile describes an officer's office assignment and scoping.
// AssignedOfficeID hard-isolates mutations to that office; DepartmentID and
// FacultyID, when set, narrow which students' submissions are visible.
type OfficerProfile struct {
	UserID           string  `db:"user_id" json:"user_id"`
	AssignedOfficeID string  `db:"assigned_office_id" json:"assigned_office_id"`
	DepartmentID     *string `db:"department_id" json:"department_id,omitempty"`
	FacultyID        *string `db:"faculty_id" json:"faculty_id,omitempty"`
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
