package models

// AssignmentMode declares how submissions sent to an office are routed.
type AssignmentMode string

const (
	// AssignmentPooled means any officer assigned to the office may act.
	AssignmentPooled AssignmentMode = "POOLED"
	// AssignmentRouted means only the named officer may act.
	AssignmentRouted AssignmentMode = "ROUTED"
)

// ClearanceOffice is one approval authority in the clearance sequence.
// Offices are static configuration loaded once at startup; StepNumber
// defines the required traversal order. Offices sharing a step number are
// unordered relative to each other but must all approve before the next
// step opens.
type ClearanceOffice struct {
	ID              string         `json:"id" yaml:"id" mapstructure:"id"`
	Name            string         `json:"name" yaml:"name" mapstructure:"name"`
	StepNumber      int            `json:"step_number" yaml:"step_number" mapstructure:"step_number"`
	DepartmentScope string         `json:"department_scope,omitempty" yaml:"department_scope" mapstructure:"department_scope"`
	FacultyScope    string         `json:"faculty_scope,omitempty" yaml:"faculty_scope" mapstructure:"faculty_scope"`
	Assignment      AssignmentMode `json:"assignment" yaml:"assignment" mapstructure:"assignment"`
	// RoutedOfficerID names the sole acting officer when Assignment is ROUTED.
	RoutedOfficerID string `json:"routed_officer_id,omitempty" yaml:"routed_officer_id" mapstructure:"routed_officer_id"`
	// Oversight marks offices whose officers get read-only global visibility.
	Oversight bool `json:"oversight,omitempty" yaml:"oversight" mapstructure:"oversight"`
}

// Routed reports whether the office routes submissions to a single officer.
func (o ClearanceOffice) Routed() bool {
	return o.Assignment == AssignmentRouted && o.RoutedOfficerID != ""
}
