package registry

import (
	"fmt"
	"sort"

	"github.com/spf13/viper"

	"github.com/clearhub-ng/clearance-api/internal/models"
)

// Registry holds the process-wide immutable clearance office sequence.
// It is loaded once at startup; misconfiguration is fatal, not recoverable.
type Registry struct {
	offices []models.ClearanceOffice
	byID    map[string]models.ClearanceOffice
	final   int
}

// Load reads the office definition file (YAML) referenced by path. An empty
// path yields the built-in default campus sequence.
func Load(path string) (*Registry, error) {
	if path == "" {
		return New(defaultOffices())
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read offices file %s: %w", path, err)
	}

	var offices []models.ClearanceOffice
	if err := v.UnmarshalKey("offices", &offices); err != nil {
		return nil, fmt.Errorf("parse offices file %s: %w", path, err)
	}
	return New(offices)
}

// New validates and indexes the given offices.
func New(offices []models.ClearanceOffice) (*Registry, error) {
	if len(offices) == 0 {
		return nil, fmt.Errorf("office registry is empty")
	}

	byID := make(map[string]models.ClearanceOffice, len(offices))
	final := 0
	for _, office := range offices {
		if office.ID == "" || office.Name == "" {
			return nil, fmt.Errorf("office %q: id and name are required", office.ID)
		}
		if office.StepNumber < 1 {
			return nil, fmt.Errorf("office %s: step number must be >= 1", office.ID)
		}
		if _, dup := byID[office.ID]; dup {
			return nil, fmt.Errorf("office %s: duplicate id", office.ID)
		}
		if office.Assignment == "" {
			office.Assignment = models.AssignmentPooled
		}
		if office.Assignment == models.AssignmentRouted && office.RoutedOfficerID == "" {
			return nil, fmt.Errorf("office %s: routed assignment requires an officer id", office.ID)
		}
		byID[office.ID] = office
		if office.StepNumber > final {
			final = office.StepNumber
		}
	}

	sorted := make([]models.ClearanceOffice, 0, len(offices))
	for _, office := range byID {
		sorted = append(sorted, office)
	}
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].StepNumber != sorted[j].StepNumber {
			return sorted[i].StepNumber < sorted[j].StepNumber
		}
		return sorted[i].ID < sorted[j].ID
	})

	return &Registry{offices: sorted, byID: byID, final: final}, nil
}

// List returns the offices ordered by step number. The returned slice is a
// copy; callers may not mutate registry state.
func (r *Registry) List() []models.ClearanceOffice {
	out := make([]models.ClearanceOffice, len(r.offices))
	copy(out, r.offices)
	return out
}

// Get returns the office with the given id.
func (r *Registry) Get(id string) (models.ClearanceOffice, bool) {
	office, ok := r.byID[id]
	return office, ok
}

// StepsBelow returns every office with a step number strictly below step.
func (r *Registry) StepsBelow(step int) []models.ClearanceOffice {
	out := make([]models.ClearanceOffice, 0, len(r.offices))
	for _, office := range r.offices {
		if office.StepNumber < step {
			out = append(out, office)
		}
	}
	return out
}

// NextStep returns the lowest step number strictly above step, or 0 when
// step is the final one.
func (r *Registry) NextStep(step int) int {
	next := 0
	for _, office := range r.offices {
		if office.StepNumber > step && (next == 0 || office.StepNumber < next) {
			next = office.StepNumber
		}
	}
	return next
}

// FinalStep returns the highest step number in the sequence.
func (r *Registry) FinalStep() int {
	return r.final
}

// Count returns the number of required offices.
func (r *Registry) Count() int {
	return len(r.offices)
}

// IsOversightOffice reports whether the office is flagged for read-only
// global visibility.
func (r *Registry) IsOversightOffice(id string) bool {
	office, ok := r.byID[id]
	return ok && office.Oversight
}

// defaultOffices is the built-in campus sequence used when no registry file
// is configured.
func defaultOffices() []models.ClearanceOffice {
	return []models.ClearanceOffice{
		{ID: "hod", Name: "Head of Department", StepNumber: 1, Assignment: models.AssignmentPooled},
		{ID: "faculty", Name: "Faculty Office", StepNumber: 2, Assignment: models.AssignmentPooled},
		{ID: "library", Name: "University Library", StepNumber: 3, Assignment: models.AssignmentPooled},
		{ID: "bursary", Name: "Bursary", StepNumber: 4, Assignment: models.AssignmentPooled},
		{ID: "student-affairs", Name: "Student Affairs Division", StepNumber: 5, Assignment: models.AssignmentPooled, Oversight: true},
	}
}
