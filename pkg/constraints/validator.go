package constraints

import (
	"fmt"
	"time"

	"github.com/dd0wney/cluso-kg/pkg/graph"
)

// ValidationResult contains the results of validating a collection against constraints
type ValidationResult struct {
	Valid      bool        // True if no Error-severity violations found
	Violations []Violation // List of all violations
	CheckedAt  time.Time   // When validation was performed
}

// GetViolationsBySeverity returns violations filtered by severity level
func (vr *ValidationResult) GetViolationsBySeverity(severity Severity) []Violation {
	filtered := make([]Violation, 0)
	for _, v := range vr.Violations {
		if v.Severity == severity {
			filtered = append(filtered, v)
		}
	}
	return filtered
}

// GetViolationsByType returns violations filtered by type
func (vr *ValidationResult) GetViolationsByType(violationType ViolationType) []Violation {
	filtered := make([]Violation, 0)
	for _, v := range vr.Violations {
		if v.Type == violationType {
			filtered = append(filtered, v)
		}
	}
	return filtered
}

// Err converts the first Error-severity violation into a *graph.Error wrapping
// graph.ErrIntegrity, tagged with stage. The error carries the ids of every Error-severity
// violation of the same type. It returns nil when the result is valid.
func (vr *ValidationResult) Err(stage string) error {
	errs := vr.GetViolationsBySeverity(Error)
	if len(errs) == 0 {
		return nil
	}
	first := errs[0]
	context := fmt.Sprintf("%s: %s", first.Type, first.Message)
	if len(errs) > 1 {
		context += fmt.Sprintf("; %d more violation(s)", len(errs)-1)
	}

	var ids []graph.NodeID
	for _, v := range vr.GetViolationsByType(first.Type) {
		if v.Severity == Error {
			ids = append(ids, v.NodeIDs...)
		}
	}
	return graph.IntegrityError(stage, first.Table, ids, context)
}

// Validator manages a set of constraints and validates collections against them
type Validator struct {
	constraints []Constraint
}

// NewValidator creates a new empty validator
func NewValidator() *Validator {
	return &Validator{
		constraints: make([]Constraint, 0),
	}
}

// NewIntegrityValidator returns a validator carrying the full integrity constraint set.
// Ids listed in pending may be islands.
func NewIntegrityValidator(pending []graph.NodeID) *Validator {
	v := NewValidator()
	v.AddConstraints([]Constraint{
		&UniqueTableTypeConstraint{},
		&UniqueNodeIDConstraint{},
		&EndpointCoverageConstraint{Pending: pending},
		&EdgeTypingConstraint{},
	})
	return v
}

// AddConstraint adds a constraint to the validator
func (v *Validator) AddConstraint(constraint Constraint) {
	v.constraints = append(v.constraints, constraint)
}

// AddConstraints adds multiple constraints to the validator
func (v *Validator) AddConstraints(constraints []Constraint) {
	v.constraints = append(v.constraints, constraints...)
}

// Validate runs all constraints against the collection and returns the results
func (v *Validator) Validate(c *graph.Collection) (*ValidationResult, error) {
	result := &ValidationResult{
		Valid:      true,
		Violations: make([]Violation, 0),
		CheckedAt:  time.Now(),
	}

	// Run each constraint
	for _, constraint := range v.constraints {
		violations, err := constraint.Validate(c)
		if err != nil {
			return nil, fmt.Errorf("constraint %s: %w", constraint.Name(), err)
		}

		for _, viol := range violations {
			if viol.Severity == Error {
				result.Valid = false
			}
		}
		result.Violations = append(result.Violations, violations...)
	}

	return result, nil
}

// Validate checks the strict invariants of a completed collection: unique node ids, one
// table per type, typed endpoints, and node id set equal to endpoint id set. Any violation
// is returned as an integrity error tagged with stage.
func Validate(stage string, c *graph.Collection) error {
	return run(stage, c, nil)
}

// ValidatePending is Validate with the islands restriction relaxed for pending, the ids of
// a node table whose linking edges have not been appended yet.
func ValidatePending(stage string, c *graph.Collection, pending []graph.NodeID) error {
	return run(stage, c, pending)
}

func run(stage string, c *graph.Collection, pending []graph.NodeID) error {
	result, err := NewIntegrityValidator(pending).Validate(c)
	if err != nil {
		return graph.NewError(stage).Cause(err).Err()
	}
	return result.Err(stage)
}
