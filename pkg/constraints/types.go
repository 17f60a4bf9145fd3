// Package constraints checks the structural invariants of a graph.Collection: node ids are
// unique across all node tables, every edge endpoint names an existing node, every node is
// referenced by at least one edge, and every table type appears once.
//
// Constraints report Violations; the Validator collects them and Validate/ValidatePending
// turn Error-severity violations into a *graph.Error wrapping graph.ErrIntegrity.
package constraints

import (
	"github.com/dd0wney/cluso-kg/pkg/graph"
)

// Severity indicates the importance of a violation
type Severity int

const (
	Info Severity = iota
	Warning
	Error
)

func (s Severity) String() string {
	switch s {
	case Info:
		return "Info"
	case Warning:
		return "Warning"
	case Error:
		return "Error"
	default:
		return "Unknown"
	}
}

// ViolationType categorizes the type of constraint violation
type ViolationType int

const (
	DuplicateNodeID ViolationType = iota
	DanglingEndpoint
	IslandNode
	DuplicateTable
	EndpointTypeMismatch
)

func (vt ViolationType) String() string {
	switch vt {
	case DuplicateNodeID:
		return "DuplicateNodeID"
	case DanglingEndpoint:
		return "DanglingEndpoint"
	case IslandNode:
		return "IslandNode"
	case DuplicateTable:
		return "DuplicateTable"
	case EndpointTypeMismatch:
		return "EndpointTypeMismatch"
	default:
		return "Unknown"
	}
}

// Violation represents a constraint violation
type Violation struct {
	Type       ViolationType
	Severity   Severity
	Table      string         // node or edge type name, empty when collection wide
	NodeIDs    []graph.NodeID // offending ids, ascending
	Constraint string
	Message    string
	Details    map[string]any
}

// Constraint is implemented by every check the Validator runs. Validate must not modify the
// collection and must run in time linear in its nodes and edges.
type Constraint interface {
	// Validate checks the constraint against the collection
	// Returns a list of violations (empty if valid)
	Validate(c *graph.Collection) ([]Violation, error)

	// Name returns a human-readable name for the constraint
	Name() string
}
