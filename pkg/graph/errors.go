package graph

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dd0wney/cluso-kg/pkg/sortjoin"
)

// Sentinel errors. Every failure in the assembly core wraps exactly one of them.
var (
	// ErrIntegrity covers duplicate node ids, dangling edge endpoints and island nodes.
	ErrIntegrity = errors.New("integrity violation")
	// ErrPrecondition covers caller contract violations at a layer boundary.
	ErrPrecondition = errors.New("precondition violated")
	// ErrDuplicateKey and ErrKeyNotFound are the Sort-Join Index contract violations.
	ErrDuplicateKey = sortjoin.ErrDuplicateKey
	ErrKeyNotFound  = sortjoin.ErrKeyNotFound
)

// maxListedIDs bounds how many offending ids are rendered in Error(); IDs keeps all of them.
const maxListedIDs = 20

// Error locates a failure: the pipeline stage it happened in, the table involved and the
// offending node ids.
type Error struct {
	Stage   string   // e.g. "base", "sub_industry", "idalloc", "assemble"
	Table   string   // node or edge type name, empty when not table specific
	IDs     []NodeID // offending node ids, if any
	Context string   // additional detail
	Cause   error    // one of the sentinels above, or a wrapped sortjoin error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Stage)
	if e.Table != "" {
		b.WriteString(" ")
		b.WriteString(e.Table)
	}
	if e.Context != "" {
		fmt.Fprintf(&b, " (%s)", e.Context)
	}
	if len(e.IDs) > 0 {
		fmt.Fprintf(&b, " ids=%s", formatIDs(e.IDs))
	}
	fmt.Fprintf(&b, ": %v", e.Cause)
	return b.String()
}

// Unwrap returns the underlying cause for error chain support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether the target error matches this error's cause.
func (e *Error) Is(target error) bool {
	if target == nil {
		return false
	}
	return errors.Is(e.Cause, target)
}

// ErrorBuilder provides a fluent interface for building Errors.
type ErrorBuilder struct {
	err Error
}

// NewError starts an error for the given stage.
func NewError(stage string) *ErrorBuilder {
	return &ErrorBuilder{err: Error{Stage: stage}}
}

// Table sets the table name.
func (b *ErrorBuilder) Table(name string) *ErrorBuilder {
	b.err.Table = name
	return b
}

// IDs sets the offending node ids.
func (b *ErrorBuilder) IDs(ids []NodeID) *ErrorBuilder {
	b.err.IDs = ids
	return b
}

// Context sets additional context information.
func (b *ErrorBuilder) Context(format string, args ...any) *ErrorBuilder {
	b.err.Context = fmt.Sprintf(format, args...)
	return b
}

// Cause sets the underlying error cause.
func (b *ErrorBuilder) Cause(err error) *ErrorBuilder {
	b.err.Cause = err
	return b
}

// Build returns the constructed Error.
func (b *ErrorBuilder) Build() *Error {
	return &b.err
}

// Err returns the error as an error interface.
func (b *ErrorBuilder) Err() error {
	return &b.err
}

// Convenience functions for common error patterns

// IntegrityError creates an integrity violation error.
func IntegrityError(stage, table string, ids []NodeID, context string) error {
	return NewError(stage).Table(table).IDs(ids).Context("%s", context).Cause(ErrIntegrity).Err()
}

// PreconditionError creates a caller contract violation error.
func PreconditionError(stage, table, context string) error {
	return NewError(stage).Table(table).Context("%s", context).Cause(ErrPrecondition).Err()
}

// JoinError attaches stage and table to a sortjoin failure. nil stays nil.
func JoinError(stage, table string, err error) error {
	if err == nil {
		return nil
	}
	return NewError(stage).Table(table).Cause(err).Err()
}

// IsIntegrity returns true if the error is an integrity violation.
func IsIntegrity(err error) bool {
	return errors.Is(err, ErrIntegrity)
}

// IsPrecondition returns true if the error is a precondition violation.
func IsPrecondition(err error) bool {
	return errors.Is(err, ErrPrecondition)
}

func formatIDs(ids []NodeID) string {
	n := len(ids)
	if n > maxListedIDs {
		n = maxListedIDs
	}
	parts := make([]string, n)
	for i := 0; i < n; i++ {
		parts[i] = fmt.Sprint(int64(ids[i]))
	}
	s := "[" + strings.Join(parts, " ")
	if len(ids) > maxListedIDs {
		s += fmt.Sprintf(" ... +%d", len(ids)-maxListedIDs)
	}
	return s + "]"
}
