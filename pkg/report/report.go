// Package report defines the error and warning taxonomy shared by the
// Boolean engine stages.
//
// Fatal conditions abort an operation and are returned as *Error. Local
// problems that the engine can work around are collected as Warning values
// and returned alongside the result.
package report

import (
	"errors"
	"fmt"

	"github.com/chazu/boolkit/pkg/topo"
)

// Code classifies a problem.
type Code int

const (
	// DuplicateConflict: two distinct shape instances claim one dataset slot.
	DuplicateConflict Code = iota + 1
	// DegenerateInput: an entity the geometry layer cannot work with was
	// skipped.
	DegenerateInput
	// IntersectionFailure: the geometry layer failed on a pair with no usable
	// estimate.
	IntersectionFailure
	// TopologyBuildFailure: a face or shell could not be rebuilt.
	TopologyBuildFailure
)

func (c Code) String() string {
	switch c {
	case DuplicateConflict:
		return "DuplicateConflict"
	case DegenerateInput:
		return "DegenerateInput"
	case IntersectionFailure:
		return "IntersectionFailure"
	case TopologyBuildFailure:
		return "TopologyBuildFailure"
	default:
		return fmt.Sprintf("Code(%d)", int(c))
	}
}

// Sentinels matched with errors.Is against an *Error of the same code.
var (
	ErrDuplicateConflict    = &Error{Code: DuplicateConflict}
	ErrIntersectionFailure  = &Error{Code: IntersectionFailure}
	ErrTopologyBuildFailure = &Error{Code: TopologyBuildFailure}
)

// Error is a fatal engine error.
type Error struct {
	Code    Code
	Shapes  []topo.Shape
	Message string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Message != "":
		return e.Code.String() + ": " + e.Message
	case e.Err != nil:
		return e.Code.String() + ": " + e.Err.Error()
	}
	return e.Code.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches errors carrying the same code.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// Errorf builds a fatal error. A %w verb in format is unwrapped into Err.
func Errorf(code Code, shapes []topo.Shape, format string, args ...any) *Error {
	err := fmt.Errorf(format, args...)
	return &Error{Code: code, Shapes: shapes, Message: err.Error(), Err: errors.Unwrap(err)}
}

// Warning is a recoverable problem.
type Warning struct {
	Code    Code
	Shapes  []topo.Shape
	Message string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %s", w.Code, w.Message)
}

// Warnf builds a warning.
func Warnf(code Code, shapes []topo.Shape, format string, args ...any) Warning {
	return Warning{Code: code, Shapes: shapes, Message: fmt.Sprintf(format, args...)}
}
