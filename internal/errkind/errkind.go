// Package errkind defines the error kinds raised across the toolpath
// planner, following spec §7: every fatal condition is tagged with one of a
// fixed set of kinds so the CLI can report "process=K z=Z kind=KIND" and
// exit non-zero, and so callers can branch with errors.As instead of string
// matching.
package errkind

import "fmt"

// Kind identifies the category of a planner error.
type Kind uint8

const (
	Config Kind = iota
	Arguments
	InvalidGeometry
	SnapFailed
	ScheduleInconsistent
	Io
	Slicer
	Bug
)

func (k Kind) String() string {
	switch k {
	case Config:
		return "ConfigError"
	case Arguments:
		return "ArgumentsError"
	case InvalidGeometry:
		return "InvalidGeometry"
	case SnapFailed:
		return "SnapFailed"
	case ScheduleInconsistent:
		return "ScheduleInconsistent"
	case Io:
		return "IoError"
	case Slicer:
		return "SlicerError"
	case Bug:
		return "BugError"
	default:
		return "UnknownError"
	}
}

// Error is the common envelope: a kind, a message, and the optional
// process/Z context spec §7 requires on the error stream.
type Error struct {
	K       Kind
	Message string
	Process int // -1 when not process-specific
	Z       float64
	HasZ    bool
	Wrapped error
}

func (e *Error) Error() string {
	if e.HasZ {
		return fmt.Sprintf("process=%d z=%g kind=%s: %s", e.Process, e.Z, e.K, e.Message)
	}
	return fmt.Sprintf("kind=%s: %s", e.K, e.Message)
}

func (e *Error) Unwrap() error { return e.Wrapped }

func New(k Kind, format string, args ...interface{}) *Error {
	return &Error{K: k, Message: fmt.Sprintf(format, args...), Process: -1}
}

func Wrap(k Kind, err error, format string, args ...interface{}) *Error {
	return &Error{K: k, Message: fmt.Sprintf(format, args...), Process: -1, Wrapped: err}
}

// WithSlice attaches process/Z context, the way spec §7 reports it.
func (e *Error) WithSlice(process int, z float64) *Error {
	e.Process = process
	e.Z = z
	e.HasZ = true
	return e
}

// SnapFailedError carries the offending vertex per spec §4.2/§7.
type SnapFailedError struct {
	*Error
	VertexIndex int
	X, Y        int64
	Candidates  []struct{ X, Y int64 }
}

func NewSnapFailed(vertexIdx int, x, y int64, candidates []struct{ X, Y int64 }) *SnapFailedError {
	return &SnapFailedError{
		Error:       New(SnapFailed, "vertex %d (%d,%d) has no acceptable grid candidate within maxdist", vertexIdx, x, y),
		VertexIndex: vertexIdx,
		X:           x,
		Y:           y,
		Candidates:  candidates,
	}
}

// ScheduleInconsistentReason distinguishes the two ways a manual schedule
// can go wrong; this is a supplemental detail folded in from the original
// scheduler sources (see DESIGN.md).
type ScheduleInconsistentReason uint8

const (
	MissingDependency ScheduleInconsistentReason = iota
	UnknownTool
)

type ScheduleInconsistentError struct {
	*Error
	Reason      ScheduleInconsistentReason
	OutputIndex int
}

func NewScheduleInconsistent(reason ScheduleInconsistentReason, outputIdx int, detail string) *ScheduleInconsistentError {
	return &ScheduleInconsistentError{
		Error:       New(ScheduleInconsistent, "output slice %d: %s", outputIdx, detail),
		Reason:      reason,
		OutputIndex: outputIdx,
	}
}

// BugFn builds a Bug-kind error marking an unreachable state. Nothing in
// the repository calls it; multislicer builds its Bug errors with New.
func BugFn(detail string) *Error {
	return New(Bug, "unreachable: %s", detail)
}
