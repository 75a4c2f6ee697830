package errkind

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestErrorFormattingWithAndWithoutSlice(t *testing.T) {
	e := New(InvalidGeometry, "self-intersecting input")
	require.Equal(t, "kind=InvalidGeometry: self-intersecting input", e.Error())

	e.WithSlice(3, 12.5)
	require.Equal(t, "process=3 z=12.5 kind=InvalidGeometry: self-intersecting input", e.Error())
}

func TestWrapPreservesUnwrap(t *testing.T) {
	inner := New(Io, "disk full")
	wrapped := Wrap(Slicer, inner, "spawning subprocess")
	require.Same(t, inner, wrapped.Unwrap())
}

func TestScheduleInconsistentErrorCarriesReason(t *testing.T) {
	err := NewScheduleInconsistent(UnknownTool, 4, "tool index out of range")
	require.Equal(t, UnknownTool, err.Reason)
	require.Equal(t, 4, err.OutputIndex)
	require.Contains(t, err.Error(), "output slice 4")
}
