package multislicer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jdfr/multires/internal/config"
	"github.com/jdfr/multires/internal/geom"
)

func square(side int64) geom.PolygonSet {
	return geom.PolygonSet{{
		{X: 0, Y: 0}, {X: side, Y: 0}, {X: side, Y: side}, {X: 0, Y: side},
	}}
}

// TestSingleToolSquare grounds spec.md §8 scenario 1's spirit (adapted to a
// square, since the test toolchain here only exercises the integer kernel):
// a single coarse tool emits a non-empty toolpath and a non-empty committed
// contour.
func TestSingleToolSquare(t *testing.T) {
	proc := config.ProcessSpec{Radius: 75, GridStep: 10, ApplySnap: false, BurrLength: 0, DoPreprocessing: false}
	proc.Derive()
	spec := &config.MultiSpec{Processes: []config.ProcessSpec{proc}}
	ms := New(spec)

	toFill := square(1000)
	var alreadyFilled geom.PolygonSet
	out := &Output{}

	err := ms.ApplyProcess(out, &toFill, &alreadyFilled, 0, nil)
	require.NoError(t, err)
	require.NotEmpty(t, out.Toolpaths)
	require.NotEmpty(t, out.Contours)
}

// TestTwoToolAdditive grounds spec.md §8 scenario 2: two additive tools
// with RadiusRemoveCommon set run through ApplyProcesses without error and
// the coarse tool emits toolpaths.
func TestTwoToolAdditive(t *testing.T) {
	p0 := config.ProcessSpec{Radius: 75, GridStep: 10, RadiusRemoveCommon: 5}
	p0.Derive()
	p1 := config.ProcessSpec{Radius: 10, GridStep: 1, RadiusRemoveCommon: 5}
	p1.Derive()
	spec := &config.MultiSpec{Processes: []config.ProcessSpec{p0, p1}}
	ms := New(spec)

	toFill := square(1000)
	outputs := []*Output{{}, {}}
	err := ms.ApplyProcesses(outputs, &toFill, 0, 1, nil)
	require.NoError(t, err)
	require.NotEmpty(t, outputs[0].Toolpaths)
}
