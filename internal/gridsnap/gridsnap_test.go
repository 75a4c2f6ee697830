package gridsnap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdfr/multires/internal/geom"
)

func TestSimpleSnapOntoGrid(t *testing.T) {
	ps := geom.PolygonSet{{
		{X: 3, Y: 4}, {X: 97, Y: 2}, {X: 101, Y: 98}, {X: 1, Y: 99},
	}}
	spec := Spec{StepX: 10, StepY: 10, Mode: Simple, RemoveRedundant: true}
	out, err := Snap(ps, []bool{false}, spec)
	require.NoError(t, err)
	require.Len(t, out, 1)
	for _, v := range out[0] {
		assert.Equal(t, int64(0), v.X%10)
		assert.Equal(t, int64(0), v.Y%10)
	}
}

func TestSnapFailsOnNarrowNeck(t *testing.T) {
	// A 5x5 square on a 1000-unit grid with a tiny maxdist: its vertices
	// away from the origin have no grid corner within maxdist, so snapping
	// must fail.
	ps := geom.PolygonSet{{
		{X: 0, Y: 0}, {X: 5, Y: 0}, {X: 5, Y: 5}, {X: 0, Y: 5},
	}}
	spec := Spec{StepX: 1000, StepY: 1000, Mode: Dilate, MaxDist: 0.5}
	_, err := Snap(ps, []bool{false}, spec)
	require.Error(t, err)
}
