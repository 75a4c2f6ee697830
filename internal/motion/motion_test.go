package motion

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdfr/multires/internal/geom"
)

func TestPlanFusesSharedEndpoint(t *testing.T) {
	p := NewPlanner()
	p.SetStart(geom.Point{X: 0, Y: 0})
	paths := []geom.Path{
		{{X: 0, Y: 0}, {X: 10, Y: 0}},
		{{X: 10, Y: 0}, {X: 20, Y: 0}},
	}
	out := p.Plan(paths)
	require.Len(t, out, 1)
	assert.Equal(t, geom.Point{X: 20, Y: 0}, out[0][len(out[0])-1])
}

func TestPlanReversesNearerBack(t *testing.T) {
	p := NewPlanner()
	p.SetStart(geom.Point{X: 100, Y: 0})
	paths := []geom.Path{
		{{X: 0, Y: 0}, {X: 90, Y: 0}},
	}
	out := p.Plan(paths)
	require.Len(t, out, 1)
	assert.Equal(t, geom.Point{X: 90, Y: 0}, out[0][0])
}
