package medialaxis

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jdfr/multires/internal/geom"
)

func TestExtractLongRectangleProducesCenterline(t *testing.T) {
	hp := geom.HoledPolygon{
		Outer: geom.Path{
			{X: 0, Y: 0}, {X: 10000, Y: 0}, {X: 10000, Y: 1000}, {X: 0, Y: 1000},
		},
	}
	paths, err := Extract(hp, 1, 2000)
	require.NoError(t, err)
	require.NotEmpty(t, paths)
}

func TestExtractDegenerateSquareYieldsNoAxis(t *testing.T) {
	hp := geom.HoledPolygon{
		Outer: geom.Path{
			{X: 0, Y: 0}, {X: 100, Y: 0}, {X: 100, Y: 100}, {X: 0, Y: 100},
		},
	}
	_, err := Extract(hp, 1, 10)
	require.NoError(t, err)
}
