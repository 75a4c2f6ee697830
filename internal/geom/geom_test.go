package geom

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func square(side int64) Path {
	return Path{{X: 0, Y: 0}, {X: side, Y: 0}, {X: side, Y: side}, {X: 0, Y: side}}
}

func TestOffsetOpeningIsContained(t *testing.T) {
	sq := PolygonSet{square(1000)}
	opened, err := Opening(75, sq, JoinRound)
	require.NoError(t, err)
	require.NotEmpty(t, opened)
	b := BoundsOf(opened)
	assert.GreaterOrEqual(t, b.MinX, int64(0))
	assert.LessOrEqual(t, b.MaxX, int64(1000))
}

func TestClipUnion(t *testing.T) {
	a := PolygonSet{square(100)}
	b := PolygonSet{{{X: 50, Y: 50}, {X: 150, Y: 50}, {X: 150, Y: 150}, {X: 50, Y: 150}}}
	result, err := Clip(OpUnion, a, b, NonZero, NonZero)
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Greater(t, Area(result), Area(a))
}

func TestOrientPathsNestedHole(t *testing.T) {
	outer := square(1000)
	hole := Path{{X: 100, Y: 100}, {X: 100, Y: 200}, {X: 200, Y: 200}, {X: 200, Y: 100}} // CW already; must stay CW as a hole
	oriented := OrientPaths(PolygonSet{outer, hole})
	require.Len(t, oriented, 2)
	assert.Greater(t, Area(PolygonSet{oriented[0]}), 0.0)
	assert.Less(t, Area(PolygonSet{oriented[1]}), 0.0)
}

func TestFitToInt32Identity(t *testing.T) {
	bb := BoundingBox{MinX: -100, MinY: -100, MaxX: 100, MaxY: 100}
	tr := bb.FitToInt32()
	assert.Equal(t, 1.0, tr.Scale)
	p := Point{X: 42, Y: -7}
	assert.Equal(t, p, tr.Invert(tr.Apply(p)))
}
