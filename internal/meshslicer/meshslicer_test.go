package meshslicer

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReadBoundsAndClipperPaths(t *testing.T) {
	var buf bytes.Buffer
	vals := []float64{-10, 10, -5, 5, 0, 20, 0.001}
	for _, v := range vals {
		require.NoError(t, writeF64(&buf, v))
	}

	bounds, err := readBounds(&buf)
	require.NoError(t, err)
	require.Equal(t, Bounds{MinX: -10, MaxX: 10, MinY: -5, MaxY: 5, MinZ: 0, MaxZ: 20, ScalingFactor: 0.001}, bounds)

	var pathsBuf bytes.Buffer
	require.NoError(t, writeI64(&pathsBuf, 1)) // numPaths
	require.NoError(t, writeI64(&pathsBuf, 2)) // numPoints
	require.NoError(t, writeI64(&pathsBuf, 100))
	require.NoError(t, writeI64(&pathsBuf, 200))
	require.NoError(t, writeI64(&pathsBuf, 300))
	require.NoError(t, writeI64(&pathsBuf, 400))

	ps, err := readClipperPaths(&pathsBuf)
	require.NoError(t, err)
	require.Len(t, ps, 1)
	require.Len(t, ps[0], 2)
	require.Equal(t, int64(100), ps[0][0].X)
	require.Equal(t, int64(400), ps[0][1].Y)
}
