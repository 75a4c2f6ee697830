package dxf

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jdfr/multires/internal/geom"
	"github.com/jdfr/multires/internal/pathsfile"
)

func TestWriteToolpathRecord(t *testing.T) {
	w, err := New()
	require.NoError(t, err)

	rec := pathsfile.SliceRecord{
		Type:       pathsfile.RecordToolpath,
		Z:          1.5,
		SaveFormat: pathsfile.FormatInt64Clipper,
		Scaling:    0.001,
		Paths:      geom.PolygonSet{{{X: 0, Y: 0}, {X: 1000, Y: 0}, {X: 1000, Y: 1000}}},
	}
	require.NoError(t, w.AddRecord(rec))

	out := filepath.Join(t.TempDir(), "out.dxf")
	require.NoError(t, w.SaveAs(out))

	info, err := os.Stat(out)
	require.NoError(t, err)
	require.Greater(t, info.Size(), int64(0))
}

func TestSkipsRecordWithNo2DPayload(t *testing.T) {
	w, err := New()
	require.NoError(t, err)

	rec := pathsfile.SliceRecord{Type: pathsfile.RecordRaw, SaveFormat: pathsfile.FormatDouble3D}
	require.NoError(t, w.AddRecord(rec))
}
