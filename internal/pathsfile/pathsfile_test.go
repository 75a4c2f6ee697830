package pathsfile

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jdfr/multires/internal/geom"
)

// TestRoundTripInt64Format grounds spec.md §8's paths-file round-trip law
// for saveFormat=0: writing then reading reproduces the exact payload
// bytes.
func TestRoundTripInt64Format(t *testing.T) {
	header := FileHeader{Version: 0, UseSched: false, Tools: []ToolHeader{{RadiusX: 75}, {RadiusX: 10}}}

	var buf bytes.Buffer
	w, err := NewWriter(&buf, header)
	require.NoError(t, err)

	rec := SliceRecord{
		Type: RecordToolpath, NTool: 0, Z: 12.5, SaveFormat: FormatInt64Clipper, Scaling: 1.0,
		Paths: geom.PolygonSet{{{X: 0, Y: 0}, {X: 100, Y: 0}, {X: 100, Y: 100}}},
	}
	require.NoError(t, w.WriteRecord(rec))

	r, err := NewReader(&buf)
	require.NoError(t, err)
	require.Equal(t, 2, len(r.Header.Tools))

	got, err := r.ReadRecord()
	require.NoError(t, err)
	require.Equal(t, rec.Paths, got.Paths)
	require.Equal(t, rec.Z, got.Z)
	require.Equal(t, rec.Type, got.Type)
}

// TestBadMagicRejected grounds spec.md §7's IoError "magic mismatch" case.
func TestBadMagicRejected(t *testing.T) {
	buf := bytes.NewBufferString("XXXX")
	_, err := NewReader(buf)
	require.Error(t, err)
}
