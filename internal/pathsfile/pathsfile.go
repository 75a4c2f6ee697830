// Package pathsfile implements the binary paths-file container of
// spec.md §6: a little-endian, stream-framed format carrying a
// FileHeader followed by a sequence of SliceRecords, each holding a
// PolygonSet-shaped payload in one of three coordinate encodings.
//
// Grounded on original_source/interfaces/pathsfile.cpp's PathsFile reader
// and writer.
package pathsfile

import (
	"github.com/jdfr/multires/internal/geom"
)

// magic is the 4-byte "PATH" file signature, per spec.md §6.
var magic = [4]byte{'P', 'A', 'T', 'H'}

// RecordType mirrors spec.md §6's SliceRecord.type values.
type RecordType int64

const (
	RecordRaw               RecordType = 0
	RecordProcessedContour  RecordType = 1
	RecordToolpath          RecordType = 2
	RecordToolpathPerimeter RecordType = 2
	RecordToolpathInfilling RecordType = 3
)

// SaveFormat mirrors spec.md §6's SliceRecord.saveFormat values.
type SaveFormat int64

const (
	FormatInt64Clipper SaveFormat = 0
	FormatDouble2D      SaveFormat = 1
	FormatDouble3D      SaveFormat = 2
)

// ToolHeader is one per-tool entry in the FileHeader, per spec.md §6.
type ToolHeader struct {
	RadiusX float64
	// The following three are only present/valid when UseScheduler is set.
	RadiusZ           float64
	ZHeight           float64
	ZApplicationPoint float64
}

// FileHeader is spec.md §6's FileHeader.
type FileHeader struct {
	Version     uint32
	UseSched    bool
	Tools       []ToolHeader
	NumRecords  int64
}

// NumRecordsOffset returns the byte offset of the numRecords field, so it
// can be rewritten in place after the stream is finalized, per spec.md §6:
// `8 * (3 + numtools * (useSched ? 4 : 1))`.
func (h FileHeader) NumRecordsOffset() int64 {
	perTool := int64(1)
	if h.UseSched {
		perTool = 4
	}
	return 8 * (3 + int64(len(h.Tools))*perTool)
}

// SliceRecord is spec.md §6's SliceRecord, with the payload already
// decoded into a geom.PolygonSet (2D formats) or Points3D (format 2).
type SliceRecord struct {
	Type       RecordType
	NTool      int64 // -1 for raw
	Z          float64
	SaveFormat SaveFormat
	Scaling    float64
	Paths      geom.PolygonSet // used for saveFormat 0 and 1
	Paths3D    [][]Point3D     // used for saveFormat 2
}

// Point3D is a 3D point with a double Z, per spec.md §3's "3D variant adds
// Z as a double."
type Point3D struct {
	X, Y, Z float64
}
