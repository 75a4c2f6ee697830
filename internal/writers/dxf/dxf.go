// Package dxf is a thin adapter translating the paths the scheduler
// produces into a DXF drawing, exercised by the CLI's optional
// "--dump-dxf" debug flag.
//
// It follows spec.md §9's "dynamic dispatch at path-writer boundaries"
// note: a Writer is built from a capability set (which record kinds to
// emit, each rule naming a layer) rather than one monolithic switch, so
// adding a new record kind means registering another (predicate, emit)
// pair instead of editing a central function. The layer names are not
// applied to the emitted entities.
//
// Grounded on _examples/piwi3910-cnc-calculator/internal/importer/dxf.go,
// the only file in the retrieval pack driving github.com/yofu/dxf.
package dxf

import (
	"github.com/yofu/dxf"

	"github.com/jdfr/multires/internal/errkind"
	"github.com/jdfr/multires/internal/geom"
	"github.com/jdfr/multires/internal/pathsfile"
)

// Scale converts the integer clipper coordinate system back to real units
// before emitting DXF entities, mirroring pathsfile.SliceRecord.Scaling.
type Scale = float64

// emitter writes one PolygonSet to drawing under layer, at elevation z.
type emitter func(drawing *dxf.Drawing, layer string, z float64, scale Scale, ps geom.PolygonSet) error

// rule pairs a predicate over a pathsfile.RecordType with the emitter that
// should handle it, per spec.md §9's predicate-dispatch note.
type rule struct {
	name    string
	matches func(pathsfile.RecordType) bool
	layer   string
	emit    emitter
}

// Writer accumulates records into a single in-memory DXF drawing.
type Writer struct {
	drawing *dxf.Drawing
	rules   []rule
}

// New builds a Writer with the default capability set: raw contours,
// processed contours, toolpath perimeters and infillings, each with its
// own rule; every entity is drawn on the drawing's current layer.
func New() (*Writer, error) {
	drawing := dxf.NewDrawing()
	w := &Writer{drawing: drawing}
	w.rules = []rule{
		{name: "raw", matches: func(t pathsfile.RecordType) bool { return t == pathsfile.RecordRaw }, layer: "RAW", emit: emitPolygonSet},
		{name: "contour", matches: func(t pathsfile.RecordType) bool { return t == pathsfile.RecordProcessedContour }, layer: "CONTOUR", emit: emitPolygonSet},
		{name: "toolpath", matches: func(t pathsfile.RecordType) bool { return t == pathsfile.RecordToolpath }, layer: "TOOLPATH", emit: emitPolygonSet},
		{name: "infilling", matches: func(t pathsfile.RecordType) bool { return t == pathsfile.RecordToolpathInfilling }, layer: "INFILL", emit: emitPolygonSet},
	}
	return w, nil
}

// AddRecord dispatches rec to whichever registered rule matches its type,
// per spec.md §9. Records with saveFormat=2 (3D point triples) carry no
// PolygonSet and are skipped: they describe mesh cross-sections, not
// 2D toolpaths, and have no natural DXF projection here.
func (w *Writer) AddRecord(rec pathsfile.SliceRecord) error {
	if rec.Paths == nil {
		return nil
	}
	for _, r := range w.rules {
		if r.matches(rec.Type) {
			return r.emit(w.drawing, r.layer, rec.Z, rec.Scaling, rec.Paths)
		}
	}
	return nil
}

// SaveAs writes the accumulated drawing to path.
func (w *Writer) SaveAs(path string) error {
	if err := w.drawing.SaveAs(path); err != nil {
		return errkind.Wrap(errkind.Io, err, "writing DXF file %q", path)
	}
	return nil
}

// emitPolygonSet renders each path in ps as a closed chain of LINE
// entities, at elevation z, scaling integer coordinates back to real
// units via scale. layer is currently informational only (it names which
// rule matched); a closed LWPOLYLINE entity would be the more natural
// fit, but the only reference usage in the pack reads LwPolyline/
// Line/Circle/Arc rather than constructing them, so this sticks to the
// one construction method that usage makes unambiguous: individual line
// segments.
func emitPolygonSet(drawing *dxf.Drawing, layer string, z float64, scale Scale, ps geom.PolygonSet) error {
	_ = layer
	if scale == 0 {
		scale = 1
	}
	for _, path := range ps {
		n := len(path)
		if n < 2 {
			continue
		}
		for i := 0; i < n; i++ {
			a := path[i]
			b := path[(i+1)%n]
			x1, y1 := float64(a.X)*scale, float64(a.Y)*scale
			x2, y2 := float64(b.X)*scale, float64(b.Y)*scale
			drawing.Line(x1, y1, z, x2, y2, z)
		}
	}
	return nil
}
