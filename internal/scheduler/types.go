// Package scheduler implements C6 of spec.md: the toolpath manager that
// reconstructs the already-filled volume at an arbitrary Z from previously
// committed per-process contours and vertical voxel profiles, and the
// scheduler that interleaves raw mesh slices across processes with
// heterogeneous Z extents.
//
// Grounded on original_source/multi/3d.hpp's ResultSingleTool,
// ToolpathManager, RawSlicesManager and SimpleSlicingScheduler.
package scheduler

import (
	"github.com/jdfr/multires/internal/geom"
	"github.com/jdfr/multires/internal/multislicer"
)

// ResultSingleTool is the per-(Z,tool) cell of spec.md §3: committed
// contours, open toolpaths, optional infilling, and the phase-1/phase-2
// completion state the scheduler drives. Owned exclusively by the
// ToolpathManager's per-process arena (slicess); every OutputSlice
// reference to one is a non-owning index (spec.md §9's "Cyclic ownership"
// design note).
type ResultSingleTool struct {
	Z     float64
	NTool int
	Idx   int // position within the owning per-process arena

	multislicer.Output

	AlreadyFilled geom.PolygonSet // scratch mask, consumed at Phase-2

	Phase1Complete bool
	Phase2Complete bool
	Used           bool
	HasErr         bool
	Err            error

	aboveComputed, belowComputed bool
	above, below                 geom.PolygonSet
}

// InputSlice is a scheduler-internal (Z, tool) task, spec.md §3.
type InputSlice struct {
	Z     float64
	NTool int

	MapInputToOutput int // one-to-one
	MapInputToRaw    int // many-to-one: index into the raw slice that supplies most of this input's geometry

	// RequiredRawSlices: additional raw-slice indices this input depends
	// on, populated only when AvoidVerticalOverwriting is set (spec.md
	// §4.6's "Raw slice deduplication" final paragraph).
	RequiredRawSlices []int
}

// OutputSlice is a scheduler-internal slot for the ResultSingleTool of one
// input slice, spec.md §3.
type OutputSlice struct {
	Z     float64
	NTool int

	MapOutputToInput int
	Computed         bool

	// ResultIdx indexes into the owning process's arena in
	// ToolpathManager.Slicess; -1 until Phase-1 completes.
	ResultIdx int

	NumSlicesRequiringThisOne int

	RequiredContoursForSupport []int // phase-1 dependency (one-sided)
	RequiredContoursForOverhang []int // phase-2 dependency (same-side)
	RequiredContoursForSurface []int  // phase-2 dependency (both sides)

	RecomputeRequiredAfterSupport  bool
	RecomputeRequiredAfterOverhang bool
}

// RawSlice is a PolygonSet sliced from the mesh at a specific Z, plus the
// reference-counting fields spec.md §3 documents.
type RawSlice struct {
	Z                float64
	NumRemainingUses int
	InUse            bool
	WasUsed          bool
	Slice            geom.PolygonSet
	MapRawToInput    []int
}
