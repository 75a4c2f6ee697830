package config

import (
	"github.com/jdfr/multires/internal/errkind"
	"github.com/jdfr/multires/internal/geom"
)

// InfillingMode mirrors spec.md §3's ProcessSpec.infillingMode enum.
type InfillingMode uint8

const (
	InfillingNone InfillingMode = iota
	InfillingJustContour
	InfillingConcentric
	InfillingRectilinearHorizontal
	InfillingRectilinearVertical
)

// ProcessSpec holds one tool's immutable-after-configuration parameters,
// per spec.md §3. Lower-numbered processes are coarser (GLOSSARY).
type ProcessSpec struct {
	Radius    int64
	GridStep  int64
	ArcTolR   int64
	ArcTolG   int64
	BurrLength int64

	// RadiusRemoveCommon: when positive, toolpath arcs within this
	// distance of a lower-resolution committed contour are clipped away.
	RadiusRemoveCommon int64

	ApplySnap          bool
	SnapSmallSafeStep  bool
	AddInternalClearance bool
	DoPreprocessing    bool

	// MedialAxisFactors / MedialAxisFactorsForInfillings: strictly
	// decreasing factors in (0, 1].
	MedialAxisFactors             []float64
	MedialAxisFactorsForInfillings []float64

	InfillingMode      InfillingMode
	InfillingWhole     bool
	InfillingRecursive bool

	// Additive is false for a subtractive tool; spec.md §1's add/sub
	// mixed workflow.
	Additive bool

	// Profile is nil for a purely-2D (non-scheduled) process.
	Profile VoxelProfile

	// derived, computed once by Derive().
	SubStep    float64
	DilateStep float64
	SafeStep   float64
	MaxDist    float64
	ShiftX     int64
	ShiftY     int64
}

// Derive fills in the default/derived parameters spec.hpp's
// MultiSpec::initializeVectors computes: substep, dilatestep, safestep,
// maxdist.
func (p *ProcessSpec) Derive() {
	p.SubStep = float64(p.GridStep) / 2
	p.DilateStep = p.SubStep * 1.05
	safestep := float64(p.GridStep) * 2.2360679774997896 / 2 * 1.1 // gridstep*sqrt(5)/2*1.1
	if p.SnapSmallSafeStep {
		safestep = float64(p.GridStep) / 2
	}
	maxdist := safestep
	if float64(p.Radius) > maxdist {
		maxdist = float64(p.Radius)
	}
	p.SafeStep = safestep
	p.MaxDist = maxdist
}

// UseRadiusRemoveCommon mirrors MultiSpec::useContoursAlreadyFilled: only
// meaningful for k>0, non add/sub workflows, when RadiusRemoveCommon>0.
func UseRadiusRemoveCommon(specs []ProcessSpec, addsub bool, k int) bool {
	return k > 0 && !addsub && specs[k].RadiusRemoveCommon > 0
}

// SchedulerMode mirrors spec.md §3's GlobalSpec.SchedMode.
type SchedulerMode uint8

const (
	SchedulerUniform SchedulerMode = iota
	SchedulerAuto
	SchedulerManual
)

// ZNTool is one manual-schedule entry: a Z and a tool index.
type ZNTool struct {
	Z     float64
	NTool int
}

// GlobalSpec holds the scheduling mode, add/sub flag, and the rest of
// spec.md §3's GlobalSpec.
type GlobalSpec struct {
	SchedMode    SchedulerMode
	UseScheduler bool
	AddSubWorkflowMode bool
	IgnoreRedundantAdditiveContours bool
	AlsoContours bool
	ApplyMotionPlanner bool
	AvoidVerticalOverwriting bool
	Correct bool

	ManualSchedule []ZNTool
	SchedTools     []int // subset of tool indices to use; nil means all

	LimitX, LimitY int64

	ZUniformStep float64
	ZEpsilon     float64

	SubstractiveOuter bool
	OuterLimitX, OuterLimitY int64

	DifferentiateSurface    bool
	OverhangAlwaysSupported bool
	SliceUpwards            bool

	EnsureAttachmentOffset        float64
	EnsureAttachmentMinimalOffset float64
	SupportOffset                 float64

	AlwaysSupportExtentFactor        float64
	ConsiderOverhangExtentFactor     float64
	DifferentiateSurfaceExtentFactor float64
}

// MultiSpec bundles the global spec with the per-process list, per
// spec.md §3's MultiSpec.
type MultiSpec struct {
	Global    GlobalSpec
	Processes []ProcessSpec
}

// NumProcesses is the number of tools configured.
func (m *MultiSpec) NumProcesses() int { return len(m.Processes) }

// Validate checks the invariants spec.hpp's MultiSpec::validate() enforces:
// medial axis factor lists strictly decreasing and within (0,1].
func (m *MultiSpec) Validate() error {
	for i := range m.Processes {
		if err := validateFactors(m.Processes[i].MedialAxisFactors); err != nil {
			return err
		}
		if err := validateFactors(m.Processes[i].MedialAxisFactorsForInfillings); err != nil {
			return err
		}
	}
	return nil
}

func validateFactors(factors []float64) error {
	prev := 1.0000001
	for _, f := range factors {
		if f <= 0 || f > 1 {
			return errkind.New(errkind.Config, "medial axis factor %g out of range (0,1]", f)
		}
		if f >= prev {
			return errkind.New(errkind.Config, "medial axis factors must be strictly decreasing: %g >= %g", f, prev)
		}
		prev = f
	}
	return nil
}

// DerivedOuterBox returns the outer limit box used by the substractive-outer
// mode (spec.md §4.5's "Substractive-outer mode"), as a rectangle PolygonSet
// centered on the origin with half-widths limitX and limitY.
func DerivedOuterBox(limitX, limitY int64) geom.PolygonSet {
	return geom.PolygonSet{{
		{X: -limitX, Y: -limitY},
		{X: limitX, Y: -limitY},
		{X: limitX, Y: limitY},
		{X: -limitX, Y: limitY},
	}}
}
