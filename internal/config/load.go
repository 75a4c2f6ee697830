package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/jdfr/multires/internal/errkind"
)

// FileProfile is the YAML-facing mirror of VoxelProfile; config files name a
// Kind and fill in the fields that kind needs, then Build() resolves it to
// the concrete VoxelProfile implementation.
type FileProfile struct {
	Kind        string  `yaml:"kind"` // "constant", "elliptical", "piecewise"
	Radius      float64 `yaml:"radius"`
	SemiHeight  float64 `yaml:"semiHeight"`
	SliceHeight float64 `yaml:"sliceHeight"`
	RadiusZ     float64 `yaml:"radiusZ"`
	Points      []PiecewiseLinearPoint `yaml:"points"`
	ApplicationPoint float64 `yaml:"applicationPoint"`
	Remainder        float64 `yaml:"remainder"`
}

func (fp FileProfile) Build() (VoxelProfile, error) {
	switch fp.Kind {
	case "", "constant":
		return ConstantProfile{Radius: fp.Radius, Semiheight: fp.SemiHeight, Slh: fp.SliceHeight}, nil
	case "elliptical", "ellipsoid":
		return EllipticalProfile{RadiusX: fp.Radius, RadiusZ: fp.RadiusZ, Slh: fp.SliceHeight}, nil
	case "piecewise", "piecewise-linear":
		return PiecewiseLinearProfile{
			Points: fp.Points, Slh: fp.SliceHeight,
			AppPoint: fp.ApplicationPoint, Rem: fp.Remainder, SemiHeightVal: fp.SemiHeight,
		}, nil
	default:
		return nil, errkind.New(errkind.Config, "unknown voxel profile kind %q", fp.Kind)
	}
}

// FileProcess is the YAML-facing mirror of ProcessSpec, per SPEC_FULL.md's
// Ambient Stack "structured configuration ... loadable from a YAML file"
// note.
type FileProcess struct {
	Radius             int64   `yaml:"radius"`
	GridStep           int64   `yaml:"gridStep"`
	ArcTolR            int64   `yaml:"arcTolR"`
	ArcTolG            int64   `yaml:"arcTolG"`
	BurrLength         int64   `yaml:"burrLength"`
	RadiusRemoveCommon int64   `yaml:"radiusRemoveCommon"`
	ApplySnap          bool    `yaml:"applySnap"`
	SnapSmallSafeStep  bool    `yaml:"snapSmallSafeStep"`
	AddInternalClearance bool  `yaml:"addInternalClearance"`
	DoPreprocessing    bool    `yaml:"doPreprocessing"`
	MedialAxisFactors  []float64 `yaml:"medialAxisFactors"`
	MedialAxisFactorsForInfillings []float64 `yaml:"medialAxisFactorsForInfillings"`
	InfillingMode      string  `yaml:"infillingMode"`
	InfillingWhole     bool    `yaml:"infillingWhole"`
	InfillingRecursive bool    `yaml:"infillingRecursive"`
	Additive           bool    `yaml:"additive"`
	Profile            *FileProfile `yaml:"profile"`
}

func (fp FileProcess) Build() (ProcessSpec, error) {
	mode, err := parseInfillingMode(fp.InfillingMode)
	if err != nil {
		return ProcessSpec{}, err
	}
	ps := ProcessSpec{
		Radius: fp.Radius, GridStep: fp.GridStep, ArcTolR: fp.ArcTolR, ArcTolG: fp.ArcTolG,
		BurrLength: fp.BurrLength, RadiusRemoveCommon: fp.RadiusRemoveCommon,
		ApplySnap: fp.ApplySnap, SnapSmallSafeStep: fp.SnapSmallSafeStep,
		AddInternalClearance: fp.AddInternalClearance, DoPreprocessing: fp.DoPreprocessing,
		MedialAxisFactors: fp.MedialAxisFactors, MedialAxisFactorsForInfillings: fp.MedialAxisFactorsForInfillings,
		InfillingMode: mode, InfillingWhole: fp.InfillingWhole, InfillingRecursive: fp.InfillingRecursive,
		Additive: fp.Additive,
	}
	if fp.Profile != nil {
		profile, err := fp.Profile.Build()
		if err != nil {
			return ProcessSpec{}, err
		}
		ps.Profile = profile
	}
	ps.Derive()
	return ps, nil
}

func parseInfillingMode(s string) (InfillingMode, error) {
	switch s {
	case "", "none":
		return InfillingNone, nil
	case "just-contour", "justcontour":
		return InfillingJustContour, nil
	case "concentric":
		return InfillingConcentric, nil
	case "rectilinear-horizontal", "linesh":
		return InfillingRectilinearHorizontal, nil
	case "rectilinear-vertical", "linesv":
		return InfillingRectilinearVertical, nil
	default:
		return InfillingNone, errkind.New(errkind.Arguments, "unknown infilling mode %q", s)
	}
}

// FileZNTool mirrors ZNTool for manual schedules in YAML.
type FileZNTool struct {
	Z     float64 `yaml:"z"`
	NTool int     `yaml:"tool"`
}

// FileConfig is the top-level YAML document loaded by `--config FILE`.
type FileConfig struct {
	SchedMode    string  `yaml:"schedulerMode"`
	UseScheduler bool    `yaml:"useScheduler"`
	AddSub       bool    `yaml:"addsub"`
	AlsoContours bool    `yaml:"alsoContours"`
	MotionPlanner bool   `yaml:"motionPlanner"`
	AvoidVerticalOverwriting bool `yaml:"avoidVerticalOverwriting"`
	Correct      bool    `yaml:"correctInput"`
	ManualSchedule []FileZNTool `yaml:"manualSchedule"`
	SchedTools     []int        `yaml:"schedTools"`
	LimitX         int64        `yaml:"limitX,omitempty"`
	LimitY         int64        `yaml:"limitY,omitempty"`
	ZUniformStep float64 `yaml:"zUniformStep"`
	ZEpsilon     float64 `yaml:"zEpsilon"`
	SubstractiveOuter bool `yaml:"substractiveOuter"`
	OuterLimitX int64 `yaml:"outerLimitX,omitempty"`
	OuterLimitY int64 `yaml:"outerLimitY,omitempty"`

	Processes []FileProcess `yaml:"processes"`
}

// Load reads and parses a YAML configuration file into a MultiSpec, per
// SPEC_FULL.md's Ambient Stack Configuration section.
func Load(path string) (*MultiSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errkind.Wrap(errkind.Config, err, "reading config file %s", path)
	}
	var fc FileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, errkind.Wrap(errkind.Config, err, "parsing config file %s", path)
	}
	return fc.Build()
}

func (fc FileConfig) Build() (*MultiSpec, error) {
	mode, err := parseSchedMode(fc.SchedMode)
	if err != nil {
		return nil, err
	}
	ms := &MultiSpec{
		Global: GlobalSpec{
			SchedMode: mode, UseScheduler: fc.UseScheduler, AddSubWorkflowMode: fc.AddSub,
			AlsoContours: fc.AlsoContours, ApplyMotionPlanner: fc.MotionPlanner,
			AvoidVerticalOverwriting: fc.AvoidVerticalOverwriting, Correct: fc.Correct,
			SchedTools: fc.SchedTools, LimitX: fc.LimitX, LimitY: fc.LimitY,
			ZUniformStep: fc.ZUniformStep, ZEpsilon: fc.ZEpsilon,
			SubstractiveOuter: fc.SubstractiveOuter, OuterLimitX: fc.OuterLimitX, OuterLimitY: fc.OuterLimitY,
			IgnoreRedundantAdditiveContours: true,
		},
	}
	for _, z := range fc.ManualSchedule {
		ms.Global.ManualSchedule = append(ms.Global.ManualSchedule, ZNTool{Z: z.Z, NTool: z.NTool})
	}
	for _, fp := range fc.Processes {
		ps, err := fp.Build()
		if err != nil {
			return nil, err
		}
		ms.Processes = append(ms.Processes, ps)
	}
	if err := ms.Validate(); err != nil {
		return nil, errkind.Wrap(errkind.Config, err, "validating configuration")
	}
	return ms, nil
}

func parseSchedMode(s string) (SchedulerMode, error) {
	switch s {
	case "", "uniform":
		return SchedulerUniform, nil
	case "auto", "simple":
		return SchedulerAuto, nil
	case "manual":
		return SchedulerManual, nil
	default:
		return SchedulerUniform, errkind.New(errkind.Arguments, "unknown scheduler mode %q", s)
	}
}

// ExpandResponseFiles recursively expands "@filename" tokens into their
// file contents split on whitespace, per spec.md §6's CLI surface note.
func ExpandResponseFiles(args []string, depth int) ([]string, error) {
	if depth > 16 {
		return nil, errkind.New(errkind.Arguments, "response file nesting too deep")
	}
	var out []string
	for _, a := range args {
		if len(a) > 1 && a[0] == '@' {
			data, err := os.ReadFile(a[1:])
			if err != nil {
				return nil, errkind.Wrap(errkind.Io, err, "reading response file %s", a[1:])
			}
			expanded, err := ExpandResponseFiles(splitWhitespace(string(data)), depth+1)
			if err != nil {
				return nil, err
			}
			out = append(out, expanded...)
		} else {
			out = append(out, a)
		}
	}
	return out, nil
}

func splitWhitespace(s string) []string {
	var fields []string
	var cur []rune
	flush := func() {
		if len(cur) > 0 {
			fields = append(fields, string(cur))
			cur = nil
		}
	}
	for _, r := range s {
		switch r {
		case ' ', '\t', '\n', '\r', '\v', '\f':
			flush()
		default:
			cur = append(cur, r)
		}
	}
	flush()
	return fields
}
