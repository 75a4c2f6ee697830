package scheduler

import (
	"math"
	"sort"

	"github.com/jdfr/multires/internal/config"
	"github.com/jdfr/multires/internal/errkind"
)

// testSliceNotNearEnd allows a 20% slack on sliceHeight, per spec.md §4.6
// and SPEC_FULL.md's supplemented detail from the original scheduler.
func testSliceNotNearEnd(candidate, zend, sliceHeight float64) bool {
	return candidate <= zend+sliceHeight*0.2
}

// BuildSchedule computes the ordered list of InputSlices (not yet deduped
// into raw slices) for (zmin, zmax, epsilon, mode), per spec.md §4.6
// "Building the schedule".
func BuildSchedule(spec *config.MultiSpec, zmin, zmax float64) ([]InputSlice, error) {
	switch spec.Global.SchedMode {
	case config.SchedulerUniform:
		return buildUniformSchedule(spec, zmin, zmax), nil
	case config.SchedulerAuto:
		return buildAutoSchedule(spec, zmin, zmax), nil
	case config.SchedulerManual:
		return buildManualSchedule(spec, zmin, zmax)
	default:
		return nil, errkind.New(errkind.Arguments, "unknown scheduler mode")
	}
}

func activeTools(spec *config.MultiSpec) []int {
	if len(spec.Global.SchedTools) > 0 {
		return spec.Global.SchedTools
	}
	tools := make([]int, len(spec.Processes))
	for i := range tools {
		tools[i] = i
	}
	return tools
}

// buildUniformSchedule emits one input per Z at step z_uniform_step, per
// active tool, per spec.md §4.6 mode=uniform.
func buildUniformSchedule(spec *config.MultiSpec, zmin, zmax float64) []InputSlice {
	tools := activeTools(spec)
	var out []InputSlice
	step := spec.Global.ZUniformStep
	if step <= 0 {
		step = 1
	}
	for z := zmin; z <= zmax+1e-9; z += step {
		for _, t := range tools {
			out = append(out, InputSlice{Z: z, NTool: t})
		}
	}
	return out
}

// buildManualSchedule uses the caller-provided (Z, tool) list verbatim,
// failing with a ScheduleInconsistent error if a tool index is out of
// range. The error is built with the UnknownTool reason (SPEC_FULL.md's
// supplemented detail), but only its embedded *errkind.Error is returned.
func buildManualSchedule(spec *config.MultiSpec, zmin, zmax float64) ([]InputSlice, error) {
	out := make([]InputSlice, 0, len(spec.Global.ManualSchedule))
	for i, zn := range spec.Global.ManualSchedule {
		if zn.NTool < 0 || zn.NTool >= len(spec.Processes) {
			return nil, errkind.NewScheduleInconsistent(errkind.UnknownTool, i, "manual schedule entry names an unconfigured tool index").Error
		}
		out = append(out, InputSlice{Z: zn.Z, NTool: zn.NTool})
	}
	return out, nil
}

// buildAutoSchedule is the two-photon-profile recursive scheduler of
// spec.md §4.6 mode=simple/auto: recursiveSimpleInputScheduler stepping
// from the lowest-resolution tool, recursing into all higher-resolution
// tools after each emission so their smaller voxels interleave in the gap.
func buildAutoSchedule(spec *config.MultiSpec, zmin, zmax float64) []InputSlice {
	tools := activeTools(spec)
	if len(tools) == 0 {
		return nil
	}
	var out []InputSlice
	zbase := make([]float64, len(spec.Processes))
	for _, t := range tools {
		zbase[t] = zmin
	}
	recursiveSimpleInputScheduler(spec, tools, 0, zbase, zmax, &out)
	return out
}

func recursiveSimpleInputScheduler(spec *config.MultiSpec, tools []int, toolPos int, zbase []float64, zend float64, out *[]InputSlice) {
	if toolPos >= len(tools) {
		return
	}
	tool := tools[toolPos]
	sliceHeight := 1.0
	if spec.Processes[tool].Profile != nil {
		sliceHeight = spec.Processes[tool].Profile.SliceHeight()
	}
	if sliceHeight <= 0 {
		sliceHeight = 1
	}

	z := zbase[tool]
	for testSliceNotNearEnd(z, zend, sliceHeight) {
		*out = append(*out, InputSlice{Z: z, NTool: tool})
		zbase[tool] = z + sliceHeight

		// Recurse into all higher-resolution (later-indexed) tools up to
		// the newly emitted Z, so their smaller voxels interleave.
		recursiveSimpleInputScheduler(spec, tools, toolPos+1, zbase, z, out)

		z = zbase[tool]
	}
}

// DeduplicateRawSlices walks InputSlices (assumed already sorted into
// output order) and unifies Zs within epsilon into the same RawSlice
// index, per spec.md §4.6 "Raw slice deduplication". Returns the raw Zs
// list and, for each InputSlice, the raw slice index it maps to.
func DeduplicateRawSlices(inputs []InputSlice, epsilon float64) (rawZs []float64, mapInputToRaw []int) {
	mapInputToRaw = make([]int, len(inputs))
	sorted := make([]int, len(inputs))
	for i := range sorted {
		sorted[i] = i
	}
	sort.Slice(sorted, func(i, j int) bool { return inputs[sorted[i]].Z < inputs[sorted[j]].Z })

	for _, idx := range sorted {
		z := inputs[idx].Z
		raw := -1
		for r, rz := range rawZs {
			if math.Abs(rz-z) <= epsilon {
				raw = r
				break
			}
		}
		if raw == -1 {
			raw = len(rawZs)
			rawZs = append(rawZs, z)
		}
		mapInputToRaw[idx] = raw
	}
	return rawZs, mapInputToRaw
}

// SortInputsForOutput sorts InputSlices by Z (ascending or descending per
// sliceUpwards), ties broken by tool index ascending, per spec.md §4.6
// "Output ordering". Returns the permutation (index into the original
// slice, in output order).
func SortInputsForOutput(inputs []InputSlice, sliceUpwards bool) []int {
	order := make([]int, len(inputs))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		ia, ib := inputs[order[a]], inputs[order[b]]
		if ia.Z != ib.Z {
			if sliceUpwards {
				return ia.Z < ib.Z
			}
			return ia.Z > ib.Z
		}
		return ia.NTool < ib.NTool
	})
	return order
}
