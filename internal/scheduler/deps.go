package scheduler

import "github.com/jdfr/multires/internal/config"

// extentFor returns the voxel vertical extent (SemiHeight) for ntool, or 0
// if the process carries no voxel profile (purely-2D process).
func extentFor(spec *config.MultiSpec, ntool int) float64 {
	p := spec.Processes[ntool].Profile
	if p == nil {
		return 0
	}
	return p.SemiHeight()
}

// ComputeCrossSliceDependencies populates RequiredContoursForSupport/
// Overhang/Surface and NumSlicesRequiringThisOne on every OutputSlice, per
// spec.md §4.6 "Cross-slice contour dependencies": for every OutputSlice
// whose process demands surface differentiation, always-supported overhang
// handling, or overhang consideration at all, traverse neighboring
// OutputSlices above/below within a Z window (voxel extent times the
// relevant factor, extended by +0.1), per spec.md's three required-sets.
//
// Support is a phase-1 dependency restricted to the side already computed
// by the slicing direction (the "one-sided per slicing direction" rule);
// overhang is a phase-2 dependency on the same side; surface considers
// both sides.
func ComputeCrossSliceDependencies(outputs []OutputSlice, spec *config.MultiSpec) {
	g := spec.Global
	if !g.ApplyMotionPlanner && !g.DifferentiateSurface {
		return
	}
	supportFactor := orDefault(g.AlwaysSupportExtentFactor, 1.0) + 0.1
	overhangFactor := orDefault(g.ConsiderOverhangExtentFactor, 1.0) + 0.1
	surfaceFactor := orDefault(g.DifferentiateSurfaceExtentFactor, 1.0) + 0.1

	for i := range outputs {
		extent := extentFor(spec, outputs[i].NTool)
		if extent <= 0 {
			continue
		}
		earlierIsBelow := g.SliceUpwards

		if g.ApplyMotionPlanner {
			supportWindow := extent * supportFactor
			for j := range outputs {
				if j == i {
					continue
				}
				dz := outputs[j].Z - outputs[i].Z
				onEarlierSide := (dz < 0) == earlierIsBelow
				if !onEarlierSide {
					continue
				}
				if absF(dz) <= supportWindow {
					outputs[i].RequiredContoursForSupport = append(outputs[i].RequiredContoursForSupport, j)
					outputs[j].NumSlicesRequiringThisOne++
				}
			}

			if !g.OverhangAlwaysSupported {
				overhangWindow := extent * overhangFactor
				for j := range outputs {
					if j == i {
						continue
					}
					dz := outputs[j].Z - outputs[i].Z
					onEarlierSide := (dz < 0) == earlierIsBelow
					if !onEarlierSide {
						continue
					}
					if absF(dz) <= overhangWindow {
						outputs[i].RequiredContoursForOverhang = append(outputs[i].RequiredContoursForOverhang, j)
						outputs[j].NumSlicesRequiringThisOne++
					}
				}
				outputs[i].RecomputeRequiredAfterOverhang = !sameIndexSet(outputs[i].RequiredContoursForOverhang, outputs[i].RequiredContoursForSurface)
			}
			outputs[i].RecomputeRequiredAfterSupport = len(outputs[i].RequiredContoursForSupport) > 0 && len(outputs[i].RequiredContoursForOverhang) == 0
		}

		if g.DifferentiateSurface {
			surfaceWindow := extent * surfaceFactor
			for j := range outputs {
				if j == i {
					continue
				}
				dz := outputs[j].Z - outputs[i].Z
				if absF(dz) <= surfaceWindow {
					outputs[i].RequiredContoursForSurface = append(outputs[i].RequiredContoursForSurface, j)
					outputs[j].NumSlicesRequiringThisOne++
				}
			}
		}
	}
}

func orDefault(v, def float64) float64 {
	if v == 0 {
		return def
	}
	return v
}

func absF(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func sameIndexSet(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[int]bool, len(a))
	for _, v := range a {
		seen[v] = true
	}
	for _, v := range b {
		if !seen[v] {
			return false
		}
	}
	return true
}
