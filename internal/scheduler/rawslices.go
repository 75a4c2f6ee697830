package scheduler

import "github.com/jdfr/multires/internal/geom"

// RawSlicesManager keeps track of raw mesh slices delivered by the
// external mesh slicer, per spec.md §3's RawSlice lifecycle and
// original_source/3d.hpp's RawSlicesManager.
type RawSlicesManager struct {
	Raw   []RawSlice
	RawZs []float64
	Idx   int // index of the next raw slice the caller is expected to deliver
}

// NewRawSlicesManager builds the manager from the deduplicated raw Z list
// and per-input raw-slice mapping, assigning MapRawToInput/NumRemainingUses.
func NewRawSlicesManager(rawZs []float64, inputs []InputSlice, mapInputToRaw []int) *RawSlicesManager {
	rm := &RawSlicesManager{RawZs: rawZs, Raw: make([]RawSlice, len(rawZs))}
	for i, z := range rawZs {
		rm.Raw[i].Z = z
	}
	for inputIdx, rawIdx := range mapInputToRaw {
		rm.Raw[rawIdx].MapRawToInput = append(rm.Raw[rawIdx].MapRawToInput, inputIdx)
		rm.Raw[rawIdx].NumRemainingUses++
	}
	return rm
}

// ReceiveNextRawSlice stores the next delivered raw slice (trusting that
// delivery order matches RawZs, per spec.md §5's ordering guarantee).
func (rm *RawSlicesManager) ReceiveNextRawSlice(slice geom.PolygonSet) {
	if rm.Idx >= len(rm.Raw) {
		return
	}
	rm.Raw[rm.Idx].Slice = slice
	rm.Raw[rm.Idx].InUse = true
	rm.Idx++
}

// SingleRawSliceReady reports whether raw slice rawIdx has been delivered.
func (rm *RawSlicesManager) SingleRawSliceReady(rawIdx int) bool {
	return rawIdx < rm.Idx
}

// Ready reports whether every raw slice an input slice depends on
// (its own raw slice, plus RequiredRawSlices when avoidVerticalOverwriting
// is set) has been delivered, per spec.md §4.6's rawReady(input_idx).
func (rm *RawSlicesManager) Ready(input InputSlice) bool {
	if !rm.SingleRawSliceReady(input.MapInputToRaw) {
		return false
	}
	for _, r := range input.RequiredRawSlices {
		if !rm.SingleRawSliceReady(r) {
			return false
		}
	}
	return true
}

// GetRawContour returns the PolygonSet of raw slice rawIdx.
func (rm *RawSlicesManager) GetRawContour(rawIdx int) geom.PolygonSet {
	return rm.Raw[rawIdx].Slice
}

// ConsumeRaw decrements a raw slice's remaining-uses counter after an
// input slice has been built from it.
func (rm *RawSlicesManager) ConsumeRaw(rawIdx int) {
	rm.Raw[rawIdx].NumRemainingUses--
	rm.Raw[rawIdx].WasUsed = true
}

// RemoveUsedRawSlicesBelowZ frees raw slices whose NumRemainingUses has
// reached zero and whose Z lies past thresholdZ, per spec.md §4.6
// "Garbage collection".
func (rm *RawSlicesManager) RemoveUsedRawSlicesBelowZ(thresholdZ float64, sliceUpwards bool) {
	for i := range rm.Raw {
		r := &rm.Raw[i]
		if r.NumRemainingUses > 0 || !r.InUse {
			continue
		}
		pastThreshold := sliceUpwards && r.Z < thresholdZ || !sliceUpwards && r.Z > thresholdZ
		if pastThreshold {
			r.Slice = nil
			r.InUse = false
		}
	}
}
