package multislicer

import (
	"math"

	"github.com/jdfr/multires/internal/config"
	"github.com/jdfr/multires/internal/geom"
)

// processInfilling is spec.md §4.5 step 8.
func (m *Multislicer) processInfilling(output *Output, proc *config.ProcessSpec, toolpathArea geom.PolygonSet) error {
	switch proc.InfillingMode {
	case config.InfillingNone:
		return nil
	case config.InfillingJustContour:
		return m.infillingJustContour(output, proc, toolpathArea)
	case config.InfillingConcentric:
		return m.infillingConcentric(output, proc, toolpathArea)
	case config.InfillingRectilinearHorizontal:
		return m.infillingRectilinear(output, proc, toolpathArea, true)
	case config.InfillingRectilinearVertical:
		return m.infillingRectilinear(output, proc, toolpathArea, false)
	default:
		return nil
	}
}

func (m *Multislicer) infillingJustContour(output *Output, proc *config.ProcessSpec, area geom.PolygonSet) error {
	shrinkFactor := 0.3
	if proc.AddInternalClearance {
		shrinkFactor = 0.99
	}
	areas, err := geom.Offset(-float64(proc.Radius)*shrinkFactor, area, geom.JoinRound, geom.EndPolygon)
	if err != nil {
		return err
	}
	output.InfillingAreas = areas
	output.AlsoInfillingAreas = true
	return m.recursiveInfillingContour(output, proc, areas)
}

// infillingConcentric repeatedly offsets inward by -radius (then opens the
// ring by radius when AddInternalClearance is set), each ring appended to
// toolpaths, per spec.md §4.5 step 8's "concentric" bullet. Each level
// offsets the whole set at once; it is not split into HoledPolygons.
func (m *Multislicer) infillingConcentric(output *Output, proc *config.ProcessSpec, area geom.PolygonSet) error {
	current := area
	for i := 0; i < maxConcentricRings; i++ {
		next, err := geom.Offset(-float64(proc.Radius), current, geom.JoinRound, geom.EndPolygon)
		if err == nil && proc.AddInternalClearance {
			next, err = geom.Opening(float64(proc.Radius), next, geom.JoinRound)
		}
		if err != nil {
			return err
		}
		if len(next) == 0 {
			break
		}
		output.Toolpaths = append(output.Toolpaths, closeOpenPaths(next)...)
		current = next
	}
	output.InfillingAreas = area
	output.AlsoInfillingAreas = true
	return m.recursiveInfillingContour(output, proc, area)
}

// maxConcentricRings bounds the concentric-infilling recursion; the
// geometry itself (next ring becomes empty) is the real terminator, this
// is only a safety backstop against a degenerate offset that never shrinks
// to empty.
const maxConcentricRings = 4096

// infillingRectilinear is spec.md §4.5 step 8's rectilinear bullet:
// parallel lines spaced 2*radius*0.999 apart, clipped to area (optionally
// eroded for clearance), short segments dropped. Segment endpoints are not
// snapped to the grid, whatever ApplySnap says.
func (m *Multislicer) infillingRectilinear(output *Output, proc *config.ProcessSpec, area geom.PolygonSet, horizontal bool) error {
	clipArea := area
	if proc.AddInternalClearance {
		eroded, err := geom.Offset(-float64(proc.Radius)*0.99, area, geom.JoinRound, geom.EndPolygon)
		if err != nil {
			return err
		}
		clipArea = eroded
	}
	bb := geom.BoundsOf(clipArea)
	step := 2 * float64(proc.Radius) * 0.999

	var lines geom.PolygonSet
	if horizontal {
		for y := float64(bb.MinY); y <= float64(bb.MaxY); y += step {
			lines = append(lines, geom.Path{
				{X: bb.MinX, Y: int64(y)},
				{X: bb.MaxX, Y: int64(y)},
			})
		}
	} else {
		for x := float64(bb.MinX); x <= float64(bb.MaxX); x += step {
			lines = append(lines, geom.Path{
				{X: int64(x), Y: bb.MinY},
				{X: int64(x), Y: bb.MaxY},
			})
		}
	}

	clipped, err := geom.ClipOpen(geom.OpIntersection, lines, clipArea, geom.NonZero)
	if err != nil {
		return err
	}

	minLen := float64(proc.Radius)
	var filtered geom.PolygonSet
	for _, p := range clipped {
		if pathLength(p) >= minLen {
			filtered = append(filtered, p)
		}
	}
	output.Toolpaths = append(output.Toolpaths, filtered...)
	output.InfillingAreas = area
	output.AlsoInfillingAreas = true
	return m.recursiveInfillingContour(output, proc, area)
}

// recursiveInfillingContour emits the extra independent contour when
// InfillingRecursive is set, per spec.md §4.5 step 8's final sentence.
func (m *Multislicer) recursiveInfillingContour(output *Output, proc *config.ProcessSpec, infillingToolpaths geom.PolygonSet) error {
	if !proc.InfillingRecursive {
		return nil
	}
	ring, err := geom.Offset(float64(proc.Radius), infillingToolpaths, geom.JoinRound, geom.EndJoined)
	if err != nil {
		return err
	}
	output.InfillingsIndependentContours = append(output.InfillingsIndependentContours, ring)
	return nil
}

func pathLength(p geom.Path) float64 {
	if len(p) < 2 {
		return 0
	}
	total := 0.0
	for i := 1; i < len(p); i++ {
		dx := float64(p[i].X - p[i-1].X)
		dy := float64(p[i].Y - p[i-1].Y)
		total += math.Sqrt(dx*dx + dy*dy)
	}
	return total
}
