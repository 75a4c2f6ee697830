package multislicer

import (
	kernel "github.com/go-clipper/clipper2/port"

	"github.com/jdfr/multires/internal/config"
	"github.com/jdfr/multires/internal/geom"
	"github.com/jdfr/multires/internal/medialaxis"
)

// applyMedialAxis is spec.md §4.5 step 9: for infillings then for
// contours, iterate over medialAxisFactors from large to small, recovering
// narrow regions the toolpath offset already excluded.
func (m *Multislicer) applyMedialAxis(output *Output, proc *config.ProcessSpec) error {
	if output.AlsoInfillingAreas && len(proc.MedialAxisFactorsForInfillings) > 0 {
		lines, err := m.medialAxisPass(output, proc, proc.MedialAxisFactorsForInfillings, output.InfillingAreas)
		if err != nil {
			return err
		}
		output.Toolpaths = append(output.Toolpaths, closeOpenPaths(lines)...)
	}
	if len(proc.MedialAxisFactors) > 0 {
		lines, err := m.medialAxisPass(output, proc, proc.MedialAxisFactors, output.Contours)
		if err != nil {
			return err
		}
		output.Toolpaths = append(output.Toolpaths, closeOpenPaths(lines)...)
	}
	return nil
}

// medialAxisPass runs one factor list against one currentShape, per
// spec.md §4.5 step 9: for each factor f (large to small), erode by
// radius*f, extract the medial axis within [radius*f/2, radius*f*2], union
// the inflated lines into output.Contours, subtract the inflated lines from
// currentShape, accumulate raw lines and inflated rings.
func (m *Multislicer) medialAxisPass(output *Output, proc *config.ProcessSpec, factors []float64, currentShape geom.PolygonSet) (geom.PolygonSet, error) {
	var accumLines geom.PolygonSet
	shape := currentShape
	for _, f := range factors {
		eroded, err := geom.Offset(-float64(proc.Radius)*f, shape, geom.JoinRound, geom.EndPolygon)
		if err != nil {
			return nil, err
		}
		minWidth := float64(proc.Radius) * f / 2
		maxWidth := float64(proc.Radius) * f * 2

		hps, err := toHoledPolygons(eroded)
		if err != nil {
			return nil, err
		}

		var levelLines geom.PolygonSet
		for _, hp := range hps {
			lines, err := medialaxis.Extract(hp, minWidth, maxWidth)
			if err != nil {
				return nil, err
			}
			levelLines = append(levelLines, lines...)
		}
		if len(levelLines) == 0 {
			continue
		}

		inflated, err := geom.Offset(float64(proc.Radius), levelLines, geom.JoinRound, geom.EndRound)
		if err != nil {
			return nil, err
		}
		merged, err := geom.Clip(geom.OpUnion, output.Contours, inflated, geom.NonZero, geom.NonZero)
		if err != nil {
			return nil, err
		}
		output.Contours = merged

		shape, err = geom.Clip(geom.OpDifference, shape, inflated, geom.NonZero, geom.NonZero)
		if err != nil {
			return nil, err
		}

		accumLines = append(accumLines, levelLines...)
		output.MedialAxisIndependentContours = append(output.MedialAxisIndependentContours, inflated)
	}
	return accumLines, nil
}

// toHoledPolygons groups a PolygonSet's paths into HoledPolygons by
// nesting depth (outer contours at even depth, holes at odd depth), so
// medialaxis.Extract -- which operates on one HoledPolygon -- can be run
// per connected region rather than on the whole set at once.
func toHoledPolygons(ps geom.PolygonSet) ([]geom.HoledPolygon, error) {
	oriented := geom.OrientPaths(ps)
	var outers []geom.Path
	var holes []geom.Path
	for _, p := range oriented {
		if geom.Area(geom.PolygonSet{p}) >= 0 {
			outers = append(outers, p)
		} else {
			holes = append(holes, p)
		}
	}
	hps := make([]geom.HoledPolygon, 0, len(outers))
	for _, outer := range outers {
		hp := geom.HoledPolygon{Outer: outer}
		for _, h := range holes {
			if len(h) > 0 && geom.PointInPolygon(h[0], outer, geom.NonZero) != kernel.Outside {
				hp.Holes = append(hp.Holes, h)
			}
		}
		hps = append(hps, hp)
	}
	return hps, nil
}
