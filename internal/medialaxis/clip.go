package medialaxis

import (
	"math"

	kernel "github.com/go-clipper/clipper2/port"

	"github.com/jdfr/multires/internal/geom"
)

// clipAndExtend implements spec.md §4.3 steps 6-7: clip the polylines to
// the bounding rectangle of the polygon's outer path, extend every endpoint
// by maxWidth+polylineLength along its tangent, clip to that rectangle
// again, then invert the int32-fit transform if one was applied. Holes and
// concave parts of the polygon are not clipped away, and endpoints at a
// bifurcation are extended like any other endpoint.
func clipAndExtend(original, working geom.HoledPolygon, transform geom.Transform2D, lines []geom.Path, maxWidth float64) []geom.Path {
	clipped := clipLinesToPolygon(lines, working)

	extended := make([]geom.Path, 0, len(clipped))
	for _, line := range clipped {
		if len(line) < 2 {
			continue
		}
		l := pathLength(line)
		line = extendEnd(line, maxWidth+l)
		line = extendStart(line, maxWidth+l)
		extended = append(extended, line)
	}

	reclipped := clipLinesToPolygon(extended, working)

	if transform.Scale == 1 {
		return reclipped
	}
	out := make([]geom.Path, len(reclipped))
	for i, line := range reclipped {
		out[i] = make(geom.Path, len(line))
		for j, pt := range line {
			out[i][j] = transform.Invert(pt)
		}
	}
	return out
}

func extendStart(p geom.Path, distance float64) geom.Path {
	if len(p) < 2 {
		return p
	}
	p[0] = pointInVector(p[1], p[0], distance)
	return p
}

func extendEnd(p geom.Path, distance float64) geom.Path {
	if len(p) < 2 {
		return p
	}
	n := len(p)
	p[n-1] = pointInVector(p[n-2], p[n-1], distance)
	return p
}

// pointInVector moves `to` further away from `from` by distance, along the
// from->to direction, matching the original's point_in_vector helper.
func pointInVector(from, to geom.Point, distance float64) geom.Point {
	dx := float64(to.X - from.X)
	dy := float64(to.Y - from.Y)
	l := math.Hypot(dx, dy)
	if l == 0 {
		return to
	}
	scale := (l + distance) / l
	return geom.Point{
		X: from.X + int64(dx*scale),
		Y: from.Y + int64(dy*scale),
	}
}

func clipLinesToPolygon(lines []geom.Path, hp geom.HoledPolygon) []geom.Path {
	if len(lines) == 0 {
		return nil
	}
	bb := geom.BoundsOf(geom.PolygonSet{hp.Outer})
	rect := geom.Path{
		{X: bb.MinX, Y: bb.MinY}, {X: bb.MaxX, Y: bb.MinY},
		{X: bb.MaxX, Y: bb.MaxY}, {X: bb.MinX, Y: bb.MaxY},
	}
	kp := make(kernel.Paths64, len(lines))
	for i, l := range lines {
		kl := make(kernel.Path64, len(l))
		for j, pt := range l {
			kl[j] = kernel.Point64{X: pt.X, Y: pt.Y}
		}
		kp[i] = kl
	}
	krect := make(kernel.Path64, len(rect))
	for i, pt := range rect {
		krect[i] = kernel.Point64{X: pt.X, Y: pt.Y}
	}
	clipped, err := kernel.RectClipLines64(krect, kp)
	if err != nil {
		return lines
	}
	out := make([]geom.Path, len(clipped))
	for i, l := range clipped {
		gp := make(geom.Path, len(l))
		for j, pt := range l {
			gp[j] = geom.Point{X: pt.X, Y: pt.Y}
		}
		out[i] = gp
	}
	return out
}
