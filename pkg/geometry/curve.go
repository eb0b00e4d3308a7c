package geometry

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Segment is one piece of a freehand path: a quadratic Bezier when Quad is
// set, otherwise a straight line from Start to End (Ctrl unused).
type Segment struct {
	Start, Ctrl, End Point2D
	Quad             bool
}

// Transform maps every control point of the segment through t. Affine maps
// preserve Bezier curves, so the mapped segment describes the same shape.
func (s Segment) Transform(t AffineTransform) Segment {
	return Segment{
		Start: t.Apply(s.Start),
		Ctrl:  t.Apply(s.Ctrl),
		End:   t.Apply(s.End),
		Quad:  s.Quad,
	}
}

// At evaluates the segment at parameter u in [0,1].
func (s Segment) At(u float64) Point2D {
	if !s.Quad {
		return r2.Add(s.Start, r2.Scale(u, r2.Sub(s.End, s.Start)))
	}
	v := 1 - u
	p := r2.Scale(v*v, s.Start)
	p = r2.Add(p, r2.Scale(2*v*u, s.Ctrl))
	return r2.Add(p, r2.Scale(u*u, s.End))
}

// Bounds returns the bounding box of the segment's control polygon, which
// always contains the curve.
func (s Segment) Bounds() Rect {
	if !s.Quad {
		return BoundingBox([]Point2D{s.Start, s.End})
	}
	return BoundingBox([]Point2D{s.Start, s.Ctrl, s.End})
}

// ChainSegments converts sampled stroke points into the smoothed chain used
// for both preview and export: a quadratic through each interior point ending
// at the midpoint to the next one, closed by a straight line to the last point.
//
//	n == 1: no segments (the stroke is a dot)
//	n == 2: one line p0 -> p1
//	n >= 3: M p0, Q(p[i], mid(p[i], p[i+1])) for i = 1..n-2, L p[n-1]
func ChainSegments(points []Point2D) []Segment {
	n := len(points)
	switch {
	case n < 2:
		return nil
	case n == 2:
		return []Segment{{Start: points[0], End: points[1]}}
	}

	segs := make([]Segment, 0, n-1)
	for k := 1; k <= n-2; k++ {
		segs = append(segs, ChainSegment(points, k-1))
	}
	segs = append(segs, Segment{
		Start: Midpoint(points[n-2], points[n-1]),
		End:   points[n-1],
	})
	return segs
}

// ChainSegment returns the i-th quadratic of the chain for points. It is only
// meaningful for i < FinalSegments(len(points)).
func ChainSegment(points []Point2D, i int) Segment {
	k := i + 1
	start := points[0]
	if k > 1 {
		start = Midpoint(points[k-1], points[k])
	}
	return Segment{
		Start: start,
		Ctrl:  points[k],
		End:   Midpoint(points[k], points[k+1]),
		Quad:  true,
	}
}

// FinalSegments reports how many leading chain segments of an n-point path
// can no longer change when more points are appended. The closing line is
// always provisional while a stroke is still open.
func FinalSegments(n int) int {
	if n < 3 {
		return 0
	}
	return n - 2
}

// Flatten approximates the segment with a polyline whose maximum deviation
// from the curve is at most tolerance. The result includes both endpoints.
func Flatten(s Segment, tolerance float64) []Point2D {
	if !s.Quad {
		return []Point2D{s.Start, s.End}
	}
	if tolerance <= 0 {
		tolerance = 0.25
	}

	// |B''| = 2|P0 - 2P1 + P2|; chord error with step h is |B''| h^2 / 8.
	dd := r2.Norm(r2.Add(r2.Sub(s.Start, r2.Scale(2, s.Ctrl)), s.End))
	n := int(math.Ceil(math.Sqrt(dd / (4 * tolerance))))
	if n < 1 {
		n = 1
	}

	pts := make([]Point2D, 0, n+1)
	pts = append(pts, s.Start)
	for i := 1; i < n; i++ {
		pts = append(pts, s.At(float64(i)/float64(n)))
	}
	return append(pts, s.End)
}

// TailSegment returns the provisional last piece of the chain: the closing
// line for n >= 3, the single line for n == 2. It reports false for shorter
// paths.
func TailSegment(points []Point2D) (Segment, bool) {
	n := len(points)
	switch {
	case n < 2:
		return Segment{}, false
	case n == 2:
		return Segment{Start: points[0], End: points[1]}, true
	}
	return Segment{Start: Midpoint(points[n-2], points[n-1]), End: points[n-1]}, true
}
