// Package geometry holds the point, size and affine algebra shared by the
// viewport, stroke rasteriser and exporters.
package geometry

import (
	"math"

	"golang.org/x/image/math/f64"
	"gonum.org/v1/gonum/spatial/r2"
)

// Point2D represents a 2D point with floating-point coordinates.
type Point2D = r2.Vec

// Pt creates a new Point2D.
func Pt(x, y float64) Point2D {
	return Point2D{X: x, Y: y}
}

// Distance returns the Euclidean distance between two points.
func Distance(a, b Point2D) float64 {
	return r2.Norm(r2.Sub(a, b))
}

// Midpoint returns the point halfway between a and b.
func Midpoint(a, b Point2D) Point2D {
	return r2.Scale(0.5, r2.Add(a, b))
}

// Size represents a 2D size.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// NewSize creates a new Size.
func NewSize(width, height float64) Size {
	return Size{Width: width, Height: height}
}

// Empty reports whether either dimension is zero or negative.
func (s Size) Empty() bool {
	return s.Width <= 0 || s.Height <= 0
}

// Aspect returns width/height, or 0 for an empty size.
func (s Size) Aspect() float64 {
	if s.Empty() {
		return 0
	}
	return s.Width / s.Height
}

// Mul scales both dimensions by f.
func (s Size) Mul(f float64) Size {
	return Size{Width: s.Width * f, Height: s.Height * f}
}

// Rect is an axis-aligned box spanning Min to Max.
type Rect struct {
	Min, Max Point2D
}

// Dx is the box width.
func (r Rect) Dx() float64 { return r.Max.X - r.Min.X }

// Dy is the box height.
func (r Rect) Dy() float64 { return r.Max.Y - r.Min.Y }

// Inset moves every edge inwards by d; a negative d grows the box.
func (r Rect) Inset(d float64) Rect {
	return Rect{Min: r2.Add(r.Min, Pt(d, d)), Max: r2.Sub(r.Max, Pt(d, d))}
}

// BoundingBox is the smallest Rect holding all points, or the zero Rect.
func BoundingBox(points []Point2D) Rect {
	if len(points) == 0 {
		return Rect{}
	}
	box := Rect{Min: points[0], Max: points[0]}
	for _, p := range points[1:] {
		box.Min = Pt(math.Min(box.Min.X, p.X), math.Min(box.Min.Y, p.Y))
		box.Max = Pt(math.Max(box.Max.X, p.X), math.Max(box.Max.Y, p.Y))
	}
	return box
}

// AffineTransform is a 2x3 matrix in the row-major layout used by
// golang.org/x/image/draw, so it can be handed to Transform directly:
//
//	x' = m[0]*x + m[1]*y + m[2]
//	y' = m[3]*x + m[4]*y + m[5]
type AffineTransform f64.Aff3

// Translation moves points by (dx, dy).
func Translation(dx, dy float64) AffineTransform {
	return AffineTransform{1, 0, dx, 0, 1, dy}
}

// Scale stretches points about the origin.
func Scale(sx, sy float64) AffineTransform {
	return AffineTransform{sx, 0, 0, 0, sy, 0}
}

// Apply maps p.
func (m AffineTransform) Apply(p Point2D) Point2D {
	return Pt(m[0]*p.X+m[1]*p.Y+m[2], m[3]*p.X+m[4]*p.Y+m[5])
}

// Compose returns m∘n: the result applies n, then m.
func (m AffineTransform) Compose(n AffineTransform) AffineTransform {
	var out AffineTransform
	for row := 0; row < 2; row++ {
		a, b, c := m[3*row], m[3*row+1], m[3*row+2]
		out[3*row] = a*n[0] + b*n[3]
		out[3*row+1] = a*n[1] + b*n[4]
		out[3*row+2] = a*n[2] + b*n[5] + c
	}
	return out
}

// Aff3 exposes m for golang.org/x/image/draw.
func (m AffineTransform) Aff3() f64.Aff3 { return f64.Aff3(m) }
