// Package raster turns stroke geometry into pixel coverage. The live
// renderer and the mask exporter both go through it, so a stroke covers the
// same shape on screen and in the exported mask.
package raster

import (
	"image"
	"image/draw"
	"math"

	"mask-painter/internal/stroke"
	"mask-painter/pkg/geometry"

	"golang.org/x/image/vector"
)

// DefaultTolerance is the maximum distance, in target pixels, between a
// curve and its flattened polyline.
const DefaultTolerance = 0.25

// kappa places cubic control points for a quarter circle.
const kappa = 0.5522847498307936

// Coverage accumulates the footprint of one stroke at a fixed resolution.
// Pieces are rasterised independently and max-combined, so drawing a stroke
// segment by segment gives the same result as drawing it in one go.
type Coverage struct {
	Tolerance float64

	img   *image.Alpha
	dirty image.Rectangle

	ras     vector.Rasterizer
	scratch []uint8
}

// NewCoverage allocates an empty coverage layer over bounds.
func NewCoverage(bounds image.Rectangle) *Coverage {
	return &Coverage{
		Tolerance: DefaultTolerance,
		img:       image.NewAlpha(bounds),
	}
}

// Bounds returns the full extent of the layer.
func (c *Coverage) Bounds() image.Rectangle {
	return c.img.Rect
}

// Dirty returns the area touched since the last Reset.
func (c *Coverage) Dirty() image.Rectangle {
	return c.dirty
}

// Empty reports whether nothing has been drawn since the last Reset.
func (c *Coverage) Empty() bool {
	return c.dirty.Empty()
}

// At returns the coverage (0-255) at pixel (x, y).
func (c *Coverage) At(x, y int) uint8 {
	return c.img.AlphaAt(x, y).A
}

// Reset clears the touched area.
func (c *Coverage) Reset() {
	if c.dirty.Empty() {
		return
	}
	for y := c.dirty.Min.Y; y < c.dirty.Max.Y; y++ {
		i := c.img.PixOffset(c.dirty.Min.X, y)
		clear(c.img.Pix[i : i+c.dirty.Dx()])
	}
	c.dirty = image.Rectangle{}
}

// AddStroke rasterises a whole stroke whose path is mapped into target
// pixels by t, drawn with the given pen diameter.
func (c *Coverage) AddStroke(s stroke.Stroke, t geometry.AffineTransform, width float64) {
	if len(s.Path) == 0 {
		return
	}
	if s.IsDot() {
		c.Dot(t.Apply(s.Path[0]), width)
		return
	}
	for _, seg := range s.Segments() {
		c.Segment(seg.Transform(t), width)
	}
}

// Dot adds a filled disc of the given diameter. The pixel under the centre
// is always fully covered, so a disc narrower than a pixel still survives
// the Binary threshold.
func (c *Coverage) Dot(center geometry.Point2D, diameter float64) {
	if diameter <= 0 {
		return
	}
	c.piece([]geometry.Point2D{center}, diameter/2)

	px := image.Pt(int(math.Floor(center.X)), int(math.Floor(center.Y)))
	if !px.In(c.img.Rect) {
		return
	}
	c.img.Pix[c.img.PixOffset(px.X, px.Y)] = 0xff
	c.dirty = c.dirty.Union(image.Rectangle{Min: px, Max: px.Add(image.Pt(1, 1))})
}

// Segment adds one chain segment (already in target pixels) stroked with
// round caps and joins at the given diameter.
func (c *Coverage) Segment(seg geometry.Segment, width float64) {
	c.piece(geometry.Flatten(seg, c.Tolerance), width/2)
}

// piece rasterises the union of a disc at every vertex and a rectangle along
// every edge of poly into a bounding-box sized rasteriser, then max-combines
// it into the layer.
func (c *Coverage) piece(poly []geometry.Point2D, radius float64) {
	if len(poly) == 0 || radius <= 0 {
		return
	}

	box := geometry.BoundingBox(poly).Inset(-(radius + 1))
	r := image.Rect(
		int(math.Floor(box.Min.X)), int(math.Floor(box.Min.Y)),
		int(math.Ceil(box.Max.X)), int(math.Ceil(box.Max.Y)),
	).Intersect(c.img.Rect)
	if r.Empty() {
		return
	}

	w, h := r.Dx(), r.Dy()
	c.ras.Reset(w, h)
	origin := geometry.Pt(float64(r.Min.X), float64(r.Min.Y))

	for _, p := range poly {
		c.disc(p.X-origin.X, p.Y-origin.Y, radius)
	}
	for i := 0; i+1 < len(poly); i++ {
		c.edge(
			geometry.Pt(poly[i].X-origin.X, poly[i].Y-origin.Y),
			geometry.Pt(poly[i+1].X-origin.X, poly[i+1].Y-origin.Y),
			radius,
		)
	}

	if cap(c.scratch) < w*h {
		c.scratch = make([]uint8, w*h)
	}
	dst := &image.Alpha{Pix: c.scratch[:w*h], Stride: w, Rect: image.Rect(0, 0, w, h)}
	c.ras.DrawOp = draw.Src
	c.ras.Draw(dst, dst.Rect, image.Opaque, image.Point{})

	for y := 0; y < h; y++ {
		row := c.img.Pix[c.img.PixOffset(r.Min.X, r.Min.Y+y):]
		src := dst.Pix[y*w : (y+1)*w]
		for x, a := range src {
			if a > row[x] {
				row[x] = a
			}
		}
	}
	c.dirty = c.dirty.Union(r)
}

// disc adds a circle with positive winding.
func (c *Coverage) disc(cx, cy, r float64) {
	k := kappa * r
	c.ras.MoveTo(f(cx+r), f(cy))
	c.ras.CubeTo(f(cx+r), f(cy+k), f(cx+k), f(cy+r), f(cx), f(cy+r))
	c.ras.CubeTo(f(cx-k), f(cy+r), f(cx-r), f(cy+k), f(cx-r), f(cy))
	c.ras.CubeTo(f(cx-r), f(cy-k), f(cx-k), f(cy-r), f(cx), f(cy-r))
	c.ras.CubeTo(f(cx+k), f(cy-r), f(cx+r), f(cy-k), f(cx+r), f(cy))
	c.ras.ClosePath()
}

// edge adds the rectangle of half-width r around a->b, wound the same way
// as disc so overlapping shapes accumulate instead of cancelling.
func (c *Coverage) edge(a, b geometry.Point2D, r float64) {
	d := geometry.Distance(a, b)
	if d == 0 {
		return
	}
	nx := -(b.Y - a.Y) / d * r
	ny := (b.X - a.X) / d * r

	quad := [4]geometry.Point2D{
		{X: a.X + nx, Y: a.Y + ny},
		{X: b.X + nx, Y: b.Y + ny},
		{X: b.X - nx, Y: b.Y - ny},
		{X: a.X - nx, Y: a.Y - ny},
	}
	if signedArea(quad[:]) < 0 {
		quad[1], quad[3] = quad[3], quad[1]
	}

	c.ras.MoveTo(f(quad[0].X), f(quad[0].Y))
	for _, p := range quad[1:] {
		c.ras.LineTo(f(p.X), f(p.Y))
	}
	c.ras.ClosePath()
}

func signedArea(poly []geometry.Point2D) float64 {
	var sum float64
	for i, p := range poly {
		q := poly[(i+1)%len(poly)]
		sum += p.X*q.Y - q.X*p.Y
	}
	return sum / 2
}

func f(v float64) float32 { return float32(v) }
