// Package render composites the source image and the stroke layer for the
// visible surface.
package render

import (
	"errors"
	"image"
	"image/color"
	"image/draw"
	"math"

	"mask-painter/internal/raster"
	"mask-painter/internal/stroke"
	"mask-painter/internal/viewport"
	"mask-painter/pkg/geometry"

	"github.com/rs/zerolog"
	xdraw "golang.org/x/image/draw"
)

var (
	// ErrStaleGeometry is returned for a frame requested with a geometry
	// snapshot that has since been superseded. The frame is dropped.
	ErrStaleGeometry = errors.New("render: geometry snapshot is stale")
	// ErrNoSource is returned when no image has been set.
	ErrNoSource = errors.New("render: no source image")
)

// DefaultTint is the on-screen stroke colour. It is cosmetic only.
var DefaultTint = color.NRGBA{R: 0xff, G: 0x30, B: 0x60, A: 0x80}

// DefaultBackground fills the area outside the image.
var DefaultBackground = color.NRGBA{A: 0xff}

// StrokeSource is the read side of the stroke model.
type StrokeSource interface {
	Revision() uint64
	Strokes() []stroke.Stroke
	Open() (stroke.Stroke, stroke.Handle, bool)
}

// GeometrySource reports whether a snapshot still reflects the latest view
// inputs.
type GeometrySource interface {
	IsCurrent(g viewport.Geometry) bool
}

// Renderer keeps three cached layers: the scaled source image (per
// geometry), the replay of committed strokes (per geometry and model
// revision) and a working copy that also carries the stroke being drawn.
type Renderer struct {
	Tint       color.NRGBA
	Background color.Color

	views  GeometrySource
	logger zerolog.Logger

	source        image.Image
	sourceVersion uint64

	bounds      image.Rectangle
	geomGen     uint64
	baseVersion uint64
	base        *image.RGBA
	out         *image.RGBA

	committed      *image.Alpha
	committedRev   uint64
	committedValid bool

	working      *image.Alpha
	workingDirty image.Rectangle

	scratch *raster.Coverage
	live    liveStroke
}

// liveStroke is the incremental state of the open stroke. Segments become
// final one at a time and are rasterised once; the provisional tail is
// redrawn every frame.
type liveStroke struct {
	active bool
	handle stroke.Handle
	drawn  int
	final  *raster.Coverage
	tail   *raster.Coverage
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithLogger sets the logger used for cache rebuild diagnostics.
func WithLogger(l zerolog.Logger) Option {
	return func(r *Renderer) { r.logger = l }
}

// New creates a renderer that checks snapshots against views. views may be
// nil, in which case every snapshot is accepted.
func New(views GeometrySource, opts ...Option) *Renderer {
	r := &Renderer{
		Tint:       DefaultTint,
		Background: DefaultBackground,
		views:      views,
		logger:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SetSource replaces the image drawn underneath the strokes.
func (r *Renderer) SetSource(img image.Image) {
	r.source = img
	r.sourceVersion++
}

// strokeLayer is the display-resolution stroke layer of the last frame:
// committed strokes plus the open stroke.
func (r *Renderer) strokeLayer() *image.Alpha {
	return r.working
}

// Render produces the composite for g. The returned image is owned by the
// renderer and overwritten by the next call.
func (r *Renderer) Render(g viewport.Geometry, strokes StrokeSource) (*image.RGBA, error) {
	if r.views != nil && !r.views.IsCurrent(g) {
		return nil, ErrStaleGeometry
	}
	if r.source == nil {
		return nil, ErrNoSource
	}
	if g.Viewport.Empty() || g.BaseSize.Empty() {
		return nil, viewport.ErrNotReady
	}

	r.ensureBase(g)
	r.ensureCommitted(g, strokes)
	r.updateWorking(g, strokes)

	draw.Draw(r.out, r.bounds, r.base, image.Point{}, draw.Src)
	draw.DrawMask(r.out, r.bounds, image.NewUniform(r.Tint), image.Point{}, r.working, image.Point{}, draw.Over)
	return r.out, nil
}

// ensureBase rebuilds every layer when the geometry or the source changed.
func (r *Renderer) ensureBase(g viewport.Geometry) {
	bounds := image.Rect(0, 0, int(math.Ceil(g.Viewport.Width)), int(math.Ceil(g.Viewport.Height)))
	if r.base != nil && g.Generation == r.geomGen && bounds == r.bounds && r.baseVersion == r.sourceVersion {
		return
	}

	if bounds != r.bounds || r.base == nil {
		r.bounds = bounds
		r.base = image.NewRGBA(bounds)
		r.out = image.NewRGBA(bounds)
		r.committed = image.NewAlpha(bounds)
		r.working = image.NewAlpha(bounds)
		r.scratch = raster.NewCoverage(bounds)
		r.live.final = raster.NewCoverage(bounds)
		r.live.tail = raster.NewCoverage(bounds)
	}

	draw.Draw(r.base, bounds, image.NewUniform(r.Background), image.Point{}, draw.Src)
	s2d := geometry.Translation(g.Offset.X, g.Offset.Y).Compose(geometry.Scale(g.Scale.X, g.Scale.Y))
	xdraw.ApproxBiLinear.Transform(r.base, s2d.Aff3(), r.source, r.source.Bounds(), xdraw.Over, nil)

	r.geomGen = g.Generation
	r.baseVersion = r.sourceVersion
	r.committedValid = false
	r.resetLive()

	r.logger.Debug().
		Uint64("generation", g.Generation).
		Float64("zoom", g.Zoom).
		Int("width", bounds.Dx()).
		Int("height", bounds.Dy()).
		Msg("Rebuilt base layer")
}

// ensureCommitted replays the whole history when it changed. History is
// never patched incrementally.
func (r *Renderer) ensureCommitted(g viewport.Geometry, strokes StrokeSource) {
	rev := strokes.Revision()
	if r.committedValid && rev == r.committedRev {
		return
	}

	raster.Fill(r.committed, 0)
	all := strokes.Strokes()
	for _, s := range all {
		r.scratch.Reset()
		t, width := displayMapping(g, s)
		r.scratch.AddStroke(s, t, width)
		raster.Apply(r.committed, s.Mode, raster.Soft, r.scratch)
	}
	r.scratch.Reset()

	copy(r.working.Pix, r.committed.Pix)
	r.workingDirty = image.Rectangle{}
	r.committedRev = rev
	r.committedValid = true
	r.resetLive()

	r.logger.Debug().Int("strokes", len(all)).Uint64("revision", rev).Msg("Replayed committed strokes")
}

// updateWorking brings the open stroke up to date and composites it over
// the committed layer, touching only the area it covers.
func (r *Renderer) updateWorking(g viewport.Geometry, strokes StrokeSource) {
	r.restoreWorking()

	open, h, ok := strokes.Open()
	if !ok || len(open.Path) == 0 {
		r.resetLive()
		return
	}
	if !r.live.active || r.live.handle != h {
		r.resetLive()
		r.live.active = true
		r.live.handle = h
	}

	t, width := displayMapping(g, open)
	final := geometry.FinalSegments(len(open.Path))
	for ; r.live.drawn < final; r.live.drawn++ {
		seg := geometry.ChainSegment(open.Path, r.live.drawn)
		r.live.final.Segment(seg.Transform(t), width)
	}

	r.live.tail.Reset()
	if open.IsDot() {
		r.live.tail.Dot(t.Apply(open.Path[0]), width)
	} else if tail, ok := geometry.TailSegment(open.Path); ok {
		r.live.tail.Segment(tail.Transform(t), width)
	}

	raster.Apply(r.working, open.Mode, raster.Soft, r.live.final, r.live.tail)
	r.workingDirty = r.live.final.Dirty().Union(r.live.tail.Dirty())
}

// restoreWorking copies the committed layer back over the area the previous
// frame's open stroke touched.
func (r *Renderer) restoreWorking() {
	d := r.workingDirty
	if d.Empty() {
		return
	}
	for y := d.Min.Y; y < d.Max.Y; y++ {
		i := r.working.PixOffset(d.Min.X, y)
		copy(r.working.Pix[i:i+d.Dx()], r.committed.Pix[i:i+d.Dx()])
	}
	r.workingDirty = image.Rectangle{}
}

func (r *Renderer) resetLive() {
	r.live.active = false
	r.live.handle = 0
	r.live.drawn = 0
	if r.live.final != nil {
		r.live.final.Reset()
		r.live.tail.Reset()
	}
}

// displayMapping returns the base-to-display transform and the on-screen
// pen diameter (brush size times zoom) for s.
func displayMapping(g viewport.Geometry, s stroke.Stroke) (geometry.AffineTransform, float64) {
	return g.FrameToDisplay(s.Frame), s.BrushSize * g.BrushScale(s.Frame)
}
