// Package engine assembles the mask editor: one view manager, stroke model,
// renderer, input controller and exporter per instance.
package engine

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"sync"

	"mask-painter/internal/interact"
	"mask-painter/internal/mask"
	"mask-painter/internal/render"
	"mask-painter/internal/source"
	"mask-painter/internal/stroke"
	"mask-painter/internal/viewport"
	"mask-painter/pkg/geometry"

	"github.com/rs/zerolog"
)

// DefaultBrushSize is the initial brush diameter in fit-layout pixels.
const DefaultBrushSize = 20.0

// ErrNoImageLoaded is returned by drawing and export when no source image
// is set. It is the only error the editor surfaces as a failure.
var ErrNoImageLoaded = mask.ErrNoImageLoaded

// Editor is the mask editing engine behind one mounted canvas. It is not
// safe for concurrent use, except for ExportMask whose work runs on a
// snapshot.
type Editor struct {
	views      *viewport.Manager
	model      *stroke.Model
	renderer   *render.Renderer
	controller *interact.Controller
	exporter   *mask.Exporter
	logger     zerolog.Logger

	img       *source.Image
	tool      stroke.Tool
	brushSize float64
	open      stroke.Handle
	drawing   bool

	mu        sync.RWMutex
	listeners map[EventType][]EventListener
}

type options struct {
	logger    zerolog.Logger
	backend   mask.Backend
	zoomStep  float64
	brushSize float64
	tint      *color.NRGBA
	strokeOpt []stroke.Option
}

// Option configures an Editor.
type Option func(*options)

// WithLogger sets the logger shared by all editor components.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithBackend selects the export rasteriser.
func WithBackend(b mask.Backend) Option {
	return func(o *options) { o.backend = b }
}

// WithZoomStep sets the zoom change per wheel event.
func WithZoomStep(step float64) Option {
	return func(o *options) { o.zoomStep = step }
}

// WithBrushSize sets the initial brush diameter.
func WithBrushSize(px float64) Option {
	return func(o *options) { o.brushSize = px }
}

// WithTint sets the on-screen stroke colour. It does not affect exports.
func WithTint(c color.NRGBA) Option {
	return func(o *options) { o.tint = &c }
}

// WithStrokeOptions passes options to the stroke model.
func WithStrokeOptions(opts ...stroke.Option) Option {
	return func(o *options) { o.strokeOpt = append(o.strokeOpt, opts...) }
}

// New creates an editor with no image loaded.
func New(opts ...Option) *Editor {
	o := options{
		logger:    zerolog.Nop(),
		zoomStep:  interact.DefaultZoomStep,
		brushSize: DefaultBrushSize,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.brushSize <= 0 {
		o.brushSize = DefaultBrushSize
	}

	e := &Editor{
		views:     viewport.NewManager(),
		model:     stroke.NewModel(o.strokeOpt...),
		exporter:  mask.NewExporter(o.backend, mask.WithLogger(o.logger)),
		logger:    o.logger,
		tool:      stroke.ToolBrush,
		brushSize: o.brushSize,
		listeners: make(map[EventType][]EventListener),
	}
	e.renderer = render.New(e.views, render.WithLogger(o.logger))
	if o.tint != nil {
		e.renderer.Tint = *o.tint
	}
	e.controller = interact.New(e,
		interact.WithZoomStep(o.zoomStep),
		interact.WithLogger(o.logger),
	)
	return e
}

// Input returns the controller that pointer, wheel and key events go to.
func (e *Editor) Input() *interact.Controller {
	return e.controller
}

// Load decodes ref (path, URI or URL) and makes it the source image.
func (e *Editor) Load(ctx context.Context, ref string) error {
	img, err := source.Load(ctx, ref)
	if err != nil {
		return err
	}
	e.SetImage(img)
	return nil
}

// SetImage replaces the source image. All strokes, the undo and redo
// history and the view are reset.
func (e *Editor) SetImage(img *source.Image) {
	e.controller.Reset()
	e.drawing = false
	e.model.Clear()

	e.img = img
	e.renderer.SetSource(img.Pixels)
	e.views.SetNative(img.Size())

	e.logger.Info().
		Str("ref", img.Ref).
		Int("width", img.Width).
		Int("height", img.Height).
		Msg("Image loaded")
	e.Emit(EventImageLoaded, img)
	e.Emit(EventStrokesChanged, 0)
}

// Image returns the current source image, or nil.
func (e *Editor) Image() *source.Image {
	return e.img
}

// Tool returns the active tool.
func (e *Editor) Tool() stroke.Tool {
	return e.tool
}

// SetTool selects the tool for the next stroke.
func (e *Editor) SetTool(t stroke.Tool) {
	if t == e.tool {
		return
	}
	e.tool = t
	e.Emit(EventToolChanged, t)
}

// BrushSize returns the brush diameter used for the next stroke.
func (e *Editor) BrushSize() float64 {
	return e.brushSize
}

// SetBrushSize sets the brush diameter, in display pixels at zoom 1, for
// the next stroke.
func (e *Editor) SetBrushSize(px float64) error {
	if px <= 0 {
		return fmt.Errorf("brush size %v: %w", px, stroke.ErrInvalidBrush)
	}
	if px != e.brushSize {
		e.brushSize = px
		e.Emit(EventBrushChanged, px)
	}
	return nil
}

// Strokes returns the committed strokes.
func (e *Editor) Strokes() []stroke.Stroke {
	return e.model.Strokes()
}

// CanUndo reports whether Undo would remove a stroke.
func (e *Editor) CanUndo() bool { return e.model.CanUndo() }

// CanRedo reports whether Redo would restore a stroke.
func (e *Editor) CanRedo() bool { return e.model.CanRedo() }

// Undo removes the most recent stroke.
func (e *Editor) Undo() bool {
	if _, ok := e.model.Undo(); !ok {
		return false
	}
	e.Emit(EventStrokesChanged, e.model.Len())
	return true
}

// Redo restores the most recently undone stroke.
func (e *Editor) Redo() bool {
	if _, ok := e.model.Redo(); !ok {
		return false
	}
	e.Emit(EventStrokesChanged, e.model.Len())
	return true
}

// Clear removes every stroke, including one being drawn.
func (e *Editor) Clear() {
	e.controller.Reset()
	e.drawing = false
	e.model.Clear()
	e.Emit(EventStrokesChanged, 0)
}

// Resize records the visible surface size in display pixels.
func (e *Editor) Resize(width, height float64) {
	if e.views.SetViewport(geometry.NewSize(width, height)) {
		e.viewChanged()
	}
}

// Zoom returns the current zoom factor.
func (e *Editor) Zoom() float64 {
	return e.views.Params().Zoom
}

// SetZoom sets the zoom factor, clamped to [1, 3].
func (e *Editor) SetZoom(z float64) {
	if e.views.SetZoom(z) {
		e.viewChanged()
	}
}

// ZoomBy implements interact.Target.
func (e *Editor) ZoomBy(step float64) {
	if e.views.ZoomBy(step) {
		e.viewChanged()
	}
}

// PanBy implements interact.Target.
func (e *Editor) PanBy(delta geometry.Point2D) {
	if e.views.PanBy(delta) {
		e.viewChanged()
	}
}

// ResetView returns to the fit layout.
func (e *Editor) ResetView() {
	if e.views.ResetView() {
		e.viewChanged()
	}
}

func (e *Editor) viewChanged() {
	e.Emit(EventViewChanged, e.views.Params())
}

// Geometry returns the current view geometry, or viewport.ErrNotReady
// before the surface or the image has a size.
func (e *Editor) Geometry() (viewport.Geometry, error) {
	return e.views.Snapshot()
}

// Frame renders the visible surface. The image is reused by the next call.
func (e *Editor) Frame() (*image.RGBA, error) {
	if e.img == nil {
		return nil, ErrNoImageLoaded
	}
	g, err := e.views.Snapshot()
	if err != nil {
		return nil, err
	}
	return e.renderer.Render(g, e.model)
}

// BeginStroke implements interact.Target: it opens a stroke with the current
// tool and brush size and records at as its first point.
func (e *Editor) BeginStroke(at geometry.Point2D) error {
	if e.img == nil {
		return ErrNoImageLoaded
	}
	g, err := e.views.Snapshot()
	if err != nil {
		return err
	}
	if e.drawing {
		e.model.AbortStroke()
		e.drawing = false
	}
	h, err := e.model.BeginStroke(e.tool, e.brushSize, g.BaseSize)
	if err != nil {
		return err
	}
	e.open = h
	e.drawing = true
	_, err = e.model.ExtendStroke(h, g.ToBase(at))
	return err
}

// ExtendStroke implements interact.Target. The point is stored relative to
// the frame the stroke was opened in, which differs from the current base
// size when the surface was resized mid-gesture.
func (e *Editor) ExtendStroke(at geometry.Point2D) error {
	if !e.drawing {
		return stroke.ErrNoOpenStroke
	}
	g, err := e.views.Snapshot()
	if err != nil {
		return err
	}
	open, _, ok := e.model.Open()
	if !ok {
		return stroke.ErrNoOpenStroke
	}
	_, err = e.model.ExtendStroke(e.open, g.ToFrame(at, open.Frame))
	return err
}

// CommitStroke implements interact.Target.
func (e *Editor) CommitStroke() error {
	if !e.drawing {
		return stroke.ErrNoOpenStroke
	}
	e.drawing = false
	s, err := e.model.CommitStroke(e.open)
	if err != nil {
		return err
	}
	if s.ID == "" {
		return nil
	}
	e.logger.Debug().
		Str("id", s.ID).
		Stringer("tool", s.Tool).
		Int("points", len(s.Path)).
		Msg("Stroke committed")
	e.Emit(EventStrokesChanged, e.model.Len())
	return nil
}

// ExportMask rasterises the committed strokes at the image's native size on
// a background goroutine. The returned channel receives one result. The
// stroke model is not touched, so a failed export can be retried.
func (e *Editor) ExportMask(ctx context.Context) <-chan mask.Result {
	if e.img == nil {
		return e.failedExport(ErrNoImageLoaded)
	}
	job, err := mask.NewJob(e.img.Width, e.img.Height, e.model.Strokes())
	if err != nil {
		return e.failedExport(err)
	}
	return e.exporter.Export(ctx, job)
}

// Backend returns the export rasteriser.
func (e *Editor) Backend() mask.Backend {
	return e.exporter.Backend()
}

func (e *Editor) failedExport(err error) <-chan mask.Result {
	out := make(chan mask.Result, 1)
	out <- mask.Result{Backend: e.exporter.Backend().Name(), Err: err}
	close(out)
	return out
}
