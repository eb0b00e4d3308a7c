// Package canvas provides the painting surface that hosts a mask editor.
package canvas

import (
	"errors"
	"image"
	"image/color"
	"image/draw"
	"sync"

	"mask-painter/internal/engine"
	"mask-painter/internal/stroke"
	"mask-painter/internal/viewport"
	"mask-painter/pkg/geometry"

	"fyne.io/fyne/v2"
	fynecanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"
)

const (
	brushSizeStep = 2.0
	minBrushSize  = 1.0
	maxBrushSize  = 400.0
)

var emptyColor = color.NRGBA{R: 0x20, G: 0x20, B: 0x20, A: 0xff}

// MaskCanvas shows the editor's frame and feeds pointer, wheel and key
// input to its controller. fyne delivers input and paint callbacks on
// different goroutines, so every editor access goes through mu.
type MaskCanvas struct {
	widget.BaseWidget

	mu     sync.Mutex
	editor *engine.Editor
	raster *fynecanvas.Raster

	// Raster pixels per fyne unit, measured on every paint.
	pixelScale float64

	// Pan modifier sources: the space key and a non-primary mouse button.
	spaceHeld  bool
	buttonPan  bool
	lastPos    geometry.Point2D
	hovering   bool
	showCursor bool

	onError func(error)
}

var (
	_ desktop.Mouseable = (*MaskCanvas)(nil)
	_ desktop.Hoverable = (*MaskCanvas)(nil)
	_ desktop.Keyable   = (*MaskCanvas)(nil)
	_ fyne.Draggable    = (*MaskCanvas)(nil)
	_ fyne.Scrollable   = (*MaskCanvas)(nil)
)

// NewMaskCanvas creates a canvas driving editor.
func NewMaskCanvas(editor *engine.Editor) *MaskCanvas {
	c := &MaskCanvas{
		editor:     editor,
		pixelScale: 1,
		showCursor: true,
	}
	c.raster = fynecanvas.NewRaster(c.draw)
	c.raster.ScaleMode = fynecanvas.ImageScalePixels
	c.ExtendBaseWidget(c)
	return c
}

// OnError sets the callback for input errors worth showing to the user,
// such as drawing with no image loaded.
func (c *MaskCanvas) OnError(cb func(error)) {
	c.onError = cb
}

// Do runs fn with exclusive access to the editor and repaints afterwards.
func (c *MaskCanvas) Do(fn func(e *engine.Editor)) {
	c.mu.Lock()
	fn(c.editor)
	c.mu.Unlock()
	c.Refresh()
}

// SetBrushCursor toggles the brush outline drawn under the pointer.
func (c *MaskCanvas) SetBrushCursor(show bool) {
	c.mu.Lock()
	c.showCursor = show
	c.mu.Unlock()
	c.Refresh()
}

// toDisplay converts a widget position to raster pixels.
func (c *MaskCanvas) toDisplay(pos fyne.Position) geometry.Point2D {
	return geometry.Pt(float64(pos.X)*c.pixelScale, float64(pos.Y)*c.pixelScale)
}

func (c *MaskCanvas) report(err error) {
	if err == nil || errors.Is(err, viewport.ErrNotReady) {
		return
	}
	if c.onError != nil {
		c.onError(err)
	}
}

// MouseDown starts a stroke, or a pan when space or a secondary button is
// held.
func (c *MaskCanvas) MouseDown(ev *desktop.MouseEvent) {
	c.mu.Lock()
	in := c.editor.Input()
	if ev.Button != desktop.MouseButtonPrimary {
		c.buttonPan = true
		in.SetPanModifier(true)
	}
	c.lastPos = c.toDisplay(ev.Position)
	err := in.PointerDown(c.lastPos)
	c.mu.Unlock()

	c.report(err)
	c.Refresh()
}

// MouseUp ends the current gesture.
func (c *MaskCanvas) MouseUp(ev *desktop.MouseEvent) {
	c.mu.Lock()
	in := c.editor.Input()
	err := in.PointerUp(c.toDisplay(ev.Position))
	if c.buttonPan {
		c.buttonPan = false
		in.SetPanModifier(c.spaceHeld)
	}
	c.mu.Unlock()

	c.report(err)
	c.Refresh()
}

// Dragged extends the stroke or pans.
func (c *MaskCanvas) Dragged(ev *fyne.DragEvent) {
	c.mu.Lock()
	c.lastPos = c.toDisplay(ev.Position)
	err := c.editor.Input().PointerMove(c.lastPos)
	c.mu.Unlock()

	c.report(err)
	c.Refresh()
}

// DragEnd finishes a drag whose MouseUp was not delivered to the widget.
func (c *MaskCanvas) DragEnd() {
	c.mu.Lock()
	err := c.editor.Input().PointerUp(c.lastPos)
	c.mu.Unlock()

	c.report(err)
	c.Refresh()
}

// MouseIn takes keyboard focus so the space key can act as pan modifier.
func (c *MaskCanvas) MouseIn(ev *desktop.MouseEvent) {
	c.mu.Lock()
	c.hovering = true
	c.lastPos = c.toDisplay(ev.Position)
	c.mu.Unlock()

	if cv := fyne.CurrentApp().Driver().CanvasForObject(c); cv != nil {
		cv.Focus(c)
	}
	c.Refresh()
}

// MouseMoved tracks the brush cursor.
func (c *MaskCanvas) MouseMoved(ev *desktop.MouseEvent) {
	c.mu.Lock()
	c.lastPos = c.toDisplay(ev.Position)
	show := c.showCursor
	c.mu.Unlock()

	if show {
		c.Refresh()
	}
}

// MouseOut commits a stroke in progress.
func (c *MaskCanvas) MouseOut() {
	c.mu.Lock()
	c.hovering = false
	err := c.editor.Input().PointerLeave()
	c.mu.Unlock()

	c.report(err)
	c.Refresh()
}

// Scrolled zooms one step per wheel event.
func (c *MaskCanvas) Scrolled(ev *fyne.ScrollEvent) {
	c.mu.Lock()
	c.editor.Input().Wheel(float64(ev.Scrolled.DY))
	c.mu.Unlock()
	c.Refresh()
}

// FocusGained implements fyne.Focusable.
func (c *MaskCanvas) FocusGained() {}

// FocusLost releases the pan modifier; its key-up will not arrive.
func (c *MaskCanvas) FocusLost() {
	c.mu.Lock()
	c.spaceHeld = false
	c.editor.Input().SetPanModifier(c.buttonPan)
	c.mu.Unlock()
}

// KeyDown holds the pan modifier while space is pressed.
func (c *MaskCanvas) KeyDown(ev *fyne.KeyEvent) {
	if ev.Name != fyne.KeySpace {
		return
	}
	c.mu.Lock()
	c.spaceHeld = true
	c.editor.Input().SetPanModifier(true)
	c.mu.Unlock()
}

// KeyUp releases the pan modifier.
func (c *MaskCanvas) KeyUp(ev *fyne.KeyEvent) {
	if ev.Name != fyne.KeySpace {
		return
	}
	c.mu.Lock()
	c.spaceHeld = false
	c.editor.Input().SetPanModifier(c.buttonPan)
	c.mu.Unlock()
}

// TypedRune handles single-key tool shortcuts: b brush, e eraser, [ and ]
// brush size.
func (c *MaskCanvas) TypedRune(r rune) {
	c.mu.Lock()
	e := c.editor
	switch r {
	case 'b', 'B':
		e.SetTool(stroke.ToolBrush)
	case 'e', 'E':
		e.SetTool(stroke.ToolEraser)
	case '[':
		e.SetBrushSize(clampBrush(e.BrushSize() - brushSizeStep))
	case ']':
		e.SetBrushSize(clampBrush(e.BrushSize() + brushSizeStep))
	}
	c.mu.Unlock()
	c.Refresh()
}

// TypedKey implements fyne.Focusable.
func (c *MaskCanvas) TypedKey(*fyne.KeyEvent) {}

func clampBrush(px float64) float64 {
	if px < minBrushSize {
		return minBrushSize
	}
	if px > maxBrushSize {
		return maxBrushSize
	}
	return px
}

// draw paints the editor frame at w x h raster pixels.
func (c *MaskCanvas) draw(w, h int) image.Image {
	c.mu.Lock()
	defer c.mu.Unlock()

	if size := c.Size(); size.Width > 0 {
		c.pixelScale = float64(w) / float64(size.Width)
	}
	c.editor.Resize(float64(w), float64(h))

	frame, err := c.editor.Frame()
	if err != nil {
		blank := image.NewRGBA(image.Rect(0, 0, w, h))
		draw.Draw(blank, blank.Rect, image.NewUniform(emptyColor), image.Point{}, draw.Src)
		return blank
	}

	if c.hovering && c.showCursor {
		if g, err := c.editor.Geometry(); err == nil {
			drawBrushRing(frame, c.lastPos, c.editor.BrushSize()*g.Zoom, c.editor.Tool())
		}
	}
	return frame
}

// CreateRenderer implements fyne.Widget.
func (c *MaskCanvas) CreateRenderer() fyne.WidgetRenderer {
	return &maskCanvasRenderer{canvas: c}
}

type maskCanvasRenderer struct {
	canvas *MaskCanvas
}

func (r *maskCanvasRenderer) Layout(size fyne.Size) {
	c := r.canvas
	c.raster.Resize(size)

	c.mu.Lock()
	c.editor.Resize(float64(size.Width)*c.pixelScale, float64(size.Height)*c.pixelScale)
	c.mu.Unlock()
}

func (r *maskCanvasRenderer) MinSize() fyne.Size {
	return fyne.NewSize(100, 100)
}

func (r *maskCanvasRenderer) Refresh() {
	r.canvas.raster.Refresh()
}

func (r *maskCanvasRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{r.canvas.raster}
}

func (r *maskCanvasRenderer) Destroy() {}
