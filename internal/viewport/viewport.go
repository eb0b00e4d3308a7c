// Package viewport maps between display, fit, zoomed and source-pixel
// coordinates for an image shown inside a pannable, zoomable view.
//
// Points stored by the rest of the engine are base-relative: offset from the
// top-left corner of the zoom-1, unpanned "contain" layout, in display pixels
// of that layout. They do not change when the view is zoomed or panned.
package viewport

import (
	"errors"

	"mask-painter/pkg/geometry"
)

const (
	// MinZoom is the fit size; zooming out past it is rejected.
	MinZoom = 1.0
	// MaxZoom is the largest magnification relative to the fit size.
	MaxZoom = 3.0
)

// ErrNotReady is returned while the viewport or the source image has no
// measurable size yet. Callers retry after layout.
var ErrNotReady = errors.New("viewport: geometry not ready")

// Params are the inputs to a geometry computation.
type Params struct {
	Native   geometry.Size // source image size in pixels
	Viewport geometry.Size // visible surface size in display pixels
	Zoom     float64
	Pan      geometry.Point2D
}

// Geometry is an immutable snapshot of the base fit and the current view.
type Geometry struct {
	Params

	// BaseFitGeometry: contain layout at zoom 1 with no pan.
	BaseOffset geometry.Point2D
	BaseSize   geometry.Size

	// ViewportGeometry: layout at the current zoom and pan.
	Offset   geometry.Point2D
	DrawSize geometry.Size
	Scale    geometry.Point2D // DrawSize / Native

	// Generation identifies the Manager state this snapshot was computed from.
	Generation uint64
}

// Compute derives the base fit and view geometry for p.
func Compute(p Params) (Geometry, error) {
	if p.Native.Empty() || p.Viewport.Empty() {
		return Geometry{}, ErrNotReady
	}
	p.Zoom = ClampZoom(p.Zoom)

	g := Geometry{Params: p}

	imageAspect := p.Native.Aspect()
	viewportAspect := p.Viewport.Aspect()
	if imageAspect > viewportAspect {
		g.BaseSize = geometry.NewSize(p.Viewport.Width, p.Viewport.Width/imageAspect)
	} else {
		g.BaseSize = geometry.NewSize(p.Viewport.Height*imageAspect, p.Viewport.Height)
	}
	g.BaseOffset = geometry.Pt(
		(p.Viewport.Width-g.BaseSize.Width)/2,
		(p.Viewport.Height-g.BaseSize.Height)/2,
	)

	g.DrawSize = g.BaseSize.Mul(p.Zoom)
	g.Offset = geometry.Pt(
		g.BaseOffset.X+(g.BaseSize.Width-g.DrawSize.Width)/2+p.Pan.X,
		g.BaseOffset.Y+(g.BaseSize.Height-g.DrawSize.Height)/2+p.Pan.Y,
	)
	g.Scale = geometry.Pt(
		g.DrawSize.Width/p.Native.Width,
		g.DrawSize.Height/p.Native.Height,
	)
	return g, nil
}

// ClampZoom limits z to [MinZoom, MaxZoom].
func ClampZoom(z float64) float64 {
	if z < MinZoom {
		return MinZoom
	}
	if z > MaxZoom {
		return MaxZoom
	}
	return z
}

// FrameToDisplay maps points captured against an earlier base size (frame)
// to display pixels under the current view.
func (g Geometry) FrameToDisplay(frame geometry.Size) geometry.AffineTransform {
	return geometry.Translation(g.Offset.X, g.Offset.Y).Compose(
		geometry.Scale(g.DrawSize.Width/frame.Width, g.DrawSize.Height/frame.Height),
	)
}

// ToDisplay converts a base-relative point to display coordinates.
func (g Geometry) ToDisplay(p geometry.Point2D) geometry.Point2D {
	return geometry.Pt(
		g.Offset.X+(p.X/g.BaseSize.Width)*g.DrawSize.Width,
		g.Offset.Y+(p.Y/g.BaseSize.Height)*g.DrawSize.Height,
	)
}

// ToBase converts a display point to base-relative coordinates. It is the
// inverse of ToDisplay.
func (g Geometry) ToBase(p geometry.Point2D) geometry.Point2D {
	return g.ToFrame(p, g.BaseSize)
}

// ToFrame converts a display point to coordinates relative to a base size
// captured under an earlier view. It is the inverse of FrameToDisplay, so
// points added to a stroke after a resize land in the stroke's own frame.
func (g Geometry) ToFrame(p geometry.Point2D, frame geometry.Size) geometry.Point2D {
	return geometry.Pt(
		(p.X-g.Offset.X)/g.DrawSize.Width*frame.Width,
		(p.Y-g.Offset.Y)/g.DrawSize.Height*frame.Height,
	)
}

// BrushScale is the factor applied to a stored brush size for on-screen
// rendering of a stroke captured in frame.
func (g Geometry) BrushScale(frame geometry.Size) float64 {
	return g.DrawSize.Width / frame.Width
}

// NativeTransform maps points captured in frame to source pixels.
func NativeTransform(native, frame geometry.Size) geometry.AffineTransform {
	return geometry.Scale(native.Width/frame.Width, native.Height/frame.Height)
}
