// Package interact turns pointer, wheel and modifier input into pan, zoom
// and stroke operations.
package interact

import (
	"mask-painter/pkg/geometry"

	"github.com/rs/zerolog"
)

// DefaultZoomStep is the zoom change applied per wheel event.
const DefaultZoomStep = 0.1

// State is the controller's gesture state.
type State int

const (
	Idle State = iota
	Panning
	Drawing
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Panning:
		return "panning"
	case Drawing:
		return "drawing"
	default:
		return "unknown"
	}
}

// Target receives the operations a gesture resolves to. Points are in
// display coordinates.
type Target interface {
	// BeginStroke opens a stroke whose first sample is at.
	BeginStroke(at geometry.Point2D) error
	ExtendStroke(at geometry.Point2D) error
	CommitStroke() error
	PanBy(delta geometry.Point2D)
	ZoomBy(step float64)
}

// Controller is the per-editor input state machine:
//
//	Idle    --down, modifier held-->  Panning
//	Idle    --down-->                 Drawing   (BeginStroke)
//	Panning --move-->                 Panning   (PanBy)
//	Panning --up / modifier released--> Idle
//	Drawing --move-->                 Drawing   (ExtendStroke)
//	Drawing --up / leave-->           Idle      (CommitStroke)
//
// Wheel input zooms in every state.
type Controller struct {
	target   Target
	zoomStep float64
	logger   zerolog.Logger

	state       State
	panModifier bool
	last        geometry.Point2D
}

// Option configures a Controller.
type Option func(*Controller)

// WithZoomStep sets the per-event wheel zoom step.
func WithZoomStep(step float64) Option {
	return func(c *Controller) {
		if step > 0 {
			c.zoomStep = step
		}
	}
}

// WithLogger sets the logger for state transitions.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// New creates an idle controller driving target.
func New(target Target, opts ...Option) *Controller {
	c := &Controller{
		target:   target,
		zoomStep: DefaultZoomStep,
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the current gesture state.
func (c *Controller) State() State { return c.state }

// PanModifier reports whether the pan modifier is held.
func (c *Controller) PanModifier() bool { return c.panModifier }

// ZoomStep returns the wheel zoom step.
func (c *Controller) ZoomStep() float64 { return c.zoomStep }

func (c *Controller) transition(to State) {
	if c.state != to {
		c.logger.Trace().Stringer("from", c.state).Stringer("to", to).Msg("Gesture state")
	}
	c.state = to
}

// SetPanModifier records the pan modifier state. Releasing it while panning
// ends the pan.
func (c *Controller) SetPanModifier(active bool) {
	c.panModifier = active
	if !active && c.state == Panning {
		c.transition(Idle)
	}
}

// PointerDown starts a pan or a stroke. If the target refuses the stroke
// the controller stays idle and the error is returned.
func (c *Controller) PointerDown(p geometry.Point2D) error {
	if c.state != Idle {
		return nil
	}
	if c.panModifier {
		c.last = p
		c.transition(Panning)
		return nil
	}
	if err := c.target.BeginStroke(p); err != nil {
		return err
	}
	c.transition(Drawing)
	return nil
}

// PointerMove pans or extends the open stroke.
func (c *Controller) PointerMove(p geometry.Point2D) error {
	switch c.state {
	case Panning:
		c.panTo(p)
	case Drawing:
		return c.target.ExtendStroke(p)
	}
	return nil
}

// PointerUp finishes the current gesture.
func (c *Controller) PointerUp(p geometry.Point2D) error {
	switch c.state {
	case Panning:
		c.panTo(p)
		c.transition(Idle)
	case Drawing:
		return c.finish(&p)
	}
	return nil
}

// PointerLeave commits an open stroke when the pointer exits the surface.
func (c *Controller) PointerLeave() error {
	if c.state == Drawing {
		return c.finish(nil)
	}
	return nil
}

// Wheel zooms in for positive delta and out for negative delta, one step
// per event regardless of magnitude.
func (c *Controller) Wheel(delta float64) {
	switch {
	case delta > 0:
		c.target.ZoomBy(c.zoomStep)
	case delta < 0:
		c.target.ZoomBy(-c.zoomStep)
	}
}

// Reset drops back to Idle without committing anything, e.g. when the image
// is replaced mid-gesture.
func (c *Controller) Reset() {
	c.transition(Idle)
}

func (c *Controller) panTo(p geometry.Point2D) {
	delta := geometry.Pt(p.X-c.last.X, p.Y-c.last.Y)
	c.last = p
	if delta.X != 0 || delta.Y != 0 {
		c.target.PanBy(delta)
	}
}

// finish commits the stroke and always returns to Idle, even if the last
// sample could not be added.
func (c *Controller) finish(last *geometry.Point2D) error {
	c.transition(Idle)
	var extendErr error
	if last != nil {
		extendErr = c.target.ExtendStroke(*last)
	}
	if err := c.target.CommitStroke(); err != nil {
		return err
	}
	return extendErr
}
