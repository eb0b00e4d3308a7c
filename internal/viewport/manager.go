package viewport

import (
	"mask-painter/pkg/geometry"
)

// Manager owns the view inputs of one editor and hands out geometry
// snapshots. Every input change bumps the generation, so a snapshot taken
// before the change can be recognised as stale.
type Manager struct {
	params     Params
	generation uint64

	cached    Geometry
	cachedErr error
	dirty     bool
}

// NewManager creates a manager at zoom 1 with no pan.
func NewManager() *Manager {
	return &Manager{
		params: Params{Zoom: MinZoom},
		dirty:  true,
	}
}

func (m *Manager) invalidate() {
	m.generation++
	m.dirty = true
}

// Params returns the current inputs.
func (m *Manager) Params() Params {
	return m.params
}

// Generation returns the counter of input changes.
func (m *Manager) Generation() uint64 {
	return m.generation
}

// SetNative sets the source image size and resets zoom and pan.
func (m *Manager) SetNative(size geometry.Size) {
	m.params.Native = size
	m.params.Zoom = MinZoom
	m.params.Pan = geometry.Point2D{}
	m.invalidate()
}

// SetViewport records a new viewport size. It reports whether it changed.
func (m *Manager) SetViewport(size geometry.Size) bool {
	if size == m.params.Viewport {
		return false
	}
	m.params.Viewport = size
	m.invalidate()
	return true
}

// SetZoom sets the zoom factor, clamped to [MinZoom, MaxZoom]. It reports
// whether the effective zoom changed.
func (m *Manager) SetZoom(z float64) bool {
	z = ClampZoom(z)
	if z == m.params.Zoom {
		return false
	}
	m.params.Zoom = z
	m.invalidate()
	return true
}

// ZoomBy adjusts the zoom by step (negative to zoom out).
func (m *Manager) ZoomBy(step float64) bool {
	return m.SetZoom(m.params.Zoom + step)
}

// PanBy accumulates a pan delta in display pixels.
func (m *Manager) PanBy(delta geometry.Point2D) bool {
	if delta.X == 0 && delta.Y == 0 {
		return false
	}
	m.params.Pan.X += delta.X
	m.params.Pan.Y += delta.Y
	m.invalidate()
	return true
}

// ResetView returns to zoom 1 with no pan.
func (m *Manager) ResetView() bool {
	if m.params.Zoom == MinZoom && m.params.Pan == (geometry.Point2D{}) {
		return false
	}
	m.params.Zoom = MinZoom
	m.params.Pan = geometry.Point2D{}
	m.invalidate()
	return true
}

// Snapshot returns the geometry for the current inputs, recomputing base fit
// and view together if anything changed since the last call.
func (m *Manager) Snapshot() (Geometry, error) {
	if m.dirty {
		m.cached, m.cachedErr = Compute(m.params)
		m.cached.Generation = m.generation
		m.dirty = false
	}
	return m.cached, m.cachedErr
}

// IsCurrent reports whether g was computed from the manager's latest inputs.
func (m *Manager) IsCurrent(g Geometry) bool {
	return g.Generation == m.generation
}
