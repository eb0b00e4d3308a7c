package viewport

import (
	"testing"

	"mask-painter/pkg/geometry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManagerNotReadyUntilMeasured(t *testing.T) {
	m := NewManager()
	m.SetNative(geometry.NewSize(4000, 3000))

	_, err := m.Snapshot()
	assert.ErrorIs(t, err, ErrNotReady)

	m.SetViewport(geometry.NewSize(400, 300))
	g, err := m.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, geometry.NewSize(400, 300), g.BaseSize)
}

func TestManagerGenerationTracksChanges(t *testing.T) {
	m := NewManager()
	m.SetNative(geometry.NewSize(100, 100))
	m.SetViewport(geometry.NewSize(100, 100))
	g1, err := m.Snapshot()
	require.NoError(t, err)
	assert.True(t, m.IsCurrent(g1))

	assert.False(t, m.SetViewport(geometry.NewSize(100, 100)), "same size is not a change")
	assert.True(t, m.IsCurrent(g1))

	assert.True(t, m.ZoomBy(0.5))
	assert.False(t, m.IsCurrent(g1))

	g2, err := m.Snapshot()
	require.NoError(t, err)
	assert.True(t, m.IsCurrent(g2))
	assert.Greater(t, g2.Generation, g1.Generation)
	assert.Equal(t, 1.5, g2.Zoom)
}

func TestManagerZoomClampRejectsOutOfRange(t *testing.T) {
	m := NewManager()
	assert.False(t, m.ZoomBy(-0.1), "cannot zoom out below fit")
	assert.Equal(t, MinZoom, m.Params().Zoom)

	m.SetZoom(2.95)
	assert.True(t, m.ZoomBy(0.1))
	assert.Equal(t, MaxZoom, m.Params().Zoom)
	assert.False(t, m.ZoomBy(0.1))
}

func TestManagerPanAndReset(t *testing.T) {
	m := NewManager()
	m.SetNative(geometry.NewSize(400, 300))
	m.SetViewport(geometry.NewSize(400, 300))
	m.SetZoom(2)
	m.PanBy(geometry.Pt(10, -5))
	m.PanBy(geometry.Pt(5, 5))
	assert.Equal(t, geometry.Pt(15, 0), m.Params().Pan)
	assert.False(t, m.PanBy(geometry.Pt(0, 0)))

	assert.True(t, m.ResetView())
	assert.Equal(t, geometry.Point2D{}, m.Params().Pan)
	assert.Equal(t, MinZoom, m.Params().Zoom)
	assert.False(t, m.ResetView())
}

func TestManagerNewImageResetsView(t *testing.T) {
	m := NewManager()
	m.SetZoom(3)
	m.PanBy(geometry.Pt(4, 4))
	m.SetNative(geometry.NewSize(10, 10))
	assert.Equal(t, MinZoom, m.Params().Zoom)
	assert.Equal(t, geometry.Point2D{}, m.Params().Pan)
}
