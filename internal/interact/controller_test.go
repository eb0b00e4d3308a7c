package interact

import (
	"errors"
	"fmt"
	"testing"

	"mask-painter/pkg/geometry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTarget struct {
	calls    []string
	beginErr error
	zoom     float64
	pan      geometry.Point2D
}

func (f *fakeTarget) BeginStroke(at geometry.Point2D) error {
	if f.beginErr != nil {
		return f.beginErr
	}
	f.calls = append(f.calls, fmt.Sprintf("begin %v,%v", at.X, at.Y))
	return nil
}

func (f *fakeTarget) ExtendStroke(at geometry.Point2D) error {
	f.calls = append(f.calls, fmt.Sprintf("extend %v,%v", at.X, at.Y))
	return nil
}

func (f *fakeTarget) CommitStroke() error {
	f.calls = append(f.calls, "commit")
	return nil
}

func (f *fakeTarget) PanBy(delta geometry.Point2D) {
	f.pan.X += delta.X
	f.pan.Y += delta.Y
	f.calls = append(f.calls, fmt.Sprintf("pan %v,%v", delta.X, delta.Y))
}

func (f *fakeTarget) ZoomBy(step float64) {
	f.zoom += step
}

func TestDrawGesture(t *testing.T) {
	target := &fakeTarget{}
	c := New(target)

	require.NoError(t, c.PointerDown(geometry.Pt(10, 10)))
	assert.Equal(t, Drawing, c.State())
	require.NoError(t, c.PointerMove(geometry.Pt(20, 10)))
	require.NoError(t, c.PointerUp(geometry.Pt(30, 10)))
	assert.Equal(t, Idle, c.State())

	assert.Equal(t, []string{"begin 10,10", "extend 20,10", "extend 30,10", "commit"}, target.calls)
}

func TestPointerLeaveCommits(t *testing.T) {
	target := &fakeTarget{}
	c := New(target)

	c.PointerDown(geometry.Pt(1, 1))
	require.NoError(t, c.PointerLeave())
	assert.Equal(t, Idle, c.State())
	assert.Equal(t, []string{"begin 1,1", "commit"}, target.calls)

	require.NoError(t, c.PointerLeave(), "leaving while idle is a no-op")
	assert.Len(t, target.calls, 2)
}

func TestPanGesture(t *testing.T) {
	target := &fakeTarget{}
	c := New(target)
	c.SetPanModifier(true)

	c.PointerDown(geometry.Pt(100, 100))
	assert.Equal(t, Panning, c.State())
	c.PointerMove(geometry.Pt(110, 95))
	c.PointerMove(geometry.Pt(110, 95))
	c.PointerUp(geometry.Pt(120, 100))

	assert.Equal(t, Idle, c.State())
	assert.Equal(t, geometry.Pt(20, 0), target.pan)
	assert.Equal(t, []string{"pan 10,-5", "pan 10,5"}, target.calls, "zero deltas are not forwarded")
}

func TestReleasingModifierEndsPan(t *testing.T) {
	target := &fakeTarget{}
	c := New(target)
	c.SetPanModifier(true)
	c.PointerDown(geometry.Pt(0, 0))
	c.SetPanModifier(false)
	assert.Equal(t, Idle, c.State())
	assert.False(t, c.PanModifier())

	c.PointerMove(geometry.Pt(50, 50))
	c.PointerUp(geometry.Pt(50, 50))
	assert.Empty(t, target.calls, "no stroke and no pan after release")
}

func TestModifierDoesNotInterruptStroke(t *testing.T) {
	target := &fakeTarget{}
	c := New(target)
	c.PointerDown(geometry.Pt(0, 0))
	c.SetPanModifier(true)
	assert.Equal(t, Drawing, c.State())
	c.PointerMove(geometry.Pt(5, 5))
	assert.Equal(t, []string{"begin 0,0", "extend 5,5"}, target.calls)
}

func TestWheelZoomsInAnyState(t *testing.T) {
	target := &fakeTarget{}
	c := New(target, WithZoomStep(0.25))

	c.Wheel(3)
	c.PointerDown(geometry.Pt(0, 0))
	c.Wheel(-1)
	c.Wheel(0)
	c.Wheel(10)
	assert.Equal(t, Drawing, c.State())
	assert.InDelta(t, 0.25, target.zoom, 1e-9)
}

func TestRefusedStrokeStaysIdle(t *testing.T) {
	errNoImage := errors.New("no image")
	target := &fakeTarget{beginErr: errNoImage}
	c := New(target)

	err := c.PointerDown(geometry.Pt(3, 3))
	assert.ErrorIs(t, err, errNoImage)
	assert.Equal(t, Idle, c.State())

	c.PointerMove(geometry.Pt(4, 4))
	c.PointerUp(geometry.Pt(4, 4))
	assert.Empty(t, target.calls)
}

func TestResetAbandonsGesture(t *testing.T) {
	target := &fakeTarget{}
	c := New(target)
	c.PointerDown(geometry.Pt(0, 0))
	c.Reset()
	c.PointerUp(geometry.Pt(1, 1))
	assert.Equal(t, []string{"begin 0,0"}, target.calls)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "panning", Panning.String())
	assert.Equal(t, DefaultZoomStep, New(&fakeTarget{}).ZoomStep())
}
