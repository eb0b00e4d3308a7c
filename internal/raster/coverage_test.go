package raster

import (
	"image"
	"testing"

	"mask-painter/internal/stroke"
	"mask-painter/pkg/geometry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var bounds = image.Rect(0, 0, 100, 100)

func countSet(a *image.Alpha) int {
	n := 0
	for _, v := range a.Pix {
		if v != 0 {
			n++
		}
	}
	return n
}

func TestDotIsRoundWithRequestedDiameter(t *testing.T) {
	c := NewCoverage(bounds)
	c.Dot(geometry.Pt(50, 50), 20)

	mask := image.NewAlpha(bounds)
	Apply(mask, stroke.ModePaint, Binary, c)

	assert.InDelta(t, 314, countSet(mask), 20, "area of a radius 10 disc")
	assert.Equal(t, uint8(255), mask.AlphaAt(50, 50).A)
	assert.Equal(t, uint8(255), mask.AlphaAt(58, 50).A)
	assert.Equal(t, uint8(0), mask.AlphaAt(61, 50).A)
	assert.Equal(t, uint8(0), mask.AlphaAt(58, 58).A, "corner of the bounding square is outside")
}

func TestSegmentHasRoundCapsAndWidth(t *testing.T) {
	c := NewCoverage(bounds)
	c.Segment(geometry.Segment{Start: geometry.Pt(10, 50), End: geometry.Pt(90, 50)}, 10)

	mask := image.NewAlpha(bounds)
	Apply(mask, stroke.ModePaint, Binary, c)

	assert.Equal(t, uint8(255), mask.AlphaAt(50, 47).A)
	assert.Equal(t, uint8(0), mask.AlphaAt(50, 56).A)
	assert.Equal(t, uint8(255), mask.AlphaAt(7, 50).A, "cap extends past the start")
	assert.Equal(t, uint8(0), mask.AlphaAt(3, 50).A)
}

func TestOverlappingShapesDoNotCancel(t *testing.T) {
	c := NewCoverage(bounds)
	s := stroke.Stroke{Path: []geometry.Point2D{
		geometry.Pt(20, 20), geometry.Pt(80, 20), geometry.Pt(80, 80), geometry.Pt(20, 80),
	}}
	c.AddStroke(s, geometry.Scale(1, 1), 12)

	assert.Equal(t, uint8(255), c.At(20, 20))
	assert.Equal(t, uint8(255), c.At(50, 20))
	assert.Equal(t, uint8(0), c.At(50, 50))
}

func TestPiecewiseEqualsWhole(t *testing.T) {
	pts := []geometry.Point2D{
		geometry.Pt(10, 10), geometry.Pt(30, 60), geometry.Pt(55, 25), geometry.Pt(90, 85),
	}
	segs := geometry.ChainSegments(pts)
	require.Len(t, segs, 3)

	whole := NewCoverage(bounds)
	whole.AddStroke(stroke.Stroke{Path: pts}, geometry.Scale(1, 1), 9)

	var parts []*Coverage
	for _, seg := range segs {
		c := NewCoverage(bounds)
		c.Segment(seg, 9)
		parts = append(parts, c)
	}

	a := image.NewAlpha(bounds)
	b := image.NewAlpha(bounds)
	Apply(a, stroke.ModePaint, Soft, whole)
	Apply(b, stroke.ModePaint, Soft, parts...)
	assert.Equal(t, a.Pix, b.Pix)
}

func TestBinaryOnlyProducesExtremes(t *testing.T) {
	c := NewCoverage(bounds)
	c.Segment(geometry.Segment{
		Start: geometry.Pt(5, 5), Ctrl: geometry.Pt(90, 10), End: geometry.Pt(40, 95), Quad: true,
	}, 7.3)

	mask := image.NewAlpha(bounds)
	Apply(mask, stroke.ModePaint, Binary, c)
	for _, v := range mask.Pix {
		if v != 0 && v != 255 {
			t.Fatalf("binary mask contains %d", v)
		}
	}
	assert.NotZero(t, countSet(mask))
}

func TestEraseRemovesCoverage(t *testing.T) {
	mask := image.NewAlpha(bounds)
	Fill(mask, 255)

	c := NewCoverage(bounds)
	c.Dot(geometry.Pt(50, 50), 20)
	Apply(mask, stroke.ModeErase, Binary, c)

	assert.Equal(t, uint8(0), mask.AlphaAt(50, 50).A)
	assert.Equal(t, uint8(255), mask.AlphaAt(5, 5).A)

	soft := image.NewAlpha(bounds)
	Fill(soft, 200)
	Apply(soft, stroke.ModeErase, Soft, c)
	assert.Equal(t, uint8(0), soft.AlphaAt(50, 50).A)
	assert.Equal(t, uint8(200), soft.AlphaAt(5, 5).A)
}

func TestResetClearsTouchedArea(t *testing.T) {
	c := NewCoverage(bounds)
	c.Dot(geometry.Pt(10, 10), 6)
	require.False(t, c.Empty())

	c.Reset()
	assert.True(t, c.Empty())
	assert.Equal(t, uint8(0), c.At(10, 10))
}

func TestSubPixelDotKeepsCentrePixel(t *testing.T) {
	c := NewCoverage(bounds)
	c.Dot(geometry.Pt(40.3, 12.8), 0.4)

	mask := image.NewAlpha(bounds)
	Apply(mask, stroke.ModePaint, Binary, c)
	assert.Equal(t, 1, countSet(mask))
	assert.Equal(t, uint8(255), mask.AlphaAt(40, 12).A)

	none := NewCoverage(bounds)
	none.Dot(geometry.Pt(40, 12), 0)
	assert.True(t, none.Empty())
}

func TestPiecesAreClippedToBounds(t *testing.T) {
	c := NewCoverage(bounds)
	c.Dot(geometry.Pt(-2, -2), 10)
	c.Dot(geometry.Pt(500, 500), 10)

	assert.Equal(t, uint8(255), c.At(0, 0))
	assert.True(t, c.Dirty().In(bounds))
}
