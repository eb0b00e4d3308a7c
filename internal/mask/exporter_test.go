package mask

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"math"
	"testing"

	"mask-painter/internal/stroke"
	"mask-painter/pkg/geometry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var frame = geometry.NewSize(400, 300)

func dot(tool stroke.Tool, size float64, at geometry.Point2D) stroke.Stroke {
	return stroke.Stroke{
		Tool:      tool,
		Mode:      tool.Mode(),
		BrushSize: size,
		Frame:     frame,
		Path:      []geometry.Point2D{at},
	}
}

func export(t *testing.T, e *Exporter, job Job) Result {
	t.Helper()
	res := <-e.Export(context.Background(), job)
	require.NoError(t, res.Err)
	return res
}

func TestDotScalesToNativeResolution(t *testing.T) {
	job, err := NewJob(4000, 3000, []stroke.Stroke{dot(stroke.ToolBrush, 20, geometry.Pt(200, 150))})
	require.NoError(t, err)

	res := export(t, NewExporter(nil), job)
	img := res.Mask
	require.Equal(t, image.Rect(0, 0, 4000, 3000), img.Bounds())

	assert.Equal(t, uint8(255), img.GrayAt(2000, 1500).Y)
	assert.Equal(t, uint8(255), img.GrayAt(2095, 1500).Y)
	assert.Equal(t, uint8(0), img.GrayAt(2105, 1500).Y)
	assert.Equal(t, uint8(255), img.GrayAt(2000, 1405).Y)
	assert.Equal(t, uint8(0), img.GrayAt(2000, 1394).Y)

	area := math.Pi * 100 * 100
	assert.InEpsilon(t, area/(4000*3000), res.Coverage, 0.01)
}

func TestEraseOverPaintIsBlack(t *testing.T) {
	paint := stroke.Stroke{
		Tool: stroke.ToolBrush, Mode: stroke.ModePaint, BrushSize: 20, Frame: frame,
		Path: []geometry.Point2D{geometry.Pt(100, 100), geometry.Pt(150, 120), geometry.Pt(200, 100)},
	}
	erase := paint
	erase.Tool, erase.Mode, erase.BrushSize = stroke.ToolEraser, stroke.ModeErase, 40

	job, err := NewJob(800, 600, []stroke.Stroke{paint, erase})
	require.NoError(t, err)
	res := export(t, NewExporter(nil), job)
	assert.Zero(t, res.Coverage)
}

func TestOutputIsStrictlyBinaryPNG(t *testing.T) {
	s := stroke.Stroke{
		Tool: stroke.ToolBrush, Mode: stroke.ModePaint, BrushSize: 7, Frame: frame,
		Path: []geometry.Point2D{
			geometry.Pt(10, 10), geometry.Pt(60, 200), geometry.Pt(210, 40), geometry.Pt(390, 290),
		},
	}
	job, err := NewJob(1000, 750, []stroke.Stroke{s})
	require.NoError(t, err)
	res := export(t, NewExporter(nil), job)

	decoded, err := png.Decode(bytes.NewReader(res.PNG))
	require.NoError(t, err)
	gray, ok := decoded.(*image.Gray)
	require.True(t, ok, "mask decodes as single channel")
	for _, v := range gray.Pix {
		if v != 0 && v != 255 {
			t.Fatalf("mask contains grey level %d", v)
		}
	}
	assert.Equal(t, res.Mask.Pix, gray.Pix)
}

func TestRepeatedExportIsByteIdentical(t *testing.T) {
	strokes := []stroke.Stroke{
		dot(stroke.ToolBrush, 30, geometry.Pt(100, 100)),
		{
			Tool: stroke.ToolBrush, Mode: stroke.ModePaint, BrushSize: 12, Frame: frame,
			Path: []geometry.Point2D{geometry.Pt(50, 250), geometry.Pt(200, 200), geometry.Pt(350, 260)},
		},
		dot(stroke.ToolEraser, 10, geometry.Pt(110, 100)),
	}
	job, err := NewJob(1200, 900, strokes)
	require.NoError(t, err)

	e := NewExporter(nil)
	first := export(t, e, job)
	second := export(t, e, job)
	assert.True(t, bytes.Equal(first.PNG, second.PNG))
}

func TestFrameDeterminesScale(t *testing.T) {
	// The same base point captured under two different fits lands on the
	// same native pixel.
	a := dot(stroke.ToolBrush, 20, geometry.Pt(200, 150))
	b := a
	b.Frame = geometry.NewSize(800, 600)
	b.BrushSize = 40
	b.Path = []geometry.Point2D{geometry.Pt(400, 300)}

	e := NewExporter(nil)
	jobA, _ := NewJob(4000, 3000, []stroke.Stroke{a})
	jobB, _ := NewJob(4000, 3000, []stroke.Stroke{b})
	assert.Equal(t, export(t, e, jobA).PNG, export(t, e, jobB).PNG)
}

func TestNoImageLoaded(t *testing.T) {
	_, err := NewJob(0, 100, nil)
	assert.ErrorIs(t, err, ErrNoImageLoaded)

	res := <-NewExporter(nil).Export(context.Background(), Job{})
	assert.ErrorIs(t, res.Err, ErrNoImageLoaded)
	assert.Nil(t, res.PNG)
}

type gatedBackend struct {
	started chan struct{}
	release chan struct{}
}

func (g *gatedBackend) Name() string { return "gated" }

func (g *gatedBackend) Rasterize(ctx context.Context, job Job) (*image.Gray, error) {
	close(g.started)
	<-g.release
	return Vector{}.Rasterize(ctx, job)
}

func TestSecondExportIsRejectedWhileBusy(t *testing.T) {
	gate := &gatedBackend{started: make(chan struct{}), release: make(chan struct{})}
	e := NewExporter(gate)
	job, _ := NewJob(10, 10, nil)

	first := e.Export(context.Background(), job)
	<-gate.started

	busy := <-e.Export(context.Background(), job)
	assert.ErrorIs(t, busy.Err, ErrExportInProgress)

	close(gate.release)
	res := <-first
	require.NoError(t, res.Err)
	assert.Equal(t, "gated", res.Backend)

	e.backend = Vector{}
	again := <-e.Export(context.Background(), job)
	assert.NoError(t, again.Err, "slot is free once the result is delivered")
}

func TestCancelledExport(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	job, _ := NewJob(100, 100, []stroke.Stroke{dot(stroke.ToolBrush, 5, geometry.Pt(1, 1))})
	res := <-NewExporter(nil).Export(ctx, job)
	assert.ErrorIs(t, res.Err, context.Canceled)
}

func TestNewJobCopiesStrokes(t *testing.T) {
	strokes := []stroke.Stroke{dot(stroke.ToolBrush, 5, geometry.Pt(1, 1))}
	job, err := NewJob(10, 10, strokes)
	require.NoError(t, err)
	strokes[0].BrushSize = 99
	assert.Equal(t, 5.0, job.Strokes[0].BrushSize)
}

func TestCoverageFraction(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 10, 10))
	assert.Equal(t, 0.0, Coverage(img))

	for x := 0; x < 10; x++ {
		img.Pix[img.PixOffset(x, 3)] = 255
	}
	assert.InDelta(t, 0.1, Coverage(img), 1e-12)

	sub := img.SubImage(image.Rect(0, 3, 10, 5)).(*image.Gray)
	assert.InDelta(t, 0.5, Coverage(sub), 1e-12)
	assert.Equal(t, 0.0, Coverage(image.NewGray(image.Rectangle{})))
}

func TestDotNarrowerThanAPixelIsExported(t *testing.T) {
	job, err := NewJob(40, 30, []stroke.Stroke{dot(stroke.ToolBrush, 4, geometry.Pt(203, 147))})
	require.NoError(t, err)

	res := export(t, NewExporter(nil), job)
	assert.Equal(t, uint8(255), res.Mask.GrayAt(20, 14).Y)
	assert.InDelta(t, 1.0/(40*30), res.Coverage, 1e-12)
}
