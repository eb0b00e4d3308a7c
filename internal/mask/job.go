// Package mask replays committed strokes at the source image's native
// resolution and produces a strict black and white PNG mask.
package mask

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"

	"mask-painter/internal/raster"
	"mask-painter/internal/stroke"
	"mask-painter/internal/viewport"
	"mask-painter/pkg/geometry"
)

var (
	// ErrNoImageLoaded is returned when there is no source image to size the
	// mask from.
	ErrNoImageLoaded = errors.New("mask: no image loaded")
	// ErrExportInProgress rejects an export started while another one is
	// still running.
	ErrExportInProgress = errors.New("mask: export already in progress")
)

// Job is the immutable input of one export: the source image's native size
// and the committed strokes at the time the export was requested.
type Job struct {
	Width, Height int
	Strokes       []stroke.Stroke
}

// NewJob snapshots strokes for an export at width x height.
func NewJob(width, height int, strokes []stroke.Stroke) (Job, error) {
	if width <= 0 || height <= 0 {
		return Job{}, ErrNoImageLoaded
	}
	cp := make([]stroke.Stroke, len(strokes))
	copy(cp, strokes)
	return Job{Width: width, Height: height, Strokes: cp}, nil
}

// Native returns the mask size as a geometry.Size.
func (j Job) Native() geometry.Size {
	return geometry.NewSize(float64(j.Width), float64(j.Height))
}

// Bounds returns the mask rectangle.
func (j Job) Bounds() image.Rectangle {
	return image.Rect(0, 0, j.Width, j.Height)
}

// NativeMapping returns the transform from a stroke's captured frame to
// native pixels and the stroke's pen diameter in native pixels.
func NativeMapping(native geometry.Size, s stroke.Stroke) (geometry.AffineTransform, float64) {
	return viewport.NativeTransform(native, s.Frame), s.BrushSize * native.Width / s.Frame.Width
}

// Backend rasterises a job into a binary mask: 0 outside, 255 inside.
type Backend interface {
	Name() string
	Rasterize(ctx context.Context, job Job) (*image.Gray, error)
}

// Encoder is implemented by backends that also encode their own output.
type Encoder interface {
	Encode(img *image.Gray) ([]byte, error)
}

// Vector is the pure Go backend. It shares its rasteriser with the on-screen
// renderer.
type Vector struct{}

// Name implements Backend.
func (Vector) Name() string { return "vector" }

// Rasterize implements Backend. ctx is checked between strokes.
func (Vector) Rasterize(ctx context.Context, job Job) (*image.Gray, error) {
	bounds := job.Bounds()
	if bounds.Empty() {
		return nil, ErrNoImageLoaded
	}
	layer := image.NewAlpha(bounds)
	cov := raster.NewCoverage(bounds)
	native := job.Native()

	for _, s := range job.Strokes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		t, width := NativeMapping(native, s)
		cov.Reset()
		cov.AddStroke(s, t, width)
		raster.Apply(layer, s.Mode, raster.Binary, cov)
	}
	return &image.Gray{Pix: layer.Pix, Stride: layer.Stride, Rect: layer.Rect}, nil
}

// Encode writes img as PNG. The output depends only on the pixels.
func Encode(img *image.Gray) ([]byte, error) {
	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.DefaultCompression}
	if err := enc.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode mask: %w", err)
	}
	return buf.Bytes(), nil
}

// Coverage returns the fraction of mask pixels that are set.
func Coverage(img *image.Gray) float64 {
	b := img.Bounds()
	total := b.Dx() * b.Dy()
	if total == 0 {
		return 0
	}
	set := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := img.Pix[img.PixOffset(b.Min.X, y):]
		for _, v := range row[:b.Dx()] {
			if v != 0 {
				set++
			}
		}
	}
	return float64(set) / float64(total)
}
