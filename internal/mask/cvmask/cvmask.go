// Package cvmask rasterises masks with OpenCV. Curves are flattened the same
// way as in the vector backend and drawn as thick lines, which OpenCV ends
// with round caps.
package cvmask

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"math"

	"mask-painter/internal/mask"
	"mask-painter/internal/raster"
	"mask-painter/internal/stroke"
	"mask-painter/pkg/geometry"

	"gocv.io/x/gocv"
)

var (
	white = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	black = color.RGBA{A: 255}
)

// Backend implements mask.Backend on a single channel 8-bit Mat.
type Backend struct{}

// Name implements mask.Backend.
func (Backend) Name() string { return "opencv" }

// Rasterize implements mask.Backend.
func (Backend) Rasterize(ctx context.Context, job mask.Job) (*image.Gray, error) {
	if job.Width <= 0 || job.Height <= 0 {
		return nil, mask.ErrNoImageLoaded
	}

	mat := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), job.Height, job.Width, gocv.MatTypeCV8UC1)
	defer mat.Close()

	native := job.Native()
	for _, s := range job.Strokes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		t, width := mask.NativeMapping(native, s)
		drawStroke(&mat, s, t, width)
	}

	img, err := mat.ToImage()
	if err != nil {
		return nil, fmt.Errorf("mat to image: %w", err)
	}
	gray, ok := img.(*image.Gray)
	if !ok {
		return nil, fmt.Errorf("unexpected mat image type %T", img)
	}
	return gray, nil
}

// Encode implements mask.Encoder with OpenCV's PNG writer.
func (Backend) Encode(img *image.Gray) ([]byte, error) {
	b := img.Bounds()
	mat, err := gocv.NewMatFromBytes(b.Dy(), b.Dx(), gocv.MatTypeCV8UC1, img.Pix)
	if err != nil {
		return nil, fmt.Errorf("mat from mask: %w", err)
	}
	defer mat.Close()

	buf, err := gocv.IMEncode(gocv.PNGFileExt, mat)
	if err != nil {
		return nil, fmt.Errorf("encode mask: %w", err)
	}
	defer buf.Close()
	return append([]byte(nil), buf.GetBytes()...), nil
}

func drawStroke(mat *gocv.Mat, s stroke.Stroke, t geometry.AffineTransform, width float64) {
	ink := white
	if s.Mode == stroke.ModeErase {
		ink = black
	}
	thickness := int(math.Max(1, math.Round(width)))

	if s.IsDot() {
		c := t.Apply(s.Path[0])
		gocv.Circle(mat, toPoint(c), int(math.Round(width/2)), ink, -1)
		return
	}
	for _, seg := range s.Segments() {
		pts := geometry.Flatten(seg.Transform(t), raster.DefaultTolerance)
		for i := 0; i+1 < len(pts); i++ {
			gocv.Line(mat, toPoint(pts[i]), toPoint(pts[i+1]), ink, thickness)
		}
	}
}

func toPoint(p geometry.Point2D) image.Point {
	return image.Pt(int(math.Round(p.X)), int(math.Round(p.Y)))
}

func init() {
	mask.Register(Backend{})
}
