package canvas

import (
	"image"
	"image/color"

	"mask-painter/internal/stroke"
	"mask-painter/pkg/colorutil"
	"mask-painter/pkg/geometry"
)

// drawBrushRing outlines the brush footprint centred on at. A dark ring
// inside the coloured one keeps it visible on light images. The eraser gets
// a cross through the centre as well.
func drawBrushRing(output *image.RGBA, at geometry.Point2D, diameter float64, tool stroke.Tool) {
	col := colorutil.White
	if tool == stroke.ToolEraser {
		col = colorutil.Cyan
	}
	r := diameter / 2
	if r < 2 {
		r = 2
	}

	drawRing(output, at.X, at.Y, r, 1, col)
	drawRing(output, at.X, at.Y, r-1, 1, colorutil.Black)

	if tool == stroke.ToolEraser {
		arm := int(r / 3)
		cx, cy := int(at.X), int(at.Y)
		drawLine(output, cx-arm, cy, cx+arm, cy, col)
		drawLine(output, cx, cy-arm, cx, cy+arm, col)
	}
}

// drawRing sets the pixels whose centre lies between r-thickness and r from
// (cx, cy).
func drawRing(output *image.RGBA, cx, cy, r, thickness float64, col color.RGBA) {
	bounds := output.Bounds()

	minX := int(cx - r - 1)
	maxX := int(cx + r + 1)
	minY := int(cy - r - 1)
	maxY := int(cy + r + 1)

	r2 := r * r
	inner := r - thickness
	if inner < 0 {
		inner = 0
	}
	innerR2 := inner * inner

	for y := minY; y <= maxY; y++ {
		if y < bounds.Min.Y || y >= bounds.Max.Y {
			continue
		}
		for x := minX; x <= maxX; x++ {
			if x < bounds.Min.X || x >= bounds.Max.X {
				continue
			}
			dx := float64(x) + 0.5 - cx
			dy := float64(y) + 0.5 - cy
			dist2 := dx*dx + dy*dy
			if dist2 <= r2 && dist2 >= innerR2 {
				output.SetRGBA(x, y, col)
			}
		}
	}
}

// drawLine draws a one pixel line using Bresenham's algorithm.
func drawLine(output *image.RGBA, x1, y1, x2, y2 int, col color.RGBA) {
	bounds := output.Bounds()

	dx := x2 - x1
	dy := y2 - y1
	if dx < 0 {
		dx = -dx
	}
	if dy < 0 {
		dy = -dy
	}

	sx := 1
	if x1 > x2 {
		sx = -1
	}
	sy := 1
	if y1 > y2 {
		sy = -1
	}

	err := dx - dy
	for {
		if (image.Point{X: x1, Y: y1}).In(bounds) {
			output.SetRGBA(x1, y1, col)
		}
		if x1 == x2 && y1 == y2 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x1 += sx
		}
		if e2 < dx {
			err += dx
			y1 += sy
		}
	}
}
