package raster

import (
	"image"

	"mask-painter/internal/stroke"
)

// Finish selects how coverage is written into a mask layer.
type Finish int

const (
	// Soft keeps anti-aliased edges; used for on-screen preview.
	Soft Finish = iota
	// Binary thresholds coverage at BinaryThreshold so the layer only ever
	// holds 0 or 255; used for export.
	Binary
)

// BinaryThreshold is the coverage at or above which a pixel counts as
// inside a stroke in Binary mode.
const BinaryThreshold = 128

// Apply composites the union (per-pixel max) of the given coverages into
// dst. Paint raises dst towards 255, erase lowers it towards 0. Every
// coverage must have been created with dst's bounds.
func Apply(dst *image.Alpha, mode stroke.CompositeMode, finish Finish, covs ...*Coverage) {
	var area image.Rectangle
	for _, c := range covs {
		area = area.Union(c.Dirty())
	}
	area = area.Intersect(dst.Rect)
	if area.Empty() {
		return
	}

	for y := area.Min.Y; y < area.Max.Y; y++ {
		row := dst.Pix[dst.PixOffset(area.Min.X, y):]
		for x := area.Min.X; x < area.Max.X; x++ {
			var a uint8
			for _, c := range covs {
				if v := c.img.Pix[c.img.PixOffset(x, y)]; v > a {
					a = v
				}
			}
			if a == 0 {
				continue
			}
			i := x - area.Min.X
			row[i] = blend(row[i], a, mode, finish)
		}
	}
}

func blend(d, a uint8, mode stroke.CompositeMode, finish Finish) uint8 {
	if finish == Binary {
		if a < BinaryThreshold {
			return d
		}
		if mode == stroke.ModeErase {
			return 0
		}
		return 0xff
	}
	if mode == stroke.ModeErase {
		return uint8((uint32(d)*uint32(0xff-a) + 0x7f) / 0xff)
	}
	if a > d {
		return a
	}
	return d
}

// Fill sets every pixel of dst to v.
func Fill(dst *image.Alpha, v uint8) {
	for i := range dst.Pix {
		dst.Pix[i] = v
	}
}
