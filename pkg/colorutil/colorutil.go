// Package colorutil provides shared color utilities for the mask painter.
package colorutil

import (
	"errors"
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// Common overlay colors used throughout the application.
var (
	Black = color.RGBA{R: 0, G: 0, B: 0, A: 255}
	White = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	Cyan  = color.RGBA{R: 0x40, G: 0xd0, B: 255, A: 255}
)

// ErrBadHex is returned by ParseHex for malformed colors.
var ErrBadHex = errors.New("invalid hex color")

// ParseHex parses "#rrggbb" or "#rrggbbaa" (the '#' is optional). Colors
// without an alpha component are opaque.
func ParseHex(s string) (color.NRGBA, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(h) != 6 && len(h) != 8 {
		return color.NRGBA{}, fmt.Errorf("%w %q", ErrBadHex, s)
	}
	n, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("%w %q", ErrBadHex, s)
	}
	if len(h) == 6 {
		n = n<<8 | 0xff
	}
	return color.NRGBA{
		R: uint8(n >> 24),
		G: uint8(n >> 16),
		B: uint8(n >> 8),
		A: uint8(n),
	}, nil
}

// Hex formats c as "#rrggbbaa".
func Hex(c color.NRGBA) string {
	return fmt.Sprintf("#%02x%02x%02x%02x", c.R, c.G, c.B, c.A)
}
