package app

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"
)

// MaskPainterTheme is the default fyne theme with its accent colours taken
// from the stroke tint, so selected controls match the paint on the canvas.
type MaskPainterTheme struct {
	fyne.Theme
	accent color.NRGBA
}

var _ fyne.Theme = (*MaskPainterTheme)(nil)

// NewTheme returns a theme accented with tint. The tint's alpha is ignored
// for the primary colour.
func NewTheme(tint color.NRGBA) *MaskPainterTheme {
	return &MaskPainterTheme{Theme: theme.DefaultTheme(), accent: tint}
}

func (t *MaskPainterTheme) Color(name fyne.ThemeColorName, variant fyne.ThemeVariant) color.Color {
	c := t.accent
	switch name {
	case theme.ColorNamePrimary:
		c.A = 0xff
	case theme.ColorNameSelection:
		c.A = 0x60
	case theme.ColorNameFocus:
		c.A = 0x80
	default:
		return t.Theme.Color(name, variant)
	}
	return c
}
