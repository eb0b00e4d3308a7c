package app

import (
	"image/color"
	"testing"

	"fyne.io/fyne/v2/theme"
	"github.com/stretchr/testify/assert"
)

func TestThemeAccentFollowsTint(t *testing.T) {
	th := NewTheme(color.NRGBA{R: 0x10, G: 0x80, B: 0xf0, A: 0x40})

	assert.Equal(t, color.NRGBA{R: 0x10, G: 0x80, B: 0xf0, A: 0xff}, th.Color(theme.ColorNamePrimary, theme.VariantDark))
	assert.Equal(t, color.NRGBA{R: 0x10, G: 0x80, B: 0xf0, A: 0x60}, th.Color(theme.ColorNameSelection, theme.VariantLight))
	assert.Equal(t, color.NRGBA{R: 0x10, G: 0x80, B: 0xf0, A: 0x80}, th.Color(theme.ColorNameFocus, theme.VariantDark))
}

func TestThemeDelegatesTheRest(t *testing.T) {
	th := NewTheme(color.NRGBA{R: 0xff, A: 0xff})
	def := theme.DefaultTheme()

	assert.Equal(t, def.Color(theme.ColorNameBackground, theme.VariantDark), th.Color(theme.ColorNameBackground, theme.VariantDark))
	assert.Equal(t, def.Size(theme.SizeNameInnerPadding), th.Size(theme.SizeNameInnerPadding))
}
