package app

import (
	"bytes"
	"image/color"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	chdir(t, t.TempDir())
	for _, k := range []string{"APP_ENV", "MASK_BACKEND", "MASK_ZOOM_STEP", "MASK_MIN_POINT_DISTANCE",
		"MASK_DEFAULT_BRUSH_SIZE", "MASK_EXPORT_TIMEOUT_SECONDS", "MASK_TINT"} {
		t.Setenv(k, "")
	}

	c, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, EnvProduction, c.Env)
	assert.Equal(t, "vector", c.Backend)
	assert.Equal(t, 0.1, c.ZoomStep)
	assert.Equal(t, 1.0, c.MinPointDistance)
	assert.Equal(t, 20.0, c.DefaultBrushSize)
	assert.Equal(t, time.Minute, c.ExportTimeout)
	assert.Equal(t, color.NRGBA{R: 0xff, G: 0x30, B: 0x60, A: 0x80}, c.Tint)
}

func TestLoadConfigFromEnv(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("APP_ENV", EnvDevelopment)
	t.Setenv("MASK_BACKEND", "opencv")
	t.Setenv("MASK_ZOOM_STEP", "0.25")
	t.Setenv("MASK_EXPORT_TIMEOUT_SECONDS", "5")
	t.Setenv("MASK_TINT", "#00ff00")

	c, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, EnvDevelopment, c.Env)
	assert.Equal(t, "opencv", c.Backend)
	assert.Equal(t, 0.25, c.ZoomStep)
	assert.Equal(t, 5*time.Second, c.ExportTimeout)
	assert.Equal(t, color.NRGBA{G: 0xff, A: 0xff}, c.Tint)
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("MASK_ZOOM_STEP", "fast")
	_, err := LoadConfig()
	assert.ErrorIs(t, err, ErrInvalidConfig)

	t.Setenv("MASK_ZOOM_STEP", "-1")
	_, err = LoadConfig()
	assert.ErrorIs(t, err, ErrInvalidConfig)

	t.Setenv("MASK_ZOOM_STEP", "")
	t.Setenv("MASK_TINT", "pink")
	_, err = LoadConfig()
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	prod := newLogger(&buf, EnvProduction)
	assert.Equal(t, zerolog.InfoLevel, prod.GetLevel())
	prod.Debug().Msg("hidden")
	prod.Info().Msg("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"message":"shown"`)

	dev := newLogger(&buf, EnvDevelopment)
	assert.Equal(t, zerolog.DebugLevel, dev.GetLevel())
}

// chdir changes the working directory for the duration of the test
// (equivalent to testing.T.Chdir, which needs Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}
