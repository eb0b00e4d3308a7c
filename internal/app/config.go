package app

import (
	"errors"
	"fmt"
	"image/color"
	"os"
	"strconv"
	"time"

	"mask-painter/pkg/colorutil"

	"github.com/joho/godotenv"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	// DefaultTint is the on-screen stroke colour, #rrggbbaa.
	DefaultTint = "#ff306080"
)

var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds settings read from the environment, optionally seeded from
// .env files in the working directory.
type Config struct {
	Env              string
	Backend          string
	ZoomStep         float64
	MinPointDistance float64
	DefaultBrushSize float64
	ExportTimeout    time.Duration
	Tint             color.NRGBA
}

// LoadConfig reads the configuration. Missing .env files are not an error.
func LoadConfig() (Config, error) {
	_ = godotenv.Load(".env", ".env.local")

	c := Config{
		Env:     getenv("APP_ENV", EnvProduction),
		Backend: getenv("MASK_BACKEND", "vector"),
	}

	var err error
	if c.ZoomStep, err = getenvFloat("MASK_ZOOM_STEP", 0.1); err != nil {
		return Config{}, err
	}
	if c.MinPointDistance, err = getenvFloat("MASK_MIN_POINT_DISTANCE", 1.0); err != nil {
		return Config{}, err
	}
	if c.DefaultBrushSize, err = getenvFloat("MASK_DEFAULT_BRUSH_SIZE", 20); err != nil {
		return Config{}, err
	}
	timeout, err := getenvInt("MASK_EXPORT_TIMEOUT_SECONDS", 60)
	if err != nil {
		return Config{}, err
	}
	c.ExportTimeout = time.Duration(timeout) * time.Second

	if c.Tint, err = colorutil.ParseHex(getenv("MASK_TINT", DefaultTint)); err != nil {
		return Config{}, fmt.Errorf("%w: MASK_TINT: %v", ErrInvalidConfig, err)
	}

	return c, c.Validate()
}

// Validate checks numeric ranges. Backend names are resolved by mask.Lookup.
func (c Config) Validate() error {
	switch {
	case c.ZoomStep <= 0:
		return fmt.Errorf("%w: MASK_ZOOM_STEP must be positive", ErrInvalidConfig)
	case c.MinPointDistance < 0:
		return fmt.Errorf("%w: MASK_MIN_POINT_DISTANCE must not be negative", ErrInvalidConfig)
	case c.DefaultBrushSize <= 0:
		return fmt.Errorf("%w: MASK_DEFAULT_BRUSH_SIZE must be positive", ErrInvalidConfig)
	case c.ExportTimeout <= 0:
		return fmt.Errorf("%w: MASK_EXPORT_TIMEOUT_SECONDS must be positive", ErrInvalidConfig)
	}
	return nil
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getenvFloat(k string, def float64) (float64, error) {
	v := os.Getenv(k)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, k, err)
	}
	return f, nil
}

func getenvInt(k string, def int) (int, error) {
	v := os.Getenv(k)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, k, err)
	}
	return n, nil
}
