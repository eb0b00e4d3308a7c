// Package main provides the entry point for the Mask Painter application.
package main

import (
	"os"

	"mask-painter/internal/app"
	"mask-painter/internal/engine"
	"mask-painter/internal/mask"
	_ "mask-painter/internal/mask/cvmask"
	"mask-painter/internal/stroke"
	"mask-painter/internal/version"
	"mask-painter/pkg/colorutil"
	"mask-painter/ui/mainwindow"
	"mask-painter/ui/prefs"

	fyneapp "fyne.io/fyne/v2/app"
)

const appID = "io.github.maskpainter"

func main() {
	cfg, err := app.LoadConfig()
	logger := app.NewLogger(cfg.Env)
	if err != nil {
		logger.Fatal().Err(err).Msg("Invalid configuration")
	}

	backend, err := mask.Lookup(cfg.Backend)
	if err != nil {
		logger.Fatal().Err(err).Strs("available", mask.Backends()).Msg("Unknown export backend")
	}

	logger.Info().
		Str("version", version.Version).
		Str("commit", version.GitCommit).
		Str("backend", backend.Name()).
		Str("tint", colorutil.Hex(cfg.Tint)).
		Msg("Starting Mask Painter")

	editor := engine.New(
		engine.WithLogger(logger),
		engine.WithBackend(backend),
		engine.WithZoomStep(cfg.ZoomStep),
		engine.WithBrushSize(cfg.DefaultBrushSize),
		engine.WithTint(cfg.Tint),
		engine.WithStrokeOptions(stroke.WithMinPointDistance(cfg.MinPointDistance)),
	)

	a := fyneapp.NewWithID(appID)
	a.Settings().SetTheme(app.NewTheme(cfg.Tint))

	win := mainwindow.New(a, editor, prefs.Load(), logger, cfg.ExportTimeout)

	// Handle command line arguments
	if len(os.Args) > 1 {
		win.LoadRef(os.Args[1])
	}

	win.ShowAndRun()
}
