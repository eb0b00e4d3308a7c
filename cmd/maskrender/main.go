// Command maskrender replays a recorded gesture script over an image and
// writes the resulting inpainting mask as a PNG.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"mask-painter/internal/app"
	"mask-painter/internal/engine"
	"mask-painter/internal/mask"
	_ "mask-painter/internal/mask/cvmask"
	"mask-painter/internal/stroke"
	"mask-painter/internal/version"
)

func main() {
	cfg, err := app.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	imageRef := flag.String("image", "", "Source image path or URL")
	scriptPath := flag.String("script", "", "Gesture script (JSON), - for stdin")
	outPath := flag.String("out", "", "Output PNG (default <image>_mask.png)")
	backendName := flag.String("backend", cfg.Backend, "Export backend: "+strings.Join(mask.Backends(), ", "))
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println("maskrender", version.String())
		return
	}
	if *imageRef == "" || *scriptPath == "" {
		fmt.Println("Usage: maskrender -image <path|url> -script <file.json> [-out mask.png] [-backend vector|opencv]")
		os.Exit(1)
	}

	logger := app.NewLogger(cfg.Env)

	backend, err := mask.Lookup(*backendName)
	if err != nil {
		logger.Fatal().Err(err).Msg("Unknown export backend")
	}

	script, err := readScript(*scriptPath)
	if err != nil {
		logger.Fatal().Err(err).Str("script", *scriptPath).Msg("Failed to read script")
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ExportTimeout)
	defer cancel()

	editor := engine.New(
		engine.WithLogger(logger),
		engine.WithBackend(backend),
		engine.WithZoomStep(cfg.ZoomStep),
		engine.WithBrushSize(cfg.DefaultBrushSize),
		engine.WithStrokeOptions(stroke.WithMinPointDistance(cfg.MinPointDistance)),
	)
	if err := editor.Load(ctx, *imageRef); err != nil {
		logger.Fatal().Err(err).Str("image", *imageRef).Msg("Failed to load image")
	}
	if err := Replay(editor, script); err != nil {
		logger.Fatal().Err(err).Msg("Replay failed")
	}

	res := <-editor.ExportMask(ctx)
	if res.Err != nil {
		logger.Fatal().Err(res.Err).Str("backend", res.Backend).Msg("Export failed")
	}

	out := *outPath
	if out == "" {
		out = defaultOutput(*imageRef)
	}
	if err := os.WriteFile(out, res.PNG, 0o644); err != nil {
		logger.Fatal().Err(err).Str("out", out).Msg("Failed to write mask")
	}

	logger.Info().
		Str("out", out).
		Int("strokes", len(editor.Strokes())).
		Float64("coverage", res.Coverage).
		Dur("elapsed", res.Elapsed).
		Str("backend", res.Backend).
		Msg("Mask written")
}

func readScript(path string) (Script, error) {
	if path == "-" {
		return ParseScript(os.Stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return Script{}, err
	}
	defer f.Close()
	return ParseScript(f)
}

// defaultOutput derives <name>_mask.png in the working directory.
func defaultOutput(ref string) string {
	name := ref
	if i := strings.IndexAny(name, "?#"); i >= 0 && strings.Contains(ref, "://") {
		name = name[:i]
	}
	name = filepath.Base(name)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	if name == "" || name == "." || name == "/" {
		name = "image"
	}
	return name + "_mask.png"
}
