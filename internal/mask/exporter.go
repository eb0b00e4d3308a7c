package mask

import (
	"context"
	"fmt"
	"image"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"
)

// Result is the outcome of one export.
type Result struct {
	Mask     *image.Gray
	PNG      []byte
	Coverage float64
	Backend  string
	Elapsed  time.Duration
	Err      error
}

// Exporter runs exports in the background, one at a time.
type Exporter struct {
	backend Backend
	busy    *semaphore.Weighted
	logger  zerolog.Logger
}

// ExporterOption configures an Exporter.
type ExporterOption func(*Exporter)

// WithLogger sets the exporter's logger.
func WithLogger(l zerolog.Logger) ExporterOption {
	return func(e *Exporter) { e.logger = l }
}

// NewExporter creates an exporter using backend, or Vector if backend is nil.
func NewExporter(backend Backend, opts ...ExporterOption) *Exporter {
	if backend == nil {
		backend = Vector{}
	}
	e := &Exporter{
		backend: backend,
		busy:    semaphore.NewWeighted(1),
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Backend returns the rasteriser in use.
func (e *Exporter) Backend() Backend {
	return e.backend
}

// Export starts rasterising job and returns a channel that receives exactly
// one Result. A second export requested before the first has delivered its
// result fails with ErrExportInProgress. The job is never modified, so a
// failed export can simply be retried.
func (e *Exporter) Export(ctx context.Context, job Job) <-chan Result {
	out := make(chan Result, 1)
	if job.Width <= 0 || job.Height <= 0 {
		out <- Result{Backend: e.backend.Name(), Err: ErrNoImageLoaded}
		close(out)
		return out
	}
	if !e.busy.TryAcquire(1) {
		out <- Result{Backend: e.backend.Name(), Err: ErrExportInProgress}
		close(out)
		return out
	}

	go func() {
		res := e.run(ctx, job)
		e.busy.Release(1)
		out <- res
		close(out)
	}()
	return out
}

func (e *Exporter) run(ctx context.Context, job Job) Result {
	start := time.Now()
	res := Result{Backend: e.backend.Name()}

	img, err := e.backend.Rasterize(ctx, job)
	if err != nil {
		res.Err = fmt.Errorf("rasterize with %s: %w", e.backend.Name(), err)
		res.Elapsed = time.Since(start)
		e.logger.Warn().Err(err).Str("backend", res.Backend).Msg("Mask export failed")
		return res
	}

	encode := Encode
	if enc, ok := e.backend.(Encoder); ok {
		encode = enc.Encode
	}
	data, err := encode(img)
	if err != nil {
		res.Err = err
		res.Elapsed = time.Since(start)
		return res
	}

	res.Mask = img
	res.PNG = data
	res.Coverage = Coverage(img)
	res.Elapsed = time.Since(start)

	e.logger.Info().
		Str("backend", res.Backend).
		Int("width", job.Width).
		Int("height", job.Height).
		Int("strokes", len(job.Strokes)).
		Int("bytes", len(data)).
		Float64("coverage", res.Coverage).
		Dur("elapsed", res.Elapsed).
		Msg("Mask exported")
	return res
}
