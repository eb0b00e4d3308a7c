// Package source loads the reference image a mask is painted over.
package source

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"os"
	"strings"

	"mask-painter/pkg/geometry"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/storage"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// MaxDownloadBytes bounds images fetched over HTTP.
const MaxDownloadBytes = 256 << 20

var (
	ErrEmptyImage  = errors.New("source: image has no pixels")
	ErrHTTPStatus  = errors.New("source: unexpected HTTP status")
	ErrUnsupported = errors.New("source: unsupported image reference")
)

// Image is a decoded source image.
type Image struct {
	Ref    string // Path, URI or URL it was loaded from
	Format string // Decoder name ("png", "jpeg", ...)
	Pixels image.Image
	Width  int
	Height int
}

// Size returns the native size in pixels.
func (i *Image) Size() geometry.Size {
	return geometry.NewSize(float64(i.Width), float64(i.Height))
}

// New wraps an already decoded image.
func New(ref string, img image.Image) (*Image, error) {
	if img == nil {
		return nil, ErrEmptyImage
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, ErrEmptyImage
	}
	return &Image{Ref: ref, Pixels: img, Width: b.Dx(), Height: b.Dy()}, nil
}

// Decode reads an image in any registered format from r.
func Decode(ref string, r io.Reader) (*Image, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", ref, err)
	}
	out, err := New(ref, img)
	if err != nil {
		return nil, err
	}
	out.Format = format
	return out, nil
}

// Load resolves ref, which may be a filesystem path, a URI understood by
// fyne's storage layer (file://, ...) or an http(s) URL, and decodes it.
func Load(ctx context.Context, ref string) (*Image, error) {
	switch {
	case ref == "":
		return nil, ErrUnsupported
	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		return fetch(ctx, ref)
	case strings.Contains(ref, "://"):
		u, err := storage.ParseURI(ref)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnsupported, err)
		}
		return LoadURI(ctx, u)
	}
	return loadFile(ctx, ref)
}

// LoadURI decodes the resource behind a fyne URI, as returned by the file
// dialogs.
func LoadURI(ctx context.Context, u fyne.URI) (*Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	switch u.Scheme() {
	case "file":
		return loadFile(ctx, u.Path())
	case "http", "https":
		return fetch(ctx, u.String())
	}

	rc, err := storage.Reader(u)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", u, err)
	}
	defer rc.Close()
	return Decode(u.String(), rc)
}

func loadFile(ctx context.Context, path string) (*Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer file.Close()
	return Decode(path, file)
}

func fetch(ctx context.Context, url string) (*Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupported, err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s returned %d", ErrHTTPStatus, url, resp.StatusCode)
	}
	return Decode(url, io.LimitReader(resp.Body, MaxDownloadBytes))
}
