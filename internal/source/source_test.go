package source

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"fyne.io/fyne/v2/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	img.Set(1, 1, color.NRGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func writePNG(t *testing.T, w, h int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "photo.png")
	require.NoError(t, os.WriteFile(path, pngBytes(t, w, h), 0o644))
	return path
}

func TestLoadPath(t *testing.T) {
	path := writePNG(t, 40, 30)
	img, err := Load(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, path, img.Ref)
	assert.Equal(t, "png", img.Format)
	assert.Equal(t, 40, img.Width)
	assert.Equal(t, 30, img.Height)
	assert.Equal(t, 40.0, img.Size().Width)
}

func TestLoadFileURI(t *testing.T) {
	path := writePNG(t, 8, 6)
	uri := storage.NewFileURI(path)

	img, err := Load(context.Background(), uri.String())
	require.NoError(t, err)
	assert.Equal(t, 8, img.Width)

	img, err = LoadURI(context.Background(), uri)
	require.NoError(t, err)
	assert.Equal(t, 6, img.Height)
}

func TestLoadHTTP(t *testing.T) {
	data := pngBytes(t, 12, 9)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/img.png" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Write(data)
	}))
	defer srv.Close()

	img, err := Load(context.Background(), srv.URL+"/img.png")
	require.NoError(t, err)
	assert.Equal(t, 12, img.Width)

	_, err = Load(context.Background(), srv.URL+"/missing.png")
	assert.ErrorIs(t, err, ErrHTTPStatus)
}

func TestLoadHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Load(ctx, writePNG(t, 2, 2))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(context.Background(), "")
	assert.ErrorIs(t, err, ErrUnsupported)

	_, err = Load(context.Background(), filepath.Join(t.TempDir(), "nope.png"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = Decode("junk", strings.NewReader("not an image"))
	assert.ErrorIs(t, err, image.ErrFormat)
}

func TestNewRejectsEmpty(t *testing.T) {
	_, err := New("x", image.NewGray(image.Rect(0, 0, 0, 5)))
	assert.ErrorIs(t, err, ErrEmptyImage)
	_, err = New("x", nil)
	assert.ErrorIs(t, err, ErrEmptyImage)
}
