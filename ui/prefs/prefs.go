// Package prefs persists editor preferences as JSON under the user's config
// directory.
package prefs

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"mask-painter/internal/stroke"
)

const (
	appDir    = "mask-painter"
	prefsFile = "preferences.json"

	keyLastDir   = "lastDir"
	keyExportDir = "exportDir"
	keyTool      = "tool"
	keyBrushSize = "brushSize"
	keyOutline   = "brushOutline"
	keyWindowW   = "windowWidth"
	keyWindowH   = "windowHeight"
)

// Prefs stores preferences as a key-value map.
type Prefs struct {
	mu     sync.RWMutex
	values map[string]interface{}
	path   string
}

// Load reads preferences from <config dir>/mask-painter/preferences.json.
// A missing or unreadable file yields empty preferences.
func Load() *Prefs {
	configDir, err := os.UserConfigDir()
	if err != nil {
		configDir = filepath.Join(os.Getenv("HOME"), ".config")
	}
	return LoadFrom(filepath.Join(configDir, appDir, prefsFile))
}

// LoadFrom reads preferences from path.
func LoadFrom(path string) *Prefs {
	p := &Prefs{
		values: make(map[string]interface{}),
		path:   path,
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return p
	}
	_ = json.Unmarshal(data, &p.values)
	return p
}

// Save writes preferences to disk.
func (p *Prefs) Save() error {
	p.mu.RLock()
	data, err := json.MarshalIndent(p.values, "", "  ")
	p.mu.RUnlock()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(p.path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(p.path, data, 0o644)
}

func (p *Prefs) float(key string, fallback float64) float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if n, ok := p.values[key].(float64); ok {
		return n
	}
	return fallback
}

func (p *Prefs) boolean(key string, fallback bool) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if b, ok := p.values[key].(bool); ok {
		return b
	}
	return fallback
}

func (p *Prefs) str(key string) string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	s, _ := p.values[key].(string)
	return s
}

func (p *Prefs) set(key string, val interface{}) {
	p.mu.Lock()
	p.values[key] = val
	p.mu.Unlock()
}

// LastDir is the directory of the last opened image.
func (p *Prefs) LastDir() string { return p.str(keyLastDir) }

// SetLastDir records the directory of an opened image.
func (p *Prefs) SetLastDir(dir string) { p.set(keyLastDir, dir) }

// ExportDir is the directory the last mask was saved to.
func (p *Prefs) ExportDir() string { return p.str(keyExportDir) }

// SetExportDir records the directory a mask was saved to.
func (p *Prefs) SetExportDir(dir string) { p.set(keyExportDir, dir) }

// Tool returns the last used tool, brush by default.
func (p *Prefs) Tool() stroke.Tool {
	t, _ := stroke.ParseTool(p.str(keyTool))
	return t
}

// SetTool records the selected tool.
func (p *Prefs) SetTool(t stroke.Tool) { p.set(keyTool, t.String()) }

// BrushSize returns the last brush size, or fallback.
func (p *Prefs) BrushSize(fallback float64) float64 {
	if v := p.float(keyBrushSize, fallback); v > 0 {
		return v
	}
	return fallback
}

// SetBrushSize records the brush size.
func (p *Prefs) SetBrushSize(px float64) { p.set(keyBrushSize, px) }

// BrushOutline reports whether the brush ring follows the pointer. It is on
// unless turned off.
func (p *Prefs) BrushOutline() bool { return p.boolean(keyOutline, true) }

// SetBrushOutline records the brush ring setting.
func (p *Prefs) SetBrushOutline(on bool) { p.set(keyOutline, on) }

// WindowSize returns the last window size, or the fallback.
func (p *Prefs) WindowSize(w, h float32) (float32, float32) {
	return float32(p.float(keyWindowW, float64(w))), float32(p.float(keyWindowH, float64(h)))
}

// SetWindowSize records the window size.
func (p *Prefs) SetWindowSize(w, h float32) {
	p.set(keyWindowW, float64(w))
	p.set(keyWindowH, float64(h))
}
