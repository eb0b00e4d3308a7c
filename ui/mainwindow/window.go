// Package mainwindow provides the main application window.
package mainwindow

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"mask-painter/internal/engine"
	"mask-painter/internal/mask"
	"mask-painter/internal/source"
	"mask-painter/internal/stroke"
	"mask-painter/internal/version"
	"mask-painter/internal/viewport"
	"mask-painter/ui/canvas"
	"mask-painter/ui/prefs"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"
	"github.com/rs/zerolog"
)

const (
	appTitle = "Mask Painter"

	toolBrushLabel  = "Brush"
	toolEraserLabel = "Eraser"

	loadTimeout = 2 * time.Minute
)

var imageExtensions = []string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tif", ".tiff", ".webp"}

// MainWindow is the primary application window.
type MainWindow struct {
	fyne.Window
	app    fyne.App
	editor *engine.Editor
	prefs  *prefs.Prefs
	logger zerolog.Logger

	exportTimeout time.Duration

	canvas     *canvas.MaskCanvas
	statusBar  *widget.Label
	viewLabel  *widget.Label
	toolGroup  *widget.RadioGroup
	sizeSlider *widget.Slider
	sizeLabel  *widget.Label
	undoBtn    *widget.Button
	redoBtn    *widget.Button
	clearBtn   *widget.Button
	exportBtn  *widget.Button

	outlineItem *fyne.MenuItem

	// Set while listeners push editor state into widgets, so the widgets'
	// change callbacks do not feed it back.
	syncing bool
}

// New creates the main window around editor. Editor events are wired to
// the toolbar and status bar.
func New(fyneApp fyne.App, editor *engine.Editor, p *prefs.Prefs, logger zerolog.Logger, exportTimeout time.Duration) *MainWindow {
	win := fyneApp.NewWindow(appTitle)

	mw := &MainWindow{
		Window:        win,
		app:           fyneApp,
		editor:        editor,
		prefs:         p,
		logger:        logger,
		exportTimeout: exportTimeout,
	}

	mw.setupUI()
	mw.setupMenus()
	mw.setupShortcuts()
	mw.setupEventHandlers()
	mw.restorePreferences()

	win.SetOnClosed(mw.SavePreferences)
	return mw
}

// setupUI creates the main UI layout.
func (mw *MainWindow) setupUI() {
	mw.canvas = canvas.NewMaskCanvas(mw.editor)
	mw.canvas.OnError(func(err error) {
		if errors.Is(err, engine.ErrNoImageLoaded) {
			mw.updateStatus("Open an image before painting")
			return
		}
		mw.logger.Warn().Err(err).Msg("Input rejected")
		mw.updateStatus(err.Error())
	})

	mw.statusBar = widget.NewLabel("Ready")
	mw.viewLabel = widget.NewLabel("")

	toolbar := mw.createToolbar()

	content := container.NewBorder(
		toolbar,
		container.NewPadded(container.NewBorder(nil, nil, nil, mw.viewLabel, mw.statusBar)),
		nil,
		nil,
		mw.canvas,
	)
	mw.SetContent(content)
	mw.syncHistory()
}

// createToolbar creates the tool, brush, history and export controls.
func (mw *MainWindow) createToolbar() fyne.CanvasObject {
	openBtn := widget.NewButton("Open...", mw.onOpenImage)

	mw.toolGroup = widget.NewRadioGroup([]string{toolBrushLabel, toolEraserLabel}, func(label string) {
		if mw.syncing || label == "" {
			return
		}
		t := stroke.ToolBrush
		if label == toolEraserLabel {
			t = stroke.ToolEraser
		}
		mw.canvas.Do(func(e *engine.Editor) { e.SetTool(t) })
	})
	mw.toolGroup.Horizontal = true
	mw.toolGroup.Required = true
	mw.toolGroup.SetSelected(toolBrushLabel)

	mw.sizeLabel = widget.NewLabel("")
	mw.sizeSlider = widget.NewSlider(1, 400)
	mw.sizeSlider.Step = 1
	mw.sizeSlider.OnChanged = func(v float64) {
		mw.sizeLabel.SetText(fmt.Sprintf("%.0f px", v))
		if mw.syncing {
			return
		}
		mw.canvas.Do(func(e *engine.Editor) {
			if err := e.SetBrushSize(v); err != nil {
				mw.logger.Warn().Err(err).Msg("Brush size rejected")
			}
		})
	}

	mw.undoBtn = widget.NewButton("Undo", mw.onUndo)
	mw.redoBtn = widget.NewButton("Redo", mw.onRedo)
	mw.clearBtn = widget.NewButton("Clear", mw.onClear)
	mw.exportBtn = widget.NewButton("Export Mask...", mw.onExport)

	sizeBox := container.NewBorder(nil, nil, widget.NewLabel("Size:"), mw.sizeLabel, mw.sizeSlider)

	return container.NewBorder(
		nil,
		nil,
		container.NewHBox(openBtn, widget.NewSeparator(), mw.toolGroup),
		container.NewHBox(
			mw.undoBtn,
			mw.redoBtn,
			mw.clearBtn,
			widget.NewSeparator(),
			widget.NewButton("-", mw.onZoomOut),
			widget.NewButton("+", mw.onZoomIn),
			widget.NewButton("Fit", mw.onResetView),
			widget.NewSeparator(),
			mw.exportBtn,
		),
		sizeBox,
	)
}

// setupMenus creates the application menus.
func (mw *MainWindow) setupMenus() {
	undo := fyne.NewMenuItem("Undo", mw.onUndo)
	undo.Shortcut = undoShortcut
	redo := fyne.NewMenuItem("Redo", mw.onRedo)
	redo.Shortcut = redoShortcut

	fileMenu := fyne.NewMenu("File",
		fyne.NewMenuItem("Open Image...", mw.onOpenImage),
		fyne.NewMenuItem("Open URL...", mw.onOpenURL),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Export Mask...", mw.onExport),
	)

	editMenu := fyne.NewMenu("Edit",
		undo,
		redo,
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Clear Mask", mw.onClear),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Brush", func() { mw.selectTool(stroke.ToolBrush) }),
		fyne.NewMenuItem("Eraser", func() { mw.selectTool(stroke.ToolEraser) }),
	)

	mw.outlineItem = fyne.NewMenuItem("Brush Outline", func() {
		mw.setBrushOutline(!mw.outlineItem.Checked)
	})

	viewMenu := fyne.NewMenu("View",
		fyne.NewMenuItem("Zoom In", mw.onZoomIn),
		fyne.NewMenuItem("Zoom Out", mw.onZoomOut),
		fyne.NewMenuItem("Fit to Window", mw.onResetView),
		fyne.NewMenuItemSeparator(),
		mw.outlineItem,
	)

	helpMenu := fyne.NewMenu("Help",
		fyne.NewMenuItem("About", mw.onAbout),
	)

	mw.SetMainMenu(fyne.NewMainMenu(fileMenu, editMenu, viewMenu, helpMenu))
}

var (
	undoShortcut = &desktop.CustomShortcut{KeyName: fyne.KeyZ, Modifier: fyne.KeyModifierShortcutDefault}
	redoShortcut = &desktop.CustomShortcut{KeyName: fyne.KeyZ, Modifier: fyne.KeyModifierShortcutDefault | fyne.KeyModifierShift}
	redoAltKey   = &desktop.CustomShortcut{KeyName: fyne.KeyY, Modifier: fyne.KeyModifierShortcutDefault}
)

// setupShortcuts registers window-wide keyboard shortcuts.
func (mw *MainWindow) setupShortcuts() {
	c := mw.Canvas()
	c.AddShortcut(undoShortcut, func(fyne.Shortcut) { mw.onUndo() })
	c.AddShortcut(redoShortcut, func(fyne.Shortcut) { mw.onRedo() })
	c.AddShortcut(redoAltKey, func(fyne.Shortcut) { mw.onRedo() })
}

// setupEventHandlers registers for editor events. Editor events are emitted
// while the canvas holds its lock, so handlers read the editor directly and
// must not call canvas.Do.
func (mw *MainWindow) setupEventHandlers() {
	mw.editor.On(engine.EventImageLoaded, func(data interface{}) {
		img, ok := data.(*source.Image)
		if !ok {
			return
		}
		mw.SetTitle(appTitle + " - " + displayName(img.Ref))
		mw.updateStatus(fmt.Sprintf("Loaded %s (%d×%d)", displayName(img.Ref), img.Width, img.Height))
	})

	mw.editor.On(engine.EventStrokesChanged, func(data interface{}) {
		mw.syncHistory()
	})

	mw.editor.On(engine.EventViewChanged, func(data interface{}) {
		if p, ok := data.(viewport.Params); ok {
			mw.viewLabel.SetText(fmt.Sprintf("%.0f%%", p.Zoom*100))
		}
	})

	mw.editor.On(engine.EventToolChanged, func(data interface{}) {
		if t, ok := data.(stroke.Tool); ok {
			mw.syncing = true
			mw.toolGroup.SetSelected(toolLabel(t))
			mw.syncing = false
		}
	})

	mw.editor.On(engine.EventBrushChanged, func(data interface{}) {
		if px, ok := data.(float64); ok {
			mw.syncing = true
			mw.sizeSlider.SetValue(px)
			mw.syncing = false
		}
	})
}

func toolLabel(t stroke.Tool) string {
	if t == stroke.ToolEraser {
		return toolEraserLabel
	}
	return toolBrushLabel
}

// syncHistory enables the history and export buttons to match the editor.
func (mw *MainWindow) syncHistory() {
	setEnabled(mw.undoBtn, mw.editor.CanUndo())
	setEnabled(mw.redoBtn, mw.editor.CanRedo())
	setEnabled(mw.clearBtn, len(mw.editor.Strokes()) > 0)
	setEnabled(mw.exportBtn, mw.editor.Image() != nil)
}

func setEnabled(b *widget.Button, on bool) {
	if on {
		b.Enable()
	} else {
		b.Disable()
	}
}

// updateStatus updates the status bar text.
func (mw *MainWindow) updateStatus(text string) {
	mw.statusBar.SetText(text)
}

func displayName(ref string) string {
	if i := strings.LastIndexAny(ref, `/\`); i >= 0 && i < len(ref)-1 {
		return ref[i+1:]
	}
	return ref
}

// getLastDir returns a directory remembered in prefs as a ListableURI, or nil.
func getLastDir(dir string) fyne.ListableURI {
	if dir == "" {
		return nil
	}
	listable, err := storage.ListerForURI(storage.NewFileURI(dir))
	if err != nil {
		return nil
	}
	return listable
}

func (mw *MainWindow) restorePreferences() {
	w, h := mw.prefs.WindowSize(1200, 800)
	mw.Resize(fyne.NewSize(w, h))

	tool := mw.prefs.Tool()
	size := mw.prefs.BrushSize(mw.editor.BrushSize())
	mw.canvas.Do(func(e *engine.Editor) {
		e.SetTool(tool)
		if err := e.SetBrushSize(size); err != nil {
			mw.logger.Warn().Err(err).Msg("Ignoring saved brush size")
		}
	})

	mw.syncing = true
	mw.toolGroup.SetSelected(toolLabel(mw.editor.Tool()))
	mw.sizeSlider.SetValue(mw.editor.BrushSize())
	mw.syncing = false
	mw.sizeLabel.SetText(fmt.Sprintf("%.0f px", mw.editor.BrushSize()))

	mw.setBrushOutline(mw.prefs.BrushOutline())
}

// setBrushOutline shows or hides the brush ring under the pointer.
func (mw *MainWindow) setBrushOutline(show bool) {
	mw.canvas.SetBrushCursor(show)
	mw.outlineItem.Checked = show
	if menu := mw.MainMenu(); menu != nil {
		menu.Refresh()
	}
}

// SavePreferences writes the tool, brush size, brush outline and window
// size to disk.
func (mw *MainWindow) SavePreferences() {
	mw.canvas.Do(func(e *engine.Editor) {
		mw.prefs.SetTool(e.Tool())
		mw.prefs.SetBrushSize(e.BrushSize())
	})
	mw.prefs.SetBrushOutline(mw.outlineItem.Checked)
	size := mw.Canvas().Size()
	if size.Width > 0 && size.Height > 0 {
		mw.prefs.SetWindowSize(size.Width, size.Height)
	}
	if err := mw.prefs.Save(); err != nil {
		mw.logger.Error().Err(err).Msg("Failed to save preferences")
	}
}

// LoadRef loads an image from a path or URL in the background.
func (mw *MainWindow) LoadRef(ref string) {
	mw.updateStatus("Loading " + displayName(ref) + "...")
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()
		img, err := source.Load(ctx, ref)
		mw.imageLoaded(img, err)
	}()
}

func (mw *MainWindow) loadURI(uri fyne.URI) {
	mw.updateStatus("Loading " + uri.Name() + "...")
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()
		img, err := source.LoadURI(ctx, uri)
		mw.imageLoaded(img, err)
	}()
}

func (mw *MainWindow) imageLoaded(img *source.Image, err error) {
	if err != nil {
		mw.logger.Error().Err(err).Msg("Failed to load image")
		mw.updateStatus("Failed to load image")
		dialog.ShowError(err, mw.Window)
		return
	}
	mw.canvas.Do(func(e *engine.Editor) { e.SetImage(img) })
}

// Menu and toolbar handlers

func (mw *MainWindow) onOpenImage() {
	fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		uri := reader.URI()
		reader.Close()
		if uri.Scheme() == "file" {
			mw.prefs.SetLastDir(filepath.Dir(uri.Path()))
		}
		mw.loadURI(uri)
	}, mw.Window)
	fd.SetFilter(storage.NewExtensionFileFilter(imageExtensions))
	if loc := getLastDir(mw.prefs.LastDir()); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

func (mw *MainWindow) onOpenURL() {
	entry := widget.NewEntry()
	entry.SetPlaceHolder("https://example.com/photo.jpg")
	dialog.ShowForm("Open URL", "Open", "Cancel",
		[]*widget.FormItem{widget.NewFormItem("URL", entry)},
		func(ok bool) {
			if ok && strings.TrimSpace(entry.Text) != "" {
				mw.LoadRef(strings.TrimSpace(entry.Text))
			}
		}, mw.Window)
}

func (mw *MainWindow) onUndo() {
	mw.canvas.Do(func(e *engine.Editor) { e.Undo() })
}

func (mw *MainWindow) onRedo() {
	mw.canvas.Do(func(e *engine.Editor) { e.Redo() })
}

func (mw *MainWindow) onClear() {
	mw.canvas.Do(func(e *engine.Editor) { e.Clear() })
}

func (mw *MainWindow) selectTool(t stroke.Tool) {
	mw.canvas.Do(func(e *engine.Editor) { e.SetTool(t) })
}

func (mw *MainWindow) onZoomIn() {
	mw.canvas.Do(func(e *engine.Editor) { e.ZoomBy(e.Input().ZoomStep()) })
}

func (mw *MainWindow) onZoomOut() {
	mw.canvas.Do(func(e *engine.Editor) { e.ZoomBy(-e.Input().ZoomStep()) })
}

func (mw *MainWindow) onResetView() {
	mw.canvas.Do(func(e *engine.Editor) { e.ResetView() })
}

func (mw *MainWindow) onExport() {
	mw.exportMask(mw.saveMask)
}

// exportMask starts an export and hands the result to done from a
// background goroutine.
func (mw *MainWindow) exportMask(done func(mask.Result)) {
	ctx, cancel := context.WithTimeout(context.Background(), mw.exportTimeout)

	var results <-chan mask.Result
	mw.canvas.Do(func(e *engine.Editor) { results = e.ExportMask(ctx) })
	mw.updateStatus("Exporting mask...")

	go func() {
		defer cancel()
		res := <-results
		switch {
		case errors.Is(res.Err, mask.ErrExportInProgress):
			mw.updateStatus("An export is already running")
			return
		case errors.Is(res.Err, mask.ErrNoImageLoaded):
			mw.updateStatus("Open an image before exporting")
			return
		case res.Err != nil:
			mw.logger.Error().Err(res.Err).Str("backend", res.Backend).Msg("Mask export failed")
			mw.updateStatus("Mask export failed")
			dialog.ShowError(res.Err, mw.Window)
			return
		}
		mw.updateStatus(fmt.Sprintf("Mask ready: %.1f%% painted, %s via %s",
			res.Coverage*100, res.Elapsed.Round(time.Millisecond), res.Backend))
		done(res)
	}()
}

func (mw *MainWindow) saveMask(res mask.Result) {
	fd := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil || writer == nil {
			return
		}
		defer writer.Close()
		if _, err := writer.Write(res.PNG); err != nil {
			dialog.ShowError(err, mw.Window)
			return
		}
		if writer.URI().Scheme() == "file" {
			mw.prefs.SetExportDir(filepath.Dir(writer.URI().Path()))
		}
		mw.updateStatus("Saved mask to " + writer.URI().Name())
	}, mw.Window)
	fd.SetFilter(storage.NewExtensionFileFilter([]string{".png"}))
	fd.SetFileName(mw.maskFileName())
	if loc := getLastDir(mw.prefs.ExportDir()); loc != nil {
		fd.SetLocation(loc)
	} else if loc := getLastDir(mw.prefs.LastDir()); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

// maskFileName suggests <image name>_mask.png.
func (mw *MainWindow) maskFileName() string {
	var ref string
	mw.canvas.Do(func(e *engine.Editor) {
		if img := e.Image(); img != nil {
			ref = img.Ref
		}
	})
	name := displayName(ref)
	if i := strings.IndexAny(name, "?#"); i >= 0 {
		name = name[:i]
	}
	name = strings.TrimSuffix(name, filepath.Ext(name))
	if name == "" {
		name = "image"
	}
	return name + "_mask.png"
}

func (mw *MainWindow) onAbout() {
	dialog.ShowInformation("About "+appTitle,
		fmt.Sprintf("%s %s\n\n"+
			"Paint inpainting masks over photos.\n"+
			"Export backend: %s",
			appTitle, version.String(), mw.editor.Backend().Name()),
		mw.Window)
}
