package stroke

import (
	"errors"
	"fmt"

	"mask-painter/pkg/geometry"

	"github.com/google/uuid"
)

// DefaultMinPointDistance is the spacing, in base pixels, below which a new
// sample is treated as a duplicate of the previous one.
const DefaultMinPointDistance = 1.0

var (
	ErrStrokeOpen   = errors.New("stroke: a stroke is already open")
	ErrNoOpenStroke = errors.New("stroke: no stroke is open")
	ErrStaleHandle  = errors.New("stroke: handle does not refer to the open stroke")
	ErrInvalidBrush = errors.New("stroke: brush size must be positive")
	ErrInvalidFrame = errors.New("stroke: frame size must be positive")
)

// Handle identifies an in-progress stroke.
type Handle uint64

// Model is the append-only, undoable collection of committed strokes plus at
// most one stroke being drawn.
type Model struct {
	minDist float64
	newID   func() string

	strokes []Stroke
	redo    []Stroke

	open       *Stroke
	openHandle Handle
	lastHandle Handle

	revision uint64
}

// Option configures a Model.
type Option func(*Model)

// WithMinPointDistance overrides the duplicate-point filter distance.
func WithMinPointDistance(d float64) Option {
	return func(m *Model) {
		if d >= 0 {
			m.minDist = d
		}
	}
}

// WithIDGenerator replaces the stroke ID source.
func WithIDGenerator(fn func() string) Option {
	return func(m *Model) {
		if fn != nil {
			m.newID = fn
		}
	}
}

// NewModel creates an empty model.
func NewModel(opts ...Option) *Model {
	m := &Model{
		minDist: DefaultMinPointDistance,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Revision changes whenever the committed stroke list changes.
func (m *Model) Revision() uint64 {
	return m.revision
}

// Len returns the number of committed strokes.
func (m *Model) Len() int {
	return len(m.strokes)
}

// CanUndo reports whether there is a committed stroke to remove.
func (m *Model) CanUndo() bool {
	return len(m.strokes) > 0
}

// CanRedo reports whether an undone stroke can be restored.
func (m *Model) CanRedo() bool {
	return len(m.redo) > 0
}

// Strokes returns the committed strokes, oldest first. The slice is a copy;
// the strokes themselves are immutable.
func (m *Model) Strokes() []Stroke {
	out := make([]Stroke, len(m.strokes))
	copy(out, m.strokes)
	return out
}

// Open returns the stroke currently being drawn, if any. The returned path
// must not be modified.
func (m *Model) Open() (Stroke, Handle, bool) {
	if m.open == nil {
		return Stroke{}, 0, false
	}
	return *m.open, m.openHandle, true
}

// BeginStroke opens a new stroke. frame is the base fit size the stroke's
// points will be expressed in.
func (m *Model) BeginStroke(tool Tool, brushSize float64, frame geometry.Size) (Handle, error) {
	if m.open != nil {
		return 0, ErrStrokeOpen
	}
	if brushSize <= 0 {
		return 0, ErrInvalidBrush
	}
	if frame.Empty() {
		return 0, ErrInvalidFrame
	}

	m.lastHandle++
	m.openHandle = m.lastHandle
	m.open = &Stroke{
		Tool:      tool,
		Mode:      tool.Mode(),
		BrushSize: brushSize,
		Frame:     frame,
	}
	return m.openHandle, nil
}

func (m *Model) check(h Handle) error {
	if m.open == nil {
		return ErrNoOpenStroke
	}
	if h != m.openHandle {
		return ErrStaleHandle
	}
	return nil
}

// ExtendStroke appends a base-relative point to the open stroke. Points
// closer than the minimum distance to the previous point are dropped; the
// return value reports whether p was appended.
func (m *Model) ExtendStroke(h Handle, p geometry.Point2D) (bool, error) {
	if err := m.check(h); err != nil {
		return false, err
	}
	path := m.open.Path
	if n := len(path); n > 0 && geometry.Distance(path[n-1], p) < m.minDist {
		return false, nil
	}
	m.open.Path = append(path, p)
	return true, nil
}

// CommitStroke closes the open stroke and appends it to the history. A
// single-point path is kept as a dot. A stroke that never received a point
// is discarded and the zero Stroke is returned.
func (m *Model) CommitStroke(h Handle) (Stroke, error) {
	if err := m.check(h); err != nil {
		return Stroke{}, err
	}
	s := *m.open
	m.open = nil

	if len(s.Path) == 0 {
		return Stroke{}, nil
	}

	// Clip capacity so no later append can alias the committed path.
	s.Path = s.Path[:len(s.Path):len(s.Path)]
	s.ID = m.newID()

	m.strokes = append(m.strokes, s)
	m.redo = nil
	m.revision++
	return s, nil
}

// AbortStroke drops the open stroke without recording it.
func (m *Model) AbortStroke() bool {
	if m.open == nil {
		return false
	}
	m.open = nil
	return true
}

// Undo removes the most recently committed stroke. It is a no-op on an
// empty history.
func (m *Model) Undo() (Stroke, bool) {
	n := len(m.strokes)
	if n == 0 {
		return Stroke{}, false
	}
	s := m.strokes[n-1]
	m.strokes = m.strokes[:n-1]
	m.redo = append(m.redo, s)
	m.revision++
	return s, true
}

// Redo restores the most recently undone stroke.
func (m *Model) Redo() (Stroke, bool) {
	n := len(m.redo)
	if n == 0 {
		return Stroke{}, false
	}
	s := m.redo[n-1]
	m.redo = m.redo[:n-1]
	m.strokes = append(m.strokes, s)
	m.revision++
	return s, true
}

// Clear empties the committed strokes, the redo history and any open stroke
// in one step.
func (m *Model) Clear() {
	m.strokes = nil
	m.redo = nil
	m.open = nil
	m.revision++
}

func (m *Model) String() string {
	return fmt.Sprintf("stroke.Model{strokes: %d, redo: %d, open: %t, rev: %d}",
		len(m.strokes), len(m.redo), m.open != nil, m.revision)
}
