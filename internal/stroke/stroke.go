// Package stroke records freehand mask strokes as resolution-independent
// vector paths with an undoable history.
package stroke

import (
	"mask-painter/pkg/geometry"
)

// Tool selects what a new stroke does to the mask.
type Tool int

const (
	ToolBrush  Tool = iota // Adds mask coverage ("modify")
	ToolEraser             // Removes mask coverage ("protect")
)

func (t Tool) String() string {
	switch t {
	case ToolBrush:
		return "brush"
	case ToolEraser:
		return "eraser"
	default:
		return "unknown"
	}
}

// Mode returns the composite mode strokes made with this tool use.
func (t Tool) Mode() CompositeMode {
	if t == ToolEraser {
		return ModeErase
	}
	return ModePaint
}

// ParseTool converts a tool name as produced by String.
func ParseTool(s string) (Tool, bool) {
	switch s {
	case "brush":
		return ToolBrush, true
	case "eraser":
		return ToolEraser, true
	}
	return ToolBrush, false
}

// CompositeMode is whether a stroke adds or removes mask coverage.
type CompositeMode int

const (
	ModePaint CompositeMode = iota
	ModeErase
)

func (m CompositeMode) String() string {
	if m == ModeErase {
		return "erase"
	}
	return "paint"
}

// Stroke is one committed gesture. Once committed it is never mutated.
type Stroke struct {
	ID        string
	Tool      Tool
	Mode      CompositeMode
	BrushSize float64            // diameter in base-fit display pixels (zoom 1)
	Frame     geometry.Size      // base fit size the path was captured in
	Path      []geometry.Point2D // base-relative points
}

// IsDot reports whether the stroke is a single tap.
func (s Stroke) IsDot() bool {
	return len(s.Path) == 1
}

// Segments returns the smoothed chain for the stroke path.
func (s Stroke) Segments() []geometry.Segment {
	return geometry.ChainSegments(s.Path)
}
