package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"mask-painter/internal/engine"
	"mask-painter/internal/stroke"
	"mask-painter/pkg/geometry"
)

// Script is a recorded editing session: the surface size followed by the
// input events in the order they arrived.
type Script struct {
	Viewport struct {
		Width  float64 `json:"width"`
		Height float64 `json:"height"`
	} `json:"viewport"`
	Events []Event `json:"events"`
}

// Event is one input event. Which fields matter depends on Type:
//
//	down, move, up    x, y in display pixels
//	leave             none
//	wheel             delta (sign only)
//	modifier          active
//	tool              tool ("brush" or "eraser")
//	brush             size
//	resize            width, height
//	zoom              zoom
//	undo, redo, clear none
type Event struct {
	Type   string  `json:"type"`
	X      float64 `json:"x,omitempty"`
	Y      float64 `json:"y,omitempty"`
	Delta  float64 `json:"delta,omitempty"`
	Active bool    `json:"active,omitempty"`
	Tool   string  `json:"tool,omitempty"`
	Size   float64 `json:"size,omitempty"`
	Width  float64 `json:"width,omitempty"`
	Height float64 `json:"height,omitempty"`
	Zoom   float64 `json:"zoom,omitempty"`
}

var (
	errNoViewport   = errors.New("script has no viewport size")
	errUnknownEvent = errors.New("unknown event type")
	errUnknownTool  = errors.New("unknown tool")
)

// ParseScript decodes a JSON script.
func ParseScript(r io.Reader) (Script, error) {
	var s Script
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&s); err != nil {
		return Script{}, fmt.Errorf("decode script: %w", err)
	}
	if s.Viewport.Width <= 0 || s.Viewport.Height <= 0 {
		return Script{}, errNoViewport
	}
	return s, nil
}

// Replay feeds the script through the editor's input controller. It stops
// at the first event the editor rejects.
func Replay(e *engine.Editor, s Script) error {
	e.Resize(s.Viewport.Width, s.Viewport.Height)
	in := e.Input()

	for i, ev := range s.Events {
		at := geometry.Pt(ev.X, ev.Y)
		var err error
		switch ev.Type {
		case "down":
			err = in.PointerDown(at)
		case "move":
			err = in.PointerMove(at)
		case "up":
			err = in.PointerUp(at)
		case "leave":
			err = in.PointerLeave()
		case "wheel":
			in.Wheel(ev.Delta)
		case "modifier":
			in.SetPanModifier(ev.Active)
		case "tool":
			t, ok := stroke.ParseTool(ev.Tool)
			if !ok {
				err = fmt.Errorf("%w %q", errUnknownTool, ev.Tool)
				break
			}
			e.SetTool(t)
		case "brush":
			err = e.SetBrushSize(ev.Size)
		case "resize":
			e.Resize(ev.Width, ev.Height)
		case "zoom":
			e.SetZoom(ev.Zoom)
		case "undo":
			e.Undo()
		case "redo":
			e.Redo()
		case "clear":
			e.Clear()
		default:
			err = fmt.Errorf("%w %q", errUnknownEvent, ev.Type)
		}
		if err != nil {
			return fmt.Errorf("event %d (%s): %w", i, ev.Type, err)
		}
	}

	// A script that ends mid-stroke behaves like the pointer leaving.
	if err := in.PointerLeave(); err != nil {
		return fmt.Errorf("finish open stroke: %w", err)
	}
	return nil
}
