package engine

// EventType identifies editor events.
type EventType int

const (
	EventImageLoaded    EventType = iota // data: *source.Image
	EventStrokesChanged                  // data: int (committed stroke count)
	EventViewChanged                     // data: viewport.Params
	EventToolChanged                     // data: stroke.Tool
	EventBrushChanged                    // data: float64
)

// EventListener is called when an event occurs.
type EventListener func(data interface{})

// On registers an event listener for the specified event type.
func (e *Editor) On(event EventType, listener EventListener) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listeners[event] = append(e.listeners[event], listener)
}

// Emit triggers all listeners for the specified event type.
func (e *Editor) Emit(event EventType, data interface{}) {
	e.mu.RLock()
	listeners := e.listeners[event]
	e.mu.RUnlock()

	for _, listener := range listeners {
		listener(data)
	}
}
