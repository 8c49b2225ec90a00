package window

// Event is a window event delivered through Window.Poll.
type Event interface {
	isEvent()
}

// EventResize reports a framebuffer size change in pixels. Zero or negative
// dimensions are delivered as-is (a minimized window reports 0x0); consumers
// decide how to clamp.
type EventResize struct {
	Width  int
	Height int
}

func (EventResize) isEvent() {}

// EventCloseRequested reports that the user asked the window to close, either
// through the window manager or the escape key.
type EventCloseRequested struct{}

func (EventCloseRequested) isEvent() {}
