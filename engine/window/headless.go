package window

import (
	"github.com/pluscraft/pluscraft/engine/gfx"
)

// headlessWindow implements Window without a platform surface. Tests inject
// events and the session consumes them through the normal Poll path.
type headlessWindow struct {
	width  int
	height int

	pending []Event
	closing bool
	closed  bool
}

var _ Window = &headlessWindow{}

// NewHeadless creates a window with no native surface. Only backends that
// accept a zero native handle (the null backend) can present to it.
//
// Parameters:
//   - width: the reported framebuffer width
//   - height: the reported framebuffer height
//
// Returns:
//   - Window: the headless window
func NewHeadless(width, height int) Window {
	return &headlessWindow{width: width, height: height}
}

// Inject queues an event for the next Poll, simulating platform input.
// Resize events also update the reported framebuffer size.
//
// Parameters:
//   - w: the headless window to inject into
//   - ev: the event to queue
func Inject(w Window, ev Event) {
	hw, ok := w.(*headlessWindow)
	if !ok {
		return
	}
	if resize, ok := ev.(EventResize); ok {
		hw.width = resize.Width
		hw.height = resize.Height
	}
	hw.pending = append(hw.pending, ev)
}

func (w *headlessWindow) NativeHandle() gfx.NativeWindow {
	return gfx.NativeWindow{}
}

func (w *headlessWindow) Size() (int, int) {
	return w.width, w.height
}

func (w *headlessWindow) Poll() []Event {
	if w.closed {
		return nil
	}
	events := w.pending
	w.pending = nil
	return events
}

func (w *headlessWindow) ShouldClose() bool {
	return w.closing || w.closed
}

func (w *headlessWindow) RequestClose() {
	if w.closed {
		return
	}
	w.closing = true
	w.pending = append(w.pending, EventCloseRequested{})
}

func (w *headlessWindow) Close() error {
	w.closed = true
	return nil
}
