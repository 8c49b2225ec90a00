// Package window provides the native window and its event stream. The GLFW
// implementation backs real sessions; the headless implementation drives the
// same event protocol in tests.
package window

import (
	"errors"

	"github.com/pluscraft/pluscraft/engine/gfx"
)

var (
	// ErrPlatformInit reports that the windowing subsystem itself failed to
	// initialize.
	ErrPlatformInit = errors.New("window: failed to initialize GLFW")

	// ErrCreateWindow reports that the subsystem came up but the window
	// could not be created.
	ErrCreateWindow = errors.New("window: failed to create GLFW window")
)

// Mode selects how the window occupies the screen.
type Mode int

const (
	// ModeWindowed is a decorated, resizable desktop window.
	ModeWindowed Mode = iota

	// ModeBorderless is an undecorated window sized to the primary monitor.
	ModeBorderless

	// ModeFullscreen takes exclusive fullscreen on the primary monitor.
	ModeFullscreen
)

// Window is the surface provider and event source for one session.
// All methods must be called from the thread that created the window.
type Window interface {
	// NativeHandle returns the handle backend factories bind surfaces to.
	// Headless windows return a zero handle.
	//
	// Returns:
	//   - gfx.NativeWindow: the native handle
	NativeHandle() gfx.NativeWindow

	// Size returns the current framebuffer size in pixels. On high-DPI
	// displays this differs from the logical window size.
	//
	// Returns:
	//   - int: framebuffer width in pixels
	//   - int: framebuffer height in pixels
	Size() (int, int)

	// Poll pumps the platform event loop without blocking and returns the
	// events accumulated since the previous call, in arrival order.
	//
	// Returns:
	//   - []Event: the pending events, nil when there are none
	Poll() []Event

	// ShouldClose reports whether a close has been requested.
	//
	// Returns:
	//   - bool: true once a close was requested
	ShouldClose() bool

	// RequestClose asks the window to close. The request surfaces as an
	// EventCloseRequested on the next Poll.
	RequestClose()

	// Close destroys the window and releases platform resources.
	//
	// Returns:
	//   - error: an error if the window was never initialized
	Close() error
}
