package window

import (
	"fmt"
	"runtime"

	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/pluscraft/pluscraft/engine/gfx"
)

// glfwWindow is the GLFW-backed Window implementation.
type glfwWindow struct {
	window *glfw.Window
	width  int
	height int

	pending []Event
	closed  bool
}

var _ Window = &glfwWindow{}

// BuilderOption configures a window during construction.
type BuilderOption func(*builderConfig)

type builderConfig struct {
	title      string
	width      int
	height     int
	mode       Mode
	deviceType gfx.DeviceType
	resizable  bool
}

// WithTitle sets the window title.
//
// Parameters:
//   - title: the title shown in the window decoration
//
// Returns:
//   - BuilderOption: a function that sets the title
func WithTitle(title string) BuilderOption {
	return func(c *builderConfig) {
		c.title = title
	}
}

// WithSize sets the requested window size in screen coordinates.
//
// Parameters:
//   - width: the requested width
//   - height: the requested height
//
// Returns:
//   - BuilderOption: a function that sets the size
func WithSize(width, height int) BuilderOption {
	return func(c *builderConfig) {
		c.width = width
		c.height = height
	}
}

// WithMode sets the windowed/borderless/fullscreen mode.
//
// Parameters:
//   - mode: the window mode
//
// Returns:
//   - BuilderOption: a function that sets the mode
func WithMode(mode Mode) BuilderOption {
	return func(c *builderConfig) {
		c.mode = mode
	}
}

// WithDeviceType selects the backend the window will host, which decides the
// client API hint: OpenGL gets a 4.6 core-profile context, everything else
// disables context creation entirely.
//
// Parameters:
//   - t: the device type the window's surface will belong to
//
// Returns:
//   - BuilderOption: a function that sets the device type
func WithDeviceType(t gfx.DeviceType) BuilderOption {
	return func(c *builderConfig) {
		c.deviceType = t
	}
}

// WithResizable sets whether the user can resize the window.
//
// Parameters:
//   - resizable: a boolean indicating whether resizing is allowed
//
// Returns:
//   - BuilderOption: a function that sets the resizable flag
func WithResizable(resizable bool) BuilderOption {
	return func(c *builderConfig) {
		c.resizable = resizable
	}
}

// New creates the platform window with all options applied. Must be called
// from the main thread; the window stays locked to it.
//
// Parameters:
//   - opts: configuration options
//
// Returns:
//   - Window: the created window
//   - error: an error if GLFW or the window could not be initialized
func New(opts ...BuilderOption) (Window, error) {
	cfg := &builderConfig{
		title:     "pluscraft",
		width:     1280,
		height:    720,
		resizable: true,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	runtime.LockOSThread()

	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPlatformInit, err)
	}

	glfw.WindowHint(glfw.Resizable, boolHint(cfg.resizable))
	if cfg.deviceType == gfx.DeviceTypeOpenGL {
		glfw.WindowHint(glfw.ContextVersionMajor, 4)
		glfw.WindowHint(glfw.ContextVersionMinor, 6)
		glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
		glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	} else {
		// Every other backend brings its own graphics API.
		glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	}

	var monitor *glfw.Monitor
	width, height := cfg.width, cfg.height
	switch cfg.mode {
	case ModeFullscreen:
		monitor = glfw.GetPrimaryMonitor()
		if vm := monitor.GetVideoMode(); vm != nil {
			width, height = vm.Width, vm.Height
		}
	case ModeBorderless:
		glfw.WindowHint(glfw.Decorated, glfw.False)
		if vm := glfw.GetPrimaryMonitor().GetVideoMode(); vm != nil {
			width, height = vm.Width, vm.Height
		}
	}

	win, err := glfw.CreateWindow(width, height, cfg.title, monitor, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("%w: %v", ErrCreateWindow, err)
	}

	w := &glfwWindow{window: win}

	// Track framebuffer size, not window size: on high-DPI displays the two
	// differ and the swapchain needs pixels.
	w.width, w.height = win.GetFramebufferSize()

	win.SetFramebufferSizeCallback(func(_ *glfw.Window, fbWidth, fbHeight int) {
		w.width = fbWidth
		w.height = fbHeight
		w.pending = append(w.pending, EventResize{Width: fbWidth, Height: fbHeight})
	})

	win.SetCloseCallback(func(_ *glfw.Window) {
		w.pending = append(w.pending, EventCloseRequested{})
	})

	win.SetKeyCallback(func(_ *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		if key == glfw.KeyEscape && action == glfw.Press {
			win.SetShouldClose(true)
			w.pending = append(w.pending, EventCloseRequested{})
		}
	})

	return w, nil
}

func boolHint(v bool) int {
	if v {
		return glfw.True
	}
	return glfw.False
}

func (w *glfwWindow) NativeHandle() gfx.NativeWindow {
	return gfx.NativeWindow{GLFW: w.window}
}

func (w *glfwWindow) Size() (int, int) {
	return w.width, w.height
}

func (w *glfwWindow) Poll() []Event {
	if w.closed {
		return nil
	}
	glfw.PollEvents()
	events := w.pending
	w.pending = nil
	return events
}

func (w *glfwWindow) ShouldClose() bool {
	return w.closed || w.window.ShouldClose()
}

func (w *glfwWindow) RequestClose() {
	if w.closed {
		return
	}
	w.window.SetShouldClose(true)
	w.pending = append(w.pending, EventCloseRequested{})
}

func (w *glfwWindow) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	w.window.Destroy()
	glfw.Terminate()
	return nil
}
