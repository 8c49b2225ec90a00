package engine

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/pluscraft/pluscraft/engine/window"
)

// VideoMode describes the presentation parameters of a session.
type VideoMode struct {
	// Width and Height are the initial window dimensions in screen coordinates.
	Width  int `toml:"width"`
	Height int `toml:"height"`
	// PresentInterval is handed to Swapchain.Present every frame:
	// 0 presents immediately, 1 waits for vsync.
	PresentInterval int `toml:"present_interval"`
	// WindowMode is one of "windowed", "borderless", or "fullscreen".
	WindowMode string `toml:"window_mode"`
}

// DefaultVideoMode returns the mode used when no configuration is present.
func DefaultVideoMode() VideoMode {
	return VideoMode{
		Width:           1280,
		Height:          720,
		PresentInterval: 0,
		WindowMode:      "windowed",
	}
}

// Validate checks the mode for values no backend can satisfy.
func (v VideoMode) Validate() error {
	if v.Width <= 0 || v.Height <= 0 {
		return fmt.Errorf("engine: video mode requires positive dimensions, got %dx%d", v.Width, v.Height)
	}
	if v.PresentInterval < 0 {
		return fmt.Errorf("engine: present interval must not be negative, got %d", v.PresentInterval)
	}
	switch v.WindowMode {
	case "", "windowed", "borderless", "fullscreen":
	default:
		return fmt.Errorf("engine: unknown window mode %q", v.WindowMode)
	}
	return nil
}

// Mode maps the configured window mode string onto the window package enum.
func (v VideoMode) Mode() window.Mode {
	switch v.WindowMode {
	case "borderless":
		return window.ModeBorderless
	case "fullscreen":
		return window.ModeFullscreen
	default:
		return window.ModeWindowed
	}
}

// LoadVideoMode reads a VideoMode from a TOML file. A missing file is not an
// error; it yields the defaults. Fields absent from the file keep their
// default values.
//
// Parameters:
//   - path: the TOML file to read
//
// Returns:
//   - VideoMode: the loaded or default mode
//   - error: a read, parse, or validation error
func LoadVideoMode(path string) (VideoMode, error) {
	mode := DefaultVideoMode()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return mode, nil
		}
		return mode, fmt.Errorf("engine: reading video mode config: %w", err)
	}

	if err := toml.Unmarshal(data, &mode); err != nil {
		return DefaultVideoMode(), fmt.Errorf("engine: parsing video mode config: %w", err)
	}
	if err := mode.Validate(); err != nil {
		return DefaultVideoMode(), err
	}
	return mode, nil
}
