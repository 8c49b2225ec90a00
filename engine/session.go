package engine

import (
	"fmt"
	"runtime"

	"github.com/chewxy/math32"

	"github.com/pluscraft/pluscraft/common"
	"github.com/pluscraft/pluscraft/engine/gfx"
	"github.com/pluscraft/pluscraft/engine/window"
)

// graphicsSession bundles the device triple created for one window together
// with the projection state that depends on the swapchain dimensions.
type graphicsSession struct {
	deviceType gfx.DeviceType
	device     gfx.Device
	ctx        gfx.Context
	swapchain  gfx.Swapchain

	width  int
	height int

	fovY       float32
	near       float32
	far        float32
	projection []float32
}

func newGraphicsSession(deviceType gfx.DeviceType, win window.Window, mode VideoMode) (*graphicsSession, error) {
	factory, err := gfx.Select(deviceType)
	if err != nil {
		return nil, err
	}

	width, height := win.Size()
	if width <= 0 || height <= 0 {
		width, height = mode.Width, mode.Height
	}

	bufferCount := 2
	if runtime.GOOS == "darwin" {
		bufferCount = 3
	}

	device, ctx, swapchain, err := factory.CreateDeviceAndSwapchain(gfx.CreateInfo{
		Window:      win.NativeHandle(),
		Width:       width,
		Height:      height,
		BufferCount: bufferCount,
		Label:       "pluscraft",
	})
	if err != nil {
		return nil, err
	}

	s := &graphicsSession{
		deviceType: device.Type(),
		device:     device,
		ctx:        ctx,
		swapchain:  swapchain,
		fovY:       math32.Pi / 4,
		near:       0.1,
		far:        100.0,
		projection: make([]float32, 16),
	}
	desc := swapchain.Desc()
	s.width, s.height = desc.Width, desc.Height
	s.computeProjection()

	Logger().Info("graphics session created",
		"backend", s.deviceType.String(),
		"width", s.width,
		"height", s.height,
		"color_format", int(desc.ColorFormat),
	)
	return s, nil
}

// OnResize reacts to a window resize. Zero or negative dimensions are
// rejected; the swapchain keeps its last valid size and the session keeps
// rendering at it. Repeated notifications with the current size touch
// nothing but the projection, so delivery is idempotent.
func (s *graphicsSession) OnResize(width, height int) {
	if width <= 0 || height <= 0 {
		Logger().Warn("ignoring zero-area resize",
			"width", width,
			"height", height,
			"kept_width", s.width,
			"kept_height", s.height,
		)
		return
	}
	if width != s.width || height != s.height {
		if err := s.swapchain.Resize(width, height); err != nil {
			Logger().Warn("swapchain resize failed", "error", err)
			return
		}
		s.width, s.height = width, height
	}
	s.computeProjection()
}

func (s *graphicsSession) computeProjection() {
	aspect := float32(s.width) / float32(s.height)
	common.Perspective(s.projection, s.fovY, aspect, s.near, s.far)
}

// Projection returns the current projection matrix. The slice is owned by
// the session and must not be mutated by callers.
func (s *graphicsSession) Projection() []float32 {
	return s.projection
}

func (s *graphicsSession) release() {
	if s.swapchain != nil {
		s.swapchain.Release()
		s.swapchain = nil
	}
	if s.ctx != nil {
		s.ctx.Release()
		s.ctx = nil
	}
	if s.device != nil {
		s.device.Release()
		s.device = nil
	}
}

func (s *graphicsSession) validate() error {
	if s.device == nil || s.ctx == nil || s.swapchain == nil {
		return fmt.Errorf("engine: graphics session is released")
	}
	return nil
}
