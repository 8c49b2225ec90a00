package webgpu

import (
	"fmt"
	"sync"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/pluscraft/pluscraft/engine/gfx"
)

// swapchain owns the configured wgpu surface and the depth texture that
// matches it. Surface textures are acquired lazily on the first back-buffer
// fetch of a frame and released on present. Reconfiguring bumps the view
// generation so previously fetched targets report invalid.
type swapchain struct {
	mu    sync.Mutex
	owner *device
	ctx   *context

	surface     *wgpu.Surface
	bufferCount int

	desc       gfx.SwapchainDesc
	generation uint64

	depthTexture *wgpu.Texture
	depthView    *wgpu.TextureView

	frameTexture *wgpu.Texture
	frameView    *wgpu.TextureView

	colorTarget *renderTarget
	depthTarget *renderTarget

	lastInterval int
	released     bool
}

var _ gfx.Swapchain = &swapchain{}

// renderTarget is a texture view pinned to one surface configuration.
type renderTarget struct {
	sc         *swapchain
	generation uint64
	view       *wgpu.TextureView
}

var _ gfx.RenderTarget = &renderTarget{}

func (t *renderTarget) Valid() bool {
	if t == nil || t.sc == nil || t.view == nil {
		return false
	}
	t.sc.mu.Lock()
	defer t.sc.mu.Unlock()
	return !t.sc.released && t.generation == t.sc.generation
}

func (s *swapchain) configure(width, height int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.configureLocked(width, height)
}

func (s *swapchain) configureLocked(width, height int) error {
	capabilities := s.surface.GetCapabilities(s.owner.adapter)
	if len(capabilities.Formats) == 0 {
		return &gfx.SwapchainCreationError{Type: gfx.DeviceTypeWebGPU, Reason: "surface reports no supported formats"}
	}
	surfaceFormat := capabilities.Formats[0]

	alphaMode := wgpu.CompositeAlphaModeAuto
	if len(capabilities.AlphaModes) > 0 {
		alphaMode = capabilities.AlphaModes[0]
	}

	presentMode := wgpu.PresentModeFifo
	if s.lastInterval == 0 {
		presentMode = wgpu.PresentModeImmediate
	}

	s.surface.Configure(s.owner.adapter, s.owner.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      surfaceFormat,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: presentMode,
		AlphaMode:   alphaMode,
	})

	s.releaseFrameLocked()

	if s.depthView != nil {
		s.depthView.Release()
		s.depthView = nil
	}
	if s.depthTexture != nil {
		s.depthTexture.Release()
		s.depthTexture = nil
	}

	depthTexture, err := s.owner.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: "Depth Texture",
		Size: wgpu.Extent3D{
			Width:              uint32(width),
			Height:             uint32(height),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        wgpu.TextureFormatDepth24Plus,
		Usage:         wgpu.TextureUsageRenderAttachment,
	})
	if err != nil {
		return &gfx.SwapchainCreationError{Type: gfx.DeviceTypeWebGPU, Reason: "depth texture creation failed", Err: err}
	}
	depthView, err := depthTexture.CreateView(nil)
	if err != nil {
		depthTexture.Release()
		return &gfx.SwapchainCreationError{Type: gfx.DeviceTypeWebGPU, Reason: "depth view creation failed", Err: err}
	}
	s.depthTexture = depthTexture
	s.depthView = depthView

	s.generation++
	s.desc = gfx.SwapchainDesc{
		Width:       width,
		Height:      height,
		ColorFormat: fromTextureFormat(surfaceFormat),
		DepthFormat: gfx.FormatDepth24Plus,
		BufferCount: s.bufferCount,
	}
	s.colorTarget = &renderTarget{sc: s, generation: s.generation}
	s.depthTarget = &renderTarget{sc: s, generation: s.generation, view: depthView}
	return nil
}

func (s *swapchain) Desc() gfx.SwapchainDesc {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.desc
}

func (s *swapchain) CurrentBackBuffer() gfx.RenderTarget {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		return &renderTarget{}
	}
	if s.frameView == nil {
		surfaceTexture, err := s.surface.GetCurrentTexture()
		if err != nil {
			// The surface is in a bad state, usually mid-resize. The caller
			// sees an invalid target and skips the frame.
			return &renderTarget{}
		}
		view, err := surfaceTexture.CreateView(nil)
		if err != nil {
			surfaceTexture.Release()
			return &renderTarget{}
		}
		s.frameTexture = surfaceTexture
		s.frameView = view
		s.colorTarget = &renderTarget{sc: s, generation: s.generation, view: view}
	}
	return s.colorTarget
}

func (s *swapchain) DepthBuffer() gfx.RenderTarget {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.depthTarget
}

func (s *swapchain) Resize(width, height int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		return fmt.Errorf("webgpu: swapchain is released")
	}
	if width <= 0 || height <= 0 {
		return fmt.Errorf("webgpu: invalid resize dimensions %dx%d", width, height)
	}
	return s.configureLocked(width, height)
}

func (s *swapchain) Present(interval int) error {
	s.mu.Lock()
	if s.released {
		s.mu.Unlock()
		return fmt.Errorf("webgpu: swapchain is released")
	}
	s.mu.Unlock()

	// Finish the context's open render pass and submit before presenting.
	s.ctx.finishFrame()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.frameView != nil {
		s.surface.Present()
		s.releaseFrameLocked()
	}

	// Present interval changes take effect through surface reconfiguration.
	if interval != s.lastInterval {
		s.lastInterval = interval
		return s.configureLocked(s.desc.Width, s.desc.Height)
	}
	return nil
}

func (s *swapchain) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		return
	}
	s.released = true
	s.releaseFrameLocked()
	if s.depthView != nil {
		s.depthView.Release()
		s.depthView = nil
	}
	if s.depthTexture != nil {
		s.depthTexture.Release()
		s.depthTexture = nil
	}
	if s.surface != nil {
		s.surface.Release()
		s.surface = nil
	}
}

func (s *swapchain) releaseFrameLocked() {
	if s.frameView != nil {
		s.frameView.Release()
		s.frameView = nil
	}
	if s.frameTexture != nil {
		s.frameTexture.Release()
		s.frameTexture = nil
	}
	if s.colorTarget != nil {
		s.colorTarget.view = nil
	}
}
