package glbackend

import (
	"fmt"
	"sync"

	"github.com/go-gl/gl/v4.6-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/pluscraft/pluscraft/engine/gfx"
)

// swapchain wraps the window's default framebuffer. Resizing only adjusts
// the viewport, but the view generation still advances so stale targets are
// detectable the same way as on surface-backed backends.
type swapchain struct {
	mu     sync.Mutex
	owner  *device
	window *glfw.Window

	desc       gfx.SwapchainDesc
	generation uint64
	color      *renderTarget
	depth      *renderTarget

	lastInterval int
	released     bool
}

var _ gfx.Swapchain = &swapchain{}

type renderTarget struct {
	sc         *swapchain
	generation uint64
	isDepth    bool
}

var _ gfx.RenderTarget = &renderTarget{}

func (t *renderTarget) Valid() bool {
	if t == nil || t.sc == nil {
		return false
	}
	t.sc.mu.Lock()
	defer t.sc.mu.Unlock()
	return !t.sc.released && t.generation == t.sc.generation
}

func (s *swapchain) Desc() gfx.SwapchainDesc {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.desc
}

func (s *swapchain) CurrentBackBuffer() gfx.RenderTarget {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.color
}

func (s *swapchain) DepthBuffer() gfx.RenderTarget {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.depth
}

func (s *swapchain) Resize(width, height int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		return fmt.Errorf("gl: swapchain is released")
	}
	if width <= 0 || height <= 0 {
		return fmt.Errorf("gl: invalid resize dimensions %dx%d", width, height)
	}
	s.desc.Width = width
	s.desc.Height = height
	gl.Viewport(0, 0, int32(width), int32(height))
	s.recreateViewsLocked()
	return nil
}

func (s *swapchain) Present(interval int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		return fmt.Errorf("gl: swapchain is released")
	}
	if interval != s.lastInterval {
		glfw.SwapInterval(interval)
		s.lastInterval = interval
	}
	s.window.SwapBuffers()
	return nil
}

func (s *swapchain) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.released = true
	s.color = nil
	s.depth = nil
}

func (s *swapchain) recreateViews() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recreateViewsLocked()
}

func (s *swapchain) recreateViewsLocked() {
	s.generation++
	s.color = &renderTarget{sc: s, generation: s.generation}
	s.depth = &renderTarget{sc: s, generation: s.generation, isDepth: true}
}
