package null

import (
	"fmt"
	"sync"

	"github.com/pluscraft/pluscraft/engine/gfx"
)

// swapchain tracks dimensions and a view generation counter. Every resize
// bumps the generation, which invalidates previously fetched render targets
// exactly the way a real surface reconfiguration drops its texture views.
type swapchain struct {
	mu    sync.Mutex
	owner *device
	desc  gfx.SwapchainDesc

	generation uint64
	color      *renderTarget
	depth      *renderTarget

	presentCount int
	lastInterval int
	released     bool
}

var _ gfx.Swapchain = &swapchain{}

// renderTarget is a view pinned to one swapchain generation.
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
		return fmt.Errorf("null: swapchain is released")
	}
	if width <= 0 || height <= 0 {
		return fmt.Errorf("null: invalid resize dimensions %dx%d", width, height)
	}
	s.desc.Width = width
	s.desc.Height = height
	s.recreateViewsLocked()
	return nil
}

func (s *swapchain) Present(interval int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		return fmt.Errorf("null: swapchain is released")
	}
	s.presentCount++
	s.lastInterval = interval
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
