package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pluscraft/pluscraft/engine/gfx"
	_ "github.com/pluscraft/pluscraft/engine/gfx/null"
	"github.com/pluscraft/pluscraft/engine/window"
)

func newTestSession(t *testing.T) *graphicsSession {
	t.Helper()
	win := window.NewHeadless(640, 480)
	s, err := newGraphicsSession(gfx.DeviceTypeNull, win, DefaultVideoMode())
	require.NoError(t, err)
	t.Cleanup(s.release)
	return s
}

func TestSessionUsesWindowDimensions(t *testing.T) {
	s := newTestSession(t)
	desc := s.swapchain.Desc()
	assert.Equal(t, 640, desc.Width)
	assert.Equal(t, 480, desc.Height)
	assert.Len(t, s.Projection(), 16)
}

func TestSessionResizeUpdatesSwapchainAndProjection(t *testing.T) {
	s := newTestSession(t)
	before := append([]float32(nil), s.Projection()...)

	s.OnResize(1920, 1080)

	desc := s.swapchain.Desc()
	assert.Equal(t, 1920, desc.Width)
	assert.Equal(t, 1080, desc.Height)
	assert.NotEqual(t, before, s.Projection())
}

func TestSessionResizeIsIdempotent(t *testing.T) {
	s := newTestSession(t)
	s.OnResize(800, 600)

	// A repeat notification with the current size must not recreate the
	// swapchain views.
	view := s.swapchain.CurrentBackBuffer()
	require.True(t, view.Valid())
	s.OnResize(800, 600)
	assert.True(t, view.Valid())

	s.OnResize(801, 600)
	assert.False(t, view.Valid())
}

func TestSessionRejectsZeroAreaResize(t *testing.T) {
	s := newTestSession(t)
	view := s.swapchain.CurrentBackBuffer()

	s.OnResize(0, 480)
	s.OnResize(640, 0)
	s.OnResize(-10, -10)

	desc := s.swapchain.Desc()
	assert.Equal(t, 640, desc.Width)
	assert.Equal(t, 480, desc.Height)
	assert.True(t, view.Valid())
}

func TestSessionReleaseIsSafeToRepeat(t *testing.T) {
	win := window.NewHeadless(320, 240)
	s, err := newGraphicsSession(gfx.DeviceTypeNull, win, DefaultVideoMode())
	require.NoError(t, err)

	require.NoError(t, s.validate())
	s.release()
	assert.Error(t, s.validate())
	s.release()
}
