// Package null implements a headless gfx backend that performs full
// bookkeeping without touching a GPU. Buffers hold real byte contents,
// pipelines validate their descriptions, and the swapchain tracks view
// generations across resizes, so sessions and tests can run the complete
// frame protocol on machines with no graphics stack at all.
package null

import (
	"fmt"

	"github.com/pluscraft/pluscraft/common"
	"github.com/pluscraft/pluscraft/engine/gfx"
)

func init() {
	gfx.Register(gfx.DeviceTypeNull, func() gfx.Factory { return &factory{} })
}

type factory struct{}

var _ gfx.Factory = &factory{}

// CreateDeviceAndSwapchain builds the headless triple. The window handle is
// ignored, so a zero NativeWindow is acceptable here.
func (f *factory) CreateDeviceAndSwapchain(info gfx.CreateInfo) (gfx.Device, gfx.Context, gfx.Swapchain, error) {
	if info.Width <= 0 || info.Height <= 0 {
		return nil, nil, nil, &gfx.SwapchainCreationError{
			Type:   gfx.DeviceTypeNull,
			Reason: fmt.Sprintf("invalid initial dimensions %dx%d", info.Width, info.Height),
		}
	}

	bufferCount := common.Coalesce(info.BufferCount, 2)

	dev := &device{label: info.Label}
	ctx := &context{owner: dev}
	sc := &swapchain{
		owner: dev,
		desc: gfx.SwapchainDesc{
			Width:       info.Width,
			Height:      info.Height,
			ColorFormat: gfx.FormatBGRA8Unorm,
			DepthFormat: gfx.FormatDepth32Float,
			BufferCount: bufferCount,
		},
	}
	sc.recreateViews()
	return dev, ctx, sc, nil
}
