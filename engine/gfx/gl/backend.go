// Package glbackend implements the gfx contracts on desktop OpenGL 4.6 core
// profile. The swapchain is the window's default framebuffer; buffer updates
// use orphan-then-write so dynamic writes never stall on in-flight frames.
package glbackend

import (
	"fmt"
	"runtime"

	"github.com/go-gl/gl/v4.6-core/gl"

	"github.com/pluscraft/pluscraft/common"
	"github.com/pluscraft/pluscraft/engine/gfx"
)

func init() {
	gfx.Register(gfx.DeviceTypeOpenGL, func() gfx.Factory { return &factory{} })
}

type factory struct{}

var _ gfx.Factory = &factory{}

func (f *factory) CreateDeviceAndSwapchain(info gfx.CreateInfo) (gfx.Device, gfx.Context, gfx.Swapchain, error) {
	if !info.Window.Valid() {
		return nil, nil, nil, &gfx.SwapchainCreationError{
			Type:   gfx.DeviceTypeOpenGL,
			Reason: "a native window handle is required",
		}
	}
	if info.Width <= 0 || info.Height <= 0 {
		return nil, nil, nil, &gfx.SwapchainCreationError{
			Type:   gfx.DeviceTypeOpenGL,
			Reason: "invalid initial dimensions",
		}
	}

	// The GL context binds to the calling thread and stays there.
	runtime.LockOSThread()
	info.Window.GLFW.MakeContextCurrent()

	if err := gl.Init(); err != nil {
		return nil, nil, nil, &gfx.BackendInitError{Type: gfx.DeviceTypeOpenGL, Reason: "function loading failed", Err: err}
	}

	dev := &device{label: info.Label}
	ctx := &context{owner: dev}
	sc := &swapchain{
		owner:  dev,
		window: info.Window.GLFW,
		desc: gfx.SwapchainDesc{
			Width:       info.Width,
			Height:      info.Height,
			ColorFormat: gfx.FormatRGBA8Unorm,
			DepthFormat: gfx.FormatDepth24Plus,
			BufferCount: common.Coalesce(info.BufferCount, 2),
		},
		lastInterval: -1,
	}
	sc.recreateViews()
	gl.Viewport(0, 0, int32(info.Width), int32(info.Height))
	return dev, ctx, sc, nil
}

// device creates GL buffer and program objects. GL has no device object of
// its own; this carries the ownership identity the contracts require.
type device struct {
	label    string
	released bool
}

var _ gfx.Device = &device{}

func (d *device) Type() gfx.DeviceType {
	return gfx.DeviceTypeOpenGL
}

func bufferTarget(usage gfx.BufferUsage) uint32 {
	switch usage {
	case gfx.UsageIndex:
		return gl.ELEMENT_ARRAY_BUFFER
	case gfx.UsageUniform:
		return gl.UNIFORM_BUFFER
	default:
		return gl.ARRAY_BUFFER
	}
}

func (d *device) CreateBuffer(desc gfx.BufferDesc, initial []byte) (gfx.Buffer, error) {
	if d.released {
		return nil, fmt.Errorf("gl: device %q is released", d.label)
	}

	var hint uint32
	switch desc.Access {
	case gfx.AccessImmutable:
		if len(initial) == 0 {
			return nil, fmt.Errorf("gl: immutable buffer %q requires non-empty initial data", desc.Name)
		}
		desc.Size = len(initial)
		hint = gl.STATIC_DRAW
	case gfx.AccessDynamic:
		if desc.Size <= 0 {
			return nil, fmt.Errorf("gl: dynamic buffer %q requires a positive size", desc.Name)
		}
		hint = gl.DYNAMIC_DRAW
	}

	target := bufferTarget(desc.Usage)
	var id uint32
	gl.GenBuffers(1, &id)
	gl.BindBuffer(target, id)
	if len(initial) > 0 {
		gl.BufferData(target, desc.Size, gl.Ptr(initial), hint)
	} else {
		gl.BufferData(target, desc.Size, nil, hint)
	}
	gl.BindBuffer(target, 0)

	return &buffer{owner: d, desc: desc, id: id, target: target, hint: hint}, nil
}

func (d *device) Release() {
	d.released = true
}

// buffer wraps one GL buffer object.
type buffer struct {
	owner  *device
	desc   gfx.BufferDesc
	id     uint32
	target uint32
	hint   uint32
}

var _ gfx.Buffer = &buffer{}

func (b *buffer) Desc() gfx.BufferDesc {
	return b.desc
}

func (b *buffer) Release() {
	if b.id != 0 {
		gl.DeleteBuffers(1, &b.id)
		b.id = 0
	}
}

// write orphans the old storage and uploads the new contents, implementing
// the discard policy for dynamic buffers.
func (b *buffer) write(data []byte) error {
	if len(data) > b.desc.Size {
		return fmt.Errorf("gl: write of %d bytes exceeds buffer %q size %d", len(data), b.desc.Name, b.desc.Size)
	}
	gl.BindBuffer(b.target, b.id)
	gl.BufferData(b.target, b.desc.Size, nil, b.hint)
	if len(data) > 0 {
		gl.BufferSubData(b.target, 0, len(data), gl.Ptr(data))
	}
	gl.BindBuffer(b.target, 0)
	return nil
}
