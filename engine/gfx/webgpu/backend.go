// Package webgpu implements the gfx contracts on wgpu-native through the
// cogentcore/webgpu bindings. It is the default presentable backend; wgpu
// routes to D3D12, Vulkan, or Metal underneath.
package webgpu

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"

	"github.com/pluscraft/pluscraft/common"
	"github.com/pluscraft/pluscraft/engine/gfx"
)

func init() {
	gfx.Register(gfx.DeviceTypeWebGPU, func() gfx.Factory { return &factory{} })
}

type factory struct{}

var _ gfx.Factory = &factory{}

func (f *factory) CreateDeviceAndSwapchain(info gfx.CreateInfo) (gfx.Device, gfx.Context, gfx.Swapchain, error) {
	if !info.Window.Valid() {
		return nil, nil, nil, &gfx.SwapchainCreationError{
			Type:   gfx.DeviceTypeWebGPU,
			Reason: "a native window handle is required",
		}
	}
	if info.Width <= 0 || info.Height <= 0 {
		return nil, nil, nil, &gfx.SwapchainCreationError{
			Type:   gfx.DeviceTypeWebGPU,
			Reason: "invalid initial dimensions",
		}
	}

	// The surface and device are tied to the calling thread for their lifetime.
	runtime.LockOSThread()

	instance := wgpu.CreateInstance(nil)
	surface := instance.CreateSurface(wgpuglfw.GetSurfaceDescriptor(info.Window.GLFW))

	adapter, err := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		CompatibleSurface: surface,
	})
	if err != nil {
		surface.Release()
		instance.Release()
		return nil, nil, nil, &gfx.BackendInitError{Type: gfx.DeviceTypeWebGPU, Reason: "no compatible adapter", Err: err}
	}

	wgpuDevice, err := adapter.RequestDevice(&wgpu.DeviceDescriptor{
		Label: info.Label,
		RequiredLimits: &wgpu.RequiredLimits{
			Limits: wgpu.DefaultLimits(),
		},
	})
	if err != nil {
		adapter.Release()
		surface.Release()
		instance.Release()
		return nil, nil, nil, &gfx.BackendInitError{Type: gfx.DeviceTypeWebGPU, Reason: "device request failed", Err: err}
	}

	dev := &device{
		label:    info.Label,
		instance: instance,
		adapter:  adapter,
		device:   wgpuDevice,
		queue:    wgpuDevice.GetQueue(),
	}
	ctx := &context{owner: dev}
	sc := &swapchain{
		owner:        dev,
		ctx:          ctx,
		surface:      surface,
		bufferCount:  common.Coalesce(info.BufferCount, 2),
		lastInterval: 1,
	}
	if err := sc.configure(info.Width, info.Height); err != nil {
		wgpuDevice.Release()
		adapter.Release()
		surface.Release()
		instance.Release()
		return nil, nil, nil, err
	}
	return dev, ctx, sc, nil
}

// device wraps the wgpu instance/adapter/device/queue quartet.
type device struct {
	mu       sync.Mutex
	label    string
	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue
}

var _ gfx.Device = &device{}

func (d *device) Type() gfx.DeviceType {
	return gfx.DeviceTypeWebGPU
}

func (d *device) CreateBuffer(desc gfx.BufferDesc, initial []byte) (gfx.Buffer, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var usage wgpu.BufferUsage
	switch desc.Usage {
	case gfx.UsageVertex:
		usage = wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst
	case gfx.UsageIndex:
		usage = wgpu.BufferUsageIndex | wgpu.BufferUsageCopyDst
	case gfx.UsageUniform:
		usage = wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst
	}

	switch desc.Access {
	case gfx.AccessImmutable:
		if len(initial) == 0 {
			return nil, fmt.Errorf("webgpu: immutable buffer %q requires non-empty initial data", desc.Name)
		}
		desc.Size = len(initial)
	case gfx.AccessDynamic:
		if desc.Size <= 0 {
			return nil, fmt.Errorf("webgpu: dynamic buffer %q requires a positive size", desc.Name)
		}
	}

	raw, err := d.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label:            desc.Name,
		Size:             uint64(desc.Size),
		Usage:            usage,
		MappedAtCreation: false,
	})
	if err != nil {
		return nil, err
	}
	if len(initial) > 0 {
		d.queue.WriteBuffer(raw, 0, initial)
	}
	return &buffer{owner: d, desc: desc, raw: raw}, nil
}

func (d *device) Release() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.device != nil {
		d.device.Release()
		d.device = nil
	}
	if d.adapter != nil {
		d.adapter.Release()
		d.adapter = nil
	}
	if d.instance != nil {
		d.instance.Release()
		d.instance = nil
	}
}

// buffer wraps a device-owned wgpu buffer.
type buffer struct {
	owner *device
	desc  gfx.BufferDesc
	raw   *wgpu.Buffer
}

var _ gfx.Buffer = &buffer{}

func (b *buffer) Desc() gfx.BufferDesc {
	return b.desc
}

func (b *buffer) Release() {
	if b.raw != nil {
		b.raw.Release()
		b.raw = nil
	}
}
