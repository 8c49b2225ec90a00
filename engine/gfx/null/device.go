package null

import (
	"fmt"
	"strings"
	"sync"

	"github.com/pluscraft/pluscraft/engine/gfx"
)

// device is the headless resource-creation authority. It tracks how many of
// its objects are still alive so release-order mistakes show up in tests.
type device struct {
	mu       sync.Mutex
	label    string
	released bool

	buffersAlive   int
	pipelinesAlive int
}

var _ gfx.Device = &device{}

func (d *device) Type() gfx.DeviceType {
	return gfx.DeviceTypeNull
}

func (d *device) CreateBuffer(desc gfx.BufferDesc, initial []byte) (gfx.Buffer, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.released {
		return nil, fmt.Errorf("null: device %q is released", d.label)
	}

	switch desc.Access {
	case gfx.AccessImmutable:
		if len(initial) == 0 {
			return nil, fmt.Errorf("null: immutable buffer %q requires non-empty initial data", desc.Name)
		}
		desc.Size = len(initial)
	case gfx.AccessDynamic:
		if desc.Size <= 0 {
			return nil, fmt.Errorf("null: dynamic buffer %q requires a positive size", desc.Name)
		}
	default:
		return nil, fmt.Errorf("null: buffer %q has unknown access policy %d", desc.Name, desc.Access)
	}

	buf := &buffer{owner: d, desc: desc, data: make([]byte, desc.Size)}
	copy(buf.data, initial)
	d.buffersAlive++
	return buf, nil
}

func (d *device) CreateGraphicsPipeline(desc gfx.PipelineStateDesc) (gfx.PipelineState, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.released {
		return nil, fmt.Errorf("null: device %q is released", d.label)
	}

	if err := checkShader(desc.VertexShader, gfx.StageVertex); err != nil {
		return nil, err
	}
	if err := checkShader(desc.PixelShader, gfx.StagePixel); err != nil {
		return nil, err
	}
	if desc.ColorFormat == gfx.FormatUnknown {
		return nil, &gfx.PipelineLinkError{
			Name:        desc.Name,
			Diagnostics: "color format is unknown; pipeline formats must come from the live swapchain",
		}
	}
	if desc.DepthTestEnabled && desc.DepthFormat == gfx.FormatUnknown {
		return nil, &gfx.PipelineLinkError{
			Name:        desc.Name,
			Diagnostics: "depth test enabled but depth format is unknown",
		}
	}

	d.pipelinesAlive++
	return &pipelineState{owner: d, desc: desc}, nil
}

func (d *device) Release() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.released = true
}

// checkShader mirrors what a real compiler rejects up front: a stage with no
// consumable source, or an entry point that does not appear in it.
func checkShader(sd gfx.ShaderDesc, stage gfx.ShaderStages) error {
	if sd.WGSL == "" && len(sd.SPIRV) == 0 {
		return &gfx.ShaderCompilationError{
			Name:        sd.Name,
			Stage:       stage,
			Diagnostics: "no WGSL source or SPIRV module provided",
		}
	}
	if sd.WGSL != "" && sd.EntryPoint != "" && !strings.Contains(sd.WGSL, "fn "+sd.EntryPoint) {
		return &gfx.ShaderCompilationError{
			Name:        sd.Name,
			Stage:       stage,
			Diagnostics: fmt.Sprintf("entry point %q not found in source", sd.EntryPoint),
		}
	}
	return nil
}

// buffer is a device-owned byte slice with the declared access policy.
type buffer struct {
	mu       sync.Mutex
	owner    *device
	desc     gfx.BufferDesc
	data     []byte
	released bool
}

var _ gfx.Buffer = &buffer{}

func (b *buffer) Desc() gfx.BufferDesc {
	return b.desc
}

func (b *buffer) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.released {
		return
	}
	b.released = true
	b.owner.mu.Lock()
	b.owner.buffersAlive--
	b.owner.mu.Unlock()
}

// writeAll replaces the buffer contents. Callers have already checked the
// access policy.
func (b *buffer) writeAll(data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.released {
		return fmt.Errorf("null: buffer %q is released", b.desc.Name)
	}
	if len(data) > len(b.data) {
		return fmt.Errorf("null: write of %d bytes exceeds buffer %q size %d", len(data), b.desc.Name, len(b.data))
	}
	copy(b.data, data)
	return nil
}

// contents returns a copy of the current buffer bytes, for inspection.
func (b *buffer) contents() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]byte, len(b.data))
	copy(out, b.data)
	return out
}

// pipelineState is an immutable compiled pipeline description.
type pipelineState struct {
	owner    *device
	desc     gfx.PipelineStateDesc
	released bool
}

var _ gfx.PipelineState = &pipelineState{}

func (p *pipelineState) Desc() gfx.PipelineStateDesc {
	return p.desc
}

func (p *pipelineState) CreateResourceBinding() (gfx.ShaderResourceBinding, error) {
	if p.released {
		return nil, fmt.Errorf("null: pipeline %q is released", p.desc.Name)
	}
	declared := make(map[string]gfx.VariableDesc, len(p.desc.Variables))
	for _, v := range p.desc.Variables {
		declared[v.Name] = v
	}
	return &resourceBinding{pipeline: p, declared: declared, bound: make(map[string]*buffer)}, nil
}

func (p *pipelineState) Release() {
	if p.released {
		return
	}
	p.released = true
	p.owner.mu.Lock()
	p.owner.pipelinesAlive--
	p.owner.mu.Unlock()
}

// resourceBinding maps declared variable names to bound buffers.
type resourceBinding struct {
	pipeline *pipelineState
	declared map[string]gfx.VariableDesc
	bound    map[string]*buffer
}

var _ gfx.ShaderResourceBinding = &resourceBinding{}

func (r *resourceBinding) SetBuffer(name string, buf gfx.Buffer) error {
	if _, ok := r.declared[name]; !ok {
		return fmt.Errorf("null: pipeline %q declares no variable %q", r.pipeline.desc.Name, name)
	}
	nb, ok := buf.(*buffer)
	if !ok || nb.owner != r.pipeline.owner {
		return fmt.Errorf("null: buffer bound to %q was created by a different device", name)
	}
	r.bound[name] = nb
	return nil
}

func (r *resourceBinding) Release() {
	r.bound = nil
}
