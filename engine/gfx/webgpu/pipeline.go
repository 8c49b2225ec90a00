package webgpu

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/pluscraft/pluscraft/engine/gfx"
)

func toTextureFormat(f gfx.TextureFormat) wgpu.TextureFormat {
	switch f {
	case gfx.FormatBGRA8Unorm:
		return wgpu.TextureFormatBGRA8Unorm
	case gfx.FormatRGBA8Unorm:
		return wgpu.TextureFormatRGBA8Unorm
	case gfx.FormatDepth24Plus:
		return wgpu.TextureFormatDepth24Plus
	case gfx.FormatDepth32Float:
		return wgpu.TextureFormatDepth32Float
	default:
		return wgpu.TextureFormatUndefined
	}
}

func fromTextureFormat(f wgpu.TextureFormat) gfx.TextureFormat {
	switch f {
	case wgpu.TextureFormatBGRA8Unorm:
		return gfx.FormatBGRA8Unorm
	case wgpu.TextureFormatRGBA8Unorm:
		return gfx.FormatRGBA8Unorm
	case wgpu.TextureFormatDepth24Plus:
		return gfx.FormatDepth24Plus
	case wgpu.TextureFormatDepth32Float:
		return gfx.FormatDepth32Float
	default:
		return gfx.FormatUnknown
	}
}

func toTopology(t gfx.PrimitiveTopology) wgpu.PrimitiveTopology {
	switch t {
	case gfx.TopologyTriangleStrip:
		return wgpu.PrimitiveTopologyTriangleStrip
	case gfx.TopologyLineList:
		return wgpu.PrimitiveTopologyLineList
	case gfx.TopologyPointList:
		return wgpu.PrimitiveTopologyPointList
	default:
		return wgpu.PrimitiveTopologyTriangleList
	}
}

func toCullMode(m gfx.CullMode) wgpu.CullMode {
	switch m {
	case gfx.CullBack:
		return wgpu.CullModeBack
	case gfx.CullFront:
		return wgpu.CullModeFront
	default:
		return wgpu.CullModeNone
	}
}

func toShaderStage(s gfx.ShaderStages) wgpu.ShaderStage {
	var out wgpu.ShaderStage
	if s&gfx.StageVertex != 0 {
		out |= wgpu.ShaderStageVertex
	}
	if s&gfx.StagePixel != 0 {
		out |= wgpu.ShaderStageFragment
	}
	return out
}

func vertexFormat(el gfx.LayoutElement) (wgpu.VertexFormat, error) {
	switch el.Type {
	case gfx.ValueFloat32:
		switch el.NumComponents {
		case 1:
			return wgpu.VertexFormatFloat32, nil
		case 2:
			return wgpu.VertexFormatFloat32x2, nil
		case 3:
			return wgpu.VertexFormatFloat32x3, nil
		case 4:
			return wgpu.VertexFormatFloat32x4, nil
		}
	case gfx.ValueUint32:
		switch el.NumComponents {
		case 1:
			return wgpu.VertexFormatUint32, nil
		case 2:
			return wgpu.VertexFormatUint32x2, nil
		case 3:
			return wgpu.VertexFormatUint32x3, nil
		case 4:
			return wgpu.VertexFormatUint32x4, nil
		}
	}
	return 0, fmt.Errorf("webgpu: unsupported layout element type %d x%d", el.Type, el.NumComponents)
}

// vertexBufferLayout builds one interleaved vertex buffer layout from the
// pipeline's input layout. Attribute offsets accumulate in declaration order.
func vertexBufferLayout(elements []gfx.LayoutElement) (wgpu.VertexBufferLayout, error) {
	attributes := make([]wgpu.VertexAttribute, 0, len(elements))
	offset := uint64(0)
	for _, el := range elements {
		format, err := vertexFormat(el)
		if err != nil {
			return wgpu.VertexBufferLayout{}, err
		}
		attributes = append(attributes, wgpu.VertexAttribute{
			ShaderLocation: uint32(el.Slot),
			Offset:         offset,
			Format:         format,
		})
		offset += uint64(el.NumComponents * el.Type.Size())
	}
	return wgpu.VertexBufferLayout{
		ArrayStride: offset,
		StepMode:    wgpu.VertexStepModeVertex,
		Attributes:  attributes,
	}, nil
}

func (d *device) CreateGraphicsPipeline(desc gfx.PipelineStateDesc) (gfx.PipelineState, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	vs, err := d.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: desc.VertexShader.Name,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: desc.VertexShader.WGSL,
		},
	})
	if err != nil {
		return nil, &gfx.ShaderCompilationError{Name: desc.VertexShader.Name, Stage: gfx.StageVertex, Diagnostics: err.Error()}
	}
	fs, err := d.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: desc.PixelShader.Name,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: desc.PixelShader.WGSL,
		},
	})
	if err != nil {
		return nil, &gfx.ShaderCompilationError{Name: desc.PixelShader.Name, Stage: gfx.StagePixel, Diagnostics: err.Error()}
	}

	var bindGroupLayout *wgpu.BindGroupLayout
	var bindGroupLayouts []*wgpu.BindGroupLayout
	if len(desc.Variables) > 0 {
		entries := make([]wgpu.BindGroupLayoutEntry, len(desc.Variables))
		for i, v := range desc.Variables {
			entries[i] = wgpu.BindGroupLayoutEntry{
				Binding:    v.Binding,
				Visibility: toShaderStage(v.Visibility),
				Buffer: wgpu.BufferBindingLayout{
					Type: wgpu.BufferBindingTypeUniform,
				},
			}
		}
		bindGroupLayout, err = d.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
			Label:   desc.Name + " Bind Group Layout",
			Entries: entries,
		})
		if err != nil {
			return nil, &gfx.PipelineLinkError{Name: desc.Name, Diagnostics: err.Error()}
		}
		bindGroupLayouts = []*wgpu.BindGroupLayout{bindGroupLayout}
	}

	pipelineLayout, err := d.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            desc.Name,
		BindGroupLayouts: bindGroupLayouts,
	})
	if err != nil {
		return nil, &gfx.PipelineLinkError{Name: desc.Name, Diagnostics: err.Error()}
	}

	var vertexBuffers []wgpu.VertexBufferLayout
	if len(desc.InputLayout) > 0 {
		layout, layoutErr := vertexBufferLayout(desc.InputLayout)
		if layoutErr != nil {
			return nil, &gfx.PipelineLinkError{Name: desc.Name, Diagnostics: layoutErr.Error()}
		}
		vertexBuffers = []wgpu.VertexBufferLayout{layout}
	}

	depthCompare := wgpu.CompareFunctionLess
	if !desc.DepthTestEnabled {
		depthCompare = wgpu.CompareFunctionAlways
	}

	created, err := d.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  desc.Name + " Render Pipeline",
		Layout: pipelineLayout,
		Vertex: wgpu.VertexState{
			Module:     vs,
			EntryPoint: desc.VertexShader.EntryPoint,
			Buffers:    vertexBuffers,
		},
		Fragment: &wgpu.FragmentState{
			Module:     fs,
			EntryPoint: desc.PixelShader.EntryPoint,
			Targets: []wgpu.ColorTargetState{
				{
					Format:    toTextureFormat(desc.ColorFormat),
					WriteMask: wgpu.ColorWriteMaskAll,
				},
			},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  toTopology(desc.Topology),
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  toCullMode(desc.CullMode),
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
		DepthStencil: &wgpu.DepthStencilState{
			Format:            toTextureFormat(desc.DepthFormat),
			DepthWriteEnabled: desc.DepthTestEnabled,
			DepthCompare:      depthCompare,
			StencilFront: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
			StencilBack: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
		},
	})
	if err != nil {
		return nil, &gfx.PipelineLinkError{Name: desc.Name, Diagnostics: err.Error()}
	}

	return &pipelineState{owner: d, desc: desc, raw: created, bindGroupLayout: bindGroupLayout}, nil
}

// pipelineState wraps a compiled wgpu render pipeline together with the bind
// group layout its resource bindings are created from.
type pipelineState struct {
	owner           *device
	desc            gfx.PipelineStateDesc
	raw             *wgpu.RenderPipeline
	bindGroupLayout *wgpu.BindGroupLayout
}

var _ gfx.PipelineState = &pipelineState{}

func (p *pipelineState) Desc() gfx.PipelineStateDesc {
	return p.desc
}

func (p *pipelineState) CreateResourceBinding() (gfx.ShaderResourceBinding, error) {
	declared := make(map[string]gfx.VariableDesc, len(p.desc.Variables))
	for _, v := range p.desc.Variables {
		declared[v.Name] = v
	}
	return &resourceBinding{pipeline: p, declared: declared, bound: make(map[string]*buffer)}, nil
}

func (p *pipelineState) Release() {
	if p.raw != nil {
		p.raw.Release()
		p.raw = nil
	}
	if p.bindGroupLayout != nil {
		p.bindGroupLayout.Release()
		p.bindGroupLayout = nil
	}
}

// resourceBinding maps declared variable names to buffers and materializes a
// wgpu bind group on demand. The bind group is rebuilt whenever a binding
// changes and cached until then.
type resourceBinding struct {
	pipeline *pipelineState
	declared map[string]gfx.VariableDesc
	bound    map[string]*buffer

	bindGroup *wgpu.BindGroup
	dirty     bool
}

var _ gfx.ShaderResourceBinding = &resourceBinding{}

func (r *resourceBinding) SetBuffer(name string, buf gfx.Buffer) error {
	if _, ok := r.declared[name]; !ok {
		return fmt.Errorf("webgpu: pipeline %q declares no variable %q", r.pipeline.desc.Name, name)
	}
	wb, ok := buf.(*buffer)
	if !ok || wb.owner != r.pipeline.owner {
		return fmt.Errorf("webgpu: buffer bound to %q was created by a different device", name)
	}
	r.bound[name] = wb
	r.dirty = true
	return nil
}

// materialize creates or refreshes the wgpu bind group from the current
// buffer assignments.
func (r *resourceBinding) materialize() (*wgpu.BindGroup, error) {
	if r.bindGroup != nil && !r.dirty {
		return r.bindGroup, nil
	}
	if r.pipeline.bindGroupLayout == nil {
		return nil, nil
	}

	entries := make([]wgpu.BindGroupEntry, 0, len(r.bound))
	for name, v := range r.declared {
		buf, ok := r.bound[name]
		if !ok {
			return nil, fmt.Errorf("webgpu: variable %q has no buffer bound", name)
		}
		entries = append(entries, wgpu.BindGroupEntry{
			Binding: v.Binding,
			Buffer:  buf.raw,
			Offset:  0,
			Size:    wgpu.WholeSize,
		})
	}

	bg, err := r.pipeline.owner.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   r.pipeline.desc.Name + " Bind Group",
		Layout:  r.pipeline.bindGroupLayout,
		Entries: entries,
	})
	if err != nil {
		return nil, err
	}
	if r.bindGroup != nil {
		r.bindGroup.Release()
	}
	r.bindGroup = bg
	r.dirty = false
	return bg, nil
}

func (r *resourceBinding) Release() {
	if r.bindGroup != nil {
		r.bindGroup.Release()
		r.bindGroup = nil
	}
	r.bound = nil
}
