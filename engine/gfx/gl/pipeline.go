package glbackend

import (
	"fmt"
	"strings"

	"github.com/go-gl/gl/v4.6-core/gl"

	"github.com/pluscraft/pluscraft/engine/gfx"
)

func glTopology(t gfx.PrimitiveTopology) uint32 {
	switch t {
	case gfx.TopologyTriangleStrip:
		return gl.TRIANGLE_STRIP
	case gfx.TopologyLineList:
		return gl.LINES
	case gfx.TopologyPointList:
		return gl.POINTS
	default:
		return gl.TRIANGLES
	}
}

func glScalarType(v gfx.ValueType) uint32 {
	switch v {
	case gfx.ValueUint32:
		return gl.UNSIGNED_INT
	case gfx.ValueUint16:
		return gl.UNSIGNED_SHORT
	default:
		return gl.FLOAT
	}
}

func (d *device) CreateGraphicsPipeline(desc gfx.PipelineStateDesc) (gfx.PipelineState, error) {
	if d.released {
		return nil, fmt.Errorf("gl: device %q is released", d.label)
	}
	if desc.VertexShader.GLSL == "" {
		return nil, &gfx.ShaderCompilationError{Name: desc.VertexShader.Name, Stage: gfx.StageVertex, Diagnostics: "no GLSL source provided"}
	}
	if desc.PixelShader.GLSL == "" {
		return nil, &gfx.ShaderCompilationError{Name: desc.PixelShader.Name, Stage: gfx.StagePixel, Diagnostics: "no GLSL source provided"}
	}

	program, err := makeProgram(desc)
	if err != nil {
		return nil, err
	}

	// Bind each declared uniform block to its binding point once; frames only
	// rebind the buffer side via BindBufferBase.
	for _, v := range desc.Variables {
		idx := gl.GetUniformBlockIndex(program, gl.Str(v.Name+"\x00"))
		if idx == gl.INVALID_INDEX {
			gl.DeleteProgram(program)
			return nil, &gfx.PipelineLinkError{
				Name:        desc.Name,
				Diagnostics: fmt.Sprintf("declared variable %q has no matching uniform block", v.Name),
			}
		}
		gl.UniformBlockBinding(program, idx, v.Binding)
	}

	// The VAO carries attribute formats only; the vertex buffer is attached
	// at draw time through BindVertexBuffer.
	var vao uint32
	gl.GenVertexArrays(1, &vao)
	gl.BindVertexArray(vao)
	offset := uint32(0)
	for _, el := range desc.InputLayout {
		gl.EnableVertexAttribArray(uint32(el.Slot))
		gl.VertexAttribFormat(uint32(el.Slot), int32(el.NumComponents), glScalarType(el.Type), false, offset)
		gl.VertexAttribBinding(uint32(el.Slot), 0)
		offset += uint32(el.NumComponents * el.Type.Size())
	}
	gl.BindVertexArray(0)

	return &pipelineState{
		owner:   d,
		desc:    desc,
		program: program,
		vao:     vao,
		stride:  int32(offset),
		mode:    glTopology(desc.Topology),
	}, nil
}

func makeShader(name, src string, stage gfx.ShaderStages) (uint32, error) {
	var shaderType uint32 = gl.VERTEX_SHADER
	if stage == gfx.StagePixel {
		shaderType = gl.FRAGMENT_SHADER
	}

	sh := gl.CreateShader(shaderType)
	csrc, free := gl.Strs(src + "\x00")
	defer free()
	gl.ShaderSource(sh, 1, csrc, nil)
	gl.CompileShader(sh)

	var status int32
	gl.GetShaderiv(sh, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetShaderiv(sh, gl.INFO_LOG_LENGTH, &logLen)
		log := strings.Repeat("\x00", int(logLen))
		gl.GetShaderInfoLog(sh, logLen, nil, gl.Str(log))
		gl.DeleteShader(sh)
		return 0, &gfx.ShaderCompilationError{Name: name, Stage: stage, Diagnostics: strings.TrimRight(log, "\x00")}
	}
	return sh, nil
}

func makeProgram(desc gfx.PipelineStateDesc) (uint32, error) {
	vs, err := makeShader(desc.VertexShader.Name, desc.VertexShader.GLSL, gfx.StageVertex)
	if err != nil {
		return 0, err
	}
	fs, err := makeShader(desc.PixelShader.Name, desc.PixelShader.GLSL, gfx.StagePixel)
	if err != nil {
		gl.DeleteShader(vs)
		return 0, err
	}

	prog := gl.CreateProgram()
	gl.AttachShader(prog, vs)
	gl.AttachShader(prog, fs)
	gl.LinkProgram(prog)

	var status int32
	gl.GetProgramiv(prog, gl.LINK_STATUS, &status)
	gl.DeleteShader(vs)
	gl.DeleteShader(fs)

	if status == gl.FALSE {
		var logLen int32
		gl.GetProgramiv(prog, gl.INFO_LOG_LENGTH, &logLen)
		log := strings.Repeat("\x00", int(logLen))
		gl.GetProgramInfoLog(prog, logLen, nil, gl.Str(log))
		gl.DeleteProgram(prog)
		return 0, &gfx.PipelineLinkError{Name: desc.Name, Diagnostics: strings.TrimRight(log, "\x00")}
	}
	return prog, nil
}

// pipelineState holds the linked program and the VAO describing its input layout.
type pipelineState struct {
	owner   *device
	desc    gfx.PipelineStateDesc
	program uint32
	vao     uint32
	stride  int32
	mode    uint32
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
	if p.vao != 0 {
		gl.DeleteVertexArrays(1, &p.vao)
		p.vao = 0
	}
	if p.program != 0 {
		gl.DeleteProgram(p.program)
		p.program = 0
	}
}

// apply makes the pipeline's fixed-function state current.
func (p *pipelineState) apply() {
	gl.UseProgram(p.program)
	gl.BindVertexArray(p.vao)

	if p.desc.DepthTestEnabled {
		gl.Enable(gl.DEPTH_TEST)
		gl.DepthFunc(gl.LESS)
	} else {
		gl.Disable(gl.DEPTH_TEST)
	}

	switch p.desc.CullMode {
	case gfx.CullBack:
		gl.Enable(gl.CULL_FACE)
		gl.CullFace(gl.BACK)
	case gfx.CullFront:
		gl.Enable(gl.CULL_FACE)
		gl.CullFace(gl.FRONT)
	default:
		gl.Disable(gl.CULL_FACE)
	}
}

// resourceBinding maps declared uniform block names to buffers. Committing
// binds each buffer to the block's binding point.
type resourceBinding struct {
	pipeline *pipelineState
	declared map[string]gfx.VariableDesc
	bound    map[string]*buffer
}

var _ gfx.ShaderResourceBinding = &resourceBinding{}

func (r *resourceBinding) SetBuffer(name string, buf gfx.Buffer) error {
	if _, ok := r.declared[name]; !ok {
		return fmt.Errorf("gl: pipeline %q declares no variable %q", r.pipeline.desc.Name, name)
	}
	gb, ok := buf.(*buffer)
	if !ok || gb.owner != r.pipeline.owner {
		return fmt.Errorf("gl: buffer bound to %q was created by a different device", name)
	}
	r.bound[name] = gb
	return nil
}

func (r *resourceBinding) Release() {
	r.bound = nil
}

func (r *resourceBinding) apply() {
	for name, v := range r.declared {
		if gb, ok := r.bound[name]; ok {
			gl.BindBufferBase(gl.UNIFORM_BUFFER, v.Binding, gb.id)
		}
	}
}
