// Package pipeline builds immutable graphics pipeline states. A Builder
// captures everything about a pipeline except the render-target formats;
// those are read from the live swapchain at build time so the pipeline always
// matches the surface it renders into.
package pipeline

import (
	"errors"

	"github.com/pluscraft/pluscraft/engine/gfx"
	"github.com/pluscraft/pluscraft/engine/shader"
)

// builder is the implementation of the Builder interface.
type builder struct {
	name             string
	vertexShader     shader.Shader
	pixelShader      shader.Shader
	topology         gfx.PrimitiveTopology
	cullMode         gfx.CullMode
	depthTestEnabled bool
	inputLayout      []gfx.LayoutElement
	variables        []gfx.VariableDesc
	library          shader.Library
}

// Builder assembles a pipeline description and creates the immutable pipeline
// state from it. Builders are reusable: building twice against the same
// swapchain state produces identical descriptions.
type Builder interface {
	// Build compiles the shaders, reads the color and depth formats from the
	// swapchain's current descriptor, and creates the pipeline state on the
	// device.
	//
	// Parameters:
	//   - device: the device that owns the resulting pipeline
	//   - swapchain: the live swapchain whose formats the pipeline targets
	//
	// Returns:
	//   - gfx.PipelineState: the immutable pipeline state
	//   - error: a shader compilation, link, or validation error
	Build(device gfx.Device, swapchain gfx.Swapchain) (gfx.PipelineState, error)
}

var _ Builder = &builder{}

// BuilderOption is a functional option used to configure a Builder during construction.
type BuilderOption func(*builder)

// WithVertexShader sets the vertex shader for this pipeline.
//
// Parameters:
//   - s: the vertex shader to use for this pipeline
//
// Returns:
//   - BuilderOption: a function that sets the vertex shader for this pipeline
func WithVertexShader(s shader.Shader) BuilderOption {
	return func(b *builder) {
		b.vertexShader = s
	}
}

// WithPixelShader sets the pixel shader for this pipeline.
//
// Parameters:
//   - s: the pixel shader to use for this pipeline
//
// Returns:
//   - BuilderOption: a function that sets the pixel shader for this pipeline
func WithPixelShader(s shader.Shader) BuilderOption {
	return func(b *builder) {
		b.pixelShader = s
	}
}

// WithTopology sets the primitive topology for this pipeline.
//
// Parameters:
//   - topology: the primitive topology to use for this pipeline
//
// Returns:
//   - BuilderOption: a function that sets the primitive topology for this pipeline
func WithTopology(topology gfx.PrimitiveTopology) BuilderOption {
	return func(b *builder) {
		b.topology = topology
	}
}

// WithCullMode sets the cull mode for this pipeline.
//
// Parameters:
//   - mode: the cull mode to use for this pipeline
//
// Returns:
//   - BuilderOption: a function that sets the cull mode for this pipeline
func WithCullMode(mode gfx.CullMode) BuilderOption {
	return func(b *builder) {
		b.cullMode = mode
	}
}

// WithDepthTestEnabled sets whether depth testing is enabled for this pipeline.
//
// Parameters:
//   - enabled: a boolean indicating whether depth testing should be enabled
//
// Returns:
//   - BuilderOption: a function that sets the depth test enabled state for this pipeline
func WithDepthTestEnabled(enabled bool) BuilderOption {
	return func(b *builder) {
		b.depthTestEnabled = enabled
	}
}

// WithInputLayout sets the vertex input layout for this pipeline.
//
// Parameters:
//   - elements: the vertex attribute elements in declaration order
//
// Returns:
//   - BuilderOption: a function that sets the input layout for this pipeline
func WithInputLayout(elements ...gfx.LayoutElement) BuilderOption {
	return func(b *builder) {
		b.inputLayout = elements
	}
}

// WithVariable declares one named shader resource variable on this pipeline.
//
// Parameters:
//   - name: the variable name as it appears in the shader
//   - binding: the binding index the variable occupies
//   - visibility: the stages the variable is visible to
//
// Returns:
//   - BuilderOption: a function that appends the variable declaration
func WithVariable(name string, binding uint32, visibility gfx.ShaderStages) BuilderOption {
	return func(b *builder) {
		b.variables = append(b.variables, gfx.VariableDesc{Name: name, Binding: binding, Visibility: visibility})
	}
}

// WithLibrary sets the shader compile service the builder uses. Sharing one
// library across builders shares its compilation cache.
//
// Parameters:
//   - lib: the shader library to compile sources with
//
// Returns:
//   - BuilderOption: a function that sets the shader library
func WithLibrary(lib shader.Library) BuilderOption {
	return func(b *builder) {
		b.library = lib
	}
}

// NewBuilder creates a Builder with the given name and all options applied.
// Defaults: triangle-list topology, back-face culling, depth test enabled.
//
// Parameters:
//   - name: the pipeline name used for diagnostics
//   - opts: configuration options
//
// Returns:
//   - Builder: the configured builder
func NewBuilder(name string, opts ...BuilderOption) Builder {
	b := &builder{
		name:             name,
		topology:         gfx.TopologyTriangleList,
		cullMode:         gfx.CullBack,
		depthTestEnabled: true,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.library == nil {
		b.library = shader.NewLibrary()
	}
	return b
}

func (b *builder) Build(device gfx.Device, swapchain gfx.Swapchain) (gfx.PipelineState, error) {
	desc, err := b.describe(swapchain)
	if err != nil {
		return nil, err
	}
	return device.CreateGraphicsPipeline(desc)
}

// describe resolves the full pipeline description against the swapchain's
// current formats.
func (b *builder) describe(swapchain gfx.Swapchain) (gfx.PipelineStateDesc, error) {
	if b.vertexShader == nil || b.pixelShader == nil {
		return gfx.PipelineStateDesc{}, errors.New("pipeline: both vertex and pixel shaders must be set")
	}

	vsDesc, err := b.library.Compile(b.vertexShader)
	if err != nil {
		return gfx.PipelineStateDesc{}, err
	}
	psDesc, err := b.library.Compile(b.pixelShader)
	if err != nil {
		return gfx.PipelineStateDesc{}, err
	}

	scDesc := swapchain.Desc()
	return gfx.PipelineStateDesc{
		Name:             b.name,
		VertexShader:     vsDesc,
		PixelShader:      psDesc,
		Topology:         b.topology,
		CullMode:         b.cullMode,
		DepthTestEnabled: b.depthTestEnabled,
		InputLayout:      b.inputLayout,
		Variables:        b.variables,
		ColorFormat:      scDesc.ColorFormat,
		DepthFormat:      scDesc.DepthFormat,
	}, nil
}
