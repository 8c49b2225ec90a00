// Package gfx defines the backend-neutral graphics contracts: the Device,
// Context, and Swapchain triple produced by a backend Factory, plus the
// buffer, pipeline-state, and resource-binding objects created from them.
// Concrete backends live in subpackages and register themselves with the
// factory registry in this package.
package gfx

import (
	"github.com/go-gl/glfw/v3.3/glfw"
)

// DeviceType identifies one of the mutually exclusive GPU backends.
type DeviceType int

const (
	// DeviceTypeUndefined is the zero value; Select treats it as the platform default.
	DeviceTypeUndefined DeviceType = iota

	// DeviceTypeWebGPU selects the wgpu-native backend (D3D12/Vulkan/Metal underneath).
	DeviceTypeWebGPU

	// DeviceTypeOpenGL selects the desktop OpenGL 4.6 core-profile backend.
	DeviceTypeOpenGL

	// DeviceTypeVulkan selects a native Vulkan backend. No factory for it ships
	// in this build, so selecting it reports UnsupportedBackendError.
	DeviceTypeVulkan

	// DeviceTypeNull selects the headless bookkeeping backend used by tests and CI.
	DeviceTypeNull
)

// String returns the lowercase identifier used in configuration and logs.
func (t DeviceType) String() string {
	switch t {
	case DeviceTypeWebGPU:
		return "webgpu"
	case DeviceTypeOpenGL:
		return "opengl"
	case DeviceTypeVulkan:
		return "vulkan"
	case DeviceTypeNull:
		return "null"
	default:
		return "undefined"
	}
}

// DefaultDeviceType returns the preferred backend for the current platform.
func DefaultDeviceType() DeviceType {
	return DeviceTypeWebGPU
}

// NativeWindow is the opaque native window handle handed to backend factories.
// A zero value (nil GLFW window) is only acceptable to the null backend;
// surface-backed factories report SwapchainCreationError for it.
type NativeWindow struct {
	GLFW *glfw.Window
}

// Valid reports whether the handle refers to a real platform window.
func (w NativeWindow) Valid() bool {
	return w.GLFW != nil
}

// TextureFormat identifies a color or depth buffer pixel format.
type TextureFormat int

const (
	FormatUnknown TextureFormat = iota
	FormatBGRA8Unorm
	FormatRGBA8Unorm
	FormatDepth24Plus
	FormatDepth32Float
)

// String returns the lowercase format name for logs and error messages.
func (f TextureFormat) String() string {
	switch f {
	case FormatBGRA8Unorm:
		return "bgra8-unorm"
	case FormatRGBA8Unorm:
		return "rgba8-unorm"
	case FormatDepth24Plus:
		return "depth24-plus"
	case FormatDepth32Float:
		return "depth32-float"
	default:
		return "unknown"
	}
}

// PrimitiveTopology selects how the vertex stream is assembled into primitives.
type PrimitiveTopology int

const (
	TopologyTriangleList PrimitiveTopology = iota
	TopologyTriangleStrip
	TopologyLineList
	TopologyPointList
)

// CullMode selects which triangle winding is discarded by the rasterizer.
type CullMode int

const (
	CullNone CullMode = iota
	CullBack
	CullFront
)

// ValueType identifies the scalar type of vertex attributes and index buffers.
type ValueType int

const (
	ValueFloat32 ValueType = iota
	ValueUint32
	ValueUint16
)

// Size returns the size of one scalar of this type in bytes.
func (v ValueType) Size() int {
	switch v {
	case ValueUint16:
		return 2
	default:
		return 4
	}
}

// BufferUsage identifies what a buffer is bound as.
type BufferUsage int

const (
	UsageVertex BufferUsage = iota
	UsageIndex
	UsageUniform
)

// BufferAccess identifies the update policy of a buffer.
type BufferAccess int

const (
	// AccessImmutable buffers are fully initialized at creation and can never
	// be rewritten. Mapping or writing one is a contract violation reported
	// as ImmutableBufferWriteError.
	AccessImmutable BufferAccess = iota

	// AccessDynamic buffers are rewritten by the owning thread via the scoped
	// map/write/close pattern; each write discards the previous contents.
	AccessDynamic
)

// ShaderStages is a bitmask of pipeline stages, used both to tag a shader
// and as resource-variable visibility.
type ShaderStages uint32

const (
	StageVertex ShaderStages = 1 << iota
	StagePixel
)

// String returns a short tag for logs and diagnostics.
func (s ShaderStages) String() string {
	switch s {
	case StageVertex:
		return "vertex"
	case StagePixel:
		return "pixel"
	case StageVertex | StagePixel:
		return "vertex|pixel"
	default:
		return "none"
	}
}

// LayoutElement describes one vertex attribute in the pipeline's input layout.
type LayoutElement struct {
	// Slot is the attribute location the element is bound to.
	Slot int
	// NumComponents is the number of scalars per vertex (1-4).
	NumComponents int
	// Type is the scalar type of each component.
	Type ValueType
	// PerInstance advances the attribute once per instance instead of per vertex.
	PerInstance bool
}

// ShaderDesc is the opaque, pre-compiled input consumed by backends when
// building a pipeline. Source text is carried per language because the Go
// backend ecosystem has no single shader language: the WebGPU and null
// backends consume WGSL (optionally pre-validated to SPIRV by the shader
// service), while the OpenGL backend consumes GLSL.
type ShaderDesc struct {
	Name       string
	Stage      ShaderStages
	EntryPoint string
	WGSL       string
	GLSL       string
	// SPIRV holds the shader-service compilation output when the WGSL source
	// has been validated; backends that consume source text ignore it.
	SPIRV []byte
}

// VariableDesc declares one named shader resource slot (a uniform buffer
// binding) that a ShaderResourceBinding created from the pipeline can bind
// buffers to.
type VariableDesc struct {
	Name       string
	Binding    uint32
	Visibility ShaderStages
}

// PipelineStateDesc fully describes an immutable graphics pipeline: the
// shader pair, fixed-function state, vertex input layout, resource variable
// declarations, and the render-target formats the pipeline renders into.
// Formats must be read from the live swapchain descriptor at build time.
type PipelineStateDesc struct {
	Name             string
	VertexShader     ShaderDesc
	PixelShader      ShaderDesc
	Topology         PrimitiveTopology
	CullMode         CullMode
	DepthTestEnabled bool
	InputLayout      []LayoutElement
	Variables        []VariableDesc
	ColorFormat      TextureFormat
	DepthFormat      TextureFormat
}

// BufferDesc describes a GPU buffer at creation time.
type BufferDesc struct {
	Name   string
	Usage  BufferUsage
	Access BufferAccess
	// Size is the buffer size in bytes. For immutable buffers it is derived
	// from the initial data when zero.
	Size int
}

// SwapchainDesc reports the live state of a swapchain: current backing-buffer
// dimensions, queryable color/depth formats, and the buffer count negotiated
// at creation.
type SwapchainDesc struct {
	Width       int
	Height      int
	ColorFormat TextureFormat
	DepthFormat TextureFormat
	BufferCount int
}

// CreateInfo is the input to Factory.CreateDeviceAndSwapchain.
type CreateInfo struct {
	Window NativeWindow
	Width  int
	Height int
	// BufferCount is the requested number of swapchain buffers; zero means
	// the caller-side default (2, or 3 where the compositor needs it).
	BufferCount int
	// Label names the device for diagnostics.
	Label string
}

// DrawAttribs describes a non-indexed draw call.
type DrawAttribs struct {
	NumVertices int
}

// DrawIndexedAttribs describes an indexed draw call.
type DrawIndexedAttribs struct {
	NumIndices int
	IndexType  ValueType
}

// RenderTarget is an opaque view of a swapchain color or depth buffer.
// Views are invalidated by Swapchain.Resize and must be re-fetched from the
// swapchain every frame, never cached across ticks.
type RenderTarget interface {
	// Valid reports whether the view refers to a live backing buffer.
	Valid() bool
}

// Factory creates the Device/Context/Swapchain triple for one backend.
// Implementations are registered with Register, typically from an init()
// function in the backend package.
type Factory interface {
	// CreateDeviceAndSwapchain performs the backend-specific device and
	// surface negotiation. On success the returned swapchain has non-nil
	// current color and depth views and queryable formats, and the context
	// is immediately valid for command submission. On failure it returns
	// BackendInitError (device/context negotiation failed) or
	// SwapchainCreationError (surface binding failed); never a partial triple.
	//
	// Parameters:
	//   - info: native window handle, initial dimensions, and buffer count
	//
	// Returns:
	//   - Device: the resource-creation authority
	//   - Context: the command-submission authority
	//   - Swapchain: the presentable surface
	//   - error: a typed error if any stage of negotiation fails
	CreateDeviceAndSwapchain(info CreateInfo) (Device, Context, Swapchain, error)
}

// Device is the sole resource-creation authority for one backend instance.
// Objects created from a Device are only valid for that Device; backends
// reject foreign-device objects rather than silently tolerating them.
type Device interface {
	// Type returns the backend this device belongs to.
	Type() DeviceType

	// CreateBuffer creates a vertex, index, or uniform buffer.
	// Immutable buffers require non-empty initial data; dynamic buffers
	// require a positive desc.Size and ignore initial data.
	//
	// Parameters:
	//   - desc: buffer name, usage, access policy, and size
	//   - initial: initial contents for immutable buffers
	//
	// Returns:
	//   - Buffer: the created buffer
	//   - error: an error if the description is invalid or allocation fails
	CreateBuffer(desc BufferDesc, initial []byte) (Buffer, error)

	// CreateGraphicsPipeline builds an immutable pipeline state from the
	// given description. Shader compilation failures are reported as
	// ShaderCompilationError; incompatible stage interfaces or program link
	// failures as PipelineLinkError.
	//
	// Parameters:
	//   - desc: the complete pipeline description including live swapchain formats
	//
	// Returns:
	//   - PipelineState: the immutable pipeline state
	//   - error: a typed error if compilation or linking fails
	CreateGraphicsPipeline(desc PipelineStateDesc) (PipelineState, error)

	// Release destroys the device. No object created from it may be used afterwards.
	Release()
}

// Context is the sole command-submission authority for one backend instance.
// One context exists per session; all methods must be called from the thread
// that owns the session.
type Context interface {
	// SetRenderTargets binds the color and depth views commands render into.
	// Views must be the current-frame views fetched from the swapchain.
	SetRenderTargets(color, depth RenderTarget)

	// ClearRenderTarget clears the bound color target to the given RGBA color.
	ClearRenderTarget(rt RenderTarget, rgba [4]float32)

	// ClearDepthStencil clears the bound depth target to the given depth and stencil values.
	ClearDepthStencil(rt RenderTarget, depth float32, stencil uint32)

	// SetPipelineState binds the pipeline used by subsequent draws.
	SetPipelineState(ps PipelineState)

	// SetVertexBuffer binds a vertex buffer at the given slot.
	SetVertexBuffer(slot int, buf Buffer)

	// SetIndexBuffer binds the index buffer for DrawIndexed.
	SetIndexBuffer(buf Buffer)

	// CommitResources makes the binding's buffer assignments visible to the
	// bound pipeline. Must be called before each draw that uses bound resources.
	CommitResources(srb ShaderResourceBinding)

	// Draw submits one non-indexed draw call.
	Draw(attribs DrawAttribs)

	// DrawIndexed submits one indexed draw call using the bound index buffer.
	DrawIndexed(attribs DrawIndexedAttribs)

	// MapBuffer acquires a scoped write view of a dynamic buffer, discarding
	// its previous contents. The returned range must be closed (typically via
	// defer) to commit the write; the buffer's old contents are no longer
	// observable afterwards. Mapping an immutable buffer returns
	// ImmutableBufferWriteError.
	//
	// Parameters:
	//   - buf: the dynamic buffer to map
	//
	// Returns:
	//   - *MappedRange: the write view covering the full buffer size
	//   - error: ImmutableBufferWriteError for immutable buffers
	MapBuffer(buf Buffer) (*MappedRange, error)

	// WriteBuffer replaces the full contents of a dynamic buffer in one call.
	// Writing an immutable buffer returns ImmutableBufferWriteError.
	WriteBuffer(buf Buffer, data []byte) error

	// Flush submits any recorded commands without presenting.
	Flush()

	// Release destroys the context.
	Release()
}

// Swapchain is the presentable surface abstraction: it owns the color and
// depth backing buffers and supports present-with-interval and in-place
// resizing. Resizing invalidates previously fetched views.
type Swapchain interface {
	// Desc reports the current dimensions, formats, and buffer count.
	Desc() SwapchainDesc

	// CurrentBackBuffer returns the current frame's color view.
	// Must be re-fetched every frame.
	CurrentBackBuffer() RenderTarget

	// DepthBuffer returns the current frame's depth view.
	// Must be re-fetched every frame.
	DepthBuffer() RenderTarget

	// Resize recreates the backing buffers at the new dimensions.
	// Both dimensions must be positive; callers are responsible for clamping.
	Resize(width, height int) error

	// Present presents the current back buffer with the given present
	// interval (0 = immediate, 1 = vsync). May block until the compositor
	// accepts the frame.
	Present(interval int) error

	// Release destroys the swapchain and its backing buffers.
	Release()
}

// Buffer is a device-owned GPU buffer. Immutable buffers never change after
// creation; dynamic buffers are rewritten through Context.MapBuffer.
type Buffer interface {
	// Desc returns the creation description, including the access policy.
	Desc() BufferDesc

	// Release destroys the buffer.
	Release()
}

// PipelineState is an immutable compiled pipeline. Rebuilding requires
// constructing a new object; there is no in-place mutation.
type PipelineState interface {
	// Desc returns the description the pipeline was built from.
	Desc() PipelineStateDesc

	// CreateResourceBinding creates a ShaderResourceBinding for this
	// pipeline's declared variables. The binding is only valid for the
	// pipeline that created it.
	CreateResourceBinding() (ShaderResourceBinding, error)

	// Release destroys the pipeline state.
	Release()
}

// ShaderResourceBinding associates named shader variables with concrete
// buffer instances for one PipelineState.
type ShaderResourceBinding interface {
	// SetBuffer binds a buffer to the named variable. Returns an error if the
	// pipeline declares no variable with that name or the buffer belongs to a
	// different device.
	SetBuffer(name string, buf Buffer) error

	// Release destroys the binding.
	Release()
}
