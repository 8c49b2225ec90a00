package null

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pluscraft/pluscraft/engine/gfx"
)

const testWGSL = `
@vertex fn vs_main() -> @builtin(position) vec4<f32> { return vec4<f32>(0.0); }
@fragment fn fs_main() -> @location(0) vec4<f32> { return vec4<f32>(1.0); }
`

func testPipelineDesc(sc gfx.Swapchain) gfx.PipelineStateDesc {
	scDesc := sc.Desc()
	return gfx.PipelineStateDesc{
		Name:         "test-pso",
		VertexShader: gfx.ShaderDesc{Name: "vs", Stage: gfx.StageVertex, EntryPoint: "vs_main", WGSL: testWGSL},
		PixelShader:  gfx.ShaderDesc{Name: "fs", Stage: gfx.StagePixel, EntryPoint: "fs_main", WGSL: testWGSL},
		Topology:     gfx.TopologyTriangleList,
		CullMode:     gfx.CullBack,
		DepthTestEnabled: true,
		Variables: []gfx.VariableDesc{
			{Name: "Constants", Binding: 0, Visibility: gfx.StageVertex},
		},
		ColorFormat: scDesc.ColorFormat,
		DepthFormat: scDesc.DepthFormat,
	}
}

func createTriple(t *testing.T) (gfx.Device, gfx.Context, gfx.Swapchain) {
	t.Helper()
	factory, err := gfx.Select(gfx.DeviceTypeNull)
	require.NoError(t, err)

	dev, ctx, sc, err := factory.CreateDeviceAndSwapchain(gfx.CreateInfo{Width: 800, Height: 600, Label: "test"})
	require.NoError(t, err)
	require.NotNil(t, dev)
	require.NotNil(t, ctx)
	require.NotNil(t, sc)
	return dev, ctx, sc
}

func TestFactoryPostconditions(t *testing.T) {
	dev, _, sc := createTriple(t)

	assert.Equal(t, gfx.DeviceTypeNull, dev.Type())

	desc := sc.Desc()
	assert.Equal(t, 800, desc.Width)
	assert.Equal(t, 600, desc.Height)
	assert.NotEqual(t, gfx.FormatUnknown, desc.ColorFormat)
	assert.NotEqual(t, gfx.FormatUnknown, desc.DepthFormat)
	assert.Equal(t, 2, desc.BufferCount)

	assert.True(t, sc.CurrentBackBuffer().Valid())
	assert.True(t, sc.DepthBuffer().Valid())
}

func TestFactoryHonorsRequestedBufferCount(t *testing.T) {
	factory, err := gfx.Select(gfx.DeviceTypeNull)
	require.NoError(t, err)

	_, _, sc, err := factory.CreateDeviceAndSwapchain(gfx.CreateInfo{Width: 800, Height: 600, BufferCount: 3})
	require.NoError(t, err)
	assert.Equal(t, 3, sc.Desc().BufferCount)
}

func TestFactoryRejectsZeroArea(t *testing.T) {
	factory, err := gfx.Select(gfx.DeviceTypeNull)
	require.NoError(t, err)

	_, _, _, err = factory.CreateDeviceAndSwapchain(gfx.CreateInfo{Width: 0, Height: 600})
	var scErr *gfx.SwapchainCreationError
	require.True(t, errors.As(err, &scErr))
	assert.Equal(t, gfx.DeviceTypeNull, scErr.Type)
}

func TestImmutableBufferRequiresInitialData(t *testing.T) {
	dev, _, _ := createTriple(t)

	_, err := dev.CreateBuffer(gfx.BufferDesc{Name: "vb", Usage: gfx.UsageVertex, Access: gfx.AccessImmutable}, nil)
	require.Error(t, err)
}

func TestImmutableBufferWriteRejected(t *testing.T) {
	dev, ctx, _ := createTriple(t)

	vb, err := dev.CreateBuffer(
		gfx.BufferDesc{Name: "vb", Usage: gfx.UsageVertex, Access: gfx.AccessImmutable},
		[]byte{1, 2, 3, 4},
	)
	require.NoError(t, err)

	var immutable *gfx.ImmutableBufferWriteError

	_, err = ctx.MapBuffer(vb)
	require.True(t, errors.As(err, &immutable))
	assert.Equal(t, "vb", immutable.Buffer)

	err = ctx.WriteBuffer(vb, []byte{9, 9, 9, 9})
	require.True(t, errors.As(err, &immutable))
}

func TestDynamicBufferScopedWrite(t *testing.T) {
	dev, ctx, _ := createTriple(t)

	ub, err := dev.CreateBuffer(gfx.BufferDesc{Name: "cb", Usage: gfx.UsageUniform, Access: gfx.AccessDynamic, Size: 8}, nil)
	require.NoError(t, err)

	m, err := ctx.MapBuffer(ub)
	require.NoError(t, err)
	require.Len(t, m.Bytes, 8)
	copy(m.Bytes, []byte{1, 2, 3, 4, 5, 6, 7, 8})
	require.NoError(t, m.Close())
	require.NoError(t, m.Close())

	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7, 8}, ub.(*buffer).contents())

	// The next map discards the previous contents.
	m2, err := ctx.MapBuffer(ub)
	require.NoError(t, err)
	assert.Equal(t, make([]byte, 8), m2.Bytes)
	copy(m2.Bytes, []byte{9})
	require.NoError(t, m2.Close())
	assert.Equal(t, []byte{9, 0, 0, 0, 0, 0, 0, 0}, ub.(*buffer).contents())
}

func TestDynamicBufferRequiresSize(t *testing.T) {
	dev, _, _ := createTriple(t)

	_, err := dev.CreateBuffer(gfx.BufferDesc{Name: "cb", Usage: gfx.UsageUniform, Access: gfx.AccessDynamic}, nil)
	require.Error(t, err)
}

func TestResizeInvalidatesViews(t *testing.T) {
	_, _, sc := createTriple(t)

	oldColor := sc.CurrentBackBuffer()
	oldDepth := sc.DepthBuffer()
	require.True(t, oldColor.Valid())

	require.NoError(t, sc.Resize(1024, 768))

	assert.False(t, oldColor.Valid(), "pre-resize color view must be invalidated")
	assert.False(t, oldDepth.Valid(), "pre-resize depth view must be invalidated")
	assert.True(t, sc.CurrentBackBuffer().Valid())
	assert.True(t, sc.DepthBuffer().Valid())

	desc := sc.Desc()
	assert.Equal(t, 1024, desc.Width)
	assert.Equal(t, 768, desc.Height)
}

func TestResizeRejectsZeroArea(t *testing.T) {
	_, _, sc := createTriple(t)

	require.Error(t, sc.Resize(0, 768))
	require.Error(t, sc.Resize(1024, -1))

	// Dimensions are untouched after a rejected resize.
	desc := sc.Desc()
	assert.Equal(t, 800, desc.Width)
	assert.Equal(t, 600, desc.Height)
}

func TestPresentCountsFrames(t *testing.T) {
	_, _, sc := createTriple(t)

	require.NoError(t, sc.Present(1))
	require.NoError(t, sc.Present(0))

	nsc := sc.(*swapchain)
	assert.Equal(t, 2, nsc.presentCount)
	assert.Equal(t, 0, nsc.lastInterval)
}

func TestPipelineRejectsMissingEntryPoint(t *testing.T) {
	dev, _, sc := createTriple(t)

	desc := testPipelineDesc(sc)
	desc.VertexShader.EntryPoint = "does_not_exist"

	_, err := dev.CreateGraphicsPipeline(desc)
	var compileErr *gfx.ShaderCompilationError
	require.True(t, errors.As(err, &compileErr))
	assert.Equal(t, gfx.StageVertex, compileErr.Stage)
}

func TestPipelineRejectsUnknownFormats(t *testing.T) {
	dev, _, sc := createTriple(t)

	desc := testPipelineDesc(sc)
	desc.ColorFormat = gfx.FormatUnknown

	_, err := dev.CreateGraphicsPipeline(desc)
	var linkErr *gfx.PipelineLinkError
	require.True(t, errors.As(err, &linkErr))
}

func TestResourceBindingValidation(t *testing.T) {
	dev, _, sc := createTriple(t)

	pso, err := dev.CreateGraphicsPipeline(testPipelineDesc(sc))
	require.NoError(t, err)

	srb, err := pso.CreateResourceBinding()
	require.NoError(t, err)

	ub, err := dev.CreateBuffer(gfx.BufferDesc{Name: "cb", Usage: gfx.UsageUniform, Access: gfx.AccessDynamic, Size: 64}, nil)
	require.NoError(t, err)
	require.NoError(t, srb.SetBuffer("Constants", ub))

	// Unknown variable name.
	require.Error(t, srb.SetBuffer("Nope", ub))

	// Buffer from a foreign device.
	otherDev, _, _ := createTriple(t)
	foreign, err := otherDev.CreateBuffer(gfx.BufferDesc{Name: "cb2", Usage: gfx.UsageUniform, Access: gfx.AccessDynamic, Size: 64}, nil)
	require.NoError(t, err)
	require.Error(t, srb.SetBuffer("Constants", foreign))
}

func TestFrameProtocol(t *testing.T) {
	dev, ctx, sc := createTriple(t)

	vb, err := dev.CreateBuffer(gfx.BufferDesc{Name: "vb", Usage: gfx.UsageVertex, Access: gfx.AccessImmutable}, make([]byte, 96))
	require.NoError(t, err)
	ib, err := dev.CreateBuffer(gfx.BufferDesc{Name: "ib", Usage: gfx.UsageIndex, Access: gfx.AccessImmutable}, make([]byte, 72))
	require.NoError(t, err)
	ub, err := dev.CreateBuffer(gfx.BufferDesc{Name: "cb", Usage: gfx.UsageUniform, Access: gfx.AccessDynamic, Size: 64}, nil)
	require.NoError(t, err)

	pso, err := dev.CreateGraphicsPipeline(testPipelineDesc(sc))
	require.NoError(t, err)
	srb, err := pso.CreateResourceBinding()
	require.NoError(t, err)
	require.NoError(t, srb.SetBuffer("Constants", ub))

	for frame := 0; frame < 3; frame++ {
		color := sc.CurrentBackBuffer()
		depth := sc.DepthBuffer()
		require.True(t, color.Valid())

		ctx.SetRenderTargets(color, depth)
		ctx.ClearRenderTarget(color, [4]float32{0.35, 0.35, 0.35, 1.0})
		ctx.ClearDepthStencil(depth, 1.0, 0)

		m, err := ctx.MapBuffer(ub)
		require.NoError(t, err)
		m.Bytes[0] = byte(frame)
		require.NoError(t, m.Close())

		ctx.SetPipelineState(pso)
		ctx.CommitResources(srb)
		ctx.SetVertexBuffer(0, vb)
		ctx.SetIndexBuffer(ib)
		ctx.DrawIndexed(gfx.DrawIndexedAttribs{NumIndices: 36, IndexType: gfx.ValueUint32})

		require.NoError(t, sc.Present(1))
	}

	nctx := ctx.(*context)
	nsc := sc.(*swapchain)
	assert.Equal(t, 3, nctx.indexedCount)
	assert.Equal(t, 3, nctx.clearCount)
	assert.Equal(t, [4]float32{0.35, 0.35, 0.35, 1.0}, nctx.lastClear)
	assert.Equal(t, 3, nsc.presentCount)

	// Release in reverse creation order.
	srb.Release()
	pso.Release()
	ub.Release()
	ib.Release()
	vb.Release()

	ndev := dev.(*device)
	assert.Equal(t, 0, ndev.buffersAlive)
	assert.Equal(t, 0, ndev.pipelinesAlive)
}
