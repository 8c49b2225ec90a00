package webgpu

import (
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pluscraft/pluscraft/engine/gfx"
)

func TestVertexBufferLayoutInterleaved(t *testing.T) {
	layout, err := vertexBufferLayout([]gfx.LayoutElement{
		{Slot: 0, NumComponents: 3, Type: gfx.ValueFloat32},
		{Slot: 1, NumComponents: 4, Type: gfx.ValueFloat32},
	})
	require.NoError(t, err)

	assert.Equal(t, uint64(28), layout.ArrayStride)
	require.Len(t, layout.Attributes, 2)
	assert.Equal(t, wgpu.VertexFormatFloat32x3, layout.Attributes[0].Format)
	assert.Equal(t, uint64(0), layout.Attributes[0].Offset)
	assert.Equal(t, wgpu.VertexFormatFloat32x4, layout.Attributes[1].Format)
	assert.Equal(t, uint64(12), layout.Attributes[1].Offset)
	assert.Equal(t, uint32(1), layout.Attributes[1].ShaderLocation)
}

func TestVertexBufferLayoutRejectsBadElement(t *testing.T) {
	_, err := vertexBufferLayout([]gfx.LayoutElement{
		{Slot: 0, NumComponents: 5, Type: gfx.ValueFloat32},
	})
	require.Error(t, err)
}

func TestTextureFormatRoundTrip(t *testing.T) {
	for _, f := range []gfx.TextureFormat{
		gfx.FormatBGRA8Unorm,
		gfx.FormatRGBA8Unorm,
		gfx.FormatDepth24Plus,
		gfx.FormatDepth32Float,
	} {
		assert.Equal(t, f, fromTextureFormat(toTextureFormat(f)), f.String())
	}
	assert.Equal(t, gfx.FormatUnknown, fromTextureFormat(wgpu.TextureFormatUndefined))
}

func TestShaderStageMapping(t *testing.T) {
	assert.Equal(t, wgpu.ShaderStageVertex, toShaderStage(gfx.StageVertex))
	assert.Equal(t, wgpu.ShaderStageFragment, toShaderStage(gfx.StagePixel))
	assert.Equal(t, wgpu.ShaderStageVertex|wgpu.ShaderStageFragment, toShaderStage(gfx.StageVertex|gfx.StagePixel))
}
