package glbackend

import (
	"fmt"

	"github.com/go-gl/gl/v4.6-core/gl"

	"github.com/pluscraft/pluscraft/engine/gfx"
)

// context drives the default framebuffer. GL commands execute immediately,
// so there is no encoder; draws apply the bound state and issue the call.
type context struct {
	owner *device

	pipeline      *pipelineState
	binding       *resourceBinding
	vertexBuffers map[int]*buffer
	indexBuffer   *buffer
}

var _ gfx.Context = &context{}

func (c *context) SetRenderTargets(color, depth gfx.RenderTarget) {
	// The swapchain is the default framebuffer; there is nothing to bind.
}

func (c *context) ClearRenderTarget(rt gfx.RenderTarget, rgba [4]float32) {
	gl.ClearColor(rgba[0], rgba[1], rgba[2], rgba[3])
	gl.Clear(gl.COLOR_BUFFER_BIT)
}

func (c *context) ClearDepthStencil(rt gfx.RenderTarget, depth float32, stencil uint32) {
	gl.ClearDepth(float64(depth))
	gl.ClearStencil(int32(stencil))
	gl.Clear(gl.DEPTH_BUFFER_BIT | gl.STENCIL_BUFFER_BIT)
}

func (c *context) SetPipelineState(ps gfx.PipelineState) {
	if gp, ok := ps.(*pipelineState); ok && gp.owner == c.owner {
		c.pipeline = gp
	}
}

func (c *context) SetVertexBuffer(slot int, buf gfx.Buffer) {
	gb, ok := buf.(*buffer)
	if !ok || gb.owner != c.owner {
		return
	}
	if c.vertexBuffers == nil {
		c.vertexBuffers = make(map[int]*buffer)
	}
	c.vertexBuffers[slot] = gb
}

func (c *context) SetIndexBuffer(buf gfx.Buffer) {
	if gb, ok := buf.(*buffer); ok && gb.owner == c.owner {
		c.indexBuffer = gb
	}
}

func (c *context) CommitResources(srb gfx.ShaderResourceBinding) {
	if rb, ok := srb.(*resourceBinding); ok && rb.pipeline.owner == c.owner {
		c.binding = rb
	}
}

func (c *context) Draw(attribs gfx.DrawAttribs) {
	if !c.applyDrawState() {
		return
	}
	gl.DrawArrays(c.pipeline.mode, 0, int32(attribs.NumVertices))
	gl.BindVertexArray(0)
	gl.UseProgram(0)
}

func (c *context) DrawIndexed(attribs gfx.DrawIndexedAttribs) {
	if c.indexBuffer == nil || !c.applyDrawState() {
		return
	}
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, c.indexBuffer.id)
	gl.DrawElements(c.pipeline.mode, int32(attribs.NumIndices), glScalarType(attribs.IndexType), nil)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, 0)
	gl.BindVertexArray(0)
	gl.UseProgram(0)
}

func (c *context) MapBuffer(buf gfx.Buffer) (*gfx.MappedRange, error) {
	gb, err := c.dynamicBuffer(buf)
	if err != nil {
		return nil, err
	}
	return gfx.NewMappedRange(gb.desc.Size, gb.write), nil
}

func (c *context) WriteBuffer(buf gfx.Buffer, data []byte) error {
	gb, err := c.dynamicBuffer(buf)
	if err != nil {
		return err
	}
	return gb.write(data)
}

func (c *context) Flush() {
	gl.Flush()
}

func (c *context) Release() {
	c.pipeline = nil
	c.binding = nil
	c.vertexBuffers = nil
	c.indexBuffer = nil
}

func (c *context) applyDrawState() bool {
	if c.pipeline == nil {
		return false
	}
	c.pipeline.apply()
	if c.binding != nil {
		c.binding.apply()
	}
	for slot, vb := range c.vertexBuffers {
		gl.BindVertexBuffer(uint32(slot), vb.id, 0, c.pipeline.stride)
	}
	return true
}

func (c *context) dynamicBuffer(buf gfx.Buffer) (*buffer, error) {
	gb, ok := buf.(*buffer)
	if !ok || gb.owner != c.owner {
		return nil, fmt.Errorf("gl: buffer was created by a different device")
	}
	if gb.desc.Access != gfx.AccessDynamic {
		return nil, &gfx.ImmutableBufferWriteError{Buffer: gb.desc.Name}
	}
	return gb, nil
}
