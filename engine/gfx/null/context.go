package null

import (
	"fmt"

	"github.com/pluscraft/pluscraft/engine/gfx"
)

// context records the command stream instead of submitting it. Bind state and
// draw counters are kept so tests can assert the frame protocol was followed.
type context struct {
	owner *device

	color gfx.RenderTarget
	depth gfx.RenderTarget

	pipeline      *pipelineState
	vertexBuffers map[int]*buffer
	indexBuffer   *buffer
	committed     *resourceBinding

	clearCount   int
	drawCount    int
	indexedCount int
	flushCount   int
	lastClear    [4]float32
	lastDepth    float32
}

var _ gfx.Context = &context{}

func (c *context) SetRenderTargets(color, depth gfx.RenderTarget) {
	c.color = color
	c.depth = depth
}

func (c *context) ClearRenderTarget(rt gfx.RenderTarget, rgba [4]float32) {
	c.clearCount++
	c.lastClear = rgba
}

func (c *context) ClearDepthStencil(rt gfx.RenderTarget, depth float32, stencil uint32) {
	c.lastDepth = depth
}

func (c *context) SetPipelineState(ps gfx.PipelineState) {
	if np, ok := ps.(*pipelineState); ok && np.owner == c.owner {
		c.pipeline = np
	}
}

func (c *context) SetVertexBuffer(slot int, buf gfx.Buffer) {
	nb, ok := buf.(*buffer)
	if !ok || nb.owner != c.owner {
		return
	}
	if c.vertexBuffers == nil {
		c.vertexBuffers = make(map[int]*buffer)
	}
	c.vertexBuffers[slot] = nb
}

func (c *context) SetIndexBuffer(buf gfx.Buffer) {
	if nb, ok := buf.(*buffer); ok && nb.owner == c.owner {
		c.indexBuffer = nb
	}
}

func (c *context) CommitResources(srb gfx.ShaderResourceBinding) {
	if rb, ok := srb.(*resourceBinding); ok && rb.pipeline.owner == c.owner {
		c.committed = rb
	}
}

func (c *context) Draw(attribs gfx.DrawAttribs) {
	c.drawCount++
}

func (c *context) DrawIndexed(attribs gfx.DrawIndexedAttribs) {
	c.indexedCount++
}

func (c *context) MapBuffer(buf gfx.Buffer) (*gfx.MappedRange, error) {
	nb, err := c.dynamicBuffer(buf)
	if err != nil {
		return nil, err
	}
	// Write-discard: the staging region starts zeroed and fully replaces the
	// buffer contents on Close.
	return gfx.NewMappedRange(nb.desc.Size, nb.writeAll), nil
}

func (c *context) WriteBuffer(buf gfx.Buffer, data []byte) error {
	nb, err := c.dynamicBuffer(buf)
	if err != nil {
		return err
	}
	return nb.writeAll(data)
}

func (c *context) Flush() {
	c.flushCount++
}

func (c *context) Release() {
	c.pipeline = nil
	c.vertexBuffers = nil
	c.indexBuffer = nil
	c.committed = nil
}

func (c *context) dynamicBuffer(buf gfx.Buffer) (*buffer, error) {
	nb, ok := buf.(*buffer)
	if !ok || nb.owner != c.owner {
		return nil, fmt.Errorf("null: buffer was created by a different device")
	}
	if nb.desc.Access != gfx.AccessDynamic {
		return nil, &gfx.ImmutableBufferWriteError{Buffer: nb.desc.Name}
	}
	return nb, nil
}
