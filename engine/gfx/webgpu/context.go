package webgpu

import (
	"fmt"
	"sync"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/pluscraft/pluscraft/engine/gfx"
)

// context batches one frame's commands into a single encoder. The render pass
// begins lazily on the first draw so that the clear values set earlier in the
// frame become the pass load operations.
type context struct {
	mu    sync.Mutex
	owner *device

	encoder *wgpu.CommandEncoder
	pass    *wgpu.RenderPassEncoder

	colorView *wgpu.TextureView
	depthView *wgpu.TextureView

	clearColor wgpu.Color
	clearDepth float32

	pipeline      *pipelineState
	binding       *resourceBinding
	vertexBuffers map[int]*buffer
	indexBuffer   *buffer
}

var _ gfx.Context = &context{}

func (c *context) SetRenderTargets(color, depth gfx.RenderTarget) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.colorView = nil
	c.depthView = nil
	if rt, ok := color.(*renderTarget); ok {
		c.colorView = rt.view
	}
	if rt, ok := depth.(*renderTarget); ok {
		c.depthView = rt.view
	}
}

func (c *context) ClearRenderTarget(rt gfx.RenderTarget, rgba [4]float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clearColor = wgpu.Color{R: float64(rgba[0]), G: float64(rgba[1]), B: float64(rgba[2]), A: float64(rgba[3])}
}

func (c *context) ClearDepthStencil(rt gfx.RenderTarget, depth float32, stencil uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clearDepth = depth
}

func (c *context) SetPipelineState(ps gfx.PipelineState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if wp, ok := ps.(*pipelineState); ok && wp.owner == c.owner {
		c.pipeline = wp
	}
}

func (c *context) SetVertexBuffer(slot int, buf gfx.Buffer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	wb, ok := buf.(*buffer)
	if !ok || wb.owner != c.owner {
		return
	}
	if c.vertexBuffers == nil {
		c.vertexBuffers = make(map[int]*buffer)
	}
	c.vertexBuffers[slot] = wb
}

func (c *context) SetIndexBuffer(buf gfx.Buffer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if wb, ok := buf.(*buffer); ok && wb.owner == c.owner {
		c.indexBuffer = wb
	}
}

func (c *context) CommitResources(srb gfx.ShaderResourceBinding) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if rb, ok := srb.(*resourceBinding); ok && rb.pipeline.owner == c.owner {
		c.binding = rb
	}
}

func (c *context) Draw(attribs gfx.DrawAttribs) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.beginDrawLocked(); err != nil {
		return
	}
	c.pass.Draw(uint32(attribs.NumVertices), 1, 0, 0)
}

func (c *context) DrawIndexed(attribs gfx.DrawIndexedAttribs) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.indexBuffer == nil {
		return
	}
	if err := c.beginDrawLocked(); err != nil {
		return
	}
	indexFormat := wgpu.IndexFormatUint32
	if attribs.IndexType == gfx.ValueUint16 {
		indexFormat = wgpu.IndexFormatUint16
	}
	c.pass.SetIndexBuffer(c.indexBuffer.raw, indexFormat, 0, wgpu.WholeSize)
	c.pass.DrawIndexed(uint32(attribs.NumIndices), 1, 0, 0, 0)
}

func (c *context) MapBuffer(buf gfx.Buffer) (*gfx.MappedRange, error) {
	wb, err := c.dynamicBuffer(buf)
	if err != nil {
		return nil, err
	}
	return gfx.NewMappedRange(wb.desc.Size, func(data []byte) error {
		c.owner.queue.WriteBuffer(wb.raw, 0, data)
		return nil
	}), nil
}

func (c *context) WriteBuffer(buf gfx.Buffer, data []byte) error {
	wb, err := c.dynamicBuffer(buf)
	if err != nil {
		return err
	}
	c.owner.queue.WriteBuffer(wb.raw, 0, data)
	return nil
}

func (c *context) Flush() {
	c.finishFrame()
}

func (c *context) Release() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pass != nil {
		c.pass.End()
		c.pass = nil
	}
	if c.encoder != nil {
		c.encoder.Release()
		c.encoder = nil
	}
	c.pipeline = nil
	c.binding = nil
	c.vertexBuffers = nil
	c.indexBuffer = nil
}

// beginDrawLocked opens the frame's render pass if needed and applies the
// currently bound pipeline, resources, and vertex buffers.
func (c *context) beginDrawLocked() error {
	if c.pipeline == nil {
		return fmt.Errorf("webgpu: no pipeline state bound")
	}
	if err := c.ensurePassLocked(); err != nil {
		return err
	}
	c.pass.SetPipeline(c.pipeline.raw)
	if c.binding != nil {
		bg, err := c.binding.materialize()
		if err != nil {
			return err
		}
		if bg != nil {
			c.pass.SetBindGroup(0, bg, nil)
		}
	}
	for slot, vb := range c.vertexBuffers {
		c.pass.SetVertexBuffer(uint32(slot), vb.raw, 0, wgpu.WholeSize)
	}
	return nil
}

func (c *context) ensurePassLocked() error {
	if c.pass != nil {
		return nil
	}
	if c.colorView == nil {
		return fmt.Errorf("webgpu: no render target bound")
	}

	encoder, err := c.owner.device.CreateCommandEncoder(nil)
	if err != nil {
		return err
	}

	descriptor := &wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				View:       c.colorView,
				LoadOp:     wgpu.LoadOpClear,
				StoreOp:    wgpu.StoreOpStore,
				ClearValue: c.clearColor,
			},
		},
	}
	if c.depthView != nil {
		descriptor.DepthStencilAttachment = &wgpu.RenderPassDepthStencilAttachment{
			View:            c.depthView,
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpDiscard,
			DepthClearValue: c.clearDepth,
		}
	}

	c.encoder = encoder
	c.pass = encoder.BeginRenderPass(descriptor)
	return nil
}

// finishFrame ends the open render pass and submits the command buffer.
// When no draw opened a pass but render targets are bound, a pass is opened
// anyway so the frame's clear still reaches the surface.
func (c *context) finishFrame() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pass == nil && c.colorView != nil {
		if err := c.ensurePassLocked(); err != nil {
			return
		}
	}
	if c.pass == nil {
		return
	}

	c.pass.End()
	c.pass = nil

	commandBuffer, err := c.encoder.Finish(nil)
	if err == nil {
		c.owner.queue.Submit(commandBuffer)
		commandBuffer.Release()
	}
	c.encoder.Release()
	c.encoder = nil
}

func (c *context) dynamicBuffer(buf gfx.Buffer) (*buffer, error) {
	wb, ok := buf.(*buffer)
	if !ok || wb.owner != c.owner {
		return nil, fmt.Errorf("webgpu: buffer was created by a different device")
	}
	if wb.desc.Access != gfx.AccessDynamic {
		return nil, &gfx.ImmutableBufferWriteError{Buffer: wb.desc.Name}
	}
	return wb, nil
}
