package engine

import (
	"fmt"
	"runtime"
	"time"

	"github.com/pluscraft/pluscraft/common"
	"github.com/pluscraft/pluscraft/engine/gfx"
	"github.com/pluscraft/pluscraft/engine/pipeline"
	"github.com/pluscraft/pluscraft/engine/profiler"
	"github.com/pluscraft/pluscraft/engine/resource"
	"github.com/pluscraft/pluscraft/engine/window"
)

// State describes where the frame loop currently is. Transitions only move
// forward: Uninitialized to Running to Closing to Terminated.
type State int

const (
	StateUninitialized State = iota
	StateRunning
	StateClosing
	StateTerminated
)

// String implements fmt.Stringer for State.
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateRunning:
		return "running"
	case StateClosing:
		return "closing"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// UpdateContext is handed to the per-frame update callback before the frame
// is recorded.
type UpdateContext struct {
	// FrameIndex counts rendered frames, starting at 0.
	FrameIndex uint64
	// Elapsed is the time since Run started.
	Elapsed time.Duration
	// Delta is the time since the previous frame.
	Delta time.Duration
	// Uniforms is the scratch buffer whose contents are uploaded to the
	// uniform buffer this frame. It is nil when uniforms are disabled.
	Uniforms []byte
	// Projection is the session's current projection matrix, recomputed on
	// every resize. Read-only.
	Projection []float32
}

// UpdateFunc runs once per frame on the loop thread. Returning false asks
// the engine to stop after the current frame.
type UpdateFunc func(ctx *UpdateContext) bool

// Engine owns the frame loop: it initializes the graphics session, ticks
// the window and renderer until close is requested, then tears everything
// down in reverse creation order.
type Engine interface {
	// Run executes the frame loop on the calling goroutine until the window
	// requests close or the update callback asks to stop. It must be called
	// from the main goroutine and locks it to its OS thread.
	//
	// Returns:
	//   - error: an initialization or rendering error, nil on a clean exit
	Run() error

	// State reports the current frame loop state.
	//
	// Returns:
	//   - State: one of Uninitialized, Running, Closing, Terminated
	State() State

	// Stop requests a transition to Closing. Safe to call from the update
	// callback; the loop finishes the current frame and shuts down.
	Stop()
}

type geometry struct {
	vertexData  []byte
	vertexCount int
	indexData   []byte
	indexCount  int
	indexType   gfx.ValueType
}

type engine struct {
	win        window.Window
	videoMode  VideoMode
	deviceType gfx.DeviceType
	clearColor [4]float32

	pipelineBuilder pipeline.Builder
	geom            geometry
	useUniforms     bool
	uniformName     string
	uniformSize     int
	update          UpdateFunc
	profiling       bool
	prof            *profiler.Profiler

	state   State
	session *graphicsSession
	manager resource.Manager

	vertexBuffer  gfx.Buffer
	indexBuffer   gfx.Buffer
	uniformBuffer gfx.Buffer
	pso           gfx.PipelineState
	srb           gfx.ShaderResourceBinding

	frameIndex uint64
	startTime  time.Time
	lastFrame  time.Time
	scratch    []byte
	model      []float32
	mvp        []float32
}

var _ Engine = &engine{}

// EngineOption configures an Engine before Run.
type EngineOption func(*engine)

// WithWindow sets the window the engine renders into. Required.
//
// Parameters:
//   - win: the window providing the native surface and the event stream
//
// Returns:
//   - EngineOption: the option to apply
func WithWindow(win window.Window) EngineOption {
	return func(e *engine) {
		e.win = win
	}
}

// WithVideoMode sets the presentation parameters. Defaults to
// DefaultVideoMode.
//
// Parameters:
//   - mode: dimensions, present interval, and window mode
//
// Returns:
//   - EngineOption: the option to apply
func WithVideoMode(mode VideoMode) EngineOption {
	return func(e *engine) {
		e.videoMode = mode
	}
}

// WithDeviceType selects the graphics backend. Defaults to Undefined, which
// picks the best registered backend.
//
// Parameters:
//   - t: the backend to initialize
//
// Returns:
//   - EngineOption: the option to apply
func WithDeviceType(t gfx.DeviceType) EngineOption {
	return func(e *engine) {
		e.deviceType = t
	}
}

// WithClearColor sets the color the back buffer is cleared to each frame.
//
// Parameters:
//   - color: RGBA in [0,1]
//
// Returns:
//   - EngineOption: the option to apply
func WithClearColor(color [4]float32) EngineOption {
	return func(e *engine) {
		e.clearColor = color
	}
}

// WithPipeline sets the pipeline builder whose output is bound every frame.
// Required.
//
// Parameters:
//   - b: a configured pipeline builder; Build runs during initialization
//
// Returns:
//   - EngineOption: the option to apply
func WithPipeline(b pipeline.Builder) EngineOption {
	return func(e *engine) {
		e.pipelineBuilder = b
	}
}

// WithGeometry sets the vertex buffer contents. Required.
//
// Parameters:
//   - vertexData: the packed vertex data, uploaded once as an immutable buffer
//   - vertexCount: the number of vertices in vertexData
//
// Returns:
//   - EngineOption: the option to apply
func WithGeometry(vertexData []byte, vertexCount int) EngineOption {
	return func(e *engine) {
		e.geom.vertexData = vertexData
		e.geom.vertexCount = vertexCount
	}
}

// WithIndexedGeometry adds an index buffer; draws become indexed.
//
// Parameters:
//   - indexData: the packed index data, uploaded once as an immutable buffer
//   - indexCount: the number of indices in indexData
//   - indexType: gfx.ValueUint16 or gfx.ValueUint32
//
// Returns:
//   - EngineOption: the option to apply
func WithIndexedGeometry(indexData []byte, indexCount int, indexType gfx.ValueType) EngineOption {
	return func(e *engine) {
		e.geom.indexData = indexData
		e.geom.indexCount = indexCount
		e.geom.indexType = indexType
	}
}

// WithUniforms enables the per-frame uniform buffer holding the
// model-view-projection matrix.
//
// Parameters:
//   - enabled: whether to create and update the uniform buffer
//
// Returns:
//   - EngineOption: the option to apply
func WithUniforms(enabled bool) EngineOption {
	return func(e *engine) {
		e.useUniforms = enabled
	}
}

// WithProfiling enables per-second frame and memory statistics through the
// engine logger.
//
// Parameters:
//   - enabled: whether to tick a profiler every frame
//
// Returns:
//   - EngineOption: the option to apply
func WithProfiling(enabled bool) EngineOption {
	return func(e *engine) {
		e.profiling = enabled
	}
}

// WithUpdate sets a callback invoked once per frame before recording.
//
// Parameters:
//   - fn: the callback; returning false stops the loop
//
// Returns:
//   - EngineOption: the option to apply
func WithUpdate(fn UpdateFunc) EngineOption {
	return func(e *engine) {
		e.update = fn
	}
}

// New builds an Engine in the Uninitialized state.
//
// Parameters:
//   - opts: configuration options; WithWindow, WithPipeline, and
//     WithGeometry are required for Run to succeed
//
// Returns:
//   - Engine: the configured engine
func New(opts ...EngineOption) Engine {
	e := &engine{
		videoMode:   DefaultVideoMode(),
		clearColor:  [4]float32{0.05, 0.05, 0.08, 1.0},
		uniformName: "Constants",
		uniformSize: 64,
		state:       StateUninitialized,
		model:       make([]float32, 16),
		mvp:         make([]float32, 16),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *engine) State() State {
	return e.state
}

func (e *engine) Stop() {
	if e.state == StateRunning {
		e.state = StateClosing
	}
}

func (e *engine) Run() error {
	if e.state != StateUninitialized {
		return fmt.Errorf("engine: Run called in state %s", e.state)
	}
	runtime.LockOSThread()

	if err := e.initialize(); err != nil {
		e.teardown()
		e.state = StateTerminated
		return err
	}

	e.state = StateRunning
	e.startTime = time.Now()
	e.lastFrame = e.startTime
	if e.profiling {
		e.prof = profiler.New(profiler.WithLogger(Logger()))
	}
	Logger().Info("frame loop started", "backend", e.session.deviceType.String())

	var runErr error
	for e.state == StateRunning {
		e.pumpEvents()
		// A quit observed in the pump still renders and presents this tick;
		// the loop condition ends the loop afterwards.
		if err := e.renderFrame(); err != nil {
			runErr = err
			e.state = StateClosing
		}
	}

	// One final event pump with no rendering so close notifications the
	// platform delivers during shutdown are consumed.
	if e.win != nil {
		e.win.Poll()
	}

	e.teardown()
	e.state = StateTerminated
	Logger().Info("frame loop terminated", "frames", e.frameIndex, "error", runErr != nil)
	return runErr
}

func (e *engine) initialize() error {
	if e.win == nil {
		return fmt.Errorf("engine: a window is required")
	}
	if e.pipelineBuilder == nil {
		return fmt.Errorf("engine: a pipeline builder is required")
	}
	if len(e.geom.vertexData) == 0 || e.geom.vertexCount <= 0 {
		return fmt.Errorf("engine: vertex geometry is required")
	}
	if err := e.videoMode.Validate(); err != nil {
		return err
	}

	session, err := newGraphicsSession(e.deviceType, e.win, e.videoMode)
	if err != nil {
		return err
	}
	e.session = session
	e.manager = resource.NewManager(session.device, 2)

	tasks := []resource.StagingTask{{
		Name:  "vertices",
		Usage: gfx.UsageVertex,
		Stage: func() ([]byte, error) { return e.geom.vertexData, nil },
	}}
	if len(e.geom.indexData) > 0 {
		tasks = append(tasks, resource.StagingTask{
			Name:  "indices",
			Usage: gfx.UsageIndex,
			Stage: func() ([]byte, error) { return e.geom.indexData, nil },
		})
	}
	buffers, err := e.manager.PrepareAsync(tasks)
	if err != nil {
		return err
	}
	e.vertexBuffer = buffers["vertices"]
	e.indexBuffer = buffers["indices"]

	e.pso, err = e.pipelineBuilder.Build(session.device, session.swapchain)
	if err != nil {
		return err
	}

	if e.useUniforms {
		e.uniformBuffer, err = e.manager.CreateUniformBuffer(e.uniformName, e.uniformSize)
		if err != nil {
			return err
		}
		e.srb, err = e.pso.CreateResourceBinding()
		if err != nil {
			return err
		}
		if err := e.srb.SetBuffer(e.uniformName, e.uniformBuffer); err != nil {
			return err
		}
		e.scratch = make([]byte, e.uniformSize)
	}
	return nil
}

func (e *engine) pumpEvents() {
	for _, ev := range e.win.Poll() {
		switch ev := ev.(type) {
		case window.EventResize:
			e.session.OnResize(ev.Width, ev.Height)
		case window.EventCloseRequested:
			e.state = StateClosing
		}
	}
	if e.win.ShouldClose() {
		e.state = StateClosing
	}
}

func (e *engine) renderFrame() error {
	now := time.Now()
	delta := now.Sub(e.lastFrame)
	e.lastFrame = now

	if e.update != nil {
		uctx := UpdateContext{
			FrameIndex: e.frameIndex,
			Elapsed:    now.Sub(e.startTime),
			Delta:      delta,
			Uniforms:   e.scratch,
			Projection: e.session.Projection(),
		}
		if !e.update(&uctx) {
			e.state = StateClosing
			return nil
		}
	}

	ctx := e.session.ctx
	sc := e.session.swapchain

	// Back buffer views are invalidated by resize, so they are fetched
	// fresh every frame rather than cached across iterations.
	backBuffer := sc.CurrentBackBuffer()
	depthBuffer := sc.DepthBuffer()
	if backBuffer == nil || !backBuffer.Valid() {
		return nil
	}

	ctx.SetRenderTargets(backBuffer, depthBuffer)
	ctx.ClearRenderTarget(backBuffer, e.clearColor)
	if depthBuffer != nil && depthBuffer.Valid() {
		ctx.ClearDepthStencil(depthBuffer, 1.0, 0)
	}

	ctx.SetPipelineState(e.pso)

	if e.useUniforms {
		e.writeUniforms(now)
		ctx.CommitResources(e.srb)
	}

	ctx.SetVertexBuffer(0, e.vertexBuffer)
	if e.indexBuffer != nil {
		ctx.SetIndexBuffer(e.indexBuffer)
		ctx.DrawIndexed(gfx.DrawIndexedAttribs{
			NumIndices: e.geom.indexCount,
			IndexType:  e.geom.indexType,
		})
	} else {
		ctx.Draw(gfx.DrawAttribs{NumVertices: e.geom.vertexCount})
	}

	if err := sc.Present(e.videoMode.PresentInterval); err != nil {
		return err
	}
	e.frameIndex++
	if e.prof != nil {
		e.prof.Tick()
	}
	return nil
}

// writeUniforms fills the uniform buffer through a scoped map. When the
// update callback left the scratch buffer untouched the default contents
// are a spinning model under the session projection.
func (e *engine) writeUniforms(now time.Time) {
	if !bytesAllZero(e.scratch) {
		e.uploadScratch()
		return
	}

	angle := float32(now.Sub(e.startTime).Seconds())
	common.BuildModelMatrix(e.model, 0, 0, -4, 0, angle, 0, 1, 1, 1)
	common.Mul4(e.mvp, e.session.Projection(), e.model)
	copy(e.scratch, common.SliceToBytes(e.mvp))
	e.uploadScratch()
	for i := range e.scratch {
		e.scratch[i] = 0
	}
}

func (e *engine) uploadScratch() {
	mapped, err := e.session.ctx.MapBuffer(e.uniformBuffer)
	if err != nil {
		Logger().Warn("uniform map failed", "error", err)
		return
	}
	copy(mapped.Bytes, e.scratch)
	if err := mapped.Close(); err != nil {
		Logger().Warn("uniform commit failed", "error", err)
	}
}

func bytesAllZero(b []byte) bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return true
}

func (e *engine) teardown() {
	if e.srb != nil {
		e.srb.Release()
		e.srb = nil
	}
	if e.pso != nil {
		e.pso.Release()
		e.pso = nil
	}
	if e.manager != nil {
		e.manager.Release()
		e.manager = nil
		e.vertexBuffer = nil
		e.indexBuffer = nil
		e.uniformBuffer = nil
	}
	if e.session != nil {
		e.session.release()
		e.session = nil
	}
}
