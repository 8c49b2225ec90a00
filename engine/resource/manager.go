// Package resource tracks GPU buffer lifetimes for one device. The manager
// creates geometry and uniform buffers through the device and releases
// everything it created in reverse creation order.
package resource

import (
	"fmt"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"

	"github.com/pluscraft/pluscraft/engine/gfx"
)

// StagingTask produces the CPU-side bytes for one buffer. Tasks run in
// parallel on the manager's worker pool; the returned bytes are uploaded on
// the calling thread after all tasks have finished.
type StagingTask struct {
	// Name names the buffer that will be created from the staged bytes.
	Name string
	// Usage selects vertex or index usage for the resulting immutable buffer.
	Usage gfx.BufferUsage
	// Stage produces the buffer contents. It must not touch the device.
	Stage func() ([]byte, error)
}

// manager is the implementation of the Manager interface.
type manager struct {
	mu      sync.Mutex
	device  gfx.Device
	tracked []gfx.Buffer

	stagingWorkers int
	stagingPool    worker.DynamicWorkerPool
	nextTaskID     int
}

// Manager owns the buffers it creates on behalf of one device and releases
// them in reverse creation order when the manager itself is released.
type Manager interface {
	// CreateVertexBuffer creates an immutable vertex buffer from the given
	// data. The data must be non-empty; the buffer can never be rewritten.
	//
	// Parameters:
	//   - name: the buffer name used for diagnostics
	//   - data: the full vertex contents
	//
	// Returns:
	//   - gfx.Buffer: the created buffer
	//   - error: an error if the data is empty or creation fails
	CreateVertexBuffer(name string, data []byte) (gfx.Buffer, error)

	// CreateIndexBuffer creates an immutable index buffer from the given
	// data. The data must be non-empty; the buffer can never be rewritten.
	//
	// Parameters:
	//   - name: the buffer name used for diagnostics
	//   - data: the full index contents
	//
	// Returns:
	//   - gfx.Buffer: the created buffer
	//   - error: an error if the data is empty or creation fails
	CreateIndexBuffer(name string, data []byte) (gfx.Buffer, error)

	// CreateUniformBuffer creates a dynamic uniform buffer of the given size.
	// Its contents are written per frame through Context.MapBuffer.
	//
	// Parameters:
	//   - name: the buffer name used for diagnostics
	//   - byteSize: the buffer size in bytes, must be positive
	//
	// Returns:
	//   - gfx.Buffer: the created buffer
	//   - error: an error if the size is invalid or creation fails
	CreateUniformBuffer(name string, byteSize int) (gfx.Buffer, error)

	// PrepareAsync stages multiple buffers' CPU contents in parallel on the
	// manager's worker pool, then creates the immutable buffers on the
	// calling thread once every staging task has finished. Device access
	// never happens off the calling thread.
	//
	// Parameters:
	//   - tasks: the staging tasks to run
	//
	// Returns:
	//   - map[string]gfx.Buffer: the created buffers keyed by task name
	//   - error: the first staging or creation error encountered
	PrepareAsync(tasks []StagingTask) (map[string]gfx.Buffer, error)

	// Release stops the staging workers, then releases every tracked buffer
	// in reverse creation order and empties the manager. The manager stays
	// usable afterwards; the next PrepareAsync brings the workers back up.
	Release()
}

var _ Manager = &manager{}

// NewManager creates a Manager for the given device.
//
// Parameters:
//   - device: the device all buffers are created on
//   - stagingWorkers: the worker count for PrepareAsync, minimum 1
//
// Returns:
//   - Manager: the configured manager
func NewManager(device gfx.Device, stagingWorkers int) Manager {
	if stagingWorkers < 1 {
		stagingWorkers = 1
	}
	return &manager{
		device:         device,
		stagingWorkers: stagingWorkers,
		stagingPool:    worker.NewDynamicWorkerPool(stagingWorkers, 256, 1*time.Second),
	}
}

func (m *manager) CreateVertexBuffer(name string, data []byte) (gfx.Buffer, error) {
	return m.createImmutable(name, gfx.UsageVertex, data)
}

func (m *manager) CreateIndexBuffer(name string, data []byte) (gfx.Buffer, error) {
	return m.createImmutable(name, gfx.UsageIndex, data)
}

func (m *manager) CreateUniformBuffer(name string, byteSize int) (gfx.Buffer, error) {
	if byteSize <= 0 {
		return nil, fmt.Errorf("resource: uniform buffer %q requires a positive size, got %d", name, byteSize)
	}
	buf, err := m.device.CreateBuffer(gfx.BufferDesc{
		Name:   name,
		Usage:  gfx.UsageUniform,
		Access: gfx.AccessDynamic,
		Size:   byteSize,
	}, nil)
	if err != nil {
		return nil, err
	}
	m.track(buf)
	return buf, nil
}

func (m *manager) PrepareAsync(tasks []StagingTask) (map[string]gfx.Buffer, error) {
	if len(tasks) == 0 {
		return map[string]gfx.Buffer{}, nil
	}

	staged := make([][]byte, len(tasks))
	errs := make([]error, len(tasks))

	var wg sync.WaitGroup
	m.mu.Lock()
	if m.stagingPool == nil {
		m.stagingPool = worker.NewDynamicWorkerPool(m.stagingWorkers, 256, 1*time.Second)
	}
	for i := range tasks {
		wg.Add(1)
		idx := i
		m.nextTaskID++
		m.stagingPool.SubmitTask(worker.Task{
			ID: m.nextTaskID,
			Do: func() (any, error) {
				defer wg.Done()
				staged[idx], errs[idx] = tasks[idx].Stage()
				return nil, errs[idx]
			},
		})
	}
	m.mu.Unlock()

	// Fence: all CPU staging completes before any device work starts.
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("resource: staging %q failed: %w", tasks[i].Name, err)
		}
	}

	out := make(map[string]gfx.Buffer, len(tasks))
	for i, task := range tasks {
		buf, err := m.createImmutable(task.Name, task.Usage, staged[i])
		if err != nil {
			return nil, err
		}
		out[task.Name] = buf
	}
	return out, nil
}

func (m *manager) Release() {
	m.mu.Lock()
	tracked := m.tracked
	m.tracked = nil
	pool := m.stagingPool
	m.stagingPool = nil
	m.mu.Unlock()

	// Workers go first: nothing may stage against buffers being torn down.
	if pool != nil {
		pool.Stop()
	}
	for i := len(tracked) - 1; i >= 0; i-- {
		tracked[i].Release()
	}
}

func (m *manager) createImmutable(name string, usage gfx.BufferUsage, data []byte) (gfx.Buffer, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("resource: immutable buffer %q requires non-empty data", name)
	}
	buf, err := m.device.CreateBuffer(gfx.BufferDesc{
		Name:   name,
		Usage:  usage,
		Access: gfx.AccessImmutable,
	}, data)
	if err != nil {
		return nil, err
	}
	m.track(buf)
	return buf, nil
}

func (m *manager) track(buf gfx.Buffer) {
	m.mu.Lock()
	m.tracked = append(m.tracked, buf)
	m.mu.Unlock()
}
