package resource

import (
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pluscraft/pluscraft/engine/gfx"
	_ "github.com/pluscraft/pluscraft/engine/gfx/null"
)

func newTestManager(t *testing.T) (Manager, gfx.Context) {
	t.Helper()
	factory, err := gfx.Select(gfx.DeviceTypeNull)
	require.NoError(t, err)
	dev, ctx, _, err := factory.CreateDeviceAndSwapchain(gfx.CreateInfo{Width: 640, Height: 480})
	require.NoError(t, err)
	return NewManager(dev, 2), ctx
}

func TestCreateGeometryBuffers(t *testing.T) {
	m, _ := newTestManager(t)

	vb, err := m.CreateVertexBuffer("cube-vb", make([]byte, 192))
	require.NoError(t, err)
	assert.Equal(t, gfx.UsageVertex, vb.Desc().Usage)
	assert.Equal(t, gfx.AccessImmutable, vb.Desc().Access)
	assert.Equal(t, 192, vb.Desc().Size)

	ib, err := m.CreateIndexBuffer("cube-ib", make([]byte, 144))
	require.NoError(t, err)
	assert.Equal(t, gfx.UsageIndex, ib.Desc().Usage)
}

func TestCreateGeometryRejectsEmptyData(t *testing.T) {
	m, _ := newTestManager(t)

	_, err := m.CreateVertexBuffer("empty-vb", nil)
	require.Error(t, err)
	_, err = m.CreateIndexBuffer("empty-ib", []byte{})
	require.Error(t, err)
}

func TestGeometryBuffersAreImmutable(t *testing.T) {
	m, ctx := newTestManager(t)

	vb, err := m.CreateVertexBuffer("vb", []byte{1, 2, 3, 4})
	require.NoError(t, err)

	var immutable *gfx.ImmutableBufferWriteError
	_, err = ctx.MapBuffer(vb)
	require.True(t, errors.As(err, &immutable))
}

func TestCreateUniformBuffer(t *testing.T) {
	m, ctx := newTestManager(t)

	ub, err := m.CreateUniformBuffer("constants", 64)
	require.NoError(t, err)
	assert.Equal(t, gfx.AccessDynamic, ub.Desc().Access)

	mr, err := ctx.MapBuffer(ub)
	require.NoError(t, err)
	require.Len(t, mr.Bytes, 64)
	require.NoError(t, mr.Close())

	_, err = m.CreateUniformBuffer("bad", 0)
	require.Error(t, err)
}

func TestPrepareAsyncStagesAndCreates(t *testing.T) {
	m, _ := newTestManager(t)

	var staged atomic.Int32
	buffers, err := m.PrepareAsync([]StagingTask{
		{
			Name:  "vb",
			Usage: gfx.UsageVertex,
			Stage: func() ([]byte, error) {
				staged.Add(1)
				return make([]byte, 96), nil
			},
		},
		{
			Name:  "ib",
			Usage: gfx.UsageIndex,
			Stage: func() ([]byte, error) {
				staged.Add(1)
				return make([]byte, 72), nil
			},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, int32(2), staged.Load())
	require.Len(t, buffers, 2)
	assert.Equal(t, 96, buffers["vb"].Desc().Size)
	assert.Equal(t, 72, buffers["ib"].Desc().Size)
}

func TestPrepareAsyncPropagatesStagingErrors(t *testing.T) {
	m, _ := newTestManager(t)

	_, err := m.PrepareAsync([]StagingTask{
		{
			Name:  "broken",
			Usage: gfx.UsageVertex,
			Stage: func() ([]byte, error) {
				return nil, errors.New("mesh data unavailable")
			},
		},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken")
}

func TestReleaseFreesInReverseOrder(t *testing.T) {
	m, _ := newTestManager(t)

	_, err := m.CreateVertexBuffer("vb", []byte{1})
	require.NoError(t, err)
	_, err = m.CreateUniformBuffer("ub", 16)
	require.NoError(t, err)

	// Release must not panic and must leave the manager reusable.
	m.Release()
	m.Release()

	vb, err := m.CreateVertexBuffer("vb2", []byte{1})
	require.NoError(t, err)
	assert.NotNil(t, vb)
}

func TestReleaseStopsStagingWorkers(t *testing.T) {
	m, _ := newTestManager(t)

	_, err := m.PrepareAsync([]StagingTask{{
		Name:  "vb",
		Usage: gfx.UsageVertex,
		Stage: func() ([]byte, error) { return []byte{1, 2}, nil },
	}})
	require.NoError(t, err)

	// Release stops the worker pool; the next PrepareAsync brings a fresh
	// pool up rather than submitting to the stopped one.
	m.Release()

	buffers, err := m.PrepareAsync([]StagingTask{{
		Name:  "vb2",
		Usage: gfx.UsageVertex,
		Stage: func() ([]byte, error) { return []byte{3, 4, 5}, nil },
	}})
	require.NoError(t, err)
	assert.Equal(t, 3, buffers["vb2"].Desc().Size)
}
