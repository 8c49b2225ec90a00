package gfx

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubFactory struct {
	t DeviceType
}

func (f *stubFactory) CreateDeviceAndSwapchain(info CreateInfo) (Device, Context, Swapchain, error) {
	return nil, nil, nil, &BackendInitError{Type: f.t, Reason: "stub"}
}

func TestSelectUnregisteredType(t *testing.T) {
	_, err := Select(DeviceTypeVulkan)
	require.Error(t, err)

	var unsupported *UnsupportedBackendError
	require.True(t, errors.As(err, &unsupported))
	assert.Equal(t, DeviceTypeVulkan, unsupported.Type)
	assert.Contains(t, unsupported.Error(), "vulkan")
}

func TestRegisterAndSelect(t *testing.T) {
	Register(DeviceTypeNull, func() Factory { return &stubFactory{t: DeviceTypeNull} })
	defer Unregister(DeviceTypeNull)

	factory, err := Select(DeviceTypeNull)
	require.NoError(t, err)
	require.NotNil(t, factory)
	assert.True(t, IsRegistered(DeviceTypeNull))
}

func TestSelectUndefinedPrefersPriorityOrder(t *testing.T) {
	Register(DeviceTypeNull, func() Factory { return &stubFactory{t: DeviceTypeNull} })
	Register(DeviceTypeWebGPU, func() Factory { return &stubFactory{t: DeviceTypeWebGPU} })
	defer Unregister(DeviceTypeNull)
	defer Unregister(DeviceTypeWebGPU)

	factory, err := Select(DeviceTypeUndefined)
	require.NoError(t, err)
	stub, ok := factory.(*stubFactory)
	require.True(t, ok)
	assert.Equal(t, DeviceTypeWebGPU, stub.t)
}

func TestSelectUndefinedEmptyRegistry(t *testing.T) {
	for _, dt := range Available() {
		Unregister(dt)
	}

	_, err := Select(DeviceTypeUndefined)
	var unsupported *UnsupportedBackendError
	require.True(t, errors.As(err, &unsupported))
}

func TestAvailableSortedByPriority(t *testing.T) {
	Register(DeviceTypeOpenGL, func() Factory { return &stubFactory{t: DeviceTypeOpenGL} })
	Register(DeviceTypeWebGPU, func() Factory { return &stubFactory{t: DeviceTypeWebGPU} })
	defer Unregister(DeviceTypeOpenGL)
	defer Unregister(DeviceTypeWebGPU)

	assert.Equal(t, []DeviceType{DeviceTypeWebGPU, DeviceTypeOpenGL}, Available())
}

func TestDeviceTypeStrings(t *testing.T) {
	assert.Equal(t, "webgpu", DeviceTypeWebGPU.String())
	assert.Equal(t, "opengl", DeviceTypeOpenGL.String())
	assert.Equal(t, "vulkan", DeviceTypeVulkan.String())
	assert.Equal(t, "null", DeviceTypeNull.String())
	assert.Equal(t, "undefined", DeviceTypeUndefined.String())
}

func TestMappedRangeCommitOnce(t *testing.T) {
	commits := 0
	var committed []byte
	m := NewMappedRange(4, func(b []byte) error {
		commits++
		committed = append([]byte(nil), b...)
		return nil
	})
	require.Len(t, m.Bytes, 4)

	copy(m.Bytes, []byte{1, 2, 3, 4})
	require.NoError(t, m.Close())
	require.NoError(t, m.Close())

	assert.Equal(t, 1, commits)
	assert.Equal(t, []byte{1, 2, 3, 4}, committed)
	assert.Nil(t, m.Bytes)
}
