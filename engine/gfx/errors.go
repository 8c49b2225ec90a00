package gfx

import (
	"fmt"
	"runtime"
)

// UnsupportedBackendError is returned by Select when no factory is registered
// for the requested device type on this platform and build.
type UnsupportedBackendError struct {
	Type DeviceType
}

func (e *UnsupportedBackendError) Error() string {
	return fmt.Sprintf("gfx: no %s backend is registered on %s/%s", e.Type, runtime.GOOS, runtime.GOARCH)
}

// BackendInitError is returned by a Factory when device or context
// negotiation fails before a surface is involved.
type BackendInitError struct {
	Type   DeviceType
	Reason string
	Err    error
}

func (e *BackendInitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("gfx: %s backend initialization failed: %s: %v", e.Type, e.Reason, e.Err)
	}
	return fmt.Sprintf("gfx: %s backend initialization failed: %s", e.Type, e.Reason)
}

func (e *BackendInitError) Unwrap() error {
	return e.Err
}

// SwapchainCreationError is returned by a Factory when the device came up but
// the presentable surface could not be created or configured.
type SwapchainCreationError struct {
	Type   DeviceType
	Reason string
	Err    error
}

func (e *SwapchainCreationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("gfx: %s swapchain creation failed: %s: %v", e.Type, e.Reason, e.Err)
	}
	return fmt.Sprintf("gfx: %s swapchain creation failed: %s", e.Type, e.Reason)
}

func (e *SwapchainCreationError) Unwrap() error {
	return e.Err
}

// ShaderCompilationError reports a shader that failed to compile, carrying
// the compiler diagnostics verbatim.
type ShaderCompilationError struct {
	Name        string
	Stage       ShaderStages
	Diagnostics string
}

func (e *ShaderCompilationError) Error() string {
	return fmt.Sprintf("gfx: %s shader %q failed to compile:\n%s", e.Stage, e.Name, e.Diagnostics)
}

// PipelineLinkError reports a pipeline whose shader stages compiled but could
// not be combined, either because the program link step failed or because the
// stage interfaces do not match.
type PipelineLinkError struct {
	Name        string
	Diagnostics string
}

func (e *PipelineLinkError) Error() string {
	return fmt.Sprintf("gfx: pipeline %q failed to link:\n%s", e.Name, e.Diagnostics)
}

// ImmutableBufferWriteError reports an attempt to map or write a buffer
// created with AccessImmutable.
type ImmutableBufferWriteError struct {
	Buffer string
}

func (e *ImmutableBufferWriteError) Error() string {
	return fmt.Sprintf("gfx: buffer %q is immutable and cannot be written after creation", e.Buffer)
}
