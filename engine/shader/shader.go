// Package shader holds the CPU-side shader representation and the compile
// service that validates WGSL sources through naga before backends see them.
package shader

import (
	"github.com/pluscraft/pluscraft/engine/gfx"
)

// shader is the implementation of the Shader interface.
type shader struct {
	key        string
	stage      gfx.ShaderStages
	entryPoint string
	wgsl       string
	glsl       string
}

// Shader describes one shader stage before compilation: its cache key, stage,
// entry point, and per-language source text. WGSL feeds the WebGPU and null
// backends, GLSL feeds the OpenGL backend; a shader may carry either or both.
type Shader interface {
	// Key retrieves the unique identifier for this shader, used for caching and lookups.
	//
	// Returns:
	//   - string: the shader's unique key
	Key() string

	// Stage returns the pipeline stage this shader runs in.
	//
	// Returns:
	//   - gfx.ShaderStages: StageVertex or StagePixel
	Stage() gfx.ShaderStages

	// EntryPoint returns the entry point function name, "main" by default.
	//
	// Returns:
	//   - string: the entry point name
	EntryPoint() string

	// WGSL returns the WGSL source text, or an empty string if the shader
	// only carries GLSL.
	//
	// Returns:
	//   - string: the WGSL source
	WGSL() string

	// GLSL returns the GLSL source text, or an empty string if the shader
	// only carries WGSL.
	//
	// Returns:
	//   - string: the GLSL source
	GLSL() string
}

var _ Shader = &shader{}

// Option configures a Shader during construction.
type Option func(*shader)

// WithWGSL sets the WGSL source text.
func WithWGSL(source string) Option {
	return func(s *shader) {
		s.wgsl = source
	}
}

// WithGLSL sets the GLSL source text.
func WithGLSL(source string) Option {
	return func(s *shader) {
		s.glsl = source
	}
}

// WithEntryPoint overrides the default "main" entry point.
func WithEntryPoint(name string) Option {
	return func(s *shader) {
		s.entryPoint = name
	}
}

// New creates a Shader with the given key and stage and all options applied.
//
// Parameters:
//   - key: a unique identifier for the shader, used for caching and lookups
//   - stage: the pipeline stage the shader runs in
//   - opts: source and entry-point options
//
// Returns:
//   - Shader: the configured shader
func New(key string, stage gfx.ShaderStages, opts ...Option) Shader {
	s := &shader{
		key:        key,
		stage:      stage,
		entryPoint: "main",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *shader) Key() string {
	return s.key
}

func (s *shader) Stage() gfx.ShaderStages {
	return s.stage
}

func (s *shader) EntryPoint() string {
	return s.entryPoint
}

func (s *shader) WGSL() string {
	return s.wgsl
}

func (s *shader) GLSL() string {
	return s.glsl
}
