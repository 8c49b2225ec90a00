package shader

import (
	"fmt"
	"sync"

	"github.com/gogpu/naga"

	"github.com/pluscraft/pluscraft/engine/gfx"
)

// cacheKey is the identity of a compiled shader. Two shaders with the same
// source, stage, and entry point share one compilation result.
type cacheKey struct {
	wgsl  string
	glsl  string
	stage gfx.ShaderStages
	entry string
}

// library is the implementation of the Library interface.
type library struct {
	mu    sync.Mutex
	cache map[cacheKey]gfx.ShaderDesc

	// compileWGSL is naga.Compile in production; tests swap it to observe
	// or fail compilations.
	compileWGSL func(source string) ([]byte, error)
}

// Library compiles Shader sources into the gfx.ShaderDesc values backends
// consume. WGSL sources are validated through naga up front so that malformed
// shaders fail at pipeline-build time with full diagnostics instead of deep
// inside a backend. Results are cached by source, stage, and entry point.
type Library interface {
	// Compile validates the shader's sources and returns the backend-ready
	// description. WGSL validation failures are reported as
	// *gfx.ShaderCompilationError carrying the naga diagnostics.
	//
	// Parameters:
	//   - s: the shader to compile
	//
	// Returns:
	//   - gfx.ShaderDesc: the validated description, with SPIRV populated when WGSL was present
	//   - error: *gfx.ShaderCompilationError on invalid source
	Compile(s Shader) (gfx.ShaderDesc, error)
}

var _ Library = &library{}

// NewLibrary creates an empty compile service.
func NewLibrary() Library {
	return &library{
		cache:       make(map[cacheKey]gfx.ShaderDesc),
		compileWGSL: naga.Compile,
	}
}

func (l *library) Compile(s Shader) (gfx.ShaderDesc, error) {
	if s.WGSL() == "" && s.GLSL() == "" {
		return gfx.ShaderDesc{}, &gfx.ShaderCompilationError{
			Name:        s.Key(),
			Stage:       s.Stage(),
			Diagnostics: "shader carries no source in any language",
		}
	}

	key := cacheKey{wgsl: s.WGSL(), glsl: s.GLSL(), stage: s.Stage(), entry: s.EntryPoint()}

	l.mu.Lock()
	defer l.mu.Unlock()

	if desc, ok := l.cache[key]; ok {
		return desc, nil
	}

	desc := gfx.ShaderDesc{
		Name:       s.Key(),
		Stage:      s.Stage(),
		EntryPoint: s.EntryPoint(),
		WGSL:       s.WGSL(),
		GLSL:       s.GLSL(),
	}
	if desc.WGSL != "" {
		spirv, err := l.compileWGSL(desc.WGSL)
		if err != nil {
			return gfx.ShaderDesc{}, &gfx.ShaderCompilationError{
				Name:        s.Key(),
				Stage:       s.Stage(),
				Diagnostics: fmt.Sprintf("wgsl validation failed: %v", err),
			}
		}
		desc.SPIRV = spirv
	}

	l.cache[key] = desc
	return desc, nil
}
