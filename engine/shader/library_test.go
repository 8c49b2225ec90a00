package shader

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pluscraft/pluscraft/engine/gfx"
)

func newTestLibrary(compile func(string) ([]byte, error)) *library {
	return &library{
		cache:       make(map[cacheKey]gfx.ShaderDesc),
		compileWGSL: compile,
	}
}

func TestCompilePopulatesSPIRV(t *testing.T) {
	lib := newTestLibrary(func(source string) ([]byte, error) {
		return []byte{0x03, 0x02, 0x23, 0x07}, nil
	})

	s := New("cube-vs", gfx.StageVertex,
		WithWGSL("@vertex fn main() -> @builtin(position) vec4<f32> { return vec4<f32>(0.0); }"),
	)
	desc, err := lib.Compile(s)
	require.NoError(t, err)

	assert.Equal(t, "cube-vs", desc.Name)
	assert.Equal(t, gfx.StageVertex, desc.Stage)
	assert.Equal(t, "main", desc.EntryPoint)
	assert.NotEmpty(t, desc.SPIRV)
}

func TestCompileInvalidWGSL(t *testing.T) {
	lib := newTestLibrary(func(source string) ([]byte, error) {
		return nil, errors.New("expected expression, found '}'")
	})

	s := New("broken", gfx.StagePixel, WithWGSL("@fragment fn main() {"))
	_, err := lib.Compile(s)
	require.Error(t, err)

	var compileErr *gfx.ShaderCompilationError
	require.True(t, errors.As(err, &compileErr))
	assert.Equal(t, "broken", compileErr.Name)
	assert.Equal(t, gfx.StagePixel, compileErr.Stage)
	assert.Contains(t, compileErr.Diagnostics, "expected expression")
}

func TestCompileEmptyShader(t *testing.T) {
	lib := newTestLibrary(nil)

	_, err := lib.Compile(New("empty", gfx.StageVertex))
	var compileErr *gfx.ShaderCompilationError
	require.True(t, errors.As(err, &compileErr))
}

func TestCompileCachesBySourceStageEntry(t *testing.T) {
	calls := 0
	lib := newTestLibrary(func(source string) ([]byte, error) {
		calls++
		return []byte{1}, nil
	})

	a := New("a", gfx.StageVertex, WithWGSL("fn main() {}"))
	b := New("b", gfx.StageVertex, WithWGSL("fn main() {}"))

	_, err := lib.Compile(a)
	require.NoError(t, err)
	_, err = lib.Compile(b)
	require.NoError(t, err)
	assert.Equal(t, 1, calls, "identical source, stage, and entry point should compile once")

	// A different entry point is a different compilation.
	c := New("c", gfx.StageVertex, WithWGSL("fn main() {}"), WithEntryPoint("vs_main"))
	_, err = lib.Compile(c)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestCompileGLSLOnlyPassesThrough(t *testing.T) {
	lib := newTestLibrary(func(source string) ([]byte, error) {
		t.Fatal("GLSL-only shaders must not go through the WGSL compiler")
		return nil, nil
	})

	s := New("gl-vs", gfx.StageVertex, WithGLSL("#version 460 core\nvoid main() {}"))
	desc, err := lib.Compile(s)
	require.NoError(t, err)
	assert.Empty(t, desc.SPIRV)
	assert.NotEmpty(t, desc.GLSL)
}
