package common

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentity(t *testing.T) {
	m := make([]float32, 16)
	for i := range m {
		m[i] = 7
	}
	Identity(m)
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			want := float32(0)
			if i == j {
				want = 1
			}
			assert.Equal(t, want, m[i*4+j])
		}
	}
}

func TestMul4ByIdentity(t *testing.T) {
	a := []float32{
		1, 2, 3, 4,
		5, 6, 7, 8,
		9, 10, 11, 12,
		13, 14, 15, 16,
	}
	id := make([]float32, 16)
	Identity(id)

	out := make([]float32, 16)
	Mul4(out, a, id)
	assert.Equal(t, a, out)
	Mul4(out, id, a)
	assert.Equal(t, a, out)
}

func TestMul4AllowsAliasedOutput(t *testing.T) {
	a := make([]float32, 16)
	b := make([]float32, 16)
	Translation(a, 1, 2, 3)
	Translation(b, 10, 20, 30)

	want := make([]float32, 16)
	Mul4(want, a, b)

	Mul4(a, a, b)
	assert.Equal(t, want, a)
}

func TestTranslationComposes(t *testing.T) {
	a := make([]float32, 16)
	b := make([]float32, 16)
	out := make([]float32, 16)
	Translation(a, 1, 2, 3)
	Translation(b, 4, 5, 6)
	Mul4(out, a, b)

	assert.Equal(t, float32(5), out[12])
	assert.Equal(t, float32(7), out[13])
	assert.Equal(t, float32(9), out[14])
}

func TestPerspectiveDepthRange(t *testing.T) {
	m := make([]float32, 16)
	Perspective(m, math32.Pi/4, 16.0/9.0, 0.1, 100.0)

	// Transform points on the near and far planes; depth must land in [0, 1].
	project := func(z float32) float32 {
		clipZ := m[10]*z + m[14]
		clipW := m[11] * z
		return clipZ / clipW
	}
	assert.InDelta(t, 0.0, project(-0.1), 1e-5)
	assert.InDelta(t, 1.0, project(-100.0), 1e-4)
	assert.Equal(t, float32(-1), m[11])
}

func TestRotationYQuarterTurn(t *testing.T) {
	m := make([]float32, 16)
	RotationY(m, math32.Pi/2)

	// (0,0,-1) rotates to (-1,0,0).
	x := m[0]*0 + m[4]*0 + m[8]*-1
	z := m[2]*0 + m[6]*0 + m[10]*-1
	assert.InDelta(t, -1.0, x, 1e-6)
	assert.InDelta(t, 0.0, z, 1e-6)
}

func TestBuildModelMatrixIdentityInputs(t *testing.T) {
	m := make([]float32, 16)
	BuildModelMatrix(m, 0, 0, 0, 0, 0, 0, 1, 1, 1)

	id := make([]float32, 16)
	Identity(id)
	for i := range id {
		assert.InDelta(t, id[i], m[i], 1e-6)
	}
}

func TestBuildModelMatrixTranslationAndScale(t *testing.T) {
	m := make([]float32, 16)
	BuildModelMatrix(m, 3, -2, 5, 0, 0, 0, 2, 2, 2)

	assert.Equal(t, float32(3), m[12])
	assert.Equal(t, float32(-2), m[13])
	assert.Equal(t, float32(5), m[14])
	assert.InDelta(t, 2.0, m[0], 1e-6)
	assert.InDelta(t, 2.0, m[5], 1e-6)
	assert.InDelta(t, 2.0, m[10], 1e-6)
}

func TestSliceToBytes(t *testing.T) {
	data := []float32{1, 2, 3}
	b := SliceToBytes(data)
	require.Len(t, b, 12)

	assert.Nil(t, SliceToBytes([]float32(nil)))

	indices := []uint16{0, 1, 2}
	assert.Len(t, SliceToBytes(indices), 6)
}

func TestCoalesce(t *testing.T) {
	assert.Equal(t, 3, Coalesce(0, 3, 5))
	assert.Equal(t, 2, Coalesce(2))
	assert.Equal(t, 0, Coalesce(0, 0))
	assert.Equal(t, "windowed", Coalesce("", "windowed"))
}

func TestStructToBytes(t *testing.T) {
	type constants struct {
		MVP [16]float32
	}
	c := constants{}
	b := StructToBytes(&c)
	assert.Len(t, b, 64)
}
