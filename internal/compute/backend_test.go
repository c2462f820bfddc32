package compute

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"

	"github.com/san-kum/gravsim/internal/dynamo"
	"github.com/san-kum/gravsim/internal/gravity"
)

func plummerish(n int, seed uint64) ([]mgl64.Vec3, []float64) {
	rng := rand.New(rand.NewSource(seed))
	pos := make([]mgl64.Vec3, n)
	mass := make([]float64, n)
	for i := range pos {
		pos[i] = mgl64.Vec3{rng.NormFloat64(), rng.NormFloat64(), rng.NormFloat64()}.Mul(10)
		mass[i] = 0.1 + rng.Float64()
	}
	return pos, mass
}

func relErr(got, want []mgl64.Vec3) float64 {
	var num, den float64
	for i := range got {
		num += got[i].Sub(want[i]).LenSqr()
		den += want[i].LenSqr()
	}
	if den == 0 {
		return num
	}
	return num / den
}

func TestBackendsAgree(t *testing.T) {
	params := gravity.Params{G: 1, Theta: 0.3, Epsilon: 0.05}
	pos, mass := plummerish(500, 1)

	reference := make([]mgl64.Vec3, len(pos))
	require.NoError(t, NewDirectBackend(params).Accelerations(pos, mass, reference))

	for _, name := range []string{"tree", "gonum", "auto"} {
		t.Run(name, func(t *testing.T) {
			b, err := New(name, params)
			require.NoError(t, err)

			acc := make([]mgl64.Vec3, len(pos))
			require.NoError(t, b.Accelerations(pos, mass, acc))
			// Squared relative error, so 1e-3 is about 3% RMS.
			assert.Less(t, relErr(acc, reference), 1e-3)
		})
	}
}

func TestGonumBackend_MixedMassesMatchDirect(t *testing.T) {
	params := gravity.Params{G: 1, Theta: 0.3, Epsilon: 0.05}
	pos, mass := plummerish(300, 4)

	want := make([]mgl64.Vec3, len(pos))
	got := make([]mgl64.Vec3, len(pos))
	b := NewGonumBackend(params)
	require.False(t, b.Approximates(mass))
	require.NoError(t, NewDirectBackend(params).Accelerations(pos, mass, want))
	require.NoError(t, b.Accelerations(pos, mass, got))

	assert.Less(t, relErr(got, want), 1e-18)
}

func TestGonumBackend_UniformMassesUseTree(t *testing.T) {
	params := gravity.Params{G: 1, Theta: 0.3, Epsilon: 0.05}
	pos, _ := plummerish(500, 5)
	mass := make([]float64, len(pos))
	for i := range mass {
		mass[i] = 2.5
	}

	want := make([]mgl64.Vec3, len(pos))
	got := make([]mgl64.Vec3, len(pos))
	b := NewGonumBackend(params)
	require.True(t, b.Approximates(mass))
	require.NoError(t, NewDirectBackend(params).Accelerations(pos, mass, want))
	require.NoError(t, b.Accelerations(pos, mass, got))

	assert.Less(t, relErr(got, want), 1e-3)
	assert.Greater(t, relErr(got, want), 0.0)
}

func TestTreeBackend_ExactWithZeroTheta(t *testing.T) {
	params := gravity.Params{G: 2, Theta: 0, Epsilon: 0.01}
	pos, mass := plummerish(100, 2)

	want := make([]mgl64.Vec3, len(pos))
	got := make([]mgl64.Vec3, len(pos))
	require.NoError(t, NewDirectBackend(params).Accelerations(pos, mass, want))
	require.NoError(t, NewTreeBackend(params).Accelerations(pos, mass, got))

	for i := range want {
		assert.InDelta(t, 0, got[i].Sub(want[i]).Len(), 1e-9*(1+want[i].Len()), "body %d", i)
	}
}

func TestBackends_TwoBodies(t *testing.T) {
	pos := []mgl64.Vec3{{0, 0, 0}, {2, 0, 0}}
	mass := []float64{1, 3}

	for _, name := range []string{"tree", "direct", "gonum"} {
		t.Run(name, func(t *testing.T) {
			b, err := New(name, gravity.Params{G: 1, Theta: 0})
			require.NoError(t, err)

			acc := make([]mgl64.Vec3, 2)
			require.NoError(t, b.Accelerations(pos, mass, acc))
			assert.InDelta(t, 0.75, acc[0][0], 1e-12)
			assert.InDelta(t, -0.25, acc[1][0], 1e-12)
		})
	}
}

func TestBackends_CoincidentBodies(t *testing.T) {
	pos := []mgl64.Vec3{{1, 1, 1}, {1, 1, 1}, {5, 1, 1}}
	mass := []float64{1, 1, 1}

	for _, name := range []string{"tree", "direct", "gonum"} {
		t.Run(name, func(t *testing.T) {
			b, err := New(name, gravity.Params{G: 1, Theta: 0.5, Epsilon: 0.1})
			require.NoError(t, err)

			acc := make([]mgl64.Vec3, len(pos))
			require.NoError(t, b.Accelerations(pos, mass, acc))
			for i, a := range acc {
				assert.True(t, dynamo.IsFinite(a), "body %d: %v", i, a)
			}
			assert.Greater(t, acc[0][0], 0.0)
			assert.Less(t, acc[2][0], 0.0)
		})
	}
}

func TestBackends_DimensionMismatch(t *testing.T) {
	for _, name := range []string{"tree", "direct", "gonum"} {
		b, err := New(name, gravity.DefaultParams())
		require.NoError(t, err)

		err = b.Accelerations(make([]mgl64.Vec3, 2), make([]float64, 3), make([]mgl64.Vec3, 2))
		assert.True(t, errors.Is(err, dynamo.ErrDimensionMismatch), "%s: %v", name, err)
	}
}

func TestNew_Unknown(t *testing.T) {
	_, err := New("cuda", gravity.DefaultParams())
	assert.Error(t, err)

	_, err = New("tree", gravity.Params{G: -1})
	assert.ErrorIs(t, err, dynamo.ErrParameterBounds)

	assert.Equal(t, []string{"auto", "direct", "gonum", "tree"}, Names())
}

func BenchmarkBackends(b *testing.B) {
	pos, mass := plummerish(2000, 3)
	acc := make([]mgl64.Vec3, len(pos))
	for _, name := range []string{"tree", "direct", "gonum"} {
		backend, _ := New(name, gravity.DefaultParams())
		b.Run(name, func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				_ = backend.Accelerations(pos, mass, acc)
			}
		})
	}
}
