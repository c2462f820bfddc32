package integrators

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/gravsim/internal/dynamo"
)

type stepper interface {
	Step(bodies []dynamo.Body, acc []mgl64.Vec3, dt float64)
}

func TestSymplecticEuler_UsesUpdatedVelocity(t *testing.T) {
	bodies := []dynamo.Body{{ID: 1, Mass: 1, Velocity: mgl64.Vec3{1, 0, 0}}}
	acc := []mgl64.Vec3{{2, 0, 0}}

	NewSymplecticEuler().Step(bodies, acc, 0.5)

	// v = 1 + 2·0.5 = 2, x = 0 + 2·0.5 = 1
	if got := bodies[0].Velocity[0]; got != 2 {
		t.Errorf("velocity = %g, want 2", got)
	}
	if got := bodies[0].Position[0]; got != 1 {
		t.Errorf("position = %g, want 1", got)
	}
}

func TestEuler_UsesInitialVelocity(t *testing.T) {
	bodies := []dynamo.Body{{ID: 1, Mass: 1, Velocity: mgl64.Vec3{1, 0, 0}}}
	acc := []mgl64.Vec3{{2, 0, 0}}

	NewEuler().Step(bodies, acc, 0.5)

	if got := bodies[0].Position[0]; got != 0.5 {
		t.Errorf("position = %g, want 0.5", got)
	}
	if got := bodies[0].Velocity[0]; got != 2 {
		t.Errorf("velocity = %g, want 2", got)
	}
}

func TestZeroTimestepIsNoop(t *testing.T) {
	for _, integ := range []stepper{NewSymplecticEuler(), NewEuler()} {
		bodies := []dynamo.Body{{ID: 1, Mass: 1, Position: mgl64.Vec3{1, 2, 3}, Velocity: mgl64.Vec3{4, 5, 6}}}
		want := bodies[0]
		integ.Step(bodies, []mgl64.Vec3{{7, 8, 9}}, 0)
		if bodies[0] != want {
			t.Errorf("%T: body changed to %+v", integ, bodies[0])
		}
	}
}

// oscillatorEnergy integrates x'' = -x for n steps and returns the final
// energy relative to the initial 0.5.
func oscillatorEnergy(integ stepper, n int, dt float64) float64 {
	bodies := []dynamo.Body{{ID: 1, Mass: 1, Position: mgl64.Vec3{1, 0, 0}}}
	acc := make([]mgl64.Vec3, 1)
	for i := 0; i < n; i++ {
		acc[0] = bodies[0].Position.Mul(-1)
		integ.Step(bodies, acc, dt)
	}
	b := bodies[0]
	return 0.5*b.Velocity.LenSqr() + 0.5*b.Position.LenSqr()
}

func TestEnergyBehaviour(t *testing.T) {
	const steps, dt = 10000, 0.01

	symplectic := oscillatorEnergy(NewSymplecticEuler(), steps, dt)
	if math.Abs(symplectic-0.5)/0.5 > 0.01 {
		t.Errorf("symplectic energy drifted to %g", symplectic)
	}

	explicit := oscillatorEnergy(NewEuler(), steps, dt)
	if explicit <= symplectic {
		t.Errorf("explicit Euler energy %g should grow past symplectic %g", explicit, symplectic)
	}
}

func TestStep_Parallel(t *testing.T) {
	const n = 5000
	bodies := make([]dynamo.Body, n)
	acc := make([]mgl64.Vec3, n)
	for i := range bodies {
		bodies[i] = dynamo.Body{ID: dynamo.BodyID(i + 1), Mass: 1}
		acc[i] = mgl64.Vec3{float64(i), 0, 0}
	}

	NewSymplecticEuler().Step(bodies, acc, 1)

	for i, b := range bodies {
		if b.Position[0] != float64(i) {
			t.Fatalf("body %d at %v, want x=%d", i, b.Position, i)
		}
	}
}

func BenchmarkSymplecticEuler(b *testing.B) {
	bodies := make([]dynamo.Body, 10000)
	acc := make([]mgl64.Vec3, len(bodies))
	integ := NewSymplecticEuler()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		integ.Step(bodies, acc, 0.01)
	}
}
