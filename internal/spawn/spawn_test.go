package spawn

import (
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"golang.org/x/exp/rand"

	"github.com/san-kum/gravsim/internal/dynamo"
)

func galaxy() Config {
	return Config{
		Seed:          42,
		Count:         200,
		Center:        mgl64.Vec3{10, 0, 0},
		Bounds:        mgl64.Vec3{50, 5, 50},
		MassMin:       0.5,
		MassMax:       2,
		CentralBody:   true,
		CenterMassMin: 1000,
		CenterMassMax: 2000,
		Velocity:      VelocityOrbital,
		G:             1,
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	a, err := Generate(galaxy())
	if err != nil {
		t.Fatal(err)
	}
	b, _ := Generate(galaxy())
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("body %d differs between runs: %+v vs %+v", i, a[i], b[i])
		}
	}

	cfg := galaxy()
	cfg.Seed = 43
	c, _ := Generate(cfg)
	if c[1] == a[1] {
		t.Error("different seeds produced identical bodies")
	}
}

func TestGenerate_CentralStar(t *testing.T) {
	bodies, err := Generate(galaxy())
	if err != nil {
		t.Fatal(err)
	}
	if len(bodies) != 201 {
		t.Fatalf("got %d bodies, want 201", len(bodies))
	}

	star := bodies[0]
	if star.Kind != dynamo.Star {
		t.Errorf("central body kind = %v, want star", star.Kind)
	}
	if star.Position != (mgl64.Vec3{10, 0, 0}) || star.Velocity != (mgl64.Vec3{}) {
		t.Errorf("central body at %v moving %v", star.Position, star.Velocity)
	}
	if star.Mass < 1000 || star.Mass > 2000 {
		t.Errorf("central mass %g outside range", star.Mass)
	}
}

func TestGenerate_BoundsAndMasses(t *testing.T) {
	cfg := galaxy()
	bodies, err := Generate(cfg)
	if err != nil {
		t.Fatal(err)
	}

	for _, b := range bodies[1:] {
		if err := b.Validate(); err != nil {
			t.Fatalf("invalid body: %v", err)
		}
		if b.Kind != dynamo.Planet {
			t.Errorf("spawned body kind = %v", b.Kind)
		}
		if b.Mass < cfg.MassMin || b.Mass > cfg.MassMax {
			t.Errorf("mass %g outside [%g, %g]", b.Mass, cfg.MassMin, cfg.MassMax)
		}

		d := b.Position.Sub(cfg.Center)
		q := sq(d[0]/cfg.Bounds[0]) + sq(d[1]/cfg.Bounds[1]) + sq(d[2]/cfg.Bounds[2])
		if q > 1+1e-9 {
			t.Errorf("position %v outside ellipsoid (q=%g)", b.Position, q)
		}
	}
}

func TestGenerate_OrbitalSpeed(t *testing.T) {
	cfg := galaxy()
	bodies, _ := Generate(cfg)
	central := bodies[0].Mass

	for _, b := range bodies[1:] {
		r := b.Position.Sub(cfg.Center)
		want := math.Sqrt(cfg.G * central / r.Len())
		if math.Abs(b.Velocity.Len()-want) > 1e-9*want {
			t.Fatalf("speed %g, want %g", b.Velocity.Len(), want)
		}
		if math.Abs(b.Velocity.Dot(r)) > 1e-9*want*r.Len() {
			t.Fatalf("velocity %v not perpendicular to radius %v", b.Velocity, r)
		}
	}
}

func TestGenerate_NoVelocity(t *testing.T) {
	cfg := galaxy()
	cfg.Velocity = VelocityNone
	cfg.CentralBody = false
	bodies, err := Generate(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if len(bodies) != cfg.Count {
		t.Fatalf("got %d bodies, want %d", len(bodies), cfg.Count)
	}
	for _, b := range bodies {
		if b.Velocity != (mgl64.Vec3{}) {
			t.Fatalf("velocity %v, want zero", b.Velocity)
		}
	}
}

func TestOrbitalVelocity_FallsBackOnYAxis(t *testing.T) {
	v := OrbitalVelocity(mgl64.Vec3{0, 5, 0}, mgl64.Vec3{}, 5, 1)
	if math.Abs(v.Len()-1) > 1e-12 {
		t.Errorf("speed = %g, want 1", v.Len())
	}
	if v[1] != 0 {
		t.Errorf("velocity %v should be perpendicular to Y", v)
	}

	if OrbitalVelocity(mgl64.Vec3{}, mgl64.Vec3{}, 5, 1) != (mgl64.Vec3{}) {
		t.Error("coincident body should get zero velocity")
	}
}

func TestPointInEllipsoid_Uniform(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	inner := 0
	const n = 20000
	for i := 0; i < n; i++ {
		if PointInEllipsoid(rng, mgl64.Vec3{1, 1, 1}).Len() < 0.5 {
			inner++
		}
	}
	// A uniform ball holds 1/8 of its points inside half its radius.
	if frac := float64(inner) / n; math.Abs(frac-0.125) > 0.01 {
		t.Errorf("fraction inside r=0.5 is %g, want ~0.125", frac)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		want   error
	}{
		{"valid", func(c *Config) {}, nil},
		{"zero mass", func(c *Config) { c.MassMin = 0 }, dynamo.ErrNonPositiveMass},
		{"inverted range", func(c *Config) { c.MassMax = 0.1 }, dynamo.ErrNonPositiveMass},
		{"bad central mass", func(c *Config) { c.CenterMassMin = -1 }, dynamo.ErrNonPositiveMass},
		{"negative bounds", func(c *Config) { c.Bounds[1] = -1 }, dynamo.ErrParameterBounds},
		{"zero G", func(c *Config) { c.G = 0 }, dynamo.ErrParameterBounds},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := galaxy()
			tt.modify(&cfg)
			err := cfg.Validate()
			if tt.want == nil {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}

	cfg := galaxy()
	cfg.Velocity = "spiral"
	if cfg.Validate() == nil {
		t.Error("unknown velocity mode accepted")
	}
}

func sq(x float64) float64 { return x * x }
