package config

import (
	"sort"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/gravsim/internal/spawn"
)

// Presets are complete configurations addressable by name. Use GetPreset,
// which returns a copy, rather than mutating these.
var Presets = map[string]*Config{
	"binary": {
		Name: "binary", Solver: "direct", Integrator: "symplectic",
		Dt: 0.001, Duration: 20, SampleEvery: 20, Seed: 1,
		Gravity:   GravityConfig{G: 1, Theta: 0.5, Epsilon: 0.001},
		Collision: CollisionConfig{Enabled: true, Density: 1, RadiusScale: 0.05},
		Bodies: []BodyConfig{
			{Mass: 1, Position: mgl64.Vec3{-1, 0, 0}, Velocity: mgl64.Vec3{0, -0.5, 0}},
			{Mass: 1, Position: mgl64.Vec3{1, 0, 0}, Velocity: mgl64.Vec3{0, 0.5, 0}},
		},
	},
	"figure8": {
		Name: "figure8", Solver: "direct", Integrator: "symplectic",
		Dt: 0.0005, Duration: 6.3259, SampleEvery: 20, Seed: 1,
		Gravity:   GravityConfig{G: 1, Theta: 0, Epsilon: 0},
		Collision: CollisionConfig{Enabled: false, Density: 1, RadiusScale: 1},
		Bodies: []BodyConfig{
			{Mass: 1, Position: mgl64.Vec3{-0.97000436, 0.24308753, 0}, Velocity: mgl64.Vec3{0.466203685, 0.43236573, 0}},
			{Mass: 1, Position: mgl64.Vec3{0.97000436, -0.24308753, 0}, Velocity: mgl64.Vec3{0.466203685, 0.43236573, 0}},
			{Mass: 1, Position: mgl64.Vec3{0, 0, 0}, Velocity: mgl64.Vec3{-0.93240737, -0.86473146, 0}},
		},
	},
	"galaxy": {
		Name: "galaxy", Solver: "tree", Integrator: "symplectic",
		Dt: 0.01, Duration: 20, SampleEvery: 10, Seed: 7,
		Gravity:   GravityConfig{G: 1, Theta: 0.5, Epsilon: 0.05},
		Collision: CollisionConfig{Enabled: true, Density: 1, RadiusScale: 0.1},
		Spawn: SpawnConfig{
			Count: 2000, Bounds: mgl64.Vec3{100, 5, 100},
			MassMin: 0.01, MassMax: 0.1,
			CentralBody: true, CenterMassMin: 5000, CenterMassMax: 5000,
			Velocity: spawn.VelocityOrbital,
		},
	},
	"cluster": {
		Name: "cluster", Solver: "tree", Integrator: "symplectic",
		Dt: 0.005, Duration: 10, SampleEvery: 20, Seed: 3,
		Gravity:   GravityConfig{G: 1, Theta: 0.7, Epsilon: 0.1},
		Collision: CollisionConfig{Enabled: true, Density: 1, RadiusScale: 0.2},
		Spawn: SpawnConfig{
			Count: 5000, Bounds: mgl64.Vec3{20, 20, 20},
			MassMin: 0.5, MassMax: 1.5,
			Velocity: spawn.VelocityNone,
		},
	},
	"collision": {
		Name: "collision", Solver: "auto", Integrator: "symplectic",
		Dt: 0.001, Duration: 5, SampleEvery: 10, Seed: 1,
		Gravity:   GravityConfig{G: 1, Theta: 0.5, Epsilon: 0.01},
		Collision: CollisionConfig{Enabled: true, Density: 1, RadiusScale: 1},
		Bodies: []BodyConfig{
			{Mass: 5, Position: mgl64.Vec3{-5, 0, 0}, Velocity: mgl64.Vec3{1, 0, 0}},
			{Mass: 3, Position: mgl64.Vec3{5, 0, 0}, Velocity: mgl64.Vec3{-2, 0, 0}},
		},
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
