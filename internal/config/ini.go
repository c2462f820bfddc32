package config

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/gcfg.v1"
)

// ExampleINIFile documents the INI form accepted by Load.
const ExampleINIFile = `[Simulation]
Name = binary
Solver = tree
Integrator = symplectic
Dt = 0.001
Duration = 20
Sample-Every = 20
Seed = 1

[Gravity]
G = 1
Theta = 0.5
Epsilon = 0.001

[Collision]
Enabled = true
Density = 1
Radius-Scale = 1

# Spawned bodies are optional when bodies are listed explicitly.
[Spawn]
Count = 0

[Body "primary"]
Mass = 1
Position = -1, 0, 0
Velocity = 0, -0.5, 0
Radius = 0.05

[Body "secondary"]
Mass = 1
Position = 1, 0, 0
Velocity = 0, 0.5, 0
Radius = 0.05
`

// vecText reads "x, y, z" or "x y z".
type vecText mgl64.Vec3

func (v *vecText) UnmarshalText(text []byte) error {
	fields := strings.FieldsFunc(string(text), func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
	if len(fields) != 3 {
		return fmt.Errorf("vector %q needs three components", text)
	}
	for i, f := range fields {
		x, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return fmt.Errorf("vector %q: %w", text, err)
		}
		v[i] = x
	}
	return nil
}

type iniSimulation struct {
	Name        string
	Solver      string
	Integrator  string
	Dt          float64
	Duration    float64
	SampleEvery int `gcfg:"sample-every"`
	Seed        uint64
}

type iniCollision struct {
	Enabled     bool
	Density     float64
	RadiusScale float64 `gcfg:"radius-scale"`
}

type iniSpawn struct {
	Count         int
	Center        vecText
	Bounds        vecText
	MassMin       float64 `gcfg:"mass-min"`
	MassMax       float64 `gcfg:"mass-max"`
	CentralBody   bool    `gcfg:"central-body"`
	CenterMassMin float64 `gcfg:"center-mass-min"`
	CenterMassMax float64 `gcfg:"center-mass-max"`
	Velocity      string
}

type iniBody struct {
	Mass     float64
	Radius   float64
	Kind     string
	Position vecText
	Velocity vecText
}

type iniFile struct {
	Simulation iniSimulation
	Gravity    GravityConfig
	Collision  iniCollision
	Spawn      iniSpawn
	Body       map[string]*iniBody
}

// defaultINI mirrors DefaultConfig so unset keys keep their defaults.
func defaultINI() *iniFile {
	d := DefaultConfig()
	return &iniFile{
		Simulation: iniSimulation{
			Name:        d.Name,
			Solver:      d.Solver,
			Integrator:  d.Integrator,
			Dt:          d.Dt,
			Duration:    d.Duration,
			SampleEvery: d.SampleEvery,
			Seed:        d.Seed,
		},
		Gravity: d.Gravity,
		Collision: iniCollision{
			Enabled:     d.Collision.Enabled,
			Density:     d.Collision.Density,
			RadiusScale: d.Collision.RadiusScale,
		},
		Spawn: iniSpawn{
			Count:         d.Spawn.Count,
			Center:        vecText(d.Spawn.Center),
			Bounds:        vecText(d.Spawn.Bounds),
			MassMin:       d.Spawn.MassMin,
			MassMax:       d.Spawn.MassMax,
			CentralBody:   d.Spawn.CentralBody,
			CenterMassMin: d.Spawn.CenterMassMin,
			CenterMassMax: d.Spawn.CenterMassMax,
			Velocity:      d.Spawn.Velocity,
		},
	}
}

func loadINI(path string) (*Config, error) {
	f := defaultINI()
	if err := gcfg.ReadFileInto(f, path); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return f.config(), nil
}

// ParseINI reads the INI form from a string.
func ParseINI(text string) (*Config, error) {
	f := defaultINI()
	if err := gcfg.ReadStringInto(f, text); err != nil {
		return nil, err
	}
	return f.config(), nil
}

func (f *iniFile) config() *Config {
	s := f.Simulation
	cfg := &Config{
		Name:        s.Name,
		Solver:      s.Solver,
		Integrator:  s.Integrator,
		Dt:          s.Dt,
		Duration:    s.Duration,
		SampleEvery: s.SampleEvery,
		Seed:        s.Seed,
		Gravity:     f.Gravity,
		Collision: CollisionConfig{
			Enabled:     f.Collision.Enabled,
			Density:     f.Collision.Density,
			RadiusScale: f.Collision.RadiusScale,
		},
		Spawn: SpawnConfig{
			Count:         f.Spawn.Count,
			Center:        mgl64.Vec3(f.Spawn.Center),
			Bounds:        mgl64.Vec3(f.Spawn.Bounds),
			MassMin:       f.Spawn.MassMin,
			MassMax:       f.Spawn.MassMax,
			CentralBody:   f.Spawn.CentralBody,
			CenterMassMin: f.Spawn.CenterMassMin,
			CenterMassMax: f.Spawn.CenterMassMax,
			Velocity:      f.Spawn.Velocity,
		},
	}

	// gcfg subsections arrive as a map; order them by name.
	names := make([]string, 0, len(f.Body))
	for name := range f.Body {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		b := f.Body[name]
		cfg.Bodies = append(cfg.Bodies, BodyConfig{
			Mass:     b.Mass,
			Radius:   b.Radius,
			Kind:     b.Kind,
			Position: mgl64.Vec3(b.Position),
			Velocity: mgl64.Vec3(b.Velocity),
		})
	}
	return cfg
}
