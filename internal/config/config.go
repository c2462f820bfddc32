package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/gravsim/internal/dynamo"
	"github.com/san-kum/gravsim/internal/gravity"
	"github.com/san-kum/gravsim/internal/sim"
	"github.com/san-kum/gravsim/internal/spawn"
)

const (
	DefaultDt          = 0.01
	DefaultDuration    = 10.0
	DefaultSampleEvery = 10
	DefaultSolver      = "tree"
	DefaultIntegrator  = "symplectic"
	DefaultDensity     = 1.0
	DefaultRadiusScale = 1.0
)

type Config struct {
	Name        string          `yaml:"name"`
	Solver      string          `yaml:"solver"`
	Integrator  string          `yaml:"integrator"`
	Dt          float64         `yaml:"dt"`
	Duration    float64         `yaml:"duration"`
	SampleEvery int             `yaml:"sample_every"`
	Seed        uint64          `yaml:"seed"`
	Gravity     GravityConfig   `yaml:"gravity"`
	Collision   CollisionConfig `yaml:"collision"`
	Spawn       SpawnConfig     `yaml:"spawn"`
	Bodies      []BodyConfig    `yaml:"bodies,omitempty"`
}

type GravityConfig struct {
	G       float64 `yaml:"g"`
	Theta   float64 `yaml:"theta"`
	Epsilon float64 `yaml:"epsilon"`
}

type CollisionConfig struct {
	Enabled     bool    `yaml:"enabled"`
	Density     float64 `yaml:"density"`
	RadiusScale float64 `yaml:"radius_scale"`
}

type SpawnConfig struct {
	Count         int        `yaml:"count"`
	Center        mgl64.Vec3 `yaml:"center,flow"`
	Bounds        mgl64.Vec3 `yaml:"bounds,flow"`
	MassMin       float64    `yaml:"mass_min"`
	MassMax       float64    `yaml:"mass_max"`
	CentralBody   bool       `yaml:"central_body"`
	CenterMassMin float64    `yaml:"center_mass_min"`
	CenterMassMax float64    `yaml:"center_mass_max"`
	Velocity      string     `yaml:"velocity"`
}

// BodyConfig is a body placed explicitly rather than spawned.
type BodyConfig struct {
	Mass     float64    `yaml:"mass"`
	Radius   float64    `yaml:"radius,omitempty"`
	Kind     string     `yaml:"kind,omitempty"`
	Position mgl64.Vec3 `yaml:"position,flow"`
	Velocity mgl64.Vec3 `yaml:"velocity,flow"`
}

func DefaultConfig() *Config {
	return &Config{
		Name:        "default",
		Solver:      DefaultSolver,
		Integrator:  DefaultIntegrator,
		Dt:          DefaultDt,
		Duration:    DefaultDuration,
		SampleEvery: DefaultSampleEvery,
		Seed:        1,
		Gravity: GravityConfig{
			G:       gravity.DefaultG,
			Theta:   gravity.DefaultTheta,
			Epsilon: gravity.DefaultEpsilon,
		},
		Collision: CollisionConfig{
			Enabled:     true,
			Density:     DefaultDensity,
			RadiusScale: DefaultRadiusScale,
		},
		Spawn: SpawnConfig{
			Bounds:   mgl64.Vec3{10, 10, 10},
			MassMin:  1,
			MassMax:  1,
			Velocity: spawn.VelocityOrbital,
		},
	}
}

// Load reads a YAML file, or an INI-style file when the extension is
// .gcfg, .ini or .cfg. Unset values keep their defaults.
func Load(path string) (*Config, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gcfg", ".ini", ".cfg":
		return loadINI(path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	if c.Dt <= 0 {
		return fmt.Errorf("dt must be positive, got %g", c.Dt)
	}
	if c.Duration <= 0 {
		return fmt.Errorf("duration must be positive, got %g", c.Duration)
	}
	if c.SampleEvery < 0 {
		return fmt.Errorf("sample_every must not be negative, got %d", c.SampleEvery)
	}
	if err := c.GravityParams().Validate(); err != nil {
		return err
	}
	if c.Collision.Enabled && (c.Collision.Density <= 0 || c.Collision.RadiusScale <= 0) {
		return fmt.Errorf("collision density and radius_scale must be positive: %w", dynamo.ErrParameterBounds)
	}
	if err := c.SpawnConfig().Validate(); err != nil {
		return err
	}
	for i, b := range c.Bodies {
		if err := b.Body().Validate(); err != nil {
			return fmt.Errorf("bodies[%d]: %w", i, err)
		}
	}
	if c.Spawn.Count == 0 && !c.Spawn.CentralBody && len(c.Bodies) == 0 {
		return fmt.Errorf("config %q defines no bodies", c.Name)
	}
	return nil
}

func (c *Config) GravityParams() gravity.Params {
	return gravity.Params{G: c.Gravity.G, Theta: c.Gravity.Theta, Epsilon: c.Gravity.Epsilon}
}

func (c *Config) SpawnConfig() spawn.Config {
	return spawn.Config{
		Seed:          c.Seed,
		Count:         c.Spawn.Count,
		Center:        c.Spawn.Center,
		Bounds:        c.Spawn.Bounds,
		MassMin:       c.Spawn.MassMin,
		MassMax:       c.Spawn.MassMax,
		CentralBody:   c.Spawn.CentralBody,
		CenterMassMin: c.Spawn.CenterMassMin,
		CenterMassMax: c.Spawn.CenterMassMax,
		Velocity:      c.Spawn.Velocity,
		G:             c.Gravity.G,
	}
}

func (c *Config) RunConfig() sim.RunConfig {
	return sim.RunConfig{Dt: c.Dt, Duration: c.Duration, SampleEvery: c.SampleEvery}
}

// InitialBodies returns the spawned bodies followed by the explicit ones.
func (c *Config) InitialBodies() ([]dynamo.Body, error) {
	bodies, err := spawn.Generate(c.SpawnConfig())
	if err != nil {
		return nil, err
	}
	for _, b := range c.Bodies {
		bodies = append(bodies, b.Body())
	}
	return bodies, nil
}

func (b BodyConfig) Body() dynamo.Body {
	return dynamo.Body{
		Position: b.Position,
		Velocity: b.Velocity,
		Mass:     b.Mass,
		Radius:   b.Radius,
		Kind:     dynamo.ParseKind(b.Kind),
	}
}

// Clone returns a deep copy of c.
func (c *Config) Clone() *Config {
	out := *c
	out.Bodies = append([]BodyConfig(nil), c.Bodies...)
	return &out
}
