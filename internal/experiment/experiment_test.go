package experiment

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/gravsim/internal/config"
)

func TestRegistry(t *testing.T) {
	reg := NewRegistry()

	assert.Equal(t, []string{"euler", "symplectic"}, reg.ListIntegrators())
	assert.Contains(t, reg.ListSolvers(), "tree")

	integ, err := reg.GetIntegrator("symplectic")
	require.NoError(t, err)
	assert.Equal(t, "symplectic", integ.Name())

	_, err = reg.GetIntegrator("rk4")
	assert.Error(t, err)

	_, err = reg.GetSolver("cuda", config.DefaultConfig().GravityParams())
	assert.Error(t, err)
}

func TestBuild_Preset(t *testing.T) {
	cfg := config.GetPreset("collision")
	require.NotNil(t, cfg)

	s, err := Build(NewRegistry(), cfg)
	require.NoError(t, err)
	assert.Equal(t, 2, s.Store().Len())
	assert.Equal(t, "auto", s.Backend().Name())
	assert.NotNil(t, s.Resolver())
}

func TestBuild_CollisionsDisabled(t *testing.T) {
	cfg := config.GetPreset("figure8")
	s, err := Build(NewRegistry(), cfg)
	require.NoError(t, err)
	assert.Nil(t, s.Resolver())
	assert.Equal(t, 3, s.Store().Len())
}

func TestBuild_InvalidConfig(t *testing.T) {
	cfg := config.GetPreset("binary")
	cfg.Dt = 0
	_, err := Build(NewRegistry(), cfg)
	assert.Error(t, err)

	cfg = config.GetPreset("binary")
	cfg.Integrator = "leapfrog"
	_, err = Build(NewRegistry(), cfg)
	assert.Error(t, err)
}

func TestExperiment_Run(t *testing.T) {
	cfg := config.GetPreset("collision")
	cfg.Duration = 0.1

	exp := New(cfg)
	_, err := exp.Run(context.Background())
	assert.Error(t, err, "run before setup")

	require.NoError(t, exp.Setup(NewRegistry()))
	res, err := exp.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 100, res.StepsTaken)
	assert.Equal(t, 2, res.FinalCount)
	for _, name := range []string{"energy", "energy_drift", "momentum_drift", "body_count", "containment"} {
		assert.Contains(t, res.Metrics, name)
	}
	assert.Equal(t, 2.0, res.Metrics["body_count"])
}

func TestInfo(t *testing.T) {
	cfg := config.GetPreset("galaxy")
	info := Info(cfg)
	assert.Equal(t, 2001, info.Bodies)
	assert.Equal(t, "tree", info.Solver)
	assert.Equal(t, uint64(7), info.Seed)
	assert.True(t, info.Collisions)
}
