package analysis

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/gravsim/internal/config"
	"github.com/san-kum/gravsim/internal/dynamo"
	"github.com/san-kum/gravsim/internal/experiment"
	"github.com/san-kum/gravsim/internal/sim"
)

func TestDominantPeriod_Sine(t *testing.T) {
	s := Series{Interval: 0.05, Values: make([]float64, 400)}
	for i := range s.Values {
		s.Values[i] = 3 + math.Sin(2*math.Pi*float64(i)*s.Interval/2)
	}

	period, err := DominantPeriod(s)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(period-2) > 1e-6 {
		t.Errorf("expected period 2, got %f", period)
	}
}

func TestDominantPeriod_Constant(t *testing.T) {
	s := Series{Interval: 1, Values: []float64{1, 1, 1, 1, 1, 1}}
	if _, err := DominantPeriod(s); err == nil {
		t.Error("expected error for constant signal")
	}
	if _, err := DominantPeriod(Series{Interval: 1, Values: []float64{1, 2}}); !errors.Is(err, ErrTooShort) {
		t.Errorf("expected ErrTooShort, got %v", err)
	}
}

func TestParseAxis(t *testing.T) {
	for name, want := range map[string]Axis{"x": AxisX, "y": AxisY, "z": AxisZ, "r": Radius} {
		got, err := ParseAxis(name)
		if err != nil || got != want {
			t.Errorf("ParseAxis(%q) = %v, %v", name, got, err)
		}
	}
	if _, err := ParseAxis("w"); err == nil {
		t.Error("expected error")
	}
}

func TestTrack(t *testing.T) {
	frames := []sim.Frame{
		{Time: 0, Bodies: []dynamo.Body{{ID: 1, Mass: 1, Position: mgl64.Vec3{1, 0, 0}}, {ID: 2, Mass: 1, Position: mgl64.Vec3{-1, 0, 0}}}},
		{Time: 0.5, Bodies: []dynamo.Body{{ID: 1, Mass: 1, Position: mgl64.Vec3{3, 0, 0}}, {ID: 2, Mass: 1, Position: mgl64.Vec3{1, 0, 0}}}},
		{Time: 1, Bodies: []dynamo.Body{{ID: 1, Mass: 1, Position: mgl64.Vec3{0, 2, 0}}, {ID: 2, Mass: 1, Position: mgl64.Vec3{0, 0, 0}}}},
		{Time: 1.5, Bodies: []dynamo.Body{{ID: 1, Mass: 1}, {ID: 2, Mass: 1}}},
		{Time: 2, Bodies: []dynamo.Body{{ID: 2, Mass: 2}}},
	}

	s, err := Track(frames, 1, AxisX)
	if err != nil {
		t.Fatal(err)
	}
	if s.Interval != 0.5 {
		t.Errorf("interval = %f", s.Interval)
	}
	want := []float64{1, 1, 0, 0}
	for i := range want {
		if s.Values[i] != want[i] {
			t.Errorf("x[%d] = %f, want %f", i, s.Values[i], want[i])
		}
	}

	r, err := Track(frames, 1, Radius)
	if err != nil {
		t.Fatal(err)
	}
	if r.Values[2] != 1 {
		t.Errorf("r[2] = %f", r.Values[2])
	}

	if _, err := Track(frames, 9, AxisX); !errors.Is(err, ErrTooShort) {
		t.Errorf("missing body: %v", err)
	}
}

func TestDominantPeriod_CircularBinary(t *testing.T) {
	cfg := config.GetPreset("binary")
	cfg.Duration = 50
	cfg.Dt = 0.01
	cfg.SampleEvery = 10
	cfg.Collision.Enabled = false

	s, err := experiment.Build(experiment.NewRegistry(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	res, err := s.Run(context.Background(), cfg.RunConfig())
	if err != nil {
		t.Fatal(err)
	}

	series, err := Track(res.Frames, 1, AxisX)
	if err != nil {
		t.Fatal(err)
	}
	period, err := DominantPeriod(series)
	if err != nil {
		t.Fatal(err)
	}

	want := 4 * math.Pi
	if math.Abs(period-want)/want > 0.05 {
		t.Errorf("expected period near %.3f, got %.3f", want, period)
	}
}
