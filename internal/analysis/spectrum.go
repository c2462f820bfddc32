package analysis

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/san-kum/gravsim/internal/dynamo"
	"github.com/san-kum/gravsim/internal/metrics"
	"github.com/san-kum/gravsim/internal/sim"
)

var ErrTooShort = errors.New("series too short")

// Series is a uniformly sampled signal.
type Series struct {
	Values   []float64
	Interval float64
}

// Axis selects a position component, or the distance from the origin for
// Radius.
type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisZ
	Radius
)

func ParseAxis(s string) (Axis, error) {
	switch s {
	case "x":
		return AxisX, nil
	case "y":
		return AxisY, nil
	case "z":
		return AxisZ, nil
	case "r":
		return Radius, nil
	}
	return 0, fmt.Errorf("unknown axis %q (available: x, y, z, r)", s)
}

// Track returns the chosen coordinate of body id relative to the frame's
// centre of mass, for every frame up to the one where the body vanished.
// Frames must be evenly spaced in time.
func Track(frames []sim.Frame, id dynamo.BodyID, axis Axis) (Series, error) {
	var s Series
	for i, fr := range frames {
		b, ok := find(fr.Bodies, id)
		if !ok {
			break
		}
		com, _ := metrics.CenterOfMass(fr.Bodies)
		rel := b.Position.Sub(com)
		if axis == Radius {
			s.Values = append(s.Values, rel.Len())
		} else {
			s.Values = append(s.Values, rel[axis])
		}
		if i == 1 {
			s.Interval = fr.Time - frames[0].Time
		}
	}
	if len(s.Values) < 4 || s.Interval <= 0 {
		return s, fmt.Errorf("body %d: %d samples: %w", id, len(s.Values), ErrTooShort)
	}
	return s, nil
}

func find(bodies []dynamo.Body, id dynamo.BodyID) (dynamo.Body, bool) {
	for _, b := range bodies {
		if b.ID == id {
			return b, true
		}
	}
	return dynamo.Body{}, false
}

// PowerSpectrum returns |X(k)| for the non-negative frequencies of the
// mean-removed series, together with the frequency of each bin.
func PowerSpectrum(s Series) (freq, power []float64) {
	n := len(s.Values)
	if n == 0 {
		return nil, nil
	}

	mean := 0.0
	for _, v := range s.Values {
		mean += v
	}
	mean /= float64(n)
	centred := make([]float64, n)
	for i, v := range s.Values {
		centred[i] = v - mean
	}

	fft := fourier.NewFFT(n)
	coeff := fft.Coefficients(nil, centred)
	freq = make([]float64, len(coeff))
	power = make([]float64, len(coeff))
	for i, c := range coeff {
		freq[i] = fft.Freq(i) / s.Interval
		power[i] = cmplx.Abs(c)
	}
	return freq, power
}

// DominantPeriod returns 1/f of the strongest non-zero frequency bin,
// refined by parabolic interpolation over its neighbours.
func DominantPeriod(s Series) (float64, error) {
	if len(s.Values) < 4 {
		return 0, ErrTooShort
	}
	freq, power := PowerSpectrum(s)

	peak := 1
	for i := 2; i < len(power); i++ {
		if power[i] > power[peak] {
			peak = i
		}
	}
	if power[peak] == 0 {
		return 0, errors.New("signal is constant")
	}

	f := freq[peak]
	if peak+1 < len(power) {
		a, b, c := power[peak-1], power[peak], power[peak+1]
		if den := a - 2*b + c; den != 0 {
			step := freq[1] - freq[0]
			f += 0.5 * (a - c) / den * step
		}
	}
	if f <= 0 || math.IsNaN(f) {
		return 0, errors.New("no periodic component")
	}
	return 1 / f, nil
}
