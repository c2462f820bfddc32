package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for simulation operations.
var (
	// ErrInvalidState indicates a position, velocity or mass that is NaN or Inf.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")

	// ErrNonPositiveMass indicates a body with zero or negative mass.
	ErrNonPositiveMass = errors.New("dynamo: body mass must be positive")

	// ErrParameterBounds indicates a parameter value is outside valid range.
	ErrParameterBounds = errors.New("dynamo: parameter out of valid bounds")

	// ErrUnknownBody indicates a lookup for a body ID that is not in the store.
	ErrUnknownBody = errors.New("dynamo: unknown body")

	// ErrDimensionMismatch indicates buffers of different lengths were passed together.
	ErrDimensionMismatch = errors.New("dynamo: dimension mismatch between buffers")
)

// SimulationError wraps an error with simulation context.
type SimulationError struct {
	Step    int
	Time    float64
	Body    BodyID
	Wrapped error
}

func (e *SimulationError) Error() string {
	if e.Body != 0 {
		return fmt.Sprintf("step %d (t=%.4f) body %d: %v", e.Step, e.Time, e.Body, e.Wrapped)
	}
	return fmt.Sprintf("step %d (t=%.4f): %v", e.Step, e.Time, e.Wrapped)
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}
