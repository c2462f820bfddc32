// Package dynamo provides the core simulation primitives shared by every
// other package of gravsim.
//
// The package defines the fundamental records and helpers:
//
//   - [Body]: a point mass with position, velocity, mass and radius
//   - [MergeEvent]: one body absorbing another during a tick
//   - [SimulationError]: an error annotated with step and time
//   - [ParallelFor]: chunked fan-out used for read-only per-body work
//
// # Example
//
//	store := sim.NewStore(0)
//	store.Add(dynamo.Body{Position: mgl64.Vec3{1, 0, 0}, Mass: 1})
//	s := sim.New(store, compute.NewTreeBackend(params), integrators.NewSymplecticEuler(), resolver)
//	report, _ := s.Step(0.01)
//
// # Thread Safety
//
// Body values are plain data. Packages that mutate slices of bodies
// document their own synchronisation requirements.
package dynamo
