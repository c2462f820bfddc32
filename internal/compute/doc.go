// Package compute provides interchangeable gravitational force backends.
//
// Every backend fills an acceleration slice from positions and masses using
// the softened law in package gravity:
//
//   - tree: the arena octree from package octree (O(N log N))
//   - direct: exact pairwise summation (O(N²)), parallel over targets
//   - gonum: gonum's spatial/barneshut volume, used as a cross-check
//   - auto: direct below a small body count, tree above it
//
// Select one by name:
//
//	backend, err := compute.New("tree", gravity.DefaultParams())
//	err = backend.Accelerations(pos, mass, acc)
package compute
