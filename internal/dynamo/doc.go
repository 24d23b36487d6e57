// Package dynamo provides core primitives shared by the pair force pipeline.
//
// The package defines the geometric and error types every other package
// builds on:
//
//   - [Vec3]: positions and displacements
//   - [Box]: periodic orthorhombic box with minimum-image wrapping
//   - [ConfigError]: configuration failures, wrapping [ErrConfig]
//   - [ShapeError]: shape queries on shapeless potentials
//   - [ParallelFor]: chunked fan-out over an index range
//
// # Thread Safety
//
// All types here are values and safe to share read-only across goroutines.
package dynamo
