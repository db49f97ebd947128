// Package mesh loads and writes legacy VTK unstructured-grid files.
//
// The package exposes the pieces of a tent-pitching mesh the viewer needs:
//
//   - [Mesh]: points, cells and the scalar arrays attached to them
//   - [ScalarField]: a named point or cell array with its precomputed [Range]
//   - [Load] / [Read]: ASCII legacy reader (versions 2.0 through 5.1)
//   - [Write] / [WriteFile]: ASCII legacy writer, used for exports
//
// # Conventions
//
// Meshes written by the tent solver carry a point array named "tentlevel"
// (the discrete time layer of each vertex) and usually a cell array named
// "tentnumber". Neither is required; the first array found becomes the
// default field.
//
// A loaded Mesh is never modified. Derived subsets are built with
// [Mesh.Subset], which copies.
package mesh
