// Package meshtest builds small tent meshes for tests.
package meshtest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/san-kum/tentview/internal/mesh"
)

// TentStack returns a legacy VTK file describing a stack of tent layers
// 0..levels. Layer k has three points at z=k with tentlevel=k and one
// triangle; between layers k and k+1 sits a tetrahedron. Triangles come
// first (cells 0..levels), tetrahedra after. The cell array tentnumber
// holds each cell's index.
func TentStack(levels int) string {
	var b strings.Builder
	npts := 3 * (levels + 1)
	fmt.Fprintf(&b, "# vtk DataFile Version 3.0\ntent stack\nASCII\nDATASET UNSTRUCTURED_GRID\n")
	fmt.Fprintf(&b, "POINTS %d float\n", npts)
	for k := 0; k <= levels; k++ {
		fmt.Fprintf(&b, "0 0 %d\n1 0 %d\n0 1 %d\n", k, k, k)
	}

	ncells := 2*levels + 1
	fmt.Fprintf(&b, "CELLS %d %d\n", ncells, 4*(levels+1)+5*levels)
	for k := 0; k <= levels; k++ {
		fmt.Fprintf(&b, "3 %d %d %d\n", 3*k, 3*k+1, 3*k+2)
	}
	for k := 0; k < levels; k++ {
		fmt.Fprintf(&b, "4 %d %d %d %d\n", 3*k, 3*k+1, 3*k+2, 3*(k+1))
	}
	fmt.Fprintf(&b, "CELL_TYPES %d\n", ncells)
	for k := 0; k <= levels; k++ {
		b.WriteString("5\n")
	}
	for k := 0; k < levels; k++ {
		b.WriteString("10\n")
	}

	fmt.Fprintf(&b, "POINT_DATA %d\nSCALARS tentlevel float 1\nLOOKUP_TABLE default\n", npts)
	for k := 0; k <= levels; k++ {
		fmt.Fprintf(&b, "%d %d %d\n", k, k, k)
	}
	fmt.Fprintf(&b, "CELL_DATA %d\nFIELD FieldData 1\ntentnumber 1 %d int\n", ncells, ncells)
	for c := 0; c < ncells; c++ {
		fmt.Fprintf(&b, "%d\n", c)
	}
	return b.String()
}

// WriteFile writes content to a file in a per-test temp directory.
func WriteFile(t testing.TB, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

// Stack parses TentStack(levels).
func Stack(t testing.TB, levels int) *mesh.Mesh {
	t.Helper()
	m, err := mesh.Read(strings.NewReader(TentStack(levels)))
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}
	return m
}
