// Package filter selects cells of a mesh by scalar value or position.
package filter

import (
	"fmt"
	"math"

	"github.com/san-kum/tentview/internal/mesh"
)

// CellMode decides how a point field is tested against a cell.
type CellMode int

const (
	// AllPoints keeps a cell when every one of its points lies in range.
	AllPoints CellMode = iota
	// Continuous keeps a cell when the interval spanned by its point
	// values overlaps the range.
	Continuous
)

func (m CellMode) String() string {
	switch m {
	case AllPoints:
		return "all"
	case Continuous:
		return "continuous"
	default:
		return fmt.Sprintf("cellmode(%d)", int(m))
	}
}

// ParseCellMode accepts "all" or "continuous".
func ParseCellMode(s string) (CellMode, error) {
	switch s {
	case "", "all":
		return AllPoints, nil
	case "continuous", "any":
		return Continuous, nil
	}
	return 0, fmt.Errorf("unknown cell mode %q", s)
}

// Threshold returns, in ascending order, the ids of cells whose value of f
// lies within [lo, hi]. Cells on NaN values are never kept.
func Threshold(m *mesh.Mesh, f *mesh.ScalarField, lo, hi float64, mode CellMode) []int {
	if lo > hi {
		lo, hi = hi, lo
	}
	mask := make([]bool, len(m.Cells))
	parallelFor(len(m.Cells), func(start, end int) {
		for c := start; c < end; c++ {
			mask[c] = keep(m, f, c, lo, hi, mode)
		}
	})

	out := make([]int, 0, len(m.Cells))
	for c, ok := range mask {
		if ok {
			out = append(out, c)
		}
	}
	return out
}

func keep(m *mesh.Mesh, f *mesh.ScalarField, c int, lo, hi float64, mode CellMode) bool {
	if f.Association == mesh.CellAssoc {
		v := f.At(c)
		return v >= lo && v <= hi
	}

	pts := m.Cells[c].Points
	if len(pts) == 0 {
		return false
	}
	if mode == Continuous {
		cmin, cmax := m.CellRange(f, c)
		if math.IsNaN(cmin) || math.IsNaN(cmax) {
			return false
		}
		return cmax >= lo && cmin <= hi
	}
	for _, p := range pts {
		v := f.At(p)
		if !(v >= lo && v <= hi) {
			return false
		}
	}
	return true
}
