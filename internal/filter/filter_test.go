package filter

import (
	"testing"

	"github.com/san-kum/tentview/internal/mesh"
	"github.com/san-kum/tentview/internal/mesh/meshtest"
)

func TestThresholdPointField(t *testing.T) {
	m := meshtest.Stack(t, 10)
	level, _ := m.Field("tentlevel")

	tests := []struct {
		name   string
		lo, hi float64
		mode   CellMode
		want   int
	}{
		{"lower half all points", 0, 5, AllPoints, 11},
		{"full range", 0, 10, AllPoints, 21},
		{"single layer", 3, 3, AllPoints, 1},
		{"single layer continuous", 3, 3, Continuous, 3},
		{"upper half", 5, 10, AllPoints, 11},
		{"swapped bounds", 5, 0, AllPoints, 11},
		{"empty", 10.5, 12, AllPoints, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Threshold(m, level, tt.lo, tt.hi, tt.mode)
			if len(got) != tt.want {
				t.Errorf("expected %d cells, got %d (%v)", tt.want, len(got), got)
			}
		})
	}
}

func TestThresholdKeepsOnlyInRangeValues(t *testing.T) {
	m := meshtest.Stack(t, 10)
	level, _ := m.Field("tentlevel")

	for _, c := range Threshold(m, level, 2, 6, AllPoints) {
		lo, hi := m.CellRange(level, c)
		if lo < 2 || hi > 6 {
			t.Errorf("cell %d spans [%v,%v], outside [2,6]", c, lo, hi)
		}
	}
}

func TestThresholdCellField(t *testing.T) {
	m := meshtest.Stack(t, 10)
	number, _ := m.Field("tentnumber")

	got := Threshold(m, number, 4, 8, AllPoints)
	want := []int{4, 5, 6, 7, 8}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("expected %v, got %v", want, got)
			break
		}
	}
}

func TestSliceAtBase(t *testing.T) {
	m := meshtest.Stack(t, 3)

	got := Slice(m, 0.0001)
	// only the first tetra straddles the plane just above layer 0
	if len(got) != 1 || m.Cells[got[0]].Type != mesh.Tetra {
		t.Errorf("expected the first tetra, got %v", got)
	}

	if got := Slice(m, 1); len(got) != 3 {
		t.Errorf("expected triangle and two tetras at z=1, got %v", got)
	}
}

func TestParseCellMode(t *testing.T) {
	if m, err := ParseCellMode("continuous"); err != nil || m != Continuous {
		t.Errorf("expected Continuous, got %v (%v)", m, err)
	}
	if _, err := ParseCellMode("most"); err == nil {
		t.Error("expected error for unknown mode")
	}
}

func TestThresholdLargeMeshKeepsOrder(t *testing.T) {
	m := meshtest.Stack(t, 3000)
	level, _ := m.Field("tentlevel")

	got := Threshold(m, level, 0, 1500, AllPoints)
	if len(got) != 3001 {
		t.Fatalf("expected 3001 cells, got %d", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i] <= got[i-1] {
			t.Fatalf("ids not ascending at %d: %d after %d", i, got[i], got[i-1])
		}
	}
}

func TestParallelForCoversRange(t *testing.T) {
	for _, n := range []int{0, 1, minChunk, 3*minChunk + 7} {
		seen := make([]int, n)
		parallelFor(n, func(start, end int) {
			for i := start; i < end; i++ {
				seen[i]++
			}
		})
		for i, c := range seen {
			if c != 1 {
				t.Fatalf("n=%d: index %d visited %d times", n, i, c)
			}
		}
	}
}
