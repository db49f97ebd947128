package render

import (
	"context"
	"errors"
	"testing"

	"github.com/san-kum/tentview/internal/colormap"
	"github.com/san-kum/tentview/internal/mesh/meshtest"
)

func TestNewLayerTopology(t *testing.T) {
	m := meshtest.Stack(t, 1)
	tbl := colormap.Rainbow.Build(colormap.TableSize, 0, 1)

	l := NewLayer("threshold", m, "tentlevel", tbl, 0.5)

	if l.Cells != 3 {
		t.Errorf("expected 3 cells, got %d", l.Cells)
	}
	if len(l.Faces) != 6 {
		t.Errorf("expected 2 triangles + 4 tetra faces, got %d", len(l.Faces))
	}
	if len(l.Edges) != 9 {
		t.Errorf("expected 9 unique edges, got %d", len(l.Edges))
	}
	if len(l.FaceColors) != len(l.Faces) {
		t.Errorf("face colours %d != faces %d", len(l.FaceColors), len(l.Faces))
	}
	if len(l.PointColors) != len(l.Points) {
		t.Errorf("point colours %d != points %d", len(l.PointColors), len(l.Points))
	}
	if l.Opacity != 0.5 || !l.Visible {
		t.Errorf("unexpected layer flags %+v", l)
	}

	// level 0 is the blue end of rainbow, level 1 the red end.
	if l.PointColors[0][2] < 200 || l.PointColors[3][0] != 255 {
		t.Errorf("unexpected point colours %v %v", l.PointColors[0], l.PointColors[3])
	}
}

func TestNewLayerCellField(t *testing.T) {
	m := meshtest.Stack(t, 1)
	tbl := colormap.Greyscale.Build(colormap.TableSize, 0, 2)

	l := NewLayer("threshold", m, "tentnumber", tbl, 1)

	// the tetra (cell 2) is the last cell: its four faces share its colour.
	last := l.FaceColors[len(l.FaceColors)-1]
	if last != (RGB{255, 255, 255}) {
		t.Errorf("expected white for the max cell value, got %v", last)
	}
	if l.FaceColors[0] != (RGB{0, 0, 0}) {
		t.Errorf("expected black for cell 0, got %v", l.FaceColors[0])
	}
}

func TestNewSolidLayer(t *testing.T) {
	m := meshtest.Stack(t, 2)
	l := NewSolidLayer("base", m, [3]float64{0.15, 0.9, 0.15}, 0.7)

	want := RGB{38, 230, 38}
	for i, c := range l.FaceColors {
		if c != want {
			t.Fatalf("face %d: got %v, want %v", i, c, want)
		}
	}
}

func TestScalarBar(t *testing.T) {
	tbl := colormap.Greyscale.Build(colormap.TableSize, 0, 1)
	bar := ScalarBar(tbl, 5)
	if len(bar) != 5 {
		t.Fatalf("expected 5 samples, got %d", len(bar))
	}
	if bar[0] != "#000000" || bar[4] != "#ffffff" {
		t.Errorf("unexpected ends %s %s", bar[0], bar[4])
	}
}

func TestFanout(t *testing.T) {
	a, b := &Recorder{}, &Recorder{Err: errors.New("offline")}
	f := Fanout{a, b}

	err := f.Draw(context.Background(), &Scene{Seq: 1})
	if err == nil {
		t.Fatal("expected the failing target's error")
	}
	if a.Count() != 1 {
		t.Errorf("healthy target should still draw, got %d", a.Count())
	}
	if a.Last().Seq != 1 {
		t.Errorf("unexpected last scene %+v", a.Last())
	}
}
