package view

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/san-kum/tentview/internal/mesh"
)

func TestParseRepresentation(t *testing.T) {
	tests := []struct {
		in   string
		want Representation
	}{
		{"Points", Points},
		{"wireframe", Wireframe},
		{"Surface", Surface},
		{"Surface With Edges", SurfaceWithEdges},
		{"surface-with-edges", SurfaceWithEdges},
	}
	for _, tt := range tests {
		got, err := ParseRepresentation(tt.in)
		if err != nil {
			t.Errorf("ParseRepresentation(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseRepresentation(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
	if _, err := ParseRepresentation("volume"); !errors.Is(err, ErrConfiguration) {
		t.Errorf("expected ErrConfiguration, got %v", err)
	}
}

func TestRepresentationStyle(t *testing.T) {
	if s := Points.Style(); s.PointSize != 5 || s.Edges {
		t.Errorf("unexpected points style %+v", s)
	}
	if s := Surface.Style(); s.PointSize != 1 || s.Edges {
		t.Errorf("unexpected surface style %+v", s)
	}
	if s := SurfaceWithEdges.Style(); !s.Edges {
		t.Error("expected edges for SurfaceWithEdges")
	}
}

func TestStateJSON(t *testing.T) {
	s := State{Representation: SurfaceWithEdges, Field: "tentlevel", Colormap: "rainbow", Opacity: 1, Theme: Dark}
	b, err := json.Marshal(s)
	if err != nil {
		t.Fatal(err)
	}
	var back State
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatal(err)
	}
	if back != s {
		t.Errorf("round trip changed state: %+v", back)
	}
}

func TestThresholdModeFull(t *testing.T) {
	r := mesh.Range{Min: -2, Max: 10}
	for _, m := range []ThresholdMode{Lower, Upper} {
		lo, hi := m.Bounds(r, m.Full(r))
		if lo != r.Min || hi != r.Max {
			t.Errorf("%s: full level gives [%v,%v], expected [%v,%v]", m, lo, hi, r.Min, r.Max)
		}
	}
}

func TestThresholdModeBounds(t *testing.T) {
	r := mesh.Range{Min: 0, Max: 10}
	if lo, hi := Lower.Bounds(r, 4); lo != 0 || hi != 4 {
		t.Errorf("lower: got [%v,%v]", lo, hi)
	}
	if lo, hi := Upper.Bounds(r, 4); lo != 4 || hi != 10 {
		t.Errorf("upper: got [%v,%v]", lo, hi)
	}
}

func TestApplyStyle(t *testing.T) {
	known := func(name string) bool { return name == "rainbow" || name == "viridis" }
	base := State{Colormap: "rainbow", Opacity: 1}

	tests := []struct {
		name    string
		m       Mutation
		check   func(State) bool
		wantErr bool
	}{
		{"representation", Mutation{KeyRepresentation, "Wireframe"}, func(s State) bool { return s.Representation == Wireframe }, false},
		{"colormap", Mutation{KeyColormap, "viridis"}, func(s State) bool { return s.Colormap == "viridis" }, false},
		{"unknown colormap", Mutation{KeyColormap, "jet"}, nil, true},
		{"opacity", Mutation{KeyOpacity, 0.25}, func(s State) bool { return s.Opacity == 0.25 }, false},
		{"opacity too high", Mutation{KeyOpacity, 1.5}, nil, true},
		{"opacity wrong type", Mutation{KeyOpacity, true}, nil, true},
		{"theme", Mutation{KeyTheme, "dark"}, func(s State) bool { return s.Theme == Dark }, false},
		{"axes", Mutation{KeyAxes, true}, func(s State) bool { return s.Axes }, false},
		{"threshold is geometric", Mutation{KeyThreshold, 3.0}, nil, true},
		{"unknown key", Mutation{"zoom", 2.0}, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := base.ApplyStyle(tt.m, known)
			if tt.wantErr {
				if !errors.Is(err, ErrConfiguration) {
					t.Fatalf("expected ErrConfiguration, got %v", err)
				}
				if got != base {
					t.Errorf("state changed on error: %+v", got)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if !tt.check(got) {
				t.Errorf("mutation not applied: %+v", got)
			}
		})
	}
}

func TestObserversDispatch(t *testing.T) {
	o := NewObservers()
	var seen []Key
	o.OnEach(func(ctx context.Context, m Mutation) error {
		seen = append(seen, m.Key)
		return nil
	}, KeyOpacity, KeyTheme)

	ctx := context.Background()
	if err := o.Dispatch(ctx, Mutation{KeyOpacity, 0.5}); err != nil {
		t.Fatal(err)
	}
	if err := o.Dispatch(ctx, Mutation{KeyTheme, "dark"}); err != nil {
		t.Fatal(err)
	}
	if len(seen) != 2 || seen[0] != KeyOpacity || seen[1] != KeyTheme {
		t.Errorf("unexpected dispatch order %v", seen)
	}
	if err := o.Dispatch(ctx, Mutation{KeyAxes, true}); !errors.Is(err, ErrConfiguration) {
		t.Errorf("expected ErrConfiguration for unregistered key, got %v", err)
	}
}
