// Package view holds the user-facing presentation state of the viewer and
// the registry that routes control changes to the code that applies them.
package view

import (
	"errors"
	"fmt"
	"strings"
)

// ErrConfiguration is returned for requests naming an unknown field,
// colormap or enum value, or carrying an out-of-range value.
var ErrConfiguration = errors.New("view: configuration error")

// Representation selects how the displayed geometry is drawn.
type Representation int

const (
	Points Representation = iota
	Wireframe
	Surface
	SurfaceWithEdges
)

var representationNames = []string{"Points", "Wireframe", "Surface", "Surface With Edges"}

// Representations lists every representation in menu order.
func Representations() []Representation {
	return []Representation{Points, Wireframe, Surface, SurfaceWithEdges}
}

func (r Representation) String() string {
	if r < 0 || int(r) >= len(representationNames) {
		return fmt.Sprintf("representation(%d)", int(r))
	}
	return representationNames[r]
}

// ParseRepresentation matches names case-insensitively, ignoring spaces,
// dashes and underscores, so "surface-with-edges" and "Surface With Edges"
// are the same.
func ParseRepresentation(s string) (Representation, error) {
	key := normalize(s)
	for i, name := range representationNames {
		if normalize(name) == key {
			return Representation(i), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown representation %q", ErrConfiguration, s)
}

func (r Representation) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r *Representation) UnmarshalText(b []byte) error {
	v, err := ParseRepresentation(string(b))
	if err != nil {
		return err
	}
	*r = v
	return nil
}

// Style is the drawing style a representation implies.
type Style struct {
	PointSize float64 `json:"point_size"`
	Edges     bool    `json:"edges"`
	Mode      string  `json:"mode"`
}

// Style returns the point size and edge visibility for r.
func (r Representation) Style() Style {
	switch r {
	case Points:
		return Style{PointSize: 5, Mode: "points"}
	case Wireframe:
		return Style{PointSize: 1, Mode: "wireframe"}
	case SurfaceWithEdges:
		return Style{PointSize: 1, Edges: true, Mode: "surface"}
	default:
		return Style{PointSize: 1, Mode: "surface"}
	}
}

// Theme is the light or dark page colouring.
type Theme int

const (
	Light Theme = iota
	Dark
)

func (t Theme) String() string {
	if t == Dark {
		return "dark"
	}
	return "light"
}

func ParseTheme(s string) (Theme, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "light", "":
		return Light, nil
	case "dark":
		return Dark, nil
	}
	return 0, fmt.Errorf("%w: unknown theme %q", ErrConfiguration, s)
}

func (t Theme) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

func (t *Theme) UnmarshalText(b []byte) error {
	v, err := ParseTheme(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// Palette holds RGB colours in [0,1].
type Palette struct {
	Background [3]float64 `json:"background"`
	Text       [3]float64 `json:"text"`
}

func (t Theme) Palette() Palette {
	if t == Dark {
		return Palette{Background: [3]float64{0.1, 0.1, 0.1}, Text: [3]float64{1, 1, 1}}
	}
	return Palette{Background: [3]float64{0.9, 0.9, 0.9}, Text: [3]float64{0, 0, 0}}
}

func normalize(s string) string {
	s = strings.ToLower(s)
	return strings.NewReplacer(" ", "", "-", "", "_", "").Replace(s)
}
