package render

import (
	"github.com/lucasb-eyer/go-colorful"

	"github.com/san-kum/tentview/internal/colormap"
	"github.com/san-kum/tentview/internal/mesh"
	"github.com/san-kum/tentview/internal/view"
)

// RGB is an 8-bit colour triple.
type RGB [3]uint8

// FieldInfo describes a selectable scalar field.
type FieldInfo struct {
	Name        string           `json:"name"`
	Association mesh.Association `json:"association"`
	Range       mesh.Range       `json:"range"`
}

// Info returns the description of f.
func Info(f *mesh.ScalarField) FieldInfo {
	return FieldInfo{Name: f.Name, Association: f.Association, Range: f.Range}
}

// Layer is a compacted, coloured piece of geometry ready to draw.
type Layer struct {
	Name        string       `json:"name"`
	Visible     bool         `json:"visible"`
	Opacity     float64      `json:"opacity"`
	Cells       int          `json:"cells"`
	Points      [][3]float64 `json:"points"`
	Faces       [][]int      `json:"faces"`
	Edges       [][2]int     `json:"edges"`
	PointColors []RGB        `json:"point_colors"`
	FaceColors  []RGB        `json:"face_colors"`
}

// Scene is everything a target needs to draw one frame.
type Scene struct {
	Seq       uint64       `json:"seq"`
	Title     string       `json:"title"`
	State     view.State   `json:"state"`
	Field     FieldInfo    `json:"field"`
	Fields    []FieldInfo  `json:"fields"`
	Colormaps []string     `json:"colormaps"`
	Lower     float64      `json:"lower"`
	Upper     float64      `json:"upper"`
	Style     view.Style   `json:"style"`
	Palette   view.Palette `json:"palette"`
	Bounds    mesh.Bounds  `json:"bounds"`
	ScalarBar []string     `json:"scalar_bar"`
	Layer     *Layer       `json:"layer"`
	Base      *Layer       `json:"base,omitempty"`
}

// Elements returns the number of cells in the thresholded layer.
func (s *Scene) Elements() int {
	if s == nil || s.Layer == nil {
		return 0
	}
	return s.Layer.Cells
}

// NewLayer builds a layer from a compacted mesh, colouring it by field
// through tbl.
func NewLayer(name string, m *mesh.Mesh, field string, tbl *colormap.Table, opacity float64) *Layer {
	l := buildLayer(name, m, opacity)
	f, ok := m.Field(field)
	if !ok || tbl == nil {
		return l
	}

	l.PointColors = make([]RGB, len(m.Points))
	if f.Association == mesh.PointAssoc {
		for i := range m.Points {
			l.PointColors[i] = rgb(tbl, f.At(i))
		}
	}

	l.FaceColors = make([]RGB, 0, len(l.Faces))
	for ci, c := range m.Cells {
		if f.Association == mesh.CellAssoc {
			col := rgb(tbl, f.At(ci))
			for _, p := range c.Points {
				l.PointColors[p] = col
			}
		}
		for _, face := range faces(c) {
			var v float64
			if f.Association == mesh.CellAssoc {
				v = f.At(ci)
			} else {
				for _, p := range face {
					v += f.At(p)
				}
				v /= float64(len(face))
			}
			l.FaceColors = append(l.FaceColors, rgb(tbl, v))
		}
	}
	return l
}

// NewSolidLayer builds a layer drawn in one colour, components in [0,1].
func NewSolidLayer(name string, m *mesh.Mesh, color [3]float64, opacity float64) *Layer {
	l := buildLayer(name, m, opacity)
	r, g, b := colorful.Color{R: color[0], G: color[1], B: color[2]}.Clamped().RGB255()
	col := RGB{r, g, b}
	l.PointColors = make([]RGB, len(m.Points))
	for i := range l.PointColors {
		l.PointColors[i] = col
	}
	l.FaceColors = make([]RGB, len(l.Faces))
	for i := range l.FaceColors {
		l.FaceColors[i] = col
	}
	return l
}

func buildLayer(name string, m *mesh.Mesh, opacity float64) *Layer {
	l := &Layer{
		Name:    name,
		Visible: true,
		Opacity: opacity,
		Cells:   len(m.Cells),
		Points:  m.Points,
		Faces:   make([][]int, 0, len(m.Cells)),
	}
	var es edgeSet
	for _, c := range m.Cells {
		l.Faces = append(l.Faces, faces(c)...)
		for _, e := range edges(c) {
			es.add(e)
		}
	}
	l.Edges = es.edges
	if l.Edges == nil {
		l.Edges = [][2]int{}
	}
	return l
}

// ScalarBar samples n colours of tbl from low to high as hex strings.
func ScalarBar(tbl *colormap.Table, n int) []string {
	if tbl == nil || n < 2 {
		return nil
	}
	out := make([]string, n)
	for i := range out {
		c, _ := colorful.MakeColor(tbl.Entry(i * (tbl.Len() - 1) / (n - 1)))
		out[i] = c.Hex()
	}
	return out
}

func rgb(tbl *colormap.Table, v float64) RGB {
	c := tbl.Map(v)
	return RGB{c.R, c.G, c.B}
}
