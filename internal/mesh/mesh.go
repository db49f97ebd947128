package mesh

import (
	"fmt"
	"math"
)

// DefaultField is the scalar array tent meshes are thresholded on.
const DefaultField = "tentlevel"

// Association tells whether a scalar array is attached to points or cells.
type Association int

const (
	PointAssoc Association = iota
	CellAssoc
)

func (a Association) String() string {
	switch a {
	case PointAssoc:
		return "point"
	case CellAssoc:
		return "cell"
	default:
		return fmt.Sprintf("association(%d)", int(a))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (a Association) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Association) UnmarshalText(b []byte) error {
	switch string(b) {
	case "point":
		*a = PointAssoc
	case "cell":
		*a = CellAssoc
	default:
		return fmt.Errorf("unknown association %q", b)
	}
	return nil
}

// Range is a closed interval [Min, Max].
type Range struct {
	Min float64 `json:"min" yaml:"min"`
	Max float64 `json:"max" yaml:"max"`
}

// Clamp returns v limited to the range.
func (r Range) Clamp(v float64) float64 {
	if math.IsNaN(v) || v < r.Min {
		return r.Min
	}
	if v > r.Max {
		return r.Max
	}
	return v
}

// Contains reports whether v lies in the closed range.
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// Span returns Max-Min.
func (r Range) Span() float64 {
	return r.Max - r.Min
}

// ScalarField is a named scalar array. Values are fixed at load time.
type ScalarField struct {
	Name        string
	Association Association
	Range       Range
	values      []float64
}

// NewScalarField builds a field and computes its range, skipping NaNs.
func NewScalarField(name string, assoc Association, values []float64) *ScalarField {
	r := Range{Min: math.Inf(1), Max: math.Inf(-1)}
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		if v < r.Min {
			r.Min = v
		}
		if v > r.Max {
			r.Max = v
		}
	}
	if r.Min > r.Max {
		r = Range{}
	}
	vals := make([]float64, len(values))
	copy(vals, values)
	return &ScalarField{Name: name, Association: assoc, Range: r, values: vals}
}

// Len returns the number of tuples.
func (f *ScalarField) Len() int { return len(f.values) }

// At returns the value of tuple i.
func (f *ScalarField) At(i int) float64 { return f.values[i] }

// CellType is the VTK cell type id.
type CellType int

const (
	Vertex     CellType = 1
	PolyVertex CellType = 2
	Line       CellType = 3
	PolyLine   CellType = 4
	Triangle   CellType = 5
	Polygon    CellType = 7
	Quad       CellType = 9
	Tetra      CellType = 10
	Hexahedron CellType = 12
	Wedge      CellType = 13
	Pyramid    CellType = 14
)

// Dimension returns the topological dimension of the cell type.
func (t CellType) Dimension() int {
	switch t {
	case Vertex, PolyVertex:
		return 0
	case Line, PolyLine:
		return 1
	case Triangle, Polygon, Quad:
		return 2
	default:
		return 3
	}
}

// Cell is one element of the grid: its type and point ids.
type Cell struct {
	Type   CellType
	Points []int
}

// Bounds is an axis-aligned box.
type Bounds struct {
	Min [3]float64 `json:"min"`
	Max [3]float64 `json:"max"`
}

// Center returns the midpoint of the box.
func (b Bounds) Center() [3]float64 {
	return [3]float64{
		(b.Min[0] + b.Max[0]) / 2,
		(b.Min[1] + b.Max[1]) / 2,
		(b.Min[2] + b.Max[2]) / 2,
	}
}

// Mesh is an unstructured grid with point and cell scalar arrays.
type Mesh struct {
	Title     string
	Points    [][3]float64
	Cells     []Cell
	PointData []*ScalarField
	CellData  []*ScalarField
}

// Fields lists point arrays first, then cell arrays.
func (m *Mesh) Fields() []*ScalarField {
	out := make([]*ScalarField, 0, len(m.PointData)+len(m.CellData))
	out = append(out, m.PointData...)
	return append(out, m.CellData...)
}

// Field looks a field up by name; point arrays win over cell arrays.
func (m *Mesh) Field(name string) (*ScalarField, bool) {
	for _, f := range m.Fields() {
		if f.Name == name {
			return f, true
		}
	}
	return nil, false
}

// DefaultField returns the first field, or ErrNoScalars.
func (m *Mesh) DefaultField() (*ScalarField, error) {
	fields := m.Fields()
	if len(fields) == 0 {
		return nil, ErrNoScalars
	}
	return fields[0], nil
}

// Bounds returns the bounding box of all points.
func (m *Mesh) Bounds() Bounds {
	if len(m.Points) == 0 {
		return Bounds{}
	}
	b := Bounds{Min: m.Points[0], Max: m.Points[0]}
	for _, p := range m.Points[1:] {
		for i := 0; i < 3; i++ {
			b.Min[i] = math.Min(b.Min[i], p[i])
			b.Max[i] = math.Max(b.Max[i], p[i])
		}
	}
	return b
}

// CellRange returns the min and max of a point field over the points of cell c.
// For a cell field both values are the cell's own value.
func (m *Mesh) CellRange(f *ScalarField, c int) (lo, hi float64) {
	if f.Association == CellAssoc {
		v := f.At(c)
		return v, v
	}
	pts := m.Cells[c].Points
	if len(pts) == 0 {
		return math.NaN(), math.NaN()
	}
	lo, hi = f.At(pts[0]), f.At(pts[0])
	for _, p := range pts[1:] {
		v := f.At(p)
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi
}

// Subset copies the given cells, and only the points they use, into a new mesh.
// Point ids are renumbered in first-use order; scalar arrays follow.
func (m *Mesh) Subset(cells []int) *Mesh {
	remap := make(map[int]int)
	order := make([]int, 0)
	out := &Mesh{Title: m.Title, Cells: make([]Cell, 0, len(cells))}
	for _, ci := range cells {
		src := m.Cells[ci]
		pts := make([]int, len(src.Points))
		for j, p := range src.Points {
			id, ok := remap[p]
			if !ok {
				id = len(order)
				remap[p] = id
				order = append(order, p)
			}
			pts[j] = id
		}
		out.Cells = append(out.Cells, Cell{Type: src.Type, Points: pts})
	}
	out.Points = make([][3]float64, len(order))
	for i, p := range order {
		out.Points[i] = m.Points[p]
	}
	for _, f := range m.PointData {
		vals := make([]float64, len(order))
		for i, p := range order {
			vals[i] = f.At(p)
		}
		out.PointData = append(out.PointData, NewScalarField(f.Name, PointAssoc, vals))
	}
	for _, f := range m.CellData {
		vals := make([]float64, len(cells))
		for i, c := range cells {
			vals[i] = f.At(c)
		}
		out.CellData = append(out.CellData, NewScalarField(f.Name, CellAssoc, vals))
	}
	return out
}
