package render

import "github.com/san-kum/tentview/internal/mesh"

// Local face tables, as indices into a cell's point list.
var cellFaces = map[mesh.CellType][][]int{
	mesh.Tetra:      {{0, 1, 2}, {0, 1, 3}, {0, 2, 3}, {1, 2, 3}},
	mesh.Hexahedron: {{0, 1, 2, 3}, {4, 5, 6, 7}, {0, 1, 5, 4}, {1, 2, 6, 5}, {2, 3, 7, 6}, {3, 0, 4, 7}},
	mesh.Wedge:      {{0, 1, 2}, {3, 4, 5}, {0, 1, 4, 3}, {1, 2, 5, 4}, {2, 0, 3, 5}},
	mesh.Pyramid:    {{0, 1, 2, 3}, {0, 1, 4}, {1, 2, 4}, {2, 3, 4}, {3, 0, 4}},
}

// faces returns the polygons bounding cell c in global point ids.
func faces(c mesh.Cell) [][]int {
	switch c.Type.Dimension() {
	case 0, 1:
		return nil
	case 2:
		return [][]int{append([]int(nil), c.Points...)}
	}
	table, ok := cellFaces[c.Type]
	if !ok {
		return nil
	}
	out := make([][]int, 0, len(table))
	for _, local := range table {
		f := make([]int, 0, len(local))
		for _, i := range local {
			if i >= len(c.Points) {
				f = nil
				break
			}
			f = append(f, c.Points[i])
		}
		if f != nil {
			out = append(out, f)
		}
	}
	return out
}

// edges returns the point pairs making up cell c's edges.
func edges(c mesh.Cell) [][2]int {
	switch c.Type.Dimension() {
	case 0:
		return nil
	case 1:
		out := make([][2]int, 0, len(c.Points))
		for i := 1; i < len(c.Points); i++ {
			out = append(out, [2]int{c.Points[i-1], c.Points[i]})
		}
		return out
	}
	var out [][2]int
	for _, f := range faces(c) {
		for i := range f {
			out = append(out, [2]int{f[i], f[(i+1)%len(f)]})
		}
	}
	return out
}

type edgeSet struct {
	seen  map[[2]int]struct{}
	edges [][2]int
}

func (s *edgeSet) add(e [2]int) {
	if e[0] > e[1] {
		e[0], e[1] = e[1], e[0]
	}
	if e[0] == e[1] {
		return
	}
	if s.seen == nil {
		s.seen = make(map[[2]int]struct{})
	}
	if _, ok := s.seen[e]; ok {
		return
	}
	s.seen[e] = struct{}{}
	s.edges = append(s.edges, e)
}
