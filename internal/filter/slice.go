package filter

import (
	"math"

	"github.com/san-kum/tentview/internal/mesh"
)

// Slice returns the cells crossed by the horizontal plane z = z0: those
// whose points' z extent contains z0. Used to draw the base layer of a
// tent mesh, the footprint of the spatial mesh at the initial time.
func Slice(m *mesh.Mesh, z0 float64) []int {
	out := make([]int, 0)
	for c, cell := range m.Cells {
		if len(cell.Points) == 0 {
			continue
		}
		zmin, zmax := math.Inf(1), math.Inf(-1)
		for _, p := range cell.Points {
			z := m.Points[p][2]
			zmin = math.Min(zmin, z)
			zmax = math.Max(zmax, z)
		}
		if z0 >= zmin && z0 <= zmax {
			out = append(out, c)
		}
	}
	return out
}
