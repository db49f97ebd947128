// Package export writes still images of a rendered scene.
package export

import (
	"math"

	"github.com/san-kum/tentview/internal/mesh"
)

// Camera is an orthographic view around the centre of the scene bounds.
// Rotations are in radians and applied X, then Z.
type Camera struct {
	RotX, RotZ float64
	Zoom       float64
}

// DefaultCamera looks down onto the tents at an angle so the time axis
// points up the page.
func DefaultCamera() Camera {
	return Camera{RotX: -1.1, RotZ: -0.6, Zoom: 1}
}

type projection struct {
	cam    Camera
	center [3]float64
	scale  float64
	w, h   float64
}

func newProjection(cam Camera, b mesh.Bounds, w, h int) projection {
	if cam.Zoom <= 0 {
		cam.Zoom = 1
	}
	var diag float64
	for i := range 3 {
		d := b.Max[i] - b.Min[i]
		diag += d * d
	}
	diag = math.Sqrt(diag)
	if diag == 0 {
		diag = 1
	}
	return projection{
		cam:    cam,
		center: b.Center(),
		scale:  0.9 * math.Min(float64(w), float64(h)) / diag * cam.Zoom,
		w:      float64(w),
		h:      float64(h),
	}
}

// project returns screen coordinates and a depth; larger depth is nearer.
func (p projection) project(pt [3]float64) (x, y, depth float64) {
	px, py, pz := pt[0]-p.center[0], pt[1]-p.center[1], pt[2]-p.center[2]

	cx, sx := math.Cos(p.cam.RotX), math.Sin(p.cam.RotX)
	py, pz = py*cx-pz*sx, py*sx+pz*cx
	cz, sz := math.Cos(p.cam.RotZ), math.Sin(p.cam.RotZ)
	px, py = px*cz-py*sz, px*sz+py*cz

	return p.w/2 + px*p.scale, p.h/2 - py*p.scale, pz
}
