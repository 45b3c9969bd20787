package camera

import (
	"math"

	"snowcity/internal/mathutil"
)

// Projector maps world points to screen pixels for one frame.
type Projector struct {
	view   mathutil.Mat3
	eye    mathutil.Vec3
	center [2]float64 // camera-space XY mapped to the image center
	scale  float64
	half   float64
	persp  bool
	focal  float64
}

// NewProjector frames the world box bounds in a square image of size
// renderSize with margin pixels on each side.
func NewProjector(o Orbit, bounds mathutil.Box3, renderSize, margin int) *Projector {
	p := &Projector{
		view:  o.View(),
		eye:   o.Eye(),
		half:  float64(renderSize) / 2,
		persp: o.Perspective && o.FOV > 0,
	}
	if p.persp {
		p.focal = p.half / math.Tan(mathutil.Deg2Rad(o.FOV)/2)
		p.scale = 1
		return p
	}

	// Orthographic: fit the projected box into the image.
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	if !bounds.IsEmpty() {
		for i := 0; i < 8; i++ {
			c := bounds.Min
			if i&1 != 0 {
				c[0] = bounds.Max[0]
			}
			if i&2 != 0 {
				c[1] = bounds.Max[1]
			}
			if i&4 != 0 {
				c[2] = bounds.Max[2]
			}
			t := p.view.MulVec3(c.Sub(p.eye))
			minX, maxX = math.Min(minX, t[0]), math.Max(maxX, t[0])
			minY, maxY = math.Min(minY, t[1]), math.Max(maxY, t[1])
		}
	} else {
		minX, minY, maxX, maxY = -1, -1, 1, 1
	}
	p.center = [2]float64{(minX + maxX) / 2, (minY + maxY) / 2}
	span := math.Max(maxX-minX, maxY-minY)
	if span < 0.001 {
		span = 0.001
	}
	p.scale = float64(renderSize-2*margin) / span
	return p
}

// Project returns screen X, screen Y and depth (larger is closer).
// ok is false for points behind a perspective camera.
func (p *Projector) Project(v mathutil.Vec3) (x, y, z float64, ok bool) {
	t := p.view.MulVec3(v.Sub(p.eye))
	if p.persp {
		depth := -t[2]
		if depth < 0.01 {
			return 0, 0, t[2], false
		}
		f := p.focal / depth
		return t[0]*f + p.half, -t[1]*f + p.half, t[2], true
	}
	return (t[0]-p.center[0])*p.scale + p.half, -(t[1]-p.center[1])*p.scale + p.half, t[2], true
}

// ProjectVertices transforms local vertices by world and projects them.
// Points behind the camera get NaN screen coordinates so triangles using
// them are rejected by the rasterizer.
func (p *Projector) ProjectVertices(verts [][3]float32, world mathutil.Mat4) ([]float64, []float64, []float64) {
	n := len(verts)
	px := make([]float64, n)
	py := make([]float64, n)
	pz := make([]float64, n)
	for i, v := range verts {
		x, y, z, ok := p.Project(world.MulPoint(mathutil.F32(v)))
		if !ok {
			x, y = math.NaN(), math.NaN()
		}
		px[i], py[i], pz[i] = x, y, z
	}
	return px, py, pz
}
