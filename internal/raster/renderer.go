package raster

import (
	"image"

	"snowcity/internal/camera"
	"snowcity/internal/clouds"
	"snowcity/internal/fit"
	"snowcity/internal/mathutil"
	"snowcity/internal/model"
	"snowcity/internal/scenery"
)

// Frame is everything the preview renderer draws.
type Frame struct {
	Camera     camera.Orbit
	Light      LightConfig
	FloorSize  float64
	FloorTex   *image.NRGBA // nil draws flat snow
	TileRepeat int
	Houses     []*fit.Instance
	Clouds     []clouds.Transform
	CloudMesh  *model.Graph // unit stand-in drawn per cloud instance
}

var snow = scenery.RGBA{0.93, 0.95, 0.98, 1}

// Render draws the frame into a size×size image. With supersample > 1 the
// image is rendered larger; callers downsample it.
func Render(f *Frame, size, supersample int) *image.NRGBA {
	if supersample < 1 {
		supersample = 1
	}
	renderSize := size * supersample

	fb := NewFrameBuffer(renderSize, renderSize)
	br, bg, bb, _ := f.Light.SkyColor.Bytes()
	fb.Clear(br, bg, bb)

	half := f.FloorSize / 2
	bounds := mathutil.Box3{Min: mathutil.Vec3{-half, 0, -half}, Max: mathutil.Vec3{half, 0, half}}
	for _, h := range f.Houses {
		bounds = bounds.Union(h.Bounds())
	}
	if f.CloudMesh != nil && len(f.Clouds) > 0 {
		unit := f.CloudMesh.Bounds(mathutil.Mat4Identity())
		for _, c := range f.Clouds {
			bounds = bounds.Union(unit.Transform(cloudWorld(c)))
		}
	}
	proj := camera.NewProjector(f.Camera, bounds, renderSize, 8*supersample)

	drawFloor(fb, proj, f)
	for _, h := range f.Houses {
		drawGraph(fb, proj, &f.Light, h.Graph, h.World())
	}
	if f.CloudMesh != nil {
		for _, c := range f.Clouds {
			drawGraph(fb, proj, &f.Light, f.CloudMesh, cloudWorld(c))
		}
	}
	return fb.Image()
}

// cloudWorld is Transform.Matrix in the renderer's row-major float64 form.
func cloudWorld(c clouds.Transform) mathutil.Mat4 {
	s := float64(c.Scale)
	rs := mathutil.Mat3Mul(mathutil.RotY(float64(c.RotationY)), mathutil.Mat3Diag(s, s, s))
	return mathutil.FromMat3Translation(rs, mathutil.F32(c.Position))
}

func drawFloor(fb *FrameBuffer, proj *camera.Projector, f *Frame) {
	half := float32(f.FloorSize / 2)
	verts := [][3]float32{{-half, 0, -half}, {half, 0, -half}, {half, 0, half}, {-half, 0, half}}
	px, py, pz := proj.ProjectVertices(verts, mathutil.Mat4Identity())

	rep := float64(f.TileRepeat)
	if rep <= 0 {
		rep = 1
	}
	uv := [4][2]float64{{0, 0}, {rep, 0}, {rep, rep}, {0, rep}}
	r, g, b, a := snow.Bytes()
	s := Surface{Tex: f.FloorTex, R: r, G: g, B: b, A: a, Shade: f.Light.ComputeShade(mathutil.Vec3{0, 1, 0})}

	for _, tri := range [2][3]int{{0, 1, 2}, {0, 2, 3}} {
		s.UV = [3][2]float64{uv[tri[0]], uv[tri[1]], uv[tri[2]]}
		RasterizeTriangle(fb, px, py, pz, tri, &s, &f.Light)
	}
}

func drawGraph(fb *FrameBuffer, proj *camera.Projector, lc *LightConfig, g *model.Graph, root mathutil.Mat4) {
	g.Walk(root, func(n *model.Node, world mathutil.Mat4) {
		if n.Mesh == nil {
			return
		}
		for pi, p := range n.Mesh.Primitives {
			mat := p.Material
			if pi < len(n.Materials) && n.Materials[pi] != nil {
				mat = n.Materials[pi]
			}
			drawPrimitive(fb, proj, lc, p, mat, world)
		}
	})
}

func drawPrimitive(fb *FrameBuffer, proj *camera.Projector, lc *LightConfig, p *model.Primitive, mat *model.Material, world mathutil.Mat4) {
	if len(p.Positions) == 0 {
		return
	}
	px, py, pz := proj.ProjectVertices(p.Positions, world)

	s := Surface{R: 200, G: 200, B: 205, A: 255}
	if mat != nil {
		s.R, s.G, s.B, s.A = mat.Color.Bytes()
	}

	for i := 0; i < p.TriangleCount(); i++ {
		vi := p.Triangle(i)
		if vi[0] >= len(p.Positions) || vi[1] >= len(p.Positions) || vi[2] >= len(p.Positions) {
			continue
		}
		a := world.MulPoint(mathutil.F32(p.Positions[vi[0]]))
		b := world.MulPoint(mathutil.F32(p.Positions[vi[1]]))
		c := world.MulPoint(mathutil.F32(p.Positions[vi[2]]))
		n := b.Sub(a).Cross(c.Sub(a)).Normalize()
		s.Shade = lc.ComputeShade(n)
		RasterizeTriangle(fb, px, py, pz, vi, &s, lc)
	}
}
