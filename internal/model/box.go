package model

import (
	"snowcity/internal/mathutil"
	"snowcity/internal/scenery"
)

// Box builds a single-node graph holding an axis-aligned box mesh.
// Used for procedural stand-ins (clouds, missing models) and tests.
func Box(name string, min, max mathutil.Vec3, mat *Material) *Graph {
	x0, y0, z0 := float32(min[0]), float32(min[1]), float32(min[2])
	x1, y1, z1 := float32(max[0]), float32(max[1]), float32(max[2])
	pos := [][3]float32{
		{x0, y0, z0}, {x1, y0, z0}, {x1, y1, z0}, {x0, y1, z0},
		{x0, y0, z1}, {x1, y0, z1}, {x1, y1, z1}, {x0, y1, z1},
	}
	idx := []uint32{
		0, 2, 1, 0, 3, 2, // -z
		4, 5, 6, 4, 6, 7, // +z
		0, 4, 7, 0, 7, 3, // -x
		1, 2, 6, 1, 6, 5, // +x
		0, 1, 5, 0, 5, 4, // -y
		3, 7, 6, 3, 6, 2, // +y
	}
	if mat == nil {
		mat = &Material{Name: name, Color: scenery.RGBA{0.8, 0.8, 0.8, 1}, Roughness: 1}
	}
	mesh := &Mesh{Name: name, Primitives: []*Primitive{{Positions: pos, Indices: idx, Material: mat}}}
	return &Graph{Name: name, Roots: []*Node{NewNode(name, mesh)}}
}
