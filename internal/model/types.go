package model

import (
	"snowcity/internal/mathutil"
	"snowcity/internal/scenery"
)

// Side selects which triangle faces a material renders.
type Side int

const (
	SideFront Side = iota
	SideBack
	SideDouble
)

func (s Side) String() string {
	switch s {
	case SideBack:
		return "back"
	case SideDouble:
		return "double"
	}
	return "front"
}

// Material holds the surface properties the layout passes care about.
// Materials may be shared between graphs; mutate only a Clone.
type Material struct {
	Name      string
	Color     scenery.RGBA
	Metalness float64
	Roughness float64
	Side      Side
}

// Clone returns an independent copy.
func (m *Material) Clone() *Material {
	c := *m
	return &c
}

// Primitive is one triangle list with a single material.
type Primitive struct {
	Positions [][3]float32
	Indices   []uint32 // nil means non-indexed (consecutive triples)
	Material  *Material
}

// TriangleCount returns the number of triangles in the primitive.
func (p *Primitive) TriangleCount() int {
	if p.Indices != nil {
		return len(p.Indices) / 3
	}
	return len(p.Positions) / 3
}

// Triangle returns the vertex indices of triangle i.
func (p *Primitive) Triangle(i int) [3]int {
	if p.Indices != nil {
		return [3]int{int(p.Indices[i*3]), int(p.Indices[i*3+1]), int(p.Indices[i*3+2])}
	}
	return [3]int{i * 3, i*3 + 1, i*3 + 2}
}

// Mesh groups primitives. Geometry is immutable once loaded and is shared
// freely between clones.
type Mesh struct {
	Name       string
	Primitives []*Primitive
}

// Node is one scene-graph node with a local transform.
type Node struct {
	Name     string
	Local    mathutil.Mat4
	Mesh     *Mesh
	Children []*Node

	// Per-node material slots, parallel to Mesh.Primitives. Cloned graphs
	// replace entries here instead of touching the shared primitive.
	Materials []*Material

	CastShadow    bool
	ReceiveShadow bool
}

// Graph is a loaded model: a named forest of nodes.
type Graph struct {
	Name  string
	Roots []*Node
}
