package model

import (
	"snowcity/internal/mathutil"
)

// NewNode returns a node with an identity transform whose material slots
// mirror the mesh primitives.
func NewNode(name string, mesh *Mesh) *Node {
	n := &Node{Name: name, Local: mathutil.Mat4Identity(), Mesh: mesh}
	if mesh != nil {
		n.Materials = make([]*Material, len(mesh.Primitives))
		for i, p := range mesh.Primitives {
			n.Materials[i] = p.Material
		}
	}
	return n
}

// WalkFunc is called for every node with its accumulated world transform.
type WalkFunc func(n *Node, world mathutil.Mat4)

// Walk visits nodes depth-first, parents before children.
func (g *Graph) Walk(root mathutil.Mat4, fn WalkFunc) {
	for _, r := range g.Roots {
		walk(r, root, fn)
	}
}

func walk(n *Node, parent mathutil.Mat4, fn WalkFunc) {
	world := mathutil.Mat4Mul(parent, n.Local)
	fn(n, world)
	for _, c := range n.Children {
		walk(c, world, fn)
	}
}

// Bounds returns the world-space AABB of every vertex under the graph,
// with root applied on top of the node hierarchy.
func (g *Graph) Bounds(root mathutil.Mat4) mathutil.Box3 {
	box := mathutil.EmptyBox()
	g.Walk(root, func(n *Node, world mathutil.Mat4) {
		if n.Mesh == nil {
			return
		}
		for _, p := range n.Mesh.Primitives {
			for _, v := range p.Positions {
				box = box.ExpandByPoint(world.MulPoint(mathutil.F32(v)))
			}
		}
	})
	return box
}

// Clone deep-copies the node hierarchy. Meshes and materials stay shared;
// material slots are copied so a clone can swap its own entries.
func (g *Graph) Clone() *Graph {
	out := &Graph{Name: g.Name, Roots: make([]*Node, len(g.Roots))}
	for i, r := range g.Roots {
		out.Roots[i] = cloneNode(r)
	}
	return out
}

func cloneNode(n *Node) *Node {
	c := *n
	c.Materials = append([]*Material(nil), n.Materials...)
	c.Children = make([]*Node, len(n.Children))
	for i, ch := range n.Children {
		c.Children[i] = cloneNode(ch)
	}
	return &c
}

// Materials returns the distinct materials referenced by node slots,
// in first-seen order.
func (g *Graph) Materials() []*Material {
	seen := make(map[*Material]bool)
	var out []*Material
	g.Walk(mathutil.Mat4Identity(), func(n *Node, _ mathutil.Mat4) {
		for _, m := range n.Materials {
			if m == nil || seen[m] {
				continue
			}
			seen[m] = true
			out = append(out, m)
		}
	})
	return out
}

// Stats returns node, mesh-node and triangle counts.
func (g *Graph) Stats() (nodes, meshes, tris int) {
	g.Walk(mathutil.Mat4Identity(), func(n *Node, _ mathutil.Mat4) {
		nodes++
		if n.Mesh == nil {
			return
		}
		meshes++
		for _, p := range n.Mesh.Primitives {
			tris += p.TriangleCount()
		}
	})
	return nodes, meshes, tris
}
