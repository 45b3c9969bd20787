// Package gltfload converts GLTF/GLB documents into model graphs.
// Decoding is delegated to github.com/qmuntal/gltf.
package gltfload

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"snowcity/internal/mathutil"
	"snowcity/internal/model"
	"snowcity/internal/scenery"
)

// Load reads a .glb or .gltf file and returns its default scene.
func Load(path string) (*model.Graph, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("gltfload: open %s: %w", path, err)
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	g, err := Convert(doc, name)
	if err != nil {
		return nil, fmt.Errorf("gltfload: %s: %w", path, err)
	}
	return g, nil
}

// Convert builds a graph from an already decoded document.
func Convert(doc *gltf.Document, name string) (*model.Graph, error) {
	c := &converter{
		doc:       doc,
		meshes:    make(map[int]*model.Mesh),
		materials: make(map[int]*model.Material),
	}

	roots, err := c.sceneRoots()
	if err != nil {
		return nil, err
	}

	g := &model.Graph{Name: name}
	for _, ni := range roots {
		n, err := c.node(ni, 0)
		if err != nil {
			return nil, err
		}
		g.Roots = append(g.Roots, n)
	}
	return g, nil
}

// maxDepth bounds node recursion against cyclic documents.
const maxDepth = 64

type converter struct {
	doc       *gltf.Document
	meshes    map[int]*model.Mesh
	materials map[int]*model.Material
}

func (c *converter) sceneRoots() ([]int, error) {
	if len(c.doc.Scenes) == 0 {
		// No scene: every node that is nobody's child is a root.
		child := make(map[int]bool)
		for _, n := range c.doc.Nodes {
			for _, ch := range n.Children {
				child[ch] = true
			}
		}
		var roots []int
		for i := range c.doc.Nodes {
			if !child[i] {
				roots = append(roots, i)
			}
		}
		return roots, nil
	}
	si := 0
	if c.doc.Scene != nil {
		si = *c.doc.Scene
	}
	if si < 0 || si >= len(c.doc.Scenes) {
		return nil, fmt.Errorf("scene index %d out of range", si)
	}
	return c.doc.Scenes[si].Nodes, nil
}

func (c *converter) node(idx, depth int) (*model.Node, error) {
	if depth > maxDepth {
		return nil, fmt.Errorf("node hierarchy deeper than %d", maxDepth)
	}
	if idx < 0 || idx >= len(c.doc.Nodes) {
		return nil, fmt.Errorf("node index %d out of range", idx)
	}
	src := c.doc.Nodes[idx]

	var mesh *model.Mesh
	if src.Mesh != nil {
		m, err := c.mesh(*src.Mesh)
		if err != nil {
			return nil, err
		}
		mesh = m
	}

	n := model.NewNode(src.Name, mesh)
	n.Local = localTransform(src)

	for _, ci := range src.Children {
		ch, err := c.node(ci, depth+1)
		if err != nil {
			return nil, err
		}
		n.Children = append(n.Children, ch)
	}
	return n, nil
}

func localTransform(n *gltf.Node) mathutil.Mat4 {
	if m := n.MatrixOrDefault(); m != gltf.DefaultMatrix {
		return mathutil.FromColumnMajor(m)
	}
	t := n.TranslationOrDefault()
	r := n.RotationOrDefault()
	s := n.ScaleOrDefault()
	return mathutil.TRS(
		mathutil.Vec3{t[0], t[1], t[2]},
		mathutil.Quat{r[0], r[1], r[2], r[3]},
		mathutil.Vec3{s[0], s[1], s[2]},
	)
}

func (c *converter) mesh(idx int) (*model.Mesh, error) {
	if m, ok := c.meshes[idx]; ok {
		return m, nil
	}
	if idx < 0 || idx >= len(c.doc.Meshes) {
		return nil, fmt.Errorf("mesh index %d out of range", idx)
	}
	src := c.doc.Meshes[idx]
	out := &model.Mesh{Name: src.Name}

	for pi, p := range src.Primitives {
		if p.Mode != gltf.PrimitiveTriangles {
			// Lines and points carry no footprint worth fitting.
			continue
		}
		posIdx, ok := p.Attributes[gltf.POSITION]
		if !ok {
			continue
		}
		pos, err := modeler.ReadPosition(c.doc, c.doc.Accessors[posIdx], nil)
		if err != nil {
			return nil, fmt.Errorf("mesh %q primitive %d: positions: %w", src.Name, pi, err)
		}

		prim := &model.Primitive{Positions: pos}
		if p.Indices != nil {
			ind, err := modeler.ReadIndices(c.doc, c.doc.Accessors[*p.Indices], nil)
			if err != nil {
				return nil, fmt.Errorf("mesh %q primitive %d: indices: %w", src.Name, pi, err)
			}
			prim.Indices = ind
		}
		if p.Material != nil {
			prim.Material = c.material(*p.Material)
		} else {
			prim.Material = defaultMaterial()
		}
		out.Primitives = append(out.Primitives, prim)
	}

	c.meshes[idx] = out
	return out, nil
}

// material converts once per index so primitives referencing the same GLTF
// material share one *model.Material, like the engine does.
func (c *converter) material(idx int) *model.Material {
	if m, ok := c.materials[idx]; ok {
		return m
	}
	if idx < 0 || idx >= len(c.doc.Materials) {
		return defaultMaterial()
	}
	src := c.doc.Materials[idx]
	m := &model.Material{
		Name:      src.Name,
		Color:     scenery.RGBA{1, 1, 1, 1},
		Metalness: 1,
		Roughness: 1,
	}
	if pbr := src.PBRMetallicRoughness; pbr != nil {
		bc := pbr.BaseColorFactorOrDefault()
		m.Color = scenery.RGBA{bc[0], bc[1], bc[2], bc[3]}
		m.Metalness = pbr.MetallicFactorOrDefault()
		m.Roughness = pbr.RoughnessFactorOrDefault()
	}
	if src.DoubleSided {
		m.Side = model.SideDouble
	}
	c.materials[idx] = m
	return m
}

func defaultMaterial() *model.Material {
	return &model.Material{Name: "", Color: scenery.RGBA{1, 1, 1, 1}, Roughness: 1}
}
