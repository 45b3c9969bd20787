package gltfload

import (
	"path/filepath"
	"testing"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"snowcity/internal/mathutil"
)

// houseDoc builds a two-node document: a body cube with a roof child that
// shares the "Roof" material across two primitives.
func houseDoc(t *testing.T) *gltf.Document {
	t.Helper()
	doc := gltf.NewDocument()

	pos := modeler.WritePosition(doc, [][3]float32{
		{-1, 0, -1}, {1, 0, -1}, {1, 2, 1}, {-1, 2, 1},
	})
	ind := modeler.WriteIndices(doc, []uint16{0, 1, 2, 0, 2, 3})

	doc.Materials = []*gltf.Material{
		{Name: "Wall", PBRMetallicRoughness: &gltf.PBRMetallicRoughness{BaseColorFactor: &[4]float64{0.9, 0.9, 0.8, 1}}},
		{Name: "Roof", DoubleSided: true, PBRMetallicRoughness: &gltf.PBRMetallicRoughness{BaseColorFactor: &[4]float64{0.8, 0.1, 0.1, 1}}},
	}
	doc.Meshes = []*gltf.Mesh{
		{Name: "body", Primitives: []*gltf.Primitive{
			{Indices: gltf.Index(ind), Attributes: map[string]int{gltf.POSITION: pos}, Material: gltf.Index(0)},
		}},
		{Name: "roof", Primitives: []*gltf.Primitive{
			{Indices: gltf.Index(ind), Attributes: map[string]int{gltf.POSITION: pos}, Material: gltf.Index(1)},
			{Indices: gltf.Index(ind), Attributes: map[string]int{gltf.POSITION: pos}, Material: gltf.Index(1)},
		}},
	}
	doc.Nodes = []*gltf.Node{
		{Name: "building", Mesh: gltf.Index(0), Children: []int{1}, Translation: [3]float64{3, 0, 0}},
		{Name: "roof-top", Mesh: gltf.Index(1), Translation: [3]float64{0, 2, 0}},
	}
	doc.Scenes[0].Nodes = []int{0}
	return doc
}

func TestConvertHierarchy(t *testing.T) {
	g, err := Convert(houseDoc(t), "building-type-a")
	require.NoError(t, err)

	assert.Equal(t, "building-type-a", g.Name)
	require.Len(t, g.Roots, 1)
	root := g.Roots[0]
	assert.Equal(t, "building", root.Name)
	require.Len(t, root.Children, 1)
	assert.Equal(t, "roof-top", root.Children[0].Name)

	b := g.Bounds(mathutil.Mat4Identity())
	assert.InDeltaSlice(t, []float64{2, 0, -1}, b.Min[:], 1e-6)
	assert.InDeltaSlice(t, []float64{4, 4, 1}, b.Max[:], 1e-6)
}

func TestConvertSharesMaterials(t *testing.T) {
	g, err := Convert(houseDoc(t), "house")
	require.NoError(t, err)

	roof := g.Roots[0].Children[0]
	require.Len(t, roof.Materials, 2)
	assert.Same(t, roof.Materials[0], roof.Materials[1])
	assert.Equal(t, "Roof", roof.Materials[0].Name)
	assert.InDelta(t, 0.8, roof.Materials[0].Color[0], 1e-9)
	assert.Equal(t, "double", roof.Materials[0].Side.String())

	assert.Len(t, g.Materials(), 2)
}

func TestConvertBadSceneIndex(t *testing.T) {
	doc := houseDoc(t)
	doc.Scene = gltf.Index(4)
	_, err := Convert(doc, "broken")
	assert.Error(t, err)
}

func TestLoadBinaryRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "building-type-b.glb")
	require.NoError(t, gltf.SaveBinary(houseDoc(t), path))

	g, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "building-type-b", g.Name)
	_, meshes, tris := g.Stats()
	assert.Equal(t, 2, meshes)
	assert.Equal(t, 6, tris)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.glb"))
	assert.Error(t, err)
}
