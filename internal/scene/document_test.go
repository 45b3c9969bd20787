package scene

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"snowcity/internal/clouds"
	"snowcity/internal/fit"
	"snowcity/internal/layout"
	"snowcity/internal/mathutil"
	"snowcity/internal/model"
	"snowcity/internal/scenery"
)

func TestHouseFromInstance(t *testing.T) {
	roof := &model.Material{Name: "roof", Color: scenery.RGBA{1, 0, 0, 1}}
	src := model.Box("roof", mathutil.Vec3{-2, 0, -3}, mathutil.Vec3{2, 4, 3}, roof)
	p := layout.Placement{ModelRef: "building-type-c", Position: mathutil.Vec3{6, 0, -6}, RotationY: 3.14}

	in, err := fit.Instantiate(src, p, fit.Spec{Footprint: 10, Margin: 0.9}, fit.Tint{Category: "roof", Color: scenery.RGBA{0, 0, 1, 1}})
	require.NoError(t, err)

	h := HouseFromInstance(in)
	assert.Equal(t, "building-type-c", h.Model)
	assert.Equal(t, [3]float64{6, 0, -6}, h.Position)
	assert.Equal(t, 3.14, h.RotationY)
	assert.InDelta(t, 1.5, h.Scale, 1e-9)
	require.Len(t, h.Overrides, 1)
	assert.Equal(t, MaterialOverride{Material: "roof", Color: "#0000ff", Side: "front"}, h.Overrides[0])
}

func TestDocumentWriteRead(t *testing.T) {
	f := clouds.NewField()
	set := clouds.Set{Count: 3, AreaSize: 10, Height: clouds.Range{Min: 1, Max: 2}, Scale: clouds.Range{Min: 1, Max: 1}}
	f.Update(set, 1)

	doc := &Document{
		Seed:   42,
		Floor:  Floor{Size: 160, TileRepeat: 8, Roughness: 1, ReceiveShadow: true},
		Sky:    Sky{Mode: "preset", Preset: "sunset", Blur: 0.6},
		Houses: []House{{Model: "a", Scale: 2, CastShadow: true}},
	}
	doc.SetClouds(set, f, true)

	path := filepath.Join(t.TempDir(), "out", "scene.json")
	require.NoError(t, doc.Write(path))

	got, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), got.Seed)
	assert.Equal(t, doc.Floor, got.Floor)
	assert.Equal(t, doc.Houses, got.Houses)
	assert.Equal(t, 3, got.Clouds.Count)
	assert.Len(t, got.Clouds.Matrices, 48)
	assert.Len(t, got.Clouds.Instances, 3)
	assert.Equal(t, set, got.Clouds.Set)
}
