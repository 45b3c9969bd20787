package fit

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"snowcity/internal/layout"
	"snowcity/internal/mathutil"
	"snowcity/internal/model"
	"snowcity/internal/scenery"
)

func TestFitKnownBox(t *testing.T) {
	g := model.Box("house", mathutil.Vec3{-2, 0, -3}, mathutil.Vec3{2, 4, 3}, nil)
	tr, err := Fit(g, Spec{Footprint: 10, Margin: 0.9})
	require.NoError(t, err)

	assert.InDelta(t, 1.5, tr.Scale, 1e-9)
	assert.Equal(t, mathutil.Vec3{0, 0, 0}, tr.Offset)
	assert.False(t, tr.Degenerate)
}

func TestFitRecentersAndGrounds(t *testing.T) {
	g := model.Box("shed", mathutil.Vec3{3, -1, 10}, mathutil.Vec3{5, 2, 11}, nil)
	tr, err := Fit(g, Spec{Footprint: 4, Margin: 1})
	require.NoError(t, err)

	assert.InDeltaSlice(t, []float64{-4, 1, -10.5}, tr.Offset[:], 1e-9)
	assert.InDelta(t, 2.0, tr.Scale, 1e-9)

	// Translate first, then scale: the fitted box is centered and grounded.
	b := g.Bounds(tr.Matrix())
	assert.InDeltaSlice(t, []float64{-2, 0, -1}, b.Min[:], 1e-6)
	assert.InDeltaSlice(t, []float64{2, 6, 1}, b.Max[:], 1e-6)
}

func TestFitDegenerateBox(t *testing.T) {
	tests := []struct {
		name string
		g    *model.Graph
	}{
		{"zero size", model.Box("dot", mathutil.Vec3{1, 1, 1}, mathutil.Vec3{1, 1, 1}, nil)},
		{"vertical line", model.Box("pole", mathutil.Vec3{0, 0, 0}, mathutil.Vec3{0, 5, 0}, nil)},
		{"no geometry", &model.Graph{Name: "empty", Roots: []*model.Node{model.NewNode("root", nil)}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, err := Fit(tt.g, Spec{Footprint: 10, Margin: 0.9})
			require.NoError(t, err)
			assert.True(t, tr.Degenerate)
			assert.InDelta(t, 9.0, tr.Scale, 1e-9)
			assert.False(t, math.IsInf(tr.Scale, 0) || math.IsNaN(tr.Scale))
			assert.True(t, tr.Offset.IsFinite())
		})
	}
}

func TestFitInvalidSpec(t *testing.T) {
	g := model.Box("house", mathutil.Vec3{}, mathutil.Vec3{1, 1, 1}, nil)
	for _, spec := range []Spec{
		{Footprint: 0, Margin: 0.5},
		{Footprint: -3, Margin: 0.5},
		{Footprint: 10, Margin: 0},
		{Footprint: 10, Margin: 1.2},
		{Footprint: math.Inf(1), Margin: 0.5},
	} {
		_, err := Fit(g, spec)
		assert.ErrorIs(t, err, scenery.ErrInvalidConfiguration, "spec %+v", spec)
	}
}

func roofHouse() *model.Graph {
	roofMat := &model.Material{Name: "Roof_Tiles", Color: scenery.RGBA{0.7, 0.2, 0.2, 1}, Side: model.SideDouble}
	wallMat := &model.Material{Name: "wall", Color: scenery.RGBA{0.9, 0.9, 0.9, 1}}
	body := model.Box("body", mathutil.Vec3{-1, 0, -1}, mathutil.Vec3{1, 1, 1}, wallMat).Roots[0]
	roof := model.Box("top", mathutil.Vec3{-1, 1, -1}, mathutil.Vec3{1, 2, 1}, roofMat).Roots[0]
	body.Children = []*model.Node{roof}
	return &model.Graph{Name: "building-type-a", Roots: []*model.Node{body}}
}

func TestInstantiateTintDoesNotLeakBetweenInstances(t *testing.T) {
	src := roofHouse()
	srcRoof := src.Roots[0].Children[0].Materials[0]
	purple, err := scenery.ParseHex("#6E6A8E")
	require.NoError(t, err)

	a, err := Instantiate(src, layout.Placement{ModelRef: "a"}, Spec{Footprint: 10, Margin: 0.85}, Tint{Category: "roof", Color: purple})
	require.NoError(t, err)
	green := scenery.RGBA{0, 1, 0, 1}
	b, err := Instantiate(src, layout.Placement{ModelRef: "a"}, Spec{Footprint: 10, Margin: 0.85}, Tint{Category: "ROOF", Color: green})
	require.NoError(t, err)

	roofA := a.Graph.Roots[0].Children[0].Materials[0]
	roofB := b.Graph.Roots[0].Children[0].Materials[0]
	assert.Equal(t, purple, roofA.Color)
	assert.Equal(t, green, roofB.Color)
	assert.NotSame(t, roofA, roofB)

	// Source material untouched.
	assert.Equal(t, scenery.RGBA{0.7, 0.2, 0.2, 1}, srcRoof.Color)
	assert.Equal(t, model.SideDouble, srcRoof.Side)
	assert.Equal(t, model.SideFront, roofA.Side)
	assert.Contains(t, a.Owned, roofA)

	// Untinted front-side walls stay shared.
	assert.Same(t, src.Roots[0].Materials[0], a.Graph.Roots[0].Materials[0])
}

func TestInstantiateMatchesNodeName(t *testing.T) {
	mat := &model.Material{Name: "Material.003", Color: scenery.RGBA{1, 1, 1, 1}}
	g := model.Box("roof-left", mathutil.Vec3{}, mathutil.Vec3{1, 1, 1}, mat)

	in, err := Instantiate(g, layout.Placement{}, Spec{Footprint: 1, Margin: 1}, Tint{Category: "roof", Color: scenery.RGBA{0, 0, 1, 1}})
	require.NoError(t, err)
	assert.Equal(t, scenery.RGBA{0, 0, 1, 1}, in.Graph.Roots[0].Materials[0].Color)
	assert.Equal(t, scenery.RGBA{1, 1, 1, 1}, mat.Color)
	assert.True(t, in.Graph.Roots[0].CastShadow)
	assert.True(t, in.Graph.Roots[0].ReceiveShadow)
	assert.False(t, g.Roots[0].CastShadow)
}

func TestInstantiateNoTint(t *testing.T) {
	src := roofHouse()
	in, err := Instantiate(src, layout.Placement{}, Spec{Footprint: 10, Margin: 1}, Tint{})
	require.NoError(t, err)
	roof := in.Graph.Roots[0].Children[0].Materials[0]
	assert.Equal(t, scenery.RGBA{0.7, 0.2, 0.2, 1}, roof.Color)
	// Double-sided source still gets a front-side clone.
	assert.Equal(t, model.SideFront, roof.Side)
	assert.Len(t, in.Owned, 1)
}

func TestInstanceWorldBounds(t *testing.T) {
	src := model.Box("house", mathutil.Vec3{0, 5, 0}, mathutil.Vec3{4, 7, 2}, nil)
	p := layout.Placement{ModelRef: "house", Position: mathutil.Vec3{30, 0, -18}, RotationY: math.Pi / 2}

	in, err := Instantiate(src, p, Spec{Footprint: 12, Margin: 0.5}, Tint{})
	require.NoError(t, err)
	assert.InDelta(t, 1.5, in.Fit.Scale, 1e-9)

	b := in.Bounds()
	assert.InDelta(t, 0, b.Min[1], 1e-6)
	assert.InDelta(t, 3, b.Max[1], 1e-6)
	c := b.Center()
	assert.InDelta(t, 30, c[0], 1e-6)
	assert.InDelta(t, -18, c[2], 1e-6)
	// Rotated a quarter turn: the long side now runs along Z.
	size := b.Size()
	assert.InDelta(t, 3, size[0], 1e-6)
	assert.InDelta(t, 6, size[2], 1e-6)
}
