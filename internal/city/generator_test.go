package city

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"snowcity/internal/config"
	"snowcity/internal/layout"
	"snowcity/internal/mathutil"
	"snowcity/internal/model"
	"snowcity/internal/scene"
	"snowcity/internal/scenery"
	"snowcity/internal/store"
)

type boxLoader struct{ missing string }

func (l boxLoader) Load(_ context.Context, ref string) (*model.Graph, error) {
	if ref == l.missing {
		return nil, fmt.Errorf("box: %s: %w", ref, scenery.ErrResourceLoad)
	}
	roof := &model.Material{Name: "roof", Color: scenery.RGBA{0.6, 0.2, 0.2, 1}}
	return model.Box(ref, mathutil.Vec3{-1, 0, -1}, mathutil.Vec3{1, 2, 1}, roof), nil
}

type preloadLoader struct {
	boxLoader
	preloaded []string
}

func (l *preloadLoader) Preload(ctx context.Context, refs []string) error {
	l.preloaded = append(l.preloaded, refs...)
	for _, r := range refs {
		if _, err := l.Load(ctx, r); err != nil {
			return err
		}
	}
	return nil
}

type memSaver struct{ saved []*store.Layout }

func (m *memSaver) Save(_ context.Context, l *store.Layout) (int64, error) {
	m.saved = append(m.saved, l)
	return int64(len(m.saved)), nil
}

func testConfig() config.Config {
	cfg := config.Default()
	cfg.Grid.AreaSize = 48
	cfg.Grid.Density = 1
	cfg.Models = []string{"a.glb", "b.glb"}
	cfg.Clouds.Count = 20
	cfg.Clouds.AreaSize = 48
	cfg.FloorSize = 48
	cfg.RenderSize = 32
	cfg.Supersample = 2
	cfg.Seed = 99
	cfg.Resolve(config.Flags{BaseDir: "/tmp/city", Workers: 2})
	return cfg
}

func TestGenerate(t *testing.T) {
	saver := &memSaver{}
	g := &Generator{Loader: boxLoader{}, Saver: saver}

	out, err := g.Generate(context.Background(), testConfig())
	require.NoError(t, err)

	assert.Equal(t, uint64(99), out.Seed)
	assert.Len(t, out.Results, 16)
	assert.Len(t, out.Doc.Houses, 16)
	assert.Equal(t, 20, out.Doc.Clouds.Count)
	assert.Len(t, out.Doc.Clouds.Matrices, 20*16)
	assert.Equal(t, "sunset", out.Doc.Sky.Preset)
	for _, h := range out.Doc.Houses {
		require.Len(t, h.Overrides, 1)
		assert.Equal(t, "#6e6a8e", h.Overrides[0].Color)
	}

	require.NotNil(t, out.Preview)
	assert.Equal(t, 32, out.Preview.Bounds().Dx())

	require.Len(t, saver.saved, 1)
	assert.Equal(t, int64(1), out.LayoutID)
	assert.Equal(t, uint64(99), saver.saved[0].Seed)
	assert.Len(t, saver.saved[0].Placements, 16)
}

func TestGenerateIsReproducible(t *testing.T) {
	cfg := testConfig()
	cfg.Grid.Density = 0.5

	a, err := (&Generator{Loader: boxLoader{}}).Generate(context.Background(), cfg)
	require.NoError(t, err)
	b, err := (&Generator{Loader: boxLoader{}}).Generate(context.Background(), cfg)
	require.NoError(t, err)

	assert.Equal(t, a.Doc.Houses, b.Doc.Houses)
	assert.Equal(t, a.Doc.Clouds.Matrices, b.Doc.Clouds.Matrices)
}

func TestGenerateKeepsUnchangedClouds(t *testing.T) {
	g := &Generator{Loader: boxLoader{}}
	cfg := testConfig()
	cfg.RenderSize = 0

	first, err := g.Generate(context.Background(), cfg)
	require.NoError(t, err)
	v := g.field.Version()
	assert.Nil(t, first.Preview)

	cfg.Grid.Density = 0.3
	_, err = g.Generate(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, v, g.field.Version())

	cfg.Clouds.Count = 5
	second, err := g.Generate(context.Background(), cfg)
	require.NoError(t, err)
	assert.Greater(t, g.field.Version(), v)
	assert.Equal(t, 5, second.Doc.Clouds.Count)
}

func TestCloudsReplayFromSeed(t *testing.T) {
	cfg := testConfig()
	cfg.RenderSize = 0

	edited := &Generator{Loader: boxLoader{}}
	_, err := edited.Generate(context.Background(), cfg)
	require.NoError(t, err)
	cfg.Clouds.Count = 5
	after, err := edited.Generate(context.Background(), cfg)
	require.NoError(t, err)

	fresh, err := (&Generator{Loader: boxLoader{}}).Generate(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, fresh.Doc.Clouds.Matrices, after.Doc.Clouds.Matrices)
}

func TestGenerateKeepsPickedSeed(t *testing.T) {
	g := &Generator{Loader: boxLoader{}}
	cfg := testConfig()
	cfg.Seed = 0
	cfg.RenderSize = 0

	first, err := g.Generate(context.Background(), cfg)
	require.NoError(t, err)
	require.NotZero(t, first.Seed)
	v := g.field.Version()

	again, err := g.Generate(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, first.Seed, again.Seed)
	assert.Equal(t, first.Doc.Houses, again.Doc.Houses)
	assert.Equal(t, v, g.field.Version())

	cfg.Seed = first.Seed
	pinned, err := (&Generator{Loader: boxLoader{}}).Generate(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, first.Doc.Clouds.Matrices, pinned.Doc.Clouds.Matrices)
}

func TestGeneratePartialFailure(t *testing.T) {
	cfg := testConfig()
	out, err := (&Generator{Loader: boxLoader{missing: "b.glb"}}).Generate(context.Background(), cfg)
	require.NoError(t, err)

	failed := 0
	for _, r := range out.Results {
		if !r.Success {
			failed++
			assert.ErrorIs(t, r.Err, scenery.ErrResourceLoad)
		}
	}
	assert.Equal(t, 16-failed, len(out.Doc.Houses))

	cfg.FailFast = true
	if failed > 0 {
		_, err = (&Generator{Loader: boxLoader{missing: "b.glb"}}).Generate(context.Background(), cfg)
		assert.ErrorIs(t, err, scenery.ErrResourceLoad)
	}
}

func TestGenerateFailFastPreloads(t *testing.T) {
	cfg := testConfig()
	cfg.RenderSize = 0

	l := &preloadLoader{}
	_, err := (&Generator{Loader: l}).Generate(context.Background(), cfg)
	require.NoError(t, err)
	assert.Empty(t, l.preloaded)

	cfg.FailFast = true
	_, err = (&Generator{Loader: l}).Generate(context.Background(), cfg)
	require.NoError(t, err)
	require.NotEmpty(t, l.preloaded)
	assert.Subset(t, []string{"a.glb", "b.glb"}, l.preloaded)
	assert.LessOrEqual(t, len(l.preloaded), 2, "each model is preloaded once")

	bad := &preloadLoader{boxLoader: boxLoader{missing: l.preloaded[0]}}
	_, err = (&Generator{Loader: bad}).Generate(context.Background(), cfg)
	assert.ErrorIs(t, err, scenery.ErrResourceLoad)
}

func TestUsedRefs(t *testing.T) {
	placements := []layout.Placement{{ModelRef: "b"}, {ModelRef: "a"}, {ModelRef: "b"}}
	assert.Equal(t, []string{"b", "a"}, usedRefs(placements))
	assert.Empty(t, usedRefs(nil))
}

func TestGenerateCloudInstances(t *testing.T) {
	cfg := testConfig()
	cfg.RenderSize = 0

	out, err := (&Generator{Loader: boxLoader{}}).Generate(context.Background(), cfg)
	require.NoError(t, err)
	assert.Empty(t, out.Doc.Clouds.Instances)

	cfg.CloudInstances = true
	out, err = (&Generator{Loader: boxLoader{}}).Generate(context.Background(), cfg)
	require.NoError(t, err)
	assert.Len(t, out.Doc.Clouds.Instances, 20)
}

func TestGeneratePerspectivePreview(t *testing.T) {
	cfg := testConfig()
	ortho, err := (&Generator{Loader: boxLoader{}}).Generate(context.Background(), cfg)
	require.NoError(t, err)

	cfg.Perspective = true
	persp, err := (&Generator{Loader: boxLoader{}}).Generate(context.Background(), cfg)
	require.NoError(t, err)
	require.NotNil(t, persp.Preview)
	assert.Equal(t, ortho.Preview.Bounds(), persp.Preview.Bounds())
	assert.NotEqual(t, ortho.Preview.Pix, persp.Preview.Pix)
}

func TestGenerateInvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		edit func(*config.Config)
	}{
		{"cell too large", func(c *config.Config) { c.Grid.CellSize = 100 }},
		{"density", func(c *config.Config) { c.Grid.Density = 1.5 }},
		{"margin", func(c *config.Config) { c.Margin = 0 }},
		{"sky", func(c *config.Config) { c.SkyPreset = "dusk" }},
		{"category", func(c *config.Config) { c.Models = nil; c.Category = "castles" }},
		{"roof color", func(c *config.Config) { c.RoofColor = "purple" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.edit(&cfg)
			_, err := (&Generator{Loader: boxLoader{}}).Generate(context.Background(), cfg)
			assert.ErrorIs(t, err, scenery.ErrInvalidConfiguration)
		})
	}
}

func TestOutputWrite(t *testing.T) {
	out, err := (&Generator{Loader: boxLoader{}}).Generate(context.Background(), testConfig())
	require.NoError(t, err)

	dir := filepath.Join(t.TempDir(), "out")
	require.NoError(t, out.Write(dir))

	for _, name := range []string{"scene.json", "manifest.json", "preview.webp"} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, name)
	}
	doc, err := scene.Read(filepath.Join(dir, "scene.json"))
	require.NoError(t, err)
	assert.Equal(t, out.Doc.Houses, doc.Houses)
}

func TestGenerateStoresConfigWithoutDSN(t *testing.T) {
	saver := &memSaver{}
	cfg := testConfig()
	cfg.DSN = "postgres://user:secret@db/city"
	_, err := (&Generator{Loader: boxLoader{}, Saver: saver}).Generate(context.Background(), cfg)
	require.NoError(t, err)
	require.Len(t, saver.saved, 1)
	assert.NotContains(t, string(saver.saved[0].Config), "secret")
}
