package batch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"snowcity/internal/fit"
	"snowcity/internal/layout"
	"snowcity/internal/mathutil"
	"snowcity/internal/model"
	"snowcity/internal/scenery"
)

type fakeLoader struct {
	mu    sync.Mutex
	calls int
	fail  map[string]bool
	graph *model.Graph
}

func (l *fakeLoader) Load(ctx context.Context, ref string) (*model.Graph, error) {
	l.mu.Lock()
	l.calls++
	l.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if l.fail[ref] {
		return nil, fmt.Errorf("fake: %s: %w", ref, scenery.ErrResourceLoad)
	}
	return l.graph, nil
}

func newLoader(fail ...string) *fakeLoader {
	roof := &model.Material{Name: "roof", Color: scenery.RGBA{1, 0, 0, 1}}
	l := &fakeLoader{
		fail:  make(map[string]bool),
		graph: model.Box("house", mathutil.Vec3{-2, 0, -1}, mathutil.Vec3{2, 3, 1}, roof),
	}
	for _, f := range fail {
		l.fail[f] = true
	}
	return l
}

func placements(refs ...string) []layout.Placement {
	out := make([]layout.Placement, len(refs))
	for i, r := range refs {
		out[i] = layout.Placement{ModelRef: r, CellX: i, Position: mathutil.Vec3{float64(i) * 12, 0, 0}}
	}
	return out
}

func testConfig(l *fakeLoader) Config {
	return Config{
		Loader:  l,
		Fit:     fit.Spec{Footprint: 10.8, Margin: 0.85},
		Tint:    fit.Tint{Category: "roof", Color: scenery.RGBA{0.43, 0.42, 0.56, 1}},
		Workers: 4,
	}
}

func TestRunFitsEveryPlacement(t *testing.T) {
	l := newLoader()
	ps := placements("a", "b", "c", "d", "e", "f")
	results, err := Run(context.Background(), testConfig(l), ps)
	require.NoError(t, err)
	require.Len(t, results, len(ps))

	for i, r := range results {
		assert.True(t, r.Success, r.Error)
		assert.Equal(t, i, r.Index)
		assert.Equal(t, ps[i].ModelRef, r.Instance.Ref)
		assert.InDelta(t, 10.8*0.85/4, r.Instance.Fit.Scale, 1e-9)
		require.Len(t, r.Instance.Owned, 1)
	}

	// Each instance owns its own tinted roof.
	assert.NotSame(t, results[0].Instance.Owned[0], results[1].Instance.Owned[0])
	assert.Equal(t, scenery.RGBA{1, 0, 0, 1}, l.graph.Materials()[0].Color)

	assert.Len(t, Instances(results), len(ps))
	houses := Houses(results)
	require.Len(t, houses, len(ps))
	assert.Equal(t, [3]float64{24, 0, 0}, houses[2].Position)
}

func TestRunIsolatesFailures(t *testing.T) {
	l := newLoader("bad")
	results, err := Run(context.Background(), testConfig(l), placements("a", "bad", "c"))
	require.NoError(t, err)

	assert.True(t, results[0].Success)
	assert.False(t, results[1].Success)
	assert.ErrorIs(t, results[1].Err, scenery.ErrResourceLoad)
	assert.Contains(t, results[1].Error, "bad")
	assert.True(t, results[2].Success)

	n, canceled := Failures(results)
	assert.Equal(t, 1, n)
	assert.False(t, canceled)
	assert.Len(t, Houses(results), 2)
}

func TestRunFailFast(t *testing.T) {
	l := newLoader("bad")
	cfg := testConfig(l)
	cfg.Workers = 1
	cfg.FailFast = true

	results, err := Run(context.Background(), cfg, placements("bad", "a", "b", "c"))
	require.ErrorIs(t, err, scenery.ErrResourceLoad)
	require.Len(t, results, 4)
	assert.False(t, results[0].Success)
	for _, r := range results {
		assert.NotEmpty(t, r.Placement.ModelRef)
	}
	n, _ := Failures(results)
	assert.GreaterOrEqual(t, n, 1)
}

func TestRunCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := Run(ctx, testConfig(newLoader()), placements("a", "b"))
	assert.ErrorIs(t, err, context.Canceled)
	require.Len(t, results, 2)
	n, canceled := Failures(results)
	assert.Equal(t, 2, n)
	assert.True(t, canceled)
}

func TestRunRejectsInvalidSpec(t *testing.T) {
	cfg := testConfig(newLoader())
	cfg.Fit.Margin = 0
	_, err := Run(context.Background(), cfg, placements("a"))
	assert.True(t, errors.Is(err, scenery.ErrInvalidConfiguration))
}

func TestWriteManifest(t *testing.T) {
	results, err := Run(context.Background(), testConfig(newLoader("bad")), placements("a", "bad"))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "manifest.json")
	require.NoError(t, WriteManifest(path, results))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var entries []ManifestEntry
	require.NoError(t, json.Unmarshal(data, &entries))
	require.Len(t, entries, 2)
	assert.True(t, entries[0].Success)
	assert.Greater(t, entries[0].Scale, 0.0)
	assert.Equal(t, 1, entries[1].CellX)
	assert.NotEmpty(t, entries[1].Error)
}
