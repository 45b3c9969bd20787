// Package city runs one full generation: layout, model fitting, clouds,
// scene document, preview image and optional persistence.
package city

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"log/slog"
	"path/filepath"

	"snowcity/internal/batch"
	"snowcity/internal/camera"
	"snowcity/internal/clouds"
	"snowcity/internal/config"
	"snowcity/internal/layout"
	"snowcity/internal/mathutil"
	"snowcity/internal/model"
	"snowcity/internal/modelcache"
	"snowcity/internal/postprocess"
	"snowcity/internal/raster"
	"snowcity/internal/scene"
	"snowcity/internal/scenery"
	"snowcity/internal/store"
	"snowcity/internal/texture"
)

// Saver persists a generated layout. *store.Store satisfies it.
type Saver interface {
	Save(ctx context.Context, l *store.Layout) (int64, error)
}

// Generator holds the resources shared across runs. The cloud field
// survives between runs so an unchanged cloud set is not resampled.
// When the configured seed is zero, the seed picked on the first run is
// reused by later runs, so reloads keep the same town.
// A Generator is not safe for concurrent Generate calls.
type Generator struct {
	Loader   modelcache.Loader
	Textures texture.Resolver // optional
	Saver    Saver            // optional

	field    *clouds.Field
	autoSeed uint64
}

// Preloader is a Loader that can load a set of models up front.
// *modelcache.Cache satisfies it.
type Preloader interface {
	Preload(ctx context.Context, refs []string) error
}

// Output is the result of one run.
type Output struct {
	Seed     uint64
	Doc      *scene.Document
	Results  []batch.Result
	Preview  *image.NRGBA // nil when rendering is disabled
	LayoutID int64        // 0 when not stored
}

// Generate runs the pipeline for cfg. cfg must already be resolved.
// Per-placement load failures are reported in Output.Results, not as an
// error, unless cfg.FailFast is set.
func (g *Generator) Generate(ctx context.Context, cfg config.Config) (*Output, error) {
	refs, err := cfg.Refs()
	if err != nil {
		return nil, err
	}
	tint, err := cfg.Tint()
	if err != nil {
		return nil, err
	}
	light, err := raster.Preset(cfg.SkyPreset)
	if err != nil {
		return nil, fmt.Errorf("city: %w: %w", err, scenery.ErrInvalidConfiguration)
	}
	spec := cfg.FitSpec()
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	seed := g.seed(cfg.Seed)
	placements, err := layout.Generate(cfg.Grid, refs, scenery.Seeded(seed))
	if err != nil {
		return nil, err
	}
	slog.Info("layout generated", "seed", seed, "cols", cfg.Grid.Cols(), "placements", len(placements))

	// With fail_fast a broken model stops the run before any fitting.
	if p, ok := g.Loader.(Preloader); ok && cfg.FailFast {
		if err := p.Preload(ctx, usedRefs(placements)); err != nil {
			return nil, fmt.Errorf("city: preloading models: %w", err)
		}
	}

	results, err := batch.Run(ctx, batch.Config{
		Loader:   g.Loader,
		Fit:      spec,
		Tint:     tint,
		Workers:  cfg.Workers,
		FailFast: cfg.FailFast,
	}, placements)
	if err != nil {
		return nil, fmt.Errorf("city: fitting placements: %w", err)
	}

	if g.field == nil {
		g.field = clouds.NewField()
	}
	field := g.field
	// Clouds draw from their own stream so cloud edits leave the layout
	// untouched.
	if field.Update(cfg.Clouds, seed+1) {
		slog.Info("clouds rebuilt", "count", len(field.Instances()), "version", field.Version())
	}

	doc := &scene.Document{
		Seed: seed,
		Floor: scene.Floor{
			Size:          cfg.FloorSize,
			TileRepeat:    cfg.TileRepeat,
			ColorMap:      cfg.FloorColorMap,
			RoughnessMap:  cfg.FloorRoughnessMap,
			Roughness:     1,
			ReceiveShadow: true,
		},
		Sky: scene.Sky{Mode: "preset", Preset: cfg.SkyPreset, Blur: 0.6},
		Fog: scene.Fog{Color: light.SkyColor.Hex(), Near: cfg.FloorSize * 0.25, Far: cfg.FloorSize * 1.4},
		Camera: scene.OrbitCamera{
			Position: cfg.CameraPosition,
			FOV:      cfg.FOV,
		},
		Houses: batch.Houses(results),
	}
	doc.SetClouds(cfg.Clouds, field, cfg.CloudInstances)

	out := &Output{Seed: seed, Doc: doc, Results: results}

	if cfg.RenderSize > 0 {
		out.Preview = g.render(cfg, light, results, field)
	}

	if g.Saver != nil {
		stored := cfg
		stored.DSN = "" // credentials stay out of the table
		raw, err := json.Marshal(stored)
		if err != nil {
			return nil, fmt.Errorf("city: encoding config: %w", err)
		}
		out.LayoutID, err = g.Saver.Save(ctx, &store.Layout{Seed: seed, Config: raw, Placements: placements})
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (g *Generator) seed(configured uint64) uint64 {
	if configured != 0 {
		return configured
	}
	if g.autoSeed == 0 {
		_, g.autoSeed = scenery.NewSource(0)
	}
	return g.autoSeed
}

// usedRefs returns the distinct model refs of placements in first-use order.
func usedRefs(placements []layout.Placement) []string {
	seen := make(map[string]bool)
	var refs []string
	for _, p := range placements {
		if !seen[p.ModelRef] {
			seen[p.ModelRef] = true
			refs = append(refs, p.ModelRef)
		}
	}
	return refs
}

var cloudMesh = model.Box("cloud", mathutil.Vec3{-1, -0.35, -0.7}, mathutil.Vec3{1, 0.35, 0.7},
	&model.Material{Name: "cloud", Color: scenery.RGBA{0.72, 0.84, 0.97, 1}, Roughness: 1})

func (g *Generator) render(cfg config.Config, light raster.LightConfig, results []batch.Result, field *clouds.Field) *image.NRGBA {
	var floorTex *image.NRGBA
	if g.Textures != nil && cfg.FloorColorMap != "" {
		floorTex = g.Textures.Resolve(cfg.FloorColorMap)
	}

	// The reference camera at [5,5,5] sits inside the town; the preview
	// keeps its direction and backs off far enough to frame the floor.
	cam := camera.FromPosition(mathutil.Vec3(cfg.CameraPosition), mathutil.Vec3{})
	cam = cam.Zoom(cfg.FloorSize * 1.5 / cam.Radius)
	cam.FOV = cfg.FOV
	cam.Perspective = cfg.Perspective

	frame := &raster.Frame{
		Camera:     cam,
		Light:      light,
		FloorSize:  cfg.FloorSize,
		FloorTex:   floorTex,
		TileRepeat: cfg.TileRepeat,
		Houses:     batch.Instances(results),
		Clouds:     field.Instances(),
		CloudMesh:  cloudMesh,
	}
	img := raster.Render(frame, cfg.RenderSize, cfg.Supersample)
	return postprocess.Downsample(img, cfg.Supersample)
}

// Write stores scene.json, manifest.json and preview.webp under dir.
func (o *Output) Write(dir string) error {
	if err := o.Doc.Write(filepath.Join(dir, "scene.json")); err != nil {
		return err
	}
	if err := batch.WriteManifest(filepath.Join(dir, "manifest.json"), o.Results); err != nil {
		return err
	}
	if o.Preview != nil {
		if err := postprocess.WriteWebP(filepath.Join(dir, "preview.webp"), o.Preview); err != nil {
			return err
		}
	}
	return nil
}
