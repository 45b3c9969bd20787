package city

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"snowcity/internal/config"
	"snowcity/internal/scene"
	"snowcity/internal/scenery"
	"snowcity/internal/store"
)

// Archive reads stored layouts. *store.Store satisfies it.
type Archive interface {
	Get(ctx context.Context, id int64) (*store.Layout, error)
	Latest(ctx context.Context) (int64, error)
}

// ReplayConfig returns the config of an earlier run so that Generate
// rebuilds the same city. ref is "latest", a stored layout id, or the path
// of a scene.json written by that run. Stored runs need a non-nil archive.
//
// Machine-local settings (paths, workers, log level, DSN) always come from
// base. A scene.json only records the seed and the cloud set, so every
// other setting also comes from base.
func ReplayConfig(ctx context.Context, a Archive, ref string, base config.Config) (config.Config, error) {
	id, err := strconv.ParseInt(ref, 10, 64)
	if ref != "latest" && err != nil {
		doc, err := scene.Read(ref)
		if err != nil {
			return base, err
		}
		cfg := base
		cfg.Seed = doc.Seed
		cfg.Clouds = doc.Clouds.Set
		return cfg, nil
	}

	if a == nil {
		return base, fmt.Errorf("city: replaying layout %q needs a database: %w", ref, scenery.ErrInvalidConfiguration)
	}
	if ref == "latest" {
		if id, err = a.Latest(ctx); err != nil {
			return base, err
		}
	}
	l, err := a.Get(ctx, id)
	if err != nil {
		return base, err
	}

	cfg := config.Default()
	if err := json.Unmarshal(l.Config, &cfg); err != nil {
		return base, fmt.Errorf("city: decoding config of layout %d: %w", l.ID, err)
	}
	cfg.Seed = l.Seed
	cfg.BaseDir = base.BaseDir
	cfg.KitDir = base.KitDir
	cfg.TextureDir = base.TextureDir
	cfg.OutputDir = base.OutputDir
	cfg.Workers = base.Workers
	cfg.LogLevel = base.LogLevel
	cfg.DSN = base.DSN
	return cfg, nil
}
