package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"snowcity/internal/batch"
	"snowcity/internal/catalog"
	"snowcity/internal/city"
	"snowcity/internal/config"
	"snowcity/internal/modelcache"
	"snowcity/internal/store"
	"snowcity/internal/texture"
	"snowcity/internal/watch"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// CLI flags
	configFile := flag.String("config", "", "Path to config file (.json, .yaml, .toml)")
	baseDir := flag.String("base", "", "Project base directory (default: cwd)")
	kitDir := flag.String("kit", "", "Directory holding the kit GLB models")
	outputDir := flag.String("output", "", "Output directory (default: out)")
	seed := flag.Uint64("seed", 0, "Layout seed (default: config or time-based)")
	workers := flag.Int("workers", 0, "Number of worker goroutines (default: NumCPU)")
	logLevel := flag.String("log-level", "", "debug, info, warn or error")
	dsn := flag.String("dsn", "", "PostgreSQL DSN to store layouts")
	watchCfg := flag.Bool("watch", false, "Regenerate whenever the config file changes")
	perspective := flag.Bool("perspective", false, "Render the preview with a perspective camera")
	replay := flag.String("replay", "", "Rebuild an earlier run: latest, a stored layout id, or a scene.json path")
	flag.Parse()

	load := func() (config.Config, error) {
		cfg := config.Default()
		if *configFile != "" {
			var err error
			if cfg, err = config.Load(*configFile); err != nil {
				return cfg, err
			}
		}
		// CLI flags override config file
		cfg.Resolve(config.Flags{
			BaseDir:     *baseDir,
			KitDir:      *kitDir,
			OutputDir:   *outputDir,
			Seed:        *seed,
			Workers:     *workers,
			LogLevel:    *logLevel,
			DSN:         *dsn,
			Perspective: *perspective,
		})
		return cfg, nil
	}

	cfg, err := load()
	if err != nil {
		return err
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.Level()})))

	kit := catalog.BuildIndex(cfg.KitDir)
	fmt.Printf("Models: %d indexed in %s\n", kit.Len(), cfg.KitDir)
	textures := texture.BuildIndex(cfg.TextureDir)
	fmt.Printf("Textures: %d indexed\n", textures.Len())

	gen := &city.Generator{
		Loader:   modelcache.NewCache(kit),
		Textures: texture.NewCache(textures),
	}

	var archive city.Archive
	if cfg.DSN != "" {
		if err := store.Migrate(ctx, cfg.DSN); err != nil {
			return err
		}
		st, err := store.Open(ctx, cfg.DSN)
		if err != nil {
			return err
		}
		defer st.Close()
		gen.Saver = st
		archive = st
	}

	if *replay != "" {
		if *watchCfg {
			return fmt.Errorf("-watch and -replay cannot be combined")
		}
		if cfg, err = city.ReplayConfig(ctx, archive, *replay, cfg); err != nil {
			return err
		}
		if *perspective {
			cfg.Perspective = true
		}
		// A replay rebuilds an existing run; storing it again would duplicate it.
		gen.Saver = nil
		fmt.Printf("Replaying %s (seed %d)\n", *replay, cfg.Seed)
	}

	if err := generate(ctx, gen, cfg); err != nil {
		return err
	}
	if !*watchCfg {
		return nil
	}
	if *configFile == "" {
		return fmt.Errorf("-watch needs -config")
	}

	fmt.Printf("Watching %s (Ctrl+C to stop)\n", *configFile)
	return watch.File(ctx, *configFile, watch.DefaultDebounce, func(ctx context.Context) error {
		cfg, err := load()
		if err != nil {
			return err
		}
		return generate(ctx, gen, cfg)
	})
}

func generate(ctx context.Context, gen *city.Generator, cfg config.Config) error {
	fmt.Printf("Grid: %.0f area, %.0f cells, density %.2f\n", cfg.Grid.AreaSize, cfg.Grid.CellSize, cfg.Grid.Density)
	fmt.Printf("Output: %s\n", cfg.OutputDir)
	fmt.Println("------------------------------------------------------------")

	start := time.Now()
	out, err := gen.Generate(ctx, cfg)
	if err != nil {
		return err
	}

	fmt.Println("------------------------------------------------------------")
	fmt.Printf("Done in %.1fs (seed %d)\n", time.Since(start).Seconds(), out.Seed)

	failed, _ := batch.Failures(out.Results)
	fmt.Printf("Houses: %d/%d, clouds: %d\n", len(out.Results)-failed, len(out.Results), out.Doc.Clouds.Count)

	if failed > 0 {
		fmt.Printf("\nFailed (%d):\n", failed)
		shown := 0
		for _, r := range out.Results {
			if r.Success {
				continue
			}
			if shown == 20 {
				break
			}
			fmt.Printf("  [%d,%d] %s: %s\n", r.Placement.CellX, r.Placement.CellZ, r.Placement.ModelRef, r.Error)
			shown++
		}
	}

	if err := out.Write(cfg.OutputDir); err != nil {
		return err
	}
	if out.LayoutID != 0 {
		fmt.Printf("Stored layout #%d\n", out.LayoutID)
	}
	fmt.Printf("Scene: %s\n", cfg.OutputDir)
	return nil
}
