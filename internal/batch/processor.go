// Package batch loads and fits every placement of a layout in parallel.
package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"snowcity/internal/fit"
	"snowcity/internal/layout"
	"snowcity/internal/modelcache"
	"snowcity/internal/scene"
)

// Config holds all shared resources for a batch run.
type Config struct {
	Loader   modelcache.Loader
	Fit      fit.Spec
	Tint     fit.Tint
	Workers  int
	FailFast bool // stop scheduling after the first failure
}

// Result holds the outcome of one placement.
type Result struct {
	Index     int
	Placement layout.Placement
	Instance  *fit.Instance // nil on failure
	Success   bool
	Error     string
	Err       error
}

// Run loads, clones and fits every placement using a bounded worker pool.
// Results are in placement order. A failed placement never affects the
// others unless cfg.FailFast is set; the returned error is the first
// failure in that mode, or the context error when ctx ends early.
func Run(ctx context.Context, cfg Config, placements []layout.Placement) ([]Result, error) {
	if err := cfg.Fit.Validate(); err != nil {
		return nil, err
	}
	total := len(placements)
	results := make([]Result, total)
	var processed atomic.Int64

	start := time.Now()

	// Progress reporter
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(2 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				p := processed.Load()
				if p > 0 {
					rate := float64(p) / time.Since(start).Seconds()
					fmt.Printf("  [%d/%d] %.1f placements/sec\n", p, total, rate)
				}
			}
		}
	}()
	defer close(done)

	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	scheduled := 0
	for i := range placements {
		if gctx.Err() != nil {
			break
		}
		scheduled++
		g.Go(func() error {
			results[i] = processPlacement(gctx, cfg, i, placements[i])
			processed.Add(1)
			if cfg.FailFast && !results[i].Success {
				return results[i].Err
			}
			return nil
		})
	}
	err := g.Wait()

	for i := scheduled; i < total; i++ {
		cause := context.Cause(gctx)
		results[i] = failed(i, placements[i], fmt.Errorf("batch: not scheduled: %w", cause))
	}

	if err == nil {
		err = ctx.Err()
	}
	return results, err
}

func processPlacement(ctx context.Context, cfg Config, i int, p layout.Placement) Result {
	src, err := cfg.Loader.Load(ctx, p.ModelRef)
	if err != nil {
		slog.Warn("placement skipped", "ref", p.ModelRef, "cell_x", p.CellX, "cell_z", p.CellZ, "err", err)
		return failed(i, p, err)
	}

	in, err := fit.Instantiate(src, p, cfg.Fit, cfg.Tint)
	if err != nil {
		return failed(i, p, err)
	}
	return Result{Index: i, Placement: p, Instance: in, Success: true}
}

func failed(i int, p layout.Placement, err error) Result {
	return Result{Index: i, Placement: p, Error: err.Error(), Err: err}
}

// Instances returns the fitted instances of successful results, in order.
func Instances(results []Result) []*fit.Instance {
	var out []*fit.Instance
	for _, r := range results {
		if r.Success {
			out = append(out, r.Instance)
		}
	}
	return out
}

// Houses converts successful results into scene insertions.
func Houses(results []Result) []scene.House {
	var out []scene.House
	for _, r := range results {
		if r.Success {
			out = append(out, scene.HouseFromInstance(r.Instance))
		}
	}
	return out
}

// Failures counts results that did not produce an instance, and reports
// whether every failure was caused by cancellation.
func Failures(results []Result) (n int, canceled bool) {
	canceled = true
	for _, r := range results {
		if r.Success {
			continue
		}
		n++
		if !errors.Is(r.Err, context.Canceled) {
			canceled = false
		}
	}
	return n, n > 0 && canceled
}
