// Package fit normalizes loaded models to a ground footprint: centered on
// X/Z, resting on y=0 and uniformly scaled to fit a target size.
package fit

import (
	"fmt"
	"log/slog"
	"math"

	"snowcity/internal/mathutil"
	"snowcity/internal/model"
	"snowcity/internal/scenery"
)

// DefaultMargin is the share of the footprint a model may occupy.
const DefaultMargin = 0.85

// Spec is the target a model is fitted to.
type Spec struct {
	Footprint float64 `json:"footprint"`
	Margin    float64 `json:"margin"` // in (0,1]
}

// Effective returns Footprint*Margin.
func (s Spec) Effective() float64 {
	return s.Footprint * s.Margin
}

// Validate rejects specs that cannot produce a positive scale.
func (s Spec) Validate() error {
	if math.IsNaN(s.Footprint) || math.IsInf(s.Footprint, 0) || s.Footprint <= 0 {
		return fmt.Errorf("fit: footprint %v must be positive: %w", s.Footprint, scenery.ErrInvalidConfiguration)
	}
	if math.IsNaN(s.Margin) || s.Margin <= 0 || s.Margin > 1 {
		return fmt.Errorf("fit: margin %v outside (0,1]: %w", s.Margin, scenery.ErrInvalidConfiguration)
	}
	return nil
}

// Transform recenters and scales a model. Offset is in the model's own
// (unscaled) units and is applied before Scale.
type Transform struct {
	Scale      float64       `json:"scale"`
	Offset     mathutil.Vec3 `json:"offset"`
	Degenerate bool          `json:"degenerate,omitempty"` // bounding box had no horizontal extent
}

// Matrix returns Scale × Translate(Offset).
func (t Transform) Matrix() mathutil.Mat4 {
	return mathutil.Mat4Mul(mathutil.ScaleUniform(t.Scale), mathutil.Translate(t.Offset))
}

// Fit computes the normalizing transform of g under spec.
// A zero or non-finite horizontal extent is not an error: the divisor falls
// back to 1 and the result is flagged Degenerate.
func Fit(g *model.Graph, spec Spec) (Transform, error) {
	if err := spec.Validate(); err != nil {
		return Transform{}, err
	}
	box := g.Bounds(mathutil.Mat4Identity())
	return fromBox(g.Name, box, spec), nil
}

func fromBox(name string, box mathutil.Box3, spec Spec) Transform {
	var t Transform
	if !box.IsEmpty() && box.Min.IsFinite() && box.Max.IsFinite() {
		c := box.Center()
		// Adding +0 turns -0 into 0 for a centered model.
		t.Offset = mathutil.Vec3{-c[0] + 0, -box.Min[1] + 0, -c[2] + 0}
	}

	size := box.Size()
	maxDim := math.Max(size[0], size[2])
	if maxDim == 0 || math.IsNaN(maxDim) || math.IsInf(maxDim, 0) {
		slog.Warn("degenerate model bounds", "model", name, "size", size)
		maxDim = 1
		t.Degenerate = true
	}
	t.Scale = spec.Effective() / maxDim
	return t
}
