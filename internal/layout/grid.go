// Package layout scatters prefab models over a square grid of lots.
package layout

import (
	"fmt"
	"math"

	"snowcity/internal/mathutil"
	"snowcity/internal/scenery"
)

// JitterFraction is the maximum horizontal offset from a cell center,
// as a fraction of the cell size, on each axis.
const JitterFraction = 0.1

// Yaws are the only rotations a placement may take.
var Yaws = [4]float64{0, math.Pi / 2, math.Pi, 3 * math.Pi / 2}

// GridConfig describes the ground area and how densely it is built up.
type GridConfig struct {
	AreaSize float64 `json:"area_size" yaml:"area_size" toml:"area_size"`
	CellSize float64 `json:"cell_size" yaml:"cell_size" toml:"cell_size"`
	Density  float64 `json:"density" yaml:"density" toml:"density"` // per-cell occupancy probability
}

// Cols returns floor(AreaSize/CellSize).
func (c GridConfig) Cols() int {
	if c.CellSize <= 0 {
		return 0
	}
	return int(math.Floor(c.AreaSize / c.CellSize))
}

// Start returns the nominal center of cell index 0 on either axis.
func (c GridConfig) Start() float64 {
	return -c.AreaSize/2 + c.CellSize/2
}

// CellCenter returns the nominal (pre-jitter) center of cell (x, z).
func (c GridConfig) CellCenter(x, z int) mathutil.Vec3 {
	s := c.Start()
	return mathutil.Vec3{s + float64(x)*c.CellSize, 0, s + float64(z)*c.CellSize}
}

// Validate checks the grid before any placement work.
func (c GridConfig) Validate() error {
	switch {
	case !finite(c.AreaSize) || c.AreaSize <= 0:
		return fmt.Errorf("layout: area size %v must be positive: %w", c.AreaSize, scenery.ErrInvalidConfiguration)
	case !finite(c.CellSize) || c.CellSize <= 0:
		return fmt.Errorf("layout: cell size %v must be positive: %w", c.CellSize, scenery.ErrInvalidConfiguration)
	case c.Cols() < 1:
		return fmt.Errorf("layout: cell size %v larger than area %v: %w", c.CellSize, c.AreaSize, scenery.ErrInvalidConfiguration)
	case !finite(c.Density) || c.Density < 0 || c.Density > 1:
		return fmt.Errorf("layout: density %v outside [0,1]: %w", c.Density, scenery.ErrInvalidConfiguration)
	}
	return nil
}

// Placement is one occupied lot. Produced once, never mutated.
type Placement struct {
	ModelRef  string        `json:"model_ref"`
	Position  mathutil.Vec3 `json:"position"`
	RotationY float64       `json:"rotation_y"`

	CellX  int           `json:"cell_x"`
	CellZ  int           `json:"cell_z"`
	Center mathutil.Vec3 `json:"center"` // nominal cell center before jitter
}

// Generate walks the grid row by row and emits a placement for every cell
// whose draw falls within the density. Empty cells read as streets.
func Generate(cfg GridConfig, refs []string, rng scenery.Source) ([]Placement, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(refs) == 0 {
		return nil, fmt.Errorf("layout: no model references to place: %w", scenery.ErrInvalidConfiguration)
	}

	cols := cfg.Cols()
	jitter := cfg.CellSize * JitterFraction * 2
	var out []Placement

	for x := 0; x < cols; x++ {
		for z := 0; z < cols; z++ {
			if rng.Float64() > cfg.Density {
				continue
			}
			ref := refs[pick(rng, len(refs))]
			center := cfg.CellCenter(x, z)
			pos := mathutil.Vec3{
				center[0] + scenery.Spread(rng, jitter),
				0,
				center[2] + scenery.Spread(rng, jitter),
			}
			out = append(out, Placement{
				ModelRef:  ref,
				Position:  pos,
				RotationY: Yaws[pick(rng, len(Yaws))],
				CellX:     x,
				CellZ:     z,
				Center:    center,
			})
		}
	}
	return out, nil
}

// pick maps one draw to [0, n). The clamp guards sources that return 1.
func pick(rng scenery.Source, n int) int {
	i := int(rng.Float64() * float64(n))
	if i >= n {
		i = n - 1
	}
	return i
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
