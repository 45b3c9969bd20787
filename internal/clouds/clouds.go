// Package clouds samples instance transforms for a drifting cloud field and
// keeps them in a reusable instance buffer.
package clouds

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"snowcity/internal/scenery"
)

// MaxInstances bounds the instance buffer regardless of the requested count.
const MaxInstances = 2000

// Range is a closed [Min, Max] interval. Min == Max is a constant.
type Range struct {
	Min float64 `json:"min" yaml:"min" toml:"min"`
	Max float64 `json:"max" yaml:"max" toml:"max"`
}

// Set configures one cloud field.
type Set struct {
	Count    int     `json:"count" yaml:"count" toml:"count"`
	AreaSize float64 `json:"area_size" yaml:"area_size" toml:"area_size"`
	Height   Range   `json:"height" yaml:"height" toml:"height"`
	Scale    Range   `json:"scale" yaml:"scale" toml:"scale"`
}

// Clamped returns the instance count actually produced: negative counts
// become 0 and counts above MaxInstances are truncated.
func (s Set) Clamped() int {
	switch {
	case s.Count < 0:
		return 0
	case s.Count > MaxInstances:
		return MaxInstances
	}
	return s.Count
}

// Transform is one cloud instance. RotationX and RotationZ are always zero.
type Transform struct {
	Position  mgl32.Vec3 `json:"position"`
	RotationY float32    `json:"rotation_y"`
	Scale     float32    `json:"scale"`
}

// Matrix returns T × Ry × S as a column-major float32 matrix.
func (t Transform) Matrix() mgl32.Mat4 {
	return mgl32.Translate3D(t.Position.X(), t.Position.Y(), t.Position.Z()).
		Mul4(mgl32.HomogRotate3DY(t.RotationY)).
		Mul4(mgl32.Scale3D(t.Scale, t.Scale, t.Scale))
}

// Populate samples every instance of s into buf, reusing its backing array
// when it is large enough, and returns the filled slice.
func Populate(s Set, rng scenery.Source, buf []Transform) []Transform {
	n := s.Clamped()
	if cap(buf) < n {
		buf = make([]Transform, n)
	}
	buf = buf[:n]

	half := s.AreaSize / 2
	for i := range buf {
		x := scenery.Uniform(rng, -half, half)
		y := scenery.Uniform(rng, s.Height.Min, s.Height.Max)
		z := scenery.Uniform(rng, -half, half)
		rot := scenery.Uniform(rng, 0, 2*math.Pi)
		sc := scenery.Uniform(rng, s.Scale.Min, s.Scale.Max)
		buf[i] = Transform{
			Position:  mgl32.Vec3{float32(x), float32(y), float32(z)},
			RotationY: float32(rot),
			Scale:     float32(sc),
		}
	}
	return buf
}
