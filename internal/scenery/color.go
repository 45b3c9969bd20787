package scenery

import (
	"fmt"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// RGBA is a linear-agnostic color with components in [0,1], matching the
// GLTF baseColorFactor layout.
type RGBA [4]float64

// ParseHex parses "#RRGGBB" (or "#RGB") into an opaque color.
func ParseHex(s string) (RGBA, error) {
	c, err := colorful.Hex(s)
	if err != nil {
		return RGBA{}, fmt.Errorf("scenery: parse color %q: %w", s, err)
	}
	return RGBA{c.R, c.G, c.B, 1}, nil
}

// Hex formats the color as "#rrggbb", dropping alpha.
func (c RGBA) Hex() string {
	return colorful.Color{R: c[0], G: c[1], B: c[2]}.Clamped().Hex()
}

// Bytes returns 8-bit sRGB components.
func (c RGBA) Bytes() (r, g, b, a uint8) {
	cc := colorful.Color{R: c[0], G: c[1], B: c[2]}.Clamped()
	r, g, b = cc.RGB255()
	return r, g, b, uint8(clamp01(c[3])*255 + 0.5)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
