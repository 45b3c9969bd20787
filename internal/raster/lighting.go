package raster

import (
	"fmt"
	"math"

	"snowcity/internal/mathutil"
	"snowcity/internal/scenery"
)

// LightConfig holds precomputed lighting parameters.
type LightConfig struct {
	LightDir  mathutil.Vec3
	RimDir    mathutil.Vec3
	SunColor  scenery.RGBA
	SkyColor  scenery.RGBA // background behind the scene
	Ambient   float64
	Hemi      float64
	Direct    float64
	Rim       float64
	Exposure  float64
	SRGBGamma float64
	InvGamma  float64
}

// Preset returns the lighting rig for a named sky preset ("sunset", "noon").
func Preset(name string) (LightConfig, error) {
	switch name {
	case "", "sunset":
		return newLight(mathutil.Vec3{-180, 90, 140}, scenery.RGBA{1.0, 0.78, 0.6, 1}, scenery.RGBA{0.93, 0.78, 0.74, 1}, 0.95), nil
	case "noon":
		return newLight(mathutil.Vec3{60, 300, 40}, scenery.RGBA{1, 1, 0.97, 1}, scenery.RGBA{0.78, 0.86, 0.95, 1}, 1.05), nil
	}
	return LightConfig{}, fmt.Errorf("raster: unknown light preset %q", name)
}

func newLight(dir mathutil.Vec3, sun, sky scenery.RGBA, exposure float64) LightConfig {
	return LightConfig{
		LightDir:  dir.Normalize(),
		RimDir:    mathutil.Vec3{-dir[0], dir[1] * 0.5, -dir[2]}.Normalize(),
		SunColor:  sun,
		SkyColor:  sky,
		Ambient:   0.35,
		Hemi:      0.40,
		Direct:    1.10,
		Rim:       0.25,
		Exposure:  exposure,
		SRGBGamma: 2.2,
		InvGamma:  1.0 / 2.2,
	}
}

// ComputeShade returns the combined lighting scalar for a world-space face normal.
func (lc *LightConfig) ComputeShade(normal mathutil.Vec3) float64 {
	ndl := normal.Dot(lc.LightDir)
	if ndl < 0 {
		ndl = 0
	}
	ndlRim := math.Abs(normal.Dot(lc.RimDir))

	// Hemisphere fill: up-facing surfaces get the full sky term.
	hemi := normal[1]*0.5 + 0.5
	return lc.Ambient + hemi*lc.Hemi + ndl*lc.Direct + ndlRim*lc.Rim
}

// Precomputed sRGB-to-linear lookup table (256 entries).
var srgbToLinear [256]float64

func init() {
	for i := 0; i < 256; i++ {
		srgbToLinear[i] = math.Pow(float64(i)/255.0, 2.2)
	}
}

// ACESTonemap applies ACES Filmic tone mapping to a linear value.
func ACESTonemap(x float64) float64 {
	return (x * (2.51*x + 0.03)) / (x*(2.43*x+0.59) + 0.14)
}
