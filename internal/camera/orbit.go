// Package camera holds the orbit camera used by the preview renderer.
package camera

import (
	"math"

	"snowcity/internal/mathutil"
)

// DefaultFOV is the vertical field of view in degrees.
const DefaultFOV = 50.0

// Orbit is an orbit-controls camera: it sits on a sphere around Target.
// Azimuth is measured from +Z toward +X, Elevation above the XZ plane.
type Orbit struct {
	Target      mathutil.Vec3
	Radius      float64
	Azimuth     float64 // radians
	Elevation   float64 // radians, clamped just short of the poles
	FOV         float64 // degrees; 0 means orthographic
	Perspective bool
}

// FromPosition builds an orbit camera looking from eye at target.
func FromPosition(eye, target mathutil.Vec3) Orbit {
	d := eye.Sub(target)
	r := d.Len()
	if r < 1e-9 {
		return Orbit{Target: target, Radius: 1, FOV: DefaultFOV}
	}
	return Orbit{
		Target:    target,
		Radius:    r,
		Azimuth:   math.Atan2(d[0], d[2]),
		Elevation: math.Asin(d[1] / r),
		FOV:       DefaultFOV,
	}
}

const maxElevation = math.Pi/2 - 1e-3

// Eye returns the camera position.
func (o Orbit) Eye() mathutil.Vec3 {
	el := math.Max(-maxElevation, math.Min(maxElevation, o.Elevation))
	ce := math.Cos(el)
	return o.Target.Add(mathutil.Vec3{
		o.Radius * ce * math.Sin(o.Azimuth),
		o.Radius * math.Sin(el),
		o.Radius * ce * math.Cos(o.Azimuth),
	})
}

// View returns the world-to-camera rotation. Rows are right, up and back:
// the camera looks down its -Z axis, so larger z is closer.
func (o Orbit) View() mathutil.Mat3 {
	back := o.Eye().Sub(o.Target).Normalize()
	right := mathutil.Vec3{0, 1, 0}.Cross(back).Normalize()
	up := back.Cross(right)
	return mathutil.Mat3Rows(right, up, back)
}

// Zoom scales the orbit radius, keeping it positive.
func (o Orbit) Zoom(factor float64) Orbit {
	if factor > 0 {
		o.Radius *= factor
	}
	return o
}
