package fit

import (
	"snowcity/internal/layout"
	"snowcity/internal/mathutil"
	"snowcity/internal/model"
)

// Instance is one fitted, positioned copy of a source model. Its graph and
// any materials in Owned belong to this instance alone.
type Instance struct {
	Ref       string
	Graph     *model.Graph
	Fit       Transform
	Position  mathutil.Vec3
	RotationY float64
	Owned     []*model.Material
}

// Instantiate clones src, applies tinting copy-on-write and fits the clone
// to spec at the placement's position and yaw.
func Instantiate(src *model.Graph, p layout.Placement, spec Spec, tint Tint) (*Instance, error) {
	tr, err := Fit(src, spec)
	if err != nil {
		return nil, err
	}

	g := src.Clone()
	rw := newRewriter(tint)
	g.Walk(mathutil.Mat4Identity(), func(n *model.Node, _ mathutil.Mat4) {
		rw.node(n)
	})

	return &Instance{
		Ref:       p.ModelRef,
		Graph:     g,
		Fit:       tr,
		Position:  p.Position,
		RotationY: p.RotationY,
		Owned:     rw.owned,
	}, nil
}

// Placement returns T(position) × Ry(rotation), the group transform.
func (in *Instance) Placement() mathutil.Mat4 {
	return mathutil.FromMat3Translation(mathutil.RotY(in.RotationY), in.Position)
}

// World returns the full root transform: placement × fit.
func (in *Instance) World() mathutil.Mat4 {
	return mathutil.Mat4Mul(in.Placement(), in.Fit.Matrix())
}

// Bounds returns the world-space AABB of the fitted instance.
func (in *Instance) Bounds() mathutil.Box3 {
	return in.Graph.Bounds(in.World())
}
