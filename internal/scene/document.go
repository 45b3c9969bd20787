// Package scene describes the insertions a rendering substrate needs to
// build the snow field city: floor, sky, camera, fitted houses and the
// cloud instance buffer.
package scene

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"snowcity/internal/clouds"
	"snowcity/internal/fit"
	"snowcity/internal/mathutil"
	"snowcity/internal/model"
)

// Document is the full scene handed to the renderer.
type Document struct {
	Seed   uint64      `json:"seed"`
	Floor  Floor       `json:"floor"`
	Sky    Sky         `json:"sky"`
	Fog    Fog         `json:"fog"`
	Camera OrbitCamera `json:"camera"`
	Houses []House     `json:"houses"`
	Clouds CloudBuffer `json:"clouds"`
}

// Floor is the textured ground plane, rotated to lie in XZ.
type Floor struct {
	Size          float64 `json:"size"`
	TileRepeat    int     `json:"tile_repeat"`
	ColorMap      string  `json:"color_map,omitempty"`
	RoughnessMap  string  `json:"roughness_map,omitempty"`
	Metalness     float64 `json:"metalness"`
	Roughness     float64 `json:"roughness"`
	ReceiveShadow bool    `json:"receive_shadow"`
}

// Sky selects environment lighting. Background is always off so fog shows.
type Sky struct {
	Mode   string  `json:"mode"` // "preset" or "custom"
	Preset string  `json:"preset,omitempty"`
	Files  string  `json:"files,omitempty"`
	Blur   float64 `json:"blur"`
}

// Fog is linear distance fog.
type Fog struct {
	Color string  `json:"color"`
	Near  float64 `json:"near"`
	Far   float64 `json:"far"`
}

// OrbitCamera is the initial orbit-controls state.
type OrbitCamera struct {
	Position [3]float64 `json:"position"`
	Target   [3]float64 `json:"target"`
	FOV      float64    `json:"fov"`
}

// House is one scene-graph insertion: a group at Position with RotationY,
// holding the model root translated by Offset then scaled by Scale.
type House struct {
	Model      string             `json:"model"`
	Position   [3]float64         `json:"position"`
	RotationY  float64            `json:"rotation_y"`
	Scale      float64            `json:"scale"`
	Offset     [3]float64         `json:"offset"`
	Degenerate bool               `json:"degenerate,omitempty"`
	Overrides  []MaterialOverride `json:"material_overrides,omitempty"`
	CastShadow bool               `json:"cast_shadow"`
}

// MaterialOverride replaces one material on this instance only.
type MaterialOverride struct {
	Material string `json:"material"`
	Color    string `json:"color"`
	Side     string `json:"side"`
}

// CloudBuffer is the flat instance-transform buffer for the cloud mesh.
type CloudBuffer struct {
	Count     int                `json:"count"`
	Set       clouds.Set         `json:"set"`
	Matrices  []float32          `json:"matrices"` // 16 floats per instance, column-major
	Instances []clouds.Transform `json:"instances,omitempty"`
}

// HouseFromInstance converts a fitted instance into an insertion.
func HouseFromInstance(in *fit.Instance) House {
	h := House{
		Model:      in.Ref,
		Position:   vec(in.Position),
		RotationY:  in.RotationY,
		Scale:      in.Fit.Scale,
		Offset:     vec(in.Fit.Offset),
		Degenerate: in.Fit.Degenerate,
		CastShadow: true,
	}
	for _, m := range in.Owned {
		h.Overrides = append(h.Overrides, override(m))
	}
	return h
}

func override(m *model.Material) MaterialOverride {
	return MaterialOverride{Material: m.Name, Color: m.Color.Hex(), Side: m.Side.String()}
}

func vec(v mathutil.Vec3) [3]float64 {
	return [3]float64{v[0], v[1], v[2]}
}

// SetClouds copies the field's current buffer into the document.
func (d *Document) SetClouds(s clouds.Set, f *clouds.Field, withInstances bool) {
	inst := f.Instances()
	d.Clouds = CloudBuffer{
		Count:    len(inst),
		Set:      s,
		Matrices: f.Flat(),
	}
	if withInstances {
		d.Clouds.Instances = inst
	}
}

// Write writes the document as indented JSON, creating parent directories.
func (d *Document) Write(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("scene: mkdir: %w", err)
	}
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return fmt.Errorf("scene: encode: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// Read loads a document written by Write.
func Read(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("scene: read %s: %w", path, err)
	}
	var d Document
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("scene: parse %s: %w", path, err)
	}
	return &d, nil
}
