package batch

import (
	"encoding/json"
	"fmt"
	"os"
)

// ManifestEntry represents one placement in the output manifest.
type ManifestEntry struct {
	Index     int        `json:"index"`
	Model     string     `json:"model"`
	CellX     int        `json:"cell_x"`
	CellZ     int        `json:"cell_z"`
	Position  [3]float64 `json:"position"`
	RotationY float64    `json:"rotation_y"`
	Scale     float64    `json:"scale,omitempty"`
	Success   bool       `json:"success"`
	Error     string     `json:"error,omitempty"`
}

// WriteManifest writes one entry per result to path.
func WriteManifest(path string, results []Result) error {
	entries := make([]ManifestEntry, len(results))
	for i, r := range results {
		p := r.Placement
		entries[i] = ManifestEntry{
			Index:     r.Index,
			Model:     p.ModelRef,
			CellX:     p.CellX,
			CellZ:     p.CellZ,
			Position:  [3]float64{p.Position[0], p.Position[1], p.Position[2]},
			RotationY: p.RotationY,
			Success:   r.Success,
			Error:     r.Error,
		}
		if r.Instance != nil {
			entries[i].Scale = r.Instance.Fit.Scale
		}
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("batch: manifest: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}
