package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"snowcity/internal/catalog"
	"snowcity/internal/clouds"
	"snowcity/internal/fit"
	"snowcity/internal/layout"
	"snowcity/internal/scenery"
)

// Config holds all configurable paths and generation settings.
type Config struct {
	// Paths
	BaseDir    string `json:"base_dir" yaml:"base_dir" toml:"base_dir"`
	KitDir     string `json:"kit_dir" yaml:"kit_dir" toml:"kit_dir"`
	TextureDir string `json:"texture_dir" yaml:"texture_dir" toml:"texture_dir"`
	OutputDir  string `json:"output_dir" yaml:"output_dir" toml:"output_dir"`

	// Layout
	Grid     layout.GridConfig `json:"grid" yaml:"grid" toml:"grid"`
	Category string            `json:"category" yaml:"category" toml:"category"` // catalog filter when Models is empty
	Models   []string          `json:"models,omitempty" yaml:"models,omitempty" toml:"models,omitempty"`

	// Fit
	Footprint    float64 `json:"footprint" yaml:"footprint" toml:"footprint"` // 0 means 0.9 × cell size
	Margin       float64 `json:"margin" yaml:"margin" toml:"margin"`
	TintCategory string  `json:"tint_category" yaml:"tint_category" toml:"tint_category"`
	RoofColor    string  `json:"roof_color" yaml:"roof_color" toml:"roof_color"`

	Clouds clouds.Set `json:"clouds" yaml:"clouds" toml:"clouds"`

	// CloudInstances also writes the per-cloud transforms to scene.json.
	CloudInstances bool `json:"cloud_instances" yaml:"cloud_instances" toml:"cloud_instances"`

	// Scene
	FloorSize         float64    `json:"floor_size" yaml:"floor_size" toml:"floor_size"`
	TileRepeat        int        `json:"tile_repeat" yaml:"tile_repeat" toml:"tile_repeat"`
	FloorColorMap     string     `json:"floor_color_map" yaml:"floor_color_map" toml:"floor_color_map"`
	FloorRoughnessMap string     `json:"floor_roughness_map" yaml:"floor_roughness_map" toml:"floor_roughness_map"`
	SkyPreset         string     `json:"sky_preset" yaml:"sky_preset" toml:"sky_preset"`
	CameraPosition    [3]float64 `json:"camera_position" yaml:"camera_position" toml:"camera_position"`
	FOV               float64    `json:"fov" yaml:"fov" toml:"fov"`
	Perspective       bool       `json:"perspective" yaml:"perspective" toml:"perspective"` // preview projection; orthographic otherwise

	// Preview
	RenderSize  int `json:"render_size" yaml:"render_size" toml:"render_size"`
	Supersample int `json:"supersample" yaml:"supersample" toml:"supersample"`

	// Run
	Seed     uint64 `json:"seed" yaml:"seed" toml:"seed"` // 0 picks a time-based seed
	Workers  int    `json:"workers" yaml:"workers" toml:"workers"`
	FailFast bool   `json:"fail_fast" yaml:"fail_fast" toml:"fail_fast"`
	LogLevel string `json:"log_level" yaml:"log_level" toml:"log_level"`
	DSN      string `json:"dsn" yaml:"dsn" toml:"dsn"`
}

// Default returns the settings of the reference snow field scene.
func Default() Config {
	return Config{
		Grid:              layout.GridConfig{AreaSize: 160, CellSize: 12, Density: 0.7},
		Category:          string(catalog.Houses),
		Margin:            fit.DefaultMargin,
		TintCategory:      "roof",
		RoofColor:         "#6E6A8E",
		Clouds:            clouds.Set{Count: 300, AreaSize: 160, Height: clouds.Range{Min: 18, Max: 30}, Scale: clouds.Range{Min: 2, Max: 5}},
		FloorSize:         160,
		TileRepeat:        8,
		FloorColorMap:     "snow_field_aerial_col_4k",
		FloorRoughnessMap: "snow_field_aerial_rough_4k",
		SkyPreset:         "sunset",
		CameraPosition:    [3]float64{5, 5, 5},
		FOV:               50,
		RenderSize:        512,
		Supersample:       2,
		LogLevel:          "info",
	}
}

// Load reads a config file over Default. The format follows the extension:
// .json, .yaml/.yml or .toml.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		err = json.Unmarshal(data, &cfg)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &cfg)
	case ".toml":
		err = toml.Unmarshal(data, &cfg)
	default:
		return cfg, fmt.Errorf("config: unsupported format %q: %w", ext, scenery.ErrInvalidConfiguration)
	}
	if err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// Flags holds CLI flag values that override config file settings.
type Flags struct {
	BaseDir     string
	KitDir      string
	OutputDir   string
	Seed        uint64
	Workers     int
	LogLevel    string
	DSN         string
	Perspective bool
}

// Resolve applies flag overrides, then fills derived and empty fields.
// CLI flags take priority when non-zero/non-empty.
func (c *Config) Resolve(flags Flags) {
	if flags.BaseDir != "" {
		c.BaseDir = flags.BaseDir
	}
	if flags.KitDir != "" {
		c.KitDir = flags.KitDir
	}
	if flags.OutputDir != "" {
		c.OutputDir = flags.OutputDir
	}
	if flags.Seed != 0 {
		c.Seed = flags.Seed
	}
	if flags.Workers > 0 {
		c.Workers = flags.Workers
	}
	if flags.LogLevel != "" {
		c.LogLevel = flags.LogLevel
	}
	if flags.DSN != "" {
		c.DSN = flags.DSN
	}
	if flags.Perspective {
		c.Perspective = true
	}

	if c.BaseDir == "" {
		c.BaseDir, _ = os.Getwd()
	}
	c.KitDir = under(c.BaseDir, c.KitDir, filepath.Join("public", "models", "kenney", "suburban"))
	c.TextureDir = under(c.BaseDir, c.TextureDir, filepath.Join("public", "textures"))
	c.OutputDir = under(c.BaseDir, c.OutputDir, "out")

	if c.Footprint <= 0 {
		c.Footprint = 0.9 * c.Grid.CellSize
	}
	if c.RenderSize <= 0 {
		c.RenderSize = 512
	}
	if c.Supersample <= 0 {
		c.Supersample = 1
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
}

// under resolves p against base, falling back to def when p is empty.
func under(base, p, def string) string {
	if p == "" {
		p = def
	}
	if filepath.IsAbs(p) || base == "" {
		return p
	}
	return filepath.Join(base, p)
}

// FitSpec returns the footprint every model is fitted to.
func (c *Config) FitSpec() fit.Spec {
	return fit.Spec{Footprint: c.Footprint, Margin: c.Margin}
}

// Tint returns the per-instance recolor rule.
func (c *Config) Tint() (fit.Tint, error) {
	if c.TintCategory == "" {
		return fit.Tint{}, nil
	}
	col, err := scenery.ParseHex(c.RoofColor)
	if err != nil {
		return fit.Tint{}, fmt.Errorf("config: roof color %q: %w: %w", c.RoofColor, scenery.ErrInvalidConfiguration, err)
	}
	return fit.Tint{Category: c.TintCategory, Color: col}, nil
}

// Refs returns the model references the layout picks from: the explicit
// Models list, or the kit filtered by Category.
func (c *Config) Refs() ([]string, error) {
	if len(c.Models) > 0 {
		return c.Models, nil
	}
	cat, err := catalog.ParseCategory(c.Category)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return catalog.Filter(catalog.KitURLs(), cat), nil
}

// Level maps LogLevel to a slog level; unknown names mean info.
func (c *Config) Level() slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return l
}
