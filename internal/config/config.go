// Package config holds the process-wide TilingConfig: initialized once from
// a YAML file or Default(), then read by every worker for the remainder of
// a build — never mutated after the run begins.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LevelConfig is one entry of a SimplifySchedule: the C1 ratio and
// border-lock flag to apply at a given tree depth.
type LevelConfig struct {
	Ratio      float64 `yaml:"ratio"`
	LockBorder bool    `yaml:"lock_border"`
}

// TilingConfig is the configuration table governing one tiling run.
type TilingConfig struct {
	MaxDepth            int           `yaml:"max_depth"`
	MaxTrianglesPerTile int           `yaml:"max_triangles_per_tile"`
	MinTileSizeM        float64       `yaml:"min_tile_size_m"`
	SimplifySchedule    []LevelConfig `yaml:"simplify_schedule"`
	TextureFormat       string        `yaml:"texture_format"`
	TextureQuality      int           `yaml:"texture_quality"`
	TextureMaxSize      int           `yaml:"texture_max_size"`
	Threads             int           `yaml:"threads"`
}

// Default returns the reference configuration: depth 6, 100k leaf triangle
// threshold, an empty schedule (LevelForDepth falls back to the 1/2^depth
// halving rule), webp at quality 80, a 4096px atlas cap, and Threads 0.
func Default() TilingConfig {
	return TilingConfig{
		MaxDepth:            6,
		MaxTrianglesPerTile: 100_000,
		MinTileSizeM:        1.0,
		SimplifySchedule:    nil,
		TextureFormat:       "webp",
		TextureQuality:      80,
		TextureMaxSize:      4096,
		Threads:             0, // 0 means "use the host's logical core count", resolved by the caller
	}
}

// Load reads a TilingConfig from a YAML file at path, filling any zero-value
// field from Default() so a partial override file is valid.
func Load(path string) (TilingConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return TilingConfig{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return TilingConfig{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return TilingConfig{}, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects configurations outside the domain's valid bounds.
func (c TilingConfig) Validate() error {
	if c.MaxDepth < 1 {
		return fmt.Errorf("max_depth must be >= 1, got %d", c.MaxDepth)
	}
	if c.MaxTrianglesPerTile < 1 {
		return fmt.Errorf("max_triangles_per_tile must be > 0, got %d", c.MaxTrianglesPerTile)
	}
	if c.MinTileSizeM <= 0 {
		return fmt.Errorf("min_tile_size_m must be > 0, got %f", c.MinTileSizeM)
	}
	switch c.TextureFormat {
	case "webp", "ktx2", "png", "none":
	default:
		return fmt.Errorf("texture_format must be one of webp|ktx2|png|none, got %q", c.TextureFormat)
	}
	if c.TextureQuality < 0 || c.TextureQuality > 100 {
		return fmt.Errorf("texture_quality must be 0-100, got %d", c.TextureQuality)
	}
	if c.TextureMaxSize < 1 {
		return fmt.Errorf("texture_max_size must be > 0, got %d", c.TextureMaxSize)
	}
	return nil
}

// LevelForDepth resolves the (ratio, lock_border) pair for a given tree
// depth: the schedule is indexed directly, the last entry is held for any
// depth beyond its length (pad/truncate, never error), and an empty
// schedule falls back to the 1/2^depth reference halving rule, relaxed at
// depth>=3 to a fixed 0.5 ratio with border locking off.
func (c TilingConfig) LevelForDepth(depth int) LevelConfig {
	if len(c.SimplifySchedule) > 0 {
		idx := depth
		if idx >= len(c.SimplifySchedule) {
			idx = len(c.SimplifySchedule) - 1
		}
		return c.SimplifySchedule[idx]
	}
	if depth >= 3 {
		return LevelConfig{Ratio: 0.5, LockBorder: false}
	}
	ratio := 1.0
	for i := 0; i < depth; i++ {
		ratio /= 2
	}
	const leafRatio = 0.1
	if ratio < leafRatio {
		ratio = leafRatio
	}
	return LevelConfig{Ratio: ratio, LockBorder: true}
}
