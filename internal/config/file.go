package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	// RegionSize is the edge length of a render region in blocks.
	RegionSize = 16

	// DefaultMaxLoadedChunkRadius is 32 regions plus 2 of padding.
	DefaultMaxLoadedChunkRadius = 34

	// MaxRenderDistance keeps the render distance inside the padded radius.
	MaxRenderDistance = DefaultMaxLoadedChunkRadius - 2
)

// Config is the root of the YAML configuration file.
type Config struct {
	World  WorldConfig  `yaml:"world"`
	Render RenderConfig `yaml:"render"`
	Gen    GenConfig    `yaml:"gen"`
}

// WorldConfig fixes array capacities for the whole session.
type WorldConfig struct {
	BottomY              int `yaml:"bottom_y"`
	Height               int `yaml:"height"`
	MaxLoadedChunkRadius int `yaml:"max_loaded_chunk_radius"`
}

// RenderConfig selects encoders, culling policy and worker counts.
type RenderConfig struct {
	RenderDistance   int  `yaml:"render_distance"`
	AmbientOcclusion bool `yaml:"ambient_occlusion"`
	VertexFetch      bool `yaml:"vertex_fetch"`
	AdvancedCulling  bool `yaml:"advanced_culling"`
	LifecycleDebug   bool `yaml:"lifecycle_debug"`
	MeshWorkers      int  `yaml:"mesh_workers"`
	MeshQueue        int  `yaml:"mesh_queue"`
}

// GenConfig drives the demo terrain generator.
type GenConfig struct {
	Seed       int64   `yaml:"seed"`
	SeaLevel   int     `yaml:"sea_level"`
	BaseHeight int     `yaml:"base_height"`
	Amplitude  float64 `yaml:"amplitude"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		World: WorldConfig{
			BottomY:              -64,
			Height:               384,
			MaxLoadedChunkRadius: DefaultMaxLoadedChunkRadius,
		},
		Render: RenderConfig{
			RenderDistance:   12,
			AmbientOcclusion: true,
			MeshWorkers:      4,
			MeshQueue:        256,
		},
		Gen: GenConfig{
			Seed:       1337,
			SeaLevel:   63,
			BaseHeight: 64,
			Amplitude:  24,
		},
	}
}

// Load reads a YAML file over the defaults. An empty path falls back to the
// CANVAS_CONFIG environment variable, and to pure defaults when that is unset.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("CANVAS_CONFIG")
		if path == "" {
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks the world shape and that the render distance fits inside
// the loaded radius.
func (c Config) Validate() error {
	if err := c.World.Validate(); err != nil {
		return err
	}
	if limit := c.World.MaxRenderDistance(); c.Render.RenderDistance > limit {
		return fmt.Errorf("render distance %d exceeds max loaded chunk radius %d less 2 regions of padding",
			c.Render.RenderDistance, c.World.MaxLoadedChunkRadius)
	}
	return nil
}

// Validate rejects world shapes the region indexer cannot address.
func (w WorldConfig) Validate() error {
	if w.Height <= 0 || w.Height%RegionSize != 0 {
		return fmt.Errorf("world height %d must be a positive multiple of %d", w.Height, RegionSize)
	}
	if w.BottomY%RegionSize != 0 {
		return fmt.Errorf("world bottom %d must be region aligned", w.BottomY)
	}
	if w.MaxLoadedChunkRadius < 1 {
		return fmt.Errorf("max loaded chunk radius %d must be positive", w.MaxLoadedChunkRadius)
	}
	return nil
}

// MaxRenderDistance is the largest render distance the loaded radius can
// hold with its 2 regions of padding. It is never below 1.
func (w WorldConfig) MaxRenderDistance() int {
	return max(1, w.MaxLoadedChunkRadius-2)
}

// TopY is one past the highest block coordinate.
func (w WorldConfig) TopY() int {
	return w.BottomY + w.Height
}

// Apply pushes the file values into the runtime settings.
func (c Config) Apply() {
	SetRenderDistance(c.Render.RenderDistance)
	SetAmbientOcclusion(c.Render.AmbientOcclusion)
	SetLifecycleDebug(c.Render.LifecycleDebug)

	globalWorldGenSettings.mu.Lock()
	globalWorldGenSettings.seed = c.Gen.Seed
	globalWorldGenSettings.seaLevel = c.Gen.SeaLevel
	globalWorldGenSettings.baseHeight = c.Gen.BaseHeight
	globalWorldGenSettings.amplitude = c.Gen.Amplitude
	globalWorldGenSettings.mu.Unlock()
}
