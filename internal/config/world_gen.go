package config

import "sync"

// WorldGenSettings holds demo terrain generation options
type WorldGenSettings struct {
	mu         sync.RWMutex
	seed       int64
	seaLevel   int
	baseHeight int
	amplitude  float64
}

var globalWorldGenSettings = &WorldGenSettings{
	seed:       1337,
	seaLevel:   63,
	baseHeight: 64,
	amplitude:  24,
}

// Seed returns the terrain seed
func Seed() int64 {
	globalWorldGenSettings.mu.RLock()
	defer globalWorldGenSettings.mu.RUnlock()
	return globalWorldGenSettings.seed
}

// SetSeed sets the terrain seed
func SetSeed(seed int64) {
	globalWorldGenSettings.mu.Lock()
	defer globalWorldGenSettings.mu.Unlock()
	globalWorldGenSettings.seed = seed
}

// SeaLevel returns the configured sea level
func SeaLevel() int {
	globalWorldGenSettings.mu.RLock()
	defer globalWorldGenSettings.mu.RUnlock()
	return globalWorldGenSettings.seaLevel
}

// TerrainShape returns base height and noise amplitude in blocks
func TerrainShape() (baseHeight int, amplitude float64) {
	globalWorldGenSettings.mu.RLock()
	defer globalWorldGenSettings.mu.RUnlock()
	return globalWorldGenSettings.baseHeight, globalWorldGenSettings.amplitude
}
