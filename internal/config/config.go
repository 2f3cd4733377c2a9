package config

import "sync"

// RenderSettings holds render options that may change while frames are running.
type RenderSettings struct {
	mu               sync.RWMutex
	renderDistance   int // in regions
	ambientOcclusion bool
	lifecycleDebug   bool
}

var globalRenderSettings = &RenderSettings{
	renderDistance:   12,
	ambientOcclusion: true,
}

// RenderDistance returns the current render distance in regions
func RenderDistance() int {
	globalRenderSettings.mu.RLock()
	defer globalRenderSettings.mu.RUnlock()
	return globalRenderSettings.renderDistance
}

// SetRenderDistance sets the render distance in regions. Values are clamped
// to [2, MaxRenderDistance].
func SetRenderDistance(distance int) {
	globalRenderSettings.mu.Lock()
	defer globalRenderSettings.mu.Unlock()

	if distance < 2 {
		distance = 2
	}
	if distance > MaxRenderDistance {
		distance = MaxRenderDistance
	}

	globalRenderSettings.renderDistance = distance
}

// AmbientOcclusionEnabled reports whether AO weights are encoded. When false
// every encoder writes fully lit (255) AO bytes.
func AmbientOcclusionEnabled() bool {
	globalRenderSettings.mu.RLock()
	defer globalRenderSettings.mu.RUnlock()
	return globalRenderSettings.ambientOcclusion
}

// SetAmbientOcclusion toggles AO encoding.
func SetAmbientOcclusion(enabled bool) {
	globalRenderSettings.mu.Lock()
	defer globalRenderSettings.mu.Unlock()
	globalRenderSettings.ambientOcclusion = enabled
}

// LifecycleDebug reports whether render context create/close events are logged.
func LifecycleDebug() bool {
	globalRenderSettings.mu.RLock()
	defer globalRenderSettings.mu.RUnlock()
	return globalRenderSettings.lifecycleDebug
}

// SetLifecycleDebug toggles lifecycle logging.
func SetLifecycleDebug(enabled bool) {
	globalRenderSettings.mu.Lock()
	defer globalRenderSettings.mu.Unlock()
	globalRenderSettings.lifecycleDebug = enabled
}
