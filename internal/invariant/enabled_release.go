//go:build !canvasdebug

package invariant

// Enabled is false in release builds.
const Enabled = false
