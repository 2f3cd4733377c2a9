//go:build canvasdebug

package invariant

// Enabled is true in debug builds.
const Enabled = true
