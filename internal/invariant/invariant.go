// Package invariant checks programmer contracts. Checks are compiled in with
// -tags canvasdebug and cost nothing otherwise.
package invariant

import "fmt"

// Check panics with the formatted message when Enabled and ok is false.
func Check(ok bool, format string, args ...any) {
	if Enabled && !ok {
		panic(fmt.Sprintf(format, args...))
	}
}
