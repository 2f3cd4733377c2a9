package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	lg := New(&buf, WARN)

	lg.logf(INFO, "dropped %d", 1)
	assert.Empty(t, buf.String())

	lg.logf(ERROR, "kept %d", 2)
	assert.Contains(t, buf.String(), "[ERROR] kept 2")
}

func TestGlobalRetarget(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	SetLevel(DEBUG)
	defer func() {
		SetLevel(INFO)
	}()

	Debug("region %s", "a")
	assert.Contains(t, buf.String(), "[DEBUG] region a")
	assert.True(t, Enabled(INFO))
	assert.False(t, Enabled(TRACE))
}
