package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	for _, tc := range []struct {
		name  string
		json  bool
		debug bool
	}{
		{"console info", false, false},
		{"json debug", true, true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			log, err := New(tc.json, tc.debug)
			require.NoError(t, err)
			require.NotNil(t, log)
			assert.Equal(t, tc.debug, log.Core().Enabled(-1))
		})
	}
}

func TestTruncateForLog(t *testing.T) {
	assert.Equal(t, "", TruncateForLog("anything", 0))
	assert.Equal(t, "short", TruncateForLog("  short  ", 10))
	assert.Equal(t, "abc...", TruncateForLog("abcdef", 3))
	assert.Equal(t, "héé...", TruncateForLog("héééé", 3))
}
