package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	t.Cleanup(func() { zap.ReplaceGlobals(zap.NewNop()) })

	tests := []struct {
		level, format string
		want          zapcore.Level
	}{
		{"debug", "json", zapcore.DebugLevel},
		{"", "console", zapcore.InfoLevel},
		{"warn", "", zapcore.WarnLevel},
	}
	for _, tc := range tests {
		logger, err := New(tc.level, tc.format)
		require.NoError(t, err)
		assert.True(t, logger.Core().Enabled(tc.want))
		assert.False(t, logger.Core().Enabled(tc.want-1))
		assert.Same(t, logger, zap.L(), "New installs the global logger")
	}
}

func TestNew_Invalid(t *testing.T) {
	_, err := New("loud", "json")
	assert.ErrorContains(t, err, "invalid log level")

	_, err = New("info", "xml")
	assert.ErrorContains(t, err, "invalid log format")
}
