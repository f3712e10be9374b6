package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestLoggerUsableBeforeInitialize(t *testing.T) {
	require.NotNil(t, Logger)
	Logger.Infow("no-op", FieldDataset, "x")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"", zapcore.InfoLevel},
		{"debug", zapcore.DebugLevel},
		{"WARN", zapcore.WarnLevel},
		{" error ", zapcore.ErrorLevel},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestInitialize(t *testing.T) {
	prev := Logger
	t.Cleanup(func() { Logger = prev })

	require.NoError(t, Initialize("debug", false))
	assert.True(t, Logger.Desugar().Core().Enabled(zapcore.DebugLevel))

	require.NoError(t, Initialize("warn", true))
	assert.False(t, Logger.Desugar().Core().Enabled(zapcore.InfoLevel))

	assert.Error(t, Initialize("chatty", false))
}
