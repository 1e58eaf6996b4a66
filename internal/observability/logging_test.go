package observability

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/spec-kit/clinic-records/internal/config"
)

func TestNewLoggerWritesJSONToOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clinic.log")
	logger, err := NewLogger(config.LoggerConfig{Level: "WARN", Output: path})
	require.NoError(t, err)

	logger.Info("dropped")
	logger.Warn("skipping malformed record")
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(data, &entry))
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "skipping malformed record", entry["message"])
	assert.Contains(t, entry, "ts")
}

func TestNewLoggerFallsBackToInfo(t *testing.T) {
	logger, err := NewLogger(config.LoggerConfig{Level: "chatty", Output: filepath.Join(t.TempDir(), "x.log")})
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.False(t, logger.Core().Enabled(zapcore.DebugLevel))
}
