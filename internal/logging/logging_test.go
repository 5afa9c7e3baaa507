package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLoggerWithOutput_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithOutput("warn", &buf)

	logger.Info().Msg("hidden")
	assert.Zero(t, buf.Len(), "info must be filtered at warn level")

	logger.Warn().Msg("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestNewLoggerWithOutput_UnknownLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithOutput("verbose", &buf)

	logger.Debug().Msg("debug")
	logger.Info().Msg("info")
	assert.NotContains(t, buf.String(), `"debug"`)
	assert.Contains(t, buf.String(), `"info"`)
}

func TestComponent_AddsField(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithOutput("info", &buf).Component("yahoo")
	logger.Info().Msg("fetch")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "yahoo", entry["component"])
}

func TestNewSilentLogger_Discards(t *testing.T) {
	logger := NewSilentLogger()
	assert.NotPanics(t, func() { logger.Error().Msg("nothing") })
}
