package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProductionWritesJSONAtInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := New("production", &buf)

	logger.Debug().Msg("hidden")
	logger.Info().Str("donor", "0xabc").Msg("donation.accepted")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "donation.accepted", entry["message"])
	assert.Equal(t, "0xabc", entry["donor"])
	assert.NotContains(t, buf.String(), "hidden")
}

func TestNewDevelopmentUsesConsoleWriterAtDebug(t *testing.T) {
	var buf bytes.Buffer
	logger := New(EnvDevelopment, &buf)

	logger.Debug().Msg("visible")

	assert.Contains(t, buf.String(), "visible")
	assert.False(t, json.Valid(bytes.TrimSpace(buf.Bytes())))
}

func TestWithLevelOverridesDefault(t *testing.T) {
	var buf bytes.Buffer
	logger, err := WithLevel(New("production", &buf), "warn")
	require.NoError(t, err)

	logger.Info().Msg("quiet")
	logger.Warn().Msg("loud")

	assert.NotContains(t, buf.String(), "quiet")
	assert.Contains(t, buf.String(), "loud")

	_, err = WithLevel(logger, "chatty")
	assert.Error(t, err)
}
