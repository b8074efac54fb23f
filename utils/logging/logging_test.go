package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJSONLogger(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.GlobalLevel())

	var buf bytes.Buffer
	log, err := NewWithWriter(&buf, Config{Level: "WARN", Format: FormatJSON}, "hub", "v1.0.0")
	require.NoError(t, err)

	log.Info().Msg("hidden")
	log.Warn().Str(KeyNodeName, "alpha").Msg("shown")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "shown", line["message"])
	assert.Equal(t, "hub", line["binary"])
	assert.Equal(t, "v1.0.0", line[KeyVersion])
	assert.Equal(t, "alpha", line[KeyNodeName])
	assert.Contains(t, line, "time")
}

func TestNewConsoleLogger(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.GlobalLevel())

	var buf bytes.Buffer
	log, err := NewWithWriter(&buf, Config{Level: "info", Format: FormatConsole}, "collector", "undefined")
	require.NoError(t, err)

	log.Info().Msg("started")
	assert.Contains(t, buf.String(), "started")
	assert.False(t, json.Valid(buf.Bytes()))
}

func TestInvalidLoggerConfig(t *testing.T) {
	_, err := NewWithWriter(&bytes.Buffer{}, Config{Level: "loud", Format: FormatJSON}, "hub", "")
	assert.Error(t, err)

	_, err = NewWithWriter(&bytes.Buffer{}, Config{Level: "info", Format: "xml"}, "hub", "")
	assert.Error(t, err)
}
