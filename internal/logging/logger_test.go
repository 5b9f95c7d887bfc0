package logging

import (
	"bytes"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestInit_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "info", Format: "json", Output: &buf})
	defer Init(Config{})

	Info().Str("table", "SENSOR").Int("rows", 3).Msg("Table staged")
	Debug().Msg("hidden")

	out := buf.String()
	assert.Contains(t, out, `"table":"SENSOR"`)
	assert.Contains(t, out, `"rows":3`)
	assert.Contains(t, out, `"message":"Table staged"`)
	assert.NotContains(t, out, "hidden")
}

func TestWith_CarriesFields(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "debug", Output: &buf})
	defer Init(Config{})

	log := With().Str("run_id", "r1").Logger()
	log.Warn().Err(errors.New("boom")).Msg("failed")

	assert.Contains(t, buf.String(), `"run_id":"r1"`)
	assert.Contains(t, buf.String(), `"error":"boom"`)
	assert.Contains(t, buf.String(), `"level":"warn"`)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, parseLevel("DEBUG"))
	assert.Equal(t, zerolog.WarnLevel, parseLevel("warning"))
	assert.Equal(t, zerolog.TraceLevel, parseLevel("trace"))
	assert.Equal(t, zerolog.InfoLevel, parseLevel(""))
	assert.Equal(t, zerolog.InfoLevel, parseLevel("loud"))
	assert.Equal(t, zerolog.Disabled, parseLevel("disabled"))
}
