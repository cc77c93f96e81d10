package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/phuslu/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, log.DebugLevel, ParseLevel("DEBUG"))
	assert.Equal(t, log.WarnLevel, ParseLevel("warning"))
	assert.Equal(t, log.ErrorLevel, ParseLevel("error"))
	assert.Equal(t, log.InfoLevel, ParseLevel("bogus"))
}

func TestSetupWriter_JSON(t *testing.T) {
	prev := log.DefaultLogger
	t.Cleanup(func() { log.DefaultLogger = prev })

	var buf bytes.Buffer
	SetupWriter("info", "json", &buf)
	log.Debug().Msg("hidden")
	log.Info().Str("symbol", "OXY").Msg("visible")

	var line map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line))
	assert.Equal(t, "visible", line["message"])
	assert.Equal(t, "OXY", line["symbol"])
}
