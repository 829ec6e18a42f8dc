package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out), "log line should be JSON: %s", buf.String())
	return out
}

func TestNewWithWriter_StructuredJSON(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("info", &buf)

	log.Info().Str("merchant_id", "m-1").Str("change", "7.50").Msg("transaction started")

	out := decodeLine(t, &buf)
	assert.Equal(t, "transaction started", out["message"])
	assert.Equal(t, "m-1", out["merchant_id"])
	assert.Equal(t, "7.50", out["change"])
	assert.Equal(t, "info", out["level"])
	assert.Equal(t, ServiceName, out["service"])
	assert.Contains(t, out, "time")
}

func TestComponent(t *testing.T) {
	var buf bytes.Buffer
	log := Component(NewWithWriter("info", &buf), "disposition")

	log.Info().Msg("change disposed")

	out := decodeLine(t, &buf)
	assert.Equal(t, "disposition", out["component"])
	assert.Equal(t, ServiceName, out["service"])
}

func TestParseLevel(t *testing.T) {
	tests := map[string]zerolog.Level{
		"debug":    zerolog.DebugLevel,
		" INFO ":   zerolog.InfoLevel,
		"warn":     zerolog.WarnLevel,
		"warning":  zerolog.WarnLevel,
		"error":    zerolog.ErrorLevel,
		"trace":    zerolog.TraceLevel,
		"disabled": zerolog.Disabled,
		"":         zerolog.InfoLevel,
		"loud":     zerolog.InfoLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, parseLevel(in), "level %q", in)
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("warn", &buf)

	log.Info().Msg("payout listed")
	assert.Zero(t, buf.Len())

	log.Warn().Msg("event publish failed")
	assert.Equal(t, "warn", decodeLine(t, &buf)["level"])
}

func TestNew_PrettyMode(t *testing.T) {
	log := New("info", true)
	log.Info().Msg("pretty mode test")
}
