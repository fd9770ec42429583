package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/pptpdf/pkg/types"
)

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(types.LogConfig{Level: "warn", Format: "json"}, &buf)
	require.NoError(t, err)

	log.Info().Msg("hidden")
	log.Warn().Str("input", "a.pptx").Msg("shown")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)

	var ev map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &ev))
	assert.Equal(t, "warn", ev["level"])
	assert.Equal(t, "a.pptx", ev["input"])
	assert.Equal(t, "shown", ev["message"])
}

func TestNew_Console(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(types.LogConfig{}, &buf)
	require.NoError(t, err)

	log.Debug().Msg("too quiet")
	log.Info().Msg("batch started")
	assert.NotContains(t, buf.String(), "too quiet")
	assert.Contains(t, buf.String(), "batch started")
}

func TestNew_Errors(t *testing.T) {
	_, err := New(types.LogConfig{Format: "xml"}, nil)
	assert.ErrorContains(t, err, "unknown log format")

	_, err = New(types.LogConfig{Level: "loud"}, nil)
	assert.ErrorContains(t, err, "unknown log level")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"", zerolog.InfoLevel},
		{"debug", zerolog.DebugLevel},
		{"ERROR", zerolog.ErrorLevel},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
