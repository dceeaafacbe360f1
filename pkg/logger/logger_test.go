package logger

import (
	"bytes"
	"context"
	"testing"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewInstallsLogger(t *testing.T) {
	prevGlobal, prevCtx := log.Logger, zerolog.DefaultContextLogger
	t.Cleanup(func() {
		log.Logger = prevGlobal
		zerolog.DefaultContextLogger = prevCtx
	})

	var buf bytes.Buffer
	l := New(Config{Level: "warn", Output: &buf})
	assert.Equal(t, zerolog.WarnLevel, l.GetLevel())

	log.Info().Msg("dropped")
	assert.Zero(t, buf.Len())

	log.Ctx(context.Background()).Warn().Str("k", "v").Msg("kept")
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "kept", entry["message"])
	assert.Equal(t, "v", entry["k"])
	assert.Equal(t, "warn", entry["level"])
}

func TestNewFallsBackToInfo(t *testing.T) {
	prevGlobal, prevCtx := log.Logger, zerolog.DefaultContextLogger
	t.Cleanup(func() {
		log.Logger = prevGlobal
		zerolog.DefaultContextLogger = prevCtx
	})

	l := New(Config{Level: "chatty", Output: &bytes.Buffer{}})
	assert.Equal(t, zerolog.InfoLevel, l.GetLevel())
}
