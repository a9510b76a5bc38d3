package logger

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	log := New("debug", "json")
	assert.Equal(t, zerolog.DebugLevel, log.GetLevel())

	log = New("nonsense", "console")
	assert.Equal(t, zerolog.InfoLevel, log.GetLevel())
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.WarnLevel, ParseLevel(" WARN "))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel(""))
	assert.Equal(t, zerolog.ErrorLevel, ParseLevel("error"))
}

func TestNewWithWriter(t *testing.T) {
	buf := &bytes.Buffer{}
	log := NewWithWriter(buf)

	log.Info().Str("vendor", "丸紅").Msg("test message")

	assert.Contains(t, buf.String(), "test message")
	assert.Contains(t, buf.String(), `"vendor":"丸紅"`)
}

func TestFromContext(t *testing.T) {
	buf := &bytes.Buffer{}
	ctx := WithContext(context.Background(), NewWithWriter(buf))

	l := FromContext(ctx)
	l.Info().Msg("test")

	assert.NotZero(t, buf.Len())
}

func TestFromContext_Default(t *testing.T) {
	l := FromContext(context.Background())
	assert.Equal(t, zerolog.Disabled, l.GetLevel())
}
