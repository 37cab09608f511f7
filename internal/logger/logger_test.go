package logger

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCorrelationIDsAreAttached(t *testing.T) {
	var out bytes.Buffer
	log := New(&out, slog.LevelInfo)

	ctx := WithStep(WithRoute(WithSessionID(context.Background(), "s-1"), "map_1-1_1"), 3)
	log.InfoContext(ctx, "clicked")

	line := out.String()
	assert.Contains(t, line, "msg=clicked")
	assert.Contains(t, line, "session_id=s-1")
	assert.Contains(t, line, "route=map_1-1_1")
	assert.Contains(t, line, "step=3")
}

func TestCorrelationSurvivesWith(t *testing.T) {
	var out bytes.Buffer
	log := New(&out, slog.LevelInfo).With("component", "nav")

	log.InfoContext(WithSessionID(context.Background(), "s-2"), "pan")
	assert.Contains(t, out.String(), "component=nav")
	assert.Contains(t, out.String(), "session_id=s-2")
	assert.NotContains(t, out.String(), "route=")
}

func TestLevelFiltering(t *testing.T) {
	var out bytes.Buffer
	log := New(&out, ParseLevel("warn"))

	log.Info("hidden")
	log.Warn("shown")
	assert.NotContains(t, out.String(), "hidden")
	assert.Contains(t, out.String(), "shown")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel(" warning "))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}
