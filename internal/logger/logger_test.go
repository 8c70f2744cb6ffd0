package logger

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew_FormatAutoDetection(t *testing.T) {
	tests := []struct {
		name        string
		environment string
		json        bool
	}{
		{"production uses json", "production", true},
		{"development uses pretty", "development", false},
		{"staging uses pretty", "staging", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			l := New(Config{Level: slog.LevelInfo, Environment: tt.environment, Writer: &buf})
			l.Info("import finished", "added", 3)

			if tt.json {
				assert.Contains(t, buf.String(), `"msg":"import finished"`)
				assert.Contains(t, buf.String(), `"added":3`)
			} else {
				assert.Contains(t, buf.String(), "import finished")
				assert.Contains(t, buf.String(), "added=3")
				assert.Contains(t, buf.String(), colorReset)
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{"Error", slog.LevelError},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.input))
		})
	}
}

func TestPrettyHandler_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelWarn, Format: formatPretty, Writer: &buf})

	l.Info("hidden")
	l.Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "WRN")
	assert.Contains(t, buf.String(), "shown")
}

func TestPrettyHandler_GroupsQualifyKeys(t *testing.T) {
	var buf bytes.Buffer
	h := NewPrettyHandler(&buf, nil)
	l := slog.New(h).WithGroup("import").With("user_id", "u1")

	l.Info("done", slog.Group("counts", "added", 2, "updated", 1))

	out := buf.String()
	assert.Contains(t, out, "user_id=u1")
	assert.Contains(t, out, "import.counts.added=2")
	assert.Contains(t, out, "import.counts.updated=1")
}

func TestPrettyHandler_WithAttrsDoesNotLeak(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(NewPrettyHandler(&buf, nil)).With("request_id", "r1")

	base.With("a", 1).Info("first")
	base.With("b", 2).Info("second")

	assert.NotContains(t, buf.String(), "second request_id=r1 a=1")
}

func TestContextRoundTrip(t *testing.T) {
	fallback := slog.New(slog.DiscardHandler)
	assert.Same(t, fallback, FromContext(context.Background(), fallback))

	l := slog.New(slog.DiscardHandler)
	ctx := NewContext(context.Background(), l)
	assert.Same(t, l, FromContext(ctx, fallback))
}
