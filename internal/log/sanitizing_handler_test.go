package log

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

// TestSanitizingHandlerMasksSensitiveKeys tests key-based masking.
func TestSanitizingHandlerMasksSensitiveKeys(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"authorization header", "authorization", "Bearer abc123"},
		{"cookie header", "Cookie", "session=deadbeef"},
		{"password field", "password", "hunter2"},
		{"keyword substring", "basic_auth_user", "admin"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			logger := slog.New(NewSanitizingHandler(
				slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}),
			))

			logger.Info("request", tt.key, tt.value)

			out := buf.String()
			if strings.Contains(out, tt.value) {
				t.Errorf("sensitive value %q leaked into log output: %s", tt.value, out)
			}
			if !strings.Contains(out, MaskValue) {
				t.Errorf("expected mask value in output: %s", out)
			}
		})
	}
}

// TestSanitizingHandlerMasksSensitiveValues tests value-pattern masking.
func TestSanitizingHandlerMasksSensitiveValues(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(NewSanitizingHandler(
		slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}),
	))

	jwt := "eyJhbGciOiJIUzI1NiJ9.eyJzdWIiOiIxIn0.signature"
	logger.Info("response", "header_value", jwt)

	out := buf.String()
	if strings.Contains(out, jwt) {
		t.Errorf("JWT leaked into log output: %s", out)
	}
}

// TestSanitizingHandlerPassesBenignAttrs tests that ordinary attributes
// survive unmodified.
func TestSanitizingHandlerPassesBenignAttrs(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(NewSanitizingHandler(
		slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}),
	))

	logger.Info("page fetched", "url", "https://example.com/about", "status", 200, "cache_key", "abc")

	out := buf.String()
	for _, want := range []string{"https://example.com/about", "status=200", "cache_key=abc"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output: %s", want, out)
		}
	}
}

// TestNewLoggerLevel tests verbose level selection.
func TestNewLoggerLevel(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	quiet := NewLogger(&buf, false)
	quiet.Debug("hidden")
	quiet.Info("also hidden")
	if buf.Len() != 0 {
		t.Errorf("expected no output below warn level, got: %s", buf.String())
	}

	quiet.Warn("visible")
	if !strings.Contains(buf.String(), "visible") {
		t.Error("expected warn output")
	}

	buf.Reset()
	verbose := NewLogger(&buf, true)
	verbose.Debug("debug line")
	if !strings.Contains(buf.String(), "debug line") {
		t.Error("expected debug output in verbose mode")
	}
}
