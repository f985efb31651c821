package logger

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoggerSourceLocation(t *testing.T) {
	tests := []struct {
		name          string
		logFunc       func(Logger)
		expectedInLog string
	}{
		{
			name:          "Info",
			logFunc:       func(l Logger) { l.Info("test message") },
			expectedInLog: "logger_test.go:",
		},
		{
			name:          "Debug",
			logFunc:       func(l Logger) { l.Debug("debug message") },
			expectedInLog: "logger_test.go:",
		},
		{
			name:          "Errorf",
			logFunc:       func(l Logger) { l.Errorf("error %v", "test") },
			expectedInLog: "logger_test.go:",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			l := NewLogger(WithDebug(), WithFormat("text"), WithWriter(&buf))
			tt.logFunc(l)
			require.Contains(t, buf.String(), tt.expectedInLog)
			require.NotContains(t, buf.String(), "internal/logger/logger.go")
		})
	}
}

func TestLoggerQuietSuppressesInfo(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(WithQuiet(), WithWriter(&buf))
	l.Info("should not appear")
	l.Warn("should appear")
	out := buf.String()
	require.NotContains(t, out, "should not appear")
	require.Contains(t, out, "should appear")
}

func TestLoggerWithContext(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(WithWriter(&buf))
	l.InfoContext(context.Background(), "ctx message")
	require.True(t, strings.Contains(buf.String(), "ctx message"))
}

func TestLoggerWith(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(WithWriter(&buf)).With("submit", "abc-123")
	l.Info("attached fields")
	require.Contains(t, buf.String(), "submit=abc-123")
}

func TestLoggerTeeFanout(t *testing.T) {
	var primary, secondary bytes.Buffer
	l := NewLogger(WithWriter(&primary), WithTee(&secondary))
	l.Info("fanned out")
	require.Contains(t, primary.String(), "fanned out")
	require.Contains(t, secondary.String(), "fanned out")
}
