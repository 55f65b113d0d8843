package logging

import (
	"testing"

	"github.com/rs/zerolog"
)

func TestNewDefaultsToInfo(t *testing.T) {
	logger := New()
	if logger.GetLevel() != zerolog.InfoLevel {
		t.Fatalf("New() level = %v, want %v", logger.GetLevel(), zerolog.InfoLevel)
	}
}

func TestNewWithLevel(t *testing.T) {
	cases := []struct {
		input string
		want  zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"debug", zerolog.DebugLevel},
		{"DeBuG", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"  error  ", zerolog.ErrorLevel},
		{"\tfatal\n", zerolog.FatalLevel},
		{"panic", zerolog.PanicLevel},
		// unknown levels fall back to info
		{"", zerolog.InfoLevel},
		{"verbose", zerolog.InfoLevel},
		{"123", zerolog.InfoLevel},
	}

	for _, tc := range cases {
		t.Run(tc.input, func(t *testing.T) {
			logger := NewWithLevel(tc.input)
			if logger.GetLevel() != tc.want {
				t.Fatalf("NewWithLevel(%q) level = %v, want %v", tc.input, logger.GetLevel(), tc.want)
			}
		})
	}
}
