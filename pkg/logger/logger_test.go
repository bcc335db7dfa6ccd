package logger

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestNewSetsLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"nonsense", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		New(Config{Level: tt.level})
		assert.Equal(t, tt.expected, zerolog.GlobalLevel(), "level %q", tt.level)
	}
}

func TestNewPrettyOutput(t *testing.T) {
	l := New(Config{Level: "info", Pretty: true})
	// Must be usable without panicking
	l.Info().Msg("logger configured")
}
