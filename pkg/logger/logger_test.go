package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLogrusLevel(t *testing.T) {
	tests := []struct {
		level string
		want  logrus.Level
	}{
		{level: "debug", want: logrus.DebugLevel},
		{level: "INFO", want: logrus.InfoLevel},
		{level: "Warn", want: logrus.WarnLevel},
		{level: "error", want: logrus.ErrorLevel},
		{level: "fatal", want: logrus.FatalLevel},
		{level: "", want: logrus.InfoLevel},
		{level: "verbose", want: logrus.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLogrusLevel(tt.level))
		})
	}
}

func TestNew_WritesToOutputFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "txdeadline.log")

	log, err := New(Config{Level: "debug", OutputFile: out})
	require.NoError(t, err)

	log.WithField("remaining", 2).Debug("reconciled statement timeout")

	content, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(content), "reconciled statement timeout")
	assert.Contains(t, string(content), "remaining=2")
}

func TestNew_InvalidOutputFile(t *testing.T) {
	_, err := New(Config{OutputFile: filepath.Join(t.TempDir(), "missing", "out.log")})
	assert.Error(t, err)
}
