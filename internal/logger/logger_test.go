package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected log.Level
	}{
		{"debug", log.DebugLevel},
		{"INFO", log.InfoLevel},
		{"warn", log.WarnLevel},
		{"error", log.ErrorLevel},
		{"fatal", log.FatalLevel},
		{"verbose", log.InfoLevel},
		{"", log.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseLevel(tt.input))
		})
	}
}

func TestConfigure_EnvFallback(t *testing.T) {
	t.Setenv("HOSTKIT_LOG_LEVEL", "debug")
	require.NoError(t, Configure("", "", false))
	assert.Equal(t, log.DebugLevel, Logger.GetLevel())

	require.NoError(t, Configure("error", "", false))
	assert.Equal(t, log.ErrorLevel, Logger.GetLevel())

	require.NoError(t, Configure("debug", "", true))
	assert.Equal(t, log.InfoLevel, Logger.GetLevel())
}

func TestConfigure_LogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hostkit.log")
	require.NoError(t, Configure("info", path, false))
	Info("written to file", "component", "test")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "written to file")

	SetOutput(os.Stderr)
}

func TestConfigure_BadLogFile(t *testing.T) {
	err := Configure("info", filepath.Join(t.TempDir(), "missing", "dir", "x.log"), false)
	assert.Error(t, err)
}

func TestWrapperFailure(t *testing.T) {
	assert.Equal(t, "[Error] File.Exists: permission denied", WrapperFailure("File.Exists", "permission denied"))
}

func TestNewStyledLogger_UsesOutput(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stderr)

	l := NewStyledLogger("Registry")
	l.Info("hello", "capability", "hash")
	assert.Contains(t, buf.String(), "Registry")
	assert.Contains(t, buf.String(), "hello")
}
