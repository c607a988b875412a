package logging

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	cases := []struct {
		in   string
		want zapcore.Level
	}{
		{"", zapcore.InfoLevel},
		{"info", zapcore.InfoLevel},
		{"DEBUG", zapcore.DebugLevel},
		{"warn", zapcore.WarnLevel},
		{"warning", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
	}
	for _, c := range cases {
		got, err := ParseLevel(c.in)
		require.NoError(t, err, c.in)
		require.Equal(t, c.want, got, c.in)
	}

	_, err := ParseLevel("loud")
	require.Error(t, err)
}

func TestNewConsoleOnly(t *testing.T) {
	log, err := New(DefaultConfig())
	require.NoError(t, err)
	log.Info("console logger works")
}

func TestNewWithFileSink(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Format = "json"
	cfg.File = filepath.Join(t.TempDir(), "curved.log")

	log, err := New(cfg)
	require.NoError(t, err)
	log.Info("file logger works")
	require.NoError(t, log.Sync())

	require.FileExists(t, cfg.File)
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Format = "yaml"
	_, err := New(cfg)
	require.Error(t, err)
}
