package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"stock-data-service/src/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

func entries(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		out = append(out, entry)
	}
	return out
}

func TestLogger_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger("StockDataService", zap.NewAtomicLevelAt(zapcore.InfoLevel), "json", &buf)

	log.Debug("%s : hidden", "Engine")
	log.Info("%s : session %d opened", "Engine", 7)
	log.Critical("%s : listener lost", "GRPCService")

	got := entries(t, &buf)
	require.Len(t, got, 2)
	assert.Equal(t, "Engine : session 7 opened", got[0]["message"])
	assert.Equal(t, "info", got[0]["level"])
	assert.Equal(t, "StockDataService", got[0]["logger"])
	assert.Contains(t, got[0], "timestamp")

	assert.Equal(t, "error", got[1]["level"])
	assert.Equal(t, true, got[1]["critical"])
}

func TestLogger_SetLevelAppliesToChildren(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger("root", zap.NewAtomicLevelAt(zapcore.InfoLevel), "json", &buf)
	child := log.Named("FanInEngine")
	assert.Equal(t, "FanInEngine", child.Name)

	child.Debug("%s : dropped", child.Name)
	require.NoError(t, log.SetLevel("debug"))
	child.Debug("%s : kept", child.Name)

	got := entries(t, &buf)
	require.Len(t, got, 1)
	assert.Equal(t, "FanInEngine : kept", got[0]["message"])
	assert.Equal(t, "root", got[0]["logger"])

	assert.Error(t, log.SetLevel("loud"))
}

func TestLogger_ConsoleFormat(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger("svc", zap.NewAtomicLevelAt(zapcore.InfoLevel), "console", &buf)
	log.Warning("careful")

	assert.Contains(t, buf.String(), "WARN")
	assert.Contains(t, buf.String(), "careful")
}

func TestParseLevel(t *testing.T) {
	tests := map[string]zapcore.Level{
		"":         zapcore.InfoLevel,
		"info":     zapcore.InfoLevel,
		"DEBUG":    zapcore.DebugLevel,
		"warning":  zapcore.WarnLevel,
		"warn":     zapcore.WarnLevel,
		"error":    zapcore.ErrorLevel,
		"critical": zapcore.ErrorLevel,
	}
	for in, want := range tests {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLevel("verbose")
	assert.Error(t, err)
}

func TestOutputWriter(t *testing.T) {
	assert.Equal(t, os.Stdout, outputWriter("", 0, 0))
	assert.Equal(t, os.Stderr, outputWriter("stderr", 0, 0))

	path := filepath.Join(t.TempDir(), "service.log")
	w, ok := outputWriter(path, 7, 0).(*lumberjack.Logger)
	require.True(t, ok)
	assert.Equal(t, path, w.Filename)
	assert.Equal(t, 7, w.MaxAge)
	assert.Equal(t, 100, w.MaxSize)
}

func TestNewLogger_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "service.log")
	cfg := config.Default()
	cfg.Logger.Output = path
	cfg.Logger.Level = "warning"

	log := NewLogger(cfg, "StockDataService")
	log.Info("below level")
	log.Error("%s : failed", "HTTPServer")
	_ = log.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "below level")
	assert.Contains(t, string(data), "HTTPServer : failed")
}

func TestNopLogger(t *testing.T) {
	log := NewNopLogger()
	log.Info("nothing")
	log.Named("child").Critical("still nothing")
	assert.NoError(t, log.Sync())
}
