package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "7.RU", cfg.Compiler.LabelPrefix)
	assert.Equal(t, 5.0, cfg.Compiler.MinMagnitude)
	assert.Equal(t, 0.1, cfg.Compiler.BinWidth)
	assert.Equal(t, "gr", cfg.Compiler.Strategy)
	assert.Equal(t, 1, cfg.Compiler.Workers)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := writeFile(t, `
server:
  port: 9090
compiler:
  strategy: empirical
  workers: 4
  fail_fast: true
fetch:
  timeout: 30s
logging:
  level: debug
`)
	t.Setenv("WORKER_COUNT", "8")
	t.Setenv("LOG_FORMAT", "text")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "empirical", cfg.Compiler.Strategy)
	assert.Equal(t, 8, cfg.Compiler.Workers, "env overrides file")
	assert.True(t, cfg.Compiler.FailFast)
	assert.Equal(t, 30*time.Second, cfg.Fetch.Timeout)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, 0.1, cfg.Compiler.BinWidth, "unset keys keep defaults")

	opts := cfg.Compiler.Options()
	assert.Equal(t, 8, opts.Workers)
	assert.True(t, opts.FailFast)
}

func TestLoad_MalformedEnvIgnored(t *testing.T) {
	t.Setenv("SERVER_PORT", "not-a-port")
	t.Setenv("BIN_WIDTH", "wide")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 0.1, cfg.Compiler.BinWidth)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"port", map[string]string{"SERVER_PORT": "70000"}},
		{"log level", map[string]string{"LOG_LEVEL": "verbose"}},
		{"log format", map[string]string{"LOG_FORMAT": "xml"}},
		{"strategy", map[string]string{"MFD_STRATEGY": "kernel"}},
		{"workers", map[string]string{"WORKER_COUNT": "0"}},
		{"bin width", map[string]string{"BIN_WIDTH": "-0.1"}},
		{"fetch timeout", map[string]string{"FETCH_TIMEOUT": "10ms"}},
		{"poll interval", map[string]string{"CATALOG_POLL_INTERVAL": "5s"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load("")
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_BadYAML(t *testing.T) {
	_, err := Load(writeFile(t, "server: [1, 2"))
	assert.Error(t, err)
}
