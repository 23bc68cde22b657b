package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0644))
	return p
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, Validate(cfg))
	assert.Equal(t, OnErrorAbort, cfg.OnError)
	assert.Equal(t, ".json", cfg.OutputExtension())
	assert.Equal(t, 200*time.Millisecond, cfg.Watch.DebounceInterval())
}

func TestLoadFromFile_YAML(t *testing.T) {
	p := writeFile(t, "filterconv.yaml", `
description: "converted from logstash"
on_error: skip
workers: 2
input:
  extensions: [".conf", ".logstash"]
output:
  format: yaml
log:
  level: debug
`)
	cfg, err := LoadFromFile(p)
	require.NoError(t, err)

	assert.Equal(t, "converted from logstash", cfg.Description)
	assert.Equal(t, OnErrorSkip, cfg.OnError)
	assert.Equal(t, 2, cfg.Workers)
	assert.Equal(t, []string{".conf", ".logstash"}, cfg.Input.Extensions)
	assert.Equal(t, ".yaml", cfg.OutputExtension())
	assert.Equal(t, "debug", cfg.Log.Level)
	// 未设置的字段保留默认值
	assert.Equal(t, 2, cfg.Output.Indent)
	assert.Equal(t, "text", cfg.Log.Format)
}

func TestLoadFromFile_TOML(t *testing.T) {
	p := writeFile(t, "filterconv.toml", `
description = "toml config"
workers = 8

[output]
format = "json"
indent = 4
extension = ".ingest.json"

[watch]
debounce = "1s"
`)
	cfg, err := LoadFromFile(p)
	require.NoError(t, err)

	assert.Equal(t, "toml config", cfg.Description)
	assert.Equal(t, 8, cfg.Workers)
	assert.Equal(t, 4, cfg.Output.Indent)
	assert.Equal(t, ".ingest.json", cfg.OutputExtension())
	assert.Equal(t, time.Second, cfg.Watch.DebounceInterval())
}

func TestLoadFromFile_Errors(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = LoadFromFile(writeFile(t, "cfg.ini", "x=1"))
	assert.ErrorContains(t, err, "unsupported config format")

	_, err = LoadFromFile(writeFile(t, "bad.yaml", "workers: [1"))
	assert.ErrorContains(t, err, "unmarshal yaml")

	_, err = LoadFromFile(writeFile(t, "bad.toml", "workers = "))
	assert.ErrorContains(t, err, "unmarshal toml")

	_, err = LoadFromFile(writeFile(t, "invalid.yaml", "on_error: retry"))
	assert.ErrorContains(t, err, "unknown on_error")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"workers", func(c *Config) { c.Workers = 0 }, "workers"},
		{"no extensions", func(c *Config) { c.Input.Extensions = nil }, "input.extensions"},
		{"extension without dot", func(c *Config) { c.Input.Extensions = []string{"conf"} }, "must start with"},
		{"format", func(c *Config) { c.Output.Format = "xml" }, "output.format"},
		{"indent", func(c *Config) { c.Output.Indent = -1 }, "output.indent"},
		{"log level", func(c *Config) { c.Log.Level = "trace" }, "log.level"},
		{"log format", func(c *Config) { c.Log.Format = "console" }, "log.format"},
		{"debounce", func(c *Config) { c.Watch.Debounce = "soon" }, "watch.debounce"},
		{"negative debounce", func(c *Config) { c.Watch.Debounce = "-1s" }, "watch.debounce"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := Validate(cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestHasInputExtension(t *testing.T) {
	cfg := Default()
	assert.True(t, cfg.HasInputExtension("pipelines/apache.conf"))
	assert.True(t, cfg.HasInputExtension("APACHE.CONF"))
	assert.False(t, cfg.HasInputExtension("apache.json"))
}
