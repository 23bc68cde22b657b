package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// OnError 批量转换时单个文件失败的处理方式
const (
	OnErrorAbort = "abort" // 停止整个批次
	OnErrorSkip  = "skip"  // 记录日志并继续
)

// Config 表示转换器配置文件
type Config struct {
	Description string       `yaml:"description" toml:"description"`
	OnError     string       `yaml:"on_error" toml:"on_error"`
	Workers     int          `yaml:"workers" toml:"workers"`
	Input       InputConfig  `yaml:"input" toml:"input"`
	Output      OutputConfig `yaml:"output" toml:"output"`
	Log         LogConfig    `yaml:"log" toml:"log"`
	Watch       WatchConfig  `yaml:"watch" toml:"watch"`
}

type InputConfig struct {
	Extensions []string `yaml:"extensions" toml:"extensions"` // 目录模式下处理的文件后缀
}

type OutputConfig struct {
	Format    string `yaml:"format" toml:"format"` // json 或 yaml
	Indent    int    `yaml:"indent" toml:"indent"`
	Extension string `yaml:"extension" toml:"extension"` // 为空时按格式推断
}

type LogConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
}

type WatchConfig struct {
	Debounce string `yaml:"debounce" toml:"debounce"` // 如 "200ms"
}

// DebounceInterval 解析 watch.debounce，Validate 之后不会出错
func (w WatchConfig) DebounceInterval() time.Duration {
	d, err := time.ParseDuration(w.Debounce)
	if err != nil {
		return 0
	}
	return d
}

// Default 返回默认配置
func Default() *Config {
	return &Config{
		OnError: OnErrorAbort,
		Workers: 4,
		Input: InputConfig{
			Extensions: []string{".conf"},
		},
		Output: OutputConfig{
			Format: "json",
			Indent: 2,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Watch: WatchConfig{
			Debounce: "200ms",
		},
	}
}

// LoadFromFile 从文件加载配置，按后缀选择 YAML 或 TOML
// 文件中未出现的字段保留默认值
func LoadFromFile(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	cfg := Default()
	switch ext := strings.ToLower(filepath.Ext(filePath)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("unmarshal yaml: %w", err)
		}
	case ".toml":
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("unmarshal toml: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config %s: %w", filePath, err)
	}
	return cfg, nil
}

// Validate 校验配置的合法性
func Validate(cfg *Config) error {
	switch cfg.OnError {
	case OnErrorAbort, OnErrorSkip:
	default:
		return fmt.Errorf("unknown on_error: %s", cfg.OnError)
	}

	if cfg.Workers < 1 {
		return fmt.Errorf("workers must be at least 1")
	}

	if len(cfg.Input.Extensions) == 0 {
		return fmt.Errorf("input.extensions is required")
	}
	for _, ext := range cfg.Input.Extensions {
		if !strings.HasPrefix(ext, ".") {
			return fmt.Errorf("input extension %q must start with '.'", ext)
		}
	}

	switch strings.ToLower(cfg.Output.Format) {
	case "json", "yaml", "yml":
	default:
		return fmt.Errorf("unknown output.format: %s", cfg.Output.Format)
	}
	if cfg.Output.Indent < 0 {
		return fmt.Errorf("output.indent must not be negative")
	}

	switch strings.ToLower(cfg.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("unknown log.level: %s", cfg.Log.Level)
	}
	switch strings.ToLower(cfg.Log.Format) {
	case "json", "text":
	default:
		return fmt.Errorf("unknown log.format: %s", cfg.Log.Format)
	}

	d, err := time.ParseDuration(cfg.Watch.Debounce)
	if err != nil {
		return fmt.Errorf("invalid watch.debounce: %w", err)
	}
	if d < 0 {
		return fmt.Errorf("watch.debounce must not be negative")
	}

	return nil
}

// OutputExtension 输出文件后缀
func (c *Config) OutputExtension() string {
	if c.Output.Extension != "" {
		return c.Output.Extension
	}
	if strings.EqualFold(c.Output.Format, "yaml") || strings.EqualFold(c.Output.Format, "yml") {
		return ".yaml"
	}
	return ".json"
}

// HasInputExtension 判断文件是否需要处理
func (c *Config) HasInputExtension(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, valid := range c.Input.Extensions {
		if ext == strings.ToLower(valid) {
			return true
		}
	}
	return false
}
