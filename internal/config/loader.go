package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config holds runtime parameters for the daemon.
// Zero values mean "unspecified" and are replaced by Normalized.
type Config struct {
	Addr       string `json:"addr" yaml:"addr" toml:"addr"`
	ModelDir   string `json:"model_dir" yaml:"model_dir" toml:"model_dir"`
	WhisperBin string `json:"whisper_bin" yaml:"whisper_bin" toml:"whisper_bin"`
	UploadDir  string `json:"upload_dir" yaml:"upload_dir" toml:"upload_dir"`
	OutputDir  string `json:"output_dir" yaml:"output_dir" toml:"output_dir"`

	DefaultModel   string `json:"default_model" yaml:"default_model" toml:"default_model"`
	DefaultDevices []int  `json:"default_devices" yaml:"default_devices" toml:"default_devices"`
	// Models overrides the built-in per-model footprint table (MiB).
	Models map[string]int `json:"models" yaml:"models" toml:"models"`
	// Margin multiplies a model footprint for the admission check.
	Margin float64 `json:"margin" yaml:"margin" toml:"margin"`

	MaxConcurrent    int `json:"max_concurrent" yaml:"max_concurrent" toml:"max_concurrent"`
	QueueDepth       int `json:"queue_depth" yaml:"queue_depth" toml:"queue_depth"`
	JobTimeoutSec    int `json:"job_timeout_sec" yaml:"job_timeout_sec" toml:"job_timeout_sec"`
	ShutdownGraceSec int `json:"shutdown_grace_sec" yaml:"shutdown_grace_sec" toml:"shutdown_grace_sec"`
	WatchIntervalSec int `json:"watch_interval_sec" yaml:"watch_interval_sec" toml:"watch_interval_sec"`
	WatermarkMB      int `json:"watermark_mb" yaml:"watermark_mb" toml:"watermark_mb"`

	Languages []string `json:"languages" yaml:"languages" toml:"languages"`
	Threads   int      `json:"threads" yaml:"threads" toml:"threads"`

	EnableCORS     bool     `json:"enable_cors" yaml:"enable_cors" toml:"enable_cors"`
	AllowedOrigins []string `json:"allowed_origins" yaml:"allowed_origins" toml:"allowed_origins"`
	LogLevel       string   `json:"log_level" yaml:"log_level" toml:"log_level"`
	MaxBodyMB      int      `json:"max_body_mb" yaml:"max_body_mb" toml:"max_body_mb"`

	// SubmitRate/SubmitBurst throttle POST /jobs per client; 0 disables.
	SubmitRate  float64 `json:"submit_rate" yaml:"submit_rate" toml:"submit_rate"`
	SubmitBurst int     `json:"submit_burst" yaml:"submit_burst" toml:"submit_burst"`
}

// Default returns the deployment defaults.
func Default() Config {
	return Config{
		Addr:             ":5000",
		UploadDir:        "uploads",
		OutputDir:        "outputs",
		DefaultModel:     "large-v3",
		DefaultDevices:   []int{0},
		Margin:           1.25,
		MaxConcurrent:    1,
		QueueDepth:       32,
		JobTimeoutSec:    3600,
		ShutdownGraceSec: 30,
		Languages:        []string{"auto", "zh", "en", "ja", "ko", "fr", "de", "es", "ru"},
		LogLevel:         "info",
		MaxBodyMB:        1,
	}
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return cfg, nil
}

// LoadOrDefault loads path when given and existing; an empty or absent path
// yields the defaults. A file that exists but fails to parse is still an
// error: a present config must never be silently ignored.
func LoadOrDefault(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Default(), nil
	}
	return Load(path)
}

// Normalized returns a copy of c with unset fields filled from Default and
// out-of-range values clamped.
func (c Config) Normalized() Config {
	d := Default()
	if c.Addr == "" {
		c.Addr = d.Addr
	}
	if c.UploadDir == "" {
		c.UploadDir = d.UploadDir
	}
	if c.OutputDir == "" {
		c.OutputDir = d.OutputDir
	}
	if c.DefaultModel == "" {
		c.DefaultModel = d.DefaultModel
	}
	if c.DefaultDevices == nil {
		c.DefaultDevices = append([]int(nil), d.DefaultDevices...)
	}
	if c.Margin <= 1.0 {
		c.Margin = d.Margin
	}
	// Concurrency beyond 4 starves device slots; the range matches the
	// worker pool the daemon supports.
	if c.MaxConcurrent < 1 {
		c.MaxConcurrent = d.MaxConcurrent
	}
	if c.MaxConcurrent > 4 {
		c.MaxConcurrent = 4
	}
	if c.QueueDepth < 1 {
		c.QueueDepth = d.QueueDepth
	}
	if c.JobTimeoutSec <= 0 {
		c.JobTimeoutSec = d.JobTimeoutSec
	}
	if c.ShutdownGraceSec <= 0 {
		c.ShutdownGraceSec = d.ShutdownGraceSec
	}
	if c.WatchIntervalSec < 0 {
		c.WatchIntervalSec = 0
	}
	if c.WatermarkMB < 0 {
		c.WatermarkMB = 0
	}
	if len(c.Languages) == 0 {
		c.Languages = append([]string(nil), d.Languages...)
	}
	if c.LogLevel == "" {
		c.LogLevel = d.LogLevel
	}
	if c.MaxBodyMB <= 0 {
		c.MaxBodyMB = d.MaxBodyMB
	}
	if c.SubmitBurst < 0 {
		c.SubmitBurst = 0
	}
	return c
}

// Validate rejects configurations Normalized cannot repair.
func (c Config) Validate() error {
	for name, mb := range c.Models {
		if mb <= 0 {
			return fmt.Errorf("model %s: footprint must be positive, got %d", name, mb)
		}
	}
	for _, id := range c.DefaultDevices {
		if id < 0 {
			return fmt.Errorf("default device id must be non-negative, got %d", id)
		}
	}
	return nil
}
