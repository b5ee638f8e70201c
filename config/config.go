// Package config - YAML configuration for the classifier server and viewer.
package config

import (
	"os"
	"time"

	"github.com/nvr-ai/wayang/inference"
	"github.com/nvr-ai/wayang/inference/providers"
	"github.com/nvr-ai/wayang/logger"
	"github.com/nvr-ai/wayang/models/model"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config is the root configuration.
type Config struct {
	Server  ServerConfig     `yaml:"server"`
	Models  ModelsConfig     `yaml:"models"`
	Runtime providers.Config `yaml:"runtime"`
	Live    LiveConfig       `yaml:"live"`
	Log     LogConfig        `yaml:"log"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Addr           string        `yaml:"addr"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	MaxUploadBytes int64         `yaml:"max_upload_bytes"`
}

// ModelsConfig configures where artifacts live and how they load.
type ModelsConfig struct {
	// Dir holds the wayang_*.onnx files.
	Dir string `yaml:"dir"`
	// Eager loads every model at startup and exits if one fails.
	Eager bool `yaml:"eager"`
	// Tensors pins tensor names per model identifier.
	Tensors map[model.Name]inference.TensorNames `yaml:"tensors"`
}

// LiveConfig configures live-frame sessions.
type LiveConfig struct {
	DefaultModel model.Name `yaml:"default_model"`
	JPEGQuality  int        `yaml:"jpeg_quality"`
	// Camera is the device index opened by the local viewer.
	Camera int `yaml:"camera"`
	// SessionIdleTimeout closes browser sessions that stop sending frames. Zero disables it.
	SessionIdleTimeout time.Duration `yaml:"session_idle_timeout"`
	// MaxSessions caps concurrent browser sessions. Zero means no cap.
	MaxSessions int `yaml:"max_sessions"`
}

// LogConfig configures the logger.
type LogConfig struct {
	Level string `yaml:"level"`
	Color bool   `yaml:"color"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:           ":7860",
			ReadTimeout:    30 * time.Second,
			WriteTimeout:   60 * time.Second,
			MaxUploadBytes: 10 << 20,
		},
		Models: ModelsConfig{
			Dir:   "models",
			Eager: true,
		},
		Runtime: providers.DefaultConfig(),
		Live: LiveConfig{
			DefaultModel:       model.DefaultName,
			JPEGQuality:        80,
			SessionIdleTimeout: 2 * time.Minute,
			MaxSessions:        64,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads a YAML file over the defaults.
//
// Arguments:
//   - path: The file to read. An empty path returns the defaults.
//
// Returns:
//   - *Config: The validated configuration.
//   - error: An error if the file cannot be read, parsed or validated.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, cfg.Validate()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading config %s", path)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "parsing config %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid config %s", path)
	}
	return cfg, nil
}

// Validate checks every section.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return errors.New("server.addr is required")
	}
	if c.Server.MaxUploadBytes <= 0 {
		return errors.New("server.max_upload_bytes must be positive")
	}
	if c.Models.Dir == "" {
		return errors.New("models.dir is required")
	}
	for name := range c.Models.Tensors {
		if _, err := model.Lookup(name); err != nil {
			return errors.Wrap(err, "models.tensors")
		}
	}
	if err := c.Runtime.Validate(); err != nil {
		return errors.Wrap(err, "runtime")
	}
	if _, err := model.Lookup(c.Live.DefaultModel); err != nil {
		return errors.Wrap(err, "live.default_model")
	}
	if c.Live.JPEGQuality < 1 || c.Live.JPEGQuality > 100 {
		return errors.Errorf("live.jpeg_quality must be within 1..100, got %d", c.Live.JPEGQuality)
	}
	if c.Live.SessionIdleTimeout < 0 {
		return errors.New("live.session_idle_timeout must not be negative")
	}
	if c.Live.MaxSessions < 0 {
		return errors.New("live.max_sessions must not be negative")
	}
	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		return errors.Wrap(err, "log.level")
	}
	return nil
}
