// Package config loads the viewer configuration from goifc.yaml and the environment.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/philipparndt/goifc/internal/models"
)

// DefaultFile is the configuration file looked up in the working directory
const DefaultFile = "goifc.yaml"

// Config holds all configuration for the viewers.
// Environment variables override YAML values.
type Config struct {
	// BasePath is prepended to model identifiers: a directory or an http(s) URL
	BasePath string `yaml:"base_path" env:"GOIFC_BASE_PATH" env-default:"."`

	// WasmPlugin selects the WASM loader when set
	WasmPlugin string `yaml:"wasm_plugin" env:"GOIFC_WASM_PLUGIN" env-default:""`

	LogLevel string `yaml:"log_level" env:"GOIFC_LOG_LEVEL" env-default:"info"`

	// Watch registers .ifc files that appear in BasePath while running
	Watch bool `yaml:"watch" env:"GOIFC_WATCH" env-default:"false"`

	// HideEdges disables the feature-edge outline
	HideEdges        bool    `yaml:"hide_edges" env:"GOIFC_HIDE_EDGES" env-default:"false"`
	EdgeThresholdDeg float64 `yaml:"edge_threshold_deg" env:"GOIFC_EDGE_THRESHOLD_DEG"`

	Window WindowConfig `yaml:"window"`

	// Models are registered at startup and activated together
	Models []ModelConfig `yaml:"models"`
}

// WindowConfig is the initial window size
type WindowConfig struct {
	Width  int `yaml:"width" env:"GOIFC_WINDOW_WIDTH"`
	Height int `yaml:"height" env:"GOIFC_WINDOW_HEIGHT"`
}

// ModelConfig binds a model file to a discipline
type ModelConfig struct {
	File string `yaml:"file"`
	// Discipline is architecture, structural, hvac or unknown; empty infers it from the file name
	Discipline string `yaml:"discipline"`
}

// defaults are set before reading so an explicit zero in the file or the
// environment is kept and rejected by validate
func defaults() *Config {
	return &Config{
		EdgeThresholdDeg: 30,
		Window:           WindowConfig{Width: 1280, Height: 800},
	}
}

// Load reads path if it exists, otherwise only the environment and defaults.
// An empty path means DefaultFile.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultFile
	}

	cfg := defaults()
	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
	} else if errors.Is(err, os.ErrNotExist) {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	} else {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.EdgeThresholdDeg <= 0 || c.EdgeThresholdDeg >= 180 {
		return fmt.Errorf("edge_threshold_deg must be between 0 and 180, got %g", c.EdgeThresholdDeg)
	}
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return fmt.Errorf("window size must be positive, got %dx%d", c.Window.Width, c.Window.Height)
	}
	for i, m := range c.Models {
		if m.File == "" {
			return fmt.Errorf("models[%d]: file is required", i)
		}
		if _, err := models.ParseDiscipline(m.Discipline); err != nil {
			return fmt.Errorf("models[%d]: %w", i, err)
		}
	}
	return nil
}

// ModelOptions returns the controller options
func (c *Config) ModelOptions() models.Options {
	return models.Options{Edges: !c.HideEdges, EdgeThreshold: c.EdgeThresholdDeg}
}

// Register adds the configured models followed by extra files to the controller.
// Configured disciplines were validated by Load.
func (c *Config) Register(controller *models.Controller, files ...string) {
	for _, m := range c.Models {
		if m.Discipline == "" {
			controller.Register(m.File, models.Unknown)
			continue
		}
		discipline, _ := models.ParseDiscipline(m.Discipline)
		controller.RegisterAs(m.File, discipline)
	}
	for _, f := range files {
		controller.Register(f, models.Unknown)
	}
}

// LocalBase returns the base path when it is a directory on this machine rather than a URL
func (c *Config) LocalBase() (string, bool) {
	u, err := url.Parse(c.BasePath)
	if err != nil || u.Scheme == "" {
		return c.BasePath, true
	}
	if u.Scheme == "file" {
		return u.Path, true
	}
	return "", false
}
