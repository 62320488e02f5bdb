// Package config provides configuration loading and management for medaugment.
// It handles loading configuration from YAML files and environment variables
// and provides default values.
package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	koanfyaml "github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"gopkg.in/yaml.v3"

	"medaugment/pkg/interpolation"
)

// EnvPrefix prefixes environment overrides; "__" separates nesting levels,
// e.g. MEDAUGMENT__AUGMENTATION__PROBABILITY=0.5
const EnvPrefix = "MEDAUGMENT__"

// Config represents the application configuration loaded from YAML
type Config struct {
	// Augmentation parameters
	Augmentation struct {
		// Probability is the chance that each transform of the pipeline is applied
		Probability float64 `koanf:"probability" yaml:"probability"`

		// Seed makes skip decisions reproducible; 0 draws from the shared source
		Seed uint64 `koanf:"seed" yaml:"seed"`

		// Interpolation names the resampling strategy for spatial transforms
		Interpolation string `koanf:"interpolation" yaml:"interpolation"`

		// FlipAxes lists the spatial axes mirrored by the flip transform (0 = depth, 1 = height, 2 = width)
		FlipAxes []int `koanf:"flip_axes" yaml:"flip_axes"`

		// Rescale controls intensity rescaling
		Rescale struct {
			Enabled bool    `koanf:"enabled" yaml:"enabled"`
			OutMin  float64 `koanf:"out_min" yaml:"out_min"`
			OutMax  float64 `koanf:"out_max" yaml:"out_max"`
		} `koanf:"rescale" yaml:"rescale"`
	} `koanf:"augmentation" yaml:"augmentation"`

	// Volume describes the synthetic input volume
	Volume struct {
		Channels int `koanf:"channels" yaml:"channels"`
		Depth    int `koanf:"depth" yaml:"depth"`
		Height   int `koanf:"height" yaml:"height"`
		Width    int `koanf:"width" yaml:"width"`
	} `koanf:"volume" yaml:"volume"`

	// Output parameters
	Output struct {
		// PreviewDir is where JPEG previews of the transformed volume are written; empty disables previews
		PreviewDir string `koanf:"preview_dir" yaml:"preview_dir"`

		// Verbose controls the level of console output
		Verbose bool `koanf:"verbose" yaml:"verbose"`
	} `koanf:"output" yaml:"output"`

	// Logging parameters
	Logging struct {
		Level string `koanf:"level" yaml:"level"`
		JSON  bool   `koanf:"json" yaml:"json"`
	} `koanf:"logging" yaml:"logging"`

	// Metrics parameters
	Metrics struct {
		// Port serves /metrics when non-zero
		Port int `koanf:"port" yaml:"port"`
	} `koanf:"metrics" yaml:"metrics"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	// Set default augmentation parameters
	cfg.Augmentation.Probability = 0.5
	cfg.Augmentation.Interpolation = interpolation.Linear.String()
	cfg.Augmentation.FlipAxes = []int{2}
	cfg.Augmentation.Rescale.Enabled = true
	cfg.Augmentation.Rescale.OutMin = 0
	cfg.Augmentation.Rescale.OutMax = 1

	// Set default volume parameters
	cfg.Volume.Channels = 1
	cfg.Volume.Depth = 16
	cfg.Volume.Height = 32
	cfg.Volume.Width = 32

	// Set default output parameters
	cfg.Output.Verbose = true

	cfg.Logging.Level = "info"

	return cfg
}

// defaultsProvider feeds a Config to koanf as YAML so that file and
// environment values are merged over it key by key
type defaultsProvider struct {
	cfg *Config
}

func (p defaultsProvider) ReadBytes() ([]byte, error) {
	return yaml.Marshal(p.cfg)
}

func (p defaultsProvider) Read() (map[string]interface{}, error) {
	return nil, fmt.Errorf("defaults provider does not support Read")
}

// LoadConfig loads configuration from a YAML file and MEDAUGMENT__ environment variables.
// If the file doesn't exist, defaults overridden by the environment are returned.
func LoadConfig(configPath string) (*Config, error) {
	k := koanf.New(".")
	if err := k.Load(defaultsProvider{cfg: DefaultConfig()}, koanfyaml.Parser()); err != nil {
		return nil, fmt.Errorf("error loading defaults: %w", err)
	}

	// Read the config file if it exists
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			if err := k.Load(file.Provider(configPath), koanfyaml.Parser()); err != nil {
				return nil, fmt.Errorf("error parsing config file: %w", err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("error reading environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("error decoding config: %w", err)
	}
	return cfg, nil
}

// envKey maps MEDAUGMENT__AUGMENTATION__FLIP_AXES to augmentation.flip_axes
func envKey(s string) string {
	s = strings.TrimPrefix(s, EnvPrefix)
	return strings.ReplaceAll(strings.ToLower(s), "__", ".")
}

// Validate checks the configuration for values the pipeline cannot run with
func (c *Config) Validate() error {
	if p := c.Augmentation.Probability; math.IsNaN(p) || p < 0 || p > 1 {
		return fmt.Errorf("augmentation.probability must be in [0, 1], got %v", p)
	}
	if _, ok := interpolation.Lookup(c.Augmentation.Interpolation); !ok {
		return fmt.Errorf("augmentation.interpolation %q is not among the supported values: %v",
			c.Augmentation.Interpolation, interpolation.Names())
	}
	for _, a := range c.Augmentation.FlipAxes {
		if a < 0 || a > 2 {
			return fmt.Errorf("augmentation.flip_axes must contain 0, 1 or 2, got %d", a)
		}
	}
	if r := c.Augmentation.Rescale; r.Enabled && r.OutMin >= r.OutMax {
		return fmt.Errorf("augmentation.rescale range must be increasing, got [%g, %g]", r.OutMin, r.OutMax)
	}
	v := c.Volume
	if v.Channels <= 0 || v.Depth <= 0 || v.Height <= 0 || v.Width <= 0 {
		return fmt.Errorf("volume dimensions must be positive, got %dx%dx%dx%d", v.Channels, v.Depth, v.Height, v.Width)
	}
	return nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	return SaveConfig(DefaultConfig(), configPath)
}
