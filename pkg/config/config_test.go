package config

import (
	"os"
	"path/filepath"
	"testing"
)

// TestLoadConfigMissingFile verifies defaults are returned when no file exists
func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	def := DefaultConfig()
	if cfg.Augmentation.Probability != def.Augmentation.Probability {
		t.Errorf("Expected probability %v, got %v", def.Augmentation.Probability, cfg.Augmentation.Probability)
	}
	if cfg.Volume.Depth != def.Volume.Depth || cfg.Volume.Width != def.Volume.Width {
		t.Errorf("Expected default volume, got %+v", cfg.Volume)
	}
	if len(cfg.Augmentation.FlipAxes) != 1 || cfg.Augmentation.FlipAxes[0] != 2 {
		t.Errorf("Expected default flip axes [2], got %v", cfg.Augmentation.FlipAxes)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default config should be valid: %v", err)
	}
}

// TestLoadConfigMergesFileOverDefaults verifies partial files keep the other defaults
func TestLoadConfigMergesFileOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "medaugment.yaml")
	raw := []byte(`augmentation:
  probability: 0.8
  flip_axes: [0, 1]
volume:
  channels: 3
`)
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Augmentation.Probability != 0.8 {
		t.Errorf("Expected probability 0.8, got %v", cfg.Augmentation.Probability)
	}
	if len(cfg.Augmentation.FlipAxes) != 2 || cfg.Augmentation.FlipAxes[1] != 1 {
		t.Errorf("Expected flip axes [0 1], got %v", cfg.Augmentation.FlipAxes)
	}
	if cfg.Volume.Channels != 3 {
		t.Errorf("Expected 3 channels, got %d", cfg.Volume.Channels)
	}
	if cfg.Volume.Depth != DefaultConfig().Volume.Depth {
		t.Errorf("Expected default depth to survive, got %d", cfg.Volume.Depth)
	}
	if !cfg.Augmentation.Rescale.Enabled {
		t.Errorf("Expected rescale default to survive")
	}
}

// TestLoadConfigEnvOverride verifies environment variables win over the file
func TestLoadConfigEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "medaugment.yaml")
	if err := os.WriteFile(path, []byte("augmentation:\n  probability: 0.8\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("MEDAUGMENT__AUGMENTATION__PROBABILITY", "0.25")
	t.Setenv("MEDAUGMENT__LOGGING__LEVEL", "debug")
	t.Setenv("MEDAUGMENT__AUGMENTATION__RESCALE__OUT_MAX", "255")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Augmentation.Probability != 0.25 {
		t.Errorf("Expected env probability 0.25, got %v", cfg.Augmentation.Probability)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Expected env log level debug, got %q", cfg.Logging.Level)
	}
	if cfg.Augmentation.Rescale.OutMax != 255 {
		t.Errorf("Expected env rescale max 255, got %v", cfg.Augmentation.Rescale.OutMax)
	}
}

// TestLoadConfigInvalidYAML ensures parse errors are reported
func TestLoadConfigInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	if err := os.WriteFile(path, []byte("augmentation: [unterminated"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Fatalf("Expected parse error")
	}
}

// TestValidate covers each rejected value
func TestValidate(t *testing.T) {
	cases := map[string]func(*Config){
		"probability":   func(c *Config) { c.Augmentation.Probability = 1.5 },
		"interpolation": func(c *Config) { c.Augmentation.Interpolation = "bogus" },
		"flip axis":     func(c *Config) { c.Augmentation.FlipAxes = []int{3} },
		"rescale range": func(c *Config) { c.Augmentation.Rescale.OutMin = 2 },
		"volume":        func(c *Config) { c.Volume.Channels = 0 },
	}
	for name, mutate := range cases {
		cfg := DefaultConfig()
		mutate(cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: expected validation error", name)
		}
	}
}

// TestSaveAndLoadConfig verifies a saved configuration loads back unchanged
func TestSaveAndLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "medaugment.yaml")
	cfg := DefaultConfig()
	cfg.Augmentation.Seed = 7
	cfg.Output.PreviewDir = "previews"
	if err := SaveConfig(cfg, path); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if loaded.Augmentation.Seed != 7 || loaded.Output.PreviewDir != "previews" {
		t.Errorf("Saved values not loaded back: %+v", loaded)
	}

	if err := CreateDefaultConfigFile(filepath.Join(t.TempDir(), "default.yaml")); err != nil {
		t.Errorf("CreateDefaultConfigFile: %v", err)
	}
}
