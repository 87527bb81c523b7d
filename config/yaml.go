package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// LoadConfigFile loads configuration from a YAML file
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// FindConfigFile searches for config file in standard locations
// Returns empty string if not found (non-fatal)
func FindConfigFile() string {
	for _, path := range ConfigLocations() {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// ConfigLocations returns the config file search order.
func ConfigLocations() []string {
	home := UserConfigDir()
	return []string{
		"./videomusique.yaml",
		"./videomusique.yml",
		filepath.Join(home, "config.yaml"),
		filepath.Join(home, "config.yml"),
		"/etc/videomusique/config.yaml",
		"/etc/videomusique/config.yml",
	}
}

// UserConfigDir returns ~/.videomusique.
func UserConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = os.Getenv("HOME")
	}
	return filepath.Join(home, ".videomusique")
}

// SaveConfigFile saves configuration to a YAML file
func SaveConfigFile(cfg *Config, path string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// RememberDirectory stores dir as the last used directory and writes the
// config back to the file it was loaded from, or to ~/.videomusique/config.yaml.
func RememberDirectory(cfg *Config, dir string) error {
	if dir == "" || dir == cfg.LastDirectory {
		return nil
	}
	path := cfg.Source
	if path == "" {
		path = filepath.Join(UserConfigDir(), "config.yaml")
	}

	// Persist only what the file held plus the new directory, not CLI overrides.
	base := DefaultConfig()
	if cfg.Source != "" {
		fileCfg, err := LoadConfigFile(cfg.Source)
		if err != nil {
			return err
		}
		base = fileCfg
	}
	base.LastDirectory = dir
	if err := SaveConfigFile(base, path); err != nil {
		return err
	}

	cfg.LastDirectory = dir
	cfg.Source = path
	return nil
}
