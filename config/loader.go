package config

import (
	"fmt"
	"strings"
)

// LoadConfig loads configuration with priority: CLI flags > Config file > Defaults.
// args are the command's arguments without the program and command names;
// the positional arguments left after the flags are returned.
func LoadConfig(name string, args []string) (*Config, []string, error) {
	// 1. Start with defaults
	cfg := DefaultConfig()

	// 2. Check if -config flag was provided (quick scan to extract it)
	configPath := configFlag(args)

	// If no config flag, try to find config file in standard locations
	if configPath == "" {
		configPath = FindConfigFile()
	}

	// Load config file if found
	if configPath != "" {
		fileCfg, err := LoadConfigFile(configPath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		cfg = fileCfg
		cfg.Source = configPath
	}

	// 3. Merge CLI flags (highest priority, overwrites everything)
	rest, err := cfg.MergeFromFlags(name, args)
	if err != nil {
		return nil, nil, err
	}

	// Validate final configuration
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	return cfg, rest, nil
}

func configFlag(args []string) string {
	for i, arg := range args {
		switch {
		case arg == "--":
			return ""
		case arg == "-config" || arg == "--config":
			if i+1 < len(args) {
				return args[i+1]
			}
		case strings.HasPrefix(arg, "-config="):
			return strings.TrimPrefix(arg, "-config=")
		case strings.HasPrefix(arg, "--config="):
			return strings.TrimPrefix(arg, "--config=")
		}
	}
	return ""
}
