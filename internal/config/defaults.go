package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultUserAgent identifies nexus to the sources and targets it queries.
const DefaultUserAgent = "nexus/1.0 (+https://vulnverified.com)"

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		UserAgent: DefaultUserAgent,
		Timeouts: TimeoutsConfig{
			Probe:        "500ms",
			Fetch:        "5s",
			Crtsh:        "60s",
			Hackertarget: "30s",
			OTX:          "15s",
		},
		Discovery: DiscoveryConfig{
			ExtraSources: []string{},
		},
		Server: ServerConfig{
			Listen: "127.0.0.1:5000",
		},
		Log: LogConfig{
			Level:      "info",
			Format:     "text",
			Output:     "stderr",
			FilePath:   "logs/nexus.log",
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     28,
		},
	}
}

// WriteDefault writes the default configuration as YAML to path. An existing
// file is left untouched unless force is set.
func WriteDefault(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file %s already exists", path)
		}
	}

	data, err := yaml.Marshal(Default())
	if err != nil {
		return fmt.Errorf("failed to marshal default config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
