// Package config loads nexus settings from an optional YAML file and NEXUS_
// environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Config holds transport and ambient settings. Scoring rules and the port
// catalog are not configurable.
type Config struct {
	UserAgent string          `mapstructure:"user_agent" yaml:"user_agent"`
	Timeouts  TimeoutsConfig  `mapstructure:"timeouts" yaml:"timeouts"`
	Discovery DiscoveryConfig `mapstructure:"discovery" yaml:"discovery"`
	Server    ServerConfig    `mapstructure:"server" yaml:"server"`
	Log       LogConfig       `mapstructure:"log" yaml:"log"`
}

// TimeoutsConfig holds durations in time.ParseDuration syntax.
type TimeoutsConfig struct {
	Probe        string `mapstructure:"probe" yaml:"probe"`
	Fetch        string `mapstructure:"fetch" yaml:"fetch"`
	Crtsh        string `mapstructure:"crtsh" yaml:"crtsh"`
	Hackertarget string `mapstructure:"hackertarget" yaml:"hackertarget"`
	OTX          string `mapstructure:"otx" yaml:"otx"`
}

// DiscoveryConfig selects opt-in subdomain sources queried after crt.sh and
// HackerTarget, in the listed order.
type DiscoveryConfig struct {
	ExtraSources []string `mapstructure:"extra_sources" yaml:"extra_sources"`
}

// ServerConfig configures `nexus serve`.
type ServerConfig struct {
	Listen string `mapstructure:"listen" yaml:"listen"`
}

// LogConfig configures the logrus logger.
type LogConfig struct {
	Level      string `mapstructure:"level" yaml:"level"`
	Format     string `mapstructure:"format" yaml:"format"` // text or json
	Output     string `mapstructure:"output" yaml:"output"` // stderr, stdout or file
	FilePath   string `mapstructure:"file_path" yaml:"file_path"`
	MaxSize    int    `mapstructure:"max_size" yaml:"max_size"` // MB
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge     int    `mapstructure:"max_age" yaml:"max_age"` // days
	Compress   bool   `mapstructure:"compress" yaml:"compress"`
}

// Known opt-in discovery sources.
const (
	SourceOTX  = "otx"
	SourceAXFR = "axfr"
)

// Load reads configuration. With an explicit path the file must exist;
// otherwise nexus.yaml is looked up in the working directory and
// ~/.config/nexus/, and a missing file leaves the defaults in place.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("NEXUS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v, Default())

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("nexus")
		v.AddConfigPath(".")
		if homeDir, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(homeDir, ".config", "nexus"))
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.Discovery.ExtraSources = normalizeSources(cfg.Discovery.ExtraSources)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("user_agent", d.UserAgent)
	v.SetDefault("timeouts.probe", d.Timeouts.Probe)
	v.SetDefault("timeouts.fetch", d.Timeouts.Fetch)
	v.SetDefault("timeouts.crtsh", d.Timeouts.Crtsh)
	v.SetDefault("timeouts.hackertarget", d.Timeouts.Hackertarget)
	v.SetDefault("timeouts.otx", d.Timeouts.OTX)
	v.SetDefault("discovery.extra_sources", d.Discovery.ExtraSources)
	v.SetDefault("server.listen", d.Server.Listen)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("log.output", d.Log.Output)
	v.SetDefault("log.file_path", d.Log.FilePath)
	v.SetDefault("log.max_size", d.Log.MaxSize)
	v.SetDefault("log.max_backups", d.Log.MaxBackups)
	v.SetDefault("log.max_age", d.Log.MaxAge)
	v.SetDefault("log.compress", d.Log.Compress)
}

func normalizeSources(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Validate checks every field and reports all problems at once.
func (c *Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.UserAgent) == "" {
		errs = append(errs, errors.New("user_agent cannot be empty"))
	}

	for _, f := range c.Timeouts.fields() {
		if _, err := parseTimeout(f.value); err != nil {
			errs = append(errs, fmt.Errorf("timeouts.%s: %w", f.name, err))
		}
	}
	if d := c.Timeouts.ProbeTimeout(); d != 0 && (d < MinProbeTimeout || d > MaxProbeTimeout) {
		errs = append(errs, fmt.Errorf("timeouts.probe: must be between %s and %s, got %s",
			MinProbeTimeout, MaxProbeTimeout, d))
	}

	seen := make(map[string]bool)
	for _, src := range c.Discovery.ExtraSources {
		switch src {
		case SourceOTX, SourceAXFR:
		default:
			errs = append(errs, fmt.Errorf("discovery.extra_sources: unknown source %q", src))
		}
		if seen[src] {
			errs = append(errs, fmt.Errorf("discovery.extra_sources: %q listed twice", src))
		}
		seen[src] = true
	}

	if c.Server.Listen == "" {
		errs = append(errs, errors.New("server.listen cannot be empty"))
	}

	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format: unsupported format %q", c.Log.Format))
	}
	switch strings.ToLower(c.Log.Output) {
	case "stderr", "stdout":
	case "file":
		if c.Log.FilePath == "" {
			errs = append(errs, errors.New("log.file_path is required when log.output is file"))
		}
	default:
		errs = append(errs, fmt.Errorf("log.output: unsupported output %q", c.Log.Output))
	}

	return errors.Join(errs...)
}

// Per-probe connect timeouts outside this range are rejected.
const (
	MinProbeTimeout = 300 * time.Millisecond
	MaxProbeTimeout = 500 * time.Millisecond
)

type namedTimeout struct {
	name  string
	value string
}

func (t TimeoutsConfig) fields() []namedTimeout {
	return []namedTimeout{
		{"probe", t.Probe},
		{"fetch", t.Fetch},
		{"crtsh", t.Crtsh},
		{"hackertarget", t.Hackertarget},
		{"otx", t.OTX},
	}
}

func parseTimeout(s string) (time.Duration, error) {
	d, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("must be positive, got %s", s)
	}
	return d, nil
}

// The accessors return 0 for an unparsable value, which callers treat as
// "use the built-in default". Validate rejects such values up front.

func (t TimeoutsConfig) ProbeTimeout() time.Duration        { return durationOrZero(t.Probe) }
func (t TimeoutsConfig) FetchTimeout() time.Duration        { return durationOrZero(t.Fetch) }
func (t TimeoutsConfig) CrtshTimeout() time.Duration        { return durationOrZero(t.Crtsh) }
func (t TimeoutsConfig) HackertargetTimeout() time.Duration { return durationOrZero(t.Hackertarget) }
func (t TimeoutsConfig) OTXTimeout() time.Duration          { return durationOrZero(t.OTX) }

func durationOrZero(s string) time.Duration {
	d, err := parseTimeout(s)
	if err != nil {
		return 0
	}
	return d
}
