// Package config loads ftclient.yaml.
//
// All values are optional and act as defaults for command flags.
// Flags always override config values.
package config

import (
	"fmt"
	"time"

	"github.com/pithecene-io/ftclient/types"
)

// Config represents an ftclient.yaml configuration file.
type Config struct {
	Server   string        `yaml:"server"`
	Port     int           `yaml:"port"`
	DataPort int           `yaml:"data_port"`
	Identity string        `yaml:"identity"`
	Dialect  string        `yaml:"dialect"`
	Timeout  Duration      `yaml:"timeout"`
	Dir      string        `yaml:"dir"`
	Format   string        `yaml:"format"`
	Archive  ArchiveConfig `yaml:"archive"`
	Notify   NotifyConfig  `yaml:"notify"`
}

// ArchiveConfig selects where received payloads are archived.
// An empty Backend disables archiving.
type ArchiveConfig struct {
	Backend     string `yaml:"backend"` // fs or s3
	Path        string `yaml:"path"`    // fs root, or bucket[/prefix] for s3
	Dataset     string `yaml:"dataset"`
	Region      string `yaml:"region"`
	Endpoint    string `yaml:"endpoint"`
	S3PathStyle bool   `yaml:"s3_path_style"`
}

// NotifyConfig selects the transfer notification adapter.
// An empty Type disables notifications.
type NotifyConfig struct {
	Type    string            `yaml:"type"` // webhook or redis
	URL     string            `yaml:"url"`
	Channel string            `yaml:"channel,omitempty"`
	Headers map[string]string `yaml:"headers,omitempty"`
	Timeout Duration          `yaml:"timeout,omitempty"`
	Retries *int              `yaml:"retries,omitempty"`
}

// Validate checks enumerated values. Presence checks happen once flags
// have been merged.
func (c *Config) Validate() error {
	if c.Dialect != "" {
		if _, err := types.ParseDialect(c.Dialect); err != nil {
			return err
		}
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("port must be in [0, 65535], got %d", c.Port)
	}
	if c.DataPort < 0 || c.DataPort > 65535 {
		return fmt.Errorf("data_port must be in [0, 65535], got %d", c.DataPort)
	}
	switch c.Archive.Backend {
	case "", "fs", "s3":
	default:
		return fmt.Errorf("archive.backend must be fs or s3, got %q", c.Archive.Backend)
	}
	switch c.Notify.Type {
	case "", "webhook", "redis":
	default:
		return fmt.Errorf("notify.type must be webhook or redis, got %q", c.Notify.Type)
	}
	if c.Notify.Retries != nil && *c.Notify.Retries < 0 {
		return fmt.Errorf("notify.retries must be >= 0, got %d", *c.Notify.Retries)
	}
	return nil
}

// Duration wraps time.Duration for YAML string parsing (e.g. "10s", "5m").
type Duration struct {
	time.Duration
}

// UnmarshalYAML parses a duration string like "10s" or "5m30s".
func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	if s == "" {
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	if parsed < 0 {
		return fmt.Errorf("duration %q must not be negative", s)
	}
	d.Duration = parsed
	return nil
}
