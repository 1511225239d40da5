// Package config loads host configuration for the RouteCraft demo daemon.
// Programmatic RouteDefinition construction never needs this package — it
// exists for the cmd/routecraftd CLI, the same way internal/config-style
// packages exist only for a daemon, not for embedding the engine as a
// library.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// RouteCraftConfig is the root configuration document, mapped from the
// `routecraft:` YAML/JSON key the same nested-root-key pattern other
// capture-agent-style daemons use (internal/config/config.go).
type RouteCraftConfig struct {
	Log     LogConfig     `mapstructure:"log"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Direct  DirectConfig  `mapstructure:"direct"`
	Routes  []RouteSpec   `mapstructure:"routes"`
}

// LogConfig mirrors a conventional internal/log configuration shape.
type LogConfig struct {
	Level   string         `mapstructure:"level"`
	Format  string         `mapstructure:"format"`
	Outputs []OutputConfig `mapstructure:"outputs"`
}

// OutputConfig configures one logging sink (console/file/loki).
type OutputConfig struct {
	Type          string            `mapstructure:"type"`
	Path          string            `mapstructure:"path"`
	MaxSizeMB     int               `mapstructure:"max_size_mb"`
	MaxBackups    int               `mapstructure:"max_backups"`
	MaxAgeDays    int               `mapstructure:"max_age_days"`
	Compress      bool              `mapstructure:"compress"`
	Endpoint      string            `mapstructure:"endpoint"`
	Labels        map[string]string `mapstructure:"labels"`
	BatchSize     int               `mapstructure:"batch_size"`
	FlushInterval time.Duration     `mapstructure:"flush_interval"`
}

// MetricsConfig configures the prometheus listener.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Listen  string `mapstructure:"listen"`
	Path    string `mapstructure:"path"`
}

// DirectConfig holds settings for the in-process channel adapter. It is
// loaded and defaulted, but nothing reads DefaultQueueSize: the direct
// adapter hands each send straight to the subscriber and has no queue.
type DirectConfig struct {
	DefaultQueueSize int `mapstructure:"default_queue_size"`
}

// RouteSpec declares one route for the demo daemon to assemble by resolving
// named adapters (B's "7-phase assembly).
type RouteSpec struct {
	ID       string           `mapstructure:"id"`
	Source   AdapterSpec      `mapstructure:"source"`
	Steps    []StepSpec       `mapstructure:"steps"`
	Consumer ConsumerSpecYAML `mapstructure:"consumer"`
}

// AdapterSpec names an adapter factory and its options, resolved against an
// adapter registry (cmd/routecraftd's adapterRegistry) at assembly time.
type AdapterSpec struct {
	Name    string         `mapstructure:"name"`
	Options map[string]any `mapstructure:"options"`
}

// StepSpec declares one step's kind and adapter.
type StepSpec struct {
	Kind    string         `mapstructure:"kind"`
	Adapter AdapterSpec    `mapstructure:"adapter"`
	Key     string         `mapstructure:"key"` // header step only
}

// ConsumerSpecYAML declares the consumer kind/options for a route.
type ConsumerSpecYAML struct {
	Kind        string `mapstructure:"kind"` // "simple" | "batch"
	BatchSize   int    `mapstructure:"batch_size"`
	BatchTimeMs int    `mapstructure:"batch_time_ms"`
}

type configRoot struct {
	RouteCraft RouteCraftConfig `mapstructure:"routecraft"`
}

// Load reads path (YAML or JSON, detected by extension) via viper, applies
// defaults, and validates. Environment variables override with the
// ROUTECRAFT_ prefix, dots replaced by underscores — follows the conventional
// internal/config.Load.
func Load(path string) (*RouteCraftConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	var root configRoot
	if err := v.Unmarshal(&root); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg := root.RouteCraft

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("routecraft.log.level", "info")
	v.SetDefault("routecraft.log.format", "json")
	v.SetDefault("routecraft.metrics.enabled", true)
	v.SetDefault("routecraft.metrics.listen", ":9477")
	v.SetDefault("routecraft.metrics.path", "/metrics")
	v.SetDefault("routecraft.direct.default_queue_size", 256)
}

// Validate checks structural invariants the way
// GlobalConfig/TaskConfig.Validate() does — fail fast on a malformed
// config rather than at first use.
func (c *RouteCraftConfig) Validate() error {
	seen := make(map[string]bool, len(c.Routes))
	for _, r := range c.Routes {
		if r.ID == "" {
			return fmt.Errorf("route missing id")
		}
		if seen[r.ID] {
			return fmt.Errorf("duplicate route id %q in config", r.ID)
		}
		seen[r.ID] = true
		if r.Source.Name == "" {
			return fmt.Errorf("route %q missing source adapter name", r.ID)
		}
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "json", "text":
	default:
		return fmt.Errorf("unsupported log format %q", c.Log.Format)
	}
	return nil
}
