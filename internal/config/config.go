package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Store backends.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
)

// Config holds application configuration.
type Config struct {
	Store     StoreConfig
	Widget    WidgetConfig
	Log       LogConfig
	Telemetry TelemetryConfig
}

// StoreConfig selects and addresses the property store.
type StoreConfig struct {
	Backend     string
	Path        string
	RedisAddr   string `mapstructure:"redis_addr"`
	RedisPrefix string `mapstructure:"redis_prefix"`
}

// WidgetConfig holds widget behaviour settings.
type WidgetConfig struct {
	AckTimeout    time.Duration `mapstructure:"ack_timeout"`
	MaxSelectable int           `mapstructure:"max_selectable"`
}

// LogConfig holds diagnostic logging settings.
type LogConfig struct {
	Level  string
	Format string
	File   string
}

// TelemetryConfig holds event export settings. Empty values disable the sink.
type TelemetryConfig struct {
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
	ServiceName  string `mapstructure:"service_name"`
	MetricsAddr  string `mapstructure:"metrics_addr"`
}

// New returns a viper instance with defaults, the config file location and
// env overrides (prefix LUXVIEW_) set up. Flags may be bound to it before Load.
func New() *viper.Viper {
	v := viper.New()

	home, _ := os.UserHomeDir()
	state := os.Getenv("XDG_STATE_HOME")
	if state == "" {
		state = filepath.Join(home, ".local", "state")
	}

	v.SetDefault("store.backend", BackendFile)
	v.SetDefault("store.path", filepath.Join(state, "luxview", "props.json"))
	v.SetDefault("store.redis_addr", "localhost:6379")
	v.SetDefault("store.redis_prefix", "luxview")
	v.SetDefault("widget.ack_timeout", 60*time.Second)
	v.SetDefault("widget.max_selectable", 10)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.file", filepath.Join(state, "luxview", "luxview.log"))
	v.SetDefault("telemetry.otlp_endpoint", "")
	v.SetDefault("telemetry.service_name", "luxview")
	v.SetDefault("telemetry.metrics_addr", "")

	v.SetConfigType("yaml")
	if cfgPath := os.Getenv("LUXVIEW_CONFIG"); cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(filepath.Join(home, ".config", "luxview"))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("LUXVIEW")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	return v
}

// Load reads the config file if present and decodes v.
func Load(v *viper.Viper) (Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks value ranges and backend requirements.
func (c Config) Validate() error {
	switch c.Store.Backend {
	case BackendMemory:
	case BackendFile:
		if c.Store.Path == "" {
			return errors.New("config: store.path is required for the file backend")
		}
	case BackendRedis:
		if c.Store.RedisAddr == "" {
			return errors.New("config: store.redis_addr is required for the redis backend")
		}
	default:
		return fmt.Errorf("config: unknown store.backend %q", c.Store.Backend)
	}
	if c.Widget.AckTimeout <= 0 {
		return fmt.Errorf("config: widget.ack_timeout must be positive, got %s", c.Widget.AckTimeout)
	}
	if c.Widget.MaxSelectable <= 0 {
		return fmt.Errorf("config: widget.max_selectable must be positive, got %d", c.Widget.MaxSelectable)
	}
	return nil
}
