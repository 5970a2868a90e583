// Package config loads the broker's configuration from a YAML file,
// environment variables, and CLI flags, in that ascending precedence
// order, following marmos91-dittofs's pkg/config/config.go Load/setupViper
// shape. WatchAndReload reports log-level changes in the config file via
// fsnotify; the serve command logs the new level but does not change the
// level of the running loggers. Every field, the log level included, takes
// effect only on the next process start.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config is the broker's full static configuration (§4.1's RPC surface
// host/port, §4.6's housekeeper interval, the ambient logging/AMQP
// concerns SPEC_FULL.md adds).
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Logging     LoggingConfig     `mapstructure:"logging"`
	Housekeeper HousekeeperConfig `mapstructure:"housekeeper"`
	Watch       WatchConfig       `mapstructure:"watch"`
	AMQPURL     string            `mapstructure:"amqp_url"`
}

// ServerConfig configures the RPC Surface's HTTP listener.
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// LoggingConfig controls slog output.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// HousekeeperConfig controls the background snapshot logger (§4.6).
type HousekeeperConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

// WatchConfig controls the watch_variable websocket hub's cell eviction.
type WatchConfig struct {
	EvictionInterval time.Duration `mapstructure:"eviction_interval"`
	IdleTimeout      time.Duration `mapstructure:"idle_timeout"`
	MailboxSize      int           `mapstructure:"mailbox_size"`
}

// Default returns the zero-config fallback: every field populated with a
// value that lets the broker run with no config file and no environment
// present, matching dittofs's GetDefaultConfig fallback for a missing file.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Host: "0.0.0.0", Port: 8080},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Housekeeper: HousekeeperConfig{Interval: 5 * time.Second},
		Watch: WatchConfig{
			EvictionInterval: time.Minute,
			IdleTimeout:      5 * time.Minute,
			MailboxSize:      64,
		},
	}
}

// Load reads configuration from configPath (if non-empty), environment
// variables prefixed DXB_, and flags, layered over Default(). It returns
// the bound *viper.Viper too, so callers that want hot-reload (OnChange)
// can call WatchAndReload on the same instance.
func Load(configPath string, flags *pflag.FlagSet) (*Config, *viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix("DXB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, nil, fmt.Errorf("config: bind flags: %w", err)
		}
	}

	def := Default()
	v.SetDefault("server.host", def.Server.Host)
	v.SetDefault("server.port", def.Server.Port)
	v.SetDefault("logging.level", def.Logging.Level)
	v.SetDefault("logging.format", def.Logging.Format)
	v.SetDefault("housekeeper.interval", def.Housekeeper.Interval)
	v.SetDefault("watch.eviction_interval", def.Watch.EvictionInterval)
	v.SetDefault("watch.idle_timeout", def.Watch.IdleTimeout)
	v.SetDefault("watch.mailbox_size", def.Watch.MailboxSize)
	v.SetDefault("amqp_url", "")

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			if !os.IsNotExist(err) {
				if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
					return nil, nil, fmt.Errorf("config: read %s: %w", configPath, err)
				}
			}
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(defaultConfigDir())
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, nil, fmt.Errorf("config: read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	return &cfg, v, nil
}

// WatchAndReload installs an fsnotify-backed watch of the config file: on
// is called with the file's logging level whenever the file changes on
// disk. It applies nothing itself; what happens with the level is up to on.
func WatchAndReload(v *viper.Viper, on func(newLevel string)) {
	v.OnConfigChange(func(_ fsnotify.Event) {
		on(v.GetString("logging.level"))
	})
	v.WatchConfig()
}

func defaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "dataexchange-broker")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "dataexchange-broker")
}
