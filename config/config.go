// Package config loads fieldd settings from an optional YAML file and
// FIELD_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DefaultFile is read from the working directory when no path is given.
const DefaultFile = "field.yaml"

type Config struct {
	HTTP struct {
		Addr string
	}
	GinMode string
	Database struct {
		Path string
	}
	Log struct {
		Level      string
		File       string
		MaxSizeMB  int
		MaxBackups int
		MaxAgeDays int
	}
	NATS struct {
		URL string
	}
	DecayInterval time.Duration
	ActiveWindow  time.Duration
	WSBuffer      int
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http.addr", ":8090")
	v.SetDefault("gin.mode", "release")
	v.SetDefault("database.path", "field.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 50)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 28)
	v.SetDefault("nats.url", "")
	v.SetDefault("scheduler.decay_interval", "24h")
	v.SetDefault("triggers.active_window", "24h")
	v.SetDefault("ws.buffer", 256)
}

// New returns a viper instance with defaults and env binding but no file.
func New() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("FIELD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

// Load reads path (or DefaultFile when path is empty and it exists) and
// resolves the result. An explicit path that does not exist is an error.
func Load(path string) (*Config, error) {
	v := New()

	switch {
	case path != "":
		v.SetConfigFile(path)
	default:
		if _, err := os.Stat(DefaultFile); err == nil {
			v.SetConfigFile(DefaultFile)
		}
	}
	if v.ConfigFileUsed() != "" {
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", v.ConfigFileUsed(), err)
		}
	}

	return FromViper(v)
}

// FromViper resolves a typed config. Durations must parse.
func FromViper(v *viper.Viper) (*Config, error) {
	var c Config
	c.HTTP.Addr = v.GetString("http.addr")
	c.GinMode = v.GetString("gin.mode")
	c.Database.Path = v.GetString("database.path")
	c.Log.Level = v.GetString("log.level")
	c.Log.File = v.GetString("log.file")
	c.Log.MaxSizeMB = v.GetInt("log.max_size_mb")
	c.Log.MaxBackups = v.GetInt("log.max_backups")
	c.Log.MaxAgeDays = v.GetInt("log.max_age_days")
	c.NATS.URL = v.GetString("nats.url")
	c.WSBuffer = v.GetInt("ws.buffer")

	var err error
	if c.DecayInterval, err = duration(v, "scheduler.decay_interval"); err != nil {
		return nil, err
	}
	if c.ActiveWindow, err = duration(v, "triggers.active_window"); err != nil {
		return nil, err
	}

	if c.Database.Path == "" {
		return nil, errors.New("config: database.path must not be empty")
	}
	return &c, nil
}

func duration(v *viper.Viper, key string) (time.Duration, error) {
	raw := v.GetString(key)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("config: %s must be positive, got %s", key, raw)
	}
	return d, nil
}
