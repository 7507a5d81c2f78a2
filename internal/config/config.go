package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// ServerConfig holds the HTTP server settings.
type ServerConfig struct {
	Port               int
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	IdleTimeout        time.Duration
	ShutDownTimeout    time.Duration
	RequestTimeout     time.Duration
	CORSAllowedOrigins string
}

// DataConfig holds the lesson catalog persistence settings.
type DataConfig struct {
	FilePath        string
	PersistInterval time.Duration
}

// AutosaveConfig holds the edit-session autosave settings.
// Debounce is the quiet period after the last keystroke before a save fires.
// SavedHold is how long the "saved" indicator stays up before clearing.
type AutosaveConfig struct {
	Debounce      time.Duration
	SavedHold     time.Duration
	SessionTTL    time.Duration
	ReaperPoll    time.Duration
	ReaperEnabled bool
}

// MiscConfig holds everything else.
type MiscConfig struct {
	LogLevel     string
	GinMode      string
	NotifierKind string
}

// Config is the full application configuration.
type Config struct {
	Server   ServerConfig
	Data     DataConfig
	Autosave AutosaveConfig
	Misc     MiscConfig
}

// LoadConfig reads config.yaml from the working directory or ./config,
// applies HOMEWORKD_* environment overrides and returns a validated Config.
func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	// Defaults to allow running without a config file
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", "10s")
	viper.SetDefault("server.write_timeout", "10s")
	viper.SetDefault("server.idle_timeout", "120s")
	viper.SetDefault("server.shutdown_timeout", "5s")
	viper.SetDefault("server.request_timeout", "1s")
	viper.SetDefault("server.cors_allowed_origins", "*")
	viper.SetDefault("data.file_path", "./config/data/lessons.json")
	viper.SetDefault("data.persist_interval", "5s")
	viper.SetDefault("autosave.debounce", "500ms")
	viper.SetDefault("autosave.saved_hold", "2s")
	viper.SetDefault("autosave.session_ttl", "30m")
	viper.SetDefault("autosave.reaper_poll", "1m")
	viper.SetDefault("autosave.reaper_enabled", true)
	viper.SetDefault("misc.log_level", "info")
	viper.SetDefault("misc.gin_mode", "release")
	viper.SetDefault("misc.notifier", "log")

	// Environment variables automatically override config file values,
	// e.g. HOMEWORKD_SERVER_PORT overrides server.port. The replacer maps
	// the nested dot keys onto the underscore env names.
	viper.SetEnvPrefix("HOMEWORKD")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		// No config file is fine; defaults and env vars apply.
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:               viper.GetInt("server.port"),
			ReadTimeout:        viper.GetDuration("server.read_timeout"),
			WriteTimeout:       viper.GetDuration("server.write_timeout"),
			IdleTimeout:        viper.GetDuration("server.idle_timeout"),
			ShutDownTimeout:    viper.GetDuration("server.shutdown_timeout"),
			RequestTimeout:     viper.GetDuration("server.request_timeout"),
			CORSAllowedOrigins: viper.GetString("server.cors_allowed_origins"),
		},
		Data: DataConfig{
			FilePath:        viper.GetString("data.file_path"),
			PersistInterval: viper.GetDuration("data.persist_interval"),
		},
		Autosave: AutosaveConfig{
			Debounce:      viper.GetDuration("autosave.debounce"),
			SavedHold:     viper.GetDuration("autosave.saved_hold"),
			SessionTTL:    viper.GetDuration("autosave.session_ttl"),
			ReaperPoll:    viper.GetDuration("autosave.reaper_poll"),
			ReaperEnabled: viper.GetBool("autosave.reaper_enabled"),
		},
		Misc: MiscConfig{
			LogLevel:     viper.GetString("misc.log_level"),
			GinMode:      viper.GetString("misc.gin_mode"),
			NotifierKind: viper.GetString("misc.notifier"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Data.FilePath == "" {
		return errors.New("data file path is required")
	}
	if c.Data.PersistInterval <= 0 {
		return fmt.Errorf("invalid persist interval: %v", c.Data.PersistInterval)
	}
	if c.Autosave.Debounce <= 0 {
		return fmt.Errorf("invalid autosave debounce: %v", c.Autosave.Debounce)
	}
	if c.Autosave.SavedHold <= 0 {
		return fmt.Errorf("invalid autosave saved hold: %v", c.Autosave.SavedHold)
	}
	if c.Autosave.ReaperEnabled {
		if c.Autosave.SessionTTL <= 0 {
			return fmt.Errorf("invalid session TTL: %v", c.Autosave.SessionTTL)
		}
		if c.Autosave.ReaperPoll <= 0 {
			return fmt.Errorf("invalid reaper poll interval: %v", c.Autosave.ReaperPoll)
		}
	}
	if _, err := logrus.ParseLevel(c.Misc.LogLevel); err != nil {
		return fmt.Errorf("invalid log level %q: %w", c.Misc.LogLevel, err)
	}
	return nil
}
