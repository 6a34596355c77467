// Package config loads daisy settings from a YAML file, a .env file and
// DAISY_* environment variables, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mmcdole/daisy/internal/domain"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Source     SourceConfig     `mapstructure:"source"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Navigation NavigationConfig `mapstructure:"navigation"`
	Store      StoreConfig      `mapstructure:"store"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
	Player     PlayerConfig     `mapstructure:"player"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// SourceConfig tells where the book lives
type SourceConfig struct {
	Location string        `mapstructure:"location"` // folder, .zip file or URL
	Timeout  time.Duration `mapstructure:"timeout"`  // per HTTP request
}

// CacheConfig sizes the resource cache
type CacheConfig struct {
	Size  int  `mapstructure:"size"`  // entries, 0 disables caching
	Stats bool `mapstructure:"stats"` // per-resource statistics
}

// NavigationConfig holds the initial table of contents filter
type NavigationConfig struct {
	Level int `mapstructure:"level"` // 0 = all headings
}

// StoreConfig locates the bookmark database
type StoreConfig struct {
	Dir string `mapstructure:"dir"` // empty keeps bookmarks in memory
}

// MetricsConfig controls the Prometheus textfile export
type MetricsConfig struct {
	File string `mapstructure:"file"` // empty disables the export
}

// PlayerConfig holds the external audio player
type PlayerConfig struct {
	Command   string   `mapstructure:"command"`
	Args      []string `mapstructure:"args"`
	StartFlag string   `mapstructure:"start_flag"` // e.g., "--start=" or "-ss "
	EndFlag   string   `mapstructure:"end_flag"`   // e.g., "--end="
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	File  string `mapstructure:"file"` // empty logs to stderr
	Level string `mapstructure:"level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Source: SourceConfig{
			Timeout: 30 * time.Second,
		},
		Cache: CacheConfig{
			Size: 10,
		},
		Store: StoreConfig{
			Dir: defaultDataPath(),
		},
		Player: PlayerConfig{
			Command: "",
			Args:    []string{},
		},
		Logging: LoggingConfig{
			Level: "INFO",
		},
	}
}

// defaultConfigPath returns the default config directory for the current OS
func defaultConfigPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "daisy")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "daisy")
	}
}

// defaultDataPath returns the default bookmark directory for the current OS
func defaultDataPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("LOCALAPPDATA"), "daisy")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "daisy")
	}
}

// DefaultDir returns the directory Load and Save use when given ""
func DefaultDir() string {
	return defaultConfigPath()
}

func newViper(cfg *Config) *viper.Viper {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	bind(cfg, v.SetDefault)
	return v
}

// bind walks every key so environment overrides are seen by Unmarshal
func bind(cfg *Config, set func(string, any)) {
	set("source.location", cfg.Source.Location)
	set("source.timeout", cfg.Source.Timeout)
	set("cache.size", cfg.Cache.Size)
	set("cache.stats", cfg.Cache.Stats)
	set("navigation.level", cfg.Navigation.Level)
	set("store.dir", cfg.Store.Dir)
	set("metrics.file", cfg.Metrics.File)
	set("player.command", cfg.Player.Command)
	set("player.args", cfg.Player.Args)
	set("player.start_flag", cfg.Player.StartFlag)
	set("player.end_flag", cfg.Player.EndFlag)
	set("logging.file", cfg.Logging.File)
	set("logging.level", cfg.Logging.Level)
}

// Load reads config.yaml from dir (the user config directory when empty)
// and the working directory. A .env file in either place is loaded into
// the environment first; variables already set win.
func Load(dir string) (*Config, error) {
	if dir == "" {
		dir = defaultConfigPath()
	}
	for _, env := range []string{filepath.Join(dir, ".env"), ".env"} {
		if err := godotenv.Load(env); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("error reading %s: %w", env, err)
		}
	}

	cfg := DefaultConfig()
	v := newViper(cfg)
	v.AddConfigPath(dir)
	v.AddConfigPath(".")

	// Environment variable overrides
	v.SetEnvPrefix("DAISY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, use defaults
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}
	return cfg, nil
}

// Save writes cfg to dir/config.yaml (the user config directory when empty)
func Save(cfg *Config, dir string) error {
	if dir == "" {
		dir = defaultConfigPath()
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	v := viper.New()
	bind(cfg, v.Set)
	v.Set("source.timeout", cfg.Source.Timeout.String())

	configFile := filepath.Join(dir, "config.yaml")
	if err := v.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate rejects settings no component can work with. A negative cache
// size is left to the cache, which clamps it.
func (c *Config) Validate() error {
	if c.Navigation.Level < 0 || c.Navigation.Level > 6 {
		return fmt.Errorf("%w: navigation.level must be within 0..6, got %d",
			domain.ErrConfiguration, c.Navigation.Level)
	}
	if c.Source.Timeout < 0 {
		return fmt.Errorf("%w: source.timeout must not be negative", domain.ErrConfiguration)
	}
	return nil
}

// IsConfigured returns true if a book location is set
func (c *Config) IsConfigured() bool {
	return c.Source.Location != ""
}
