package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mmcdole/daisy/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	def := DefaultConfig()
	assert.Equal(t, def.Cache.Size, cfg.Cache.Size)
	assert.Equal(t, 30*time.Second, cfg.Source.Timeout)
	assert.Equal(t, "INFO", cfg.Logging.Level)
	assert.False(t, cfg.IsConfigured())
	assert.NoError(t, cfg.Validate())
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	yaml := `source:
  location: /books/alice
  timeout: 5s
cache:
  size: 25
  stats: true
navigation:
  level: 2
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "/books/alice", cfg.Source.Location)
	assert.Equal(t, 5*time.Second, cfg.Source.Timeout)
	assert.Equal(t, 25, cfg.Cache.Size)
	assert.True(t, cfg.Cache.Stats)
	assert.Equal(t, 2, cfg.Navigation.Level)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.IsConfigured())
}

func TestEnvironmentOverrides(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("cache:\n  size: 25\n"), 0o644))
	t.Setenv("DAISY_CACHE_SIZE", "42")
	t.Setenv("DAISY_SOURCE_LOCATION", "https://example.com/book/")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 42, cfg.Cache.Size)
	assert.Equal(t, "https://example.com/book/", cfg.Source.Location)
}

func TestDotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("DAISY_NAVIGATION_LEVEL=3\n"), 0o644))
	// Load sets variables from .env; register cleanup for it
	t.Setenv("DAISY_NAVIGATION_LEVEL", "")
	require.NoError(t, os.Unsetenv("DAISY_NAVIGATION_LEVEL"))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Navigation.Level)
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.Source.Location = "/books/bob.zip"
	cfg.Source.Timeout = 12 * time.Second
	cfg.Cache.Size = 3
	cfg.Player.Command = "mpv"
	cfg.Player.Args = []string{"--no-video"}

	require.NoError(t, Save(cfg, dir))

	loaded, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, cfg.Source, loaded.Source)
	assert.Equal(t, 3, loaded.Cache.Size)
	assert.Equal(t, "mpv", loaded.Player.Command)
	assert.Equal(t, []string{"--no-video"}, loaded.Player.Args)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		ok     bool
	}{
		{"defaults", func(*Config) {}, true},
		{"negative level", func(c *Config) { c.Navigation.Level = -1 }, false},
		{"level too deep", func(c *Config) { c.Navigation.Level = 7 }, false},
		{"negative timeout", func(c *Config) { c.Source.Timeout = -time.Second }, false},
		{"negative cache is clamped later", func(c *Config) { c.Cache.Size = -5 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, domain.ErrConfiguration)
			}
		})
	}
}
