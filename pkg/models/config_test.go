package models

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	assert.NoError(t, cfg.Validate())
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"negative depth", func(c *Config) { c.MaxDepth = -1 }, "max_depth"},
		{"zero workers", func(c *Config) { c.Workers = 0 }, "workers"},
		{"zero timeout", func(c *Config) { c.QueryTimeout = 0 }, "query_timeout"},
		{"bogus record type", func(c *Config) { c.RecordTypes = []string{"A", "PTR"} }, "record_types"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, IsConfigError(err))
			assert.Contains(t, err.Error(), tc.field)
		})
	}
}

func TestNormalizeFillsDefaults(t *testing.T) {
	cfg := Config{MaxDepth: 1, Workers: 2}
	cfg.Normalize()

	assert.Positive(t, cfg.QueryTimeout)
	assert.NotEmpty(t, cfg.RecordTypes)
	assert.Positive(t, cfg.RateLimit)
	assert.NoError(t, cfg.Validate())
}

func TestNormalizeCanonicalizesInputs(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RecordTypes = []string{" cname ", "mx"}
	cfg.Exclude = []string{" CloudFlare "}
	cfg.Normalize()

	assert.Equal(t, []string{"CNAME", "MX"}, cfg.RecordTypes)
	assert.Equal(t, []string{"cloudflare"}, cfg.Exclude)
}

func TestConfigSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profiles", "deep.yaml")

	saved := DefaultConfig()
	saved.MaxDepth = 4
	saved.Workers = 12
	saved.Exclude = []string{"cloudflare"}
	require.NoError(t, saved.Save(path))

	// Atomic write leaves no temp file behind.
	_, err := os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))

	loaded := DefaultConfig()
	require.NoError(t, loaded.Load(path))
	assert.Equal(t, saved, loaded)
}

func TestConfigLoadMissingFileIsConfigError(t *testing.T) {
	cfg := DefaultConfig()
	err := cfg.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.True(t, IsConfigError(err))
}

func TestIsConfigError(t *testing.T) {
	assert.True(t, IsConfigError(&ConfigError{Field: "workers", Reason: "must be >= 1"}))
	assert.False(t, IsConfigError(assert.AnError))
	assert.False(t, IsConfigError(nil))
}
