package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultValidates(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nexus.yaml")
	body := `
store:
  path: /tmp/custom.db
decay:
  funding_days: 90
thresholds:
  large_round: 25000000
pathfind:
  max_hops: 3
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/custom.db", cfg.Store.Path)
	assert.Equal(t, 90.0, cfg.Decay.FundingDays)
	assert.Equal(t, 25_000_000.0, cfg.Thresholds.LargeRound)
	assert.Equal(t, 3, cfg.Pathfind.MaxHops)
	// Untouched sections keep their defaults.
	assert.Equal(t, Default().Chain, cfg.Chain)
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty store path", func(c *Config) { c.Store.Path = "" }},
		{"zero open conns", func(c *Config) { c.Store.MaxOpenConns = 0 }},
		{"idle exceeds open", func(c *Config) { c.Store.MaxIdleConns = 99 }},
		{"negative half-life", func(c *Config) { c.Decay.HiringDays = -1 }},
		{"zero large round", func(c *Config) { c.Thresholds.LargeRound = 0 }},
		{"zero lookback", func(c *Config) { c.Chain.LookbackDays = 0 }},
		{"zero max hops", func(c *Config) { c.Pathfind.MaxHops = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadRejectsInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nexus.yaml")
	require.NoError(t, os.WriteFile(path, []byte("decay:\n  funding_days: -3\n"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}
