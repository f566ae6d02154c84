// Package config loads the engine configuration from yaml and passes it
// through the pipeline as an explicit immutable value. Nothing in the
// engine reads process-wide mutable state.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/adalundhe/nexus/core/decay"
)

// Config is the full engine configuration.
type Config struct {
	Store      StoreConfig      `yaml:"store"`
	Decay      DecayConfig      `yaml:"decay"`
	Thresholds ThresholdsConfig `yaml:"thresholds"`
	Chain      ChainConfig      `yaml:"chain"`
	Pathfind   PathfindConfig   `yaml:"pathfind"`
	Schedule   ScheduleConfig   `yaml:"schedule"`
}

// StoreConfig configures the sqlite connection pool.
type StoreConfig struct {
	Path            string        `yaml:"path"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

// DecayConfig holds half-lives in days per signal class.
type DecayConfig struct {
	FundingDays      float64 `yaml:"funding_days"`
	HiringDays       float64 `yaml:"hiring_days"`
	OutreachDays     float64 `yaml:"outreach_days"`
	RelationshipDays float64 `yaml:"relationship_days"`
	CashDays         float64 `yaml:"cash_days"`
}

// HalfLives converts the yaml block into a decay.HalfLives value.
func (d DecayConfig) HalfLives() decay.HalfLives {
	return decay.HalfLives{
		Funding:      d.FundingDays,
		Hiring:       d.HiringDays,
		Outreach:     d.OutreachDays,
		Relationship: d.RelationshipDays,
		Cash:         d.CashDays,
	}
}

// ThresholdsConfig holds the categorization and scoring thresholds.
type ThresholdsConfig struct {
	Revenue       float64 `yaml:"revenue"`         // institutional above this
	OfficeSF      int64   `yaml:"office_sf"`       // institutional above this
	CashBonus     float64 `yaml:"cash_bonus"`      // cash-reserve signal saturates here
	LargeRound    float64 `yaml:"large_round"`     // funding contributes triple above this
	LeaseSF       int64   `yaml:"lease_sf"`        // lease sub-score doubles above this
	VelocityDelta float64 `yaml:"velocity_delta"`  // trailing-30d count must beat average by this
	DirectorBoost bool    `yaml:"director_boost"`  // double director+ hiring signals
}

// ChainConfig parameterizes the capital→expansion→lease model.
type ChainConfig struct {
	CapitalThreshold float64 `yaml:"capital_threshold"`
	LookbackDays     int     `yaml:"lookback_days"`
	WeightCapital    float64 `yaml:"weight_capital"`
	WeightExpansion  float64 `yaml:"weight_expansion"`
	WeightPortfolio  float64 `yaml:"weight_portfolio"`
	Bias             float64 `yaml:"bias"`
	SFPerEmployee    float64 `yaml:"sf_per_employee"`
}

// PathfindConfig bounds on-demand path queries.
type PathfindConfig struct {
	MaxHops   int `yaml:"max_hops"`
	CacheSize int `yaml:"cache_size"`
}

// ScheduleConfig drives the in-process cron trigger.
type ScheduleConfig struct {
	Cron string `yaml:"cron"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	hl := decay.DefaultHalfLives()
	return &Config{
		Store: StoreConfig{
			Path:            "nexus.db",
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: time.Hour,
		},
		Decay: DecayConfig{
			FundingDays:      hl.Funding,
			HiringDays:       hl.Hiring,
			OutreachDays:     hl.Outreach,
			RelationshipDays: hl.Relationship,
			CashDays:         hl.Cash,
		},
		Thresholds: ThresholdsConfig{
			Revenue:       50_000_000,
			OfficeSF:      30_000,
			CashBonus:     100_000_000,
			LargeRound:    50_000_000,
			LeaseSF:       50_000,
			VelocityDelta: 1.0,
			DirectorBoost: true,
		},
		Chain: ChainConfig{
			CapitalThreshold: 50_000_000,
			LookbackDays:     365,
			WeightCapital:    2.2,
			WeightExpansion:  1.6,
			WeightPortfolio:  1.2,
			Bias:             2.1,
			SFPerEmployee:    200,
		},
		Pathfind: PathfindConfig{
			MaxHops:   4,
			CacheSize: 512,
		},
		Schedule: ScheduleConfig{
			Cron: "0 2 * * *",
		},
	}
}

// Load reads a yaml config file over the defaults. A missing path is not
// an error; the defaults are returned unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.Store.Path == "" {
		return fmt.Errorf("config: store.path is required")
	}
	if c.Store.MaxOpenConns < 1 {
		return fmt.Errorf("config: store.max_open_conns must be at least 1, got %d", c.Store.MaxOpenConns)
	}
	if c.Store.MaxIdleConns > c.Store.MaxOpenConns {
		return fmt.Errorf("config: store.max_idle_conns (%d) cannot exceed max_open_conns (%d)",
			c.Store.MaxIdleConns, c.Store.MaxOpenConns)
	}
	for name, v := range map[string]float64{
		"decay.funding_days":      c.Decay.FundingDays,
		"decay.hiring_days":       c.Decay.HiringDays,
		"decay.outreach_days":     c.Decay.OutreachDays,
		"decay.relationship_days": c.Decay.RelationshipDays,
		"decay.cash_days":         c.Decay.CashDays,
	} {
		if v <= 0 {
			return fmt.Errorf("config: %s must be positive, got %v", name, v)
		}
	}
	if c.Thresholds.LargeRound <= 0 {
		return fmt.Errorf("config: thresholds.large_round must be positive, got %v", c.Thresholds.LargeRound)
	}
	if c.Chain.LookbackDays <= 0 {
		return fmt.Errorf("config: chain.lookback_days must be positive, got %d", c.Chain.LookbackDays)
	}
	if c.Pathfind.MaxHops < 1 {
		return fmt.Errorf("config: pathfind.max_hops must be at least 1, got %d", c.Pathfind.MaxHops)
	}
	if c.Pathfind.CacheSize < 1 {
		return fmt.Errorf("config: pathfind.cache_size must be at least 1, got %d", c.Pathfind.CacheSize)
	}
	return nil
}
