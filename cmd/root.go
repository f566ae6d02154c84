package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"

	"github.com/adalundhe/nexus/core/config"
	"github.com/adalundhe/nexus/core/query"
	"github.com/adalundhe/nexus/core/store"
)

var rootCmd = &cobra.Command{
	Use:   "nexus",
	Short: "Nexus - a relationship graph intelligence engine",
	Long: `Nexus turns a book of business into a scored relationship graph:
network metrics, opportunity scores, lease predictions, and
introduction paths, recomputed from raw records on every run.`,
	SilenceUsage: true,
}

var (
	configPath string
	verbose    bool
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file (yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

func Execute() error {
	_ = godotenv.Load()
	return rootCmd.Execute()
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(tint.NewHandler(os.Stderr, &tint.Options{Level: level}))
}

func loadConfig() (*config.Config, error) {
	if configPath == "" {
		if env := os.Getenv("NEXUS_CONFIG"); env != "" {
			configPath = env
		}
	}
	if configPath == "" {
		return config.Default(), nil
	}
	return config.Load(configPath)
}

func openStore(cfg *config.Config) (*store.Store, error) {
	s, err := store.OpenWithConfig(cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("failed to open store at %s: %w", cfg.Store.Path, err)
	}
	return s, nil
}

func newQueryService(cfg *config.Config, s *store.Store) (*query.Service, error) {
	return query.New(s, cfg)
}
