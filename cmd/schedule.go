package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/adalundhe/nexus/core/config"
	"github.com/adalundhe/nexus/core/pipeline"
	"github.com/adalundhe/nexus/core/store"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run recomputes on the configured cron schedule",
	Long: `Starts an in-process scheduler that triggers a full recompute on the
configured cron expression (nightly by default) until interrupted.`,
	RunE: runSchedule,
}

var scheduleImmediate bool

func init() {
	rootCmd.AddCommand(scheduleCmd)
	scheduleCmd.Flags().BoolVar(&scheduleImmediate, "immediate", false, "Run one recompute before waiting on the schedule")
}

func runSchedule(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	s, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	log := newLogger()
	ctx := cmd.Context()

	// With a config file, threshold edits apply to the next scheduled
	// run without a restart.
	currentCfg := func() *config.Config { return cfg }
	if configPath != "" {
		watcher, err := config.NewWatcher(configPath)
		if err != nil {
			return err
		}
		defer watcher.Close()
		currentCfg = watcher.Current
	}

	runOnce := func() {
		runner := pipeline.NewRunner(s, currentCfg(), pipeline.WithLogger(log))
		summary, err := runner.Run(ctx)
		switch {
		case errors.Is(err, store.ErrRunInProgress):
			log.Warn("skipping scheduled recompute, previous run still in progress")
		case err != nil:
			log.Error("scheduled recompute failed", "error", err)
		default:
			log.Info("scheduled recompute finished",
				"run_id", summary.RunID,
				"nodes", summary.Nodes,
				"edges", summary.Edges,
				"duration", summary.Duration)
		}
	}

	if scheduleImmediate {
		runOnce()
	}

	c := cron.New()
	if _, err := c.AddFunc(cfg.Schedule.Cron, runOnce); err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", cfg.Schedule.Cron, err)
	}
	c.Start()
	defer c.Stop()

	log.Info("scheduler started", "cron", cfg.Schedule.Cron)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	select {
	case <-ctx.Done():
	case sig := <-sigCh:
		log.Info("shutting down", "signal", sig.String())
	}
	return nil
}
