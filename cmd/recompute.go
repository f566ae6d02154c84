package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/adalundhe/nexus/core/pipeline"
	"github.com/adalundhe/nexus/core/store"
)

var recomputeCmd = &cobra.Command{
	Use:   "recompute",
	Short: "Run a full recompute",
	Long: `Resolve duplicates, rebuild the graph, recompute every network
metric and score, and persist the results in one transaction.`,
	RunE: runRecompute,
}

func init() {
	rootCmd.AddCommand(recomputeCmd)
}

func runRecompute(cmd *cobra.Command, args []string) error {
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
	runner := pipeline.NewRunner(s, cfg, pipeline.WithLogger(log))
	summary, err := runner.Run(cmd.Context())
	if err != nil {
		if errors.Is(err, store.ErrRunInProgress) {
			return fmt.Errorf("a recompute is already running; wait for it to finish")
		}
		return err
	}

	printSummary(cmd, summary)
	return nil
}

func printSummary(cmd *cobra.Command, s *pipeline.Summary) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "run %s finished in %s\n", s.RunID, s.Duration.Round(1e6))
	fmt.Fprintf(out, "  graph: %d nodes, %d edges, %d clusters\n", s.Nodes, s.Edges, s.Clusters)
	fmt.Fprintf(out, "  top centrality: %s\n", s.TopCentrality)
	fmt.Fprintf(out, "  top leverage:   %s\n", s.TopLeverage)
	if s.ReviewQueued > 0 {
		fmt.Fprintf(out, "  review queue: %d candidate merges awaiting review\n", s.ReviewQueued)
	}
	for _, w := range s.Warnings {
		fmt.Fprintf(out, "  warning: %s\n", w)
	}
	if len(s.TopMovers) > 0 {
		fmt.Fprintln(out, "  top movers:")
		for _, m := range s.TopMovers {
			fmt.Fprintf(out, "    %-30s %.1f -> %.1f\n", m.Name, m.Previous, m.Current)
		}
	}
}
