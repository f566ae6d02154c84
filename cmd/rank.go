package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "List the top companies by opportunity score",
	RunE:  runRank,
}

var rankLimit int

func init() {
	rootCmd.AddCommand(rankCmd)
	rankCmd.Flags().IntVarP(&rankLimit, "limit", "n", 20, "Number of companies to list")
}

func runRank(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	s, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	svc, err := newQueryService(cfg, s)
	if err != nil {
		return err
	}
	ranked, err := svc.Ranking(cmd.Context(), rankLimit)
	if err != nil {
		return err
	}
	if len(ranked) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no scored companies; run `nexus recompute` first")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tCATEGORY\tOPPORTUNITY\tLEASE PROB\tCHAIN")
	for _, r := range ranked {
		fmt.Fprintf(w, "%d\t%s\t%s\t%.1f\t%.2f\t%.1f\n",
			r.ID, r.Name, r.Category, r.Opportunity, r.ChainProb, r.ChainScore)
	}
	return w.Flush()
}
