package cmd

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var rescoreCmd = &cobra.Command{
	Use:   "rescore [company-id|all]",
	Short: "Refresh opportunity and chain scores without a full recompute",
	Long: `Rescores one company (or every company with "all") against current
signals, reusing the network metrics from the last recompute.`,
	Args: cobra.ExactArgs(1),
	RunE: runRescore,
}

func init() {
	rootCmd.AddCommand(rescoreCmd)
}

func runRescore(cmd *cobra.Command, args []string) error {
	var companyID int64
	if args[0] != "all" {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil || id <= 0 {
			return fmt.Errorf("argument must be a company id or \"all\", got %q", args[0])
		}
		companyID = id
	}

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
	results, err := svc.Rescore(cmd.Context(), companyID)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tCATEGORY\tOPPORTUNITY\tLEASE PROB\tSTAGE")
	for _, r := range results {
		fmt.Fprintf(w, "%d\t%s\t%s\t%.1f\t%.2f\t%s\n",
			r.CompanyID, r.Name, r.Category, r.Opportunity, r.ChainProb, r.Stage)
	}
	return w.Flush()
}
