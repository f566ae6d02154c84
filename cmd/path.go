package cmd

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/adalundhe/nexus/core/graph"
	"github.com/adalundhe/nexus/core/model"
	"github.com/adalundhe/nexus/core/pathfind"
)

var pathCmd = &cobra.Command{
	Use:   "path <source> <target>",
	Short: "Find the strongest introduction path between two entities",
	Long: `Entities are written kind:id, for example contact:12 or company:3.
The path weights each hop by relationship strength and recency.`,
	Args: cobra.ExactArgs(2),
	RunE: runPath,
}

var mutualCmd = &cobra.Command{
	Use:   "mutual <a> <b>",
	Short: "List entities directly connected to both arguments",
	Args:  cobra.ExactArgs(2),
	RunE:  runMutual,
}

func init() {
	rootCmd.AddCommand(pathCmd)
	rootCmd.AddCommand(mutualCmd)
}

func parseEntityArg(arg string) (graph.NodeKey, error) {
	kindStr, idStr, ok := strings.Cut(arg, ":")
	if !ok {
		return graph.NodeKey{}, fmt.Errorf("entity %q must be kind:id, e.g. contact:12", arg)
	}
	kind, err := model.ParseEntityKind(kindStr)
	if err != nil {
		return graph.NodeKey{}, err
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		return graph.NodeKey{}, fmt.Errorf("entity %q has an invalid id", arg)
	}
	return graph.NodeKey{Kind: kind, ID: id}, nil
}

func runPath(cmd *cobra.Command, args []string) error {
	src, err := parseEntityArg(args[0])
	if err != nil {
		return err
	}
	dst, err := parseEntityArg(args[1])
	if err != nil {
		return err
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
	path, err := svc.Path(cmd.Context(), src, dst)
	if err != nil {
		if errors.Is(err, pathfind.ErrNoPath) {
			fmt.Fprintf(cmd.OutOrStdout(), "no path from %s to %s within %d hops\n",
				src, dst, cfg.Pathfind.MaxHops)
			return nil
		}
		return err
	}

	out := cmd.OutOrStdout()
	hops := len(path.Nodes) - 1
	fmt.Fprintf(out, "%d hop(s), strength %.3f\n", hops, path.Strength)
	for i, node := range path.Nodes {
		if i == 0 {
			fmt.Fprintf(out, "  %s\n", node)
			continue
		}
		fmt.Fprintf(out, "  -> %s (%s)\n", node, path.Edges[i-1].Type)
	}
	return nil
}

func runMutual(cmd *cobra.Command, args []string) error {
	a, err := parseEntityArg(args[0])
	if err != nil {
		return err
	}
	b, err := parseEntityArg(args[1])
	if err != nil {
		return err
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
	mutual, err := svc.MutualConnections(cmd.Context(), a, b)
	if err != nil {
		return err
	}
	if len(mutual) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "no mutual connections between %s and %s\n", a, b)
		return nil
	}
	for _, m := range mutual {
		fmt.Fprintf(cmd.OutOrStdout(), "%s\tcombined %.3f\n", m.Key, m.Combined)
	}
	return nil
}
