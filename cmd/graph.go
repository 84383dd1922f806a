package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kilianp07/ridedispatch/core/resolver"
	"github.com/kilianp07/ridedispatch/infra/graphio"
)

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Inspect and convert road graphs",
}

var graphStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print node and edge counts of the configured graph",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := notifyContext(cmd)
		defer stop()
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		store, err := graphio.Load(ctx, cfg.Graph)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), store.Stats())
	},
}

var nearestAt string

var graphNearestCmd = &cobra.Command{
	Use:   "nearest",
	Short: "Print the graph node closest to a position",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := notifyContext(cmd)
		defer stop()
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		pos, err := parsePosition(nearestAt)
		if err != nil {
			return err
		}
		store, err := graphio.Load(ctx, cfg.Graph)
		if err != nil {
			return err
		}
		res, err := resolver.New(cfg.Resolver, store)
		if err != nil {
			return err
		}
		m, ok := res.(resolver.Matcher)
		if !ok {
			m = resolver.NewLinear(store)
		}
		match, err := m.Nearest(pos)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), match)
	},
}

var convertOut string

var graphConvertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Write the configured graph as a nodes.json/graph.json pair",
	Long: `Load the configured graph (typically graph.format: osm) and write it as
nodes.json and graph.json into --out, ready to be loaded with graph.format: json.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := notifyContext(cmd)
		defer stop()
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		store, err := graphio.Load(ctx, cfg.Graph)
		if err != nil {
			return err
		}
		if err := os.MkdirAll(convertOut, 0o755); err != nil {
			return err
		}
		nf, err := os.Create(filepath.Join(convertOut, "nodes.json"))
		if err != nil {
			return err
		}
		defer func() { _ = nf.Close() }()
		gf, err := os.Create(filepath.Join(convertOut, "graph.json"))
		if err != nil {
			return err
		}
		defer func() { _ = gf.Close() }()
		if err := graphio.WriteJSON(store, nf, gf); err != nil {
			return err
		}
		if err := nf.Close(); err != nil {
			return err
		}
		if err := gf.Close(); err != nil {
			return err
		}
		st := store.Stats()
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "wrote %d nodes and %d edges to %s\n", st.Nodes, st.Edges, convertOut)
		return err
	},
}

func init() {
	graphNearestCmd.Flags().StringVar(&nearestAt, "at", "", "position as lat,lon")
	_ = graphNearestCmd.MarkFlagRequired("at")
	graphConvertCmd.Flags().StringVarP(&convertOut, "out", "o", ".", "output directory")
	graphCmd.AddCommand(graphStatsCmd, graphNearestCmd, graphConvertCmd)
	rootCmd.AddCommand(graphCmd)
}
