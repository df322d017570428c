package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var indexSubstitute bool

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build and inspect the unified location index",
}

var indexBuildCmd = &cobra.Command{
	Use:   "build",
	Short: "Load sources and build the unified index",
	RunE: func(cmd *cobra.Command, args []string) error {
		f := newFetcher(cfg)
		ix, _, report := buildIndex(cmd.Context(), cfg, f, indexSubstitute)

		for name, res := range report.Sources {
			zap.L().Info("source result",
				zap.String("source", name),
				zap.String("status", string(res.Status)),
				zap.Int("rows", res.Rows),
				zap.Duration("elapsed", res.Elapsed),
			)
		}

		return json.NewEncoder(os.Stdout).Encode(ix.Stats())
	},
}

var indexStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Build the index and print level/state/availability counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		ix, _, _ := buildIndex(cmd.Context(), cfg, newFetcher(cfg), indexSubstitute)
		return json.NewEncoder(os.Stdout).Encode(ix.Stats())
	},
}

var indexSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search locations by hierarchical path",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ix, _, _ := buildIndex(cmd.Context(), cfg, newFetcher(cfg), indexSubstitute)

		enc := json.NewEncoder(os.Stdout)
		for _, loc := range ix.Search(args[0]) {
			if err := enc.Encode(loc); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	indexCmd.PersistentFlags().BoolVar(&indexSubstitute, "substitute", false, "build from the fixed substitute dataset instead of remote sources")
	indexCmd.AddCommand(indexBuildCmd, indexStatsCmd, indexSearchCmd)
	rootCmd.AddCommand(indexCmd)
}
