package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the state-scoped index cache",
}

var cacheLoadCmd = &cobra.Command{
	Use:   "load <STATE>...",
	Short: "Load the county/zip/tract index files for one or more states",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cache := newStateCache(cfg, newFetcher(cfg))

		for _, state := range args {
			if _, err := cache.Load(cmd.Context(), state); err != nil {
				return err
			}
			zap.L().Info("state cached", zap.String("state", state))
		}

		return json.NewEncoder(os.Stdout).Encode(cache.Stats())
	},
}

func init() {
	cacheCmd.AddCommand(cacheLoadCmd)
	rootCmd.AddCommand(cacheCmd)
}
