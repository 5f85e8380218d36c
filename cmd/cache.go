package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the translation cache",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show the number of cached translations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		tc := openCache(cmd.Context(), cfg, logger)
		if tc == nil {
			return errors.New("translation cache is disabled or unavailable")
		}
		defer tc.Close()

		stats, err := tc.Stats(cmd.Context())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "cache:   %s\n", cfg.CacheDSN)
		fmt.Fprintf(out, "entries: %d\n", stats.Entries)
		if stats.Oldest != nil {
			fmt.Fprintf(out, "oldest:  %s\n", stats.Oldest.Format(time.RFC3339))
		}
		if stats.Newest != nil {
			fmt.Fprintf(out, "newest:  %s\n", stats.Newest.Format(time.RFC3339))
		}
		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every cached translation",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		tc := openCache(cmd.Context(), cfg, logger)
		if tc == nil {
			return errors.New("translation cache is disabled or unavailable")
		}
		defer tc.Close()

		n, err := tc.Clear(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "removed %d cached translations\n", n)
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheStatsCmd, cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}
