package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agobrik/webtesttool-sub001/internal/cache"
	"github.com/agobrik/webtesttool-sub001/internal/config"
)

// NewCacheCmd creates the cache command group.
func NewCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the persistent response cache",
	}

	cmd.PersistentFlags().String("cache-dir", config.XDGCacheDir(),
		"Directory of the persistent cache tier")

	cmd.AddCommand(newCacheClearCmd())
	cmd.AddCommand(newCachePathCmd())

	return cmd
}

// newCacheClearCmd creates the cache clear subcommand.
func newCacheClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear [pattern]",
		Short: "Remove cached responses",
		Long: `Clear removes entries from the persistent response cache.

With a pattern, only entries whose URL contains the pattern are removed:

  webscan cache clear example.com

Without a pattern, the whole cache is cleared.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := cmd.Flags().GetString("cache-dir")
			if err != nil {
				return err
			}

			pattern := ""
			if len(args) == 1 {
				pattern = args[0]
			}

			store, err := cache.OpenSQLite(dir)
			if err != nil {
				return fmt.Errorf("failed to open cache at %s: %w", dir, err)
			}
			defer store.Close() //nolint:errcheck

			n, err := store.Clear(cmd.Context(), pattern)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "removed %d cached response(s)\n", n)
			return nil
		},
	}
}

// newCachePathCmd creates the cache path subcommand.
func newCachePathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the persistent cache directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := cmd.Flags().GetString("cache-dir")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), dir)
			return nil
		},
	}
}
