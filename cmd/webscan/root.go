package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for webscan.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "webscan",
		Short: "Website assessment engine",
		Long: `webscan crawls a website and runs assessment modules against it.

It discovers pages, forms, and API endpoints, then checks security
headers, cookies, performance, SEO, accessibility, API exposure, and
image metadata. Responses are cached so repeated scans of the same
target stay cheap.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewScanCmd())
	cmd.AddCommand(NewCacheCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
