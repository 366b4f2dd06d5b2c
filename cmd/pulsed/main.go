package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "pulsed",
		Short: "Server-side reactive component engine",
		Long: `pulsed hosts server-side reactive components.

Clients post batches of incremental updates (property syncs, record
mutations, method calls) against live component instances; pulsed
applies them atomically, re-renders, and returns the new markup with
the reconciled data snapshot.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		serveCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}
