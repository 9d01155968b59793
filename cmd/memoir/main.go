// Package main provides the entry point for the memoir CLI application.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	version       = "0.1.0-dev"
	globalUser    string
	globalVerbose bool
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	rootCmd := &cobra.Command{
		Use:     "memoir",
		Short:   "An entity resolution engine for personal memoirs",
		Version: version,
	}

	rootCmd.PersistentFlags().StringVarP(&globalUser, "user", "u", "", "User to operate on (required)")
	rootCmd.PersistentFlags().BoolVarP(&globalVerbose, "verbose", "v", false, "Enable verbose logging")

	rootCmd.AddCommand(
		newInitCmd(),
		newResolveCmd(),
		newConfirmCmd(),
		newEntitiesCmd(),
		newRelateCmd(),
		newMergeCmd(),
		newHistoryCmd(),
		newImportCmd(),
		newExportCmd(),
	)

	return rootCmd.ExecuteContext(ctx)
}
