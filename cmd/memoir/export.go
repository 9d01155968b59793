package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

func newExportCmd() *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export all entities as JSON",
		Long: `Writes every entity of the user as a JSON array, to stdout or to the
file given with --output.

Examples:
  memoir export -u alice
  memoir export -u alice --output people.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, outPath)
		},
	}

	cmd.Flags().StringVarP(&outPath, "output", "o", "", "Write to a file instead of stdout")

	return cmd
}

func runExport(cmd *cobra.Command, outPath string) error {
	ctx := cmd.Context()

	var w io.Writer = os.Stdout
	if outPath != "" {
		file, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer file.Close()
		w = file
	}

	return withDeps(ctx, func(d *Deps) error {
		count, err := d.EntityHandler.Export(ctx, globalUser, w)
		if err != nil {
			return fmt.Errorf("exporting entities: %w", err)
		}
		if outPath != "" {
			fmt.Printf("Exported %d entities to %s\n", count, outPath)
		}
		return nil
	})
}
