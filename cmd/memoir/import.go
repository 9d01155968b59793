package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

func newImportCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import person entities from a file",
		Long: `Imports person records from a JSON or CSV file. Records whose name is
already known are skipped; invalid records are reported and the rest of
the batch continues.

Examples:
  memoir import -u alice people.json
  memoir import -u alice people.csv --format csv`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, args[0], format)
		},
	}

	cmd.Flags().StringVar(&format, "format", "", "File format (json or csv, inferred from extension by default)")

	return cmd
}

func runImport(cmd *cobra.Command, filePath, format string) error {
	ctx := cmd.Context()

	if format == "" {
		format = strings.TrimPrefix(filepath.Ext(filePath), ".")
	}

	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("opening file: %w", err)
	}
	defer file.Close()

	return withDeps(ctx, func(d *Deps) error {
		result, err := d.EntityHandler.Import(ctx, globalUser, file, format)
		if err != nil {
			return fmt.Errorf("importing entities: %w", err)
		}

		for _, msg := range result.Errors {
			fmt.Printf("error: %s\n", msg)
		}
		fmt.Printf("Imported %d entities (%d skipped, %d errors)\n",
			result.Imported, result.Skipped, len(result.Errors))
		return nil
	})
}
