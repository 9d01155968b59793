package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/memoirist/memoir-core/internal/domain/services"
)

func newMergeCmd() *cobra.Command {
	var preview bool

	cmd := &cobra.Command{
		Use:   "merge <primary-id> <other-id>...",
		Short: "Merge duplicate entities into one",
		Long: `Consolidates two or more entities into the primary. The absorbed
entities' names become aliases of the primary, relationships are unioned,
and mention counts are summed. The write is all-or-nothing.

Use --preview to see the consolidated result and any warnings without
changing anything.

Examples:
  memoir merge -u alice 4f2a... 9c1b...
  memoir merge -u alice 4f2a... 9c1b... 77de... --preview`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMerge(cmd, args, preview)
		},
	}

	cmd.Flags().BoolVar(&preview, "preview", false, "Show the merge result without applying it")

	return cmd
}

func runMerge(cmd *cobra.Command, args []string, preview bool) error {
	ctx := cmd.Context()
	primaryID := args[0]

	return withDeps(ctx, func(d *Deps) error {
		var result *services.MergeResult
		var err error
		if preview {
			result, err = d.MergeHandler.Preview(ctx, args, primaryID)
		} else {
			result, err = d.MergeHandler.Handle(ctx, args, primaryID)
		}
		if err != nil {
			return fmt.Errorf("merging entities: %w", err)
		}

		for _, warning := range result.Warnings {
			fmt.Printf("warning: %s\n", warning)
		}

		survivor := result.Survivor
		verb := "Merged"
		if preview {
			verb = "Would merge"
		}
		fmt.Printf("%s %s into %s (%s)\n",
			verb, strings.Join(result.AbsorbedIDs, ", "), survivor.ID, survivor.CanonicalName)
		if len(survivor.Aliases) > 0 {
			fmt.Printf("  aliases: %s\n", strings.Join(survivor.Aliases, ", "))
		}
		fmt.Printf("  mentions: %d\n", survivor.MentionCount)
		return nil
	})
}
