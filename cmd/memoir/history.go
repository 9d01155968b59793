package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/memoirist/memoir-core/internal/domain/entities"
)

func newHistoryCmd() *cobra.Command {
	var action string
	var limit int

	cmd := &cobra.Command{
		Use:   "history [entity-id]",
		Short: "Show the audit trail for an entity",
		Long: `Shows the logged mutations for an entity, newest first. With --action
and no entity id, shows recent entries of one action type instead.

Examples:
  memoir history -u alice 4f2a...
  memoir history -u alice --action entity.merge --limit 10`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(cmd, args, action, limit)
		},
	}

	cmd.Flags().StringVar(&action, "action", "", "Filter by action type instead of entity")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of entries (with --action)")

	return cmd
}

func runHistory(cmd *cobra.Command, args []string, action string, limit int) error {
	ctx := cmd.Context()

	return withDeps(ctx, func(d *Deps) error {
		var entries []entities.AuditEntry
		var err error
		switch {
		case len(args) == 1:
			entries, err = d.EntityHandler.History(ctx, args[0])
		case action != "":
			entries, err = d.EntityHandler.HistoryByAction(ctx, action, limit)
		default:
			return fmt.Errorf("entity id or --action is required")
		}
		if err != nil {
			return fmt.Errorf("loading history: %w", err)
		}

		if len(entries) == 0 {
			fmt.Println("No history.")
			return nil
		}
		for _, entry := range entries {
			line := fmt.Sprintf("%s  %-14s %s",
				entry.CreatedAt.Format("2006-01-02 15:04:05"), entry.Action, entry.EntityID)
			if len(entry.Details) > 0 {
				details, _ := json.Marshal(entry.Details)
				line += "  " + string(details)
			}
			fmt.Println(line)
		}
		return nil
	})
}
