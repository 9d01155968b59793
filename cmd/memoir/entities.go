package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/memoirist/memoir-core/internal/domain/entities"
)

func newEntitiesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "entities",
		Short: "Manage resolved person entities",
	}

	cmd.AddCommand(
		newEntitiesListCmd(),
		newEntitiesSearchCmd(),
		newEntitiesShowCmd(),
		newEntitiesDeleteCmd(),
		newEntitiesReindexCmd(),
	)

	return cmd
}

func newEntitiesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all entities for the user",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return withDeps(ctx, func(d *Deps) error {
				known, err := d.EntityHandler.List(ctx, globalUser)
				if err != nil {
					return fmt.Errorf("listing entities: %w", err)
				}
				if len(known) == 0 {
					fmt.Println("No entities yet.")
					return nil
				}
				for _, entity := range known {
					printEntitySummary(entity)
				}
				fmt.Printf("%d entities\n", len(known))
				return nil
			})
		},
	}
}

func newEntitiesSearchCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search entities by name or alias",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return withDeps(ctx, func(d *Deps) error {
				found, err := d.EntityHandler.Search(ctx, globalUser, args[0], limit)
				if err != nil {
					return fmt.Errorf("searching entities: %w", err)
				}
				if len(found) == 0 {
					fmt.Println("No matching entities.")
					return nil
				}
				for _, entity := range found {
					printEntitySummary(entity)
				}
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of results")

	return cmd
}

func newEntitiesShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <entity-id>",
		Short: "Show one entity as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return withDeps(ctx, func(d *Deps) error {
				entity, err := d.EntityHandler.Get(ctx, args[0])
				if err != nil {
					return fmt.Errorf("loading entity: %w", err)
				}
				if entity == nil {
					return fmt.Errorf("entity not found: %s", args[0])
				}
				encoder := json.NewEncoder(os.Stdout)
				encoder.SetIndent("", "  ")
				return encoder.Encode(entity)
			})
		},
	}
}

func newEntitiesDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <entity-id>",
		Short: "Delete an entity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return withDeps(ctx, func(d *Deps) error {
				if err := d.EntityHandler.Delete(ctx, args[0]); err != nil {
					return fmt.Errorf("deleting entity: %w", err)
				}
				fmt.Printf("Deleted entity: %s\n", args[0])
				return nil
			})
		},
	}
}

func newEntitiesReindexCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reindex",
		Short: "Rebuild the profile index from stored entities",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return withDeps(ctx, func(d *Deps) error {
				enabled, err := d.EntityHandler.Reindex(ctx, globalUser)
				if err != nil {
					return fmt.Errorf("reindexing entities: %w", err)
				}
				if !enabled {
					fmt.Println("Profile index is disabled (enable the embedder in config).")
					return nil
				}
				fmt.Println("Profile index rebuilt.")
				return nil
			})
		},
	}
}

// printEntitySummary prints one line per entity for list/search output.
func printEntitySummary(entity *entities.PersonEntity) {
	line := fmt.Sprintf("%s  %s", entity.ID, entity.CanonicalName)
	if len(entity.Aliases) > 0 {
		line += fmt.Sprintf(" (aka %s)", strings.Join(entity.Aliases, ", "))
	}
	line += fmt.Sprintf("  [%d mentions]", entity.MentionCount)
	fmt.Println(line)
}
