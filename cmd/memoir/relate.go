package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/memoirist/memoir-core/internal/domain/entities"
)

func newRelateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "relate <entity-id> <kind> <name>",
		Short: "Record a relationship on an entity",
		Long: `Records that an entity has a relationship of the given kind to a named
person. The name is stored as written; it does not need to resolve to a
known entity.

Valid kinds:
  spouse, parent, child, sibling, friend, colleague, grandparent, grandchild

Examples:
  memoir relate -u alice 4f2a... spouse "Caroline Cadario"
  memoir relate -u alice 4f2a... child Tom`,
		Args: cobra.ExactArgs(3),
		RunE: runRelate,
	}
}

func runRelate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	entityID := args[0]
	kind := entities.RelationKind(args[1])
	name := args[2]

	return withDeps(ctx, func(d *Deps) error {
		entity, err := d.EntityHandler.Relate(ctx, entityID, kind, name)
		if err != nil {
			return fmt.Errorf("recording relationship: %w", err)
		}

		fmt.Printf("%s -[%s]-> %s\n", entity.CanonicalName, kind, name)
		return nil
	})
}
