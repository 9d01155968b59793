package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/memoirist/memoir-core/internal/domain/entities"
)

func newConfirmCmd() *cobra.Command {
	var filePath string

	cmd := &cobra.Command{
		Use:   "confirm",
		Short: "Apply entity resolution decisions",
		Long: `Applies a batch of confirmations: for each mention, link it to an
existing entity, create a new one, or skip it.

Confirmations are read as a JSON array from --file or stdin:
  [
    {"mention_text": "Caro", "action": "link", "linked_entity_id": "..."},
    {"mention_text": "Kevin", "action": "new", "new_entity": {"canonical_name": "Kevin"}},
    {"mention_text": "Tom", "action": "skip"}
  ]

Each confirmation is applied independently; one failure never rolls back
the others.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfirm(cmd, filePath)
		},
	}

	cmd.Flags().StringVarP(&filePath, "file", "f", "", "Read confirmations from a file instead of stdin")

	return cmd
}

func runConfirm(cmd *cobra.Command, filePath string) error {
	ctx := cmd.Context()

	confirmations, err := readConfirmations(filePath)
	if err != nil {
		return err
	}

	return withDeps(ctx, func(d *Deps) error {
		result, err := d.ConfirmationHandler.Handle(ctx, globalUser, confirmations)
		if err != nil && result == nil {
			return err
		}

		for _, outcome := range result.Outcomes {
			switch {
			case outcome.Err != nil:
				fmt.Printf("failed  %q: %v\n", outcome.Confirmation.MentionText, outcome.Err)
			case outcome.Created:
				fmt.Printf("created %q as entity %s\n", outcome.Confirmation.MentionText, outcome.EntityID)
			case outcome.Confirmation.Action == entities.ActionSkip:
				fmt.Printf("skipped %q\n", outcome.Confirmation.MentionText)
			case outcome.AliasAdded:
				fmt.Printf("linked  %q to %s (new alias)\n", outcome.Confirmation.MentionText, outcome.EntityID)
			default:
				fmt.Printf("linked  %q to %s\n", outcome.Confirmation.MentionText, outcome.EntityID)
			}
		}
		fmt.Printf("%d succeeded, %d failed\n", result.Succeeded, result.Failed)
		return err
	})
}

// readConfirmations decodes the confirmation batch from a file or stdin.
func readConfirmations(filePath string) ([]entities.EntityConfirmation, error) {
	var r io.Reader = os.Stdin
	if filePath != "" {
		file, err := os.Open(filePath)
		if err != nil {
			return nil, fmt.Errorf("opening file: %w", err)
		}
		defer file.Close()
		r = file
	}

	var confirmations []entities.EntityConfirmation
	if err := json.NewDecoder(r).Decode(&confirmations); err != nil {
		return nil, fmt.Errorf("parsing confirmations: %w", err)
	}
	if len(confirmations) == 0 {
		return nil, fmt.Errorf("no confirmations provided")
	}
	return confirmations, nil
}
