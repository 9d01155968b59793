package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newResolveCmd() *cobra.Command {
	var filePath string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "resolve [text]",
		Short: "Suggest entity resolutions for mentions in a text",
		Long: `Extracts person mentions from a narrative text and suggests, for each
one, which known entity it refers to or whether it is a new person.

The text can be passed as an argument or read from a file with --file.

Examples:
  memoir resolve -u alice "Ma femme Caro et moi sommes allés voir Tom."
  memoir resolve -u alice --file chapter1.txt --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolve(cmd, args, filePath, asJSON)
		},
	}

	cmd.Flags().StringVarP(&filePath, "file", "f", "", "Read the text from a file")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output suggestions as JSON")

	return cmd
}

func runResolve(cmd *cobra.Command, args []string, filePath string, asJSON bool) error {
	ctx := cmd.Context()

	text, err := resolveInput(args, filePath)
	if err != nil {
		return err
	}

	return withDeps(ctx, func(d *Deps) error {
		result, err := d.ResolutionHandler.Handle(ctx, globalUser, text)
		if err != nil {
			return fmt.Errorf("resolving mentions: %w", err)
		}

		if asJSON {
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			return encoder.Encode(result.Suggestions)
		}

		if result.ExtractionDegraded {
			fmt.Println("Mention extraction is unavailable; no suggestions. Your text is unaffected.")
			return nil
		}
		if len(result.Suggestions) == 0 {
			fmt.Println("No person mentions found.")
			return nil
		}

		for i, suggestion := range result.Suggestions {
			fmt.Printf("%d. %q\n", i+1, suggestion.Mention.Text)
			if suggestion.IsNewEntity {
				fmt.Printf("   new entity suggested: %q\n", suggestion.SuggestedCanonicalName)
			}
			for _, match := range suggestion.PossibleMatches {
				fmt.Printf("   %3.0f%%  %s (%s)\n",
					match.TotalConfidence*100, match.Entity.CanonicalName, match.Reasoning)
			}
		}
		if result.DroppedSpans > 0 {
			fmt.Printf("(%d malformed span(s) dropped)\n", result.DroppedSpans)
		}
		return nil
	})
}

// resolveInput returns the narrative text from the argument or file flag.
func resolveInput(args []string, filePath string) (string, error) {
	if filePath != "" {
		data, err := os.ReadFile(filePath)
		if err != nil {
			return "", fmt.Errorf("reading file: %w", err)
		}
		return string(data), nil
	}
	if len(args) == 1 && args[0] != "" {
		return args[0], nil
	}
	return "", fmt.Errorf("text is required (pass it as an argument or use --file)")
}
