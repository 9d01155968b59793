package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/memoirist/memoir-core/internal/infrastructure/config"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize a new memoir database",
		Long:  "Creates a .memoir directory with default configuration.",
		RunE:  runInit,
	}
}

func runInit(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	if config.Exists(cwd) {
		return fmt.Errorf("memoir already initialized in %s", cwd)
	}

	cfg := config.Default()
	if err := cfg.Save(cwd); err != nil {
		return fmt.Errorf("writing default config: %w", err)
	}

	fmt.Printf("Created %s\n", config.ConfigFilePath(cwd))
	fmt.Println("Set OPENAI_API_KEY (or edit the config) before resolving mentions.")
	fmt.Println("Memoir initialized successfully!")

	return nil
}
