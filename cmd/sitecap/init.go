package main

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

//go:embed templates/session.yaml
var sessionTemplate embed.FS

// sessionFileName is the default session config file name.
const sessionFileName = "session.yaml"

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write an example session configuration file",
		Long: `Init creates a session.yaml in the current directory with every
available option documented. Edit start_url and scenario, then run it
with "sitecap record session.yaml".

Examples:
  # Create session.yaml in the current directory
  sitecap init

  # Create the config at a specific path
  sitecap init -o checkout.yaml

  # Overwrite an existing file
  sitecap init -f`,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", sessionFileName,
		"Output file path for the configuration")
	cmd.Flags().BoolP("force", "f", false,
		"Overwrite existing configuration file")

	return cmd
}

// runInitCmd executes the init command.
func runInitCmd(cmd *cobra.Command, _ []string) error {
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}

	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}

	if !force {
		if _, err := os.Stat(outputPath); err == nil {
			return fmt.Errorf("configuration file already exists: %s (use -f to overwrite)", outputPath)
		}
	}

	content, err := sessionTemplate.ReadFile("templates/session.yaml")
	if err != nil {
		return fmt.Errorf("read config template: %w", err)
	}

	dir := filepath.Dir(outputPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("create directory: %w", err)
		}
	}

	if err := os.WriteFile(outputPath, content, 0o600); err != nil {
		return fmt.Errorf("write configuration file: %w", err)
	}

	fmt.Printf("Created configuration file: %s\n", outputPath)
	fmt.Println("\nEdit start_url and scenario, then run:")
	fmt.Printf("  sitecap record %s\n", outputPath)

	return nil
}
