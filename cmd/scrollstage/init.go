package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/phanxgames/scrollstage"
	"github.com/spf13/cobra"
)

const layoutFileName = "scrollstage.yaml"

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the built-in layout to a file",
		Long: `Init writes the built-in onboarding layout as a starting point for your
own page. The file is found automatically when it sits in the working
directory or under $XDG_CONFIG_HOME/scrollstage.

Examples:
  scrollstage init
  scrollstage init -o pages/landing.yaml
  scrollstage init -f`,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", layoutFileName, "Output file path")
	cmd.Flags().BoolP("force", "f", false, "Overwrite an existing file")

	return cmd
}

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
			return fmt.Errorf("layout file already exists: %s (use -f to overwrite)", outputPath)
		}
	}

	if dir := filepath.Dir(outputPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("create directory: %w", err)
		}
	}
	if err := os.WriteFile(outputPath, scrollstage.DefaultLayoutYAML(), 0o600); err != nil {
		return fmt.Errorf("write layout: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created layout file: %s\n", outputPath)
	return nil
}
