package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scrollstage",
		Short: "Scroll-driven page choreography and scratch-to-reveal",
		Long: `scrollstage maps a page's scroll position onto region progress, step
sequences and animated channels, and gates the page behind a
scratch-to-reveal surface.

Layouts are YAML files. Without --layout, scrollstage.yaml is looked up in
the working directory and then in $XDG_CONFIG_HOME/scrollstage/; the
built-in onboarding layout is used when neither exists.

Environment variables SCROLLSTAGE_DEBUG, SCROLLSTAGE_WIDTH,
SCROLLSTAGE_HEIGHT, SCROLLSTAGE_LAYOUT and SCROLLSTAGE_LOG_MODE provide
defaults for the matching flags.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringP("layout", "l", "", "Layout file (default: search, then built-in)")
	cmd.PersistentFlags().BoolP("debug", "d", false, "Log per-update stats at debug level")

	cmd.AddCommand(NewRunCmd())
	cmd.AddCommand(NewValidateCmd())
	cmd.AddCommand(NewCalibrateCmd())
	cmd.AddCommand(NewTraceCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
