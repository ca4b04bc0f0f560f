package main

import (
	"fmt"
	"os"
	"slices"

	"github.com/phanxgames/scrollstage"
	"github.com/phanxgames/scrollstage/ebitenhost"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// NewRunCmd creates the run command.
func NewRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Open a window and run a layout",
		Long: `Run opens a window showing the layout's channel targets behind the
scratch-to-reveal surface. Scroll with the wheel, Space or Page Up/Down;
Left/Right cycle the use case; F12 writes a mask snapshot.

Examples:
  # Run the built-in onboarding layout
  scrollstage run

  # Replay a scripted session and exit when it finishes
  scrollstage run --script session.json --snapshots out/`,
		RunE: runRunCmd,
	}

	cmd.Flags().String("script", "", "JSON test script to replay")
	cmd.Flags().String("snapshots", "snapshots", "Directory for mask snapshots")
	cmd.Flags().Bool("fps", false, "Show FPS and scroll offset")
	cmd.Flags().String("use-case", "", "Initial use case (industrial, fashion, art)")

	return cmd
}

func runRunCmd(cmd *cobra.Command, _ []string) error {
	env, err := loadSettings()
	if err != nil {
		return err
	}
	s, err := env.resolve(cmd)
	if err != nil {
		return err
	}
	logger, err := newLogger(s.LogMode, s.Debug)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	layout, source, err := loadLayout(s.Layout)
	if err != nil {
		return err
	}
	logger.Info("layout loaded", zap.String("source", source),
		zap.Int("sections", len(layout.Sections)), zap.Int("regions", len(layout.Regions)))

	ctrl := layout.NewController(logger)
	defer ctrl.Close()
	ctrl.SetDebugMode(s.Debug)
	if ctrl.SnapshotDir, err = cmd.Flags().GetString("snapshots"); err != nil {
		return err
	}
	name, err := cmd.Flags().GetString("use-case")
	if err != nil {
		return err
	}
	if name != "" {
		u, err := scrollstage.ParseUseCase(name)
		if err != nil {
			return err
		}
		ctrl.SetUseCase(u)
	}

	var runner *scrollstage.TestRunner
	path, err := cmd.Flags().GetString("script")
	if err != nil {
		return err
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read script: %w", err)
		}
		if runner, err = scrollstage.LoadTestScript(data); err != nil {
			return err
		}
		ctrl.SetTestRunner(runner)
	}

	showFPS, err := cmd.Flags().GetBool("fps")
	if err != nil {
		return err
	}
	vp := ctrl.Viewport()
	host := ebitenhost.New(ctrl, ebitenhost.RunConfig{
		Title:   "scrollstage",
		Width:   s.Width,
		Height:  s.Height,
		ShowFPS: showFPS,
		Layout:  layout,
		Targets: ebitenhost.GridTargets(channelTargets(layout), 3, scrollstage.Rect{
			X: vp.Width * 0.1, Y: vp.Height * 0.1, Width: vp.Width * 0.8, Height: vp.Height * 0.8,
		}),
		Script: runner,
	})
	if _, err := layout.Apply(ctrl, scrollstage.Hooks{
		Apply: host.Apply,
		Step: func(regionID string, step, prev int) {
			logger.Debug("step", zap.String("region", regionID), zap.Int("step", step), zap.Int("prev", prev))
		},
	}); err != nil {
		return err
	}
	ctrl.OnReveal(func(ev scrollstage.RevealEvent) {
		fmt.Fprintf(cmd.OutOrStdout(), "revealed (manual=%v)\n", ev.Manual)
	})

	return host.Run()
}

// channelTargets lists every channel target of the layout once, in
// layout order.
func channelTargets(l *scrollstage.Layout) []string {
	var names []string
	for _, rs := range l.Regions {
		for _, ch := range rs.Channels {
			if !slices.Contains(names, ch.Target) {
				names = append(names, ch.Target)
			}
		}
	}
	return names
}
