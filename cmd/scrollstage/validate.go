package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"
	"github.com/phanxgames/scrollstage"
	"github.com/spf13/cobra"
)

// NewValidateCmd creates the validate command.
func NewValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [file]",
		Short: "Check a layout file and summarise its regions",
		Long: `Validate parses a layout, checks markers, triggers, step tables,
channel properties and eases, and prints a Markdown summary of the regions.

Examples:
  scrollstage validate scrollstage.yaml
  scrollstage validate --layout page.yaml`,
		Args: cobra.MaximumNArgs(1),
		RunE: runValidateCmd,
	}
}

func runValidateCmd(cmd *cobra.Command, args []string) error {
	env, err := loadSettings()
	if err != nil {
		return err
	}
	s, err := env.resolve(cmd)
	if err != nil {
		return err
	}
	path := s.Layout
	if len(args) == 1 {
		path = args[0]
	}
	layout, source, err := loadLayout(path)
	if err != nil {
		return err
	}
	return writeLayoutSummary(cmd.OutOrStdout(), layout, source)
}

func writeLayoutSummary(w io.Writer, l *scrollstage.Layout, source string) error {
	md := markdown.NewMarkdown(w)
	md.H2("Layout " + source)
	md.PlainText("")
	md.PlainTextf("%d sections, %d regions, viewport %vx%v", len(l.Sections), len(l.Regions), l.Viewport.Width, l.Viewport.Height)
	md.PlainText("")

	rows := make([][]string, 0, len(l.Regions))
	for _, rs := range l.Regions {
		steps := "-"
		if len(rs.Steps) > 0 {
			steps = strconv.Itoa(len(rs.Steps)-1) + " steps"
		}
		rows = append(rows, []string{
			rs.ID,
			orDash(rs.Trigger),
			"`" + rs.Start + "`",
			"`" + rs.End + "`",
			strconv.FormatFloat(rs.Scrub, 'f', -1, 64),
			strconv.FormatBool(rs.Pin),
			steps,
			strconv.Itoa(len(rs.Channels)),
		})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Region", "Trigger", "Start", "End", "Scrub", "Pin", "Steps", "Channels"},
		Rows:   rows,
	})

	if r := l.Reveal; r != nil {
		md.PlainText("")
		md.PlainTextf("Reveal: %s surface, threshold %v, stride %d, brush %v", r.Size, r.Threshold, r.Stride, r.BrushRadius)
	}
	if err := md.Build(); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	return nil
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
