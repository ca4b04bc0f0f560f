package main

import (
	"fmt"
	"io"
	"slices"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/phanxgames/scrollstage"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// NewTraceCmd creates the trace command.
func NewTraceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Print region progress over a scroll range",
		Long: `Trace mounts a layout on a headless controller, scrolls it through a
range in fixed steps and prints every region's progress, plus the current
step of regions with a step table, as a Markdown table.

Examples:
  scrollstage trace
  scrollstage trace --from 800 --to 4800 --step 400 --regions onboarding`,
		RunE: runTraceCmd,
	}

	cmd.Flags().Float64("from", 0, "First scroll offset")
	cmd.Flags().Float64("to", 0, "Last scroll offset (default: end of the page)")
	cmd.Flags().Float64("step", 200, "Scroll increment")
	cmd.Flags().StringSlice("regions", nil, "Only trace these regions")

	return cmd
}

func runTraceCmd(cmd *cobra.Command, _ []string) error {
	env, err := loadSettings()
	if err != nil {
		return err
	}
	s, err := env.resolve(cmd)
	if err != nil {
		return err
	}
	layout, _, err := loadLayout(s.Layout)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	from, err := flags.GetFloat64("from")
	if err != nil {
		return err
	}
	to, err := flags.GetFloat64("to")
	if err != nil {
		return err
	}
	step, err := flags.GetFloat64("step")
	if err != nil {
		return err
	}
	regions, err := flags.GetStringSlice("regions")
	if err != nil {
		return err
	}

	vp := scrollstage.Viewport{Width: layout.Viewport.Width, Height: layout.Viewport.Height}
	if s.Width > 0 && s.Height > 0 {
		vp = scrollstage.Viewport{Width: float64(s.Width), Height: float64(s.Height)}
	}
	res, err := traceLayout(layout, vp, traceRange{From: from, To: to, Step: step}, regions)
	if err != nil {
		return err
	}
	return res.write(cmd.OutOrStdout())
}

type traceRange struct {
	From, To, Step float64
}

type traceResult struct {
	Header []string
	Rows   [][]string
}

// traceLayout scrolls a fresh controller through r and samples every
// region after each step. A zero r.To means the end of the page.
func traceLayout(l *scrollstage.Layout, vp scrollstage.Viewport, r traceRange, only []string) (*traceResult, error) {
	if r.Step <= 0 {
		return nil, fmt.Errorf("trace: step must be positive")
	}
	ctrl := l.NewController(zap.NewNop())
	defer ctrl.Close()
	ctrl.Resize(vp.Width, vp.Height)

	m, err := l.Apply(ctrl, scrollstage.Hooks{})
	if err != nil {
		return nil, err
	}
	if r.To <= 0 {
		r.To = max(0, l.ContentHeight(vp)+ctrl.TotalPinSpacing()-vp.Height)
	}
	if r.To < r.From {
		return nil, fmt.Errorf("trace: range end %v before start %v", r.To, r.From)
	}

	var ids, stepIDs []string
	for _, rs := range l.Regions {
		if len(only) > 0 && !slices.Contains(only, rs.ID) {
			continue
		}
		ids = append(ids, rs.ID)
		if m.Steps[rs.ID] != nil {
			stepIDs = append(stepIDs, rs.ID)
		}
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("trace: no regions match %v", only)
	}

	res := &traceResult{Header: []string{"ScrollY"}}
	res.Header = append(res.Header, ids...)
	for _, id := range stepIDs {
		res.Header = append(res.Header, "step("+id+")")
	}

	for y := r.From; y <= r.To; y += r.Step {
		ctrl.Scroll(y)
		row := []string{strconv.FormatFloat(y, 'f', 0, 64)}
		for _, id := range ids {
			p, ok := ctrl.Progress(m.Regions[id])
			if !ok {
				row = append(row, "-")
				continue
			}
			row = append(row, strconv.FormatFloat(p, 'f', 3, 64))
		}
		for _, id := range stepIDs {
			row = append(row, strconv.Itoa(m.Steps[id].Current()))
		}
		res.Rows = append(res.Rows, row)
	}
	return res, nil
}

func (r *traceResult) write(w io.Writer) error {
	md := markdown.NewMarkdown(w)
	md.Table(markdown.TableSet{Header: r.Header, Rows: r.Rows})
	if err := md.Build(); err != nil {
		return fmt.Errorf("write trace: %w", err)
	}
	return nil
}
