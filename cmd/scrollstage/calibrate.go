package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/phanxgames/scrollstage"
	"github.com/spf13/cobra"
)

// NewCalibrateCmd creates the calibrate command.
func NewCalibrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "calibrate",
		Short: "Derive reveal thresholds for other surface sizes",
		Long: `The reveal threshold is a fraction of strided alpha samples, and the
corners outside the circular canvas count as cleared from the start. The
same threshold therefore asks for a different amount of scratching at
another size or stride.

Calibrate measures the fresh-mask baseline at the reference size, derives
the share of the circle the reference threshold demands, and maps that
share back to a threshold for each requested size. Each row also replays a
top-to-bottom sweep and reports how far it got before the surface revealed.

Examples:
  scrollstage calibrate
  scrollstage calibrate --sizes 240,320 --stride 40`,
		RunE: runCalibrateCmd,
	}

	cmd.Flags().IntSlice("sizes", []int{200, 288, 400, 600}, "Surface sizes in pixels")
	cmd.Flags().Int("stride", scrollstage.DefaultSampleStride, "Sample stride in pixels")
	cmd.Flags().Int("ref-size", 288, "Reference surface size")
	cmd.Flags().Float64("ref-threshold", scrollstage.DefaultRevealThreshold, "Threshold at the reference size")
	cmd.Flags().Float64("radius", scrollstage.DefaultBrushRadius, "Brush radius used by the sweep")
	cmd.Flags().Uint64("seed", 1, "Cover speckle seed")

	return cmd
}

func runCalibrateCmd(cmd *cobra.Command, _ []string) error {
	flags := cmd.Flags()
	sizes, err := flags.GetIntSlice("sizes")
	if err != nil {
		return err
	}
	stride, err := flags.GetInt("stride")
	if err != nil {
		return err
	}
	refSize, err := flags.GetInt("ref-size")
	if err != nil {
		return err
	}
	refThreshold, err := flags.GetFloat64("ref-threshold")
	if err != nil {
		return err
	}
	radius, err := flags.GetFloat64("radius")
	if err != nil {
		return err
	}
	seed, err := flags.GetUint64("seed")
	if err != nil {
		return err
	}

	if stride <= 0 || refSize <= 0 || radius <= 0 {
		return fmt.Errorf("calibrate: stride, ref-size and radius must be positive")
	}
	if refThreshold <= 0 || refThreshold >= 1 {
		return fmt.Errorf("calibrate: ref-threshold %v outside (0,1)", refThreshold)
	}

	share := circleShare(baseline(refSize, stride, seed), refThreshold)
	results := make([]calibration, 0, len(sizes))
	for _, size := range sizes {
		if size <= 0 {
			return fmt.Errorf("calibrate: invalid size %d", size)
		}
		results = append(results, calibrate(size, stride, share, radius, seed))
	}
	return writeCalibration(cmd.OutOrStdout(), results, refSize, refThreshold, share)
}

type calibration struct {
	Size      int
	Samples   int
	Baseline  float64
	Threshold float64
	// Sweep is the fraction of the surface height a row-by-row sweep covered
	// when the surface revealed; 1 if it never did.
	Sweep float64
}

// baseline is the sampled fraction of a fresh size×size mask.
func baseline(size, stride int, seed uint64) float64 {
	s := scrollstage.NewRevealSurface(scrollstage.RevealConfig{Stride: stride, Seed: seed})
	s.InitializeMask(size, size)
	return s.SampleCoverage()
}

// circleShare converts a threshold into the share of initially covered
// samples that must be cleared.
func circleShare(base, threshold float64) float64 {
	if base >= 1 {
		return 0
	}
	return (threshold - base) / (1 - base)
}

func calibrate(size, stride int, share, radius float64, seed uint64) calibration {
	base := baseline(size, stride, seed)
	c := calibration{
		Size:      size,
		Samples:   (size*size + stride - 1) / stride,
		Baseline:  base,
		Threshold: base + share*(1-base),
		Sweep:     1,
	}

	s := scrollstage.NewRevealSurface(scrollstage.RevealConfig{
		Stride: stride, Threshold: c.Threshold, BrushRadius: radius, Seed: seed,
	})
	s.InitializeMask(size, size)
	s.Arm()
	n := float64(size)
	for y := radius; y-radius < n; y += radius {
		s.Erase(scrollstage.Segment{From: scrollstage.Vec2{X: 0, Y: y}, To: scrollstage.Vec2{X: n, Y: y}}, radius)
		if s.Revealed() {
			c.Sweep = min(1, (y+radius)/n)
			break
		}
	}
	return c
}

func writeCalibration(w io.Writer, results []calibration, refSize int, refThreshold, share float64) error {
	md := markdown.NewMarkdown(w)
	md.H2("Reveal threshold calibration")
	md.PlainText("")
	md.PlainTextf("Reference: %dpx at threshold %.3f, which clears %.1f%% of the covered samples.",
		refSize, refThreshold, share*100)
	md.PlainText("")

	rows := make([][]string, 0, len(results))
	for _, r := range results {
		rows = append(rows, []string{
			strconv.Itoa(r.Size),
			strconv.Itoa(r.Samples),
			strconv.FormatFloat(r.Baseline, 'f', 3, 64),
			strconv.FormatFloat(r.Threshold, 'f', 3, 64),
			strconv.FormatFloat(r.Sweep*100, 'f', 0, 64) + "%",
		})
	}
	md.Table(markdown.TableSet{
		Header:    []string{"Size", "Samples", "Baseline", "Threshold", "Sweep at reveal"},
		Rows:      rows,
		Alignment: []markdown.TableAlignment{markdown.AlignRight, markdown.AlignRight, markdown.AlignRight, markdown.AlignRight, markdown.AlignRight},
	})
	if err := md.Build(); err != nil {
		return fmt.Errorf("write calibration: %w", err)
	}
	return nil
}
