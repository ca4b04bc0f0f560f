package scrollstage

import (
	"fmt"
	"math"
	"sort"
)

// Threshold is one cut point of a ThresholdTable: from Progress (inclusive)
// up to the next cut, the classified step is Step.
type Threshold struct {
	Progress float64
	Step     int
}

// ThresholdTable maps continuous progress to discrete step ordinals.
//
// Progress below the first cut and at or above the last cut both classify as
// Inactive: content is hidden before the sequence starts and hidden again
// once it completes. The last cut's Step is therefore never reported.
type ThresholdTable struct {
	cuts []Threshold
}

// NewThresholdTable validates and returns a table. Cuts must lie in [0,1],
// be strictly increasing, number at least two, and every cut but the last
// must name a non-negative step.
func NewThresholdTable(cuts ...Threshold) (ThresholdTable, error) {
	if len(cuts) < 2 {
		return ThresholdTable{}, fmt.Errorf("%w: need at least 2 cuts, got %d", ErrInvalidThresholds, len(cuts))
	}
	for i, c := range cuts {
		if c.Progress < 0 || c.Progress > 1 || math.IsNaN(c.Progress) {
			return ThresholdTable{}, fmt.Errorf("%w: cut %d progress %v outside [0,1]", ErrInvalidThresholds, i, c.Progress)
		}
		if i > 0 && c.Progress <= cuts[i-1].Progress {
			return ThresholdTable{}, fmt.Errorf("%w: cut %d progress %v not after %v", ErrInvalidThresholds, i, c.Progress, cuts[i-1].Progress)
		}
		if i < len(cuts)-1 && c.Step < 0 {
			return ThresholdTable{}, fmt.Errorf("%w: inner cut %d maps to inactive step", ErrInvalidThresholds, i)
		}
	}
	own := make([]Threshold, len(cuts))
	copy(own, cuts)
	return ThresholdTable{cuts: own}, nil
}

// MustThresholdTable is like NewThresholdTable but panics on error.
func MustThresholdTable(cuts ...Threshold) ThresholdTable {
	t, err := NewThresholdTable(cuts...)
	if err != nil {
		panic(err)
	}
	return t
}

// OnboardingThresholds returns the six-step onboarding table used by the
// pinned phone section: steps 0-5 between 15% and 95% progress.
func OnboardingThresholds() ThresholdTable {
	return MustThresholdTable(
		Threshold{0.15, 0},
		Threshold{0.28, 1},
		Threshold{0.42, 2},
		Threshold{0.56, 3},
		Threshold{0.70, 4},
		Threshold{0.84, 5},
		Threshold{0.95, Inactive},
	)
}

// Len returns the number of cut points.
func (t ThresholdTable) Len() int {
	return len(t.cuts)
}

// Cuts returns a copy of the cut points.
func (t ThresholdTable) Cuts() []Threshold {
	out := make([]Threshold, len(t.cuts))
	copy(out, t.cuts)
	return out
}

// Classify returns the step for progress p.
func (t ThresholdTable) Classify(p float64) int {
	return Classify(p, t)
}

// Classify maps progress to a step ordinal through table. It is a pure
// function: equal inputs always give equal outputs.
func Classify(p float64, table ThresholdTable) int {
	n := len(table.cuts)
	if n == 0 || math.IsNaN(p) {
		return Inactive
	}
	// k = number of cuts at or below p.
	k := sort.Search(n, func(i int) bool { return table.cuts[i].Progress > p })
	if k == 0 || k == n {
		return Inactive
	}
	return table.cuts[k-1].Step
}

// StepTracker classifies a stream of progress values and reports only
// changes of step.
type StepTracker struct {
	table    ThresholdTable
	current  int
	fn       func(step, prev int)
	detached bool
}

// NewStepTracker returns a tracker starting at Inactive. fn may be nil.
func NewStepTracker(table ThresholdTable, fn func(step, prev int)) *StepTracker {
	return &StepTracker{table: table, current: Inactive, fn: fn}
}

// Observe classifies p. When the step differs from the previous one, the
// callback fires with (step, prev) and changed is true.
func (s *StepTracker) Observe(p float64) (step int, changed bool) {
	if s.detached {
		return s.current, false
	}
	step = s.table.Classify(p)
	if step == s.current {
		return step, false
	}
	prev := s.current
	s.current = step
	if s.fn != nil {
		s.fn(step, prev)
	}
	return step, true
}

// Current returns the last classified step.
func (s *StepTracker) Current() int {
	return s.current
}

// Detach stops all further callbacks.
func (s *StepTracker) Detach() {
	s.detached = true
	s.fn = nil
}
