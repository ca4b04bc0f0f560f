package scrollstage

import (
	"errors"
	"testing"
)

func TestClassifyOnboardingTable(t *testing.T) {
	table := OnboardingThresholds()
	tests := []struct {
		p    float64
		want int
	}{
		{0, Inactive},
		{0.05, Inactive},
		{0.1499, Inactive},
		{0.15, 0},
		{0.20, 0},
		{0.28, 1},
		{0.30, 1},
		{0.42, 2},
		{0.56, 3},
		{0.69, 3},
		{0.70, 4},
		{0.84, 5},
		{0.94, 5},
		{0.95, Inactive},
		{0.97, Inactive},
		{1, Inactive},
	}
	for _, tt := range tests {
		if got := Classify(tt.p, table); got != tt.want {
			t.Errorf("Classify(%v) = %d, want %d", tt.p, got, tt.want)
		}
	}
}

func TestClassifyReplayIsPure(t *testing.T) {
	table := OnboardingThresholds()
	seq := []float64{0.9, 0.1, 0.5, 0.3, 0.97, 0.2, 0.5}
	first := make([]int, len(seq))
	for i, p := range seq {
		first[i] = Classify(p, table)
	}
	for i := len(seq) - 1; i >= 0; i-- {
		if got := Classify(seq[i], table); got != first[i] {
			t.Errorf("replay Classify(%v) = %d, want %d", seq[i], got, first[i])
		}
	}
}

func TestNewThresholdTableRejects(t *testing.T) {
	tests := []struct {
		name string
		cuts []Threshold
	}{
		{"too few", []Threshold{{0.5, 0}}},
		{"not increasing", []Threshold{{0.5, 0}, {0.5, 1}}},
		{"decreasing", []Threshold{{0.6, 0}, {0.4, 1}}},
		{"above one", []Threshold{{0.5, 0}, {1.2, 1}}},
		{"below zero", []Threshold{{-0.1, 0}, {0.4, 1}}},
		{"inner sentinel", []Threshold{{0.1, 0}, {0.4, Inactive}, {0.8, 2}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewThresholdTable(tt.cuts...)
			if !errors.Is(err, ErrInvalidThresholds) {
				t.Errorf("err = %v, want ErrInvalidThresholds", err)
			}
		})
	}
}

func TestNewThresholdTableCopiesInput(t *testing.T) {
	cuts := []Threshold{{0.2, 0}, {0.8, 1}}
	table, err := NewThresholdTable(cuts...)
	if err != nil {
		t.Fatal(err)
	}
	cuts[0].Progress = 0.9
	if got := table.Cuts()[0].Progress; got != 0.2 {
		t.Errorf("table changed with caller slice: %v", got)
	}
	if table.Len() != 2 {
		t.Errorf("Len = %d, want 2", table.Len())
	}
}

func TestStepTrackerEmitsOnChangeOnly(t *testing.T) {
	type change struct{ step, prev int }
	var got []change
	st := NewStepTracker(OnboardingThresholds(), func(step, prev int) {
		got = append(got, change{step, prev})
	})
	if st.Current() != Inactive {
		t.Fatalf("initial Current = %d, want Inactive", st.Current())
	}

	for _, p := range []float64{0.20, 0.21, 0.30, 0.30, 0.97, 0.99, 0.05} {
		st.Observe(p)
	}

	want := []change{{0, Inactive}, {1, 0}, {Inactive, 1}}
	if len(got) != len(want) {
		t.Fatalf("changes = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("change %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestStepTrackerDetach(t *testing.T) {
	calls := 0
	st := NewStepTracker(OnboardingThresholds(), func(int, int) { calls++ })
	st.Observe(0.2)
	st.Detach()
	st.Observe(0.5)
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}
