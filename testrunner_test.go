package scrollstage

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadTestScript(t *testing.T) {
	data := []byte(`{
		"steps": [
			{"action": "snapshot", "label": "initial"},
			{"action": "scroll", "y": 40},
			{"action": "drag", "fromX": 10, "fromY": 20, "toX": 30, "toY": 40, "frames": 4},
			{"action": "resize", "width": 640, "height": 480},
			{"action": "wait", "frames": 3},
			{"action": "click", "x": 100, "y": 200}
		]
	}`)

	runner, err := LoadTestScript(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if runner.Len() != 6 {
		t.Fatalf("expected 6 steps, got %d", runner.Len())
	}
	if runner.steps[1].Action != "scroll" || runner.steps[1].Y != 40 {
		t.Error("step 1 mismatch")
	}
	if st := runner.steps[2]; st.FromX != 10 || st.ToY != 40 || st.Frames != 4 {
		t.Error("step 2 mismatch")
	}
	if st := runner.steps[3]; st.Width != 640 || st.Height != 480 {
		t.Error("step 3 mismatch")
	}
}

func TestLoadTestScript_Invalid(t *testing.T) {
	tests := map[string]string{
		"not json":       `not json`,
		"empty":          `{"steps": []}`,
		"unknown action": `{"steps": [{"action": "screenshot"}]}`,
	}
	for name, data := range tests {
		if _, err := LoadTestScript([]byte(data)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestRunnerStep_Scroll(t *testing.T) {
	c := NewController(Options{Viewport: Viewport{Width: 800, Height: 600}})
	runner, err := LoadTestScript([]byte(`{"steps": [{"action": "scroll", "y": 120}]}`))
	if err != nil {
		t.Fatal(err)
	}
	c.SetTestRunner(runner)

	// The runner queues the scroll and the same update drains it.
	c.Update(1.0 / 60)
	if c.ScrollY() != 120 {
		t.Errorf("ScrollY = %v, want 120", c.ScrollY())
	}
	c.Update(1.0 / 60)
	if !runner.Done() {
		t.Error("runner should be done")
	}
	if !c.Revealed() {
		t.Error("scripted scroll past the force distance should reveal")
	}
}

func TestRunnerStep_Wait(t *testing.T) {
	c := NewController(Options{})
	runner, _ := LoadTestScript([]byte(`{"steps": [{"action": "wait", "frames": 3}, {"action": "scroll", "y": 10}]}`))
	c.SetTestRunner(runner)

	for i := 0; i < 3; i++ {
		c.Update(1.0 / 60)
		if c.ScrollY() != 0 {
			t.Fatalf("scroll ran during wait at update %d", i)
		}
	}
	c.Update(1.0 / 60)
	if c.ScrollY() != 10 {
		t.Errorf("ScrollY = %v after wait, want 10", c.ScrollY())
	}
}

func TestRunnerWaitsForInjectQueue(t *testing.T) {
	c := NewController(Options{Viewport: Viewport{Width: 300, Height: 300}})
	runner, _ := LoadTestScript([]byte(`{"steps": [
		{"action": "drag", "fromX": 100, "fromY": 150, "toX": 200, "toY": 150, "frames": 4},
		{"action": "scroll", "y": 10}
	]}`))
	c.SetTestRunner(runner)

	// Update 1 queues the drag and consumes its press; three more events remain.
	c.Update(1.0 / 60)
	if c.Pending() != 3 {
		t.Fatalf("pending = %d, want 3", c.Pending())
	}
	for i := 0; i < 3; i++ {
		c.Update(1.0 / 60)
	}
	if c.ScrollY() != 0 {
		t.Fatal("runner advanced before the drag drained")
	}
	c.Update(1.0 / 60)
	if c.ScrollY() != 10 {
		t.Errorf("ScrollY = %v, want 10", c.ScrollY())
	}
}

func TestRunnerSnapshotWritesMasks(t *testing.T) {
	dir := t.TempDir()
	c := NewController(Options{Viewport: Viewport{Width: 200, Height: 200}})
	c.SnapshotDir = dir
	if _, err := c.AddReveal(RevealConfig{Seed: 1}, CenteredSquare(64)); err != nil {
		t.Fatal(err)
	}
	runner, _ := LoadTestScript([]byte(`{"steps": [{"action": "snapshot", "label": "fresh cover"}]}`))
	c.SetTestRunner(runner)
	c.Update(1.0 / 60)

	matches, err := filepath.Glob(filepath.Join(dir, "*_fresh_cover_0.png"))
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 1 {
		t.Fatalf("snapshot files = %v", matches)
	}
	info, err := os.Stat(matches[0])
	if err != nil || info.Size() == 0 {
		t.Errorf("snapshot file empty or missing: %v", err)
	}
}
