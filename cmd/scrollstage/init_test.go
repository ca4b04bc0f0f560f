package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/phanxgames/scrollstage"
)

func TestInitCmd(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "pages", "landing.yaml")
	out, err := execute(t, "init", "-o", path)
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	if !strings.Contains(out, path) {
		t.Errorf("output = %q", out)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(data, scrollstage.DefaultLayoutYAML()) {
		t.Error("written layout differs from the built-in layout")
	}
	if _, err := scrollstage.LoadLayout(path); err != nil {
		t.Errorf("written layout does not load: %v", err)
	}

	if _, err := execute(t, "init", "-o", path); err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Errorf("second init: err = %v, want already exists", err)
	}
	if _, err := execute(t, "init", "-o", path, "-f"); err != nil {
		t.Errorf("forced init: %v", err)
	}
}
