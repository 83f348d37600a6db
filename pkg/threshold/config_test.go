package threshold

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadBoundsFallsBackToDefaults(t *testing.T) {
	cfg, err := LoadBounds("")
	if err != nil {
		t.Fatal(err)
	}
	if len(cfg.Bounds) == 0 {
		t.Fatal("expected built-in bounds")
	}

	found := false
	for _, b := range cfg.Bounds {
		if b.Metric == "heart_rate" {
			found = true
			if b.Low != 60 || b.High != 100 {
				t.Fatalf("unexpected default heart_rate bounds: %+v", b)
			}
		}
	}
	if !found {
		t.Fatal("heart_rate missing from defaults")
	}
}

func TestLoadBoundsFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bounds.yaml")
	content := []byte(`bounds:
  - metric: heart_rate
    low: 55
    high: 110
    severity: high
`)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadBounds(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(cfg.Bounds) != 1 || cfg.Bounds[0].Low != 55 || cfg.Bounds[0].High != 110 {
		t.Fatalf("unexpected parsed bounds: %+v", cfg.Bounds)
	}
}

func TestLoadBoundsRejectsEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.yaml")
	if err := os.WriteFile(path, []byte("bounds: []\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadBounds(path); err == nil {
		t.Fatal("expected error for empty bounds file")
	}
}
