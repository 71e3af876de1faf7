package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadThresholdsDefaultsWhenFileMissing(t *testing.T) {
	got, err := LoadThresholds(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("load thresholds: %v", err)
	}
	if got != DefaultThresholds() {
		t.Fatalf("expected defaults, got %+v", got)
	}
}

func TestLoadThresholdsOverlaysConfiguredFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "thresholds.toml")
	if err := os.WriteFile(path, []byte("router_queue_depth = 1024\ncolor_palette_size = 20\n"), 0o600); err != nil {
		t.Fatalf("write thresholds file: %v", err)
	}

	got, err := LoadThresholds(path)
	if err != nil {
		t.Fatalf("load thresholds: %v", err)
	}
	if got.RouterQueueDepth != 1024 {
		t.Fatalf("expected overridden router queue depth, got %d", got.RouterQueueDepth)
	}
	if got.ColorPaletteSize != 20 {
		t.Fatalf("expected overridden color palette size, got %d", got.ColorPaletteSize)
	}
	if got.TrackThresholdBytes != DefaultThresholds().TrackThresholdBytes {
		t.Fatalf("expected unconfigured field to keep its default")
	}
}

func TestDefaultThresholdsMatchVisibilityLineLimits(t *testing.T) {
	// internal/visibility.State.LineLimit's hardcoded defaults are
	// SUMMARY_COLLAPSED=3, SUMMARY_EXPANDED=8, FULL_COLLAPSED=5; these
	// fields must mirror that, not the stale FULL_COLLAPSED=8 value.
	d := DefaultThresholds()
	if d.SummaryLineLimit != 3 {
		t.Fatalf("expected summary_line_limit 3, got %d", d.SummaryLineLimit)
	}
	if d.SummaryExpandedLineLimit != 8 {
		t.Fatalf("expected summary_expanded_line_limit 8, got %d", d.SummaryExpandedLineLimit)
	}
	if d.FullCollapsedLineLimit != 5 {
		t.Fatalf("expected full_collapsed_line_limit 5, got %d", d.FullCollapsedLineLimit)
	}
}

func TestLoadThresholdsOverlaysRegionAutoExpandLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "thresholds.toml")
	if err := os.WriteFile(path, []byte("region_auto_expand_lines = 20\n"), 0o600); err != nil {
		t.Fatalf("write thresholds file: %v", err)
	}

	got, err := LoadThresholds(path)
	if err != nil {
		t.Fatalf("load thresholds: %v", err)
	}
	if got.RegionAutoExpandLines != 20 {
		t.Fatalf("expected overridden region_auto_expand_lines, got %d", got.RegionAutoExpandLines)
	}
}
