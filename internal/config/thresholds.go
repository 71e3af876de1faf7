package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Thresholds are the tunables the spec leaves as "reasonable defaults"
// rather than hard invariants: content-tracker size threshold, region
// auto-expand line counts, rasterizer cache bound, and the router's
// bounded-queue depth. Stored as TOML (unlike settings.json's per-session
// JSON, these are meant to be hand-edited) under ~/.ccdump/thresholds.toml.
type Thresholds struct {
	// TrackThresholdBytes is the minimum section size routed through the
	// content tracker (spec.md §4.4's ">500 bytes").
	TrackThresholdBytes int `toml:"track_threshold_bytes"`
	// SummaryLineLimit/SummaryExpandedLineLimit/FullCollapsedLineLimit
	// mirror internal/visibility.State.LineLimit's default caps for
	// SUMMARY_COLLAPSED, SUMMARY_EXPANDED, and FULL_COLLAPSED respectively.
	// FULL_EXPANDED is always unbounded and has no threshold.
	SummaryLineLimit       int `toml:"summary_line_limit"`
	SummaryExpandedLineLimit int `toml:"summary_expanded_line_limit"`
	FullCollapsedLineLimit   int `toml:"full_collapsed_line_limit"`
	// RegionAutoExpandLines is the line-count ceiling under which a
	// content_region (code fence, XML section, markdown fence) renders
	// expanded by default; above it, the region renders collapsed unless
	// an explicit per-region override says otherwise (spec.md §9, §4.5).
	RegionAutoExpandLines int `toml:"region_auto_expand_lines"`
	// ColorPaletteSize is the number of rotating tag colors (spec.md
	// §4.2/§4.3's "rotating color palette").
	ColorPaletteSize int `toml:"color_palette_size"`
	// RasterizerCacheEntries bounds internal/rasterizer.Rasterizer's
	// render cache before oldest entries are evicted.
	RasterizerCacheEntries int `toml:"rasterizer_cache_entries"`
	// RouterQueueDepth is the router's bounded input queue depth
	// (spec.md §5's "bounded, mpsc; overflow drops oldest").
	RouterQueueDepth int `toml:"router_queue_depth"`
}

// DefaultThresholds mirrors the values compiled into internal/formatter,
// internal/visibility, internal/rasterizer, and internal/events when no
// thresholds.toml is present.
func DefaultThresholds() Thresholds {
	return Thresholds{
		TrackThresholdBytes:      500,
		SummaryLineLimit:         3,
		SummaryExpandedLineLimit: 8,
		FullCollapsedLineLimit:   5,
		RegionAutoExpandLines:    12,
		ColorPaletteSize:         14,
		RasterizerCacheEntries:   4096,
		RouterQueueDepth:         256,
	}
}

// ThresholdsPath returns the default thresholds.toml location.
func ThresholdsPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".ccdump", "thresholds.toml"), nil
}

// LoadThresholds reads thresholds.toml, overlaying configured fields onto
// DefaultThresholds. A missing file is not an error: defaults are
// returned unchanged.
func LoadThresholds(path string) (Thresholds, error) {
	t := DefaultThresholds()

	if path == "" {
		var err error
		path, err = ThresholdsPath()
		if err != nil {
			return t, err
		}
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return t, nil
	}

	if _, err := toml.DecodeFile(path, &t); err != nil {
		return t, err
	}
	return t, nil
}
