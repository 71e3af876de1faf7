package rasterizer

import (
	"fmt"
	"strings"

	"github.com/cc-dump/ccdump/internal/ir"
	"github.com/cc-dump/ccdump/internal/overrides"
	"github.com/cc-dump/ccdump/internal/render"
	"github.com/cc-dump/ccdump/internal/visibility"
)

// regionAutoExpandLines is the line-count ceiling under which a code or
// markdown fence region renders expanded by default absent an explicit
// override (spec.md §9's "code fence <=12 lines expanded by default"
// example); other regions (XML sections) use half of it.
var regionAutoExpandLines = 12

// SetRegionAutoExpandLines overrides the default region auto-expand
// threshold from internal/config.Thresholds.RegionAutoExpandLines. A
// non-positive value is ignored.
func SetRegionAutoExpandLines(n int) {
	if n > 0 {
		regionAutoExpandLines = n
	}
}

// renderWithRegions implements spec.md §4.5's region rendering operation:
// when a block carries content_regions, each region renders independently
// of the others and its own strip range is recorded in overrides, keyed
// by (block_id, region_index). Only consulted for FULL VisStates; a
// SUMMARY render never segments by region. Returns ok=false when the
// block has no regions or isn't one of the content-bearing kinds regions
// apply to, so the caller falls through to the ordinary per-kind
// renderer.
func renderWithRegions(block ir.Block, vis visibility.State, width int, store *overrides.Store) ([]render.Strip, bool) {
	if !vis.Full || len(block.Regions()) == 0 {
		return nil, false
	}

	switch b := block.(type) {
	case *ir.TextContentBlock:
		return segmentedStrips(block, b.Text, nil, width, store), true

	case *ir.ToolResultBlock:
		style := render.TagColor(b.ColorIndex)
		if b.IsError {
			style = render.StyleError
		}
		label := b.Name
		if !b.Complete {
			label = "(unmatched)"
		}
		prefix := []render.Strip{render.NewStrip(render.Run{Text: "← " + label, Style: style})}
		return segmentedStrips(block, b.Content, prefix, width, store), true

	case *ir.TrackedContentBlock:
		// A Changed tracked block's primary FULL view is the unified diff,
		// not the raw text a region scan would segment; regions only apply
		// to New/Ref tracked content shown verbatim.
		if b.Status == ir.TrackChanged {
			return nil, false
		}
		statusWord := map[ir.TrackStatus]string{ir.TrackNew: "new", ir.TrackRef: "ref"}[b.Status]
		prefix := []render.Strip{render.NewStrip(render.Run{
			Text:  fmt.Sprintf("[tag %d: %s]", b.TagID, statusWord),
			Style: render.TagColor(b.ColorIndex),
		})}
		return segmentedStrips(block, b.Text, prefix, width, store), true

	default:
		return nil, false
	}
}

// segmentedStrips renders text split at block.Regions() boundaries: text
// outside any region wraps normally, each region renders independently
// per its own expand/collapse policy, and the actual strip range each
// region occupies in the final sequence is recorded into store.
func segmentedStrips(block ir.Block, text string, prefix []render.Strip, width int, store *overrides.Store) []render.Strip {
	lines := strings.Split(text, "\n")
	strips := append([]render.Strip{}, prefix...)

	cursor := 0
	for i, region := range block.Regions() {
		if region.Start > len(lines) || region.End >= len(lines) || region.Start > region.End {
			continue // stale region boundaries (text changed beneath it); skip rather than panic
		}
		if region.Start > cursor {
			strips = append(strips, plainLines(wrapLines(strings.Join(lines[cursor:region.Start], "\n"), width), render.StyleNone)...)
		}

		regionLines := lines[region.Start : region.End+1]
		var regionStrips []render.Strip
		if regionExpanded(region, store, block.ID(), i) {
			regionStrips = plainLines(wrapLines(strings.Join(regionLines, "\n"), width), regionStyle(region.Kind))
		} else {
			regionStrips = []render.Strip{render.NewStrip(render.Run{
				Text:  fmt.Sprintf("[%s: %d lines collapsed]", regionKindLabel(region.Kind), region.Lines),
				Style: render.StyleMuted,
			})}
		}

		start := len(strips)
		strips = append(strips, regionStrips...)
		if store != nil {
			rs := store.GetOrDefaultRegion(overrides.RegionKey{BlockID: block.ID(), RegionIndex: i})
			rs.StripRange = &overrides.Range{Start: start, End: len(strips)}
		}
		cursor = region.End + 1
	}
	if cursor < len(lines) {
		strips = append(strips, plainLines(wrapLines(strings.Join(lines[cursor:], "\n"), width), render.StyleNone)...)
	}
	return strips
}

// regionExpanded resolves a region's expand/collapse state: an explicit
// per-region override wins; absent one, the default is keyed on kind and
// size threshold (spec.md §4.5, §9).
func regionExpanded(region ir.Region, store *overrides.Store, blockID uint64, index int) bool {
	if store != nil {
		if expanded, ok := store.RegionExpanded(overrides.RegionKey{BlockID: blockID, RegionIndex: index}); ok {
			return expanded
		}
	}
	switch region.Kind {
	case ir.RegionCodeFence, ir.RegionMarkdownFence:
		return region.Lines <= regionAutoExpandLines
	case ir.RegionXML:
		return region.Lines <= regionAutoExpandLines/2
	default:
		return false
	}
}

func regionKindLabel(k ir.RegionKind) string {
	switch k {
	case ir.RegionCodeFence:
		return "code"
	case ir.RegionMarkdownFence:
		return "markdown"
	case ir.RegionXML:
		return "xml"
	default:
		return "region"
	}
}

func regionStyle(k ir.RegionKind) render.StyleTag {
	if k == ir.RegionXML {
		return render.StyleDim
	}
	return render.StyleNone
}
