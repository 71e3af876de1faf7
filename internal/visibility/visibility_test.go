package visibility

import (
	"testing"

	"github.com/cc-dump/ccdump/internal/ir"
)

func TestNewEngineDefaults(t *testing.T) {
	e := NewEngine()
	if got := e.CategoryState(ir.CategoryUser); got != FullExpanded {
		t.Fatalf("user category default = %v, want FULL_EXPANDED", got)
	}
	if got := e.CategoryState(ir.CategoryTools); got != SummaryCollapsed {
		t.Fatalf("tools category default = %v, want SUMMARY_COLLAPSED", got)
	}
	if got := e.CategoryState(ir.CategoryMetadata); got != Hidden {
		t.Fatalf("metadata category default = %v, want HIDDEN", got)
	}
}

func TestCycleAdvancesExistenceSummaryFull(t *testing.T) {
	e := NewEngine()
	e.categoryState[ir.CategoryMetadata] = Hidden

	s1 := e.Cycle(ir.CategoryMetadata)
	if !s1.Visible || s1.Full {
		t.Fatalf("first cycle from HIDDEN should land on SUMMARY, got %v", s1)
	}
	s2 := e.Cycle(ir.CategoryMetadata)
	if !s2.Full {
		t.Fatalf("second cycle should land on FULL, got %v", s2)
	}
	s3 := e.Cycle(ir.CategoryMetadata)
	if s3.Visible {
		t.Fatalf("third cycle should wrap back to HIDDEN, got %v", s3)
	}
}

type stubOverrides struct {
	forced     State
	forcedOK   bool
	expanded   bool
	expandedOK bool
}

func (s stubOverrides) ForceVisible(uint64) (State, bool) { return s.forced, s.forcedOK }
func (s stubOverrides) Expanded(uint64) (bool, bool)      { return s.expanded, s.expandedOK }

func TestResolveForceVisibleWinsOverCategory(t *testing.T) {
	e := NewEngine()
	e.categoryState[ir.CategoryMetadata] = Hidden
	b := ir.NewMetadataBlock("k", "v")

	got := e.Resolve(b, stubOverrides{forced: FullExpanded, forcedOK: true})
	if got != FullExpanded {
		t.Fatalf("force_visible override should win, got %v", got)
	}
}

func TestResolvePerBlockExpandedOverridesCategoryExpanded(t *testing.T) {
	e := NewEngine()
	e.categoryState[ir.CategoryTools] = SummaryCollapsed
	b := ir.NewTextContentBlock(ir.CategoryTools, "x")

	got := e.Resolve(b, stubOverrides{expanded: true, expandedOK: true})
	if !got.Expanded {
		t.Fatalf("per-block expanded override should apply, got %v", got)
	}
}

func TestSetLineLimitsOverridesDefaults(t *testing.T) {
	defer SetLineLimits(3, 8, 5) // restore defaults so other tests in the package aren't affected

	SetLineLimits(1, 2, 3)
	if SummaryCollapsed.LineLimit() != 1 {
		t.Fatalf("summary_collapsed limit = %d, want 1", SummaryCollapsed.LineLimit())
	}
	if SummaryExpanded.LineLimit() != 2 {
		t.Fatalf("summary_expanded limit = %d, want 2", SummaryExpanded.LineLimit())
	}
	if FullCollapsed.LineLimit() != 3 {
		t.Fatalf("full_collapsed limit = %d, want 3", FullCollapsed.LineLimit())
	}
	if FullExpanded.LineLimit() != -1 {
		t.Fatalf("full_expanded must stay unbounded, got %d", FullExpanded.LineLimit())
	}
}

func TestSetLineLimitsIgnoresNonPositiveValues(t *testing.T) {
	defer SetLineLimits(3, 8, 5)

	SetLineLimits(9, 9, 9)
	SetLineLimits(0, -1, 0)
	if SummaryCollapsed.LineLimit() != 9 {
		t.Fatalf("non-positive override should be ignored, limit = %d, want 9", SummaryCollapsed.LineLimit())
	}
}
