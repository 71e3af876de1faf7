// Package visibility implements the progressive-disclosure visibility
// engine (C7): a 3x2 state cycle per category, plus per-block and
// per-region overrides resolved through internal/overrides.
package visibility

import "github.com/cc-dump/ccdump/internal/ir"

// State is the 5-value VisState: HIDDEN, SUMMARY_COLLAPSED,
// SUMMARY_EXPANDED, FULL_COLLAPSED, FULL_EXPANDED, expressed as the three
// orthogonal booleans spec.md §3 defines them from.
type State struct {
	Visible  bool
	Full     bool
	Expanded bool
}

var (
	Hidden           = State{Visible: false}
	SummaryCollapsed = State{Visible: true, Full: false, Expanded: false}
	SummaryExpanded  = State{Visible: true, Full: false, Expanded: true}
	FullCollapsed    = State{Visible: true, Full: true, Expanded: false}
	FullExpanded     = State{Visible: true, Full: true, Expanded: true}
)

// lineLimits holds the configurable per-VisState caps (spec.md §9's
// tunable-thresholds note), indexed by [summary_collapsed,
// summary_expanded, full_collapsed]. FULL_EXPANDED is always unbounded.
var lineLimits = [3]int{3, 8, 5}

// SetLineLimits overrides the default per-VisState line caps from
// internal/config.Thresholds. A non-positive argument leaves that cap at
// its current value.
func SetLineLimits(summaryCollapsed, summaryExpanded, fullCollapsed int) {
	if summaryCollapsed > 0 {
		lineLimits[0] = summaryCollapsed
	}
	if summaryExpanded > 0 {
		lineLimits[1] = summaryExpanded
	}
	if fullCollapsed > 0 {
		lineLimits[2] = fullCollapsed
	}
}

// LineLimit returns the global line-limit policy for a VisState: the
// single source of truth from spec.md §3. Individual renderers may emit
// fewer lines but must never exceed this.
func (s State) LineLimit() int {
	switch {
	case !s.Visible:
		return 0
	case !s.Full && !s.Expanded:
		return lineLimits[0]
	case !s.Full && s.Expanded:
		return lineLimits[1]
	case s.Full && !s.Expanded:
		return lineLimits[2]
	default:
		return -1 // FULL_EXPANDED: unbounded
	}
}

func (s State) String() string {
	switch {
	case !s.Visible:
		return "HIDDEN"
	case !s.Full && !s.Expanded:
		return "SUMMARY_COLLAPSED"
	case !s.Full && s.Expanded:
		return "SUMMARY_EXPANDED"
	case s.Full && !s.Expanded:
		return "FULL_COLLAPSED"
	default:
		return "FULL_EXPANDED"
	}
}

// cycleLevel is the EXISTENCE -> SUMMARY -> FULL progression a category
// hotkey advances through; "EXISTENCE" collapses to Hidden here (spec.md
// §9 fixes this order; reversing via modifier key is out of scope).
type cycleLevel int

const (
	levelExistence cycleLevel = iota
	levelSummary
	levelFull
)

func levelOf(s State) cycleLevel {
	switch {
	case !s.Visible:
		return levelExistence
	case !s.Full:
		return levelSummary
	default:
		return levelFull
	}
}

func stateForLevel(level cycleLevel) State {
	switch level {
	case levelExistence:
		return Hidden
	case levelSummary:
		return SummaryCollapsed
	default:
		return FullCollapsed
	}
}

// Engine owns the per-category VisState and applies the defaults from
// spec.md §4.7.
type Engine struct {
	categoryState map[ir.Category]State
}

// NewEngine builds an Engine with the documented defaults: USER and
// ASSISTANT at FULL; TOOLS and SYSTEM at SUMMARY; HEADERS/METADATA/BUDGET
// at EXISTENCE (Hidden); THINKING at SUMMARY.
func NewEngine() *Engine {
	e := &Engine{categoryState: make(map[ir.Category]State)}
	e.categoryState[ir.CategoryUser] = FullExpanded
	e.categoryState[ir.CategoryAssistant] = FullExpanded
	e.categoryState[ir.CategoryTools] = SummaryCollapsed
	e.categoryState[ir.CategorySystem] = SummaryCollapsed
	e.categoryState[ir.CategoryHeaders] = Hidden
	e.categoryState[ir.CategoryMetadata] = Hidden
	e.categoryState[ir.CategoryBudget] = Hidden
	e.categoryState[ir.CategoryThinking] = SummaryCollapsed
	e.categoryState[ir.CategoryAlwaysVisible] = FullExpanded
	return e
}

// CategoryState returns the current VisState for a category.
func (e *Engine) CategoryState(cat ir.Category) State {
	if s, ok := e.categoryState[cat]; ok {
		return s
	}
	return SummaryCollapsed
}

// Cycle advances the category EXISTENCE -> SUMMARY -> FULL -> EXISTENCE.
// Callers must separately clear per-block overrides in that category via
// internal/overrides.Store.ClearForCategory to satisfy IDR5.
func (e *Engine) Cycle(cat ir.Category) State {
	cur := e.categoryState[cat]
	next := (levelOf(cur) + 1) % 3
	ns := stateForLevel(next)
	e.categoryState[cat] = ns
	return ns
}

// OverrideLookup is the minimal view into internal/overrides.Store that
// Resolve needs, kept as an interface so this package never imports
// internal/overrides (one-way data flow: C7 does not know about C12's
// storage details, only its lookup contract).
type OverrideLookup interface {
	ForceVisible(blockID uint64) (State, bool)
	Expanded(blockID uint64) (bool, bool)
}

// Resolve is the single enforcement point described in spec.md §4.7: it
// consults force_visible first, then category state, then the per-block
// expanded override.
func (e *Engine) Resolve(block ir.Block, overrides OverrideLookup) State {
	if overrides != nil {
		if forced, ok := overrides.ForceVisible(block.ID()); ok {
			return forced
		}
	}

	cat := e.CategoryState(block.Cat())
	if !cat.Visible {
		return cat
	}

	if overrides != nil {
		if expanded, ok := overrides.Expanded(block.ID()); ok {
			cat.Expanded = expanded
		}
	}
	return cat
}
