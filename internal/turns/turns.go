// Package turns implements the turn store and virtual scroll (C6): owns
// completed and in-progress turns, rasterizes their blocks, and exposes
// binary-searched random-access line rendering over the whole
// transcript.
package turns

import (
	"sort"

	"github.com/cc-dump/ccdump/internal/ir"
	"github.com/cc-dump/ccdump/internal/overrides"
	"github.com/cc-dump/ccdump/internal/rasterizer"
	"github.com/cc-dump/ccdump/internal/render"
	"github.com/cc-dump/ccdump/internal/visibility"
)

// Turn represents one completed or in-progress request/response pair
// (spec.md §3).
type Turn struct {
	Blocks           []ir.Block
	Strips           []render.Strip
	BlockStripMap    map[uint64]int
	LineOffset       int
	LineCount        int
	WidestStrip      int
	IsStreaming      bool
	StableStripCount int

	// streamingDeltaText accumulates TextDeltaBlock fragments per content
	// index during streaming, consolidated into a single TextContentBlock
	// on finalize.
	streamingDeltaText map[int]string
	streamingOrder     []int
}

// Handle identifies an in-progress streaming turn.
type Handle struct {
	index int
}

// VisResolver is the minimal C7 contract the turn store needs to
// rasterize a block, kept as an interface so this package doesn't import
// internal/visibility's Engine type directly (decoupled per spec.md §2's
// one-way data flow — C6 only needs "resolve me a VisState").
type VisResolver interface {
	Resolve(block ir.Block, overrides visibility.OverrideLookup) visibility.State
}

// Store owns the ordered collection of turns and the shared rasterizer
// cache and view-override store (spec.md §4.6, §4.12).
type Store struct {
	turns      []*Turn
	rasterizer *rasterizer.Rasterizer
	overrides  *overrides.Store
	width      int
}

// NewStore builds an empty turn store at the given draw width.
func NewStore(width int) *Store {
	return &Store{
		rasterizer: rasterizer.NewRasterizer(),
		overrides:  overrides.NewStore(),
		width:      width,
	}
}

// Overrides exposes the store's owned ViewOverrides instance.
func (s *Store) Overrides() *overrides.Store { return s.overrides }

// SetRasterizerCacheEntries overrides the owned rasterizer's cache bound
// from internal/config.Thresholds.RasterizerCacheEntries.
func (s *Store) SetRasterizerCacheEntries(n int) { s.rasterizer.SetCacheEntries(n) }

// SetWidth changes the draw width (a terminal resize) and re-rasterizes
// every completed turn at the new width. Streaming turns are left for
// their next AppendStreamingBlock/FinalizeStreamingTurn call to pick up
// the new width naturally.
func (s *Store) SetWidth(width int, vis VisResolver) {
	if width == s.width {
		return
	}
	s.width = width
	s.UpdateFilters(vis)
}

func (s *Store) recomputeOffsetsFrom(i int) {
	offset := 0
	if i > 0 {
		offset = s.turns[i-1].LineOffset + s.turns[i-1].LineCount
	}
	for ; i < len(s.turns); i++ {
		s.turns[i].LineOffset = offset
		offset += s.turns[i].LineCount
	}
}

func (s *Store) rasterizeBlocks(blocks []ir.Block, vis VisResolver) (*Turn, map[uint64]int, []render.Strip) {
	t := &Turn{Blocks: blocks, BlockStripMap: make(map[uint64]int)}
	var strips []render.Strip
	for _, b := range blocks {
		state := vis.Resolve(b, s.overrides)
		t.BlockStripMap[b.ID()] = len(strips)
		blockStrips := s.rasterizer.Render(b, state, s.overrides, s.width)
		strips = append(strips, blockStrips...)
	}
	return t, t.BlockStripMap, strips
}

// AppendCompletedTurn rasterizes all blocks at the current filter set,
// appends a completed Turn, and recomputes offsets tail-incrementally
// from the new turn's index onward (spec.md §4.6).
func (s *Store) AppendCompletedTurn(blocks []ir.Block, vis VisResolver) int {
	t, _, strips := s.rasterizeBlocks(blocks, vis)
	t.Strips = strips
	t.LineCount = len(strips)
	t.WidestStrip = widest(strips)
	index := len(s.turns)
	s.turns = append(s.turns, t)
	s.recomputeOffsetsFrom(index)
	return index
}

// BeginStreamingTurn appends an empty Turn marked streaming.
func (s *Store) BeginStreamingTurn() Handle {
	t := &Turn{
		BlockStripMap:      make(map[uint64]int),
		IsStreaming:        true,
		streamingDeltaText: make(map[int]string),
	}
	index := len(s.turns)
	s.turns = append(s.turns, t)
	s.recomputeOffsetsFrom(index)
	return Handle{index: index}
}

// AppendStreamingBlock implements spec.md §4.6: for TextDeltaBlock, the
// delta is buffered and the tail strips replace strips[stable_strip_count:]
// with the re-rasterized accumulated delta; for other blocks, they are
// rasterized and appended, and stable_strip_count advances to the new end.
func (s *Store) AppendStreamingBlock(h Handle, block ir.Block, vis VisResolver) {
	t := s.turns[h.index]
	t.Blocks = append(t.Blocks, block)

	if delta, ok := block.(*ir.TextDeltaBlock); ok {
		if _, seen := t.BlockStripMap[block.ID()]; !seen {
			t.BlockStripMap[block.ID()] = t.StableStripCount
			t.streamingOrder = append(t.streamingOrder, delta.Index)
		}
		t.streamingDeltaText[delta.Index] += delta.Delta

		state := vis.Resolve(block, s.overrides)
		accumulated := ir.NewTextDeltaBlock(block.Cat(), t.streamingDeltaText[delta.Index], delta.Index)
		tailStrips := s.rasterizer.Render(accumulated, state, s.overrides, s.width)

		t.Strips = append(append([]render.Strip{}, t.Strips[:t.StableStripCount]...), tailStrips...)
		t.LineCount = len(t.Strips)
		t.WidestStrip = widest(t.Strips)
		s.recomputeOffsetsFrom(h.index)
		return
	}

	state := vis.Resolve(block, s.overrides)
	blockStrips := s.rasterizer.Render(block, state, s.overrides, s.width)
	t.BlockStripMap[block.ID()] = len(t.Strips)
	t.Strips = append(t.Strips, blockStrips...)
	t.LineCount = len(t.Strips)
	t.StableStripCount = len(t.Strips)
	t.WidestStrip = widest(t.Strips)
	s.recomputeOffsetsFrom(h.index)
}

// FinalizeStreamingTurn consolidates accumulated deltas into single
// TextContentBlocks replacing the TextDeltaBlocks, fully re-rasterizes
// the turn, and clears IsStreaming.
func (s *Store) FinalizeStreamingTurn(h Handle, vis VisResolver) {
	t := s.turns[h.index]

	var consolidated []ir.Block
	emittedDelta := make(map[int]bool)
	for _, b := range t.Blocks {
		delta, ok := b.(*ir.TextDeltaBlock)
		if !ok {
			consolidated = append(consolidated, b)
			continue
		}
		if emittedDelta[delta.Index] {
			continue
		}
		emittedDelta[delta.Index] = true
		consolidated = append(consolidated, ir.NewTextContentBlock(delta.Cat(), t.streamingDeltaText[delta.Index]))
	}

	newT, _, strips := s.rasterizeBlocks(consolidated, vis)
	t.Blocks = newT.Blocks
	t.BlockStripMap = newT.BlockStripMap
	t.Strips = strips
	t.LineCount = len(strips)
	t.WidestStrip = widest(strips)
	t.IsStreaming = false
	t.StableStripCount = len(strips)
	t.streamingDeltaText = nil
	s.recomputeOffsetsFrom(h.index)
}

func widest(strips []render.Strip) int {
	w := 0
	for _, s := range strips {
		if s.CellWidth() > w {
			w = s.CellWidth()
		}
	}
	return w
}

// VirtualHeight returns the total virtual line count across all turns.
func (s *Store) VirtualHeight() int {
	if len(s.turns) == 0 {
		return 0
	}
	last := s.turns[len(s.turns)-1]
	return last.LineOffset + last.LineCount
}

// WidestStrip returns the max cell width across all turns.
func (s *Store) WidestStrip() int {
	w := 0
	for _, t := range s.turns {
		if t.WidestStrip > w {
			w = t.WidestStrip
		}
	}
	return w
}

// RenderLine implements spec.md §4.6 render_line: binary search on the
// offset table to locate turn i such that offset[i] <= y < offset[i] +
// count[i]; returns turn.strips[y - offset[i]].
func (s *Store) RenderLine(y int) (render.Strip, bool) {
	if y < 0 || y >= s.VirtualHeight() {
		return render.Strip{}, false
	}
	i := sort.Search(len(s.turns), func(i int) bool {
		return s.turns[i].LineOffset+s.turns[i].LineCount > y
	})
	if i >= len(s.turns) {
		return render.Strip{}, false
	}
	t := s.turns[i]
	local := y - t.LineOffset
	if local < 0 || local >= len(t.Strips) {
		return render.Strip{}, false
	}
	return t.Strips[local], true
}

// Turns exposes the ordered turn slice for callers needing direct access
// (e.g. UpdateFilters, snapshotting an anchor turn).
func (s *Store) Turns() []*Turn { return s.turns }

// UpdateFilters re-rasterizes every completed (non-streaming) turn at the
// current filter set, whichever categories changed (spec.md §4.6);
// streaming turns are skipped. Off-viewport turns are still
// re-rasterized eagerly here; the "pending snapshot, deferred until
// requested" optimization is a display-host concern layered on top via
// internal/display, not required for RenderLine correctness.
func (s *Store) UpdateFilters(vis VisResolver) {
	for i, t := range s.turns {
		if t.IsStreaming {
			continue
		}
		newT, _, strips := s.rasterizeBlocks(t.Blocks, vis)
		t.BlockStripMap = newT.BlockStripMap
		t.Strips = strips
		t.LineCount = len(strips)
		t.WidestStrip = widest(strips)
		t.StableStripCount = len(strips)
		_ = i
	}
	s.recomputeOffsetsFrom(0)
}

// AnchorTurnID returns the block id of the first block of the topmost
// turn visible at virtual line y, used to preserve scroll position across
// filter or data changes (find_viewport_anchor in spec.md §4.6).
func (s *Store) AnchorTurnID(y int) (uint64, bool) {
	i := sort.Search(len(s.turns), func(i int) bool {
		return s.turns[i].LineOffset+s.turns[i].LineCount > y
	})
	if i >= len(s.turns) || len(s.turns[i].Blocks) == 0 {
		return 0, false
	}
	return s.turns[i].Blocks[0].ID(), true
}

// RestoreAnchor finds the turn whose first block matches anchorBlockID
// and returns its new line offset, or false if it no longer exists.
func (s *Store) RestoreAnchor(anchorBlockID uint64) (int, bool) {
	for _, t := range s.turns {
		if len(t.Blocks) > 0 && t.Blocks[0].ID() == anchorBlockID {
			return t.LineOffset, true
		}
	}
	return 0, false
}
