// Package overrides implements the view override store (C12): per-block
// and per-region mutable view state kept entirely outside the IR, so
// blocks stay plain immutable data (spec.md §9, replacing the source
// style's monkey-patched view attributes on IR nodes).
package overrides

import (
	"github.com/cc-dump/ccdump/internal/ir"
	"github.com/cc-dump/ccdump/internal/visibility"
)

// RegionKey identifies a region within a block with no back-pointer to
// the parent block beyond its id (spec.md §9: no cyclic references).
type RegionKey struct {
	BlockID     uint64
	RegionIndex int
}

// Range is a strip index range, renderer-computed, used for hit-testing
// clicks against rendered output.
type Range struct {
	Start, End int
}

// BlockState is the per-block override record.
type BlockState struct {
	Expanded     *bool
	ForceVisible *visibility.State
	Expandable   bool
	StripRange   *Range
}

// RegionState is the per-region override record.
type RegionState struct {
	Expanded   *bool
	StripRange *Range
}

// Store is a single owned mutable structure per ConversationView, per
// spec.md §4.12. It is never read from outside C5-C7; the formatter never
// touches it.
type Store struct {
	blocks       map[uint64]*BlockState
	regions      map[RegionKey]*RegionState
	searchMarked map[uint64]struct{}
}

// NewStore builds an empty override store.
func NewStore() *Store {
	return &Store{
		blocks:       make(map[uint64]*BlockState),
		regions:      make(map[RegionKey]*RegionState),
		searchMarked: make(map[uint64]struct{}),
	}
}

// GetOrDefaultBlock returns the BlockState for blockID, creating an empty
// one if absent.
func (s *Store) GetOrDefaultBlock(blockID uint64) *BlockState {
	if bs, ok := s.blocks[blockID]; ok {
		return bs
	}
	bs := &BlockState{}
	s.blocks[blockID] = bs
	return bs
}

// GetOrDefaultRegion returns the RegionState for key, creating an empty
// one if absent.
func (s *Store) GetOrDefaultRegion(key RegionKey) *RegionState {
	if rs, ok := s.regions[key]; ok {
		return rs
	}
	rs := &RegionState{}
	s.regions[key] = rs
	return rs
}

// ForceVisible implements visibility.OverrideLookup.
func (s *Store) ForceVisible(blockID uint64) (visibility.State, bool) {
	bs, ok := s.blocks[blockID]
	if !ok || bs.ForceVisible == nil {
		return visibility.State{}, false
	}
	return *bs.ForceVisible, true
}

// Expanded implements visibility.OverrideLookup.
func (s *Store) Expanded(blockID uint64) (bool, bool) {
	bs, ok := s.blocks[blockID]
	if !ok || bs.Expanded == nil {
		return false, false
	}
	return *bs.Expanded, true
}

// RegionExpanded returns the explicit per-region expanded override for
// key, if one has ever been set (toggled). The second return is false
// when no override exists, leaving the caller's kind/size default in
// effect (spec.md §4.5: explicit overrides win over defaults).
func (s *Store) RegionExpanded(key RegionKey) (bool, bool) {
	rs, ok := s.regions[key]
	if !ok || rs.Expanded == nil {
		return false, false
	}
	return *rs.Expanded, true
}

// ToggleRegion flips a region's expanded override within its block,
// mirroring ToggleBlock at the region granularity.
func (s *Store) ToggleRegion(key RegionKey) {
	rs := s.GetOrDefaultRegion(key)
	cur := false
	if rs.Expanded != nil {
		cur = *rs.Expanded
	}
	next := !cur
	rs.Expanded = &next
}

// ToggleBlock flips the block's expanded override within its current
// level's collapsed/expanded pair (spec.md §4.7 toggle_block).
func (s *Store) ToggleBlock(blockID uint64) {
	bs := s.GetOrDefaultBlock(blockID)
	cur := false
	if bs.Expanded != nil {
		cur = *bs.Expanded
	}
	next := !cur
	bs.Expanded = &next
}

// SetExpandable records the renderer-computed expandable hint and the
// strip range it produced, used for hit-testing clicks.
func (s *Store) SetExpandable(blockID uint64, expandable bool, stripRange Range) {
	bs := s.GetOrDefaultBlock(blockID)
	bs.Expandable = expandable
	bs.StripRange = &stripRange
}

// ClearForCategory clears every per-block override for blocks whose
// category matches cat, satisfying IDR5.
func (s *Store) ClearForCategory(blocks []ir.Block, cat ir.Category) {
	for _, b := range blocks {
		if b.Cat() == cat {
			delete(s.blocks, b.ID())
		}
	}
}

// MarkSearchForced sets force_visible = FULL_EXPANDED for blockID and
// records it in the search-marked set so ClearSearch can bulk-clear it.
func (s *Store) MarkSearchForced(blockID uint64) {
	bs := s.GetOrDefaultBlock(blockID)
	full := visibility.FullExpanded
	bs.ForceVisible = &full
	s.searchMarked[blockID] = struct{}{}
}

// ClearSearch bulk-clears every force_visible override the search
// subsystem set, using the marked id set recorded by MarkSearchForced.
func (s *Store) ClearSearch() {
	for id := range s.searchMarked {
		if bs, ok := s.blocks[id]; ok {
			bs.ForceVisible = nil
		}
	}
	s.searchMarked = make(map[uint64]struct{})
}

// Snapshot is a serializable copy of the store's state, used for
// hot-reload survival (spec.md §4.12 snapshot/restore).
type Snapshot struct {
	Blocks  map[uint64]BlockState
	Regions map[RegionKey]RegionState
}

// Snapshot captures the current store contents by value.
func (s *Store) Snapshot() Snapshot {
	snap := Snapshot{
		Blocks:  make(map[uint64]BlockState, len(s.blocks)),
		Regions: make(map[RegionKey]RegionState, len(s.regions)),
	}
	for k, v := range s.blocks {
		snap.Blocks[k] = *v
	}
	for k, v := range s.regions {
		snap.Regions[k] = *v
	}
	return snap
}

// Restore replaces the store's contents with a previously captured
// snapshot.
func (s *Store) Restore(snap Snapshot) {
	s.blocks = make(map[uint64]*BlockState, len(snap.Blocks))
	s.regions = make(map[RegionKey]*RegionState, len(snap.Regions))
	for k, v := range snap.Blocks {
		cp := v
		s.blocks[k] = &cp
	}
	for k, v := range snap.Regions {
		cp := v
		s.regions[k] = &cp
	}
}
