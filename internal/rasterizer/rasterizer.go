// Package rasterizer implements the line rasterizer (C5): per-block
// IR -> finite sequence of styled line cells, with a per-block-id
// memoized cache and the global VisState line-limit truncation contract.
package rasterizer

import (
	"crypto/sha256"
	"fmt"
	"strings"

	"github.com/cc-dump/ccdump/internal/ir"
	"github.com/cc-dump/ccdump/internal/overrides"
	"github.com/cc-dump/ccdump/internal/render"
	"github.com/cc-dump/ccdump/internal/visibility"
)

// rendererFunc is the dispatch-table entry for one block kind: it
// produces the *unlimited* strip sequence for a given VisState; the
// truncation contract is applied uniformly afterward by Render.
type rendererFunc func(block ir.Block, vis visibility.State, width int) []render.Strip

// dispatch maps a block's Kind() (stable string key, per spec.md §4.1) to
// its renderer, so renderers can be swapped at runtime without altering
// block identity.
var dispatch = map[string]rendererFunc{}

func register(kind string, fn rendererFunc) { dispatch[kind] = fn }

// markdownRender, when set, renders a full-expanded text block's raw text
// through a markdown formatter (internal/display wires this to glamour)
// before line-wrapping. Left nil, renderTextContent falls back to plain
// wrapping so the rasterizer package stays usable without a terminal.
var markdownRender func(string) string

// SetMarkdownRenderer installs the markdown renderer used by
// FULL_EXPANDED text_content blocks.
func SetMarkdownRenderer(fn func(string) string) {
	markdownRender = fn
}

type cacheKey struct {
	blockID     uint64
	visState    visibility.State
	overridesFP [32]byte
	width       int
}

// defaultCacheEntries bounds the render cache when SetCacheEntries is
// never called.
const defaultCacheEntries = 4096

// Rasterizer holds the per-block-id memoization cache described in
// spec.md §4.5, bounded to maxEntries with oldest-insertion eviction
// (order tracked explicitly since Go map iteration order is unspecified).
// It runs on the single display-update goroutine of spec.md §5 and has no
// internal locking.
type Rasterizer struct {
	cache      map[cacheKey][]render.Strip
	order      []cacheKey
	maxEntries int
}

// NewRasterizer builds an empty rasterizer cache at the default bound.
func NewRasterizer() *Rasterizer {
	return &Rasterizer{cache: make(map[cacheKey][]render.Strip), maxEntries: defaultCacheEntries}
}

// SetCacheEntries overrides the cache's eviction bound from
// internal/config.Thresholds.RasterizerCacheEntries. A non-positive value
// is ignored.
func (r *Rasterizer) SetCacheEntries(n int) {
	if n > 0 {
		r.maxEntries = n
	}
}

// overridesFingerprint hashes only the override fields that affect this
// block: its BlockState (expanded/force-visible/expandable) and any
// region states keyed on its id, per spec.md §4.5.
func overridesFingerprint(store *overrides.Store, block ir.Block) [32]byte {
	if store == nil {
		return sha256.Sum256(nil)
	}
	blockID := block.ID()
	var b strings.Builder
	if expanded, ok := store.Expanded(blockID); ok {
		fmt.Fprintf(&b, "e:%v;", expanded)
	}
	if forced, ok := store.ForceVisible(blockID); ok {
		fmt.Fprintf(&b, "f:%s;", forced.String())
	}
	for i := range block.Regions() {
		if expanded, ok := store.RegionExpanded(overrides.RegionKey{BlockID: blockID, RegionIndex: i}); ok {
			fmt.Fprintf(&b, "r%d:%v;", i, expanded)
		}
	}
	return sha256.Sum256([]byte(b.String()))
}

// Render produces the cached or freshly computed strip sequence for a
// block at the given VisState, applying the truncation contract and
// recording region strip ranges into overrides.
func (r *Rasterizer) Render(block ir.Block, vis visibility.State, store *overrides.Store, width int) []render.Strip {
	key := cacheKey{
		blockID:     block.ID(),
		visState:    vis,
		overridesFP: overridesFingerprint(store, block),
		width:       width,
	}
	if cached, ok := r.cache[key]; ok {
		return cached
	}

	strips := renderBlock(block, vis, width, store)
	strips = applyTruncation(block, vis, strips, store)

	r.put(key, strips)
	return strips
}

func (r *Rasterizer) put(key cacheKey, strips []render.Strip) {
	if _, exists := r.cache[key]; !exists {
		r.order = append(r.order, key)
	}
	r.cache[key] = strips
	for len(r.order) > r.maxEntries {
		oldest := r.order[0]
		r.order = r.order[1:]
		delete(r.cache, oldest)
	}
}

// InvalidateBlock drops every cached entry for a block id. Nothing in the
// module calls it: override and width changes already miss the cache,
// since the overrides fingerprint and the width are part of cacheKey.
func (r *Rasterizer) InvalidateBlock(blockID uint64) {
	for k := range r.cache {
		if k.blockID == blockID {
			delete(r.cache, k)
		}
	}
	kept := r.order[:0]
	for _, k := range r.order {
		if k.blockID != blockID {
			kept = append(kept, k)
		}
	}
	r.order = kept
}

// renderBlock dispatches by kind, first giving any block carrying
// content_regions a chance to render region-by-region (spec.md §4.5);
// renderWithRegions falls through (ok=false) for blocks without regions,
// regions on an unsupported block kind, or non-FULL VisStates, since
// region segmentation is a FULL-only concern.
func renderBlock(block ir.Block, vis visibility.State, width int, store *overrides.Store) []render.Strip {
	if !vis.Visible {
		return nil
	}
	if strips, ok := renderWithRegions(block, vis, width, store); ok {
		return strips
	}
	if fn, ok := dispatch[block.Kind()]; ok {
		return fn(block, vis, width)
	}
	return genericRender(block, vis, width)
}

// applyTruncation implements the spec.md §4.5 truncation contract: if
// produced strips exceed the VisState's global line limit and the block
// is expandable, the last visible strip is replaced with an indicator
// and the expandable flag is recorded in overrides.
func applyTruncation(block ir.Block, vis visibility.State, strips []render.Strip, store *overrides.Store) []render.Strip {
	limit := vis.LineLimit()
	if limit < 0 || len(strips) <= limit {
		if store != nil && len(strips) > 0 {
			store.SetExpandable(block.ID(), false, overrides.Range{Start: 0, End: len(strips)})
		}
		return strips
	}
	if limit == 0 {
		return nil
	}

	hidden := len(strips) - limit + 1
	truncated := make([]render.Strip, 0, limit)
	truncated = append(truncated, strips[:limit-1]...)
	truncated = append(truncated, render.PlainStrip(fmt.Sprintf("… %d more lines", hidden)))

	if store != nil {
		store.SetExpandable(block.ID(), true, overrides.Range{Start: 0, End: len(strips)})
	}
	return truncated
}
