// Package tracker implements the content tracker (C2): it hashes
// system-prompt sections, assigns stable tag ids, and produces unified
// diffs when previously-seen positional content changes.
package tracker

import (
	"crypto/sha256"
	"strings"
)

// Outcome is the tagged result of a Track call.
type Outcome struct {
	Kind       OutcomeKind
	TagID      uint64
	ColorIndex int
	Diff       string // only set when Kind == Changed
}

type OutcomeKind int

const (
	New OutcomeKind = iota
	Ref
	Changed
)

// PositionalKey identifies a section by its (message index, section
// index) coordinates, independent of content.
type PositionalKey struct {
	MessageIndex int
	SectionIndex int
}

type hashEntry struct {
	hash  [32]byte
	tagID uint64
}

// State is the process-lifetime mutable content-tracker state. Mutated
// only via Track; the rendering side never writes to it.
type State struct {
	hashes    map[[32]byte]uint64
	positions map[PositionalKey]hashEntry
	colors    map[uint64]int
	nextTag   uint64
	nextColor int
	numColors int
}

// NewState constructs an empty tracker state. numColors is the size of
// the rotating color palette (see internal/config/thresholds.go); callers
// outside tests should source it from configuration rather than hardcode
// it.
func NewState(numColors int) *State {
	if numColors <= 0 {
		numColors = 14
	}
	return &State{
		hashes:    make(map[[32]byte]uint64),
		positions: make(map[PositionalKey]hashEntry),
		colors:    make(map[uint64]int),
		numColors: numColors,
	}
}

func hashOf(text string) [32]byte {
	return sha256.Sum256([]byte(strings.TrimSpace(text)))
}

// Track implements the C2 algorithm from spec.md §4.2: compute the
// trimmed section's SHA-256; if already known, it's a Ref; otherwise
// consult the positional map for a prior hash at the same key to produce
// a Changed (diff against the old text, demote the old hash, keep the
// same tag id); otherwise allocate a fresh tag id and color, a New.
//
// oldText is required to compute the diff on the Changed path; callers
// must retain the previous text for each positional key themselves (the
// tracker only stores hashes, not full text, to bound memory).
func (s *State) Track(sectionText string, key PositionalKey, oldText string) Outcome {
	h := hashOf(sectionText)

	if tagID, ok := s.hashes[h]; ok {
		s.positions[key] = hashEntry{hash: h, tagID: tagID}
		return Outcome{Kind: Ref, TagID: tagID, ColorIndex: s.colors[tagID]}
	}

	if prior, ok := s.positions[key]; ok {
		delete(s.hashes, prior.hash)
		s.hashes[h] = prior.tagID
		s.positions[key] = hashEntry{hash: h, tagID: prior.tagID}
		diff := UnifiedDiff(oldText, sectionText, 3)
		return Outcome{Kind: Changed, TagID: prior.tagID, ColorIndex: s.colors[prior.tagID], Diff: diff}
	}

	tagID := s.nextTag + 1
	s.nextTag = tagID
	color := s.nextColor % s.numColors
	s.nextColor++

	s.hashes[h] = tagID
	s.colors[tagID] = color
	s.positions[key] = hashEntry{hash: h, tagID: tagID}
	return Outcome{Kind: New, TagID: tagID, ColorIndex: color}
}
