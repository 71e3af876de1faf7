// Package render defines the terminal line-cell output contract shared
// by the rasterizer (C5), turn store (C6), and the external display host
// (internal/display): Strip, a single fully rasterized terminal line.
package render

import "github.com/mattn/go-runewidth"

// StyleTag is a semantic style name resolved by the UI host against a
// palette (spec.md §6): bold, dim, error, role-user, tag-color-N, etc.
// Kept as a plain string rather than a closed enum so tag-color-N values
// (one per content-tracker/tool-correlator color index) compose without
// an unbounded enum.
type StyleTag string

const (
	StyleNone      StyleTag = ""
	StyleBold      StyleTag = "bold"
	StyleDim       StyleTag = "dim"
	StyleError     StyleTag = "error"
	StyleRoleUser  StyleTag = "role-user"
	StyleRoleAsst  StyleTag = "role-assistant"
	StyleHeader    StyleTag = "header"
	StyleMuted     StyleTag = "muted"
	StyleDiffAdd   StyleTag = "diff-add"
	StyleDiffDel   StyleTag = "diff-del"
	StyleTruncated StyleTag = "truncated"
)

// TagColor returns the semantic style for the nth rotating color (tool
// correlator / content tracker color index).
func TagColor(index int) StyleTag {
	return StyleTag(tagColorName(index))
}

func tagColorName(index int) string {
	const prefix = "tag-color-"
	return prefix + itoa(index)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// Run is one styled text run within a Strip.
type Run struct {
	Text  string
	Style StyleTag
}

// Strip is a single fully rasterized terminal line: an ordered sequence
// of (text_run, style) pairs plus a cached cell width. Strips are value
// types, safe to share across turns via reference (spec.md §3).
type Strip struct {
	Runs      []Run
	cellWidth int
}

// NewStrip builds a Strip and computes its cached cell width immediately
// (display-width via go-runewidth, not byte or rune count, since
// terminal cells and Unicode code points diverge for wide glyphs).
func NewStrip(runs ...Run) Strip {
	s := Strip{Runs: runs}
	s.cellWidth = s.computeCellWidth()
	return s
}

func (s Strip) computeCellWidth() int {
	w := 0
	for _, r := range s.Runs {
		w += runewidth.StringWidth(r.Text)
	}
	return w
}

// CellWidth returns the cached display width of the strip.
func (s Strip) CellWidth() int { return s.cellWidth }

// Text concatenates every run's text, ignoring style — used for
// plain-text comparisons in tests and search.
func (s Strip) Text() string {
	out := ""
	for _, r := range s.Runs {
		out += r.Text
	}
	return out
}

// PlainStrip builds a single-run, unstyled Strip from plain text.
func PlainStrip(text string) Strip {
	return NewStrip(Run{Text: text, Style: StyleNone})
}
