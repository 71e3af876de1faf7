package display

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/cc-dump/ccdump/internal/render"
)

// Theme holds the lipgloss colors the display maps render.StyleTag onto.
// Grounded on cmd/claude/interactive_tui.go's tuiTheme (one
// lipgloss.AdaptiveColor field per semantic role, light/dark aware).
type Theme struct {
	Text      lipgloss.AdaptiveColor
	Secondary lipgloss.AdaptiveColor
	Muted     lipgloss.AdaptiveColor
	RoleUser  lipgloss.AdaptiveColor
	RoleAsst  lipgloss.AdaptiveColor
	Header    lipgloss.AdaptiveColor
	Error     lipgloss.AdaptiveColor
	DiffAdd   lipgloss.AdaptiveColor
	DiffDel   lipgloss.AdaptiveColor
	Truncated lipgloss.AdaptiveColor
	// TagPalette rotates distinct colors across content-tracker/tool-use
	// tags (spec.md §4.2/§4.3's "rotating color palette"); its length
	// should match config.Thresholds.ColorPaletteSize.
	TagPalette []lipgloss.AdaptiveColor
}

// DefaultTheme mirrors newTUIModel's built-in theme values, generalized
// from Claude-specific accents (Bash, Claude, Permission, Suggestion) to
// cc-dump's block-category palette.
func DefaultTheme() Theme {
	return Theme{
		Text:      lipgloss.AdaptiveColor{Light: "#1a1a1a", Dark: "#e6e6e6"},
		Secondary: lipgloss.AdaptiveColor{Light: "#6b6b6b", Dark: "#9a9a9a"},
		Muted:     lipgloss.AdaptiveColor{Light: "#b0b0b0", Dark: "#5c5c5c"},
		RoleUser:  lipgloss.AdaptiveColor{Light: "#0b6fae", Dark: "#6cc1ff"},
		RoleAsst:  lipgloss.AdaptiveColor{Light: "#8a3ea1", Dark: "#d9a8ff"},
		Header:    lipgloss.AdaptiveColor{Light: "#444444", Dark: "#cccccc"},
		Error:     lipgloss.AdaptiveColor{Light: "#b3261e", Dark: "#ff6b66"},
		DiffAdd:   lipgloss.AdaptiveColor{Light: "#1a7a3c", Dark: "#6bd68a"},
		DiffDel:   lipgloss.AdaptiveColor{Light: "#b3261e", Dark: "#ff6b66"},
		Truncated: lipgloss.AdaptiveColor{Light: "#999999", Dark: "#777777"},
		TagPalette: []lipgloss.AdaptiveColor{
			{Light: "#0b6fae", Dark: "#6cc1ff"},
			{Light: "#1a7a3c", Dark: "#6bd68a"},
			{Light: "#8a3ea1", Dark: "#d9a8ff"},
			{Light: "#b8860b", Dark: "#e8c56b"},
			{Light: "#c2410c", Dark: "#ff9d6b"},
			{Light: "#0f766e", Dark: "#5eead4"},
			{Light: "#be185d", Dark: "#f9a8d4"},
			{Light: "#4338ca", Dark: "#a5b4fc"},
			{Light: "#65a30d", Dark: "#bef264"},
			{Light: "#9333ea", Dark: "#d8b4fe"},
			{Light: "#0369a1", Dark: "#7dd3fc"},
			{Light: "#a16207", Dark: "#fde047"},
			{Light: "#be123c", Dark: "#fda4af"},
			{Light: "#15803d", Dark: "#86efac"},
		},
	}
}

// Style maps a render.StyleTag to the lipgloss.Style it should render
// with. Tag colors are resolved by index from TagPalette, wrapping at
// len(TagPalette).
func (th Theme) Style(tag render.StyleTag) lipgloss.Style {
	base := lipgloss.NewStyle()
	switch tag {
	case render.StyleNone:
		return base.Foreground(th.Text)
	case render.StyleBold:
		return base.Foreground(th.Text).Bold(true)
	case render.StyleDim:
		return base.Foreground(th.Secondary)
	case render.StyleError:
		return base.Foreground(th.Error).Bold(true)
	case render.StyleRoleUser:
		return base.Foreground(th.RoleUser).Bold(true)
	case render.StyleRoleAsst:
		return base.Foreground(th.RoleAsst).Bold(true)
	case render.StyleHeader:
		return base.Foreground(th.Header).Bold(true)
	case render.StyleMuted:
		return base.Foreground(th.Muted)
	case render.StyleDiffAdd:
		return base.Foreground(th.DiffAdd)
	case render.StyleDiffDel:
		return base.Foreground(th.DiffDel)
	case render.StyleTruncated:
		return base.Foreground(th.Truncated).Italic(true)
	}
	if idx, ok := tagColorIndex(tag); ok && len(th.TagPalette) > 0 {
		return base.Foreground(th.TagPalette[idx%len(th.TagPalette)])
	}
	return base.Foreground(th.Text)
}

// tagColorIndex parses the "tag-color-N" tags render.TagColor produces.
func tagColorIndex(tag render.StyleTag) (int, bool) {
	const prefix = "tag-color-"
	s := string(tag)
	if len(s) <= len(prefix) || s[:len(prefix)] != prefix {
		return 0, false
	}
	n := 0
	for _, c := range s[len(prefix):] {
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int(c-'0')
	}
	return n, true
}
