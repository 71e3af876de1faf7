// Package display hosts the terminal UI: a Bubble Tea program that
// subscribes to the event router's queued channel, drives C4 (formatter)
// -> C6 (turns) -> C7 (visibility) on every event, and renders the
// current viewport by calling turns.Store.RenderLine for each visible
// line. Grounded on cmd/claude/interactive_tui.go's tuiModel (Bubble Tea
// Model/Init/Update/View shape, streamCh bridging pattern, lipgloss
// theme) wholesale-adapted from a chat transcript to a virtual-scrolled
// event transcript.
package display

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/cc-dump/ccdump/internal/config"
	"github.com/cc-dump/ccdump/internal/events"
	"github.com/cc-dump/ccdump/internal/formatter"
	"github.com/cc-dump/ccdump/internal/ir"
	"github.com/cc-dump/ccdump/internal/overrides"
	"github.com/cc-dump/ccdump/internal/rasterizer"
	"github.com/cc-dump/ccdump/internal/render"
	"github.com/cc-dump/ccdump/internal/turns"
	"github.com/cc-dump/ccdump/internal/visibility"
)

// categoryKeys maps the number-row hotkeys to the categories they cycle,
// matching the teacher's single-keystroke-toggle idiom (its slash-command
// and bash-mode single-key shortcuts) generalized to category cycling.
var categoryKeys = map[string]ir.Category{
	"1": ir.CategorySystem,
	"2": ir.CategoryUser,
	"3": ir.CategoryAssistant,
	"4": ir.CategoryTools,
	"5": ir.CategoryThinking,
	"6": ir.CategoryBudget,
	"7": ir.CategoryHeaders,
	"8": ir.CategoryMetadata,
}

// pendingExchange tracks the in-progress streaming turn for one proxy
// sequence number, bridging router events into turns.Store calls.
type pendingExchange struct {
	handle turns.Handle
}

// Model is the Bubble Tea model driving the whole display.
type Model struct {
	theme     Theme
	turns     *turns.Store
	vis       *visibility.Engine
	formatter *formatter.State
	thresh    config.Thresholds

	events <-chan events.Event

	pending map[uint64]*pendingExchange

	width, height int
	scrollOffset  int
	autoScroll    bool

	searchActive bool
	searchQuery  string

	statusText string
}

// New builds a Model. eventCh should be a queued subscription from
// events.Router.SubscribeQueued so a slow UI never stalls the router.
func New(eventCh <-chan events.Event, thresh config.Thresholds, theme Theme) *Model {
	m := &Model{
		theme:      theme,
		turns:      turns.NewStore(80),
		vis:        visibility.NewEngine(),
		formatter:  formatter.NewState(thresh.ColorPaletteSize),
		thresh:     thresh,
		events:     eventCh,
		pending:    make(map[uint64]*pendingExchange),
		autoScroll: true,
	}

	if meta, err := config.LoadModelMetadata(""); err == nil {
		m.formatter.SetPricing(meta)
	}
	m.formatter.SetTrackThreshold(thresh.TrackThresholdBytes)
	m.turns.SetRasterizerCacheEntries(thresh.RasterizerCacheEntries)
	visibility.SetLineLimits(thresh.SummaryLineLimit, thresh.SummaryExpandedLineLimit, thresh.FullCollapsedLineLimit)
	rasterizer.SetRegionAutoExpandLines(thresh.RegionAutoExpandLines)

	if renderer, err := glamour.NewTermRenderer(glamour.WithAutoStyle()); err == nil {
		rasterizer.SetMarkdownRenderer(func(text string) string {
			out, err := renderer.Render(text)
			if err != nil {
				return text
			}
			return strings.TrimRight(out, "\n")
		})
	}

	return m
}

// eventMsg wraps one router event for delivery through Bubble Tea's
// message loop.
type eventMsg events.Event

// listenEvent returns a tea.Cmd that waits for the next router event,
// mirroring tuiModel.listenStream's one-read-per-Cmd channel bridging.
func (m *Model) listenEvent() tea.Cmd {
	return func() tea.Msg {
		e, ok := <-m.events
		if !ok {
			return nil
		}
		return eventMsg(e)
	}
}

func (m *Model) Init() tea.Cmd {
	return m.listenEvent()
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.turns.SetWidth(msg.Width, m.vis)
		return m, nil

	case eventMsg:
		m.onEvent(events.Event(msg))
		return m, m.listenEvent()

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) onEvent(e events.Event) {
	switch e.Kind {
	case events.KindRequestHeaders:
		h := m.turns.BeginStreamingTurn()
		m.pending[e.Seq] = &pendingExchange{handle: h}

	case events.KindRequest:
		p := m.pending[e.Seq]
		if p == nil {
			return
		}
		var body formatter.RequestBody
		if err := json.Unmarshal(e.RequestBody, &body); err != nil {
			m.appendBlock(p.handle, ir.NewUnknownTypeBlock(ir.CategorySystem, "request", string(e.RequestBody)))
			return
		}
		for _, b := range formatter.FormatRequest(body, m.formatter, time.Now()) {
			m.appendBlock(p.handle, b)
		}

	case events.KindResponseHeaders:
		p := m.pending[e.Seq]
		if p == nil {
			return
		}
		headers := make([][2]string, 0, len(e.ResponseHeaders))
		for _, h := range e.ResponseHeaders {
			headers = append(headers, [2]string{h.Name, h.Value})
		}
		m.appendBlock(p.handle, ir.NewHttpHeadersBlock(headers))

	case events.KindResponseEvent:
		p := m.pending[e.Seq]
		if p == nil {
			return
		}
		for _, b := range formatter.FormatResponseEvent(e.SSEEventType, e.SSEData, m.formatter) {
			m.appendBlock(p.handle, b)
		}

	case events.KindResponseDone:
		p := m.pending[e.Seq]
		if p == nil {
			return
		}
		m.turns.FinalizeStreamingTurn(p.handle, m.vis)
		delete(m.pending, e.Seq)

	case events.KindError:
		p := m.pending[e.Seq]
		if p == nil {
			h := m.turns.BeginStreamingTurn()
			p = &pendingExchange{handle: h}
		}
		m.appendBlock(p.handle, ir.NewErrorBlock(e.ErrorCode, e.ErrorReason))
		m.turns.FinalizeStreamingTurn(p.handle, m.vis)
		delete(m.pending, e.Seq)

	case events.KindProxyError:
		p := m.pending[e.Seq]
		if p == nil {
			h := m.turns.BeginStreamingTurn()
			p = &pendingExchange{handle: h}
		}
		m.appendBlock(p.handle, ir.NewProxyErrorBlock(e.ProxyErrorDescription))
		m.turns.FinalizeStreamingTurn(p.handle, m.vis)
		delete(m.pending, e.Seq)
	}

	if m.autoScroll {
		m.scrollToBottom()
	}
}

func (m *Model) appendBlock(h turns.Handle, b ir.Block) {
	m.turns.AppendStreamingBlock(h, b, m.vis)
}

func (m *Model) scrollToBottom() {
	h := m.turns.VirtualHeight()
	if m.height > 0 && h > m.height {
		m.scrollOffset = h - m.height
	} else {
		m.scrollOffset = 0
	}
}

func (m *Model) handleKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.searchActive {
		return m.handleSearchKey(key)
	}

	switch key.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "up", "k":
		m.scrollBy(-1)
	case "down", "j":
		m.scrollBy(1)
	case "pgup":
		m.scrollBy(-m.pageSize())
	case "pgdown":
		m.scrollBy(m.pageSize())
	case "home", "g":
		m.scrollOffset = 0
		m.autoScroll = false
	case "end", "G":
		m.scrollToBottom()
		m.autoScroll = true
	case "/":
		m.searchActive = true
		m.searchQuery = ""
	default:
		if cat, ok := categoryKeys[key.String()]; ok {
			m.cycleCategory(cat)
		}
	}
	return m, nil
}

func (m *Model) handleSearchKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key.Type {
	case tea.KeyEsc:
		m.searchActive = false
		m.turns.Overrides().ClearSearch()
	case tea.KeyEnter:
		m.searchActive = false
		m.statusText = fmt.Sprintf("search: %s", m.searchQuery)
	case tea.KeyBackspace:
		if len(m.searchQuery) > 0 {
			m.searchQuery = m.searchQuery[:len(m.searchQuery)-1]
		}
	case tea.KeyRunes:
		m.searchQuery += string(key.Runes)
	}
	return m, nil
}

func (m *Model) cycleCategory(cat ir.Category) {
	m.vis.Cycle(cat)
	m.turns.Overrides().ClearForCategory(allBlocks(m.turns), cat)
	m.turns.UpdateFilters(m.vis)
}

func allBlocks(store *turns.Store) []ir.Block {
	var out []ir.Block
	for _, t := range store.Turns() {
		out = append(out, t.Blocks...)
	}
	return out
}

func (m *Model) scrollBy(delta int) {
	m.scrollOffset += delta
	if m.scrollOffset < 0 {
		m.scrollOffset = 0
	}
	max := m.turns.VirtualHeight() - m.height
	if max < 0 {
		max = 0
	}
	if m.scrollOffset > max {
		m.scrollOffset = max
	}
	m.autoScroll = m.scrollOffset >= max
}

func (m *Model) pageSize() int {
	if m.height <= 1 {
		return 1
	}
	return m.height - 1
}

func (m *Model) View() string {
	if m.height <= 0 {
		return ""
	}

	lines := make([]string, 0, m.height)
	for i := 0; i < m.height-1; i++ {
		strip, ok := m.turns.RenderLine(m.scrollOffset + i)
		if !ok {
			lines = append(lines, "")
			continue
		}
		lines = append(lines, m.renderStrip(strip))
	}
	lines = append(lines, m.statusLine())

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m *Model) renderStrip(s render.Strip) string {
	var b strings.Builder
	for _, run := range s.Runs {
		b.WriteString(m.theme.Style(run.Style).Render(run.Text))
	}
	return b.String()
}

func (m *Model) statusLine() string {
	base := fmt.Sprintf(" line %d/%d ", m.scrollOffset+1, m.turns.VirtualHeight())
	if m.searchActive {
		base += "search: " + m.searchQuery + "_"
	} else if m.statusText != "" {
		base += m.statusText
	}
	return m.theme.Style("dim").Render(base)
}

// ResetOverrides clears force-visible/expanded state for the whole
// transcript. No key binding calls it.
func (m *Model) ResetOverrides() {
	m.turns.Overrides().Restore(overrides.Snapshot{})
}
