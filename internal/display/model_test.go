package display

import (
	"encoding/json"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/cc-dump/ccdump/internal/config"
	"github.com/cc-dump/ccdump/internal/events"
)

func testModel() *Model {
	ch := make(chan events.Event, 16)
	m := New(ch, config.DefaultThresholds(), DefaultTheme())
	m.width, m.height = 80, 24
	return m
}

func feed(m *Model, e events.Event) {
	m.onEvent(e)
}

func TestOnEventBuildsOneTurnPerExchange(t *testing.T) {
	m := testModel()

	reqBody, _ := json.Marshal(map[string]any{
		"model":      "claude-x",
		"max_tokens": 100,
		"stream":     false,
		"messages":   []map[string]any{{"role": "user", "content": "hi"}},
	})

	feed(m, events.Event{Kind: events.KindRequestHeaders, Seq: 1})
	feed(m, events.Event{Kind: events.KindRequest, Seq: 1, RequestBody: reqBody})
	feed(m, events.Event{Kind: events.KindResponseHeaders, Seq: 1, StatusCode: 200})
	feed(m, events.Event{Kind: events.KindResponseDone, Seq: 1})

	if got := m.turns.VirtualHeight(); got == 0 {
		t.Fatalf("expected non-zero rendered lines after one exchange, got %d", got)
	}
	if len(m.pending) != 0 {
		t.Fatalf("expected pending exchange map cleared after response_done, got %d entries", len(m.pending))
	}
}

func TestOnEventErrorFinalizesWithoutPriorRequestHeaders(t *testing.T) {
	m := testModel()

	feed(m, events.Event{Kind: events.KindProxyError, Seq: 9, ProxyErrorDescription: "upstream unreachable"})

	if m.turns.VirtualHeight() == 0 {
		t.Fatalf("expected a turn rendered for a bare proxy error")
	}
	if len(m.pending) != 0 {
		t.Fatalf("proxy error must not leave a dangling pending exchange")
	}
}

func TestWindowSizeMsgUpdatesWidthAndHeight(t *testing.T) {
	m := testModel()
	m2, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	got := m2.(*Model)
	if got.width != 120 || got.height != 40 {
		t.Fatalf("expected width/height updated, got %d/%d", got.width, got.height)
	}
}

func TestScrollKeysClampToVirtualHeight(t *testing.T) {
	m := testModel()
	m.height = 5

	for i := 0; i < 3; i++ {
		seq := uint64(i + 1)
		feed(m, events.Event{Kind: events.KindRequestHeaders, Seq: seq})
		body, _ := json.Marshal(map[string]any{"model": "x", "messages": []map[string]any{{"role": "user", "content": "hello there"}}})
		feed(m, events.Event{Kind: events.KindRequest, Seq: seq, RequestBody: body})
		feed(m, events.Event{Kind: events.KindResponseDone, Seq: seq})
	}

	m.scrollOffset = 0
	m.autoScroll = false
	m.scrollBy(-10)
	if m.scrollOffset != 0 {
		t.Fatalf("expected scroll clamp at 0, got %d", m.scrollOffset)
	}

	m.scrollBy(1 << 20)
	max := m.turns.VirtualHeight() - m.height
	if max < 0 {
		max = 0
	}
	if m.scrollOffset != max {
		t.Fatalf("expected scroll clamp at %d, got %d", max, m.scrollOffset)
	}
}

func TestQuitKeyReturnsTeaQuit(t *testing.T) {
	m := testModel()
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Fatalf("expected a tea.Cmd for ctrl+c")
	}
	if msg := cmd(); msg != tea.Quit() {
		t.Fatalf("expected tea.Quit message, got %#v", msg)
	}
}

func TestCategoryHotkeyCyclesVisibility(t *testing.T) {
	m := testModel()
	before := m.vis.CategoryState(2) // ir.CategoryUser == 2
	m.handleKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("2")})
	after := m.vis.CategoryState(2)
	if before == after {
		t.Fatalf("expected category state to change after hotkey, stayed %v", after)
	}
}

func TestSearchModeCapturesRunesAndEscClears(t *testing.T) {
	m := testModel()
	m.handleKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("/")})
	if !m.searchActive {
		t.Fatalf("expected search mode active after /")
	}
	m.handleKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("a")})
	m.handleKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("b")})
	if m.searchQuery != "ab" {
		t.Fatalf("expected query 'ab', got %q", m.searchQuery)
	}
	m.handleKey(tea.KeyMsg{Type: tea.KeyEsc})
	if m.searchActive {
		t.Fatalf("expected search mode cleared after Esc")
	}
}
