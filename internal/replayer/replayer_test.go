package replayer

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/cc-dump/ccdump/internal/archive"
	"github.com/cc-dump/ccdump/internal/events"
	"github.com/cc-dump/ccdump/internal/testutil"
)

func sampleEntry() archive.Entry {
	message := `{"id":"msg_1","model":"claude-3","stop_reason":"end_turn","usage":{"input_tokens":10,"output_tokens":5},` +
		`"content":[{"type":"text","text":"hello"},{"type":"tool_use","id":"tu_1","name":"Read","input":{"path":"a.go"}}]}`
	return archive.Entry{
		StartedDateTime: time.Now(),
		Request: archive.Request{
			Method:   "POST",
			URL:      "https://api.anthropic.com/v1/messages",
			Headers:  []archive.NVPair{{Name: "authorization", Value: "Bearer x"}},
			PostData: archive.PostData{MimeType: "application/json", Text: `{"model":"claude-3","stream":false}`},
		},
		Response: archive.Response{
			Status:  200,
			Headers: []archive.NVPair{{Name: "content-type", Value: "application/json"}},
			Content: archive.Content{MimeType: "application/json", Text: message},
		},
	}
}

func TestReplayEmitsDocumentedEventOrder(t *testing.T) {
	var kinds []events.Kind
	Replay([]archive.Entry{sampleEntry()}, 1, func(e events.Event) {
		kinds = append(kinds, e.Kind)
	})

	testutil.RequireTrue(t, len(kinds) >= 5, "the four framing events plus at least one SSE event")
	testutil.AssertEqual(t, events.KindRequestHeaders, kinds[0], "first event is request headers")
	testutil.AssertEqual(t, events.KindRequest, kinds[1], "second event is the request body")
	testutil.AssertEqual(t, events.KindResponseHeaders, kinds[2], "third event is response headers")
	testutil.AssertEqual(t, events.KindResponseDone, kinds[len(kinds)-1], "last event is response_done")

	for _, k := range kinds[3 : len(kinds)-1] {
		testutil.AssertEqual(t, events.KindResponseEvent, k, "every middle event is a synthesized SSE response_event")
	}
}

func TestReplaySSESynthesisRoundTripsToolUseAndText(t *testing.T) {
	var sseTypes []string
	var textDelta, toolUseStart bool
	Replay([]archive.Entry{sampleEntry()}, 1, func(e events.Event) {
		if e.Kind != events.KindResponseEvent {
			return
		}
		sseTypes = append(sseTypes, e.SSEEventType)
		if e.SSEEventType == "content_block_delta" {
			var d struct {
				Delta struct {
					Type string `json:"type"`
					Text string `json:"text"`
				} `json:"delta"`
			}
			if json.Unmarshal(e.SSEData, &d) == nil && d.Delta.Type == "text_delta" && d.Delta.Text == "hello" {
				textDelta = true
			}
		}
		if e.SSEEventType == "content_block_start" {
			var s struct {
				ContentBlock struct {
					Type string `json:"type"`
					Name string `json:"name"`
				} `json:"content_block"`
			}
			if json.Unmarshal(e.SSEData, &s) == nil && s.ContentBlock.Type == "tool_use" && s.ContentBlock.Name == "Read" {
				toolUseStart = true
			}
		}
	})

	testutil.RequireTrue(t, textDelta, "text content reconstructs a text_delta")
	testutil.RequireTrue(t, toolUseStart, "tool_use content reconstructs a content_block_start with id/name")
	testutil.AssertEqual(t, "message_start", sseTypes[0], "stream opens with message_start")
	testutil.AssertEqual(t, "message_stop", sseTypes[len(sseTypes)-1], "stream closes with message_stop")
}

func TestReplaySeqIncrementsPerEntry(t *testing.T) {
	entries := []archive.Entry{sampleEntry(), sampleEntry()}
	var seqs []uint64
	Replay(entries, 7, func(e events.Event) {
		if e.Kind == events.KindRequestHeaders {
			seqs = append(seqs, e.Seq)
		}
	})
	testutil.RequireEqual(t, 2, len(seqs), "one request_headers event per entry")
	testutil.AssertEqual(t, uint64(7), seqs[0], "sequence starts at the provided offset")
	testutil.AssertEqual(t, uint64(8), seqs[1], "sequence increments per replayed entry")
}
