// Package replayer implements the session replayer (C11): loads an
// archive and, for each entry, emits the same event sequence the proxy
// would have, synthesizing SSE response_events from the entry's
// reconstructed complete message. Grounded on
// cmd/claude/stream_json_replay.go's replayStoredStreamJSON and
// internal/streamjson/events.go's BuildStreamEventsForText.
package replayer

import (
	"encoding/json"

	"github.com/cc-dump/ccdump/internal/archive"
	"github.com/cc-dump/ccdump/internal/events"
	"github.com/google/uuid"
)

// Replay feeds every archive entry's synthesized event sequence to post.
// Seq starts at startSeq and increments per entry, so a `--continue`
// replay-then-live session can hand off to the proxy's own sequence
// counter without collision.
func Replay(entries []archive.Entry, startSeq uint64, post func(events.Event)) {
	seq := startSeq
	for _, e := range entries {
		replayEntry(e, seq, post)
		seq++
	}
}

func replayEntry(e archive.Entry, seq uint64, post func(events.Event)) {
	post(events.Event{Kind: events.KindRequestHeaders, Seq: seq, Headers: toEventHeaders(e.Request.Headers)})
	post(events.Event{Kind: events.KindRequest, Seq: seq, RequestBody: json.RawMessage(e.Request.PostData.Text)})
	post(events.Event{
		Kind: events.KindResponseHeaders, Seq: seq,
		StatusCode: e.Response.Status, ResponseHeaders: toEventHeaders(e.Response.Headers),
	})

	for _, se := range synthesizeSSE(e.Response.Content.Text) {
		post(events.Event{Kind: events.KindResponseEvent, Seq: seq, SSEEventType: se.eventType, SSEData: se.data})
	}

	post(events.Event{Kind: events.KindResponseDone, Seq: seq})
}

func toEventHeaders(nv []archive.NVPair) []events.Header {
	out := make([]events.Header, 0, len(nv))
	for _, h := range nv {
		out = append(out, events.Header{Name: h.Name, Value: h.Value})
	}
	return out
}

type synthEvent struct {
	eventType string
	data      json.RawMessage
}

// synthesizeSSE implements spec.md §4.11: one message_start (with usage),
// one content_block_start + content_block_delta(s) + content_block_stop
// per content block, one message_delta (stop_reason + output_tokens), one
// message_stop. The text content is split into a single delta per block
// (the number of deltas need not match the original — an accepted
// semantic divergence documented in spec.md §4.11/§8).
func synthesizeSSE(messageJSON string) []synthEvent {
	var msg struct {
		ID         string           `json:"id"`
		Model      string           `json:"model"`
		StopReason string           `json:"stop_reason"`
		Usage      map[string]int   `json:"usage"`
		Content    []map[string]any `json:"content"`
	}
	if err := json.Unmarshal([]byte(messageJSON), &msg); err != nil {
		return nil
	}

	var out []synthEvent

	startPayload, _ := json.Marshal(map[string]any{
		"type": "message_start",
		"message": map[string]any{
			"id": msg.ID, "model": msg.Model,
			"usage": map[string]any{"input_tokens": msg.Usage["input_tokens"]},
		},
	})
	out = append(out, synthEvent{"message_start", startPayload})

	for i, item := range msg.Content {
		blockType, _ := item["type"].(string)

		startBlock := map[string]any{"type": blockType}
		switch blockType {
		case "tool_use":
			startBlock["id"] = item["id"]
			startBlock["name"] = item["name"]
		}
		startData, _ := json.Marshal(map[string]any{
			"type": "content_block_start", "index": i, "content_block": startBlock,
		})
		out = append(out, synthEvent{"content_block_start", startData})

		deltaType, deltaFields := deltaFor(blockType, item)
		if deltaType != "" {
			deltaFields["type"] = deltaType
			deltaData, _ := json.Marshal(map[string]any{"type": "content_block_delta", "index": i, "delta": deltaFields})
			out = append(out, synthEvent{"content_block_delta", deltaData})
		}

		stopData, _ := json.Marshal(map[string]any{"type": "content_block_stop", "index": i})
		out = append(out, synthEvent{"content_block_stop", stopData})
	}

	deltaData, _ := json.Marshal(map[string]any{
		"type":  "message_delta",
		"delta": map[string]any{"stop_reason": msg.StopReason},
		"usage": map[string]any{"output_tokens": msg.Usage["output_tokens"]},
	})
	out = append(out, synthEvent{"message_delta", deltaData})
	out = append(out, synthEvent{"message_stop", []byte(`{"type":"message_stop"}`)})

	return out
}

func deltaFor(blockType string, item map[string]any) (string, map[string]any) {
	switch blockType {
	case "text":
		text, _ := item["text"].(string)
		return "text_delta", map[string]any{"text": text}
	case "thinking":
		thinking, _ := item["thinking"].(string)
		return "thinking_delta", map[string]any{"thinking": thinking}
	case "tool_use":
		input, _ := json.Marshal(item["input"])
		return "input_json_delta", map[string]any{"partial_json": string(input)}
	default:
		return "", nil
	}
}

// NewReplaySessionID synthesizes a session id for a replay run when the
// archive itself carries none, so downstream consumers (e.g. a
// NewSessionBlock) have something stable to key on.
func NewReplaySessionID() string {
	return uuid.NewString()
}
