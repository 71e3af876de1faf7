package formatter

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/cc-dump/ccdump/internal/config"
	"github.com/cc-dump/ccdump/internal/ir"
	"github.com/cc-dump/ccdump/internal/testutil"
)

func findTracked(blocks []ir.Block) *ir.TrackedContentBlock {
	for _, b := range blocks {
		if tb, ok := b.(*ir.TrackedContentBlock); ok {
			return tb
		}
	}
	return nil
}

func reqBody(systemText, userText string) RequestBody {
	content, _ := json.Marshal([]ContentItem{{Type: "text", Text: userText}})
	return RequestBody{
		Model:     "claude-x",
		MaxTokens: 1024,
		Stream:    true,
		System:    mustJSON(systemText),
		Messages: []Message{
			{Role: "user", Content: content},
		},
	}
}

func mustJSON(s string) json.RawMessage {
	b, _ := json.Marshal(s)
	return b
}

func TestFormatRequestSingleTurn(t *testing.T) {
	state := NewState(14)
	blocks := FormatRequest(reqBody("S", "hi"), state, time.Unix(0, 0))

	testutil.RequireTrue(t, len(blocks) > 0, "produced blocks")
	testutil.RequireBlockKind(t, blocks[0], "header", "first block is header")

	tracked := findTracked(blocks)
	testutil.RequireTrue(t, tracked != nil, "system prompt tracked")
	testutil.AssertEqual(t, ir.TrackNew, tracked.Status, "first sighting is New")
	testutil.AssertEqual(t, uint64(1), tracked.TagID, "first tag id is 1")
}

func TestFormatRequestUnchangedSystemPromptIsRef(t *testing.T) {
	state := NewState(14)
	FormatRequest(reqBody("S", "hi"), state, time.Unix(0, 0))
	second := FormatRequest(reqBody("S", "bye"), state, time.Unix(1, 0))

	tracked := findTracked(second)
	testutil.RequireTrue(t, tracked != nil, "system prompt tracked again")
	testutil.AssertEqual(t, ir.TrackRef, tracked.Status, "unchanged system prompt is Ref")
	testutil.AssertEqual(t, uint64(1), tracked.TagID, "same tag id as first turn")
}

func TestFormatRequestChangedSystemPromptProducesDiff(t *testing.T) {
	state := NewState(14)
	FormatRequest(reqBody("line one\nline two", "hi"), state, time.Unix(0, 0))
	third := FormatRequest(reqBody("line one\nline three", "hi again"), state, time.Unix(2, 0))

	tracked := findTracked(third)
	testutil.RequireTrue(t, tracked != nil, "system prompt tracked a third time")
	testutil.AssertEqual(t, ir.TrackChanged, tracked.Status, "changed system prompt")
	testutil.AssertEqual(t, uint64(1), tracked.TagID, "tag id stays 1 across a change")
	testutil.RequireStringContains(t, tracked.Diff, "+line three", "diff shows the new line")
}

func TestFormatRequestToolUseRoundTrip(t *testing.T) {
	state := NewState(14)

	content, _ := json.Marshal([]ContentItem{
		{Type: "tool_use", ID: "tu_1", Name: "Read", Input: json.RawMessage(`{"path":"a.py"}`)},
	})
	req := RequestBody{
		Model:  "claude-x",
		System: mustJSON("S"),
		Messages: []Message{
			{Role: "assistant", Content: content},
		},
	}
	reqBlocks := FormatRequest(req, state, time.Unix(0, 0))

	var toolUse *ir.ToolUseBlock
	for _, b := range reqBlocks {
		if tu, ok := b.(*ir.ToolUseBlock); ok {
			toolUse = tu
		}
	}
	testutil.RequireTrue(t, toolUse != nil, "tool_use formatted")

	resultContent, _ := json.Marshal([]ContentItem{
		{Type: "tool_result", ToolUseID: "tu_1", Content: mustJSON("file contents")},
	})
	followUp := RequestBody{
		Model:  "claude-x",
		System: mustJSON("S"),
		Messages: []Message{
			{Role: "user", Content: resultContent},
		},
	}
	followBlocks := FormatRequest(followUp, state, time.Unix(1, 0))

	var toolResult *ir.ToolResultBlock
	for _, b := range followBlocks {
		if tr, ok := b.(*ir.ToolResultBlock); ok {
			toolResult = tr
		}
	}
	testutil.RequireTrue(t, toolResult != nil, "tool_result formatted")
	testutil.AssertEqual(t, "Read", toolResult.Name, "result inherits tool name")
	testutil.AssertEqual(t, toolUse.ColorIndex, toolResult.ColorIndex, "result inherits tool color")
	testutil.RequireTrue(t, toolResult.Complete, "result correlated to its use")
}

func TestFormatCompleteResponseAttachesCostEstimateWhenPricingKnown(t *testing.T) {
	state := NewState(14)
	state.SetPricing(&config.ModelMetadata{
		Pricing: map[string]config.ModelPricing{
			"claude-x": {InputPer1M: 3, OutputPer1M: 15},
		},
	})

	msg := ReconstructedMessage{
		ID: "msg_1", Model: "claude-x",
		StopReason: "end_turn", InputTokens: 1_000_000, OutputTokens: 1_000_000,
	}
	blocks := FormatCompleteResponse(msg, state)

	var cost *ir.MetadataBlock
	for _, b := range blocks {
		if mb, ok := b.(*ir.MetadataBlock); ok && mb.Key == "estimated_cost_usd" {
			cost = mb
		}
	}
	testutil.RequireTrue(t, cost != nil, "cost estimate attached when pricing is configured")
	testutil.AssertEqual(t, "18.0000", cost.Value, "1M input + 1M output tokens at $3/$15 per 1M")
}

func TestFormatCompleteResponseOmitsCostEstimateWithoutPricing(t *testing.T) {
	state := NewState(14)
	msg := ReconstructedMessage{ID: "msg_1", Model: "claude-x", StopReason: "end_turn", OutputTokens: 10}
	blocks := FormatCompleteResponse(msg, state)

	for _, b := range blocks {
		if mb, ok := b.(*ir.MetadataBlock); ok {
			testutil.RequireTrue(t, mb.Key != "estimated_cost_usd", "no cost block without configured pricing")
		}
	}
}

func TestFormatResponseEventTextDelta(t *testing.T) {
	state := NewState(14)
	data, _ := json.Marshal(ResponseEvent{
		Type:  "content_block_delta",
		Index: 0,
		Delta: json.RawMessage(`{"type":"text_delta","text":"Hi!"}`),
	})
	blocks := FormatResponseEvent("content_block_delta", data, state)
	testutil.RequireTrue(t, len(blocks) == 1, "one delta block produced")
	delta, ok := blocks[0].(*ir.TextDeltaBlock)
	testutil.RequireTrue(t, ok, "block is a TextDeltaBlock")
	testutil.AssertEqual(t, "Hi!", delta.Delta, "delta text carried through")
}

func TestFormatResponseEventUnknownTypeNeverDropsData(t *testing.T) {
	state := NewState(14)
	blocks := FormatResponseEvent("some_future_event", json.RawMessage(`{"x":1}`), state)
	testutil.RequireTrue(t, len(blocks) == 1, "unknown event still produces a block")
	unk, ok := blocks[0].(*ir.UnknownTypeBlock)
	testutil.RequireTrue(t, ok, "block is UnknownTypeBlock")
	testutil.AssertEqual(t, "some_future_event", unk.RawType, "raw type preserved")
	testutil.RequireStringContains(t, unk.RawJSON, `"x":1`, "raw json preserved")
}

func TestFormatCompleteResponseTextBlockCarriesContentRegions(t *testing.T) {
	state := NewState(14)
	msg := ReconstructedMessage{
		Model: "claude-x",
		Content: []ContentItem{
			{Type: "text", Text: "see:\n```\ncode here\n```\ndone"},
		},
	}
	blocks := FormatCompleteResponse(msg, state)

	var found *ir.TextContentBlock
	for _, b := range blocks {
		if tb, ok := b.(*ir.TextContentBlock); ok {
			found = tb
		}
	}
	testutil.RequireTrue(t, found != nil, "text content block produced")
	testutil.RequireEqual(t, 1, len(found.ContentRegions), "the code fence is segmented into a region")
	testutil.AssertEqual(t, ir.RegionCodeFence, found.ContentRegions[0].Kind, "region kind is code fence")
}

func TestFormatContentItemToolResultCarriesContentRegions(t *testing.T) {
	state := NewState(14)
	state.Correlator.ObserveToolUse("tu_1", "read_file")
	content, _ := json.Marshal("```\nfile contents\n```")
	item := ContentItem{Type: "tool_result", ToolUseID: "tu_1", Content: content}

	blocks := formatContentItem(item, 0, 0, ir.CategoryUser, state)
	testutil.RequireTrue(t, len(blocks) == 1, "one block produced")
	tr, ok := blocks[0].(*ir.ToolResultBlock)
	testutil.RequireTrue(t, ok, "block is a ToolResultBlock")
	testutil.RequireEqual(t, 1, len(tr.ContentRegions), "fenced tool output is segmented into a region")
}

func TestSetTrackThresholdOverridesDefault(t *testing.T) {
	state := NewState(14)
	state.SetTrackThreshold(5)

	blocks := formatTextItem("short but over the lowered threshold", 0, 0, ir.CategoryUser, state)
	testutil.RequireTrue(t, len(blocks) == 1, "one block produced")
	_, tracked := blocks[0].(*ir.TrackedContentBlock)
	testutil.RequireTrue(t, tracked, "text above the configured threshold is routed through the tracker")
}
