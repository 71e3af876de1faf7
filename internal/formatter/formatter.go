package formatter

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/cc-dump/ccdump/internal/config"
	"github.com/cc-dump/ccdump/internal/correlator"
	"github.com/cc-dump/ccdump/internal/ir"
	"github.com/cc-dump/ccdump/internal/tracker"
)

// defaultTrackThreshold is the byte size above which a text content block
// is routed through the content tracker (spec.md §4.4); below it, content
// is rendered directly as a TextContentBlock since tag/diff bookkeeping
// isn't worth the overhead for short strings.
const defaultTrackThreshold = 500

// State bundles the mutable cross-cutting state the formatter consumes:
// content-tracker state (C2) and tool-correlator state (C3), both passed
// explicitly per spec.md §2 rather than held as a hidden global.
type State struct {
	Tracker     *tracker.State
	Correlator  *correlator.State
	messageText map[trackerKey]string // previous raw text per positional key, for diffing

	// Pricing is optional display-only model metadata (internal/config);
	// nil means no cost estimate is ever attached to a StopReasonBlock.
	Pricing *config.ModelMetadata
	// Model and InputTokens track the current exchange's model id and
	// prompt token count, set from the request body and message_start so the
	// eventual StopReasonBlock's cost estimate has both sides of the bill.
	Model       string
	InputTokens int

	// trackThreshold is the configurable byte size above which a text
	// content item is routed through the content tracker; defaults to
	// defaultTrackThreshold until SetTrackThreshold overrides it from
	// internal/config.Thresholds.
	trackThreshold int
}

type trackerKey = tracker.PositionalKey

// NewState builds a fresh formatter State, owned by the session and
// passed by reference into every formatter call (spec.md §9).
func NewState(numColors int) *State {
	return &State{
		Tracker:        tracker.NewState(numColors),
		Correlator:     correlator.NewState(numColors),
		messageText:    make(map[trackerKey]string),
		trackThreshold: defaultTrackThreshold,
	}
}

// SetPricing attaches model pricing/display metadata to a formatter
// State, enabling the estimated-cost annotation on StopReasonBlocks.
func (s *State) SetPricing(meta *config.ModelMetadata) { s.Pricing = meta }

// SetTrackThreshold overrides the byte-size cutoff for routing text
// content through the content tracker (internal/config.Thresholds'
// track_threshold_bytes). A non-positive value is ignored.
func (s *State) SetTrackThreshold(bytes int) {
	if bytes > 0 {
		s.trackThreshold = bytes
	}
}

// costBlock returns an estimated-cost MetadataBlock for the current
// exchange's model/input-token tally, or nil when no pricing is
// configured for that model.
func (s *State) costBlock(outputTokens int) ir.Block {
	cost, ok := s.Pricing.EstimateCostUSD(s.Model, s.InputTokens, outputTokens)
	if !ok {
		return nil
	}
	return ir.NewMetadataBlock("estimated_cost_usd", fmt.Sprintf("%.4f", cost))
}

// FormatRequest turns a parsed request body into an ordered block list.
// timestamp is supplied by the caller; the formatter never reads the
// clock itself (spec.md §4.4).
func FormatRequest(body RequestBody, state *State, timestamp time.Time) []ir.Block {
	var blocks []ir.Block

	state.Model = body.Model
	blocks = append(blocks, ir.NewHeaderBlock(timestamp, "request"))
	blocks = append(blocks, ir.NewMetadataSection(map[string]string{
		"model":      body.Model,
		"max_tokens": strconv.Itoa(body.MaxTokens),
		"stream":     strconv.FormatBool(body.Stream),
	}))
	blocks = append(blocks, ir.NewMetadataBlock("model", body.Model))
	blocks = append(blocks, ir.NewStreamInfoBlock(body.Stream))
	if body.Thinking != nil {
		blocks = append(blocks, ir.NewTurnBudgetBlock(body.MaxTokens, body.Thinking.BudgetTokens))
	}

	blocks = append(blocks, formatSystem(body.System, state)...)

	if len(body.Tools) > 0 {
		names := make([]string, 0, len(body.Tools))
		for _, t := range body.Tools {
			names = append(names, t.Name)
		}
		blocks = append(blocks, ir.NewToolDefinitionsBlock(names))
		for _, t := range body.Tools {
			blocks = append(blocks, ir.NewToolDefBlock(t.Name, string(t.InputSchema)))
		}
	}

	for i, msg := range body.Messages {
		blocks = append(blocks, formatMessage(msg, i, state)...)
	}

	return blocks
}

// formatSystem formats the `system` field, which may be either a bare
// string or an array of {type, text} blocks. Every section is routed
// through the content tracker unconditionally (not gated by
// trackThreshold) since system-prompt evolution tracking across turns is
// the tracker's primary purpose (spec.md §4.2 E2E scenarios 1-3).
func formatSystem(raw json.RawMessage, state *State) []ir.Block {
	if len(raw) == 0 {
		return nil
	}

	var blocks []ir.Block
	blocks = append(blocks, ir.NewSystemSection())

	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		blocks = append(blocks, trackSection(asString, trackerKey{MessageIndex: -1, SectionIndex: 0}, state, ir.CategorySystem)...)
		return blocks
	}

	var sections []SystemBlock
	if err := json.Unmarshal(raw, &sections); err != nil {
		blocks = append(blocks, ir.NewUnknownTypeBlock(ir.CategorySystem, "system", string(raw)))
		return blocks
	}
	for i, sec := range sections {
		blocks = append(blocks, ir.NewSystemLabelBlock(fmt.Sprintf("system[%d]", i)))
		blocks = append(blocks, trackSection(sec.Text, trackerKey{MessageIndex: -1, SectionIndex: i}, state, ir.CategorySystem)...)
	}
	return blocks
}

// trackSection runs text through the content tracker and renders the
// outcome as a TrackedContentBlock, handling the New/Ref/Changed cases.
func trackSection(text string, key trackerKey, state *State, cat ir.Category) []ir.Block {
	old := state.messageText[key]
	outcome := state.Tracker.Track(text, key, old)
	state.messageText[key] = text

	status := ir.TrackNew
	diff := ""
	switch outcome.Kind {
	case tracker.Ref:
		status = ir.TrackRef
	case tracker.Changed:
		status = ir.TrackChanged
		diff = outcome.Diff
	}
	b := ir.NewTrackedContentBlock(cat, text, outcome.TagID, outcome.ColorIndex, status, diff)
	b.ContentRegions = segmentRegions(text)
	return []ir.Block{b}
}

func categoryForRole(role string) ir.Category {
	if role == "assistant" {
		return ir.CategoryAssistant
	}
	return ir.CategoryUser
}

// formatMessage formats one request message, including every content
// item it holds. A user message whose content is exclusively tool_result
// items is still labelled USER (spec.md §4.4 edge case); tool-result
// category drives the children's own visibility independently.
func formatMessage(msg Message, index int, state *State) []ir.Block {
	cat := categoryForRole(msg.Role)
	var blocks []ir.Block
	blocks = append(blocks, ir.NewMessageBlock(cat, msg.Role, index))
	blocks = append(blocks, ir.NewRoleBlock(cat, msg.Role, index))

	// content may be a bare string or an array of ContentItem.
	var asString string
	if err := json.Unmarshal(msg.Content, &asString); err == nil {
		blocks = append(blocks, formatTextItem(asString, index, 0, cat, state)...)
		return blocks
	}

	var items []ContentItem
	if err := json.Unmarshal(msg.Content, &items); err != nil {
		blocks = append(blocks, ir.NewUnknownTypeBlock(cat, "message_content", string(msg.Content)))
		return blocks
	}

	for i, item := range items {
		blocks = append(blocks, formatContentItem(item, index, i, cat, state)...)
	}
	return blocks
}

func formatTextItem(text string, msgIndex, sectionIndex int, cat ir.Category, state *State) []ir.Block {
	if msgIndex == 0 && len(text) > state.trackThreshold {
		return trackSection(text, trackerKey{MessageIndex: msgIndex, SectionIndex: sectionIndex}, state, cat)
	}
	b := ir.NewTextContentBlock(cat, text)
	b.ContentRegions = segmentRegions(text)
	return []ir.Block{b}
}

// formatContentItem dispatches a single content item by its `type` tag.
// Unrecognized types become UnknownTypeBlock: no branch is silently
// skipped (spec.md §4.4).
func formatContentItem(item ContentItem, msgIndex, sectionIndex int, cat ir.Category, state *State) []ir.Block {
	switch item.Type {
	case "text":
		return formatTextItem(item.Text, msgIndex, sectionIndex, cat, state)
	case "image":
		mediaType := ""
		if item.Source != nil {
			mediaType = item.Source.MediaType
		}
		return []ir.Block{ir.NewImageBlock(cat, mediaType)}
	case "thinking":
		return []ir.Block{ir.NewThinkingBlock(item.Thinking, item.Signature)}
	case "tool_use":
		color, _ := state.Correlator.ObserveToolUse(item.ID, item.Name)
		return []ir.Block{ir.NewToolUseBlock(item.ID, item.Name, string(item.Input), color)}
	case "tool_result":
		name, color, complete := state.Correlator.ResolveToolResult(item.ToolUseID)
		content := rawContentToText(item.Content)
		b := ir.NewToolResultBlock(item.ToolUseID, name, content, item.IsError, color, complete)
		b.ContentRegions = segmentRegions(content)
		return []ir.Block{b}
	default:
		raw, _ := json.Marshal(item)
		return []ir.Block{ir.NewUnknownTypeBlock(cat, item.Type, string(raw))}
	}
}

// rawContentToText renders a tool_result's content field, which may be a
// bare string or a nested content-item array, down to plain text for
// display.
func rawContentToText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		return asString
	}
	var items []ContentItem
	if err := json.Unmarshal(raw, &items); err == nil {
		out := ""
		for _, it := range items {
			if it.Type == "text" {
				out += it.Text
			}
		}
		return out
	}
	return string(raw)
}

// FormatResponseEvent formats a single parsed SSE response_event into
// zero or more blocks, used for live/streaming display. Streaming
// tool-use fragments are emitted as StreamToolUseBlock per-delta and stay
// in the turn as emitted: turns.Store.FinalizeStreamingTurn consolidates
// only TextDeltaBlocks (spec.md §4.4 edge case).
func FormatResponseEvent(eventType string, data json.RawMessage, state *State) []ir.Block {
	switch eventType {
	case "message_start":
		var ev ResponseEvent
		if err := json.Unmarshal(data, &ev); err != nil || ev.Message == nil {
			return []ir.Block{ir.NewUnknownTypeBlock(ir.CategoryMetadata, eventType, string(data))}
		}
		state.Model = ev.Message.Model
		fields := map[string]string{"id": ev.Message.ID, "model": ev.Message.Model}
		blocks := []ir.Block{ir.NewResponseMetadataSection(fields), ir.NewResponseMessageBlock()}
		if ev.Message.Usage != nil {
			state.InputTokens = ev.Message.Usage.InputTokens
			blocks = append(blocks, ir.NewMetadataBlock("input_tokens", strconv.Itoa(ev.Message.Usage.InputTokens)))
		}
		return blocks

	case "content_block_start":
		var ev ResponseEvent
		if err := json.Unmarshal(data, &ev); err != nil || ev.ContentBlock == nil {
			return []ir.Block{ir.NewUnknownTypeBlock(ir.CategoryAssistant, eventType, string(data))}
		}
		if ev.ContentBlock.Type == "tool_use" {
			return []ir.Block{ir.NewStreamToolUseBlock(ev.ContentBlock.ID, ev.ContentBlock.Name, "", ev.Index)}
		}
		return nil

	case "content_block_delta":
		var ev ResponseEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			return []ir.Block{ir.NewUnknownTypeBlock(ir.CategoryAssistant, eventType, string(data))}
		}
		var delta Delta
		if err := json.Unmarshal(ev.Delta, &delta); err != nil {
			return []ir.Block{ir.NewUnknownTypeBlock(ir.CategoryAssistant, eventType, string(data))}
		}
		switch delta.Type {
		case "text_delta":
			return []ir.Block{ir.NewTextDeltaBlock(ir.CategoryAssistant, delta.Text, ev.Index)}
		case "thinking_delta":
			return []ir.Block{ir.NewThinkingBlock(delta.Thinking, "")}
		case "signature_delta":
			return []ir.Block{ir.NewThinkingBlock("", delta.Signature)}
		case "input_json_delta":
			return []ir.Block{ir.NewStreamToolUseBlock("", "", delta.PartialJSON, ev.Index)}
		default:
			return []ir.Block{ir.NewUnknownTypeBlock(ir.CategoryAssistant, "delta:"+delta.Type, string(ev.Delta))}
		}

	case "content_block_stop":
		return nil

	case "message_delta":
		var ev ResponseEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			return []ir.Block{ir.NewUnknownTypeBlock(ir.CategoryMetadata, eventType, string(data))}
		}
		var delta Delta
		_ = json.Unmarshal(ev.Delta, &delta)
		outputTokens := 0
		if ev.Usage != nil {
			outputTokens = ev.Usage.OutputTokens
		}
		blocks := []ir.Block{ir.NewStopReasonBlock(delta.StopReason, outputTokens)}
		if cb := state.costBlock(outputTokens); cb != nil {
			blocks = append(blocks, cb)
		}
		return blocks

	case "message_stop":
		return nil

	case "ping":
		return nil

	default:
		return []ir.Block{ir.NewUnknownTypeBlock(ir.CategoryMetadata, eventType, string(data))}
	}
}

// FormatCompleteResponse formats a fully reconstructed assistant message
// into the final block list, building ToolUseBlock entries from its
// tool_use content items. It works from the message alone: any
// StreamToolUseBlock fragments emitted while streaming are neither read
// nor replaced.
func FormatCompleteResponse(msg ReconstructedMessage, state *State) []ir.Block {
	var blocks []ir.Block
	state.Model = msg.Model
	state.InputTokens = msg.InputTokens
	blocks = append(blocks, ir.NewResponseMetadataSection(map[string]string{"id": msg.ID, "model": msg.Model}))
	blocks = append(blocks, ir.NewResponseMessageBlock())
	blocks = append(blocks, ir.NewMetadataBlock("input_tokens", strconv.Itoa(msg.InputTokens)))

	for _, item := range msg.Content {
		switch item.Type {
		case "text":
			b := ir.NewTextContentBlock(ir.CategoryAssistant, item.Text)
			b.ContentRegions = segmentRegions(item.Text)
			blocks = append(blocks, b)
		case "thinking":
			blocks = append(blocks, ir.NewThinkingBlock(item.Thinking, item.Signature))
		case "tool_use":
			color, _ := state.Correlator.ObserveToolUse(item.ID, item.Name)
			blocks = append(blocks, ir.NewToolUseBlock(item.ID, item.Name, string(item.Input), color))
		default:
			raw, _ := json.Marshal(item)
			blocks = append(blocks, ir.NewUnknownTypeBlock(ir.CategoryAssistant, item.Type, string(raw)))
		}
	}

	blocks = append(blocks, ir.NewStopReasonBlock(msg.StopReason, msg.OutputTokens))
	if cb := state.costBlock(msg.OutputTokens); cb != nil {
		blocks = append(blocks, cb)
	}
	return blocks
}
