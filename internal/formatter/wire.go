// Package formatter implements C4: parsed Anthropic Messages API JSON ->
// ordered []ir.Block, invoking the content tracker (C2) and tool
// correlator (C3). Grounded on internal/streamjson/events.go's
// Build*Message/Build*Event constructor family (small pure functions from
// parsed payload to typed struct), redirected from building stream-json
// envelopes to formatting observed wire payloads.
package formatter

import "encoding/json"

// RequestBody mirrors the upstream Messages API request shape (spec.md
// §6): model, max_tokens, stream, system, tools, messages.
type RequestBody struct {
	Model         string          `json:"model"`
	MaxTokens     int             `json:"max_tokens"`
	Stream        bool            `json:"stream"`
	System        json.RawMessage `json:"system"`
	Tools         []ToolDef       `json:"tools"`
	Messages      []Message       `json:"messages"`
	Thinking      *ThinkingConfig `json:"thinking,omitempty"`
}

type ThinkingConfig struct {
	Type         string `json:"type"`
	BudgetTokens int    `json:"budget_tokens"`
}

type ToolDef struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"input_schema"`
}

type Message struct {
	Role    string          `json:"role"`
	Content json.RawMessage `json:"content"`
}

// ContentItem is the union of every content-block shape a message's
// content array may hold.
type ContentItem struct {
	Type string `json:"type"`

	// text
	Text string `json:"text,omitempty"`

	// image
	Source *ImageSource `json:"source,omitempty"`

	// tool_use
	ID    string          `json:"id,omitempty"`
	Name  string          `json:"name,omitempty"`
	Input json.RawMessage `json:"input,omitempty"`

	// tool_result
	ToolUseID string          `json:"tool_use_id,omitempty"`
	Content   json.RawMessage `json:"content,omitempty"`
	IsError   bool            `json:"is_error,omitempty"`

	// thinking
	Thinking  string `json:"thinking,omitempty"`
	Signature string `json:"signature,omitempty"`
}

type ImageSource struct {
	MediaType string `json:"media_type"`
}

// SystemBlock is one element of a `system` array (when system is an
// array of {type:"text", text:"..."} rather than a bare string).
type SystemBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// ResponseEvent mirrors one parsed SSE response_event payload.
type ResponseEvent struct {
	Type  string          `json:"type"`
	Index int             `json:"index"`
	Delta json.RawMessage `json:"delta,omitempty"`

	Message      *ResponseMessageMeta `json:"message,omitempty"`
	ContentBlock *ContentItem         `json:"content_block,omitempty"`

	Usage *Usage `json:"usage,omitempty"`
}

type ResponseMessageMeta struct {
	ID    string `json:"id"`
	Model string `json:"model"`
	Usage *Usage `json:"usage,omitempty"`
}

type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

type Delta struct {
	Type        string `json:"type"`
	Text        string `json:"text,omitempty"`
	Thinking    string `json:"thinking,omitempty"`
	Signature   string `json:"signature,omitempty"`
	PartialJSON string `json:"partial_json,omitempty"`
	StopReason  string `json:"stop_reason,omitempty"`
}

// ReconstructedMessage is the synthetic complete message C10 assembles
// from a stream's deltas (or, in replay, read back from the archive)
// before it's handed to FormatCompleteResponse.
type ReconstructedMessage struct {
	ID           string
	Model        string
	StopReason   string
	InputTokens  int
	OutputTokens int
	Content      []ContentItem
}
