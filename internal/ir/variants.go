package ir

import "time"

// SeparatorBlock draws a horizontal rule between turns.
type SeparatorBlock struct {
	Header
}

func NewSeparatorBlock() *SeparatorBlock {
	return &SeparatorBlock{Header: NewHeader(CategoryAlwaysVisible)}
}
func (b *SeparatorBlock) Kind() string { return "separator" }

// HeaderBlock labels the start of a turn with a timestamp supplied by the
// caller; the block never reads the clock itself.
type HeaderBlock struct {
	Header
	Timestamp time.Time
	Label     string
}

func NewHeaderBlock(ts time.Time, label string) *HeaderBlock {
	return &HeaderBlock{Header: NewHeader(CategoryAlwaysVisible), Timestamp: ts, Label: label}
}
func (b *HeaderBlock) Kind() string { return "header" }

// RoleBlock marks the start of a message from a given role and index.
type RoleBlock struct {
	Header
	Role         string
	MessageIndex int
}

func NewRoleBlock(cat Category, role string, idx int) *RoleBlock {
	return &RoleBlock{Header: NewHeader(cat), Role: role, MessageIndex: idx}
}
func (b *RoleBlock) Kind() string { return "role" }

// NewlineBlock is a bare blank line.
type NewlineBlock struct{ Header }

func NewNewlineBlock() *NewlineBlock {
	return &NewlineBlock{Header: NewHeader(CategoryAlwaysVisible)}
}
func (b *NewlineBlock) Kind() string { return "newline" }

// NewSessionBlock marks the boundary of a freshly started session.
type NewSessionBlock struct {
	Header
	SessionID string
}

func NewNewSessionBlock(sessionID string) *NewSessionBlock {
	return &NewSessionBlock{Header: NewHeader(CategoryAlwaysVisible), SessionID: sessionID}
}
func (b *NewSessionBlock) Kind() string { return "new_session" }

// MessageBlock wraps a single request message (role + index), the parent
// of its content blocks.
type MessageBlock struct {
	Header
	Role         string
	MessageIndex int
}

func NewMessageBlock(cat Category, role string, idx int) *MessageBlock {
	return &MessageBlock{Header: NewHeader(cat), Role: role, MessageIndex: idx}
}
func (b *MessageBlock) Kind() string { return "message" }

// MetadataSection groups request metadata fields (model, max_tokens, ...).
type MetadataSection struct {
	Header
	Fields map[string]string
}

func NewMetadataSection(fields map[string]string) *MetadataSection {
	return &MetadataSection{Header: NewHeader(CategoryMetadata), Fields: fields}
}
func (b *MetadataSection) Kind() string { return "metadata_section" }

// SystemSection groups the request's system prompt content.
type SystemSection struct {
	Header
}

func NewSystemSection() *SystemSection {
	return &SystemSection{Header: NewHeader(CategorySystem)}
}
func (b *SystemSection) Kind() string { return "system_section" }

// ToolDefsSection groups the request's tool definitions.
type ToolDefsSection struct {
	Header
	Count int
}

func NewToolDefsSection(count int) *ToolDefsSection {
	return &ToolDefsSection{Header: NewHeader(CategoryTools), Count: count}
}
func (b *ToolDefsSection) Kind() string { return "tool_defs_section" }

// ResponseMetadataSection groups response-level metadata (id, model, usage).
type ResponseMetadataSection struct {
	Header
	Fields map[string]string
}

func NewResponseMetadataSection(fields map[string]string) *ResponseMetadataSection {
	return &ResponseMetadataSection{Header: NewHeader(CategoryMetadata), Fields: fields}
}
func (b *ResponseMetadataSection) Kind() string { return "response_metadata_section" }

// ResponseMessageBlock wraps the assistant's response message.
type ResponseMessageBlock struct {
	Header
}

func NewResponseMessageBlock() *ResponseMessageBlock {
	return &ResponseMessageBlock{Header: NewHeader(CategoryAssistant)}
}
func (b *ResponseMessageBlock) Kind() string { return "response_message" }

// TextContentBlock is a complete, non-streaming text content item.
type TextContentBlock struct {
	Header
	Text string
}

func NewTextContentBlock(cat Category, text string) *TextContentBlock {
	return &TextContentBlock{Header: NewHeader(cat), Text: text}
}
func (b *TextContentBlock) Kind() string { return "text_content" }

// TextDeltaBlock is a single streaming text fragment, superseded on
// finalize by a consolidated TextContentBlock.
type TextDeltaBlock struct {
	Header
	Delta string
	Index int
}

func NewTextDeltaBlock(cat Category, delta string, index int) *TextDeltaBlock {
	return &TextDeltaBlock{Header: NewHeader(cat), Delta: delta, Index: index}
}
func (b *TextDeltaBlock) Kind() string { return "text_delta" }

// ImageBlock never renders pixels; it records the media type only.
type ImageBlock struct {
	Header
	MediaType string
}

func NewImageBlock(cat Category, mediaType string) *ImageBlock {
	return &ImageBlock{Header: NewHeader(cat), MediaType: mediaType}
}
func (b *ImageBlock) Kind() string { return "image" }

// ThinkingBlock holds extended-thinking content.
type ThinkingBlock struct {
	Header
	Text      string
	Signature string
}

func NewThinkingBlock(text, signature string) *ThinkingBlock {
	return &ThinkingBlock{Header: NewHeader(CategoryThinking), Text: text, Signature: signature}
}
func (b *ThinkingBlock) Kind() string { return "thinking" }

// TrackStatus is the outcome of a content-tracker lookup, carried onto the
// rendered block so the rasterizer can show New/Ref/Changed styling.
type TrackStatus int

const (
	TrackNew TrackStatus = iota
	TrackRef
	TrackChanged
)

// TrackedContentBlock is emitted for first-message text content routed
// through the content tracker (internal/tracker).
type TrackedContentBlock struct {
	Header
	Text       string
	TagID      uint64
	ColorIndex int
	Status     TrackStatus
	Diff       string // unified diff, only set when Status == TrackChanged
}

func NewTrackedContentBlock(cat Category, text string, tagID uint64, color int, status TrackStatus, diff string) *TrackedContentBlock {
	return &TrackedContentBlock{
		Header: NewHeader(cat), Text: text, TagID: tagID, ColorIndex: color, Status: status, Diff: diff,
	}
}
func (b *TrackedContentBlock) Kind() string { return "tracked_content" }

// ConfigContentBlock renders inline config/JSON content distinctly from
// free text (e.g. tool input echoed back for display).
type ConfigContentBlock struct {
	Header
	JSON string
}

func NewConfigContentBlock(cat Category, json string) *ConfigContentBlock {
	return &ConfigContentBlock{Header: NewHeader(cat), JSON: json}
}
func (b *ConfigContentBlock) Kind() string { return "config_content" }

// HookOutputBlock carries output produced by a client-side hook, surfaced
// for display only.
type HookOutputBlock struct {
	Header
	HookName string
	Output   string
}

func NewHookOutputBlock(hookName, output string) *HookOutputBlock {
	return &HookOutputBlock{Header: NewHeader(CategorySystem), HookName: hookName, Output: output}
}
func (b *HookOutputBlock) Kind() string { return "hook_output" }

// MetadataBlock is a single key/value metadata line (model=X, stream=true).
type MetadataBlock struct {
	Header
	Key   string
	Value string
}

func NewMetadataBlock(key, value string) *MetadataBlock {
	return &MetadataBlock{Header: NewHeader(CategoryMetadata), Key: key, Value: value}
}
func (b *MetadataBlock) Kind() string { return "metadata" }

// HttpHeadersBlock records the ordered (name, value) header pairs of a
// request or response, with auth stripped by the formatter before this
// block is ever constructed.
type HttpHeadersBlock struct {
	Header
	Headers [][2]string
}

func NewHttpHeadersBlock(headers [][2]string) *HttpHeadersBlock {
	return &HttpHeadersBlock{Header: NewHeader(CategoryHeaders), Headers: headers}
}
func (b *HttpHeadersBlock) Kind() string { return "http_headers" }

// TurnBudgetBlock surfaces max_tokens / thinking budget figures.
type TurnBudgetBlock struct {
	Header
	MaxTokens      int
	ThinkingBudget int
}

func NewTurnBudgetBlock(maxTokens, thinkingBudget int) *TurnBudgetBlock {
	return &TurnBudgetBlock{Header: NewHeader(CategoryBudget), MaxTokens: maxTokens, ThinkingBudget: thinkingBudget}
}
func (b *TurnBudgetBlock) Kind() string { return "turn_budget" }

// StopReasonBlock records why the assistant turn ended.
type StopReasonBlock struct {
	Header
	StopReason   string
	OutputTokens int
}

func NewStopReasonBlock(reason string, outputTokens int) *StopReasonBlock {
	return &StopReasonBlock{Header: NewHeader(CategoryMetadata), StopReason: reason, OutputTokens: outputTokens}
}
func (b *StopReasonBlock) Kind() string { return "stop_reason" }

// StreamInfoBlock records whether the request asked for streaming.
type StreamInfoBlock struct {
	Header
	Streaming bool
}

func NewStreamInfoBlock(streaming bool) *StreamInfoBlock {
	return &StreamInfoBlock{Header: NewHeader(CategoryMetadata), Streaming: streaming}
}
func (b *StreamInfoBlock) Kind() string { return "stream_info" }

// SystemLabelBlock labels a system-prompt section (e.g. "system[0]").
type SystemLabelBlock struct {
	Header
	Label string
}

func NewSystemLabelBlock(label string) *SystemLabelBlock {
	return &SystemLabelBlock{Header: NewHeader(CategorySystem), Label: label}
}
func (b *SystemLabelBlock) Kind() string { return "system_label" }

// ToolDefinitionsBlock wraps the full list of tool definitions supplied on
// a request.
type ToolDefinitionsBlock struct {
	Header
	Names []string
}

func NewToolDefinitionsBlock(names []string) *ToolDefinitionsBlock {
	return &ToolDefinitionsBlock{Header: NewHeader(CategoryTools), Names: names}
}
func (b *ToolDefinitionsBlock) Kind() string { return "tool_definitions" }

// ToolDefBlock is a single tool definition's schema, by name.
type ToolDefBlock struct {
	Header
	Name   string
	Schema string
}

func NewToolDefBlock(name, schema string) *ToolDefBlock {
	return &ToolDefBlock{Header: NewHeader(CategoryTools), Name: name, Schema: schema}
}
func (b *ToolDefBlock) Kind() string { return "tool_def" }

// SkillDefChild is a sub-definition nested under a tool def for a skill.
type SkillDefChild struct {
	Header
	SkillName string
}

func NewSkillDefChild(skillName string) *SkillDefChild {
	return &SkillDefChild{Header: NewHeader(CategoryTools), SkillName: skillName}
}
func (b *SkillDefChild) Kind() string { return "skill_def_child" }

// AgentDefChild is a sub-definition nested under a tool def for a
// sub-agent.
type AgentDefChild struct {
	Header
	AgentName string
}

func NewAgentDefChild(agentName string) *AgentDefChild {
	return &AgentDefChild{Header: NewHeader(CategoryTools), AgentName: agentName}
}
func (b *AgentDefChild) Kind() string { return "agent_def_child" }

// ToolUseBlock is a complete tool invocation emitted by the assistant.
type ToolUseBlock struct {
	Header
	ToolUseID  string
	Name       string
	Input      string
	ColorIndex int
	Complete   bool
}

func NewToolUseBlock(id, name, input string, color int) *ToolUseBlock {
	return &ToolUseBlock{Header: NewHeader(CategoryTools), ToolUseID: id, Name: name, Input: input, ColorIndex: color, Complete: true}
}
func (b *ToolUseBlock) Kind() string { return "tool_use" }

// ToolResultBlock is the result of a tool invocation, correlated by id to
// its ToolUseBlock by internal/correlator. Name is empty and Complete is
// false if no matching tool_use was seen (spec.md §4.3 tie-break).
type ToolResultBlock struct {
	Header
	ToolUseID  string
	Name       string
	Content    string
	IsError    bool
	ColorIndex int
	Complete   bool
}

func NewToolResultBlock(id, name, content string, isError bool, color int, complete bool) *ToolResultBlock {
	return &ToolResultBlock{
		Header: NewHeader(CategoryTools), ToolUseID: id, Name: name, Content: content,
		IsError: isError, ColorIndex: color, Complete: complete,
	}
}
func (b *ToolResultBlock) Kind() string { return "tool_result" }

// ToolUseSummaryBlock is a one-line collapsed summary of a tool call with
// its own tool_use_summary renderer. The formatter never constructs one;
// a ToolUseBlock's summary line is drawn by the tool_use renderer itself.
type ToolUseSummaryBlock struct {
	Header
	Name    string
	Summary string
}

func NewToolUseSummaryBlock(name, summary string) *ToolUseSummaryBlock {
	return &ToolUseSummaryBlock{Header: NewHeader(CategoryTools), Name: name, Summary: summary}
}
func (b *ToolUseSummaryBlock) Kind() string { return "tool_use_summary" }

// StreamToolUseBlock is a per-delta streaming fragment of a tool_use's
// accumulating input JSON. Finalizing a streaming turn leaves these
// fragments in place; they are not replaced by a ToolUseBlock.
type StreamToolUseBlock struct {
	Header
	ToolUseID   string
	Name        string
	PartialJSON string
	Index       int
}

func NewStreamToolUseBlock(id, name, partial string, index int) *StreamToolUseBlock {
	return &StreamToolUseBlock{Header: NewHeader(CategoryTools), ToolUseID: id, Name: name, PartialJSON: partial, Index: index}
}
func (b *StreamToolUseBlock) Kind() string { return "stream_tool_use" }

// ErrorBlock is an upstream HTTP error or transport error. Always visible
// irrespective of category filters.
type ErrorBlock struct {
	Header
	Code   int
	Reason string
}

func NewErrorBlock(code int, reason string) *ErrorBlock {
	return &ErrorBlock{Header: NewHeader(CategoryAlwaysVisible), Code: code, Reason: reason}
}
func (b *ErrorBlock) Kind() string { return "error" }

// ProxyErrorBlock is a transport/parse failure description. Always
// visible irrespective of category filters.
type ProxyErrorBlock struct {
	Header
	Description string
}

func NewProxyErrorBlock(description string) *ProxyErrorBlock {
	return &ProxyErrorBlock{Header: NewHeader(CategoryAlwaysVisible), Description: description}
}
func (b *ProxyErrorBlock) Kind() string { return "proxy_error" }

// UnknownTypeBlock preserves an unrecognized API content item's raw type
// tag and payload; no data is ever silently dropped.
type UnknownTypeBlock struct {
	Header
	RawType string
	RawJSON string
}

func NewUnknownTypeBlock(cat Category, rawType, rawJSON string) *UnknownTypeBlock {
	return &UnknownTypeBlock{Header: NewHeader(cat), RawType: rawType, RawJSON: rawJSON}
}
func (b *UnknownTypeBlock) Kind() string { return "unknown_type" }
