package recorder

import "encoding/json"

// syntheticMessage is the canonical non-streaming message object the
// recorder assembles from a stream's SSE events (spec.md §4.10),
// grounded on other_examples' CirtusX-ctrl-ai-v1 buffered_stream.go
// reconstructAnthropic: accumulate content blocks by index, branch on
// delta.Type, merge usage from message_start/message_delta.
type syntheticMessage struct {
	ID         string                 `json:"id"`
	Model      string                 `json:"model"`
	StopReason string                 `json:"stop_reason"`
	Usage      map[string]int         `json:"usage"`
	Content    []map[string]any       `json:"content"`
}

type contentBlockAccum struct {
	index       int
	blockType   string
	id          string
	name        string
	text        string
	thinking    string
	signature   string
	partialJSON string
}

func reconstructMessage(evts []sseEvent) syntheticMessage {
	msg := syntheticMessage{Usage: map[string]int{}}
	blocks := map[int]*contentBlockAccum{}
	var order []int

	for _, evt := range evts {
		switch evt.eventType {
		case "message_start":
			var start struct {
				Message struct {
					ID    string `json:"id"`
					Model string `json:"model"`
					Usage struct {
						InputTokens int `json:"input_tokens"`
					} `json:"usage"`
				} `json:"message"`
			}
			if json.Unmarshal(evt.data, &start) == nil {
				msg.ID = start.Message.ID
				msg.Model = start.Message.Model
				msg.Usage["input_tokens"] = start.Message.Usage.InputTokens
			}

		case "content_block_start":
			var start struct {
				Index        int `json:"index"`
				ContentBlock struct {
					Type string `json:"type"`
					ID   string `json:"id,omitempty"`
					Name string `json:"name,omitempty"`
					Text string `json:"text,omitempty"`
				} `json:"content_block"`
			}
			if json.Unmarshal(evt.data, &start) == nil {
				b := &contentBlockAccum{
					index: start.Index, blockType: start.ContentBlock.Type,
					id: start.ContentBlock.ID, name: start.ContentBlock.Name, text: start.ContentBlock.Text,
				}
				if _, exists := blocks[start.Index]; !exists {
					order = append(order, start.Index)
				}
				blocks[start.Index] = b
			}

		case "content_block_delta":
			var d struct {
				Index int `json:"index"`
				Delta struct {
					Type        string `json:"type"`
					Text        string `json:"text,omitempty"`
					Thinking    string `json:"thinking,omitempty"`
					Signature   string `json:"signature,omitempty"`
					PartialJSON string `json:"partial_json,omitempty"`
				} `json:"delta"`
			}
			if json.Unmarshal(evt.data, &d) != nil {
				continue
			}
			b, ok := blocks[d.Index]
			if !ok {
				continue
			}
			switch d.Delta.Type {
			case "text_delta":
				b.text += d.Delta.Text
			case "thinking_delta":
				b.thinking += d.Delta.Thinking
			case "signature_delta":
				b.signature += d.Delta.Signature
			case "input_json_delta":
				b.partialJSON += d.Delta.PartialJSON
			}

		case "message_delta":
			var d struct {
				Delta struct {
					StopReason string `json:"stop_reason"`
				} `json:"delta"`
				Usage struct {
					OutputTokens int `json:"output_tokens"`
				} `json:"usage"`
			}
			if json.Unmarshal(evt.data, &d) == nil {
				msg.StopReason = d.Delta.StopReason
				msg.Usage["output_tokens"] = d.Usage.OutputTokens
			}
		}
	}

	for _, idx := range order {
		b := blocks[idx]
		item := map[string]any{"type": b.blockType}
		switch b.blockType {
		case "text":
			item["text"] = b.text
		case "thinking":
			item["thinking"] = b.thinking
			item["signature"] = b.signature
		case "tool_use":
			item["id"] = b.id
			item["name"] = b.name
			var input any
			if b.partialJSON != "" {
				_ = json.Unmarshal([]byte(b.partialJSON), &input)
			}
			item["input"] = input
		}
		msg.Content = append(msg.Content, item)
	}

	return msg
}
