package rasterizer

import (
	"fmt"
	"strings"

	"github.com/cc-dump/ccdump/internal/ir"
	"github.com/cc-dump/ccdump/internal/render"
	"github.com/cc-dump/ccdump/internal/visibility"
)

func init() {
	register("separator", renderSeparator)
	register("header", renderHeader)
	register("role", renderRole)
	register("newline", renderNewline)
	register("new_session", renderNewSession)
	register("tracked_content", renderTrackedContent)
	register("text_content", renderTextContent)
	register("text_delta", renderTextDelta)
	register("thinking", renderThinking)
	register("image", renderImage)
	register("tool_use", renderToolUse)
	register("tool_result", renderToolResult)
	register("tool_use_summary", renderToolUseSummary)
	register("stream_tool_use", renderStreamToolUse)
	register("error", renderError)
	register("proxy_error", renderProxyError)
	register("unknown_type", renderUnknownType)
	register("metadata", renderMetadata)
	register("stop_reason", renderStopReason)
}

func wrapLines(text string, width int) []string {
	if width <= 0 {
		width = 80
	}
	var out []string
	for _, line := range strings.Split(text, "\n") {
		if len(line) <= width {
			out = append(out, line)
			continue
		}
		for len(line) > width {
			out = append(out, line[:width])
			line = line[width:]
		}
		out = append(out, line)
	}
	return out
}

func plainLines(lines []string, style render.StyleTag) []render.Strip {
	strips := make([]render.Strip, 0, len(lines))
	for _, l := range lines {
		strips = append(strips, render.NewStrip(render.Run{Text: l, Style: style}))
	}
	return strips
}

func renderSeparator(block ir.Block, vis visibility.State, width int) []render.Strip {
	if width <= 0 {
		width = 80
	}
	return []render.Strip{render.NewStrip(render.Run{Text: strings.Repeat("─", width), Style: render.StyleMuted})}
}

func renderHeader(block ir.Block, vis visibility.State, width int) []render.Strip {
	b := block.(*ir.HeaderBlock)
	return []render.Strip{render.NewStrip(render.Run{
		Text:  fmt.Sprintf("── %s @ %s ──", b.Label, b.Timestamp.Format("15:04:05")),
		Style: render.StyleHeader,
	})}
}

func renderRole(block ir.Block, vis visibility.State, width int) []render.Strip {
	b := block.(*ir.RoleBlock)
	style := render.StyleRoleUser
	if b.Role == "assistant" {
		style = render.StyleRoleAsst
	}
	return []render.Strip{render.NewStrip(render.Run{Text: fmt.Sprintf("[%s #%d]", b.Role, b.MessageIndex), Style: style})}
}

func renderNewline(block ir.Block, vis visibility.State, width int) []render.Strip {
	return []render.Strip{render.NewStrip()}
}

func renderNewSession(block ir.Block, vis visibility.State, width int) []render.Strip {
	b := block.(*ir.NewSessionBlock)
	return []render.Strip{render.NewStrip(render.Run{Text: "=== new session " + b.SessionID + " ===", Style: render.StyleBold})}
}

// renderTrackedContent implements the one place a summary and a full
// renderer must be *semantically* different, not merely length-capped
// (spec.md §4.5): the summary shows the tag status line only; the full
// renderer shows the status line followed by the tracked text (or, when
// Changed, the unified diff instead of the raw text).
func renderTrackedContent(block ir.Block, vis visibility.State, width int) []render.Strip {
	b := block.(*ir.TrackedContentBlock)
	statusWord := map[ir.TrackStatus]string{ir.TrackNew: "new", ir.TrackRef: "ref", ir.TrackChanged: "changed"}[b.Status]
	colorStyle := render.TagColor(b.ColorIndex)
	statusLine := render.NewStrip(render.Run{Text: fmt.Sprintf("[tag %d: %s]", b.TagID, statusWord), Style: colorStyle})

	if !vis.Full {
		return []render.Strip{statusLine}
	}

	strips := []render.Strip{statusLine}
	if b.Status == ir.TrackChanged && b.Diff != "" {
		for _, line := range strings.Split(strings.TrimRight(b.Diff, "\n"), "\n") {
			style := render.StyleNone
			switch {
			case strings.HasPrefix(line, "+"):
				style = render.StyleDiffAdd
			case strings.HasPrefix(line, "-"):
				style = render.StyleDiffDel
			}
			strips = append(strips, render.NewStrip(render.Run{Text: line, Style: style}))
		}
		return strips
	}

	strips = append(strips, plainLines(wrapLines(b.Text, width), render.StyleNone)...)
	return strips
}

func renderTextContent(block ir.Block, vis visibility.State, width int) []render.Strip {
	b := block.(*ir.TextContentBlock)
	if !vis.Full {
		first := firstLine(b.Text)
		return []render.Strip{render.PlainStrip(first)}
	}
	text := b.Text
	if markdownRender != nil {
		text = markdownRender(text)
	}
	return plainLines(wrapLines(text, width), render.StyleNone)
}

func renderTextDelta(block ir.Block, vis visibility.State, width int) []render.Strip {
	b := block.(*ir.TextDeltaBlock)
	return plainLines(wrapLines(b.Delta, width), render.StyleNone)
}

func renderThinking(block ir.Block, vis visibility.State, width int) []render.Strip {
	b := block.(*ir.ThinkingBlock)
	if !vis.Full {
		return []render.Strip{render.NewStrip(render.Run{Text: firstLine(b.Text), Style: render.StyleDim})}
	}
	return plainLines(wrapLines(b.Text, width), render.StyleDim)
}

func renderImage(block ir.Block, vis visibility.State, width int) []render.Strip {
	b := block.(*ir.ImageBlock)
	return []render.Strip{render.NewStrip(render.Run{Text: "[image: " + b.MediaType + "]", Style: render.StyleMuted})}
}

func renderToolUse(block ir.Block, vis visibility.State, width int) []render.Strip {
	b := block.(*ir.ToolUseBlock)
	style := render.TagColor(b.ColorIndex)
	if !vis.Full {
		return []render.Strip{render.NewStrip(render.Run{Text: fmt.Sprintf("→ %s(%s)", b.Name, summarizeInput(b.Input)), Style: style})}
	}
	strips := []render.Strip{render.NewStrip(render.Run{Text: fmt.Sprintf("→ %s [%s]", b.Name, b.ToolUseID), Style: style})}
	strips = append(strips, plainLines(wrapLines(b.Input, width), render.StyleDim)...)
	return strips
}

func renderToolResult(block ir.Block, vis visibility.State, width int) []render.Strip {
	b := block.(*ir.ToolResultBlock)
	style := render.TagColor(b.ColorIndex)
	if b.IsError {
		style = render.StyleError
	}
	label := b.Name
	if !b.Complete {
		label = "(unmatched)"
	}
	if !vis.Full {
		return []render.Strip{render.NewStrip(render.Run{Text: fmt.Sprintf("← %s: %s", label, firstLine(b.Content)), Style: style})}
	}
	strips := []render.Strip{render.NewStrip(render.Run{Text: "← " + label, Style: style})}
	strips = append(strips, plainLines(wrapLines(b.Content, width), style)...)
	return strips
}

func renderToolUseSummary(block ir.Block, vis visibility.State, width int) []render.Strip {
	b := block.(*ir.ToolUseSummaryBlock)
	return []render.Strip{render.NewStrip(render.Run{Text: fmt.Sprintf("→ %s: %s", b.Name, b.Summary)})}
}

func renderStreamToolUse(block ir.Block, vis visibility.State, width int) []render.Strip {
	b := block.(*ir.StreamToolUseBlock)
	if !vis.Full {
		return []render.Strip{render.PlainStrip("→ " + b.Name + " …")}
	}
	return plainLines(wrapLines(b.PartialJSON, width), render.StyleDim)
}

func renderError(block ir.Block, vis visibility.State, width int) []render.Strip {
	b := block.(*ir.ErrorBlock)
	return []render.Strip{render.NewStrip(render.Run{Text: fmt.Sprintf("[error %d] %s", b.Code, b.Reason), Style: render.StyleError})}
}

func renderProxyError(block ir.Block, vis visibility.State, width int) []render.Strip {
	b := block.(*ir.ProxyErrorBlock)
	return []render.Strip{render.NewStrip(render.Run{Text: "[proxy error] " + b.Description, Style: render.StyleError})}
}

func renderUnknownType(block ir.Block, vis visibility.State, width int) []render.Strip {
	b := block.(*ir.UnknownTypeBlock)
	if !vis.Full {
		return []render.Strip{render.NewStrip(render.Run{Text: "[unknown: " + b.RawType + "]", Style: render.StyleMuted})}
	}
	strips := []render.Strip{render.NewStrip(render.Run{Text: "[unknown: " + b.RawType + "]", Style: render.StyleMuted})}
	strips = append(strips, plainLines(wrapLines(b.RawJSON, width), render.StyleDim)...)
	return strips
}

func renderMetadata(block ir.Block, vis visibility.State, width int) []render.Strip {
	b := block.(*ir.MetadataBlock)
	return []render.Strip{render.NewStrip(render.Run{Text: b.Key + "=" + b.Value, Style: render.StyleDim})}
}

func renderStopReason(block ir.Block, vis visibility.State, width int) []render.Strip {
	b := block.(*ir.StopReasonBlock)
	return []render.Strip{render.NewStrip(render.Run{
		Text:  fmt.Sprintf("stop_reason=%s output_tokens=%d", b.StopReason, b.OutputTokens),
		Style: render.StyleDim,
	})}
}

// genericRender is the fallback for block kinds without a bespoke
// renderer (sections, metadata groupings, tool-def schemas, etc): summary
// shows a one-line "[kind]" label and full a one-line "[kind — expanded]"
// label; neither branch dumps the block's fields. The summary branch is
// not the full branch with a line-cap (spec.md §4.5): the two return
// different text.
func genericRender(block ir.Block, vis visibility.State, width int) []render.Strip {
	label := block.Kind()
	if !vis.Full {
		return []render.Strip{render.PlainStrip("[" + label + "]")}
	}
	return []render.Strip{render.PlainStrip("[" + label + " — expanded]")}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func summarizeInput(input string) string {
	const max = 40
	s := strings.ReplaceAll(input, "\n", " ")
	if len(s) > max {
		return s[:max] + "…"
	}
	return s
}
