// Package events implements the Event tagged variant (C8 boundary) and
// the fan-out router, grounded on the teacher's streamCh buffered-channel
// pattern in cmd/claude/interactive_tui.go and other_examples'
// matgreaves-rig eventlog.go monotonic-Seq-tagged Event struct.
package events

import "encoding/json"

// Kind is the Event tagged-variant discriminant, in the guaranteed
// per-exchange order documented in spec.md §3.
type Kind int

const (
	KindRequestHeaders Kind = iota
	KindRequest
	KindResponseHeaders
	KindResponseEvent
	KindResponseDone
	KindError
	KindProxyError
)

func (k Kind) String() string {
	switch k {
	case KindRequestHeaders:
		return "request_headers"
	case KindRequest:
		return "request"
	case KindResponseHeaders:
		return "response_headers"
	case KindResponseEvent:
		return "response_event"
	case KindResponseDone:
		return "response_done"
	case KindError:
		return "error"
	case KindProxyError:
		return "proxy_error"
	default:
		return "unknown"
	}
}

// Header is a single HTTP header name/value pair, order-preserved.
type Header struct {
	Name  string
	Value string
}

// Event is the tagged variant produced by the proxy (C9) or the replayer
// (C11) and consumed by router subscribers. Seq is the request sequence
// counter assigned at ingress, so concurrent exchanges are distinguishable
// (spec.md §3 ordering invariant).
type Event struct {
	Kind Kind
	Seq  uint64

	// request_headers
	Headers []Header

	// request
	RequestBody json.RawMessage

	// response_headers
	StatusCode      int
	ResponseHeaders []Header

	// response_event
	SSEEventType string
	SSEData      json.RawMessage

	// error
	ErrorCode   int
	ErrorReason string

	// proxy_error
	ProxyErrorDescription string
}
