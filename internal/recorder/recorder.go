// Package recorder implements the session recorder (C10): subscribes to
// all router events, accumulates per-request buffers, reconstructs a
// synthetic non-streaming response on response_done, and writes archive
// entries incrementally. Grounded on cmd/claude/stream_json_replay.go's
// streamJSONRecorder (io.Writer wrapper capturing JSONL while forwarding
// bytes verbatim) and internal/session/store.go's append-only file
// handling, generalized from JSONL to streamed HAR JSON.
package recorder

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/cc-dump/ccdump/internal/archive"
	"github.com/cc-dump/ccdump/internal/events"
)

// pending buffers one in-flight exchange, keyed by Seq.
type pending struct {
	startedAt       time.Time
	method          string
	url             string
	requestHeaders  []events.Header
	requestBody     json.RawMessage
	responseStatus  int
	responseHeaders []events.Header
	sseEvents       []sseEvent
}

type sseEvent struct {
	eventType string
	data      json.RawMessage
}

// Logger is the minimal ambient logging contract the recorder needs (see
// internal/obs), kept narrow so this package doesn't depend on the
// concrete zerolog/logur wiring.
type Logger interface {
	Errorf(format string, args ...any)
}

// Recorder implements events.Subscriber. ccdumpVersion is stored but not
// read; the HAR creator field comes from the archive.Writer's Creator.
type Recorder struct {
	writer        *archive.Writer
	ccdumpVersion string
	logger        Logger
	disabled      bool

	inFlight   map[uint64]*pending
	entryCount int

	index     *archive.Index
	indexPath string
}

// SetIndex attaches the derived SQLite lookup table (SPEC_FULL.md D.3).
// Optional: a Recorder with no index attached still writes a complete,
// self-sufficient HAR file. indexPath is the archive file's own path,
// used as the index row's key.
func (r *Recorder) SetIndex(index *archive.Index, indexPath string) {
	r.index = index
	r.indexPath = indexPath
}

// Close closes the underlying archive writer and, if attached, the
// SQLite index. Safe to call once after the router has stopped
// delivering events.
func (r *Recorder) Close() error {
	writerErr := r.writer.Close()
	if r.index == nil {
		return writerErr
	}
	if indexErr := r.index.Close(); indexErr != nil && writerErr == nil {
		return indexErr
	}
	return writerErr
}

// New builds a Recorder writing to an already-open archive.Writer. Pass
// nil for logger to discard diagnostics.
func New(writer *archive.Writer, ccdumpVersion string, logger Logger) *Recorder {
	return &Recorder{
		writer:        writer,
		ccdumpVersion: ccdumpVersion,
		logger:        logger,
		inFlight:      make(map[uint64]*pending),
	}
}

// OnEvent implements events.Subscriber. Archive write failures disable
// further recording for the session without affecting display, per
// spec.md §7's failure semantics table.
func (r *Recorder) OnEvent(e events.Event) {
	if r.disabled {
		return
	}
	switch e.Kind {
	case events.KindRequestHeaders:
		r.inFlight[e.Seq] = &pending{startedAt: time.Now(), requestHeaders: e.Headers}
	case events.KindRequest:
		p := r.ensure(e.Seq)
		p.requestBody = e.RequestBody
	case events.KindResponseHeaders:
		p := r.ensure(e.Seq)
		p.responseStatus = e.StatusCode
		p.responseHeaders = e.ResponseHeaders
	case events.KindResponseEvent:
		p := r.ensure(e.Seq)
		p.sseEvents = append(p.sseEvents, sseEvent{eventType: e.SSEEventType, data: e.SSEData})
	case events.KindResponseDone:
		p, ok := r.inFlight[e.Seq]
		if !ok {
			return
		}
		delete(r.inFlight, e.Seq)
		r.flush(p)
	case events.KindError, events.KindProxyError:
		// transport-level failures abort the in-flight exchange without
		// an archive entry; the live display still sees ErrorBlock via
		// the formatter subscriber.
		delete(r.inFlight, e.Seq)
	}
}

func (r *Recorder) ensure(seq uint64) *pending {
	p, ok := r.inFlight[seq]
	if !ok {
		p = &pending{startedAt: time.Now()}
		r.inFlight[seq] = p
	}
	return p
}

func (r *Recorder) flush(p *pending) {
	message := reconstructMessage(p.sseEvents)
	messageJSON, err := json.Marshal(message)
	if err != nil {
		r.fail(fmt.Errorf("marshal reconstructed message: %w", err))
		return
	}

	requestBody, err := withStreamFalse(p.requestBody)
	if err != nil {
		r.fail(fmt.Errorf("rewrite request body: %w", err))
		return
	}

	entry := archive.Entry{
		StartedDateTime: p.startedAt,
		Time:            float64(time.Since(p.startedAt).Milliseconds()),
		Request: archive.Request{
			Method:  orDefault(p.method, "POST"),
			URL:     p.url,
			Headers: toNVPairs(p.requestHeaders),
			PostData: archive.PostData{
				MimeType: "application/json",
				Text:     string(requestBody),
			},
		},
		Response: archive.Response{
			Status:  p.responseStatus,
			Headers: toNVPairs(normalizeResponseHeaders(p.responseHeaders)),
			Content: archive.Content{
				MimeType: "application/json",
				Text:     string(messageJSON),
			},
		},
	}

	if err := r.writer.AppendEntry(entry); err != nil {
		r.fail(fmt.Errorf("append archive entry: %w", err))
		return
	}
	r.entryCount++

	if r.index != nil {
		if err := r.index.Upsert(archive.IndexRow{
			Path:       r.indexPath,
			StartedAt:  p.startedAt,
			EntryCount: r.entryCount,
			LastModel:  message.Model,
		}); err != nil && r.logger != nil {
			r.logger.Errorf("recorder: index update failed: %v", err)
		}
	}
}

func (r *Recorder) fail(err error) {
	r.disabled = true
	if r.logger != nil {
		r.logger.Errorf("recorder: disabling recording: %v", err)
	}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func toNVPairs(hs []events.Header) []archive.NVPair {
	out := make([]archive.NVPair, 0, len(hs))
	for _, h := range hs {
		out = append(out, archive.NVPair{Name: h.Name, Value: h.Value})
	}
	return out
}

// normalizeResponseHeaders rewrites content-type to application/json
// (spec.md §6: "response headers normalized to application/json") since
// the archived body is the synthetic non-streaming message, not an SSE
// byte stream.
func normalizeResponseHeaders(hs []events.Header) []events.Header {
	out := make([]events.Header, 0, len(hs))
	replaced := false
	for _, h := range hs {
		if equalFold(h.Name, "content-type") {
			out = append(out, events.Header{Name: h.Name, Value: "application/json"})
			replaced = true
			continue
		}
		out = append(out, h)
	}
	if !replaced {
		out = append(out, events.Header{Name: "content-type", Value: "application/json"})
	}
	return out
}

func equalFold(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		ca, cb := a[i], b[i]
		if 'A' <= ca && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if 'A' <= cb && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}

// withStreamFalse rewrites the request body's "stream" field to false,
// per spec.md §6 ("request's postData.text is the JSON body with
// stream:false").
func withStreamFalse(body json.RawMessage) (json.RawMessage, error) {
	if len(body) == 0 {
		return body, nil
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(body, &m); err != nil {
		return body, nil // malformed body: archive it verbatim, never fail the entry over this
	}
	m["stream"] = json.RawMessage("false")
	return json.Marshal(m)
}
