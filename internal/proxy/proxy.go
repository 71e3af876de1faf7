// Package proxy implements the proxy front-end (C9): a reverse (fixed
// upstream) or forward (Host-header-routed) HTTP/SSE proxy that streams
// the upstream response back to the client byte-for-byte while emitting
// parsed events to the router, purely observationally. Grounded on
// other_examples' CirtusX-ctrl-ai-v1 proxy.go (ServeHTTP request/response
// flow, buffer-vs-stream split) and internal/llm/openai/stream.go's
// readSSEEvent line-scanning technique, extended to forward bytes
// untouched instead of reconstructing a typed event.
package proxy

import (
	"bufio"
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/cc-dump/ccdump/internal/events"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// authHeaders are stripped from the request_headers event shown to the
// display (spec.md §4.9: "auth stripped for display; original forwarded
// to upstream"), never from the bytes actually sent upstream.
var authHeaders = map[string]bool{
	"authorization": true,
	"x-api-key":     true,
}

// Proxy is the HTTP handler mounted at the root of the listening server.
type Proxy struct {
	// Upstream is the fixed upstream base URL for reverse-proxy mode.
	// Empty selects forward-proxy mode, where the upstream is derived
	// from the request's Host header/absolute URL per request.
	Upstream string
	Client   *http.Client
	Post     func(events.Event)
	Tracer   trace.Tracer

	seq atomic.Uint64
}

// New builds a Proxy. A nil client defaults to http.DefaultClient; the
// tracer always comes from otel's global TracerProvider.
func New(upstream string, client *http.Client, post func(events.Event)) *Proxy {
	if client == nil {
		client = http.DefaultClient
	}
	return &Proxy{
		Upstream: upstream,
		Client:   client,
		Post:     post,
		Tracer:   otel.Tracer("github.com/cc-dump/ccdump/internal/proxy"),
	}
}

// SeedSeq sets the next sequence number ServeHTTP will assign, so a
// `--continue` session's live traffic picks up where a replayed
// recording left off instead of colliding with replayed seq values.
func (p *Proxy) SeedSeq(next uint64) {
	if next > 0 {
		p.seq.Store(next - 1)
	}
}

// ServeHTTP implements the proxy's full request/response cycle (spec.md
// §4.9): request_headers → request → response_headers →
// response_event(...) × N → response_done, with client bytes always
// forwarded unmodified regardless of what parsing fails along the way.
func (p *Proxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	seq := p.seq.Add(1)
	ctx, span := p.Tracer.Start(r.Context(), "proxy.exchange", trace.WithAttributes(
		attribute.Int64("ccdump.seq", int64(seq)),
		attribute.String("http.method", r.Method),
	))
	defer span.End()
	r = r.WithContext(ctx)

	upstream, err := p.resolveUpstream(r)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		p.postError(seq, "bad_upstream", err.Error())
		http.Error(w, "cc-dump: "+err.Error(), http.StatusBadGateway)
		return
	}

	p.post(events.Event{Kind: events.KindRequestHeaders, Seq: seq, Headers: displayHeaders(r.Header)})

	body, err := io.ReadAll(io.LimitReader(r.Body, 32*1024*1024))
	r.Body.Close()
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		p.postError(seq, "read_request_body", err.Error())
		http.Error(w, "cc-dump: failed to read request body", http.StatusBadGateway)
		return
	}
	p.post(events.Event{Kind: events.KindRequest, Seq: seq, RequestBody: rawJSON(body)})

	upstreamReq, err := http.NewRequestWithContext(ctx, r.Method, upstream, strings.NewReader(string(body)))
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		p.postError(seq, "build_upstream_request", err.Error())
		http.Error(w, "cc-dump: failed to build upstream request", http.StatusBadGateway)
		return
	}
	upstreamReq.Header = r.Header.Clone()
	upstreamReq.Header.Set("Host", upstreamReq.URL.Host)

	resp, err := p.Client.Do(upstreamReq)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		p.postError(seq, "upstream_unreachable", err.Error())
		http.Error(w, "cc-dump: upstream request failed", http.StatusBadGateway)
		return
	}
	defer resp.Body.Close()

	p.post(events.Event{
		Kind: events.KindResponseHeaders, Seq: seq,
		StatusCode: resp.StatusCode, ResponseHeaders: toEventHeaders(resp.Header),
	})

	copyResponseHeaders(w.Header(), resp.Header)
	w.WriteHeader(resp.StatusCode)

	if isEventStream(resp.Header) {
		p.streamSSE(seq, w, resp.Body)
	} else {
		io.Copy(w, resp.Body)
	}

	p.post(events.Event{Kind: events.KindResponseDone, Seq: seq})
}

// streamSSE tees the upstream body to the client byte-for-byte while
// concurrently parsing frames for event emission — parsing failures
// never interrupt the client-facing copy (spec.md §4.9 invariant: "client
// receives exactly the upstream bytes").
func (p *Proxy) streamSSE(seq uint64, w http.ResponseWriter, body io.Reader) {
	flusher, _ := w.(http.Flusher)
	pr, pw := io.Pipe()
	tee := io.TeeReader(body, pw)

	done := make(chan struct{})
	go func() {
		defer close(done)
		defer pr.Close()
		reader := bufio.NewReader(pr)
		for {
			evt, err := readSSEEvent(reader)
			if err != nil {
				if err != io.EOF {
					p.postError(seq, "sse_parse", err.Error())
				}
				return
			}
			if evt.data == "" {
				continue
			}
			p.post(events.Event{Kind: events.KindResponseEvent, Seq: seq, SSEEventType: evt.eventType, SSEData: rawJSON([]byte(evt.data))})
		}
	}()

	buf := make([]byte, 32*1024)
	for {
		n, err := tee.Read(buf)
		if n > 0 {
			w.Write(buf[:n])
			if flusher != nil {
				flusher.Flush()
			}
		}
		if err != nil {
			pw.CloseWithError(err)
			break
		}
	}
	<-done
}

func (p *Proxy) resolveUpstream(r *http.Request) (string, error) {
	if p.Upstream != "" {
		base, err := url.Parse(p.Upstream)
		if err != nil {
			return "", err
		}
		base.Path = strings.TrimSuffix(base.Path, "/") + r.URL.Path
		base.RawQuery = r.URL.RawQuery
		return base.String(), nil
	}

	host := r.Host
	if r.URL.IsAbs() {
		host = r.URL.Host
	}
	scheme := "https"
	if r.TLS == nil && r.URL.Scheme == "http" {
		scheme = "http"
	}
	u := url.URL{Scheme: scheme, Host: host, Path: r.URL.Path, RawQuery: r.URL.RawQuery}
	return u.String(), nil
}

func (p *Proxy) post(e events.Event) {
	if p.Post != nil {
		p.Post(e)
	}
}

func (p *Proxy) postError(seq uint64, code, reason string) {
	p.post(events.Event{Kind: events.KindProxyError, Seq: seq, ProxyErrorDescription: code + ": " + reason})
}

func rawJSON(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	return b
}

func isEventStream(h http.Header) bool {
	return strings.Contains(strings.ToLower(h.Get("Content-Type")), "text/event-stream")
}

func displayHeaders(h http.Header) []events.Header {
	out := make([]events.Header, 0, len(h))
	for name, values := range h {
		if authHeaders[strings.ToLower(name)] {
			continue
		}
		for _, v := range values {
			out = append(out, events.Header{Name: name, Value: v})
		}
	}
	return out
}

func toEventHeaders(h http.Header) []events.Header {
	out := make([]events.Header, 0, len(h))
	for name, values := range h {
		for _, v := range values {
			out = append(out, events.Header{Name: name, Value: v})
		}
	}
	return out
}

func copyResponseHeaders(dst, src http.Header) {
	for name, values := range src {
		for _, v := range values {
			dst.Add(name, v)
		}
	}
}

// idleTimeout is not referenced anywhere: the proxy applies no idle or
// read timeout of its own, so a stalled upstream stream is bounded only by
// the http.Client passed to New (http.DefaultClient, with no timeout, when
// nil).
const idleTimeout = 5 * time.Minute
