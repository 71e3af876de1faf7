package proxy

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/cc-dump/ccdump/internal/events"
	"github.com/cc-dump/ccdump/internal/testutil"
)

func collectEvents() (func(events.Event), func() []events.Event) {
	var mu sync.Mutex
	var got []events.Event
	post := func(e events.Event) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, e)
	}
	read := func() []events.Event {
		mu.Lock()
		defer mu.Unlock()
		out := make([]events.Event, len(got))
		copy(out, got)
		return out
	}
	return post, read
}

func TestServeHTTPNonStreamingEmitsDocumentedOrderAndForwardsBytesUnmodified(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		testutil.AssertEqual(t, `{"model":"claude-3"}`, string(body), "upstream receives request body verbatim")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"msg_1"}`))
	}))
	defer upstream.Close()

	post, events_ := collectEvents()
	p := New(upstream.URL, upstream.Client(), post)

	req := httptest.NewRequest(http.MethodPost, "/v1/messages", strings.NewReader(`{"model":"claude-3"}`))
	req.Header.Set("Authorization", "Bearer secret")
	rec := httptest.NewRecorder()
	p.ServeHTTP(rec, req)

	testutil.AssertEqual(t, `{"id":"msg_1"}`, rec.Body.String(), "client receives upstream bytes unmodified")

	got := events_()
	testutil.RequireTrue(t, len(got) >= 4, "at least four lifecycle events emitted")
	testutil.AssertEqual(t, events.KindRequestHeaders, got[0].Kind, "first event is request_headers")
	testutil.AssertEqual(t, events.KindRequest, got[1].Kind, "second event is request")
	testutil.AssertEqual(t, events.KindResponseHeaders, got[2].Kind, "third event is response_headers")
	testutil.AssertEqual(t, events.KindResponseDone, got[len(got)-1].Kind, "last event is response_done")

	for _, h := range got[0].Headers {
		testutil.RequireTrue(t, h.Name != "Authorization", "authorization header stripped from display event")
	}
}

func TestServeHTTPStreamingForwardsSSEByteForByteAndEmitsResponseEvents(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		flusher := w.(http.Flusher)
		io.WriteString(w, "event: message_start\ndata: {\"message\":{\"id\":\"msg_1\"}}\n\n")
		flusher.Flush()
		io.WriteString(w, "event: message_stop\ndata: {}\n\n")
		flusher.Flush()
	}))
	defer upstream.Close()

	post, events_ := collectEvents()
	p := New(upstream.URL, upstream.Client(), post)

	req := httptest.NewRequest(http.MethodPost, "/v1/messages", strings.NewReader(`{"model":"claude-3","stream":true}`))
	rec := httptest.NewRecorder()
	p.ServeHTTP(rec, req)

	testutil.RequireTrue(t, strings.Contains(rec.Body.String(), "message_start"), "client body contains the raw SSE frame")
	testutil.RequireTrue(t, strings.Contains(rec.Body.String(), "message_stop"), "client body contains both frames")

	got := events_()
	var sseKinds []string
	for _, e := range got {
		if e.Kind == events.KindResponseEvent {
			sseKinds = append(sseKinds, e.SSEEventType)
		}
	}
	testutil.RequireEqual(t, 2, len(sseKinds), "two response_event frames parsed")
	testutil.AssertEqual(t, "message_start", sseKinds[0], "first parsed event type")
	testutil.AssertEqual(t, "message_stop", sseKinds[1], "second parsed event type")
	testutil.AssertEqual(t, events.KindResponseDone, got[len(got)-1].Kind, "stream ends with response_done")
}

func TestServeHTTPUpstreamUnreachableEmitsErrorAndReturns502(t *testing.T) {
	post, events_ := collectEvents()
	p := New("http://127.0.0.1:1", nil, post)

	req := httptest.NewRequest(http.MethodPost, "/v1/messages", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	p.ServeHTTP(rec, req)

	testutil.AssertEqual(t, http.StatusBadGateway, rec.Code, "unreachable upstream surfaces as 502")
	got := events_()
	var sawProxyError bool
	for _, e := range got {
		if e.Kind == events.KindProxyError {
			sawProxyError = true
		}
	}
	testutil.RequireTrue(t, sawProxyError, "a proxy_error event is emitted for the failed upstream connection")
}
