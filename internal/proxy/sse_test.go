package proxy

import (
	"bufio"
	"io"
	"strings"
	"testing"

	"github.com/cc-dump/ccdump/internal/testutil"
)

func TestReadSSEEventParsesEventAndData(t *testing.T) {
	r := bufio.NewReader(strings.NewReader("event: content_block_delta\ndata: {\"a\":1}\n\n"))
	evt, err := readSSEEvent(r)
	testutil.RequireNoError(t, err, "read one frame")
	testutil.AssertEqual(t, "content_block_delta", evt.eventType, "event type captured")
	testutil.AssertEqual(t, `{"a":1}`, evt.data, "data payload captured")
}

func TestReadSSEEventMultiLineData(t *testing.T) {
	r := bufio.NewReader(strings.NewReader("event: x\ndata: line1\ndata: line2\n\n"))
	evt, err := readSSEEvent(r)
	testutil.RequireNoError(t, err, "read multi-line frame")
	testutil.AssertEqual(t, "line1\nline2", evt.data, "multi-line data joined with newline")
}

func TestReadSSEEventReturnsEOFAtStreamEnd(t *testing.T) {
	r := bufio.NewReader(strings.NewReader(""))
	_, err := readSSEEvent(r)
	testutil.RequireTrue(t, err == io.EOF, "empty stream yields EOF")
}

func TestReadSSEEventSequenceAcrossFrames(t *testing.T) {
	r := bufio.NewReader(strings.NewReader("event: a\ndata: 1\n\nevent: b\ndata: 2\n\n"))
	first, err := readSSEEvent(r)
	testutil.RequireNoError(t, err, "first frame")
	testutil.AssertEqual(t, "a", first.eventType, "first event type")
	second, err := readSSEEvent(r)
	testutil.RequireNoError(t, err, "second frame")
	testutil.AssertEqual(t, "b", second.eventType, "second event type")
	_, err = readSSEEvent(r)
	testutil.RequireTrue(t, err == io.EOF, "stream exhausted after two frames")
}
