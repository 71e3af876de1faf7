// Package archive implements the HTTP Archive (HAR) 1.2 file format used
// by the session recorder (C10) and replayer (C11): spec.md §6's
// `{"log":{"version":"1.2","creator":{...},"entries":[...]}}` shape,
// written append-safe and read tolerant of a trailing truncated entry.
package archive

import (
	"bufio"
	"encoding/json"
	"errors"
	"io"
	"os"
	"time"
)

// Creator identifies cc-dump and its version in every archive file.
type Creator struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// NVPair is an HAR name/value pair (headers, query string, etc).
type NVPair struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// PostData is an HAR request body.
type PostData struct {
	MimeType string `json:"mimeType"`
	Text     string `json:"text"`
}

// Request is an HAR request object, narrowed to the fields cc-dump uses.
type Request struct {
	Method   string   `json:"method"`
	URL      string   `json:"url"`
	Headers  []NVPair `json:"headers"`
	PostData PostData `json:"postData"`
}

// Content is an HAR response body wrapper.
type Content struct {
	MimeType string `json:"mimeType"`
	Text     string `json:"text"`
}

// Response is an HAR response object, narrowed to the fields cc-dump uses.
type Response struct {
	Status  int      `json:"status"`
	Headers []NVPair `json:"headers"`
	Content Content  `json:"content"`
}

// Entry is a single recorded HAR entry: one API exchange.
type Entry struct {
	StartedDateTime time.Time `json:"startedDateTime"`
	Time            float64   `json:"time"`
	Request         Request   `json:"request"`
	Response        Response  `json:"response"`
}

// Log is the HAR top-level envelope.
type Log struct {
	Version string  `json:"version"`
	Creator Creator `json:"creator"`
	Entries []Entry `json:"entries"`
}

// Document is the HAR file's root object.
type Document struct {
	Log Log `json:"log"`
}

const harVersion = "1.2"

// NewDocument builds an empty HAR document stamped with cc-dump's
// creator identity.
func NewDocument(ccdumpVersion string) Document {
	return Document{Log: Log{
		Version: harVersion,
		Creator: Creator{Name: "cc-dump", Version: ccdumpVersion},
	}}
}

// harPrefix/harSuffix bracket the streamed entries array so the recorder
// can append one entry at a time without rewriting the whole file,
// mirroring internal/session.Store's append-only JSONL handling adapted
// to HAR's single-JSON-object shape.
func harPrefix(creator Creator) string {
	b, _ := json.Marshal(creator)
	return `{"log":{"version":"` + harVersion + `","creator":` + string(b) + `,"entries":[` + "\n"
}

const harSuffix = "\n]}}\n"

// Writer appends entries to an archive file incrementally, matching the
// recorder's "write entries incrementally" contract (spec.md §4.10). The
// file is valid, parseable HAR only after Close writes the closing
// brackets; ReadEntries tolerates an unterminated file regardless.
type Writer struct {
	f        *os.File
	wroteAny bool
}

// OpenWriter creates (or truncates) path and writes the HAR prefix.
func OpenWriter(path string, creator Creator) (*Writer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, err
	}
	if _, err := f.WriteString(harPrefix(creator)); err != nil {
		f.Close()
		return nil, err
	}
	return &Writer{f: f}, nil
}

// AppendEntry writes one entry, comma-separating from any prior entry.
func (w *Writer) AppendEntry(e Entry) error {
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	if w.wroteAny {
		if _, err := w.f.WriteString(",\n"); err != nil {
			return err
		}
	}
	if _, err := w.f.Write(b); err != nil {
		return err
	}
	w.wroteAny = true
	return w.f.Sync()
}

// Close writes the closing brackets and closes the file.
func (w *Writer) Close() error {
	if _, err := w.f.WriteString(harSuffix); err != nil {
		w.f.Close()
		return err
	}
	return w.f.Close()
}

// ReadEntries parses a HAR file, tolerating a trailing truncated entry
// (recorder interrupted mid-write, per spec.md §6). It decodes the
// "entries" array element-by-element with a streaming json.Decoder so a
// malformed or incomplete final entry is simply dropped rather than
// failing the whole read.
func ReadEntries(r io.Reader) ([]Entry, error) {
	br := bufio.NewReader(r)
	dec := json.NewDecoder(br)

	if err := expectDelim(dec, '{'); err != nil {
		return nil, err
	}
	if err := expectKey(dec, "log"); err != nil {
		return nil, err
	}
	if err := expectDelim(dec, '{'); err != nil {
		return nil, err
	}

	var entries []Entry
	for dec.More() {
		key, err := dec.Token()
		if err != nil {
			return entries, nil
		}
		keyStr, _ := key.(string)
		switch keyStr {
		case "version", "creator":
			var discard json.RawMessage
			if err := dec.Decode(&discard); err != nil {
				return entries, nil
			}
		case "entries":
			if err := expectDelim(dec, '['); err != nil {
				return entries, nil
			}
			for dec.More() {
				var e Entry
				if err := dec.Decode(&e); err != nil {
					// trailing truncated entry: stop here, keep what parsed.
					return entries, nil
				}
				entries = append(entries, e)
			}
		default:
			var discard json.RawMessage
			if err := dec.Decode(&discard); err != nil {
				return entries, nil
			}
		}
	}
	return entries, nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	d, ok := tok.(json.Delim)
	if !ok || d != want {
		return errors.New("archive: malformed HAR document")
	}
	return nil
}

func expectKey(dec *json.Decoder, want string) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	s, ok := tok.(string)
	if !ok || s != want {
		return errors.New("archive: expected key " + want)
	}
	return nil
}

// ReadFile opens path and reads its entries, tolerant of truncation.
func ReadFile(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadEntries(f)
}
