// Package sse decodes server-sent event streams as defined by the WHATWG
// EventSource specification. It handles the subset used by LLM streaming
// APIs: data payloads, event types, comments, and an optional terminal
// sentinel payload.
package sse

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"strconv"
)

// ErrTruncated is returned when the stream ends in the middle of an event,
// with fields accumulated but no terminating blank line. A stream that ends
// this way was cut off by the transport rather than finished by the server.
var ErrTruncated = errors.New("sse: stream truncated mid-event")

// Event is one decoded server-sent event.
type Event struct {
	// Type is the value of the last `event:` field, or "" for the default
	// message type.
	Type string
	// Data is the concatenation of all `data:` field values, joined with
	// newlines.
	Data []byte
	// ID is the value of the last `id:` field, if any.
	ID string
	// Retry is the value of the `retry:` field in milliseconds, or 0.
	Retry int
}

// Option configures a Decoder.
type Option func(*Decoder)

// WithSentinel makes the decoder treat an event whose data equals the given
// payload as end of stream. The sentinel event is not returned; Next reports
// io.EOF instead.
func WithSentinel(payload string) Option {
	return func(d *Decoder) { d.sentinel = []byte(payload) }
}

// WithBufferSize sets the initial size of the read buffer. Lines longer than
// the buffer are still read in full; the buffer grows as needed.
func WithBufferSize(n int) Option {
	return func(d *Decoder) { d.bufSize = n }
}

// Decoder reads server-sent events from a byte stream.
type Decoder struct {
	r        *bufio.Reader
	sentinel []byte
	bufSize  int
	done     bool
}

func NewDecoder(r io.Reader, opts ...Option) *Decoder {
	d := &Decoder{bufSize: 64 * 1024}
	for _, opt := range opts {
		opt(d)
	}
	d.r = bufio.NewReaderSize(r, d.bufSize)
	return d
}

// Next returns the next event in the stream. It returns io.EOF when the
// stream ends cleanly after a complete event, or when the sentinel payload
// is seen. An EOF in the middle of an event is reported as ErrTruncated.
func (d *Decoder) Next() (Event, error) {
	if d.done {
		return Event{}, io.EOF
	}
	var (
		ev      Event
		pending bool
		data    [][]byte
	)
	for {
		line, err := d.r.ReadBytes('\n')
		if err != nil {
			if err == io.EOF {
				// A final line without a trailing newline still counts as
				// part of the current event.
				line = bytes.TrimRight(line, "\r")
				if len(line) > 0 && line[0] != ':' {
					d.field(&ev, &data, line)
					pending = true
				}
				d.done = true
				if pending {
					return Event{}, ErrTruncated
				}
				return Event{}, io.EOF
			}
			return Event{}, err
		}

		line = bytes.TrimRight(line, "\r\n")
		if len(line) == 0 {
			if !pending {
				// Blank line with nothing pending, keep going.
				continue
			}
			ev.Data = bytes.Join(data, []byte("\n"))
			if d.sentinel != nil && bytes.Equal(ev.Data, d.sentinel) {
				d.done = true
				return Event{}, io.EOF
			}
			return ev, nil
		}
		if line[0] == ':' {
			continue
		}
		d.field(&ev, &data, line)
		pending = true
	}
}

// field applies one `name: value` line to the event under construction.
func (d *Decoder) field(ev *Event, data *[][]byte, line []byte) {
	name, value, found := bytes.Cut(line, []byte(":"))
	if !found {
		// A line with no colon is a field with an empty value.
		name = line
		value = nil
	}
	if len(value) > 0 && value[0] == ' ' {
		value = value[1:]
	}
	switch string(name) {
	case "data":
		*data = append(*data, append([]byte(nil), value...))
	case "event":
		ev.Type = string(value)
	case "id":
		ev.ID = string(value)
	case "retry":
		if ms, err := strconv.Atoi(string(value)); err == nil && ms >= 0 {
			ev.Retry = ms
		}
	}
	// Unknown field names are ignored.
}
