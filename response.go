package llm

import (
	"errors"
	"io"
)

// Response is the single-consumption result of a generation. All responses
// are internally streaming: exactly one of Stream or Buffer may be invoked
// per instance, because the underlying increment sequence is single-traversal.
type Response struct {
	ds       DeltaStream
	consumed bool
}

// NewResponse wraps a decoded increment sequence. Providers construct one per
// generation; tests can feed recorded traces via Deltas.
func NewResponse(ds DeltaStream) *Response {
	return &Response{ds: ds}
}

// Stream returns the live event sequence. The caller owns the stream and must
// Close it to release the underlying connection.
func (r *Response) Stream() (Stream, error) {
	if r.consumed {
		return nil, ErrResponseConsumed
	}
	r.consumed = true
	return newProjector(r.ds), nil
}

// Buffer drives the increment sequence to exhaustion and materializes the
// complete response. A decode or protocol error aborts the response; no
// partial CompleteResponse is synthesized.
func (r *Response) Buffer() (*CompleteResponse, error) {
	if r.consumed {
		return nil, ErrResponseConsumed
	}
	r.consumed = true
	defer r.ds.Close()

	var acc Accumulator
	for {
		d, err := r.ds.Recv()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, err
		}
		acc.Merge(d)
	}
	return acc.Finalize()
}

// Text buffers the response and returns just its text content.
func (r *Response) Text() (string, error) {
	complete, err := r.Buffer()
	if err != nil {
		return "", err
	}
	return complete.Content, nil
}

// Close releases the underlying connection without consuming the response.
// Dropping an unconsumed Response without Close leaks the connection until
// the transport times it out.
func (r *Response) Close() error {
	return r.ds.Close()
}
