package llm

// StreamEventKind identifies the variant of a StreamEvent.
type StreamEventKind string

const (
	// StreamEventText carries one text fragment, with fragment boundaries
	// preserved exactly as decoded.
	StreamEventText StreamEventKind = "text"

	// StreamEventFunctionCallStart is emitted exactly once per tool call,
	// once the call's full name is known, even when the name arrived split
	// across several increments.
	StreamEventFunctionCallStart StreamEventKind = "function_call_start"

	// StreamEventFunctionCallEnd is emitted exactly once per tool call,
	// deferred until the stream's terminal point, carrying the fully
	// concatenated argument string.
	StreamEventFunctionCallEnd StreamEventKind = "function_call_end"

	// StreamEventFinished is the terminal event; nothing follows it.
	StreamEventFinished StreamEventKind = "finished"
)

// StreamEvent is one externally observable event projected from a response's
// increment sequence.
//
// Decode and protocol failures are reported as errors from Stream.Recv, not as
// an event variant; no Finished event follows such an error.
type StreamEvent struct {
	Kind StreamEventKind

	// Text is set for StreamEventText.
	Text string

	// ID/Name identify the tool call for Start and End events; Arguments is
	// set on End only.
	ID        string
	Name      string
	Arguments string

	// FinishReason and Usage are set on StreamEventFinished.
	FinishReason FinishReason
	Usage        Usage
}

func (e StreamEvent) Finished() bool { return e.Kind == StreamEventFinished }

// Stream yields StreamEvent values until io.EOF.
//
// Recv returns io.EOF after the Finished event has been delivered. Any other
// error is terminal: events delivered before it remain valid, but no Finished
// event follows.
type Stream interface {
	Recv() (StreamEvent, error)
	Close() error
}
