package llm

import "io"

// CallDelta is an incremental update to one in-flight tool call, addressed by
// its position in the provider's ordered call list (or content-block index).
//
// ID and Name typically arrive once, on first appearance; Arguments arrives as
// repeated fragments to be concatenated, never parsed mid-stream.
type CallDelta struct {
	Index int

	ID        string
	Name      string
	Arguments string
}

// Delta is the canonical unit of incremental update decoded from a provider's
// native envelope. At most one of Text and Call is populated; FinishReason and
// Usage are response-scoped and may accompany either, or arrive alone.
type Delta struct {
	Text string
	Call *CallDelta

	FinishReason FinishReason
	Usage        *Usage
}

// DeltaStream yields canonical increments decoded from one provider response
// body, in arrival order, until io.EOF.
//
// A DeltaStream is single-traversal: increments cannot be replayed. Close
// releases the underlying connection; it is safe to call more than once.
type DeltaStream interface {
	Recv() (Delta, error)
	Close() error
}

// Deltas adapts a fixed increment sequence into a DeltaStream. It is mostly
// useful in tests and for replaying recorded traces.
func Deltas(ds ...Delta) DeltaStream {
	return &sliceDeltaStream{deltas: ds}
}

type sliceDeltaStream struct {
	deltas []Delta
	pos    int
}

func (s *sliceDeltaStream) Recv() (Delta, error) {
	if s.pos >= len(s.deltas) {
		return Delta{}, io.EOF
	}
	d := s.deltas[s.pos]
	s.pos++
	return d, nil
}

func (s *sliceDeltaStream) Close() error { return nil }
