package llm

import (
	"errors"
	"io"
)

// projector converts an increment sequence into the observable event sequence.
// It shares the Accumulator's merge rules so that the live path and the
// buffered path cannot disagree about call identity or argument contents.
type projector struct {
	ds  DeltaStream
	acc Accumulator

	started map[int]bool
	pending []StreamEvent

	done   bool
	closed bool
	err    error
}

func newProjector(ds DeltaStream) *projector {
	return &projector{ds: ds, started: make(map[int]bool)}
}

func (p *projector) Recv() (StreamEvent, error) {
	if p.closed {
		return StreamEvent{}, ErrStreamClosed
	}
	if len(p.pending) > 0 {
		return p.pop(), nil
	}
	if p.err != nil {
		return StreamEvent{}, p.err
	}
	if p.done {
		return StreamEvent{}, io.EOF
	}

	for {
		d, err := p.ds.Recv()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return p.finish()
			}
			p.err = err
			return StreamEvent{}, err
		}

		p.acc.Merge(d)

		if d.Text != "" {
			p.pending = append(p.pending, StreamEvent{Kind: StreamEventText, Text: d.Text})
		}
		if d.Call != nil {
			p.queueStarts()
		}

		if len(p.pending) > 0 {
			return p.pop(), nil
		}
	}
}

// queueStarts emits the start event for every call whose name has sealed.
// A name delivered across several fragments produces exactly one start,
// once no further fragment can extend it.
func (p *projector) queueStarts() {
	for _, idx := range p.acc.order {
		pc := p.acc.calls[idx]
		if p.started[idx] || !pc.nameSealed || pc.name == "" {
			continue
		}
		p.started[idx] = true
		p.pending = append(p.pending, StreamEvent{
			Kind: StreamEventFunctionCallStart,
			ID:   pc.id,
			Name: pc.name,
		})
	}
}

// finish flushes the deferred FunctionCallEnd events in first-seen key order,
// then the terminal Finished event. Argument fragments may keep arriving
// until the stream is exhausted, which is why End cannot be emitted earlier.
func (p *projector) finish() (StreamEvent, error) {
	for _, idx := range p.acc.order {
		p.acc.calls[idx].nameSealed = true
	}
	if err := p.acc.checkComplete(); err != nil {
		p.err = err
		return StreamEvent{}, p.err
	}
	p.queueStarts()

	for _, idx := range p.acc.order {
		pc := p.acc.calls[idx]
		args := pc.args.String()
		if args == "" {
			args = "{}"
		}
		p.pending = append(p.pending, StreamEvent{
			Kind:      StreamEventFunctionCallEnd,
			ID:        pc.id,
			Name:      pc.name,
			Arguments: args,
		})
	}

	finish := p.acc.finish
	if finish == "" {
		finish = FinishReasonStop
	}
	p.pending = append(p.pending, StreamEvent{
		Kind:         StreamEventFinished,
		FinishReason: finish,
		Usage:        p.acc.usage,
	})

	p.done = true
	return p.pop(), nil
}

func (p *projector) pop() StreamEvent {
	ev := p.pending[0]
	p.pending = p.pending[1:]
	return ev
}

func (p *projector) Close() error {
	if p.closed {
		return nil
	}
	p.closed = true
	return p.ds.Close()
}
