package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// partialFunctionCall is the accumulator-internal state of one in-flight tool
// call. It is created on the first increment referencing a new addressing key
// and converted to an immutable FunctionCall at finalization, never exposed
// before that point.
type partialFunctionCall struct {
	id            string
	idSynthesized bool

	// name grows by fragment concatenation until it is sealed. A name seals
	// when the call's arguments begin, when an increment addresses a
	// different call, or when the stream ends; after that a differing name
	// is a protocol violation.
	name       string
	nameSealed bool

	// args is append-only; fragments are concatenated, never parsed
	// mid-stream, because they are only valid JSON once complete.
	args strings.Builder
}

// Accumulator folds an ordered increment sequence into response-level and
// per-tool-call partial state, and finalizes it into a CompleteResponse.
//
// It is strictly single-threaded: increments must be merged in arrival order.
type Accumulator struct {
	content strings.Builder

	finish FinishReason
	usage  Usage

	calls map[int]*partialFunctionCall
	order []int

	// violation records the first protocol violation observed during merge.
	// It is surfaced from Finalize rather than failing mid-merge.
	violation error
}

// Merge applies one increment to the accumulated state.
func (a *Accumulator) Merge(d Delta) {
	if d.Text != "" {
		a.content.WriteString(d.Text)
	}
	if d.Call != nil {
		a.mergeCall(d.Call)
	}
	if d.FinishReason != "" && a.finish == "" {
		// First finish reason wins; later ones are ignored.
		a.finish = d.FinishReason
	}
	if d.Usage != nil {
		a.usage = a.usage.merge(*d.Usage)
	}
}

func (a *Accumulator) mergeCall(c *CallDelta) {
	// Providers deliver one call's fragments contiguously, so an increment
	// for a new key means every other call's name can no longer grow.
	for idx, other := range a.calls {
		if idx != c.Index {
			other.nameSealed = true
		}
	}

	pc, ok := a.calls[c.Index]
	if !ok {
		pc = &partialFunctionCall{id: c.ID}
		if pc.id == "" {
			pc.id = fmt.Sprintf("call_%d", c.Index)
			pc.idSynthesized = true
		}
		if a.calls == nil {
			a.calls = make(map[int]*partialFunctionCall)
		}
		a.calls[c.Index] = pc
		a.order = append(a.order, c.Index)
	} else if c.ID != "" && pc.idSynthesized {
		pc.id = c.ID
		pc.idSynthesized = false
	}

	if c.Name != "" {
		switch {
		case pc.name == c.Name:
			// Whole-name re-delivery is a no-op.
		case !pc.nameSealed:
			pc.name += c.Name
		case a.violation == nil:
			a.violation = streamingError("", fmt.Sprintf(
				"tool call %s name changed mid-stream: %q -> %q", pc.id, pc.name, c.Name), nil)
		}
	}

	if c.Arguments != "" {
		pc.nameSealed = true
		pc.args.WriteString(c.Arguments)
	}
}

// Content returns the text accumulated so far. It is a convenience for
// inspecting state during streaming.
func (a *Accumulator) Content() string { return a.content.String() }

// checkComplete reports the first protocol violation observed during merge,
// or a call that ran to the end of the stream without ever receiving a name.
func (a *Accumulator) checkComplete() error {
	if a.violation != nil {
		return a.violation
	}
	for _, idx := range a.order {
		if pc := a.calls[idx]; pc.name == "" {
			return streamingError("", fmt.Sprintf(
				"tool call %s never received a name", pc.id), nil)
		}
	}
	return nil
}

// Finalize returns the complete response.
//
// Each partial call's argument buffer must parse as a single JSON value. A
// buffer that never received fragments finalizes as "{}"; a malformed buffer
// is a serialization error.
func (a *Accumulator) Finalize() (*CompleteResponse, error) {
	if err := a.checkComplete(); err != nil {
		return nil, err
	}

	calls := make([]FunctionCall, 0, len(a.order))
	for _, idx := range a.order {
		pc := a.calls[idx]
		args := pc.args.String()
		if args == "" {
			args = "{}"
		}
		if !json.Valid([]byte(args)) {
			return nil, &LLMError{
				Kind:    ErrKindSerialization,
				Message: fmt.Sprintf("tool call %s arguments are not valid JSON: %q", pc.id, args),
			}
		}
		calls = append(calls, FunctionCall{ID: pc.id, Name: pc.name, Arguments: args})
	}

	finish := a.finish
	if finish == "" {
		finish = FinishReasonStop
	}

	return &CompleteResponse{
		Content:       a.content.String(),
		FunctionCalls: calls,
		FinishReason:  finish,
		Usage:         a.usage,
	}, nil
}
