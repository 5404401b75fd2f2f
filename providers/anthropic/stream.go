package anthropic

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	llm "github.com/platformed-com/platformed-llm"
	"github.com/platformed-com/platformed-llm/sse"
)

// deltaStream decodes the block-oriented start/delta/stop protocol into
// canonical increments. The content block index doubles as the tool call
// addressing key; text blocks produce plain text increments.
type deltaStream struct {
	provider string
	resp     *http.Response
	dec      *sse.Decoder

	closed  bool
	done    bool
	pending []llm.Delta
}

func newDeltaStream(provider string, resp *http.Response) *deltaStream {
	return &deltaStream{
		provider: provider,
		resp:     resp,
		dec:      sse.NewDecoder(resp.Body),
	}
}

func (s *deltaStream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if s.resp != nil && s.resp.Body != nil {
		return s.resp.Body.Close()
	}
	return nil
}

func (s *deltaStream) Recv() (llm.Delta, error) {
	if s.closed {
		return llm.Delta{}, llm.ErrStreamClosed
	}
	for len(s.pending) == 0 {
		if s.done {
			return llm.Delta{}, io.EOF
		}
		ev, err := s.dec.Next()
		if err != nil {
			if err == io.EOF {
				return llm.Delta{}, io.EOF
			}
			if errors.Is(err, sse.ErrTruncated) {
				return llm.Delta{}, &llm.LLMError{
					Provider: s.provider,
					Kind:     llm.ErrKindStreaming,
					Message:  "response stream ended mid-event",
					Cause:    err,
				}
			}
			return llm.Delta{}, &llm.LLMError{
				Provider: s.provider,
				Kind:     llm.ErrKindStreaming,
				Message:  "reading response stream",
				Cause:    err,
			}
		}

		var frame streamEvent
		if err := json.Unmarshal(ev.Data, &frame); err != nil {
			return llm.Delta{}, &llm.LLMError{
				Provider: s.provider,
				Kind:     llm.ErrKindSerialization,
				Message:  "decoding stream event",
				Raw:      append([]byte(nil), ev.Data...),
				Cause:    err,
			}
		}
		deltas, err := s.frameDeltas(frame, ev.Data)
		if err != nil {
			return llm.Delta{}, err
		}
		s.pending = append(s.pending, deltas...)
	}

	d := s.pending[0]
	s.pending = s.pending[1:]
	return d, nil
}

func (s *deltaStream) frameDeltas(frame streamEvent, raw []byte) ([]llm.Delta, error) {
	switch frame.Type {
	case "message_start":
		if frame.Message != nil && frame.Message.Usage != nil {
			return []llm.Delta{{Usage: mapUsage(frame.Message.Usage)}}, nil
		}
		return nil, nil

	case "content_block_start":
		if frame.ContentBlock == nil {
			return nil, nil
		}
		switch frame.ContentBlock.Type {
		case "tool_use":
			return []llm.Delta{{Call: &llm.CallDelta{
				Index:     frame.Index,
				ID:        frame.ContentBlock.ID,
				Name:      frame.ContentBlock.Name,
				Arguments: initialInput(frame.ContentBlock.Input),
			}}}, nil
		case "text":
			if frame.ContentBlock.Text != "" {
				return []llm.Delta{{Text: frame.ContentBlock.Text}}, nil
			}
		}
		return nil, nil

	case "content_block_delta":
		if frame.Delta == nil {
			return nil, nil
		}
		switch frame.Delta.Type {
		case "text_delta":
			if frame.Delta.Text != "" {
				return []llm.Delta{{Text: frame.Delta.Text}}, nil
			}
		case "input_json_delta":
			if frame.Delta.PartialJSON != "" {
				return []llm.Delta{{Call: &llm.CallDelta{
					Index:     frame.Index,
					Arguments: frame.Delta.PartialJSON,
				}}}, nil
			}
		}
		return nil, nil

	case "content_block_stop":
		// Block boundaries carry no data; argument completeness is only
		// checked once the whole stream ends.
		return nil, nil

	case "message_delta":
		var out []llm.Delta
		d := llm.Delta{}
		if frame.Delta != nil && frame.Delta.StopReason != "" {
			d.FinishReason = mapStopReason(frame.Delta.StopReason)
		}
		if frame.Usage != nil {
			d.Usage = mapUsage(frame.Usage)
		}
		if d.FinishReason != "" || d.Usage != nil {
			out = append(out, d)
		}
		return out, nil

	case "message_stop":
		s.done = true
		return nil, nil

	case "ping":
		return nil, nil

	case "error":
		msg := "stream error"
		code := ""
		if frame.Error != nil {
			msg = frame.Error.Message
			code = frame.Error.Type
		}
		return nil, &llm.LLMError{
			Provider:     s.provider,
			Kind:         llm.ErrKindProvider,
			ProviderCode: code,
			Message:      msg,
			Raw:          append([]byte(nil), raw...),
		}

	default:
		// Unknown event types are forward compatibility, not errors.
		return nil, nil
	}
}

// initialInput returns the tool_use block's inline input as the first
// argument fragment. An empty or missing object means the arguments will
// arrive via input_json_delta instead.
func initialInput(input json.RawMessage) string {
	trimmed := bytes.TrimSpace(input)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("{}")) || bytes.Equal(trimmed, []byte("null")) {
		return ""
	}
	return string(trimmed)
}

func mapUsage(u *apiUsage) *llm.Usage {
	return &llm.Usage{
		InputTokens:  u.InputTokens,
		OutputTokens: u.OutputTokens,
		CachedTokens: u.CacheReadInputTokens,
	}
}

func mapStopReason(reason string) llm.FinishReason {
	switch reason {
	case "max_tokens":
		return llm.FinishReasonLength
	case "tool_use":
		return llm.FinishReasonToolCalls
	case "end_turn", "stop_sequence":
		return llm.FinishReasonStop
	default:
		return llm.FinishReasonStop
	}
}
