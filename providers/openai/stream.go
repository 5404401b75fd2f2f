package openai

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	llm "github.com/platformed-com/platformed-llm"
	"github.com/platformed-com/platformed-llm/sse"
)

// deltaStream decodes chat completion chunks into canonical increments.
type deltaStream struct {
	provider string
	resp     *http.Response
	dec      *sse.Decoder

	closed  bool
	pending []llm.Delta
}

func newDeltaStream(provider string, resp *http.Response) *deltaStream {
	return &deltaStream{
		provider: provider,
		resp:     resp,
		dec:      sse.NewDecoder(resp.Body, sse.WithSentinel("[DONE]")),
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

		var chunk chatCompletionChunk
		if err := json.Unmarshal(ev.Data, &chunk); err != nil {
			return llm.Delta{}, &llm.LLMError{
				Provider: s.provider,
				Kind:     llm.ErrKindSerialization,
				Message:  "decoding stream chunk",
				Raw:      append([]byte(nil), ev.Data...),
				Cause:    err,
			}
		}
		if chunk.Error != nil {
			return llm.Delta{}, &llm.LLMError{
				Provider:     s.provider,
				Kind:         llm.ErrKindProvider,
				ProviderCode: stringify(chunk.Error.Code),
				Message:      chunk.Error.Message,
				Raw:          append([]byte(nil), ev.Data...),
			}
		}
		s.pending = append(s.pending, chunkDeltas(chunk)...)
	}

	d := s.pending[0]
	s.pending = s.pending[1:]
	return d, nil
}

// chunkDeltas flattens one chunk into canonical increments. Text, finish
// reason and usage can ride on a single increment; each tool call fragment
// gets its own.
func chunkDeltas(chunk chatCompletionChunk) []llm.Delta {
	var out []llm.Delta
	for _, choice := range chunk.Choices {
		d := llm.Delta{Text: choice.Delta.Content}
		if choice.FinishReason != "" {
			d.FinishReason = mapFinishReason(choice.FinishReason)
		}
		if d.Text != "" || d.FinishReason != "" {
			out = append(out, d)
		}
		for _, tc := range choice.Delta.ToolCalls {
			out = append(out, llm.Delta{Call: &llm.CallDelta{
				Index:     tc.Index,
				ID:        tc.ID,
				Name:      tc.Function.Name,
				Arguments: tc.Function.Arguments,
			}})
		}
	}
	if chunk.Usage != nil {
		u := llm.Usage{
			InputTokens:  chunk.Usage.PromptTokens,
			OutputTokens: chunk.Usage.CompletionTokens,
		}
		if chunk.Usage.PromptTokensDetails != nil {
			u.CachedTokens = chunk.Usage.PromptTokensDetails.CachedTokens
		}
		out = append(out, llm.Delta{Usage: &u})
	}
	return out
}

func mapFinishReason(reason string) llm.FinishReason {
	switch reason {
	case "length":
		return llm.FinishReasonLength
	case "tool_calls", "function_call":
		return llm.FinishReasonToolCalls
	case "content_filter":
		return llm.FinishReasonContentFilter
	case "stop":
		return llm.FinishReasonStop
	default:
		return llm.FinishReasonStop
	}
}
