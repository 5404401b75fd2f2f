package google

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"

	llm "github.com/platformed-com/platformed-llm"
	"github.com/platformed-com/platformed-llm/sse"
)

// deltaStream decodes Gemini streaming frames into canonical increments.
//
// Gemini never splits a function call: each functionCall part carries the
// full name and argument object. Calls are assigned synthetic IDs and
// sequential indexes as they appear, since the wire format has neither.
type deltaStream struct {
	provider string
	resp     *http.Response
	dec      *sse.Decoder

	closed    bool
	nextIndex int
	pending   []llm.Delta
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

		var frame generateContentResponse
		if err := json.Unmarshal(ev.Data, &frame); err != nil {
			return llm.Delta{}, &llm.LLMError{
				Provider: s.provider,
				Kind:     llm.ErrKindSerialization,
				Message:  "decoding stream frame",
				Raw:      append([]byte(nil), ev.Data...),
				Cause:    err,
			}
		}
		s.pending = append(s.pending, s.frameDeltas(frame)...)
	}

	d := s.pending[0]
	s.pending = s.pending[1:]
	return d, nil
}

func (s *deltaStream) frameDeltas(frame generateContentResponse) []llm.Delta {
	var out []llm.Delta
	if len(frame.Candidates) > 0 {
		cand := frame.Candidates[0]
		if cand.Content != nil {
			for _, part := range cand.Content.Parts {
				switch {
				case part.FunctionCall != nil:
					args := string(part.FunctionCall.Args)
					if args == "" {
						args = "{}"
					}
					out = append(out, llm.Delta{Call: &llm.CallDelta{
						Index:     s.nextIndex,
						ID:        "call_" + strings.ReplaceAll(uuid.NewString(), "-", ""),
						Name:      part.FunctionCall.Name,
						Arguments: args,
					}})
					s.nextIndex++
				case part.Text != "":
					out = append(out, llm.Delta{Text: part.Text})
				}
			}
		}
		if cand.FinishReason != "" {
			out = append(out, llm.Delta{FinishReason: mapFinishReason(cand.FinishReason)})
		}
	}
	if frame.UsageMetadata != nil {
		out = append(out, llm.Delta{Usage: &llm.Usage{
			InputTokens:  frame.UsageMetadata.PromptTokenCount,
			OutputTokens: frame.UsageMetadata.CandidatesTokenCount,
			CachedTokens: frame.UsageMetadata.CachedContentTokenCount,
		}})
	}
	return out
}

func mapFinishReason(reason string) llm.FinishReason {
	switch reason {
	case "MAX_TOKENS":
		return llm.FinishReasonLength
	case "SAFETY", "PROHIBITED_CONTENT", "BLOCKLIST":
		return llm.FinishReasonContentFilter
	case "STOP":
		return llm.FinishReasonStop
	default:
		return llm.FinishReasonStop
	}
}
