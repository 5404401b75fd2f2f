package anthropic

import (
	"encoding/json"
	"errors"
	"net/http"

	llm "github.com/platformed-com/platformed-llm"
	"github.com/platformed-com/platformed-llm/internal/transport"
)

func (p *Provider) mapError(err error) error {
	var se *transport.HTTPStatusError
	if errors.As(err, &se) {
		kind, retryable := classifyHTTP(se.StatusCode)
		msg, code := parseErrorEnvelope(se.Body)
		if msg == "" {
			msg = http.StatusText(se.StatusCode)
		}
		return &llm.LLMError{
			Provider:     p.name,
			Kind:         kind,
			HTTPStatus:   se.StatusCode,
			ProviderCode: code,
			Message:      msg,
			Retryable:    retryable,
			Raw:          append([]byte(nil), se.Body...),
			Cause:        err,
		}
	}
	return &llm.LLMError{Provider: p.name, Kind: llm.ErrKindHTTP, Message: err.Error(), Retryable: true, Cause: err}
}

func classifyHTTP(status int) (llm.ErrorKind, bool) {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return llm.ErrKindAuth, false
	case http.StatusTooManyRequests:
		return llm.ErrKindRateLimit, true
	case http.StatusNotFound:
		return llm.ErrKindModelNotAvailable, false
	default:
		if status >= 500 {
			return llm.ErrKindHTTP, true
		}
		return llm.ErrKindProvider, false
	}
}

func parseErrorEnvelope(raw []byte) (message string, code string) {
	var env errorEnvelope
	if err := json.Unmarshal(raw, &env); err != nil || env.Error == nil {
		return "", ""
	}
	return env.Error.Message, env.Error.Type
}
