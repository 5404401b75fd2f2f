package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	llm "github.com/platformed-com/platformed-llm"
)

// Model is one entry from the models listing.
type Model struct {
	ID      string `json:"id"`
	OwnedBy string `json:"owned_by"`
}

type modelList struct {
	Data []Model `json:"data"`
}

// Models lists the models the API key can access. Unlike Generate this is a
// buffered call, so transient failures are retried per the retry config.
func (p *Provider) Models(ctx context.Context) ([]Model, error) {
	_, raw, err := p.tr.DoJSON(ctx, http.MethodGet, "/v1/models", p.authHeader(), nil)
	if err != nil {
		return nil, p.mapError(err)
	}

	var list modelList
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, &llm.LLMError{
			Provider: p.name,
			Kind:     llm.ErrKindSerialization,
			Message:  "decoding model list",
			Raw:      raw,
			Cause:    err,
		}
	}
	return list.Data, nil
}

// CheckModel verifies that the given model exists and is available to this
// API key. An unknown model surfaces as a model_not_available error.
func (p *Provider) CheckModel(ctx context.Context, model string) error {
	if model == "" {
		model = p.model
	}
	if model == "" {
		return &llm.LLMError{Provider: p.name, Kind: llm.ErrKindConfig, Message: "model is required"}
	}
	_, _, err := p.tr.DoJSON(ctx, http.MethodGet, "/v1/models/"+url.PathEscape(model), p.authHeader(), nil)
	if err != nil {
		return p.mapError(err)
	}
	return nil
}

func (p *Provider) authHeader() http.Header {
	hdr := make(http.Header)
	if p.apiKey != "" {
		hdr.Set("Authorization", "Bearer "+p.apiKey)
	}
	return hdr
}
