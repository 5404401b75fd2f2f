package google

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	llm "github.com/platformed-com/platformed-llm"
)

type countTokensRequest struct {
	Contents          []apiContent `json:"contents"`
	SystemInstruction *apiContent  `json:"systemInstruction,omitempty"`
}

type countTokensResponse struct {
	TotalTokens int `json:"totalTokens"`
}

// CountTokens reports how many input tokens the request's transcript costs
// against the given model. This is a buffered call through the retrying
// request path, unlike Generate's single-attempt stream.
func (p *Provider) CountTokens(ctx context.Context, req llm.Request) (int, error) {
	model := req.Model
	if model == "" {
		model = p.model
	}
	if model == "" {
		return 0, &llm.LLMError{Provider: p.name, Kind: llm.ErrKindConfig, Message: "model is required"}
	}
	if len(req.Messages) == 0 {
		return 0, &llm.LLMError{Provider: p.name, Kind: llm.ErrKindConfig, Message: "messages are required"}
	}

	mapped, err := mapRequest(req)
	if err != nil {
		return 0, err
	}
	body := countTokensRequest{
		Contents:          mapped.Contents,
		SystemInstruction: mapped.SystemInstruction,
	}

	path := fmt.Sprintf(
		"/v1/projects/%s/locations/%s/publishers/google/models/%s:countTokens",
		p.projectID, p.location, model,
	)

	_, raw, err := p.tr.DoJSON(ctx, http.MethodPost, path, nil, body)
	if err != nil {
		return 0, p.mapError(err)
	}

	var out countTokensResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return 0, &llm.LLMError{
			Provider: p.name,
			Kind:     llm.ErrKindSerialization,
			Message:  "decoding token count",
			Raw:      raw,
			Cause:    err,
		}
	}
	return out.TotalTokens, nil
}
