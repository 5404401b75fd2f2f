package llm

import "context"

// Provider is the minimal interface implemented by each provider family.
//
// Generate always streams internally; use Response.Stream for live events or
// Response.Buffer for a materialized result.
type Provider interface {
	Generate(ctx context.Context, req Request, opts ...RequestOption) (*Response, error)
}

// ProviderName is the canonical identifier of a model provider.
type ProviderName string

const (
	ProviderUnknown   ProviderName = "unknown"
	ProviderOpenAI    ProviderName = "openai"
	ProviderGoogle    ProviderName = "google"
	ProviderAnthropic ProviderName = "anthropic"
)

// ProviderNamer is an optional interface for discovering which provider a
// Provider instance is backed by.
type ProviderNamer interface {
	Name() ProviderName
}

func ProviderOf(p Provider) ProviderName {
	if n, ok := p.(ProviderNamer); ok {
		if n.Name() != "" {
			return n.Name()
		}
	}
	return ProviderUnknown
}
