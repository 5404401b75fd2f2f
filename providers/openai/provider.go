// Package openai implements the llm.Provider interface over the OpenAI chat
// completions streaming API, and any API compatible with it.
package openai

import (
	"context"
	"log/slog"
	"net/http"

	llm "github.com/platformed-com/platformed-llm"
	"github.com/platformed-com/platformed-llm/internal/transport"
)

const defaultBaseURL = "https://api.openai.com"

type Provider struct {
	name string

	apiKey string
	model  string
	path   string

	tr *transport.Client
}

type Option func(*Provider) error

func New(apiKey string, opts ...Option) (*Provider, error) {
	tr, err := transport.New(defaultBaseURL, nil)
	if err != nil {
		return nil, err
	}

	p := &Provider{
		name:   string(llm.ProviderOpenAI),
		apiKey: apiKey,
		path:   "/v1/chat/completions",
		tr:     tr,
	}

	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}

	if p.tr.Logger == nil {
		p.tr.Logger = slog.Default()
	}

	return p, nil
}

// WithBaseURL points the provider at an OpenAI-compatible endpoint.
func WithBaseURL(baseURL string) Option {
	return func(p *Provider) error {
		tr, err := transport.New(baseURL, p.tr.HTTPClient)
		if err != nil {
			return err
		}
		tr.DefaultHeaders = p.tr.DefaultHeaders.Clone()
		tr.UserAgent = p.tr.UserAgent
		tr.Logger = p.tr.Logger
		tr.Retry = p.tr.Retry
		p.tr = tr
		return nil
	}
}

func WithHTTPClient(c *http.Client) Option {
	return func(p *Provider) error {
		p.tr.HTTPClient = c
		return nil
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(p *Provider) error {
		if logger != nil {
			p.tr.Logger = logger
		}
		return nil
	}
}

func WithRetry(cfg transport.RetryConfig) Option {
	return func(p *Provider) error {
		p.tr.Retry = cfg
		return nil
	}
}

func WithDefaultHeader(key, value string) Option {
	return func(p *Provider) error {
		p.tr.DefaultHeaders.Add(key, value)
		return nil
	}
}

// WithDefaultModel sets the model used when the request leaves it empty.
func WithDefaultModel(model string) Option {
	return func(p *Provider) error {
		p.model = model
		return nil
	}
}

func (p *Provider) Name() llm.ProviderName { return llm.ProviderName(p.name) }

// Generate opens a streaming chat completion and wraps it as a Response.
func (p *Provider) Generate(ctx context.Context, req llm.Request, opts ...llm.RequestOption) (*llm.Response, error) {
	req = req.With(opts...)
	if err := p.validateRequest(req); err != nil {
		return nil, err
	}

	body := p.mapRequest(req)
	hdr := p.authHeader()
	hdr.Set("Accept", "text/event-stream")

	resp, err := p.tr.DoStream(ctx, http.MethodPost, p.path, hdr, body)
	if err != nil {
		return nil, p.mapError(err)
	}
	return llm.NewResponse(newDeltaStream(p.name, resp)), nil
}

func (p *Provider) validateRequest(req llm.Request) error {
	if req.Model == "" && p.model == "" {
		return &llm.LLMError{Provider: p.name, Kind: llm.ErrKindConfig, Message: "model is required"}
	}
	if len(req.Messages) == 0 {
		return &llm.LLMError{Provider: p.name, Kind: llm.ErrKindConfig, Message: "messages are required"}
	}
	return nil
}

var _ llm.Provider = (*Provider)(nil)
