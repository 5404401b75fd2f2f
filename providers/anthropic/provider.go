// Package anthropic implements the llm.Provider interface over Claude models
// hosted on Vertex AI, using the raw streaming predict endpoint.
package anthropic

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	llm "github.com/platformed-com/platformed-llm"
	"github.com/platformed-com/platformed-llm/auth"
	"github.com/platformed-com/platformed-llm/internal/transport"
)

type Provider struct {
	name string

	projectID string
	location  string
	model     string

	tr *transport.Client
}

type Option func(*Provider) error

// New creates a Claude-on-Vertex provider. Authentication works exactly as
// for the Gemini provider: bearer tokens from the given authenticator.
func New(projectID, location string, authn auth.Authenticator, opts ...Option) (*Provider, error) {
	if projectID == "" || location == "" {
		return nil, &llm.LLMError{
			Kind:    llm.ErrKindConfig,
			Message: "anthropic: project ID and location are required",
		}
	}

	tr, err := transport.New(fmt.Sprintf("https://%s-aiplatform.googleapis.com", location), nil)
	if err != nil {
		return nil, err
	}
	tr.Auth = bearerAuth{authn}

	p := &Provider{
		name:      string(llm.ProviderAnthropic),
		projectID: projectID,
		location:  location,
		tr:        tr,
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

// WithBaseURL overrides the regional Vertex endpoint, mostly for tests.
func WithBaseURL(baseURL string) Option {
	return func(p *Provider) error {
		tr, err := transport.New(baseURL, p.tr.HTTPClient)
		if err != nil {
			return err
		}
		tr.DefaultHeaders = p.tr.DefaultHeaders.Clone()
		tr.UserAgent = p.tr.UserAgent
		tr.Auth = p.tr.Auth
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

func WithDefaultModel(model string) Option {
	return func(p *Provider) error {
		p.model = model
		return nil
	}
}

func (p *Provider) Name() llm.ProviderName { return llm.ProviderName(p.name) }

func (p *Provider) Generate(ctx context.Context, req llm.Request, opts ...llm.RequestOption) (*llm.Response, error) {
	req = req.With(opts...)
	model := req.Model
	if model == "" {
		model = p.model
	}
	if model == "" {
		return nil, &llm.LLMError{Provider: p.name, Kind: llm.ErrKindConfig, Message: "model is required"}
	}
	if len(req.Messages) == 0 {
		return nil, &llm.LLMError{Provider: p.name, Kind: llm.ErrKindConfig, Message: "messages are required"}
	}

	body, err := mapRequest(req)
	if err != nil {
		return nil, err
	}

	path := fmt.Sprintf(
		"/v1/projects/%s/locations/%s/publishers/anthropic/models/%s:streamRawPredict?alt=sse",
		p.projectID, p.location, model,
	)

	hdr := make(http.Header)
	hdr.Set("Accept", "text/event-stream")

	resp, err := p.tr.DoStream(ctx, http.MethodPost, path, hdr, body)
	if err != nil {
		return nil, p.mapError(err)
	}
	return llm.NewResponse(newDeltaStream(p.name, resp)), nil
}

// bearerAuth adapts an auth.Authenticator to the transport's hook.
type bearerAuth struct {
	authn auth.Authenticator
}

func (b bearerAuth) Authorize(ctx context.Context, req *http.Request) error {
	if b.authn == nil {
		return nil
	}
	token, err := b.authn.Token(ctx)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return nil
}

var _ llm.Provider = (*Provider)(nil)
