// Package factory builds providers from declarative configuration: an
// explicit Config value, environment variables, or a settings file.
package factory

import (
	"context"
	"fmt"
	"os"
	"strings"

	llm "github.com/platformed-com/platformed-llm"
	"github.com/platformed-com/platformed-llm/auth"
	"github.com/platformed-com/platformed-llm/config"
	"github.com/platformed-com/platformed-llm/providers/anthropic"
	"github.com/platformed-com/platformed-llm/providers/google"
	"github.com/platformed-com/platformed-llm/providers/openai"
)

const (
	defaultLocation       = "europe-west1"
	defaultGoogleModel    = "gemini-1.5-pro"
	defaultAnthropicModel = "claude-3-5-sonnet-v2@20241022"
)

// Config describes one provider instance. Vertex-hosted providers need
// ProjectID and Location; OpenAI needs APIKey. An empty AccessToken on a
// Vertex provider falls back to Application Default Credentials.
type Config struct {
	Provider llm.ProviderName

	Model string

	// OpenAI.
	APIKey  string
	BaseURL string

	// Vertex.
	ProjectID   string
	Location    string
	AccessToken string
}

// New builds the provider the config describes.
func New(ctx context.Context, cfg Config) (llm.Provider, error) {
	switch cfg.Provider {
	case llm.ProviderOpenAI:
		if cfg.APIKey == "" {
			return nil, configError("API key is required for the openai provider")
		}
		opts := []openai.Option{openai.WithDefaultModel(cfg.Model)}
		if cfg.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
		}
		return openai.New(cfg.APIKey, opts...)

	case llm.ProviderGoogle:
		authn, err := vertexAuth(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return google.New(cfg.ProjectID, cfg.Location, authn,
			google.WithDefaultModel(cfg.Model))

	case llm.ProviderAnthropic:
		authn, err := vertexAuth(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return anthropic.New(cfg.ProjectID, cfg.Location, authn,
			anthropic.WithDefaultModel(cfg.Model))

	default:
		return nil, configError(fmt.Sprintf(
			"unknown provider %q, valid values are: openai, google, anthropic", cfg.Provider))
	}
}

func vertexAuth(ctx context.Context, cfg Config) (auth.Authenticator, error) {
	if cfg.AccessToken != "" {
		return auth.Static(cfg.AccessToken), nil
	}
	return auth.ApplicationDefault(ctx)
}

// FromEnv assembles a Config from the environment and builds the provider.
//
// PROVIDER_TYPE selects the backend explicitly. Without it, the provider is
// inferred from which credentials are present: OPENAI_API_KEY first, then
// VERTEX_ACCESS_TOKEN or Google ADC hints.
func FromEnv(ctx context.Context) (llm.Provider, error) {
	cfg, err := ConfigFromEnv()
	if err != nil {
		return nil, err
	}
	return New(ctx, cfg)
}

// ConfigFromEnv resolves the environment to a Config without building the
// provider.
func ConfigFromEnv() (Config, error) {
	if typ := os.Getenv("PROVIDER_TYPE"); typ != "" {
		switch strings.ToLower(typ) {
		case "openai":
			key := os.Getenv("OPENAI_API_KEY")
			if key == "" {
				return Config{}, configError("OPENAI_API_KEY is required for the openai provider")
			}
			return Config{Provider: llm.ProviderOpenAI, APIKey: key, Model: os.Getenv("OPENAI_MODEL")}, nil
		case "google":
			return vertexConfigFromEnv(llm.ProviderGoogle)
		case "anthropic":
			return vertexConfigFromEnv(llm.ProviderAnthropic)
		default:
			return Config{}, configError(fmt.Sprintf(
				"invalid PROVIDER_TYPE %q, valid values are: openai, google, anthropic", typ))
		}
	}

	// No explicit selection; infer from the credentials that are set.
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		return Config{Provider: llm.ProviderOpenAI, APIKey: key, Model: os.Getenv("OPENAI_MODEL")}, nil
	}
	if os.Getenv("VERTEX_ACCESS_TOKEN") != "" ||
		os.Getenv("GOOGLE_APPLICATION_CREDENTIALS") != "" ||
		os.Getenv("GOOGLE_CLOUD_PROJECT") != "" {
		if os.Getenv("ANTHROPIC_MODEL") != "" {
			return vertexConfigFromEnv(llm.ProviderAnthropic)
		}
		return vertexConfigFromEnv(llm.ProviderGoogle)
	}

	return Config{}, configError(
		"no credentials found in environment; set PROVIDER_TYPE with matching credentials")
}

func vertexConfigFromEnv(provider llm.ProviderName) (Config, error) {
	project := os.Getenv("GOOGLE_CLOUD_PROJECT")
	if project == "" {
		return Config{}, configError(fmt.Sprintf(
			"GOOGLE_CLOUD_PROJECT is required for the %s provider", provider))
	}
	location := os.Getenv("GOOGLE_CLOUD_REGION")
	if location == "" {
		location = defaultLocation
	}

	cfg := Config{
		Provider:    provider,
		ProjectID:   project,
		Location:    location,
		AccessToken: os.Getenv("VERTEX_ACCESS_TOKEN"),
	}
	if provider == llm.ProviderAnthropic {
		cfg.Model = os.Getenv("ANTHROPIC_MODEL")
		if cfg.Model == "" {
			cfg.Model = defaultAnthropicModel
		}
	} else {
		cfg.Model = os.Getenv("GOOGLE_MODEL")
		if cfg.Model == "" {
			cfg.Model = defaultGoogleModel
		}
	}
	return cfg, nil
}

// FromFile loads a settings file via the config package and builds the
// provider it describes. Environment variables prefixed LLM_ override file
// values.
func FromFile(ctx context.Context, path string) (llm.Provider, error) {
	loader, err := config.Load[config.Settings](path,
		config.WithEnv[config.Settings]("LLM"),
		config.WithDefaults[config.Settings](map[string]any{
			"vertex.location": defaultLocation,
		}),
	)
	if err != nil {
		return nil, configError("loading settings file: " + err.Error())
	}
	s := loader.Get()
	return New(ctx, Config{
		Provider:    llm.ProviderName(s.Provider),
		Model:       s.Model,
		APIKey:      s.OpenAI.APIKey,
		BaseURL:     s.OpenAI.BaseURL,
		ProjectID:   s.Vertex.ProjectID,
		Location:    s.Vertex.Location,
		AccessToken: s.Vertex.AccessToken,
	})
}

func configError(msg string) error {
	return &llm.LLMError{Kind: llm.ErrKindConfig, Message: msg}
}
