// Package auth supplies bearer credentials for providers hosted on Vertex
// AI. OpenAI-style API keys do not go through this package; they are fixed
// headers configured on the provider.
package auth

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// cloudPlatformScope covers all Vertex AI calls.
const cloudPlatformScope = "https://www.googleapis.com/auth/cloud-platform"

// Authenticator yields a bearer token for an outgoing request. Token is
// called once per HTTP attempt, so implementations backed by short-lived
// credentials refresh transparently.
type Authenticator interface {
	Token(ctx context.Context) (string, error)
}

// Static returns an Authenticator that always yields the given token. Use
// it with tokens minted externally, e.g. `gcloud auth print-access-token`.
func Static(token string) Authenticator {
	return staticAuthenticator(strings.TrimSpace(token))
}

type staticAuthenticator string

func (s staticAuthenticator) Token(context.Context) (string, error) {
	if s == "" {
		return "", fmt.Errorf("auth: empty static token")
	}
	return string(s), nil
}

// ApplicationDefault resolves Google Application Default Credentials: the
// GOOGLE_APPLICATION_CREDENTIALS file, gcloud user credentials, or the
// metadata server when running on GCP.
func ApplicationDefault(ctx context.Context) (Authenticator, error) {
	ts, err := google.DefaultTokenSource(ctx, cloudPlatformScope)
	if err != nil {
		return nil, fmt.Errorf("auth: resolving application default credentials: %w", err)
	}
	return &tokenSourceAuthenticator{ts: oauth2.ReuseTokenSource(nil, ts)}, nil
}

// FromTokenSource wraps an oauth2.TokenSource as an Authenticator.
func FromTokenSource(ts oauth2.TokenSource) Authenticator {
	return &tokenSourceAuthenticator{ts: ts}
}

type tokenSourceAuthenticator struct {
	ts oauth2.TokenSource
}

func (a *tokenSourceAuthenticator) Token(ctx context.Context) (string, error) {
	tok, err := a.ts.Token()
	if err != nil {
		return "", fmt.Errorf("auth: fetching token: %w", err)
	}
	return tok.AccessToken, nil
}
