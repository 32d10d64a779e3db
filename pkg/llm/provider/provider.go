// Package provider builds llm.Client implementations from "provider/model"
// identifiers.
package provider

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/papercomputeco/specialist/pkg/credentials"
)

var (
	// ErrUnknownProvider is returned by New for provider names it does not serve.
	ErrUnknownProvider = errors.New("unknown provider")

	// ErrMissingAPIKey is returned by New when a keyed provider has no key
	// from options, credentials.toml or the environment.
	ErrMissingAPIKey = errors.New("missing API key")
)

// DefaultTimeout bounds a single completion request, streaming included.
const DefaultTimeout = 5 * time.Minute

// Options configures client construction. Zero values fall back to the
// provider's defaults.
type Options struct {
	// APIKey takes precedence over CredMgr and environment variables.
	APIKey string

	// BaseURL overrides the provider's default endpoint.
	BaseURL string

	// CredMgr supplies keys stored by "specialist auth".
	CredMgr *credentials.Manager

	HTTPClient *http.Client
	Logger     *slog.Logger
}

func (o Options) httpClient() *http.Client {
	if o.HTTPClient != nil {
		return o.HTTPClient
	}
	return &http.Client{Timeout: DefaultTimeout}
}

// resolveAPIKey returns the key for provider: explicit > credentials.toml >
// environment.
func (o Options) resolveAPIKey(provider string) string {
	if o.APIKey != "" {
		return o.APIKey
	}
	return o.CredMgr.Resolve(provider)
}
