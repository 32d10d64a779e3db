package provider

import (
	"fmt"

	"github.com/papercomputeco/specialist/pkg/credentials"
	"github.com/papercomputeco/specialist/pkg/llm"
	"github.com/papercomputeco/specialist/pkg/llm/provider/anthropic"
	"github.com/papercomputeco/specialist/pkg/llm/provider/ollama"
	"github.com/papercomputeco/specialist/pkg/llm/provider/openai"
)

// Supported provider type constants
const (
	Ollama    = "ollama"
	OpenAI    = "openai"
	Anthropic = "anthropic"
	Mistral   = "mistral"
	Groq      = "groq"
)

// Default base URLs for the OpenAI-compatible providers.
const (
	MistralBaseURL = "https://api.mistral.ai/v1"
	GroqBaseURL    = "https://api.groq.com/openai/v1"
)

// SupportedProviders returns the list of all supported provider type names.
func SupportedProviders() []string {
	return []string{Ollama, OpenAI, Anthropic, Mistral, Groq}
}

// New creates an llm.Client for model.Provider. The returned client still
// expects ChatRequest.Model to carry the bare model name (model.Name).
func New(model llm.Model, opts Options) (llm.Client, error) {
	switch model.Provider {
	case Ollama:
		return ollama.New(ollama.Config{
			BaseURL:    opts.BaseURL,
			HTTPClient: opts.httpClient(),
			Logger:     opts.Logger,
		}), nil

	case OpenAI, Mistral, Groq:
		key, err := requireKey(model.Provider, opts)
		if err != nil {
			return nil, err
		}
		baseURL := opts.BaseURL
		if baseURL == "" {
			baseURL = defaultBaseURL(model.Provider)
		}
		return openai.New(openai.Config{
			Name:       model.Provider,
			BaseURL:    baseURL,
			APIKey:     key,
			HTTPClient: opts.httpClient(),
			Logger:     opts.Logger,
		}), nil

	case Anthropic:
		key, err := requireKey(model.Provider, opts)
		if err != nil {
			return nil, err
		}
		return anthropic.New(anthropic.Config{
			APIKey:     key,
			BaseURL:    opts.BaseURL,
			HTTPClient: opts.httpClient(),
			Logger:     opts.Logger,
		}), nil

	default:
		return nil, fmt.Errorf("%w: %q (supported: %v)", ErrUnknownProvider, model.Provider, SupportedProviders())
	}
}

func requireKey(provider string, opts Options) (string, error) {
	key := opts.resolveAPIKey(provider)
	if key == "" {
		return "", fmt.Errorf("%w for %s: set %s or run \"specialist auth %s\"",
			ErrMissingAPIKey, provider, credentials.EnvVarForProvider(provider), provider)
	}
	return key, nil
}

func defaultBaseURL(provider string) string {
	switch provider {
	case Mistral:
		return MistralBaseURL
	case Groq:
		return GroqBaseURL
	default:
		return openai.DefaultBaseURL
	}
}
