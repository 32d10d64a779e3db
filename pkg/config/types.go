package config

import (
	"fmt"
	"strconv"
)

// Config represents the persistent specialist configuration stored as
// config.toml in the .specialist/ directory. The TOML layout uses sections
// for logical grouping.
type Config struct {
	Version   int             `toml:"version"`
	Model     ModelConfig     `toml:"model"`
	Providers ProvidersConfig `toml:"providers"`
	Memory    MemoryConfig    `toml:"memory"`
	Usage     UsageConfig     `toml:"usage"`
	MCP       MCPConfig       `toml:"mcp"`
}

// ModelConfig holds the default "provider/model" identifiers per command.
type ModelConfig struct {
	Complete string `toml:"complete,omitempty"`
	Chat     string `toml:"chat,omitempty"`
}

// ProvidersConfig holds base URLs for each supported provider.
type ProvidersConfig struct {
	OllamaURL    string `toml:"ollama_url,omitempty"`
	OpenAIURL    string `toml:"openai_url,omitempty"`
	AnthropicURL string `toml:"anthropic_url,omitempty"`
	MistralURL   string `toml:"mistral_url,omitempty"`
	GroqURL      string `toml:"groq_url,omitempty"`
}

// URLFor returns the configured base URL for the named provider, or an empty
// string when the provider is unknown.
func (p ProvidersConfig) URLFor(provider string) string {
	switch provider {
	case "ollama":
		return p.OllamaURL
	case "openai":
		return p.OpenAIURL
	case "anthropic":
		return p.AnthropicURL
	case "mistral":
		return p.MistralURL
	case "groq":
		return p.GroqURL
	}
	return ""
}

// MemoryConfig holds memory layer settings. An empty Path means the
// .specialist/ directory; an empty Model means the chat model.
type MemoryConfig struct {
	Enabled  bool   `toml:"enabled"`
	Provider string `toml:"provider,omitempty"`
	Path     string `toml:"path,omitempty"`
	Model    string `toml:"model,omitempty"`
}

// UsageConfig holds usage tracking settings. An empty Path means
// usage.json in the .specialist/ directory.
type UsageConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path,omitempty"`
}

// MCPConfig holds MCP server settings.
type MCPConfig struct {
	Listen string `toml:"listen,omitempty"`
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

func stringKey(field func(c *Config) *string) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string { return *field(c) },
		set: func(c *Config, v string) error { *field(c) = v; return nil },
	}
}

func boolKey(name string, field func(c *Config) *bool) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string { return strconv.FormatBool(*field(c)) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid value for %s: %w", name, err)
			}
			*field(c) = b
			return nil
		},
	}
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"model.complete":          stringKey(func(c *Config) *string { return &c.Model.Complete }),
	"model.chat":              stringKey(func(c *Config) *string { return &c.Model.Chat }),
	"providers.ollama_url":    stringKey(func(c *Config) *string { return &c.Providers.OllamaURL }),
	"providers.openai_url":    stringKey(func(c *Config) *string { return &c.Providers.OpenAIURL }),
	"providers.anthropic_url": stringKey(func(c *Config) *string { return &c.Providers.AnthropicURL }),
	"providers.mistral_url":   stringKey(func(c *Config) *string { return &c.Providers.MistralURL }),
	"providers.groq_url":      stringKey(func(c *Config) *string { return &c.Providers.GroqURL }),
	"memory.enabled":          boolKey("memory.enabled", func(c *Config) *bool { return &c.Memory.Enabled }),
	"memory.provider":         stringKey(func(c *Config) *string { return &c.Memory.Provider }),
	"memory.path":             stringKey(func(c *Config) *string { return &c.Memory.Path }),
	"memory.model":            stringKey(func(c *Config) *string { return &c.Memory.Model }),
	"usage.enabled":           boolKey("usage.enabled", func(c *Config) *bool { return &c.Usage.Enabled }),
	"usage.path":              stringKey(func(c *Config) *string { return &c.Usage.Path }),
	"mcp.listen":              stringKey(func(c *Config) *string { return &c.MCP.Listen }),
}
