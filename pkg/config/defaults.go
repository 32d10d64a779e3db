package config

const (
	defaultCompleteModel = "ollama/qwen2.5"
	defaultChatModel     = "ollama/llama3.2"

	defaultOllamaURL    = "http://localhost:11434"
	defaultOpenAIURL    = "https://api.openai.com/v1"
	defaultAnthropicURL = "https://api.anthropic.com"
	defaultMistralURL   = "https://api.mistral.ai/v1"
	defaultGroqURL      = "https://api.groq.com/openai/v1"

	defaultMemoryProvider = "local"

	defaultMCPListen = ":8082"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Model: ModelConfig{
			Complete: defaultCompleteModel,
			Chat:     defaultChatModel,
		},
		Providers: ProvidersConfig{
			OllamaURL:    defaultOllamaURL,
			OpenAIURL:    defaultOpenAIURL,
			AnthropicURL: defaultAnthropicURL,
			MistralURL:   defaultMistralURL,
			GroqURL:      defaultGroqURL,
		},
		Memory: MemoryConfig{
			Enabled:  false,
			Provider: defaultMemoryProvider,
		},
		Usage: UsageConfig{
			Enabled: true,
		},
		MCP: MCPConfig{
			Listen: defaultMCPListen,
		},
	}
}
