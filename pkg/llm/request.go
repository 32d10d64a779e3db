package llm

// ChatRequest represents a provider-agnostic chat completion request.
// Clients translate it into their provider's wire format.
type ChatRequest struct {
	// Model name without the provider prefix (e.g., "gpt-4o", "llama3.2")
	Model string `json:"model"`

	// Conversation messages. A leading system message is lifted into the
	// provider's system field where the provider requires it.
	Messages []Message `json:"messages"`

	// Generation parameters (unified across providers)
	MaxTokens   *int     `json:"max_tokens,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`

	// JSON asks the provider for a JSON object response where supported
	// (ollama format=json, openai response_format=json_object).
	JSON bool `json:"json,omitempty"`
}

// SplitSystem separates the leading system messages from the rest of the
// conversation, joining multiple system messages with a blank line.
func (r *ChatRequest) SplitSystem() (string, []Message) {
	var system string
	i := 0
	for ; i < len(r.Messages) && r.Messages[i].Role == RoleSystem; i++ {
		text := r.Messages[i].GetText()
		if system != "" && text != "" {
			system += "\n\n"
		}
		system += text
	}
	return system, r.Messages[i:]
}
