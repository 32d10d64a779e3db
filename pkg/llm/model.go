package llm

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidModel is returned by ParseModel for strings that are not of the
// form "provider/model".
var ErrInvalidModel = errors.New("invalid model string")

// Model identifies a model on a provider, written as "provider/name".
type Model struct {
	Provider string
	Name     string
}

// ParseModel splits a "provider/name" string on its first slash, so model
// names that themselves contain slashes (e.g. "groq/meta-llama/llama-4")
// survive intact. The provider is lower-cased.
func ParseModel(s string) (Model, error) {
	provider, name, ok := strings.Cut(strings.TrimSpace(s), "/")
	provider = strings.ToLower(strings.TrimSpace(provider))
	name = strings.TrimSpace(name)
	if !ok || provider == "" || name == "" {
		return Model{}, fmt.Errorf("%w: %q (expected provider/model, e.g. ollama/llama3.2)", ErrInvalidModel, s)
	}
	return Model{Provider: provider, Name: name}, nil
}

// String renders the model back into "provider/name" form.
func (m Model) String() string {
	return m.Provider + "/" + m.Name
}
