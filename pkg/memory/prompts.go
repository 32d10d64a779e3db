package memory

import (
	_ "embed"
	"strings"
	"time"
)

var (
	//go:embed prompts/extract_facts.txt
	extractFactsPrompt string

	//go:embed prompts/determine_operations.txt
	determineOperationsPrompt string
)

// FactExtractionPrompt renders the fact extraction system prompt for the
// given day.
func FactExtractionPrompt(now time.Time) string {
	return strings.Replace(extractFactsPrompt, "{current_date}", now.UTC().Format(time.DateOnly), 1)
}

// OperationsPrompt renders the reconciliation prompt around the JSON encoded
// existing memories and new facts.
func OperationsPrompt(oldMemory, facts string) string {
	r := strings.NewReplacer(
		"{retrieved_old_memory_dict}", oldMemory,
		"{response_content}", facts,
	)
	return r.Replace(determineOperationsPrompt)
}
