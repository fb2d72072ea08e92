package llm

import (
	"fmt"
	"strings"

	"github.com/claimsift/claimsift/internal/model"
)

// NewProvider creates a generation provider from configuration. An empty
// provider name disables the LLM path; the pattern extractor still runs.
func NewProvider(cfg model.LLMConfig) (Provider, error) {
	switch strings.ToLower(cfg.Provider) {
	case "openai":
		return NewOpenAIProvider(cfg)
	case "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (supported: openai)", cfg.Provider)
	}
}
