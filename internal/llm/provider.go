// Package llm is the schema-constrained generation path: retrieval-grounded
// prompts, deterministic sampling, and strict schema validation of outputs.
package llm

import "context"

// Provider defines the interface for generation backends.
type Provider interface {
	// Name returns the provider name.
	Name() string

	// Complete issues one generation request and returns the raw text.
	// Sampling must be deterministic: repeated calls with the same prompt
	// and input return the same output. This is a correctness requirement
	// for downstream validation, not a performance knob.
	Complete(ctx context.Context, prompt string) (string, error)

	// IsAvailable checks that the provider is configured and reachable.
	IsAvailable(ctx context.Context) bool
}
