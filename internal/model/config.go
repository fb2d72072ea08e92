package model

import "time"

// Config is the full configuration surface of the engine. Loaded once at
// process start (defaults, config file, env, flags — in ascending priority)
// and passed explicitly to each component.
type Config struct {
	Chunker     ChunkerConfig     `yaml:"chunker" mapstructure:"chunker"`
	Retrieval   RetrievalConfig   `yaml:"retrieval" mapstructure:"retrieval"`
	LLM         LLMConfig         `yaml:"llm" mapstructure:"llm"`
	Verify      VerifyConfig      `yaml:"verify" mapstructure:"verify"`
	Dedupe      DedupeConfig      `yaml:"dedupe" mapstructure:"dedupe"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
	Store       StoreConfig       `yaml:"store" mapstructure:"store"`
	Themes      []Theme           `yaml:"themes,omitempty" mapstructure:"themes"`
}

// ChunkerConfig controls document segmentation.
type ChunkerConfig struct {
	Size              int  `yaml:"size" mapstructure:"size"`       // max chunk length in bytes
	Overlap           int  `yaml:"overlap" mapstructure:"overlap"` // bytes shared between adjacent chunks
	StripBoilerplate  bool `yaml:"strip_boilerplate" mapstructure:"strip_boilerplate"`
	BoilerplateRepeat int  `yaml:"boilerplate_repeat" mapstructure:"boilerplate_repeat"` // min occurrences of a line to discard it
}

// RetrievalConfig controls the embedding index.
type RetrievalConfig struct {
	K              int           `yaml:"k" mapstructure:"k"` // chunks per probe
	EmbeddingModel string        `yaml:"embedding_model" mapstructure:"embedding_model"`
	CacheTTL       time.Duration `yaml:"cache_ttl" mapstructure:"cache_ttl"`
}

// LLMConfig configures the generation provider.
type LLMConfig struct {
	Provider      string        `yaml:"provider" mapstructure:"provider"` // "openai" or "" (LLM path disabled)
	Model         string        `yaml:"model" mapstructure:"model"`
	APIKey        string        `yaml:"-" mapstructure:"api_key"` // never written to config files
	BaseURL       string        `yaml:"base_url,omitempty" mapstructure:"base_url"`
	CallTimeout   time.Duration `yaml:"call_timeout" mapstructure:"call_timeout"`
	MaxTokens     int           `yaml:"max_tokens" mapstructure:"max_tokens"`
	Deterministic bool          `yaml:"deterministic" mapstructure:"deterministic"` // temperature pinned at zero
}

// VerifyConfig controls source verification.
type VerifyConfig struct {
	// SampleFraction of verified claims additionally queued for manual
	// adjudication. Automated verification reduces the volume needing
	// review, it never replaces the sample.
	SampleFraction float64 `yaml:"sample_fraction" mapstructure:"sample_fraction"`
}

// DedupeConfig controls candidate merging.
type DedupeConfig struct {
	// OverlapThreshold is the minimum character-overlap ratio (overlap
	// divided by the shorter span) for two quotes in the same document to
	// be treated as the same underlying statement.
	OverlapThreshold float64 `yaml:"overlap_threshold" mapstructure:"overlap_threshold"`
}

// ConcurrencyConfig bounds parallelism and external call rates.
type ConcurrencyConfig struct {
	DocumentWorkers int           `yaml:"document_workers" mapstructure:"document_workers"`
	GenerationLimit int           `yaml:"generation_limit" mapstructure:"generation_limit"` // concurrent generation calls
	GenerationRPS   float64       `yaml:"generation_rps" mapstructure:"generation_rps"`
	CallTimeout     time.Duration `yaml:"call_timeout" mapstructure:"call_timeout"`
	MaxAttempts     int           `yaml:"max_attempts" mapstructure:"max_attempts"` // 2 = one retry on transient failure
}

// StoreConfig locates the canonical claim store.
type StoreConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Chunker: ChunkerConfig{
			Size:              8000,
			Overlap:           500,
			StripBoilerplate:  true,
			BoilerplateRepeat: 3,
		},
		Retrieval: RetrievalConfig{
			K:              5,
			EmbeddingModel: "text-embedding-3-small",
			CacheTTL:       time.Hour,
		},
		LLM: LLMConfig{
			Provider:      "", // disabled by default, pattern path still runs
			Model:         "",
			CallTimeout:   60 * time.Second,
			MaxTokens:     4096,
			Deterministic: true,
		},
		Verify: VerifyConfig{
			SampleFraction: 0.10,
		},
		Dedupe: DedupeConfig{
			OverlapThreshold: 0.5,
		},
		Concurrency: ConcurrencyConfig{
			DocumentWorkers: 4,
			GenerationLimit: 4,
			GenerationRPS:   2,
			CallTimeout:     60 * time.Second,
			MaxAttempts:     2,
		},
		Store: StoreConfig{
			Path: "claimsift.db",
		},
		Themes: DefaultThemes,
	}
}
