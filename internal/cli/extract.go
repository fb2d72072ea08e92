package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/claimsift/claimsift/internal/model"
	"github.com/claimsift/claimsift/internal/pipeline"
	"github.com/claimsift/claimsift/internal/store"
)

var (
	dbPath      string
	workers     int
	runTimeout  time.Duration
	llmEnabled  bool
	llmProvider string
	llmModel    string
	chunkSize   int
	overlap     int
)

// extractCmd represents the extract command
var extractCmd = &cobra.Command{
	Use:   "extract <manifest.yaml>",
	Short: "Extract and verify claims from a document corpus",
	Long: `Extract processes every document listed in the manifest:
- Segment text into overlapping chunks with offset provenance
- Run the deterministic pattern extractor on every chunk
- Optionally run retrieval-grounded LLM probes per theme
- Verify every candidate quote against its source chunk
- Merge overlapping candidates into canonical claims
- Persist claims, partnerships, and the audit trail

Documents process in parallel; stages within a document run in order.

Example:
  claimsift extract corpus.yaml
  claimsift extract corpus.yaml --db claims.db --workers 8
  claimsift extract corpus.yaml --llm --llm-model gpt-4o-mini`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().StringVar(&dbPath, "db", "claimsift.db", "claim store path")
	extractCmd.Flags().IntVar(&workers, "workers", 0, "document workers (0 = config default)")
	extractCmd.Flags().DurationVar(&runTimeout, "timeout", 30*time.Minute, "total run timeout")
	extractCmd.Flags().IntVar(&chunkSize, "chunk-size", 0, "chunk size in bytes (0 = config default)")
	extractCmd.Flags().IntVar(&overlap, "chunk-overlap", 0, "chunk overlap in bytes (0 = config default)")

	// LLM flags
	extractCmd.Flags().BoolVar(&llmEnabled, "llm", false, "enable the retrieval-grounded LLM extraction path")
	extractCmd.Flags().StringVar(&llmProvider, "llm-provider", "openai", "LLM provider (openai)")
	extractCmd.Flags().StringVar(&llmModel, "llm-model", "gpt-4o-mini", "LLM model name")
}

func runExtract(cmd *cobra.Command, args []string) error {
	manifestPath := args[0]
	log := newLogger()

	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Build configuration from defaults, config file, then flags.
	cfg := loadConfig()
	cfg.Store.Path = dbPath
	if workers > 0 {
		cfg.Concurrency.DocumentWorkers = workers
	}
	if chunkSize > 0 {
		cfg.Chunker.Size = chunkSize
	}
	if overlap > 0 {
		cfg.Chunker.Overlap = overlap
	}

	if llmEnabled {
		cfg.LLM.Provider = llmProvider
		cfg.LLM.Model = llmModel
		if cfg.LLM.APIKey == "" {
			cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
		}
		if cfg.LLM.APIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY environment variable not set")
		}
	} else {
		cfg.LLM.Provider = ""
	}

	docs, err := loadManifest(manifestPath)
	if err != nil {
		return err
	}
	log.Info().Int("documents", len(docs)).Str("db", cfg.Store.Path).Msg("corpus loaded")

	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	p, err := pipeline.New(cfg, st, log)
	if err != nil {
		return err
	}

	sum, err := p.Run(ctx, docs)
	if err != nil {
		return fmt.Errorf("extraction run: %w", err)
	}

	fmt.Printf("Documents:   %d\n", sum.Documents)
	fmt.Printf("Chunks:      %d\n", sum.Chunks)
	fmt.Printf("Candidates:  %d\n", sum.Candidates)
	fmt.Printf("Canonical:   %d\n", sum.Canonical)
	fmt.Printf("Unverified:  %d\n", sum.Unverified)
	fmt.Printf("Violations:  %d\n", sum.Violations)
	fmt.Printf("Failures:    %d\n", sum.Failures)
	fmt.Printf("Conflicts:   %d\n", sum.Conflicts)
	fmt.Printf("Elapsed:     %v\n", sum.Elapsed.Round(time.Millisecond))
	if len(sum.Failed) > 0 {
		fmt.Printf("Persist failures: %v\n", sum.Failed)
		return fmt.Errorf("%d document(s) failed to persist", len(sum.Failed))
	}
	return nil
}

// loadConfig merges the config file (if any) over the built-in defaults.
func loadConfig() *model.Config {
	cfg := model.DefaultConfig()
	if viper.ConfigFileUsed() != "" {
		if err := viper.Unmarshal(cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: invalid config file, using defaults: %v\n", err)
			return model.DefaultConfig()
		}
	}
	return cfg
}
