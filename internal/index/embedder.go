package index

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/philippgille/chromem-go"
	gocache "github.com/patrickmn/go-cache"
	openai "github.com/sashabaranov/go-openai"

	"github.com/claimsift/claimsift/internal/model"
)

// NewOpenAIEmbedder returns an embedding function backed by the OpenAI
// embeddings API. The model comes from configuration so the similarity
// metric of the index is tunable, not hard-coded.
func NewOpenAIEmbedder(cfg model.LLMConfig, embeddingModel string) chromem.EmbeddingFunc {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	client := openai.NewClientWithConfig(clientCfg)

	return func(ctx context.Context, text string) ([]float32, error) {
		resp, err := client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
			Input: []string{text},
			Model: openai.EmbeddingModel(embeddingModel),
		})
		if err != nil {
			return nil, fmt.Errorf("create embedding: %w", err)
		}
		if len(resp.Data) == 0 {
			return nil, fmt.Errorf("empty embedding response")
		}
		return resp.Data[0].Embedding, nil
	}
}

// NewCachedEmbedder wraps an embedding function with an in-memory cache so
// identical chunk or probe text is embedded once per run.
func NewCachedEmbedder(fn chromem.EmbeddingFunc, ttl time.Duration) chromem.EmbeddingFunc {
	if ttl <= 0 {
		ttl = time.Hour
	}
	cache := gocache.New(ttl, 2*ttl)

	return func(ctx context.Context, text string) ([]float32, error) {
		key := embedKey(text)
		if v, found := cache.Get(key); found {
			return v.([]float32), nil
		}
		vec, err := fn(ctx, text)
		if err != nil {
			return nil, err
		}
		cache.Set(key, vec, ttl)
		return vec, nil
	}
}

func embedKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
