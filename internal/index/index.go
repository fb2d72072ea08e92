// Package index embeds chunks into a vector collection and retrieves the
// most relevant chunks for an extraction probe. Retrieval is stateless per
// query and deterministic for identical inputs.
package index

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"strconv"
	"sync"

	"github.com/philippgille/chromem-go"

	"github.com/claimsift/claimsift/internal/model"
)

// Index is a searchable structure over chunk embeddings. Built once per run;
// read concurrently by all retrieval calls, never mutated during the query
// phase.
type Index struct {
	coll *chromem.Collection

	mu     sync.RWMutex
	chunks map[string]model.Chunk // chunk ID -> chunk
}

// Hit is one retrieved chunk with its similarity to the probe.
type Hit struct {
	Chunk      model.Chunk
	Similarity float32
}

// New creates an empty in-memory index using the given embedding function.
func New(embed chromem.EmbeddingFunc) (*Index, error) {
	db := chromem.NewDB()
	coll, err := db.GetOrCreateCollection("chunks", nil, embed)
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}
	return &Index{coll: coll, chunks: make(map[string]model.Chunk)}, nil
}

// Add embeds and stores chunks. Call before the query phase begins.
func (ix *Index) Add(ctx context.Context, chunks []model.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	docs := make([]chromem.Document, 0, len(chunks))
	for _, ch := range chunks {
		docs = append(docs, chromem.Document{
			ID:      ch.ID(),
			Content: ch.Text,
			Metadata: map[string]string{
				"doc_id": ch.DocID,
				"seq":    strconv.Itoa(ch.Seq),
			},
		})
	}
	if err := ix.coll.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("add documents: %w", err)
	}

	ix.mu.Lock()
	for _, ch := range chunks {
		ix.chunks[ch.ID()] = ch
	}
	ix.mu.Unlock()
	return nil
}

// Count returns the number of indexed chunks.
func (ix *Index) Count() int {
	return ix.coll.Count()
}

// Retrieve returns the k chunks most similar to the query. Ties are broken
// by ascending chunk sequence index, then document ID, so identical inputs
// always produce identical results.
func (ix *Index) Retrieve(ctx context.Context, query string, k int) ([]Hit, error) {
	if k <= 0 {
		k = 5
	}
	if n := ix.coll.Count(); k > n {
		k = n
	}
	if k == 0 {
		return nil, nil
	}

	results, err := ix.coll.Query(ctx, query, k, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("query collection: %w", err)
	}

	ix.mu.RLock()
	hits := make([]Hit, 0, len(results))
	for _, r := range results {
		ch, ok := ix.chunks[r.ID]
		if !ok {
			continue
		}
		hits = append(hits, Hit{Chunk: ch, Similarity: r.Similarity})
	}
	ix.mu.RUnlock()

	sort.SliceStable(hits, func(i, j int) bool {
		a, b := hits[i], hits[j]
		if a.Similarity != b.Similarity {
			return a.Similarity > b.Similarity
		}
		if a.Chunk.Seq != b.Chunk.Seq {
			return a.Chunk.Seq < b.Chunk.Seq
		}
		return a.Chunk.DocID < b.Chunk.DocID
	})
	return hits, nil
}

// RetrieveForDoc retrieves top-k chunks restricted to a single document.
func (ix *Index) RetrieveForDoc(ctx context.Context, docID, query string, k int) ([]Hit, error) {
	if k <= 0 {
		k = 5
	}
	n := ix.docCount(docID)
	if k > n {
		k = n
	}
	if k == 0 {
		return nil, nil
	}

	results, err := ix.coll.Query(ctx, query, k, map[string]string{"doc_id": docID}, nil)
	if err != nil {
		return nil, fmt.Errorf("query collection: %w", err)
	}

	ix.mu.RLock()
	hits := make([]Hit, 0, len(results))
	for _, r := range results {
		if ch, ok := ix.chunks[r.ID]; ok {
			hits = append(hits, Hit{Chunk: ch, Similarity: r.Similarity})
		}
	}
	ix.mu.RUnlock()

	sort.SliceStable(hits, func(i, j int) bool {
		a, b := hits[i], hits[j]
		if a.Similarity != b.Similarity {
			return a.Similarity > b.Similarity
		}
		return a.Chunk.Seq < b.Chunk.Seq
	})
	return hits, nil
}

func (ix *Index) docCount(docID string) int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	n := 0
	for _, ch := range ix.chunks {
		if ch.DocID == docID {
			n++
		}
	}
	return n
}
