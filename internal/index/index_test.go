package index

import (
	"context"
	"math"
	"strings"
	"testing"

	"github.com/philippgille/chromem-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/claimsift/claimsift/internal/model"
)

// stubEmbedder maps text onto a tiny keyword space so retrieval behavior is
// exact and reproducible without a network dependency.
func stubEmbedder() chromem.EmbeddingFunc {
	terms := []string{"emergency", "screening", "workforce"}
	return func(ctx context.Context, text string) ([]float32, error) {
		lower := strings.ToLower(text)
		vec := make([]float32, len(terms)+1)
		vec[len(terms)] = 0.1 // keeps vectors non-zero and non-parallel
		for i, term := range terms {
			vec[i] = float32(strings.Count(lower, term))
		}
		var norm float64
		for _, v := range vec {
			norm += float64(v) * float64(v)
		}
		norm = math.Sqrt(norm)
		for i := range vec {
			vec[i] = float32(float64(vec[i]) / norm)
		}
		return vec, nil
	}
}

func testChunks() []model.Chunk {
	texts := map[string]string{
		"doc-1#0": "We reduced avoidable emergency department visits by 15% across the region.",
		"doc-1#1": "Breast cancer screening completion improved among eligible members.",
		"doc-1#2": "Our workforce development program trained 200 community health workers.",
		"doc-2#0": "The emergency department diversion program expanded to six counties.",
	}
	var chunks []model.Chunk
	pos := 0
	for _, id := range []string{"doc-1#0", "doc-1#1", "doc-1#2", "doc-2#0"} {
		parts := strings.SplitN(id, "#", 2)
		seq := int(parts[1][0] - '0')
		text := texts[id]
		chunks = append(chunks, model.Chunk{
			DocID: parts[0], Seq: seq, Start: pos, End: pos + len(text), Text: text,
		})
		pos += len(text)
	}
	return chunks
}

func buildIndex(t *testing.T) *Index {
	t.Helper()
	ix, err := New(stubEmbedder())
	require.NoError(t, err)
	require.NoError(t, ix.Add(context.Background(), testChunks()))
	return ix
}

func TestIndex_AddAndCount(t *testing.T) {
	ix := buildIndex(t)
	assert.Equal(t, 4, ix.Count())
}

func TestIndex_RetrieveRelevance(t *testing.T) {
	ix := buildIndex(t)

	hits, err := ix.Retrieve(context.Background(), "emergency department utilization", 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)

	for _, h := range hits {
		assert.Contains(t, strings.ToLower(h.Chunk.Text), "emergency",
			"expected emergency chunks to rank first")
	}
}

func TestIndex_RetrieveForDoc(t *testing.T) {
	ix := buildIndex(t)

	hits, err := ix.RetrieveForDoc(context.Background(), "doc-1", "emergency department utilization", 3)
	require.NoError(t, err)
	require.NotEmpty(t, hits)

	for _, h := range hits {
		assert.Equal(t, "doc-1", h.Chunk.DocID, "filter must exclude other documents")
	}
	assert.Equal(t, 0, hits[0].Chunk.Seq, "the emergency chunk should rank first")
}

func TestIndex_KClampedToDocument(t *testing.T) {
	ix := buildIndex(t)

	hits, err := ix.RetrieveForDoc(context.Background(), "doc-2", "emergency care", 10)
	require.NoError(t, err)
	assert.Len(t, hits, 1, "k larger than the document's chunk count must clamp, not fail")
}

func TestIndex_UnknownDocument(t *testing.T) {
	ix := buildIndex(t)

	hits, err := ix.RetrieveForDoc(context.Background(), "doc-404", "anything", 5)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestIndex_DeterministicOrder(t *testing.T) {
	ix, err := New(stubEmbedder())
	require.NoError(t, err)

	// Identical text yields identical similarity; order must fall back to
	// sequence index, not map iteration order.
	chunks := []model.Chunk{
		{DocID: "doc-1", Seq: 1, Start: 100, End: 130, Text: "screening rates improved again"},
		{DocID: "doc-1", Seq: 0, Start: 0, End: 30, Text: "screening rates improved again"},
	}
	require.NoError(t, ix.Add(context.Background(), chunks))

	for i := 0; i < 5; i++ {
		hits, err := ix.Retrieve(context.Background(), "screening rates", 2)
		require.NoError(t, err)
		require.Len(t, hits, 2)
		assert.Equal(t, 0, hits[0].Chunk.Seq, "run %d: tie must break by ascending seq", i)
		assert.Equal(t, 1, hits[1].Chunk.Seq)
	}
}

func TestCachedEmbedder_SingleCall(t *testing.T) {
	calls := 0
	base := func(ctx context.Context, text string) ([]float32, error) {
		calls++
		return []float32{1, 0}, nil
	}

	cached := NewCachedEmbedder(base, 0)
	for i := 0; i < 3; i++ {
		vec, err := cached(context.Background(), "same text")
		require.NoError(t, err)
		assert.Equal(t, []float32{1, 0}, vec)
	}
	assert.Equal(t, 1, calls, "identical text must be embedded once")

	_, err := cached(context.Background(), "different text")
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}
