package verify

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/claimsift/claimsift/internal/model"
)

func testChunk(text string) model.Chunk {
	return model.Chunk{DocID: "doc-1", Seq: 2, Start: 1000, End: 1000 + len(text), Text: text}
}

func testClaim(quote string) model.Claim {
	return model.Claim{
		ID:       "claim-1",
		DocID:    "doc-1",
		ChunkSeq: 2,
		Quote:    quote,
		Status:   model.StatusPending,
	}
}

func TestVerify_ExactSubstring(t *testing.T) {
	v := New(model.VerifyConfig{})
	chunk := testChunk("The plan achieved a 15% reduction in avoidable ED visits by 2023.")

	out := v.Verify(testClaim("a 15% reduction in avoidable ED visits"), chunk)
	require.True(t, out.Verified)
	assert.Equal(t, model.StatusVerified, out.Claim.Status)

	// Offsets are document-absolute: chunk start plus in-chunk position.
	start := out.Claim.QuoteStart - chunk.Start
	end := out.Claim.QuoteEnd - chunk.Start
	assert.Equal(t, "a 15% reduction in avoidable ED visits", chunk.Text[start:end])
}

func TestVerify_WhitespaceWrap(t *testing.T) {
	v := New(model.VerifyConfig{})
	chunk := testChunk("The plan achieved a 15%\n  reduction in avoidable\nED visits by 2023.")

	// The quote uses single spaces where the source wraps lines.
	out := v.Verify(testClaim("a 15% reduction in avoidable ED visits"), chunk)
	require.True(t, out.Verified, "line wraps must not fail verification: %s", out.Reason)

	located := chunk.Text[out.Claim.QuoteStart-chunk.Start : out.Claim.QuoteEnd-chunk.Start]
	norm := func(s string) string { return strings.Join(strings.Fields(s), " ") }
	assert.Equal(t, norm("a 15% reduction in avoidable ED visits"), norm(located))
}

func TestVerify_ParaphraseRejected(t *testing.T) {
	v := New(model.VerifyConfig{})
	chunk := testChunk("The plan achieved a 15% reduction in avoidable ED visits by 2023.")

	// Same meaning, different words: must not verify.
	out := v.Verify(testClaim("emergency visits fell fifteen percent"), chunk)
	require.False(t, out.Verified)
	assert.Equal(t, model.StatusUnverified, out.Claim.Status)
	assert.Contains(t, out.Reason, "not found")
	// The rejected claim keeps its quote for the audit trail.
	assert.Equal(t, "emergency visits fell fifteen percent", out.Claim.Quote)
}

func TestVerify_WrongChunk(t *testing.T) {
	v := New(model.VerifyConfig{})
	chunk := testChunk("some text")

	claim := testClaim("some text")
	claim.ChunkSeq = 7
	out := v.Verify(claim, chunk)
	require.False(t, out.Verified)
	assert.Contains(t, out.Reason, "different chunk")
}

func TestVerify_EmptyQuote(t *testing.T) {
	v := New(model.VerifyConfig{})
	out := v.Verify(testClaim(""), testChunk("anything"))
	assert.False(t, out.Verified)
}

func testPartnership(name, outcome string) model.Partnership {
	return model.Partnership{
		ID:           "p-1",
		DocID:        "doc-1",
		ChunkSeq:     2,
		PartnerType:  model.PartnerCBO,
		PartnerName:  name,
		OutcomeQuote: outcome,
	}
}

func TestVerifyPartnership_Verified(t *testing.T) {
	v := New(model.VerifyConfig{})
	chunk := testChunk("Through our partnership with Central Ohio Food Bank we reduced missed appointments by 9%.")

	out := v.VerifyPartnership(testPartnership("Central Ohio Food Bank", "we reduced missed appointments by 9%"), chunk)
	require.True(t, out.Verified, out.Reason)
	assert.Equal(t, "Central Ohio Food Bank", out.Partnership.PartnerName)
}

func TestVerifyPartnership_FabricatedOutcome(t *testing.T) {
	v := New(model.VerifyConfig{})
	chunk := testChunk("Through our partnership with Central Ohio Food Bank we reduced missed appointments by 9%.")

	// Attribution text that is not in the source must never be persisted.
	out := v.VerifyPartnership(testPartnership("Central Ohio Food Bank", "eliminated food insecurity countywide"), chunk)
	require.False(t, out.Verified)
	assert.Contains(t, out.Reason, "attributed outcome not found")
}

func TestVerifyPartnership_UnknownPartner(t *testing.T) {
	v := New(model.VerifyConfig{})
	chunk := testChunk("Through our partnership with Central Ohio Food Bank we reduced missed appointments by 9%.")

	out := v.VerifyPartnership(testPartnership("Fabricated Org", "we reduced missed appointments by 9%"), chunk)
	require.False(t, out.Verified)
	assert.Contains(t, out.Reason, "partner name not found")
}

func TestVerifyPartnership_WrongChunk(t *testing.T) {
	v := New(model.VerifyConfig{})
	chunk := testChunk("unrelated text")

	p := testPartnership("Central Ohio Food Bank", "we reduced missed appointments by 9%")
	p.ChunkSeq = 7
	out := v.VerifyPartnership(p, chunk)
	require.False(t, out.Verified)
	assert.Contains(t, out.Reason, "different chunk")
}

func TestVerify_SamplingDeterministic(t *testing.T) {
	v := New(model.VerifyConfig{SampleFraction: 0.5})
	chunk := testChunk("rates improved across regions")

	ids := make([]string, 40)
	for i := range ids {
		ids[i] = fmt.Sprintf("claim-%d", i)
	}

	first := make(map[string]bool)
	sampledCount := 0
	for _, id := range ids {
		claim := testClaim("rates improved")
		claim.ID = id
		out := v.Verify(claim, chunk)
		require.True(t, out.Verified)
		first[id] = out.NeedsReview
		if out.NeedsReview {
			sampledCount++
		}
	}

	// Re-running yields the identical sample.
	for id, want := range first {
		claim := testClaim("rates improved")
		claim.ID = id
		out := v.Verify(claim, chunk)
		assert.Equal(t, want, out.NeedsReview, "sample flipped for %s", id)
	}

	assert.Greater(t, sampledCount, 0, "a 50% fraction over 40 claims should sample at least one")
	assert.Less(t, sampledCount, 40, "a 50% fraction should not sample everything")
}

func TestVerify_ZeroSampleFraction(t *testing.T) {
	v := New(model.VerifyConfig{SampleFraction: 0})
	out := v.Verify(testClaim("rates improved"), testChunk("rates improved across regions"))
	require.True(t, out.Verified)
	assert.False(t, out.NeedsReview)
}

func TestNormalize_Offsets(t *testing.T) {
	text := "  alpha \n\n beta\tgamma "
	norm, offsets := normalize(text)
	require.Equal(t, "alpha beta gamma", norm)
	require.Len(t, offsets, len(norm))

	// Every non-space normalized byte maps back to the identical original byte.
	for i := 0; i < len(norm); i++ {
		if norm[i] == ' ' {
			continue
		}
		assert.Equal(t, norm[i], text[offsets[i]], "offset map broken at %d", i)
	}
}
