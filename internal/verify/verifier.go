// Package verify confirms that every claim's verbatim quote is locatable in
// its declared source chunk. Unverifiable claims never reach the canonical
// dataset; they are retained in the audit log with the reason.
package verify

import (
	"hash/fnv"
	"strings"

	"github.com/claimsift/claimsift/internal/model"
)

// Verifier locates quotes in source chunks after whitespace normalization.
// Normalization covers line wraps and spacing only, never paraphrase.
type Verifier struct {
	sampleFraction float64
}

// Outcome is the verification result for one claim. The claim inside is a
// copy: verification marks status and offsets but never rewrites content.
type Outcome struct {
	Claim       model.Claim
	Verified    bool
	Reason      string // populated when unverified
	NeedsReview bool   // sampled for manual adjudication
}

// New creates a verifier. sampleFraction is the share of verified claims
// additionally queued for human review; automated verification only reduces
// the review volume, it never substitutes for the sample.
func New(cfg model.VerifyConfig) *Verifier {
	f := cfg.SampleFraction
	if f < 0 {
		f = 0
	}
	if f > 1 {
		f = 1
	}
	return &Verifier{sampleFraction: f}
}

// Verify attempts to locate the claim's quote as an exact substring of the
// chunk text modulo whitespace. On success the claim is marked VERIFIED with
// document-absolute offsets; on failure it is marked UNVERIFIED.
func (v *Verifier) Verify(claim model.Claim, chunk model.Chunk) Outcome {
	if claim.ChunkSeq != chunk.Seq || claim.DocID != chunk.DocID {
		claim.Status = model.StatusUnverified
		return Outcome{Claim: claim, Verified: false, Reason: "claim cites a different chunk"}
	}

	start, end, found := locate(chunk.Text, claim.Quote)
	if !found {
		claim.Status = model.StatusUnverified
		return Outcome{Claim: claim, Verified: false, Reason: "quote not found in source chunk"}
	}

	claim.Status = model.StatusVerified
	claim.QuoteStart = chunk.Start + start
	claim.QuoteEnd = chunk.Start + end
	return Outcome{
		Claim:       claim,
		Verified:    true,
		NeedsReview: v.sampled(claim.ID),
	}
}

// PartnershipOutcome is the verification result for one partnership.
type PartnershipOutcome struct {
	Partnership model.Partnership
	Verified    bool
	Reason      string // populated when unverified
}

// VerifyPartnership holds a partnership to the same textual standard as a
// claim: the partner name and the attributed outcome must both be locatable
// in the cited chunk. Attribution in the source text is the existence
// condition for this entity; a partnership that fails is audit-only.
func (v *Verifier) VerifyPartnership(p model.Partnership, chunk model.Chunk) PartnershipOutcome {
	if p.ChunkSeq != chunk.Seq || p.DocID != chunk.DocID {
		return PartnershipOutcome{Partnership: p, Reason: "partnership cites a different chunk"}
	}
	if _, _, found := locate(chunk.Text, p.PartnerName); !found {
		return PartnershipOutcome{Partnership: p, Reason: "partner name not found in source chunk"}
	}
	if _, _, found := locate(chunk.Text, p.OutcomeQuote); !found {
		return PartnershipOutcome{Partnership: p, Reason: "attributed outcome not found in source chunk"}
	}
	return PartnershipOutcome{Partnership: p, Verified: true}
}

// sampled deterministically selects claims for manual review so the sample
// is reproducible across runs.
func (v *Verifier) sampled(claimID string) bool {
	if v.sampleFraction <= 0 {
		return false
	}
	h := fnv.New32a()
	h.Write([]byte(claimID))
	return float64(h.Sum32()%10000) < v.sampleFraction*10000
}

// locate finds the quote in text, first as a direct substring, then under
// whitespace normalization, mapping the normalized match back to original
// byte offsets.
func locate(text, quote string) (start, end int, found bool) {
	if quote == "" {
		return 0, 0, false
	}
	if i := strings.Index(text, quote); i >= 0 {
		return i, i + len(quote), true
	}

	normText, offsets := normalize(text)
	normQuote, _ := normalize(quote)
	if normQuote == "" {
		return 0, 0, false
	}
	i := strings.Index(normText, normQuote)
	if i < 0 {
		return 0, 0, false
	}
	start = offsets[i]
	last := i + len(normQuote) - 1
	end = offsets[last] + 1
	return start, end, true
}

// normalize collapses whitespace runs (including line wraps) to single
// spaces and trims the edges. offsets[i] is the original byte position of
// normalized byte i.
func normalize(s string) (string, []int) {
	var b strings.Builder
	offsets := make([]int, 0, len(s))
	pendingSpace := false

	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == ' ' || c == '\t' || c == '\n' || c == '\r' {
			if b.Len() > 0 {
				pendingSpace = true
			}
			continue
		}
		if pendingSpace {
			b.WriteByte(' ')
			offsets = append(offsets, i-1)
			pendingSpace = false
		}
		b.WriteByte(c)
		offsets = append(offsets, i)
	}
	return b.String(), offsets
}
