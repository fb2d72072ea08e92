// Package dedupe merges pattern- and LLM-sourced candidates that refer to
// the same underlying statement and builds read-only aggregate views over
// the canonical claim set.
package dedupe

import (
	"fmt"
	"sort"

	"github.com/claimsift/claimsift/internal/model"
)

// Deduper groups candidates whose quoted spans overlap substantially within
// the same document.
type Deduper struct {
	threshold float64
}

// Conflict records a coding disagreement between merged candidates. The
// resolution rule is applied; the disagreement is logged, never silent.
type Conflict struct {
	WinnerID string
	LoserID  string
	Detail   string
}

// New creates a deduper. threshold is the minimum character-overlap ratio
// (overlap length over the shorter span) for two quotes to merge.
func New(cfg model.DedupeConfig) *Deduper {
	t := cfg.OverlapThreshold
	if t <= 0 || t > 1 {
		t = 0.5
	}
	return &Deduper{threshold: t}
}

// Dedupe merges candidates into the canonical set. Candidates must already
// be verified: unverifiable claims are excluded upstream. The operation is
// idempotent — running it again over its own output yields the same set.
// The returned mapping resolves every candidate ID to its canonical claim ID,
// so references held by other records (partnerships) survive the merge.
func (d *Deduper) Dedupe(candidates []model.Claim) ([]model.Claim, []Conflict, map[string]string) {
	if len(candidates) == 0 {
		return nil, nil, nil
	}

	sorted := make([]model.Claim, len(candidates))
	copy(sorted, candidates)
	sort.Slice(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.DocID != b.DocID {
			return a.DocID < b.DocID
		}
		if a.QuoteStart != b.QuoteStart {
			return a.QuoteStart < b.QuoteStart
		}
		if a.QuoteEnd != b.QuoteEnd {
			return a.QuoteEnd < b.QuoteEnd
		}
		return a.ID < b.ID
	})

	var canonical []model.Claim
	var conflicts []Conflict
	mapping := make(map[string]string, len(sorted))

	var cluster []model.Claim
	flush := func() {
		if len(cluster) == 0 {
			return
		}
		merged, cs := d.merge(cluster)
		canonical = append(canonical, merged)
		conflicts = append(conflicts, cs...)
		for _, m := range cluster {
			mapping[m.ID] = merged.ID
		}
		cluster = nil
	}

	for _, c := range sorted {
		if len(cluster) == 0 {
			cluster = append(cluster, c)
			continue
		}
		if d.joins(cluster, c) {
			cluster = append(cluster, c)
			continue
		}
		flush()
		cluster = append(cluster, c)
	}
	flush()

	return canonical, conflicts, mapping
}

// joins reports whether the candidate overlaps any cluster member enough to
// refer to the same statement.
func (d *Deduper) joins(cluster []model.Claim, c model.Claim) bool {
	for _, m := range cluster {
		if m.DocID != c.DocID {
			return false
		}
		if overlapRatio(m, c) >= d.threshold {
			return true
		}
	}
	return false
}

func overlapRatio(a, b model.Claim) float64 {
	lo := max(a.QuoteStart, b.QuoteStart)
	hi := min(a.QuoteEnd, b.QuoteEnd)
	if hi <= lo {
		return 0
	}
	shorter := min(a.QuoteEnd-a.QuoteStart, b.QuoteEnd-b.QuoteStart)
	if shorter <= 0 {
		return 0
	}
	return float64(hi-lo) / float64(shorter)
}

// merge resolves one cluster to a canonical claim. The LLM-derived candidate
// wins only if verified; otherwise the pattern candidate is kept. Coding
// disagreements between winner and losers are logged.
func (d *Deduper) merge(cluster []model.Claim) (model.Claim, []Conflict) {
	winner := cluster[0]
	for _, c := range cluster[1:] {
		if prefer(c, winner) {
			winner = c
		}
	}

	// Canonical identifier derives from content, which keeps repeated runs
	// and re-deduplication stable.
	winnerID := winner.ID
	winner.ID = CanonicalID(winner)

	var conflicts []Conflict
	for _, c := range cluster {
		if c.ID == winnerID {
			continue
		}
		if c.Domain != winner.Domain || c.ClaimType != winner.ClaimType {
			conflicts = append(conflicts, Conflict{
				WinnerID: winner.ID,
				LoserID:  c.ID,
				Detail: fmt.Sprintf("coding disagreement: kept %s/%s from %s, dropped %s/%s from %s",
					winner.Domain, winner.ClaimType, winner.Origin, c.Domain, c.ClaimType, c.Origin),
			})
		}
	}

	return winner, conflicts
}

// prefer reports whether a should win over b.
func prefer(a, b model.Claim) bool {
	av, bv := a.Origin == model.OriginLLM && a.Status == model.StatusVerified,
		b.Origin == model.OriginLLM && b.Status == model.StatusVerified
	if av != bv {
		return av
	}
	if a.Confidence != b.Confidence {
		return confidenceRank(a.Confidence) > confidenceRank(b.Confidence)
	}
	if a.QuoteStart != b.QuoteStart {
		return a.QuoteStart < b.QuoteStart
	}
	return a.ID < b.ID
}

func confidenceRank(c model.Confidence) int {
	switch c {
	case model.ConfidenceHigh:
		return 3
	case model.ConfidenceMedium:
		return 2
	case model.ConfidenceLow:
		return 1
	default:
		return 0
	}
}

// CanonicalID derives the stable identifier of a canonical claim from its
// content.
func CanonicalID(c model.Claim) string {
	return model.HashID(c.DocID,
		fmt.Sprint(c.QuoteStart), fmt.Sprint(c.QuoteEnd),
		string(c.Domain), string(c.ClaimType))
}
