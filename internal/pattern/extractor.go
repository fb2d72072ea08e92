// Package pattern is the deterministic rule-based extractor. Identical chunk
// text always yields identical candidates, which makes the pattern path the
// reproducible regression baseline independent of the LLM path.
package pattern

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/claimsift/claimsift/internal/model"
)

// Extractor applies an ordered rule list over chunk text.
type Extractor struct {
	rules []Rule
}

// New creates an extractor with the default rule set.
func New() *Extractor {
	return &Extractor{rules: DefaultRules()}
}

// NewWithRules creates an extractor with a custom ordered rule list.
func NewWithRules(rules []Rule) *Extractor {
	return &Extractor{rules: rules}
}

// Extract emits candidate claims for every rule match in the chunk. The
// quote is always an exact substring of the chunk, capped at MaxQuoteLen,
// with document-absolute offsets attached.
func (e *Extractor) Extract(chunk model.Chunk) ([]model.Claim, []model.ExtractionRecord) {
	var claims []model.Claim
	var records []model.ExtractionRecord

	for _, rule := range e.rules {
		for _, loc := range rule.Re.FindAllStringSubmatchIndex(chunk.Text, -1) {
			ws, we := sentenceWindow(chunk.Text, loc[0], loc[1])
			quote := chunk.Text[ws:we]
			lower := strings.ToLower(quote)

			claim := model.Claim{
				ID:           model.HashID(chunk.DocID, strconv.Itoa(chunk.Seq), rule.Name, strconv.Itoa(loc[0])),
				DocID:        chunk.DocID,
				Domain:       classifyDomain(lower),
				ClaimType:    rule.ClaimType,
				Evidence:     classifyEvidence(lower),
				Quant:        rule.Quant,
				ClinicalArea: classifyClinicalArea(lower),
				Quote:        quote,
				ChunkSeq:     chunk.Seq,
				QuoteStart:   chunk.Start + ws,
				QuoteEnd:     chunk.Start + we,
				Confidence:   confidence(lower),
				Status:       model.StatusPending,
				Origin:       model.OriginPattern,
			}

			if name, owner := namedMeasure(quote); name != "" {
				claim.MetricName = name
				claim.MetricOwner = owner
			}
			if rule.ValueGroup > 0 && loc[2*rule.ValueGroup] >= 0 {
				raw := chunk.Text[loc[2*rule.ValueGroup]:loc[2*rule.ValueGroup+1]]
				if v, err := strconv.ParseFloat(raw, 64); err == nil {
					claim.Value = &v
				}
			}

			claims = append(claims, claim)
			records = append(records, model.ExtractionRecord{
				ID:        model.HashID(claim.ID, "rec"),
				DocID:     chunk.DocID,
				ClaimID:   claim.ID,
				Origin:    model.OriginPattern,
				Query:     "rule:" + rule.Name,
				ChunkSeqs: []int{chunk.Seq},
			})
		}
	}

	return claims, records
}

// ExtractPartnerships emits partnerships for explicit partner attributions.
// A partnership is recorded only when the sentence window also contains an
// outcome cue; partners mentioned without attributed outcomes are skipped.
func (e *Extractor) ExtractPartnerships(chunk model.Chunk, claims []model.Claim) []model.Partnership {
	var out []model.Partnership

	for _, re := range partnershipRules {
		for _, loc := range re.FindAllStringSubmatchIndex(chunk.Text, -1) {
			ws, we := sentenceWindow(chunk.Text, loc[0], loc[1])
			outcome := chunk.Text[ws:we]
			if !containsAny(strings.ToLower(outcome), outcomeCues) {
				continue
			}

			name := strings.TrimSpace(chunk.Text[loc[2]:loc[3]])
			if len(name) < 5 {
				continue
			}

			p := model.Partnership{
				ID:           model.HashID(chunk.DocID, strconv.Itoa(chunk.Seq), "partner", strconv.Itoa(loc[0])),
				DocID:        chunk.DocID,
				PartnerType:  classifyPartner(strings.ToLower(name)),
				PartnerName:  name,
				OutcomeQuote: outcome,
				ChunkSeq:     chunk.Seq,
			}
			// Attach to a co-located claim when one overlaps the window.
			absStart, absEnd := chunk.Start+ws, chunk.Start+we
			for _, c := range claims {
				if c.QuoteStart < absEnd && c.QuoteEnd > absStart {
					p.ClaimID = c.ID
					break
				}
			}
			out = append(out, p)
		}
	}
	return out
}

// sentenceWindow expands a match to its containing sentence, capped at
// MaxQuoteLen with the match kept inside the window.
func sentenceWindow(text string, start, end int) (int, int) {
	ws := start
	for ws > 0 && !isSentenceBreak(text[ws-1]) {
		ws--
	}
	we := end
	for we < len(text) && !isSentenceBreak(text[we]) {
		we++
	}
	if we < len(text) {
		we++ // include the terminator
	}

	// Trim to the quote budget without losing the match itself. The budget
	// is counted in bytes, which stays within the character cap; the cut
	// points are then moved off any multi-byte rune they landed inside.
	if we-ws > model.MaxQuoteLen {
		excess := we - ws - model.MaxQuoteLen
		before := start - ws
		if trim := min(before, excess); trim > 0 {
			ws += trim
			excess -= trim
		}
		if excess > 0 {
			we -= excess
		}
	}
	for ws < we && !utf8.RuneStart(text[ws]) {
		ws++
	}
	for we > ws && we < len(text) && !utf8.RuneStart(text[we]) {
		we--
	}

	for ws < we && (text[ws] == ' ' || text[ws] == '\n') {
		ws++
	}
	return ws, we
}

func isSentenceBreak(b byte) bool {
	return b == '.' || b == '!' || b == '?' || b == '\n'
}

func confidence(window string) model.Confidence {
	if containsDigit(window) && containsAny(window, metricKeywords) {
		return model.ConfidenceHigh
	}
	return model.ConfidenceMedium
}

func classifyDomain(window string) model.DomainCode {
	for _, dk := range domainKeywords {
		if strings.Contains(window, dk.cue) {
			return dk.domain
		}
	}
	return model.DomainQM
}

func classifyClinicalArea(window string) model.ClinicalArea {
	for _, ck := range clinicalKeywords {
		if strings.Contains(window, ck.cue) {
			return ck.area
		}
	}
	return model.AreaNone
}

func classifyEvidence(window string) model.EvidenceCode {
	switch {
	case strings.Contains(window, "peer-reviewed") || strings.Contains(window, "published stud"):
		return model.EvidencePeerReviewed
	case strings.Contains(window, "control group") || strings.Contains(window, "randomized"):
		return model.EvidenceControlGroup
	case strings.Contains(window, "baseline") || strings.Contains(window, "pre-post"):
		return model.EvidencePrePost
	case strings.Contains(window, "internal analysis") || strings.Contains(window, "our analysis"):
		return model.EvidenceInternal
	case strings.Contains(window, "independent") || strings.Contains(window, "external valid"):
		return model.EvidenceExternal
	default:
		return model.EvidenceNone
	}
}

func classifyPartner(name string) model.PartnerType {
	for _, pc := range partnerTypeCues {
		if strings.Contains(name, pc.cue) {
			return pc.typ
		}
	}
	return model.PartnerProvider
}

// namedMeasure extracts a measure steward and name from a quote containing a
// HEDIS/CAHPS/NQF/CMS reference.
func namedMeasure(quote string) (name, owner string) {
	switch {
	case strings.Contains(quote, "HEDIS"):
		return "HEDIS", "NCQA"
	case strings.Contains(quote, "CAHPS"):
		return "CAHPS", "NCQA"
	case strings.Contains(quote, "NQF"):
		return "NQF", "NQF"
	case strings.Contains(quote, "CMS"):
		return "CMS", "CMS"
	}
	return "", ""
}

func containsDigit(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			return true
		}
	}
	return false
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
