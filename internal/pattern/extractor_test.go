package pattern

import (
	"reflect"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/claimsift/claimsift/internal/model"
)

func chunkOf(text string) model.Chunk {
	return model.Chunk{DocID: "doc-1", Seq: 0, Start: 0, End: len(text), Text: text}
}

func TestExtractor_EDVisitReduction(t *testing.T) {
	e := New()
	text := "In our previous contract we achieved a 15% reduction in avoidable ED visits by 2023. Members reported higher satisfaction."

	claims, records := e.Extract(chunkOf(text))
	if len(claims) == 0 {
		t.Fatal("expected at least one claim")
	}

	var found *model.Claim
	for i := range claims {
		if strings.Contains(claims[i].Quote, "15%") {
			found = &claims[i]
			break
		}
	}
	if found == nil {
		t.Fatal("expected a claim quoting the 15% reduction")
	}

	if found.ClaimType != model.ClaimHistorical {
		t.Errorf("expected claim type %s, got %s", model.ClaimHistorical, found.ClaimType)
	}
	if found.Quant != model.QuantPercent {
		t.Errorf("expected quantification %s, got %s", model.QuantPercent, found.Quant)
	}
	if found.Domain != model.DomainAC {
		t.Errorf("expected domain %s, got %s", model.DomainAC, found.Domain)
	}
	if found.ClinicalArea != model.AreaHospital {
		t.Errorf("expected clinical area %s, got %s", model.AreaHospital, found.ClinicalArea)
	}
	if found.Confidence != model.ConfidenceHigh {
		t.Errorf("number plus metric keyword should be HIGH confidence, got %s", found.Confidence)
	}
	if found.Value == nil || *found.Value != 15 {
		t.Errorf("expected numeric value 15, got %v", found.Value)
	}

	// Quote must be an exact substring of the chunk with exact offsets.
	if !strings.Contains(text, found.Quote) {
		t.Error("quote is not a substring of the chunk")
	}
	if text[found.QuoteStart:found.QuoteEnd] != found.Quote {
		t.Errorf("offsets [%d,%d) do not locate the quote", found.QuoteStart, found.QuoteEnd)
	}
	if len(found.Quote) > model.MaxQuoteLen {
		t.Errorf("quote exceeds %d bytes: %d", model.MaxQuoteLen, len(found.Quote))
	}

	if len(records) != len(claims) {
		t.Errorf("expected one extraction record per claim, got %d for %d claims", len(records), len(claims))
	}
	for _, r := range records {
		if r.Origin != model.OriginPattern {
			t.Errorf("expected pattern origin, got %s", r.Origin)
		}
	}
}

func TestExtractor_Deterministic(t *testing.T) {
	e := New()
	ch := chunkOf("We improved HEDIS breast cancer screening rates by 4.2 percentage points. Our goal is to sustain a target of 90% next year.")

	first, _ := e.Extract(ch)
	second, _ := e.Extract(ch)

	if len(first) != len(second) {
		t.Fatalf("run lengths differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if !reflect.DeepEqual(first[i], second[i]) {
			t.Errorf("claim %d differs between identical runs:\n%+v\n%+v", i, first[i], second[i])
		}
	}
	if len(first) > 0 && first[0].ID == "" {
		t.Error("claim IDs must be populated")
	}
}

func TestExtractor_PercentagePoints(t *testing.T) {
	e := New()
	claims, _ := e.Extract(chunkOf("Postpartum follow-up visits increased by 6 percentage points since 2021."))

	var found bool
	for _, c := range claims {
		if c.Quant == model.QuantPoints {
			found = true
			if c.Value == nil || *c.Value != 6 {
				t.Errorf("expected value 6, got %v", c.Value)
			}
			if c.ClinicalArea != model.AreaMaternity {
				t.Errorf("expected maternity area, got %s", c.ClinicalArea)
			}
		}
	}
	if !found {
		t.Error("expected a percentage-point claim")
	}
}

func TestExtractor_NamedMeasure(t *testing.T) {
	e := New()
	claims, _ := e.Extract(chunkOf("Our rates for HEDIS W30 exceeded the national benchmark."))

	var found bool
	for _, c := range claims {
		if c.ClaimType == model.ClaimMethodology {
			found = true
			if c.MetricName != "HEDIS" || c.MetricOwner != "NCQA" {
				t.Errorf("expected HEDIS/NCQA steward, got %s/%s", c.MetricName, c.MetricOwner)
			}
		}
	}
	if !found {
		t.Error("expected a methodology claim for the named measure")
	}
}

func TestExtractor_Commitment(t *testing.T) {
	e := New()
	claims, _ := e.Extract(chunkOf("We will expand behavioral health access to all rural counties during the first contract year."))

	var found bool
	for _, c := range claims {
		if c.ClaimType == model.ClaimProjected {
			found = true
			if c.ClinicalArea != model.AreaBehavioral {
				t.Errorf("expected behavioral area, got %s", c.ClinicalArea)
			}
		}
	}
	if !found {
		t.Error("expected a projected claim for the commitment")
	}
}

func TestExtractor_Partnerships(t *testing.T) {
	e := New()
	text := "Through our partnership with Central Ohio Food Bank we reduced missed appointments by 9%."
	ch := chunkOf(text)

	claims, _ := e.Extract(ch)
	partnerships := e.ExtractPartnerships(ch, claims)
	if len(partnerships) != 1 {
		t.Fatalf("expected 1 partnership, got %d", len(partnerships))
	}

	p := partnerships[0]
	if p.PartnerName != "Central Ohio Food Bank" {
		t.Errorf("unexpected partner name %q", p.PartnerName)
	}
	if p.PartnerType != model.PartnerCBO {
		t.Errorf("expected CBO partner type, got %s", p.PartnerType)
	}
	if p.ClaimID == "" {
		t.Error("expected partnership attached to the co-located claim")
	}
	// The attribution text must be verbatim source text so the verifier can
	// locate it in the cited chunk.
	if p.ChunkSeq != ch.Seq {
		t.Errorf("expected chunk seq %d, got %d", ch.Seq, p.ChunkSeq)
	}
	if !strings.Contains(text, p.OutcomeQuote) {
		t.Errorf("attribution text is not a substring of the chunk: %q", p.OutcomeQuote)
	}
	if !strings.Contains(p.OutcomeQuote, "reduced missed appointments") {
		t.Errorf("attribution text does not carry the outcome: %q", p.OutcomeQuote)
	}
}

func TestExtractor_PartnershipRequiresOutcome(t *testing.T) {
	e := New()
	ch := chunkOf("We maintain a partnership with Central Ohio Food Bank for member events.")

	partnerships := e.ExtractPartnerships(ch, nil)
	if len(partnerships) != 0 {
		t.Errorf("partnership without an attributed outcome must be skipped, got %d", len(partnerships))
	}
}

func TestExtractor_NoMatches(t *testing.T) {
	e := New()
	claims, records := e.Extract(chunkOf("This section describes the submission format and page limits."))
	if len(claims) != 0 || len(records) != 0 {
		t.Errorf("expected no candidates for administrative text, got %d claims", len(claims))
	}
}

func TestExtractor_MultibyteQuoteTrim(t *testing.T) {
	e := New()
	// One long sentence where the budget trim lands inside two-byte runes.
	text := strings.Repeat("é", 200) + " screening improved by 12% since the baseline."
	claims, _ := e.Extract(chunkOf(text))
	if len(claims) == 0 {
		t.Fatal("expected a claim")
	}

	for _, c := range claims {
		if !utf8.ValidString(c.Quote) {
			t.Errorf("quote is not valid UTF-8: %q", c.Quote)
		}
		if text[c.QuoteStart:c.QuoteEnd] != c.Quote {
			t.Errorf("offsets [%d,%d) do not locate the quote", c.QuoteStart, c.QuoteEnd)
		}
		if utf8.RuneCountInString(c.Quote) > model.MaxQuoteLen {
			t.Errorf("quote exceeds %d characters", model.MaxQuoteLen)
		}
	}
}

func TestExtractor_AbsoluteOffsets(t *testing.T) {
	e := New()
	docText := strings.Repeat("x", 100) + "Readmissions decreased by 7% this year."
	ch := model.Chunk{DocID: "doc-1", Seq: 3, Start: 100, End: len(docText), Text: docText[100:]}

	claims, _ := e.Extract(ch)
	if len(claims) == 0 {
		t.Fatal("expected a claim")
	}
	c := claims[0]
	if docText[c.QuoteStart:c.QuoteEnd] != c.Quote {
		t.Errorf("offsets must be document-absolute: [%d,%d)", c.QuoteStart, c.QuoteEnd)
	}
	if c.ChunkSeq != 3 {
		t.Errorf("expected chunk seq 3, got %d", c.ChunkSeq)
	}
}
