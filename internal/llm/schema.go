package llm

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/claimsift/claimsift/internal/model"
)

// rawClaim is the wire shape the generation request is constrained to emit.
type rawClaim struct {
	VerbatimText  string   `json:"verbatim_text"`
	ChunkSeq      *int     `json:"chunk_seq"`
	DomainCode    string   `json:"domain_code"`
	ClinicalArea  string   `json:"clinical_area"`
	ClaimType     string   `json:"claim_type"`
	MetricName    string   `json:"metric_name"`
	MetricSteward string   `json:"metric_steward"`
	Value         *float64 `json:"value"`
	Quant         string   `json:"quantification"`
	Deadline      string   `json:"deadline"`
	EvidenceType  string   `json:"evidence_type"`
	Confidence    string   `json:"confidence"`
}

// rawPartnership is the wire shape for partnership probes.
type rawPartnership struct {
	PartnerName       string `json:"partner_name"`
	PartnerType       string `json:"partner_type"`
	OutcomeAttributed string `json:"outcome_attributed"`
	ChunkSeq          *int   `json:"chunk_seq"`
}

// extractJSONArray locates the JSON array in a model response, tolerating
// fenced code blocks and stray prose around the payload.
func extractJSONArray(response string) (string, error) {
	s := strings.TrimSpace(response)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if i := strings.LastIndex(s, "```"); i >= 0 {
			s = s[:i]
		}
		s = strings.TrimSpace(s)
	}
	start := strings.Index(s, "[")
	end := strings.LastIndex(s, "]")
	if start < 0 || end < start {
		return "", fmt.Errorf("no JSON array in response")
	}
	return s[start : end+1], nil
}

// ParseClaims decodes a claim-probe response. A malformed payload is a
// single schema violation covering the whole response.
func ParseClaims(docID, response string) ([]rawClaim, *model.SchemaViolation) {
	payload, err := extractJSONArray(response)
	if err != nil {
		return nil, &model.SchemaViolation{
			DocID: docID, Field: "response", Reason: err.Error(), Raw: truncate(response, 200),
		}
	}
	var raws []rawClaim
	if err := json.Unmarshal([]byte(payload), &raws); err != nil {
		return nil, &model.SchemaViolation{
			DocID: docID, Field: "response", Reason: "malformed JSON array: " + err.Error(), Raw: truncate(payload, 200),
		}
	}
	return raws, nil
}

// ParsePartnerships decodes a partnership-probe response.
func ParsePartnerships(docID, response string) ([]rawPartnership, *model.SchemaViolation) {
	payload, err := extractJSONArray(response)
	if err != nil {
		return nil, &model.SchemaViolation{
			DocID: docID, Field: "response", Reason: err.Error(), Raw: truncate(response, 200),
		}
	}
	var raws []rawPartnership
	if err := json.Unmarshal([]byte(payload), &raws); err != nil {
		return nil, &model.SchemaViolation{
			DocID: docID, Field: "response", Reason: "malformed JSON array: " + err.Error(), Raw: truncate(payload, 200),
		}
	}
	return raws, nil
}

// ValidateClaim checks a decoded object against the claim schema and builds
// the candidate. Any violation rejects the candidate outright; nothing is
// coerced.
func ValidateClaim(doc model.Document, theme model.Theme, raw rawClaim, retrievedSeqs map[int]bool) (model.Claim, *model.SchemaViolation) {
	reject := func(field, reason string) (model.Claim, *model.SchemaViolation) {
		return model.Claim{}, &model.SchemaViolation{
			DocID: doc.ID, Field: field, Reason: reason, Raw: truncate(raw.VerbatimText, 120),
		}
	}

	if strings.TrimSpace(raw.VerbatimText) == "" {
		return reject("verbatim_text", "missing required field")
	}
	if utf8.RuneCountInString(raw.VerbatimText) > model.MaxQuoteLen {
		return reject("verbatim_text", fmt.Sprintf("quote exceeds %d characters", model.MaxQuoteLen))
	}
	if raw.ChunkSeq == nil {
		return reject("chunk_seq", "missing required field")
	}
	if !retrievedSeqs[*raw.ChunkSeq] {
		return reject("chunk_seq", fmt.Sprintf("chunk %d was not in the retrieved context", *raw.ChunkSeq))
	}
	if !model.ValidDomain(model.DomainCode(raw.DomainCode)) {
		return reject("domain_code", "malformed code: "+raw.DomainCode)
	}
	if !model.ValidClaimType(model.ClaimType(raw.ClaimType)) {
		return reject("claim_type", "malformed code: "+raw.ClaimType)
	}
	if !model.ValidEvidence(model.EvidenceCode(raw.EvidenceType)) {
		return reject("evidence_type", "malformed code: "+raw.EvidenceType)
	}
	if !model.ValidClinicalArea(model.ClinicalArea(raw.ClinicalArea)) {
		return reject("clinical_area", "malformed code: "+raw.ClinicalArea)
	}
	if !model.ValidQuant(model.QuantCode(raw.Quant)) {
		return reject("quantification", "malformed code: "+raw.Quant)
	}
	conf := model.Confidence(raw.Confidence)
	if conf != model.ConfidenceHigh && conf != model.ConfidenceMedium && conf != model.ConfidenceLow {
		return reject("confidence", "malformed rating: "+raw.Confidence)
	}

	t := theme
	return model.Claim{
		ID:           model.HashID(doc.ID, theme.Key(), raw.ClaimType, fmt.Sprint(*raw.ChunkSeq), raw.VerbatimText),
		DocID:        doc.ID,
		Domain:       model.DomainCode(raw.DomainCode),
		ClaimType:    model.ClaimType(raw.ClaimType),
		Evidence:     model.EvidenceCode(raw.EvidenceType),
		Quant:        model.QuantCode(raw.Quant),
		ClinicalArea: model.ClinicalArea(raw.ClinicalArea),
		MetricName:   raw.MetricName,
		MetricOwner:  raw.MetricSteward,
		Value:        raw.Value,
		Quote:        raw.VerbatimText,
		ChunkSeq:     *raw.ChunkSeq,
		Deadline:     raw.Deadline,
		Confidence:   conf,
		Status:       model.StatusPending,
		Theme:        &t,
		Origin:       model.OriginLLM,
	}, nil
}

// ValidatePartnership checks a decoded partnership object. Partnerships
// without an explicitly attributed outcome are rejected: attribution in the
// source text is the existence condition for this entity.
func ValidatePartnership(doc model.Document, raw rawPartnership, retrievedSeqs map[int]bool) (model.Partnership, *model.SchemaViolation) {
	reject := func(field, reason string) (model.Partnership, *model.SchemaViolation) {
		return model.Partnership{}, &model.SchemaViolation{
			DocID: doc.ID, Field: field, Reason: reason, Raw: truncate(raw.PartnerName, 120),
		}
	}

	if strings.TrimSpace(raw.PartnerName) == "" {
		return reject("partner_name", "missing required field")
	}
	if strings.TrimSpace(raw.OutcomeAttributed) == "" {
		return reject("outcome_attributed", "no outcome explicitly attributed to partner")
	}
	if utf8.RuneCountInString(raw.OutcomeAttributed) > model.MaxQuoteLen {
		return reject("outcome_attributed", fmt.Sprintf("outcome exceeds %d characters", model.MaxQuoteLen))
	}
	if raw.ChunkSeq == nil {
		return reject("chunk_seq", "missing required field")
	}
	if !retrievedSeqs[*raw.ChunkSeq] {
		return reject("chunk_seq", fmt.Sprintf("chunk %d was not in the retrieved context", *raw.ChunkSeq))
	}
	if !model.ValidPartnerType(model.PartnerType(raw.PartnerType)) {
		return reject("partner_type", "malformed code: "+raw.PartnerType)
	}

	// The attribution text rides along verbatim; the verifier locates it in
	// the cited chunk before the partnership can be persisted.
	return model.Partnership{
		ID:           model.HashID(doc.ID, "partner", fmt.Sprint(*raw.ChunkSeq), raw.PartnerName),
		DocID:        doc.ID,
		PartnerType:  model.PartnerType(raw.PartnerType),
		PartnerName:  strings.TrimSpace(raw.PartnerName),
		OutcomeQuote: strings.TrimSpace(raw.OutcomeAttributed),
		ChunkSeq:     *raw.ChunkSeq,
	}, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
