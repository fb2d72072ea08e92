package model

// Confidence is the extractor's rating of how unambiguous a claim is.
type Confidence string

const (
	ConfidenceHigh   Confidence = "HIGH"
	ConfidenceMedium Confidence = "MEDIUM"
	ConfidenceLow    Confidence = "LOW"
)

// VerificationStatus records the outcome of source verification.
type VerificationStatus string

const (
	StatusPending    VerificationStatus = "PENDING"    // not yet verified
	StatusVerified   VerificationStatus = "VERIFIED"   // quote located in source chunk
	StatusUnverified VerificationStatus = "UNVERIFIED" // quote not locatable, audit only
)

// Origin records which extractor produced a candidate.
type Origin string

const (
	OriginPattern Origin = "pattern"
	OriginLLM     Origin = "llm"
)

// MaxQuoteLen bounds the verbatim quote carried by a claim.
const MaxQuoteLen = 300

// Claim is a structured, source-grounded assertion extracted from a document.
// A claim is never edited after verification: a failed claim is discarded or
// flagged, not mutated into a valid one.
type Claim struct {
	ID           string             `json:"id"`
	DocID        string             `json:"doc_id"`
	Domain       DomainCode         `json:"domain_code"`
	ClaimType    ClaimType          `json:"claim_type"`
	Evidence     EvidenceCode       `json:"evidence_type"`
	Quant        QuantCode          `json:"quantification"`
	ClinicalArea ClinicalArea       `json:"clinical_area"`
	MetricName   string             `json:"metric_name,omitempty"`
	MetricOwner  string             `json:"metric_steward,omitempty"` // NCQA, CMS, State, Internal
	Value        *float64           `json:"value,omitempty"`
	Quote        string             `json:"verbatim_text"` // exact substring of the source chunk, <= MaxQuoteLen
	ChunkSeq     int                `json:"chunk_seq"`
	QuoteStart   int                `json:"quote_start"` // offsets into Document.Text, set by the verifier
	QuoteEnd     int                `json:"quote_end"`
	Deadline     string             `json:"deadline,omitempty"` // commitment claims: when the target is due
	Confidence   Confidence         `json:"confidence"`
	Status       VerificationStatus `json:"status"`
	Theme        *Theme             `json:"theme,omitempty"`
	Origin       Origin             `json:"origin"`
}

// Partnership links a claim to a named external partner. It exists only when
// the source text explicitly attributes an outcome to that partner, never by
// inference. The attribution text is carried verbatim and verified against
// the cited chunk the same way claim quotes are.
type Partnership struct {
	ID           string      `json:"id"`
	ClaimID      string      `json:"claim_id"`
	DocID        string      `json:"doc_id"`
	PartnerType  PartnerType `json:"partner_type"`
	PartnerName  string      `json:"partner_name"`
	OutcomeQuote string      `json:"outcome_attributed"` // exact substring of the source chunk
	ChunkSeq     int         `json:"chunk_seq"`
}

// ExtractionRecord links a candidate claim to its originating extractor and
// retrieval context. Created at extraction time, closed at aggregation time
// when the candidate is merged into a canonical claim.
type ExtractionRecord struct {
	ID        string `json:"id"`
	DocID     string `json:"doc_id"`
	ClaimID   string `json:"claim_id"`
	Origin    Origin `json:"origin"`
	Query     string `json:"query,omitempty"` // retrieval probe, empty for pattern candidates
	ChunkSeqs []int  `json:"chunk_seqs,omitempty"`
	GroupID   string `json:"group_id,omitempty"` // dedup group, set at aggregation
}
