package model

import "time"

// AuditReason classifies why an item was rejected or flagged.
type AuditReason string

const (
	AuditPartialExtraction     AuditReason = "partial_extraction"
	AuditSchemaViolation       AuditReason = "schema_violation"
	AuditUnverifiedClaim       AuditReason = "unverified_claim"
	AuditUnverifiedPartnership AuditReason = "unverified_partnership"
	AuditExtractionFailed      AuditReason = "extraction_failed"
	AuditDuplicateConflict     AuditReason = "duplicate_conflict"
	AuditManualReview          AuditReason = "manual_review_sample"
)

// AuditEntry retains every rejected or flagged item with its reason, so the
// run can account for candidates-in versus claims-out in full.
type AuditEntry struct {
	ID        string      `json:"id"`
	DocID     string      `json:"doc_id"`
	ClaimID   string      `json:"claim_id,omitempty"`
	Reason    AuditReason `json:"reason"`
	Detail    string      `json:"detail"`
	Quote     string      `json:"quote,omitempty"` // retained verbatim text for rejected claims
	CreatedAt time.Time   `json:"created_at"`
}
