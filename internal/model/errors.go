package model

import "fmt"

// Failure taxonomy. All failures are document- or claim-scoped and never
// abort the run; the only fatal condition is having no documents at all.

// ErrNoDocuments is returned when the pipeline is started with an empty corpus.
var ErrNoDocuments = fmt.Errorf("no documents to process")

// PartialExtractionWarning signals a chunk coverage gap (undecodable bytes).
// It is non-fatal: the document's valid prefix is still processed.
type PartialExtractionWarning struct {
	DocID  string
	Offset int // byte offset where decoding stopped
	Reason string
}

func (w *PartialExtractionWarning) Error() string {
	return fmt.Sprintf("partial extraction for %s at offset %d: %s", w.DocID, w.Offset, w.Reason)
}

// SchemaViolation marks a generation output that failed schema validation.
// The candidate is dropped and logged, never silently coerced.
type SchemaViolation struct {
	DocID  string
	Field  string
	Reason string
	Raw    string // offending fragment, truncated for the audit log
}

func (v *SchemaViolation) Error() string {
	return fmt.Sprintf("schema violation in %s: field %q: %s", v.DocID, v.Field, v.Reason)
}

// ExtractionFailed marks a generation probe whose external call exhausted its
// retry. The probe is skipped for that document; the pipeline continues.
type ExtractionFailed struct {
	DocID string
	Probe string
	Err   error
}

func (e *ExtractionFailed) Error() string {
	return fmt.Sprintf("extraction failed for %s probe %q: %v", e.DocID, e.Probe, e.Err)
}

func (e *ExtractionFailed) Unwrap() error { return e.Err }
