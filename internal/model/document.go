package model

import "fmt"

// DocumentType distinguishes solicitation documents from responses to them.
type DocumentType string

const (
	DocTypeRFP      DocumentType = "rfp"      // state solicitation
	DocTypeProposal DocumentType = "proposal" // MCO response
)

// Document is an immutable source text plus its procurement identity.
// Text extraction from PDF/DOCX happens upstream; this core only reads it.
type Document struct {
	ID           string       `json:"id"`
	State        string       `json:"state"`
	Organization string       `json:"organization,omitempty"` // MCO name, empty for RFPs
	Year         int          `json:"year"`
	Type         DocumentType `json:"type"`
	Text         string       `json:"-"`
}

// Chunk is a contiguous span of a Document's text with stable offsets.
// Chunks are created once at ingestion and never mutated.
type Chunk struct {
	DocID string `json:"doc_id"`
	Seq   int    `json:"seq"`
	Start int    `json:"start"` // byte offset into Document.Text, inclusive
	End   int    `json:"end"`   // exclusive
	Text  string `json:"text"`
}

// ID returns the chunk's stable identifier.
func (c Chunk) ID() string {
	return fmt.Sprintf("%s#%d", c.DocID, c.Seq)
}

// DiscardedSpan records text the chunker deliberately dropped (boilerplate,
// undecodable bytes). Discards are recorded, never silent, so that chunk
// spans plus discarded spans always cover the whole document.
type DiscardedSpan struct {
	DocID  string `json:"doc_id"`
	Start  int    `json:"start"`
	End    int    `json:"end"`
	Reason string `json:"reason"`
}
