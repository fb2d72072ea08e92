package store

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/claimsift/claimsift/internal/model"
)

// ExportClaimsCSV writes the canonical claim inventory. Row order follows the
// store's deterministic ordering, so repeated exports of the same database
// are byte-identical.
func ExportClaimsCSV(path string, claims []model.Claim) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{
		"claim_id", "doc_id", "domain", "claim_type", "evidence", "quantification",
		"clinical_area", "metric_name", "metric_steward", "value", "verbatim_text",
		"chunk_seq", "quote_start", "quote_end", "deadline", "confidence", "status", "origin",
	}
	if err := w.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, c := range claims {
		value := ""
		if c.Value != nil {
			value = strconv.FormatFloat(*c.Value, 'f', -1, 64)
		}
		row := []string{
			c.ID, c.DocID, string(c.Domain), string(c.ClaimType), string(c.Evidence),
			string(c.Quant), string(c.ClinicalArea), c.MetricName, c.MetricOwner,
			value, c.Quote,
			strconv.Itoa(c.ChunkSeq), strconv.Itoa(c.QuoteStart), strconv.Itoa(c.QuoteEnd),
			c.Deadline, string(c.Confidence), string(c.Status), string(c.Origin),
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write claim row: %w", err)
		}
	}
	w.Flush()
	return w.Error()
}

// ExportPartnershipsCSV writes the partnership inventory.
func ExportPartnershipsCSV(path string, partnerships []model.Partnership) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{"partnership_id", "claim_id", "doc_id", "partner_type", "partner_name", "outcome_attributed", "chunk_seq"}
	if err := w.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, p := range partnerships {
		row := []string{p.ID, p.ClaimID, p.DocID, string(p.PartnerType), p.PartnerName, p.OutcomeQuote, strconv.Itoa(p.ChunkSeq)}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write partnership row: %w", err)
		}
	}
	w.Flush()
	return w.Error()
}

// ExportAuditCSV writes the audit trail.
func ExportAuditCSV(path string, entries []model.AuditEntry) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"audit_id", "doc_id", "claim_id", "reason", "detail", "quote"}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, a := range entries {
		if err := w.Write([]string{a.ID, a.DocID, a.ClaimID, string(a.Reason), a.Detail, a.Quote}); err != nil {
			return fmt.Errorf("write audit row: %w", err)
		}
	}
	w.Flush()
	return w.Error()
}

// ExportJSON writes any exhibit or inventory as indented JSON.
func ExportJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return nil
}
