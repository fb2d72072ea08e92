// Package store persists the canonical claim set, partnerships, extraction
// records, and the audit trail in SQLite.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/claimsift/claimsift/internal/model"
)

// Store wraps the SQLite database. The canonical claim set is mutated only
// through SaveDocumentResults, which runs one exclusive transaction per
// document so parallel documents never interleave partial writes.
type Store struct {
	db *sql.DB
}

// Open creates or opens the database and ensures the schema exists.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			id TEXT PRIMARY KEY,
			state TEXT NOT NULL,
			organization TEXT,
			year INTEGER,
			doc_type TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS claims (
			id TEXT PRIMARY KEY,
			doc_id TEXT NOT NULL REFERENCES documents(id),
			domain_code TEXT NOT NULL,
			claim_type TEXT NOT NULL,
			evidence_type TEXT NOT NULL,
			quantification TEXT NOT NULL,
			clinical_area TEXT NOT NULL,
			metric_name TEXT,
			metric_steward TEXT,
			value REAL,
			verbatim_text TEXT NOT NULL,
			chunk_seq INTEGER NOT NULL,
			quote_start INTEGER NOT NULL,
			quote_end INTEGER NOT NULL,
			deadline TEXT,
			confidence TEXT NOT NULL,
			status TEXT NOT NULL,
			theme TEXT,
			origin TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_claims_doc ON claims(doc_id)`,
		`CREATE INDEX IF NOT EXISTS idx_claims_domain ON claims(domain_code)`,
		`CREATE TABLE IF NOT EXISTS partnerships (
			id TEXT PRIMARY KEY,
			claim_id TEXT,
			doc_id TEXT NOT NULL REFERENCES documents(id),
			partner_type TEXT NOT NULL,
			partner_name TEXT NOT NULL,
			outcome_attributed TEXT NOT NULL,
			chunk_seq INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS extraction_records (
			id TEXT PRIMARY KEY,
			doc_id TEXT NOT NULL,
			claim_id TEXT NOT NULL,
			origin TEXT NOT NULL,
			query TEXT,
			chunk_seqs TEXT,
			group_id TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS discarded_spans (
			doc_id TEXT NOT NULL REFERENCES documents(id),
			start_offset INTEGER NOT NULL,
			end_offset INTEGER NOT NULL,
			reason TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS audit_log (
			id TEXT PRIMARY KEY,
			doc_id TEXT NOT NULL,
			claim_id TEXT,
			reason TEXT NOT NULL,
			detail TEXT,
			quote TEXT,
			created_at TEXT NOT NULL
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// DocumentResults is everything one document's pipeline run produced.
type DocumentResults struct {
	Document     model.Document
	Claims       []model.Claim // canonical, verified
	Partnerships []model.Partnership
	Records      []model.ExtractionRecord
	Discarded    []model.DiscardedSpan
	Audit        []model.AuditEntry
}

// SaveDocumentResults writes one document's results atomically. Re-running a
// document replaces its previous rows, so a rerun converges instead of
// duplicating.
func (s *Store) SaveDocumentResults(r DocumentResults) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	doc := r.Document
	if _, err := tx.Exec(
		`INSERT INTO documents (id, state, organization, year, doc_type)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET state=excluded.state,
			organization=excluded.organization, year=excluded.year, doc_type=excluded.doc_type`,
		doc.ID, doc.State, doc.Organization, doc.Year, string(doc.Type),
	); err != nil {
		return fmt.Errorf("upsert document: %w", err)
	}

	for _, table := range []string{"claims", "partnerships", "extraction_records", "discarded_spans"} {
		if _, err := tx.Exec(fmt.Sprintf(`DELETE FROM %s WHERE doc_id = ?`, table), doc.ID); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	for _, c := range r.Claims {
		var theme sql.NullString
		if c.Theme != nil {
			theme = sql.NullString{String: c.Theme.Key(), Valid: true}
		}
		var value sql.NullFloat64
		if c.Value != nil {
			value = sql.NullFloat64{Float64: *c.Value, Valid: true}
		}
		if _, err := tx.Exec(
			`INSERT OR REPLACE INTO claims
			 (id, doc_id, domain_code, claim_type, evidence_type, quantification,
			  clinical_area, metric_name, metric_steward, value, verbatim_text,
			  chunk_seq, quote_start, quote_end, deadline, confidence, status, theme, origin)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			c.ID, c.DocID, string(c.Domain), string(c.ClaimType), string(c.Evidence),
			string(c.Quant), string(c.ClinicalArea), c.MetricName, c.MetricOwner,
			value, c.Quote, c.ChunkSeq, c.QuoteStart, c.QuoteEnd, c.Deadline,
			string(c.Confidence), string(c.Status), theme, string(c.Origin),
		); err != nil {
			return fmt.Errorf("insert claim %s: %w", c.ID, err)
		}
	}

	for _, p := range r.Partnerships {
		if _, err := tx.Exec(
			`INSERT OR REPLACE INTO partnerships
			 (id, claim_id, doc_id, partner_type, partner_name, outcome_attributed, chunk_seq)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			p.ID, p.ClaimID, p.DocID, string(p.PartnerType), p.PartnerName, p.OutcomeQuote, p.ChunkSeq,
		); err != nil {
			return fmt.Errorf("insert partnership %s: %w", p.ID, err)
		}
	}

	for _, rec := range r.Records {
		seqs, err := json.Marshal(rec.ChunkSeqs)
		if err != nil {
			return fmt.Errorf("marshal chunk seqs: %w", err)
		}
		if _, err := tx.Exec(
			`INSERT OR REPLACE INTO extraction_records (id, doc_id, claim_id, origin, query, chunk_seqs, group_id)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			rec.ID, rec.DocID, rec.ClaimID, string(rec.Origin), rec.Query, string(seqs), rec.GroupID,
		); err != nil {
			return fmt.Errorf("insert extraction record %s: %w", rec.ID, err)
		}
	}

	for _, d := range r.Discarded {
		if _, err := tx.Exec(
			`INSERT INTO discarded_spans (doc_id, start_offset, end_offset, reason) VALUES (?, ?, ?, ?)`,
			d.DocID, d.Start, d.End, d.Reason,
		); err != nil {
			return fmt.Errorf("insert discarded span: %w", err)
		}
	}

	for _, a := range r.Audit {
		if _, err := tx.Exec(
			`INSERT OR REPLACE INTO audit_log (id, doc_id, claim_id, reason, detail, quote, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			a.ID, a.DocID, a.ClaimID, string(a.Reason), a.Detail, a.Quote,
			a.CreatedAt.UTC().Format(time.RFC3339),
		); err != nil {
			return fmt.Errorf("insert audit entry: %w", err)
		}
	}

	return tx.Commit()
}

// Documents returns all stored document identities.
func (s *Store) Documents() ([]model.Document, error) {
	rows, err := s.db.Query(`SELECT id, state, organization, year, doc_type FROM documents ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	var docs []model.Document
	for rows.Next() {
		var d model.Document
		var org sql.NullString
		var docType string
		if err := rows.Scan(&d.ID, &d.State, &org, &d.Year, &docType); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		d.Organization = org.String
		d.Type = model.DocumentType(docType)
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// Claims returns the full canonical claim set, ordered for reproducible
// exports.
func (s *Store) Claims() ([]model.Claim, error) {
	rows, err := s.db.Query(
		`SELECT id, doc_id, domain_code, claim_type, evidence_type, quantification,
			clinical_area, metric_name, metric_steward, value, verbatim_text,
			chunk_seq, quote_start, quote_end, deadline, confidence, status, theme, origin
		 FROM claims ORDER BY doc_id, quote_start, id`)
	if err != nil {
		return nil, fmt.Errorf("query claims: %w", err)
	}
	defer rows.Close()

	var claims []model.Claim
	for rows.Next() {
		c, err := scanClaim(rows)
		if err != nil {
			return nil, err
		}
		claims = append(claims, c)
	}
	return claims, rows.Err()
}

// Partnerships returns all stored partnerships.
func (s *Store) Partnerships() ([]model.Partnership, error) {
	rows, err := s.db.Query(
		`SELECT id, claim_id, doc_id, partner_type, partner_name, outcome_attributed, chunk_seq
		 FROM partnerships ORDER BY doc_id, id`)
	if err != nil {
		return nil, fmt.Errorf("query partnerships: %w", err)
	}
	defer rows.Close()

	var out []model.Partnership
	for rows.Next() {
		var p model.Partnership
		var claimID sql.NullString
		var ptype string
		if err := rows.Scan(&p.ID, &claimID, &p.DocID, &ptype, &p.PartnerName, &p.OutcomeQuote, &p.ChunkSeq); err != nil {
			return nil, fmt.Errorf("scan partnership: %w", err)
		}
		p.ClaimID = claimID.String
		p.PartnerType = model.PartnerType(ptype)
		out = append(out, p)
	}
	return out, rows.Err()
}

// AuditEntries returns the audit trail, optionally filtered by reason.
func (s *Store) AuditEntries(reason model.AuditReason) ([]model.AuditEntry, error) {
	query := `SELECT id, doc_id, claim_id, reason, detail, quote, created_at FROM audit_log`
	var args []any
	if reason != "" {
		query += ` WHERE reason = ?`
		args = append(args, string(reason))
	}
	query += ` ORDER BY created_at, id`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query audit log: %w", err)
	}
	defer rows.Close()

	var entries []model.AuditEntry
	for rows.Next() {
		var a model.AuditEntry
		var claimID, detail, quote sql.NullString
		var reasonStr, createdAt string
		if err := rows.Scan(&a.ID, &a.DocID, &claimID, &reasonStr, &detail, &quote, &createdAt); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		a.ClaimID = claimID.String
		a.Detail = detail.String
		a.Quote = quote.String
		a.Reason = model.AuditReason(reasonStr)
		if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
			a.CreatedAt = t
		}
		entries = append(entries, a)
	}
	return entries, rows.Err()
}

func scanClaim(rows *sql.Rows) (model.Claim, error) {
	var c model.Claim
	var metricName, metricOwner, deadline, theme sql.NullString
	var value sql.NullFloat64
	var domain, claimType, evidence, quant, area, confidence, status, origin string

	if err := rows.Scan(&c.ID, &c.DocID, &domain, &claimType, &evidence, &quant,
		&area, &metricName, &metricOwner, &value, &c.Quote,
		&c.ChunkSeq, &c.QuoteStart, &c.QuoteEnd, &deadline, &confidence, &status, &theme, &origin,
	); err != nil {
		return c, fmt.Errorf("scan claim: %w", err)
	}

	c.Domain = model.DomainCode(domain)
	c.ClaimType = model.ClaimType(claimType)
	c.Evidence = model.EvidenceCode(evidence)
	c.Quant = model.QuantCode(quant)
	c.ClinicalArea = model.ClinicalArea(area)
	c.MetricName = metricName.String
	c.MetricOwner = metricOwner.String
	c.Deadline = deadline.String
	c.Confidence = model.Confidence(confidence)
	c.Status = model.VerificationStatus(status)
	c.Origin = model.Origin(origin)
	if value.Valid {
		v := value.Float64
		c.Value = &v
	}
	if theme.Valid {
		if parts := strings.SplitN(theme.String, "/", 2); len(parts) == 2 {
			c.Theme = &model.Theme{Domain: model.DomainCode(parts[0]), Subcategory: parts[1]}
		}
	}
	return c, nil
}
