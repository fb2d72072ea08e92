// Package pipeline orchestrates the complete extraction run: segmentation,
// indexing, both extraction paths, verification, deduplication, persistence.
// Documents run in parallel; stages within one document run strictly in
// sequence, so offsets computed in one stage are valid in the next.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/claimsift/claimsift/internal/chunker"
	"github.com/claimsift/claimsift/internal/dedupe"
	"github.com/claimsift/claimsift/internal/index"
	"github.com/claimsift/claimsift/internal/llm"
	"github.com/claimsift/claimsift/internal/model"
	"github.com/claimsift/claimsift/internal/pattern"
	"github.com/claimsift/claimsift/internal/store"
	"github.com/claimsift/claimsift/internal/verify"
	"github.com/claimsift/claimsift/internal/worker"
)

// Pipeline wires the processing stages together.
type Pipeline struct {
	chunker  *chunker.Chunker
	patterns *pattern.Extractor
	schema   *llm.SchemaExtractor // nil when the LLM path is disabled
	embedder func() (*index.Index, error)
	verifier *verify.Verifier
	deduper  *dedupe.Deduper
	store    *store.Store
	config   *model.Config
	log      zerolog.Logger
}

// New builds a pipeline from configuration. When no LLM provider is
// configured, the pattern path alone runs and no index is built.
func New(cfg *model.Config, st *store.Store, log zerolog.Logger) (*Pipeline, error) {
	p := &Pipeline{
		chunker:  chunker.New(cfg.Chunker),
		patterns: pattern.New(),
		verifier: verify.New(cfg.Verify),
		deduper:  dedupe.New(cfg.Dedupe),
		store:    st,
		config:   cfg,
		log:      log.With().Str("component", "pipeline").Logger(),
	}

	provider, err := llm.NewProvider(cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("create LLM provider: %w", err)
	}
	if provider != nil {
		limiter := worker.NewCallLimiter(cfg.Concurrency)
		p.schema = llm.NewSchemaExtractor(provider, limiter, cfg, log)

		embed := index.NewCachedEmbedder(
			index.NewOpenAIEmbedder(cfg.LLM, cfg.Retrieval.EmbeddingModel),
			cfg.Retrieval.CacheTTL,
		)
		p.embedder = func() (*index.Index, error) { return index.New(embed) }
	}
	return p, nil
}

// Summary accounts for one run: everything in, everything out, everything
// rejected with a reason.
type Summary struct {
	Documents  int           `json:"documents"`
	Chunks     int           `json:"chunks"`
	Candidates int           `json:"candidates"`
	Canonical  int           `json:"canonical"`
	Unverified int           `json:"unverified"`
	Violations int           `json:"schema_violations"`
	Failures   int           `json:"extraction_failures"`
	Conflicts  int           `json:"duplicate_conflicts"`
	Failed     []string      `json:"failed_documents,omitempty"` // document IDs whose persistence failed
	Elapsed    time.Duration `json:"elapsed"`
}

// docResult carries one document's outcome through the worker pool.
type docResult struct {
	results store.DocumentResults
	chunks  int
	cands   int
	err     error
}

func (r *docResult) GetError() error { return r.err }

type docJob struct {
	p   *Pipeline
	doc model.Document
}

func (j *docJob) Execute(ctx context.Context) worker.Result {
	return j.p.processDocument(ctx, j.doc)
}

// Run processes the corpus. An empty corpus is the only fatal input
// condition; per-document and per-probe failures degrade, they never abort
// the run. Cancelling the context stops new generation calls; documents
// already past extraction still finish verification and persistence.
func (p *Pipeline) Run(ctx context.Context, docs []model.Document) (*Summary, error) {
	if len(docs) == 0 {
		return nil, model.ErrNoDocuments
	}
	started := time.Now()

	pool := worker.NewPool(ctx, p.config.Concurrency.DocumentWorkers)
	pool.Start()

	// Submission runs on its own goroutine so results drain while documents
	// are still queueing; both pool channels are bounded, and a corpus larger
	// than their capacity would otherwise wedge every worker on a full
	// results buffer.
	go func() {
		for _, doc := range docs {
			pool.Submit(&docJob{p: p, doc: doc})
		}
		pool.Wait()
	}()

	sum := &Summary{Documents: len(docs)}
	for r := range pool.Results() {
		dr, ok := r.(*docResult)
		if !ok {
			continue
		}
		sum.Chunks += dr.chunks
		sum.Candidates += dr.cands
		sum.Canonical += len(dr.results.Claims)
		for _, a := range dr.results.Audit {
			switch a.Reason {
			case model.AuditUnverifiedClaim, model.AuditUnverifiedPartnership:
				sum.Unverified++
			case model.AuditSchemaViolation:
				sum.Violations++
			case model.AuditExtractionFailed:
				sum.Failures++
			case model.AuditDuplicateConflict:
				sum.Conflicts++
			}
		}

		// Persistence is serialized here: one exclusive transaction per
		// document, no writer contention between workers.
		if err := p.store.SaveDocumentResults(dr.results); err != nil {
			p.log.Error().Str("doc", dr.results.Document.ID).Err(err).Msg("persist document results")
			sum.Failed = append(sum.Failed, dr.results.Document.ID)
		}
	}

	sum.Elapsed = time.Since(started)
	p.log.Info().
		Int("documents", sum.Documents).
		Int("chunks", sum.Chunks).
		Int("candidates", sum.Candidates).
		Int("canonical", sum.Canonical).
		Int("unverified", sum.Unverified).
		Dur("elapsed", sum.Elapsed).
		Msg("run complete")
	return sum, nil
}

// processDocument runs the stages for one document in order. Returning early
// is reserved for the empty document; everything else degrades into audit
// entries.
func (p *Pipeline) processDocument(ctx context.Context, doc model.Document) worker.Result {
	log := p.log.With().Str("doc", doc.ID).Logger()
	res := &docResult{results: store.DocumentResults{Document: doc}}
	out := &res.results

	// 1. Segmentation.
	seg := p.chunker.Split(doc)
	res.chunks = len(seg.Chunks)
	out.Discarded = seg.Discarded
	if seg.Warning != nil {
		log.Warn().Int("offset", seg.Warning.Offset).Str("reason", seg.Warning.Reason).Msg("partial extraction")
		out.Audit = append(out.Audit, model.AuditEntry{
			ID:        model.NewAuditID(),
			DocID:     doc.ID,
			Reason:    model.AuditPartialExtraction,
			Detail:    seg.Warning.Error(),
			CreatedAt: time.Now().UTC(),
		})
	}
	if !chunker.Coverage(len(doc.Text), seg.Chunks, seg.Discarded) {
		log.Error().Msg("segmentation lost text: chunk and discard spans do not cover the document")
	}
	if len(seg.Chunks) == 0 {
		return res
	}

	chunkBySeq := make(map[int]model.Chunk, len(seg.Chunks))
	for _, ch := range seg.Chunks {
		chunkBySeq[ch.Seq] = ch
	}

	// 2. Pattern path: deterministic, runs on every chunk.
	var candidates []model.Claim
	for _, ch := range seg.Chunks {
		claims, records := p.patterns.Extract(ch)
		candidates = append(candidates, claims...)
		out.Records = append(out.Records, records...)
		out.Partnerships = append(out.Partnerships, p.patterns.ExtractPartnerships(ch, claims)...)
	}

	// 3. LLM path: retrieval-grounded probes, skipped cleanly on cancellation.
	if p.schema != nil && ctx.Err() == nil {
		ix, err := p.embedder()
		if err != nil {
			log.Error().Err(err).Msg("create index")
			out.Audit = append(out.Audit, failedAudit(doc.ID, "index", err))
		} else if err := ix.Add(ctx, seg.Chunks); err != nil {
			log.Error().Err(err).Msg("embed chunks")
			out.Audit = append(out.Audit, failedAudit(doc.ID, "embed", err))
		} else {
			lres := p.schema.ExtractDocument(ctx, doc, ix)
			candidates = append(candidates, lres.Claims...)
			out.Partnerships = append(out.Partnerships, lres.Partnerships...)
			out.Records = append(out.Records, lres.Records...)
			for _, v := range lres.Violations {
				out.Audit = append(out.Audit, model.AuditEntry{
					ID:        model.NewAuditID(),
					DocID:     doc.ID,
					Reason:    model.AuditSchemaViolation,
					Detail:    v.Error(),
					Quote:     v.Raw,
					CreatedAt: time.Now().UTC(),
				})
			}
			for _, f := range lres.Failures {
				out.Audit = append(out.Audit, failedAudit(doc.ID, f.Probe, f.Err))
			}
		}
	}
	res.cands = len(candidates)

	// 4. Verification. Runs to completion even after cancellation: claims
	// already extracted are cheap to check and expensive to re-extract.
	var verified []model.Claim
	for _, c := range candidates {
		outcome := p.verifier.Verify(c, chunkBySeq[c.ChunkSeq])
		if !outcome.Verified {
			out.Audit = append(out.Audit, model.AuditEntry{
				ID:        model.NewAuditID(),
				DocID:     doc.ID,
				ClaimID:   c.ID,
				Reason:    model.AuditUnverifiedClaim,
				Detail:    outcome.Reason,
				Quote:     c.Quote,
				CreatedAt: time.Now().UTC(),
			})
			continue
		}
		verified = append(verified, outcome.Claim)
		if outcome.NeedsReview {
			out.Audit = append(out.Audit, model.AuditEntry{
				ID:        model.NewAuditID(),
				DocID:     doc.ID,
				ClaimID:   outcome.Claim.ID,
				Reason:    model.AuditManualReview,
				Detail:    "sampled for manual adjudication",
				CreatedAt: time.Now().UTC(),
			})
		}
	}

	// Partnerships are held to the same textual standard: the partner name
	// and the attributed outcome must be locatable in the cited chunk. A
	// partnership that fails is audit-only, exactly like an unverified claim.
	kept := out.Partnerships[:0]
	for _, pn := range out.Partnerships {
		po := p.verifier.VerifyPartnership(pn, chunkBySeq[pn.ChunkSeq])
		if !po.Verified {
			out.Audit = append(out.Audit, model.AuditEntry{
				ID:        model.NewAuditID(),
				DocID:     doc.ID,
				Reason:    model.AuditUnverifiedPartnership,
				Detail:    po.Reason,
				Quote:     pn.OutcomeQuote,
				CreatedAt: time.Now().UTC(),
			})
			continue
		}
		kept = append(kept, po.Partnership)
	}
	out.Partnerships = kept

	// 5. Deduplication.
	canonical, conflicts, mapping := p.deduper.Dedupe(verified)
	out.Claims = canonical
	for _, c := range conflicts {
		out.Audit = append(out.Audit, model.AuditEntry{
			ID:        model.NewAuditID(),
			DocID:     doc.ID,
			ClaimID:   c.WinnerID,
			Reason:    model.AuditDuplicateConflict,
			Detail:    c.Detail,
			CreatedAt: time.Now().UTC(),
		})
	}

	// Re-point records and partnerships at canonical IDs. References to
	// claims that did not survive verification are cleared, not invented.
	for i := range out.Partnerships {
		out.Partnerships[i].ClaimID = mapping[out.Partnerships[i].ClaimID]
	}
	remapped := out.Records[:0]
	for _, rec := range out.Records {
		canonicalID, ok := mapping[rec.ClaimID]
		if !ok {
			continue
		}
		rec.ClaimID = canonicalID
		remapped = append(remapped, rec)
	}
	out.Records = remapped

	log.Info().
		Int("chunks", res.chunks).
		Int("candidates", res.cands).
		Int("canonical", len(canonical)).
		Msg("document processed")
	return res
}

func failedAudit(docID, probe string, err error) model.AuditEntry {
	return model.AuditEntry{
		ID:        model.NewAuditID(),
		DocID:     docID,
		Reason:    model.AuditExtractionFailed,
		Detail:    fmt.Sprintf("%s: %v", probe, err),
		CreatedAt: time.Now().UTC(),
	}
}
