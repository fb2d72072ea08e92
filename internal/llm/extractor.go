package llm

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/claimsift/claimsift/internal/index"
	"github.com/claimsift/claimsift/internal/model"
	"github.com/claimsift/claimsift/internal/worker"
)

// probeClaimTypes are the claim types probed per theme. Comparative and
// methodological claims surface through the same probes, so two retrieval
// passes per theme keep the call volume bounded.
var probeClaimTypes = []model.ClaimType{model.ClaimHistorical, model.ClaimProjected}

// SchemaExtractor runs retrieval-grounded, schema-constrained extraction:
// one generation request per theme/claim-type probe, each constrained to the
// claim schema or the empty-array sentinel.
type SchemaExtractor struct {
	provider Provider
	limiter  *worker.CallLimiter
	themes   []model.Theme
	k        int
	log      zerolog.Logger
}

// NewSchemaExtractor wires a provider, a call limiter, and the probe themes.
func NewSchemaExtractor(provider Provider, limiter *worker.CallLimiter, cfg *model.Config, log zerolog.Logger) *SchemaExtractor {
	themes := cfg.Themes
	if len(themes) == 0 {
		themes = model.DefaultThemes
	}
	k := cfg.Retrieval.K
	if k <= 0 {
		k = 5
	}
	return &SchemaExtractor{
		provider: provider,
		limiter:  limiter,
		themes:   themes,
		k:        k,
		log:      log.With().Str("component", "schema_extractor").Logger(),
	}
}

// Result collects everything one document's probes produced: candidates,
// rejected outputs, and probes whose external call exhausted its retry.
type Result struct {
	Claims       []model.Claim
	Partnerships []model.Partnership
	Records      []model.ExtractionRecord
	Violations   []*model.SchemaViolation
	Failures     []*model.ExtractionFailed
}

// ExtractDocument runs all probes for one document against its indexed
// chunks. Probe failures are recorded, never fatal: the remaining probes and
// documents continue.
func (e *SchemaExtractor) ExtractDocument(ctx context.Context, doc model.Document, ix *index.Index) *Result {
	res := &Result{}

	for _, theme := range e.themes {
		for _, ct := range probeClaimTypes {
			if ctx.Err() != nil {
				return res
			}
			e.runClaimProbe(ctx, doc, theme, ct, ix, res)
		}
	}
	if ctx.Err() == nil {
		e.runPartnershipProbe(ctx, doc, ix, res)
	}
	return res
}

func (e *SchemaExtractor) runClaimProbe(ctx context.Context, doc model.Document, theme model.Theme, ct model.ClaimType, ix *index.Index, res *Result) {
	query := theme.Subcategory + " " + model.ClaimTypes[ct]
	hits, err := ix.RetrieveForDoc(ctx, doc.ID, query, e.k)
	if err != nil {
		res.Failures = append(res.Failures, &model.ExtractionFailed{DocID: doc.ID, Probe: query, Err: err})
		return
	}
	if len(hits) == 0 {
		return
	}

	prompt := BuildClaimPrompt(doc, theme, ct, hits)
	var response string
	err = e.limiter.Do(ctx, func(callCtx context.Context) error {
		var callErr error
		response, callErr = e.provider.Complete(callCtx, prompt)
		return callErr
	})
	if err != nil {
		e.log.Warn().Str("doc", doc.ID).Str("probe", query).Err(err).Msg("generation call exhausted retries")
		res.Failures = append(res.Failures, &model.ExtractionFailed{DocID: doc.ID, Probe: query, Err: err})
		return
	}

	raws, violation := ParseClaims(doc.ID, response)
	if violation != nil {
		res.Violations = append(res.Violations, violation)
		return
	}

	seqs := make(map[int]bool, len(hits))
	chunkSeqs := make([]int, 0, len(hits))
	for _, h := range hits {
		seqs[h.Chunk.Seq] = true
		chunkSeqs = append(chunkSeqs, h.Chunk.Seq)
	}

	for _, raw := range raws {
		claim, v := ValidateClaim(doc, theme, raw, seqs)
		if v != nil {
			res.Violations = append(res.Violations, v)
			continue
		}
		res.Claims = append(res.Claims, claim)
		res.Records = append(res.Records, model.ExtractionRecord{
			ID:        model.HashID(claim.ID, "rec"),
			DocID:     doc.ID,
			ClaimID:   claim.ID,
			Origin:    model.OriginLLM,
			Query:     query,
			ChunkSeqs: chunkSeqs,
		})
	}
}

func (e *SchemaExtractor) runPartnershipProbe(ctx context.Context, doc model.Document, ix *index.Index, res *Result) {
	const query = "partnerships with external organizations and attributed outcomes"
	hits, err := ix.RetrieveForDoc(ctx, doc.ID, query, e.k)
	if err != nil {
		res.Failures = append(res.Failures, &model.ExtractionFailed{DocID: doc.ID, Probe: query, Err: err})
		return
	}
	if len(hits) == 0 {
		return
	}

	prompt := BuildPartnershipPrompt(doc, hits)
	var response string
	err = e.limiter.Do(ctx, func(callCtx context.Context) error {
		var callErr error
		response, callErr = e.provider.Complete(callCtx, prompt)
		return callErr
	})
	if err != nil {
		res.Failures = append(res.Failures, &model.ExtractionFailed{DocID: doc.ID, Probe: query, Err: err})
		return
	}

	raws, violation := ParsePartnerships(doc.ID, response)
	if violation != nil {
		res.Violations = append(res.Violations, violation)
		return
	}

	seqs := make(map[int]bool, len(hits))
	for _, h := range hits {
		seqs[h.Chunk.Seq] = true
	}
	for _, raw := range raws {
		p, v := ValidatePartnership(doc, raw, seqs)
		if v != nil {
			res.Violations = append(res.Violations, v)
			continue
		}
		res.Partnerships = append(res.Partnerships, p)
	}
}
