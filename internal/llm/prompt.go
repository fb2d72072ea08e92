package llm

import (
	"fmt"
	"strings"

	"github.com/claimsift/claimsift/internal/index"
	"github.com/claimsift/claimsift/internal/model"
)

const claimPromptTemplate = `You are analyzing a Medicaid managed care procurement document for a research study on accountability claims.

Document: %s %s %d %s
Theme under review: %s (%s)
Claim type sought: %s (%s)

Context passages (each labeled with its chunk number):
%s

Extract ALL quantitative claims about health outcomes that match the theme and claim type. A quantitative claim includes:
- Specific numeric improvements (percentages, counts, rates)
- Comparisons to benchmarks or prior periods
- Targets with specific values
- Quality measure results (HEDIS, CAHPS, etc.)

For each claim found, emit an object with exactly these fields:
{
  "verbatim_text": "[exact quote copied from a context passage, max 300 chars]",
  "chunk_seq": [chunk number the quote came from],
  "domain_code": "[VBC|PH|AC|CC|QM|PM|HIT|WD]",
  "clinical_area": "[MAT|PED|BH|CHR|PCP|HOSP|RX|NONE]",
  "claim_type": "[HIST|PROJ|COMP|METH]",
  "metric_name": "[specific measure name if stated, else empty]",
  "metric_steward": "[NCQA|CMS|State|Internal|Other|empty]",
  "value": [number or null],
  "quantification": "[Q-ABS|Q-PCT|Q-PPT|Q-TGT|Q-NONE]",
  "deadline": "[timeframe described or empty]",
  "evidence_type": "[PR|CG|PP|INT|EXT|NONE]",
  "confidence": "[HIGH|MEDIUM|LOW]"
}

Rules:
- Copy verbatim_text character-for-character from a context passage. Never paraphrase.
- Use only information present in the context passages above.
- Return ONLY a JSON array of claim objects. If no matching claims exist, return exactly [].`

const partnershipPromptTemplate = `You are analyzing a Medicaid managed care procurement document to identify third-party partnerships.

Document: %s %s %d %s

Context passages (each labeled with its chunk number):
%s

Extract partnerships with external organizations ONLY where the text explicitly attributes an outcome or metric to the named partner. Never infer a partnership.

For each partnership, emit:
{
  "partner_name": "[organization name as written]",
  "partner_type": "[P-CBO|P-GOV|P-ACAD|P-TECH|P-PROV]",
  "outcome_attributed": "[exact quote of the attributed outcome]",
  "chunk_seq": [chunk number]
}

Return ONLY a JSON array. If no qualifying partnerships exist, return exactly [].`

// BuildClaimPrompt renders one probe request: document identity, theme,
// claim type, and the retrieved grounding context.
func BuildClaimPrompt(doc model.Document, theme model.Theme, claimType model.ClaimType, hits []index.Hit) string {
	return fmt.Sprintf(claimPromptTemplate,
		doc.State, orUnknown(doc.Organization), doc.Year, doc.Type,
		theme.Subcategory, model.DomainCodes[theme.Domain],
		claimType, model.ClaimTypes[claimType],
		renderContext(hits),
	)
}

// BuildPartnershipPrompt renders one partnership probe request.
func BuildPartnershipPrompt(doc model.Document, hits []index.Hit) string {
	return fmt.Sprintf(partnershipPromptTemplate,
		doc.State, orUnknown(doc.Organization), doc.Year, doc.Type,
		renderContext(hits),
	)
}

func renderContext(hits []index.Hit) string {
	var b strings.Builder
	for _, h := range hits {
		fmt.Fprintf(&b, "[chunk %d]\n%s\n\n", h.Chunk.Seq, h.Chunk.Text)
	}
	if b.Len() == 0 {
		return "(no context retrieved)"
	}
	return b.String()
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}
