package dedupe

import (
	"fmt"
	"sort"

	"github.com/claimsift/claimsift/internal/model"
)

// Exhibits are read-only tabular projections over the canonical claim set.
// They carry no state of their own: recomputing them from the same canonical
// set always yields the same values.
type Exhibits struct {
	ByDomain        map[model.DomainCode]int `json:"by_domain"`
	ByTheme         map[string]int           `json:"by_theme"`       // domain/subcategory
	ByStateYear     map[string]int           `json:"by_state_year"`  // state|year
	ByStateTheme    map[string]int           `json:"by_state_theme"` // state|domain
	CodeFrequencies CodeFrequencies          `json:"code_frequencies"`
	Concordance     []ConcordanceRow         `json:"concordance"`
}

// CodeFrequencies counts canonical claims per code table.
type CodeFrequencies struct {
	Domain       map[model.DomainCode]int   `json:"domain"`
	ClaimType    map[model.ClaimType]int    `json:"claim_type"`
	Evidence     map[model.EvidenceCode]int `json:"evidence"`
	Quant        map[model.QuantCode]int    `json:"quantification"`
	ClinicalArea map[model.ClinicalArea]int `json:"clinical_area"`
}

// ConcordanceRow is the agreement ratio between claims in a state's
// solicitation documents and one organization's response documents: shared
// (domain, clinical area) pairs over the solicitation's pairs.
type ConcordanceRow struct {
	State        string  `json:"state"`
	Year         int     `json:"year"`
	Organization string  `json:"organization"`
	RFPPairs     int     `json:"rfp_pairs"`
	SharedPairs  int     `json:"shared_pairs"`
	Ratio        float64 `json:"ratio"`
}

// BuildExhibits recomputes all projections from the canonical set alone.
func BuildExhibits(docs []model.Document, claims []model.Claim) *Exhibits {
	ex := &Exhibits{
		ByDomain:     make(map[model.DomainCode]int),
		ByTheme:      make(map[string]int),
		ByStateYear:  make(map[string]int),
		ByStateTheme: make(map[string]int),
		CodeFrequencies: CodeFrequencies{
			Domain:       make(map[model.DomainCode]int),
			ClaimType:    make(map[model.ClaimType]int),
			Evidence:     make(map[model.EvidenceCode]int),
			Quant:        make(map[model.QuantCode]int),
			ClinicalArea: make(map[model.ClinicalArea]int),
		},
	}

	docsByID := make(map[string]model.Document, len(docs))
	for _, d := range docs {
		docsByID[d.ID] = d
	}

	for _, c := range claims {
		ex.ByDomain[c.Domain]++
		if c.Theme != nil {
			ex.ByTheme[c.Theme.Key()]++
		}
		ex.CodeFrequencies.Domain[c.Domain]++
		ex.CodeFrequencies.ClaimType[c.ClaimType]++
		ex.CodeFrequencies.Evidence[c.Evidence]++
		ex.CodeFrequencies.Quant[c.Quant]++
		ex.CodeFrequencies.ClinicalArea[c.ClinicalArea]++

		if doc, ok := docsByID[c.DocID]; ok {
			ex.ByStateYear[fmt.Sprintf("%s|%d", doc.State, doc.Year)]++
			ex.ByStateTheme[fmt.Sprintf("%s|%s", doc.State, c.Domain)]++
		}
	}

	ex.Concordance = buildConcordance(docsByID, claims)
	return ex
}

type codingPair struct {
	domain model.DomainCode
	area   model.ClinicalArea
}

// buildConcordance compares (domain, clinical area) coding pairs claimed in
// each state/year's RFPs against each responding organization's proposals.
func buildConcordance(docs map[string]model.Document, claims []model.Claim) []ConcordanceRow {
	type cohort struct {
		state string
		year  int
	}

	rfpPairs := make(map[cohort]map[codingPair]bool)
	orgPairs := make(map[cohort]map[string]map[codingPair]bool)

	for _, c := range claims {
		doc, ok := docs[c.DocID]
		if !ok {
			continue
		}
		key := cohort{doc.State, doc.Year}
		pair := codingPair{c.Domain, c.ClinicalArea}

		switch doc.Type {
		case model.DocTypeRFP:
			if rfpPairs[key] == nil {
				rfpPairs[key] = make(map[codingPair]bool)
			}
			rfpPairs[key][pair] = true
		case model.DocTypeProposal:
			if orgPairs[key] == nil {
				orgPairs[key] = make(map[string]map[codingPair]bool)
			}
			if orgPairs[key][doc.Organization] == nil {
				orgPairs[key][doc.Organization] = make(map[codingPair]bool)
			}
			orgPairs[key][doc.Organization][pair] = true
		}
	}

	var rows []ConcordanceRow
	for key, rfp := range rfpPairs {
		for org, pairs := range orgPairs[key] {
			shared := 0
			for p := range pairs {
				if rfp[p] {
					shared++
				}
			}
			ratio := 0.0
			if len(rfp) > 0 {
				ratio = float64(shared) / float64(len(rfp))
			}
			rows = append(rows, ConcordanceRow{
				State:        key.state,
				Year:         key.year,
				Organization: org,
				RFPPairs:     len(rfp),
				SharedPairs:  shared,
				Ratio:        ratio,
			})
		}
	}

	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.State != b.State {
			return a.State < b.State
		}
		if a.Year != b.Year {
			return a.Year < b.Year
		}
		return a.Organization < b.Organization
	})
	return rows
}
