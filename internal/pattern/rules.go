package pattern

import (
	"regexp"

	"github.com/claimsift/claimsift/internal/model"
)

// Rule is one deterministic text pattern. Rules are applied in order; each
// match becomes a candidate claim tagged with the rule's claim type and
// quantification code.
type Rule struct {
	Name       string
	Re         *regexp.Regexp
	ClaimType  model.ClaimType
	Quant      model.QuantCode
	ValueGroup int // capture group holding the numeric value, 0 if none
}

// DefaultRules returns the built-in rule set for procurement documents:
// numeric improvements, member rates, named quality measures, targets, and
// future commitments.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name:       "improvement",
			Re:         regexp.MustCompile(`(?i)(?:improved?|increased?|reduced?|decreased?|achieved?)(?:\s+a)?(?:\s+by)?\s+(\d+(?:\.\d+)?)\s*(?:percent|%)`),
			ClaimType:  model.ClaimHistorical,
			Quant:      model.QuantPercent,
			ValueGroup: 1,
		},
		{
			Name:       "improvement-points",
			Re:         regexp.MustCompile(`(?i)(?:improved?|increased?|reduced?|decreased?|achieved?)\s+(?:by\s+)?(\d+(?:\.\d+)?)\s*percentage\s+points?`),
			ClaimType:  model.ClaimHistorical,
			Quant:      model.QuantPoints,
			ValueGroup: 1,
		},
		{
			Name:       "member-rate",
			Re:         regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(?:percent|%)\s+of\s+(?:members?|enrollees?|patients?)`),
			ClaimType:  model.ClaimHistorical,
			Quant:      model.QuantPercent,
			ValueGroup: 1,
		},
		{
			Name:      "named-measure",
			Re:        regexp.MustCompile(`(?:HEDIS|CAHPS|NQF|CMS)\s+(?:measure\s+)?[A-Z][A-Z0-9\-]{1,}`),
			ClaimType: model.ClaimMethodology,
			Quant:     model.QuantNone,
		},
		{
			Name:       "target",
			Re:         regexp.MustCompile(`(?i)(?:target|goal|commitment)\s+of\s+(\d+(?:\.\d+)?)\s*(?:percent|%)`),
			ClaimType:  model.ClaimProjected,
			Quant:      model.QuantTarget,
			ValueGroup: 1,
		},
		{
			Name:      "commitment",
			Re:        regexp.MustCompile(`(?i)(?:we\s+will|we\s+commit\s+to|we\s+shall|we\s+propose\s+to|our\s+goal\s+is\s+to)\s+[^.]{10,200}`),
			ClaimType: model.ClaimProjected,
			Quant:     model.QuantNone,
		},
		{
			Name:      "comparison",
			Re:        regexp.MustCompile(`(?i)(?:compared\s+(?:to|with)|versus|relative\s+to)\s+(?:the\s+)?(?:state|national|regional)\s+(?:average|benchmark|rate)`),
			ClaimType: model.ClaimComparative,
			Quant:     model.QuantNone,
		},
	}
}

// metricKeywords are terms whose cooccurrence with a number in the same
// sentence window makes a candidate unambiguous (confidence HIGH).
var metricKeywords = []string{
	"hedis", "cahps", "readmission", "ed visit", "emergency department",
	"screening", "immunization", "admission", "utilization", "a1c",
	"blood pressure", "well-child", "prenatal", "postpartum", "follow-up",
	"adherence", "er visit", "hospitalization",
}

// domainKeywords maps cue phrases to domain codes. Checked in order; the
// first hit wins so mapping is deterministic.
var domainKeywords = []struct {
	cue    string
	domain model.DomainCode
}{
	{"value-based", model.DomainVBC},
	{"shared savings", model.DomainVBC},
	{"alternative payment", model.DomainPM},
	{"capitation", model.DomainPM},
	{"withhold", model.DomainPM},
	{"ed visit", model.DomainAC},
	{"emergency department", model.DomainAC},
	{"er visit", model.DomainAC},
	{"appointment", model.DomainAC},
	{"access", model.DomainAC},
	{"care coordination", model.DomainCC},
	{"care transition", model.DomainCC},
	{"case management", model.DomainCC},
	{"social determinants", model.DomainPH},
	{"population health", model.DomainPH},
	{"health information", model.DomainHIT},
	{"data exchange", model.DomainHIT},
	{"interoperab", model.DomainHIT},
	{"workforce", model.DomainWD},
	{"staffing", model.DomainWD},
	{"hedis", model.DomainQM},
	{"cahps", model.DomainQM},
	{"quality measure", model.DomainQM},
}

// clinicalKeywords maps cue phrases to clinical areas, first hit wins.
var clinicalKeywords = []struct {
	cue  string
	area model.ClinicalArea
}{
	{"maternity", model.AreaMaternity},
	{"prenatal", model.AreaMaternity},
	{"postpartum", model.AreaMaternity},
	{"birth", model.AreaMaternity},
	{"pediatric", model.AreaPediatrics},
	{"well-child", model.AreaPediatrics},
	{"immunization", model.AreaPediatrics},
	{"behavioral health", model.AreaBehavioral},
	{"mental health", model.AreaBehavioral},
	{"substance use", model.AreaBehavioral},
	{"diabetes", model.AreaChronic},
	{"a1c", model.AreaChronic},
	{"hypertension", model.AreaChronic},
	{"asthma", model.AreaChronic},
	{"chronic", model.AreaChronic},
	{"primary care", model.AreaPrimaryCare},
	{"pcp", model.AreaPrimaryCare},
	{"ed visit", model.AreaHospital},
	{"emergency department", model.AreaHospital},
	{"er visit", model.AreaHospital},
	{"readmission", model.AreaHospital},
	{"admission", model.AreaHospital},
	{"inpatient", model.AreaHospital},
	{"pharmacy", model.AreaPharmacy},
	{"medication", model.AreaPharmacy},
	{"prescription", model.AreaPharmacy},
	{"breast cancer screening", model.AreaPrimaryCare},
	{"screening", model.AreaPrimaryCare},
}

// partnershipRules detect explicit partner attributions. The captured group
// is the partner name: a run of capitalized words, allowing of/the/and
// connectors inside the name.
const partnerName = `([A-Z][A-Za-z0-9&'\-]*(?:\s+(?:of|the|and|[A-Z][A-Za-z0-9&'\-]*)){0,7})`

var partnershipRules = []*regexp.Regexp{
	regexp.MustCompile(`(?:partnership|partnered|partnering|collaboration|collaborating)\s+with\s+` + partnerName),
	regexp.MustCompile(`(?:contracted|contracts?)\s+with\s+` + partnerName),
	regexp.MustCompile(`(?:working|in\s+partnership)\s+with\s+` + partnerName),
}

// partnerTypeCues classify a partner name span; first hit wins, provider is
// the fallback for health-system style names.
var partnerTypeCues = []struct {
	cue string
	typ model.PartnerType
}{
	{"university", model.PartnerAcademic},
	{"college", model.PartnerAcademic},
	{"institute", model.PartnerAcademic},
	{"department", model.PartnerGovernment},
	{"agency", model.PartnerGovernment},
	{"county", model.PartnerGovernment},
	{"state of", model.PartnerGovernment},
	{"technolog", model.PartnerTechnology},
	{"software", model.PartnerTechnology},
	{"analytics", model.PartnerTechnology},
	{"systems", model.PartnerTechnology},
	{"community", model.PartnerCBO},
	{"coalition", model.PartnerCBO},
	{"food bank", model.PartnerCBO},
	{"housing", model.PartnerCBO},
	{"health system", model.PartnerProvider},
	{"medical center", model.PartnerProvider},
	{"hospital", model.PartnerProvider},
	{"clinic", model.PartnerProvider},
}

// outcomeCues gate partnership extraction: a partnership is recorded only
// when the surrounding sentence explicitly attributes an outcome to the
// partner.
var outcomeCues = []string{
	"reduc", "improv", "increas", "achiev", "outcome", "decreas", "rate",
}
