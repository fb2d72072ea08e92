package model

// Coding scheme for procurement accountability claims. The tables below are
// immutable; components receive them through Config rather than reaching for
// package globals at extraction time.

// DomainCode classifies the policy domain of a claim.
type DomainCode string

const (
	DomainVBC DomainCode = "VBC" // Value-Based Care
	DomainPH  DomainCode = "PH"  // Population Health
	DomainAC  DomainCode = "AC"  // Access to Care
	DomainCC  DomainCode = "CC"  // Care Coordination
	DomainQM  DomainCode = "QM"  // Quality Metrics
	DomainPM  DomainCode = "PM"  // Payment Models
	DomainHIT DomainCode = "HIT" // Health Information Technology
	DomainWD  DomainCode = "WD"  // Workforce Development
)

// DomainCodes maps each domain code to its label.
var DomainCodes = map[DomainCode]string{
	DomainVBC: "Value-Based Care",
	DomainPH:  "Population Health",
	DomainAC:  "Access to Care",
	DomainCC:  "Care Coordination",
	DomainQM:  "Quality Metrics",
	DomainPM:  "Payment Models",
	DomainHIT: "Health Information Technology",
	DomainWD:  "Workforce Development",
}

// ClaimType categorizes the temporal nature of a claim.
type ClaimType string

const (
	ClaimHistorical  ClaimType = "HIST" // Historical Performance
	ClaimProjected   ClaimType = "PROJ" // Projected Performance
	ClaimComparative ClaimType = "COMP" // Comparative Performance
	ClaimMethodology ClaimType = "METH" // Methodology Description
)

// ClaimTypes maps each claim-type code to its label.
var ClaimTypes = map[ClaimType]string{
	ClaimHistorical:  "Historical Performance",
	ClaimProjected:   "Projected Performance",
	ClaimComparative: "Comparative Performance",
	ClaimMethodology: "Methodology Description",
}

// EvidenceCode classifies the quality of evidence backing a claim.
type EvidenceCode string

const (
	EvidencePeerReviewed EvidenceCode = "PR"
	EvidenceControlGroup EvidenceCode = "CG"
	EvidencePrePost      EvidenceCode = "PP"
	EvidenceInternal     EvidenceCode = "INT"
	EvidenceExternal     EvidenceCode = "EXT"
	EvidenceNone         EvidenceCode = "NONE"
)

// EvidenceCodes maps each evidence code to its label.
var EvidenceCodes = map[EvidenceCode]string{
	EvidencePeerReviewed: "Peer-Reviewed",
	EvidenceControlGroup: "Control Group",
	EvidencePrePost:      "Pre-Post",
	EvidenceInternal:     "Internal Analysis",
	EvidenceExternal:     "External Validation",
	EvidenceNone:         "No Evidence",
}

// ClinicalArea classifies the clinical subject of a claim.
type ClinicalArea string

const (
	AreaMaternity   ClinicalArea = "MAT"
	AreaPediatrics  ClinicalArea = "PED"
	AreaBehavioral  ClinicalArea = "BH"
	AreaChronic     ClinicalArea = "CHR"
	AreaPrimaryCare ClinicalArea = "PCP"
	AreaHospital    ClinicalArea = "HOSP"
	AreaPharmacy    ClinicalArea = "RX"
	AreaNone        ClinicalArea = "NONE"
)

// ClinicalAreas maps each clinical area code to its label.
var ClinicalAreas = map[ClinicalArea]string{
	AreaMaternity:   "Maternity",
	AreaPediatrics:  "Pediatrics",
	AreaBehavioral:  "Behavioral Health",
	AreaChronic:     "Chronic Disease",
	AreaPrimaryCare: "Primary Care",
	AreaHospital:    "Hospital Utilization",
	AreaPharmacy:    "Pharmacy",
	AreaNone:        "Not Clinical",
}

// QuantCode classifies how a claim is quantified.
type QuantCode string

const (
	QuantAbsolute QuantCode = "Q-ABS"  // absolute number
	QuantPercent  QuantCode = "Q-PCT"  // percentage
	QuantPoints   QuantCode = "Q-PPT"  // percentage points
	QuantTarget   QuantCode = "Q-TGT"  // target with timeline
	QuantNone     QuantCode = "Q-NONE" // unquantified
)

// QuantCodes maps each quantification code to its label.
var QuantCodes = map[QuantCode]string{
	QuantAbsolute: "Absolute Number",
	QuantPercent:  "Percentage",
	QuantPoints:   "Percentage Points",
	QuantTarget:   "Target with Timeline",
	QuantNone:     "Unquantified",
}

// PartnerType classifies an external partner entity.
type PartnerType string

const (
	PartnerCBO        PartnerType = "P-CBO"
	PartnerGovernment PartnerType = "P-GOV"
	PartnerAcademic   PartnerType = "P-ACAD"
	PartnerTechnology PartnerType = "P-TECH"
	PartnerProvider   PartnerType = "P-PROV"
)

// PartnerTypes maps each partner-type code to its label.
var PartnerTypes = map[PartnerType]string{
	PartnerCBO:        "Community-Based Organization",
	PartnerGovernment: "Government Agency",
	PartnerAcademic:   "Academic Institution",
	PartnerTechnology: "Technology Vendor",
	PartnerProvider:   "Provider Organization",
}

// Theme is a node of the two-level taxonomy: a domain plus a subcategory
// within it. Claims produced by the thematic probe path carry one.
type Theme struct {
	Domain      DomainCode `json:"domain"`
	Subcategory string     `json:"subcategory"`
}

// Key returns a stable string form used for grouping and storage.
func (t Theme) Key() string {
	return string(t.Domain) + "/" + t.Subcategory
}

// DefaultThemes is the probe set the schema-constrained extractor iterates
// over. Each theme becomes one retrieval query per claim type.
var DefaultThemes = []Theme{
	{DomainVBC, "shared savings arrangements"},
	{DomainVBC, "alternative payment adoption"},
	{DomainPH, "population health outcomes"},
	{DomainPH, "social determinants interventions"},
	{DomainAC, "appointment availability"},
	{DomainAC, "emergency department utilization"},
	{DomainCC, "care transitions"},
	{DomainCC, "case management outcomes"},
	{DomainQM, "HEDIS measure performance"},
	{DomainQM, "CAHPS member experience"},
	{DomainPM, "capitation and risk arrangements"},
	{DomainHIT, "data exchange and analytics"},
	{DomainWD, "provider network and staffing"},
}

// ValidDomain reports whether code is a known domain code.
func ValidDomain(code DomainCode) bool { _, ok := DomainCodes[code]; return ok }

// ValidClaimType reports whether code is a known claim type.
func ValidClaimType(code ClaimType) bool { _, ok := ClaimTypes[code]; return ok }

// ValidEvidence reports whether code is a known evidence code.
func ValidEvidence(code EvidenceCode) bool { _, ok := EvidenceCodes[code]; return ok }

// ValidClinicalArea reports whether code is a known clinical area.
func ValidClinicalArea(code ClinicalArea) bool { _, ok := ClinicalAreas[code]; return ok }

// ValidQuant reports whether code is a known quantification code.
func ValidQuant(code QuantCode) bool { _, ok := QuantCodes[code]; return ok }

// ValidPartnerType reports whether code is a known partner type.
func ValidPartnerType(code PartnerType) bool { _, ok := PartnerTypes[code]; return ok }
