// Package findings synthesizes the clinical findings surfaced to a reviewing
// specialist from a patient's latest analysis session.
package findings

import (
	"strings"
	"time"
)

// Category groups findings by body system.
type Category string

const (
	Cardiovascular Category = "cardiovascular"
	Respiratory    Category = "respiratory"
	Neurological   Category = "neurological"
	Metabolic      Category = "metabolic"
	General        Category = "general"
)

// Severity grades a finding.
type Severity string

const (
	SeverityNormal   Severity = "normal"
	SeverityMild     Severity = "mild"
	SeverityModerate Severity = "moderate"
	SeveritySevere   Severity = "severe"
)

// Source names the strategy that produced a result.
type Source string

const (
	SourceNone            Source = ""
	SourceFinalConsensus  Source = "final_consensus"
	SourceDashboardFormat Source = "dashboard_format"
	SourceVitalSigns      Source = "vital_signs"
)

// DefaultLimit caps the findings returned per patient.
const DefaultLimit = 3

// Finding is one synthesized observation. It is computed on read and never
// persisted.
type Finding struct {
	Description string   `json:"finding"`
	Category    Category `json:"category"`
	Severity    Severity `json:"severity"`
	Confidence  int      `json:"confidence"`
	Specialist  string   `json:"specialist"`
}

// Result is the findings payload for one patient.
type Result struct {
	ClinicalFindings []Finding  `json:"clinical_findings"`
	AIRiskLevel      *string    `json:"ai_risk_level"`
	AnalysisDate     *time.Time `json:"analysis_date"`
	ScreeningStatus  *string    `json:"screening_status"`
	Source           Source     `json:"source,omitempty"`
}

// emptyResult is returned for a patient with no analysis session.
func emptyResult() *Result {
	return &Result{ClinicalFindings: []Finding{}}
}

var specialistDomains = map[Category]string{
	Cardiovascular: "Cardiology",
	Respiratory:    "Pulmonology",
	Neurological:   "Neurology",
	Metabolic:      "Endocrinology",
	General:        "Internal Medicine",
}

// generalAssessment attributes the catch-all vital-sign finding.
const generalAssessment = "General Assessment"

// ParseCategory normalizes a category string; anything unrecognized is General.
func ParseCategory(raw string) Category {
	c := Category(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := specialistDomains[c]; ok {
		return c
	}
	return General
}

// SpecialistDomain maps a category to the specialty that reviews it.
func SpecialistDomain(c Category) string {
	if d, ok := specialistDomains[c]; ok {
		return d
	}
	return specialistDomains[General]
}

// ParseSeverity normalizes a severity string; missing or unrecognized values
// default to moderate.
func ParseSeverity(raw string) Severity {
	switch s := Severity(strings.ToLower(strings.TrimSpace(raw))); s {
	case SeverityNormal, SeverityMild, SeverityModerate, SeveritySevere:
		return s
	default:
		return SeverityModerate
	}
}
