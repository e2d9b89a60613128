// Package analysis is the read model of sessions produced by the upstream AI
// analysis pipeline. The triage pipeline never writes to it.
package analysis

import (
	"time"

	"github.com/google/uuid"
)

// Session maps to the analysis_sessions table. Measurement columns are read
// as text so that the classifier sees exactly what upstream stored.
type Session struct {
	ID                uuid.UUID  `db:"id" json:"id"`
	PatientID         uuid.UUID  `db:"patient_id" json:"patient_id"`
	Status            string     `db:"status" json:"status"`
	AIRiskLevel       *string    `db:"ai_risk_level" json:"ai_risk_level,omitempty"`
	HeartRate         *string    `db:"heart_rate" json:"heart_rate,omitempty"`
	RespiratoryRate   *string    `db:"respiratory_rate" json:"respiratory_rate,omitempty"`
	OxygenSaturation  *string    `db:"oxygen_saturation" json:"oxygen_saturation,omitempty"`
	HRVSDNN           *string    `db:"hrv_sdnn" json:"hrv_sdnn,omitempty"`
	Notes             *string    `db:"notes" json:"notes,omitempty"`
	Symptoms          *string    `db:"symptoms" json:"symptoms,omitempty"`
	ConsensusFindings []byte     `db:"consensus_findings" json:"-"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time  `db:"updated_at" json:"updated_at"`
	VitalSigns        []VitalRow `json:"vital_signs,omitempty"`
}

// VitalRow maps to the vital_signs table: one structured measurement
// captured during a session.
type VitalRow struct {
	Type       string    `db:"type" json:"type"`
	Value      string    `db:"value" json:"value"`
	Unit       *string   `db:"unit" json:"unit,omitempty"`
	RecordedAt time.Time `db:"recorded_at" json:"recorded_at"`
}

// HasConsensus reports whether the session carries a structured artifact.
func (s *Session) HasConsensus() bool {
	return len(s.ConsensusFindings) > 0 && string(s.ConsensusFindings) != "null"
}

// RiskLevel returns the raw upstream risk level, or "" when absent.
func (s *Session) RiskLevel() string {
	if s.AIRiskLevel == nil {
		return ""
	}
	return *s.AIRiskLevel
}
