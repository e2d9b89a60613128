package vitals

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ruralcare/telehealth/internal/domain/analysis"
	"github.com/ruralcare/telehealth/internal/domain/risk"
	"github.com/ruralcare/telehealth/internal/domain/status"
)

// PatientVitals is the classified view of a patient's latest session.
type PatientVitals struct {
	PatientID      uuid.UUID  `json:"patient_id"`
	SessionID      *uuid.UUID `json:"session_id"`
	RecordedAt     *time.Time `json:"recorded_at"`
	Status         *string    `json:"status"`
	VitalSigns     []Reading  `json:"vital_signs"`
	AttentionCount int        `json:"attention_count"`
}

// SessionSummary is one row of a patient's analysis history.
type SessionSummary struct {
	SessionID      uuid.UUID `json:"session_id"`
	CreatedAt      time.Time `json:"created_at"`
	Status         string    `json:"status"`
	RiskLevel      string    `json:"risk_level"`
	Symptoms       string    `json:"symptoms"`
	VitalSigns     []Reading `json:"vital_signs"`
	AttentionCount int       `json:"attention_count"`
}

type Service struct {
	sessions analysis.SessionRepository
}

func NewService(sessions analysis.SessionRepository) *Service {
	return &Service{sessions: sessions}
}

// LatestVitals classifies the measurements of the patient's most recent
// session. A patient without sessions yields an empty, non-nil reading list.
func (s *Service) LatestVitals(ctx context.Context, patientID uuid.UUID) (*PatientVitals, error) {
	out := &PatientVitals{PatientID: patientID, VitalSigns: []Reading{}}

	sess, err := s.sessions.LatestByPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return out, nil
	}

	label := status.Label(sess.Status)
	out.SessionID = &sess.ID
	out.RecordedAt = &sess.CreatedAt
	out.Status = &label
	out.VitalSigns = ClassifyAll(FromSession(sess))
	out.AttentionCount = AttentionCount(out.VitalSigns)
	return out, nil
}

// History lists the patient's sessions newest first with classified
// session-level measurements.
func (s *Service) History(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]SessionSummary, int, error) {
	sessions, total, err := s.sessions.ListByPatient(ctx, patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	items := make([]SessionSummary, 0, len(sessions))
	for _, sess := range sessions {
		readings := ClassifyAll(FromSession(sess))
		sum := SessionSummary{
			SessionID:      sess.ID,
			CreatedAt:      sess.CreatedAt,
			Status:         status.Label(sess.Status),
			RiskLevel:      risk.Parse(sess.RiskLevel()).Label(),
			VitalSigns:     readings,
			AttentionCount: AttentionCount(readings),
		}
		if sess.Symptoms != nil {
			sum.Symptoms = *sess.Symptoms
		}
		items = append(items, sum)
	}
	return items, total, nil
}
