package findings

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ruralcare/telehealth/internal/domain/analysis"
	"github.com/ruralcare/telehealth/internal/domain/risk"
	"github.com/ruralcare/telehealth/internal/domain/status"
	"github.com/ruralcare/telehealth/internal/domain/vitals"
	"github.com/ruralcare/telehealth/internal/platform/metrics"
)

type Service struct {
	sessions analysis.SessionRepository
	logger   zerolog.Logger
	limit    int
}

// NewService builds a findings service. limit may tighten the cap below
// DefaultLimit but never raise it; a non-positive limit uses DefaultLimit.
func NewService(sessions analysis.SessionRepository, logger zerolog.Logger, limit int) *Service {
	if limit <= 0 || limit > DefaultLimit {
		limit = DefaultLimit
	}
	return &Service{
		sessions: sessions,
		logger:   logger.With().Str("component", "findings").Logger(),
		limit:    limit,
	}
}

// LatestFindings synthesizes findings for the patient's most recent analysis
// session. A patient without sessions gets an empty result with null
// metadata.
func (s *Service) LatestFindings(ctx context.Context, patientID uuid.UUID) (*Result, error) {
	sess, err := s.sessions.LatestByPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		metrics.ObserveFindings(string(SourceNone))
		return emptyResult(), nil
	}

	res := s.Synthesize(sess)
	metrics.ObserveFindings(string(res.Source))
	return res, nil
}

// Synthesize derives the findings for one session. It is deterministic for a
// given session and never fails: a malformed consensus artifact is logged and
// skipped in favour of the vital-sign rules.
func (s *Service) Synthesize(sess *analysis.Session) *Result {
	in := input{measurements: vitals.FromSession(sess)}
	if sess.HasConsensus() {
		a, err := parseArtifact(sess.ConsensusFindings)
		if err != nil {
			metrics.ObserveArtifactFailure()
			s.logger.Warn().Err(err).
				Str("session_id", sess.ID.String()).
				Msg("consensus artifact unreadable, falling back to vital signs")
		}
		in.artifact = a
		if n := a.unnamedFindings(); n > 0 {
			s.logger.Debug().
				Str("session_id", sess.ID.String()).
				Int("skipped", n).
				Msg("consensus findings without a description skipped")
		}
	}

	found, source := synthesize(in, s.limit)

	screening := status.Label(sess.Status)
	date := sess.CreatedAt
	return &Result{
		ClinicalFindings: found,
		AIRiskLevel:      risk.Parse(sess.RiskLevel()).Ptr(),
		AnalysisDate:     &date,
		ScreeningStatus:  &screening,
		Source:           source,
	}
}
