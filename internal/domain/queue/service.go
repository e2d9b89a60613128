package queue

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ruralcare/telehealth/internal/platform/db"
	"github.com/ruralcare/telehealth/internal/platform/metrics"
)

// DefaultWindowDays is the trailing window of submissions a queue covers.
const DefaultWindowDays = 30

type Service struct {
	repo     Repository
	snapshot db.SnapshotFunc
	window   time.Duration
	now      func() time.Time
	logger   zerolog.Logger
}

type Option func(*Service)

// WithClock overrides the time source used for windows and waits.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithWindowDays sets the trailing submission window. Values below one day
// are ignored.
func WithWindowDays(days int) Option {
	return func(s *Service) {
		if days >= 1 {
			s.window = time.Duration(days) * 24 * time.Hour
		}
	}
}

// NewService builds a queue service. Every build reads assignments and
// candidates through snapshot so both see one point in time.
func NewService(repo Repository, snapshot db.SnapshotFunc, logger zerolog.Logger, opts ...Option) *Service {
	s := &Service{
		repo:     repo,
		snapshot: snapshot,
		window:   DefaultWindowDays * 24 * time.Hour,
		now:      time.Now,
		logger:   logger.With().Str("component", "queue").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Build returns the ranked queue and its summary for a specialist. A
// specialist without active assignments gets an empty queue and zero
// counters.
func (s *Service) Build(ctx context.Context, specialistID uuid.UUID) (*Queue, error) {
	start := time.Now()
	now := s.now()

	var candidates []Candidate
	err := s.snapshot(ctx, func(ctx context.Context) error {
		centers, err := s.repo.ActiveHealthCenters(ctx, specialistID)
		if err != nil || len(centers) == 0 {
			return err
		}
		candidates, err = s.repo.Candidates(ctx, centers, now.Add(-s.window))
		return err
	})
	if err != nil {
		metrics.ObserveQueueBuild(time.Since(start), metrics.OutcomeError, 0)
		return nil, err
	}

	candidates = LatestPerPatient(candidates)
	q := emptyQueue()
	if len(candidates) > 0 {
		q.Items = Rank(candidates, now)
		q.Summary = Summarize(candidates, now)
	}
	metrics.ObserveQueueBuild(time.Since(start), metrics.OutcomeSuccess, len(q.Items))
	s.logger.Debug().
		Str("specialist_id", specialistID.String()).
		Int("cases", len(q.Items)).
		Msg("queue built")
	return q, nil
}
