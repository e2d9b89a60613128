package queue

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// EligibleStatuses are the session states a queue candidate may be in.
var EligibleStatuses = []string{"processing", "completed"}

type Repository interface {
	// ActiveHealthCenters lists the centers the specialist is actively
	// assigned to.
	ActiveHealthCenters(ctx context.Context, specialistID uuid.UUID) ([]uuid.UUID, error)
	// Candidates returns the latest eligible session per patient registered
	// at one of centerIDs and submitted at or after since.
	Candidates(ctx context.Context, centerIDs []uuid.UUID, since time.Time) ([]Candidate, error)
}
