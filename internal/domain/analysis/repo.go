package analysis

import (
	"context"

	"github.com/google/uuid"
)

type SessionRepository interface {
	// LatestByPatient returns the most recently created session with its
	// structured vital-sign rows, or (nil, nil) when the patient has none.
	LatestByPatient(ctx context.Context, patientID uuid.UUID) (*Session, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Session, int, error)
}
