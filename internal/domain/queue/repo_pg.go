package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ruralcare/telehealth/internal/platform/db"
)

type queueRepoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &queueRepoPG{pool: pool} }

func (r *queueRepoPG) conn(ctx context.Context) db.Querier {
	if q := db.QuerierFromContext(ctx); q != nil {
		return q
	}
	return r.pool
}

func (r *queueRepoPG) ActiveHealthCenters(ctx context.Context, specialistID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT health_center_id FROM specialist_assignments
		 WHERE specialist_id = $1 AND active
		 ORDER BY health_center_id`, specialistID)
	if err != nil {
		return nil, fmt.Errorf("assignments for specialist %s: %w", specialistID, err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan assignment: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// candidateQuery keeps the most recent eligible session per patient. The
// filter predicates here are the only ones the queue and its summary use.
const candidateQuery = `
SELECT DISTINCT ON (s.patient_id)
	s.patient_id, s.id, p.first_name, p.last_name, p.date_of_birth, p.gender,
	hc.name, s.status, s.ai_risk_level, s.symptoms, s.created_at, s.updated_at
FROM analysis_sessions s
JOIN patients p ON p.id = s.patient_id
JOIN health_centers hc ON hc.id = p.health_center_id
WHERE p.health_center_id = ANY($1::uuid[])
  AND lower(s.status) = ANY($2)
  AND s.created_at >= $3
ORDER BY s.patient_id, s.created_at DESC, s.id DESC`

func (r *queueRepoPG) Candidates(ctx context.Context, centerIDs []uuid.UUID, since time.Time) ([]Candidate, error) {
	ids := make([]string, len(centerIDs))
	for i, id := range centerIDs {
		ids[i] = id.String()
	}
	rows, err := r.conn(ctx).Query(ctx, candidateQuery, ids, EligibleStatuses, since)
	if err != nil {
		return nil, fmt.Errorf("queue candidates: %w", err)
	}
	defer rows.Close()

	var out []Candidate
	for rows.Next() {
		var c Candidate
		if err := rows.Scan(&c.PatientID, &c.SessionID, &c.FirstName, &c.LastName,
			&c.DateOfBirth, &c.Gender, &c.HealthCenterName, &c.Status,
			&c.AIRiskLevel, &c.Symptoms, &c.SubmittedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan queue candidate: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
