package analysis

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ruralcare/telehealth/internal/platform/db"
)

type sessionRepoPG struct{ pool *pgxpool.Pool }

func NewSessionRepoPG(pool *pgxpool.Pool) SessionRepository { return &sessionRepoPG{pool: pool} }

func (r *sessionRepoPG) conn(ctx context.Context) db.Querier {
	if q := db.QuerierFromContext(ctx); q != nil {
		return q
	}
	return r.pool
}

const sessionCols = `id, patient_id, status, ai_risk_level,
	heart_rate::text, respiratory_rate::text, oxygen_saturation::text, hrv_sdnn::text,
	notes, symptoms, consensus_findings, created_at, updated_at`

func scanSession(row pgx.Row) (*Session, error) {
	var s Session
	err := row.Scan(&s.ID, &s.PatientID, &s.Status, &s.AIRiskLevel,
		&s.HeartRate, &s.RespiratoryRate, &s.OxygenSaturation, &s.HRVSDNN,
		&s.Notes, &s.Symptoms, &s.ConsensusFindings, &s.CreatedAt, &s.UpdatedAt)
	return &s, err
}

func (r *sessionRepoPG) LatestByPatient(ctx context.Context, patientID uuid.UUID) (*Session, error) {
	s, err := scanSession(r.conn(ctx).QueryRow(ctx,
		`SELECT `+sessionCols+` FROM analysis_sessions
		 WHERE patient_id = $1 ORDER BY created_at DESC, id DESC LIMIT 1`, patientID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest session for patient %s: %w", patientID, err)
	}

	vitals, err := r.vitalSigns(ctx, s.ID)
	if err != nil {
		return nil, err
	}
	s.VitalSigns = vitals
	return s, nil
}

func (r *sessionRepoPG) vitalSigns(ctx context.Context, sessionID uuid.UUID) ([]VitalRow, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT type, value, unit, recorded_at FROM vital_signs
		 WHERE session_id = $1 ORDER BY recorded_at DESC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("vital signs for session %s: %w", sessionID, err)
	}
	defer rows.Close()

	var items []VitalRow
	for rows.Next() {
		var v VitalRow
		if err := rows.Scan(&v.Type, &v.Value, &v.Unit, &v.RecordedAt); err != nil {
			return nil, fmt.Errorf("scan vital sign: %w", err)
		}
		items = append(items, v)
	}
	return items, rows.Err()
}

func (r *sessionRepoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Session, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM analysis_sessions WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count sessions: %w", err)
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+sessionCols+` FROM analysis_sessions
		 WHERE patient_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3`, patientID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var items []*Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan session: %w", err)
		}
		items = append(items, s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}
