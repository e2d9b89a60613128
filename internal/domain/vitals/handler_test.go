package vitals

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ruralcare/telehealth/internal/domain/analysis"
	"github.com/ruralcare/telehealth/pkg/pagination"
)

type mockSessionRepo struct {
	sessions []*analysis.Session
	err      error
}

func (m *mockSessionRepo) byPatient(patientID uuid.UUID) []*analysis.Session {
	var out []*analysis.Session
	for _, s := range m.sessions {
		if s.PatientID == patientID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (m *mockSessionRepo) LatestByPatient(_ context.Context, patientID uuid.UUID) (*analysis.Session, error) {
	if m.err != nil {
		return nil, m.err
	}
	list := m.byPatient(patientID)
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

func (m *mockSessionRepo) ListByPatient(_ context.Context, patientID uuid.UUID, limit, offset int) ([]*analysis.Session, int, error) {
	if m.err != nil {
		return nil, 0, m.err
	}
	list := m.byPatient(patientID)
	total := len(list)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return list[offset:end], total, nil
}

func newTestHandler(repo *mockSessionRepo) (*Handler, *echo.Echo) {
	return NewHandler(NewService(repo), zerolog.Nop()), echo.New()
}

func patientContext(e *echo.Echo, id, query string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodGet, "/"+query, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(id)
	return c, rec
}

func TestHandler_GetLatestVitals(t *testing.T) {
	pid := uuid.New()
	now := time.Now()
	repo := &mockSessionRepo{sessions: []*analysis.Session{
		{ID: uuid.New(), PatientID: pid, Status: "completed", HeartRate: strp("72"), CreatedAt: now.Add(-48 * time.Hour)},
		{ID: uuid.New(), PatientID: pid, Status: "attention_needed", HeartRate: strp("110"), OxygenSaturation: strp("97"), CreatedAt: now},
	}}
	h, e := newTestHandler(repo)
	c, rec := patientContext(e, pid.String(), "")

	require.NoError(t, h.GetLatestVitals(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var out PatientVitals
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.NotNil(t, out.Status)
	assert.Equal(t, "Urgent Review", *out.Status)
	require.Len(t, out.VitalSigns, 2)
	assert.Equal(t, HeartRate, out.VitalSigns[0].Type)
	assert.Equal(t, "110", out.VitalSigns[0].Value)
	assert.Equal(t, StatusAttention, out.VitalSigns[0].Status)
	assert.Equal(t, "60-100 bpm", out.VitalSigns[0].ReferenceRange)
	assert.Equal(t, 1, out.AttentionCount)
}

func TestHandler_GetLatestVitals_NoSessions(t *testing.T) {
	h, e := newTestHandler(&mockSessionRepo{})
	c, rec := patientContext(e, uuid.New().String(), "")

	require.NoError(t, h.GetLatestVitals(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"vital_signs":[]`)
	assert.Contains(t, rec.Body.String(), `"session_id":null`)
}

func TestHandler_GetLatestVitals_InvalidID(t *testing.T) {
	h, e := newTestHandler(&mockSessionRepo{})
	c, _ := patientContext(e, "not-a-uuid", "")

	err := h.GetLatestVitals(c)
	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadRequest, httpErr.Code)
}

func TestHandler_GetLatestVitals_StoreFailure(t *testing.T) {
	h, e := newTestHandler(&mockSessionRepo{err: errors.New(`relation "analysis_sessions" does not exist`)})
	c, _ := patientContext(e, uuid.New().String(), "")

	err := h.GetLatestVitals(c)
	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusInternalServerError, httpErr.Code)
	assert.False(t, strings.Contains(httpErr.Message.(string), "analysis_sessions"), "store error leaked to caller")
}

func TestHandler_ListAnalyses(t *testing.T) {
	pid := uuid.New()
	now := time.Now()
	var sessions []*analysis.Session
	for i := 0; i < 3; i++ {
		lvl := "HIGH"
		sessions = append(sessions, &analysis.Session{
			ID: uuid.New(), PatientID: pid, Status: "processing", AIRiskLevel: &lvl,
			RespiratoryRate: strp("24"), Symptoms: strp("cough"),
			CreatedAt: now.Add(-time.Duration(i) * time.Hour),
		})
	}
	h, e := newTestHandler(&mockSessionRepo{sessions: sessions})
	c, rec := patientContext(e, pid.String(), "?limit=2")

	require.NoError(t, h.ListAnalyses(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var out pagination.Page[SessionSummary]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, 3, out.Total)
	assert.True(t, out.HasMore)
	require.Len(t, out.Data, 2)
	assert.Equal(t, sessions[0].ID, out.Data[0].SessionID)
	assert.Equal(t, "Processing", out.Data[0].Status)
	assert.Equal(t, "High", out.Data[0].RiskLevel)
	assert.Equal(t, 1, out.Data[0].AttentionCount)
	assert.Equal(t, "cough", out.Data[0].Symptoms)
}

func TestHandler_ListAnalyses_InvalidLimit(t *testing.T) {
	h, e := newTestHandler(&mockSessionRepo{})
	c, _ := patientContext(e, uuid.New().String(), "?limit=-1")

	err := h.ListAnalyses(c)
	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadRequest, httpErr.Code)
}
