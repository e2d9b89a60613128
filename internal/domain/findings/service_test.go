package findings

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ruralcare/telehealth/internal/domain/analysis"
)

func strp(s string) *string { return &s }

func newTestService() *Service {
	return NewService(&mockSessionRepo{}, zerolog.Nop(), 0)
}

func TestSynthesize_ElevatedHeartRate(t *testing.T) {
	sess := &analysis.Session{
		ID:               uuid.New(),
		Status:           "attention_needed",
		HeartRate:        strp("110"),
		RespiratoryRate:  strp("16"),
		OxygenSaturation: strp("97"),
		CreatedAt:        time.Now(),
	}

	res := newTestService().Synthesize(sess)

	require.Len(t, res.ClinicalFindings, 1)
	assert.Equal(t, Finding{
		Description: "Elevated heart rate above normal range",
		Category:    Cardiovascular,
		Severity:    SeverityModerate,
		Confidence:  92,
		Specialist:  "Cardiology AI",
	}, res.ClinicalFindings[0])
	assert.Equal(t, SourceVitalSigns, res.Source)
	require.NotNil(t, res.ScreeningStatus)
	assert.Equal(t, "Urgent Review", *res.ScreeningStatus)
}

func TestSynthesize_AllNormal(t *testing.T) {
	sess := &analysis.Session{
		ID:               uuid.New(),
		Status:           "healthy",
		HeartRate:        strp("72"),
		RespiratoryRate:  strp("14"),
		OxygenSaturation: strp("98"),
		HRVSDNN:          strp("45"),
	}

	res := newTestService().Synthesize(sess)

	require.Len(t, res.ClinicalFindings, 1)
	f := res.ClinicalFindings[0]
	assert.Equal(t, General, f.Category)
	assert.Equal(t, SeverityNormal, f.Severity)
	assert.Equal(t, 95, f.Confidence)
	assert.Equal(t, "General Assessment", f.Specialist)
	assert.Equal(t, "Completed", *res.ScreeningStatus)
}

func TestSynthesize_NoMeasurements(t *testing.T) {
	res := newTestService().Synthesize(&analysis.Session{ID: uuid.New(), Status: "processing"})

	require.Len(t, res.ClinicalFindings, 1)
	assert.Equal(t, noAcuteAbnormalities, res.ClinicalFindings[0])
	assert.Nil(t, res.AIRiskLevel)
}

func TestSynthesize_RuleOrderAndCap(t *testing.T) {
	sess := &analysis.Session{
		ID:               uuid.New(),
		HeartRate:        strp("120"),
		RespiratoryRate:  strp("26"),
		OxygenSaturation: strp("90"),
		HRVSDNN:          strp("18"),
	}

	res := newTestService().Synthesize(sess)

	require.Len(t, res.ClinicalFindings, 3)
	assert.Equal(t, "Elevated heart rate above normal range", res.ClinicalFindings[0].Description)
	assert.Equal(t, "Elevated respiratory rate", res.ClinicalFindings[1].Description)
	assert.Equal(t, "SpO2 below optimal levels", res.ClinicalFindings[2].Description)
	assert.Equal(t, "Pulmonology AI", res.ClinicalFindings[1].Specialist)
}

func TestSynthesize_Bradycardia(t *testing.T) {
	res := newTestService().Synthesize(&analysis.Session{ID: uuid.New(), HeartRate: strp("48")})

	require.Len(t, res.ClinicalFindings, 1)
	assert.Equal(t, "Bradycardia detected", res.ClinicalFindings[0].Description)
	assert.Equal(t, 88, res.ClinicalFindings[0].Confidence)
}

func TestSynthesize_BoundariesAreNormal(t *testing.T) {
	sess := &analysis.Session{
		ID:               uuid.New(),
		HeartRate:        strp("100"),
		RespiratoryRate:  strp("20"),
		OxygenSaturation: strp("95"),
		HRVSDNN:          strp("30"),
	}

	res := newTestService().Synthesize(sess)

	require.Len(t, res.ClinicalFindings, 1)
	assert.Equal(t, General, res.ClinicalFindings[0].Category)
}

func TestSynthesize_FinalConsensus(t *testing.T) {
	sess := &analysis.Session{
		ID:          uuid.New(),
		Status:      "completed",
		AIRiskLevel: strp("high"),
		HeartRate:   strp("130"),
		ConsensusFindings: []byte(`{
			"final_consensus": {"clinical_findings": [
				{"finding": "Possible atrial fibrillation", "category": "cardiovascular", "severity": "severe", "confidence": 0.91, "specialist": "ignored"},
				{"finding": "Mild dehydration", "category": "metabolic", "confidence": 74},
				{"finding": "possible atrial fibrillation ", "category": "cardiovascular"},
				{"finding": "", "category": "neurological"},
				{"finding": "Headache reported", "category": "dermatology", "severity": "mild"},
				{"finding": "Fatigue", "category": "general"}
			]},
			"dashboard_format": {"clinical_findings": [{"finding": "never used"}]}
		}`),
	}

	res := newTestService().Synthesize(sess)

	assert.Equal(t, SourceFinalConsensus, res.Source)
	require.Len(t, res.ClinicalFindings, 3)
	assert.Equal(t, Finding{
		Description: "Possible atrial fibrillation",
		Category:    Cardiovascular,
		Severity:    SeveritySevere,
		Confidence:  91,
		Specialist:  "Cardiology",
	}, res.ClinicalFindings[0])
	assert.Equal(t, Finding{
		Description: "Mild dehydration",
		Category:    Metabolic,
		Severity:    SeverityModerate,
		Confidence:  74,
		Specialist:  "Endocrinology",
	}, res.ClinicalFindings[1])
	assert.Equal(t, General, res.ClinicalFindings[2].Category)
	assert.Equal(t, "Internal Medicine", res.ClinicalFindings[2].Specialist)
	require.NotNil(t, res.AIRiskLevel)
	assert.Equal(t, "HIGH", *res.AIRiskLevel)
}

func TestSynthesize_DashboardFallback(t *testing.T) {
	sess := &analysis.Session{
		ID: uuid.New(),
		ConsensusFindings: []byte(`{
			"final_consensus": {"clinical_findings": []},
			"dashboard_format": {"clinical_findings": [
				{"finding": "Wheezing on exhalation", "category": "respiratory", "confidence": "0.66", "specialist": "Dr. Okafor"},
				{"description": "Irregular gait", "category": "neurological"}
			]}
		}`),
	}

	res := newTestService().Synthesize(sess)

	assert.Equal(t, SourceDashboardFormat, res.Source)
	require.Len(t, res.ClinicalFindings, 2)
	assert.Equal(t, "Dr. Okafor", res.ClinicalFindings[0].Specialist)
	assert.Equal(t, 66, res.ClinicalFindings[0].Confidence)
	assert.Equal(t, "Irregular gait", res.ClinicalFindings[1].Description)
	assert.Equal(t, "Neurology", res.ClinicalFindings[1].Specialist)
	assert.Equal(t, 80, res.ClinicalFindings[1].Confidence)
}

func TestSynthesize_MalformedArtifactFallsBackToVitals(t *testing.T) {
	var logs bytes.Buffer
	svc := NewService(&mockSessionRepo{}, zerolog.New(&logs), 0)
	sess := &analysis.Session{
		ID:                uuid.New(),
		HeartRate:         strp("110"),
		ConsensusFindings: []byte(`{"final_consensus": {"clinical_findings": [{"finding": "secret note"`),
	}

	res := svc.Synthesize(sess)

	assert.Equal(t, SourceVitalSigns, res.Source)
	require.Len(t, res.ClinicalFindings, 1)
	assert.Equal(t, "Elevated heart rate above normal range", res.ClinicalFindings[0].Description)
	assert.Contains(t, logs.String(), sess.ID.String())
	assert.NotContains(t, logs.String(), "secret note")
}

func TestSynthesize_WrongShapeArtifactFallsBack(t *testing.T) {
	sess := &analysis.Session{
		ID:                uuid.New(),
		OxygenSaturation:  strp("91"),
		ConsensusFindings: []byte(`{"final_consensus": "pending"}`),
	}

	res := newTestService().Synthesize(sess)

	assert.Equal(t, SourceVitalSigns, res.Source)
	assert.Equal(t, "SpO2 below optimal levels", res.ClinicalFindings[0].Description)
}

func TestSynthesize_Deterministic(t *testing.T) {
	sess := &analysis.Session{
		ID:                uuid.New(),
		HeartRate:         strp("55"),
		RespiratoryRate:   strp("22"),
		ConsensusFindings: []byte(`{"dashboard_format": {"clinical_findings": []}}`),
	}
	svc := newTestService()
	first := svc.Synthesize(sess)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, svc.Synthesize(sess))
	}
}

func consensusSession(descriptions ...string) *analysis.Session {
	var items []string
	for _, d := range descriptions {
		items = append(items, fmt.Sprintf(`{"finding": %q}`, d))
	}
	return &analysis.Session{
		ID:                uuid.New(),
		ConsensusFindings: []byte(`{"final_consensus": {"clinical_findings": [` + strings.Join(items, ",") + `]}}`),
	}
}

func TestSynthesize_LimitNeverExceedsCap(t *testing.T) {
	sess := consensusSession("finding 0", "finding 1", "finding 2", "finding 3", "finding 4", "finding 5")

	for _, limit := range []int{0, 3, 5, 100} {
		res := NewService(&mockSessionRepo{}, zerolog.Nop(), limit).Synthesize(sess)
		require.Len(t, res.ClinicalFindings, DefaultLimit, "limit %d", limit)
		assert.Equal(t, "finding 2", res.ClinicalFindings[2].Description)
	}
}

func TestSynthesize_TighterLimit(t *testing.T) {
	sess := consensusSession("finding 0", "finding 1", "finding 2")

	res := NewService(&mockSessionRepo{}, zerolog.Nop(), 2).Synthesize(sess)
	require.Len(t, res.ClinicalFindings, 2)
	assert.Equal(t, "finding 1", res.ClinicalFindings[1].Description)
}

func TestSynthesize_DedupeKeepsFirstOccurrence(t *testing.T) {
	res := newTestService().Synthesize(consensusSession("Tachycardia", "tachycardia ", "Cough"))

	require.Len(t, res.ClinicalFindings, 2)
	assert.Equal(t, "Tachycardia", res.ClinicalFindings[0].Description)
	assert.Equal(t, "Cough", res.ClinicalFindings[1].Description)
}

func TestSynthesize_DedupeBeforeCap(t *testing.T) {
	// Duplicates do not use up slots: the fourth distinct finding is kept.
	res := newTestService().Synthesize(consensusSession(
		"Tachycardia", "TACHYCARDIA", "Cough", "  cough", "Fever", "Wheezing",
	))

	require.Len(t, res.ClinicalFindings, 3)
	assert.Equal(t, []string{"Tachycardia", "Cough", "Fever"}, []string{
		res.ClinicalFindings[0].Description,
		res.ClinicalFindings[1].Description,
		res.ClinicalFindings[2].Description,
	})
}

func TestSynthesize_DedupeCollapsesInnerWhitespace(t *testing.T) {
	res := newTestService().Synthesize(consensusSession("Low  oxygen\tsaturation", "low oxygen saturation"))

	require.Len(t, res.ClinicalFindings, 1)
}

func TestSynthesize_LogsSkippedUnnamedFindings(t *testing.T) {
	var logs bytes.Buffer
	svc := NewService(&mockSessionRepo{}, zerolog.New(&logs).Level(zerolog.DebugLevel), 0)
	sess := &analysis.Session{
		ID:        uuid.New(),
		HeartRate: strp("72"),
		ConsensusFindings: []byte(`{"final_consensus": {"clinical_findings": [
			{"category": "cardiovascular", "severity": "severe"},
			{"finding": "  ", "category": "respiratory"}
		]}}`),
	}

	res := svc.Synthesize(sess)

	assert.Equal(t, SourceVitalSigns, res.Source)
	assert.Contains(t, logs.String(), sess.ID.String())
	assert.Contains(t, logs.String(), `"skipped":2`)
}

func TestNormalizeConfidence(t *testing.T) {
	tests := []struct {
		in   float64
		want int
	}{
		{0.85, 85},
		{0.8, 80},
		{1, 100},
		{85, 85},
		{92.6, 93},
		{250, 100},
		{0, 0},
		{-0.5, 0},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.in), func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeConfidence(tt.in))
		})
	}
}

func TestLatestFindings_NoSession(t *testing.T) {
	res, err := newTestService().LatestFindings(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Empty(t, res.ClinicalFindings)
	assert.NotNil(t, res.ClinicalFindings)
	assert.Nil(t, res.AIRiskLevel)
	assert.Nil(t, res.AnalysisDate)
	assert.Nil(t, res.ScreeningStatus)
}

func TestLatestFindings_UsesMostRecentSession(t *testing.T) {
	pid := uuid.New()
	now := time.Now()
	repo := &mockSessionRepo{sessions: []*analysis.Session{
		{ID: uuid.New(), PatientID: pid, HeartRate: strp("130"), CreatedAt: now.Add(-time.Hour)},
		{ID: uuid.New(), PatientID: pid, HeartRate: strp("70"), CreatedAt: now},
	}}

	res, err := NewService(repo, zerolog.Nop(), 0).LatestFindings(context.Background(), pid)
	require.NoError(t, err)
	require.Len(t, res.ClinicalFindings, 1)
	assert.Equal(t, General, res.ClinicalFindings[0].Category)
	require.NotNil(t, res.AnalysisDate)
	assert.True(t, now.Equal(*res.AnalysisDate))
}
