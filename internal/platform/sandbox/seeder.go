// Package sandbox generates reproducible synthetic triage data for demo and
// development databases: health centers, patients, analysis sessions with
// measurements, and specialist assignments.
package sandbox

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ruralcare/telehealth/internal/platform/db"
)

// SeedConfig controls the volume and shape of generated data.
type SeedConfig struct {
	Centers            int
	PatientsPerCenter  int
	SessionsPerPatient int
	// SpecialistID, when set, is assigned to every generated center.
	SpecialistID uuid.UUID
	// WindowDays spreads session timestamps over the trailing window.
	WindowDays int
	Seed       int64
}

func DefaultSeedConfig() SeedConfig {
	return SeedConfig{
		Centers:            3,
		PatientsPerCenter:  10,
		SessionsPerPatient: 2,
		WindowDays:         30,
	}
}

type HealthCenter struct {
	ID     uuid.UUID
	Name   string
	Region string
}

type Patient struct {
	ID             uuid.UUID
	HealthCenterID uuid.UUID
	FirstName      string
	LastName       string
	DateOfBirth    time.Time
	Gender         string
}

type VitalSign struct {
	ID         uuid.UUID
	Type       string
	Value      string
	Unit       string
	RecordedAt time.Time
}

type Session struct {
	ID                uuid.UUID
	PatientID         uuid.UUID
	Status            string
	AIRiskLevel       *string
	HeartRate         *string
	RespiratoryRate   *string
	OxygenSaturation  *string
	HRVSDNN           *string
	Notes             *string
	Symptoms          *string
	ConsensusFindings []byte
	CreatedAt         time.Time
	VitalSigns        []VitalSign
}

// Dataset is one generated batch, ready to be loaded.
type Dataset struct {
	Centers      []HealthCenter
	Patients     []Patient
	Sessions     []Session
	SpecialistID uuid.UUID
}

var (
	centerNames   = []string{"Kigoma Rural Clinic", "Mbeya Highlands Post", "Tabora Community Centre", "Lindi Coastal Dispensary", "Songea District Outreach"}
	regions       = []string{"Western", "Southern Highlands", "Central", "Coastal", "Southern"}
	firstNames    = []string{"Amara", "Baraka", "Chausiku", "Daudi", "Esther", "Faraji", "Grace", "Hamisi", "Imani", "Juma", "Kesi", "Lulu"}
	lastNames     = []string{"Mwangi", "Okafor", "Diallo", "Nyerere", "Banda", "Kamau", "Moyo", "Phiri", "Otieno", "Mensah"}
	riskLevels    = []string{"CRITICAL", "HIGH", "MEDIUM", "LOW", "moderate", ""}
	statuses      = []string{"processing", "processing", "completed", "healthy", "attention_needed"}
	symptomsPool  = []string{"persistent cough", "chest tightness", "dizziness on standing", "shortness of breath", "fatigue and headache", "palpitations"}
	consensusPool = []string{
		`{"final_consensus":{"clinical_findings":[{"finding":"Possible early-stage hypertension","category":"cardiovascular","severity":"moderate","confidence":0.84}]}}`,
		`{"final_consensus":{"clinical_findings":[]},"dashboard_format":{"clinical_findings":[{"finding":"Wheezing suggestive of reactive airway disease","category":"respiratory","confidence":78,"specialist":"Pulmonology"}]}}`,
		`{"final_consensus":"pending"}`,
	}
)

// Generator produces deterministic synthetic records.
type Generator struct {
	rng *rand.Rand
	now time.Time
}

// NewGenerator returns a generator seeded for reproducibility. A zero seed is
// replaced by a time-based one.
func NewGenerator(seed int64, now time.Time) *Generator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Generator{rng: rand.New(rand.NewSource(seed)), now: now}
}

func (g *Generator) id() uuid.UUID {
	id, err := uuid.NewRandomFromReader(g.rng)
	if err != nil {
		// math/rand never fails to read.
		panic(err)
	}
	return id
}

func (g *Generator) pick(pool []string) string {
	return pool[g.rng.Intn(len(pool))]
}

func (g *Generator) chance(p float64) bool {
	return g.rng.Float64() < p
}

func (g *Generator) between(lo, hi float64, decimals int) string {
	v := lo + g.rng.Float64()*(hi-lo)
	return fmt.Sprintf("%.*f", decimals, v)
}

func ptr(s string) *string { return &s }

func (g *Generator) Center(i int) HealthCenter {
	return HealthCenter{
		ID:     g.id(),
		Name:   centerNames[i%len(centerNames)],
		Region: regions[i%len(regions)],
	}
}

func (g *Generator) Patient(centerID uuid.UUID) Patient {
	gender := "female"
	if g.chance(0.5) {
		gender = "male"
	}
	dob := time.Date(1940+g.rng.Intn(70), time.Month(1+g.rng.Intn(12)), 1+g.rng.Intn(28), 0, 0, 0, 0, time.UTC)
	return Patient{
		ID:             g.id(),
		HealthCenterID: centerID,
		FirstName:      g.pick(firstNames),
		LastName:       g.pick(lastNames),
		DateOfBirth:    dob,
		Gender:         gender,
	}
}

// Session generates one analysis session somewhere in the trailing window.
// Roughly a third carry a consensus artifact, one of which is unreadable, and
// half carry structured vital-sign rows alongside the session columns.
func (g *Generator) Session(patientID uuid.UUID, windowDays int) Session {
	if windowDays < 1 {
		windowDays = 1
	}
	created := g.now.Add(-time.Duration(g.rng.Int63n(int64(windowDays) * int64(24*time.Hour))))
	s := Session{
		ID:               g.id(),
		PatientID:        patientID,
		Status:           g.pick(statuses),
		HeartRate:        ptr(g.between(48, 128, 0)),
		RespiratoryRate:  ptr(g.between(10, 26, 0)),
		OxygenSaturation: ptr(g.between(88, 100, 0)),
		Symptoms:         ptr(g.pick(symptomsPool)),
		CreatedAt:        created,
	}
	if lvl := g.pick(riskLevels); lvl != "" {
		s.AIRiskLevel = ptr(lvl)
	}
	if g.chance(0.6) {
		s.HRVSDNN = ptr(g.between(15, 70, 1))
	}
	if g.chance(0.5) {
		s.Notes = ptr("Temp: " + g.between(35.8, 39.4, 1) + "°C, reported at intake")
	}
	if g.chance(0.35) {
		s.ConsensusFindings = []byte(g.pick(consensusPool))
	}
	if g.chance(0.5) {
		s.VitalSigns = []VitalSign{
			{ID: g.id(), Type: "heart_rate", Value: g.between(52, 120, 0), Unit: "bpm", RecordedAt: created},
			{ID: g.id(), Type: "temperature", Value: g.between(35.8, 39.0, 1), Unit: "°C", RecordedAt: created},
		}
	}
	return s
}

// Generate builds a full dataset according to cfg.
func Generate(cfg SeedConfig, now time.Time) *Dataset {
	g := NewGenerator(cfg.Seed, now)
	ds := &Dataset{SpecialistID: cfg.SpecialistID}
	for i := 0; i < cfg.Centers; i++ {
		c := g.Center(i)
		ds.Centers = append(ds.Centers, c)
		for j := 0; j < cfg.PatientsPerCenter; j++ {
			p := g.Patient(c.ID)
			ds.Patients = append(ds.Patients, p)
			for k := 0; k < cfg.SessionsPerPatient; k++ {
				ds.Sessions = append(ds.Sessions, g.Session(p.ID, cfg.WindowDays))
			}
		}
	}
	return ds
}

// Load writes ds in a single transaction.
func Load(ctx context.Context, b db.TxBeginner, ds *Dataset) error {
	tx, err := b.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin seed: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, c := range ds.Centers {
		batch.Queue(`INSERT INTO health_centers (id, name, region) VALUES ($1, $2, $3)`, c.ID, c.Name, c.Region)
		if ds.SpecialistID != uuid.Nil {
			batch.Queue(`INSERT INTO specialist_assignments (specialist_id, health_center_id, active)
				VALUES ($1, $2, TRUE) ON CONFLICT (specialist_id, health_center_id) DO UPDATE SET active = TRUE`,
				ds.SpecialistID, c.ID)
		}
	}
	for _, p := range ds.Patients {
		batch.Queue(`INSERT INTO patients (id, health_center_id, first_name, last_name, date_of_birth, gender)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			p.ID, p.HealthCenterID, p.FirstName, p.LastName, p.DateOfBirth, p.Gender)
	}
	for _, s := range ds.Sessions {
		var consensus any
		if len(s.ConsensusFindings) > 0 {
			consensus = json.RawMessage(s.ConsensusFindings)
		}
		batch.Queue(`INSERT INTO analysis_sessions (id, patient_id, status, ai_risk_level,
				heart_rate, respiratory_rate, oxygen_saturation, hrv_sdnn,
				notes, symptoms, consensus_findings, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5::numeric, $6::numeric, $7::numeric, $8::numeric, $9, $10, $11, $12, $12)`,
			s.ID, s.PatientID, s.Status, s.AIRiskLevel,
			s.HeartRate, s.RespiratoryRate, s.OxygenSaturation, s.HRVSDNN,
			s.Notes, s.Symptoms, consensus, s.CreatedAt)
		for _, v := range s.VitalSigns {
			batch.Queue(`INSERT INTO vital_signs (id, session_id, type, value, unit, recorded_at)
				VALUES ($1, $2, $3, $4, $5, $6)`, v.ID, s.ID, v.Type, v.Value, v.Unit, v.RecordedAt)
		}
	}

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert seed data: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit seed: %w", err)
	}
	return nil
}
