package sandbox

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
)

var seedNow = time.Date(2026, 3, 14, 15, 0, 0, 0, time.UTC)

func testConfig() SeedConfig {
	cfg := DefaultSeedConfig()
	cfg.Seed = 42
	return cfg
}

func TestGenerate_Counts(t *testing.T) {
	cfg := testConfig()
	ds := Generate(cfg, seedNow)

	if len(ds.Centers) != cfg.Centers {
		t.Fatalf("expected %d centers, got %d", cfg.Centers, len(ds.Centers))
	}
	wantPatients := cfg.Centers * cfg.PatientsPerCenter
	if len(ds.Patients) != wantPatients {
		t.Fatalf("expected %d patients, got %d", wantPatients, len(ds.Patients))
	}
	if len(ds.Sessions) != wantPatients*cfg.SessionsPerPatient {
		t.Fatalf("expected %d sessions, got %d", wantPatients*cfg.SessionsPerPatient, len(ds.Sessions))
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	a := Generate(testConfig(), seedNow)
	b := Generate(testConfig(), seedNow)

	for i := range a.Sessions {
		if a.Sessions[i].ID != b.Sessions[i].ID {
			t.Fatalf("session %d id differs between runs", i)
		}
		if !a.Sessions[i].CreatedAt.Equal(b.Sessions[i].CreatedAt) {
			t.Fatalf("session %d timestamp differs between runs", i)
		}
	}
	for i := range a.Patients {
		if a.Patients[i] != b.Patients[i] {
			t.Fatalf("patient %d differs between runs", i)
		}
	}
}

func TestGenerate_DifferentSeeds(t *testing.T) {
	cfg := testConfig()
	a := Generate(cfg, seedNow)
	cfg.Seed = 7
	b := Generate(cfg, seedNow)
	if a.Patients[0].ID == b.Patients[0].ID {
		t.Fatal("expected different seeds to produce different ids")
	}
}

func TestGenerate_UniqueIDs(t *testing.T) {
	cfg := testConfig()
	cfg.PatientsPerCenter = 40
	ds := Generate(cfg, seedNow)

	seen := make(map[uuid.UUID]bool)
	check := func(id uuid.UUID) {
		if id == uuid.Nil {
			t.Fatal("generated nil id")
		}
		if seen[id] {
			t.Fatalf("duplicate id %s", id)
		}
		seen[id] = true
	}
	for _, c := range ds.Centers {
		check(c.ID)
	}
	for _, p := range ds.Patients {
		check(p.ID)
	}
	for _, s := range ds.Sessions {
		check(s.ID)
		for _, v := range s.VitalSigns {
			check(v.ID)
		}
	}
}

func TestGenerate_References(t *testing.T) {
	ds := Generate(testConfig(), seedNow)

	centers := make(map[uuid.UUID]bool)
	for _, c := range ds.Centers {
		centers[c.ID] = true
	}
	patients := make(map[uuid.UUID]bool)
	for _, p := range ds.Patients {
		if !centers[p.HealthCenterID] {
			t.Fatalf("patient %s references unknown center", p.ID)
		}
		patients[p.ID] = true
	}
	for _, s := range ds.Sessions {
		if !patients[s.PatientID] {
			t.Fatalf("session %s references unknown patient", s.ID)
		}
	}
}

func TestGenerate_SessionsWithinWindow(t *testing.T) {
	cfg := testConfig()
	ds := Generate(cfg, seedNow)
	earliest := seedNow.Add(-time.Duration(cfg.WindowDays) * 24 * time.Hour)

	for _, s := range ds.Sessions {
		if s.CreatedAt.After(seedNow) || s.CreatedAt.Before(earliest) {
			t.Fatalf("session %s created at %s outside window", s.ID, s.CreatedAt)
		}
	}
}

func TestGenerate_Vocabularies(t *testing.T) {
	cfg := testConfig()
	cfg.PatientsPerCenter = 50
	ds := Generate(cfg, seedNow)

	allowed := map[string]bool{}
	for _, s := range statuses {
		allowed[s] = true
	}
	var withArtifact, withNotes int
	for _, s := range ds.Sessions {
		if !allowed[s.Status] {
			t.Fatalf("unexpected status %q", s.Status)
		}
		if s.HeartRate == nil || s.RespiratoryRate == nil || s.OxygenSaturation == nil {
			t.Fatalf("session %s missing core vitals", s.ID)
		}
		if len(s.ConsensusFindings) > 0 {
			withArtifact++
			if !json.Valid(s.ConsensusFindings) {
				t.Fatalf("session %s has invalid JSON artifact", s.ID)
			}
		}
		if s.Notes != nil {
			withNotes++
		}
	}
	if withArtifact == 0 {
		t.Fatal("expected some sessions with consensus artifacts")
	}
	if withNotes == 0 {
		t.Fatal("expected some sessions with temperature notes")
	}
}

func TestGenerate_NoCenters(t *testing.T) {
	cfg := testConfig()
	cfg.Centers = 0
	ds := Generate(cfg, seedNow)
	if len(ds.Centers) != 0 || len(ds.Patients) != 0 || len(ds.Sessions) != 0 {
		t.Fatal("expected an empty dataset")
	}
}
