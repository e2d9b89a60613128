package findings

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// defaultConfidence applies when an artifact finding omits confidence.
const defaultConfidence = 0.8

// artifact is the structured AI-consensus document stored on a session.
type artifact struct {
	FinalConsensus *struct {
		ClinicalFindings []artifactFinding `json:"clinical_findings"`
	} `json:"final_consensus"`
	DashboardFormat *struct {
		ClinicalFindings []artifactFinding `json:"clinical_findings"`
	} `json:"dashboard_format"`
}

// unnamedFindings counts findings carrying neither finding nor description.
// They never reach the result.
func (a *artifact) unnamedFindings() int {
	if a == nil {
		return 0
	}
	var sections [][]artifactFinding
	if a.FinalConsensus != nil {
		sections = append(sections, a.FinalConsensus.ClinicalFindings)
	}
	if a.DashboardFormat != nil {
		sections = append(sections, a.DashboardFormat.ClinicalFindings)
	}
	n := 0
	for _, items := range sections {
		for _, f := range items {
			if f.description() == "" {
				n++
			}
		}
	}
	return n
}

type artifactFinding struct {
	Finding     string      `json:"finding"`
	Description string      `json:"description"`
	Category    string      `json:"category"`
	Severity    string      `json:"severity"`
	Confidence  *confidence `json:"confidence"`
	Specialist  string      `json:"specialist"`
}

// confidence accepts a JSON number or a numeric string ("0.9", "85", "85%").
type confidence float64

func (c *confidence) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err == nil {
		*c = confidence(f)
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("confidence: %w", err)
	}
	f, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(s), "%"), 64)
	if err != nil {
		return fmt.Errorf("confidence %q: %w", s, err)
	}
	*c = confidence(f)
	return nil
}

// parseArtifact decodes a consensus artifact. A nil artifact with a nil
// error means the session carries none.
func parseArtifact(raw []byte) (*artifact, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	var a artifact
	if err := json.Unmarshal(trimmed, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// NormalizeConfidence rescales an upstream confidence to an integer in
// [0, 100]. Values at or below 1 are fractions; larger values are already
// percentages.
func NormalizeConfidence(v float64) int {
	if math.IsNaN(v) || v <= 0 {
		return 0
	}
	if v <= 1 {
		v *= 100
	}
	if v > 100 {
		v = 100
	}
	return int(math.Round(v))
}

func (f artifactFinding) description() string {
	if d := strings.TrimSpace(f.Finding); d != "" {
		return d
	}
	return strings.TrimSpace(f.Description)
}

// toFinding applies the artifact defaults. keepSpecialist preserves an
// attribution the artifact already carries.
func (f artifactFinding) toFinding(keepSpecialist bool) Finding {
	desc := f.description()
	cat := ParseCategory(f.Category)

	conf := defaultConfidence
	if f.Confidence != nil {
		conf = float64(*f.Confidence)
	}

	specialist := SpecialistDomain(cat)
	if keepSpecialist && strings.TrimSpace(f.Specialist) != "" {
		specialist = strings.TrimSpace(f.Specialist)
	}

	return Finding{
		Description: desc,
		Category:    cat,
		Severity:    ParseSeverity(f.Severity),
		Confidence:  NormalizeConfidence(conf),
		Specialist:  specialist,
	}
}
