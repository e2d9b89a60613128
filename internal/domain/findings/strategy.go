package findings

import (
	"strings"

	"github.com/ruralcare/telehealth/internal/domain/vitals"
)

// input is everything a strategy may read. The artifact is parsed once per
// synthesis; a nil artifact means it was absent or malformed.
type input struct {
	artifact     *artifact
	measurements []vitals.Measurement
}

// strategy produces candidate findings in generation order. An empty result
// passes control to the next strategy.
type strategy struct {
	source Source
	run    func(in input) []Finding
}

// strategies are evaluated in order; the first non-empty result wins.
var strategies = []strategy{
	{source: SourceFinalConsensus, run: fromFinalConsensus},
	{source: SourceDashboardFormat, run: fromDashboardFormat},
	{source: SourceVitalSigns, run: fromVitalSigns},
}

func fromFinalConsensus(in input) []Finding {
	if in.artifact == nil || in.artifact.FinalConsensus == nil {
		return nil
	}
	return convert(in.artifact.FinalConsensus.ClinicalFindings, false)
}

func fromDashboardFormat(in input) []Finding {
	if in.artifact == nil || in.artifact.DashboardFormat == nil {
		return nil
	}
	return convert(in.artifact.DashboardFormat.ClinicalFindings, true)
}

func convert(items []artifactFinding, keepSpecialist bool) []Finding {
	var out []Finding
	for _, item := range items {
		f := item.toFinding(keepSpecialist)
		if f.Description == "" {
			continue
		}
		out = append(out, f)
	}
	return out
}

func fromVitalSigns(in input) []Finding {
	var out []Finding
	for _, r := range vitalRules {
		if r.triggered(in.measurements) {
			out = append(out, r.finding)
		}
	}
	if len(out) == 0 {
		out = append(out, noAcuteAbnormalities)
	}
	return out
}

// synthesize runs the strategy chain, removes repeated descriptions keeping
// the first occurrence, and truncates to limit. Order is generation order.
func synthesize(in input, limit int) ([]Finding, Source) {
	for _, s := range strategies {
		found := dedupe(s.run(in))
		if len(found) == 0 {
			continue
		}
		if limit > 0 && len(found) > limit {
			found = found[:limit]
		}
		return found, s.source
	}
	return []Finding{}, SourceNone
}

func dedupe(in []Finding) []Finding {
	seen := make(map[string]bool, len(in))
	out := in[:0:0]
	for _, f := range in {
		key := strings.ToLower(strings.Join(strings.Fields(f.Description), " "))
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, f)
	}
	return out
}
