package findings

import (
	"github.com/shopspring/decimal"

	"github.com/ruralcare/telehealth/internal/domain/vitals"
)

// vitalRule adds at most one finding when its measurement crosses a limit.
type vitalRule struct {
	measure vitals.Type
	above   *decimal.Decimal
	below   *decimal.Decimal
	finding Finding
}

func (r vitalRule) triggered(ms []vitals.Measurement) bool {
	v, ok := vitals.Value(ms, r.measure)
	if !ok {
		return false
	}
	if r.above != nil && v.GreaterThan(*r.above) {
		return true
	}
	return r.below != nil && v.LessThan(*r.below)
}

func bound(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func aiAttributed(c Category) string {
	return SpecialistDomain(c) + " AI"
}

// vitalRules are evaluated in this order: heart rate, respiratory rate,
// SpO2, HRV.
var vitalRules = []vitalRule{
	{
		measure: vitals.HeartRate,
		above:   bound("100"),
		finding: Finding{
			Description: "Elevated heart rate above normal range",
			Category:    Cardiovascular,
			Severity:    SeverityModerate,
			Confidence:  92,
			Specialist:  aiAttributed(Cardiovascular),
		},
	},
	{
		measure: vitals.HeartRate,
		below:   bound("60"),
		finding: Finding{
			Description: "Bradycardia detected",
			Category:    Cardiovascular,
			Severity:    SeverityModerate,
			Confidence:  88,
			Specialist:  aiAttributed(Cardiovascular),
		},
	},
	{
		measure: vitals.RespiratoryRate,
		above:   bound("20"),
		finding: Finding{
			Description: "Elevated respiratory rate",
			Category:    Respiratory,
			Severity:    SeverityModerate,
			Confidence:  85,
			Specialist:  aiAttributed(Respiratory),
		},
	},
	{
		measure: vitals.OxygenSaturation,
		below:   bound("95"),
		finding: Finding{
			Description: "SpO2 below optimal levels",
			Category:    Respiratory,
			Severity:    SeverityModerate,
			Confidence:  90,
			Specialist:  aiAttributed(Respiratory),
		},
	},
	{
		measure: vitals.HRVSDNN,
		below:   bound("30"),
		finding: Finding{
			Description: "Reduced heart rate variability indicating potential cardiac stress",
			Category:    Cardiovascular,
			Severity:    SeverityMild,
			Confidence:  82,
			Specialist:  aiAttributed(Cardiovascular),
		},
	},
}

var noAcuteAbnormalities = Finding{
	Description: "Clinical assessment completed with no acute abnormalities detected",
	Category:    General,
	Severity:    SeverityNormal,
	Confidence:  95,
	Specialist:  generalAssessment,
}
