package vitals

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ruralcare/telehealth/internal/domain/analysis"
)

// Measurement is one observed vital sign. Parsed is false only for a
// temperature whose raw text is not a number; every other unparseable value
// is dropped before it becomes a Measurement.
type Measurement struct {
	Type   Type
	Value  decimal.Decimal
	Raw    string
	Parsed bool
	Unit   string
}

// Reading is the classified view of a Measurement. Status and range are
// derived on every call.
type Reading struct {
	Type           Type   `json:"type"`
	Value          string `json:"value"`
	Unit           string `json:"unit"`
	Status         Status `json:"status"`
	ReferenceRange string `json:"reference_range"`
}

// Classify derives the Reading for m.
func (m Measurement) Classify() Reading {
	r := Reading{Type: m.Type, Unit: m.Unit}
	if !m.Parsed {
		r.Value = m.Raw
		r.Status = StatusAttention
		r.ReferenceRange = ReferenceRange(m.Type)
		return r
	}
	r.Value = m.Value.Round(1).String()
	r.Status, r.ReferenceRange = Classify(m.Type, m.Value)
	return r
}

// ClassifyAll classifies measurements in order.
func ClassifyAll(ms []Measurement) []Reading {
	out := make([]Reading, 0, len(ms))
	for _, m := range ms {
		out = append(out, m.Classify())
	}
	return out
}

// measurementOrder fixes the order measurements are reported in.
var measurementOrder = []Type{HeartRate, PulseRate, RespiratoryRate, OxygenSaturation, HRVSDNN, Temperature}

var temperatureInNotes = regexp.MustCompile(`(?i)\btemp(?:erature)?\b\s*[:=]?\s*([^\s,;]+)`)

// newMeasurement parses raw for t. ok is false when the value must be
// excluded: empty text, or non-numeric text for any type but temperature.
func newMeasurement(t Type, raw, unit string) (Measurement, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Measurement{}, false
	}
	if unit == "" {
		unit = Unit(t)
	}
	m := Measurement{Type: t, Raw: raw, Unit: unit}
	numeric := strings.TrimSuffix(strings.TrimSuffix(raw, "°C"), "C")
	v, err := decimal.NewFromString(strings.TrimSpace(numeric))
	if err != nil {
		return m, t == Temperature
	}
	m.Value = v
	m.Parsed = true
	return m, true
}

// TemperatureFromNotes extracts a temperature reading from free-text notes,
// e.g. "Temp: 38.2°C, patient reports chills".
func TemperatureFromNotes(notes string) (string, bool) {
	match := temperatureInNotes.FindStringSubmatch(notes)
	if match == nil {
		return "", false
	}
	return strings.TrimSuffix(match[1], "."), true
}

// FromSession collects the measurements captured by a session. A structured
// vital-sign row wins over the session column of the same type, and the most
// recent row wins among rows of the same type. Temperature falls back to the
// session notes. Absent measurements are omitted.
func FromSession(s *analysis.Session) []Measurement {
	if s == nil {
		return nil
	}
	found := make(map[Type]Measurement)

	for _, row := range s.VitalSigns {
		t, ok := ParseType(row.Type)
		if !ok {
			continue
		}
		if _, seen := found[t]; seen {
			continue
		}
		unit := ""
		if row.Unit != nil {
			unit = *row.Unit
		}
		if m, ok := newMeasurement(t, row.Value, unit); ok {
			found[t] = m
		}
	}

	columns := map[Type]*string{
		HeartRate:        s.HeartRate,
		RespiratoryRate:  s.RespiratoryRate,
		OxygenSaturation: s.OxygenSaturation,
		HRVSDNN:          s.HRVSDNN,
	}
	for t, raw := range columns {
		if _, seen := found[t]; seen || raw == nil {
			continue
		}
		if m, ok := newMeasurement(t, *raw, ""); ok {
			found[t] = m
		}
	}

	if _, seen := found[Temperature]; !seen && s.Notes != nil {
		if raw, ok := TemperatureFromNotes(*s.Notes); ok {
			if m, ok := newMeasurement(Temperature, raw, ""); ok {
				found[Temperature] = m
			}
		}
	}

	out := make([]Measurement, 0, len(found))
	for _, t := range measurementOrder {
		if m, ok := found[t]; ok {
			out = append(out, m)
		}
	}
	return out
}

// Value returns the parsed value of the first measurement of type t.
func Value(ms []Measurement, t Type) (decimal.Decimal, bool) {
	for _, m := range ms {
		if m.Type == t && m.Parsed {
			return m.Value, true
		}
	}
	return decimal.Decimal{}, false
}

// AttentionCount counts readings classified as attention.
func AttentionCount(rs []Reading) int {
	n := 0
	for _, r := range rs {
		if r.Status == StatusAttention {
			n++
		}
	}
	return n
}
