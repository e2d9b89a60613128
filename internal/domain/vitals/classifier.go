// Package vitals classifies captured vital signs against fixed clinical
// reference ranges.
package vitals

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Type identifies a kind of vital-sign measurement.
type Type string

const (
	HeartRate        Type = "heart_rate"
	PulseRate        Type = "pulse_rate"
	RespiratoryRate  Type = "respiratory_rate"
	OxygenSaturation Type = "oxygen_saturation"
	Temperature      Type = "temperature"
	HRVSDNN          Type = "hrv_sdnn"
)

// Status is the classification of a single measurement.
type Status string

const (
	StatusNormal    Status = "normal"
	StatusAttention Status = "attention"
)

// threshold is an inclusive normal range. A nil bound is open.
type threshold struct {
	min  *decimal.Decimal
	max  *decimal.Decimal
	unit string
}

func bound(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

var thresholds = map[Type]threshold{
	HeartRate:        {min: bound("60"), max: bound("100"), unit: "bpm"},
	PulseRate:        {min: bound("60"), max: bound("100"), unit: "bpm"},
	RespiratoryRate:  {min: bound("12"), max: bound("20"), unit: "breaths/min"},
	OxygenSaturation: {min: bound("95"), max: bound("100"), unit: "%"},
	Temperature:      {min: bound("35.5"), max: bound("37.5"), unit: "°C"},
	HRVSDNN:          {min: bound("30"), unit: "ms"},
}

// ParseType maps a stored type code (case-insensitive, a few common aliases
// accepted) to a Type. ok is false for types with no reference range.
func ParseType(raw string) (Type, bool) {
	code := strings.ToLower(strings.TrimSpace(raw))
	switch code {
	case "spo2", "o2_saturation":
		code = string(OxygenSaturation)
	case "hr":
		code = string(HeartRate)
	case "rr":
		code = string(RespiratoryRate)
	case "hrv", "sdnn":
		code = string(HRVSDNN)
	case "temp":
		code = string(Temperature)
	}
	t := Type(code)
	_, ok := thresholds[t]
	return t, ok
}

// Unit returns the canonical unit for t.
func Unit(t Type) string {
	return thresholds[t].unit
}

// ReferenceRange renders the normal range for t, e.g. "60-100 bpm".
func ReferenceRange(t Type) string {
	th, ok := thresholds[t]
	if !ok {
		return ""
	}
	sep := " "
	if th.unit == "%" || th.unit == "°C" {
		sep = ""
	}
	switch {
	case th.min != nil && th.max != nil:
		return th.min.String() + "-" + th.max.String() + sep + th.unit
	case th.min != nil:
		return "≥ " + th.min.String() + sep + th.unit
	case th.max != nil:
		return "≤ " + th.max.String() + sep + th.unit
	}
	return ""
}

// Classify returns the status and reference range text of value for t.
// Bounds are inclusive. Types without a reference range are reported normal.
func Classify(t Type, value decimal.Decimal) (Status, string) {
	th, ok := thresholds[t]
	if !ok {
		return StatusNormal, ""
	}
	if th.min != nil && value.LessThan(*th.min) {
		return StatusAttention, ReferenceRange(t)
	}
	if th.max != nil && value.GreaterThan(*th.max) {
		return StatusAttention, ReferenceRange(t)
	}
	return StatusNormal, ReferenceRange(t)
}
