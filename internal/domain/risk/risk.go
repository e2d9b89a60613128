// Package risk holds the canonical AI risk level vocabulary shared by the
// findings and queue paths.
package risk

import "strings"

// Level is the canonical AI risk level assigned to an analysis session.
type Level string

const (
	Critical Level = "CRITICAL"
	High     Level = "HIGH"
	Medium   Level = "MEDIUM"
	Low      Level = "LOW"
	Unknown  Level = ""
)

// TierUnranked is the tier of LOW and unknown levels.
const TierUnranked = 4

// Parse translates any upstream risk vocabulary ("CRITICAL", "High",
// "moderate", ...) into a Level. Unrecognized input yields Unknown.
func Parse(raw string) Level {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "CRITICAL", "SEVERE":
		return Critical
	case "HIGH":
		return High
	case "MEDIUM", "MODERATE":
		return Medium
	case "LOW":
		return Low
	default:
		return Unknown
	}
}

// Tier returns the queue ordinal: CRITICAL=1, HIGH=2, MEDIUM=3, anything else 4.
func (l Level) Tier() int {
	switch l {
	case Critical:
		return 1
	case High:
		return 2
	case Medium:
		return 3
	default:
		return TierUnranked
	}
}

// Label is the display string shown to health workers and specialists.
func (l Level) Label() string {
	switch l {
	case Critical:
		return "Critical"
	case High:
		return "High"
	case Medium:
		return "Medium"
	case Low:
		return "Low"
	default:
		return "Unknown"
	}
}

// Known reports whether the level came from a recognized upstream value.
func (l Level) Known() bool {
	return l != Unknown
}

// Ptr returns the canonical string for JSON payloads, nil when unknown.
func (l Level) Ptr() *string {
	if !l.Known() {
		return nil
	}
	s := string(l)
	return &s
}
