// Package status maps internal screening and session status codes to the
// labels rendered by every surface that shows triage state.
package status

import "strings"

// Internal status codes written by the upstream analysis pipeline.
const (
	CodeProcessing      = "processing"
	CodeCompleted       = "completed"
	CodeHealthy         = "healthy"
	CodeAttentionNeeded = "attention_needed"
)

// Display labels. Every input resolves to exactly one of these.
const (
	LabelCompleted    = "Completed"
	LabelUrgentReview = "Urgent Review"
	LabelProcessing   = "Processing"
)

var labels = map[string]string{
	CodeCompleted:       LabelCompleted,
	CodeHealthy:         LabelCompleted,
	CodeAttentionNeeded: LabelUrgentReview,
	CodeProcessing:      LabelProcessing,
}

// Label resolves a status code to its display label. Unrecognized codes,
// including the empty string, resolve to LabelProcessing.
func Label(code string) string {
	if l, ok := labels[Normalize(code)]; ok {
		return l
	}
	return LabelProcessing
}

// Normalize lower-cases and trims a status code so "Completed " and
// "completed" compare equal.
func Normalize(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}
