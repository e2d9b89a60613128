package queue

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	"github.com/ruralcare/telehealth/internal/domain/risk"
	"github.com/ruralcare/telehealth/internal/domain/status"
)

// WaitMinutes is the whole minutes elapsed since submittedAt, rounded and
// never negative.
func WaitMinutes(now, submittedAt time.Time) int {
	m := math.Round(now.Sub(submittedAt).Minutes())
	if m < 0 {
		return 0
	}
	return int(m)
}

// FormatWait renders a wait for display: "42 min", "3h 05m", "2d 4h".
func FormatWait(minutes int) string {
	switch {
	case minutes < 60:
		return fmt.Sprintf("%d min", minutes)
	case minutes < 24*60:
		return fmt.Sprintf("%dh %02dm", minutes/60, minutes%60)
	default:
		return fmt.Sprintf("%dd %dh", minutes/(24*60), (minutes%(24*60))/60)
	}
}

// Initials returns the upper-cased first letters of the given names.
func Initials(first, last string) string {
	var b strings.Builder
	for _, name := range []string{first, last} {
		for _, r := range strings.TrimSpace(name) {
			b.WriteRune(unicode.ToUpper(r))
			break
		}
	}
	return b.String()
}

// Age is the age in whole years at now, or nil without a date of birth.
func Age(dob *time.Time, now time.Time) *int {
	if dob == nil {
		return nil
	}
	years := now.Year() - dob.Year()
	if now.Month() < dob.Month() || (now.Month() == dob.Month() && now.Day() < dob.Day()) {
		years--
	}
	if years < 0 {
		years = 0
	}
	return &years
}

func toItem(c Candidate, now time.Time) Item {
	level := risk.Parse(deref(c.AIRiskLevel))
	wait := WaitMinutes(now, c.SubmittedAt)
	return Item{
		PatientID:        c.PatientID,
		SessionID:        c.SessionID,
		Initials:         Initials(c.FirstName, c.LastName),
		Age:              Age(c.DateOfBirth, now),
		Gender:           deref(c.Gender),
		HealthCenterName: c.HealthCenterName,
		SubmissionTime:   c.SubmittedAt,
		RiskLevel:        level.Label(),
		RiskTier:         level.Tier(),
		Symptoms:         deref(c.Symptoms),
		WaitTime:         FormatWait(wait),
		WaitMinutes:      wait,
		Status:           status.Label(c.Status),
	}
}

// LatestPerPatient keeps one candidate per patient: the latest submission,
// with the greater session id winning a timestamp tie. First-seen order of
// patients is preserved.
func LatestPerPatient(candidates []Candidate) []Candidate {
	idx := make(map[uuid.UUID]int, len(candidates))
	out := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		i, seen := idx[c.PatientID]
		if !seen {
			idx[c.PatientID] = len(out)
			out = append(out, c)
			continue
		}
		if newer(c, out[i]) {
			out[i] = c
		}
	}
	return out
}

func newer(a, b Candidate) bool {
	if !a.SubmittedAt.Equal(b.SubmittedAt) {
		return a.SubmittedAt.After(b.SubmittedAt)
	}
	return a.SessionID.String() > b.SessionID.String()
}

// Rank converts candidates to queue items and orders them by risk tier
// ascending, then wait descending. Patient id breaks any remaining tie so the
// order is total.
func Rank(candidates []Candidate, now time.Time) []Item {
	items := make([]Item, 0, len(candidates))
	for _, c := range candidates {
		items = append(items, toItem(c, now))
	}
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.RiskTier != b.RiskTier {
			return a.RiskTier < b.RiskTier
		}
		if a.WaitMinutes != b.WaitMinutes {
			return a.WaitMinutes > b.WaitMinutes
		}
		return a.PatientID.String() < b.PatientID.String()
	})
	return items
}

// Summarize counts the candidates. completed_today counts completed sessions
// last updated on now's calendar day.
func Summarize(candidates []Candidate, now time.Time) Summary {
	var s Summary
	y, m, d := now.Date()
	for _, c := range candidates {
		s.TotalCases++
		switch risk.Parse(deref(c.AIRiskLevel)) {
		case risk.Critical:
			s.Critical++
		case risk.High:
			s.High++
		case risk.Medium:
			s.Medium++
		default:
			s.LowOrUnknown++
		}
		switch status.Label(c.Status) {
		case status.LabelProcessing:
			s.AwaitingReview++
		case status.LabelCompleted:
			uy, um, ud := c.UpdatedAt.In(now.Location()).Date()
			if uy == y && um == m && ud == d {
				s.CompletedToday++
			}
		}
	}
	return s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
