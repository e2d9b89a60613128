// Package queue builds a specialist's review queue: one case per patient,
// ranked by AI risk tier and then by how long the case has waited.
package queue

import (
	"time"

	"github.com/google/uuid"
)

// Candidate is the latest eligible analysis session of one patient, as read
// from the store.
type Candidate struct {
	PatientID        uuid.UUID
	SessionID        uuid.UUID
	FirstName        string
	LastName         string
	DateOfBirth      *time.Time
	Gender           *string
	HealthCenterName string
	Status           string
	AIRiskLevel      *string
	Symptoms         *string
	SubmittedAt      time.Time
	UpdatedAt        time.Time
}

// Item is one ranked queue entry.
type Item struct {
	PatientID        uuid.UUID `json:"patient_id"`
	SessionID        uuid.UUID `json:"session_id"`
	Initials         string    `json:"initials"`
	Age              *int      `json:"age"`
	Gender           string    `json:"gender"`
	HealthCenterName string    `json:"health_center_name"`
	SubmissionTime   time.Time `json:"submission_time"`
	RiskLevel        string    `json:"risk_level"`
	RiskTier         int       `json:"risk_tier"`
	Symptoms         string    `json:"symptoms"`
	WaitTime         string    `json:"wait_time"`
	WaitMinutes      int       `json:"wait_minutes"`
	Status           string    `json:"status"`
}

// Summary holds the dashboard counters. They are derived from the same
// candidate list as the queue, so the two always agree.
type Summary struct {
	TotalCases     int `json:"total_cases"`
	Critical       int `json:"critical"`
	High           int `json:"high"`
	Medium         int `json:"medium"`
	LowOrUnknown   int `json:"low_or_unknown"`
	AwaitingReview int `json:"awaiting_review"`
	CompletedToday int `json:"completed_today"`
}

// Queue is one specialist's ranked cases together with the counters derived
// from the same snapshot. Items is never nil.
type Queue struct {
	Items   []Item
	Summary Summary
}

func emptyQueue() *Queue {
	return &Queue{Items: []Item{}}
}
