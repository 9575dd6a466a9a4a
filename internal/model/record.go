// Package model defines the prospect and outreach records that flow
// through the scoring pipeline.
package model

import "time"

// RecordKind distinguishes the two record shapes the pipeline accepts.
type RecordKind string

const (
	KindProspect RecordKind = "prospect"
	KindOutreach RecordKind = "outreach"
)

// Prospect is one company row from the pipeline sheet.
type Prospect struct {
	ID       string `json:"id"`
	Company  string `json:"company"`
	Industry string `json:"industry"`
	Contact  string `json:"contact,omitempty"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
	ZipCode  string `json:"zip_code,omitempty"`
	Stage    string `json:"stage,omitempty"`
	Notes    string `json:"notes,omitempty"`
}

// Outreach is one logged contact attempt against a prospect.
// Company is the identity key linking it back to the prospect row.
type Outreach struct {
	ID          string    `json:"id"`
	Company     string    `json:"company"`
	Outcome     string    `json:"outcome"`
	ContactDate time.Time `json:"contact_date"`
	Notes       string    `json:"notes,omitempty"`
}

// Derived holds every field the scorer computes. All values are a pure
// function of the raw record, the outreach history, and the settings
// snapshot in effect.
type Derived struct {
	LastOutcome      string     `json:"last_outcome,omitempty"`
	LastContactDate  *time.Time `json:"last_contact_date,omitempty"`
	DaysSinceContact *int       `json:"days_since_contact,omitempty"`
	NextStepDate     time.Time  `json:"next_step_date"`
	Countdown        int        `json:"countdown"`
	Status           string     `json:"status"`
	PriorityScore    int        `json:"priority_score"`
	UrgencyBand      string     `json:"urgency_band"`
	UrgencyScore     float64    `json:"urgency_score"`
	TotalScore       float64    `json:"total_score"`
	FollowUpAction   string     `json:"follow_up_action"`
}

// ScoredRecord is a prospect together with its computed fields.
type ScoredRecord struct {
	Prospect Prospect  `json:"prospect"`
	Derived  Derived   `json:"derived"`
	ScoredAt time.Time `json:"scored_at"`
}
