package db

import "time"

// Investigation is one research run. Status transitions are driven
// exclusively by agent callbacks: pending -> active -> completed|partial|failed.
type Investigation struct {
	ID               string     `json:"id"`
	UserID           string     `json:"user_id"`
	SessionID        string     `json:"session_id"`
	Title            string     `json:"title"`
	Brief            string     `json:"brief"`
	Mode             string     `json:"mode"`
	Status           string     `json:"status"`
	Summary          *string    `json:"summary,omitempty"`
	OverallBiasScore *string    `json:"overall_bias_score,omitempty"`
	PartialReason    *string    `json:"partial_reason,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	StartedAt        *time.Time `json:"started_at,omitempty"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// Source is a URL the agent (or the user) attached to an investigation.
// (investigation_id, url) is unique; duplicate reports update in place.
type Source struct {
	ID               string     `json:"id"`
	InvestigationID  string     `json:"investigation_id"`
	URL              string     `json:"url"`
	Title            *string    `json:"title,omitempty"`
	ContentSnippet   *string    `json:"content_snippet,omitempty"`
	CredibilityScore *int       `json:"credibility_score,omitempty"`
	BiasScore        *string    `json:"bias_score,omitempty"`
	IsUserProvided   bool       `json:"is_user_provided"`
	AnalyzedAt       *time.Time `json:"analyzed_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

// Claim is an atomic assertion extracted from sources. Its status is derived
// from fact-check evidence, never set directly by a caller.
type Claim struct {
	ID              string    `json:"id"`
	InvestigationID string    `json:"investigation_id"`
	ClaimText       string    `json:"claim_text"`
	Status          string    `json:"status"`
	EvidenceCount   int       `json:"evidence_count"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// FactCheck is one piece of evidence for or against a claim. Append-only.
type FactCheck struct {
	ID           string    `json:"id"`
	ClaimID      string    `json:"claim_id"`
	SourceID     string    `json:"source_id"`
	EvidenceType string    `json:"evidence_type"`
	EvidenceText string    `json:"evidence_text"`
	CreatedAt    time.Time `json:"created_at"`
}

// TimelineEvent is one dated event in the investigation's chronology.
type TimelineEvent struct {
	ID              string    `json:"id"`
	InvestigationID string    `json:"investigation_id"`
	EventDate       time.Time `json:"event_date"`
	EventText       string    `json:"event_text"`
	SourceID        *string   `json:"source_id,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// User owns investigations. Identity is local (bcrypt + JWT).
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FullName  *string   `json:"full_name,omitempty"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SourceRef is the slice of a source shown next to fact checks and timeline
// events in the polling views.
type SourceRef struct {
	ID    string  `json:"id"`
	URL   string  `json:"url"`
	Title *string `json:"title,omitempty"`
}

// FactCheckWithSource joins a fact check with its source for display.
type FactCheckWithSource struct {
	FactCheck
	Source *SourceRef `json:"source"`
}

// TimelineEventWithSource joins a timeline event with its source for display.
type TimelineEventWithSource struct {
	TimelineEvent
	Source *SourceRef `json:"source"`
}
