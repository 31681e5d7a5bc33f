package api

import (
	"fmt"
	"math"
	"net/url"
	"time"

	"github.com/hazyhaar/inquest/internal/db"
)

// Callback event types emitted by the external agent.
const (
	EventSourceFound           = "SOURCE_FOUND"
	EventClaimExtracted        = "CLAIM_EXTRACTED"
	EventFactChecked           = "FACT_CHECKED"
	EventBiasAnalyzed          = "BIAS_ANALYZED"
	EventTimelineEvent         = "TIMELINE_EVENT"
	EventSummaryUpdated        = "SUMMARY_UPDATED"
	EventInvestigationComplete = "INVESTIGATION_COMPLETE"
	EventInvestigationStarted  = "INVESTIGATION_STARTED"
	EventInvestigationPartial  = "INVESTIGATION_PARTIAL"
	EventInvestigationFailed   = "INVESTIGATION_FAILED"
)

var knownCallbackTypes = map[string]bool{
	EventSourceFound:           true,
	EventClaimExtracted:        true,
	EventFactChecked:           true,
	EventBiasAnalyzed:          true,
	EventTimelineEvent:         true,
	EventSummaryUpdated:        true,
	EventInvestigationComplete: true,
	EventInvestigationStarted:  true,
	EventInvestigationPartial:  true,
	EventInvestigationFailed:   true,
}

// violations accumulates field-level validation failures so a rejected
// callback names every problem at once, not just the first.
type violations []string

func (v *violations) add(field, problem string) {
	*v = append(*v, field+": "+problem)
}

func (v *violations) addf(field, format string, args ...any) {
	v.add(field, fmt.Sprintf(format, args...))
}

// formatScore renders a score with the two-decimal precision the store keeps.
func formatScore(f float64) string {
	return fmt.Sprintf("%.2f", f)
}

func checkUUID(v *violations, field, val string) {
	if val == "" {
		v.add(field, "required")
		return
	}
	if !db.ValidID(val) {
		v.add(field, "must be a valid UUID")
	}
}

func checkOptionalUUID(v *violations, field string, val *string) {
	if val != nil && !db.ValidID(*val) {
		v.add(field, "must be a valid UUID")
	}
}

// --- SOURCE_FOUND ---

type sourceFoundData struct {
	URL              string   `json:"url"`
	Title            *string  `json:"title"`
	ContentSnippet   *string  `json:"content_snippet"`
	Summary          *string  `json:"summary"` // agent-side alias for content_snippet
	KeyClaims        []string `json:"key_claims"`
	CredibilityScore *float64 `json:"credibility_score"`
	IsUserProvided   *bool    `json:"is_user_provided"`
}

func (d *sourceFoundData) validate(v *violations) {
	if d.URL == "" {
		v.add("data.url", "required")
	} else if u, err := url.Parse(d.URL); err != nil || u.Scheme == "" || u.Host == "" {
		v.add("data.url", "must be a valid URL")
	}
	if s := d.CredibilityScore; s != nil {
		if *s != math.Trunc(*s) {
			v.add("data.credibility_score", "must be an integer")
		} else if *s < 1 || *s > 5 {
			v.addf("data.credibility_score", "must be between 1 and 5, got %g", *s)
		}
	}
}

// snippet prefers content_snippet and falls back to the summary alias.
func (d *sourceFoundData) snippet() *string {
	if d.ContentSnippet != nil {
		return d.ContentSnippet
	}
	return d.Summary
}

func (d *sourceFoundData) userProvided() bool {
	return d.IsUserProvided != nil && *d.IsUserProvided
}

// --- CLAIM_EXTRACTED ---

type claimExtractedData struct {
	ClaimText string   `json:"claim_text"`
	SourceIDs []string `json:"source_ids"`
}

func (d *claimExtractedData) validate(v *violations) {
	if d.ClaimText == "" {
		v.add("data.claim_text", "required")
	}
	for i, id := range d.SourceIDs {
		if !db.ValidID(id) {
			v.addf(fmt.Sprintf("data.source_ids[%d]", i), "must be a valid UUID")
		}
	}
}

// --- FACT_CHECKED ---

type factCheckedData struct {
	ClaimID      string  `json:"claim_id"`
	SourceID     *string `json:"source_id"`
	EvidenceType string  `json:"evidence_type"`
	EvidenceText string  `json:"evidence_text"`
}

func (d *factCheckedData) validate(v *violations) {
	checkUUID(v, "data.claim_id", d.ClaimID)
	checkOptionalUUID(v, "data.source_id", d.SourceID)
	switch d.EvidenceType {
	case "supporting", "contradicting":
	case "":
		v.add("data.evidence_type", "required")
	default:
		v.addf("data.evidence_type", "must be 'supporting' or 'contradicting', got %q", d.EvidenceType)
	}
	if d.EvidenceText == "" {
		v.add("data.evidence_text", "required")
	}
}

// --- BIAS_ANALYZED ---

type biasAnalyzedData struct {
	SourceID  string   `json:"source_id"`
	BiasScore *float64 `json:"bias_score"`
}

func (d *biasAnalyzedData) validate(v *violations) {
	checkUUID(v, "data.source_id", d.SourceID)
	if d.BiasScore == nil {
		v.add("data.bias_score", "required")
	} else if *d.BiasScore < 0 || *d.BiasScore > 10 {
		v.addf("data.bias_score", "must be between 0 and 10, got %g", *d.BiasScore)
	}
}

// --- TIMELINE_EVENT ---

type timelineEventData struct {
	EventDate string   `json:"event_date"`
	EventText string   `json:"event_text"`
	SourceID  *string  `json:"source_id"`
	SourceIDs []string `json:"source_ids"`
}

// eventDateLayouts accepts full datetimes or bare dates from the agent.
var eventDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseEventDate(s string) (time.Time, error) {
	for _, layout := range eventDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

func (d *timelineEventData) validate(v *violations) {
	if d.EventDate == "" {
		v.add("data.event_date", "required")
	} else if _, err := parseEventDate(d.EventDate); err != nil {
		v.add("data.event_date", "must be a date or datetime")
	}
	if d.EventText == "" {
		v.add("data.event_text", "required")
	}
	checkOptionalUUID(v, "data.source_id", d.SourceID)
	for i, id := range d.SourceIDs {
		if !db.ValidID(id) {
			v.addf(fmt.Sprintf("data.source_ids[%d]", i), "must be a valid UUID")
		}
	}
}

// resolvedSource picks the event's source: the singular field wins over the
// array, the array's first element is the fallback, else none.
func (d *timelineEventData) resolvedSource() *string {
	if d.SourceID != nil {
		return d.SourceID
	}
	if len(d.SourceIDs) > 0 {
		return &d.SourceIDs[0]
	}
	return nil
}

// --- SUMMARY_UPDATED / INVESTIGATION_COMPLETE / INVESTIGATION_PARTIAL ---

type summaryData struct {
	Summary          string   `json:"summary"`
	PartialReason    string   `json:"partial_reason"`
	OverallBiasScore *float64 `json:"overall_bias_score"`
}

func (d *summaryData) validate(v *violations, requireReason bool) {
	if d.Summary == "" {
		v.add("data.summary", "required")
	}
	if requireReason && d.PartialReason == "" {
		v.add("data.partial_reason", "required")
	}
	if s := d.OverallBiasScore; s != nil && (*s < 0 || *s > 5) {
		v.addf("data.overall_bias_score", "must be between 0 and 5, got %g", *s)
	}
}

// biasText renders the aggregate score with the two-decimal precision the
// store expects, or nil when the agent sent none.
func (d *summaryData) biasText() *string {
	if d.OverallBiasScore == nil {
		return nil
	}
	s := formatScore(*d.OverallBiasScore)
	return &s
}

// --- INVESTIGATION_FAILED ---

type investigationFailedData struct {
	ErrorMessage string `json:"error_message"`
}

func (d *investigationFailedData) validate(v *violations) {
	if d.ErrorMessage == "" {
		v.add("data.error_message", "required")
	}
}
