package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"log/slog"

	"github.com/hazyhaar/inquest/internal/db"
	"github.com/hazyhaar/inquest/pkg/audit"
)

// callbackEnvelope is the outer shape of every agent callback. The payload
// stays raw until the type is known.
type callbackEnvelope struct {
	Type            string          `json:"type"`
	InvestigationID string          `json:"investigation_id"`
	Data            json.RawMessage `json:"data"`
}

// callbackOutcome is what a per-type handler hands back to the dispatcher.
// Exactly one of violations / warning / ids is meaningful: violations reject
// the request, a warning downgrades a persistence failure to a success
// response, and ids enrich the success body.
type callbackOutcome struct {
	violations violations
	warning    string
	ids        map[string]string
}

func reject(v violations) callbackOutcome { return callbackOutcome{violations: v} }

func degraded(msg string) callbackOutcome { return callbackOutcome{warning: msg} }

func stored(ids map[string]string) callbackOutcome { return callbackOutcome{ids: ids} }

// handleAgentCallback ingests one agent event. Order is fixed: authenticate,
// parse, check the investigation exists, validate the payload, then apply.
// Persistence failures after validation never fail the request; the agent
// must not abort a run because this side hiccuped.
func (a *API) handleAgentCallback(w http.ResponseWriter, r *http.Request) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("agent callback panic", "panic", rec)
			jsonError(w, "internal error", http.StatusInternalServerError)
		}
	}()

	if a.agentSecret == "" || r.Header.Get("X-Agent-Secret") != a.agentSecret {
		jsonError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	var env callbackEnvelope
	if err := json.NewDecoder(r.Body).Decode(&env); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if !knownCallbackTypes[env.Type] {
		jsonError(w, "unknown callback type: "+env.Type, http.StatusBadRequest)
		return
	}

	var envViolations violations
	checkUUID(&envViolations, "investigation_id", env.InvestigationID)
	if len(envViolations) > 0 {
		jsonResp(w, http.StatusBadRequest, map[string]any{
			"error":   "validation failed",
			"details": envViolations,
		})
		return
	}

	// Every event except the start announcement requires the row to exist
	// already; the start event is allowed to create it.
	if env.Type != EventInvestigationStarted {
		if _, err := a.db.GetInvestigation(env.InvestigationID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				jsonError(w, "investigation not found", http.StatusNotFound)
				return
			}
			slog.Error("loading investigation", "error", err, "investigation_id", env.InvestigationID)
			jsonError(w, "internal error", http.StatusInternalServerError)
			return
		}
	}

	start := time.Now()
	out := a.applyCallback(&env)
	a.auditCallback(&env, out, time.Since(start))

	switch {
	case len(out.violations) > 0:
		jsonResp(w, http.StatusBadRequest, map[string]any{
			"error":   "validation failed",
			"details": out.violations,
		})
	case out.warning != "":
		jsonResp(w, http.StatusOK, map[string]any{
			"success": true,
			"warning": out.warning,
		})
	default:
		body := map[string]any{"success": true}
		for k, v := range out.ids {
			body[k] = v
		}
		jsonResp(w, http.StatusOK, body)
	}
}

// applyCallback dispatches on the event type, already known to be valid.
func (a *API) applyCallback(env *callbackEnvelope) callbackOutcome {
	data := env.Data
	if len(data) == 0 {
		data = json.RawMessage(`{}`)
	}

	switch env.Type {
	case EventSourceFound:
		return a.applySourceFound(env.InvestigationID, data)
	case EventClaimExtracted:
		return a.applyClaimExtracted(env.InvestigationID, data)
	case EventFactChecked:
		return a.applyFactChecked(env.InvestigationID, data)
	case EventBiasAnalyzed:
		return a.applyBiasAnalyzed(env.InvestigationID, data)
	case EventTimelineEvent:
		return a.applyTimelineEvent(env.InvestigationID, data)
	case EventSummaryUpdated:
		return a.applySummary(env.InvestigationID, data, summaryProgress)
	case EventInvestigationComplete:
		return a.applySummary(env.InvestigationID, data, summaryComplete)
	case EventInvestigationPartial:
		return a.applySummary(env.InvestigationID, data, summaryPartial)
	case EventInvestigationStarted:
		return a.applyInvestigationStarted(env.InvestigationID)
	case EventInvestigationFailed:
		return a.applyInvestigationFailed(env.InvestigationID, data)
	default:
		// Unreachable: the dispatcher filters unknown types up front.
		return reject(violations{"unknown callback type: " + env.Type})
	}
}

func (a *API) applySourceFound(invID string, data json.RawMessage) callbackOutcome {
	var d sourceFoundData
	if err := json.Unmarshal(data, &d); err != nil {
		return reject(violations{"data: malformed payload"})
	}
	var v violations
	d.validate(&v)
	if len(v) > 0 {
		return reject(v)
	}

	var cred *int
	if d.CredibilityScore != nil {
		c := int(*d.CredibilityScore)
		cred = &c
	}

	id, err := a.db.UpsertSource(db.UpsertSourceInput{
		InvestigationID:  invID,
		URL:              d.URL,
		Title:            d.Title,
		ContentSnippet:   d.snippet(),
		CredibilityScore: cred,
		IsUserProvided:   d.userProvided(),
	})
	if err != nil {
		slog.Error("upserting source", "error", err, "investigation_id", invID, "url", d.URL)
		return degraded("failed to save source")
	}
	return stored(map[string]string{"source_id": id})
}

func (a *API) applyClaimExtracted(invID string, data json.RawMessage) callbackOutcome {
	var d claimExtractedData
	if err := json.Unmarshal(data, &d); err != nil {
		return reject(violations{"data: malformed payload"})
	}
	var v violations
	d.validate(&v)
	if len(v) > 0 {
		return reject(v)
	}

	claim, err := a.db.CreateClaim(invID, d.ClaimText, d.SourceIDs)
	if err != nil {
		slog.Error("creating claim", "error", err, "investigation_id", invID)
		return degraded("failed to save claim")
	}
	return stored(map[string]string{"claim_id": claim.ID})
}

func (a *API) applyFactChecked(invID string, data json.RawMessage) callbackOutcome {
	var d factCheckedData
	if err := json.Unmarshal(data, &d); err != nil {
		return reject(violations{"data: malformed payload"})
	}
	var v violations
	d.validate(&v)
	if len(v) > 0 {
		return reject(v)
	}

	if _, err := a.db.GetClaim(d.ClaimID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return degraded("claim not found, fact check skipped")
		}
		slog.Error("loading claim", "error", err, "claim_id", d.ClaimID)
		return degraded("failed to save fact check")
	}

	// An explicit source wins; otherwise fall back to the claim's first
	// linked source. Evidence with no attributable source is skipped rather
	// than stored dangling.
	sourceID := ""
	if d.SourceID != nil {
		sourceID = *d.SourceID
	} else {
		sid, err := a.db.FirstLinkedSource(d.ClaimID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return degraded("no source available for fact check, skipped")
			}
			slog.Error("resolving fact check source", "error", err, "claim_id", d.ClaimID)
			return degraded("failed to save fact check")
		}
		sourceID = sid
	}

	fc, err := a.db.ApplyFactCheck(d.ClaimID, sourceID, d.EvidenceType, d.EvidenceText)
	if err != nil {
		slog.Error("applying fact check", "error", err, "claim_id", d.ClaimID)
		return degraded("failed to save fact check")
	}
	return stored(map[string]string{"fact_check_id": fc.ID})
}

func (a *API) applyBiasAnalyzed(invID string, data json.RawMessage) callbackOutcome {
	var d biasAnalyzedData
	if err := json.Unmarshal(data, &d); err != nil {
		return reject(violations{"data: malformed payload"})
	}
	var v violations
	d.validate(&v)
	if len(v) > 0 {
		return reject(v)
	}

	score := formatScore(*d.BiasScore)
	if err := a.db.SetBiasScore(d.SourceID, score); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return degraded("source not found, bias score skipped")
		}
		slog.Error("setting bias score", "error", err, "source_id", d.SourceID)
		return degraded("failed to save bias score")
	}
	return stored(nil)
}

func (a *API) applyTimelineEvent(invID string, data json.RawMessage) callbackOutcome {
	var d timelineEventData
	if err := json.Unmarshal(data, &d); err != nil {
		return reject(violations{"data: malformed payload"})
	}
	var v violations
	d.validate(&v)
	if len(v) > 0 {
		return reject(v)
	}

	when, err := parseEventDate(d.EventDate)
	if err != nil {
		return reject(violations{"data.event_date: must be a date or datetime"})
	}

	ev, err := a.db.InsertTimelineEvent(invID, when, d.EventText, d.resolvedSource())
	if err != nil {
		slog.Error("inserting timeline event", "error", err, "investigation_id", invID)
		return degraded("failed to save timeline event")
	}
	return stored(map[string]string{"event_id": ev.ID})
}

type summaryKind int

const (
	summaryProgress summaryKind = iota
	summaryComplete
	summaryPartial
)

func (a *API) applySummary(invID string, data json.RawMessage, kind summaryKind) callbackOutcome {
	var d summaryData
	if err := json.Unmarshal(data, &d); err != nil {
		return reject(violations{"data: malformed payload"})
	}
	var v violations
	d.validate(&v, kind == summaryPartial)
	if len(v) > 0 {
		return reject(v)
	}

	var err error
	switch kind {
	case summaryComplete:
		err = a.db.Complete(invID, d.Summary, d.biasText())
	case summaryPartial:
		err = a.db.MarkPartial(invID, d.Summary, d.PartialReason, d.biasText())
	default:
		err = a.db.SetSummary(invID, d.Summary, d.biasText())
	}
	if err != nil {
		slog.Error("updating summary", "error", err, "investigation_id", invID)
		return degraded("failed to save summary")
	}
	return stored(nil)
}

// applyInvestigationStarted handles both orderings of run startup: the row
// already exists (UI created it, then triggered the agent) or the agent
// announced a run this side has never seen, in which case a minimal row is
// created under the oldest account.
func (a *API) applyInvestigationStarted(invID string) callbackOutcome {
	_, err := a.db.GetInvestigation(invID)
	switch {
	case err == nil:
		if err := a.db.MarkStarted(invID); err != nil {
			slog.Error("marking investigation started", "error", err, "investigation_id", invID)
			return degraded("failed to update investigation")
		}
		return stored(nil)
	case errors.Is(err, sql.ErrNoRows):
		owner, err := a.db.OldestUser()
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return reject(violations{"no user exists to own the investigation"})
			}
			slog.Error("selecting bootstrap owner", "error", err)
			return degraded("failed to create investigation")
		}
		if _, err := a.db.BootstrapInvestigation(invID, owner.ID); err != nil {
			slog.Error("bootstrapping investigation", "error", err, "investigation_id", invID)
			return degraded("failed to create investigation")
		}
		return stored(nil)
	default:
		slog.Error("loading investigation", "error", err, "investigation_id", invID)
		return degraded("failed to update investigation")
	}
}

func (a *API) applyInvestigationFailed(invID string, data json.RawMessage) callbackOutcome {
	var d investigationFailedData
	if err := json.Unmarshal(data, &d); err != nil {
		return reject(violations{"data: malformed payload"})
	}
	var v violations
	d.validate(&v)
	if len(v) > 0 {
		return reject(v)
	}

	slog.Error("agent run failed", "investigation_id", invID, "agent_error", d.ErrorMessage)
	if err := a.db.MarkFailed(invID); err != nil {
		slog.Error("marking investigation failed", "error", err, "investigation_id", invID)
		return degraded("failed to update investigation")
	}
	return stored(nil)
}

// auditCallback records the callback in the audit trail. Best effort; the
// response never waits on it.
func (a *API) auditCallback(env *callbackEnvelope, out callbackOutcome, elapsed time.Duration) {
	if a.audit == nil {
		return
	}
	entry := &audit.Entry{
		Action:          env.Type,
		InvestigationID: env.InvestigationID,
		Parameters:      string(env.Data),
		DurationMs:      elapsed.Milliseconds(),
		Warning:         out.warning,
	}
	if len(out.violations) > 0 {
		entry.Error = "validation failed: " + out.violations[0]
	} else if len(out.ids) > 0 {
		b, _ := json.Marshal(out.ids)
		entry.Result = string(b)
	}
	a.audit.LogAsync(entry)
}
