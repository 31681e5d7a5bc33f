package api

import (
	"database/sql"
	"errors"
	"net/http"

	"log/slog"
)

// The canvas endpoints back the polling UI: five independent reads, each
// scoped to the authenticated caller. They answer `{success, data}` so the
// front end can branch on one field.

// canvasScope resolves the caller and the investigation id, writing the
// error response itself when either is missing.
func (a *API) canvasScope(w http.ResponseWriter, r *http.Request) (invID, userID string, ok bool) {
	claims := a.auth.ExtractClaims(r)
	if claims == nil {
		jsonError(w, "authentication required", http.StatusUnauthorized)
		return "", "", false
	}
	return r.PathValue("id"), claims.UserID, true
}

func canvasData(w http.ResponseWriter, data any) {
	jsonResp(w, http.StatusOK, map[string]any{"success": true, "data": data})
}

func canvasNotFound(w http.ResponseWriter) {
	jsonResp(w, http.StatusNotFound, map[string]any{
		"success": false,
		"error":   "investigation not found",
	})
}

func canvasError(w http.ResponseWriter, what string, err error) {
	if errors.Is(err, sql.ErrNoRows) {
		canvasNotFound(w)
		return
	}
	slog.Error(what, "error", err)
	jsonResp(w, http.StatusInternalServerError, map[string]any{
		"success": false,
		"error":   "internal error",
	})
}

func (a *API) handleCanvasSummary(w http.ResponseWriter, r *http.Request) {
	invID, userID, ok := a.canvasScope(w, r)
	if !ok {
		return
	}
	summary, bias, err := a.db.CanvasSummary(invID, userID)
	if err != nil {
		canvasError(w, "reading summary", err)
		return
	}
	canvasData(w, map[string]any{
		"summary":            summary,
		"overall_bias_score": bias,
	})
}

func (a *API) handleCanvasSources(w http.ResponseWriter, r *http.Request) {
	invID, userID, ok := a.canvasScope(w, r)
	if !ok {
		return
	}
	sources, err := a.db.CanvasSources(invID, userID)
	if err != nil {
		canvasError(w, "reading sources", err)
		return
	}
	canvasData(w, sources)
}

func (a *API) handleCanvasClaims(w http.ResponseWriter, r *http.Request) {
	invID, userID, ok := a.canvasScope(w, r)
	if !ok {
		return
	}
	claims, err := a.db.CanvasClaims(invID, userID)
	if err != nil {
		canvasError(w, "reading claims", err)
		return
	}
	canvasData(w, claims)
}

func (a *API) handleCanvasFactChecks(w http.ResponseWriter, r *http.Request) {
	invID, userID, ok := a.canvasScope(w, r)
	if !ok {
		return
	}
	factChecks, err := a.db.CanvasFactChecks(invID, userID)
	if err != nil {
		canvasError(w, "reading fact checks", err)
		return
	}
	canvasData(w, factChecks)
}

func (a *API) handleCanvasTimeline(w http.ResponseWriter, r *http.Request) {
	invID, userID, ok := a.canvasScope(w, r)
	if !ok {
		return
	}
	events, err := a.db.CanvasTimeline(invID, userID)
	if err != nil {
		canvasError(w, "reading timeline", err)
		return
	}
	canvasData(w, events)
}
