package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"log/slog"

	"github.com/hazyhaar/inquest/internal/agent"
	"github.com/hazyhaar/inquest/internal/db"
)

var validModes = map[string]bool{
	"quick":    true,
	"detailed": true,
}

func (a *API) handleCreateInvestigation(w http.ResponseWriter, r *http.Request) {
	claims := a.auth.ExtractClaims(r)
	if claims == nil {
		jsonError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	var req struct {
		Title   string   `json:"title"`
		Brief   string   `json:"brief"`
		Mode    string   `json:"mode"`
		Sources []string `json:"sources"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	req.Title = strings.TrimSpace(req.Title)
	req.Brief = strings.TrimSpace(req.Brief)
	if req.Title == "" || req.Brief == "" {
		jsonError(w, "title and brief are required", http.StatusBadRequest)
		return
	}
	if req.Mode == "" {
		req.Mode = "quick"
	}
	if !validModes[req.Mode] {
		jsonError(w, "mode must be 'quick' or 'detailed'", http.StatusBadRequest)
		return
	}

	inv, err := a.db.CreateInvestigation(db.CreateInvestigationInput{
		UserID:    claims.UserID,
		SessionID: db.NewSessionID(),
		Title:     req.Title,
		Brief:     req.Brief,
		Mode:      req.Mode,
	})
	if err != nil {
		slog.Error("creating investigation", "error", err)
		jsonError(w, "internal error", http.StatusInternalServerError)
		return
	}

	// User-supplied starting points go in before the agent runs, so its
	// first SOURCE_FOUND for the same URL folds into the existing row.
	for _, u := range req.Sources {
		u = strings.TrimSpace(u)
		if u == "" {
			continue
		}
		if _, err := a.db.UpsertSource(db.UpsertSourceInput{
			InvestigationID: inv.ID,
			URL:             u,
			IsUserProvided:  true,
		}); err != nil {
			slog.Error("saving user source", "error", err, "investigation_id", inv.ID, "url", u)
		}
	}

	// Fire and forget: the row is committed, a trigger failure only logs.
	go func(in agent.RunInput) {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := a.agent.TriggerRun(ctx, in); err != nil {
			slog.Error("triggering agent run", "error", err, "investigation_id", in.InvestigationID)
		}
	}(agent.RunInput{
		InvestigationID: inv.ID,
		UserID:          inv.UserID,
		SessionID:       inv.SessionID,
		Brief:           inv.Brief,
		Mode:            inv.Mode,
	})

	jsonResp(w, http.StatusCreated, inv)
}

func (a *API) handleListInvestigations(w http.ResponseWriter, r *http.Request) {
	claims := a.auth.ExtractClaims(r)
	if claims == nil {
		jsonError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	list, err := a.db.ListInvestigationsByUser(claims.UserID)
	if err != nil {
		slog.Error("listing investigations", "error", err)
		jsonError(w, "internal error", http.StatusInternalServerError)
		return
	}
	if list == nil {
		list = []*db.Investigation{}
	}
	jsonResp(w, http.StatusOK, list)
}

func (a *API) handleGetInvestigation(w http.ResponseWriter, r *http.Request) {
	claims := a.auth.ExtractClaims(r)
	if claims == nil {
		jsonError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	inv, err := a.db.GetInvestigationForUser(r.PathValue("id"), claims.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			jsonError(w, "investigation not found", http.StatusNotFound)
			return
		}
		slog.Error("loading investigation", "error", err)
		jsonError(w, "internal error", http.StatusInternalServerError)
		return
	}
	jsonResp(w, http.StatusOK, inv)
}

func (a *API) handleDeleteInvestigation(w http.ResponseWriter, r *http.Request) {
	claims := a.auth.ExtractClaims(r)
	if claims == nil {
		jsonError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	deleted, err := a.db.DeleteInvestigation(r.PathValue("id"), claims.UserID)
	if err != nil {
		slog.Error("deleting investigation", "error", err)
		jsonError(w, "internal error", http.StatusInternalServerError)
		return
	}
	if !deleted {
		jsonError(w, "investigation not found", http.StatusNotFound)
		return
	}
	jsonResp(w, http.StatusOK, map[string]bool{"success": true})
}
