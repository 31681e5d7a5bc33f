package api

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"regexp"
	"strings"
	"time"

	"log/slog"

	"github.com/hazyhaar/inquest/internal/agent"
	"github.com/hazyhaar/inquest/internal/auth"
	"github.com/hazyhaar/inquest/internal/db"
	"github.com/hazyhaar/inquest/pkg/audit"
)

// emailRe is a permissive sanity check; real verification is out of scope.
var emailRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// maxBodySize is the maximum HTTP body size for JSON endpoints.
const maxBodySize = 1024 * 1024 // 1MB

type API struct {
	db          *db.DB
	auth        *auth.Auth
	agent       *agent.Client
	audit       audit.Logger
	agentSecret string

	// createLimiter throttles investigation creation; each creation fans
	// out into an agent run.
	createLimiter *RateLimiter
}

func New(database *db.DB, a *auth.Auth, agentClient *agent.Client, agentSecret string) *API {
	return &API{
		db:            database,
		auth:          a,
		agent:         agentClient,
		agentSecret:   agentSecret,
		createLimiter: NewRateLimiter(10, 60*time.Second),
	}
}

// SetAuditLogger sets the audit trail sink for callback processing.
func (a *API) SetAuditLogger(l audit.Logger) {
	a.audit = l
}

func (a *API) RegisterRoutes(mux *http.ServeMux) {
	// Auth
	mux.HandleFunc("POST /api/register", a.handleRegister)
	mux.HandleFunc("POST /api/login", a.handleLogin)
	mux.HandleFunc("GET /api/me", a.handleGetMe)

	// Agent callback (shared-secret, not JWT)
	mux.HandleFunc("POST /api/agent-callback", a.handleAgentCallback)

	// Investigation lifecycle
	mux.HandleFunc("POST /api/investigations", RateLimitMiddleware(a.createLimiter, a.handleCreateInvestigation))
	mux.HandleFunc("GET /api/investigations", a.handleListInvestigations)
	mux.HandleFunc("GET /api/investigations/{id}", a.handleGetInvestigation)
	mux.HandleFunc("DELETE /api/investigations/{id}", a.handleDeleteInvestigation)

	// Canvas polling reads
	mux.HandleFunc("GET /api/investigations/{id}/summary", a.handleCanvasSummary)
	mux.HandleFunc("GET /api/investigations/{id}/sources", a.handleCanvasSources)
	mux.HandleFunc("GET /api/investigations/{id}/claims", a.handleCanvasClaims)
	mux.HandleFunc("GET /api/investigations/{id}/fact-checks", a.handleCanvasFactChecks)
	mux.HandleFunc("GET /api/investigations/{id}/timeline", a.handleCanvasTimeline)
}

// --- Auth ---

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string  `json:"email"`
		FullName *string `json:"full_name"`
		Password string  `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Email == "" || req.Password == "" {
		jsonError(w, "email and password are required", http.StatusBadRequest)
		return
	}
	if !emailRe.MatchString(req.Email) {
		jsonError(w, "invalid email address", http.StatusBadRequest)
		return
	}
	if len(req.Password) < 8 {
		jsonError(w, "password must be at least 8 characters", http.StatusBadRequest)
		return
	}

	hash, err := a.auth.HashPassword(req.Password)
	if err != nil {
		jsonError(w, "internal error", http.StatusInternalServerError)
		return
	}

	user, err := a.db.CreateUser(db.CreateUserInput{
		Email:        req.Email,
		FullName:     req.FullName,
		PasswordHash: hash,
	})
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			jsonError(w, "email already registered", http.StatusConflict)
			return
		}
		slog.Error("creating user", "error", err)
		jsonError(w, "internal error", http.StatusInternalServerError)
		return
	}

	token, err := a.auth.GenerateToken(user.ID, user.Email)
	if err != nil {
		jsonError(w, "internal error", http.StatusInternalServerError)
		return
	}

	jsonResp(w, http.StatusCreated, map[string]interface{}{
		"user":  user,
		"token": token,
	})
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	user, passwordHash, err := a.db.GetUserByEmail(req.Email)
	if err != nil {
		jsonError(w, "invalid credentials", http.StatusUnauthorized)
		return
	}

	if !a.auth.CheckPassword(passwordHash, req.Password) {
		jsonError(w, "invalid credentials", http.StatusUnauthorized)
		return
	}

	token, err := a.auth.GenerateToken(user.ID, user.Email)
	if err != nil {
		jsonError(w, "internal error", http.StatusInternalServerError)
		return
	}

	jsonResp(w, http.StatusOK, map[string]interface{}{
		"user":  user,
		"token": token,
	})
}

func (a *API) handleGetMe(w http.ResponseWriter, r *http.Request) {
	claims := a.auth.ExtractClaims(r)
	if claims == nil {
		jsonError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	user, err := a.db.GetUserByID(claims.UserID)
	if err != nil {
		if err == sql.ErrNoRows {
			jsonError(w, "user not found", http.StatusNotFound)
			return
		}
		jsonError(w, "internal error", http.StatusInternalServerError)
		return
	}

	jsonResp(w, http.StatusOK, user)
}

// --- Helpers ---

func jsonResp(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func jsonError(w http.ResponseWriter, msg string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
