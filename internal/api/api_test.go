package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/hazyhaar/inquest/internal/agent"
	"github.com/hazyhaar/inquest/internal/auth"
	"github.com/hazyhaar/inquest/internal/db"
)

const testAgentSecret = "test-agent-secret"

type testEnv struct {
	api  *API
	mux  *http.ServeMux
	db   *db.DB
	auth *auth.Auth
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	database, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	a := auth.New("test-jwt-secret", 60)
	apiHandler := New(database, a, agent.New(""), testAgentSecret)
	mux := http.NewServeMux()
	apiHandler.RegisterRoutes(mux)

	return &testEnv{api: apiHandler, mux: mux, db: database, auth: a}
}

// registerUser creates a user through the API and returns its id and token.
func (e *testEnv) registerUser(t *testing.T, email string) (userID, token string) {
	t.Helper()
	rec := e.doJSON(t, "POST", "/api/register", "", map[string]any{
		"email":    email,
		"password": "password123",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register %s: status %d, body %s", email, rec.Code, rec.Body.String())
	}
	var resp struct {
		User  db.User `json:"user"`
		Token string  `json:"token"`
	}
	decodeBody(t, rec, &resp)
	return resp.User.ID, resp.Token
}

// createInvestigation creates an investigation for the given token.
func (e *testEnv) createInvestigation(t *testing.T, token string) *db.Investigation {
	t.Helper()
	rec := e.doJSON(t, "POST", "/api/investigations", token, map[string]any{
		"title": "Test Investigation",
		"brief": "What actually happened?",
		"mode":  "quick",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create investigation: status %d, body %s", rec.Code, rec.Body.String())
	}
	var inv db.Investigation
	decodeBody(t, rec, &inv)
	return &inv
}

// callback posts an agent callback with the shared secret.
func (e *testEnv) callback(t *testing.T, typ, invID string, data any) *httptest.ResponseRecorder {
	t.Helper()
	body := map[string]any{"type": typ, "investigation_id": invID}
	if data != nil {
		body["data"] = data
	}
	b, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshaling callback: %v", err)
	}
	req := httptest.NewRequest("POST", "/api/agent-callback", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Agent-Secret", testAgentSecret)
	rec := httptest.NewRecorder()
	e.mux.ServeHTTP(rec, req)
	return rec
}

// mustCallback posts a callback and fails the test unless it succeeds with no
// warning. Returns the decoded response body.
func (e *testEnv) mustCallback(t *testing.T, typ, invID string, data any) map[string]any {
	t.Helper()
	rec := e.callback(t, typ, invID, data)
	if rec.Code != http.StatusOK {
		t.Fatalf("%s callback: status %d, body %s", typ, rec.Code, rec.Body.String())
	}
	resp := decodeMap(t, rec)
	if resp["success"] != true {
		t.Fatalf("%s callback: expected success, got %s", typ, rec.Body.String())
	}
	if w, ok := resp["warning"]; ok {
		t.Fatalf("%s callback: unexpected warning %q", typ, w)
	}
	return resp
}

func (e *testEnv) doJSON(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encoding body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.mux.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("decoding response %s: %v", rec.Body.String(), err)
	}
}

func decodeMap(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	decodeBody(t, rec, &m)
	return m
}

// countRows is a bare-bones row counter for asserting side effects.
func countRows(t *testing.T, database *db.DB, table, where string, args ...any) int {
	t.Helper()
	var n int
	q := fmt.Sprintf("SELECT COUNT(*) FROM %s", table)
	if where != "" {
		q += " WHERE " + where
	}
	if err := database.QueryRow(q, args...).Scan(&n); err != nil {
		t.Fatalf("counting %s: %v", table, err)
	}
	return n
}

func ptr(s string) *string { return &s }
