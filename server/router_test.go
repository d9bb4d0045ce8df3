package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"llm-arcade/server/llm"
	"llm-arcade/server/match"
	"llm-arcade/server/stats"
)

func testRouter(t *testing.T) http.Handler {
	t.Helper()
	dir := t.TempDir()
	factory := newPolicyFactory(
		llm.Config{BaseURL: "http://localhost:1", Model: "test"},
		filepath.Join(dir, "mc.json"),
		filepath.Join(dir, "dq.json"),
	)
	mgr := match.NewManager(factory, stats.New(filepath.Join(dir, "stats.json")), nil)
	return Router(mgr, llm.NewClient(llm.Config{BaseURL: "http://localhost:1", Model: "test"}))
}

func postJSON(t *testing.T, h http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func getPath(h http.Handler, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	rec := getPath(testRouter(t), "/api/health")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"ok": true`)
}

func TestStartMatchAndSession(t *testing.T) {
	h := testRouter(t)

	rec := postJSON(t, h, "/api/start-match", map[string]any{
		"game":  "connect4",
		"seats": map[string]string{"1": "human", "2": "human"},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var view struct {
		ID   string `json:"id"`
		Turn string `json:"turn"`
		Over bool   `json:"over"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	require.NotEmpty(t, view.ID)
	require.Equal(t, "1", view.Turn)
	require.False(t, view.Over)

	rec = getPath(h, "/api/session/"+view.ID)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = getPath(h, "/api/session/nope")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSubmitActionEndpoint(t *testing.T) {
	h := testRouter(t)

	rec := postJSON(t, h, "/api/start-match", map[string]any{
		"game":  "connect4",
		"seats": map[string]string{"1": "human", "2": "human"},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var started struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &started))

	rec = postJSON(t, h, "/api/submit-action", map[string]any{
		"session_id": started.ID,
		"input":      "3",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var view struct {
		Turn string `json:"turn"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	require.Equal(t, "2", view.Turn)

	// Empty input on a human seat is a client error.
	rec = postJSON(t, h, "/api/submit-action", map[string]any{
		"session_id": started.ID,
		"input":      "",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	// Unknown session.
	rec = postJSON(t, h, "/api/submit-action", map[string]any{
		"session_id": "nope",
		"input":      "3",
	})
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStartMatchRejectsBadRequests(t *testing.T) {
	h := testRouter(t)

	rec := postJSON(t, h, "/api/start-match", map[string]any{"game": "roulette"})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/start-match", bytes.NewReader([]byte("{")))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLeaderboardEndpoint(t *testing.T) {
	h := testRouter(t)
	rec := getPath(h, "/api/leaderboard")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"rows"`)

	rec = getPath(h, "/api/recent?limit=5")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = getPath(h, "/api/recent?limit=bogus")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPolicyFactoryMapping(t *testing.T) {
	dir := t.TempDir()
	factory := newPolicyFactory(
		llm.Config{BaseURL: "http://localhost:1", Model: "base-model"},
		filepath.Join(dir, "mc.json"),
		filepath.Join(dir, "dq.json"),
	)

	p, err := factory(match.GameBlackjack, "monte_carlo")
	require.NoError(t, err)
	require.Equal(t, "monte_carlo", p.Name())

	p, err = factory(match.GameBlackjack, "deep_q")
	require.NoError(t, err)
	require.Equal(t, "deep_q", p.Name())

	_, err = factory(match.GameConnect4, "monte_carlo")
	require.Error(t, err, "trained blackjack policies cannot seat a connect4 game")

	p, err = factory(match.GameConnect4, "llm")
	require.NoError(t, err)
	require.Equal(t, "base-model", p.Name())

	p, err = factory(match.GameBlackjack, "qwen3:8b")
	require.NoError(t, err)
	require.Equal(t, "qwen3:8b", p.Name(), "unknown identifiers resolve to model names")
}
