package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"llm-arcade/server/engine"
	"llm-arcade/server/llm"
	"llm-arcade/server/match"
)

// Router exposes the driver API: start a match, submit one action at a time,
// inspect sessions, read the leaderboard.
func Router(mgr *match.Manager, client *llm.Client) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/api/health", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, map[string]any{"ok": true})
	})

	r.Get("/api/models", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, map[string]any{"models": client.ListModels(req.Context())})
	})

	r.Post("/api/start-match", func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			Game  string            `json:"game"`
			Seats map[string]string `json:"seats"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			http.Error(w, "bad request body", http.StatusBadRequest)
			return
		}
		view, err := mgr.StartMatch(match.Game(body.Game), body.Seats)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		writeJSON(w, view)
	})

	r.Post("/api/submit-action", func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			SessionID string `json:"session_id"`
			Input     string `json:"input"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			http.Error(w, "bad request body", http.StatusBadRequest)
			return
		}
		view, err := mgr.SubmitAction(req.Context(), body.SessionID, body.Input)
		if err != nil {
			writeJSON2(w, submitStatus(err), map[string]any{
				"error": err.Error(),
				"state": view,
			})
			return
		}
		writeJSON(w, view)
	})

	r.Get("/api/session/{id}", func(w http.ResponseWriter, req *http.Request) {
		view := mgr.View(chi.URLParam(req, "id"))
		if view == nil {
			http.Error(w, "unknown session", http.StatusNotFound)
			return
		}
		writeJSON(w, view)
	})

	r.Get("/api/leaderboard", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, map[string]any{"rows": mgr.Leaderboard()})
	})

	r.Get("/api/recent", func(w http.ResponseWriter, req *http.Request) {
		limit := 50
		if raw := req.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 1 {
				http.Error(w, "bad limit", http.StatusBadRequest)
				return
			}
			limit = n
		}
		writeJSON(w, map[string]any{"rows": mgr.Recent(limit)})
	})

	return r
}

// submitStatus maps an action error onto an HTTP status. Bad player input is
// a 400; an unknown session a 404; a finished match a 409.
func submitStatus(err error) int {
	var invalid *engine.InvalidMoveError
	var unparseable *engine.UnparseableError
	switch {
	case errors.Is(err, match.ErrMatchFinished):
		return http.StatusConflict
	case errors.Is(err, match.ErrInputRequired), errors.Is(err, match.ErrNotHumanTurn),
		errors.As(err, &invalid), errors.As(err, &unparseable):
		return http.StatusBadRequest
	default:
		return http.StatusNotFound
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	writeJSON2(w, http.StatusOK, v)
}

func writeJSON2(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
