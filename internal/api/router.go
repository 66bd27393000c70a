package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"matchday/internal/match"
)

// Router builds the HTTP surface:
//
//	POST /api/simulate            run a full match, return MatchResult
//	POST /api/live                start a live session, return its id
//	GET  /api/live/{id}/ws        stream ticks over websocket
//	GET  /api/matches             list archived matches
//	GET  /api/matches/{id}        fetch an archived MatchResult
//	GET  /api/matches/{id}/replay fetch the replay v2 envelope
//	GET  /healthz                 liveness
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         300,
	}))

	limiter := NewIPRateLimiter(RateLimitConfig{
		RequestsPerSecond: s.cfg.RatePerSecond,
		Burst:             s.cfg.RateBurst,
		CleanupInterval:   DefaultRateLimitConfig.CleanupInterval,
	})
	r.Use(limiter.Middleware)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/simulate", withRequestMetrics("/api/simulate", s.handleSimulate))
		r.Post("/live", withRequestMetrics("/api/live", s.handleLiveCreate))
		r.Get("/live/{id}/ws", s.handleLiveWS)
		r.Get("/matches", withRequestMetrics("/api/matches", s.handleMatchList))
		r.Get("/matches/{id}", withRequestMetrics("/api/matches/{id}", s.handleMatchGet))
		r.Get("/matches/{id}/replay", withRequestMetrics("/api/matches/{id}/replay", s.handleReplayGet))
	})

	return r
}

// handleSimulate runs one plan synchronously.
func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	var plan match.MatchPlan
	if err := json.NewDecoder(r.Body).Decode(&plan); err != nil {
		writeError(w, http.StatusBadRequest, "MALFORMED_JSON", err.Error())
		return
	}
	if !s.acquireMatchSlot() {
		connectionRejected.WithLabelValues("match_limit").Inc()
		writeError(w, http.StatusTooManyRequests, "MATCH_LIMIT", "too many concurrent simulations")
		return
	}
	defer s.releaseMatchSlot()

	res, err := s.runSimulation(r.Context(), plan)
	if err != nil {
		var inErr *match.InputError
		if errors.As(err, &inErr) {
			writeError(w, http.StatusUnprocessableEntity, inErr.Code, inErr.Msg)
			return
		}
		writeError(w, http.StatusInternalServerError, "SIMULATION_FAILED", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleMatchList(w http.ResponseWriter, r *http.Request) {
	if s.archive == nil {
		writeError(w, http.StatusNotImplemented, "NO_ARCHIVE", "archive disabled")
		return
	}
	rows, err := s.archive.List(100)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "ARCHIVE_ERROR", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) handleMatchGet(w http.ResponseWriter, r *http.Request) {
	if s.archive == nil {
		writeError(w, http.StatusNotImplemented, "NO_ARCHIVE", "archive disabled")
		return
	}
	res, err := s.archive.LoadResult(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "MATCH_NOT_FOUND", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleReplayGet(w http.ResponseWriter, r *http.Request) {
	if s.archive == nil {
		writeError(w, http.StatusNotImplemented, "NO_ARCHIVE", "archive disabled")
		return
	}
	env, err := s.archive.LoadReplay(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "REPLAY_NOT_FOUND", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, env)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, map[string]string{"code": code, "error": msg})
}
