package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"matchday/internal/match"
	"matchday/internal/telemetry"
)

// Live streaming: a session owns one engine and feeds LiveFrames to a
// websocket consumer at the match tick rate.

type liveSession struct {
	id   string
	live *match.LiveMatch
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 16 * 1024,
	// Origin enforcement happens at the CORS layer; same-origin tooling and
	// local dashboards connect directly.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleLiveCreate validates a plan and stages a session for streaming.
func (s *Server) handleLiveCreate(w http.ResponseWriter, r *http.Request) {
	var plan match.MatchPlan
	if err := json.NewDecoder(r.Body).Decode(&plan); err != nil {
		writeError(w, http.StatusBadRequest, "MALFORMED_JSON", err.Error())
		return
	}
	engine, err := match.NewEngine(plan)
	if err != nil {
		var inErr *match.InputError
		if errors.As(err, &inErr) {
			writeError(w, http.StatusUnprocessableEntity, inErr.Code, inErr.Msg)
			return
		}
		writeError(w, http.StatusInternalServerError, "ENGINE_ERROR", err.Error())
		return
	}

	s.mu.Lock()
	if len(s.liveSessions) >= s.limits.MaxLiveSessions {
		s.mu.Unlock()
		connectionRejected.WithLabelValues("live_limit").Inc()
		writeError(w, http.StatusTooManyRequests, "LIVE_LIMIT", "too many live sessions")
		return
	}
	id := uuid.NewString()
	s.liveSessions[id] = &liveSession{id: id, live: match.NewLiveMatch(engine)}
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, map[string]string{"sessionId": id})
}

// handleLiveWS upgrades and streams the session tick by tick. The engine
// only advances while the consumer keeps reading: the generator is pulled,
// never pushed ahead.
func (s *Server) handleLiveWS(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	session, ok := s.liveSessions[id]
	s.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "SESSION_NOT_FOUND", "unknown live session")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		telemetry.Warnf("live upgrade failed: %v", err)
		return
	}
	wsConnectionsActive.Inc()
	defer func() {
		wsConnectionsActive.Dec()
		conn.Close()
		s.mu.Lock()
		delete(s.liveSessions, id)
		s.mu.Unlock()
	}()

	ticker := time.NewTicker(match.MSPerTick * time.Millisecond)
	defer ticker.Stop()

	for range ticker.C {
		start := time.Now()
		frame := session.live.Advance()
		observeTick(start)

		conn.SetWriteDeadline(time.Now().Add(2 * time.Second))
		if err := conn.WriteJSON(frame); err != nil {
			telemetry.Debugf("live session %s closed: %v", id, err)
			return
		}
		if frame.Finished {
			result := session.live.Result()
			eventsEmitted.Add(float64(len(result.Events)))
			if s.archive != nil {
				if aerr := s.archive.SaveResult(result); aerr != nil {
					telemetry.Warnf("archive save failed: %v", aerr)
				}
			}
			conn.SetWriteDeadline(time.Now().Add(2 * time.Second))
			_ = conn.WriteJSON(result)
			return
		}
	}
}
