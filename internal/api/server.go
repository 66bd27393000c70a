package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"matchday/internal/config"
	"matchday/internal/match"
	"matchday/internal/replay"
	"matchday/internal/telemetry"
)

// Server ties the simulation service together: router, limits, archive,
// live sessions.
type Server struct {
	cfg     config.ServerConfig
	limits  config.SimLimits
	archive *replay.Archive

	mu           sync.Mutex
	liveSessions map[string]*liveSession
	running      int // active batch/single simulations
}

// NewServer builds the service. archive may be nil (no persistence).
func NewServer(cfg config.ServerConfig, limits config.SimLimits, archive *replay.Archive) *Server {
	return &Server{
		cfg:          cfg,
		limits:       limits,
		archive:      archive,
		liveSessions: make(map[string]*liveSession),
	}
}

// ListenAndServe blocks until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.ListenAddr,
		Handler:      s.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // streaming endpoints manage their own deadlines
	}

	errCh := make(chan error, 1)
	go func() {
		telemetry.Infof("matchday api listening on %s", s.cfg.ListenAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

// acquireMatchSlot guards the concurrent simulation cap.
func (s *Server) acquireMatchSlot() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running >= s.limits.MaxConcurrentMatches {
		return false
	}
	s.running++
	matchesActive.Inc()
	return true
}

func (s *Server) releaseMatchSlot() {
	s.mu.Lock()
	s.running--
	s.mu.Unlock()
	matchesActive.Dec()
	matchesTotal.Inc()
}

// runSimulation executes one plan to completion with metrics.
func (s *Server) runSimulation(ctx context.Context, plan match.MatchPlan) (*match.MatchResult, error) {
	engine, err := match.NewEngine(plan)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	res, err := engine.Run(ctx)
	observeTick(start)
	if res != nil {
		eventsEmitted.Add(float64(len(res.Events)))
	}
	if err != nil {
		return res, err
	}
	if s.archive != nil {
		if aerr := s.archive.SaveResult(res); aerr != nil {
			telemetry.Warnf("archive save failed: %v", aerr)
		}
	}
	return res, nil
}
