package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/sawpanic/riskgov/internal/config"
	"github.com/sawpanic/riskgov/internal/engine"
)

// Server exposes the governance control plane over HTTP: the tick
// endpoint is the caller control-loop boundary, the reset endpoint is the
// operator-gate boundary. It serializes ticks itself; the governors have
// no internal locking.
type Server struct {
	supervisor *engine.Supervisor
	cfg        config.ServerConfig
	gatherer   prometheus.Gatherer

	// mu guards every supervisor access. The tick loop serializes
	// evaluations, but reset, decision, and state handlers run on HTTP
	// handler goroutines and must take the same lock.
	mu sync.Mutex

	// resetLimiter throttles manual-reset attempts; the phrase match
	// itself lives in the meta governor.
	resetLimiter *rate.Limiter

	hub *Hub

	// ticks funnels all evaluations through one goroutine-safe point.
	ticks chan tickRequest
}

type tickRequest struct {
	inputs engine.TickInputs
	reply  chan *engine.TickResult
}

// NewServer creates the control-plane server.
func NewServer(supervisor *engine.Supervisor, cfg config.ServerConfig, gatherer prometheus.Gatherer) *Server {
	perMinute := cfg.ResetRatePerMinute
	if perMinute <= 0 {
		perMinute = 3
	}
	burst := cfg.ResetBurst
	if burst <= 0 {
		burst = 1
	}

	return &Server{
		supervisor:   supervisor,
		cfg:          cfg,
		gatherer:     gatherer,
		resetLimiter: rate.NewLimiter(rate.Limit(perMinute/60.0), burst),
		hub:          NewHub(),
		ticks:        make(chan tickRequest),
	}
}

// Router builds the HTTP route table.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	r.HandleFunc("/v1/tick", s.handleTick).Methods(http.MethodPost)
	r.HandleFunc("/v1/decision", s.handleDecision).Methods(http.MethodGet)
	r.HandleFunc("/v1/state", s.handleState).Methods(http.MethodGet)
	r.HandleFunc("/v1/reset", s.handleReset).Methods(http.MethodPost)
	r.HandleFunc("/v1/stream", s.handleStream).Methods(http.MethodGet)

	return r
}

// Run starts the tick serializer and the HTTP listener; blocks until the
// context is cancelled or the listener fails, shutting down gracefully
// on cancellation.
func (s *Server) Run(ctx context.Context) error {
	go s.serveTicks(ctx)
	go s.hub.Run(ctx)

	log.Info().Str("addr", s.cfg.ListenAddr).Msg("control plane listening")
	srv := &http.Server{
		Addr:         s.cfg.ListenAddr,
		Handler:      s.Router(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case <-ctx.Done():
		log.Info().Msg("control plane shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

// serveTicks is the single control loop the governors are documented to
// require: every evaluation funnels through here in order. Exits when
// the context is cancelled.
func (s *Server) serveTicks(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case req := <-s.ticks:
			s.mu.Lock()
			result := s.supervisor.EvaluateTick(ctx, req.inputs)
			s.mu.Unlock()
			s.hub.Broadcast(result)
			req.reply <- result
		}
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleTick(w http.ResponseWriter, r *http.Request) {
	var inputs engine.TickInputs
	if err := json.NewDecoder(r.Body).Decode(&inputs); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "malformed tick inputs: " + err.Error()})
		return
	}

	reply := make(chan *engine.TickResult, 1)
	select {
	case s.ticks <- tickRequest{inputs: inputs, reply: reply}:
	case <-r.Context().Done():
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "tick loop unavailable"})
		return
	}
	result := <-reply

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleDecision(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	result := s.supervisor.LastResult()
	s.mu.Unlock()
	if result == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no tick evaluated yet"})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleState(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	snap := s.supervisor.Snapshot(time.Now())
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, snap)
}

type resetRequest struct {
	Phrase string `json:"phrase"`
}

type resetResponse struct {
	Accepted bool   `json:"accepted"`
	Message  string `json:"message"`
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if !s.resetLimiter.Allow() {
		writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": "reset attempts rate limited"})
		return
	}

	var req resetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "malformed reset request"})
		return
	}

	s.mu.Lock()
	ok, msg := s.supervisor.Meta().ManualReset(req.Phrase)
	s.mu.Unlock()
	status := http.StatusOK
	if !ok {
		status = http.StatusForbidden
		log.Warn().Msg("manual reset refused: phrase mismatch")
	} else {
		log.Info().Msg("manual reset accepted")
	}

	writeJSON(w, status, resetResponse{Accepted: ok, Message: msg})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("failed to encode response")
	}
}
