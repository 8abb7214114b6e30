// Package monitor exposes a read-only HTTP diagnostics surface over a
// running driver.Driver: current worker state, the enumerated voice list,
// aggregated health, and a Prometheus metrics endpoint. It never accepts a
// request that mutates driver state — every route here is a GET.
package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pd360/onecoretts/o11y"
	"github.com/pd360/onecoretts/pkg/driver"
)

// Server serves diagnostics for a single Driver instance, grounded on the
// pack's gorilla/mux REST server pattern but trimmed to a read-only route
// set with no middleware chain.
type Server struct {
	driver    driver.Driver
	health    *o11y.HealthRegistry
	logger    *o11y.Logger
	router    *mux.Router
	startedAt time.Time

	mu     sync.Mutex
	server *http.Server
}

// healthCheckTimeout bounds each registered health check: the engine
// adapter behind driver.Driver runs on a single worker goroutine (see
// pkg/driver), so a wedged Speak call can make any check that routes
// through it hang indefinitely without this.
const healthCheckTimeout = 2 * time.Second

// NewServer builds a Server for d, registering a default health check that
// reports the driver unhealthy if AvailableVoices fails. Additional checks
// can be registered on the returned Server's Health() before ListenAndServe.
func NewServer(d driver.Driver, logger *o11y.Logger) *Server {
	s := &Server{
		driver:    d,
		health:    o11y.NewHealthRegistry(o11y.WithCheckTimeout(healthCheckTimeout)),
		logger:    logger,
		router:    mux.NewRouter(),
		startedAt: time.Now(),
	}
	s.health.Register("driver", o11y.HealthCheckerFunc(s.checkDriver))
	s.setupRoutes()
	return s
}

// Health returns the registry backing GET /health, so callers can register
// additional component checks (engine adapter, wave player) before serving.
func (s *Server) Health() *o11y.HealthRegistry {
	return s.health
}

// Router returns the underlying mux.Router for use with httptest or an
// externally managed http.Server.
func (s *Server) Router() *mux.Router {
	return s.router
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("/state", s.handleState).Methods(http.MethodGet)
	s.router.HandleFunc("/voices", s.handleVoices).Methods(http.MethodGet)
	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	s.router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
}

// ListenAndServe starts the HTTP server on addr and blocks until it returns
// an error or is stopped via Shutdown.
func (s *Server) ListenAndServe(addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}
	s.mu.Lock()
	s.server = srv
	s.mu.Unlock()

	s.logger.Info(context.Background(), "monitor server listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server if it has been started.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.server
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.driver.State())
}

func (s *Server) handleVoices(w http.ResponseWriter, r *http.Request) {
	voices, err := s.driver.AvailableVoices(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, voices)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	results := s.health.CheckAll(r.Context())
	status := http.StatusOK
	for _, res := range results {
		if res.Status != o11y.Healthy {
			status = http.StatusServiceUnavailable
			break
		}
	}
	writeJSON(w, status, map[string]any{
		"uptime": time.Since(s.startedAt).String(),
		"checks": results,
	})
}

// checkDriver reports the driver unhealthy if AvailableVoices fails. The
// pkg/driver implementation never returns an error from AvailableVoices
// (registry failures only narrow the list), so against it this check
// always reports healthy.
func (s *Server) checkDriver(ctx context.Context) o11y.HealthResult {
	if _, err := s.driver.AvailableVoices(ctx); err != nil {
		return o11y.HealthResult{Status: o11y.Unhealthy, Message: err.Error()}
	}
	return o11y.HealthResult{Status: o11y.Healthy}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		fmt.Fprintf(w, `{"error":%q}`, err.Error())
	}
}
