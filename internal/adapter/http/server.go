package http

import (
	"context"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/aqi-monitor/internal/domain"
)

// Poller is the pipeline surface exposed over HTTP.
type Poller interface {
	sharedobs.ReadinessChecker
	Latest() (domain.Reading, bool)
	Pause()
	Resume()
	Paused() bool
}

// Server exposes health, metrics, and the AQI API.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates an HTTP server with probe, metrics, and /api/v1 routes.
func NewServer(addr string, poller Poller, logger *slog.Logger) *Server {
	r := mux.NewRouter()

	r.HandleFunc("/healthz", sharedobs.LivenessHandler()).Methods(http.MethodGet)
	r.HandleFunc("/readyz", sharedobs.ReadinessHandler(poller)).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/aqi", handleLatest(poller)).Methods(http.MethodGet)
	api.HandleFunc("/aqi/compute", handleCompute).Methods(http.MethodGet)
	api.HandleFunc("/polling/pause", handlePolling(poller, poller.Pause)).Methods(http.MethodPost)
	api.HandleFunc("/polling/resume", handlePolling(poller, poller.Resume)).Methods(http.MethodPost)

	handler := handlers.RecoveryHandler(
		handlers.RecoveryLogger(recoveryLogger{logger}),
		handlers.PrintRecoveryStack(false),
	)(handlers.CompressHandler(r))

	return &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      handler,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
	}
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func handleLatest(poller Poller) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		reading, ok := poller.Latest()
		if !ok {
			sharedobs.WriteJSON(w, http.StatusNotFound, map[string]string{"error": "no reading yet"})
			return
		}
		sharedobs.WriteJSON(w, http.StatusOK, reading)
	}
}

type computeResponse struct {
	PM       *float64     `json:"pm"`
	AQI      domain.Score `json:"aqi"`
	Display  string       `json:"display"`
	Category string       `json:"category,omitempty"`
	Color    string       `json:"color,omitempty"`
	Guidance string       `json:"guidance,omitempty"`
}

// handleCompute converts ?pm= without touching the sensor. A missing or
// non-numeric value is reported as unavailable, not as a client error.
func handleCompute(w http.ResponseWriter, r *http.Request) {
	var pm *float64
	if raw := strings.TrimSpace(r.URL.Query().Get("pm")); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			v = math.NaN()
		}
		pm = &v
	}

	score := domain.ComputeAQI(pm)
	resp := computeResponse{AQI: score, Display: score.String()}
	if pm != nil && !math.IsNaN(*pm) && !math.IsInf(*pm, 0) {
		resp.PM = pm
	}
	if sev, ok := domain.Categorize(score); ok {
		resp.Category = sev.Category.String()
		resp.Color = sev.Color
		resp.Guidance = sev.Guidance
	}
	sharedobs.WriteJSON(w, http.StatusOK, resp)
}

func handlePolling(poller Poller, action func()) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		action()
		sharedobs.WriteJSON(w, http.StatusOK, map[string]bool{"paused": poller.Paused()})
	}
}

// recoveryLogger adapts slog to handlers.RecoveryHandlerLogger.
type recoveryLogger struct {
	logger *slog.Logger
}

func (l recoveryLogger) Println(v ...any) {
	l.logger.Error("http handler panic", "panic", v)
}
