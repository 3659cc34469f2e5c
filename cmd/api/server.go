package main

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	gorillahandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/critterbyte/arcade-api/src/app/highscores"
)

type ServerConfig struct {
	Logger         *zap.Logger
	HighScores     *highscores.Service
	HealthCheck    func(ctx context.Context) error
	AllowedOrigins []string
	Registry       *prometheus.Registry
}

// Server wires HTTP endpoints to the high-score service with observability
// instrumentation.
type Server struct {
	cfg            ServerConfig
	router         *mux.Router
	registry       *prometheus.Registry
	httpMetrics    *prometheus.HistogramVec
	requestCounter *prometheus.CounterVec
}

func NewServer(cfg ServerConfig) *Server {
	srv := &Server{cfg: cfg}
	srv.initMetrics()
	srv.buildRouter()
	return srv
}

// Handler returns the router wrapped in CORS; the game is served from a
// different origin than the API.
func (s *Server) Handler() http.Handler {
	return gorillahandlers.CORS(
		gorillahandlers.AllowedOrigins(s.cfg.AllowedOrigins),
		gorillahandlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		gorillahandlers.AllowedHeaders([]string{"Content-Type", requestIDHeader}),
	)(s.router)
}

func (s *Server) initMetrics() {
	s.registry = s.cfg.Registry
	if s.registry == nil {
		s.registry = prometheus.NewRegistry()
		s.registry.MustRegister(collectors.NewGoCollector())
		s.registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}
	s.httpMetrics = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "arcade",
		Subsystem: "http",
		Name:      "request_latency_seconds",
		Help:      "HTTP request latency",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route", "method", "code"})
	s.requestCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "arcade",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests by route",
	}, []string{"route", "method", "code"})
	s.registry.MustRegister(s.httpMetrics, s.requestCounter)
}

func (s *Server) buildRouter() {
	r := mux.NewRouter()
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.metricsMiddleware)

	apiRouter := r.PathPrefix("/api").Subrouter()
	apiRouter.Handle("/highscores", otelhttp.NewHandler(http.HandlerFunc(s.handleGetTopScores), "GetTopScores")).Methods(http.MethodGet)
	apiRouter.Handle("/highscores", otelhttp.NewHandler(http.HandlerFunc(s.handleSubmitScore), "SubmitScore")).Methods(http.MethodPost)
	apiRouter.Handle("/check-highscore/{score}", otelhttp.NewHandler(http.HandlerFunc(s.handleCheckHighScore), "CheckHighScore")).Methods(http.MethodGet)

	r.HandleFunc("/healthz", s.handleHealthz).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	s.router = r
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, errorResponse{Error: msg})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r)
		s.cfg.Logger.Info("http_request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rw.status),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", requestIDFromContext(r.Context())),
		)
	})
}

func (s *Server) metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r)
		route := mux.CurrentRoute(r)
		routeName := "unknown"
		if route != nil {
			if tmpl, err := route.GetPathTemplate(); err == nil {
				routeName = tmpl
			}
		}
		codeLabel := strconv.Itoa(rw.status)
		labels := prometheus.Labels{"route": routeName, "method": r.Method, "code": codeLabel}
		s.httpMetrics.With(labels).Observe(time.Since(start).Seconds())
		s.requestCounter.With(labels).Inc()
	})
}

// responseWriter captures HTTP status codes for logging/metrics.
type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}
