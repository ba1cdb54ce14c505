// Package api exposes interview sessions over HTTP.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Divas-Gupta30/interview-agent/internal/interview"
	"github.com/Divas-Gupta30/interview-agent/internal/metrics"
)

// maxUploadBytes bounds the in-memory part of a resume upload.
const maxUploadBytes = 32 << 20

// HealthCheck reports whether a dependency is reachable.
type HealthCheck func(ctx context.Context) error

type Server struct {
	svc    *interview.Service
	checks map[string]HealthCheck
	logger *slog.Logger
}

type Option func(*Server)

// WithHealthCheck adds a dependency to the /health report.
func WithHealthCheck(name string, check HealthCheck) Option {
	return func(s *Server) { s.checks[name] = check }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

func NewServer(svc *interview.Service, opts ...Option) *Server {
	s := &Server{
		svc:    svc,
		checks: map[string]HealthCheck{},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router builds the route table.
func (s *Server) Router() *mux.Router {
	router := mux.NewRouter()
	router.Use(corsMiddleware, metricsMiddleware)

	// Interview endpoints
	router.HandleFunc("/", s.handleRoot).Methods("GET")
	router.HandleFunc("/start-interview", s.handleStartInterview).Methods("POST")
	router.HandleFunc("/start-interview/{id}/upload-pdf", s.handleUploadPDF).Methods("POST")
	router.HandleFunc("/status/{id}", s.handleStatus).Methods("GET")

	// Answering over HTTP
	router.HandleFunc("/sessions/{id}/messages", s.handleMessages).Methods("GET")
	router.HandleFunc("/sessions/{id}/answer", s.handleAnswer).Methods("POST")
	router.HandleFunc("/sessions/{id}/reports", s.handleReports).Methods("GET")
	router.HandleFunc("/sessions/{id}", s.handleAbort).Methods("DELETE")

	router.HandleFunc("/health", s.handleHealth).Methods("GET")

	// CORS preflight for every path
	router.PathPrefix("/").Methods("OPTIONS").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	// Metrics endpoint
	router.Handle("/metrics", promhttp.Handler())
	return router
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		route := r.URL.Path
		if cur := mux.CurrentRoute(r); cur != nil {
			if tpl, err := cur.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		metrics.HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
		metrics.HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
	})
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "*")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSONResponse(w http.ResponseWriter, data interface{}) {
	writeJSON(w, http.StatusOK, data)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
