// Package server exposes workspaces over a JSON HTTP API. Chat replies are
// streamed as server-sent events.
package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/disha-ai/disha/internal/logger"
	"github.com/disha-ai/disha/internal/workspace"
)

const defaultMaxUpload = 5 << 20

// ObjectSource loads resume text from object storage.
type ObjectSource interface {
	Text(ctx context.Context, key string) (string, error)
}

// Server routes API requests to workspaces.
type Server struct {
	router     *mux.Router
	workspaces *workspace.Registry
	objects    ObjectSource
	maxUpload  int64
	log        *slog.Logger
}

type Option func(*Server)

// WithObjectSource enables resume analysis by object key.
func WithObjectSource(src ObjectSource) Option {
	return func(s *Server) { s.objects = src }
}

// WithMaxUpload caps resume upload size in bytes.
func WithMaxUpload(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxUpload = n
		}
	}
}

// WithMCP mounts an MCP SSE handler at /sse and /message.
func WithMCP(h http.Handler) Option {
	return func(s *Server) {
		s.router.PathPrefix("/sse").Handler(h)
		s.router.PathPrefix("/message").Handler(h)
	}
}

func New(workspaces *workspace.Registry, opts ...Option) *Server {
	s := &Server{
		router:     mux.NewRouter(),
		workspaces: workspaces,
		maxUpload:  defaultMaxUpload,
		log:        logger.For("http"),
	}
	s.router.Use(loggingMiddleware(s.log))
	s.routes()
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	r := s.router
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	}).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/workspaces", s.createWorkspace).Methods(http.MethodPost)

	ws := api.PathPrefix("/workspaces/{id}").Subrouter()
	ws.HandleFunc("", s.getWorkspace).Methods(http.MethodGet)
	ws.HandleFunc("/view", s.selectView).Methods(http.MethodPut)

	ws.HandleFunc("/chat", s.getChat).Methods(http.MethodGet)
	ws.HandleFunc("/chat", s.postChat).Methods(http.MethodPost)

	ws.HandleFunc("/roadmap", s.getRoadmap).Methods(http.MethodGet)
	ws.HandleFunc("/roadmap", s.postRoadmap).Methods(http.MethodPost)

	ws.HandleFunc("/interview", s.getInterview).Methods(http.MethodGet)
	ws.HandleFunc("/interview", s.startInterview).Methods(http.MethodPost)
	ws.HandleFunc("/interview/answers", s.selectAnswer).Methods(http.MethodPost)
	ws.HandleFunc("/interview/submit", s.submitInterview).Methods(http.MethodPost)
	ws.HandleFunc("/interview/reset", s.resetInterview).Methods(http.MethodPost)

	ws.HandleFunc("/resume", s.getResume).Methods(http.MethodGet)
	ws.HandleFunc("/resume", s.postResume).Methods(http.MethodPost)

	ws.HandleFunc("/courses", s.getCourses).Methods(http.MethodGet)
	ws.HandleFunc("/courses", s.postCourses).Methods(http.MethodPost)
}

func loggingMiddleware(log *slog.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(rw, r)
			log.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", rw.statusCode,
				"duration", time.Since(start),
				"remote", r.RemoteAddr,
			)
		})
	}
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (rw *responseWriter) Unwrap() http.ResponseWriter { return rw.ResponseWriter }

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
