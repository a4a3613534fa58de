package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/jonathan/cv-keyword-analyzer/internal/db"
	"github.com/jonathan/cv-keyword-analyzer/internal/logging"
	"github.com/jonathan/cv-keyword-analyzer/internal/normalize"
	"github.com/jonathan/cv-keyword-analyzer/internal/pipeline"
	"github.com/jonathan/cv-keyword-analyzer/internal/server/middleware"
	"github.com/jonathan/cv-keyword-analyzer/internal/server/ratelimit"
)

// MaxUploadBytes is the largest résumé accepted.
const MaxUploadBytes = 10 << 20

// Runner executes one analysis.
type Runner interface {
	Run(ctx context.Context, in pipeline.Input) (*normalize.Result, error)
}

// AnalysisStore persists analysis results.
type AnalysisStore interface {
	SaveAnalysis(ctx context.Context, userID *uuid.UUID, filename string, resultJSON []byte) (uuid.UUID, error)
	GetAnalysis(ctx context.Context, id uuid.UUID) (*db.Analysis, error)
	ListAnalyses(ctx context.Context, userID uuid.UUID, limit int) ([]db.AnalysisSummary, error)
	Ping(ctx context.Context) error
}

// Config holds server configuration
type Config struct {
	Port int
	// SaveResults persists every successful analysis when a store is set.
	SaveResults bool
	// RequestTimeout bounds a single analysis; zero means no limit.
	RequestTimeout time.Duration
	RateLimit      *ratelimit.Config
}

// Server represents the HTTP server
type Server struct {
	httpServer *http.Server
	cfg        Config
	runner     Runner
	store      AnalysisStore
	limiter    *ratelimit.Limiter
	log        logrus.FieldLogger
}

// New creates a server. store and tokens may be nil, which disables
// persistence and caller identity respectively.
func New(cfg Config, runner Runner, store AnalysisStore, tokens middleware.TokenValidator, log logrus.FieldLogger) *Server {
	s := &Server{
		cfg:    cfg,
		runner: runner,
		store:  store,
		log:    logging.OrDiscard(log),
	}

	rl := ratelimit.DefaultConfig()
	if cfg.RateLimit != nil {
		rl = *cfg.RateLimit
	}
	s.limiter = ratelimit.NewLimiter(rl)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("POST /api/analyze", s.handleAnalyze)
	mux.HandleFunc("POST /api/analyze/stream", s.handleAnalyzeStream)
	mux.HandleFunc("GET /api/analyses", s.handleListAnalyses)
	mux.HandleFunc("GET /api/analyses/{id}", s.handleGetAnalysis)

	handler := middleware.OptionalAuth(tokens)(mux)
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.withRateLimit(s.withLogging(s.withCORS(handler))),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 300 * time.Second, // Long timeout for analyses
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start serves until ctx is cancelled or the process receives SIGINT or SIGTERM.
func (s *Server) Start(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", s.httpServer.Addr).Info("server starting")
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		s.limiter.Stop()
		if ok {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	defer s.limiter.Stop()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	s.log.Info("server stopped")
	return nil
}

// Close releases resources held by a server that was never started.
func (s *Server) Close() {
	s.limiter.Stop()
}

type requestIDKey struct{}

// requestLog returns a logger carrying the request's id.
func (s *Server) requestLog(r *http.Request) logrus.FieldLogger {
	if id, ok := r.Context().Value(requestIDKey{}).(string); ok {
		return s.log.WithField("request_id", id)
	}
	return s.log
}

// withCORS adds CORS headers
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Flush keeps streaming responses working through the recorder.
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// withLogging adds request ids and request logging
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		r = r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id))

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		s.requestLog(r).WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   rec.status,
			"duration": time.Since(start).String(),
		}).Info("request completed")
	})
}

// withRateLimit rejects clients that exceed the per-route limits
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, info := s.limiter.Allow(clientID(r), r.Method, r.URL.Path)
		if info.Limit > 0 {
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(info.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
		}
		if !allowed {
			seconds := int(info.RetryAfter.Round(time.Second).Seconds())
			w.Header().Set("Retry-After", strconv.Itoa(max(seconds, 1)))
			s.log.WithFields(logrus.Fields{"client": clientID(r), "path": r.URL.Path}).Warn("rate limit exceeded")
			s.jsonResponse(w, http.StatusTooManyRequests, ErrorBody{
				Error:     "Rate limit exceeded. Please try again later.",
				ErrorType: "rate_limit_exceeded",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientID uses the IP address from RemoteAddr.
func clientID(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// ErrorBody is the JSON body of every error response.
type ErrorBody struct {
	Error     string `json:"error"`
	ErrorType string `json:"error_type"`
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.WithError(err).Error("error encoding JSON response")
	}
}

// errorResponse maps err to a status and writes the error body
func (s *Server) errorResponse(w http.ResponseWriter, r *http.Request, err error) {
	status, kind := classify(err)
	log := s.requestLog(r).WithError(err).WithField("error_type", kind)
	if status >= http.StatusInternalServerError {
		log.Error("request failed")
	} else {
		log.Warn("request rejected")
	}
	if kind == "rate_limited" {
		w.Header().Set("Retry-After", retryAfterSeconds)
	}
	s.jsonResponse(w, status, ErrorBody{Error: userMessage(err), ErrorType: kind})
}
