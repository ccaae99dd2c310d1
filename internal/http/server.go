// Package http exposes the credit, project and timeline APIs as JSON over
// a net/http ServeMux.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	applog "credipart/internal/log"
	"credipart/internal/middleware/ratelimit"
	"credipart/internal/middleware/security"
	"credipart/internal/middleware/trace"
	"credipart/internal/services"
	"credipart/internal/storage"
)

type Server struct {
	http.Server

	credits  *services.CreditService
	projects *services.ProjectService
	timeline *services.TimelineService
	repo     *storage.Repository

	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware

	shutdownOnce sync.Once
}

// NewServer wires routes and the middleware chain: security headers, then
// tracing, then rate limiting, then the handler.
func NewServer(addr string, credits *services.CreditService, projects *services.ProjectService, tl *services.TimelineService, repo *storage.Repository) *Server {
	s := &Server{
		credits:  credits,
		projects: projects,
		timeline: tl,
		repo:     repo,
		limiter:  ratelimit.NewLimiter(ratelimit.DefaultConfig()),
		detector: security.NewDetector(),
	}
	s.tracer = trace.NewMiddleware(s.detector.ExtractClientIP)

	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	mux.HandleFunc("GET /api/participants", s.handleListParticipants)
	mux.HandleFunc("POST /api/participants", s.handleCreateParticipant)

	mux.HandleFunc("POST /api/credits", s.handleCreateCredit)
	mux.HandleFunc("GET /api/credits", s.handleListCredits)
	mux.HandleFunc("GET /api/credits/{id}", s.handleGetCredit)
	mux.HandleFunc("DELETE /api/credits/{id}", s.handleDeleteCredit)
	mux.HandleFunc("POST /api/installments/{id}/pay", s.handlePayInstallment)
	mux.HandleFunc("GET /api/installments/due", s.handleListDueInstallments)

	mux.HandleFunc("POST /api/projects", s.handleCreateProject)
	mux.HandleFunc("GET /api/projects", s.handleListProjects)
	mux.HandleFunc("GET /api/projects/{id}", s.handleGetProject)
	mux.HandleFunc("PUT /api/projects/{id}", s.handleUpdateProject)
	mux.HandleFunc("DELETE /api/projects/{id}", s.handleDeleteProject)
	mux.HandleFunc("POST /api/projects/{id}/expenses", s.handleCreateExpense)
	mux.HandleFunc("GET /api/expenses", s.handleListExpenses)
	mux.HandleFunc("PUT /api/expenses/{id}", s.handleUpdateExpense)
	mux.HandleFunc("DELETE /api/expenses/{id}", s.handleDeleteExpense)

	mux.HandleFunc("GET /api/timeline", s.handleTimeline)

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	limited := s.limiter.Middleware(s.detector.ExtractClientIP, nil)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           headers.Middleware(s.tracer.Middleware(limited(s.detect(mux)))),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// detect logs scanner traffic without blocking it.
func (s *Server) detect(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.detector.DetectSuspiciousRequest(r) {
			slog.WarnContext(r.Context(), "Suspicious request",
				applog.FieldMethod, r.Method,
				applog.FieldPath, r.URL.Path,
				applog.FieldClientIP, s.detector.ExtractClientIP(r),
				"user_agent", r.Header.Get("User-Agent"))
		}
		next.ServeHTTP(w, r)
	})
}

// Shutdown stops the HTTP server and the limiter's cleanup goroutine.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleReady verifies the database answers before reporting ready.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if _, err := s.repo.ListParticipants(ctx); err != nil {
		slog.ErrorContext(r.Context(), "Readiness check failed", applog.FieldError, err)
		writeError(w, r, http.StatusServiceUnavailable, "database not ready")
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	traceMetrics := s.tracer.GetMetrics()
	limitMetrics := s.limiter.GetMetrics()
	secMetrics := s.detector.GetMetrics()

	writeJSON(w, http.StatusOK, map[string]any{
		"requests_total":      traceMetrics.TotalRequests,
		"response_time_us":    traceMetrics.AverageResponseTime,
		"ratelimit_hits":      limitMetrics.TotalHits,
		"ratelimit_clients":   limitMetrics.ClientCount,
		"suspicious_requests": secMetrics.SuspiciousRequests,
	})
}
