// Package http exposes the expense API over HTTP.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"expensed/internal/auth"
	"expensed/internal/cache"
	"expensed/internal/core"
	"expensed/internal/events"
	"expensed/internal/middleware/trace"
	"expensed/internal/store"
)

// EventPublisher emits mutation events for the audit trail. A nil
// publisher disables auditing.
type EventPublisher interface {
	PublishExpenseEvent(ctx context.Context, event *events.ExpenseEvent) error
}

// Options configures a Server.
type Options struct {
	Addr       string
	Backend    store.Backend
	Authorizer auth.Authorizer
	Publisher  EventPublisher
	CacheSize  int
	CacheTTL   time.Duration
}

type Server struct {
	http.Server
	backend    store.Backend
	authorizer auth.Authorizer
	publisher  EventPublisher
	tracer     *trace.Middleware

	// Aggregations are memoized between mutations.
	summaryCache *cache.LRUCache[[]core.CategorySummary]

	stopCacheCleanup chan struct{}
	shutdownOnce     sync.Once
}

// NewServer wires routes and middleware, returning a ready-to-run server.
func NewServer(opts Options) *Server {
	cacheSize := opts.CacheSize
	if cacheSize < 1 {
		cacheSize = 128
	}
	cacheTTL := opts.CacheTTL
	if cacheTTL <= 0 {
		cacheTTL = 30 * time.Second
	}

	s := &Server{
		backend:          opts.Backend,
		authorizer:       opts.Authorizer,
		publisher:        opts.Publisher,
		summaryCache:     cache.NewLRUCache[[]core.CategorySummary](cacheSize, cacheTTL),
		stopCacheCleanup: make(chan struct{}),
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /expenses", s.handleListExpenses)
	mux.HandleFunc("GET /expenses/search", s.handleSearchExpenses)
	mux.HandleFunc("GET /expenses/summary-by-category", s.handleSummaryByCategory)
	mux.HandleFunc("GET /expenses/average-daily", s.handleAverageDaily)
	mux.HandleFunc("GET /expenses/{id}", s.handleGetExpense)
	mux.HandleFunc("POST /expenses", s.handleCreateExpense)
	mux.HandleFunc("PUT /expenses/{id}", s.handleReplaceExpense)
	mux.HandleFunc("PATCH /expenses/{id}", s.handlePatchExpense)
	mux.HandleFunc("DELETE /expenses/{id}", s.handleDeleteExpense)

	mux.HandleFunc("GET /categories", s.handleListCategories)
	mux.HandleFunc("POST /categories", s.handleCreateCategory)

	mux.HandleFunc("GET /admin", s.handleAdmin)

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	s.tracer = trace.NewMiddleware(clientIP)
	handler := s.tracer.Middleware(withCORS(s.recoverPanics(mux)))

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go s.startCacheCleanup()

	return s
}

// clientIP extracts the client address, honoring proxy headers.
func clientIP(r *http.Request) string {
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		return ip
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	return r.RemoteAddr
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// recoverPanics catches unhandled faults at the boundary: logged in
// full, generic 500 to the client.
func (s *Server) recoverPanics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				slog.ErrorContext(r.Context(), "Handler panic",
					"panic", rec,
					"method", r.Method,
					"path", r.URL.Path)
				writeMessage(w, http.StatusInternalServerError, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) startCacheCleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if cleaned := s.summaryCache.CleanExpired(); cleaned > 0 {
				slog.Debug("Cache cleanup completed", "entries_removed", cleaned)
			}
		case <-s.stopCacheCleanup:
			return
		}
	}
}

// Shutdown stops the cleanup goroutine and drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		close(s.stopCacheCleanup)
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if _, err := s.backend.ListCategories(ctx); err != nil {
		slog.ErrorContext(ctx, "Readiness check failed", "error", err)
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("not ready"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// handleAdmin reports request counters and cache occupancy behind the
// shared secret.
func (s *Server) handleAdmin(w http.ResponseWriter, r *http.Request) {
	if s.authorizer == nil || !s.authorizer.Check(r.Header.Get("Authorization")) {
		writeMessage(w, http.StatusForbidden, "access denied")
		return
	}

	metrics := s.tracer.GetMetrics()
	writeRecord(w, http.StatusOK, struct {
		Message            string `json:"message"`
		TotalRequests      int64  `json:"total_requests"`
		LastResponseTimeMS int64  `json:"last_response_time_ms"`
		SummaryCacheSize   int    `json:"summary_cache_size"`
	}{
		Message:            "admin access granted",
		TotalRequests:      metrics.TotalRequests,
		LastResponseTimeMS: metrics.LastResponseTime,
		SummaryCacheSize:   s.summaryCache.Size(),
	})
}
