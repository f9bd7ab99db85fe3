// Package web provides the HTTP server and JSON API for the operations
// dashboard: import previews and commits, record CRUD, reporting, and
// the audit trail.
package web

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/belisarialeskovac-maker/opsdash/internal/config"
	"github.com/belisarialeskovac-maker/opsdash/internal/core"
	"github.com/belisarialeskovac-maker/opsdash/internal/store"
	mw "github.com/belisarialeskovac-maker/opsdash/internal/web/middleware"
)

// Server is the HTTP server for the dashboard API.
type Server struct {
	service *core.Service
	cfg     *config.Config
	router  *chi.Mux
	server  *http.Server
}

// NewServer creates a new Server instance.
func NewServer(service *core.Service, cfg *config.Config) *Server {
	s := &Server{
		service: service,
		cfg:     cfg,
		router:  chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(mw.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(mw.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
	s.router.Use(middleware.Timeout(s.cfg.Server.RequestTimeout))

	// Security hardening
	s.router.Use(securityHeaders(s.cfg.Security.EnableCSP))

	if s.cfg.Rate.Enabled {
		limiter := newRateLimiter(s.cfg.Rate.RequestsPerMinute, time.Minute)
		s.router.Use(limiter.middleware)
	}
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealthz)

	// Import endpoints get a tighter per-IP limit than the general API.
	importLimit := func(next http.Handler) http.Handler { return next }
	if s.cfg.Rate.Enabled {
		limiter := newRateLimiter(s.cfg.Rate.ImportLimit, time.Minute)
		importLimit = limiter.middleware
	}

	s.router.Route("/api", func(r chi.Router) {
		// Import targets
		r.Get("/targets", s.handleListTargets)
		r.Get("/targets/{targetKey}/template", s.handleDownloadTemplate)

		// Import lifecycle: preview, inspect, confirm or discard
		r.Route("/imports", func(r chi.Router) {
			r.With(importLimit).Post("/", s.handlePreview)
			r.Get("/status", s.handleLimiterStatus)
			r.Get("/{sessionID}", s.handlePlanStatus)
			r.Get("/{sessionID}/rows", s.handlePlanRows)
			r.Get("/{sessionID}/export", s.handleExportPlan)
			r.Post("/{sessionID}/revalidate", s.handleRevalidate)
			r.Post("/{sessionID}/commit", s.handleCommit)
			r.Delete("/{sessionID}", s.handleDiscard)
		})

		// Import history and rollback
		r.Get("/history", s.handleImportHistory)
		r.Get("/history/{importID}", s.handleGetImport)
		r.Post("/history/{importID}/rollback", s.handleRollback)

		// Record CRUD
		r.Route("/agents", func(r chi.Router) {
			r.Get("/", s.handleListAgents)
			r.Post("/", s.handleCreateAgent)
			r.Get("/export", s.handleExportCollection("agents"))
			r.Get("/{name}", s.handleGetAgent)
			r.Put("/{name}", s.handleUpdateAgent)
			r.Delete("/{name}", s.handleDeleteAgent)
		})
		r.Route("/shops", func(r chi.Router) {
			r.Get("/", s.handleListShops)
			r.Post("/", s.handleCreateShop)
			r.Get("/export", s.handleExportCollection("shops"))
			r.Get("/{shopID}", s.handleGetShop)
			r.Put("/{shopID}", s.handleUpdateShop)
			r.Delete("/{shopID}", s.handleDeleteShop)
		})
		r.Route("/inventory", func(r chi.Router) {
			r.Get("/", s.handleListInventory)
			r.Post("/", s.handleCreateInventoryItem)
			r.Get("/export", s.handleExportCollection("inventory"))
			r.Get("/{imei}", s.handleGetInventoryItem)
			r.Put("/{imei}", s.handleUpdateInventoryItem)
			r.Delete("/{imei}", s.handleDeleteInventoryItem)
		})
		r.Route("/deposits", s.transactionRoutes(store.KindDeposit))
		r.Route("/withdrawals", s.transactionRoutes(store.KindWithdrawal))

		// Reporting
		r.Get("/stats", s.handleDashboardStats)
		r.Get("/stats/agents", s.handleAgentSummaries)
		r.Get("/stats/monthly", s.handleMonthlyVolumes)
		r.Get("/stats/targets", s.handleTargetStats)

		// Audit trail
		r.Get("/audit", s.handleAuditLog)
		r.Get("/audit/export", s.handleAuditExport)
	})
}

// transactionRoutes wires the shared transaction handlers for one kind.
func (s *Server) transactionRoutes(kind string) func(chi.Router) {
	return func(r chi.Router) {
		r.Get("/", s.handleListTransactions(kind))
		r.Post("/", s.handleCreateTransaction(kind))
		r.Get("/export", s.handleExportCollection(kind))
		r.Get("/{id}", s.handleGetTransaction(kind))
		r.Put("/{id}", s.handleUpdateTransaction(kind))
		r.Delete("/{id}", s.handleDeleteTransaction(kind))
	}
}

// handleHealthz reports server and database health.
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.service.Store().Pool().Ping(ctx); err != nil {
		s.respondError(w, r, err, http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, map[string]string{"status": "ok"})
}

// Start begins listening for HTTP requests on the configured address.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	slog.Info("server listening", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// securityHeaders adds security headers to all responses.
func securityHeaders(enableCSP bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Prevent MIME type sniffing
			w.Header().Set("X-Content-Type-Options", "nosniff")

			// Prevent clickjacking
			w.Header().Set("X-Frame-Options", "DENY")

			// Control referrer information
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

			if enableCSP {
				w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
			}

			next.ServeHTTP(w, r)
		})
	}
}

// rateLimiter implements a simple token bucket rate limiter per IP.
type rateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	rate     int           // requests per window
	window   time.Duration // time window
}

type visitor struct {
	tokens    int
	lastReset time.Time
}

// newRateLimiter creates a rate limiter with the specified rate per window.
func newRateLimiter(rate int, window time.Duration) *rateLimiter {
	rl := &rateLimiter{
		visitors: make(map[string]*visitor),
		rate:     rate,
		window:   window,
	}
	// Start cleanup goroutine
	go rl.cleanup()
	return rl
}

// cleanup removes stale visitor entries every minute.
func (rl *rateLimiter) cleanup() {
	for {
		time.Sleep(time.Minute)
		rl.mu.Lock()
		for ip, v := range rl.visitors {
			if time.Since(v.lastReset) > rl.window*2 {
				delete(rl.visitors, ip)
			}
		}
		rl.mu.Unlock()
	}
}

// allow checks if the request should be allowed and consumes a token if so.
func (rl *rateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, exists := rl.visitors[ip]
	if !exists {
		rl.visitors[ip] = &visitor{
			tokens:    rl.rate - 1, // consume one token
			lastReset: time.Now(),
		}
		return true
	}

	// Reset tokens if window has passed
	if time.Since(v.lastReset) > rl.window {
		v.tokens = rl.rate - 1
		v.lastReset = time.Now()
		return true
	}

	// Check if we have tokens left
	if v.tokens <= 0 {
		return false
	}

	v.tokens--
	return true
}

// middleware returns an HTTP middleware that rate limits by IP.
// RemoteAddr has already been resolved by the TrustedRealIP middleware.
func (rl *rateLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.allow(r.RemoteAddr) {
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// writeJSON encodes v as JSON and writes it to w.
// Logs encoding errors since headers are already sent.
func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode failed", "error", err)
	}
}
