// Package http serves the receipt analytics JSON API.
package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"marketlens/internal/cache"
	"marketlens/internal/core"
	"marketlens/internal/ports"
	"marketlens/internal/services"
)

// Backend is the data surface the API serves from.
type Backend interface {
	ports.ReceiptLister
	ports.SuggestionSource
	ports.HistorySource
}

type Server struct {
	http.Server
	backend     Backend
	service     *services.ReceiptService
	uploadDir   string
	rateLimiter *rateLimiter

	// Receipt snapshots feed every dashboard aggregation, so one cache
	// entry covers categories, months and summary alike.
	receiptsCache *cache.LRU[[]core.Receipt]

	stopCacheCleanup chan struct{}
	shutdownOnce     sync.Once
}

// Config tunes the server; zero values fall back to sensible defaults.
type ServerConfig struct {
	Addr      string
	UploadDir string
	CacheSize int
	CacheTTL  time.Duration
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(cfg ServerConfig, backend Backend, service *services.ReceiptService) *Server {
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = 100
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}

	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    cfg.Addr,
			Handler: mux,
		},
		backend:          backend,
		service:          service,
		uploadDir:        cfg.UploadDir,
		rateLimiter:      newRateLimiter(),
		receiptsCache:    cache.NewLRU[[]core.Receipt](cfg.CacheSize, cfg.CacheTTL),
		stopCacheCleanup: make(chan struct{}),
	}
	s.receiptsCache.StartSweeper(10*time.Minute, s.stopCacheCleanup)

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /api/receipts", s.withMiddleware(s.handleListReceipts))
	mux.HandleFunc("POST /api/receipts", s.withMiddleware(s.handleCreateReceipt))
	mux.HandleFunc("POST /api/receipts/upload", s.withMiddleware(s.handleUploadReceipt))
	mux.HandleFunc("DELETE /api/receipts/{id}", s.withMiddleware(s.handleDeleteReceipt))

	mux.HandleFunc("PUT /api/items/{id}", s.withMiddleware(s.handleUpdateItem))
	mux.HandleFunc("GET /api/items/search-smart", s.withMiddleware(s.handleSearchSmart))
	mux.HandleFunc("GET /api/items/history", s.withMiddleware(s.handleProductHistory))
	mux.HandleFunc("GET /api/items/category-history", s.withMiddleware(s.handleCategoryHistory))

	mux.HandleFunc("GET /api/dashboard/categories", s.withMiddleware(s.handleDashboardCategories))
	mux.HandleFunc("GET /api/dashboard/months", s.withMiddleware(s.handleDashboardMonths))
	mux.HandleFunc("GET /api/dashboard/summary", s.withMiddleware(s.handleDashboardSummary))

	return s
}

// Shutdown stops the HTTP server and the background cleanup goroutines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.stopCacheCleanup != nil {
			close(s.stopCacheCleanup)
		}
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// withMiddleware adds security headers, rate limiting on mutations, a
// request id, and request logging.
func (s *Server) withMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		slog.InfoContext(ctx, "Request started",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"client_ip", clientIP)

		if isMutation(r.Method) && !s.rateLimiter.allow(clientIP) {
			slog.WarnContext(ctx, "Rate limit exceeded", "client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded, try again later")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		slog.InfoContext(ctx, "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", time.Since(start).Milliseconds(),
			"client_ip", clientIP)
	}
}

type requestIDKey struct{}

func isMutation(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodDelete:
		return true
	}
	return false
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// generateRequestID creates a unique request ID for tracing
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if _, err := s.backend.ListReceipts(r.Context()); err != nil {
		slog.ErrorContext(r.Context(), "Readiness check failed", "error", err)
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("backend unavailable"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// Simple in-memory rate limiter
type rateLimiter struct {
	mu           sync.Mutex
	clients      map[string]*clientInfo
	stopCleanup  chan struct{}
	shutdownOnce sync.Once
}

type clientInfo struct {
	lastRequest time.Time
	requests    int
}

func newRateLimiter() *rateLimiter {
	rl := &rateLimiter{
		clients:     make(map[string]*clientInfo),
		stopCleanup: make(chan struct{}),
	}
	go rl.startCleanup()
	return rl
}

func (rl *rateLimiter) startCleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanupStaleEntries()
		case <-rl.stopCleanup:
			return
		}
	}
}

// cleanupStaleEntries removes client entries older than 10 minutes
func (rl *rateLimiter) cleanupStaleEntries() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-10 * time.Minute)
	for ip, client := range rl.clients {
		if client.lastRequest.Before(cutoff) {
			delete(rl.clients, ip)
		}
	}
}

func (rl *rateLimiter) stop() {
	rl.shutdownOnce.Do(func() {
		if rl.stopCleanup != nil {
			close(rl.stopCleanup)
		}
	})
}

func (rl *rateLimiter) allow(clientIP string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	client, exists := rl.clients[clientIP]

	if !exists {
		rl.clients[clientIP] = &clientInfo{
			lastRequest: now,
			requests:    1,
		}
		return true
	}

	// Reset counter if more than 1 minute has passed
	if now.Sub(client.lastRequest) > time.Minute {
		client.requests = 1
		client.lastRequest = now
		return true
	}

	// Allow up to 60 requests per minute
	client.requests++
	client.lastRequest = now

	return client.requests <= 60
}

const snapshotCacheKey = "receipts"

// snapshot returns the receipt list, from cache when fresh.
func (s *Server) snapshot(ctx context.Context) ([]core.Receipt, error) {
	if receipts, ok := s.receiptsCache.Get(snapshotCacheKey); ok {
		slog.DebugContext(ctx, "Receipts cache hit", "count", len(receipts))
		return receipts, nil
	}

	cctx, cancel := context.WithTimeout(ctx, 7*time.Second)
	defer cancel()
	receipts, err := s.backend.ListReceipts(cctx)
	if err != nil {
		return nil, fmt.Errorf("list receipts: %w", err)
	}

	s.receiptsCache.Set(snapshotCacheKey, receipts)
	return receipts, nil
}

// invalidateSnapshot drops cached aggregates after any mutation.
func (s *Server) invalidateSnapshot() {
	s.receiptsCache.Purge()
}
