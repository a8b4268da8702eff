package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"fintrack/internal/budget"
	"fintrack/internal/core"
	"fintrack/internal/fire"
	"fintrack/internal/ledger"
	applog "fintrack/internal/log"
	"fintrack/internal/services"
	"fintrack/internal/state"
)

// FinanceAPI is the application surface the handlers call.
type FinanceAPI interface {
	Export(ctx context.Context, userID string) ([]byte, error)
	Restore(ctx context.Context, userID string, data []byte) error
	Reset(ctx context.Context, userID string) error
	Dashboard(ctx context.Context, userID string, year, month int) (*services.Snapshot, error)
	AssistantContext(ctx context.Context, userID string, year, month int) (string, error)
	NetWorth(ctx context.Context, userID string) (ledger.NetWorthSummary, error)
	Budget(ctx context.Context, userID string, year, month int) (budget.Summary, error)
	SetBudgetedAmount(ctx context.Context, userID, categoryID string, year, month int, cents int64) (budget.Summary, error)
	Transactions(ctx context.Context, userID string, year, month int) ([]core.Transaction, error)
	AddTransaction(ctx context.Context, userID string, tx core.Transaction) (core.Transaction, error)
	UpdateTransaction(ctx context.Context, userID, id string, patch state.TransactionPatch) (core.Transaction, error)
	ImportTransactions(ctx context.Context, userID string, txs []core.Transaction) (services.ImportOutcome, error)
	UpsertAccount(ctx context.Context, userID string, acc core.Account) (core.Account, error)
	AddCategory(ctx context.Context, userID string, cat core.Category) (core.Category, error)
	AddCategoryRule(ctx context.Context, userID string, rule core.CategoryRule) (core.CategoryRule, error)
	AddGoal(ctx context.Context, userID string, goal core.Goal) (core.Goal, error)
	Fire(ctx context.Context, userID string) (fire.Projection, error)
	UpdateFireConfig(ctx context.Context, userID string, patch core.FireConfigPatch) (core.FireConfig, error)
}

// ServerOptions configures NewServer.
type ServerOptions struct {
	// UserID is the user every request acts for.
	UserID             string
	RateLimitPerMinute int
	// Ready reports whether dependencies are usable; nil means always ready.
	Ready  func(ctx context.Context) error
	Logger *applog.Logger
}

type Server struct {
	http.Server
	api         FinanceAPI
	userID      string
	ready       func(ctx context.Context) error
	logger      *applog.Logger
	reqLogger   *applog.StructuredLogger
	rateLimiter *rateLimiter
	metrics     *securityMetrics

	shutdownOnce sync.Once
}

// NewServer configures routes, returning a ready-to-run http.Server.
func NewServer(addr string, api FinanceAPI, opts ServerOptions) *Server {
	if opts.Logger == nil {
		opts.Logger = applog.New(applog.DefaultConfig())
	}
	if opts.RateLimitPerMinute < 1 {
		opts.RateLimitPerMinute = 60
	}

	mux := http.NewServeMux()
	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 10 * time.Second,
		},
		api:         api,
		userID:      opts.UserID,
		ready:       opts.Ready,
		logger:      opts.Logger,
		reqLogger:   applog.NewStructuredLogger(opts.Logger),
		rateLimiter: newRateLimiter(opts.RateLimitPerMinute),
		metrics:     &securityMetrics{},
	}

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /api/state", s.handleExportState)
	mux.HandleFunc("PUT /api/state", s.handleRestoreState)
	mux.HandleFunc("DELETE /api/state", s.handleResetState)
	mux.HandleFunc("GET /api/dashboard", s.handleDashboard)
	mux.HandleFunc("GET /api/net-worth", s.handleNetWorth)
	mux.HandleFunc("GET /api/budget", s.handleBudget)
	mux.HandleFunc("PUT /api/budget", s.handleSetBudget)
	mux.HandleFunc("GET /api/transactions", s.handleListTransactions)
	mux.HandleFunc("POST /api/transactions", s.handleCreateTransaction)
	mux.HandleFunc("PATCH /api/transactions/{id}", s.handleUpdateTransaction)
	mux.HandleFunc("POST /api/transactions/import", s.handleImportTransactions)
	mux.HandleFunc("POST /api/accounts", s.handleCreateAccount)
	mux.HandleFunc("POST /api/categories", s.handleCreateCategory)
	mux.HandleFunc("POST /api/rules", s.handleCreateRule)
	mux.HandleFunc("POST /api/goals", s.handleCreateGoal)
	mux.HandleFunc("GET /api/fire", s.handleFire)
	mux.HandleFunc("PATCH /api/fire", s.handleUpdateFire)
	mux.HandleFunc("GET /api/assistant/context", s.handleAssistantContext)

	s.Handler = applog.Middleware(opts.Logger)(s.withMiddleware(mux))
	return s
}

// withMiddleware adds request ids, rate limiting, security headers and
// request logging.
func (s *Server) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		clientIP := extractClientIP(r)

		ctx := applog.WithRequestID(r.Context(), generateRequestID())
		r = r.WithContext(ctx)

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		defer func() {
			s.reqLogger.LogHTTPEnd(ctx, r, rw.statusCode, time.Since(start).Milliseconds(), clientIP)
		}()

		if detectSuspiciousRequest(r, s.metrics) {
			applog.FromContext(ctx).WarnContext(ctx, "Suspicious request",
				applog.FieldClientIP, clientIP,
				applog.FieldPath, r.URL.Path)
		}

		if !s.rateLimiter.allow(clientIP, s.metrics) {
			applog.FromContext(ctx).WarnContext(ctx, "Rate limit exceeded",
				applog.FieldClientIP, clientIP,
				applog.FieldMethod, r.Method,
				applog.FieldPath, r.URL.Path)
			rw.Header().Set("Retry-After", "60")
			writeJSON(rw, http.StatusTooManyRequests, errorResponse{Error: "rate limit exceeded"})
			return
		}

		rw.Header().Set("X-Content-Type-Options", "nosniff")
		rw.Header().Set("X-Frame-Options", "DENY")
		rw.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		rw.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		rw.Header().Set("X-Request-ID", applog.RequestID(ctx))

		next.ServeHTTP(rw, r)
	})
}

// Shutdown stops the rate limiter cleanup and the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.rateLimiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
		slog.InfoContext(ctx, "HTTP server stopped",
			"rate_limit_hits", s.metrics.rateLimitHitCount(),
			"suspicious_requests", s.metrics.suspiciousRequestCount())
	})

	return shutdownErr
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{"storage": "ok"}
	status := http.StatusOK
	if s.ready != nil {
		if err := s.ready(r.Context()); err != nil {
			checks["storage"] = err.Error()
			status = http.StatusServiceUnavailable
		}
	}

	overall := "ready"
	if status != http.StatusOK {
		overall = "not ready"
	}
	writeJSON(w, status, map[string]any{
		"status":    overall,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"checks":    checks,
	})
}
