package http

import (
	"context"
	"net/http"
	"time"

	"soldi/internal/cache"
	"soldi/internal/core"
	"soldi/internal/log"
	"soldi/internal/middleware/ratelimit"
	"soldi/internal/middleware/security"
	"soldi/internal/middleware/trace"
	"soldi/internal/services"
)

// Cache TTLs for the two read-heavy aggregates. Writes invalidate the
// caller's entries, the TTL covers cross-user effects (family scopes).
const (
	summaryCacheTTL  = 30 * time.Second
	progressCacheTTL = 30 * time.Second
)

type Config struct {
	Addr              string
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	RequestsPerMinute int
}

// Server is the JSON API surface. All routes under /api/v1 require the
// X-User-ID header; /healthz and /readyz do not.
// Exporter mirrors the sheets exporter's surface so the server does not
// depend on the Google client directly.
type Exporter interface {
	ExportMonthly(ctx context.Context, userName string, s core.PeriodSummary) error
}

type Server struct {
	httpServer *http.Server
	logger     *log.Logger

	users        *services.UserService
	ledger       *services.LedgerService
	transactions *services.TransactionService
	budgets      *services.BudgetService
	families     *services.FamilyService
	exporter     Exporter

	limiter       *ratelimit.Limiter
	caches        *cache.Manager
	summaryCache  *cache.LRUCache[summaryResponse]
	progressCache *cache.LRUCache[[]progressResponse]
}

type Services struct {
	Users        *services.UserService
	Ledger       *services.LedgerService
	Transactions *services.TransactionService
	Budgets      *services.BudgetService
	Families     *services.FamilyService
	Exporter     Exporter // optional
}

func NewServer(cfg Config, svc Services, logger *log.Logger) *Server {
	s := &Server{
		logger:       logger.WithComponent(log.ComponentHTTP),
		users:        svc.Users,
		ledger:       svc.Ledger,
		transactions: svc.Transactions,
		budgets:      svc.Budgets,
		families:     svc.Families,
		exporter:     svc.Exporter,
	}

	rlCfg := ratelimit.DefaultConfig()
	if cfg.RequestsPerMinute > 0 {
		rlCfg.RequestsPerMinute = cfg.RequestsPerMinute
	}
	s.limiter = ratelimit.NewLimiter(rlCfg)

	s.caches = cache.NewManager()
	s.summaryCache = cache.NewLRUCache[summaryResponse](512, summaryCacheTTL)
	s.progressCache = cache.NewLRUCache[[]progressResponse](512, progressCacheTTL)
	s.caches.Register(s.summaryCache)
	s.caches.Register(s.progressCache)
	s.caches.StartCleanup(time.Minute)

	tracer := trace.NewMiddleware(security.ClientIP, logger)
	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())

	mux := http.NewServeMux()
	s.routes(mux)

	var handler http.Handler = mux
	handler = s.limiter.Middleware(security.ClientIP, nil)(handler)
	handler = tracer.Middleware(handler)
	handler = headers.Middleware(handler)

	readTimeout := cfg.ReadTimeout
	if readTimeout == 0 {
		readTimeout = 15 * time.Second
	}
	writeTimeout := cfg.WriteTimeout
	if writeTimeout == 0 {
		writeTimeout = 30 * time.Second
	}
	s.httpServer = &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.HandleFunc("GET /readyz", s.handleReadyz)

	mux.HandleFunc("POST /api/v1/users", s.handleSignup)
	mux.HandleFunc("GET /api/v1/users/me", s.handleGetMe)
	mux.HandleFunc("GET /api/v1/personas", s.handleListPersonas)

	mux.HandleFunc("POST /api/v1/accounts", s.handleCreateAccount)
	mux.HandleFunc("GET /api/v1/accounts", s.handleListAccounts)
	mux.HandleFunc("GET /api/v1/accounts/{id}", s.handleGetAccount)
	mux.HandleFunc("POST /api/v1/accounts/{id}/archive", s.handleArchiveAccount)

	mux.HandleFunc("POST /api/v1/categories", s.handleCreateCategory)
	mux.HandleFunc("GET /api/v1/categories", s.handleListCategories)
	mux.HandleFunc("DELETE /api/v1/categories/{id}", s.handleDeleteCategory)

	mux.HandleFunc("POST /api/v1/transactions", s.handleCreateTransaction)
	mux.HandleFunc("GET /api/v1/transactions", s.handleListTransactions)
	mux.HandleFunc("GET /api/v1/transactions/summary", s.handleSummary)
	mux.HandleFunc("GET /api/v1/transactions/{id}", s.handleGetTransaction)
	mux.HandleFunc("DELETE /api/v1/transactions/{id}", s.handleDeleteTransaction)

	mux.HandleFunc("POST /api/v1/budgets", s.handleCreateBudget)
	mux.HandleFunc("GET /api/v1/budgets", s.handleListBudgets)
	mux.HandleFunc("GET /api/v1/budgets/progress", s.handleProgressAll)
	mux.HandleFunc("PUT /api/v1/budgets/{id}", s.handleUpdateBudget)
	mux.HandleFunc("DELETE /api/v1/budgets/{id}", s.handleDeleteBudget)
	mux.HandleFunc("GET /api/v1/budgets/{id}/progress", s.handleProgress)
	mux.HandleFunc("GET /api/v1/budgets/{id}/trend", s.handleTrend)

	mux.HandleFunc("POST /api/v1/export/sheets", s.handleExportSheets)

	mux.HandleFunc("POST /api/v1/family", s.handleCreateFamily)
	mux.HandleFunc("GET /api/v1/family", s.handleGetFamily)
	mux.HandleFunc("DELETE /api/v1/family", s.handleDeleteFamily)
	mux.HandleFunc("POST /api/v1/family/join", s.handleJoinFamily)
	mux.HandleFunc("POST /api/v1/family/leave", s.handleLeaveFamily)
	mux.HandleFunc("POST /api/v1/family/invite/rotate", s.handleRotateInvite)
	mux.HandleFunc("DELETE /api/v1/family/members/{id}", s.handleRemoveMember)
}

// Handler exposes the full middleware chain, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) ListenAndServe() error {
	s.logger.Info("http server listening", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.limiter.Stop()
	s.caches.Stop()
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// invalidateAggregates drops the cached read models touched by a write on
// behalf of userID.
func (s *Server) invalidateAggregates(userID string) {
	s.summaryCache.Delete(currentSummaryKey(userID))
	s.progressCache.Delete(userID)
}

// requireUser resolves the calling user or writes a 401.
func (s *Server) requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := callerID(r)
	if id == "" {
		s.writeError(w, r, core.ErrNotAuthenticated)
		return "", false
	}
	return id, true
}
