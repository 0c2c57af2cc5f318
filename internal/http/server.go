package http

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"timetracker/internal/cache"
	"timetracker/internal/core"
	applog "timetracker/internal/log"
	"timetracker/internal/middleware/ratelimit"
	"timetracker/internal/middleware/security"
	"timetracker/internal/middleware/trace"
	"timetracker/internal/services"
	"timetracker/internal/store"
)

// Options configures NewServer. Zero values fall back to the defaults
// used by the config package.
type Options struct {
	Addr                string
	Store               store.Store
	Publisher           services.Publisher
	Logger              *applog.Logger
	DashboardWindowDays int
	CacheTTL            time.Duration
	CacheSize           int
	RateLimitPerMinute  int
}

type appMetrics struct {
	uptime      time.Time
	mutations   int64
	cacheHits   int64
	cacheMisses int64
}

type Server struct {
	http.Server
	store      store.Store
	repo       *services.Repository
	aggregator *services.Aggregator
	mutator    *services.Mutator
	logger     *applog.Logger
	windowDays int

	// Read-through views, invalidated by the mutator through cacheManager.
	cacheManager  *cache.Manager
	entriesCache  *cache.LRUCache[[]core.TimeEntry]
	entryCache    *cache.LRUCache[core.TimeEntry]
	progressCache *cache.LRUCache[core.TaskProgress]
	dailyCache    *cache.LRUCache[[]core.DailyTotal]
	categoryCache *cache.LRUCache[[]core.CategoryTotal]
	summaryCache  *cache.LRUCache[core.DashboardSummary]

	rateLimiter      *ratelimit.Limiter
	securityDetector *security.Detector
	traceMiddleware  *trace.Middleware
	appMetrics       appMetrics

	shutdownOnce sync.Once
}

// NewServer wires the services over opts.Store and returns a ready-to-run server.
func NewServer(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = applog.FromContext(context.Background())
	}
	if opts.DashboardWindowDays <= 0 {
		opts.DashboardWindowDays = 7
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 5 * time.Minute
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = 256
	}
	logger := opts.Logger.WithComponent(applog.ComponentHTTP)

	mux := http.NewServeMux()
	s := &Server{
		Server: http.Server{
			Addr:              opts.Addr,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      15 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		store:      opts.Store,
		logger:     logger,
		windowDays: opts.DashboardWindowDays,

		cacheManager:  cache.NewManager(opts.Logger.WithComponent(applog.ComponentCache).Logger),
		entriesCache:  cache.NewLRUCache[[]core.TimeEntry](opts.CacheSize, opts.CacheTTL),
		entryCache:    cache.NewLRUCache[core.TimeEntry](opts.CacheSize, opts.CacheTTL),
		progressCache: cache.NewLRUCache[core.TaskProgress](opts.CacheSize, opts.CacheTTL),
		dailyCache:    cache.NewLRUCache[[]core.DailyTotal](opts.CacheSize, opts.CacheTTL),
		categoryCache: cache.NewLRUCache[[]core.CategoryTotal](opts.CacheSize, opts.CacheTTL),
		summaryCache:  cache.NewLRUCache[core.DashboardSummary](opts.CacheSize, opts.CacheTTL),

		rateLimiter:      ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		securityDetector: security.NewDetector(),
		appMetrics:       appMetrics{uptime: time.Now()},
	}
	s.traceMiddleware = trace.NewMiddleware(s.securityDetector.ExtractClientIP, logger)

	s.cacheManager.RegisterView("entries", s.entriesCache, cache.ScopeList)
	s.cacheManager.RegisterView("entry", s.entryCache, cache.ScopeEntry)
	s.cacheManager.RegisterView("progress", s.progressCache, cache.ScopeEntry)
	s.cacheManager.RegisterView("daily", s.dailyCache, cache.ScopeList)
	s.cacheManager.RegisterView("categories", s.categoryCache, cache.ScopeList)
	s.cacheManager.RegisterView("summary", s.summaryCache, cache.ScopeList)
	s.cacheManager.StartCleanup(10 * time.Minute)

	s.repo = services.NewRepository(opts.Store, opts.Logger)
	s.aggregator = services.NewAggregator(opts.Store, opts.Logger)
	s.mutator = services.NewMutator(opts.Store, s.cacheManager, opts.Publisher, opts.Logger)

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	mux.HandleFunc("GET /api/entries", s.handleListEntries)
	mux.HandleFunc("POST /api/entries", s.handleCreateEntry)
	mux.HandleFunc("GET /api/entries/{id}", s.handleGetEntry)
	mux.HandleFunc("PUT /api/entries/{id}", s.handleUpdateEntry)
	mux.HandleFunc("DELETE /api/entries/{id}", s.handleDeleteEntry)
	mux.HandleFunc("GET /api/entries/{id}/progress", s.handleGetProgress)
	mux.HandleFunc("PATCH /api/entries/{id}/progress", s.handleSetProgress)

	mux.HandleFunc("GET /api/dashboard/daily", s.handleDailyTotals)
	mux.HandleFunc("GET /api/dashboard/categories", s.handleCategoryTotals)
	mux.HandleFunc("GET /api/dashboard/summary", s.handleDashboardSummary)
	mux.HandleFunc("GET /api/dashboard/tasks", s.handleOpenTasks)
	mux.HandleFunc("GET /api/categories", s.handleCategories)
	mux.HandleFunc("DELETE /api/cache", s.handlePurgeCache)

	s.Handler = s.middleware(mux)
	return s
}

// middleware applies, outermost first: tracing, security headers,
// suspicious request detection and write rate limiting.
func (s *Server) middleware(next http.Handler) http.Handler {
	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	h := s.limitWrites(next)
	h = s.securityDetector.Middleware(h)
	h = headers.Middleware(h)
	return s.traceMiddleware.Middleware(h)
}

// limitWrites applies the rate limiter to mutating methods only.
func (s *Server) limitWrites(next http.Handler) http.Handler {
	limited := s.rateLimiter.Middleware(s.securityDetector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		applog.FromContext(r.Context()).WithComponent(applog.ComponentRateLimit).WarnContext(r.Context(), "Rate limit exceeded",
			applog.FieldClientIP, s.securityDetector.ExtractClientIP(r),
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path)
		TooManyRequestsError().Write(w)
	})(next)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			next.ServeHTTP(w, r)
		default:
			limited.ServeHTTP(w, r)
		}
	})
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// cached serves key from c, loading it with the request's read timeout on a miss.
func cached[T any](ctx context.Context, s *Server, c *cache.LRUCache[T], key string, load func(context.Context) (T, error)) (T, error) {
	if v, ok := c.Get(key); ok {
		atomic.AddInt64(&s.appMetrics.cacheHits, 1)
		return v, nil
	}
	atomic.AddInt64(&s.appMetrics.cacheMisses, 1)
	return c.GetOrLoad(key, func() (T, error) {
		cctx, cancel := withReadTimeout(ctx)
		defer cancel()
		return load(cctx)
	})
}
