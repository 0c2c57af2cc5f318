package http

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	applog "timetracker/internal/log"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().
		Field("status", "ok").
		Field("timestamp", time.Now().UTC().Format(time.RFC3339)).
		Field("uptime", time.Since(s.appMetrics.uptime).Round(time.Second).String()).
		Write(w)
}

// handleReady pings the record store.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := map[string]string{}
	status, code := "ready", http.StatusOK

	switch {
	case s.store == nil:
		checks["store"] = "not_configured"
		status, code = "not_ready", http.StatusServiceUnavailable
	default:
		if err := s.store.Ping(ctx); err != nil {
			applog.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed",
				applog.FieldError, err,
				applog.FieldErrorType, applog.ErrorTypeDatabase)
			checks["store"] = fmt.Sprintf("failed: %v", err)
			status, code = "not_ready", http.StatusServiceUnavailable
		} else {
			checks["store"] = "ok"
		}
	}

	b := NewJSONResponse().Status(code).Field("status", status).Field("checks", checks)
	if code != http.StatusOK {
		b.Fail("store unavailable")
	}
	b.Write(w)
}

// handleMetrics provides application and security metrics in plain text format
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")

	traceMetrics := s.traceMiddleware.GetMetrics()
	securityMetrics := s.securityDetector.GetMetrics()
	rateLimitMetrics := s.rateLimiter.GetMetrics()

	counter := func(name, help string, v int64) {
		fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s counter\n%s %d\n\n", name, help, name, name, v)
	}
	gauge := func(name, help string, v int64) {
		fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s gauge\n%s %d\n\n", name, help, name, name, v)
	}

	counter("http_requests_total", "Total number of HTTP requests", traceMetrics.TotalRequests)
	counter("http_client_errors_total", "Responses with a 4xx status", traceMetrics.ClientErrors)
	counter("http_server_errors_total", "Responses with a 5xx status", traceMetrics.ServerErrors)
	counter("entry_mutations_total", "Successful entry mutations", atomic.LoadInt64(&s.appMetrics.mutations))
	counter("cache_hits_total", "Total cache hits", atomic.LoadInt64(&s.appMetrics.cacheHits))
	counter("cache_misses_total", "Total cache misses", atomic.LoadInt64(&s.appMetrics.cacheMisses))
	counter("rate_limit_hits_total", "Total rate limit hits", rateLimitMetrics.TotalHits)
	counter("suspicious_requests_total", "Total suspicious requests detected", securityMetrics.SuspiciousRequests)
	counter("blocked_requests_total", "Requests rejected by the security detector", securityMetrics.BlockedRequests)

	fmt.Fprintf(w, "# HELP cache_entries Current cache entries\n# TYPE cache_entries gauge\n")
	fmt.Fprintf(w, "cache_entries{view=\"entries\"} %d\n", s.entriesCache.Size())
	fmt.Fprintf(w, "cache_entries{view=\"entry\"} %d\n", s.entryCache.Size())
	fmt.Fprintf(w, "cache_entries{view=\"progress\"} %d\n", s.progressCache.Size())
	fmt.Fprintf(w, "cache_entries{view=\"daily\"} %d\n", s.dailyCache.Size())
	fmt.Fprintf(w, "cache_entries{view=\"categories\"} %d\n", s.categoryCache.Size())
	fmt.Fprintf(w, "cache_entries{view=\"summary\"} %d\n\n", s.summaryCache.Size())

	gauge("active_rate_limit_clients", "Currently tracked rate limit clients", rateLimitMetrics.ClientCount)
	fmt.Fprintf(w, "# HELP uptime_seconds Application uptime in seconds\n# TYPE uptime_seconds gauge\nuptime_seconds %.0f\n",
		time.Since(s.appMetrics.uptime).Seconds())
}

// handlePurgeCache drops every cached view. Out-of-process writers call it
// after changing the shared store.
func (s *Server) handlePurgeCache(w http.ResponseWriter, r *http.Request) {
	purged := s.cacheManager.PurgeAll()
	applog.FromContext(r.Context()).WithComponent(applog.ComponentCache).InfoContext(r.Context(), "Cache views purged",
		"purged", purged)
	NewJSONResponse().Field("purged", purged).Write(w)
}
