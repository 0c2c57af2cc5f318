package trace

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	applog "timetracker/internal/log"
)

func TestMiddlewareAssignsRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := applog.New(applog.Config{Level: applog.ParseLevel("debug"), Format: "text", Output: &buf})
	m := NewMiddleware(func(*http.Request) string { return "10.0.0.1" }, logger)

	var seenID string
	var seenLogger *applog.Logger
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenID = GetRequestID(r.Context())
		seenLogger = applog.FromContext(r.Context())
		w.WriteHeader(http.StatusCreated)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/entries", nil))

	if !strings.HasPrefix(seenID, "req_") {
		t.Fatalf("request id = %q", seenID)
	}
	if rec.Header().Get(RequestIDHeader) != seenID {
		t.Fatalf("response header = %q, want %q", rec.Header().Get(RequestIDHeader), seenID)
	}
	if seenLogger == nil || seenLogger.Component() != applog.ComponentTrace {
		t.Fatalf("request-scoped logger not installed")
	}
	out := buf.String()
	if !strings.Contains(out, "HTTP request completed") || !strings.Contains(out, "request_id="+seenID) {
		t.Fatalf("completion not logged with request id:\n%s", out)
	}
	if !strings.Contains(out, "status_code=201") {
		t.Fatalf("status not logged:\n%s", out)
	}
}

func TestMiddlewareKeepsValidIncomingID(t *testing.T) {
	m := NewMiddleware(nil, applog.Discard())
	h := m.Middleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))

	tests := []struct {
		incoming string
		keep     bool
	}{
		{"abc-123", true},
		{"bad id with spaces", false},
		{strings.Repeat("x", 65), false},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, tt.incoming)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		got := rec.Header().Get(RequestIDHeader)
		if (got == tt.incoming) != tt.keep {
			t.Errorf("incoming %q: got %q, keep=%v", tt.incoming, got, tt.keep)
		}
	}
}

func TestMiddlewareMetrics(t *testing.T) {
	m := NewMiddleware(nil, applog.Discard())
	statuses := []int{http.StatusOK, http.StatusNotFound, http.StatusUnprocessableEntity, http.StatusInternalServerError}
	for _, status := range statuses {
		h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(time.Millisecond)
			w.WriteHeader(status)
		}))
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	}

	got := m.GetMetrics()
	if got.TotalRequests != 4 || got.ClientErrors != 2 || got.ServerErrors != 1 {
		t.Fatalf("metrics = %+v", got)
	}
	if got.AverageResponseTime() < time.Millisecond {
		t.Fatalf("average = %v", got.AverageResponseTime())
	}
	if (Metrics{}).AverageResponseTime() != 0 {
		t.Fatal("empty metrics should average to zero")
	}
}

func TestResponseWriterRecordsFirstStatus(t *testing.T) {
	rec := httptest.NewRecorder()
	rw := &responseWriter{ResponseWriter: rec, statusCode: http.StatusOK}
	_, _ = rw.Write([]byte("ok"))
	rw.WriteHeader(http.StatusTeapot)
	if rw.statusCode != http.StatusOK {
		t.Fatalf("status = %d", rw.statusCode)
	}
}

func TestGenerateRequestIDUnique(t *testing.T) {
	if GenerateRequestID() == GenerateRequestID() {
		t.Fatal("ids should differ")
	}
}
