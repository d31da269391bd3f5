package trace

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	applog "auditreport/internal/log"
)

func newTestMiddleware(buf *bytes.Buffer) *Middleware {
	logger := applog.New(applog.Config{Format: "json", Output: buf})
	return NewMiddleware(logger, func(r *http.Request) string { return "203.0.113.7" })
}

func TestMiddleware_RequestIDAndLogger(t *testing.T) {
	var buf bytes.Buffer
	m := newTestMiddleware(&buf)

	var gotID string
	var gotLogger *applog.Logger
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID = GetRequestID(r.Context())
		gotLogger = applog.FromContext(r.Context())
		w.WriteHeader(http.StatusCreated)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/projects", nil))

	require.True(t, strings.HasPrefix(gotID, "req_"), "request id %q", gotID)
	assert.Equal(t, gotID, rec.Header().Get(RequestIDHeader))
	require.NotNil(t, gotLogger)
	assert.Equal(t, applog.ComponentHTTP, gotLogger.Component())

	out := buf.String()
	assert.Contains(t, out, "HTTP request completed")
	assert.Contains(t, out, `"status_code":201`)
	assert.Contains(t, out, gotID)
}

func TestMiddleware_HonoursIncomingRequestID(t *testing.T) {
	var buf bytes.Buffer
	m := newTestMiddleware(&buf)
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
}

func TestMiddleware_Metrics(t *testing.T) {
	var buf bytes.Buffer
	m := newTestMiddleware(&buf)
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/fail" {
			http.Error(w, "boom", http.StatusInternalServerError)
		}
	}))

	for _, p := range []string{"/ok", "/ok", "/fail"} {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, p, nil))
	}

	metrics := m.GetMetrics()
	assert.Equal(t, int64(3), metrics.TotalRequests)
	assert.Equal(t, int64(1), metrics.FailedRequests)
	assert.Contains(t, buf.String(), `"level":"ERROR"`)
}

func TestGenerateRequestID_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := GenerateRequestID()
		require.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}
