package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddlewareLabelsByPattern(t *testing.T) {
	m := New(nil)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/lists/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	h := m.Middleware(mux)

	for _, path := range []string{"/api/lists/1", "/api/lists/2"} {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", path, nil))
	}
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/nowhere", nil))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues("GET", "GET /api/lists/{id}", "404")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("GET", "unmatched", "404")))
}

func TestObserveCompletionAndState(t *testing.T) {
	m := New(func() int { return 3 })

	m.ObserveCompletion(4)
	m.ObserveCompletion(0)
	m.ObserveState("found")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.completions))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.toggles.WithLabelValues("found")))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	out := string(body)
	assert.True(t, strings.Contains(out, "shoplist_websocket_clients 3"), "gauge missing from:\n%s", out)
	assert.True(t, strings.Contains(out, "shoplist_list_completion_items_count 2"))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveCompletion(1)
	m.ObserveState("found")

	called := false
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))
	assert.True(t, called)
}
