package observability

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestMiddlewareCountsRequests(t *testing.T) {
	m := NewMetrics()
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/anything", nil))

	require.Equal(t, http.StatusTeapot, rec.Code)
	require.Equal(t, float64(1), testutil.ToFloat64(m.requestsTotal.WithLabelValues("unknown", "418")))
}

func TestObserveReconciliation(t *testing.T) {
	m := NewMetrics()
	m.ObserveReconciliation("completed")
	m.ObserveReconciliation("completed")
	m.ObserveReconciliation("duplicate")

	require.Equal(t, float64(2), testutil.ToFloat64(m.reconciliations.WithLabelValues("completed")))
	require.Equal(t, float64(1), testutil.ToFloat64(m.reconciliations.WithLabelValues("duplicate")))
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	m.ObserveReconciliation("completed")

	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
