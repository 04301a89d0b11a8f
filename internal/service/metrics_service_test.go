package service

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsServiceDocumentCounters(t *testing.T) {
	metrics := NewMetricsService()
	metrics.RecordDocumentTransition("submit")
	metrics.RecordDocumentTransition("submit")
	metrics.ObservePDFRender(20 * time.Millisecond)

	assert.Equal(t, float64(2), testutil.ToFloat64(metrics.documentActions.WithLabelValues("submit")))
	count, err := testutil.GatherAndCount(metrics.Registry(), "rab_document_pdf_render_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestMetricsServiceHTTPRequests(t *testing.T) {
	metrics := NewMetricsService()
	metrics.ObserveHTTPRequest(http.MethodGet, "/api/document/list", http.StatusOK, 5*time.Millisecond)
	metrics.ObserveHTTPRequest(http.MethodGet, "/api/document/list", http.StatusOK, 7*time.Millisecond)

	assert.Equal(t, float64(2), testutil.ToFloat64(metrics.requestTotal.WithLabelValues(http.MethodGet, "/api/document/list", "200")))

	w := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.True(t, strings.Contains(body, "rab_http_requests_total"))
	assert.True(t, strings.Contains(body, "go_goroutines"))
}

func TestNilMetricsServiceIsSafe(t *testing.T) {
	var metrics *MetricsService
	assert.NotPanics(t, func() {
		metrics.RecordDocumentTransition("create")
		metrics.ObservePDFRender(time.Second)
		metrics.RecordCacheOperation(true, time.Millisecond)
		metrics.ObserveCacheWrite(time.Millisecond)
		metrics.ObserveHTTPRequest(http.MethodGet, "/", http.StatusOK, time.Millisecond)
	})

	w := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Nil(t, metrics.Registry())
}
