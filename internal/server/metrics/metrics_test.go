package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New()

	m.TokenIssued()
	m.TokenIssued()
	m.TokenRotated()
	m.TokenFailure("expired")
	m.TokenFailure("expired")
	m.TokenFailure("not_found")
	m.WhitelistSwept(5)
	m.WhitelistSwept(0)
	m.AssetUploaded("image")
	m.ThumbnailFallback()
	m.PresignedURL()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.tokensIssued))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.tokenRotations))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.tokenFailures.WithLabelValues("expired")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.tokenFailures.WithLabelValues("not_found")))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.whitelistSwept))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.assetsUploaded.WithLabelValues("image")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.thumbnailFallbacks))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.presignedURLs))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.TokenIssued()
		m.TokenRotated()
		m.TokenFailure("x")
		m.WhitelistSwept(1)
		m.AssetUploaded("file")
		m.ThumbnailFallback()
		m.PresignedURL()
	})

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandlerExposesCounters(t *testing.T) {
	m := New()
	m.TokenIssued()

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), "gophgate_tokens_issued_total 1")
	assert.Contains(t, string(body), "go_goroutines")
}
