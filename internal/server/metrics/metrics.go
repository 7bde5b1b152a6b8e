// Package metrics exposes the gateway's Prometheus collectors. A nil
// *Metrics is valid and records nothing.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "gophgate"

type Metrics struct {
	registry *prometheus.Registry

	tokensIssued       prometheus.Counter
	tokenRotations     prometheus.Counter
	tokenFailures      *prometheus.CounterVec
	whitelistSwept     prometheus.Counter
	assetsUploaded     *prometheus.CounterVec
	thumbnailFallbacks prometheus.Counter
	presignedURLs      prometheus.Counter
}

// New builds the collectors on a private registry together with the Go
// runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		tokensIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tokens_issued_total",
			Help:      "Token pairs issued on login or refresh.",
		}),
		tokenRotations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "token_rotations_total",
			Help:      "Successful refresh token rotations.",
		}),
		tokenFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "token_failures_total",
			Help:      "Rejected tokens by reason.",
		}, []string{"reason"}),
		whitelistSwept: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "whitelist_swept_total",
			Help:      "Expired whitelist entries removed by the sweeper.",
		}),
		assetsUploaded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "assets_uploaded_total",
			Help:      "Uploaded assets by kind (image or file).",
		}, []string{"kind"}),
		thumbnailFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "thumbnail_fallbacks_total",
			Help:      "Uploads whose thumbnail fell back to the original bytes after a decode failure.",
		}),
		presignedURLs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "presigned_urls_total",
			Help:      "Presigned read URLs generated.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.tokensIssued,
		m.tokenRotations,
		m.tokenFailures,
		m.whitelistSwept,
		m.assetsUploaded,
		m.thumbnailFallbacks,
		m.presignedURLs,
	)
	return m
}

// Handler serves the private registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) TokenIssued() {
	if m == nil {
		return
	}
	m.tokensIssued.Inc()
}

func (m *Metrics) TokenRotated() {
	if m == nil {
		return
	}
	m.tokenRotations.Inc()
}

// TokenFailure counts a rejected token; reason is a short label such as
// "not_found", "expired" or "malformed".
func (m *Metrics) TokenFailure(reason string) {
	if m == nil {
		return
	}
	m.tokenFailures.WithLabelValues(reason).Inc()
}

func (m *Metrics) WhitelistSwept(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.whitelistSwept.Add(float64(n))
}

func (m *Metrics) AssetUploaded(kind string) {
	if m == nil {
		return
	}
	m.assetsUploaded.WithLabelValues(kind).Inc()
}

func (m *Metrics) ThumbnailFallback() {
	if m == nil {
		return
	}
	m.thumbnailFallbacks.Inc()
}

func (m *Metrics) PresignedURL() {
	if m == nil {
		return
	}
	m.presignedURLs.Inc()
}
