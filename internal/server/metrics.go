package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// metrics holds the server's collectors. Each Server registers them on its
// own registry so several servers can coexist in one process.
type metrics struct {
	registry *prometheus.Registry

	// uuidMinted counts identities handed out by the uuid endpoint.
	uuidMinted prometheus.Counter

	// requests counts HTTP requests.
	// Labels: route (chi route pattern), code (HTTP status)
	requests *prometheus.CounterVec

	// synchronized counts documents processed by the synchronize endpoint.
	// Labels: mode (synchronize, reset)
	synchronized *prometheus.CounterVec
}

func newMetrics() *metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &metrics{
		registry: reg,
		uuidMinted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "nblineage",
			Name:      "uuid_minted_total",
			Help:      "Total identities minted by the uuid endpoint",
		}),
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nblineage",
			Name:      "http_requests_total",
			Help:      "Total HTTP requests by route and status code",
		}, []string{"route", "code"}),
		synchronized: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nblineage",
			Name:      "documents_synchronized_total",
			Help:      "Total documents processed by the synchronize endpoint",
		}, []string{"mode"}),
	}
}
