// internal/platform/metrics/metrics.go
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"drmoto/internal/application/usecase"
)

// Collector records manager outcomes as Prometheus metrics.
type Collector struct {
	assetOps      *prometheus.CounterVec
	storeFailures *prometheus.CounterVec
	loadSource    *prometheus.CounterVec
	uploadBytes   prometheus.Histogram
	authAttempts  *prometheus.CounterVec
	cartMutations *prometheus.CounterVec
}

var _ usecase.Metrics = (*Collector)(nil)

// NewCollector registers every metric on reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		assetOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "drmoto_asset_operations_total",
			Help: "Asset manager operations by outcome.",
		}, []string{"op", "result"}),
		storeFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "drmoto_asset_store_failures_total",
			Help: "Failed steps of asset store sequences.",
		}, []string{"stage"}),
		loadSource: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "drmoto_asset_load_source_total",
			Help: "Tier that served a gallery load.",
		}, []string{"source"}),
		uploadBytes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "drmoto_asset_upload_bytes",
			Help:    "Size of uploaded photos in bytes.",
			Buckets: prometheus.ExponentialBuckets(16<<10, 2, 10),
		}),
		authAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "drmoto_auth_attempts_total",
			Help: "Session manager calls by outcome.",
		}, []string{"op", "result"}),
		cartMutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "drmoto_cart_mutations_total",
			Help: "Committed cart mutations.",
		}, []string{"op"}),
	}

	reg.MustRegister(
		c.assetOps,
		c.storeFailures,
		c.loadSource,
		c.uploadBytes,
		c.authAttempts,
		c.cartMutations,
	)
	return c
}

func (c *Collector) AssetOperation(op, result string) {
	c.assetOps.WithLabelValues(op, result).Inc()
}

func (c *Collector) AssetStoreFailure(stage string) {
	c.storeFailures.WithLabelValues(stage).Inc()
}

func (c *Collector) AssetLoadSource(source string) {
	c.loadSource.WithLabelValues(source).Inc()
}

func (c *Collector) AssetUploadBytes(n int) {
	c.uploadBytes.Observe(float64(n))
}

func (c *Collector) AuthAttempt(op, result string) {
	c.authAttempts.WithLabelValues(op, result).Inc()
}

func (c *Collector) CartMutation(op string) {
	c.cartMutations.WithLabelValues(op).Inc()
}

// Handler serves /metrics for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	return mux
}
