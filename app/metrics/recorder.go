package metrics

import (
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "post_relay"

// Recorder holds the service's Prometheus collectors.
type Recorder struct {
	registry       *prom.Registry
	resolutions    *prom.CounterVec
	storeDuration  *prom.HistogramVec
	loggedOutcomes *prom.CounterVec
}

// NewRecorder registers collectors on reg, or on a fresh registry when reg is nil.
func NewRecorder(reg *prom.Registry) *Recorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}

	r := &Recorder{
		registry: reg,
		resolutions: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "resolutions_total",
			Help:      "Post resolutions by outcome",
		}, []string{"outcome"}),
		storeDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "store_query_duration_seconds",
			Help:      "Duration of content store queries",
			Buckets:   prom.DefBuckets,
		}, []string{"query", "result"}),
		loggedOutcomes: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "resolution_log_writes_total",
			Help:      "Resolution log writes by result",
		}, []string{"result"}),
	}

	reg.MustRegister(r.resolutions, r.storeDuration, r.loggedOutcomes)
	return r
}

func (r *Recorder) ObserveResolution(outcome string) {
	r.resolutions.WithLabelValues(outcome).Inc()
}

func (r *Recorder) ObserveStoreQuery(query string, duration time.Duration, err error) {
	r.storeDuration.WithLabelValues(query, result(err)).Observe(duration.Seconds())
}

func (r *Recorder) ObserveLogWrite(err error) {
	r.loggedOutcomes.WithLabelValues(result(err)).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
