// Package metrics counts what happened during a run and can export the
// counters in Prometheus text format for a node_exporter textfile collector.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"tariffscout/pkg/models"
)

// Recorder is safe for concurrent use. A nil *Recorder records nothing.
type Recorder struct {
	registry    *prometheus.Registry
	regions     *prometheus.CounterVec
	tariffs     *prometheus.CounterVec
	cacheWrites *prometheus.CounterVec
}

func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		regions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tariffscout",
			Name:      "regions_total",
			Help:      "Regions by terminal fetch outcome.",
		}, []string{"outcome"}),
		tariffs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tariffscout",
			Name:      "tariffs_total",
			Help:      "Tariff records seen by the aggregator, by result.",
		}, []string{"result"}),
		cacheWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tariffscout",
			Name:      "cache_writes_total",
			Help:      "Cache write-through attempts by result.",
		}, []string{"result"}),
	}
	r.registry.MustRegister(r.regions, r.tariffs, r.cacheWrites)
	return r
}

func (r *Recorder) RegionOutcome(outcome models.FetchOutcome) {
	if r == nil {
		return
	}
	r.regions.WithLabelValues(outcome.String()).Inc()
}

// Tariff records one aggregator decision, such as "priced" or "no_price".
func (r *Recorder) Tariff(result string) {
	if r == nil {
		return
	}
	r.tariffs.WithLabelValues(result).Inc()
}

func (r *Recorder) CacheWrite(err error) {
	if r == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "failed"
	}
	r.cacheWrites.WithLabelValues(result).Inc()
}

// WriteTextfile atomically writes every counter to path.
func (r *Recorder) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}
