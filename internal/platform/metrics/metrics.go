package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	PatientsCreated prometheus.Counter
	PatientsDeleted prometheus.Counter
	PatientsExpired prometheus.Counter
	Searches        prometheus.Counter
	SweepDuration   prometheus.Histogram
}

// New creates and registers all Prometheus metrics on the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		PatientsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "medrec_patients_created_total",
			Help: "Total number of patient records admitted into storage",
		}),
		PatientsDeleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "medrec_patients_deleted_total",
			Help: "Total number of patient records removed by caller request",
		}),
		PatientsExpired: factory.NewCounter(prometheus.CounterOpts{
			Name: "medrec_patients_expired_total",
			Help: "Total number of patient records removed by the retention sweep",
		}),
		Searches: factory.NewCounter(prometheus.CounterOpts{
			Name: "medrec_searches_total",
			Help: "Total number of filtered searches served",
		}),
		SweepDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "medrec_sweep_duration_seconds",
			Help:    "Duration of retention sweeps",
			Buckets: prometheus.DefBuckets,
		}),
	}
}
