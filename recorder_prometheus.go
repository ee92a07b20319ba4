package measurement

import (
	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder exports sends as Prometheus metrics.
type PrometheusRecorder struct {
	HitsTotal    *prometheus.CounterVec
	HitDuration  *prometheus.HistogramVec
	PayloadBytes prometheus.Histogram
}

// NewPrometheusRecorder creates the hit metrics and registers them with
// registerer. A nil registerer leaves them unregistered.
func NewPrometheusRecorder(registerer prometheus.Registerer) (*PrometheusRecorder, error) {
	r := &PrometheusRecorder{
		HitsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "measurement_hits_total",
				Help: "Total number of hits sent to the collection endpoint",
			},
			[]string{"hit_type", "outcome"},
		),
		HitDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "measurement_hit_duration_seconds",
				Help:    "Time spent sending one hit, in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"hit_type"},
		),
		PayloadBytes: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "measurement_payload_bytes",
				Help:    "Encoded hit payload size in bytes",
				Buckets: prometheus.ExponentialBuckets(64, 2, 8),
			},
		),
	}
	if registerer == nil {
		return r, nil
	}
	for _, c := range []prometheus.Collector{r.HitsTotal, r.HitDuration, r.PayloadBytes} {
		if err := registerer.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *PrometheusRecorder) RecordHit(rec HitRecord) error {
	r.HitsTotal.WithLabelValues(rec.HitType, rec.Outcome()).Inc()
	r.HitDuration.WithLabelValues(rec.HitType).Observe(rec.Duration.Seconds())
	r.PayloadBytes.Observe(float64(rec.PayloadBytes))
	return nil
}
