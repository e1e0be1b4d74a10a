package observer

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
)

// MetricsObserver exports analysis events as Prometheus metrics
type MetricsObserver struct {
	analyses    *prometheus.CounterVec
	fetches     *prometheus.CounterVec
	duration    prometheus.Histogram
	probability prometheus.Histogram
}

// NewMetricsObserver creates the collectors and registers them with reg
func NewMetricsObserver(reg prometheus.Registerer) (*MetricsObserver, error) {
	o := &MetricsObserver{
		analyses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "stego",
			Name:      "analyses_total",
			Help:      "Image analyses by outcome.",
		}, []string{"status"}),
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "stego",
			Name:      "image_fetches_total",
			Help:      "Image fetches by source kind and outcome.",
		}, []string{"source_kind", "status"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "stego",
			Name:      "analysis_duration_seconds",
			Help:      "Wall time of successful analyses.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
		probability: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "stego",
			Name:      "detection_probability",
			Help:      "Detection probability of successful analyses.",
			Buckets:   prometheus.LinearBuckets(0.1, 0.1, 10),
		}),
	}

	for _, c := range []prometheus.Collector{o.analyses, o.fetches, o.duration, o.probability} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// OnEvent updates the collectors for event
func (o *MetricsObserver) OnEvent(ctx context.Context, event AnalysisEvent) {
	switch event.EventType {
	case AnalysisStarted:
		o.analyses.WithLabelValues("started").Inc()
	case AnalysisCompleted:
		o.analyses.WithLabelValues("completed").Inc()
		o.duration.Observe(event.ProcessingTime.Seconds())
		if p, ok := event.Metadata[MetaProbability].(float64); ok {
			o.probability.Observe(p)
		}
		if detected, _ := event.Metadata[MetaDetected].(bool); detected {
			o.analyses.WithLabelValues("detected").Inc()
		}
	case AnalysisFailed:
		o.analyses.WithLabelValues("failed").Inc()
	case ImageFetched:
		o.fetches.WithLabelValues(sourceKind(event), "ok").Inc()
	case ImageFetchFailed:
		o.fetches.WithLabelValues(sourceKind(event), "error").Inc()
	}
}

// GetObserverName returns the observer name
func (o *MetricsObserver) GetObserverName() string {
	return "metrics_observer"
}

func sourceKind(event AnalysisEvent) string {
	if kind, ok := event.Metadata[MetaSourceKind].(string); ok && kind != "" {
		return kind
	}
	return "unknown"
}
