package reconciler

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "ruler_informer"

// Metrics holds the Prometheus collectors for event handling, reconciliation
// and Ruler traffic. A nil *Metrics is valid and records nothing.
type Metrics struct {
	eventsTotal   *prometheus.CounterVec
	eventsDropped prometheus.Counter

	reconcileTotal    *prometheus.CounterVec
	reconcileRetried  *prometheus.CounterVec
	reconcileDuration *prometheus.HistogramVec

	rulerRequestsTotal   *prometheus.CounterVec
	rulerRequestDuration *prometheus.HistogramVec

	applyConflicts   prometheus.Counter
	resourcesCreated prometheus.Counter

	queueDepth      prometheus.Gauge
	queueSuperseded *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with r. A nil
// registerer skips registration, which is convenient in tests.
func NewMetrics(r prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		eventsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "events_total",
			Help:      "Total number of change events received, partitioned by source and operation.",
		}, []string{"source", "operation"}),
		eventsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "events_dropped_total",
			Help:      "Total number of change events dropped because the event channel was full.",
		}),
		reconcileTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "reconcile_total",
			Help:      "Total number of reconcile attempts, partitioned by operation and result.",
		}, []string{"operation", "result"}),
		reconcileRetried: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "reconcile_retried_total",
			Help:      "Total number of requeued reconcile requests, partitioned by operation.",
		}, []string{"operation"}),
		reconcileDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "reconcile_duration_seconds",
			Help:      "Distribution of reconcile durations.",
			Buckets:   []float64{.01, .05, .1, .5, 1, 5, 10, 30},
		}, []string{"operation"}),
		rulerRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "ruler",
			Name:      "requests_total",
			Help:      "Total number of requests sent to the Ruler, partitioned by method and status code.",
		}, []string{"method", "code"}),
		rulerRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "ruler",
			Name:      "request_duration_seconds",
			Help:      "Duration of requests to the Ruler API.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		applyConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "apply_conflicts_total",
			Help:      "Total number of OpenMetricsRule applies rejected with a conflict.",
		}),
		resourcesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "resources_created_total",
			Help:      "Total number of OpenMetricsRules synthesized for groups without a resource.",
		}),
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "queue_depth",
			Help:      "Number of reconcile requests waiting in the work queue.",
		}),
		queueSuperseded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "queue_superseded_total",
			Help:      "Total number of pending requests replaced by a newer event for the same rule group, partitioned by the replaced operation.",
		}, []string{"operation"}),
	}

	if r == nil {
		return m, nil
	}

	for _, c := range []prometheus.Collector{
		m.eventsTotal,
		m.eventsDropped,
		m.reconcileTotal,
		m.reconcileRetried,
		m.reconcileDuration,
		m.rulerRequestsTotal,
		m.rulerRequestDuration,
		m.applyConflicts,
		m.resourcesCreated,
		m.queueDepth,
		m.queueSuperseded,
	} {
		if err := r.Register(c); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// ObserveRulerRequest records one Ruler round trip. A status code of 0
// means no response was received.
func (m *Metrics) ObserveRulerRequest(method string, statusCode int, d time.Duration) {
	if m == nil {
		return
	}
	code := "none"
	if statusCode > 0 {
		code = strconv.Itoa(statusCode)
	}
	m.rulerRequestsTotal.WithLabelValues(method, code).Inc()
	m.rulerRequestDuration.WithLabelValues(method).Observe(d.Seconds())
}

func (m *Metrics) recordEvent(source ChangeSource, op Operation) {
	if m == nil {
		return
	}
	m.eventsTotal.WithLabelValues(string(source), string(op)).Inc()
}

func (m *Metrics) recordDropped() {
	if m == nil {
		return
	}
	m.eventsDropped.Inc()
}

func (m *Metrics) recordReconcile(op Operation, result ReconcileResult, d time.Duration) {
	if m == nil {
		return
	}
	m.reconcileTotal.WithLabelValues(string(op), resultLabel(result)).Inc()
	m.reconcileDuration.WithLabelValues(string(op)).Observe(d.Seconds())
}

func (m *Metrics) recordRetry(op Operation) {
	if m == nil {
		return
	}
	m.reconcileRetried.WithLabelValues(string(op)).Inc()
}

func (m *Metrics) recordConflict() {
	if m == nil {
		return
	}
	m.applyConflicts.Inc()
}

func (m *Metrics) recordCreated() {
	if m == nil {
		return
	}
	m.resourcesCreated.Inc()
}

func (m *Metrics) setQueueDepth(n int) {
	if m == nil {
		return
	}
	m.queueDepth.Set(float64(n))
}

// resultLabel maps a result to the "result" label of reconcile_total.
func resultLabel(result ReconcileResult) string {
	switch {
	case result.Error == nil:
		return "success"
	case result.Fatal:
		return "fatal"
	default:
		return "error"
	}
}

func (m *Metrics) recordSuperseded(op Operation) {
	if m == nil {
		return
	}
	m.queueSuperseded.WithLabelValues(string(op)).Inc()
}
