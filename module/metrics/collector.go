package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/onflow/node-dashboard/module"
)

// CollectorCollector implements module.CollectorMetrics and module.PublisherMetrics.
type CollectorCollector struct {
	pollCycles        *prometheus.CounterVec
	pollDuration      *prometheus.HistogramVec
	failedCalls       *prometheus.CounterVec
	peersCount        prometheus.Gauge
	averagePing       prometheus.Gauge
	pingAnomalies     prometheus.Counter
	targetConnected   *prometheus.GaugeVec
	recordsPublished  *prometheus.CounterVec
	recordsDropped    *prometheus.CounterVec
	connectionFailure *prometheus.CounterVec
}

var _ module.CollectorMetrics = (*CollectorCollector)(nil)
var _ module.PublisherMetrics = (*CollectorCollector)(nil)

func NewCollectorCollector(registerer prometheus.Registerer) *CollectorCollector {
	factory := promauto.With(registerer)

	return &CollectorCollector{
		pollCycles: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespaceCollector,
			Subsystem: subsystemPoller,
			Name:      "cycles_total",
			Help:      "number of poll cycles by result",
		}, []string{LabelResult}),
		pollDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespaceCollector,
			Subsystem: subsystemPoller,
			Name:      "cycle_duration_seconds",
			Help:      "time spent collecting metrics from the node in one poll cycle",
			Buckets:   []float64{.005, .01, .05, .1, .25, .5, 1, 2, 5},
		}, []string{LabelResult}),
		failedCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespaceCollector,
			Subsystem: subsystemPoller,
			Name:      "failed_calls_total",
			Help:      "number of abandoned poll cycles by the node call that failed",
		}, []string{LabelCall}),
		peersCount: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespaceCollector,
			Subsystem: subsystemPoller,
			Name:      "peers_count",
			Help:      "number of peers reported by the node in the latest record",
		}),
		averagePing: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespaceCollector,
			Subsystem: subsystemPoller,
			Name:      "average_ping_milliseconds",
			Help:      "average peer latency in the latest record, -1 when the node has no peers",
		}),
		pingAnomalies: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespaceCollector,
			Subsystem: subsystemPoller,
			Name:      "ping_anomalies_total",
			Help:      "number of records whose average ping exceeded the warning threshold",
		}),
		targetConnected: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespaceCollector,
			Subsystem: subsystemPublisher,
			Name:      "target_connected",
			Help:      "1 if the hub target is connected, 0 otherwise",
		}, []string{LabelTarget}),
		recordsPublished: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespaceCollector,
			Subsystem: subsystemPublisher,
			Name:      "records_total",
			Help:      "number of records written to a hub target by result",
		}, []string{LabelTarget, LabelResult}),
		recordsDropped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespaceCollector,
			Subsystem: subsystemPublisher,
			Name:      "records_dropped_total",
			Help:      "number of unsent records replaced by a newer record",
		}, []string{LabelTarget}),
		connectionFailure: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespaceCollector,
			Subsystem: subsystemPublisher,
			Name:      "connect_failures_total",
			Help:      "number of failed attempts to connect to a hub target",
		}, []string{LabelTarget}),
	}
}

func (c *CollectorCollector) PollSucceeded(duration time.Duration) {
	c.pollCycles.WithLabelValues(ResultSuccess).Inc()
	c.pollDuration.WithLabelValues(ResultSuccess).Observe(duration.Seconds())
}

func (c *CollectorCollector) PollFailed(call string, duration time.Duration) {
	c.pollCycles.WithLabelValues(ResultFailure).Inc()
	c.pollDuration.WithLabelValues(ResultFailure).Observe(duration.Seconds())
	c.failedCalls.WithLabelValues(call).Inc()
}

func (c *CollectorCollector) NodeStatus(peersCount uint64, averagePing float64) {
	c.peersCount.Set(float64(peersCount))
	c.averagePing.Set(averagePing)
}

func (c *CollectorCollector) PingAnomaly() {
	c.pingAnomalies.Inc()
}

func (c *CollectorCollector) TargetConnected(target string, connected bool) {
	var v float64
	if connected {
		v = 1
	}
	c.targetConnected.WithLabelValues(target).Set(v)
}

func (c *CollectorCollector) RecordSent(target string) {
	c.recordsPublished.WithLabelValues(target, ResultSuccess).Inc()
}

func (c *CollectorCollector) PublishFailed(target string) {
	c.recordsPublished.WithLabelValues(target, ResultFailure).Inc()
}

func (c *CollectorCollector) RecordDropped(target string) {
	c.recordsDropped.WithLabelValues(target).Inc()
}

func (c *CollectorCollector) ConnectAttemptFailed(target string) {
	c.connectionFailure.WithLabelValues(target).Inc()
}
