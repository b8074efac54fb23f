package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	httpmetrics "github.com/slok/go-http-metrics/metrics"
	metricsprom "github.com/slok/go-http-metrics/metrics/prometheus"

	"github.com/onflow/node-dashboard/module"
)

// HubCollector implements module.HubMetrics. HTTP request metrics are recorded
// by the embedded go-http-metrics prometheus recorder.
type HubCollector struct {
	httpmetrics.Recorder

	ingested             *prometheus.CounterVec
	rejected             *prometheus.CounterVec
	collectorConnections prometheus.Gauge
	viewerConnections    prometheus.Gauge
	viewerDropped        prometheus.Counter
	cacheSize            prometheus.Gauge
	cacheResets          prometheus.Counter
}

var _ module.HubMetrics = (*HubCollector)(nil)

func NewHubCollector(registerer prometheus.Registerer) *HubCollector {
	factory := promauto.With(registerer)

	return &HubCollector{
		Recorder: metricsprom.NewRecorder(metricsprom.Config{
			Prefix:   namespaceHub,
			Registry: registerer,
		}),
		ingested: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespaceHub,
			Subsystem: subsystemIngress,
			Name:      "records_total",
			Help:      "number of node records written to the snapshot cache",
		}, []string{LabelTransport}),
		rejected: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespaceHub,
			Subsystem: subsystemIngress,
			Name:      "rejected_records_total",
			Help:      "number of node records that failed decoding or validation",
		}, []string{LabelTransport}),
		collectorConnections: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespaceHub,
			Subsystem: subsystemIngress,
			Name:      "connections",
			Help:      "number of connected collectors",
		}),
		viewerConnections: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespaceHub,
			Subsystem: subsystemViewers,
			Name:      "connections",
			Help:      "number of connected viewers",
		}),
		viewerDropped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespaceHub,
			Subsystem: subsystemViewers,
			Name:      "dropped_messages_total",
			Help:      "number of push messages dropped because a viewer was too slow",
		}),
		cacheSize: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespaceHub,
			Subsystem: subsystemSnapshot,
			Name:      "nodes",
			Help:      "number of nodes held in the snapshot cache",
		}),
		cacheResets: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespaceHub,
			Subsystem: subsystemSnapshot,
			Name:      "resets_total",
			Help:      "number of times the snapshot cache was emptied by an operator",
		}),
	}
}

func (h *HubCollector) RecordIngested(transport string) {
	h.ingested.WithLabelValues(transport).Inc()
}

func (h *HubCollector) RecordRejected(transport string) {
	h.rejected.WithLabelValues(transport).Inc()
}

func (h *HubCollector) CollectorConnections(count int) {
	h.collectorConnections.Set(float64(count))
}

func (h *HubCollector) ViewerConnections(count int) {
	h.viewerConnections.Set(float64(count))
}

func (h *HubCollector) ViewerMessageDropped() {
	h.viewerDropped.Inc()
}

func (h *HubCollector) CacheSize(size int) {
	h.cacheSize.Set(float64(size))
}

func (h *HubCollector) CacheReset() {
	h.cacheResets.Inc()
}
