package metrics

import (
	"context"
	"time"

	httpmetrics "github.com/slok/go-http-metrics/metrics"

	"github.com/onflow/node-dashboard/module"
)

type NoopCollector struct{}

var _ module.CollectorMetrics = (*NoopCollector)(nil)
var _ module.PublisherMetrics = (*NoopCollector)(nil)
var _ module.HubMetrics = (*NoopCollector)(nil)

func NewNoopCollector() *NoopCollector {
	return &NoopCollector{}
}

func (nc *NoopCollector) PollSucceeded(time.Duration)          {}
func (nc *NoopCollector) PollFailed(string, time.Duration)     {}
func (nc *NoopCollector) NodeStatus(uint64, float64)           {}
func (nc *NoopCollector) PingAnomaly()                         {}
func (nc *NoopCollector) TargetConnected(string, bool)         {}
func (nc *NoopCollector) RecordSent(string)                    {}
func (nc *NoopCollector) RecordDropped(string)                 {}
func (nc *NoopCollector) PublishFailed(string)                 {}
func (nc *NoopCollector) ConnectAttemptFailed(string)          {}
func (nc *NoopCollector) RecordIngested(string)                {}
func (nc *NoopCollector) RecordRejected(string)                {}
func (nc *NoopCollector) CollectorConnections(int)             {}
func (nc *NoopCollector) ViewerConnections(int)                {}
func (nc *NoopCollector) ViewerMessageDropped()                {}
func (nc *NoopCollector) CacheSize(int)                        {}
func (nc *NoopCollector) CacheReset()                          {}
func (nc *NoopCollector) AddInflightRequests(context.Context, httpmetrics.HTTPProperties, int) {}
func (nc *NoopCollector) ObserveHTTPRequestDuration(context.Context, httpmetrics.HTTPReqProperties, time.Duration) {
}
func (nc *NoopCollector) ObserveHTTPResponseSize(context.Context, httpmetrics.HTTPReqProperties, int64) {
}
