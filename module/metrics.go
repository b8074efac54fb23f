package module

import (
	"time"

	httpmetrics "github.com/slok/go-http-metrics/metrics"
)

// CollectorMetrics tracks the poll loop of a collector.
type CollectorMetrics interface {
	// PollSucceeded is called after a complete record was assembled and handed to the publisher.
	PollSucceeded(duration time.Duration)

	// PollFailed is called when a poll cycle was abandoned because a metrics call failed.
	// call is the name of the first call that failed.
	PollFailed(call string, duration time.Duration)

	// NodeStatus reports the derived peer fields of the latest record.
	// averagePing is negative when the node has no peers.
	NodeStatus(peersCount uint64, averagePing float64)

	// PingAnomaly is called every time the average ping exceeds the warning threshold.
	PingAnomaly()
}

// PublisherMetrics tracks the fan-out publisher, per hub target.
type PublisherMetrics interface {
	// TargetConnected reports the connection state of a hub target.
	TargetConnected(target string, connected bool)

	// RecordSent is called after a record was written to a hub target.
	RecordSent(target string)

	// RecordDropped is called when an unsent record is replaced by a newer one.
	RecordDropped(target string)

	// PublishFailed is called when writing a record to a hub target failed.
	PublishFailed(target string)

	// ConnectAttemptFailed is called for every failed dial of a hub target.
	ConnectAttemptFailed(target string)
}

// HubMetrics tracks ingress, viewers and the snapshot cache of a hub.
type HubMetrics interface {
	httpmetrics.Recorder

	// RecordIngested is called for every record written to the cache. transport is the
	// ingress channel the record arrived on.
	RecordIngested(transport string)

	// RecordRejected is called for every record that failed decoding or validation.
	RecordRejected(transport string)

	// CollectorConnections reports the number of connected collectors.
	CollectorConnections(count int)

	// ViewerConnections reports the number of connected viewers.
	ViewerConnections(count int)

	// ViewerMessageDropped is called when a viewer is too slow to receive a push message.
	ViewerMessageDropped()

	// CacheSize reports the number of nodes held in the snapshot cache.
	CacheSize(size int)

	// CacheReset is called when an operator empties the snapshot cache.
	CacheReset()
}
