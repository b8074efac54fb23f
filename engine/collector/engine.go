// Package collector implements the poll loop of a collector: every interval it
// gathers a complete record from the local node and hands it to the publisher.
package collector

import (
	"context"
	"fmt"
	"time"

	"github.com/docker/go-units"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	otelTrace "go.opentelemetry.io/otel/trace"

	"github.com/onflow/node-dashboard/model/telemetry"
	"github.com/onflow/node-dashboard/module"
	"github.com/onflow/node-dashboard/module/component"
	"github.com/onflow/node-dashboard/module/irrecoverable"
	"github.com/onflow/node-dashboard/module/nodesource"
	"github.com/onflow/node-dashboard/utils/logging"
)

// Publisher delivers assembled records. Publish must not block on the network.
type Publisher interface {
	Publish(record *telemetry.NodeRecord) error
}

// Config configures the poll loop.
type Config struct {
	// NodeName identifies the node on every hub. Empty reports telemetry.UnknownNodeName.
	NodeName string

	// Interval between two poll cycles.
	Interval time.Duration

	// CycleTimeout bounds all calls of one poll cycle. Zero uses Interval.
	CycleTimeout time.Duration

	// PingWarningThreshold is the average ping above which a warning is logged.
	// Zero disables the check.
	PingWarningThreshold time.Duration
}

func DefaultConfig() Config {
	return Config{
		NodeName:             telemetry.UnknownNodeName,
		Interval:             2 * time.Second,
		PingWarningThreshold: 500 * time.Millisecond,
	}
}

// Engine polls a single node and publishes one record per successful cycle.
//
// A cycle is all or nothing: if any call to the node fails, the cycle is abandoned,
// nothing is published and the next cycle starts at the next tick.
type Engine struct {
	component.Component

	log       zerolog.Logger
	metrics   module.CollectorMetrics
	source    nodesource.Source
	publisher Publisher
	config    Config
	tracer    otelTrace.Tracer
}

func New(
	log zerolog.Logger,
	metrics module.CollectorMetrics,
	source nodesource.Source,
	publisher Publisher,
	config Config,
) (*Engine, error) {
	if config.Interval <= 0 {
		return nil, fmt.Errorf("collect interval must be positive, got %s", config.Interval)
	}
	if config.CycleTimeout <= 0 {
		config.CycleTimeout = config.Interval
	}
	if config.NodeName == "" {
		config.NodeName = telemetry.UnknownNodeName
	}

	e := &Engine{
		log: log.With().
			Str(logging.KeyComponent, "collector").
			Str(logging.KeyNodeName, config.NodeName).
			Str(logging.KeyHost, source.Host()).
			Logger(),
		metrics:   metrics,
		source:    source,
		publisher: publisher,
		config:    config,
		tracer:    otel.Tracer("github.com/onflow/node-dashboard/engine/collector"),
	}

	e.Component = component.NewComponentManagerBuilder().
		AddWorker(e.pollLoop).
		Build()

	return e, nil
}

// pollLoop runs one cycle immediately and then one per interval until shutdown.
// Cycles never overlap: a tick that fires during a slow cycle is coalesced.
func (e *Engine) pollLoop(ctx irrecoverable.SignalerContext, ready component.ReadyFunc) {
	ready()

	e.log.Info().
		Str("interval", units.HumanDuration(e.config.Interval)).
		Msg("starting to collect node metrics")

	ticker := time.NewTicker(e.config.Interval)
	defer ticker.Stop()

	for {
		e.pollOnce(ctx)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// pollOnce runs a single poll cycle. Errors are logged and counted, never returned.
func (e *Engine) pollOnce(parent context.Context) {
	start := time.Now()

	ctx, cancel := context.WithTimeout(parent, e.config.CycleTimeout)
	defer cancel()

	ctx, span := e.tracer.Start(ctx, "collector.poll", otelTrace.WithAttributes(
		attribute.String("node.name", e.config.NodeName),
	))
	defer span.End()

	m, err := e.collect(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())

		// shutdown interrupts the running cycle, which is not a node failure
		if parent.Err() != nil {
			return
		}

		e.metrics.PollFailed(nodesource.FailedCall(err), time.Since(start))
		e.log.Error().Err(err).Msg("could not collect node metrics, skipping cycle")
		return
	}

	record := telemetry.NewNodeRecord(e.config.NodeName, m)
	summary := record.Summary()
	e.reportStatus(summary)

	if err := e.publisher.Publish(record); err != nil {
		e.metrics.PollFailed("Publish", time.Since(start))
		e.log.Error().Err(err).Msg("could not publish node record")
		return
	}

	e.metrics.PollSucceeded(time.Since(start))
	e.log.Debug().
		Uint64("peers_count", record.PeersCount).
		Uint64("best_block_height", record.BestBlockHeight).
		Str("uptime", units.HumanDuration(time.Duration(record.Uptime)*time.Millisecond)).
		Dur("duration", time.Since(start)).
		Msg("published node record")
}

// collect issues every call needed for a record, in order, and stops at the first failure.
func (e *Engine) collect(ctx context.Context) (telemetry.Metrics, error) {
	var (
		m   telemetry.Metrics
		err error
	)

	if m.Uptime, err = e.source.Uptime(ctx); err != nil {
		return m, err
	}
	if m.Consensus, err = e.source.ConsensusStatus(ctx); err != nil {
		return m, err
	}
	if m.Client, err = e.source.PeerVersion(ctx); err != nil {
		return m, err
	}
	if m.Peers, err = e.source.PeerStats(ctx); err != nil {
		return m, err
	}
	if m.PacketsSent, err = e.source.TotalSent(ctx); err != nil {
		return m, err
	}
	if m.PacketsReceived, err = e.source.TotalReceived(ctx); err != nil {
		return m, err
	}
	if m.Info, err = e.source.NodeInfo(ctx); err != nil {
		return m, err
	}

	return m, nil
}

func (e *Engine) reportStatus(summary telemetry.PeerSummary) {
	averagePing := -1.0
	if summary.AveragePing != nil {
		averagePing = *summary.AveragePing
	}
	e.metrics.NodeStatus(summary.PeersCount, averagePing)

	if summary.PingExceeds(e.config.PingWarningThreshold) {
		e.metrics.PingAnomaly()
		e.log.Warn().
			Float64("average_ping_ms", averagePing).
			Dur("threshold", e.config.PingWarningThreshold).
			Uint64("peers_count", summary.PeersCount).
			Msg("average ping above warning threshold")
	}
}
