// Package publisher sends node records from a collector to one or more hubs.
package publisher

import (
	"fmt"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"

	"github.com/onflow/node-dashboard/engine/common/channel"
	"github.com/onflow/node-dashboard/model/telemetry"
	"github.com/onflow/node-dashboard/module"
	"github.com/onflow/node-dashboard/module/component"
	"github.com/onflow/node-dashboard/utils/logging"
)

// FanOut delivers every published record to each configured hub over a persistent
// websocket connection.
//
// Targets are independent: each has its own connection worker and a single-slot
// mailbox holding the latest undelivered record. A slow or unreachable target only
// ever loses records of its own, and Publish never blocks.
type FanOut struct {
	component.Component

	log     zerolog.Logger
	metrics module.PublisherMetrics
	targets []*target
}

// NewFanOut creates a publisher for the configured targets.
// All malformed targets are reported together; no worker is started in that case.
func NewFanOut(log zerolog.Logger, metrics module.PublisherMetrics, config Config) (*FanOut, error) {
	if len(config.Targets) == 0 {
		return nil, fmt.Errorf("at least one hub target is required")
	}

	f := &FanOut{
		log:     log.With().Str("component", "publisher").Logger(),
		metrics: metrics,
	}

	header := http.Header{}
	if config.Token != "" {
		header.Set(channel.TokenHeader, config.Token)
	}
	dialer := &websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: channel.WriteWait,
	}

	var errs *multierror.Error
	seen := make(map[string]struct{}, len(config.Targets))
	for _, raw := range config.Targets {
		u, err := channel.ParseTarget(raw)
		if err != nil {
			errs = multierror.Append(errs, err)
			continue
		}
		if _, ok := seen[u.String()]; ok {
			f.log.Warn().Str(logging.KeyTarget, u.String()).Msg("ignoring duplicate hub target")
			continue
		}
		seen[u.String()] = struct{}{}

		f.targets = append(f.targets, newTarget(f.log, metrics, config, u, dialer, header))
	}
	if err := errs.ErrorOrNil(); err != nil {
		return nil, fmt.Errorf("invalid hub targets: %w", err)
	}

	builder := component.NewComponentManagerBuilder()
	for _, t := range f.targets {
		builder.AddWorker(t.run)
	}
	f.Component = builder.Build()

	return f, nil
}

// Publish hands the record to every target. It returns once the record is queued;
// an undelivered older record is replaced.
func (f *FanOut) Publish(record *telemetry.NodeRecord) error {
	message, err := channel.NewNodeInfoMessage(record)
	if err != nil {
		return err
	}
	for _, t := range f.targets {
		t.offer(message)
	}
	return nil
}

// Targets returns the resolved websocket URLs of all targets.
func (f *FanOut) Targets() []string {
	urls := make([]string, 0, len(f.targets))
	for _, t := range f.targets {
		urls = append(urls, t.name)
	}
	return urls
}
