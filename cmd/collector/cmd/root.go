// Package cmd implements the collector command: it polls one node and publishes its
// records to one or more hubs.
package cmd

import (
	"fmt"
	"net"
	"os"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/onflow/node-dashboard/cmd/build"
	"github.com/onflow/node-dashboard/cmd/scaffold"
	"github.com/onflow/node-dashboard/engine/collector"
	"github.com/onflow/node-dashboard/engine/collector/publisher"
	"github.com/onflow/node-dashboard/model/telemetry"
	"github.com/onflow/node-dashboard/module/component"
	"github.com/onflow/node-dashboard/module/metrics"
	"github.com/onflow/node-dashboard/module/nodesource"
	"github.com/onflow/node-dashboard/utils/logging"
)

const envPrefix = "COLLECTOR"

// Config is the complete collector configuration.
type Config struct {
	NodeName             string        `mapstructure:"node-name"`
	GRPCHost             string        `mapstructure:"grpc-host"`
	GRPCAuthToken        string        `mapstructure:"grpc-auth-token"`
	HubTargets           []string      `mapstructure:"hub-targets"`
	HubToken             string        `mapstructure:"hub-token"`
	CollectInterval      time.Duration `mapstructure:"collect-interval"`
	RPCTimeout           time.Duration `mapstructure:"rpc-timeout"`
	PingWarningThreshold time.Duration `mapstructure:"ping-warning-threshold"`
	MaxConnectAttempts   uint64        `mapstructure:"max-connect-attempts"`
	MetricsPort          uint          `mapstructure:"metrics-port"`

	logging.Config `mapstructure:",squash"`
}

var rootCmd = &cobra.Command{
	Use:     "collector",
	Short:   "Poll a node and publish its telemetry to the dashboard hubs",
	Version: build.Semver(),
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		config, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		node, err := newNode(config)
		if err != nil {
			return err
		}
		cmd.SilenceUsage = true
		node.Run()
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	addFlags(rootCmd)
}

func addFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.String(scaffold.ConfigFileFlag, "", "path to an optional configuration file")
	flags.String("node-name", telemetry.UnknownNodeName, "name the node is shown with on the dashboard")
	flags.String("grpc-host", "localhost:10000", "host:port of the node's RPC interface")
	flags.String("grpc-auth-token", nodesource.DefaultAuthToken, "authentication token of the node's RPC interface")
	flags.StringSlice("hub-targets", []string{"localhost:3000"}, "comma separated list of hubs to publish to")
	flags.String("hub-token", "", "shared credential presented to the hubs")
	flags.Duration("collect-interval", 2*time.Second, "time between two poll cycles")
	flags.Duration("rpc-timeout", 0, "timeout of a single RPC call, 0 bounds calls by the collect interval")
	flags.Duration("ping-warning-threshold", 500*time.Millisecond, "average ping above which a warning is logged, 0 disables the check")
	flags.Uint64("max-connect-attempts", 0, "consecutive failed connection attempts to a hub before the collector exits, 0 retries forever")
	flags.Uint("metrics-port", 0, "port of the prometheus metrics server, 0 disables it")
	flags.String("log-level", "info", "log level (trace, debug, info, warn, error)")
	flags.String("log-format", logging.FormatJSON, "log format (json, console)")
}

func loadConfig(cmd *cobra.Command) (Config, error) {
	var config Config
	if err := scaffold.LoadConfig(cmd.Flags(), envPrefix, &config); err != nil {
		return Config{}, err
	}
	if err := config.validate(); err != nil {
		return Config{}, err
	}
	return config, nil
}

func (c Config) validate() error {
	var errs *multierror.Error

	if c.NodeName == "" {
		errs = multierror.Append(errs, fmt.Errorf("node-name must not be empty"))
	}
	if _, _, err := net.SplitHostPort(c.GRPCHost); err != nil {
		errs = multierror.Append(errs, fmt.Errorf("invalid grpc-host %q: %w", c.GRPCHost, err))
	}
	if len(c.HubTargets) == 0 {
		errs = multierror.Append(errs, fmt.Errorf("at least one hub target is required"))
	}
	if c.CollectInterval <= 0 {
		errs = multierror.Append(errs, fmt.Errorf("collect-interval must be positive, got %s", c.CollectInterval))
	}
	if c.RPCTimeout < 0 {
		errs = multierror.Append(errs, fmt.Errorf("rpc-timeout must not be negative, got %s", c.RPCTimeout))
	}
	if c.PingWarningThreshold < 0 {
		errs = multierror.Append(errs, fmt.Errorf("ping-warning-threshold must not be negative, got %s", c.PingWarningThreshold))
	}

	return errs.ErrorOrNil()
}

// newNode wires the collector. Malformed hub targets fail here, before anything starts.
func newNode(config Config) (*scaffold.Node, error) {
	log, err := scaffold.NewLogger(os.Stderr, config.Config, "collector")
	if err != nil {
		return nil, err
	}
	log.Info().
		Str(logging.KeyNodeName, config.NodeName).
		Str(logging.KeyHost, config.GRPCHost).
		Strs("hub_targets", config.HubTargets).
		Msg("collector starting up")

	collectorMetrics := metrics.NewCollectorCollector(prometheus.DefaultRegisterer)

	var clientOpts []nodesource.ClientOption
	if config.RPCTimeout > 0 {
		clientOpts = append(clientOpts, nodesource.WithCallTimeout(config.RPCTimeout))
	}
	source, err := nodesource.NewClient(log, config.GRPCHost, config.GRPCAuthToken, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("could not create node client: %w", err)
	}

	publisherConfig := publisher.DefaultConfig()
	publisherConfig.Targets = config.HubTargets
	publisherConfig.Token = config.HubToken
	publisherConfig.MaxConnectAttempts = config.MaxConnectAttempts
	fanOut, err := publisher.NewFanOut(log, collectorMetrics, publisherConfig)
	if err != nil {
		_ = source.Close()
		return nil, err
	}

	engineConfig := collector.DefaultConfig()
	engineConfig.NodeName = config.NodeName
	engineConfig.Interval = config.CollectInterval
	engineConfig.PingWarningThreshold = config.PingWarningThreshold
	engine, err := collector.New(log, collectorMetrics, source, fanOut, engineConfig)
	if err != nil {
		_ = source.Close()
		return nil, err
	}

	components := []component.Component{fanOut, engine}
	if config.MetricsPort > 0 {
		components = append(components, metrics.NewServer(log, config.MetricsPort, prometheus.DefaultGatherer))
	}

	return scaffold.NewNode(log, "collector", source.Close, components...), nil
}
