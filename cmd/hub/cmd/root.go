// Package cmd implements the hub command: it ingests records from collectors and
// serves the latest record of every node to viewers.
package cmd

import (
	"fmt"
	"os"

	"github.com/hashicorp/go-multierror"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/onflow/node-dashboard/admin"
	"github.com/onflow/node-dashboard/admin/commands"
	"github.com/onflow/node-dashboard/admin/commands/common"
	"github.com/onflow/node-dashboard/cmd/build"
	"github.com/onflow/node-dashboard/cmd/scaffold"
	"github.com/onflow/node-dashboard/engine/hub"
	"github.com/onflow/node-dashboard/module/component"
	"github.com/onflow/node-dashboard/module/metrics"
	"github.com/onflow/node-dashboard/module/snapshot"
	"github.com/onflow/node-dashboard/utils/logging"
)

const envPrefix = "HUB"

// Config is the complete hub configuration.
type Config struct {
	ListenAddr      string  `mapstructure:"listen-addr"`
	NodeToken       string  `mapstructure:"node-token"`
	AdminUser       string  `mapstructure:"admin-user"`
	AdminPassword   string  `mapstructure:"admin-password"`
	ViewerRateLimit float64 `mapstructure:"viewer-rate-limit"`
	MetricsPort     uint    `mapstructure:"metrics-port"`

	logging.Config `mapstructure:",squash"`
}

var rootCmd = &cobra.Command{
	Use:     "hub",
	Short:   "Collect node telemetry and serve it to the dashboard",
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
	defaults := hub.DefaultConfig()

	flags := cmd.Flags()
	flags.String(scaffold.ConfigFileFlag, "", "path to an optional configuration file")
	flags.String("listen-addr", defaults.ListenAddr, "address the hub listens on")
	flags.String("node-token", "", "shared credential collectors must present, empty accepts any collector")
	flags.String("admin-user", defaults.AdminUser, "user name of the operator routes")
	flags.String("admin-password", "", "password of the operator routes, empty disables them")
	flags.Float64("viewer-rate-limit", float64(defaults.ViewerRateLimit), "minimum push messages per second sent to one viewer, raised to one per reporting node")
	flags.Uint("metrics-port", 8080, "port of the prometheus metrics server, 0 disables it")
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

	if c.ListenAddr == "" {
		errs = multierror.Append(errs, fmt.Errorf("listen-addr must not be empty"))
	}
	if c.AdminPassword != "" && c.AdminUser == "" {
		errs = multierror.Append(errs, fmt.Errorf("admin-user must not be empty when admin-password is set"))
	}
	if c.ViewerRateLimit <= 0 {
		errs = multierror.Append(errs, fmt.Errorf("viewer-rate-limit must be positive, got %v", c.ViewerRateLimit))
	}

	return errs.ErrorOrNil()
}

func (c Config) hubConfig() hub.Config {
	config := hub.DefaultConfig()
	config.ListenAddr = c.ListenAddr
	config.NodeToken = c.NodeToken
	config.AdminUser = c.AdminUser
	config.AdminPassword = c.AdminPassword
	config.ViewerRateLimit = rate.Limit(c.ViewerRateLimit)
	return config
}

func newNode(config Config) (*scaffold.Node, error) {
	log, err := scaffold.NewLogger(os.Stderr, config.Config, "hub")
	if err != nil {
		return nil, err
	}
	log.Info().Msg("hub starting up")

	hubMetrics := metrics.NewHubCollector(prometheus.DefaultRegisterer)

	commandBuilder := admin.NewCommandRunnerBuilder()
	commands.Register(commandBuilder, "set-log-level", &common.SetLogLevelCommand{})

	engine, err := hub.New(log, hubMetrics, snapshot.NewCache(), commandBuilder, config.hubConfig())
	if err != nil {
		return nil, err
	}

	components := []component.Component{engine}
	if config.MetricsPort > 0 {
		components = append(components, metrics.NewServer(log, config.MetricsPort, prometheus.DefaultGatherer))
	}

	return scaffold.NewNode(log, "hub", nil, components...), nil
}
