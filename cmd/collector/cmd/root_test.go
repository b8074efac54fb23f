package cmd

import (
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCommand(t *testing.T, args ...string) *cobra.Command {
	cmd := &cobra.Command{}
	addFlags(cmd)
	require.NoError(t, cmd.Flags().Parse(args))
	return cmd
}

func TestDefaultConfig(t *testing.T) {
	config, err := loadConfig(testCommand(t))
	require.NoError(t, err)

	assert.Equal(t, "unknown", config.NodeName)
	assert.Equal(t, "localhost:10000", config.GRPCHost)
	assert.Equal(t, "rpcadmin", config.GRPCAuthToken)
	assert.Equal(t, []string{"localhost:3000"}, config.HubTargets)
	assert.Equal(t, 2*time.Second, config.CollectInterval)
	assert.Equal(t, 500*time.Millisecond, config.PingWarningThreshold)
	assert.Zero(t, config.MaxConnectAttempts)
	assert.Zero(t, config.MetricsPort)
	assert.Equal(t, "info", config.Level)
	assert.Equal(t, "json", config.Format)
}

func TestConfigFromEnvironment(t *testing.T) {
	t.Setenv("COLLECTOR_NODE_NAME", "alpha")
	t.Setenv("COLLECTOR_GRPC_HOST", "node:10001")
	t.Setenv("COLLECTOR_HUB_TARGETS", "hub-a:3000,hub-b:3000")
	t.Setenv("COLLECTOR_COLLECT_INTERVAL", "5s")
	t.Setenv("COLLECTOR_MAX_CONNECT_ATTEMPTS", "10")
	t.Setenv("COLLECTOR_LOG_LEVEL", "debug")

	config, err := loadConfig(testCommand(t))
	require.NoError(t, err)

	assert.Equal(t, "alpha", config.NodeName)
	assert.Equal(t, "node:10001", config.GRPCHost)
	assert.Equal(t, []string{"hub-a:3000", "hub-b:3000"}, config.HubTargets)
	assert.Equal(t, 5*time.Second, config.CollectInterval)
	assert.Equal(t, uint64(10), config.MaxConnectAttempts)
	assert.Equal(t, "debug", config.Level)
}

func TestInvalidConfig(t *testing.T) {
	_, err := loadConfig(testCommand(t,
		"--node-name", "",
		"--grpc-host", "no-port",
		"--collect-interval", "0s",
		"--rpc-timeout", "-1s",
	))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "node-name")
	assert.Contains(t, err.Error(), "grpc-host")
	assert.Contains(t, err.Error(), "collect-interval")
	assert.Contains(t, err.Error(), "rpc-timeout")
}

// a malformed hub target is fatal at startup
func TestMalformedHubTarget(t *testing.T) {
	config, err := loadConfig(testCommand(t, "--hub-targets", "localhost:3000,ftp://hub:21"))
	require.NoError(t, err)

	_, err = newNode(config)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ftp://hub:21")
}
