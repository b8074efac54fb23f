// Package nodesource implements the client side of the node's P2P administrative
// RPC interface: one unary call per metric, each carrying the static
// authentication token, decoded into the telemetry model.
package nodesource

import (
	"context"

	"github.com/onflow/node-dashboard/model/telemetry"
)

// Names of the node RPC calls, also used as labels in logs and metrics.
const (
	CallUptime          = "PeerUptime"
	CallConsensusStatus = "GetConsensusStatus"
	CallPeerVersion     = "PeerVersion"
	CallPeerStats       = "PeerStats"
	CallTotalSent       = "PeerTotalSent"
	CallTotalReceived   = "PeerTotalReceived"
	CallNodeInfo        = "NodeInfo"
)

// ServiceName is the fully qualified name of the node's RPC service.
const ServiceName = "concordium.P2P"

// AuthenticationHeader is the metadata key carrying the RPC authentication token.
const AuthenticationHeader = "authentication"

// Source is a metrics source for a single node. Every method issues exactly one
// request against the node. There are no retries at this layer.
//
// All methods return SourceUnavailableError on failure.
type Source interface {
	// Host returns the address of the node, for logging.
	Host() string

	Uptime(ctx context.Context) (uint64, error)
	ConsensusStatus(ctx context.Context) (telemetry.ConsensusStatus, error)
	PeerVersion(ctx context.Context) (string, error)
	PeerStats(ctx context.Context) (telemetry.PeerStats, error)
	TotalSent(ctx context.Context) (uint64, error)
	TotalReceived(ctx context.Context) (uint64, error)
	NodeInfo(ctx context.Context) (telemetry.NodeInfo, error)
}
