package nodesource

import (
	"context"
	"fmt"
	"time"

	grpc_prometheus "github.com/grpc-ecosystem/go-grpc-prometheus"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	otelTrace "go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	grpcinsecure "google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"

	"github.com/onflow/node-dashboard/model/telemetry"
)

// DefaultAuthToken is the token a node accepts on its RPC interface unless configured otherwise.
const DefaultAuthToken = "rpcadmin"

const tracerName = "github.com/onflow/node-dashboard/module/nodesource"

// Client is a Source backed by the node's gRPC interface. The underlying connection
// is established lazily and re-established by grpc after failures.
type Client struct {
	log     zerolog.Logger
	host    string
	token   string
	timeout time.Duration
	conn    *grpc.ClientConn
	tracer  otelTrace.Tracer
}

var _ Source = (*Client)(nil)

type ClientOption func(*Client)

// WithCallTimeout bounds every call to the node. Zero disables the timeout and
// leaves the caller's context in charge.
func WithCallTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// NewClient creates a client for the node listening at host. No connection is
// made until the first call.
func NewClient(log zerolog.Logger, host string, token string, opts ...ClientOption) (*Client, error) {
	c := &Client{
		log:    log.With().Str("component", "node_source").Str("node_host", host).Logger(),
		host:   host,
		token:  token,
		tracer: otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(c)
	}

	conn, err := grpc.Dial(
		host,
		grpc.WithTransportCredentials(grpcinsecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.ForceCodec(wireCodec{})),
		grpc.WithChainUnaryInterceptor(grpc_prometheus.UnaryClientInterceptor),
	)
	if err != nil {
		return nil, fmt.Errorf("could not create grpc client for %s: %w", host, err)
	}
	c.conn = conn

	return c, nil
}

// Close releases the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) Host() string {
	return c.host
}

func (c *Client) Uptime(ctx context.Context) (uint64, error) {
	var reply numberResponse
	if err := c.invoke(ctx, CallUptime, &emptyMessage{}, &reply); err != nil {
		return 0, err
	}
	return reply.Value, nil
}

func (c *Client) ConsensusStatus(ctx context.Context) (telemetry.ConsensusStatus, error) {
	var reply stringResponse
	if err := c.invoke(ctx, CallConsensusStatus, &emptyMessage{}, &reply); err != nil {
		return telemetry.ConsensusStatus{}, err
	}
	status, err := decodeConsensusStatus(reply.Value)
	if err != nil {
		return telemetry.ConsensusStatus{}, NewSourceUnavailableError(CallConsensusStatus, c.host, err)
	}
	return status, nil
}

func (c *Client) PeerVersion(ctx context.Context) (string, error) {
	var reply stringResponse
	if err := c.invoke(ctx, CallPeerVersion, &emptyMessage{}, &reply); err != nil {
		return "", err
	}
	if reply.Value == "" {
		return "", NewSourceUnavailableError(CallPeerVersion, c.host, fmt.Errorf("node reported an empty version"))
	}
	return reply.Value, nil
}

// PeerStats returns the node's peers, bootstrappers excluded.
func (c *Client) PeerStats(ctx context.Context) (telemetry.PeerStats, error) {
	var reply peerStatsResponse
	if err := c.invoke(ctx, CallPeerStats, &peersRequest{IncludeBootstrappers: false}, &reply); err != nil {
		return telemetry.PeerStats{}, err
	}

	peers := make([]telemetry.PeerStat, 0, len(reply.PeerStats))
	for _, p := range reply.PeerStats {
		peers = append(peers, telemetry.PeerStat{
			NodeID:          p.NodeID,
			PacketsSent:     p.PacketsSent,
			PacketsReceived: p.PacketsReceived,
			Latency:         p.Latency,
		})
	}
	return telemetry.PeerStats{
		Peers:     peers,
		AvgBpsIn:  reply.AvgBpsIn,
		AvgBpsOut: reply.AvgBpsOut,
	}, nil
}

func (c *Client) TotalSent(ctx context.Context) (uint64, error) {
	var reply numberResponse
	if err := c.invoke(ctx, CallTotalSent, &emptyMessage{}, &reply); err != nil {
		return 0, err
	}
	return reply.Value, nil
}

func (c *Client) TotalReceived(ctx context.Context) (uint64, error) {
	var reply numberResponse
	if err := c.invoke(ctx, CallTotalReceived, &emptyMessage{}, &reply); err != nil {
		return 0, err
	}
	return reply.Value, nil
}

func (c *Client) NodeInfo(ctx context.Context) (telemetry.NodeInfo, error) {
	var reply nodeInfoResponse
	if err := c.invoke(ctx, CallNodeInfo, &emptyMessage{}, &reply); err != nil {
		return telemetry.NodeInfo{}, err
	}
	return telemetry.NodeInfo{
		NodeID:                      reply.NodeID,
		PeerType:                    reply.PeerType,
		ConsensusRunning:            reply.ConsensusRunning,
		BakingCommitteeMember:       reply.ConsensusBakerCommittee == activeInBakerCommittee,
		FinalizationCommitteeMember: reply.ConsensusFinalizerCommittee,
	}, nil
}

// invoke issues a single unary call with the authentication token attached.
// Any failure is returned as SourceUnavailableError.
func (c *Client) invoke(ctx context.Context, call string, req wireMessage, reply wireMessage) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	ctx, span := c.tracer.Start(ctx, call, otelTrace.WithAttributes(
		attribute.String("node.host", c.host),
	))
	defer span.End()

	ctx = metadata.AppendToOutgoingContext(ctx, AuthenticationHeader, c.token)

	start := time.Now()
	err := c.conn.Invoke(ctx, "/"+ServiceName+"/"+call, req, reply)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		c.log.Debug().Err(err).Str("call", call).Dur("duration", time.Since(start)).Msg("node call failed")
		return NewSourceUnavailableError(call, c.host, err)
	}

	c.log.Trace().Str("call", call).Dur("duration", time.Since(start)).Msg("node call completed")
	return nil
}
