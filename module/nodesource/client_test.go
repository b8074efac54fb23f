package nodesource

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/onflow/node-dashboard/utils/unittest"
)

const consensusStatusDoc = `{
	"bestBlock": "b1b1",
	"bestBlockHeight": 42,
	"blockLastArrivedTime": "2021-03-01T10:00:00Z",
	"blockArrivePeriodEMA": 10.5,
	"blockArrivePeriodEMSD": null,
	"lastFinalizedBlock": "f0f0",
	"lastFinalizedBlockHeight": 40,
	"lastFinalizedTime": null,
	"finalizationPeriodEMA": 20.25,
	"transactionsPerBlockEMA": 0,
	"genesisBlock": "9e9e"
}`

// fakeNode serves the node RPC interface in-process.
type fakeNode struct {
	mu           sync.Mutex
	token        string
	consensus    string
	delay        time.Duration
	includeBoot  []bool
	receivedAuth []string
}

func (n *fakeNode) authorize(ctx context.Context) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	md, _ := metadata.FromIncomingContext(ctx)
	values := md.Get(AuthenticationHeader)
	n.receivedAuth = append(n.receivedAuth, values...)
	if len(values) != 1 || values[0] != n.token {
		return status.Error(codes.Unauthenticated, "missing or invalid authentication token")
	}
	return nil
}

func (n *fakeNode) method(call string, newReq func() wireMessage, reply func(req wireMessage) wireMessage) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: call,
		Handler: func(_ any, ctx context.Context, dec func(any) error, _ grpc.UnaryServerInterceptor) (any, error) {
			req := newReq()
			if err := dec(req); err != nil {
				return nil, err
			}
			if err := n.authorize(ctx); err != nil {
				return nil, err
			}
			if n.delay > 0 {
				select {
				case <-time.After(n.delay):
				case <-ctx.Done():
					return nil, ctx.Err()
				}
			}
			return reply(req), nil
		},
	}
}

func (n *fakeNode) serviceDesc() *grpc.ServiceDesc {
	empty := func() wireMessage { return &emptyMessage{} }
	nodeID := "node-id-1"

	return &grpc.ServiceDesc{
		ServiceName: ServiceName,
		HandlerType: (*any)(nil),
		Methods: []grpc.MethodDesc{
			n.method(CallUptime, empty, func(wireMessage) wireMessage {
				return &numberResponse{Value: 123456}
			}),
			n.method(CallConsensusStatus, empty, func(wireMessage) wireMessage {
				return &stringResponse{Value: n.consensus}
			}),
			n.method(CallPeerVersion, empty, func(wireMessage) wireMessage {
				return &stringResponse{Value: "1.0.1"}
			}),
			n.method(CallPeerStats, func() wireMessage { return &peersRequest{} }, func(req wireMessage) wireMessage {
				n.mu.Lock()
				n.includeBoot = append(n.includeBoot, req.(*peersRequest).IncludeBootstrappers)
				n.mu.Unlock()
				return &peerStatsResponse{
					PeerStats: []peerStatsEntry{
						{NodeID: "peer-a", PacketsSent: 1, PacketsReceived: 2, Latency: 50},
						{NodeID: "peer-b", PacketsSent: 3, PacketsReceived: 4, Latency: 150},
					},
					AvgBpsIn:  1000,
					AvgBpsOut: 2000,
				}
			}),
			n.method(CallTotalSent, empty, func(wireMessage) wireMessage {
				return &numberResponse{Value: 11}
			}),
			n.method(CallTotalReceived, empty, func(wireMessage) wireMessage {
				return &numberResponse{Value: 22}
			}),
			n.method(CallNodeInfo, empty, func(wireMessage) wireMessage {
				return &nodeInfoResponse{
					NodeID:                      &nodeID,
					CurrentLocaltime:            1614592800,
					PeerType:                    "Node",
					ConsensusBakerRunning:       true,
					ConsensusRunning:            true,
					ConsensusType:               "Active",
					ConsensusBakerCommittee:     activeInBakerCommittee,
					ConsensusFinalizerCommittee: true,
				}
			}),
		},
	}
}

type ClientSuite struct {
	suite.Suite

	node   *fakeNode
	server *grpc.Server
	addr   string
	client *Client
}

func TestClient(t *testing.T) {
	suite.Run(t, new(ClientSuite))
}

func (s *ClientSuite) SetupTest() {
	s.node = &fakeNode{token: DefaultAuthToken, consensus: consensusStatusDoc}

	l, err := net.Listen("tcp", "127.0.0.1:0")
	s.Require().NoError(err)
	s.addr = l.Addr().String()

	s.server = grpc.NewServer(grpc.ForceServerCodec(wireCodec{}))
	s.server.RegisterService(s.node.serviceDesc(), struct{}{})
	go func() {
		_ = s.server.Serve(l)
	}()

	s.client, err = NewClient(unittest.Logger(), s.addr, DefaultAuthToken, WithCallTimeout(2*time.Second))
	s.Require().NoError(err)
}

func (s *ClientSuite) TearDownTest() {
	s.Require().NoError(s.client.Close())
	s.server.Stop()
}

func (s *ClientSuite) TestCollectsEveryMetric() {
	ctx := context.Background()

	uptime, err := s.client.Uptime(ctx)
	s.Require().NoError(err)
	s.Assert().Equal(uint64(123456), uptime)

	version, err := s.client.PeerVersion(ctx)
	s.Require().NoError(err)
	s.Assert().Equal("1.0.1", version)

	sent, err := s.client.TotalSent(ctx)
	s.Require().NoError(err)
	s.Assert().Equal(uint64(11), sent)

	received, err := s.client.TotalReceived(ctx)
	s.Require().NoError(err)
	s.Assert().Equal(uint64(22), received)

	peers, err := s.client.PeerStats(ctx)
	s.Require().NoError(err)
	s.Require().Len(peers.Peers, 2)
	s.Assert().Equal("peer-a", peers.Peers[0].NodeID)
	s.Assert().Equal(uint64(150), peers.Peers[1].Latency)
	s.Assert().Equal(uint64(1000), peers.AvgBpsIn)
	s.Assert().Equal(uint64(2000), peers.AvgBpsOut)

	info, err := s.client.NodeInfo(ctx)
	s.Require().NoError(err)
	s.Require().NotNil(info.NodeID)
	s.Assert().Equal("node-id-1", *info.NodeID)
	s.Assert().Equal("Node", info.PeerType)
	s.Assert().True(info.ConsensusRunning)
	s.Assert().True(info.BakingCommitteeMember)
	s.Assert().True(info.FinalizationCommitteeMember)

	consensus, err := s.client.ConsensusStatus(ctx)
	s.Require().NoError(err)
	s.Assert().Equal("b1b1", consensus.BestBlock)
	s.Assert().Equal(uint64(42), consensus.BestBlockHeight)
	s.Assert().Equal("9e9e", consensus.GenesisBlock)
	s.Require().NotNil(consensus.BestArrivedTime)
	s.Assert().Equal(time.Date(2021, 3, 1, 10, 0, 0, 0, time.UTC), consensus.BestArrivedTime.UTC())
	s.Require().NotNil(consensus.BlockArrivePeriodEMA)
	s.Assert().Equal(10.5, *consensus.BlockArrivePeriodEMA)
	s.Assert().Nil(consensus.BlockArrivePeriodEMSD)
	s.Assert().Nil(consensus.FinalizedTime)
	s.Assert().Equal("f0f0", consensus.FinalizedBlock)
	s.Require().NotNil(consensus.TransactionsPerBlockEMA)
	s.Assert().Zero(*consensus.TransactionsPerBlockEMA)
}

// every call carries the configured token exactly once
func (s *ClientSuite) TestSendsAuthenticationToken() {
	_, err := s.client.Uptime(context.Background())
	s.Require().NoError(err)
	_, err = s.client.PeerStats(context.Background())
	s.Require().NoError(err)

	s.node.mu.Lock()
	defer s.node.mu.Unlock()
	s.Assert().Equal([]string{DefaultAuthToken, DefaultAuthToken}, s.node.receivedAuth)
	s.Assert().Equal([]bool{false}, s.node.includeBoot)
}

func (s *ClientSuite) TestWrongToken() {
	client, err := NewClient(unittest.Logger(), s.addr, "wrong-token")
	s.Require().NoError(err)
	defer client.Close()

	_, err = client.Uptime(context.Background())
	s.Require().Error(err)
	s.Assert().True(IsSourceUnavailable(err))
	s.Assert().Equal(CallUptime, FailedCall(err))

	var unavailable SourceUnavailableError
	s.Require().True(errors.As(err, &unavailable))
	s.Assert().Equal(codes.Unauthenticated, status.Code(unavailable.Err))
	s.Assert().Equal(s.addr, unavailable.Host)
}

func (s *ClientSuite) TestMissingBestBlock() {
	s.node.consensus = `{"bestBlockHeight": 1}`

	_, err := s.client.ConsensusStatus(context.Background())
	s.Require().Error(err)
	s.Assert().Equal(CallConsensusStatus, FailedCall(err))
}

func (s *ClientSuite) TestMalformedConsensusStatus() {
	s.node.consensus = `not json`

	_, err := s.client.ConsensusStatus(context.Background())
	s.Require().Error(err)
	s.Assert().True(IsSourceUnavailable(err))
}

func (s *ClientSuite) TestCallTimeout() {
	s.node.delay = time.Second

	client, err := NewClient(unittest.Logger(), s.addr, DefaultAuthToken, WithCallTimeout(50*time.Millisecond))
	s.Require().NoError(err)
	defer client.Close()

	_, err = client.TotalSent(context.Background())
	s.Require().Error(err)

	var unavailable SourceUnavailableError
	s.Require().True(errors.As(err, &unavailable))
	s.Assert().Equal(codes.DeadlineExceeded, status.Code(unavailable.Err))
}

func TestUnreachableNode(t *testing.T) {
	// reserve a port and release it so nothing is listening
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())

	client, err := NewClient(unittest.Logger(), addr, DefaultAuthToken, WithCallTimeout(time.Second))
	require.NoError(t, err)
	defer client.Close()

	_, err = client.PeerVersion(context.Background())
	require.Error(t, err)
	assert.True(t, IsSourceUnavailable(err))
	assert.Equal(t, CallPeerVersion, FailedCall(err))
}

func TestFailedCallOfOtherErrors(t *testing.T) {
	assert.Equal(t, "unknown", FailedCall(errors.New("boom")))
	assert.False(t, IsSourceUnavailable(errors.New("boom")))
}
