package unittest

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	mrand "math/rand"
	"time"

	"github.com/onflow/node-dashboard/model/telemetry"
)

// IdentifierFixture returns a random 32 byte hex identifier, as used for block
// hashes and node IDs.
func IdentifierFixture() string {
	var id [32]byte
	_, _ = rand.Read(id[:])
	return hex.EncodeToString(id[:])
}

// NodeNameFixture returns a random node name.
func NodeNameFixture() string {
	return fmt.Sprintf("node-%d", mrand.Intn(1_000_000))
}

func WithPeerLatencies(latencies ...uint64) func(*telemetry.PeerStats) {
	return func(s *telemetry.PeerStats) {
		s.Peers = make([]telemetry.PeerStat, 0, len(latencies))
		for i, l := range latencies {
			s.Peers = append(s.Peers, telemetry.PeerStat{
				NodeID:          fmt.Sprintf("peer-%d", i),
				PacketsSent:     mrand.Uint64() % 10_000,
				PacketsReceived: mrand.Uint64() % 10_000,
				Latency:         l,
			})
		}
	}
}

// PeerStatsFixture returns peer stats with count peers of random latency.
func PeerStatsFixture(count int, opts ...func(*telemetry.PeerStats)) telemetry.PeerStats {
	latencies := make([]uint64, count)
	for i := range latencies {
		latencies[i] = uint64(mrand.Intn(300) + 1)
	}
	stats := telemetry.PeerStats{
		AvgBpsIn:  uint64(mrand.Intn(1 << 20)),
		AvgBpsOut: uint64(mrand.Intn(1 << 20)),
	}
	WithPeerLatencies(latencies...)(&stats)
	for _, apply := range opts {
		apply(&stats)
	}
	return stats
}

// ConsensusStatusFixture returns a consensus status with all statistics present.
func ConsensusStatusFixture() telemetry.ConsensusStatus {
	height := uint64(mrand.Intn(1_000_000) + 10)
	arrived := time.Now().UTC().Add(-time.Second)
	finalized := arrived.Add(-5 * time.Second)
	f := func(v float64) *float64 { return &v }

	return telemetry.ConsensusStatus{
		GenesisBlock:             IdentifierFixture(),
		BestBlock:                IdentifierFixture(),
		BestBlockHeight:          height,
		BestArrivedTime:          &arrived,
		BlockArrivePeriodEMA:     f(10.2),
		BlockArrivePeriodEMSD:    f(1.3),
		BlockArriveLatencyEMA:    f(0.4),
		BlockArriveLatencyEMSD:   f(0.1),
		BlockReceivePeriodEMA:    f(10.1),
		BlockReceivePeriodEMSD:   f(1.2),
		BlockReceiveLatencyEMA:   f(0.3),
		BlockReceiveLatencyEMSD:  f(0.05),
		FinalizedBlock:           IdentifierFixture(),
		FinalizedBlockHeight:     height - 5,
		FinalizedTime:            &finalized,
		FinalizationPeriodEMA:    f(30.5),
		FinalizationPeriodEMSD:   f(4.5),
		TransactionsPerBlockEMA:  f(2.5),
		TransactionsPerBlockEMSD: f(0.7),
	}
}

// MetricsFixture returns a complete set of metrics as collected in one poll cycle.
func MetricsFixture(opts ...func(*telemetry.Metrics)) telemetry.Metrics {
	nodeID := IdentifierFixture()[:16]
	m := telemetry.Metrics{
		Uptime:          uint64(mrand.Intn(1_000_000_000)),
		Client:          "1.0.1",
		Consensus:       ConsensusStatusFixture(),
		Peers:           PeerStatsFixture(3),
		PacketsSent:     uint64(mrand.Intn(1_000_000)),
		PacketsReceived: uint64(mrand.Intn(1_000_000)),
		Info: telemetry.NodeInfo{
			NodeID:           &nodeID,
			PeerType:         "Node",
			ConsensusRunning: true,
		},
	}
	for _, apply := range opts {
		apply(&m)
	}
	return m
}

func WithNodeName(name string) func(*telemetry.NodeRecord) {
	return func(r *telemetry.NodeRecord) {
		r.NodeName = name
	}
}

func WithUptime(uptime uint64) func(*telemetry.NodeRecord) {
	return func(r *telemetry.NodeRecord) {
		r.Uptime = uptime
	}
}

func WithClient(version string) func(*telemetry.NodeRecord) {
	return func(r *telemetry.NodeRecord) {
		r.Client = version
	}
}

// NodeRecordFixture returns a valid node record with a random name.
func NodeRecordFixture(opts ...func(*telemetry.NodeRecord)) *telemetry.NodeRecord {
	record := telemetry.NewNodeRecord(NodeNameFixture(), MetricsFixture())
	for _, apply := range opts {
		apply(record)
	}
	return record
}

// NodeRecordListFixture returns n records with distinct node names.
func NodeRecordListFixture(n int) []*telemetry.NodeRecord {
	records := make([]*telemetry.NodeRecord, 0, n)
	for i := 0; i < n; i++ {
		records = append(records, NodeRecordFixture(WithNodeName(fmt.Sprintf("node-%d", i))))
	}
	return records
}
