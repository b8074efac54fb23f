package telemetry

import (
	"time"
)

// UnknownNodeName is the node name reported when the operator did not configure one.
const UnknownNodeName = "unknown"

// NodeRecord is a single telemetry snapshot of one node, assembled by a collector
// once per poll cycle. A record is never mutated after it has been assembled.
//
// NodeName is the only identity used by the hub: two records with the same
// NodeName replace each other regardless of NodeID.
type NodeRecord struct {
	NodeName string  `json:"nodeName" validate:"required"`
	NodeID   *string `json:"nodeId,omitempty"`
	PeerType string  `json:"peerType,omitempty"`

	// Uptime of the node process in milliseconds.
	Uptime uint64 `json:"uptime"`
	Client string `json:"client" validate:"required"`

	AverageBytesPerSecondIn  uint64 `json:"averageBytesPerSecondIn"`
	AverageBytesPerSecondOut uint64 `json:"averageBytesPerSecondOut"`

	// AveragePing is the mean peer latency in milliseconds, nil when the node has no peers.
	AveragePing *float64 `json:"averagePing" validate:"omitempty,gte=0"`
	PeersCount  uint64   `json:"peersCount"`
	PeersList   []string `json:"peersList"`

	ConsensusRunning            bool `json:"consensusRunning"`
	BakingCommitteeMember       bool `json:"bakingCommitteeMember"`
	FinalizationCommitteeMember bool `json:"finalizationCommitteeMember"`

	ConsensusStatus

	PacketsSent     uint64 `json:"packetsSent"`
	PacketsReceived uint64 `json:"packetsReceived"`
}

// ConsensusStatus holds the chain and consensus fields reported by the node.
// Statistics the node has not computed yet (for example right after start) are nil.
type ConsensusStatus struct {
	GenesisBlock string `json:"genesisBlock,omitempty"`

	BestBlock               string     `json:"bestBlock"`
	BestBlockHeight         uint64     `json:"bestBlockHeight"`
	BestArrivedTime         *time.Time `json:"bestArrivedTime"`
	BlockArrivePeriodEMA    *float64   `json:"blockArrivePeriodEMA"`
	BlockArrivePeriodEMSD   *float64   `json:"blockArrivePeriodEMSD"`
	BlockArriveLatencyEMA   *float64   `json:"blockArriveLatencyEMA"`
	BlockArriveLatencyEMSD  *float64   `json:"blockArriveLatencyEMSD"`
	BlockReceivePeriodEMA   *float64   `json:"blockReceivePeriodEMA"`
	BlockReceivePeriodEMSD  *float64   `json:"blockReceivePeriodEMSD"`
	BlockReceiveLatencyEMA  *float64   `json:"blockReceiveLatencyEMA"`
	BlockReceiveLatencyEMSD *float64   `json:"blockReceiveLatencyEMSD"`

	FinalizedBlock         string     `json:"finalizedBlock"`
	FinalizedBlockHeight   uint64     `json:"finalizedBlockHeight"`
	FinalizedTime          *time.Time `json:"finalizedTime"`
	FinalizationPeriodEMA  *float64   `json:"finalizationPeriodEMA"`
	FinalizationPeriodEMSD *float64   `json:"finalizationPeriodEMSD"`

	TransactionsPerBlockEMA  *float64 `json:"transactionsPerBlockEMA"`
	TransactionsPerBlockEMSD *float64 `json:"transactionsPerBlockEMSD"`
}

// NodeInfo is the identity and role information a node reports about itself.
type NodeInfo struct {
	NodeID                      *string
	PeerType                    string
	ConsensusRunning            bool
	BakingCommitteeMember       bool
	FinalizationCommitteeMember bool
}

// Metrics is everything a collector gathers from a node in one poll cycle,
// before derived fields are computed.
type Metrics struct {
	Uptime          uint64
	Client          string
	Consensus       ConsensusStatus
	Peers           PeerStats
	PacketsSent     uint64
	PacketsReceived uint64
	Info            NodeInfo
}

// NewNodeRecord assembles the record for one poll cycle from the collected metrics.
// Derived peer fields are computed from m.Peers; an empty nodeName is replaced
// by UnknownNodeName.
func NewNodeRecord(nodeName string, m Metrics) *NodeRecord {
	if nodeName == "" {
		nodeName = UnknownNodeName
	}

	summary := SummarizePeers(m.Peers.Peers)

	return &NodeRecord{
		NodeName:                    nodeName,
		NodeID:                      m.Info.NodeID,
		PeerType:                    m.Info.PeerType,
		Uptime:                      m.Uptime,
		Client:                      m.Client,
		AverageBytesPerSecondIn:     m.Peers.AvgBpsIn,
		AverageBytesPerSecondOut:    m.Peers.AvgBpsOut,
		AveragePing:                 summary.AveragePing,
		PeersCount:                  summary.PeersCount,
		PeersList:                   summary.PeersList,
		ConsensusRunning:            m.Info.ConsensusRunning,
		BakingCommitteeMember:       m.Info.BakingCommitteeMember,
		FinalizationCommitteeMember: m.Info.FinalizationCommitteeMember,
		ConsensusStatus:             m.Consensus,
		PacketsSent:                 m.PacketsSent,
		PacketsReceived:             m.PacketsReceived,
	}
}
