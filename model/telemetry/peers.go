package telemetry

import (
	"time"

	"github.com/montanaflynn/stats"
)

// PeerStat is the node's view of one connected peer.
type PeerStat struct {
	NodeID          string
	PacketsSent     uint64
	PacketsReceived uint64
	// Latency is the measured round trip to the peer in milliseconds.
	Latency uint64
}

// PeerStats is the reply of the node's peer statistics call. It is only used while
// assembling a record; the record keeps the derived PeerSummary fields.
type PeerStats struct {
	Peers     []PeerStat
	AvgBpsIn  uint64
	AvgBpsOut uint64
}

// PeerSummary holds the fields derived from a peer set.
type PeerSummary struct {
	AveragePing *float64
	PeersCount  uint64
	PeersList   []string
}

// SummarizePeers derives the average ping, peer count and peer list of a peer set.
//
// Peers are keyed by node ID: if the same ID is reported twice the later entry wins
// and the ID keeps its first position in the list. The list order otherwise follows
// the order in which the node reported its peers.
// For an empty peer set AveragePing is nil and PeersList is empty (never nil).
func SummarizePeers(peers []PeerStat) PeerSummary {
	index := make(map[string]int, len(peers))
	ids := make([]string, 0, len(peers))
	latencies := make(stats.Float64Data, 0, len(peers))

	for _, p := range peers {
		if i, ok := index[p.NodeID]; ok {
			latencies[i] = float64(p.Latency)
			continue
		}
		index[p.NodeID] = len(ids)
		ids = append(ids, p.NodeID)
		latencies = append(latencies, float64(p.Latency))
	}

	summary := PeerSummary{
		PeersCount: uint64(len(ids)),
		PeersList:  ids,
	}

	// stats.Mean returns stats.EmptyInputErr for an empty peer set, which leaves
	// AveragePing nil.
	if mean, err := latencies.Mean(); err == nil {
		summary.AveragePing = &mean
	}

	return summary
}

// PingExceeds reports whether the average ping is known and above threshold.
// A non-positive threshold disables the check.
func (s PeerSummary) PingExceeds(threshold time.Duration) bool {
	if s.AveragePing == nil || threshold <= 0 {
		return false
	}
	return *s.AveragePing > float64(threshold.Milliseconds())
}

// Summary returns the derived peer fields of the record.
func (r *NodeRecord) Summary() PeerSummary {
	return PeerSummary{
		AveragePing: r.AveragePing,
		PeersCount:  r.PeersCount,
		PeersList:   r.PeersList,
	}
}
