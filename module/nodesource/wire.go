package nodesource

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// The messages below mirror the node's P2P RPC schema (concordium_p2p_rpc.proto).
// Only the fields the collector reads are decoded; unknown fields are skipped so
// newer node versions stay compatible.

// wireMessage is implemented by every message exchanged with the node.
type wireMessage interface {
	marshalWire() []byte
	unmarshalWire(b []byte) error
}

type emptyMessage struct{}

func (*emptyMessage) marshalWire() []byte { return nil }

func (*emptyMessage) unmarshalWire(b []byte) error {
	return consumeFields(b, func(protowire.Number, protowire.Type, []byte) (int, error) {
		return -1, nil
	})
}

// numberResponse is NumberResponse { uint64 value = 1; }
type numberResponse struct {
	Value uint64
}

func (m *numberResponse) marshalWire() []byte {
	return appendUint64(nil, 1, m.Value)
}

func (m *numberResponse) unmarshalWire(b []byte) error {
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num != 1 {
			return -1, nil
		}
		v, n, err := consumeUint64(typ, b)
		m.Value = v
		return n, err
	})
}

// stringResponse is both StringResponse and JsonResponse { string value = 1; }
type stringResponse struct {
	Value string
}

func (m *stringResponse) marshalWire() []byte {
	return appendString(nil, 1, m.Value)
}

func (m *stringResponse) unmarshalWire(b []byte) error {
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num != 1 {
			return -1, nil
		}
		v, n, err := consumeString(typ, b)
		m.Value = v
		return n, err
	})
}

// peersRequest is PeersRequest { bool include_bootstrappers = 1; }
type peersRequest struct {
	IncludeBootstrappers bool
}

func (m *peersRequest) marshalWire() []byte {
	return appendBool(nil, 1, m.IncludeBootstrappers)
}

func (m *peersRequest) unmarshalWire(b []byte) error {
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num != 1 {
			return -1, nil
		}
		v, n, err := consumeUint64(typ, b)
		m.IncludeBootstrappers = v != 0
		return n, err
	})
}

// peerStatsResponse is
//
//	PeerStatsResponse {
//	  repeated PeerStats peerstats = 1;
//	  uint64 avg_bps_in = 2;
//	  uint64 avg_bps_out = 3;
//	}
type peerStatsResponse struct {
	PeerStats []peerStatsEntry
	AvgBpsIn  uint64
	AvgBpsOut uint64
}

// peerStatsEntry is
//
//	PeerStats {
//	  string node_id = 1;
//	  uint64 packets_sent = 2;
//	  uint64 packets_received = 3;
//	  uint64 latency = 4;
//	}
type peerStatsEntry struct {
	NodeID          string
	PacketsSent     uint64
	PacketsReceived uint64
	Latency         uint64
}

func (m *peerStatsResponse) marshalWire() []byte {
	var b []byte
	for i := range m.PeerStats {
		b = appendMessage(b, 1, m.PeerStats[i].marshalWire())
	}
	b = appendUint64(b, 2, m.AvgBpsIn)
	b = appendUint64(b, 3, m.AvgBpsOut)
	return b
}

func (m *peerStatsResponse) unmarshalWire(b []byte) error {
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			raw, n, err := consumeBytes(typ, b)
			if err != nil {
				return 0, err
			}
			var entry peerStatsEntry
			if err := entry.unmarshalWire(raw); err != nil {
				return 0, fmt.Errorf("peer stats entry: %w", err)
			}
			m.PeerStats = append(m.PeerStats, entry)
			return n, nil
		case 2:
			v, n, err := consumeUint64(typ, b)
			m.AvgBpsIn = v
			return n, err
		case 3:
			v, n, err := consumeUint64(typ, b)
			m.AvgBpsOut = v
			return n, err
		}
		return -1, nil
	})
}

func (m *peerStatsEntry) marshalWire() []byte {
	b := appendString(nil, 1, m.NodeID)
	b = appendUint64(b, 2, m.PacketsSent)
	b = appendUint64(b, 3, m.PacketsReceived)
	b = appendUint64(b, 4, m.Latency)
	return b
}

func (m *peerStatsEntry) unmarshalWire(b []byte) error {
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		var (
			v   uint64
			n   int
			err error
		)
		switch num {
		case 1:
			m.NodeID, n, err = consumeString(typ, b)
			return n, err
		case 2:
			v, n, err = consumeUint64(typ, b)
			m.PacketsSent = v
		case 3:
			v, n, err = consumeUint64(typ, b)
			m.PacketsReceived = v
		case 4:
			v, n, err = consumeUint64(typ, b)
			m.Latency = v
		default:
			return -1, nil
		}
		return n, err
	})
}

// Values of the IsInBakingCommittee enum.
const (
	notInCommittee         = 0
	addedButNotActive      = 1
	addedButWrongKeys      = 2
	activeInBakerCommittee = 3
)

// nodeInfoResponse is the subset of NodeInfoResponse read by the collector:
//
//	NodeInfoResponse {
//	  google.protobuf.StringValue node_id = 1;
//	  uint64 current_localtime = 2;
//	  string peer_type = 3;
//	  bool consensus_baker_running = 4;
//	  bool consensus_running = 5;
//	  string consensus_type = 6;
//	  IsInBakingCommittee consensus_baker_committee = 7;
//	  bool consensus_finalizer_committee = 8;
//	  ...
//	}
type nodeInfoResponse struct {
	NodeID                      *string
	CurrentLocaltime            uint64
	PeerType                    string
	ConsensusBakerRunning       bool
	ConsensusRunning            bool
	ConsensusType               string
	ConsensusBakerCommittee     uint64
	ConsensusFinalizerCommittee bool
}

func (m *nodeInfoResponse) marshalWire() []byte {
	var b []byte
	if m.NodeID != nil {
		// google.protobuf.StringValue { string value = 1; }
		b = appendMessage(b, 1, appendString(nil, 1, *m.NodeID))
	}
	b = appendUint64(b, 2, m.CurrentLocaltime)
	b = appendString(b, 3, m.PeerType)
	b = appendBool(b, 4, m.ConsensusBakerRunning)
	b = appendBool(b, 5, m.ConsensusRunning)
	b = appendString(b, 6, m.ConsensusType)
	b = appendUint64(b, 7, m.ConsensusBakerCommittee)
	b = appendBool(b, 8, m.ConsensusFinalizerCommittee)
	return b
}

func (m *nodeInfoResponse) unmarshalWire(b []byte) error {
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		var (
			v   uint64
			n   int
			err error
		)
		switch num {
		case 1:
			var raw []byte
			raw, n, err = consumeBytes(typ, b)
			if err != nil {
				return 0, err
			}
			var id stringResponse
			if err := id.unmarshalWire(raw); err != nil {
				return 0, fmt.Errorf("node id: %w", err)
			}
			m.NodeID = &id.Value
			return n, nil
		case 2:
			v, n, err = consumeUint64(typ, b)
			m.CurrentLocaltime = v
		case 3:
			m.PeerType, n, err = consumeString(typ, b)
		case 4:
			v, n, err = consumeUint64(typ, b)
			m.ConsensusBakerRunning = v != 0
		case 5:
			v, n, err = consumeUint64(typ, b)
			m.ConsensusRunning = v != 0
		case 6:
			m.ConsensusType, n, err = consumeString(typ, b)
		case 7:
			v, n, err = consumeUint64(typ, b)
			m.ConsensusBakerCommittee = v
		case 8:
			v, n, err = consumeUint64(typ, b)
			m.ConsensusFinalizerCommittee = v != 0
		default:
			return -1, nil
		}
		return n, err
	})
}

// consumeFields iterates over the fields of an encoded message. fn returns the number
// of bytes it consumed, or -1 if the field is unknown and should be skipped.
func consumeFields(b []byte, fn func(num protowire.Number, typ protowire.Type, b []byte) (int, error)) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]

		m, err := fn(num, typ, b)
		if err != nil {
			return fmt.Errorf("field %d: %w", num, err)
		}
		if m < 0 {
			m = protowire.ConsumeFieldValue(num, typ, b)
			if m < 0 {
				return protowire.ParseError(m)
			}
		}
		b = b[m:]
	}
	return nil
}

func consumeUint64(typ protowire.Type, b []byte) (uint64, int, error) {
	if typ != protowire.VarintType {
		return 0, 0, fmt.Errorf("unexpected wire type %d, expected varint", typ)
	}
	v, n := protowire.ConsumeVarint(b)
	if n < 0 {
		return 0, 0, protowire.ParseError(n)
	}
	return v, n, nil
}

func consumeBytes(typ protowire.Type, b []byte) ([]byte, int, error) {
	if typ != protowire.BytesType {
		return nil, 0, fmt.Errorf("unexpected wire type %d, expected bytes", typ)
	}
	v, n := protowire.ConsumeBytes(b)
	if n < 0 {
		return nil, 0, protowire.ParseError(n)
	}
	return v, n, nil
}

func consumeString(typ protowire.Type, b []byte) (string, int, error) {
	v, n, err := consumeBytes(typ, b)
	return string(v), n, err
}

// Zero values are omitted, as in proto3.

func appendUint64(b []byte, num protowire.Number, v uint64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func appendBool(b []byte, num protowire.Number, v bool) []byte {
	if !v {
		return b
	}
	return appendUint64(b, num, 1)
}

func appendString(b []byte, num protowire.Number, v string) []byte {
	if v == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, v)
}

func appendMessage(b []byte, num protowire.Number, v []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, v)
}
