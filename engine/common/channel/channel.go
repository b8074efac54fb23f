// Package channel defines the messages exchanged between collectors, hubs and
// viewers, and the namespaces they are exchanged on.
//
// Collectors connect to a hub on NodesNamespace and send one envelope per record.
// Viewers connect on FrontendsNamespace and only ever receive envelopes; the two
// namespaces are served by separate handlers so a viewer can never inject a record.
package channel

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/onflow/node-dashboard/model/telemetry"
)

const (
	// NodesNamespace is the websocket path collectors publish records on.
	NodesNamespace = "/nodes"

	// FrontendsNamespace is the websocket path viewers subscribe on.
	FrontendsNamespace = "/frontends"

	// NodesPostPath accepts a single record per HTTP request.
	NodesPostPath = "/nodes/post"
)

// EventNodeInfo carries one node record.
const EventNodeInfo = "nodeInfo"

// TokenHeader carries the shared collector credential on the websocket handshake
// and on HTTP ingress requests.
const TokenHeader = "X-Dashboard-Token"

const (
	// PongWait is the maximum time to wait for a pong after sending a ping.
	PongWait = 60 * time.Second

	// PingPeriod must be less than PongWait.
	PingPeriod = (PongWait * 9) / 10

	// WriteWait is the maximum time allowed for a single write.
	WriteWait = 10 * time.Second
)

// Envelope is the JSON frame sent over every channel.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// NewNodeInfoMessage encodes the record into a nodeInfo envelope.
func NewNodeInfoMessage(record *telemetry.NodeRecord) ([]byte, error) {
	data, err := record.Encode()
	if err != nil {
		return nil, fmt.Errorf("could not encode node record: %w", err)
	}
	return EncodeEnvelope(EventNodeInfo, data)
}

// EncodeEnvelope wraps an already encoded payload into an envelope.
func EncodeEnvelope(event string, data []byte) ([]byte, error) {
	return json.Marshal(Envelope{Event: event, Data: data})
}

// DecodeNodeInfoMessage decodes a nodeInfo envelope and validates the record in it.
// Returns telemetry.InvalidRecordError for malformed frames, unknown events and
// invalid records.
func DecodeNodeInfoMessage(message []byte) (*telemetry.NodeRecord, error) {
	var env Envelope
	if err := json.Unmarshal(message, &env); err != nil {
		return nil, telemetry.InvalidRecordError{Err: fmt.Errorf("malformed envelope: %w", err)}
	}
	if env.Event != EventNodeInfo {
		return nil, telemetry.NewInvalidRecordErrorf("unexpected event %q", env.Event)
	}
	if len(env.Data) == 0 {
		return nil, telemetry.NewInvalidRecordErrorf("empty %s event", EventNodeInfo)
	}
	return telemetry.DecodeNodeRecord(env.Data)
}
