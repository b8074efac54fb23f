package telemetry

import (
	"encoding/json"
	"sync"

	"github.com/go-playground/validator/v10"
)

// requiredFields must be present in every encoded record. Everything else is
// optional and decodes to its zero value (or nil) when absent.
var requiredFields = []string{
	"nodeName",
	"uptime",
	"client",
	"peersCount",
	"peersList",
	"packetsSent",
	"packetsReceived",
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func recordValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		validate.RegisterStructValidation(peerListValidation, NodeRecord{})
	})
	return validate
}

// peerListValidation enforces PeersCount == len(PeersList).
func peerListValidation(sl validator.StructLevel) {
	r := sl.Current().Interface().(NodeRecord)
	if r.PeersCount != uint64(len(r.PeersList)) {
		sl.ReportError(r.PeersCount, "PeersCount", "peersCount", "eqlen_peerslist", "")
	}
}

// Validate checks the record invariants.
// Returns InvalidRecordError if any invariant is violated.
func (r *NodeRecord) Validate() error {
	if r == nil {
		return NewInvalidRecordErrorf("nil record")
	}
	if err := recordValidator().Struct(r); err != nil {
		return InvalidRecordError{Err: err}
	}
	return nil
}

// DecodeNodeRecord decodes and validates a JSON encoded record.
// Returns InvalidRecordError if the payload is malformed, a required field is
// missing or the record fails validation.
func DecodeNodeRecord(data []byte) (*NodeRecord, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, InvalidRecordError{Err: err}
	}
	for _, name := range requiredFields {
		if _, ok := fields[name]; !ok {
			return nil, NewInvalidRecordErrorf("missing required field %q", name)
		}
	}

	var record NodeRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, InvalidRecordError{Err: err}
	}
	if err := record.Validate(); err != nil {
		return nil, err
	}
	return &record, nil
}

// Encode returns the JSON encoding of the record.
func (r *NodeRecord) Encode() ([]byte, error) {
	return json.Marshal(r)
}
