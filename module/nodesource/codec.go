package nodesource

import (
	"fmt"

	"google.golang.org/grpc/encoding"
)

// wireCodec encodes the hand-written node messages in protobuf wire format. It is
// forced on every call so no generated message types are required.
type wireCodec struct{}

var _ encoding.Codec = wireCodec{}

func (wireCodec) Marshal(v any) ([]byte, error) {
	msg, ok := v.(wireMessage)
	if !ok {
		return nil, fmt.Errorf("cannot marshal %T: not a node message", v)
	}
	return msg.marshalWire(), nil
}

func (wireCodec) Unmarshal(data []byte, v any) error {
	msg, ok := v.(wireMessage)
	if !ok {
		return fmt.Errorf("cannot unmarshal into %T: not a node message", v)
	}
	return msg.unmarshalWire(data)
}

// Name reports "proto" so the content-subtype on the wire matches what the node expects.
func (wireCodec) Name() string {
	return "proto"
}
