package rpc

import (
	"encoding/json"

	"google.golang.org/grpc"
	"google.golang.org/grpc/encoding"
)

// jsonCodec implements encoding.Codec, registered under the name "json" so
// the broker's gRPC server and client exchange plain JSON-tagged structs
// instead of protobuf wire format, avoiding a protoc step while keeping the
// rest of the gRPC machinery (HTTP/2, flow control, health service) genuine.
type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

func (jsonCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

func (jsonCodec) Name() string { return "json" }

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

// ServerOption forces every connection on the returned server to marshal
// with the JSON codec, whatever content-subtype the client sends. It has no
// effect on clients: a client's default codec is still protobuf, which
// cannot marshal these plain structs, so a client selects the "json" codec
// itself.
func ServerOption() grpc.ServerOption {
	return grpc.ForceServerCodec(jsonCodec{})
}
