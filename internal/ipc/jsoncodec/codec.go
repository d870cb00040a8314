// Package jsoncodec registers a JSON encoding.Codec for grpc so the IPC
// surface (C11 supplement) can run a real google.golang.org/grpc server
// without hand-authoring protoc-generated .pb.go message types: every
// request/response is a plain Go struct serialized as JSON over grpc's
// standard framing.
package jsoncodec

import (
	"encoding/json"
	"fmt"

	"google.golang.org/grpc/encoding"
)

func init() {
	encoding.RegisterCodec(Codec{})
}

// Name is registered with grpc's encoding package and selected per-call via
// grpc.CallContentSubtype / advertised by the server via
// grpc.ForceServerCodec.
const Name = "json"

// Codec implements grpc/encoding.Codec using encoding/json.
type Codec struct{}

func (Codec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (Codec) Unmarshal(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("jsoncodec: unmarshal: %w", err)
	}
	return nil
}

func (Codec) Name() string { return Name }
