package grpc_control

import (
	"stock-data-service/src/interfaces"
	"stock-data-service/src/serializers"

	"google.golang.org/grpc/encoding"
)

// CodecName is the content subtype of the stock and auth services ("application/grpc+json").
const CodecName = "json"

// -----------------------------------------------------------------------------

// serializerCodec exposes an ISerializer as a gRPC codec.
type serializerCodec struct {
	serializer interfaces.ISerializer
}

func (c serializerCodec) Marshal(v any) ([]byte, error) {
	return c.serializer.Marshal(v)
}

func (c serializerCodec) Unmarshal(data []byte, v any) error {
	return c.serializer.Unmarshal(data, v)
}

func (c serializerCodec) Name() string {
	return c.serializer.Name()
}

// -----------------------------------------------------------------------------

func init() {
	encoding.RegisterCodec(serializerCodec{serializer: serializers.NewJSONSerializer()})
}
