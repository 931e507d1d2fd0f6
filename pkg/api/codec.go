package api

import (
	"encoding/json"

	"connectrpc.com/connect"
)

const codecName = "json"

// jsonCodec lets Connect carry the plain structs of this package. It takes
// over the "json" name, so clients talk application/json and
// application/connect+json.
type jsonCodec struct{}

func (jsonCodec) Name() string { return codecName }

func (jsonCodec) Marshal(msg any) ([]byte, error) {
	return json.Marshal(msg)
}

func (jsonCodec) Unmarshal(data []byte, msg any) error {
	return json.Unmarshal(data, msg)
}

// WithJSON registers the JSON codec on a Connect client or handler.
func WithJSON() connect.Option {
	return connect.WithCodec(jsonCodec{})
}
