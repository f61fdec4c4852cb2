package types

import (
	"encoding/json"
	"fmt"

	collcodec "cosmossdk.io/collections/codec"
)

var _ collcodec.ValueCodec[Params] = paramsValueCodec{}

// ParamsValueCodec stores Params in the module store as canonical JSON.
var ParamsValueCodec collcodec.ValueCodec[Params] = paramsValueCodec{}

type paramsValueCodec struct{}

func (paramsValueCodec) Encode(value Params) ([]byte, error) {
	return json.Marshal(value)
}

func (c paramsValueCodec) Decode(b []byte) (Params, error) {
	return c.DecodeJSON(b)
}

func (paramsValueCodec) EncodeJSON(value Params) ([]byte, error) {
	return json.Marshal(value)
}

func (paramsValueCodec) DecodeJSON(b []byte) (Params, error) {
	var params Params
	if err := json.Unmarshal(b, &params); err != nil {
		return Params{}, err
	}
	return params, nil
}

func (paramsValueCodec) Stringify(value Params) string {
	bz, err := json.Marshal(value)
	if err != nil {
		return fmt.Sprintf("%+v", value)
	}
	return string(bz)
}

func (paramsValueCodec) ValueType() string {
	return "feemarket.Params/json"
}
