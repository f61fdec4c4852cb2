package types

import sdkmath "cosmossdk.io/math"

// QueryParamsResponse is the response of the params query.
type QueryParamsResponse struct {
	Params Params `json:"params"`
}

// QueryBaseFeeResponse is the response of the base fee query.
// BaseFee is nil when the base fee is disabled.
type QueryBaseFeeResponse struct {
	BaseFee *sdkmath.LegacyDec `json:"base_fee,omitempty"`
}
