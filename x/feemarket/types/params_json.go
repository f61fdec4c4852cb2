package types

import (
	errorsmod "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"
	"github.com/spf13/cast"
	"github.com/tidwall/gjson"
)

// ParseParamsJSON decodes fee market params as printed by the chain CLI or REST API.
// Numbers may be encoded as JSON strings or numbers, the object may be wrapped
// under a "params" key and missing fields keep their default value.
func ParseParamsJSON(bz []byte) (Params, error) {
	if !gjson.ValidBytes(bz) {
		return Params{}, errorsmod.Wrap(ErrInvalidParams, "malformed json")
	}

	root := gjson.ParseBytes(bz)
	if inner := root.Get("params"); inner.IsObject() {
		root = inner
	}
	if !root.IsObject() {
		return Params{}, errorsmod.Wrap(ErrInvalidParams, "params is not an object")
	}

	params := DefaultParams()

	if v := root.Get("no_base_fee"); v.Exists() {
		b, err := cast.ToBoolE(v.Value())
		if err != nil {
			return Params{}, errorsmod.Wrapf(ErrInvalidParams, "no_base_fee: %s", err)
		}
		params.NoBaseFee = b
	}

	var err error
	if params.BaseFeeChangeDenominator, err = uint32Field(root, "base_fee_change_denominator", params.BaseFeeChangeDenominator); err != nil {
		return Params{}, err
	}
	if params.ElasticityMultiplier, err = uint32Field(root, "elasticity_multiplier", params.ElasticityMultiplier); err != nil {
		return Params{}, err
	}
	if v := root.Get("enable_height"); v.Exists() {
		h, err := cast.ToInt64E(v.Value())
		if err != nil {
			return Params{}, errorsmod.Wrapf(ErrInvalidParams, "enable_height: %s", err)
		}
		params.EnableHeight = h
	}
	if params.BaseFee, err = decField(root, "base_fee", params.BaseFee); err != nil {
		return Params{}, err
	}
	if params.MinGasPrice, err = decField(root, "min_gas_price", params.MinGasPrice); err != nil {
		return Params{}, err
	}
	if params.MinBaseGasPrice, err = decField(root, "min_base_gas_price", params.MinBaseGasPrice); err != nil {
		return Params{}, err
	}
	if params.MinGasMultiplier, err = decField(root, "min_gas_multiplier", params.MinGasMultiplier); err != nil {
		return Params{}, err
	}

	if err := params.Validate(); err != nil {
		return Params{}, errorsmod.Wrap(ErrInvalidParams, err.Error())
	}

	return params, nil
}

func uint32Field(root gjson.Result, key string, fallback uint32) (uint32, error) {
	v := root.Get(key)
	if !v.Exists() || v.Type == gjson.Null {
		return fallback, nil
	}
	u, err := cast.ToUint32E(v.Value())
	if err != nil {
		return 0, errorsmod.Wrapf(ErrInvalidParams, "%s: %s", key, err)
	}
	return u, nil
}

func decField(root gjson.Result, key string, fallback sdkmath.LegacyDec) (sdkmath.LegacyDec, error) {
	v := root.Get(key)
	if !v.Exists() || v.Type == gjson.Null {
		return fallback, nil
	}
	d, err := sdkmath.LegacyNewDecFromStr(v.String())
	if err != nil {
		return sdkmath.LegacyDec{}, errorsmod.Wrapf(ErrInvalidParams, "%s: %s", key, err)
	}
	return d, nil
}
