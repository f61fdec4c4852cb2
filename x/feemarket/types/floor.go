package types

import (
	"fmt"

	errorsmod "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"
)

// FloorSource selects which param bounds the base fee from below.
type FloorSource string

const (
	FloorSourceMinGasPrice     FloorSource = "min_gas_price"
	FloorSourceMinBaseGasPrice FloorSource = "min_base_gas_price"
)

// WeiPerUom is the number of wei in one uom, the scale between the
// cosmos fee denom and EVM denominated fees.
var WeiPerUom = sdkmath.LegacyNewDec(1_000_000_000_000)

// FloorPolicy converts the configured minimum gas price into the unit of the base fee.
type FloorPolicy struct {
	Source FloorSource
	Scale  sdkmath.LegacyDec
}

// DefaultFloorPolicy is the in-chain policy: min_gas_price is already in the base fee unit.
func DefaultFloorPolicy() FloorPolicy {
	return FloorPolicy{
		Source: FloorSourceMinGasPrice,
		Scale:  sdkmath.LegacyOneDec(),
	}
}

// EVMFloorPolicy is the policy to compare against fees reported by the EVM JSON-RPC,
// where min_gas_price is expressed in uom and base fees in wei.
func EVMFloorPolicy(source FloorSource) FloorPolicy {
	return FloorPolicy{
		Source: source,
		Scale:  WeiPerUom,
	}
}

// ParseFloorSource parses the floor source name as used in configuration.
func ParseFloorSource(s string) (FloorSource, error) {
	switch FloorSource(s) {
	case FloorSourceMinGasPrice, "":
		return FloorSourceMinGasPrice, nil
	case FloorSourceMinBaseGasPrice:
		return FloorSourceMinBaseGasPrice, nil
	default:
		return "", errorsmod.Wrapf(ErrInvalidFloorPolicy, "unknown floor source %q", s)
	}
}

// Validate checks the policy can be applied.
func (fp FloorPolicy) Validate() error {
	if _, err := ParseFloorSource(string(fp.Source)); err != nil {
		return err
	}
	if fp.Scale.IsNil() || !fp.Scale.IsPositive() {
		return errorsmod.Wrapf(ErrInvalidFloorPolicy, "scale must be positive, got %s", fp.Scale)
	}
	return nil
}

// Floor returns the lower bound of the base fee for the given params.
func (fp FloorPolicy) Floor(params Params) (sdkmath.LegacyDec, error) {
	if err := fp.Validate(); err != nil {
		return sdkmath.LegacyDec{}, err
	}

	var value sdkmath.LegacyDec
	switch fp.Source {
	case FloorSourceMinBaseGasPrice:
		value = params.MinBaseGasPrice
	default:
		value = params.MinGasPrice
	}

	if value.IsNil() {
		return sdkmath.LegacyZeroDec(), nil
	}
	if value.IsNegative() {
		return sdkmath.LegacyDec{}, errorsmod.Wrapf(ErrInvalidParams, "%s cannot be negative: %s", fp.Source, value)
	}

	return value.Mul(fp.Scale), nil
}

func (fp FloorPolicy) String() string {
	return fmt.Sprintf("%s x %s", fp.Source, fp.Scale)
}
