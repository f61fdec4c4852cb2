package keeper

import (
	"context"

	errorsmod "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"

	feemarkettypes "github.com/MANTRA-Chain/feemarket/x/feemarket/types"
)

// GetParams returns the total set of fee market parameters.
func (k Keeper) GetParams(ctx context.Context) (feemarkettypes.Params, error) {
	params, err := k.Params.Get(ctx)
	if err != nil {
		return feemarkettypes.Params{}, err
	}

	// zero the nil params for legacy blocks
	if params.MinGasPrice.IsNil() {
		params.MinGasPrice = sdkmath.LegacyZeroDec()
	}
	if params.MinBaseGasPrice.IsNil() {
		params.MinBaseGasPrice = sdkmath.LegacyZeroDec()
	}

	return params, nil
}

// SetParams sets the fee market params in a single key
func (k Keeper) SetParams(ctx context.Context, params feemarkettypes.Params) error {
	if err := params.Validate(); err != nil {
		return err
	}

	return k.Params.Set(ctx, params)
}

// UpdateParams replaces the params when requested by the module authority.
func (k Keeper) UpdateParams(ctx context.Context, authority string, params feemarkettypes.Params) error {
	if k.authority.String() != authority {
		return errorsmod.Wrapf(feemarkettypes.ErrInvalidSigner, "invalid authority, expected %s, got %s", k.authority.String(), authority)
	}

	return k.SetParams(ctx, params)
}

// ----------------------------------------------------------------------------
// Base Fee
// Required by EIP1559 base fee calculation.
// ----------------------------------------------------------------------------

// GetBaseFeeEnabled returns true if base fee is enabled
func (k Keeper) GetBaseFeeEnabled(ctx context.Context) (bool, error) {
	params, err := k.GetParams(ctx)
	if err != nil {
		return false, err
	}
	return !params.NoBaseFee, nil
}

// GetBaseFee gets the base fee from the store.
// Returns a nil dec when the base fee is disabled.
func (k Keeper) GetBaseFee(ctx context.Context) (sdkmath.LegacyDec, error) {
	params, err := k.GetParams(ctx)
	if err != nil {
		return sdkmath.LegacyDec{}, err
	}
	if params.NoBaseFee {
		return sdkmath.LegacyDec{}, nil
	}
	return params.BaseFee, nil
}

// SetBaseFee set's the base fee in the store
func (k Keeper) SetBaseFee(ctx context.Context, baseFee sdkmath.LegacyDec) error {
	params, err := k.GetParams(ctx)
	if err != nil {
		return err
	}
	params.BaseFee = baseFee

	return k.SetParams(ctx, params)
}
