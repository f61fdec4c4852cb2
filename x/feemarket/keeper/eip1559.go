package keeper

import (
	"math"

	errorsmod "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/MANTRA-Chain/feemarket/x/feemarket/types"
)

// CalculateBlockGasUsed returns the gas used by the current block for the purpose of the base fee.
// Txs are charged at least min_gas_multiplier of their gas limit, so the block is accounted
// the higher of the consumed gas and the wanted gas scaled by that multiplier.
func (k Keeper) CalculateBlockGasUsed(ctx sdk.Context) (uint64, error) {
	if ctx.BlockGasMeter() == nil {
		return 0, types.ErrNilBlockGasMeter
	}

	params, err := k.GetParams(ctx)
	if err != nil {
		return 0, err
	}

	gasWanted, err := k.GetTransientGasWanted(ctx)
	if err != nil {
		return 0, err
	}
	gasUsed := ctx.BlockGasMeter().GasConsumedToLimit()

	limitedGasWanted := sdkmath.LegacyNewDecFromInt(sdkmath.NewIntFromUint64(gasWanted)).Mul(params.MinGasMultiplier)
	updated := sdkmath.LegacyMaxDec(limitedGasWanted, sdkmath.LegacyNewDecFromInt(sdkmath.NewIntFromUint64(gasUsed))).TruncateInt()
	if !updated.IsUint64() {
		return 0, errorsmod.Wrapf(types.ErrGasOverflow, "block gas used %s", updated)
	}

	return updated.Uint64(), nil
}

// CalculateBaseFee calculates the base fee for the next block based on the current one.
// This is only calculated once per block during EndBlock.
// If the base fee is not enabled at the current height, this function returns a nil dec.
// At the enable height the configured base fee is returned as is.
func (k Keeper) CalculateBaseFee(ctx sdk.Context, gasUsed uint64) (sdkmath.LegacyDec, error) {
	params, err := k.GetParams(ctx)
	if err != nil {
		return sdkmath.LegacyDec{}, err
	}

	// Ignore the calculation if not enabled
	if !params.IsBaseFeeEnabled(ctx.BlockHeight()) {
		return sdkmath.LegacyDec{}, nil
	}

	if ctx.BlockHeight() == params.EnableHeight {
		return params.BaseFee, nil
	}

	// NOTE: a MaxGas equal to -1 means that block gas is unlimited
	gasLimit := uint64(math.MaxUint64)
	if consParams := ctx.ConsensusParams(); consParams.Block != nil && consParams.Block.MaxGas > -1 {
		gasLimit = uint64(consParams.Block.MaxGas)
	}

	// transactions below the min gas price don't even reach the mempool,
	// so it is the lower bound of the base fee.
	floor, err := k.floorPolicy.Floor(params)
	if err != nil {
		return sdkmath.LegacyDec{}, err
	}

	return types.NextBaseFee(params.BaseFee, gasLimit, gasUsed, params, floor)
}
