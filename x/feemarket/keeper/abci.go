package keeper

import (
	"strconv"

	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/cosmos/cosmos-sdk/telemetry"

	"github.com/MANTRA-Chain/feemarket/x/feemarket/types"
)

// EndBlock records the gas used by the block and updates the base fee for the next block.
func (k Keeper) EndBlock(ctx sdk.Context) error {
	if ctx.BlockGasMeter() == nil {
		k.Logger(ctx).Error("block gas meter is nil when setting base fee for the next block")
		return nil
	}

	gasUsed, err := k.CalculateBlockGasUsed(ctx)
	if err != nil {
		return err
	}

	if err := k.SetBlockGasUsed(ctx, gasUsed); err != nil {
		return err
	}

	ctx.EventManager().EmitEvent(sdk.NewEvent(
		types.EventTypeBlockGas,
		sdk.NewAttribute(types.AttributeKeyHeight, strconv.FormatInt(ctx.BlockHeight(), 10)),
		sdk.NewAttribute(types.AttributeKeyAmount, strconv.FormatUint(gasUsed, 10)),
	))

	return k.updateBaseFeeForNextBlock(ctx, gasUsed)
}

func (k Keeper) updateBaseFeeForNextBlock(ctx sdk.Context, gasUsed uint64) error {
	baseFee, err := k.CalculateBaseFee(ctx, gasUsed)
	if err != nil {
		return err
	}

	if baseFee.IsNil() {
		return nil
	}

	if err := k.SetBaseFee(ctx, baseFee); err != nil {
		return err
	}

	defer func() {
		floatBaseFee, err := baseFee.Float64()
		if err != nil {
			k.Logger(ctx).Error("failed to convert base fee to float", "base_fee", baseFee.String(), "error", err)
			return
		}
		telemetry.SetGauge(float32(floatBaseFee), "feemarket", "base_fee")
	}()

	// Store current base fee in event
	ctx.EventManager().EmitEvents(sdk.Events{
		sdk.NewEvent(
			types.EventTypeFeeMarket,
			sdk.NewAttribute(types.AttributeKeyBaseFee, baseFee.String()),
		),
	})

	return nil
}
