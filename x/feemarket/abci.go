package feemarket

import (
	"time"

	"github.com/cosmos/cosmos-sdk/telemetry"
	sdk "github.com/cosmos/cosmos-sdk/types"

	feemarketkeeper "github.com/MANTRA-Chain/feemarket/x/feemarket/keeper"
	feemarkettypes "github.com/MANTRA-Chain/feemarket/x/feemarket/types"
)

// EndBlocker updates the base fee for the next block.
func EndBlocker(ctx sdk.Context, k feemarketkeeper.Keeper) error {
	defer telemetry.ModuleMeasureSince(feemarkettypes.ModuleName, time.Now(), telemetry.MetricKeyEndBlocker)

	return k.EndBlock(ctx)
}
