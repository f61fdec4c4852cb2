package feemarket

import (
	errorsmod "cosmossdk.io/errors"
	sdk "github.com/cosmos/cosmos-sdk/types"

	feemarketkeeper "github.com/MANTRA-Chain/feemarket/x/feemarket/keeper"
	feemarkettypes "github.com/MANTRA-Chain/feemarket/x/feemarket/types"
)

// InitGenesis initializes genesis state based on exported genesis
func InitGenesis(
	ctx sdk.Context,
	k feemarketkeeper.Keeper,
	data feemarkettypes.GenesisState,
) {
	err := k.SetParams(ctx, data.Params)
	if err != nil {
		panic(errorsmod.Wrap(err, "could not set parameters at genesis"))
	}

	err = k.SetBlockGasUsed(ctx, data.BlockGas)
	if err != nil {
		panic(errorsmod.Wrap(err, "could not set block gas used at genesis"))
	}
}

// ExportGenesis exports genesis state of the fee market module
func ExportGenesis(ctx sdk.Context, k feemarketkeeper.Keeper) *feemarkettypes.GenesisState {
	params, err := k.GetParams(ctx)
	if err != nil {
		panic(errorsmod.Wrap(err, "could not get parameters for export"))
	}

	blockGas, err := k.GetBlockGasUsed(ctx)
	if err != nil {
		panic(errorsmod.Wrap(err, "could not get block gas used for export"))
	}

	return feemarkettypes.NewGenesisState(params, blockGas)
}
