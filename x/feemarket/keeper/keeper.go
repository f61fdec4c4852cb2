package keeper

import (
	"context"
	"errors"

	"cosmossdk.io/collections"
	corestoretypes "cosmossdk.io/core/store"
	"cosmossdk.io/log"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/MANTRA-Chain/feemarket/x/feemarket/types"
)

// Keeper grants access to the Fee Market module state.
type Keeper struct {
	storeService     corestoretypes.KVStoreService
	transientService corestoretypes.TransientStoreService

	Schema          collections.Schema
	TransientSchema collections.Schema

	Params       collections.Item[types.Params]
	BlockGasUsed collections.Item[uint64]
	// BlockGasWanted is reset at every commit
	BlockGasWanted collections.Item[uint64]

	// the address capable of executing a MsgUpdateParams message. Typically, this should be the x/gov module account.
	authority   sdk.AccAddress
	floorPolicy types.FloorPolicy
}

// NewKeeper generates new fee market module keeper
func NewKeeper(
	storeService corestoretypes.KVStoreService,
	transientService corestoretypes.TransientStoreService,
	authority sdk.AccAddress,
	floorPolicy types.FloorPolicy,
) Keeper {
	// ensure authority account is correctly formatted
	if err := sdk.VerifyAddressFormat(authority); err != nil {
		panic(err)
	}
	if err := floorPolicy.Validate(); err != nil {
		panic(err)
	}

	sb := collections.NewSchemaBuilder(storeService)
	tsb := collections.NewSchemaBuilderFromAccessor(transientService.OpenTransientStore)
	k := Keeper{
		storeService:     storeService,
		transientService: transientService,

		Params:         collections.NewItem(sb, types.ParamsKey, "params", types.ParamsValueCodec),
		BlockGasUsed:   collections.NewItem(sb, types.BlockGasUsedKey, "block_gas_used", collections.Uint64Value),
		BlockGasWanted: collections.NewItem(tsb, types.BlockGasWantedTKey, "block_gas_wanted", collections.Uint64Value),

		authority:   authority,
		floorPolicy: floorPolicy,
	}

	schema, err := sb.Build()
	if err != nil {
		panic(err)
	}
	k.Schema = schema

	tSchema, err := tsb.Build()
	if err != nil {
		panic(err)
	}
	k.TransientSchema = tSchema

	return k
}

// Logger returns a module-specific logger.
func (k Keeper) Logger(ctx sdk.Context) log.Logger {
	return ctx.Logger().With("module", "x/"+types.ModuleName)
}

// GetAuthority returns the module authority.
func (k Keeper) GetAuthority() sdk.AccAddress {
	return k.authority
}

// GetFloorPolicy returns the policy converting min gas price into the base fee unit.
func (k Keeper) GetFloorPolicy() types.FloorPolicy {
	return k.floorPolicy
}

// ----------------------------------------------------------------------------
// Parent Block Gas Used
// Required by EIP1559 base fee calculation.
// ----------------------------------------------------------------------------

// SetBlockGasUsed sets the block gas used to the store.
// CONTRACT: this should be only called during EndBlock.
func (k Keeper) SetBlockGasUsed(ctx context.Context, gas uint64) error {
	return k.BlockGasUsed.Set(ctx, gas)
}

// GetBlockGasUsed returns the last block gas used value from the store.
func (k Keeper) GetBlockGasUsed(ctx context.Context) (uint64, error) {
	gas, err := k.BlockGasUsed.Get(ctx)
	if errors.Is(err, collections.ErrNotFound) {
		return 0, nil
	}
	return gas, err
}

// ----------------------------------------------------------------------------
// Block Gas Wanted
// Accumulated by the ante handler over the txs of the current block.
// ----------------------------------------------------------------------------

// AddTransientGasWanted accumulates the gas wanted by a tx into the current block total.
func (k Keeper) AddTransientGasWanted(ctx context.Context, gasWanted uint64) (uint64, error) {
	current, err := k.GetTransientGasWanted(ctx)
	if err != nil {
		return 0, err
	}

	total := current + gasWanted
	if total < current {
		return 0, types.ErrGasOverflow.Wrapf("block gas wanted %d + %d", current, gasWanted)
	}

	return total, k.BlockGasWanted.Set(ctx, total)
}

// GetTransientGasWanted returns the gas wanted in the current block from the transient store.
func (k Keeper) GetTransientGasWanted(ctx context.Context) (uint64, error) {
	gas, err := k.BlockGasWanted.Get(ctx)
	if errors.Is(err, collections.ErrNotFound) {
		return 0, nil
	}
	return gas, err
}
