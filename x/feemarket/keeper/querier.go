package keeper

import (
	"context"

	feemarkettypes "github.com/MANTRA-Chain/feemarket/x/feemarket/types"
)

// Querier answers the read queries of the fee market module.
type Querier struct {
	Keeper
}

// NewQuerier returns a querier reading from the keeper.
func NewQuerier(k Keeper) Querier {
	return Querier{Keeper: k}
}

// Params returns the current fee market params.
func (q Querier) Params(ctx context.Context) (*feemarkettypes.QueryParamsResponse, error) {
	params, err := q.GetParams(ctx)
	if err != nil {
		return nil, err
	}

	return &feemarkettypes.QueryParamsResponse{
		Params: params,
	}, nil
}

// BaseFee returns the base fee of the next block.
func (q Querier) BaseFee(ctx context.Context) (*feemarkettypes.QueryBaseFeeResponse, error) {
	baseFee, err := q.GetBaseFee(ctx)
	if err != nil {
		return nil, err
	}

	res := &feemarkettypes.QueryBaseFeeResponse{}
	if !baseFee.IsNil() {
		res.BaseFee = &baseFee
	}

	return res, nil
}
