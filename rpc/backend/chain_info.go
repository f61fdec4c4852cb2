package backend

import (
	"context"
	"math/big"

	sdkmath "cosmossdk.io/math"
	"github.com/ethereum/go-ethereum"
	"github.com/pkg/errors"

	rpctypes "github.com/MANTRA-Chain/feemarket/rpc/types"
)

// FeeHistory returns data relevant for fee estimation based on the specified range of blocks.
func (b *Backend) FeeHistory(
	ctx context.Context,
	blockCount uint64,
	lastBlock rpctypes.BlockNumber,
	rewardPercentiles []float64,
) (*rpctypes.FeeHistory, error) {
	if blockCount == 0 {
		return nil, errors.New("block count must be positive")
	}

	var res *ethereum.FeeHistory
	err := b.retry(ctx, "eth_feeHistory", func() (err error) {
		res, err = b.ethClient.FeeHistory(ctx, blockCount, lastBlock.BigInt(), rewardPercentiles)
		return err
	})
	if err != nil {
		return nil, err
	}

	fh := rpctypes.NewFeeHistory(res.OldestBlock, res.Reward, res.BaseFee, res.GasUsedRatio)
	return &fh, nil
}

// GasPrice returns the gas price recommended by the node.
func (b *Backend) GasPrice(ctx context.Context) (sdkmath.LegacyDec, error) {
	var price *big.Int
	err := b.retry(ctx, "eth_gasPrice", func() (err error) {
		price, err = b.ethClient.SuggestGasPrice(ctx)
		return err
	})
	if err != nil {
		return sdkmath.LegacyDec{}, err
	}

	return rpctypes.BigToDec(price), nil
}

// MaxPriorityFeePerGas returns the priority fee recommended by the node.
func (b *Backend) MaxPriorityFeePerGas(ctx context.Context) (sdkmath.LegacyDec, error) {
	var tip *big.Int
	err := b.retry(ctx, "eth_maxPriorityFeePerGas", func() (err error) {
		tip, err = b.ethClient.SuggestGasTipCap(ctx)
		return err
	})
	if err != nil {
		return sdkmath.LegacyDec{}, err
	}

	return rpctypes.BigToDec(tip), nil
}
