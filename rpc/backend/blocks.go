package backend

import (
	"context"
	"fmt"
	"math"

	"github.com/ethereum/go-ethereum"

	rpctypes "github.com/MANTRA-Chain/feemarket/rpc/types"
)

// BlockNumber returns the current block number.
func (b *Backend) BlockNumber(ctx context.Context) (int64, error) {
	var height uint64
	err := b.retry(ctx, "eth_blockNumber", func() (err error) {
		height, err = b.ethClient.BlockNumber(ctx)
		return err
	})
	if err != nil {
		return 0, err
	}

	if height > math.MaxInt64 {
		return 0, fmt.Errorf("block height %d is greater than max int64", height)
	}

	return int64(height), nil
}

// BlockByNumber returns the base fee view of the block identified by block number.
// Views of finalized heights are cached, "latest" is always fetched.
func (b *Backend) BlockByNumber(ctx context.Context, blockNum rpctypes.BlockNumber) (rpctypes.BlockView, error) {
	if blockNum == rpctypes.EthPendingBlockNumber {
		return rpctypes.BlockView{}, fmt.Errorf("pending block has no final base fee")
	}

	if b.blocks != nil && !blockNum.IsLatest() {
		if view, found := b.blocks.Get(blockNum.Int64()); found {
			return view, nil
		}
	}

	var view rpctypes.BlockView
	err := b.retry(ctx, "eth_getBlockByNumber", func() error {
		header, err := b.ethClient.HeaderByNumber(ctx, blockNum.BigInt())
		if err != nil {
			if err == ethereum.NotFound {
				return permanent(fmt.Errorf("%w: %s", rpctypes.ErrBlockNotFound, blockNum))
			}
			return err
		}

		view, err = rpctypes.BlockViewFromHeader(header)
		if err != nil {
			return permanent(err)
		}
		return nil
	})
	if err != nil {
		return rpctypes.BlockView{}, err
	}

	if b.blocks != nil {
		b.blocks.Add(view.Number, view)
	}

	return view, nil
}
