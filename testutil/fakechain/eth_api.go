package fakechain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common/hexutil"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rpc"

	rpctypes "github.com/MANTRA-Chain/feemarket/rpc/types"
)

// ethAPI implements the subset of the eth namespace read by the auditor.
type ethAPI struct {
	chain *Chain
}

func (api *ethAPI) BlockNumber() (hexutil.Uint64, error) {
	if err := api.chain.consume("eth_blockNumber"); err != nil {
		return 0, err
	}
	return hexutil.Uint64(api.chain.Head().Number), nil
}

func (api *ethAPI) GetBlockByNumber(_ context.Context, number rpc.BlockNumber, _ bool) (*ethtypes.Header, error) {
	if err := api.chain.consume("eth_getBlockByNumber"); err != nil {
		return nil, err
	}

	c := api.chain
	c.mu.RLock()
	defer c.mu.RUnlock()

	view, found := c.block(c.resolve(number))
	if !found {
		return nil, nil
	}

	return &ethtypes.Header{
		Difficulty: big.NewInt(0),
		Number:     big.NewInt(view.Number),
		GasLimit:   view.GasLimit,
		GasUsed:    view.GasUsed,
		Time:       uint64(view.Number),
		Extra:      []byte{},
		BaseFee:    decToBig(view.BaseFee),
	}, nil
}

func (api *ethAPI) FeeHistory(
	_ context.Context,
	blockCount rpc.DecimalOrHex,
	lastBlock rpc.BlockNumber,
	rewardPercentiles []float64,
) (*rpctypes.FeeHistoryResult, error) {
	if err := api.chain.consume("eth_feeHistory"); err != nil {
		return nil, err
	}

	c := api.chain
	c.mu.RLock()
	defer c.mu.RUnlock()

	head := c.blocks[len(c.blocks)-1].Number
	last := c.resolve(lastBlock)
	if !c.lenientFeeHistory {
		if last > head {
			return nil, fmt.Errorf("request beyond head block: requested %d, head %d", last, head)
		}
		for i, p := range rewardPercentiles {
			if p < 0 || p > 100 {
				return nil, fmt.Errorf("invalid reward percentile: %f", p)
			}
			if i > 0 && p < rewardPercentiles[i-1] {
				return nil, fmt.Errorf("invalid reward percentile: #%d:%f > #%d:%f", i-1, rewardPercentiles[i-1], i, p)
			}
		}
	}
	if last > head {
		last = head
	}
	if _, found := c.block(last); !found {
		return nil, rpctypes.ErrBlockNotFound
	}

	oldest := last - int64(blockCount) + 1
	if oldest < c.first {
		oldest = c.first
	}

	res := &rpctypes.FeeHistoryResult{
		OldestBlock: (*hexutil.Big)(big.NewInt(oldest)),
	}
	for height := oldest; height <= last; height++ {
		view, _ := c.block(height)
		res.BaseFee = append(res.BaseFee, (*hexutil.Big)(decToBig(view.BaseFee)))
		res.GasUsedRatio = append(res.GasUsedRatio, view.GasUsedRatio())

		if len(rewardPercentiles) > 0 {
			row := make([]*hexutil.Big, len(rewardPercentiles))
			for i := range row {
				row[i] = (*hexutil.Big)(decToBig(c.tip))
			}
			res.Reward = append(res.Reward, row)
		}
	}

	// base fee of the block following the window
	lastView, _ := c.block(last)
	next, found := c.block(last + 1)
	if !found {
		next.BaseFee = c.nextBaseFee(lastView)
	}
	res.BaseFee = append(res.BaseFee, (*hexutil.Big)(decToBig(next.BaseFee)))

	return res, nil
}

func (api *ethAPI) GasPrice(_ context.Context) (*hexutil.Big, error) {
	if err := api.chain.consume("eth_gasPrice"); err != nil {
		return nil, err
	}

	c := api.chain
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.gasPrice.IsNil() {
		return (*hexutil.Big)(decToBig(c.gasPrice)), nil
	}

	head := c.blocks[len(c.blocks)-1]
	return (*hexutil.Big)(decToBig(head.BaseFee.Add(c.tip))), nil
}

func (api *ethAPI) MaxPriorityFeePerGas(_ context.Context) (*hexutil.Big, error) {
	if err := api.chain.consume("eth_maxPriorityFeePerGas"); err != nil {
		return nil, err
	}

	c := api.chain
	c.mu.RLock()
	defer c.mu.RUnlock()

	return (*hexutil.Big)(decToBig(c.tip)), nil
}

// resolve converts a block tag into a height. Caller must hold the lock.
func (c *Chain) resolve(number rpc.BlockNumber) int64 {
	switch number {
	case rpc.LatestBlockNumber, rpc.PendingBlockNumber:
		return c.blocks[len(c.blocks)-1].Number
	case rpc.EarliestBlockNumber:
		return c.first
	default:
		return number.Int64()
	}
}
