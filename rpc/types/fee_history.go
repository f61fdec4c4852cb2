package types

import (
	"math/big"

	sdkmath "cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// FeeHistoryResult is the eth_feeHistory JSON-RPC result.
type FeeHistoryResult struct {
	OldestBlock  *hexutil.Big     `json:"oldestBlock"`
	Reward       [][]*hexutil.Big `json:"reward,omitempty"`
	BaseFee      []*hexutil.Big   `json:"baseFeePerGas,omitempty"`
	GasUsedRatio []float64        `json:"gasUsedRatio"`
}

// FeeHistory is the decoded fee history window.
// BaseFees holds one more entry than GasUsedRatio: the base fee of the block following the window.
type FeeHistory struct {
	OldestBlock  int64                 `json:"oldest_block"`
	BaseFees     []sdkmath.LegacyDec   `json:"base_fees"`
	GasUsedRatio []float64             `json:"gas_used_ratio"`
	Rewards      [][]sdkmath.LegacyDec `json:"rewards,omitempty"`
}

// NewFeeHistory converts the go-ethereum client representation.
func NewFeeHistory(oldestBlock *big.Int, reward [][]*big.Int, baseFee []*big.Int, gasUsedRatio []float64) FeeHistory {
	fh := FeeHistory{
		GasUsedRatio: gasUsedRatio,
		BaseFees:     make([]sdkmath.LegacyDec, len(baseFee)),
		Rewards:      make([][]sdkmath.LegacyDec, len(reward)),
	}
	if oldestBlock != nil && oldestBlock.IsInt64() {
		fh.OldestBlock = oldestBlock.Int64()
	}
	for i, fee := range baseFee {
		fh.BaseFees[i] = BigToDec(fee)
	}
	for i, rewards := range reward {
		fh.Rewards[i] = make([]sdkmath.LegacyDec, len(rewards))
		for j, r := range rewards {
			fh.Rewards[i][j] = BigToDec(r)
		}
	}
	return fh
}

// Blocks returns the number of blocks covered by the window.
func (fh FeeHistory) Blocks() int {
	return len(fh.GasUsedRatio)
}

// LatestBlock returns the height of the newest block of the window.
func (fh FeeHistory) LatestBlock() int64 {
	return fh.OldestBlock + int64(fh.Blocks()) - 1
}

// ToResult encodes the window as the JSON-RPC result.
func (fh FeeHistory) ToResult() *FeeHistoryResult {
	res := &FeeHistoryResult{
		OldestBlock:  (*hexutil.Big)(big.NewInt(fh.OldestBlock)),
		GasUsedRatio: fh.GasUsedRatio,
	}
	for _, fee := range fh.BaseFees {
		res.BaseFee = append(res.BaseFee, (*hexutil.Big)(fee.TruncateInt().BigInt()))
	}
	for _, rewards := range fh.Rewards {
		row := make([]*hexutil.Big, len(rewards))
		for i, r := range rewards {
			row[i] = (*hexutil.Big)(r.TruncateInt().BigInt())
		}
		res.Reward = append(res.Reward, row)
	}
	return res
}
