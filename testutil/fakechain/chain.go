// Package fakechain serves an in-memory EVM chain over an in-process JSON-RPC server.
package fakechain

import (
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"sync"

	sdkmath "cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/rpc"

	rpctypes "github.com/MANTRA-Chain/feemarket/rpc/types"
	feemarkettypes "github.com/MANTRA-Chain/feemarket/x/feemarket/types"
)

// Chain is an in-memory chain whose base fees follow the fee market recurrence,
// unless tampered with.
type Chain struct {
	mu sync.RWMutex

	params   feemarkettypes.Params
	floor    sdkmath.LegacyDec
	gasLimit uint64

	first  int64
	blocks []rpctypes.BlockView

	tip       sdkmath.LegacyDec
	gasPrice  sdkmath.LegacyDec
	failures  map[string]int
	callCount map[string]int

	lenientFeeHistory bool
}

// New creates a chain starting at the given height with the given base fee.
// The floor is the lower bound used to derive the following base fees, in wei.
func New(params feemarkettypes.Params, floor sdkmath.LegacyDec, gasLimit uint64, startHeight int64, startFee sdkmath.LegacyDec) *Chain {
	return &Chain{
		params:   params,
		floor:    floor,
		gasLimit: gasLimit,
		first:    startHeight,
		blocks: []rpctypes.BlockView{{
			Number:   startHeight,
			BaseFee:  startFee,
			GasLimit: gasLimit,
		}},
		tip:       sdkmath.LegacyZeroDec(),
		failures:  make(map[string]int),
		callCount: make(map[string]int),
	}
}

// Params returns the params the chain is running with.
func (c *Chain) Params() feemarkettypes.Params {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.params
}

// SetParams changes the params used to derive the next blocks.
func (c *Chain) SetParams(params feemarkettypes.Params, floor sdkmath.LegacyDec) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.params = params
	c.floor = floor
}

// SetGasUsed sets the gas used of the head block.
func (c *Chain) SetGasUsed(gasUsed uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.blocks[len(c.blocks)-1].GasUsed = gasUsed
}

// Produce appends one block per gas usage. The gas usage is the one of the new block,
// its base fee is derived from the parent and truncated to whole wei like the headers report it.
func (c *Chain) Produce(gasUsages ...uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, gasUsed := range gasUsages {
		parent := c.blocks[len(c.blocks)-1]
		c.blocks = append(c.blocks, rpctypes.BlockView{
			Number:   parent.Number + 1,
			BaseFee:  c.nextBaseFee(parent).TruncateDec(),
			GasLimit: c.gasLimit,
			GasUsed:  gasUsed,
		})
	}
}

// Tamper overrides the base fee of a block, breaking the recurrence.
func (c *Chain) Tamper(height int64, baseFee sdkmath.LegacyDec) {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx := height - c.first
	if idx < 0 || idx >= int64(len(c.blocks)) {
		panic(fmt.Sprintf("block %d not produced", height))
	}
	c.blocks[idx].BaseFee = baseFee
}

// SetTip sets the priority fee suggested by the node.
func (c *Chain) SetTip(tip sdkmath.LegacyDec) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tip = tip
}

// SetGasPrice forces the gas price suggested by the node, nil dec restores base fee + tip.
func (c *Chain) SetGasPrice(price sdkmath.LegacyDec) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gasPrice = price
}

// SetLenientFeeHistory makes eth_feeHistory accept windows beyond the head and invalid
// reward percentiles, answering with what it has.
func (c *Chain) SetLenientFeeHistory(lenient bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lenientFeeHistory = lenient
}

// FailNext makes the next n calls of the JSON-RPC method fail.
func (c *Chain) FailNext(method string, n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failures[method] = n
}

// CallCount returns the number of calls received by the JSON-RPC method.
func (c *Chain) CallCount(method string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.callCount[method]
}

// Head returns the latest block.
func (c *Chain) Head() rpctypes.BlockView {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.blocks[len(c.blocks)-1]
}

// Block returns the block at the given height.
func (c *Chain) Block(height int64) (rpctypes.BlockView, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.block(height)
}

// Server returns a JSON-RPC server serving the eth namespace of the chain.
func (c *Chain) Server() *rpc.Server {
	server := rpc.NewServer()
	if err := server.RegisterName("eth", &ethAPI{chain: c}); err != nil {
		panic(err)
	}
	return server
}

// Dial returns an in-process client of the chain.
func (c *Chain) Dial() *rpc.Client {
	return rpc.DialInProc(c.Server())
}

// ParamsHandler serves the params the way the Cosmos REST API does, numbers encoded as strings.
func (c *Chain) ParamsHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		params := c.Params()
		bz, err := json.Marshal(map[string]interface{}{
			"params": map[string]interface{}{
				"no_base_fee":                 params.NoBaseFee,
				"base_fee_change_denominator": fmt.Sprint(params.BaseFeeChangeDenominator),
				"elasticity_multiplier":       fmt.Sprint(params.ElasticityMultiplier),
				"enable_height":               fmt.Sprint(params.EnableHeight),
				"base_fee":                    params.BaseFee.String(),
				"min_gas_price":               params.MinGasPrice.String(),
				"min_gas_multiplier":          params.MinGasMultiplier.String(),
			},
		})
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(bz)
	})
}

func (c *Chain) block(height int64) (rpctypes.BlockView, bool) {
	idx := height - c.first
	if idx < 0 || idx >= int64(len(c.blocks)) {
		return rpctypes.BlockView{}, false
	}
	return c.blocks[idx], true
}

func (c *Chain) nextBaseFee(parent rpctypes.BlockView) sdkmath.LegacyDec {
	next, err := feemarkettypes.NextBaseFee(parent.BaseFee, parent.GasLimit, parent.GasUsed, c.params, c.floor)
	if err != nil {
		panic(err)
	}
	return next
}

// consume records the call and returns an error if a failure was requested.
func (c *Chain) consume(method string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.callCount[method]++
	if c.failures[method] > 0 {
		c.failures[method]--
		return fmt.Errorf("%s: injected failure", method)
	}
	return nil
}

func decToBig(d sdkmath.LegacyDec) *big.Int {
	return d.TruncateInt().BigInt()
}
