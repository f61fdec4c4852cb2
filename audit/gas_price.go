package audit

import (
	"context"
	"errors"
	"fmt"
	"time"

	sdkmath "cosmossdk.io/math"
	"golang.org/x/sync/errgroup"

	rpctypes "github.com/MANTRA-Chain/feemarket/rpc/types"
)

// GasPriceReport is the result of the verification of the recommended gas price.
type GasPriceReport struct {
	Height   int64             `json:"height"`
	BaseFee  sdkmath.LegacyDec `json:"base_fee"`
	Tip      sdkmath.LegacyDec `json:"max_priority_fee_per_gas"`
	GasPrice sdkmath.LegacyDec `json:"gas_price"`
	Expected sdkmath.LegacyDec `json:"expected"`
	Match    bool              `json:"match"`

	// NextBlockChecked is set when the gas price was compared with the base fee of the next block.
	NextBlockChecked bool              `json:"next_block_checked"`
	NextHeight       int64             `json:"next_height,omitempty"`
	NextBaseFee      sdkmath.LegacyDec `json:"next_base_fee"`
	CoversNextBlock  bool              `json:"covers_next_block"`
}

// OK returns true if the gas price is the expected one and is enough for the next block.
func (r GasPriceReport) OK() bool {
	return r.Match && (!r.NextBlockChecked || r.CoversNextBlock)
}

// VerifyRecommendedFee checks eth_gasPrice is the head base fee plus eth_maxPriorityFeePerGas.
// With a positive nextBlockTimeout, it also waits for the block following the head and checks
// the gas price is not below its base fee, a transaction priced with it must fit in that block.
func (v *Verifier) VerifyRecommendedFee(ctx context.Context, nextBlockTimeout time.Duration) (*GasPriceReport, error) {
	var (
		head     rpctypes.BlockView
		tip      sdkmath.LegacyDec
		gasPrice sdkmath.LegacyDec
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		head, err = v.backend.BlockByNumber(gctx, rpctypes.EthLatestBlockNumber)
		return err
	})
	g.Go(func() (err error) {
		tip, err = v.backend.MaxPriorityFeePerGas(gctx)
		return err
	})
	g.Go(func() (err error) {
		gasPrice, err = v.backend.GasPrice(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	expected := head.BaseFee.Add(tip)

	report := &GasPriceReport{
		Height:      head.Number,
		BaseFee:     head.BaseFee,
		Tip:         tip,
		GasPrice:    gasPrice,
		Expected:    expected,
		Match:       gasPrice.Sub(expected).Abs().LTE(v.tolerance),
		NextBaseFee: sdkmath.LegacyZeroDec(),
	}
	if nextBlockTimeout <= 0 {
		return report, nil
	}

	next, err := v.waitForBlock(ctx, head.Number+1, nextBlockTimeout)
	if err != nil {
		return nil, err
	}
	report.NextBlockChecked = true
	report.NextHeight = next.Number
	report.NextBaseFee = next.BaseFee
	report.CoversNextBlock = gasPrice.Add(v.tolerance).GTE(next.BaseFee)
	if !report.CoversNextBlock {
		v.logger.Info("gas price below the next base fee", "height", next.Number, "gas_price", gasPrice, "base_fee", next.BaseFee)
	}

	return report, nil
}

// waitForBlock polls the node until the block at height is produced.
func (v *Verifier) waitForBlock(ctx context.Context, height int64, timeout time.Duration) (rpctypes.BlockView, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(v.pollInterval)
	defer ticker.Stop()

	for {
		view, err := v.backend.BlockByNumber(ctx, rpctypes.BlockNumber(height))
		if err == nil {
			return view, nil
		}
		if ctx.Err() == nil && !errors.Is(err, rpctypes.ErrBlockNotFound) {
			return rpctypes.BlockView{}, err
		}

		select {
		case <-ctx.Done():
			return rpctypes.BlockView{}, fmt.Errorf("block %d not produced within %s: %w", height, timeout, ctx.Err())
		case <-ticker.C:
		}
	}
}
