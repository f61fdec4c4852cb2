package audit

import (
	"context"
	"fmt"
	"math"
	"strings"

	"golang.org/x/sync/errgroup"

	rpctypes "github.com/MANTRA-Chain/feemarket/rpc/types"
)

const (
	errBeyondHead        = "request beyond head block"
	errInvalidPercentile = "invalid reward percentile"

	rejectionWindowSize = 4
)

// RejectionCheck is one eth_feeHistory request the node must refuse.
type RejectionCheck struct {
	Name        string    `json:"name"`
	LastBlock   string    `json:"last_block"`
	Percentiles []float64 `json:"percentiles"`
	Expected    string    `json:"expected"`
	Error       string    `json:"error,omitempty"`
	OK          bool      `json:"ok"`
}

// RejectionReport is the result of the verification of the eth_feeHistory input checks.
type RejectionReport struct {
	Checks []RejectionCheck `json:"checks"`
}

// OK returns true if the node refused every invalid request with the expected error.
func (r RejectionReport) OK() bool {
	for _, check := range r.Checks {
		if !check.OK {
			return false
		}
	}
	return true
}

// VerifyFeeHistoryRejections checks eth_feeHistory refuses a window ending beyond the head block
// and reward percentiles out of [0, 100] or not in ascending order.
func (v *Verifier) VerifyFeeHistoryRejections(ctx context.Context) (*RejectionReport, error) {
	report := &RejectionReport{
		Checks: []RejectionCheck{
			{
				Name:      "beyond head",
				LastBlock: fmt.Sprintf("%#x", int64(math.MaxInt64)),
				Expected:  fmt.Sprintf("%s: requested %d", errBeyondHead, int64(math.MaxInt64)),
			},
			{
				Name:        "negative percentile",
				LastBlock:   rpctypes.BlockParamLatest,
				Percentiles: []float64{-1},
				Expected:    errInvalidPercentile,
			},
			{
				Name:        "percentile above 100",
				LastBlock:   rpctypes.BlockParamLatest,
				Percentiles: []float64{101},
				Expected:    errInvalidPercentile,
			},
			{
				Name:        "decreasing percentiles",
				LastBlock:   rpctypes.BlockParamLatest,
				Percentiles: []float64{2, 1},
				Expected:    errInvalidPercentile,
			},
		},
	}

	lastBlocks := []rpctypes.BlockNumber{
		rpctypes.BlockNumber(math.MaxInt64),
		rpctypes.EthLatestBlockNumber,
		rpctypes.EthLatestBlockNumber,
		rpctypes.EthLatestBlockNumber,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(v.concurrency)
	for i := range report.Checks {
		check := &report.Checks[i]
		lastBlock := lastBlocks[i]
		g.Go(func() error {
			_, err := v.backend.FeeHistory(gctx, rejectionWindowSize, lastBlock, check.Percentiles)
			if err != nil {
				check.Error = err.Error()
				check.OK = strings.Contains(check.Error, check.Expected)
			}
			if !check.OK {
				v.logger.Info("fee history request not refused", "check", check.Name, "error", check.Error)
			}
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return report, nil
}
