package audit

import (
	"context"
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"

	rpctypes "github.com/MANTRA-Chain/feemarket/rpc/types"
)

// gasUsedRatioEpsilon absorbs the float rounding of the ratio reported by eth_feeHistory.
const gasUsedRatioEpsilon = 1e-9

// FeeHistoryReport is the result of the verification of an eth_feeHistory window.
type FeeHistoryReport struct {
	Size     uint64               `json:"size"`
	Latest   *rpctypes.FeeHistory `json:"latest"`
	Explicit *rpctypes.FeeHistory `json:"explicit"`
	Snapshot Snapshot             `json:"snapshot"`
	Records  []Record             `json:"records"`
	Problems []string             `json:"problems,omitempty"`
}

// OK returns true if the window is consistent with the block headers and the recurrence.
func (r FeeHistoryReport) OK() bool {
	if len(r.Problems) > 0 {
		return false
	}
	for _, record := range r.Records {
		if !record.Match {
			return false
		}
	}
	return true
}

func (r *FeeHistoryReport) addProblem(format string, args ...interface{}) {
	r.Problems = append(r.Problems, fmt.Sprintf(format, args...))
}

// VerifyFeeHistory checks the eth_feeHistory window of size blocks ending at the head:
//   - the window requested for "latest" and for the explicit head height are the same
//   - it holds at most size+1 base fees, one more than the number of blocks
//   - its base fees and gas used ratios are the ones of the block headers
//   - every base fee, including the next block one, follows the recurrence applied to the previous one
func (v *Verifier) VerifyFeeHistory(ctx context.Context, size uint64, percentiles []float64) (*FeeHistoryReport, error) {
	if size == 0 {
		return nil, fmt.Errorf("fee history size must be positive")
	}

	snapshot, err := v.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	head, err := v.backend.BlockNumber(ctx)
	if err != nil {
		return nil, err
	}

	var latest, explicit *rpctypes.FeeHistory
	{
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() (err error) {
			latest, err = v.backend.FeeHistory(gctx, size, rpctypes.EthLatestBlockNumber, percentiles)
			return err
		})
		g.Go(func() (err error) {
			explicit, err = v.backend.FeeHistory(gctx, size, rpctypes.BlockNumber(head), percentiles)
			return err
		})
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	// the head moved between the calls, compare against the window "latest" resolved to
	if latest.Blocks() > 0 && latest.LatestBlock() != explicit.LatestBlock() {
		v.logger.Debug("head moved during fee history verification", "head", head, "latest", latest.LatestBlock())
		explicit, err = v.backend.FeeHistory(ctx, size, rpctypes.BlockNumber(latest.LatestBlock()), percentiles)
		if err != nil {
			return nil, err
		}
	}

	report := &FeeHistoryReport{
		Size:     size,
		Latest:   latest,
		Explicit: explicit,
		Snapshot: snapshot,
	}

	compareWindows(report, latest, explicit)

	if uint64(len(latest.BaseFees)) > size+1 {
		report.addProblem("window holds %d base fees, expected at most %d", len(latest.BaseFees), size+1)
	}
	if len(latest.BaseFees) != latest.Blocks()+1 {
		report.addProblem("window holds %d base fees for %d blocks", len(latest.BaseFees), latest.Blocks())
		return report, nil
	}
	if latest.Blocks() == 0 {
		report.addProblem("empty window")
		return report, nil
	}

	views, err := v.fetchBlocks(ctx, latest.OldestBlock, latest.LatestBlock())
	if err != nil {
		return nil, err
	}

	for i, view := range views {
		if !view.BaseFee.Equal(latest.BaseFees[i]) {
			report.addProblem("block %d: window base fee %s, header base fee %s", view.Number, latest.BaseFees[i], view.BaseFee)
		}
		if math.Abs(view.GasUsedRatio()-latest.GasUsedRatio[i]) > gasUsedRatioEpsilon {
			report.addProblem("block %d: window gas used ratio %v, header ratio %v", view.Number, latest.GasUsedRatio[i], view.GasUsedRatio())
		}

		// the last transition is the one to the next block, known from the window only
		next := rpctypes.BlockView{
			Number:  view.Number + 1,
			BaseFee: latest.BaseFees[i+1],
		}
		record, err := CheckTransition(view, next, snapshot.Params, snapshot.Floor, v.tolerance)
		if err != nil {
			return nil, err
		}
		report.Records = append(report.Records, record)
	}

	return report, nil
}

func compareWindows(report *FeeHistoryReport, latest, explicit *rpctypes.FeeHistory) {
	if latest.OldestBlock != explicit.OldestBlock {
		report.addProblem("oldest block of latest window %d, of explicit window %d", latest.OldestBlock, explicit.OldestBlock)
		return
	}
	if len(latest.BaseFees) != len(explicit.BaseFees) {
		report.addProblem("latest window holds %d base fees, explicit window %d", len(latest.BaseFees), len(explicit.BaseFees))
		return
	}
	for i := range latest.BaseFees {
		if !latest.BaseFees[i].Equal(explicit.BaseFees[i]) {
			report.addProblem("base fee %d: latest window %s, explicit window %s", i, latest.BaseFees[i], explicit.BaseFees[i])
		}
	}
}
