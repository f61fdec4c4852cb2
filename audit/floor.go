package audit

import (
	"context"
	"fmt"

	sdkmath "cosmossdk.io/math"

	rpctypes "github.com/MANTRA-Chain/feemarket/rpc/types"
)

// FloorReport is the result of the verification of the base fee floor.
type FloorReport struct {
	Floor    sdkmath.LegacyDec   `json:"floor"`
	BaseFees []sdkmath.LegacyDec `json:"base_fees"`
	Match    bool                `json:"match"`
}

// VerifyFloor checks the last blocks of an idle chain, and the next one, are all at the floor.
func (v *Verifier) VerifyFloor(ctx context.Context, blocks uint64) (*FloorReport, error) {
	if blocks == 0 {
		return nil, fmt.Errorf("number of blocks must be positive")
	}

	params, err := v.source.Params(ctx)
	if err != nil {
		return nil, err
	}

	floor, err := EmptyBlockFloor(params, v.floorPolicy)
	if err != nil {
		return nil, err
	}

	fh, err := v.backend.FeeHistory(ctx, blocks, rpctypes.EthLatestBlockNumber, nil)
	if err != nil {
		return nil, err
	}

	report := &FloorReport{
		Floor:    floor,
		BaseFees: fh.BaseFees,
		Match:    len(fh.BaseFees) > 0,
	}
	for _, fee := range fh.BaseFees {
		if !fee.Equal(floor) {
			report.Match = false
		}
	}

	return report, nil
}
