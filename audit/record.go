package audit

import (
	"fmt"

	errorsmod "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"

	rpctypes "github.com/MANTRA-Chain/feemarket/rpc/types"
	feemarkettypes "github.com/MANTRA-Chain/feemarket/x/feemarket/types"
)

// Record is the outcome of checking the base fee of one block against its parent.
type Record struct {
	Height          int64             `json:"height"`
	ParentBaseFee   sdkmath.LegacyDec `json:"parent_base_fee"`
	ParentGasLimit  uint64            `json:"parent_gas_limit,string"`
	ParentGasUsed   uint64            `json:"parent_gas_used,string"`
	Floor           sdkmath.LegacyDec `json:"floor"`
	ExpectedBaseFee sdkmath.LegacyDec `json:"expected_base_fee"`
	ActualBaseFee   sdkmath.LegacyDec `json:"actual_base_fee"`
	Diff            sdkmath.LegacyDec `json:"diff"`
	Match           bool              `json:"match"`
}

// String returns a human readable summary of the record.
func (r Record) String() string {
	status := "ok"
	if !r.Match {
		status = "MISMATCH"
	}
	return fmt.Sprintf(
		"%d %s expected=%s actual=%s diff=%s (parent fee=%s gas=%d/%d)",
		r.Height, status, r.ExpectedBaseFee, r.ActualBaseFee, r.Diff,
		r.ParentBaseFee, r.ParentGasUsed, r.ParentGasLimit,
	)
}

// CheckTransition checks the base fee of child follows the recurrence applied to parent.
// The check passes when the absolute difference is within tolerance.
func CheckTransition(
	parent, child rpctypes.BlockView,
	params feemarkettypes.Params,
	floor, tolerance sdkmath.LegacyDec,
) (Record, error) {
	if child.Number != parent.Number+1 {
		return Record{}, fmt.Errorf("block %d is not the child of block %d", child.Number, parent.Number)
	}

	if tolerance.IsNil() || tolerance.IsNegative() {
		return Record{}, fmt.Errorf("invalid tolerance %s", tolerance)
	}

	if child.BaseFee.IsNil() {
		return Record{}, errorsmod.Wrapf(rpctypes.ErrNoBaseFee, "block %d", child.Number)
	}

	expected, err := feemarkettypes.NextBaseFee(parent.BaseFee, parent.GasLimit, parent.GasUsed, params, floor)
	if err != nil {
		return Record{}, errorsmod.Wrapf(err, "block %d", parent.Number)
	}

	diff := child.BaseFee.Sub(expected)

	return Record{
		Height:          child.Number,
		ParentBaseFee:   parent.BaseFee,
		ParentGasLimit:  parent.GasLimit,
		ParentGasUsed:   parent.GasUsed,
		Floor:           floor,
		ExpectedBaseFee: expected,
		ActualBaseFee:   child.BaseFee,
		Diff:            diff,
		Match:           diff.Abs().LTE(tolerance),
	}, nil
}

// EmptyBlockFloor returns the base fee a chain without txs converges to.
// Base fees are reported in whole wei and cannot go below 1 wei.
func EmptyBlockFloor(params feemarkettypes.Params, policy feemarkettypes.FloorPolicy) (sdkmath.LegacyDec, error) {
	floor, err := policy.Floor(params)
	if err != nil {
		return sdkmath.LegacyDec{}, err
	}
	return sdkmath.LegacyMaxDec(floor.TruncateDec(), sdkmath.LegacyOneDec()), nil
}
