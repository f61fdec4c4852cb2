package types

import (
	"math/big"

	errorsmod "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"
)

// precisionMultiplier is 10^18, the fixed point scale of LegacyDec.
var precisionMultiplier = new(big.Int).Exp(big.NewInt(10), big.NewInt(sdkmath.LegacyPrecision), nil)

// NextBaseFee computes the base fee of the next block from the base fee and the gas usage of the
// parent block, following EIP-1559 with a lower bound on decrease.
//
//	gasTarget = gasLimit / elasticity
//	delta     = parentFee * |gasTarget - gasUsed| / gasTarget / denominator
//
// Both divisions are floor divisions, applied in that order. Under target the result is
// max(parentFee - delta, floor), at or over target it is parentFee + max(delta, 1).
func NextBaseFee(
	parentFee sdkmath.LegacyDec,
	gasLimit, gasUsed uint64,
	params Params,
	floor sdkmath.LegacyDec,
) (sdkmath.LegacyDec, error) {
	if params.ElasticityMultiplier == 0 {
		return sdkmath.LegacyDec{}, errorsmod.Wrap(ErrInvalidParams, "elasticity multiplier cannot be 0")
	}
	if params.BaseFeeChangeDenominator == 0 {
		return sdkmath.LegacyDec{}, errorsmod.Wrap(ErrInvalidParams, "base fee change denominator cannot be 0")
	}
	if parentFee.IsNil() || parentFee.IsNegative() {
		return sdkmath.LegacyDec{}, errorsmod.Wrapf(ErrInvalidBaseFee, "parent base fee: %s", parentFee)
	}
	if floor.IsNil() || floor.IsNegative() {
		return sdkmath.LegacyDec{}, errorsmod.Wrapf(ErrInvalidBaseFee, "floor: %s", floor)
	}

	gasTarget := gasLimit / uint64(params.ElasticityMultiplier)
	if gasTarget == 0 {
		return sdkmath.LegacyDec{}, errorsmod.Wrapf(
			ErrZeroGasTarget,
			"gas limit %d, elasticity multiplier %d", gasLimit, params.ElasticityMultiplier,
		)
	}

	// If the parent gasUsed is the same as the target, the baseFee remains unchanged.
	if gasUsed == gasTarget {
		return parentFee, nil
	}

	if gasTarget > gasUsed {
		// the parent block used less gas than its target, the baseFee should decrease
		delta := baseFeeDelta(parentFee, gasTarget-gasUsed, gasTarget, params.BaseFeeChangeDenominator)
		return sdkmath.LegacyMaxDec(parentFee.Sub(delta), floor), nil
	}

	// the parent block used more gas than its target, the baseFee should increase
	delta := baseFeeDelta(parentFee, gasUsed-gasTarget, gasTarget, params.BaseFeeChangeDenominator)
	return parentFee.Add(sdkmath.LegacyMaxDec(delta, sdkmath.LegacyOneDec())), nil
}

// baseFeeDelta returns floor(floor(parentFee * gasDelta / gasTarget) / denominator),
// computed on the fixed point representation so no intermediate rounding happens.
func baseFeeDelta(parentFee sdkmath.LegacyDec, gasDelta, gasTarget uint64, denominator uint32) sdkmath.LegacyDec {
	x := new(big.Int).Mul(parentFee.BigInt(), new(big.Int).SetUint64(gasDelta))
	y := new(big.Int).Mul(new(big.Int).SetUint64(gasTarget), precisionMultiplier)
	x.Quo(x, y)
	x.Quo(x, new(big.Int).SetUint64(uint64(denominator)))
	return sdkmath.LegacyNewDecFromBigInt(x)
}

// ProjectBaseFees applies NextBaseFee once per entry of gasUsages, threading the result of a
// block into the next one. The returned slice has one fee per usage.
func ProjectBaseFees(
	parentFee sdkmath.LegacyDec,
	gasLimit uint64,
	gasUsages []uint64,
	params Params,
	floor sdkmath.LegacyDec,
) ([]sdkmath.LegacyDec, error) {
	fees := make([]sdkmath.LegacyDec, 0, len(gasUsages))
	fee := parentFee
	for i, gasUsed := range gasUsages {
		next, err := NextBaseFee(fee, gasLimit, gasUsed, params, floor)
		if err != nil {
			return nil, errorsmod.Wrapf(err, "block %d", i)
		}
		fees = append(fees, next)
		fee = next
	}
	return fees, nil
}
