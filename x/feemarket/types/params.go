package types

import (
	"fmt"

	sdkmath "cosmossdk.io/math"
	ethparams "github.com/ethereum/go-ethereum/params"
)

var (
	// DefaultMinGasPrice is 0 (i.e disabled)
	DefaultMinGasPrice = sdkmath.LegacyZeroDec()
	// DefaultMinBaseGasPrice is 0 (i.e disabled)
	DefaultMinBaseGasPrice = sdkmath.LegacyZeroDec()
	// DefaultMinGasMultiplier is 0.5 or 50%
	DefaultMinGasMultiplier = sdkmath.LegacyNewDecWithPrec(50, 2)
	// DefaultNoBaseFee is false
	DefaultNoBaseFee = false
	// DefaultEnableHeight is 0 (i.e activated since genesis)
	DefaultEnableHeight = int64(0)
)

// Params defines the fee market module parameters.
// It is a value type: the keeper and the adjuster never mutate a Params they receive.
type Params struct {
	// NoBaseFee forces the EIP-1559 base fee to 0 (needed for 0 price calls)
	NoBaseFee bool `json:"no_base_fee"`
	// BaseFeeChangeDenominator bounds the amount the base fee can change between blocks.
	BaseFeeChangeDenominator uint32 `json:"base_fee_change_denominator"`
	// ElasticityMultiplier bounds the maximum gas limit an EIP-1559 block may have.
	ElasticityMultiplier uint32 `json:"elasticity_multiplier"`
	// EnableHeight defines at which block height the base fee calculation is enabled.
	EnableHeight int64 `json:"enable_height"`
	// BaseFee for EIP-1559 blocks.
	BaseFee sdkmath.LegacyDec `json:"base_fee"`
	// MinGasPrice defines the minimum gas price value for cosmos and eth transactions
	MinGasPrice sdkmath.LegacyDec `json:"min_gas_price"`
	// MinBaseGasPrice is the alternate lower bound used by some chain configurations.
	MinBaseGasPrice sdkmath.LegacyDec `json:"min_base_gas_price"`
	// MinGasMultiplier bounds the minimum gas used to be charged
	// to senders based on gas limit
	MinGasMultiplier sdkmath.LegacyDec `json:"min_gas_multiplier"`
}

// NewParams creates a new Params instance
func NewParams(
	noBaseFee bool,
	baseFeeChangeDenom,
	elasticityMultiplier uint32,
	baseFee sdkmath.LegacyDec,
	enableHeight int64,
	minGasPrice sdkmath.LegacyDec,
	minGasPriceMultiplier sdkmath.LegacyDec,
) Params {
	return Params{
		NoBaseFee:                noBaseFee,
		BaseFeeChangeDenominator: baseFeeChangeDenom,
		ElasticityMultiplier:     elasticityMultiplier,
		BaseFee:                  baseFee,
		EnableHeight:             enableHeight,
		MinGasPrice:              minGasPrice,
		MinBaseGasPrice:          DefaultMinBaseGasPrice,
		MinGasMultiplier:         minGasPriceMultiplier,
	}
}

// DefaultParams returns default fee market parameters
func DefaultParams() Params {
	return Params{
		NoBaseFee:                DefaultNoBaseFee,
		BaseFeeChangeDenominator: ethparams.BaseFeeChangeDenominator,
		ElasticityMultiplier:     ethparams.ElasticityMultiplier,
		BaseFee:                  sdkmath.LegacyNewDecFromInt(sdkmath.NewIntFromUint64(ethparams.InitialBaseFee)),
		EnableHeight:             DefaultEnableHeight,
		MinGasPrice:              DefaultMinGasPrice,
		MinBaseGasPrice:          DefaultMinBaseGasPrice,
		MinGasMultiplier:         DefaultMinGasMultiplier,
	}
}

// Validate performs basic validation on fee market parameters.
func (p Params) Validate() error {
	if p.BaseFeeChangeDenominator == 0 {
		return fmt.Errorf("base fee change denominator cannot be 0")
	}

	if p.ElasticityMultiplier == 0 {
		return fmt.Errorf("elasticity multiplier cannot be 0")
	}

	if p.EnableHeight < 0 {
		return fmt.Errorf("enable height cannot be negative: %d", p.EnableHeight)
	}

	if !p.NoBaseFee {
		if p.BaseFee.IsNil() {
			return fmt.Errorf("base fee cannot be nil")
		} else if p.BaseFee.IsNegative() {
			return fmt.Errorf("base fee cannot be negative: %s", p.BaseFee)
		}
	} else if !p.BaseFee.IsNil() && p.BaseFee.IsNegative() {
		return fmt.Errorf("base fee cannot be negative: %s", p.BaseFee)
	}

	if err := validateMinGasPrice(p.MinGasPrice); err != nil {
		return err
	}

	if err := validateMinGasPrice(p.MinBaseGasPrice); err != nil {
		return fmt.Errorf("min base gas price: %w", err)
	}

	return validateMinGasMultiplier(p.MinGasMultiplier)
}

// IsBaseFeeEnabled returns true if the base fee is enabled at the given height.
func (p Params) IsBaseFeeEnabled(height int64) bool {
	return !p.NoBaseFee && height >= p.EnableHeight
}

func validateMinGasPrice(v sdkmath.LegacyDec) error {
	if v.IsNil() {
		return fmt.Errorf("invalid parameter: nil")
	}

	if v.IsNegative() {
		return fmt.Errorf("value cannot be negative: %s", v)
	}

	return nil
}

func validateMinGasMultiplier(v sdkmath.LegacyDec) error {
	if v.IsNil() {
		return fmt.Errorf("invalid parameter: nil")
	}

	if v.IsNegative() {
		return fmt.Errorf("value cannot be negative: %s", v)
	}

	if v.GT(sdkmath.LegacyOneDec()) {
		return fmt.Errorf("value cannot be greater than 1: %s", v)
	}

	return nil
}
