package genesis

import (
	"fmt"
	"strconv"

	sdkmath "cosmossdk.io/math"
	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	feemarkettypes "github.com/MANTRA-Chain/feemarket/x/feemarket/types"
)

const (
	paramsPath      = "app_state.feemarket.params"
	blockMaxGasPath = "consensus.params.block.max_gas"

	flagMinGasPrice      = "min-gas-price"
	flagMinBaseGasPrice  = "min-base-gas-price"
	flagBaseFee          = "base-fee"
	flagNoBaseFee        = "no-base-fee"
	flagDenominator      = "denominator"
	flagElasticity       = "elasticity"
	flagEnableHeight     = "enable-height"
	flagMinGasMultiplier = "min-gas-multiplier"
	flagBlockMaxGas      = "block-max-gas"
)

// decParams are the flags of the decimal params, by param key.
var decParams = map[string]string{
	flagMinGasPrice:      "min_gas_price",
	flagMinBaseGasPrice:  "min_base_gas_price",
	flagBaseFee:          "base_fee",
	flagMinGasMultiplier: "min_gas_multiplier",
}

func NewSetFeeMarketCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "set-feemarket",
		Short:   "Set the fee market params of the genesis.json file, only the given flags are changed",
		Example: "feemarketd genesis set-feemarket --home ~/.mantrachain --min-gas-price 0.01 --block-max-gas 30000000",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return generalGenesisUpdateFunc(cmd, func(genesis []byte) ([]byte, error) {
				if !gjson.ValidBytes(genesis) {
					return nil, fmt.Errorf("genesis is not a valid JSON document")
				}

				var err error
				for flag, key := range decParams {
					if !cmd.Flags().Changed(flag) {
						continue
					}
					value, _ := cmd.Flags().GetString(flag)
					dec, err := sdkmath.LegacyNewDecFromStr(value)
					if err != nil {
						return nil, fmt.Errorf("invalid --%s %q: %w", flag, value, err)
					}
					if genesis, err = sjson.SetBytes(genesis, paramsPath+"."+key, dec.String()); err != nil {
						return nil, err
					}
				}

				if cmd.Flags().Changed(flagNoBaseFee) {
					noBaseFee, _ := cmd.Flags().GetBool(flagNoBaseFee)
					if genesis, err = sjson.SetBytes(genesis, paramsPath+".no_base_fee", noBaseFee); err != nil {
						return nil, err
					}
				}
				if cmd.Flags().Changed(flagDenominator) {
					denominator, _ := cmd.Flags().GetUint32(flagDenominator)
					if genesis, err = sjson.SetBytes(genesis, paramsPath+".base_fee_change_denominator", denominator); err != nil {
						return nil, err
					}
				}
				if cmd.Flags().Changed(flagElasticity) {
					elasticity, _ := cmd.Flags().GetUint32(flagElasticity)
					if genesis, err = sjson.SetBytes(genesis, paramsPath+".elasticity_multiplier", elasticity); err != nil {
						return nil, err
					}
				}
				if cmd.Flags().Changed(flagEnableHeight) {
					// int64 is a string in the proto JSON of the genesis
					enableHeight, _ := cmd.Flags().GetInt64(flagEnableHeight)
					if genesis, err = sjson.SetBytes(genesis, paramsPath+".enable_height", strconv.FormatInt(enableHeight, 10)); err != nil {
						return nil, err
					}
				}
				if cmd.Flags().Changed(flagBlockMaxGas) {
					maxGas, _ := cmd.Flags().GetInt64(flagBlockMaxGas)
					if maxGas < -1 || maxGas == 0 {
						return nil, fmt.Errorf("invalid --%s %d, expected -1 or a positive gas limit", flagBlockMaxGas, maxGas)
					}
					if genesis, err = sjson.SetBytes(genesis, blockMaxGasPath, strconv.FormatInt(maxGas, 10)); err != nil {
						return nil, err
					}
				}

				params := gjson.GetBytes(genesis, paramsPath)
				if !params.Exists() {
					return nil, fmt.Errorf("genesis has no %s", paramsPath)
				}
				if _, err := feemarkettypes.ParseParamsJSON([]byte(params.Raw)); err != nil {
					return nil, err
				}

				return genesis, nil
			})
		},
	}

	cmd.Flags().String(flagMinGasPrice, "", "min_gas_price param")
	cmd.Flags().String(flagMinBaseGasPrice, "", "min_base_gas_price param")
	cmd.Flags().String(flagBaseFee, "", "base_fee param, the base fee of the first block")
	cmd.Flags().String(flagMinGasMultiplier, "", "min_gas_multiplier param")
	cmd.Flags().Bool(flagNoBaseFee, false, "no_base_fee param")
	cmd.Flags().Uint32(flagDenominator, 0, "base_fee_change_denominator param")
	cmd.Flags().Uint32(flagElasticity, 0, "elasticity_multiplier param")
	cmd.Flags().Int64(flagEnableHeight, 0, "enable_height param")
	cmd.Flags().Int64(flagBlockMaxGas, 0, "consensus block max gas, -1 for unlimited")

	return cmd
}
