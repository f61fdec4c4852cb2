package main

import (
	"fmt"
	"io"

	sdkmath "cosmossdk.io/math"
	"github.com/spf13/cobra"

	cmdutils "github.com/MANTRA-Chain/feemarket/cmd/feemarketd/utils"
	feemarkettypes "github.com/MANTRA-Chain/feemarket/x/feemarket/types"
)

// ParamsResult is the output of the params command.
type ParamsResult struct {
	Source      string                `json:"source"`
	Params      feemarkettypes.Params `json:"params"`
	FloorPolicy string                `json:"floor_policy"`
	Floor       sdkmath.LegacyDec     `json:"floor"`
}

// NewParamsCmd returns the command printing the params the chain is running with.
func NewParamsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "params",
		Short: "Query the fee market params from the configured source",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := cmdutils.LoadConfig(cmd)
			if err != nil {
				return err
			}
			source, err := cfg.NewParamsSource()
			if err != nil {
				return err
			}
			policy, err := cfg.FloorPolicy()
			if err != nil {
				return err
			}

			params, err := source.Params(cmd.Context())
			if err != nil {
				return err
			}
			floor, err := policy.Floor(params)
			if err != nil {
				return err
			}

			result := ParamsResult{
				Source:      source.String(),
				Params:      params,
				FloorPolicy: policy.String(),
				Floor:       floor,
			}
			return cmdutils.PrintOutput(cmd, result, func(w io.Writer) error {
				_, err := fmt.Fprintf(w,
					"source: %s\nno_base_fee: %t\nbase_fee_change_denominator: %d\nelasticity_multiplier: %d\nenable_height: %d\nbase_fee: %s\nmin_gas_price: %s\nmin_base_gas_price: %s\nmin_gas_multiplier: %s\nfloor: %s (%s)\n",
					result.Source,
					params.NoBaseFee,
					params.BaseFeeChangeDenominator,
					params.ElasticityMultiplier,
					params.EnableHeight,
					params.BaseFee,
					params.MinGasPrice,
					params.MinBaseGasPrice,
					params.MinGasMultiplier,
					floor, result.FloorPolicy,
				)
				return err
			})
		},
	}

	cmdutils.AddOutputFlag(cmd)
	return cmd
}
