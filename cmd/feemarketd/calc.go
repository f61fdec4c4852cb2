package main

import (
	"fmt"
	"io"

	sdkmath "cosmossdk.io/math"
	"github.com/spf13/cobra"

	cmdutils "github.com/MANTRA-Chain/feemarket/cmd/feemarketd/utils"
	feemarkettypes "github.com/MANTRA-Chain/feemarket/x/feemarket/types"
)

const (
	flagParentFee       = "parent-fee"
	flagGasLimit        = "gas-limit"
	flagGasUsed         = "gas-used"
	flagGasUsages       = "gas-usages"
	flagBlocks          = "blocks"
	flagDenominator     = "denominator"
	flagElasticity      = "elasticity"
	flagMinGasPrice     = "min-gas-price"
	flagMinBaseGasPrice = "min-base-gas-price"
	flagFloorSource     = "floor-source"
	flagFloorScale      = "floor-scale"

	// maxSimulatedBlocks bounds the blocks produced by one simulation.
	maxSimulatedBlocks = 100_000
)

// CalcResult is the output of the calc command.
type CalcResult struct {
	ParentBaseFee sdkmath.LegacyDec `json:"parent_base_fee"`
	GasLimit      uint64            `json:"gas_limit,string"`
	GasUsed       uint64            `json:"gas_used,string"`
	GasTarget     uint64            `json:"gas_target,string"`
	Floor         sdkmath.LegacyDec `json:"floor"`
	NextBaseFee   sdkmath.LegacyDec `json:"next_base_fee"`
}

// NewCalcCmd returns the command computing the base fee of the next block.
func NewCalcCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "calc",
		Short: "Compute the base fee of the next block from the parent block",
		Long: `Compute the base fee of the next block from the base fee and the gas usage of the parent block.

The floor is the selected min gas price param multiplied by the floor scale,
use --floor-scale 1000000000000 to compare with fees reported by the EVM JSON-RPC in wei.`,
		Example: fmt.Sprintf(
			"%s calc --parent-fee 1000000000 --gas-limit 30000000 --gas-used 0 --min-gas-price 0.0025 --floor-scale 1000000000000",
			ApplicationBinaryName,
		),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			parentFee, err := decFlag(cmd, flagParentFee)
			if err != nil {
				return err
			}
			gasLimit, err := cmd.Flags().GetUint64(flagGasLimit)
			if err != nil {
				return err
			}
			gasUsed, err := cmd.Flags().GetUint64(flagGasUsed)
			if err != nil {
				return err
			}
			params, policy, err := paramsFromFlags(cmd)
			if err != nil {
				return err
			}

			floor, err := policy.Floor(params)
			if err != nil {
				return err
			}
			next, err := feemarkettypes.NextBaseFee(parentFee, gasLimit, gasUsed, params, floor)
			if err != nil {
				return err
			}

			result := CalcResult{
				ParentBaseFee: parentFee,
				GasLimit:      gasLimit,
				GasUsed:       gasUsed,
				GasTarget:     gasLimit / uint64(params.ElasticityMultiplier),
				Floor:         floor,
				NextBaseFee:   next,
			}
			return cmdutils.PrintOutput(cmd, result, func(w io.Writer) error {
				_, err := fmt.Fprintln(w, next.String())
				return err
			})
		},
	}

	cmd.Flags().String(flagParentFee, "", "base fee of the parent block")
	cmd.Flags().Uint64(flagGasLimit, 0, "gas limit of the parent block")
	cmd.Flags().Uint64(flagGasUsed, 0, "gas used by the parent block")
	addParamsFlags(cmd)
	cmdutils.AddOutputFlag(cmd)
	_ = cmd.MarkFlagRequired(flagParentFee)
	_ = cmd.MarkFlagRequired(flagGasLimit)
	_ = cmd.MarkFlagRequired(flagGasUsed)

	return cmd
}

// SimulatedBlock is one block of the simulate command output.
type SimulatedBlock struct {
	Block   int               `json:"block"`
	GasUsed uint64            `json:"gas_used,string"`
	BaseFee sdkmath.LegacyDec `json:"base_fee"`
}

// SimulateResult is the output of the simulate command.
type SimulateResult struct {
	ParentBaseFee sdkmath.LegacyDec `json:"parent_base_fee"`
	GasLimit      uint64            `json:"gas_limit,string"`
	Floor         sdkmath.LegacyDec `json:"floor"`
	Blocks        []SimulatedBlock  `json:"blocks"`
	// FloorReachedAt is the first block whose base fee equals the floor, 0 if none.
	FloorReachedAt int `json:"floor_reached_at"`
}

// NewSimulateCmd returns the command projecting the base fee over a series of blocks.
func NewSimulateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Project the base fee over a series of blocks",
		Long: `Project the base fee over a series of blocks, each block using the gas of the
previous one as parent. Either --gas-used with --blocks, or --gas-usages is required.`,
		Example: fmt.Sprintf(
			"%s simulate --parent-fee 1000000000 --gas-limit 30000000 --gas-used 0 --blocks 50\n%s simulate --parent-fee 1000000000 --gas-limit 30000000 --gas-usages 30000000,15000000,0",
			ApplicationBinaryName, ApplicationBinaryName,
		),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			parentFee, err := decFlag(cmd, flagParentFee)
			if err != nil {
				return err
			}
			gasLimit, err := cmd.Flags().GetUint64(flagGasLimit)
			if err != nil {
				return err
			}
			gasUsages, err := gasUsagesFromFlags(cmd)
			if err != nil {
				return err
			}
			params, policy, err := paramsFromFlags(cmd)
			if err != nil {
				return err
			}

			floor, err := policy.Floor(params)
			if err != nil {
				return err
			}
			fees, err := feemarkettypes.ProjectBaseFees(parentFee, gasLimit, gasUsages, params, floor)
			if err != nil {
				return err
			}

			result := SimulateResult{
				ParentBaseFee: parentFee,
				GasLimit:      gasLimit,
				Floor:         floor,
				Blocks:        make([]SimulatedBlock, len(fees)),
			}
			for i, fee := range fees {
				result.Blocks[i] = SimulatedBlock{
					Block:   i + 1,
					GasUsed: gasUsages[i],
					BaseFee: fee,
				}
				if result.FloorReachedAt == 0 && floor.IsPositive() && fee.Equal(floor) {
					result.FloorReachedAt = i + 1
				}
			}

			return cmdutils.PrintOutput(cmd, result, func(w io.Writer) error {
				for _, block := range result.Blocks {
					if _, err := fmt.Fprintf(w, "%d\t%d\t%s\n", block.Block, block.GasUsed, block.BaseFee); err != nil {
						return err
					}
				}
				if result.FloorReachedAt > 0 {
					_, err := fmt.Fprintf(w, "floor %s reached at block %d\n", floor, result.FloorReachedAt)
					return err
				}
				return nil
			})
		},
	}

	cmd.Flags().String(flagParentFee, "", "base fee of the block before the first simulated one")
	cmd.Flags().Uint64(flagGasLimit, 0, "gas limit of every block")
	cmd.Flags().Uint64(flagGasUsed, 0, "gas used by every block, with --blocks")
	cmd.Flags().Uint(flagBlocks, 0, "number of blocks to simulate, with --gas-used")
	cmd.Flags().UintSlice(flagGasUsages, nil, "gas used by each block, comma separated")
	addParamsFlags(cmd)
	cmdutils.AddOutputFlag(cmd)
	_ = cmd.MarkFlagRequired(flagParentFee)
	_ = cmd.MarkFlagRequired(flagGasLimit)
	cmd.MarkFlagsMutuallyExclusive(flagGasUsages, flagBlocks)

	return cmd
}

// addParamsFlags registers the flags of the params used by the recurrence.
func addParamsFlags(cmd *cobra.Command) {
	defaults := feemarkettypes.DefaultParams()
	cmd.Flags().Uint32(flagDenominator, defaults.BaseFeeChangeDenominator, "base fee change denominator")
	cmd.Flags().Uint32(flagElasticity, defaults.ElasticityMultiplier, "elasticity multiplier")
	cmd.Flags().String(flagMinGasPrice, defaults.MinGasPrice.String(), "min_gas_price param")
	cmd.Flags().String(flagMinBaseGasPrice, defaults.MinBaseGasPrice.String(), "min_base_gas_price param")
	cmd.Flags().String(flagFloorSource, string(feemarkettypes.FloorSourceMinGasPrice), "param bounding the base fee (min_gas_price|min_base_gas_price)")
	cmd.Flags().String(flagFloorScale, "1", "scale from the floor param to the base fee unit")
}

// paramsFromFlags returns the params and the floor policy set by the flags of addParamsFlags.
func paramsFromFlags(cmd *cobra.Command) (feemarkettypes.Params, feemarkettypes.FloorPolicy, error) {
	params := feemarkettypes.DefaultParams()

	var err error
	if params.BaseFeeChangeDenominator, err = cmd.Flags().GetUint32(flagDenominator); err != nil {
		return params, feemarkettypes.FloorPolicy{}, err
	}
	if params.ElasticityMultiplier, err = cmd.Flags().GetUint32(flagElasticity); err != nil {
		return params, feemarkettypes.FloorPolicy{}, err
	}
	if params.MinGasPrice, err = decFlag(cmd, flagMinGasPrice); err != nil {
		return params, feemarkettypes.FloorPolicy{}, err
	}
	if params.MinBaseGasPrice, err = decFlag(cmd, flagMinBaseGasPrice); err != nil {
		return params, feemarkettypes.FloorPolicy{}, err
	}
	if err := params.Validate(); err != nil {
		return params, feemarkettypes.FloorPolicy{}, err
	}

	sourceStr, err := cmd.Flags().GetString(flagFloorSource)
	if err != nil {
		return params, feemarkettypes.FloorPolicy{}, err
	}
	source, err := feemarkettypes.ParseFloorSource(sourceStr)
	if err != nil {
		return params, feemarkettypes.FloorPolicy{}, err
	}
	scale, err := decFlag(cmd, flagFloorScale)
	if err != nil {
		return params, feemarkettypes.FloorPolicy{}, err
	}

	policy := feemarkettypes.FloorPolicy{Source: source, Scale: scale}
	return params, policy, policy.Validate()
}

func gasUsagesFromFlags(cmd *cobra.Command) ([]uint64, error) {
	if cmd.Flags().Changed(flagGasUsages) {
		usages, err := cmd.Flags().GetUintSlice(flagGasUsages)
		if err != nil {
			return nil, err
		}
		if len(usages) == 0 {
			return nil, fmt.Errorf("--%s cannot be empty", flagGasUsages)
		}
		if len(usages) > maxSimulatedBlocks {
			return nil, fmt.Errorf("--%s holds %d blocks, at most %d are simulated", flagGasUsages, len(usages), maxSimulatedBlocks)
		}
		gasUsages := make([]uint64, len(usages))
		for i, u := range usages {
			gasUsages[i] = uint64(u)
		}
		return gasUsages, nil
	}

	blocks, err := cmd.Flags().GetUint(flagBlocks)
	if err != nil {
		return nil, err
	}
	if blocks == 0 {
		return nil, fmt.Errorf("either --%s or a positive --%s is required", flagGasUsages, flagBlocks)
	}
	if blocks > maxSimulatedBlocks {
		return nil, fmt.Errorf("--%s is %d, at most %d blocks are simulated", flagBlocks, blocks, maxSimulatedBlocks)
	}
	gasUsed, err := cmd.Flags().GetUint64(flagGasUsed)
	if err != nil {
		return nil, err
	}

	gasUsages := make([]uint64, blocks)
	for i := range gasUsages {
		gasUsages[i] = gasUsed
	}
	return gasUsages, nil
}

func decFlag(cmd *cobra.Command, name string) (sdkmath.LegacyDec, error) {
	s, err := cmd.Flags().GetString(name)
	if err != nil {
		return sdkmath.LegacyDec{}, err
	}
	d, err := sdkmath.LegacyNewDecFromStr(s)
	if err != nil {
		return sdkmath.LegacyDec{}, fmt.Errorf("invalid --%s %q: %w", name, s, err)
	}
	return d, nil
}
