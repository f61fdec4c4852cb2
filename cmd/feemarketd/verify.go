package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/MANTRA-Chain/feemarket/audit"
	cmdutils "github.com/MANTRA-Chain/feemarket/cmd/feemarketd/utils"
	"github.com/MANTRA-Chain/feemarket/rpc/backend"
)

const (
	flagFrom        = "from"
	flagTo          = "to"
	flagSize        = "size"
	flagPercentiles = "percentiles"
	flagVerbose     = "verbose"

	flagNextBlockTimeout = "next-block-timeout"
)

// NewVerifyCmd returns the commands checking a live chain against the fee market recurrence.
func NewVerifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check the base fees reported by a live chain",
	}

	cmd.AddCommand(
		newVerifyRangeCmd(),
		newVerifyFeeHistoryCmd(),
		newVerifyFeeHistoryErrorsCmd(),
		newVerifyGasPriceCmd(),
		newVerifyFloorCmd(),
	)

	return cmd
}

// withVerifier runs fn with a verifier built from the config, closing the connection after.
func withVerifier(cmd *cobra.Command, fn func(v *audit.Verifier, evm *backend.Backend) error) error {
	cfg, err := cmdutils.LoadConfig(cmd)
	if err != nil {
		return err
	}
	logger := cmdutils.GetAppContextFromCmd(cmd).Logger

	evm, err := backend.Dial(cmd.Context(), logger, cfg.EVMRPC, cfg.BackendOptions())
	if err != nil {
		return err
	}
	defer evm.Close()

	source, err := cfg.NewParamsSource()
	if err != nil {
		return err
	}
	policy, err := cfg.FloorPolicy()
	if err != nil {
		return err
	}
	tolerance, err := cfg.ToleranceDec()
	if err != nil {
		return err
	}

	verifier, err := audit.NewVerifier(logger, evm, source, policy, tolerance, cfg.Concurrency)
	if err != nil {
		return err
	}
	verifier.SetPollInterval(cfg.PollInterval)
	return fn(verifier, evm)
}

func newVerifyRangeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "range",
		Short: "Check every block of a range against its parent",
		Example: fmt.Sprintf(
			"%s verify range --from 100 --to 200 --evm-rpc http://127.0.0.1:8545",
			ApplicationBinaryName,
		),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			from, err := cmd.Flags().GetInt64(flagFrom)
			if err != nil {
				return err
			}
			to, err := cmd.Flags().GetInt64(flagTo)
			if err != nil {
				return err
			}
			verbose, err := cmd.Flags().GetBool(flagVerbose)
			if err != nil {
				return err
			}

			return withVerifier(cmd, func(v *audit.Verifier, evm *backend.Backend) error {
				if to == 0 {
					if to, err = evm.BlockNumber(cmd.Context()); err != nil {
						return err
					}
				}

				report, err := v.VerifyRange(cmd.Context(), from, to)
				if err != nil {
					return err
				}

				if err := cmdutils.PrintOutput(cmd, report, func(w io.Writer) error {
					for _, record := range report.Records {
						if !verbose && record.Match {
							continue
						}
						if _, err := fmt.Fprintln(w, record.String()); err != nil {
							return err
						}
					}
					_, err := fmt.Fprintf(w, "checked blocks %d to %d: %d mismatches\n", report.From, report.To, report.Mismatches)
					return err
				}); err != nil {
					return err
				}

				if !report.OK() {
					return fmt.Errorf("%d of %d blocks do not follow the fee market recurrence", report.Mismatches, len(report.Records))
				}
				return nil
			})
		},
	}

	cmd.Flags().Int64(flagFrom, 0, "first block to check, its parent is read too")
	cmd.Flags().Int64(flagTo, 0, "last block to check, the head if 0")
	cmd.Flags().Bool(flagVerbose, false, "print the matching blocks too")
	cmdutils.AddOutputFlag(cmd)
	_ = cmd.MarkFlagRequired(flagFrom)

	return cmd
}

func newVerifyFeeHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fee-history",
		Short: "Check the eth_feeHistory window ending at the head",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			size, err := cmd.Flags().GetUint64(flagSize)
			if err != nil {
				return err
			}
			percentiles, err := cmd.Flags().GetFloat64Slice(flagPercentiles)
			if err != nil {
				return err
			}

			return withVerifier(cmd, func(v *audit.Verifier, _ *backend.Backend) error {
				report, err := v.VerifyFeeHistory(cmd.Context(), size, percentiles)
				if err != nil {
					return err
				}

				if err := cmdutils.PrintOutput(cmd, report, func(w io.Writer) error {
					for _, record := range report.Records {
						if record.Match {
							continue
						}
						if _, err := fmt.Fprintln(w, record.String()); err != nil {
							return err
						}
					}
					for _, problem := range report.Problems {
						if _, err := fmt.Fprintln(w, problem); err != nil {
							return err
						}
					}
					_, err := fmt.Fprintf(w, "checked fee history of %d blocks: ok=%t\n", report.Size, report.OK())
					return err
				}); err != nil {
					return err
				}

				if !report.OK() {
					return fmt.Errorf("fee history is not consistent with the fee market recurrence")
				}
				return nil
			})
		},
	}

	cmd.Flags().Uint64(flagSize, 20, "number of blocks of the window")
	cmd.Flags().Float64Slice(flagPercentiles, nil, "reward percentiles requested with the window")
	cmdutils.AddOutputFlag(cmd)

	return cmd
}

func newVerifyFeeHistoryErrorsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fee-history-errors",
		Short: "Check eth_feeHistory refuses windows beyond the head and invalid reward percentiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withVerifier(cmd, func(v *audit.Verifier, _ *backend.Backend) error {
				report, err := v.VerifyFeeHistoryRejections(cmd.Context())
				if err != nil {
					return err
				}

				if err := cmdutils.PrintOutput(cmd, report, func(w io.Writer) error {
					for _, check := range report.Checks {
						if _, err := fmt.Fprintf(w, "%s: last block %s, percentiles %v, ok=%t, error %q\n",
							check.Name, check.LastBlock, check.Percentiles, check.OK, check.Error); err != nil {
							return err
						}
					}
					return nil
				}); err != nil {
					return err
				}

				if !report.OK() {
					return fmt.Errorf("fee history accepted invalid requests")
				}
				return nil
			})
		},
	}

	cmdutils.AddOutputFlag(cmd)
	return cmd
}

func newVerifyGasPriceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gas-price",
		Short: "Check eth_gasPrice is the head base fee plus eth_maxPriorityFeePerGas",
		Long: `Check eth_gasPrice is the head base fee plus eth_maxPriorityFeePerGas, then wait for the
next block and check the gas price is not below its base fee. A zero --next-block-timeout skips the wait.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			timeout, err := cmd.Flags().GetDuration(flagNextBlockTimeout)
			if err != nil {
				return err
			}

			return withVerifier(cmd, func(v *audit.Verifier, _ *backend.Backend) error {
				report, err := v.VerifyRecommendedFee(cmd.Context(), timeout)
				if err != nil {
					return err
				}

				if err := cmdutils.PrintOutput(cmd, report, func(w io.Writer) error {
					if _, err := fmt.Fprintf(w, "height %d: gas price %s, base fee %s + tip %s = %s, match=%t\n",
						report.Height, report.GasPrice, report.BaseFee, report.Tip, report.Expected, report.Match); err != nil {
						return err
					}
					if !report.NextBlockChecked {
						return nil
					}
					_, err := fmt.Fprintf(w, "height %d: base fee %s, covered=%t\n",
						report.NextHeight, report.NextBaseFee, report.CoversNextBlock)
					return err
				}); err != nil {
					return err
				}

				if !report.Match {
					return fmt.Errorf("gas price %s differs from the expected %s", report.GasPrice, report.Expected)
				}
				if !report.OK() {
					return fmt.Errorf("gas price %s is below the base fee %s of block %d", report.GasPrice, report.NextBaseFee, report.NextHeight)
				}
				return nil
			})
		},
	}

	cmd.Flags().Duration(flagNextBlockTimeout, 30*time.Second, "how long to wait for the next block, 0 skips the next block check")
	cmdutils.AddOutputFlag(cmd)
	return cmd
}

func newVerifyFloorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "floor",
		Short: "Check the base fees of an idle chain are at the floor",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			blocks, err := cmd.Flags().GetUint64(flagBlocks)
			if err != nil {
				return err
			}

			return withVerifier(cmd, func(v *audit.Verifier, _ *backend.Backend) error {
				report, err := v.VerifyFloor(cmd.Context(), blocks)
				if err != nil {
					return err
				}

				if err := cmdutils.PrintOutput(cmd, report, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "floor %s, base fees %v, match=%t\n", report.Floor, report.BaseFees, report.Match)
					return err
				}); err != nil {
					return err
				}

				if !report.Match {
					return fmt.Errorf("base fees are not at the floor %s", report.Floor)
				}
				return nil
			})
		},
	}

	cmd.Flags().Uint64(flagBlocks, 3, "number of last blocks to check")
	cmdutils.AddOutputFlag(cmd)

	return cmd
}
