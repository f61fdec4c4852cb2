package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"cosmossdk.io/log"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/MANTRA-Chain/feemarket/cmd/feemarketd/genesis"
	"github.com/MANTRA-Chain/feemarket/cmd/feemarketd/inspect"
	cmdutils "github.com/MANTRA-Chain/feemarket/cmd/feemarketd/utils"
	"github.com/MANTRA-Chain/feemarket/server/config"
)

const (
	ApplicationBinaryName = "feemarketd"

	flagLogLevel  = "log-level"
	flagLogFormat = "log-format"

	logFormatPlain = "plain"
	logFormatJSON  = "json"
)

// DefaultNodeHome is the default home directory of the auditor.
var DefaultNodeHome = func() string {
	userHome, err := os.UserHomeDir()
	if err != nil {
		return "." + ApplicationBinaryName
	}
	return filepath.Join(userHome, "."+ApplicationBinaryName)
}()

// configFlags are the root flags overriding the config keys of the same name.
var configFlags = []string{
	"evm-rpc",
	"api",
	"node",
	"binary",
	"params-source",
	"tolerance",
}

// NewRootCmd creates a new root command for our binary. It is called once in the
// main function.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           ApplicationBinaryName,
		Short:         "EIP-1559 fee market calculator and live-chain auditor",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// set the default command outputs
			cmd.SetOut(cmd.OutOrStdout())
			cmd.SetErr(cmd.ErrOrStderr())

			home, err := cmd.Flags().GetString(cmdutils.FlagHome)
			if err != nil {
				return err
			}

			v := config.NewViper(home)
			for _, name := range configFlags {
				if err := v.BindPFlag(name, cmd.Flags().Lookup(name)); err != nil {
					return err
				}
			}

			logger, err := newLogger(cmd)
			if err != nil {
				return err
			}

			appCtx := &cmdutils.AppContext{
				Home:   home,
				Viper:  v,
				Logger: logger,
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			cmd.SetContext(cmdutils.WithAppContext(ctx, appCtx))
			return nil
		},
	}

	defaults := config.DefaultConfig()
	rootCmd.PersistentFlags().String(cmdutils.FlagHome, DefaultNodeHome, "directory for config and data")
	rootCmd.PersistentFlags().String(flagLogLevel, zerolog.InfoLevel.String(), "the logging level (trace|debug|info|warn|error|fatal|panic|disabled)")
	rootCmd.PersistentFlags().String(flagLogFormat, logFormatPlain, "the logging format (plain|json)")
	rootCmd.PersistentFlags().String("evm-rpc", defaults.EVMRPC, "EVM JSON-RPC endpoint")
	rootCmd.PersistentFlags().String("api", defaults.API, "Cosmos REST endpoint, used by the rest params source")
	rootCmd.PersistentFlags().String("node", defaults.Node, "CometBFT RPC endpoint, used by the cli params source")
	rootCmd.PersistentFlags().String("binary", defaults.Binary, "chain binary, used by the cli params source")
	rootCmd.PersistentFlags().String("params-source", defaults.ParamsSource, "where to read the fee market params from (rest|cli)")
	rootCmd.PersistentFlags().String("tolerance", defaults.Tolerance, "largest accepted difference between expected and reported base fees")

	rootCmd.AddCommand(
		NewCalcCmd(),
		NewSimulateCmd(),
		NewParamsCmd(),
		NewVerifyCmd(),
		NewStartCmd(),
		NewConfigCmd(),
		inspect.Cmd(),
		genesis.Cmd(),
	)

	return rootCmd
}

func newLogger(cmd *cobra.Command) (log.Logger, error) {
	levelStr, err := cmd.Flags().GetString(flagLogLevel)
	if err != nil {
		return nil, err
	}
	level, err := zerolog.ParseLevel(levelStr)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", levelStr, err)
	}

	opts := []log.Option{log.LevelOption(level)}

	format, err := cmd.Flags().GetString(flagLogFormat)
	if err != nil {
		return nil, err
	}
	switch format {
	case logFormatJSON:
		opts = append(opts, log.OutputJSONOption())
	case logFormatPlain:
		opts = append(opts, log.ColorOption(false))
	default:
		return nil, fmt.Errorf("invalid log format %q, expected %q or %q", format, logFormatPlain, logFormatJSON)
	}

	// logs go to stderr, stdout is kept for the command output
	return log.NewLogger(cmd.ErrOrStderr(), opts...), nil
}
