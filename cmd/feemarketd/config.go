package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	cmdutils "github.com/MANTRA-Chain/feemarket/cmd/feemarketd/utils"
	"github.com/MANTRA-Chain/feemarket/server/config"
)

// NewConfigCmd returns the commands managing the config file of the home directory.
func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the config file",
	}

	cmd.AddCommand(
		newConfigInitCmd(),
		newConfigShowCmd(),
	)

	return cmd
}

func newConfigInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write the default config file, an existing one is kept",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := config.WriteDefault(cmdutils.GetAppContextFromCmd(cmd).Home)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), path)
			return err
		},
	}
}

func newConfigShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective config, file and environment merged",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := cmdutils.LoadConfig(cmd)
			if err != nil {
				return err
			}

			return cmdutils.PrintOutput(cmd, cfg, func(w io.Writer) error {
				_, err := fmt.Fprintf(w,
					"evm-rpc: %s\nparams-source: %s\napi: %s\nnode: %s\nbinary: %s\nfloor: %s x %s\ntolerance: %s\npoll-interval: %s\nconcurrency: %d\ndb: %s %s\nhttp: %t %s\ntelemetry: %t\n",
					cfg.EVMRPC, cfg.ParamsSource, cfg.API, cfg.Node, cfg.Binary,
					cfg.Floor.Source, cfg.Floor.Scale,
					cfg.Tolerance, cfg.PollInterval, cfg.Concurrency,
					cfg.DBBackend, cfg.DBPath(cmdutils.GetAppContextFromCmd(cmd).Home),
					cfg.HTTP.Enable, cfg.HTTP.Address,
					cfg.Telemetry.Enabled,
				)
				return err
			})
		},
	}

	cmdutils.AddOutputFlag(cmd)
	return cmd
}
