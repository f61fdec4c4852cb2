package main

import (
	"context"

	"cosmossdk.io/log"
	sdkserver "github.com/cosmos/cosmos-sdk/server"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	cmdutils "github.com/MANTRA-Chain/feemarket/cmd/feemarketd/utils"
	"github.com/MANTRA-Chain/feemarket/server"
)

// NewStartCmd returns the command running the audit service and the status server.
func NewStartCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Audit every new block of the chain and serve the results",
		Long: `Follow the head of the chain, check every new block against the fee market recurrence
and store the results under the home directory. The status API is served on http.address
when http.enable is set. Stops on SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			appCtx := cmdutils.GetAppContextFromCmd(cmd)

			cfg, err := cmdutils.LoadConfig(cmd)
			if err != nil {
				return err
			}

			g, ctx := prepareStartCtx(cmd.Context(), appCtx.Logger)
			g.Go(func() error {
				return server.Run(ctx, appCtx.Home, cfg, appCtx.Logger)
			})

			return g.Wait()
		},
	}

	return cmd
}

func prepareStartCtx(parent context.Context, logger log.Logger) (*errgroup.Group, context.Context) {
	if parent == nil {
		parent = context.Background()
	}
	goCtx, cancelFn := context.WithCancel(parent)

	g, goCtx := errgroup.WithContext(goCtx)
	sdkserver.ListenForQuitSignals(g, false, cancelFn, logger)

	return g, goCtx
}
