package inspect

import (
	"fmt"

	errorsmod "cosmossdk.io/errors"
	dbm "github.com/cosmos/cosmos-db"
	"github.com/spf13/cobra"

	cmdutils "github.com/MANTRA-Chain/feemarket/cmd/feemarketd/utils"
	"github.com/MANTRA-Chain/feemarket/indexer"
	"github.com/MANTRA-Chain/feemarket/server"
)

// Cmd creates the commands reading the record db of the home directory
func Cmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Read the audit records persisted in the db",
	}

	cmd.AddCommand(
		LatestAuditedCmd(),
		RecordCmd(),
	)

	return cmd
}

// withIndexer opens the record db of the command home and closes it once fn returns.
func withIndexer(cmd *cobra.Command, fn func(idx *indexer.KVIndexer) error) error {
	appCtx := cmdutils.GetAppContextFromCmd(cmd)

	cfg, err := cmdutils.LoadConfig(cmd)
	if err != nil {
		return err
	}

	db, err := server.OpenRecordDB(cfg.DBPath(appCtx.Home), dbm.BackendType(cfg.DBBackend))
	if err != nil {
		return errorsmod.Wrap(err, "error while opening db")
	}
	defer func() {
		if err := db.Close(); err != nil {
			appCtx.Logger.Error("failed to close record db", "error", err.Error())
		}
	}()

	return fn(indexer.NewKVIndexer(db, appCtx.Logger))
}

func errNoRecord() error {
	return fmt.Errorf("no block has been audited yet")
}
