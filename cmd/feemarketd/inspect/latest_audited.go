package inspect

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	cmdutils "github.com/MANTRA-Chain/feemarket/cmd/feemarketd/utils"
	"github.com/MANTRA-Chain/feemarket/indexer"
)

// AuditedRange is the output of the latest-audited command.
type AuditedRange struct {
	First int64 `json:"first"`
	Last  int64 `json:"last"`
}

func LatestAuditedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "latest-audited",
		Short: "Get the latest block number audited in the db",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withIndexer(cmd, func(idx *indexer.KVIndexer) error {
				last, err := idx.LastIndexedBlock()
				if err != nil {
					return err
				}
				if last < 0 {
					return errNoRecord()
				}
				first, err := idx.FirstIndexedBlock()
				if err != nil {
					return err
				}

				result := AuditedRange{First: first, Last: last}
				return cmdutils.PrintOutput(cmd, result, func(w io.Writer) error {
					_, err := fmt.Fprintln(w, "Latest block height audited in database:", last)
					return err
				})
			})
		},
	}

	cmdutils.AddOutputFlag(cmd)
	return cmd
}
