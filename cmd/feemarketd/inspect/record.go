package inspect

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	errorsmod "cosmossdk.io/errors"
	"github.com/spf13/cobra"

	cmdutils "github.com/MANTRA-Chain/feemarket/cmd/feemarketd/utils"
	"github.com/MANTRA-Chain/feemarket/indexer"
)

func RecordCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "record [latest | <height>]",
		Short: "Get the audit record of a block persisted in the db",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var reqHeight int64

			reqHeightStr := strings.TrimSpace(strings.ToLower(args[0]))
			switch reqHeightStr {
			case "latest", "last", "0", "":
				reqHeight = 0
			default:
				var err error
				reqHeight, err = strconv.ParseInt(reqHeightStr, 10, 64)
				if err != nil {
					return errorsmod.Wrapf(err, "bad block height: %s", reqHeightStr)
				}
				if reqHeight < 0 {
					return fmt.Errorf("invalid block height %d", reqHeight)
				}
			}

			return withIndexer(cmd, func(idx *indexer.KVIndexer) error {
				if reqHeight == 0 {
					last, err := idx.LastIndexedBlock()
					if err != nil {
						return err
					}
					if last < 0 {
						return errNoRecord()
					}
					reqHeight = last
				}

				record, err := idx.GetByHeight(reqHeight)
				if err != nil {
					return err
				}

				return cmdutils.PrintOutput(cmd, record, func(w io.Writer) error {
					_, err := fmt.Fprintln(w, record.String())
					return err
				})
			})
		},
	}

	cmdutils.AddOutputFlag(cmd)
	return cmd
}
