package genesis

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	cmdutils "github.com/MANTRA-Chain/feemarket/cmd/feemarketd/utils"
)

// Cmd creates a main CLI command
func Cmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "genesis",
		Short: "Update the fee market section of a chain genesis",
	}

	cmd.AddCommand(
		NewSetFeeMarketCmd(),
	)

	return cmd
}

// GenesisFile returns the path of the genesis file of the home directory.
func GenesisFile(home string) string {
	return filepath.Join(home, "config", "genesis.json")
}

func generalGenesisUpdateFunc(cmd *cobra.Command, updater func(genesis []byte) ([]byte, error)) error {
	homeDir := cmdutils.GetAppContextFromCmd(cmd).Home
	if homeDir == "" {
		return fmt.Errorf("home dir not set")
	}

	// Load the genesis file
	genesisFile := GenesisFile(homeDir)
	genesisData, err := os.ReadFile(genesisFile)
	if err != nil {
		return fmt.Errorf("failed to read genesis file: %w", err)
	}

	// Update
	updatedGenesisData, err := updater(genesisData)
	if err != nil {
		return fmt.Errorf("failed to update genesis: %w", err)
	}

	// Write the updated genesis back to the file
	err = os.WriteFile(genesisFile, updatedGenesisData, 0o644)
	if err != nil {
		return fmt.Errorf("failed to write updated genesis file: %w", err)
	}

	return nil
}
