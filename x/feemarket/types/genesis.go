package types

import "fmt"

// GenesisState defines the feemarket module's genesis state.
type GenesisState struct {
	// Params defines all the parameters of the feemarket module.
	Params Params `json:"params"`
	// BlockGas is the amount of gas used by the last block before export.
	BlockGas uint64 `json:"block_gas,string"`
}

// DefaultGenesisState sets default fee market genesis state.
func DefaultGenesisState() *GenesisState {
	return &GenesisState{
		Params:   DefaultParams(),
		BlockGas: 0,
	}
}

// NewGenesisState creates a new genesis state.
func NewGenesisState(params Params, blockGas uint64) *GenesisState {
	return &GenesisState{
		Params:   params,
		BlockGas: blockGas,
	}
}

// Validate performs basic genesis state validation returning an error upon any
// failure.
func (gs GenesisState) Validate() error {
	if err := gs.Params.Validate(); err != nil {
		return fmt.Errorf("invalid params: %w", err)
	}
	return nil
}
