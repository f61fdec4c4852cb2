package types

import "cosmossdk.io/collections"

const (
	// ModuleName string name of module
	ModuleName = "feemarket"

	// StoreKey key for base fee and block gas used.
	// The Fee Market module should use a prefix store.
	StoreKey = ModuleName

	// RouterKey uses module name for routing
	RouterKey = ModuleName

	// TransientKey is the key to access the FeeMarket transient store, that is reset
	// during the Commit phase.
	TransientKey = "transient_" + ModuleName
)

// Store prefixes
var (
	ParamsKey          = collections.NewPrefix(1)
	BlockGasUsedKey    = collections.NewPrefix(2)
	BlockGasWantedTKey = collections.NewPrefix(3)
)
