package types

import (
	errorsmod "cosmossdk.io/errors"
)

const (
	codeErrInvalidParams = uint32(iota) + 2
	codeErrZeroGasTarget
	codeErrInvalidBaseFee
	codeErrInvalidFloorPolicy
	codeErrInvalidSigner
	codeErrNilBlockGasMeter
	codeErrGasOverflow
)

var (
	// ErrInvalidParams returns an error if the fee market parameters can not be used for the base fee computation
	ErrInvalidParams = errorsmod.Register(ModuleName, codeErrInvalidParams, "invalid fee market params")

	// ErrZeroGasTarget returns an error if gas limit divided by elasticity multiplier is zero
	ErrZeroGasTarget = errorsmod.Register(ModuleName, codeErrZeroGasTarget, "gas target is zero")

	// ErrInvalidBaseFee returns an error if a base fee or a floor is nil or negative
	ErrInvalidBaseFee = errorsmod.Register(ModuleName, codeErrInvalidBaseFee, "invalid base fee")

	// ErrInvalidFloorPolicy returns an error if the floor policy is malformed
	ErrInvalidFloorPolicy = errorsmod.Register(ModuleName, codeErrInvalidFloorPolicy, "invalid floor policy")

	// ErrInvalidSigner returns an error if the params update is not signed by the authority
	ErrInvalidSigner = errorsmod.Register(ModuleName, codeErrInvalidSigner, "expected authority account as only signer for proposal message")

	// ErrNilBlockGasMeter returns an error if the block gas meter is not set on the context
	ErrNilBlockGasMeter = errorsmod.Register(ModuleName, codeErrNilBlockGasMeter, "block gas meter is nil")

	// ErrGasOverflow returns an error if the block gas computation overflows
	ErrGasOverflow = errorsmod.Register(ModuleName, codeErrGasOverflow, "block gas overflow")
)
