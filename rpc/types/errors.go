package types

import "github.com/pkg/errors"

var (
	// ErrNoBaseFee is returned for blocks without baseFeePerGas, i.e. before London or with the base fee disabled.
	ErrNoBaseFee = errors.New("block has no base fee")
	// ErrBlockNotFound is returned when the node does not have the requested block yet.
	ErrBlockNotFound = errors.New("block not found")
)
