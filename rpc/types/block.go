package types

import (
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"strings"

	sdkmath "cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common/hexutil"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"
	"github.com/spf13/cast"
)

// BlockNumber represents decoding hex string to block values
type BlockNumber int64

const (
	EthPendingBlockNumber  = BlockNumber(-2)
	EthLatestBlockNumber   = BlockNumber(-1)
	EthEarliestBlockNumber = BlockNumber(0)
)

const (
	BlockParamEarliest = "earliest"
	BlockParamLatest   = "latest"
	BlockParamPending  = "pending"
)

// NewBlockNumber creates a new BlockNumber instance.
func NewBlockNumber(n *big.Int) BlockNumber {
	if !n.IsInt64() {
		// default to latest block if it overflows
		return EthLatestBlockNumber
	}

	return BlockNumber(n.Int64())
}

// UnmarshalJSON parses the given JSON fragment into a BlockNumber. It supports:
// - "latest", "earliest" or "pending" as string arguments
// - the block number
// Returned errors:
// - an invalid block number error when the given argument isn't a known strings
// - an out of range error when the given block number is either too little or too large
func (bn *BlockNumber) UnmarshalJSON(data []byte) error {
	input := strings.TrimSpace(string(data))
	if len(input) >= 2 && input[0] == '"' && input[len(input)-1] == '"' {
		input = input[1 : len(input)-1]
	}

	parsed, err := ParseBlockNumber(input)
	if err != nil {
		return err
	}

	*bn = parsed
	return nil
}

// MarshalJSON encodes the block number as the JSON-RPC block parameter.
func (bn BlockNumber) MarshalJSON() ([]byte, error) {
	return json.Marshal(bn.String())
}

// ParseBlockNumber parses a block tag, a hex number or a decimal number.
func ParseBlockNumber(input string) (BlockNumber, error) {
	switch input {
	case BlockParamEarliest:
		return EthEarliestBlockNumber, nil
	case BlockParamLatest, "":
		return EthLatestBlockNumber, nil
	case BlockParamPending:
		return EthPendingBlockNumber, nil
	}

	var blckNum uint64
	var err error
	if strings.HasPrefix(input, "0x") || strings.HasPrefix(input, "0X") {
		blckNum, err = hexutil.DecodeUint64(strings.ToLower(input))
	} else {
		blckNum, err = cast.ToUint64E(input)
	}
	if err != nil {
		return 0, errors.Wrapf(err, "invalid block number %q", input)
	}
	if blckNum > math.MaxInt64 {
		return 0, fmt.Errorf("block number larger than int64")
	}

	return BlockNumber(blckNum), nil
}

// Int64 converts block number to primitive type
func (bn BlockNumber) Int64() int64 {
	return int64(bn)
}

// IsLatest returns true if the block number refers to the chain head.
func (bn BlockNumber) IsLatest() bool {
	return bn == EthLatestBlockNumber
}

// BigInt returns the block number as argument of the go-ethereum client,
// nil meaning the latest block.
func (bn BlockNumber) BigInt() *big.Int {
	if bn < 0 {
		return nil
	}
	return big.NewInt(int64(bn))
}

func (bn BlockNumber) String() string {
	switch bn {
	case EthEarliestBlockNumber:
		return BlockParamEarliest
	case EthLatestBlockNumber:
		return BlockParamLatest
	case EthPendingBlockNumber:
		return BlockParamPending
	}

	return hexutil.EncodeUint64(uint64(bn))
}

// BlockView is the part of an EVM block header the base fee recurrence depends on.
type BlockView struct {
	Number   int64             `json:"number"`
	BaseFee  sdkmath.LegacyDec `json:"base_fee"`
	GasLimit uint64            `json:"gas_limit,string"`
	GasUsed  uint64            `json:"gas_used,string"`
}

// BlockViewFromHeader builds the view of a header, which must carry a base fee.
func BlockViewFromHeader(header *ethtypes.Header) (BlockView, error) {
	if header == nil || header.Number == nil {
		return BlockView{}, fmt.Errorf("header without number")
	}

	if header.BaseFee == nil {
		return BlockView{}, errors.Wrapf(ErrNoBaseFee, "block %s", header.Number)
	}

	if !header.Number.IsInt64() {
		return BlockView{}, fmt.Errorf("block number %s is greater than max int64", header.Number)
	}

	return BlockView{
		Number:   header.Number.Int64(),
		BaseFee:  BigToDec(header.BaseFee),
		GasLimit: header.GasLimit,
		GasUsed:  header.GasUsed,
	}, nil
}

// GasUsedRatio returns the ratio reported by eth_feeHistory for this block.
func (b BlockView) GasUsedRatio() float64 {
	if b.GasLimit == 0 {
		return 0
	}
	return float64(b.GasUsed) / float64(b.GasLimit)
}

// Compare is used for testing purpose
func (b BlockView) Compare(other BlockView) (equals bool, diff string) {
	if b.Number != other.Number {
		diff = fmt.Sprintf("number: %d vs %d", b.Number, other.Number)
		return
	}

	if b.BaseFee.IsNil() != other.BaseFee.IsNil() {
		diff = fmt.Sprintf("nil base fee: %t vs %t", b.BaseFee.IsNil(), other.BaseFee.IsNil())
		return
	}

	if !b.BaseFee.IsNil() && !b.BaseFee.Equal(other.BaseFee) {
		diff = fmt.Sprintf("base fee: %s vs %s", b.BaseFee, other.BaseFee)
		return
	}

	if b.GasLimit != other.GasLimit {
		diff = fmt.Sprintf("gas limit: %d vs %d", b.GasLimit, other.GasLimit)
		return
	}

	if b.GasUsed != other.GasUsed {
		diff = fmt.Sprintf("gas used: %d vs %d", b.GasUsed, other.GasUsed)
		return
	}

	equals = true
	return
}

// BigToDec converts an integer amount of wei into a dec.
func BigToDec(i *big.Int) sdkmath.LegacyDec {
	if i == nil {
		return sdkmath.LegacyDec{}
	}
	return sdkmath.LegacyNewDecFromBigInt(i)
}
