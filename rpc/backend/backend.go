package backend

import (
	"context"
	"time"

	"cosmossdk.io/log"
	sdkmath "cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pkg/errors"

	rpctypes "github.com/MANTRA-Chain/feemarket/rpc/types"
)

// EVMBackend is the read-only view of the EVM JSON-RPC needed to audit the fee market.
// Implemented by Backend.
type EVMBackend interface {
	// Blocks Info
	BlockNumber(ctx context.Context) (int64, error)
	BlockByNumber(ctx context.Context, blockNum rpctypes.BlockNumber) (rpctypes.BlockView, error)

	// Chain Info
	FeeHistory(ctx context.Context, blockCount uint64, lastBlock rpctypes.BlockNumber, rewardPercentiles []float64) (*rpctypes.FeeHistory, error)
	GasPrice(ctx context.Context) (sdkmath.LegacyDec, error)
	MaxPriorityFeePerGas(ctx context.Context) (sdkmath.LegacyDec, error)
}

var _ EVMBackend = (*Backend)(nil)

// Options tunes the Backend.
type Options struct {
	// BlockCacheSize is the number of block views kept in memory, 0 disables the cache.
	BlockCacheSize int
	// MaxRetries is the number of retries of a failed call.
	MaxRetries uint64
	// RetryInterval is the initial interval between retries, doubled at every attempt.
	RetryInterval time.Duration
}

// DefaultOptions returns the default backend options.
func DefaultOptions() Options {
	return Options{
		BlockCacheSize: 1024,
		MaxRetries:     3,
		RetryInterval:  200 * time.Millisecond,
	}
}

// Backend implements the EVMBackend interface
type Backend struct {
	rpcClient *rpc.Client
	ethClient *ethclient.Client
	logger    log.Logger
	opts      Options
	blocks    *lru.Cache[int64, rpctypes.BlockView]
}

// NewBackend creates a new Backend instance over an established JSON-RPC client.
func NewBackend(logger log.Logger, rpcClient *rpc.Client, opts Options) (*Backend, error) {
	if rpcClient == nil {
		return nil, errors.New("rpc client is required")
	}

	b := &Backend{
		rpcClient: rpcClient,
		ethClient: ethclient.NewClient(rpcClient),
		logger:    logger.With("module", "backend"),
		opts:      opts,
	}

	if opts.BlockCacheSize > 0 {
		cache, err := lru.New[int64, rpctypes.BlockView](opts.BlockCacheSize)
		if err != nil {
			return nil, errors.Wrap(err, "failed to create block cache")
		}
		b.blocks = cache
	}

	return b, nil
}

// Dial connects to the EVM JSON-RPC endpoint.
func Dial(ctx context.Context, logger log.Logger, endpoint string, opts Options) (*Backend, error) {
	rpcClient, err := rpc.DialContext(ctx, endpoint)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to dial %s", endpoint)
	}

	b, err := NewBackend(logger, rpcClient, opts)
	if err != nil {
		rpcClient.Close()
		return nil, err
	}

	return b, nil
}

// Close closes the underlying connection.
func (b *Backend) Close() {
	b.rpcClient.Close()
}
