package audit

import (
	"context"
	"fmt"
	"time"

	"cosmossdk.io/log"
	sdkmath "cosmossdk.io/math"
	"golang.org/x/sync/errgroup"

	"github.com/MANTRA-Chain/feemarket/rpc/backend"
	rpctypes "github.com/MANTRA-Chain/feemarket/rpc/types"
	feemarkettypes "github.com/MANTRA-Chain/feemarket/x/feemarket/types"
)

const (
	// DefaultConcurrency is the default number of in-flight JSON-RPC requests of a verification.
	DefaultConcurrency = 8

	// MaxRangeSize is the largest number of blocks checked by one verification.
	MaxRangeSize = 10_000

	// DefaultPollInterval is the default interval between two polls when waiting for a block.
	DefaultPollInterval = 500 * time.Millisecond
)

// Verifier checks the base fees reported by a live chain against the fee market recurrence.
type Verifier struct {
	logger      log.Logger
	backend     backend.EVMBackend
	source      backend.ParamsSource
	floorPolicy feemarkettypes.FloorPolicy
	tolerance   sdkmath.LegacyDec
	concurrency int

	pollInterval time.Duration
}

// NewVerifier creates a verifier. Params are read from source at every verification.
func NewVerifier(
	logger log.Logger,
	evmBackend backend.EVMBackend,
	source backend.ParamsSource,
	floorPolicy feemarkettypes.FloorPolicy,
	tolerance sdkmath.LegacyDec,
	concurrency int,
) (*Verifier, error) {
	if evmBackend == nil || source == nil {
		return nil, fmt.Errorf("backend and params source are required")
	}
	if err := floorPolicy.Validate(); err != nil {
		return nil, err
	}
	if tolerance.IsNil() || tolerance.IsNegative() {
		return nil, fmt.Errorf("invalid tolerance %s", tolerance)
	}
	if concurrency < 1 {
		concurrency = DefaultConcurrency
	}

	return &Verifier{
		logger:      logger.With("module", "audit"),
		backend:     evmBackend,
		source:      source,
		floorPolicy: floorPolicy,
		tolerance:   tolerance,
		concurrency: concurrency,

		pollInterval: DefaultPollInterval,
	}, nil
}

// SetPollInterval sets the interval between two polls when waiting for a block.
func (v *Verifier) SetPollInterval(d time.Duration) {
	if d > 0 {
		v.pollInterval = d
	}
}

// Snapshot is the params and floor a verification runs with.
type Snapshot struct {
	Params feemarkettypes.Params `json:"params"`
	Floor  sdkmath.LegacyDec     `json:"floor"`
}

// Snapshot reads the current params and derives the floor from them.
func (v *Verifier) Snapshot(ctx context.Context) (Snapshot, error) {
	params, err := v.source.Params(ctx)
	if err != nil {
		return Snapshot{}, err
	}

	floor, err := v.floorPolicy.Floor(params)
	if err != nil {
		return Snapshot{}, err
	}

	return Snapshot{
		Params: params,
		Floor:  floor,
	}, nil
}

// Report is the result of the verification of a range of blocks.
type Report struct {
	From       int64    `json:"from"`
	To         int64    `json:"to"`
	Snapshot   Snapshot `json:"snapshot"`
	Records    []Record `json:"records"`
	Mismatches int      `json:"mismatches"`
}

// OK returns true if every block of the range follows the recurrence.
func (r Report) OK() bool {
	return r.Mismatches == 0
}

// VerifyRange checks the base fee of every block in [from, to] against its parent.
func (v *Verifier) VerifyRange(ctx context.Context, from, to int64) (*Report, error) {
	if from < 1 {
		return nil, fmt.Errorf("range must start after the first block, got %d", from)
	}
	if to < from {
		return nil, fmt.Errorf("invalid range [%d, %d]", from, to)
	}
	if to-from >= MaxRangeSize {
		return nil, fmt.Errorf("range [%d, %d] is larger than %d blocks", from, to, MaxRangeSize)
	}

	head, err := v.backend.BlockNumber(ctx)
	if err != nil {
		return nil, err
	}
	if to > head {
		return nil, fmt.Errorf("range [%d, %d] goes beyond the head block %d", from, to, head)
	}

	snapshot, err := v.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	views, err := v.fetchBlocks(ctx, from-1, to)
	if err != nil {
		return nil, err
	}

	report := &Report{
		From:     from,
		To:       to,
		Snapshot: snapshot,
		Records:  make([]Record, 0, len(views)-1),
	}
	for i := 1; i < len(views); i++ {
		record, err := CheckTransition(views[i-1], views[i], snapshot.Params, snapshot.Floor, v.tolerance)
		if err != nil {
			return nil, err
		}
		if !record.Match {
			report.Mismatches++
			v.logger.Info("base fee mismatch", "height", record.Height, "expected", record.ExpectedBaseFee, "actual", record.ActualBaseFee)
		}
		report.Records = append(report.Records, record)
	}

	return report, nil
}

// VerifyBlock checks the base fee of one block against its parent.
func (v *Verifier) VerifyBlock(ctx context.Context, height int64) (Record, error) {
	report, err := v.VerifyRange(ctx, height, height)
	if err != nil {
		return Record{}, err
	}
	return report.Records[0], nil
}

// fetchBlocks returns the views of the blocks in [from, to] in order.
func (v *Verifier) fetchBlocks(ctx context.Context, from, to int64) ([]rpctypes.BlockView, error) {
	if to < from || to-from > MaxRangeSize {
		return nil, fmt.Errorf("cannot fetch blocks [%d, %d], at most %d blocks are fetched at once", from, to, MaxRangeSize+1)
	}

	views := make([]rpctypes.BlockView, to-from+1)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(v.concurrency)
	for height := from; height <= to; height++ {
		height := height
		g.Go(func() error {
			view, err := v.backend.BlockByNumber(ctx, rpctypes.BlockNumber(height))
			if err != nil {
				return err
			}
			views[height-from] = view
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return views, nil
}
