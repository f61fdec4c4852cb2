package server

import (
	"context"
	"time"

	errorsmod "cosmossdk.io/errors"
	cmtsvc "github.com/cometbft/cometbft/libs/service"
	"github.com/cosmos/cosmos-sdk/telemetry"
	metrics "github.com/hashicorp/go-metrics"

	"github.com/MANTRA-Chain/feemarket/audit"
	"github.com/MANTRA-Chain/feemarket/rpc/backend"
	"github.com/MANTRA-Chain/feemarket/types"
)

const (
	ServiceName = "FeeMarketAuditService"

	// NewBlockWaitTimeout bounds the wait for a new head before re-checking the quit signal.
	NewBlockWaitTimeout = 60 * time.Second

	// startupAuditBlockFailureThreshold is the number of failed attempts after which a
	// block is skipped while catching up with the head.
	startupAuditBlockFailureThreshold = 10
)

// AuditService follows the chain head and records, for every new block, whether its
// base fee follows the fee market recurrence.
type AuditService struct {
	cmtsvc.BaseService

	indexer      types.AuditIndexer
	backend      backend.EVMBackend
	verifier     *audit.Verifier
	hub          *RecordHub
	pollInterval time.Duration
	startHeight  int64
}

// NewAuditService returns a new service instance. Records are published to hub if not nil.
func NewAuditService(
	indexer types.AuditIndexer,
	evmBackend backend.EVMBackend,
	verifier *audit.Verifier,
	hub *RecordHub,
	pollInterval time.Duration,
	startHeight int64,
) *AuditService {
	as := &AuditService{
		indexer:      indexer,
		backend:      evmBackend,
		verifier:     verifier,
		hub:          hub,
		pollInterval: pollInterval,
		startHeight:  startHeight,
	}
	as.BaseService = *cmtsvc.NewBaseService(nil, ServiceName, as)
	return as
}

// OnStart implements service.Service by polling the chain head and auditing
// every new block. It returns once the service is stopped.
func (as *AuditService) OnStart() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-as.Quit()
		cancel()
	}()

	latestBlock, err := as.backend.BlockNumber(ctx)
	if err != nil {
		return err
	}

	newBlockSignal := make(chan int64, 1)

	go func() {
		ticker := time.NewTicker(as.pollInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}

			head, err := as.backend.BlockNumber(ctx)
			if err != nil {
				if ctx.Err() == nil {
					as.Logger.Error("failed to poll chain head", "err", err)
				}
				continue
			}

			// keep only the highest head
			select {
			case <-newBlockSignal:
			default:
			}
			newBlockSignal <- head
		}
	}()

	lastAuditedBlock, err := as.indexer.LastIndexedBlock()
	if err != nil {
		return err
	}
	if lastAuditedBlock == -1 {
		lastAuditedBlock = latestBlock
		if as.startHeight > 0 && as.startHeight <= latestBlock {
			lastAuditedBlock = as.startHeight - 1
		}
	}
	if lastAuditedBlock < 0 {
		// the genesis block has no parent
		lastAuditedBlock = 0
	}

	var isIndexerMarkedReady bool
	startupAuditBlockFailureTracker := make(map[int64]int)
	markFailedToAuditBlock := func(h int64) (shouldSkip bool) {
		cnt := startupAuditBlockFailureTracker[h] + 1
		startupAuditBlockFailureTracker[h] = cnt
		return cnt > startupAuditBlockFailureThreshold
	}

	for {
		select {
		case <-as.Quit():
			return nil
		default:
			// process new blocks
		}

		if lastAuditedBlock >= latestBlock {
			// nothing to audit, mark ready if not yet then wait for a new head
			if !isIndexerMarkedReady {
				as.indexer.Ready()
				isIndexerMarkedReady = true

				for h := range startupAuditBlockFailureTracker {
					as.Logger.Error("skipped auditing block after multiple retries", "height", h)
				}
			}

			select {
			case head := <-newBlockSignal:
				if head > latestBlock {
					latestBlock = head
				}
			case <-time.After(NewBlockWaitTimeout):
			case <-as.Quit():
				return nil
			}
			continue
		}

		for i := lastAuditedBlock + 1; i <= latestBlock; i++ {
			record, err := as.auditBlock(ctx, i)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				as.Logger.Error("failed to audit block", "height", i, "err", err)
				telemetry.IncrCounterWithLabels([]string{"feemarket", "audit", "errors"}, 1, nil)
				if !isIndexerMarkedReady && markFailedToAuditBlock(i) {
					lastAuditedBlock = i
				} else {
					// wait for the next poll before retrying
					as.waitRetry()
				}
				break
			}

			if !isIndexerMarkedReady {
				delete(startupAuditBlockFailureTracker, i)

				as.Logger.Info("audited block", "height", i, "match", record.Match)
			}

			as.observe(record)
			lastAuditedBlock = i
		}
	}
}

// auditBlock checks the block at height and stores its record.
// A block is audited only once its record is stored.
func (as *AuditService) auditBlock(ctx context.Context, height int64) (audit.Record, error) {
	record, err := as.verifier.VerifyBlock(ctx, height)
	if err != nil {
		return audit.Record{}, err
	}

	if err := as.indexer.IndexRecord(record); err != nil {
		return audit.Record{}, errorsmod.Wrap(err, "failed to index record")
	}

	return record, nil
}

// waitRetry blocks for a poll interval or until the service stops.
func (as *AuditService) waitRetry() {
	select {
	case <-time.After(as.pollInterval):
	case <-as.Quit():
	}
}

// observe counts the record and publishes it to the subscribers.
func (as *AuditService) observe(record audit.Record) {
	result := "match"
	if !record.Match {
		result = "mismatch"
		as.Logger.Error(
			"base fee does not follow the fee market recurrence",
			"height", record.Height,
			"expected", record.ExpectedBaseFee,
			"actual", record.ActualBaseFee,
			"diff", record.Diff,
		)
	}

	telemetry.IncrCounterWithLabels(
		[]string{"feemarket", "audit", "blocks"},
		1,
		[]metrics.Label{telemetry.NewLabel("result", result)},
	)
	telemetry.SetGauge(float32(record.Height), "feemarket", "audit", "height")

	if as.hub != nil {
		as.hub.Publish(record)
	}
}
