package server

import (
	"context"
	"errors"
	"time"

	"cosmossdk.io/log"
	cmtsvc "github.com/cometbft/cometbft/libs/service"
	dbm "github.com/cosmos/cosmos-db"
	servercmtlog "github.com/cosmos/cosmos-sdk/server/log"
	"github.com/cosmos/cosmos-sdk/telemetry"
	"golang.org/x/sync/errgroup"

	"github.com/MANTRA-Chain/feemarket/audit"
	"github.com/MANTRA-Chain/feemarket/indexer"
	"github.com/MANTRA-Chain/feemarket/rpc/backend"
	"github.com/MANTRA-Chain/feemarket/server/config"
)

// RecordDBName is the name of the record db under the data directory.
const RecordDBName = "feemarket_audit"

// OpenRecordDB opens the audit record db.
func OpenRecordDB(dir string, backendType dbm.BackendType) (dbm.DB, error) {
	return dbm.NewDB(RecordDBName, backendType, dir)
}

// Run audits the chain and serves the status API until ctx is done.
func Run(ctx context.Context, home string, cfg config.Config, logger log.Logger) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	metrics, err := startTelemetry(cfg.Telemetry)
	if err != nil {
		return err
	}

	db, err := OpenRecordDB(cfg.DBPath(home), dbm.BackendType(cfg.DBBackend))
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("failed to close record db", "error", err.Error())
		}
	}()
	idx := indexer.NewKVIndexer(db, logger.With("module", "indexer"))

	evm, err := backend.Dial(ctx, logger, cfg.EVMRPC, cfg.BackendOptions())
	if err != nil {
		return err
	}
	defer evm.Close()

	source, err := cfg.NewParamsSource()
	if err != nil {
		return err
	}
	policy, err := cfg.FloorPolicy()
	if err != nil {
		return err
	}
	tolerance, err := cfg.ToleranceDec()
	if err != nil {
		return err
	}
	verifier, err := audit.NewVerifier(logger, evm, source, policy, tolerance, cfg.Concurrency)
	if err != nil {
		return err
	}

	logger.Info(
		"starting fee market audit",
		"evm-rpc", cfg.EVMRPC,
		"params-source", source.String(),
		"floor-policy", policy.String(),
		"tolerance", tolerance.String(),
	)

	hub := NewRecordHub()
	auditService := NewAuditService(idx, evm, verifier, hub, cfg.PollInterval, cfg.StartHeight)
	auditService.SetLogger(servercmtlog.CometLoggerWrapper{Logger: logger.With("service", "audit")})

	g, ctx := errgroup.WithContext(ctx)

	serviceDone := make(chan struct{})
	g.Go(func() error {
		defer close(serviceDone)
		return auditService.Start()
	})
	g.Go(func() error {
		select {
		case <-serviceDone:
			return nil
		case <-ctx.Done():
		}
		stopService(auditService, serviceDone)
		return nil
	})

	if cfg.HTTP.Enable {
		statusServer := NewStatusServer(logger, idx, evm, hub, cfg.HTTP)
		statusServer.SetMetrics(metrics)
		g.Go(func() error {
			return statusServer.Start(ctx)
		})
	}

	return g.Wait()
}

// stopService stops the service, waiting for it to be started first if needed.
func stopService(svc cmtsvc.Service, done <-chan struct{}) {
	for {
		if err := svc.Stop(); !errors.Is(err, cmtsvc.ErrNotStarted) {
			return
		}
		select {
		case <-done:
			return
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func startTelemetry(cfg config.TelemetryConfig) (*telemetry.Metrics, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	return telemetry.New(telemetry.Config{
		ServiceName:             "feemarketd",
		Enabled:                 true,
		EnableHostnameLabel:     false,
		PrometheusRetentionTime: cfg.PrometheusRetentionTime,
	})
}
