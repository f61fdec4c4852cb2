package server

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"time"

	"cosmossdk.io/log"
	dbm "github.com/cosmos/cosmos-db"

	"github.com/MANTRA-Chain/feemarket/indexer"
	"github.com/MANTRA-Chain/feemarket/server/config"
)

// freeAddress returns a local address nothing listens on.
func (suite *ServerTestSuite) freeAddress() string {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	suite.Require().NoError(err)
	addr := ln.Addr().String()
	suite.Require().NoError(ln.Close())
	return addr
}

func (suite *ServerTestSuite) TestRun() {
	evmSrv := httptest.NewServer(suite.chain.Server())
	defer evmSrv.Close()
	apiSrv := httptest.NewServer(suite.chain.ParamsHandler())
	defer apiSrv.Close()

	home := suite.T().TempDir()

	cfg := config.DefaultConfig()
	cfg.EVMRPC = evmSrv.URL
	cfg.API = apiSrv.URL
	cfg.PollInterval = 10 * time.Millisecond
	cfg.StartHeight = 2
	cfg.Backend.RetryInterval = time.Millisecond
	cfg.Telemetry.Enabled = false
	cfg.HTTP.Address = suite.freeAddress()

	ctx, cancel := context.WithCancel(suite.ctx)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- Run(ctx, home, cfg, log.NewNopLogger())
	}()

	head := suite.chain.Head().Number
	statusURL := "http://" + cfg.HTTP.Address + "/v1/status"
	suite.Require().Eventually(func() bool {
		resp, err := http.Get(statusURL)
		if err != nil {
			return false
		}
		defer resp.Body.Close()

		var status Status
		if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
			return false
		}
		return status.Ready && status.FirstAudited == 2 && status.LastAudited == head
	}, 10*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-errCh:
		suite.Require().NoError(err)
	case <-time.After(15 * time.Second):
		suite.FailNow("auditor did not stop")
	}

	// the records survive the restart
	db, err := OpenRecordDB(cfg.DBPath(home), dbm.BackendType(cfg.DBBackend))
	suite.Require().NoError(err)
	defer db.Close()

	idx := indexer.NewKVIndexer(db, log.NewNopLogger())
	mismatches, err := idx.Records(2, head, true)
	suite.Require().NoError(err)
	suite.Require().Empty(mismatches)

	last, err := idx.LastIndexedBlock()
	suite.Require().NoError(err)
	suite.Require().Equal(head, last)
}

func (suite *ServerTestSuite) TestRunInvalidConfig() {
	cfg := config.DefaultConfig()
	cfg.EVMRPC = ""

	err := Run(suite.ctx, suite.T().TempDir(), cfg, log.NewNopLogger())
	suite.Require().Error(err)
}
