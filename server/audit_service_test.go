package server

import (
	"errors"
	"sync"
	"time"

	sdkmath "cosmossdk.io/math"

	"github.com/MANTRA-Chain/feemarket/audit"
	"github.com/MANTRA-Chain/feemarket/indexer"
)

// flakyIndexer fails to store the record of one height a number of times.
type flakyIndexer struct {
	*indexer.KVIndexer

	mu       sync.Mutex
	height   int64
	failures int
	attempts []time.Time
}

func (f *flakyIndexer) IndexRecord(record audit.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if record.Height == f.height {
		f.attempts = append(f.attempts, time.Now())
		if f.failures > 0 {
			f.failures--
			return errors.New("disk full")
		}
	}
	return f.KVIndexer.IndexRecord(record)
}

func (f *flakyIndexer) Attempts() []time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]time.Time(nil), f.attempts...)
}

func (suite *ServerTestSuite) TestAuditServiceCatchUp() {
	suite.startAuditService(2)

	head := suite.chain.Head().Number
	suite.requireAuditedUpTo(head)
	suite.Require().Eventually(suite.indexer.IsReady, 5*time.Second, 10*time.Millisecond)

	first, err := suite.indexer.FirstIndexedBlock()
	suite.Require().NoError(err)
	suite.Require().Equal(int64(2), first)

	records, err := suite.indexer.Records(first, head, false)
	suite.Require().NoError(err)
	suite.Require().Len(records, int(head-first+1))
	for _, record := range records {
		suite.Require().True(record.Match, record.String())
	}

	mismatches, err := suite.indexer.Records(first, head, true)
	suite.Require().NoError(err)
	suite.Require().Empty(mismatches)
}

func (suite *ServerTestSuite) TestAuditServiceFollowsNewBlocks() {
	suite.startAuditService(0)

	// an empty record db starts at the current head
	head := suite.chain.Head().Number
	suite.Require().Eventually(suite.indexer.IsReady, 5*time.Second, 10*time.Millisecond)
	last, err := suite.indexer.LastIndexedBlock()
	suite.Require().NoError(err)
	suite.Require().Equal(int64(-1), last)

	suite.chain.Produce(testGasLimit, 0, 0)
	suite.requireAuditedUpTo(head + 3)

	first, err := suite.indexer.FirstIndexedBlock()
	suite.Require().NoError(err)
	suite.Require().Equal(head+1, first)

	for h := head + 1; h <= head+3; h++ {
		record, err := suite.indexer.GetByHeight(h)
		suite.Require().NoError(err)
		suite.Require().True(record.Match, record.String())
	}
}

func (suite *ServerTestSuite) TestAuditServiceRecordsMismatches() {
	suite.chain.Tamper(4, sdkmath.LegacyNewDec(1))
	suite.startAuditService(2)

	head := suite.chain.Head().Number
	suite.requireAuditedUpTo(head)

	mismatches, err := suite.indexer.Records(2, head, true)
	suite.Require().NoError(err)
	suite.Require().Len(mismatches, 2)
	suite.Require().Equal(int64(4), mismatches[0].Height)
	suite.Require().Equal(int64(5), mismatches[1].Height)
	suite.Require().True(mismatches[0].ActualBaseFee.Equal(sdkmath.LegacyNewDec(1)))
}

func (suite *ServerTestSuite) TestAuditServiceResumes() {
	suite.Require().NoError(suite.indexer.IndexRecord(mustVerifyBlock(suite, 3)))

	suite.startAuditService(2)

	head := suite.chain.Head().Number
	suite.requireAuditedUpTo(head)

	// heights before the last audited one are not revisited
	first, err := suite.indexer.FirstIndexedBlock()
	suite.Require().NoError(err)
	suite.Require().Equal(int64(3), first)

	records, err := suite.indexer.Records(3, head, false)
	suite.Require().NoError(err)
	suite.Require().Len(records, int(head-2))
}

func (suite *ServerTestSuite) TestAuditServiceSkipsFailingBlock() {
	// every attempt at auditing fails for a while, the catch-up must still complete
	suite.chain.FailNext("eth_getBlockByNumber", 1_000)
	suite.startAuditService(2)

	suite.Require().Eventually(suite.indexer.IsReady, 10*time.Second, 10*time.Millisecond)
}

func (suite *ServerTestSuite) TestAuditServiceRetriesUnstoredRecord() {
	idx := &flakyIndexer{KVIndexer: suite.indexer, height: 4, failures: 3}
	suite.startAuditServiceWithIndexer(idx, 2)

	head := suite.chain.Head().Number
	suite.requireAuditedUpTo(head)

	// the height is audited again until its record is stored
	record, err := suite.indexer.GetByHeight(4)
	suite.Require().NoError(err)
	suite.Require().True(record.Match, record.String())

	// retries wait for the poll interval
	attempts := idx.Attempts()
	suite.Require().Len(attempts, 4)
	for i := 1; i < len(attempts); i++ {
		suite.Require().GreaterOrEqual(attempts[i].Sub(attempts[i-1]), 10*time.Millisecond)
	}

	records, err := suite.indexer.Records(2, head, false)
	suite.Require().NoError(err)
	suite.Require().Len(records, int(head-1))
}

func (suite *ServerTestSuite) TestAuditServiceRetriesUnstoredRecordWhenFollowing() {
	head := suite.chain.Head().Number
	idx := &flakyIndexer{KVIndexer: suite.indexer, height: head + 1, failures: 2}
	suite.startAuditServiceWithIndexer(idx, 0)
	suite.Require().Eventually(suite.indexer.IsReady, 5*time.Second, 10*time.Millisecond)

	suite.chain.Produce(0, 0)
	suite.requireAuditedUpTo(head + 2)

	_, err := suite.indexer.GetByHeight(head + 1)
	suite.Require().NoError(err)
	suite.Require().Len(idx.Attempts(), 3)
}

func (suite *ServerTestSuite) TestAuditServicePublishesRecords() {
	_, records := suite.hub.Subscribe()

	suite.startAuditService(2)

	head := suite.chain.Head().Number
	for h := int64(2); h <= head; h++ {
		select {
		case record := <-records:
			suite.Require().Equal(h, record.Height)
		case <-time.After(5 * time.Second):
			suite.FailNow("record not published", "height %d", h)
		}
	}
}

func mustVerifyBlock(suite *ServerTestSuite, height int64) audit.Record {
	record, err := suite.verifier.VerifyBlock(suite.ctx, height)
	suite.Require().NoError(err)
	return record
}
