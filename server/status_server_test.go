package server

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"cosmossdk.io/log"
	"github.com/cosmos/cosmos-sdk/telemetry"
	"github.com/gorilla/websocket"

	"github.com/MANTRA-Chain/feemarket/audit"
	"github.com/MANTRA-Chain/feemarket/server/config"
)

func (suite *ServerTestSuite) newStatusServer(cfg config.HTTPConfig) *StatusServer {
	return NewStatusServer(log.NewNopLogger(), suite.indexer, suite.backend, suite.hub, cfg)
}

// indexRange audits and indexes the blocks in [from, to].
func (suite *ServerTestSuite) indexRange(from, to int64) {
	report, err := suite.verifier.VerifyRange(suite.ctx, from, to)
	suite.Require().NoError(err)
	suite.Require().NoError(suite.indexer.IndexRecords(report.Records))
}

func (suite *ServerTestSuite) get(handler http.Handler, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func (suite *ServerTestSuite) TestStatus() {
	handler := suite.newStatusServer(config.HTTPConfig{}).Handler()

	rec := suite.get(handler, "/v1/status")
	suite.Require().Equal(http.StatusOK, rec.Code)

	var status Status
	suite.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &status))
	suite.Require().False(status.Ready)
	suite.Require().Equal(int64(-1), status.FirstAudited)
	suite.Require().Equal(int64(-1), status.LastAudited)
	suite.Require().NotNil(status.Head)
	suite.Require().Equal(suite.chain.Head().Number, *status.Head)

	suite.indexRange(2, 4)
	suite.indexer.Ready()

	rec = suite.get(handler, "/v1/status")
	suite.Require().Equal(http.StatusOK, rec.Code)
	suite.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &status))
	suite.Require().True(status.Ready)
	suite.Require().Equal(int64(2), status.FirstAudited)
	suite.Require().Equal(int64(4), status.LastAudited)
}

func (suite *ServerTestSuite) TestStatusWithoutBackend() {
	handler := NewStatusServer(log.NewNopLogger(), suite.indexer, nil, nil, config.HTTPConfig{}).Handler()

	rec := suite.get(handler, "/v1/status")
	suite.Require().Equal(http.StatusOK, rec.Code)
	suite.Require().NotContains(rec.Body.String(), "head")
}

func (suite *ServerTestSuite) TestRecord() {
	suite.indexRange(2, 4)
	handler := suite.newStatusServer(config.HTTPConfig{}).Handler()

	testCases := []struct {
		name    string
		target  string
		expCode int
	}{
		{"indexed height", "/v1/records/3", http.StatusOK},
		{"not indexed height", "/v1/records/5", http.StatusNotFound},
		{"negative height does not match the route", "/v1/records/-1", http.StatusNotFound},
		{"non numeric height does not match the route", "/v1/records/latest", http.StatusNotFound},
	}

	for _, tc := range testCases {
		suite.Run(tc.name, func() {
			rec := suite.get(handler, tc.target)
			suite.Require().Equal(tc.expCode, rec.Code, rec.Body.String())
		})
	}

	rec := suite.get(handler, "/v1/records/3")
	var record audit.Record
	suite.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &record))
	suite.Require().Equal(int64(3), record.Height)
	suite.Require().True(record.Match)
	suite.Require().Equal("application/json", rec.Header().Get("Content-Type"))
}

func (suite *ServerTestSuite) TestRecords() {
	suite.chain.Tamper(4, suite.chain.Head().BaseFee.MulInt64(3))
	suite.indexRange(2, 6)
	handler := suite.newStatusServer(config.HTTPConfig{}).Handler()

	testCases := []struct {
		name       string
		target     string
		expCode    int
		expHeights []int64
	}{
		{"default window", "/v1/records", http.StatusOK, []int64{2, 3, 4, 5, 6}},
		{"explicit range", "/v1/records?from=3&to=4", http.StatusOK, []int64{3, 4}},
		{"from only", "/v1/records?from=5", http.StatusOK, []int64{5, 6}},
		{"mismatch only", "/v1/records?mismatch=true", http.StatusOK, []int64{4, 5}},
		{"mismatch in range", "/v1/records?from=5&to=6&mismatch=true", http.StatusOK, []int64{5}},
		{"empty range", "/v1/records?from=100&to=200", http.StatusOK, []int64{}},
		{"reversed range", "/v1/records?from=5&to=3", http.StatusBadRequest, nil},
		{"invalid from", "/v1/records?from=abc", http.StatusBadRequest, nil},
		{"invalid to", "/v1/records?to=abc", http.StatusBadRequest, nil},
		{"invalid mismatch", "/v1/records?mismatch=maybe", http.StatusBadRequest, nil},
	}

	for _, tc := range testCases {
		suite.Run(tc.name, func() {
			rec := suite.get(handler, tc.target)
			suite.Require().Equal(tc.expCode, rec.Code, rec.Body.String())
			if tc.expCode != http.StatusOK {
				suite.Require().Contains(rec.Body.String(), "error")
				return
			}

			var records []audit.Record
			suite.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &records))
			heights := make([]int64, 0, len(records))
			for _, record := range records {
				heights = append(heights, record.Height)
			}
			suite.Require().Equal(tc.expHeights, heights)
		})
	}
}

func (suite *ServerTestSuite) TestRecordsEmptyIndexer() {
	handler := suite.newStatusServer(config.HTTPConfig{}).Handler()

	rec := suite.get(handler, "/v1/records")
	suite.Require().Equal(http.StatusOK, rec.Code)
	suite.Require().JSONEq("[]", rec.Body.String())
}

func (suite *ServerTestSuite) TestCORS() {
	handler := suite.newStatusServer(config.HTTPConfig{CORS: []string{"https://allowed.org"}}).Handler()

	testCases := []struct {
		name      string
		origin    string
		expHeader string
	}{
		{"allowed origin", "https://allowed.org", "https://allowed.org"},
		{"other origin", "https://other.org", ""},
	}

	for _, tc := range testCases {
		suite.Run(tc.name, func() {
			req := httptest.NewRequest(http.MethodGet, "/v1/status", nil)
			req.Header.Set("Origin", tc.origin)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			suite.Require().Equal(http.StatusOK, rec.Code)
			suite.Require().Equal(tc.expHeader, rec.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}

func (suite *ServerTestSuite) TestStream() {
	srv := httptest.NewServer(suite.newStatusServer(config.HTTPConfig{}).Handler())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	suite.Require().NoError(err)
	defer conn.Close()

	suite.Require().Eventually(func() bool { return suite.hub.Len() == 1 }, 5*time.Second, 10*time.Millisecond)

	record, err := suite.verifier.VerifyBlock(suite.ctx, 3)
	suite.Require().NoError(err)
	suite.Require().Zero(suite.hub.Publish(record))

	suite.Require().NoError(conn.SetReadDeadline(time.Now().Add(5 * time.Second)))
	var received audit.Record
	suite.Require().NoError(conn.ReadJSON(&received))
	suite.Require().Equal(record.Height, received.Height)
	suite.Require().True(record.ExpectedBaseFee.Equal(received.ExpectedBaseFee))

	// closing the connection unsubscribes
	suite.Require().NoError(conn.Close())
	suite.Require().Eventually(func() bool { return suite.hub.Len() == 0 }, 5*time.Second, 10*time.Millisecond)
}

func (suite *ServerTestSuite) TestStreamDisabled() {
	handler := NewStatusServer(log.NewNopLogger(), suite.indexer, nil, nil, config.HTTPConfig{}).Handler()

	rec := suite.get(handler, "/v1/stream")
	suite.Require().Equal(http.StatusNotImplemented, rec.Code)
}

func (suite *ServerTestSuite) TestMetrics() {
	srv := suite.newStatusServer(config.HTTPConfig{})

	rec := suite.get(srv.Handler(), "/v1/metrics")
	suite.Require().Equal(http.StatusNotImplemented, rec.Code)

	m, err := telemetry.New(telemetry.Config{
		ServiceName: "feemarketd",
		Enabled:     true,
	})
	suite.Require().NoError(err)
	srv.SetMetrics(m)

	// the audited blocks are counted
	suite.startAuditService(2)
	suite.requireAuditedUpTo(suite.chain.Head().Number)

	rec = suite.get(srv.Handler(), "/v1/metrics")
	suite.Require().Equal(http.StatusOK, rec.Code)
	suite.Require().Contains(rec.Body.String(), "feemarket.audit.blocks")

	// prometheus is disabled without retention time
	rec = suite.get(srv.Handler(), "/v1/metrics?format=prometheus")
	suite.Require().Equal(http.StatusBadRequest, rec.Code)
}

func (suite *ServerTestSuite) TestServe() {
	ln, err := Listen("127.0.0.1:0", 2)
	suite.Require().NoError(err)

	ctx, cancel := context.WithCancel(suite.ctx)
	errCh := make(chan error, 1)
	go func() {
		errCh <- suite.newStatusServer(config.HTTPConfig{}).Serve(ctx, ln)
	}()

	url := "http://" + ln.Addr().String() + "/v1/status"
	suite.Require().Eventually(func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-errCh:
		suite.Require().NoError(err)
	case <-time.After(15 * time.Second):
		suite.FailNow("status server did not shut down")
	}

	_, err = net.DialTimeout("tcp", ln.Addr().String(), time.Second)
	suite.Require().Error(err)
}
