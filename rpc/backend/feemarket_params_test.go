package backend

import (
	"net/http"
	"net/http/httptest"

	sdkmath "cosmossdk.io/math"

	feemarkettypes "github.com/MANTRA-Chain/feemarket/x/feemarket/types"
)

func (suite *BackendTestSuite) TestRESTParamsSource() {
	params := feemarkettypes.DefaultParams()
	params.MinGasPrice = sdkmath.LegacyMustNewDecFromStr("0.0025")
	params.BaseFeeChangeDenominator = 50
	suite.chain.SetParams(params, sdkmath.LegacyZeroDec())

	mux := http.NewServeMux()
	mux.Handle(DefaultParamsPath, suite.chain.ParamsHandler())
	mux.HandleFunc("/broken", func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "not implemented", http.StatusNotImplemented)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	suite.Run("pass - default route", func() {
		source := NewRESTParamsSource(server.URL+"/", "")
		got, err := source.Params(suite.ctx)
		suite.Require().NoError(err)
		suite.Require().Equal(uint32(50), got.BaseFeeChangeDenominator)
		suite.Require().True(got.MinGasPrice.Equal(params.MinGasPrice))
		suite.Require().Contains(source.String(), DefaultParamsPath)
	})

	suite.Run("fail - unexpected status", func() {
		source := NewRESTParamsSource(server.URL, "broken")
		_, err := source.Params(suite.ctx)
		suite.Require().ErrorContains(err, "501")
	})
}

func (suite *BackendTestSuite) TestCommandParamsSource() {
	source := NewCommandParamsSource("mantrachaind", "tcp://localhost:26657")
	suite.Require().Equal(
		[]string{"query", "feemarket", "params", "--output", "json", "--node", "tcp://localhost:26657"},
		source.Args(),
	)

	suite.Run("fail - binary not found", func() {
		_, err := NewCommandParamsSource("/nonexistent/feemarket-binary", "").Params(suite.ctx)
		suite.Require().Error(err)
	})
}

func (suite *BackendTestSuite) TestStaticParamsSource() {
	source, err := NewStaticParamsSource(feemarkettypes.DefaultParams())
	suite.Require().NoError(err)

	got, err := source.Params(suite.ctx)
	suite.Require().NoError(err)
	suite.Require().Equal(feemarkettypes.DefaultParams().ElasticityMultiplier, got.ElasticityMultiplier)

	invalid := feemarkettypes.DefaultParams()
	invalid.ElasticityMultiplier = 0
	_, err = NewStaticParamsSource(invalid)
	suite.Require().ErrorIs(err, feemarkettypes.ErrInvalidParams)
}
