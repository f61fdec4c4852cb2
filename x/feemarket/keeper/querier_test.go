package keeper_test

import (
	sdkmath "cosmossdk.io/math"

	feemarketkeeper "github.com/MANTRA-Chain/feemarket/x/feemarket/keeper"
	feemarkettypes "github.com/MANTRA-Chain/feemarket/x/feemarket/types"
)

func (s *KeeperTestSuite) TestQueryParams() {
	querier := feemarketkeeper.NewQuerier(s.keeper)

	res, err := querier.Params(s.ctx)
	s.Require().NoError(err)
	s.requireParamsEqual(feemarkettypes.DefaultParams(), res.Params)

	s.updateParams(func(params *feemarkettypes.Params) {
		params.MinGasPrice = sdkmath.LegacyMustNewDecFromStr("0.0025")
	})

	res, err = querier.Params(s.ctx)
	s.Require().NoError(err)
	s.requireDecEqual(sdkmath.LegacyMustNewDecFromStr("0.0025"), res.Params.MinGasPrice)
}

func (s *KeeperTestSuite) TestQueryBaseFee() {
	testCases := []struct {
		name       string
		malleate   func()
		expBaseFee *sdkmath.LegacyDec
	}{
		{
			name:     "pass - default base fee",
			malleate: func() {},
			expBaseFee: func() *sdkmath.LegacyDec {
				fee := feemarkettypes.DefaultParams().BaseFee
				return &fee
			}(),
		},
		{
			name: "pass - updated base fee",
			malleate: func() {
				s.Require().NoError(s.keeper.SetBaseFee(s.ctx, sdkmath.LegacyNewDec(2_500_000_000)))
			},
			expBaseFee: func() *sdkmath.LegacyDec {
				fee := sdkmath.LegacyNewDec(2_500_000_000)
				return &fee
			}(),
		},
		{
			name: "pass - nil when base fee is disabled",
			malleate: func() {
				s.updateParams(func(params *feemarkettypes.Params) {
					params.NoBaseFee = true
				})
			},
			expBaseFee: nil,
		},
	}
	for _, tc := range testCases {
		s.Run(tc.name, func() {
			s.RefreshContext()
			tc.malleate()

			res, err := feemarketkeeper.NewQuerier(s.keeper).BaseFee(s.ctx)
			s.Require().NoError(err)
			if tc.expBaseFee == nil {
				s.Require().Nil(res.BaseFee)
				return
			}
			s.Require().NotNil(res.BaseFee)
			s.requireDecEqual(*tc.expBaseFee, *res.BaseFee)
		})
	}
}
