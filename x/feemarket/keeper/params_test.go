package keeper_test

import (
	sdkmath "cosmossdk.io/math"

	feemarkettypes "github.com/MANTRA-Chain/feemarket/x/feemarket/types"
)

func (s *KeeperTestSuite) TestGetParams() {
	params := s.mustGetParams()
	s.Require().False(params.BaseFee.IsNil())
	s.Require().False(params.MinGasPrice.IsNil())
	s.requireParamsEqual(feemarkettypes.DefaultParams(), params)
}

func (s *KeeperTestSuite) TestSetGetParams() {
	testCases := []struct {
		name     string
		malleate func(params *feemarkettypes.Params)
		wantErr  bool
	}{
		{
			name:     "pass - default params",
			malleate: func(_ *feemarkettypes.Params) {},
		},
		{
			name: "pass - alternate params",
			malleate: func(params *feemarkettypes.Params) {
				params.BaseFeeChangeDenominator = 50
				params.ElasticityMultiplier = 4
				params.EnableHeight = 10
				params.MinGasPrice = sdkmath.LegacyNewDec(10_000_000_000)
				params.MinBaseGasPrice = sdkmath.LegacyMustNewDecFromStr("0.0025")
				params.MinGasMultiplier = sdkmath.LegacyOneDec()
			},
		},
		{
			name: "fail - zero denominator is rejected",
			malleate: func(params *feemarkettypes.Params) {
				params.BaseFeeChangeDenominator = 0
			},
			wantErr: true,
		},
		{
			name: "fail - negative min gas price is rejected",
			malleate: func(params *feemarkettypes.Params) {
				params.MinGasPrice = sdkmath.LegacyNewDec(-1)
			},
			wantErr: true,
		},
	}
	for _, tc := range testCases {
		s.Run(tc.name, func() {
			s.RefreshContext()

			params := feemarkettypes.DefaultParams()
			tc.malleate(&params)

			err := s.keeper.SetParams(s.ctx, params)
			if tc.wantErr {
				s.Require().Error(err)
				s.requireParamsEqual(feemarkettypes.DefaultParams(), s.mustGetParams())
				return
			}

			s.Require().NoError(err)
			s.requireParamsEqual(params, s.mustGetParams())
		})
	}
}

func (s *KeeperTestSuite) TestGetBaseFeeEnabled() {
	enabled, err := s.keeper.GetBaseFeeEnabled(s.ctx)
	s.Require().NoError(err)
	s.Require().True(enabled)

	s.updateParams(func(params *feemarkettypes.Params) {
		params.NoBaseFee = true
	})

	enabled, err = s.keeper.GetBaseFeeEnabled(s.ctx)
	s.Require().NoError(err)
	s.Require().False(enabled)
}

func (s *KeeperTestSuite) TestSetGetBaseFee() {
	s.Require().NoError(s.keeper.SetBaseFee(s.ctx, sdkmath.LegacyOneDec()))

	fee, err := s.keeper.GetBaseFee(s.ctx)
	s.Require().NoError(err)
	s.requireDecEqual(sdkmath.LegacyOneDec(), fee)

	s.Run("nil when base fee is disabled", func() {
		s.updateParams(func(params *feemarkettypes.Params) {
			params.NoBaseFee = true
		})

		fee, err := s.keeper.GetBaseFee(s.ctx)
		s.Require().NoError(err)
		s.Require().True(fee.IsNil())
	})

	s.Run("negative base fee is rejected", func() {
		s.RefreshContext()

		err := s.keeper.SetBaseFee(s.ctx, sdkmath.LegacyNewDec(-1))
		s.Require().Error(err)
	})
}

func (s *KeeperTestSuite) TestUpdateParams() {
	testCases := []struct {
		name      string
		authority string
		params    feemarkettypes.Params
		expErr    error
	}{
		{
			name:      "fail - invalid authority",
			authority: "foobar",
			params:    feemarkettypes.DefaultParams(),
			expErr:    feemarkettypes.ErrInvalidSigner,
		},
		{
			name:      "pass - valid Update msg",
			authority: s.authority.String(),
			params: func() feemarkettypes.Params {
				params := feemarkettypes.DefaultParams()
				params.MinGasPrice = sdkmath.LegacyNewDec(500_000_000)
				return params
			}(),
		},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			s.RefreshContext()

			err := s.keeper.UpdateParams(s.ctx, tc.authority, tc.params)
			if tc.expErr != nil {
				s.Require().ErrorIs(err, tc.expErr)
				return
			}

			s.Require().NoError(err)
			s.requireParamsEqual(tc.params, s.mustGetParams())
		})
	}
}
