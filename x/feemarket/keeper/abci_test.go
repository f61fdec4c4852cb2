package keeper_test

import (
	sdkmath "cosmossdk.io/math"
	storetypes "cosmossdk.io/store/types"
	sdk "github.com/cosmos/cosmos-sdk/types"

	feemarkettypes "github.com/MANTRA-Chain/feemarket/x/feemarket/types"
)

func (s *KeeperTestSuite) TestEndBlock() {
	testCases := []struct {
		name       string
		noBaseFee  bool
		nilMeter   bool
		malleate   func()
		expGasUsed uint64
		expBaseFee sdkmath.LegacyDec
	}{
		{
			name:       "base fee should be nil if no base fee",
			noBaseFee:  true,
			malleate:   func() {},
			expGasUsed: 0,
			expBaseFee: sdkmath.LegacyDec{},
		},
		{
			name:       "nothing recorded without block gas meter",
			nilMeter:   true,
			malleate:   func() {},
			expGasUsed: 0,
			expBaseFee: feemarkettypes.DefaultParams().BaseFee,
		},
		{
			name: "base fee should decrease under target",
			malleate: func() {
				s.ctx.BlockGasMeter().ConsumeGas(2_500_000, "consume")
			},
			expGasUsed: 2_500_000,
			expBaseFee: sdkmath.LegacyNewDec(937_500_000),
		},
		{
			name: "base fee should increase above target",
			malleate: func() {
				s.ctx.BlockGasMeter().ConsumeGas(7_500_001, "consume")
			},
			expGasUsed: 7_500_001,
			expBaseFee: sdkmath.LegacyNewDec(1_062_500_025),
		},
		{
			name: "gas wanted is accounted through the min gas multiplier",
			malleate: func() {
				s.ctx.BlockGasMeter().ConsumeGas(1_000_000, "consume")
				_, err := s.keeper.AddTransientGasWanted(s.ctx, 20_000_000)
				s.Require().NoError(err)
			},
			expGasUsed: 10_000_000,
			expBaseFee: sdkmath.LegacyNewDec(1_125_000_000),
		},
		{
			name: "base fee should be unchanged at target",
			malleate: func() {
				s.ctx.BlockGasMeter().ConsumeGas(5_000_000, "consume")
			},
			expGasUsed: 5_000_000,
			expBaseFee: feemarkettypes.DefaultParams().BaseFee,
		},
	}
	for _, tc := range testCases {
		s.Run(tc.name, func() {
			s.RefreshContext()

			s.updateParams(func(params *feemarkettypes.Params) {
				params.NoBaseFee = tc.noBaseFee
			})

			if tc.nilMeter {
				s.ctx = s.ctx.WithBlockGasMeter(nil)
			} else {
				s.ctx = s.ctx.WithBlockGasMeter(storetypes.NewGasMeter(uint64(1000000000)))
			}
			s.ctx = s.ctx.WithEventManager(sdk.NewEventManager())

			tc.malleate()
			s.Require().NoError(s.keeper.EndBlock(s.ctx))

			gasUsed, err := s.keeper.GetBlockGasUsed(s.ctx)
			s.Require().NoError(err)
			s.Require().Equal(tc.expGasUsed, gasUsed)

			baseFee, err := s.keeper.GetBaseFee(s.ctx)
			s.Require().NoError(err)
			s.requireDecEqual(tc.expBaseFee, baseFee)

			if tc.nilMeter {
				s.Require().Empty(s.ctx.EventManager().Events())
				return
			}

			var foundBlockGas, foundFeeMarket bool
			for _, event := range s.ctx.EventManager().Events() {
				switch event.Type {
				case feemarkettypes.EventTypeBlockGas:
					foundBlockGas = true
				case feemarkettypes.EventTypeFeeMarket:
					foundFeeMarket = true
					attr, found := event.GetAttribute(feemarkettypes.AttributeKeyBaseFee)
					s.Require().True(found)
					s.Require().Equal(tc.expBaseFee.String(), attr.Value)
				}
			}
			s.Require().True(foundBlockGas)
			s.Require().Equal(!tc.noBaseFee, foundFeeMarket)
		})
	}
}

func (s *KeeperTestSuite) TestEndBlockConvergesToFloor() {
	s.updateParams(func(params *feemarkettypes.Params) {
		params.MinGasPrice = sdkmath.LegacyNewDec(10_000_000)
	})

	for i := 0; i < 200; i++ {
		s.ctx = s.ctx.
			WithBlockHeight(s.ctx.BlockHeight() + 1).
			WithBlockGasMeter(storetypes.NewGasMeter(uint64(1000000000)))
		s.Require().NoError(s.keeper.EndBlock(s.ctx))
	}

	baseFee, err := s.keeper.GetBaseFee(s.ctx)
	s.Require().NoError(err)
	s.requireDecEqual(sdkmath.LegacyNewDec(10_000_000), baseFee)
}
