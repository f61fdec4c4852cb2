package keeper_test

import (
	"fmt"

	sdkmath "cosmossdk.io/math"
	storetypes "cosmossdk.io/store/types"
	tmproto "github.com/cometbft/cometbft/proto/tendermint/types"

	feemarkettypes "github.com/MANTRA-Chain/feemarket/x/feemarket/types"
)

func (s *KeeperTestSuite) TestCalculateBaseFee() {
	initialBaseFee := feemarkettypes.DefaultParams().BaseFee

	testCases := []struct {
		name               string
		noBaseFee          bool
		enableHeight       int64
		maxGas             int64
		parentBlockGasUsed uint64
		minGasPrice        sdkmath.LegacyDec
		expFee             sdkmath.LegacyDec
	}{
		{
			name:               "without BaseFee",
			noBaseFee:          true,
			maxGas:             100,
			parentBlockGasUsed: 0,
			minGasPrice:        sdkmath.LegacyZeroDec(),
			expFee:             sdkmath.LegacyDec{},
		},
		{
			name:               "with BaseFee - not yet enabled",
			enableHeight:       5,
			maxGas:             100,
			parentBlockGasUsed: 0,
			minGasPrice:        sdkmath.LegacyZeroDec(),
			expFee:             sdkmath.LegacyDec{},
		},
		{
			name:               "with BaseFee - at the enable height the configured base fee is used",
			enableHeight:       1,
			maxGas:             100,
			parentBlockGasUsed: 0,
			minGasPrice:        sdkmath.LegacyZeroDec(),
			expFee:             initialBaseFee,
		},
		{
			name:               "with BaseFee - initial EIP-1559 block",
			maxGas:             100,
			parentBlockGasUsed: 0,
			minGasPrice:        sdkmath.LegacyZeroDec(),
			expFee:             sdkmath.LegacyNewDec(875000000),
		},
		{
			name:               "with BaseFee - parent block used the same gas as its target (ElasticityMultiplier = 2)",
			maxGas:             100,
			parentBlockGasUsed: 50,
			minGasPrice:        sdkmath.LegacyZeroDec(),
			expFee:             initialBaseFee,
		},
		{
			name:               "with BaseFee - parent block used the same gas as its target, with higher min gas price (ElasticityMultiplier = 2)",
			maxGas:             100,
			parentBlockGasUsed: 50,
			minGasPrice:        sdkmath.LegacyNewDec(1500000000),
			expFee:             initialBaseFee,
		},
		{
			name:               "with BaseFee - parent block used more gas than its target (ElasticityMultiplier = 2)",
			maxGas:             100,
			parentBlockGasUsed: 100,
			minGasPrice:        sdkmath.LegacyZeroDec(),
			expFee:             sdkmath.LegacyNewDec(1125000000),
		},
		{
			name:               "with BaseFee - parent block used more gas than its target, with higher min gas price (ElasticityMultiplier = 2)",
			maxGas:             100,
			parentBlockGasUsed: 100,
			minGasPrice:        sdkmath.LegacyNewDec(1500000000),
			expFee:             sdkmath.LegacyNewDec(1125000000),
		},
		{
			name:               "with BaseFee - Parent gas used smaller than parent gas target (ElasticityMultiplier = 2)",
			maxGas:             100,
			parentBlockGasUsed: 25,
			minGasPrice:        sdkmath.LegacyZeroDec(),
			expFee:             sdkmath.LegacyNewDec(937500000),
		},
		{
			name:               "with BaseFee - Parent gas used smaller than parent gas target, with higher min gas price (ElasticityMultiplier = 2)",
			maxGas:             100,
			parentBlockGasUsed: 25,
			minGasPrice:        sdkmath.LegacyNewDec(1500000000),
			expFee:             sdkmath.LegacyNewDec(1500000000),
		},
		{
			name:               "with BaseFee - unlimited block gas",
			maxGas:             -1,
			parentBlockGasUsed: 0,
			minGasPrice:        sdkmath.LegacyZeroDec(),
			expFee:             sdkmath.LegacyNewDec(875000000),
		},
	}
	for _, tc := range testCases {
		s.Run(fmt.Sprintf("Case %s", tc.name), func() {
			s.RefreshContext()

			s.updateParams(func(params *feemarkettypes.Params) {
				params.NoBaseFee = tc.noBaseFee
				params.EnableHeight = tc.enableHeight
				params.MinGasPrice = tc.minGasPrice
			})

			// Set next block target/gasLimit through Consensus Param MaxGas
			s.ctx = s.ctx.WithConsensusParams(tmproto.ConsensusParams{
				Block: &tmproto.BlockParams{
					MaxGas:   tc.maxGas,
					MaxBytes: 10,
				},
			})

			fee, err := s.keeper.CalculateBaseFee(s.ctx, tc.parentBlockGasUsed)
			s.Require().NoError(err)
			s.requireDecEqual(tc.expFee, fee, tc.name)
		})
	}
}

func (s *KeeperTestSuite) TestCalculateBaseFeeFloorSource() {
	s.RefreshContext()

	fk := s.keeper
	s.updateParams(func(params *feemarkettypes.Params) {
		params.MinGasPrice = sdkmath.LegacyNewDec(1500000000)
		params.MinBaseGasPrice = sdkmath.LegacyNewDec(900000000)
	})

	// the default policy reads min_gas_price
	fee, err := fk.CalculateBaseFee(s.ctx, 0)
	s.Require().NoError(err)
	s.requireDecEqual(sdkmath.LegacyNewDec(1500000000), fee)

	s.Require().Equal(feemarkettypes.FloorSourceMinGasPrice, fk.GetFloorPolicy().Source)
}

func (s *KeeperTestSuite) TestCalculateBlockGasUsed() {
	testCases := []struct {
		name             string
		nilMeter         bool
		consumed         uint64
		gasWanted        uint64
		minGasMultiplier sdkmath.LegacyDec
		expGasUsed       uint64
		expErr           error
	}{
		{
			name:     "fail - nil block gas meter",
			nilMeter: true,
			expErr:   feemarkettypes.ErrNilBlockGasMeter,
		},
		{
			name:             "consumed gas above the wanted gas share",
			consumed:         700,
			gasWanted:        1000,
			minGasMultiplier: sdkmath.LegacyNewDecWithPrec(50, 2),
			expGasUsed:       700,
		},
		{
			name:             "wanted gas share above the consumed gas",
			consumed:         100,
			gasWanted:        1000,
			minGasMultiplier: sdkmath.LegacyNewDecWithPrec(50, 2),
			expGasUsed:       500,
		},
		{
			name:             "zero multiplier accounts only consumed gas",
			consumed:         100,
			gasWanted:        1000,
			minGasMultiplier: sdkmath.LegacyZeroDec(),
			expGasUsed:       100,
		},
		{
			name:             "fractional wanted gas share is truncated",
			consumed:         0,
			gasWanted:        3,
			minGasMultiplier: sdkmath.LegacyNewDecWithPrec(50, 2),
			expGasUsed:       1,
		},
	}
	for _, tc := range testCases {
		s.Run(tc.name, func() {
			s.RefreshContext()

			if tc.nilMeter {
				s.ctx = s.ctx.WithBlockGasMeter(nil)
			} else {
				s.updateParams(func(params *feemarkettypes.Params) {
					params.MinGasMultiplier = tc.minGasMultiplier
				})

				meter := storetypes.NewGasMeter(uint64(1000000000))
				meter.ConsumeGas(tc.consumed, "consume")
				s.ctx = s.ctx.WithBlockGasMeter(meter)

				_, err := s.keeper.AddTransientGasWanted(s.ctx, tc.gasWanted)
				s.Require().NoError(err)
			}

			gasUsed, err := s.keeper.CalculateBlockGasUsed(s.ctx)
			if tc.expErr != nil {
				s.Require().ErrorIs(err, tc.expErr)
				return
			}

			s.Require().NoError(err)
			s.Require().Equal(tc.expGasUsed, gasUsed)
		})
	}
}
