package backend

import (
	"math"

	sdkmath "cosmossdk.io/math"

	rpctypes "github.com/MANTRA-Chain/feemarket/rpc/types"
)

func (suite *BackendTestSuite) TestFeeHistory() {
	testCases := []struct {
		name        string
		blockCount  uint64
		lastBlock   rpctypes.BlockNumber
		percentiles []float64
		expPass     bool
		expErr      string
		expOldest   int64
		expBlocks   int
	}{
		{
			name:       "pass - window ending at latest",
			blockCount: 3,
			lastBlock:  rpctypes.EthLatestBlockNumber,
			expPass:    true,
			expOldest:  3,
			expBlocks:  3,
		},
		{
			name:        "pass - window ending at explicit height with rewards",
			blockCount:  2,
			lastBlock:   rpctypes.BlockNumber(4),
			percentiles: []float64{25, 75},
			expPass:     true,
			expOldest:   3,
			expBlocks:   2,
		},
		{
			name:       "pass - window clamped to the first block",
			blockCount: 100,
			lastBlock:  rpctypes.EthLatestBlockNumber,
			expPass:    true,
			expOldest:  1,
			expBlocks:  5,
		},
		{
			name:       "fail - zero block count",
			blockCount: 0,
			lastBlock:  rpctypes.EthLatestBlockNumber,
			expPass:    false,
		},
		{
			name:       "fail - window beyond the head",
			blockCount: 4,
			lastBlock:  rpctypes.BlockNumber(math.MaxInt64),
			expPass:    false,
			expErr:     "request beyond head block: requested 9223372036854775807",
		},
		{
			name:        "fail - decreasing percentiles",
			blockCount:  4,
			lastBlock:   rpctypes.EthLatestBlockNumber,
			percentiles: []float64{2, 1},
			expPass:     false,
			expErr:      "invalid reward percentile",
		},
	}
	for _, tc := range testCases {
		suite.Run(tc.name, func() {
			fh, err := suite.backend.FeeHistory(suite.ctx, tc.blockCount, tc.lastBlock, tc.percentiles)
			if !tc.expPass {
				suite.Require().Error(err)
				if tc.expErr != "" {
					suite.Require().ErrorContains(err, tc.expErr)
				}
				return
			}

			suite.Require().NoError(err)
			suite.Require().Equal(tc.expOldest, fh.OldestBlock)
			suite.Require().Equal(tc.expBlocks, fh.Blocks())
			suite.Require().Len(fh.BaseFees, tc.expBlocks+1)
			if len(tc.percentiles) > 0 {
				suite.Require().Len(fh.Rewards, tc.expBlocks)
				suite.Require().Len(fh.Rewards[0], len(tc.percentiles))
			}

			for i := 0; i < fh.Blocks(); i++ {
				view, found := suite.chain.Block(fh.OldestBlock + int64(i))
				suite.Require().True(found)
				suite.Require().True(view.BaseFee.Equal(fh.BaseFees[i]))
			}
		})
	}
}

func (suite *BackendTestSuite) TestGasPrice() {
	suite.chain.SetTip(sdkmath.LegacyNewDec(2_000_000))

	tip, err := suite.backend.MaxPriorityFeePerGas(suite.ctx)
	suite.Require().NoError(err)
	suite.Require().True(tip.Equal(sdkmath.LegacyNewDec(2_000_000)))

	price, err := suite.backend.GasPrice(suite.ctx)
	suite.Require().NoError(err)
	suite.Require().True(price.Equal(suite.chain.Head().BaseFee.Add(tip)))
}
