package keeper_test

import (
	"math"

	sdk "github.com/cosmos/cosmos-sdk/types"

	feemarketkeeper "github.com/MANTRA-Chain/feemarket/x/feemarket/keeper"
	feemarkettypes "github.com/MANTRA-Chain/feemarket/x/feemarket/types"
)

func (s *KeeperTestSuite) TestSetGetBlockGasUsed() {
	gas, err := s.keeper.GetBlockGasUsed(s.ctx)
	s.Require().NoError(err)
	s.Require().Zero(gas, "not yet recorded")

	s.Require().NoError(s.keeper.SetBlockGasUsed(s.ctx, 12_345))

	gas, err = s.keeper.GetBlockGasUsed(s.ctx)
	s.Require().NoError(err)
	s.Require().Equal(uint64(12_345), gas)
}

func (s *KeeperTestSuite) TestTransientGasWanted() {
	gas, err := s.keeper.GetTransientGasWanted(s.ctx)
	s.Require().NoError(err)
	s.Require().Zero(gas)

	total, err := s.keeper.AddTransientGasWanted(s.ctx, 21_000)
	s.Require().NoError(err)
	s.Require().Equal(uint64(21_000), total)

	total, err = s.keeper.AddTransientGasWanted(s.ctx, 50_000)
	s.Require().NoError(err)
	s.Require().Equal(uint64(71_000), total)

	gas, err = s.keeper.GetTransientGasWanted(s.ctx)
	s.Require().NoError(err)
	s.Require().Equal(uint64(71_000), gas)

	s.Run("overflow is rejected", func() {
		_, err := s.keeper.AddTransientGasWanted(s.ctx, math.MaxUint64)
		s.Require().ErrorIs(err, feemarkettypes.ErrGasOverflow)

		gas, err := s.keeper.GetTransientGasWanted(s.ctx)
		s.Require().NoError(err)
		s.Require().Equal(uint64(71_000), gas, "total must be kept")
	})
}

func (s *KeeperTestSuite) TestNewKeeperPanics() {
	s.Require().Panics(func() {
		feemarketkeeper.NewKeeper(nil, nil, sdk.AccAddress{}, feemarkettypes.DefaultFloorPolicy())
	}, "empty authority")

	s.Require().Panics(func() {
		feemarketkeeper.NewKeeper(nil, nil, s.authority, feemarkettypes.FloorPolicy{
			Source: feemarkettypes.FloorSourceMinGasPrice,
		})
	}, "floor policy without scale")
}
