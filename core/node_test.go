package core

import (
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"stableamm/config"
	"stableamm/core/events"
	"stableamm/native/stableamm"
	"stableamm/storage"
)

var (
	testAdmin    = common.HexToAddress("0x00000000000000000000000000000000000000ad")
	testAlice    = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	testTreasury = common.HexToAddress("0x00000000000000000000000000000000000000fe")
)

func testGenesis() *config.Genesis {
	return &config.Genesis{
		Admins:           []string{testAdmin.Hex()},
		PooledCurrencies: []string{"DAI", "USDC", "USDT"},
		LpCurrencies:     []string{"3POOL"},
		Balances: []config.GenesisBalance{
			{Account: testAlice.Hex(), Currency: "DAI", Amount: "1000000000000000000000"},
			{Account: testAlice.Hex(), Currency: "USDC", Amount: "1000000000"},
			{Account: testAlice.Hex(), Currency: "USDT", Amount: "1000000000"},
		},
		Pools: []config.GenesisPool{{
			Currencies:       []string{"DAI", "USDC", "USDT"},
			Decimals:         []uint8{18, 6, 6},
			LpCurrency:       "3POOL",
			A:                100,
			Fee:              4_000_000,
			AdminFee:         5_000_000_000,
			AdminFeeReceiver: testTreasury.Hex(),
			LpSymbol:         "3CRV",
			LpDecimals:       18,
		}},
	}
}

func newTestNode(t *testing.T, db storage.Database, sink events.Emitter) *Node {
	t.Helper()
	node, err := NewNode(db, WithEmitter(sink), WithNowFunc(func() int64 { return 1_000_000 }))
	require.NoError(t, err)
	require.NoError(t, node.ApplyGenesis(context.Background(), testGenesis()))
	return node
}

func dec(t *testing.T, s string) *uint256.Int {
	t.Helper()
	v, err := uint256.FromDecimal(s)
	require.NoError(t, err)
	return v
}

func seedLiquidity(t *testing.T, node *Node) {
	t.Helper()
	err := node.Execute(context.Background(), "add_liquidity", func(engine *stableamm.Engine) error {
		_, err := engine.AddLiquidity(stableamm.AddLiquidityRequest{
			Who:           testAlice,
			PoolID:        0,
			Amounts:       []*uint256.Int{dec(t, "100000000000000000000"), uint256.NewInt(100_000_000), uint256.NewInt(100_000_000)},
			MinMintAmount: uint256.NewInt(0),
			Deadline:      node.height + 2,
		})
		return err
	})
	require.NoError(t, err)
}

func TestApplyGenesisRejectsLpBalances(t *testing.T) {
	node, err := NewNode(storage.NewMemDB())
	require.NoError(t, err)
	defer node.Close()

	g := testGenesis()
	g.Balances = append(g.Balances, config.GenesisBalance{Account: testAlice.Hex(), Currency: "3POOL", Amount: "1"})
	require.Error(t, node.ApplyGenesis(context.Background(), g))
	require.Zero(t, node.Height())

	supply, err := node.TotalIssuance("3POOL")
	require.NoError(t, err)
	require.True(t, supply.IsZero())
}

func TestApplyGenesisSeedsStateOnce(t *testing.T) {
	db := storage.NewMemDB()
	sink := &events.Recorder{}
	node := newTestNode(t, db, sink)

	require.Equal(t, uint64(1), node.Height())
	require.Equal(t, []string{stableamm.EventTypePoolCreated}, sink.Types())

	bal, err := node.Balance("USDC", testAlice)
	require.NoError(t, err)
	require.Equal(t, uint64(1_000_000_000), bal.Uint64())

	require.NoError(t, node.Query(func(engine *stableamm.Engine) error {
		count, err := engine.PoolCount()
		require.NoError(t, err)
		require.Equal(t, uint64(1), count)
		id, err := engine.PoolByLpCurrency("3POOL")
		require.NoError(t, err)
		require.Equal(t, stableamm.PoolID(0), id)
		return nil
	}))

	// A restarted node keeps its history and does not replay genesis.
	restarted, err := NewNode(db)
	require.NoError(t, err)
	require.Equal(t, uint64(1), restarted.Height())
	require.NoError(t, restarted.ApplyGenesis(context.Background(), testGenesis()))
	require.Equal(t, uint64(1), restarted.Height())
	bal, err = restarted.Balance("USDC", testAlice)
	require.NoError(t, err)
	require.Equal(t, uint64(1_000_000_000), bal.Uint64())
}

func TestExecuteCommitsAndForwardsEvents(t *testing.T) {
	db := storage.NewMemDB()
	sink := &events.Recorder{}
	node := newTestNode(t, db, sink)
	seedLiquidity(t, node)

	var result *stableamm.SwapResult
	err := node.Execute(context.Background(), "swap", func(engine *stableamm.Engine) error {
		var err error
		result, err = engine.Swap(stableamm.SwapRequest{
			Who:          testAlice,
			PoolID:       0,
			In:           1,
			Out:          2,
			InAmount:     uint256.NewInt(10_000_000),
			MinOutAmount: uint256.NewInt(9_900_000),
			Deadline:     node.height + 2,
		})
		return err
	})
	require.NoError(t, err)
	require.Equal(t, uint64(9_986_015), result.OutAmount.Uint64())
	require.Equal(t, uint64(3_996), result.Fee.Uint64())
	require.Equal(t, uint64(3), node.Height())
	require.Equal(t, []string{
		stableamm.EventTypePoolCreated,
		stableamm.EventTypeLiquidityAdded,
		stableamm.EventTypeSwap,
	}, sink.Types())

	restarted, err := NewNode(db)
	require.NoError(t, err)
	require.Equal(t, uint64(3), restarted.Height())
	bal, err := restarted.Balance("USDT", testAlice)
	require.NoError(t, err)
	require.Equal(t, uint64(1_000_000_000-100_000_000+9_986_015), bal.Uint64())
	supply, err := restarted.TotalIssuance("3POOL")
	require.NoError(t, err)
	require.Equal(t, "300000000000000000000", supply.Dec())
	require.NoError(t, restarted.Query(func(engine *stableamm.Engine) error {
		admin, err := engine.AdminBalances(0)
		require.NoError(t, err)
		require.Equal(t, uint64(1_998), admin[2].Uint64())
		return nil
	}))
}

func TestExecuteDiscardsFailedBlock(t *testing.T) {
	db := storage.NewMemDB()
	sink := &events.Recorder{}
	node := newTestNode(t, db, sink)
	seedLiquidity(t, node)
	before := len(sink.Events())

	boom := errors.New("boom")
	err := node.Execute(context.Background(), "batch", func(engine *stableamm.Engine) error {
		_, err := engine.Swap(stableamm.SwapRequest{
			Who:          testAlice,
			PoolID:       0,
			In:           0,
			Out:          1,
			InAmount:     dec(t, "1000000000000000000"),
			MinOutAmount: uint256.NewInt(0),
			Deadline:     node.height + 2,
		})
		require.NoError(t, err)
		return boom
	})
	require.ErrorIs(t, err, boom)
	require.Equal(t, uint64(2), node.Height())
	require.Len(t, sink.Events(), before)

	bal, err := node.Balance("DAI", testAlice)
	require.NoError(t, err)
	require.Equal(t, "900000000000000000000", bal.Dec())
}

func TestExecuteChecksDeadlineAgainstNextHeight(t *testing.T) {
	node := newTestNode(t, storage.NewMemDB(), nil)
	seedLiquidity(t, node)

	swap := func(deadline uint64) error {
		return node.Execute(context.Background(), "swap", func(engine *stableamm.Engine) error {
			_, err := engine.Swap(stableamm.SwapRequest{
				Who:          testAlice,
				PoolID:       0,
				In:           1,
				Out:          2,
				InAmount:     uint256.NewInt(1_000),
				MinOutAmount: uint256.NewInt(0),
				Deadline:     deadline,
			})
			return err
		})
	}
	require.ErrorIs(t, swap(node.Height()+1), stableamm.ErrDeadline)
	require.NoError(t, swap(node.Height()+2))
}

func TestAdminOperationsRequireGenesisAdmin(t *testing.T) {
	node := newTestNode(t, storage.NewMemDB(), nil)

	err := node.Execute(context.Background(), "set_fee", func(engine *stableamm.Engine) error {
		return engine.SetFee(testAlice, 0, 1_000_000, 0)
	})
	require.ErrorIs(t, err, stableamm.ErrUnauthorized)

	err = node.Execute(context.Background(), "set_fee", func(engine *stableamm.Engine) error {
		return engine.SetFee(testAdmin, 0, 1_000_000, 0)
	})
	require.NoError(t, err)
	require.NoError(t, node.Query(func(engine *stableamm.Engine) error {
		pool, err := engine.Pool(0)
		require.NoError(t, err)
		require.Equal(t, uint64(1_000_000), pool.Fee)
		return nil
	}))
}

func TestClosedNodeRejectsCalls(t *testing.T) {
	node := newTestNode(t, storage.NewMemDB(), nil)
	node.Close()
	node.Close()

	require.ErrorIs(t, node.Execute(context.Background(), "noop", func(*stableamm.Engine) error { return nil }), ErrNodeClosed)
	require.ErrorIs(t, node.Query(func(*stableamm.Engine) error { return nil }), ErrNodeClosed)
	_, err := node.Balance("DAI", testAlice)
	require.ErrorIs(t, err, ErrNodeClosed)
}
