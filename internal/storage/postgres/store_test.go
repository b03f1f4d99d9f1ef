package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"

	"drtManager/internal/model"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("DRT_TEST_PG_DSN")
	if dsn == "" {
		t.Skip("DRT_TEST_PG_DSN not set")
	}
	ctx := context.Background()
	require.NoError(t, Migrate(ctx, dsn, nil))
	s, err := NewStore(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func TestSaveSnapshotsReplacesHoldings(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	addr := solana.NewWallet().PublicKey()
	mint := solana.NewWallet().PublicKey()
	holder := solana.NewWallet().PublicKey()
	snap := model.PoolSnapshot{
		Pool: model.PoolView{Address: addr, Pool: model.Pool{
			Owner:         solana.NewWallet().PublicKey(),
			Name:          "pg_pool",
			OwnershipMint: solana.NewWallet().PublicKey(),
			RewardAmount:  1,
		}},
		Drts: []model.DrtInstance{{Pool: addr, DrtType: "append", Mint: mint, Supply: 10, Cost: 5, IsMinted: true, Remaining: 9, Sold: 1}},
		Holdings: []model.Holding{
			{Pool: addr, Mint: mint, DrtType: "append", Owner: holder, Account: solana.NewWallet().PublicKey(), Amount: 1},
		},
		Slot: 7,
	}
	require.NoError(t, s.SaveSnapshots(ctx, []model.PoolSnapshot{snap}))

	snap.Holdings = nil
	snap.Drts[0].Remaining, snap.Drts[0].Sold = 10, 0
	snap.Slot = 3
	require.NoError(t, s.SaveSnapshots(ctx, []model.PoolSnapshot{snap}))

	id := model.PoolID(addr)
	var holdings int
	require.NoError(t, s.pool.QueryRow(ctx, `SELECT count(*) FROM holdings WHERE pool_id=$1`, id).Scan(&holdings))
	require.Zero(t, holdings)

	var slot, remaining int64
	require.NoError(t, s.pool.QueryRow(ctx, `SELECT synced_slot FROM pools WHERE id=$1`, id).Scan(&slot))
	require.EqualValues(t, 7, slot)
	require.NoError(t, s.pool.QueryRow(ctx, `SELECT remaining FROM drt_instances WHERE pool_id=$1`, id).Scan(&remaining))
	require.EqualValues(t, 10, remaining)
}

func TestCatalogState(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	name := "test-" + solana.NewWallet().PublicKey().String()

	_, ok, err := s.LoadState(ctx, name)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, s.SaveState(ctx, name, 42))
	slot, ok, err := s.LoadState(ctx, name)
	require.NoError(t, err)
	require.True(t, ok)
	require.EqualValues(t, 42, slot)
}
