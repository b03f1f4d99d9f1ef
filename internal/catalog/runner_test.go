package catalog

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"

	"drtManager/internal/ledger"
	"drtManager/internal/model"
	"drtManager/internal/storage"
)

type memorySink struct {
	mu        sync.Mutex
	failures  int
	calls     int
	snapshots map[solana.PublicKey]model.PoolSnapshot
}

func (s *memorySink) SaveSnapshots(ctx context.Context, snapshots []model.PoolSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.failures > 0 {
		s.failures--
		return errors.New("sink unavailable")
	}
	if s.snapshots == nil {
		s.snapshots = make(map[solana.PublicKey]model.PoolSnapshot)
	}
	for _, snap := range snapshots {
		s.snapshots[snap.Pool.Address] = snap
	}
	return nil
}

type fixture struct {
	ctx    context.Context
	ledger *ledger.Ledger
	nonce  uint64
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	l, err := ledger.New(ledger.Config{FaucetEnabled: true}, storage.NewMemoryKV(), nil, nil, nil)
	require.NoError(t, err)
	return &fixture{ctx: context.Background(), ledger: l}
}

func (f *fixture) exec(t *testing.T, key solana.PrivateKey, ix ledger.Instruction) model.Receipt {
	t.Helper()
	f.nonce++
	tx, err := ledger.NewTransaction(ix, key, f.nonce)
	require.NoError(t, err)
	r, err := f.ledger.Execute(f.ctx, tx)
	require.NoError(t, err)
	return r
}

func (f *fixture) seedPool(t *testing.T, owner solana.PrivateKey, name string) solana.PublicKey {
	t.Helper()
	f.exec(t, owner, ledger.Airdrop(owner.PublicKey(), 10_000_000_000))
	drts := []ledger.DrtParams{{DrtType: "append", Supply: 10, Cost: 1_000, GithubURL: "https://github.com/example/append"}}
	r := f.exec(t, owner, ledger.CreatePoolWithDrts(name, drts, 1_000, 0))
	f.exec(t, owner, ledger.InitializeDrtMint(r.Pool, "append"))
	f.exec(t, owner, ledger.MintDrtSupply(r.Pool, "append"))
	return r.Pool
}

func TestSyncOnceMirrorsTouchedPools(t *testing.T) {
	f := newFixture(t)
	owner := solana.NewWallet().PrivateKey
	poolAddr := f.seedPool(t, owner, "catalog_pool")

	buyer := solana.NewWallet().PrivateKey
	f.exec(t, buyer, ledger.Airdrop(buyer.PublicKey(), 1_000_000_000))
	f.exec(t, buyer, ledger.BuyDrt(poolAddr, "append"))

	sink := &memorySink{}
	state := &FileStateStore{Path: filepath.Join(t.TempDir(), "catalog.json")}
	runner := NewRunner(RunConfig{BatchSize: 2, RetryBackoff: time.Millisecond}, f.ledger, sink, state, nil, nil)

	last, err := runner.SyncOnce(f.ctx)
	require.NoError(t, err)
	latest, err := f.ledger.LatestSlot(f.ctx)
	require.NoError(t, err)
	require.Equal(t, latest, last)

	snap, ok := sink.snapshots[poolAddr]
	require.True(t, ok)
	require.Equal(t, "catalog_pool", snap.Pool.Name)
	require.EqualValues(t, 1_000, snap.FeeVaultBalance)
	require.Len(t, snap.Drts, 1)
	require.EqualValues(t, 9, snap.Drts[0].Remaining)
	require.EqualValues(t, 1, snap.Drts[0].Sold)

	holders := map[solana.PublicKey]uint64{}
	for _, h := range snap.Holdings {
		if h.DrtType == "append" {
			holders[h.Owner] = h.Amount
		}
	}
	require.EqualValues(t, 1, holders[buyer.PublicKey()])

	saved, ok, err := state.Load(f.ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, latest, saved)

	calls := sink.calls
	last, err = runner.SyncOnce(f.ctx)
	require.NoError(t, err)
	require.Equal(t, latest, last)
	require.Equal(t, calls, sink.calls)
}

func TestSyncOnceRetriesSink(t *testing.T) {
	f := newFixture(t)
	poolAddr := f.seedPool(t, solana.NewWallet().PrivateKey, "retry_pool")

	sink := &memorySink{failures: 2}
	runner := NewRunner(RunConfig{BatchSize: 100, MaxRetries: 2, RetryBackoff: time.Millisecond}, f.ledger, sink, nil, nil, nil)
	_, err := runner.SyncOnce(f.ctx)
	require.NoError(t, err)
	require.Equal(t, 3, sink.calls)
	require.Contains(t, sink.snapshots, poolAddr)

	sink = &memorySink{failures: 5}
	runner = NewRunner(RunConfig{BatchSize: 100, MaxRetries: 1, RetryBackoff: time.Millisecond}, f.ledger, sink, nil, nil, nil)
	_, err = runner.SyncOnce(f.ctx)
	require.ErrorContains(t, err, "sink unavailable")
}

func TestSyncOncePoolFilter(t *testing.T) {
	f := newFixture(t)
	first := f.seedPool(t, solana.NewWallet().PrivateKey, "first")
	second := f.seedPool(t, solana.NewWallet().PrivateKey, "second")

	pools, err := ParsePools([]string{second.String(), " "})
	require.NoError(t, err)
	sink := &memorySink{}
	runner := NewRunner(RunConfig{BatchSize: 3, Pools: pools}, f.ledger, sink, nil, nil, nil)
	_, err = runner.SyncOnce(f.ctx)
	require.NoError(t, err)
	require.Contains(t, sink.snapshots, second)
	require.NotContains(t, sink.snapshots, first)

	_, err = ParsePools([]string{"not-a-key"})
	require.Error(t, err)
}

// strayPoolSource adds a receipt naming a pool that has no account.
type strayPoolSource struct {
	*ledger.Ledger
	stray solana.PublicKey
}

func (s strayPoolSource) Receipts(ctx context.Context, from, to uint64) ([]model.Receipt, error) {
	receipts, err := s.Ledger.Receipts(ctx, from, to)
	if err != nil {
		return nil, err
	}
	return append([]model.Receipt{{Slot: from, Instruction: "airdrop", Pool: s.stray}}, receipts...), nil
}

func TestSyncOnceSkipsPoolWithoutAccount(t *testing.T) {
	f := newFixture(t)
	poolAddr := f.seedPool(t, solana.NewWallet().PrivateKey, "real_pool")
	source := strayPoolSource{Ledger: f.ledger, stray: solana.NewWallet().PublicKey()}

	sink := &memorySink{}
	runner := NewRunner(RunConfig{BatchSize: 100, MaxRetries: 3, RetryBackoff: time.Millisecond}, source, sink, nil, nil, nil)
	last, err := runner.SyncOnce(f.ctx)
	require.NoError(t, err)
	latest, err := f.ledger.LatestSlot(f.ctx)
	require.NoError(t, err)
	require.Equal(t, latest, last)
	require.Contains(t, sink.snapshots, poolAddr)
	require.NotContains(t, sink.snapshots, source.stray)
	require.Len(t, sink.snapshots, 1)
}

func TestAirdropCannotNameAPool(t *testing.T) {
	f := newFixture(t)
	key := solana.NewWallet().PrivateKey
	ix := ledger.Airdrop(key.PublicKey(), 1_000)
	ix.Pool = solana.NewWallet().PublicKey()
	tx, err := ledger.NewTransaction(ix, key, 1)
	require.NoError(t, err)
	_, err = f.ledger.Execute(f.ctx, tx)
	require.ErrorIs(t, err, model.ErrInvalidConfig)

	latest, err := f.ledger.LatestSlot(f.ctx)
	require.NoError(t, err)
	require.Zero(t, latest)
}
