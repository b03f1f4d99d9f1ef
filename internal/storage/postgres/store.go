package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"drtManager/internal/model"
)

// Store provides Postgres persistence for the pool catalog.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// SaveSnapshots writes each pool snapshot in its own transaction: the pool
// row, its DRT instances, and a full replacement of its holdings.
func (s *Store) SaveSnapshots(ctx context.Context, snapshots []model.PoolSnapshot) error {
	for _, snap := range snapshots {
		err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
			if err := upsertPools(ctx, tx, []model.PoolSnapshot{snap}); err != nil {
				return err
			}
			if err := upsertDrtInstances(ctx, tx, snap.Pool.Address, snap.Drts); err != nil {
				return err
			}
			return replaceHoldings(ctx, tx, snap.Pool.Address, snap.Holdings)
		})
		if err != nil {
			return fmt.Errorf("save pool %s: %w", snap.Pool.Address, err)
		}
	}
	return nil
}

// UpsertPools inserts or updates pool rows.
func (s *Store) UpsertPools(ctx context.Context, snapshots []model.PoolSnapshot) error {
	return upsertPools(ctx, s.pool, snapshots)
}

type batchSender interface {
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

func upsertPools(ctx context.Context, db batchSender, snapshots []model.PoolSnapshot) error {
	if len(snapshots) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, snap := range snapshots {
		p := snap.Pool
		batch.Queue(`
			INSERT INTO pools (
				id, address, owner, name, ownership_mint, reward_amount, fee_vault_balance, synced_slot, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now(), now())
			ON CONFLICT (id)
			DO UPDATE SET
				reward_amount = EXCLUDED.reward_amount,
				fee_vault_balance = EXCLUDED.fee_vault_balance,
				synced_slot = GREATEST(pools.synced_slot, EXCLUDED.synced_slot),
				updated_at = now()
		`,
			model.PoolID(p.Address),
			p.Address.String(),
			p.Owner.String(),
			p.Name,
			p.OwnershipMint.String(),
			int64(p.RewardAmount),
			int64(snap.FeeVaultBalance),
			int64(snap.Slot),
		)
	}
	return execBatch(ctx, db, batch)
}

// UpsertDrtInstances inserts or updates the DRT rows of one pool.
func (s *Store) UpsertDrtInstances(ctx context.Context, pool model.PoolView, drts []model.DrtInstance) error {
	return upsertDrtInstances(ctx, s.pool, pool.Address, drts)
}

func upsertDrtInstances(ctx context.Context, db batchSender, poolAddr solana.PublicKey, drts []model.DrtInstance) error {
	if len(drts) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, d := range drts {
		batch.Queue(`
			INSERT INTO drt_instances (
				pool_id, drt_type, mint, supply, cost, github_url, code_hash,
				mint_initialized, is_minted, remaining, sold, updated_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,now())
			ON CONFLICT (pool_id, drt_type)
			DO UPDATE SET
				mint_initialized = EXCLUDED.mint_initialized,
				is_minted = EXCLUDED.is_minted,
				remaining = EXCLUDED.remaining,
				sold = EXCLUDED.sold,
				updated_at = now()
		`,
			model.PoolID(poolAddr),
			d.DrtType,
			d.Mint.String(),
			int64(d.Supply),
			int64(d.Cost),
			d.GithubURL,
			d.CodeHash,
			d.MintInitialized,
			d.IsMinted,
			int64(d.Remaining),
			int64(d.Sold),
		)
	}
	return execBatch(ctx, db, batch)
}

func replaceHoldings(ctx context.Context, tx pgx.Tx, poolAddr solana.PublicKey, holdings []model.Holding) error {
	if _, err := tx.Exec(ctx, `DELETE FROM holdings WHERE pool_id = $1`, model.PoolID(poolAddr)); err != nil {
		return err
	}
	if len(holdings) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, h := range holdings {
		batch.Queue(`
			INSERT INTO holdings (account, pool_id, mint, drt_type, owner, amount, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, now())
			ON CONFLICT (account)
			DO UPDATE SET amount = EXCLUDED.amount, updated_at = now()
		`,
			h.Account.String(),
			model.PoolID(poolAddr),
			h.Mint.String(),
			h.DrtType,
			h.Owner.String(),
			int64(h.Amount),
		)
	}
	return execBatch(ctx, tx, batch)
}

func execBatch(ctx context.Context, db batchSender, batch *pgx.Batch) error {
	br := db.SendBatch(ctx, batch)
	defer br.Close()

	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// LoadState returns last_slot for a name.
func (s *Store) LoadState(ctx context.Context, name string) (uint64, bool, error) {
	if name == "" {
		return 0, false, fmt.Errorf("state name required")
	}
	var slot int64
	row := s.pool.QueryRow(ctx, `SELECT last_slot FROM catalog_state WHERE name=$1`, name)
	if err := row.Scan(&slot); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return uint64(slot), true, nil
}

// SaveState upserts last_slot for a name.
func (s *Store) SaveState(ctx context.Context, name string, slot uint64) error {
	if name == "" {
		return fmt.Errorf("state name required")
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO catalog_state (name, last_slot, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (name) DO UPDATE
		SET last_slot = EXCLUDED.last_slot, updated_at = now()
	`, name, int64(slot))
	return err
}
