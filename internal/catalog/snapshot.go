package catalog

import (
	"context"

	"github.com/gagliardetto/solana-go"

	"drtManager/internal/model"
)

func buildSnapshot(ctx context.Context, source Source, addr solana.PublicKey, slot uint64) (model.PoolSnapshot, error) {
	pool, err := source.GetPool(ctx, addr)
	if err != nil {
		return model.PoolSnapshot{}, err
	}
	drts, err := source.ListDrtInstances(ctx, addr)
	if err != nil {
		return model.PoolSnapshot{}, err
	}
	holdings, err := source.ListHoldings(ctx, addr)
	if err != nil {
		return model.PoolSnapshot{}, err
	}
	fees, err := source.FeeVaultBalance(ctx, addr)
	if err != nil {
		return model.PoolSnapshot{}, err
	}
	return model.PoolSnapshot{
		Pool:            pool,
		FeeVaultBalance: fees,
		Drts:            drts,
		Holdings:        holdings,
		Slot:            slot,
	}, nil
}
