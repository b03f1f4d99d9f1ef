package ledger

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/gagliardetto/solana-go"

	"drtManager/internal/bank"
	"drtManager/internal/model"
	"drtManager/internal/pda"
	"drtManager/internal/storage"
	"drtManager/internal/token"
)

// view runs fn against committed state.
func (l *Ledger) view(ctx context.Context, fn func(b *bank.Bank, tokens *token.Program) error) error {
	return l.store.View(ctx, func(tx storage.Tx) error {
		b := bank.New(tx)
		return fn(b, token.New(b, l.cfg.ProgramID))
	})
}

// GetPool returns the pool stored at addr.
func (l *Ledger) GetPool(ctx context.Context, addr solana.PublicKey) (model.PoolView, error) {
	var out model.PoolView
	err := l.view(ctx, func(b *bank.Bank, _ *token.Program) error {
		pool, err := loadPool(b, l.cfg.ProgramID, addr)
		if err != nil {
			return err
		}
		out = model.PoolView{Address: addr, Pool: pool}
		return nil
	})
	return out, err
}

// ListPools returns every pool in address order.
func (l *Ledger) ListPools(ctx context.Context) ([]model.PoolView, error) {
	var out []model.PoolView
	err := l.store.View(ctx, func(tx storage.Tx) error {
		return tx.ForEach(storage.AccountsBucket, func(key, value []byte) error {
			var acct model.Account
			if err := model.DecodeBorsh(value, &acct); err != nil {
				return fmt.Errorf("decode account %x: %w", key, err)
			}
			if !acct.Owner.Equals(l.cfg.ProgramID) || !model.HasDiscriminator(acct.Data, "Pool") {
				return nil
			}
			pool, err := model.DecodePool(acct.Data)
			if err != nil {
				return err
			}
			out = append(out, model.PoolView{Address: solana.PublicKeyFromBytes(key), Pool: pool})
			return nil
		})
	})
	return out, err
}

// ListDrtInstances reports every DRT type of a pool with its vault state.
func (l *Ledger) ListDrtInstances(ctx context.Context, poolAddr solana.PublicKey) ([]model.DrtInstance, error) {
	var out []model.DrtInstance
	err := l.view(ctx, func(b *bank.Bank, tokens *token.Program) error {
		pool, err := loadPool(b, l.cfg.ProgramID, poolAddr)
		if err != nil {
			return err
		}
		vault, err := l.derive.VaultSigner(poolAddr, pool.VaultBump)
		if err != nil {
			return err
		}
		out = make([]model.DrtInstance, 0, len(pool.Drts))
		for _, drt := range pool.Drts {
			inst := model.DrtInstance{
				Pool:      poolAddr,
				DrtType:   drt.DrtType.String(),
				Mint:      drt.Mint,
				Supply:    drt.Supply,
				Cost:      drt.Cost,
				GithubURL: drt.GithubURL,
				CodeHash:  drt.CodeHash,
				IsMinted:  drt.IsMinted,
			}
			if inst.MintInitialized, err = b.Exists(drt.Mint); err != nil {
				return err
			}
			if inst.MintInitialized {
				if inst.Remaining, err = tokens.Balance(vault.Address, drt.Mint); err != nil {
					return err
				}
			}
			if drt.IsMinted && inst.Remaining <= drt.Supply {
				inst.Sold = drt.Supply - inst.Remaining
			}
			out = append(out, inst)
		}
		return nil
	})
	return out, err
}

// ListHoldings returns the non-zero balances of a pool's ownership and
// DRT mints.
func (l *Ledger) ListHoldings(ctx context.Context, poolAddr solana.PublicKey) ([]model.Holding, error) {
	var out []model.Holding
	err := l.store.View(ctx, func(tx storage.Tx) error {
		pool, err := loadPool(bank.New(tx), l.cfg.ProgramID, poolAddr)
		if err != nil {
			return err
		}
		types := map[solana.PublicKey]string{pool.OwnershipMint: ""}
		for _, drt := range pool.Drts {
			types[drt.Mint] = drt.DrtType.String()
		}
		return tx.ForEach(storage.AccountsBucket, func(key, value []byte) error {
			var acct model.Account
			if err := model.DecodeBorsh(value, &acct); err != nil {
				return fmt.Errorf("decode account %x: %w", key, err)
			}
			if !acct.Owner.Equals(solana.TokenProgramID) || !model.HasDiscriminator(acct.Data, "TokenAccount") {
				return nil
			}
			ta, err := model.DecodeTokenAccount(acct.Data)
			if err != nil {
				return err
			}
			drtType, ok := types[ta.Mint]
			if !ok || ta.Amount == 0 {
				return nil
			}
			out = append(out, model.Holding{
				Pool:    poolAddr,
				Mint:    ta.Mint,
				DrtType: drtType,
				Owner:   ta.Owner,
				Account: solana.PublicKeyFromBytes(key),
				Amount:  ta.Amount,
			})
			return nil
		})
	})
	return out, err
}

// Balance returns the lamports held at addr.
func (l *Ledger) Balance(ctx context.Context, addr solana.PublicKey) (uint64, error) {
	var out uint64
	err := l.view(ctx, func(b *bank.Bank, _ *token.Program) error {
		var err error
		out, err = b.Balance(addr)
		return err
	})
	return out, err
}

// TokenBalance returns the balance of owner's holding account for mint.
func (l *Ledger) TokenBalance(ctx context.Context, owner, mint solana.PublicKey) (uint64, error) {
	var out uint64
	err := l.view(ctx, func(_ *bank.Bank, tokens *token.Program) error {
		var err error
		out, err = tokens.Balance(owner, mint)
		return err
	})
	return out, err
}

// FeeVaultBalance returns the distributable lamports of a pool's fee vault.
func (l *Ledger) FeeVaultBalance(ctx context.Context, poolAddr solana.PublicKey) (uint64, error) {
	feeVault, err := l.derive.FeeVault(poolAddr)
	if err != nil {
		return 0, err
	}
	var out uint64
	err = l.view(ctx, func(b *bank.Bank, _ *token.Program) error {
		out, err = b.Distributable(feeVault.Key)
		return err
	})
	return out, err
}

// HoldingAddress is the holding account of owner for mint.
func (l *Ledger) HoldingAddress(owner, mint solana.PublicKey) (solana.PublicKey, error) {
	return pda.HoldingAddress(owner, mint)
}

// Receipts returns committed receipts with from <= slot <= to. A zero to
// reads through the latest slot.
func (l *Ledger) Receipts(ctx context.Context, from, to uint64) ([]model.Receipt, error) {
	if to == 0 {
		to = math.MaxUint64
	}
	if from > to {
		return nil, nil
	}
	var out []model.Receipt
	err := l.store.View(ctx, func(tx storage.Tx) error {
		return tx.Range(storage.ReceiptsBucket, slotKey(from), slotKey(to), func(_, value []byte) error {
			var r model.Receipt
			if err := json.Unmarshal(value, &r); err != nil {
				return fmt.Errorf("decode receipt: %w", err)
			}
			out = append(out, r)
			return nil
		})
	})
	return out, err
}

// LatestSlot returns the slot of the last committed transaction.
func (l *Ledger) LatestSlot(ctx context.Context) (uint64, error) {
	var slot uint64
	err := l.store.View(ctx, func(tx storage.Tx) error {
		raw, err := tx.Get(storage.MetaBucket, latestSlotKey)
		if errors.Is(err, storage.ErrNotExist) {
			return nil
		}
		if err != nil {
			return err
		}
		slot = binary.BigEndian.Uint64(raw)
		return nil
	})
	return slot, err
}
