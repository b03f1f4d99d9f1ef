package ledger

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common/math"

	"drtManager/internal/bank"
	"drtManager/internal/model"
	"drtManager/internal/pda"
	"drtManager/internal/token"
)

// buyDrt sells exactly one unit from the vault for the configured cost.
func (ex *execution) buyDrt(ix Instruction) error {
	pool, err := ex.loadPool(ix.Pool)
	if err != nil {
		return err
	}
	_, drt, err := lookupDrt(&pool, ix.DrtType)
	if err != nil {
		return err
	}
	ex.receipt.DrtType = drt.DrtType.String()
	if !drt.IsMinted {
		return fmt.Errorf("drt %s: %w", drt.DrtType, model.ErrNotMinted)
	}

	vault, err := ex.vaultSigner(ix.Pool, pool)
	if err != nil {
		return err
	}
	vaultHolding, err := pda.HoldingAddress(vault.Address, drt.Mint)
	if err != nil {
		return err
	}
	remaining, err := ex.tokens.Balance(vault.Address, drt.Mint)
	if err != nil {
		return err
	}
	if remaining == 0 {
		return fmt.Errorf("drt %s: %w", drt.DrtType, model.ErrSoldOut)
	}

	need := drt.Cost
	buyerHolding, err := pda.HoldingAddress(ex.signer, drt.Mint)
	if err != nil {
		return err
	}
	if ok, err := ex.bank.Exists(buyerHolding); err != nil {
		return err
	} else if !ok {
		var overflow bool
		need, overflow = math.SafeAdd(need, bank.RentExemptMinimum(model.TokenAccountSize))
		if overflow {
			return fmt.Errorf("buy cost: %w", model.ErrArithmetic)
		}
	}
	funds, err := ex.bank.Balance(ex.signer)
	if err != nil {
		return err
	}
	if funds < need {
		return fmt.Errorf("buyer has %d lamports, needs %d: %w", funds, need, model.ErrInsufficientFunds)
	}

	feeVault, err := ex.ledger.derive.FeeVaultSigner(ix.Pool, pool.FeeVaultBump)
	if err != nil {
		return err
	}
	if err := ex.bank.Transfer(ex.signer, feeVault.Address, drt.Cost); err != nil {
		return err
	}
	if hook := ex.ledger.afterFeeLeg; hook != nil {
		if err := hook(); err != nil {
			return err
		}
	}

	if _, _, err := ex.tokens.CreateHoldingAccount(ex.signer, drt.Mint, ex.signer); err != nil {
		return err
	}
	if err := ex.tokens.Transfer(drt.Mint, vaultHolding, buyerHolding, 1, token.Derived(vault)); err != nil {
		return err
	}
	ex.receipt.Amount = 1
	return nil
}

// redeemDrt burns one unit held by the signer. Redeeming an append DRT
// also mints the pool's reward in ownership tokens.
func (ex *execution) redeemDrt(ix Instruction) error {
	pool, err := ex.loadPool(ix.Pool)
	if err != nil {
		return err
	}
	_, drt, err := lookupDrt(&pool, ix.DrtType)
	if err != nil {
		return err
	}
	ex.receipt.DrtType = drt.DrtType.String()

	holding, err := pda.HoldingAddress(ex.signer, drt.Mint)
	if err != nil {
		return err
	}
	balance, err := ex.tokens.Balance(ex.signer, drt.Mint)
	if err != nil {
		return err
	}
	if balance < 1 {
		return fmt.Errorf("drt %s balance is 0: %w", drt.DrtType, model.ErrInsufficientBalance)
	}
	if err := ex.tokens.Burn(drt.Mint, holding, 1, token.Wallet(ex.signer)); err != nil {
		return err
	}
	ex.receipt.Amount = 1

	if drt.DrtType.RewardsOwnership() {
		ownership, _, err := ex.tokens.CreateHoldingAccount(ex.signer, pool.OwnershipMint, ex.signer)
		if err != nil {
			return err
		}
		poolSigner := ex.ledger.derive.PoolSigner(ix.Pool, pool.Owner, pool.Name, pool.Bump)
		if err := ex.tokens.MintTo(pool.OwnershipMint, ownership, pool.RewardAmount, token.Derived(poolSigner)); err != nil {
			return err
		}
		ex.receipt.Payout = pool.RewardAmount
	}

	ex.receipt.Authorization = &model.Authorization{
		Mint:      drt.Mint,
		GithubURL: drt.GithubURL,
		CodeHash:  drt.CodeHash,
	}
	return nil
}
