package ledger

import (
	"fmt"
	"math/big"

	"drtManager/internal/model"
	"drtManager/internal/pda"
	"drtManager/internal/token"
)

// ProRataPayout returns floor(vault * amount / supply).
func ProRataPayout(vault, amount, supply uint64) (uint64, error) {
	if supply == 0 {
		return 0, fmt.Errorf("ownership supply is 0: %w", model.ErrArithmetic)
	}
	product := new(big.Int).Mul(new(big.Int).SetUint64(vault), new(big.Int).SetUint64(amount))
	payout := product.Quo(product, new(big.Int).SetUint64(supply))
	if !payout.IsUint64() {
		return 0, fmt.Errorf("payout %s overflows u64: %w", payout, model.ErrArithmetic)
	}
	return payout.Uint64(), nil
}

// redeemFees burns ownership tokens for a pro-rata share of the fee vault.
func (ex *execution) redeemFees(ix Instruction) error {
	pool, err := ex.loadPool(ix.Pool)
	if err != nil {
		return err
	}
	feeVault, err := ex.ledger.derive.FeeVault(ix.Pool)
	if err != nil {
		return seedError(err)
	}
	signer, err := ex.ledger.derive.FeeVaultSigner(ix.Pool, ix.Bump)
	if err != nil || !signer.Address.Equals(feeVault.Key) {
		return fmt.Errorf("fee vault bump %d does not derive %s: %w", ix.Bump, feeVault.Key, model.ErrUnauthorized)
	}
	if ix.Amount == 0 {
		return fmt.Errorf("ownership amount must be positive: %w", model.ErrInvalidConfig)
	}

	holding, err := pda.HoldingAddress(ex.signer, pool.OwnershipMint)
	if err != nil {
		return err
	}
	balance, err := ex.tokens.Balance(ex.signer, pool.OwnershipMint)
	if err != nil {
		return err
	}
	if ix.Amount > balance {
		return fmt.Errorf("redeem %d ownership units, holding %d: %w", ix.Amount, balance, model.ErrInsufficientBalance)
	}

	available, err := ex.bank.Distributable(feeVault.Key)
	if err != nil {
		return err
	}
	if available == 0 {
		return fmt.Errorf("fee vault %s is empty: %w", feeVault.Key, model.ErrInsufficientFunds)
	}
	mint, err := ex.tokens.Mint(pool.OwnershipMint)
	if err != nil {
		return err
	}
	payout, err := ProRataPayout(available, ix.Amount, mint.Supply)
	if err != nil {
		return err
	}

	if err := ex.tokens.Burn(pool.OwnershipMint, holding, ix.Amount, token.Wallet(ex.signer)); err != nil {
		return err
	}
	if err := ex.bank.Transfer(signer.Address, ex.signer, payout); err != nil {
		return err
	}
	ex.receipt.DrtType = ""
	ex.receipt.Amount = ix.Amount
	ex.receipt.Payout = payout
	return nil
}
