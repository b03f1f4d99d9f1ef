package ledger

import (
	"fmt"

	"drtManager/internal/model"
	"drtManager/internal/token"
)

// initializeDrtMint creates the mint reserved for a drt type at pool
// creation, plus the vault holding account that receives its supply.
func (ex *execution) initializeDrtMint(ix Instruction) error {
	pool, err := ex.ownerPool(ix.Pool)
	if err != nil {
		return err
	}
	_, drt, err := lookupDrt(&pool, ix.DrtType)
	if err != nil {
		return err
	}
	if ok, err := ex.bank.Exists(drt.Mint); err != nil {
		return err
	} else if ok {
		return fmt.Errorf("drt mint %s: %w", drt.Mint, model.ErrAlreadyInitialized)
	}

	vault, err := ex.vaultSigner(ix.Pool, pool)
	if err != nil {
		return err
	}
	if err := ex.tokens.CreateMint(ex.signer, drt.Mint, vault.Address, 0); err != nil {
		return err
	}
	if _, _, err := ex.tokens.CreateHoldingAccount(ex.signer, drt.Mint, vault.Address); err != nil {
		return err
	}
	ex.receipt.DrtType = drt.DrtType.String()
	return nil
}

// mintDrtSupply mints the full bounded supply into the vault, once.
func (ex *execution) mintDrtSupply(ix Instruction) error {
	pool, err := ex.ownerPool(ix.Pool)
	if err != nil {
		return err
	}
	i, drt, err := lookupDrt(&pool, ix.DrtType)
	if err != nil {
		return err
	}
	if drt.IsMinted {
		return fmt.Errorf("drt %s: %w", drt.DrtType, model.ErrAlreadyMinted)
	}

	vault, err := ex.vaultSigner(ix.Pool, pool)
	if err != nil {
		return err
	}
	vaultHolding, _, err := ex.tokens.CreateHoldingAccount(ex.signer, drt.Mint, vault.Address)
	if err != nil {
		return err
	}
	if err := ex.tokens.MintTo(drt.Mint, vaultHolding, drt.Supply, token.Derived(vault)); err != nil {
		return err
	}

	pool.Drts[i].IsMinted = true
	if err := ex.storePool(ix.Pool, pool); err != nil {
		return err
	}
	ex.receipt.DrtType = drt.DrtType.String()
	ex.receipt.Amount = drt.Supply
	return nil
}
