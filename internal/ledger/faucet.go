package ledger

import (
	"fmt"

	"drtManager/internal/model"
)

// airdrop credits lamports to a wallet when the faucet is enabled.
func (ex *execution) airdrop(ix Instruction) error {
	cfg := ex.ledger.cfg
	if !cfg.FaucetEnabled {
		return fmt.Errorf("faucet disabled: %w", model.ErrUnauthorized)
	}
	if ix.Amount == 0 {
		return fmt.Errorf("airdrop amount must be positive: %w", model.ErrInvalidConfig)
	}
	if cfg.FaucetMaxLamports > 0 && ix.Amount > cfg.FaucetMaxLamports {
		return fmt.Errorf("airdrop %d exceeds limit %d: %w", ix.Amount, cfg.FaucetMaxLamports, model.ErrInvalidConfig)
	}
	if !ix.Pool.IsZero() || ix.DrtType != "" {
		return fmt.Errorf("airdrop does not take a pool: %w", model.ErrInvalidConfig)
	}
	if ix.Recipient.IsZero() {
		return fmt.Errorf("airdrop recipient is empty: %w", model.ErrInvalidConfig)
	}
	if err := ex.bank.Credit(ix.Recipient, ix.Amount); err != nil {
		return err
	}
	ex.receipt.Amount = ix.Amount
	return nil
}
