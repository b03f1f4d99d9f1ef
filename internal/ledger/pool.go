package ledger

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/gagliardetto/solana-go"

	"drtManager/internal/model"
	"drtManager/internal/pda"
	"drtManager/internal/token"
)

func (ex *execution) createPoolWithDrts(ix Instruction) error {
	derive := ex.ledger.derive
	owner := ex.signer

	if ix.Name == "" || len(ix.Name) > model.MaxPoolNameLength {
		return fmt.Errorf("pool name must be 1-%d bytes: %w", model.MaxPoolNameLength, model.ErrInvalidConfig)
	}
	if !utf8.ValidString(ix.Name) {
		return fmt.Errorf("pool name %q is not valid utf-8: %w", ix.Name, model.ErrInvalidConfig)
	}
	if len(ix.Drts) == 0 {
		return fmt.Errorf("at least one drt is required: %w", model.ErrInvalidConfig)
	}
	if ix.OwnershipSupply == 0 {
		return fmt.Errorf("ownership supply must be positive: %w", model.ErrInvalidConfig)
	}
	reward := ix.RewardAmount
	if reward == 0 {
		reward = ex.ledger.cfg.DefaultRewardAmount
	}

	poolAddr, err := derive.Pool(owner, ix.Name)
	if err != nil {
		return seedError(err)
	}
	if ok, err := ex.bank.Exists(poolAddr.Key); err != nil {
		return err
	} else if ok {
		return fmt.Errorf("pool %s: %w", poolAddr.Key, model.ErrAlreadyInitialized)
	}
	ex.receipt.Pool = poolAddr.Key

	vault, err := derive.Vault(poolAddr.Key)
	if err != nil {
		return seedError(err)
	}
	feeVault, err := derive.FeeVault(poolAddr.Key)
	if err != nil {
		return seedError(err)
	}
	ownershipMint, err := derive.OwnershipMint(poolAddr.Key)
	if err != nil {
		return seedError(err)
	}

	pool := model.Pool{
		Owner:         owner,
		Name:          ix.Name,
		Bump:          poolAddr.Bump,
		OwnershipMint: ownershipMint.Key,
		VaultBump:     vault.Bump,
		FeeVaultBump:  feeVault.Bump,
		RewardAmount:  reward,
		Drts:          make([]model.DrtConfig, 0, len(ix.Drts)),
	}

	seen := make(map[model.DrtType]struct{}, len(ix.Drts))
	for _, params := range ix.Drts {
		drtType, err := model.ParseDrtType(params.DrtType)
		if err != nil {
			return err
		}
		if _, dup := seen[drtType]; dup {
			return fmt.Errorf("drt type %s: %w", drtType, model.ErrDuplicateDrtType)
		}
		seen[drtType] = struct{}{}
		if params.Supply == 0 {
			return fmt.Errorf("drt %s supply must be positive: %w", drtType, model.ErrInvalidConfig)
		}
		if params.Cost == 0 {
			return fmt.Errorf("drt %s cost must be positive: %w", drtType, model.ErrInvalidConfig)
		}

		mint, err := derive.DrtMint(poolAddr.Key, drtType.String())
		if err != nil {
			return seedError(err)
		}
		pool.Drts = append(pool.Drts, model.DrtConfig{
			DrtType:   drtType,
			Mint:      mint.Key,
			MintBump:  mint.Bump,
			Supply:    params.Supply,
			Cost:      params.Cost,
			GithubURL: params.GithubURL,
			CodeHash:  params.CodeHash,
		})
	}

	data, err := pool.Encode()
	if err != nil {
		return fmt.Errorf("encode pool: %w", err)
	}
	if err := ex.bank.CreateAccount(owner, poolAddr.Key, ex.ledger.cfg.ProgramID, data); err != nil {
		return err
	}
	if err := ex.bank.CreateAccount(owner, feeVault.Key, ex.ledger.cfg.ProgramID, nil); err != nil {
		return err
	}

	poolSigner := derive.PoolSigner(poolAddr.Key, owner, ix.Name, poolAddr.Bump)
	if err := ex.tokens.CreateMint(owner, ownershipMint.Key, poolSigner.Address, 0); err != nil {
		return err
	}
	holding, _, err := ex.tokens.CreateHoldingAccount(owner, ownershipMint.Key, owner)
	if err != nil {
		return err
	}
	if err := ex.tokens.MintTo(ownershipMint.Key, holding, ix.OwnershipSupply, token.Derived(poolSigner)); err != nil {
		return err
	}

	ex.receipt.Amount = ix.OwnershipSupply
	return nil
}

// loadPool reads and decodes the pool at addr.
func (ex *execution) loadPool(addr solana.PublicKey) (model.Pool, error) {
	return loadPool(ex.bank, ex.ledger.cfg.ProgramID, addr)
}

func (ex *execution) storePool(addr solana.PublicKey, pool model.Pool) error {
	data, err := pool.Encode()
	if err != nil {
		return fmt.Errorf("encode pool: %w", err)
	}
	return ex.bank.WriteData(addr, ex.ledger.cfg.ProgramID, data)
}

type accountLoader interface {
	Load(addr solana.PublicKey) (model.Account, bool, error)
}

func loadPool(b accountLoader, programID, addr solana.PublicKey) (model.Pool, error) {
	acct, ok, err := b.Load(addr)
	if err != nil {
		return model.Pool{}, err
	}
	if !ok {
		return model.Pool{}, fmt.Errorf("pool %s: %w", addr, model.ErrNotFound)
	}
	if !acct.Owner.Equals(programID) || !model.HasDiscriminator(acct.Data, "Pool") {
		return model.Pool{}, fmt.Errorf("account %s is not a pool: %w", addr, model.ErrInvalidAccountData)
	}
	return model.DecodePool(acct.Data)
}

// ownerPool loads a pool and checks the signer owns it.
func (ex *execution) ownerPool(addr solana.PublicKey) (model.Pool, error) {
	pool, err := ex.loadPool(addr)
	if err != nil {
		return model.Pool{}, err
	}
	if !pool.Owner.Equals(ex.signer) {
		return model.Pool{}, fmt.Errorf("pool %s owner is %s: %w", addr, pool.Owner, model.ErrUnauthorized)
	}
	return pool, nil
}

func (ex *execution) vaultSigner(poolAddr solana.PublicKey, pool model.Pool) (pda.Signer, error) {
	return ex.ledger.derive.VaultSigner(poolAddr, pool.VaultBump)
}

func seedError(err error) error {
	if errors.Is(err, pda.ErrSeedTooLong) {
		return fmt.Errorf("%v: %w", err, model.ErrInvalidConfig)
	}
	return err
}

func lookupDrt(pool *model.Pool, name string) (int, *model.DrtConfig, error) {
	drtType, err := model.ParseDrtType(name)
	if err != nil {
		return -1, nil, err
	}
	i, cfg, ok := pool.Drt(drtType)
	if !ok {
		return -1, nil, fmt.Errorf("drt type %s: %w", drtType, model.ErrNotFound)
	}
	return i, cfg, nil
}
