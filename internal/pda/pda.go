package pda

import (
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

var (
	seedPool          = []byte("pool")
	seedVault         = []byte("vault")
	seedFeeVault      = []byte("fee_vault")
	seedOwnershipMint = []byte("ownership_mint")
	seedDrtMint       = []byte("drt_mint")
)

var (
	ErrSeedTooLong  = errors.New("seed exceeds max seed length")
	ErrSeedMismatch = errors.New("seeds and bump do not derive the expected address")
)

// Address is a derived address with the bump that produced it.
type Address struct {
	Key  solana.PublicKey `json:"address"`
	Bump uint8            `json:"bump"`
}

// Deriver derives program addresses under one program id.
type Deriver struct {
	programID solana.PublicKey
}

func NewDeriver(programID solana.PublicKey) Deriver {
	return Deriver{programID: programID}
}

func (d Deriver) ProgramID() solana.PublicKey {
	return d.programID
}

// Pool derives ["pool", owner, name].
func (d Deriver) Pool(owner solana.PublicKey, name string) (Address, error) {
	return d.find(seedPool, owner[:], []byte(name))
}

// Vault derives ["vault", pool]; it is the authority of every DRT mint and
// the owner of the vault holding accounts.
func (d Deriver) Vault(pool solana.PublicKey) (Address, error) {
	return d.find(seedVault, pool[:])
}

// FeeVault derives ["fee_vault", pool].
func (d Deriver) FeeVault(pool solana.PublicKey) (Address, error) {
	return d.find(seedFeeVault, pool[:])
}

// OwnershipMint derives ["ownership_mint", pool].
func (d Deriver) OwnershipMint(pool solana.PublicKey) (Address, error) {
	return d.find(seedOwnershipMint, pool[:])
}

// DrtMint derives ["drt_mint", pool, drtType].
func (d Deriver) DrtMint(pool solana.PublicKey, drtType string) (Address, error) {
	return d.find(seedDrtMint, pool[:], []byte(drtType))
}

// PoolSigner returns the signer proof for a pool address.
func (d Deriver) PoolSigner(pool solana.PublicKey, owner solana.PublicKey, name string, bump uint8) Signer {
	return Signer{Address: pool, Seeds: [][]byte{seedPool, owner[:], []byte(name)}, Bump: bump}
}

func (d Deriver) VaultSigner(pool solana.PublicKey, bump uint8) (Signer, error) {
	return d.signer(bump, seedVault, pool[:])
}

func (d Deriver) FeeVaultSigner(pool solana.PublicKey, bump uint8) (Signer, error) {
	return d.signer(bump, seedFeeVault, pool[:])
}

func (d Deriver) signer(bump uint8, seeds ...[]byte) (Signer, error) {
	seeds = cloneSeeds(seeds)
	addr, err := create(d.programID, seeds, bump)
	if err != nil {
		return Signer{}, err
	}
	return Signer{Address: addr, Seeds: seeds, Bump: bump}, nil
}

func (d Deriver) find(seeds ...[]byte) (Address, error) {
	for _, seed := range seeds {
		if len(seed) > solana.MaxSeedLength {
			return Address{}, fmt.Errorf("%w: %d bytes", ErrSeedTooLong, len(seed))
		}
	}
	// FindProgramAddress walks bumps from 255 down and skips candidates that
	// land on the ed25519 curve.
	key, bump, err := solana.FindProgramAddress(cloneSeeds(seeds), d.programID)
	if err != nil {
		return Address{}, fmt.Errorf("find program address: %w", err)
	}
	return Address{Key: key, Bump: bump}, nil
}

// Signer lets the program act as a derived address: the seeds plus bump are
// the proof, checked by re-deriving.
type Signer struct {
	Address solana.PublicKey
	Seeds   [][]byte
	Bump    uint8
}

// Verify re-derives the address from the seeds and bump.
func (s Signer) Verify(programID solana.PublicKey) error {
	addr, err := create(programID, s.Seeds, s.Bump)
	if err != nil {
		return err
	}
	if !addr.Equals(s.Address) {
		return ErrSeedMismatch
	}
	return nil
}

func create(programID solana.PublicKey, seeds [][]byte, bump uint8) (solana.PublicKey, error) {
	full := append(cloneSeeds(seeds), []byte{bump})
	addr, err := solana.CreateProgramAddress(full, programID)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("%w: %v", ErrSeedMismatch, err)
	}
	return addr, nil
}

func cloneSeeds(seeds [][]byte) [][]byte {
	out := make([][]byte, len(seeds))
	copy(out, seeds)
	return out
}

// HoldingAddress returns the associated token account of owner for mint.
func HoldingAddress(owner, mint solana.PublicKey) (solana.PublicKey, error) {
	addr, _, err := solana.FindAssociatedTokenAddress(owner, mint)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("find holding address: %w", err)
	}
	return addr, nil
}
