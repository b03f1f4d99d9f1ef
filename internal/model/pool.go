package model

import (
	"github.com/gagliardetto/solana-go"
	"github.com/google/uuid"
)

// MaxPoolNameLength bounds a pool name; it is used as a derivation seed.
const MaxPoolNameLength = 32

// Pool is the on-ledger pool record.
type Pool struct {
	Owner         solana.PublicKey `json:"owner"`
	Name          string           `json:"name"`
	Bump          uint8            `json:"bump"`
	OwnershipMint solana.PublicKey `json:"ownership_mint"`
	VaultBump     uint8            `json:"vault_bump"`
	FeeVaultBump  uint8            `json:"fee_vault_bump"`
	RewardAmount  uint64           `json:"reward_amount"`
	Drts          []DrtConfig      `json:"drts"`
}

func (p Pool) Encode() ([]byte, error) {
	return encodeState(poolDiscriminator, p)
}

func DecodePool(data []byte) (Pool, error) {
	var p Pool
	err := decodeState(poolDiscriminator, data, &p)
	return p, err
}

// Drt returns the index and entry of a drt type.
func (p *Pool) Drt(t DrtType) (int, *DrtConfig, bool) {
	for i := range p.Drts {
		if p.Drts[i].DrtType == t {
			return i, &p.Drts[i], true
		}
	}
	return -1, nil, false
}

var poolNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("drt://pool"))

// PoolID is the stable catalog id of the pool at addr.
func PoolID(addr solana.PublicKey) uuid.UUID {
	return uuid.NewSHA1(poolNamespace, addr[:])
}

// PoolView is a pool record together with its address.
type PoolView struct {
	Address solana.PublicKey `json:"address"`
	Pool
}

// PoolSnapshot is the reconciled catalog state of one pool at a slot.
type PoolSnapshot struct {
	Pool            PoolView      `json:"pool"`
	FeeVaultBalance uint64        `json:"fee_vault_balance"`
	Drts            []DrtInstance `json:"drts"`
	Holdings        []Holding     `json:"holdings"`
	Slot            uint64        `json:"slot"`
}
