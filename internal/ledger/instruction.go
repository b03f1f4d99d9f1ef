package ledger

import (
	"encoding/json"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// InstructionKind selects the state transition a transaction performs.
type InstructionKind uint8

const (
	KindCreatePoolWithDrts InstructionKind = iota
	KindInitializeDrtMint
	KindMintDrtSupply
	KindBuyDrt
	KindRedeemDrt
	KindRedeemFees
	KindAirdrop
)

var kindNames = []string{
	KindCreatePoolWithDrts: "create_pool_with_drts",
	KindInitializeDrtMint:  "initialize_drt_mint",
	KindMintDrtSupply:      "mint_drt_supply",
	KindBuyDrt:             "buy_drt",
	KindRedeemDrt:          "redeem_drt",
	KindRedeemFees:         "redeem_fees",
	KindAirdrop:            "airdrop",
}

func (k InstructionKind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("unknown(%d)", uint8(k))
}

func (k InstructionKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

func (k *InstructionKind) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	for i, known := range kindNames {
		if known == name {
			*k = InstructionKind(i)
			return nil
		}
	}
	return fmt.Errorf("unknown instruction %q", name)
}

// DrtParams describes one DRT type at pool creation.
type DrtParams struct {
	DrtType   string `json:"drt_type"`
	Supply    uint64 `json:"supply"`
	Cost      uint64 `json:"cost"`
	GithubURL string `json:"github_url"`
	CodeHash  string `json:"code_hash,omitempty"`
}

// Instruction is the argument list of a transaction. Fields that a kind
// does not use stay zero.
type Instruction struct {
	Kind            InstructionKind  `json:"kind"`
	Pool            solana.PublicKey `json:"pool"`
	Name            string           `json:"name,omitempty"`
	Drts            []DrtParams      `json:"drts,omitempty"`
	OwnershipSupply uint64           `json:"ownership_supply,omitempty"`
	RewardAmount    uint64           `json:"reward_amount,omitempty"`
	DrtType         string           `json:"drt_type,omitempty"`
	Amount          uint64           `json:"amount,omitempty"`
	Bump            uint8            `json:"bump,omitempty"`
	Recipient       solana.PublicKey `json:"recipient"`
}

// CreatePoolWithDrts builds a pool creation instruction. A zero reward
// amount selects the ledger default.
func CreatePoolWithDrts(name string, drts []DrtParams, ownershipSupply, rewardAmount uint64) Instruction {
	return Instruction{
		Kind:            KindCreatePoolWithDrts,
		Name:            name,
		Drts:            drts,
		OwnershipSupply: ownershipSupply,
		RewardAmount:    rewardAmount,
	}
}

func InitializeDrtMint(pool solana.PublicKey, drtType string) Instruction {
	return Instruction{Kind: KindInitializeDrtMint, Pool: pool, DrtType: drtType}
}

func MintDrtSupply(pool solana.PublicKey, drtType string) Instruction {
	return Instruction{Kind: KindMintDrtSupply, Pool: pool, DrtType: drtType}
}

// BuyDrt buys exactly one unit.
func BuyDrt(pool solana.PublicKey, drtType string) Instruction {
	return Instruction{Kind: KindBuyDrt, Pool: pool, DrtType: drtType}
}

// RedeemDrt burns exactly one unit.
func RedeemDrt(pool solana.PublicKey, drtType string) Instruction {
	return Instruction{Kind: KindRedeemDrt, Pool: pool, DrtType: drtType}
}

func RedeemFees(pool solana.PublicKey, ownershipAmount uint64, feeVaultBump uint8) Instruction {
	return Instruction{Kind: KindRedeemFees, Pool: pool, Amount: ownershipAmount, Bump: feeVaultBump}
}

func Airdrop(recipient solana.PublicKey, lamports uint64) Instruction {
	return Instruction{Kind: KindAirdrop, Recipient: recipient, Amount: lamports}
}
