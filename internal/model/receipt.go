package model

import (
	"time"

	"github.com/gagliardetto/solana-go"
)

// Authorization is the provenance a redeemed DRT grants to the external
// compute service.
type Authorization struct {
	Mint      solana.PublicKey `json:"mint"`
	GithubURL string           `json:"github_url"`
	CodeHash  string           `json:"code_hash,omitempty"`
}

// Receipt records a committed transaction. Payout is lamports for
// redeem_fees and ownership units for a rewarded redeem_drt.
type Receipt struct {
	Signature     solana.Signature `json:"signature"`
	Slot          uint64           `json:"slot"`
	Instruction   string           `json:"instruction"`
	Signer        solana.PublicKey `json:"signer"`
	Pool          solana.PublicKey `json:"pool"`
	DrtType       string           `json:"drt_type,omitempty"`
	Amount        uint64           `json:"amount,omitempty"`
	Payout        uint64           `json:"payout,omitempty"`
	Authorization *Authorization   `json:"authorization,omitempty"`
	Timestamp     time.Time        `json:"timestamp"`
}
