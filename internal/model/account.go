package model

import (
	"github.com/gagliardetto/solana-go"
)

// Account is the stored form of every address: a lamport balance, the
// program that owns the data, and the raw data.
type Account struct {
	Lamports uint64
	Owner    solana.PublicKey
	Data     []byte
}

// Encoded sizes of token state, discriminator included.
const (
	MintSize         = DiscriminatorSize + 32 + 8 + 1 + 1
	TokenAccountSize = DiscriminatorSize + 32 + 32 + 8
)

// Mint is a fungible token mint. Decimals is always zero for DRT and
// ownership mints.
type Mint struct {
	MintAuthority solana.PublicKey `json:"mint_authority"`
	Supply        uint64           `json:"supply"`
	Decimals      uint8            `json:"decimals"`
	IsInitialized bool             `json:"is_initialized"`
}

func (m Mint) Encode() ([]byte, error) {
	return encodeState(mintDiscriminator, m)
}

func DecodeMint(data []byte) (Mint, error) {
	var m Mint
	err := decodeState(mintDiscriminator, data, &m)
	return m, err
}

// TokenAccount holds a balance of one mint for one owner.
type TokenAccount struct {
	Mint   solana.PublicKey `json:"mint"`
	Owner  solana.PublicKey `json:"owner"`
	Amount uint64           `json:"amount"`
}

func (t TokenAccount) Encode() ([]byte, error) {
	return encodeState(tokenAccountDiscriminator, t)
}

func DecodeTokenAccount(data []byte) (TokenAccount, error) {
	var t TokenAccount
	err := decodeState(tokenAccountDiscriminator, data, &t)
	return t, err
}
