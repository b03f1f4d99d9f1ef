package ledger

import (
	"fmt"

	"github.com/gagliardetto/solana-go"

	"drtManager/internal/model"
)

// Transaction is a signed instruction. Its id is the base58 signature.
type Transaction struct {
	Instruction Instruction      `json:"instruction"`
	Signer      solana.PublicKey `json:"signer"`
	Nonce       uint64           `json:"nonce"`
	Signature   solana.Signature `json:"signature"`
}

type message struct {
	Instruction Instruction
	Signer      solana.PublicKey
	Nonce       uint64
}

// Message returns the bytes covered by the signature.
func (t Transaction) Message() ([]byte, error) {
	return model.EncodeBorsh(message{Instruction: t.Instruction, Signer: t.Signer, Nonce: t.Nonce})
}

// NewTransaction signs ix with key. The nonce distinguishes otherwise
// identical transactions, such as repeated single-unit buys.
func NewTransaction(ix Instruction, key solana.PrivateKey, nonce uint64) (Transaction, error) {
	tx := Transaction{Instruction: ix, Signer: key.PublicKey(), Nonce: nonce}
	msg, err := tx.Message()
	if err != nil {
		return Transaction{}, fmt.Errorf("encode message: %w", err)
	}
	sig, err := key.Sign(msg)
	if err != nil {
		return Transaction{}, fmt.Errorf("sign transaction: %w", err)
	}
	tx.Signature = sig
	return tx, nil
}

// Verify checks the signature against the signer.
func (t Transaction) Verify() error {
	if t.Signer.IsZero() || t.Signature == (solana.Signature{}) {
		return fmt.Errorf("missing signer or signature: %w", model.ErrUnauthorized)
	}
	msg, err := t.Message()
	if err != nil {
		return fmt.Errorf("encode message: %v: %w", err, model.ErrInvalidConfig)
	}
	if !t.Signature.Verify(t.Signer, msg) {
		return fmt.Errorf("bad signature: %w", model.ErrUnauthorized)
	}
	return nil
}
