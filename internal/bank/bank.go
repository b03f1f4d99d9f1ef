package bank

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/gagliardetto/solana-go"

	"drtManager/internal/model"
	"drtManager/internal/storage"
)

const (
	AccountStorageOverhead = 128
	LamportsPerByteYear    = 3480
	ExemptionYears         = 2
)

// RentExemptMinimum is the balance an account of dataLen bytes must hold.
func RentExemptMinimum(dataLen int) uint64 {
	return uint64(AccountStorageOverhead+dataLen) * LamportsPerByteYear * ExemptionYears
}

// Bank reads and writes accounts inside one storage transaction.
type Bank struct {
	tx storage.Tx
}

func New(tx storage.Tx) *Bank {
	return &Bank{tx: tx}
}

// Load returns the account at addr, or ok=false if none exists.
func (b *Bank) Load(addr solana.PublicKey) (model.Account, bool, error) {
	raw, err := b.tx.Get(storage.AccountsBucket, addr[:])
	if err != nil {
		if errors.Is(err, storage.ErrNotExist) {
			return model.Account{}, false, nil
		}
		return model.Account{}, false, fmt.Errorf("load account %s: %w", addr, err)
	}
	var acct model.Account
	if err := model.DecodeBorsh(raw, &acct); err != nil {
		return model.Account{}, false, fmt.Errorf("decode account %s: %v: %w", addr, err, model.ErrInvalidAccountData)
	}
	return acct, true, nil
}

// Store writes acct at addr.
func (b *Bank) Store(addr solana.PublicKey, acct model.Account) error {
	raw, err := model.EncodeBorsh(acct)
	if err != nil {
		return fmt.Errorf("encode account %s: %w", addr, err)
	}
	if err := b.tx.Put(storage.AccountsBucket, addr[:], raw); err != nil {
		return fmt.Errorf("store account %s: %w", addr, err)
	}
	return nil
}

// Exists reports whether an initialized account is stored at addr. A system
// account holding only lamports does not count.
func (b *Bank) Exists(addr solana.PublicKey) (bool, error) {
	acct, ok, err := b.Load(addr)
	return ok && !IsUninitialized(acct), err
}

// Balance returns the lamports at addr, zero for a missing account.
func (b *Bank) Balance(addr solana.PublicKey) (uint64, error) {
	acct, _, err := b.Load(addr)
	if err != nil {
		return 0, err
	}
	return acct.Lamports, nil
}

// Credit adds lamports to addr, creating a system account if needed.
func (b *Bank) Credit(addr solana.PublicKey, lamports uint64) error {
	acct, ok, err := b.Load(addr)
	if err != nil {
		return err
	}
	if !ok {
		acct = model.Account{Owner: solana.SystemProgramID}
	}
	sum, overflow := math.SafeAdd(acct.Lamports, lamports)
	if overflow {
		return fmt.Errorf("credit %s: %w", addr, model.ErrArithmetic)
	}
	acct.Lamports = sum
	return b.Store(addr, acct)
}

// Debit removes lamports from addr.
func (b *Bank) Debit(addr solana.PublicKey, lamports uint64) error {
	acct, ok, err := b.Load(addr)
	if err != nil {
		return err
	}
	diff, underflow := math.SafeSub(acct.Lamports, lamports)
	if !ok || underflow {
		return fmt.Errorf("debit %d lamports from %s: %w", lamports, addr, model.ErrInsufficientFunds)
	}
	acct.Lamports = diff
	return b.Store(addr, acct)
}

// Transfer moves lamports from one account to another.
func (b *Bank) Transfer(from, to solana.PublicKey, lamports uint64) error {
	if lamports == 0 {
		return nil
	}
	if err := b.Debit(from, lamports); err != nil {
		return err
	}
	return b.Credit(to, lamports)
}

// CreateAccount allocates addr for owner with data, funded by payer up to the
// rent-exempt minimum. A system account holding only lamports is taken over
// and keeps its balance; any other existing account is AlreadyInitialized.
func (b *Bank) CreateAccount(payer, addr, owner solana.PublicKey, data []byte) error {
	acct, ok, err := b.Load(addr)
	if err != nil {
		return err
	}
	if ok && !IsUninitialized(acct) {
		return fmt.Errorf("create account %s: %w", addr, model.ErrAlreadyInitialized)
	}
	rent := RentExemptMinimum(len(data))
	if acct.Lamports < rent {
		if err := b.Transfer(payer, addr, rent-acct.Lamports); err != nil {
			return fmt.Errorf("fund rent for %s: %w", addr, err)
		}
		if acct, _, err = b.Load(addr); err != nil {
			return err
		}
	}
	acct.Owner = owner
	acct.Data = data
	return b.Store(addr, acct)
}

// IsUninitialized reports whether acct is a plain system account with no data.
func IsUninitialized(acct model.Account) bool {
	return acct.Owner.Equals(solana.SystemProgramID) && len(acct.Data) == 0
}

// WriteData replaces the data of an existing account owned by owner.
func (b *Bank) WriteData(addr, owner solana.PublicKey, data []byte) error {
	acct, ok, err := b.Load(addr)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("write %s: %w", addr, model.ErrNotFound)
	}
	if !acct.Owner.Equals(owner) {
		return fmt.Errorf("write %s owned by %s: %w", addr, acct.Owner, model.ErrUnauthorized)
	}
	acct.Data = data
	return b.Store(addr, acct)
}

// Distributable returns the lamports above the rent reserve of addr.
func (b *Bank) Distributable(addr solana.PublicKey) (uint64, error) {
	acct, ok, err := b.Load(addr)
	if err != nil || !ok {
		return 0, err
	}
	reserve := RentExemptMinimum(len(acct.Data))
	if acct.Lamports <= reserve {
		return 0, nil
	}
	return acct.Lamports - reserve, nil
}
