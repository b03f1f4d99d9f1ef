package token

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/gagliardetto/solana-go"

	"drtManager/internal/bank"
	"drtManager/internal/model"
	"drtManager/internal/pda"
)

// Authority is whoever signs a token instruction: either the wallet that
// signed the transaction, or the program acting through a derived address.
type Authority struct {
	Address solana.PublicKey
	program *pda.Signer
}

// Wallet is an authority backed by a verified transaction signature.
func Wallet(key solana.PublicKey) Authority {
	return Authority{Address: key}
}

// Derived is an authority backed by a derivation proof.
func Derived(signer pda.Signer) Authority {
	return Authority{Address: signer.Address, program: &signer}
}

// Program executes token instructions against a bank.
type Program struct {
	bank      *bank.Bank
	programID solana.PublicKey
}

// New returns a token program; programID is the owner of derived authorities.
func New(b *bank.Bank, programID solana.PublicKey) *Program {
	return &Program{bank: b, programID: programID}
}

func (p *Program) check(auth Authority, expected solana.PublicKey) error {
	if !auth.Address.Equals(expected) {
		return fmt.Errorf("authority %s, expected %s: %w", auth.Address, expected, model.ErrUnauthorized)
	}
	if auth.program != nil {
		if err := auth.program.Verify(p.programID); err != nil {
			return fmt.Errorf("program signer %s: %v: %w", auth.Address, err, model.ErrUnauthorized)
		}
	}
	return nil
}

// CreateMint allocates a mint at addr. It fails if the mint already exists.
func (p *Program) CreateMint(payer, addr, authority solana.PublicKey, decimals uint8) error {
	data, err := model.Mint{MintAuthority: authority, Decimals: decimals, IsInitialized: true}.Encode()
	if err != nil {
		return fmt.Errorf("encode mint: %w", err)
	}
	return p.bank.CreateAccount(payer, addr, solana.TokenProgramID, data)
}

// CreateHoldingAccount returns the holding account of owner for mint,
// creating it when missing. created is false when it already existed.
func (p *Program) CreateHoldingAccount(payer, mint, owner solana.PublicKey) (solana.PublicKey, bool, error) {
	addr, err := pda.HoldingAddress(owner, mint)
	if err != nil {
		return solana.PublicKey{}, false, err
	}
	if _, ok, err := p.holding(addr); err != nil || ok {
		return addr, false, err
	}
	if _, err := p.Mint(mint); err != nil {
		return solana.PublicKey{}, false, err
	}
	data, err := model.TokenAccount{Mint: mint, Owner: owner}.Encode()
	if err != nil {
		return solana.PublicKey{}, false, fmt.Errorf("encode token account: %w", err)
	}
	if err := p.bank.CreateAccount(payer, addr, solana.TokenProgramID, data); err != nil {
		return solana.PublicKey{}, false, err
	}
	return addr, true, nil
}

// MintTo credits amount to dst and the mint supply.
func (p *Program) MintTo(mint, dst solana.PublicKey, amount uint64, auth Authority) error {
	m, err := p.Mint(mint)
	if err != nil {
		return err
	}
	if err := p.check(auth, m.MintAuthority); err != nil {
		return err
	}
	acct, err := p.Holding(dst)
	if err != nil {
		return err
	}
	if !acct.Mint.Equals(mint) {
		return fmt.Errorf("holding %s is for mint %s: %w", dst, acct.Mint, model.ErrInvalidAccountData)
	}

	supply, overflow := math.SafeAdd(m.Supply, amount)
	if overflow {
		return fmt.Errorf("mint supply: %w", model.ErrArithmetic)
	}
	balance, overflow := math.SafeAdd(acct.Amount, amount)
	if overflow {
		return fmt.Errorf("holding balance: %w", model.ErrArithmetic)
	}
	m.Supply = supply
	acct.Amount = balance

	if err := p.storeMint(mint, m); err != nil {
		return err
	}
	return p.storeHolding(dst, acct)
}

// Burn removes amount from src and the mint supply.
func (p *Program) Burn(mint, src solana.PublicKey, amount uint64, auth Authority) error {
	m, err := p.Mint(mint)
	if err != nil {
		return err
	}
	acct, err := p.Holding(src)
	if err != nil {
		return err
	}
	if !acct.Mint.Equals(mint) {
		return fmt.Errorf("holding %s is for mint %s: %w", src, acct.Mint, model.ErrInvalidAccountData)
	}
	if err := p.check(auth, acct.Owner); err != nil {
		return err
	}

	balance, underflow := math.SafeSub(acct.Amount, amount)
	if underflow {
		return fmt.Errorf("burn %d from %s holding %d: %w", amount, src, acct.Amount, model.ErrInsufficientBalance)
	}
	supply, underflow := math.SafeSub(m.Supply, amount)
	if underflow {
		return fmt.Errorf("mint supply: %w", model.ErrArithmetic)
	}
	m.Supply = supply
	acct.Amount = balance

	if err := p.storeMint(mint, m); err != nil {
		return err
	}
	return p.storeHolding(src, acct)
}

// Transfer moves amount of mint from src to dst.
func (p *Program) Transfer(mint, src, dst solana.PublicKey, amount uint64, auth Authority) error {
	from, err := p.Holding(src)
	if err != nil {
		return err
	}
	to, err := p.Holding(dst)
	if err != nil {
		return err
	}
	if !from.Mint.Equals(mint) || !to.Mint.Equals(mint) {
		return fmt.Errorf("transfer %s -> %s: mint mismatch: %w", src, dst, model.ErrInvalidAccountData)
	}
	if err := p.check(auth, from.Owner); err != nil {
		return err
	}
	if src.Equals(dst) {
		return nil
	}

	fromBal, underflow := math.SafeSub(from.Amount, amount)
	if underflow {
		return fmt.Errorf("transfer %d from %s holding %d: %w", amount, src, from.Amount, model.ErrInsufficientBalance)
	}
	toBal, overflow := math.SafeAdd(to.Amount, amount)
	if overflow {
		return fmt.Errorf("holding balance: %w", model.ErrArithmetic)
	}
	from.Amount = fromBal
	to.Amount = toBal

	if err := p.storeHolding(src, from); err != nil {
		return err
	}
	return p.storeHolding(dst, to)
}

// Mint loads the mint at addr.
func (p *Program) Mint(addr solana.PublicKey) (model.Mint, error) {
	acct, ok, err := p.bank.Load(addr)
	if err != nil {
		return model.Mint{}, err
	}
	if !ok {
		return model.Mint{}, fmt.Errorf("mint %s: %w", addr, model.ErrNotFound)
	}
	if !acct.Owner.Equals(solana.TokenProgramID) {
		return model.Mint{}, fmt.Errorf("mint %s owned by %s: %w", addr, acct.Owner, model.ErrInvalidAccountData)
	}
	return model.DecodeMint(acct.Data)
}

// Holding loads the token account at addr.
func (p *Program) Holding(addr solana.PublicKey) (model.TokenAccount, error) {
	acct, ok, err := p.holding(addr)
	if err != nil {
		return model.TokenAccount{}, err
	}
	if !ok {
		return model.TokenAccount{}, fmt.Errorf("holding %s: %w", addr, model.ErrNotFound)
	}
	return acct, nil
}

// Balance returns the balance of owner for mint, zero when owner has no
// holding account.
func (p *Program) Balance(owner, mint solana.PublicKey) (uint64, error) {
	addr, err := pda.HoldingAddress(owner, mint)
	if err != nil {
		return 0, err
	}
	acct, ok, err := p.holding(addr)
	if err != nil || !ok {
		return 0, err
	}
	return acct.Amount, nil
}

func (p *Program) holding(addr solana.PublicKey) (model.TokenAccount, bool, error) {
	acct, ok, err := p.bank.Load(addr)
	if err != nil || !ok || bank.IsUninitialized(acct) {
		return model.TokenAccount{}, false, err
	}
	if !acct.Owner.Equals(solana.TokenProgramID) {
		return model.TokenAccount{}, false, fmt.Errorf("holding %s owned by %s: %w", addr, acct.Owner, model.ErrInvalidAccountData)
	}
	ta, err := model.DecodeTokenAccount(acct.Data)
	if err != nil {
		return model.TokenAccount{}, false, err
	}
	return ta, true, nil
}

func (p *Program) storeMint(addr solana.PublicKey, m model.Mint) error {
	data, err := m.Encode()
	if err != nil {
		return fmt.Errorf("encode mint: %w", err)
	}
	return p.bank.WriteData(addr, solana.TokenProgramID, data)
}

func (p *Program) storeHolding(addr solana.PublicKey, acct model.TokenAccount) error {
	data, err := acct.Encode()
	if err != nil {
		return fmt.Errorf("encode token account: %w", err)
	}
	return p.bank.WriteData(addr, solana.TokenProgramID, data)
}
