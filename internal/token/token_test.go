package token

import (
	"context"
	"errors"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"

	"drtManager/internal/bank"
	"drtManager/internal/model"
	"drtManager/internal/pda"
	"drtManager/internal/storage"
)

var testProgramID = solana.MustPublicKeyFromBase58("Fg6PaFpoGXkYsidMpWTK6W2BeZ7FEfcYkg476zPFsLnS")

type fixture struct {
	kv        *storage.MemoryKV
	payer     solana.PublicKey
	mint      solana.PublicKey
	authority pda.Signer
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	d := pda.NewDeriver(testProgramID)
	payer := solana.NewWallet().PublicKey()
	pool, err := d.Pool(payer, "token-test")
	require.NoError(t, err)
	vault, err := d.Vault(pool.Key)
	require.NoError(t, err)
	signer, err := d.VaultSigner(pool.Key, vault.Bump)
	require.NoError(t, err)
	mint, err := d.DrtMint(pool.Key, "append")
	require.NoError(t, err)

	f := fixture{kv: storage.NewMemoryKV(), payer: payer, mint: mint.Key, authority: signer}
	f.update(t, func(p *Program, b *bank.Bank) error {
		if err := b.Credit(payer, 100_000_000); err != nil {
			return err
		}
		return p.CreateMint(payer, mint.Key, signer.Address, 0)
	})
	return f
}

func (f fixture) update(t *testing.T, fn func(p *Program, b *bank.Bank) error) {
	t.Helper()
	err := f.kv.Update(context.Background(), func(tx storage.Tx) error {
		b := bank.New(tx)
		return fn(New(b, testProgramID), b)
	})
	require.NoError(t, err)
}

func (f fixture) try(fn func(p *Program, b *bank.Bank) error) error {
	return f.kv.Update(context.Background(), func(tx storage.Tx) error {
		b := bank.New(tx)
		return fn(New(b, testProgramID), b)
	})
}

func TestCreateMintTwiceFails(t *testing.T) {
	f := newFixture(t)
	err := f.try(func(p *Program, _ *bank.Bank) error {
		return p.CreateMint(f.payer, f.mint, f.authority.Address, 0)
	})
	require.ErrorIs(t, err, model.ErrAlreadyInitialized)
}

func TestCreateHoldingAccountIdempotent(t *testing.T) {
	f := newFixture(t)
	owner := solana.NewWallet().PublicKey()

	var first, second solana.PublicKey
	var payerAfterFirst uint64
	f.update(t, func(p *Program, b *bank.Bank) error {
		addr, created, err := p.CreateHoldingAccount(f.payer, f.mint, owner)
		require.NoError(t, err)
		require.True(t, created)
		first = addr
		payerAfterFirst, err = b.Balance(f.payer)
		return err
	})
	f.update(t, func(p *Program, b *bank.Bank) error {
		addr, created, err := p.CreateHoldingAccount(f.payer, f.mint, owner)
		require.NoError(t, err)
		require.False(t, created)
		second = addr
		bal, err := b.Balance(f.payer)
		require.NoError(t, err)
		require.Equal(t, payerAfterFirst, bal)
		return nil
	})
	require.Equal(t, first, second)
}

func TestMintToRequiresAuthority(t *testing.T) {
	f := newFixture(t)
	owner := solana.NewWallet().PublicKey()
	var holding solana.PublicKey
	f.update(t, func(p *Program, _ *bank.Bank) error {
		var err error
		holding, _, err = p.CreateHoldingAccount(f.payer, f.mint, owner)
		return err
	})

	err := f.try(func(p *Program, _ *bank.Bank) error {
		return p.MintTo(f.mint, holding, 10, Wallet(f.payer))
	})
	require.ErrorIs(t, err, model.ErrUnauthorized)

	forged := f.authority
	forged.Bump++
	err = f.try(func(p *Program, _ *bank.Bank) error {
		return p.MintTo(f.mint, holding, 10, Derived(forged))
	})
	require.ErrorIs(t, err, model.ErrUnauthorized)

	f.update(t, func(p *Program, _ *bank.Bank) error {
		require.NoError(t, p.MintTo(f.mint, holding, 10, Derived(f.authority)))
		m, err := p.Mint(f.mint)
		require.NoError(t, err)
		require.Equal(t, uint64(10), m.Supply)
		bal, err := p.Balance(owner, f.mint)
		require.NoError(t, err)
		require.Equal(t, uint64(10), bal)
		return nil
	})
}

func TestBurnAndTransfer(t *testing.T) {
	f := newFixture(t)
	alice := solana.NewWallet().PublicKey()
	bob := solana.NewWallet().PublicKey()
	var aliceHolding, bobHolding solana.PublicKey
	f.update(t, func(p *Program, _ *bank.Bank) error {
		var err error
		aliceHolding, _, err = p.CreateHoldingAccount(f.payer, f.mint, alice)
		require.NoError(t, err)
		bobHolding, _, err = p.CreateHoldingAccount(f.payer, f.mint, bob)
		require.NoError(t, err)
		return p.MintTo(f.mint, aliceHolding, 5, Derived(f.authority))
	})

	err := f.try(func(p *Program, _ *bank.Bank) error {
		return p.Transfer(f.mint, aliceHolding, bobHolding, 6, Wallet(alice))
	})
	require.ErrorIs(t, err, model.ErrInsufficientBalance)

	err = f.try(func(p *Program, _ *bank.Bank) error {
		return p.Transfer(f.mint, aliceHolding, bobHolding, 1, Wallet(bob))
	})
	require.ErrorIs(t, err, model.ErrUnauthorized)

	f.update(t, func(p *Program, _ *bank.Bank) error {
		require.NoError(t, p.Transfer(f.mint, aliceHolding, bobHolding, 2, Wallet(alice)))
		require.NoError(t, p.Burn(f.mint, bobHolding, 1, Wallet(bob)))
		return nil
	})

	err = f.try(func(p *Program, _ *bank.Bank) error {
		return p.Burn(f.mint, bobHolding, 2, Wallet(bob))
	})
	if !errors.Is(err, model.ErrInsufficientBalance) {
		t.Fatalf("expected insufficient balance, got %v", err)
	}

	f.update(t, func(p *Program, _ *bank.Bank) error {
		m, err := p.Mint(f.mint)
		require.NoError(t, err)
		require.Equal(t, uint64(4), m.Supply)
		aliceBal, err := p.Balance(alice, f.mint)
		require.NoError(t, err)
		bobBal, err := p.Balance(bob, f.mint)
		require.NoError(t, err)
		require.Equal(t, uint64(3), aliceBal)
		require.Equal(t, uint64(1), bobBal)
		return nil
	})
}
