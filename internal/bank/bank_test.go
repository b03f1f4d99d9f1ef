package bank

import (
	"context"
	"errors"
	"testing"

	"github.com/gagliardetto/solana-go"

	"drtManager/internal/model"
	"drtManager/internal/storage"
)

func TestRentExemptMinimum(t *testing.T) {
	if got := RentExemptMinimum(0); got != 890880 {
		t.Fatalf("empty account rent: %d", got)
	}
	if got := RentExemptMinimum(82); got != 1461600 {
		t.Fatalf("82 byte rent: %d", got)
	}
}

func TestTransferAndRollback(t *testing.T) {
	kv := storage.NewMemoryKV()
	ctx := context.Background()
	alice := solana.NewWallet().PublicKey()
	bob := solana.NewWallet().PublicKey()

	err := kv.Update(ctx, func(tx storage.Tx) error {
		return New(tx).Credit(alice, 1000)
	})
	if err != nil {
		t.Fatalf("credit: %v", err)
	}

	err = kv.Update(ctx, func(tx storage.Tx) error {
		b := New(tx)
		if err := b.Transfer(alice, bob, 400); err != nil {
			return err
		}
		return b.Transfer(alice, bob, 700)
	})
	if !errors.Is(err, model.ErrInsufficientFunds) {
		t.Fatalf("expected insufficient funds, got %v", err)
	}

	err = kv.View(ctx, func(tx storage.Tx) error {
		b := New(tx)
		aliceBal, err := b.Balance(alice)
		if err != nil {
			return err
		}
		bobBal, err := b.Balance(bob)
		if err != nil {
			return err
		}
		if aliceBal != 1000 || bobBal != 0 {
			t.Fatalf("partial transfer leaked: alice=%d bob=%d", aliceBal, bobBal)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("view: %v", err)
	}
}

func TestCreditOverflow(t *testing.T) {
	kv := storage.NewMemoryKV()
	addr := solana.NewWallet().PublicKey()
	err := kv.Update(context.Background(), func(tx storage.Tx) error {
		b := New(tx)
		if err := b.Credit(addr, ^uint64(0)); err != nil {
			return err
		}
		return b.Credit(addr, 1)
	})
	if !errors.Is(err, model.ErrArithmetic) {
		t.Fatalf("expected arithmetic error, got %v", err)
	}
}

func TestCreateAccountChargesRent(t *testing.T) {
	kv := storage.NewMemoryKV()
	payer := solana.NewWallet().PublicKey()
	addr := solana.NewWallet().PublicKey()
	data := make([]byte, 10)

	err := kv.Update(context.Background(), func(tx storage.Tx) error {
		b := New(tx)
		if err := b.Credit(payer, 5_000_000); err != nil {
			return err
		}
		if err := b.CreateAccount(payer, addr, solana.TokenProgramID, data); err != nil {
			return err
		}
		if err := b.CreateAccount(payer, addr, solana.TokenProgramID, data); !errors.Is(err, model.ErrAlreadyInitialized) {
			t.Fatalf("expected already initialized, got %v", err)
		}
		payerBal, err := b.Balance(payer)
		if err != nil {
			return err
		}
		if payerBal != 5_000_000-RentExemptMinimum(len(data)) {
			t.Fatalf("payer balance: %d", payerBal)
		}
		dist, err := b.Distributable(addr)
		if err != nil {
			return err
		}
		if dist != 0 {
			t.Fatalf("fresh account should have nothing distributable: %d", dist)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
}

func TestCreateAccountAdoptsFundedSystemAccount(t *testing.T) {
	kv := storage.NewMemoryKV()
	payer := solana.NewWallet().PublicKey()
	small := solana.NewWallet().PublicKey()
	rich := solana.NewWallet().PublicKey()
	rent := RentExemptMinimum(0)

	err := kv.Update(context.Background(), func(tx storage.Tx) error {
		b := New(tx)
		if err := b.Credit(payer, 5_000_000); err != nil {
			return err
		}
		if err := b.Credit(small, 1); err != nil {
			return err
		}
		if err := b.Credit(rich, rent+500); err != nil {
			return err
		}
		if ok, err := b.Exists(small); err != nil || ok {
			t.Fatalf("funded system account should not count as existing: %v %v", ok, err)
		}

		if err := b.CreateAccount(payer, small, solana.TokenProgramID, nil); err != nil {
			t.Fatalf("create over funded account: %v", err)
		}
		if err := b.CreateAccount(payer, rich, solana.TokenProgramID, nil); err != nil {
			t.Fatalf("create over rich account: %v", err)
		}

		acct, _, err := b.Load(small)
		if err != nil {
			return err
		}
		if acct.Lamports != rent || !acct.Owner.Equals(solana.TokenProgramID) {
			t.Fatalf("small account: %+v", acct)
		}
		if dist, _ := b.Distributable(rich); dist != 500 {
			t.Fatalf("rich account should keep its surplus: %d", dist)
		}
		payerBal, err := b.Balance(payer)
		if err != nil {
			return err
		}
		if payerBal != 5_000_000-(rent-1) {
			t.Fatalf("payer should only cover the shortfall: %d", payerBal)
		}

		if err := b.CreateAccount(payer, small, solana.TokenProgramID, nil); !errors.Is(err, model.ErrAlreadyInitialized) {
			t.Fatalf("expected already initialized, got %v", err)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
}
