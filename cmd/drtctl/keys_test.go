package main

import (
	"path/filepath"
	"testing"

	"github.com/gagliardetto/solana-go"
)

func TestSol(t *testing.T) {
	cases := map[uint64]string{
		0:             "0",
		1:             "0.000000001",
		1_000_000_000: "1",
		2_500_000_000: "2.5",
	}
	for lamports, want := range cases {
		if got := sol(lamports); got != want {
			t.Fatalf("sol(%d) = %s, want %s", lamports, got, want)
		}
	}
}

func TestWriteKeygenFileRoundTrip(t *testing.T) {
	key, err := solana.NewRandomPrivateKey()
	if err != nil {
		t.Fatalf("new key: %v", err)
	}
	path := filepath.Join(t.TempDir(), "keys", "id.json")
	if err := writeKeygenFile(path, key); err != nil {
		t.Fatalf("write: %v", err)
	}
	loaded, err := solana.PrivateKeyFromSolanaKeygenFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !loaded.PublicKey().Equals(key.PublicKey()) {
		t.Fatalf("public key mismatch: %s != %s", loaded.PublicKey(), key.PublicKey())
	}
}
