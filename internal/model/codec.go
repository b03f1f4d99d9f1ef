package model

import (
	"bytes"
	"crypto/sha256"
	"fmt"

	bin "github.com/gagliardetto/binary"
)

// DiscriminatorSize is the length of the account type tag prefixed to state data.
const DiscriminatorSize = 8

// Discriminator returns the 8-byte tag for an account record name.
func Discriminator(name string) [DiscriminatorSize]byte {
	sum := sha256.Sum256([]byte("account:" + name))
	var out [DiscriminatorSize]byte
	copy(out[:], sum[:DiscriminatorSize])
	return out
}

var (
	poolDiscriminator         = Discriminator("Pool")
	mintDiscriminator         = Discriminator("Mint")
	tokenAccountDiscriminator = Discriminator("TokenAccount")
)

// EncodeBorsh serializes v with borsh.
func EncodeBorsh(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := bin.NewBorshEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeBorsh deserializes borsh data into v.
func DecodeBorsh(data []byte, v interface{}) error {
	return bin.NewBorshDecoder(data).Decode(v)
}

func encodeState(disc [DiscriminatorSize]byte, v interface{}) ([]byte, error) {
	body, err := EncodeBorsh(v)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, DiscriminatorSize+len(body))
	out = append(out, disc[:]...)
	return append(out, body...), nil
}

func decodeState(disc [DiscriminatorSize]byte, data []byte, v interface{}) error {
	if len(data) < DiscriminatorSize {
		return fmt.Errorf("data too short: %w", ErrInvalidAccountData)
	}
	if !bytes.Equal(data[:DiscriminatorSize], disc[:]) {
		return fmt.Errorf("discriminator mismatch: %w", ErrInvalidAccountData)
	}
	if err := DecodeBorsh(data[DiscriminatorSize:], v); err != nil {
		return fmt.Errorf("decode state: %v: %w", err, ErrInvalidAccountData)
	}
	return nil
}

// HasDiscriminator reports whether data is tagged as the named record.
func HasDiscriminator(data []byte, name string) bool {
	disc := Discriminator(name)
	return len(data) >= DiscriminatorSize && bytes.Equal(data[:DiscriminatorSize], disc[:])
}
