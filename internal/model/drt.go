package model

import (
	"encoding/json"
	"fmt"
	"unicode/utf8"

	"github.com/gagliardetto/solana-go"
)

// MaxDrtTypeLength bounds a drt type name; it is used as a derivation seed.
const MaxDrtTypeLength = 32

// DrtKind enumerates the built-in DRT types. DrtKindCustom carries its name
// in DrtType.Custom.
type DrtKind uint8

const (
	DrtKindCustom DrtKind = iota
	DrtKindAppend
	DrtKindWComputeMedian
	DrtKindPyComputeMedian
)

var drtKindNames = map[DrtKind]string{
	DrtKindAppend:          "append",
	DrtKindWComputeMedian:  "w_compute_median",
	DrtKindPyComputeMedian: "py_compute_median",
}

// DrtType identifies a DRT within a pool.
type DrtType struct {
	Kind   DrtKind
	Custom string
}

var (
	DrtAppend          = DrtType{Kind: DrtKindAppend}
	DrtWComputeMedian  = DrtType{Kind: DrtKindWComputeMedian}
	DrtPyComputeMedian = DrtType{Kind: DrtKindPyComputeMedian}
)

// ParseDrtType maps a name to a built-in kind, or to a custom type.
func ParseDrtType(name string) (DrtType, error) {
	if name == "" {
		return DrtType{}, fmt.Errorf("empty drt type: %w", ErrInvalidConfig)
	}
	if len(name) > MaxDrtTypeLength {
		return DrtType{}, fmt.Errorf("drt type %q longer than %d bytes: %w", name, MaxDrtTypeLength, ErrInvalidConfig)
	}
	if !utf8.ValidString(name) {
		return DrtType{}, fmt.Errorf("drt type %q is not valid utf-8: %w", name, ErrInvalidConfig)
	}
	for kind, known := range drtKindNames {
		if known == name {
			return DrtType{Kind: kind}, nil
		}
	}
	return DrtType{Kind: DrtKindCustom, Custom: name}, nil
}

func (t DrtType) String() string {
	if t.Kind == DrtKindCustom {
		return t.Custom
	}
	return drtKindNames[t.Kind]
}

// RewardsOwnership reports whether redeeming this type mints ownership tokens.
func (t DrtType) RewardsOwnership() bool {
	switch t.Kind {
	case DrtKindAppend:
		return true
	case DrtKindWComputeMedian, DrtKindPyComputeMedian, DrtKindCustom:
		return false
	default:
		return false
	}
}

func (t DrtType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *DrtType) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	parsed, err := ParseDrtType(name)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// DrtConfig is one DRT entry of a pool. Only IsMinted changes after creation.
type DrtConfig struct {
	DrtType   DrtType          `json:"drt_type"`
	Mint      solana.PublicKey `json:"mint"`
	MintBump  uint8            `json:"mint_bump"`
	Supply    uint64           `json:"supply"`
	Cost      uint64           `json:"cost"`
	GithubURL string           `json:"github_url"`
	CodeHash  string           `json:"code_hash,omitempty"`
	IsMinted  bool             `json:"is_minted"`
}

// DrtInstance is the reconciliation view of a DRT type in a pool.
type DrtInstance struct {
	Pool            solana.PublicKey `json:"pool"`
	DrtType         string           `json:"drt_type"`
	Mint            solana.PublicKey `json:"mint"`
	Supply          uint64           `json:"supply"`
	Cost            uint64           `json:"cost"`
	GithubURL       string           `json:"github_url"`
	CodeHash        string           `json:"code_hash,omitempty"`
	MintInitialized bool             `json:"mint_initialized"`
	IsMinted        bool             `json:"is_minted"`
	Remaining       uint64           `json:"remaining"`
	Sold            uint64           `json:"sold"`
}

// Holding is a non-empty token balance for one of a pool's mints.
// DrtType is empty for the ownership mint.
type Holding struct {
	Pool    solana.PublicKey `json:"pool"`
	Mint    solana.PublicKey `json:"mint"`
	DrtType string           `json:"drt_type,omitempty"`
	Owner   solana.PublicKey `json:"owner"`
	Account solana.PublicKey `json:"account"`
	Amount  uint64           `json:"amount"`
}
