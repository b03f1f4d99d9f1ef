package catalog

import (
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go"
)

// ParsePools converts base58 pool addresses into public keys.
func ParsePools(inputs []string) ([]solana.PublicKey, error) {
	pools := make([]solana.PublicKey, 0, len(inputs))
	for _, input := range inputs {
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		key, err := solana.PublicKeyFromBase58(input)
		if err != nil {
			return nil, fmt.Errorf("invalid pool address %s: %w", input, err)
		}
		pools = append(pools, key)
	}
	return pools, nil
}
