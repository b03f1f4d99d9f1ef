package config

import (
	"fmt"
	"strconv"
	"strings"
)

// DrtArg is one DRT type as given on the command line.
type DrtArg struct {
	Type      string
	Supply    uint64
	Cost      uint64
	GithubURL string
	CodeHash  string
}

// ParseDrtArg parses "type=append,supply=5000,cost=100000000,github=URL,hash=HEX".
func ParseDrtArg(input string) (DrtArg, error) {
	fields := parseStringMap(input)
	arg := DrtArg{
		Type:      fields["type"],
		GithubURL: fields["github"],
		CodeHash:  fields["hash"],
	}
	if arg.Type == "" {
		return DrtArg{}, fmt.Errorf("drt flag %q: type is required", input)
	}
	var err error
	if arg.Supply, err = parseAmount(fields["supply"]); err != nil {
		return DrtArg{}, fmt.Errorf("drt flag %q: supply: %w", input, err)
	}
	if arg.Cost, err = parseAmount(fields["cost"]); err != nil {
		return DrtArg{}, fmt.Errorf("drt flag %q: cost: %w", input, err)
	}
	return arg, nil
}

func parseAmount(input string) (uint64, error) {
	input = strings.ReplaceAll(strings.TrimSpace(input), "_", "")
	if input == "" {
		return 0, fmt.Errorf("missing value")
	}
	return strconv.ParseUint(input, 10, 64)
}

func parseStringMap(input string) map[string]string {
	out := make(map[string]string)
	if strings.TrimSpace(input) == "" {
		return out
	}
	pairs := strings.Split(input, ",")
	for _, pair := range pairs {
		parts := strings.SplitN(pair, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		if key == "" || value == "" {
			continue
		}
		out[key] = value
	}
	return out
}
