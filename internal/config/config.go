package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds ledger settings shared by every command.
type Config struct {
	Store             string
	ProgramID         string
	Keypair           string
	LogLevel          string
	FaucetEnabled     bool
	FaucetMaxLamports uint64
	RewardAmount      uint64
	Journal           string
	KafkaBrokers      []string
	KafkaTopic        string
}

func setLedgerDefaults(v *viper.Viper) {
	v.SetDefault("store", "./data/ledger.db")
	v.SetDefault("keypair", "./data/id.json")
	v.SetDefault("log-level", "info")
	v.SetDefault("faucet-enabled", false)
	v.SetDefault("faucet-max-lamports", uint64(10_000_000_000))
	v.SetDefault("reward-amount", uint64(1))
	v.SetDefault("kafka-topic", "drt_receipts")
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v, err := read(cfgFile, flags, setLedgerDefaults)
	if err != nil {
		return Config{}, err
	}
	return ledgerConfig(v), nil
}

func ledgerConfig(v *viper.Viper) Config {
	return Config{
		Store:             v.GetString("store"),
		ProgramID:         v.GetString("program-id"),
		Keypair:           v.GetString("keypair"),
		LogLevel:          v.GetString("log-level"),
		FaucetEnabled:     v.GetBool("faucet-enabled"),
		FaucetMaxLamports: v.GetUint64("faucet-max-lamports"),
		RewardAmount:      v.GetUint64("reward-amount"),
		Journal:           v.GetString("journal"),
		KafkaBrokers:      getStringSlice(v, "kafka-brokers"),
		KafkaTopic:        v.GetString("kafka-topic"),
	}
}

func read(cfgFile string, flags *pflag.FlagSet, defaults ...func(*viper.Viper)) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix("DRT")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	for _, fn := range defaults {
		fn(v)
	}

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("drt")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}
	return v, nil
}

func getStringSlice(v *viper.Viper, key string) []string {
	if !v.IsSet(key) {
		return nil
	}

	val := v.Get(key)
	switch typed := val.(type) {
	case []string:
		return splitAndClean(strings.Join(typed, ","))
	case string:
		return splitAndClean(typed)
	case []interface{}:
		items := make([]string, 0, len(typed))
		for _, item := range typed {
			items = append(items, fmt.Sprintf("%v", item))
		}
		return cleanStrings(items)
	default:
		return nil
	}
}

func splitAndClean(input string) []string {
	if input == "" {
		return nil
	}
	parts := strings.Split(input, ",")
	return cleanStrings(parts)
}

func cleanStrings(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}
