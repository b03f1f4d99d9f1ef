package config

import (
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// SyncConfig holds catalog mirror settings.
type SyncConfig struct {
	CatalogDSN   string
	Interval     time.Duration
	BatchSize    uint64
	Checkpoint   string
	StateName    string
	MaxRetries   int
	RetryBackoff time.Duration
	Pools        []string
}

// ServeConfig holds settings for the serve and sync commands.
type ServeConfig struct {
	Config
	Listen string
	Sync   SyncConfig
}

func setServeDefaults(v *viper.Viper) {
	v.SetDefault("listen", "127.0.0.1:8899")
	v.SetDefault("sync-interval", 5*time.Second)
	v.SetDefault("batch-size", uint64(500))
	v.SetDefault("checkpoint", "./data/catalog_checkpoint.json")
	v.SetDefault("state-name", "catalog")
	v.SetDefault("max-retries", 5)
	v.SetDefault("retry-backoff", 500*time.Millisecond)
}

// LoadServe merges config file, environment variables, and flags into ServeConfig.
func LoadServe(cfgFile string, flags *pflag.FlagSet) (ServeConfig, error) {
	v, err := read(cfgFile, flags, setLedgerDefaults, setServeDefaults)
	if err != nil {
		return ServeConfig{}, err
	}

	cfg := ServeConfig{
		Config: ledgerConfig(v),
		Listen: v.GetString("listen"),
		Sync: SyncConfig{
			CatalogDSN:   v.GetString("catalog-dsn"),
			Interval:     v.GetDuration("sync-interval"),
			BatchSize:    v.GetUint64("batch-size"),
			Checkpoint:   v.GetString("checkpoint"),
			StateName:    v.GetString("state-name"),
			MaxRetries:   v.GetInt("max-retries"),
			RetryBackoff: v.GetDuration("retry-backoff"),
			Pools:        getStringSlice(v, "pools"),
		},
	}
	return cfg, nil
}
