package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	root := &cobra.Command{
		Use:          "drtctl",
		Short:        "Pool and DRT ledger",
		SilenceUsage: true,
	}

	pf := root.PersistentFlags()
	pf.String("config", "", "config file path")
	pf.String("store", "./data/ledger.db", "ledger bolt file, or \"memory\"")
	pf.String("program-id", "", "ledger program id (base58)")
	pf.String("keypair", "./data/id.json", "signer keypair file (solana-keygen format)")
	pf.String("log-level", "info", "log level (debug, info, warn, error)")
	pf.Bool("faucet-enabled", false, "allow airdrop transactions")
	pf.Uint64("faucet-max-lamports", 10_000_000_000, "maximum lamports per airdrop")
	pf.Uint64("reward-amount", 1, "default ownership reward per append redemption")
	pf.String("journal", "", "receipts JSONL path")
	pf.StringSlice("kafka-brokers", nil, "kafka brokers for the receipt journal (comma-separated)")
	pf.String("kafka-topic", "drt_receipts", "kafka topic for the receipt journal")

	root.AddCommand(keygenCmd(), addressCmd())
	root.AddCommand(txCommands()...)
	root.AddCommand(poolCmd(), balanceCmd())

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Serve the ledger over HTTP and mirror it into the catalog",
		RunE:  runServe,
	}
	addSyncFlags(serve)
	serve.Flags().String("listen", "127.0.0.1:8899", "HTTP listen address")
	root.AddCommand(serve)

	sync := &cobra.Command{
		Use:   "sync",
		Short: "Mirror committed pools into the Postgres catalog",
		RunE:  runSync,
	}
	addSyncFlags(sync)
	sync.Flags().Bool("follow", false, "keep syncing every sync-interval")
	root.AddCommand(sync)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func addSyncFlags(cmd *cobra.Command) {
	cmd.Flags().String("catalog-dsn", "", "Postgres DSN of the catalog mirror")
	cmd.Flags().Duration("sync-interval", 5*time.Second, "catalog poll interval")
	cmd.Flags().Uint64("batch-size", 500, "slots per catalog batch")
	cmd.Flags().String("checkpoint", "./data/catalog_checkpoint.json", "catalog checkpoint file, empty to keep it in Postgres")
	cmd.Flags().String("state-name", "catalog", "checkpoint name when stored in Postgres")
	cmd.Flags().Int("max-retries", 5, "maximum retry attempts")
	cmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	cmd.Flags().StringSlice("pools", nil, "only mirror these pools (comma-separated)")
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
