package main

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"drtManager/internal/config"
	"drtManager/internal/ledger"
	"drtManager/internal/storage"
)

// app is an opened ledger with its store and journals.
type app struct {
	cfg     config.Config
	logger  *zap.Logger
	ledger  *ledger.Ledger
	closers []func() error
}

func loadApp(cmd *cobra.Command) (*app, error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return nil, err
	}
	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	return openApp(cfg, logger)
}

func openApp(cfg config.Config, logger *zap.Logger) (*app, error) {
	a := &app{cfg: cfg, logger: logger}

	var programID solana.PublicKey
	if cfg.ProgramID != "" {
		id, err := solana.PublicKeyFromBase58(cfg.ProgramID)
		if err != nil {
			return nil, fmt.Errorf("parse program id: %w", err)
		}
		programID = id
	}

	var store storage.KV
	if cfg.Store == "memory" {
		store = storage.NewMemoryKV()
	} else {
		bolt, err := storage.NewBoltKV(cfg.Store)
		if err != nil {
			return nil, err
		}
		store = bolt
	}
	a.closers = append(a.closers, store.Close)

	var journals storage.MultiJournal
	if cfg.Journal != "" {
		jsonl := storage.NewJsonlJournal(cfg.Journal)
		journals = append(journals, jsonl)
		a.closers = append(a.closers, jsonl.Close)
	}
	if len(cfg.KafkaBrokers) > 0 {
		kafka, err := storage.NewKafkaJournal(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("kafka journal: %w", err)
		}
		journals = append(journals, kafka)
		a.closers = append(a.closers, kafka.Close)
	}
	var journal storage.Journal
	if len(journals) > 0 {
		journal = journals
	}

	l, err := ledger.New(ledger.Config{
		ProgramID:           programID,
		DefaultRewardAmount: cfg.RewardAmount,
		FaucetEnabled:       cfg.FaucetEnabled,
		FaucetMaxLamports:   cfg.FaucetMaxLamports,
	}, store, journal, nil, logger)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.ledger = l
	return a, nil
}

func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	_ = a.logger.Sync()
	return errors.Join(errs...)
}

func (a *app) signer() (solana.PrivateKey, error) {
	key, err := solana.PrivateKeyFromSolanaKeygenFile(a.cfg.Keypair)
	if err != nil {
		return nil, fmt.Errorf("load keypair %s: %w", a.cfg.Keypair, err)
	}
	return key, nil
}

// sol formats lamports as SOL.
func sol(lamports uint64) string {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(lamports), -9).String()
}
