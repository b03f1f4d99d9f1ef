package ledger

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"drtManager/internal/bank"
	"drtManager/internal/metrics"
	"drtManager/internal/model"
	"drtManager/internal/pda"
	"drtManager/internal/storage"
	"drtManager/internal/token"
)

// DefaultProgramID is the program id used when none is configured.
var DefaultProgramID = solana.MustPublicKeyFromBase58("Fg6PaFpoGXkYsidMpWTK6W2BeZ7FEfcYkg476zPFsLnS")

var latestSlotKey = []byte("latest_slot")

// Config holds ledger policy.
type Config struct {
	ProgramID           solana.PublicKey
	DefaultRewardAmount uint64
	FaucetEnabled       bool
	FaucetMaxLamports   uint64
}

// Ledger executes signed transactions against a KV store. Each transaction
// runs in one store Update, so either all of its effects commit or none do.
type Ledger struct {
	cfg     Config
	store   storage.KV
	journal storage.Journal
	clock   clockwork.Clock
	logger  *zap.Logger
	derive  pda.Deriver

	// afterFeeLeg runs between the payment and token legs of buy_drt.
	afterFeeLeg func() error
}

// New builds a Ledger. journal and clock may be nil.
func New(cfg Config, store storage.KV, journal storage.Journal, clock clockwork.Clock, logger *zap.Logger) (*Ledger, error) {
	if store == nil {
		return nil, fmt.Errorf("store is nil")
	}
	if cfg.ProgramID.IsZero() {
		cfg.ProgramID = DefaultProgramID
	}
	if cfg.DefaultRewardAmount == 0 {
		cfg.DefaultRewardAmount = 1
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ledger{
		cfg:     cfg,
		store:   store,
		journal: journal,
		clock:   clock,
		logger:  logger,
		derive:  pda.NewDeriver(cfg.ProgramID),
	}, nil
}

func (l *Ledger) ProgramID() solana.PublicKey {
	return l.cfg.ProgramID
}

// Deriver returns the address deriver for this ledger's program id.
func (l *Ledger) Deriver() pda.Deriver {
	return l.derive
}

// execution is the state handed to an instruction handler.
type execution struct {
	ledger  *Ledger
	signer  solana.PublicKey
	bank    *bank.Bank
	tokens  *token.Program
	receipt *model.Receipt
}

// Execute verifies and applies tx, returning the committed receipt.
func (l *Ledger) Execute(ctx context.Context, tx Transaction) (model.Receipt, error) {
	start := l.clock.Now()
	kind := tx.Instruction.Kind.String()

	receipt, err := l.execute(ctx, tx)
	metrics.TransactionDuration.WithLabelValues(kind).Observe(l.clock.Since(start).Seconds())
	if err != nil {
		metrics.TransactionsTotal.WithLabelValues(kind, resultLabel(err)).Inc()
		l.logger.Debug("transaction rejected",
			zap.String("instruction", kind),
			zap.String("signer", tx.Signer.String()),
			zap.Error(err),
		)
		return model.Receipt{}, err
	}
	metrics.TransactionsTotal.WithLabelValues(kind, "ok").Inc()
	metrics.LatestSlot.Set(float64(receipt.Slot))

	l.logger.Info("transaction committed",
		zap.String("signature", receipt.Signature.String()),
		zap.Uint64("slot", receipt.Slot),
		zap.String("instruction", kind),
		zap.String("pool", receipt.Pool.String()),
		zap.String("drt_type", receipt.DrtType),
	)

	if l.journal != nil {
		if err := l.journal.PutReceiptBatch([]model.Receipt{receipt}); err != nil {
			metrics.JournalErrorsTotal.Inc()
			l.logger.Warn("journal receipt", zap.Error(err), zap.String("signature", receipt.Signature.String()))
		}
	}
	return receipt, nil
}

func (l *Ledger) execute(ctx context.Context, tx Transaction) (model.Receipt, error) {
	if err := tx.Verify(); err != nil {
		return model.Receipt{}, err
	}

	var receipt model.Receipt
	err := l.store.Update(ctx, func(stx storage.Tx) error {
		if _, err := stx.Get(storage.SignaturesBucket, tx.Signature[:]); err == nil {
			return fmt.Errorf("signature %s: %w", tx.Signature, model.ErrAlreadyProcessed)
		} else if !errors.Is(err, storage.ErrNotExist) {
			return fmt.Errorf("check signature: %w", err)
		}

		b := bank.New(stx)
		ex := &execution{
			ledger: l,
			signer: tx.Signer,
			bank:   b,
			tokens: token.New(b, l.cfg.ProgramID),
			receipt: &model.Receipt{
				Signature:   tx.Signature,
				Instruction: tx.Instruction.Kind.String(),
				Signer:      tx.Signer,
				Pool:        tx.Instruction.Pool,
				DrtType:     tx.Instruction.DrtType,
			},
		}
		if err := ex.dispatch(tx.Instruction); err != nil {
			return err
		}

		slot, err := nextSlot(stx)
		if err != nil {
			return err
		}
		ex.receipt.Slot = slot
		ex.receipt.Timestamp = l.clock.Now().UTC()

		raw, err := json.Marshal(ex.receipt)
		if err != nil {
			return fmt.Errorf("marshal receipt: %w", err)
		}
		if err := stx.Put(storage.ReceiptsBucket, slotKey(slot), raw); err != nil {
			return fmt.Errorf("store receipt: %w", err)
		}
		if err := stx.Put(storage.SignaturesBucket, tx.Signature[:], slotKey(slot)); err != nil {
			return fmt.Errorf("store signature: %w", err)
		}
		receipt = *ex.receipt
		return nil
	})
	if err != nil {
		return model.Receipt{}, err
	}
	return receipt, nil
}

func (ex *execution) dispatch(ix Instruction) error {
	switch ix.Kind {
	case KindCreatePoolWithDrts:
		return ex.createPoolWithDrts(ix)
	case KindInitializeDrtMint:
		return ex.initializeDrtMint(ix)
	case KindMintDrtSupply:
		return ex.mintDrtSupply(ix)
	case KindBuyDrt:
		return ex.buyDrt(ix)
	case KindRedeemDrt:
		return ex.redeemDrt(ix)
	case KindRedeemFees:
		return ex.redeemFees(ix)
	case KindAirdrop:
		return ex.airdrop(ix)
	default:
		return fmt.Errorf("instruction %d: %w", ix.Kind, model.ErrInvalidConfig)
	}
}

func nextSlot(tx storage.Tx) (uint64, error) {
	var slot uint64
	raw, err := tx.Get(storage.MetaBucket, latestSlotKey)
	switch {
	case err == nil:
		slot = binary.BigEndian.Uint64(raw)
	case errors.Is(err, storage.ErrNotExist):
	default:
		return 0, fmt.Errorf("load slot: %w", err)
	}
	slot++
	if err := tx.Put(storage.MetaBucket, latestSlotKey, slotKey(slot)); err != nil {
		return 0, fmt.Errorf("store slot: %w", err)
	}
	return slot, nil
}

func slotKey(slot uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, slot)
	return key
}

func resultLabel(err error) string {
	var perr *model.ProgramError
	if errors.As(err, &perr) {
		return perr.Name
	}
	return "error"
}
