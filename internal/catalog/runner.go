package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"drtManager/internal/metrics"
	"drtManager/internal/model"
)

// Source is the read side of the ledger the catalog mirrors.
type Source interface {
	LatestSlot(ctx context.Context) (uint64, error)
	Receipts(ctx context.Context, from, to uint64) ([]model.Receipt, error)
	GetPool(ctx context.Context, addr solana.PublicKey) (model.PoolView, error)
	ListDrtInstances(ctx context.Context, pool solana.PublicKey) ([]model.DrtInstance, error)
	ListHoldings(ctx context.Context, pool solana.PublicKey) ([]model.Holding, error)
	FeeVaultBalance(ctx context.Context, pool solana.PublicKey) (uint64, error)
}

// Sink stores reconciled pool snapshots.
type Sink interface {
	SaveSnapshots(ctx context.Context, snapshots []model.PoolSnapshot) error
}

// RunConfig holds runtime settings for the catalog runner.
type RunConfig struct {
	BatchSize    uint64
	Interval     time.Duration
	MaxRetries   int
	RetryBackoff time.Duration
	// Pools restricts the mirror to these pools when non-empty.
	Pools []solana.PublicKey
}

// Runner walks committed receipts by slot and mirrors every pool they touch.
type Runner struct {
	cfg    RunConfig
	source Source
	sink   Sink
	state  StateStore
	clock  clockwork.Clock
	logger *zap.Logger
	allow  map[solana.PublicKey]struct{}
}

// NewRunner builds a Runner with its dependencies. state, clock and logger
// may be nil.
func NewRunner(cfg RunConfig, source Source, sink Sink, state StateStore, clock clockwork.Clock, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	var allow map[solana.PublicKey]struct{}
	if len(cfg.Pools) > 0 {
		allow = make(map[solana.PublicKey]struct{}, len(cfg.Pools))
		for _, p := range cfg.Pools {
			allow[p] = struct{}{}
		}
	}
	return &Runner{
		cfg:    cfg,
		source: source,
		sink:   sink,
		state:  state,
		clock:  clock,
		logger: logger,
		allow:  allow,
	}
}

// Run syncs until ctx is cancelled, polling every Interval.
func (r *Runner) Run(ctx context.Context) error {
	if r.cfg.Interval <= 0 {
		return fmt.Errorf("sync interval must be greater than zero")
	}
	ticker := r.clock.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	for {
		if _, err := r.SyncOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			r.logger.Error("catalog sync failed", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.Chan():
		}
	}
}

// SyncOnce mirrors every receipt committed since the last checkpoint and
// returns the last synced slot.
func (r *Runner) SyncOnce(ctx context.Context) (uint64, error) {
	if r.source == nil {
		return 0, fmt.Errorf("source is nil")
	}
	if r.sink == nil {
		return 0, fmt.Errorf("sink is nil")
	}
	if r.cfg.BatchSize == 0 {
		return 0, fmt.Errorf("batch size must be greater than zero")
	}

	var last uint64
	if r.state != nil {
		slot, ok, err := r.state.Load(ctx)
		if err != nil {
			return 0, fmt.Errorf("load checkpoint: %w", err)
		}
		if ok {
			last = slot
		}
	}

	var to uint64
	err := withRetry(ctx, r.clock, r.cfg.MaxRetries, r.cfg.RetryBackoff, func(ctx context.Context) error {
		var err error
		to, err = r.source.LatestSlot(ctx)
		return err
	})
	if err != nil {
		return last, fmt.Errorf("get latest slot: %w", err)
	}

	from := last + 1
	if last >= to {
		r.logger.Debug("nothing to sync", zap.Uint64("from", from), zap.Uint64("to", to))
		return last, nil
	}

	ranges, err := SplitRange(from, to, r.cfg.BatchSize)
	if err != nil {
		return last, err
	}

	for _, slotRange := range ranges {
		select {
		case <-ctx.Done():
			return last, ctx.Err()
		default:
		}

		synced, err := r.syncRange(ctx, slotRange)
		if err != nil {
			return last, err
		}
		if r.state != nil {
			if err := r.state.Save(ctx, slotRange.To); err != nil {
				return last, fmt.Errorf("save checkpoint: %w", err)
			}
		}
		last = slotRange.To
		metrics.CatalogSyncedSlot.Set(float64(last))

		r.logger.Info("batch complete", zap.Int("pools", synced), zap.Uint64("from", slotRange.From), zap.Uint64("to", slotRange.To))
	}
	return last, nil
}

func (r *Runner) syncRange(ctx context.Context, slotRange SlotRange) (int, error) {
	var receipts []model.Receipt
	err := withRetry(ctx, r.clock, r.cfg.MaxRetries, r.cfg.RetryBackoff, func(ctx context.Context) error {
		var err error
		receipts, err = r.source.Receipts(ctx, slotRange.From, slotRange.To)
		if err != nil {
			r.logger.Warn("read receipts failed", zap.Error(err), zap.Uint64("from", slotRange.From), zap.Uint64("to", slotRange.To))
		}
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("read receipts: %w", err)
	}

	pools := r.touchedPools(receipts)
	if len(pools) == 0 {
		return 0, nil
	}

	snapshots := make([]model.PoolSnapshot, 0, len(pools))
	for _, addr := range pools {
		var (
			snap    model.PoolSnapshot
			missing bool
		)
		err := withRetry(ctx, r.clock, r.cfg.MaxRetries, r.cfg.RetryBackoff, func(ctx context.Context) error {
			var err error
			snap, err = buildSnapshot(ctx, r.source, addr, slotRange.To)
			if errors.Is(err, model.ErrNotFound) {
				missing = true
				return nil
			}
			return err
		})
		if err != nil {
			return 0, fmt.Errorf("snapshot pool %s: %w", addr, err)
		}
		if missing {
			r.logger.Warn("skip receipt pool without account", zap.String("pool", addr.String()), zap.Uint64("to", slotRange.To))
			continue
		}
		snapshots = append(snapshots, snap)
	}
	if len(snapshots) == 0 {
		return 0, nil
	}

	err = withRetry(ctx, r.clock, r.cfg.MaxRetries, r.cfg.RetryBackoff, func(ctx context.Context) error {
		err := r.sink.SaveSnapshots(ctx, snapshots)
		if err != nil {
			r.logger.Warn("save snapshots failed", zap.Error(err), zap.Int("pools", len(snapshots)))
		}
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("save snapshots: %w", err)
	}
	return len(snapshots), nil
}

// touchedPools returns the distinct pools named by receipts, in order.
func (r *Runner) touchedPools(receipts []model.Receipt) []solana.PublicKey {
	seen := make(map[solana.PublicKey]struct{})
	pools := make([]solana.PublicKey, 0)
	for _, receipt := range receipts {
		if receipt.Pool.IsZero() {
			continue
		}
		if r.allow != nil {
			if _, ok := r.allow[receipt.Pool]; !ok {
				continue
			}
		}
		if _, ok := seen[receipt.Pool]; ok {
			continue
		}
		seen[receipt.Pool] = struct{}{}
		pools = append(pools, receipt.Pool)
	}
	return pools
}
