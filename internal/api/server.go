package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"drtManager/internal/ledger"
	"drtManager/internal/metrics"
	"drtManager/internal/model"
)

// Ledger is the subset of the ledger the HTTP API serves.
type Ledger interface {
	Execute(ctx context.Context, tx ledger.Transaction) (model.Receipt, error)
	GetPool(ctx context.Context, addr solana.PublicKey) (model.PoolView, error)
	ListPools(ctx context.Context) ([]model.PoolView, error)
	ListDrtInstances(ctx context.Context, pool solana.PublicKey) ([]model.DrtInstance, error)
	ListHoldings(ctx context.Context, pool solana.PublicKey) ([]model.Holding, error)
	Balance(ctx context.Context, addr solana.PublicKey) (uint64, error)
	TokenBalance(ctx context.Context, owner, mint solana.PublicKey) (uint64, error)
	FeeVaultBalance(ctx context.Context, pool solana.PublicKey) (uint64, error)
	Receipts(ctx context.Context, from, to uint64) ([]model.Receipt, error)
	LatestSlot(ctx context.Context) (uint64, error)
}

// Server exposes the ledger over HTTP.
type Server struct {
	ledger Ledger
	logger *zap.Logger
	router chi.Router
}

func NewServer(l Ledger, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{ledger: l, logger: logger, router: chi.NewRouter()}
	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.router
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware)

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Post("/transactions", s.handleSubmit)
		r.Get("/pools", s.handleListPools)
		r.Get("/pools/{address}", s.handleGetPool)
		r.Get("/pools/{address}/drts", s.handleListDrts)
		r.Get("/pools/{address}/holdings", s.handleListHoldings)
		r.Get("/accounts/{address}", s.handleAccount)
		r.Get("/receipts", s.handleReceipts)
	})
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	}
}
