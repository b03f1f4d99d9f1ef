package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gagliardetto/solana-go"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"drtManager/internal/ledger"
	"drtManager/internal/model"
)

const maxBodyBytes = 1 << 20

type poolResponse struct {
	model.PoolView
	ID              string `json:"id"`
	FeeVaultBalance uint64 `json:"fee_vault_balance"`
}

type accountResponse struct {
	Address  solana.PublicKey  `json:"address"`
	Lamports uint64            `json:"lamports"`
	Mint     *solana.PublicKey `json:"mint,omitempty"`
	Tokens   *uint64           `json:"tokens,omitempty"`
}

type errorResponse struct {
	Code    uint32 `json:"code,omitempty"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	slot, err := s.ledger.LatestSlot(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"status": "ok", "latest_slot": slot})
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var tx ledger.Transaction
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&tx); err != nil {
		s.writeError(w, fmt.Errorf("decode transaction: %v: %w", err, model.ErrInvalidConfig))
		return
	}
	receipt, err := s.ledger.Execute(r.Context(), tx)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, receipt)
}

func (s *Server) handleListPools(w http.ResponseWriter, r *http.Request) {
	pools, err := s.ledger.ListPools(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	if pools == nil {
		pools = []model.PoolView{}
	}
	writeJSON(w, http.StatusOK, pools)
}

func (s *Server) handleGetPool(w http.ResponseWriter, r *http.Request) {
	addr, ok := s.pathKey(w, r)
	if !ok {
		return
	}
	pool, err := s.ledger.GetPool(r.Context(), addr)
	if err != nil {
		s.writeError(w, err)
		return
	}
	fees, err := s.ledger.FeeVaultBalance(r.Context(), addr)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, poolResponse{
		PoolView:        pool,
		ID:              model.PoolID(addr).String(),
		FeeVaultBalance: fees,
	})
}

func (s *Server) handleListDrts(w http.ResponseWriter, r *http.Request) {
	addr, ok := s.pathKey(w, r)
	if !ok {
		return
	}
	drts, err := s.ledger.ListDrtInstances(r.Context(), addr)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, drts)
}

func (s *Server) handleListHoldings(w http.ResponseWriter, r *http.Request) {
	addr, ok := s.pathKey(w, r)
	if !ok {
		return
	}
	holdings, err := s.ledger.ListHoldings(r.Context(), addr)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if holdings == nil {
		holdings = []model.Holding{}
	}
	writeJSON(w, http.StatusOK, holdings)
}

func (s *Server) handleAccount(w http.ResponseWriter, r *http.Request) {
	addr, ok := s.pathKey(w, r)
	if !ok {
		return
	}
	lamports, err := s.ledger.Balance(r.Context(), addr)
	if err != nil {
		s.writeError(w, err)
		return
	}
	resp := accountResponse{Address: addr, Lamports: lamports}
	if raw := r.URL.Query().Get("mint"); raw != "" {
		mint, err := solana.PublicKeyFromBase58(raw)
		if err != nil {
			s.writeError(w, fmt.Errorf("mint %q: %v: %w", raw, err, model.ErrInvalidConfig))
			return
		}
		tokens, err := s.ledger.TokenBalance(r.Context(), addr, mint)
		if err != nil {
			s.writeError(w, err)
			return
		}
		resp.Mint = &mint
		resp.Tokens = &tokens
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleReceipts(w http.ResponseWriter, r *http.Request) {
	from, err := querySlot(r, "from")
	if err != nil {
		s.writeError(w, err)
		return
	}
	to, err := querySlot(r, "to")
	if err != nil {
		s.writeError(w, err)
		return
	}
	receipts, err := s.ledger.Receipts(r.Context(), from, to)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if receipts == nil {
		receipts = []model.Receipt{}
	}
	writeJSON(w, http.StatusOK, receipts)
}

func querySlot(r *http.Request, name string) (uint64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s=%q: %w", name, raw, model.ErrInvalidConfig)
	}
	return v, nil
}

func (s *Server) pathKey(w http.ResponseWriter, r *http.Request) (solana.PublicKey, bool) {
	raw := chi.URLParam(r, "address")
	key, err := solana.PublicKeyFromBase58(raw)
	if err != nil {
		s.writeError(w, fmt.Errorf("address %q: %v: %w", raw, err, model.ErrInvalidConfig))
		return solana.PublicKey{}, false
	}
	return key, true
}

// statusFor maps a program error to its HTTP status.
func statusFor(perr *model.ProgramError) int {
	switch perr {
	case model.ErrUnauthorized:
		return http.StatusForbidden
	case model.ErrNotFound:
		return http.StatusNotFound
	case model.ErrInvalidConfig, model.ErrInvalidAccountData:
		return http.StatusBadRequest
	case model.ErrAlreadyInitialized, model.ErrAlreadyMinted, model.ErrAlreadyProcessed,
		model.ErrDuplicateDrtType, model.ErrNotMinted, model.ErrSoldOut:
		return http.StatusConflict
	default:
		return http.StatusUnprocessableEntity
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	var perr *model.ProgramError
	if errors.As(err, &perr) {
		writeJSON(w, statusFor(perr), errorResponse{Code: perr.Code, Error: perr.Name, Message: err.Error()})
		return
	}
	s.logger.Error("request failed", zap.Error(err))
	writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Internal", Message: "internal error"})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
