package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/radieske/casino-games-platform-poc/internal/wallet-service/dto"
	"github.com/radieske/casino-games-platform-poc/internal/wallet-service/repo"
)

// Repo define as operações de carteira usadas pelo handler HTTP.
type Repo interface {
	GetOrCreateWallet(ctx context.Context, userID string) (walletID string, balance int64, err error)
	Deposit(ctx context.Context, userID string, amount int64, reference string) (int64, error)
	Withdraw(ctx context.Context, userID string, amount int64, reference string) (int64, error)
	Debit(ctx context.Context, userID string, amount int64, reference string) (int64, error)
	Credit(ctx context.Context, userID string, amount int64, reference string) (int64, error)
	Ledger(ctx context.Context, userID string, limit int) ([]repo.LedgerEntry, error)
}

// Server expõe endpoints HTTP para operações de carteira (wallet)
type Server struct {
	log  *zap.Logger
	repo Repo
}

func NewServer(log *zap.Logger, repo Repo) *Server { return &Server{log: log, repo: repo} }

// Router retorna o mux HTTP com as rotas da API de wallet
func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/wallet", s.getWallet)         // GET ?userId=...
	mux.HandleFunc("/wallet/ledger", s.getLedger)  // GET ?userId=...&limit=...
	mux.HandleFunc("/wallet/deposit", s.move(s.repo.Deposit))
	mux.HandleFunc("/wallet/withdraw", s.move(s.repo.Withdraw))
	mux.HandleFunc("/wallet/debit", s.move(s.repo.Debit))
	mux.HandleFunc("/wallet/credit", s.move(s.repo.Credit))
	return mux
}

// getWallet retorna (ou cria) a carteira e saldo do usuário
func (s *Server) getWallet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		http.Error(w, "userId required", http.StatusBadRequest)
		return
	}
	walletID, bal, err := s.repo.GetOrCreateWallet(r.Context(), userID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, dto.WalletResponse{UserID: userID, WalletID: walletID, BalanceCents: bal})
}

// getLedger retorna o histórico de movimentos do usuário
func (s *Server) getLedger(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		http.Error(w, "userId required", http.StatusBadRequest)
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	entries, err := s.repo.Ledger(r.Context(), userID, limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	out := make([]dto.LedgerEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, dto.LedgerEntryResponse{
			ID:            e.ID,
			OperationType: e.OperationType,
			AmountCents:   e.AmountCents,
			Reference:     e.Reference,
			CreatedAt:     e.CreatedAt,
		})
	}
	writeJSON(w, out)
}

// move devolve um handler POST pra qualquer operação de movimento;
// as quatro rotas compartilham payload, validação e mapa de erros.
func (s *Server) move(op func(ctx context.Context, userID string, amount int64, reference string) (int64, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var req dto.MoveRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if req.UserID == "" || req.AmountCents <= 0 || req.Reference == "" {
			http.Error(w, "invalid payload", http.StatusBadRequest)
			return
		}
		bal, err := op(r.Context(), req.UserID, req.AmountCents, req.Reference)
		if err != nil {
			if errors.Is(err, repo.ErrInsufficientFunds) {
				http.Error(w, "insufficient funds", http.StatusConflict)
				return
			}
			s.log.Error("wallet move failed",
				zap.String("userId", req.UserID),
				zap.String("reference", req.Reference),
				zap.Error(err),
			)
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, dto.MoveResponse{UserID: req.UserID, BalanceCents: bal})
	}
}

// writeJSON serializa e envia resposta JSON
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
