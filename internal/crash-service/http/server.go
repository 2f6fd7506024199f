package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/radieske/casino-games-platform-poc/internal/crash-service/dto"
	"github.com/radieske/casino-games-platform-poc/internal/crash-service/round"
	"github.com/radieske/casino-games-platform-poc/internal/crash-service/ws"
)

// HistoryReader lê rodadas encerradas pro endpoint de histórico.
type HistoryReader interface {
	History(ctx context.Context, limit int) ([]round.Round, error)
}

type Server struct {
	log     *zap.Logger
	machine *round.Machine
	history HistoryReader
	hub     *ws.Hub
}

func NewServer(log *zap.Logger, m *round.Machine, h HistoryReader, hub *ws.Hub) *Server {
	return &Server{log: log, machine: m, history: h, hub: hub}
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.hub.HandleWS)
	mux.HandleFunc("/round/state", s.roundState)     // GET
	mux.HandleFunc("/round/join", s.joinRound)       // POST
	mux.HandleFunc("/round/cashout", s.cashout)      // POST
	mux.HandleFunc("/round/history", s.roundHistory) // GET ?limit=...
	return mux
}

func (s *Server) roundState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	snap, err := s.machine.Current(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) joinRound(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req dto.JoinRoundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}
	if req.UserID == "" || req.AmountCents <= 0 {
		writeError(w, http.StatusBadRequest, "userId and amount_cents are required")
		return
	}
	if req.AutoCashout != 0 && req.AutoCashout < 1.01 {
		writeError(w, http.StatusBadRequest, "auto_cashout must be at least 1.01")
		return
	}

	res, err := s.machine.Join(r.Context(), round.JoinRequest{
		UserID:      req.UserID,
		AmountCents: req.AmountCents,
		AutoCashout: req.AutoCashout,
	})
	if err != nil {
		s.writeRoundError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, dto.JoinRoundResponse{BetID: res.BetID, RoundID: res.RoundID})
}

func (s *Server) cashout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req dto.CashoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "userId required")
		return
	}

	res, err := s.machine.Cashout(r.Context(), req.UserID)
	if err != nil {
		s.writeRoundError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.CashoutResponse{
		BetID:       res.BetID,
		Multiplier:  res.Multiplier,
		PayoutCents: res.PayoutCents,
	})
}

func (s *Server) roundHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	rounds, err := s.history.History(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	out := make([]dto.RoundHistoryItem, 0, len(rounds))
	for _, rd := range rounds {
		out = append(out, dto.RoundHistoryItem{
			RoundID:        rd.ID,
			Sequence:       rd.Sequence,
			CrashPoint:     rd.CrashPoint,
			ServerSeed:     rd.ServerSecret,
			ServerSeedHash: rd.ServerSecretHash,
			TotalBets:      rd.TotalBets,
			TotalCashouts:  rd.TotalCashouts,
			StartedAt:      rd.StartedAt,
			CrashedAt:      rd.CrashedAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) writeRoundError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, round.ErrNotAcceptingBets),
		errors.Is(err, round.ErrRoundNotRunning),
		errors.Is(err, round.ErrAlreadyJoined),
		errors.Is(err, round.ErrAlreadyCashedOut):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, round.ErrNoActiveBet):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		s.log.Error("round request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, dto.ErrorResponse{Message: msg})
}
