package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/radieske/casino-games-platform-poc/internal/game-service/control"
	"github.com/radieske/casino-games-platform-poc/internal/game-service/dto"
	"github.com/radieske/casino-games-platform-poc/internal/game-service/repo"
	"github.com/radieske/casino-games-platform-poc/internal/game-service/service"
)

type Server struct {
	log     *zap.Logger
	svc     *service.Service
	control control.Store
}

func NewServer(log *zap.Logger, svc *service.Service, st control.Store) *Server {
	return &Server{log: log, svc: svc, control: st}
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/bets/place", s.placeBet) // POST
	mux.HandleFunc("/bets/", s.betByID)       // GET /bets/{id} | POST /bets/{id}/complete
	mux.HandleFunc("/verify", s.verify)       // POST
	// endpoints do operador
	mux.HandleFunc("/admin/control/global", s.globalControl) // GET | PUT | DELETE
	mux.HandleFunc("/admin/control/user", s.userControl)     // GET | POST | DELETE
	return mux
}

func (s *Server) placeBet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req dto.PlaceBetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}
	if req.UserID == "" || req.GameID == "" || req.ClientSeed == "" {
		writeError(w, http.StatusBadRequest, "userId, gameId and clientSeed are required")
		return
	}

	bet, err := s.svc.PlaceBet(r.Context(), req.UserID, req.GameID, req.AmountCents, req.Currency, req.ClientSeed, req.Options)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.PlaceBetResponse{
		BetID:          bet.ID,
		ServerSeedHash: bet.ServerSecretHash,
		Status:         bet.Status,
	})
}

// betByID cobre GET /bets/{id} e POST /bets/{id}/complete.
func (s *Server) betByID(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/bets/")
	if rest == "" {
		writeError(w, http.StatusBadRequest, "betId required")
		return
	}

	if id, ok := strings.CutSuffix(rest, "/complete"); ok {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		s.completeBet(w, r, id)
		return
	}

	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	bet, err := s.svc.GetBet(r.Context(), rest)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBetResponse(bet))
}

func (s *Server) completeBet(w http.ResponseWriter, r *http.Request, betID string) {
	var req dto.CompleteBetRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "bad json")
			return
		}
	}

	bet, err := s.svc.CompleteBet(r.Context(), betID, req.Options)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBetResponse(bet))
}

func (s *Server) verify(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req dto.VerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}
	if req.ServerSeed == "" || req.ClientSeed == "" || req.GameType == "" {
		writeError(w, http.StatusBadRequest, "serverSeed, clientSeed and gameType are required")
		return
	}

	outcome, err := s.svc.Verify(r.Context(), req.ServerSeed, req.ClientSeed, req.Nonce, req.GameType, req.ServerSeedHash, req.Options)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	raw, err := outcome.Marshal()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, dto.VerifyResponse{Result: raw})
}

// globalControl administra o registro singleton do operador.
func (s *Server) globalControl(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		g, err := s.control.GetGlobal(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if g == nil {
			writeError(w, http.StatusNotFound, "no global control set")
			return
		}
		writeJSON(w, http.StatusOK, g)
	case http.MethodPut:
		var g control.GlobalControl
		if err := json.NewDecoder(r.Body).Decode(&g); err != nil {
			writeError(w, http.StatusBadRequest, "bad json")
			return
		}
		if g.ForceAllLose && g.ForceAllWin {
			writeError(w, http.StatusBadRequest, "force_all_lose and force_all_win are mutually exclusive")
			return
		}
		if err := s.control.PutGlobal(r.Context(), g); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		s.log.Info("global control updated",
			zap.Bool("forceAllLose", g.ForceAllLose),
			zap.Bool("forceAllWin", g.ForceAllWin),
		)
		writeJSON(w, http.StatusOK, g)
	case http.MethodDelete:
		if err := s.control.DeleteGlobal(r.Context()); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// userControl administra overrides por (usuário, jogo). GET e DELETE
// identificam o registro por query string (?userId=&gameId=).
func (s *Server) userControl(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		userID, gameID := r.URL.Query().Get("userId"), r.URL.Query().Get("gameId")
		if userID == "" || gameID == "" {
			writeError(w, http.StatusBadRequest, "userId and gameId are required")
			return
		}
		u, err := s.control.GetUserGame(r.Context(), userID, gameID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if u == nil {
			writeError(w, http.StatusNotFound, "no control for this user and game")
			return
		}
		writeJSON(w, http.StatusOK, u)
	case http.MethodPost:
		var u control.UserGameControl
		if err := json.NewDecoder(r.Body).Decode(&u); err != nil {
			writeError(w, http.StatusBadRequest, "bad json")
			return
		}
		if u.UserID == "" || u.GameID == "" {
			writeError(w, http.StatusBadRequest, "user_id and game_id are required")
			return
		}
		if u.DurationGames <= 0 {
			writeError(w, http.StatusBadRequest, "duration_games must be positive")
			return
		}
		if u.MinMultiplier > 0 && u.MaxMultiplier > 0 && u.MinMultiplier > u.MaxMultiplier {
			writeError(w, http.StatusBadRequest, "min_multiplier greater than max_multiplier")
			return
		}
		u.GamesPlayed = 0
		if err := s.control.PutUserGame(r.Context(), u); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		s.log.Info("user control updated",
			zap.String("userId", u.UserID),
			zap.String("gameId", u.GameID),
			zap.String("outcome", string(u.OutcomeType)),
			zap.Int("durationGames", u.DurationGames),
		)
		writeJSON(w, http.StatusCreated, u)
	case http.MethodDelete:
		userID, gameID := r.URL.Query().Get("userId"), r.URL.Query().Get("gameId")
		if userID == "" || gameID == "" {
			writeError(w, http.StatusBadRequest, "userId and gameId are required")
			return
		}
		if err := s.control.DeleteUserGame(r.Context(), userID, gameID); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidAmount),
		errors.Is(err, service.ErrUnknownGame),
		errors.Is(err, service.ErrSeedMismatch),
		errors.Is(err, service.ErrBetAlreadyResolved):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrInsufficientFunds):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrBetNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		s.log.Error("request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func toBetResponse(b *repo.Bet) dto.BetResponse {
	resp := dto.BetResponse{
		BetID:          b.ID,
		UserID:         b.UserID,
		GameID:         b.GameID,
		AmountCents:    b.AmountCents,
		Currency:       b.Currency,
		Status:         b.Status,
		ServerSeedHash: b.ServerSecretHash,
		ClientSeed:     b.ClientSeed,
		Nonce:          b.Nonce,
		Win:            b.Win,
		Multiplier:     b.Multiplier,
		ProfitCents:    b.ProfitCents,
		Outcome:        b.Outcome,
		CreatedAt:      b.CreatedAt,
		ResolvedAt:     b.ResolvedAt,
	}
	if b.Status == repo.StatusResolved {
		// o segredo só é revelado depois da resolução
		resp.ServerSeed = b.ServerSecret
	}
	return resp
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, dto.ErrorResponse{Message: msg})
}
