package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/casino-games-platform-poc/internal/game-service/control"
	"github.com/radieske/casino-games-platform-poc/internal/game-service/fair"
	"github.com/radieske/casino-games-platform-poc/internal/game-service/games"
	"github.com/radieske/casino-games-platform-poc/internal/game-service/repo"
	"github.com/radieske/casino-games-platform-poc/internal/game-service/wallet"
	"github.com/radieske/casino-games-platform-poc/internal/shared/metrics"
	"github.com/radieske/casino-games-platform-poc/pkg/contracts/events"
)

var (
	ErrInvalidAmount      = errors.New("service: bet amount must be positive")
	ErrUnknownGame        = errors.New("service: unknown game")
	ErrInsufficientFunds  = errors.New("service: insufficient funds")
	ErrBetNotFound        = errors.New("service: bet not found")
	ErrBetAlreadyResolved = errors.New("service: bet already resolved")
	ErrSeedMismatch       = errors.New("service: revealed seed does not match the published hash")
)

// BetStore é a persistência de apostas (implementada por repo.Postgres).
type BetStore interface {
	NextNonce(ctx context.Context, userID string) (uint64, error)
	Create(ctx context.Context, b *repo.Bet) error
	Get(ctx context.Context, betID string) (*repo.Bet, error)
	MarkResolved(ctx context.Context, betID string, outcome json.RawMessage, win bool, multiplier float64, profitCents int64) (bool, error)
	Cancel(ctx context.Context, betID string) error
}

// Wallet movimenta saldo (implementado pelo client HTTP do wallet-service).
// Débito e crédito são idempotentes por reference (betID).
type Wallet interface {
	Debit(ctx context.Context, userID string, cents int64, reference string) (int64, error)
	Credit(ctx context.Context, userID string, cents int64, reference string) (int64, error)
}

// Directives é o controlador de overrides (peek puro + consume idempotente).
type Directives interface {
	Peek(ctx context.Context, userID, gameID string) (*control.Directive, error)
	Consume(ctx context.Context, d *control.Directive, userID, gameID, betID string) error
}

// Publisher publica eventos de settlement no Kafka.
type Publisher interface {
	PublishBetSettled(ctx context.Context, e events.BetSettled) error
}

// IDFunc gera ids de aposta (uuid em produção, determinístico em teste).
type IDFunc func() string

// Service é o ciclo de vida das apostas dos jogos instantâneos:
// reserva (place) e resolução (complete), com o override controller
// consultado antes de todo resultado.
type Service struct {
	log        *zap.Logger
	store      BetStore
	wallet     Wallet
	directives Directives
	publ       Publisher
	newID      IDFunc
}

func New(log *zap.Logger, store BetStore, w Wallet, d Directives, p Publisher, newID IDFunc) *Service {
	return &Service{log: log, store: store, wallet: w, directives: d, publ: p, newID: newID}
}

// PlaceBet valida e debita a aposta, gravando o commitment de seed.
// Nenhuma mutação de saldo acontece se a validação falhar; se o débito
// falhar, a aposta é cancelada e nada foi movimentado.
func (s *Service) PlaceBet(ctx context.Context, userID, gameID string, amountCents int64, currency, clientSeed string, params games.Params) (*repo.Bet, error) {
	if amountCents <= 0 {
		return nil, ErrInvalidAmount
	}
	if !games.Known(gameID) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownGame, gameID)
	}
	if currency == "" {
		currency = "BRL"
	}

	nonce, err := s.store.NextNonce(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("next nonce: %w", err)
	}
	commitment := fair.NewCommitment(clientSeed, nonce)

	rawParams, err := json.Marshal(params)
	if err != nil {
		return nil, err
	}

	bet := &repo.Bet{
		ID:               s.newID(),
		UserID:           userID,
		GameID:           gameID,
		AmountCents:      amountCents,
		Currency:         currency,
		ClientSeed:       clientSeed,
		ServerSecret:     commitment.ServerSecret,
		ServerSecretHash: commitment.ServerSecretHash,
		Nonce:            nonce,
		Params:           rawParams,
		Status:           repo.StatusPending,
	}
	if err := s.store.Create(ctx, bet); err != nil {
		return nil, fmt.Errorf("create bet: %w", err)
	}

	if _, err := s.wallet.Debit(ctx, userID, amountCents, bet.ID); err != nil {
		if cerr := s.store.Cancel(ctx, bet.ID); cerr != nil {
			s.log.Error("cancel bet after debit failure", zap.String("betId", bet.ID), zap.Error(cerr))
		}
		if errors.Is(err, wallet.ErrInsufficientFunds) {
			// saldo insuficiente garante que nada foi movimentado
			return nil, ErrInsufficientFunds
		}
		// timeout ou erro de transporte: o débito pode ter aplicado no
		// wallet mesmo com a resposta perdida, então estorna. O crédito
		// é idempotente por reference e a aposta já está cancelada, logo
		// não colide com o crédito de payout de uma resolução.
		if _, rerr := s.wallet.Credit(ctx, userID, amountCents, bet.ID); rerr != nil {
			s.log.Error("refund after debit failure", zap.String("betId", bet.ID), zap.Error(rerr))
		}
		return nil, fmt.Errorf("wallet debit: %w", err)
	}

	metrics.BetsPlaced.WithLabelValues(gameID).Inc()
	return bet, nil
}

// CompleteBet resolve uma aposta pendente exatamente uma vez. O crédito
// no wallet é idempotente por betID, então um retry concorrente nunca
// paga duas vezes; o guarda final é o UPDATE condicional do store.
func (s *Service) CompleteBet(ctx context.Context, betID string, overrideParams *games.Params) (*repo.Bet, error) {
	bet, err := s.store.Get(ctx, betID)
	if err != nil {
		return nil, ErrBetNotFound
	}
	if bet.Status == repo.StatusResolved {
		return nil, ErrBetAlreadyResolved
	}
	if bet.Status == repo.StatusCancelled {
		return nil, ErrBetNotFound
	}

	var params games.Params
	if overrideParams != nil {
		// picks/opções escolhidos durante o jogo chegam na resolução
		params = *overrideParams
	} else if len(bet.Params) > 0 {
		if err := json.Unmarshal(bet.Params, &params); err != nil {
			return nil, err
		}
	}

	directive, err := s.directives.Peek(ctx, bet.UserID, bet.GameID)
	if err != nil {
		return nil, fmt.Errorf("peek directive: %w", err)
	}

	commitment := fair.Commitment{
		ServerSecret:     bet.ServerSecret,
		ServerSecretHash: bet.ServerSecretHash,
		ClientSeed:       bet.ClientSeed,
		Nonce:            bet.Nonce,
	}
	outcome, err := games.Resolve(bet.GameID, commitment, params, directive)
	if err != nil {
		return nil, err
	}

	if outcome.TargetMiss > 0 {
		// alvo do override fora da tolerância: degrada pro valor mais
		// próximo e segue o jogo; condição reportada, nunca fatal
		metrics.UnreachableTargets.WithLabelValues(bet.GameID).Inc()
		s.log.Warn("override target unreachable",
			zap.String("betId", bet.ID),
			zap.String("game", bet.GameID),
			zap.Float64("achieved", outcome.Multiplier),
			zap.Float64("miss", outcome.TargetMiss),
		)
	}

	payout := int64(0)
	profit := -bet.AmountCents
	if outcome.Win {
		payout = int64(math.Round(float64(bet.AmountCents) * outcome.Multiplier))
		profit = payout - bet.AmountCents
	}

	if payout > 0 {
		if _, err := s.wallet.Credit(ctx, bet.UserID, payout, bet.ID); err != nil {
			return nil, fmt.Errorf("wallet credit: %w", err)
		}
	}

	rawOutcome, err := outcome.Marshal()
	if err != nil {
		return nil, err
	}
	ok, err := s.store.MarkResolved(ctx, bet.ID, rawOutcome, outcome.Win, outcome.Multiplier, profit)
	if err != nil {
		return nil, fmt.Errorf("mark resolved: %w", err)
	}
	if !ok {
		// corrida com outro resolve; o crédito idempotente já protegeu
		return nil, ErrBetAlreadyResolved
	}

	if err := s.directives.Consume(ctx, directive, bet.UserID, bet.GameID, bet.ID); err != nil {
		s.log.Error("consume directive", zap.String("betId", bet.ID), zap.Error(err))
	}
	if directive != nil {
		metrics.OverridesApplied.WithLabelValues(directive.Source, string(directive.Type)).Inc()
	}

	result := "lose"
	if outcome.Win {
		result = "win"
	}
	metrics.BetsSettled.WithLabelValues(bet.GameID, result).Inc()

	if s.publ != nil {
		e := events.BetSettled{
			BetID:          bet.ID,
			UserID:         bet.UserID,
			GameID:         bet.GameID,
			AmountCents:    bet.AmountCents,
			PayoutCents:    payout,
			Multiplier:     outcome.Multiplier,
			Win:            outcome.Win,
			Forced:         outcome.Forced,
			ServerSeed:     bet.ServerSecret,
			ServerSeedHash: bet.ServerSecretHash,
			Outcome:        rawOutcome,
			TsUnixMs:       time.Now().UnixMilli(),
		}
		if err := s.publ.PublishBetSettled(ctx, e); err != nil {
			s.log.Warn("publish bet_settled", zap.String("betId", bet.ID), zap.Error(err))
		}
	}

	now := time.Now()
	bet.Outcome = rawOutcome
	bet.Win = outcome.Win
	bet.Multiplier = outcome.Multiplier
	bet.ProfitCents = profit
	bet.Status = repo.StatusResolved
	bet.ResolvedAt = &now
	return bet, nil
}

// GetBet devolve o registro de uma aposta existente.
func (s *Service) GetBet(ctx context.Context, betID string) (*repo.Bet, error) {
	bet, err := s.store.Get(ctx, betID)
	if err != nil {
		return nil, ErrBetNotFound
	}
	return bet, nil
}

// Verify recomputa o resultado determinístico pra auditoria. Se o hash
// publicado vier na requisição, a divergência é uma falha de fairness
// devolvida ao chamador, nunca engolida.
func (s *Service) Verify(ctx context.Context, serverSeed, clientSeed string, nonce uint64, gameID string, publishedHash string, params games.Params) (*games.Outcome, error) {
	if publishedHash != "" && !fair.VerifyCommitment(serverSeed, publishedHash) {
		return nil, ErrSeedMismatch
	}
	commitment := fair.Commitment{
		ServerSecret:     serverSeed,
		ServerSecretHash: fair.CommitmentHash(serverSeed),
		ClientSeed:       clientSeed,
		Nonce:            nonce,
	}
	return games.Resolve(gameID, commitment, params, nil)
}
