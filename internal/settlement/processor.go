package settlement

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/casino-games-platform-poc/internal/game-service/fair"
	"github.com/radieske/casino-games-platform-poc/pkg/contracts/events"
)

// AuditRow é a linha gravada na trilha de auditoria de settlements.
type AuditRow struct {
	BetID       string
	UserID      string
	GameID      string
	AmountCents int64
	PayoutCents int64
	Multiplier  float64
	Win         bool
	Forced      bool
	SeedValid   bool
	Outcome     []byte
	SettledAt   time.Time
}

// Store persiste linhas de auditoria. Inserção idempotente por betID.
type Store interface {
	InsertAudit(ctx context.Context, row *AuditRow) error
}

// Processor transforma eventos bet_settled em trilha de auditoria.
// Cada evento carrega o seed revelado: o processor reconfere o
// commitment e marca o registro quando o hash não bate.
type Processor struct {
	log   *zap.Logger
	store Store
}

func NewProcessor(log *zap.Logger, store Store) *Processor {
	return &Processor{log: log, store: store}
}

func (p *Processor) ProcessBetSettled(ctx context.Context, e *events.BetSettled) error {
	if e.BetID == "" {
		return fmt.Errorf("settlement: event without betId")
	}

	// o seed revelado tem que bater com o hash publicado na criação
	// da aposta; divergência vai pra trilha marcada como inválida
	seedValid := e.ServerSeed != "" && fair.VerifyCommitment(e.ServerSeed, e.ServerSeedHash)
	if !seedValid {
		p.log.Warn("bet settled with broken seed commitment",
			zap.String("betId", e.BetID),
			zap.String("gameId", e.GameID),
		)
	}

	row := &AuditRow{
		BetID:       e.BetID,
		UserID:      e.UserID,
		GameID:      e.GameID,
		AmountCents: e.AmountCents,
		PayoutCents: e.PayoutCents,
		Multiplier:  e.Multiplier,
		Win:         e.Win,
		Forced:      e.Forced,
		SeedValid:   seedValid,
		Outcome:     e.Outcome,
		SettledAt:   time.UnixMilli(e.TsUnixMs),
	}
	if err := p.store.InsertAudit(ctx, row); err != nil {
		return fmt.Errorf("settlement: insert audit: %w", err)
	}
	return nil
}
