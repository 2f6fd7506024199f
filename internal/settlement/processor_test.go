package settlement

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/radieske/casino-games-platform-poc/internal/game-service/fair"
	"github.com/radieske/casino-games-platform-poc/pkg/contracts/events"
)

type memStore struct{ rows []*AuditRow }

func (m *memStore) InsertAudit(_ context.Context, row *AuditRow) error {
	for _, r := range m.rows {
		if r.BetID == row.BetID {
			return nil // idempotente por betID
		}
	}
	m.rows = append(m.rows, row)
	return nil
}

func settledEvent(betID string) *events.BetSettled {
	seed := "segredo-de-teste"
	return &events.BetSettled{
		BetID:          betID,
		UserID:         "u1",
		GameID:         "dice",
		AmountCents:    1_000,
		PayoutCents:    1_980,
		Multiplier:     1.98,
		Win:            true,
		ServerSeed:     seed,
		ServerSeedHash: fair.CommitmentHash(seed),
		TsUnixMs:       1_700_000_000_000,
	}
}

func TestEventoViraLinhaDeAuditoria(t *testing.T) {
	store := &memStore{}
	p := NewProcessor(zap.NewNop(), store)

	if err := p.ProcessBetSettled(context.Background(), settledEvent("bet-1")); err != nil {
		t.Fatalf("process: %v", err)
	}
	if len(store.rows) != 1 {
		t.Fatalf("linhas = %d, quer 1", len(store.rows))
	}
	row := store.rows[0]
	if row.BetID != "bet-1" || row.PayoutCents != 1_980 || !row.Win {
		t.Fatalf("linha inesperada: %+v", row)
	}
	if !row.SeedValid {
		t.Fatal("seed integro deveria marcar seed_valid")
	}
}

func TestSeedAdulteradoMarcaLinha(t *testing.T) {
	store := &memStore{}
	p := NewProcessor(zap.NewNop(), store)

	e := settledEvent("bet-2")
	e.ServerSeed = "outro-segredo" // nao bate com o hash publicado
	if err := p.ProcessBetSettled(context.Background(), e); err != nil {
		t.Fatalf("process: %v", err)
	}
	if store.rows[0].SeedValid {
		t.Fatal("seed adulterado nao pode passar como valido")
	}
}

func TestReprocessamentoNaoDuplica(t *testing.T) {
	store := &memStore{}
	p := NewProcessor(zap.NewNop(), store)

	e := settledEvent("bet-3")
	for i := 0; i < 3; i++ {
		if err := p.ProcessBetSettled(context.Background(), e); err != nil {
			t.Fatalf("process #%d: %v", i, err)
		}
	}
	if len(store.rows) != 1 {
		t.Fatalf("linhas = %d, quer 1", len(store.rows))
	}
}

func TestEventoSemBetIDFalha(t *testing.T) {
	p := NewProcessor(zap.NewNop(), &memStore{})
	if err := p.ProcessBetSettled(context.Background(), &events.BetSettled{}); err == nil {
		t.Fatal("evento sem betId deveria falhar")
	}
}
