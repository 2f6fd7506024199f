package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/casino-games-platform-poc/internal/game-service/control"
	"github.com/radieske/casino-games-platform-poc/internal/game-service/games"
	"github.com/radieske/casino-games-platform-poc/internal/game-service/repo"
	"github.com/radieske/casino-games-platform-poc/internal/game-service/wallet"
	"github.com/radieske/casino-games-platform-poc/pkg/contracts/events"
)

// --- fakes em memória ---

type memBets struct {
	mu     sync.Mutex
	bets   map[string]*repo.Bet
	nonces map[string]uint64
}

func newMemBets() *memBets {
	return &memBets{bets: map[string]*repo.Bet{}, nonces: map[string]uint64{}}
}

func (m *memBets) NextNonce(ctx context.Context, userID string) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nonces[userID]++
	return m.nonces[userID], nil
}

func (m *memBets) Create(ctx context.Context, b *repo.Bet) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *b
	m.bets[b.ID] = &cp
	return nil
}

func (m *memBets) Get(ctx context.Context, betID string) (*repo.Bet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bets[betID]
	if !ok {
		return nil, errors.New("not found")
	}
	cp := *b
	return &cp, nil
}

func (m *memBets) MarkResolved(ctx context.Context, betID string, outcome json.RawMessage, win bool, multiplier float64, profitCents int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bets[betID]
	if !ok || b.Status != repo.StatusPending {
		return false, nil
	}
	now := time.Now()
	b.Outcome = outcome
	b.Win = win
	b.Multiplier = multiplier
	b.ProfitCents = profitCents
	b.Status = repo.StatusResolved
	b.ResolvedAt = &now
	return true, nil
}

func (m *memBets) Cancel(ctx context.Context, betID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b, ok := m.bets[betID]; ok && b.Status == repo.StatusPending {
		b.Status = repo.StatusCancelled
	}
	return nil
}

// memWallet replica a semântica do wallet-service: saldo por usuário,
// débito/crédito idempotentes por reference, saldo nunca negativo.
type memWallet struct {
	mu       sync.Mutex
	balances map[string]int64
	seen     map[string]bool // kind+reference
}

func newMemWallet(initial map[string]int64) *memWallet {
	b := map[string]int64{}
	for k, v := range initial {
		b[k] = v
	}
	return &memWallet{balances: b, seen: map[string]bool{}}
}

func (w *memWallet) Debit(ctx context.Context, userID string, cents int64, reference string) (int64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.seen["debit:"+reference] {
		return w.balances[userID], nil
	}
	if w.balances[userID] < cents {
		return 0, wallet.ErrInsufficientFunds
	}
	w.seen["debit:"+reference] = true
	w.balances[userID] -= cents
	return w.balances[userID], nil
}

func (w *memWallet) Credit(ctx context.Context, userID string, cents int64, reference string) (int64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.seen["credit:"+reference] {
		return w.balances[userID], nil
	}
	w.seen["credit:"+reference] = true
	w.balances[userID] += cents
	return w.balances[userID], nil
}

func (w *memWallet) balance(userID string) int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.balances[userID]
}

// timeoutWallet aplica o débito mas falha a resposta, como um timeout
// de transporte depois do movimento já ter entrado no wallet-service.
type timeoutWallet struct{ *memWallet }

func (w *timeoutWallet) Debit(ctx context.Context, userID string, cents int64, reference string) (int64, error) {
	_, _ = w.memWallet.Debit(ctx, userID, cents, reference)
	return 0, errors.New("wallet request: context deadline exceeded")
}

type memDirectives struct {
	directive *control.Directive
	consumed  map[string]int // betID -> vezes
}

func (d *memDirectives) Peek(ctx context.Context, userID, gameID string) (*control.Directive, error) {
	return d.directive, nil
}

func (d *memDirectives) Consume(ctx context.Context, dir *control.Directive, userID, gameID, betID string) error {
	if dir == nil || dir.Source != "user" {
		return nil
	}
	if d.consumed == nil {
		d.consumed = map[string]int{}
	}
	d.consumed[betID]++
	return nil
}

type memPublisher struct {
	mu     sync.Mutex
	events []events.BetSettled
}

func (p *memPublisher) PublishBetSettled(ctx context.Context, e events.BetSettled) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func newService(w *memWallet, d *memDirectives) (*Service, *memBets, *memPublisher) {
	store := newMemBets()
	publ := &memPublisher{}
	n := 0
	svc := New(zap.NewNop(), store, w, d, publ, func() string {
		n++
		return fmt.Sprintf("bet-%d", n)
	})
	return svc, store, publ
}

// --- testes ---

func TestPlaceBetValidacao(t *testing.T) {
	svc, _, _ := newService(newMemWallet(map[string]int64{"u1": 1000}), &memDirectives{})
	ctx := context.Background()

	if _, err := svc.PlaceBet(ctx, "u1", "dice", 0, "", "seed", games.Params{}); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("aposta de valor zero: %v", err)
	}
	if _, err := svc.PlaceBet(ctx, "u1", "dice", -5, "", "seed", games.Params{}); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("aposta negativa: %v", err)
	}
	if _, err := svc.PlaceBet(ctx, "u1", "roleta-russa", 100, "", "seed", games.Params{}); !errors.Is(err, ErrUnknownGame) {
		t.Fatalf("jogo desconhecido: %v", err)
	}
}

func TestPlaceBetSaldoInsuficiente(t *testing.T) {
	w := newMemWallet(map[string]int64{"u1": 50})
	svc, store, _ := newService(w, &memDirectives{})

	_, err := svc.PlaceBet(context.Background(), "u1", "dice", 100, "", "seed", games.Params{Target: 50, Mode: "over"})
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("esperava ErrInsufficientFunds, veio %v", err)
	}
	// nenhuma mutação de saldo
	if w.balance("u1") != 50 {
		t.Fatalf("saldo mudou numa aposta rejeitada: %d", w.balance("u1"))
	}
	// a aposta não fica pendente
	for _, b := range store.bets {
		if b.Status == repo.StatusPending {
			t.Fatalf("aposta pendente sobrou após débito recusado")
		}
	}
}

func TestPlaceBetEstornaDebitoPerdidoNoTimeout(t *testing.T) {
	mw := newMemWallet(map[string]int64{"u1": 1_000})
	w := &timeoutWallet{memWallet: mw}
	store := newMemBets()
	n := 0
	svc := New(zap.NewNop(), store, w, &memDirectives{}, &memPublisher{}, func() string {
		n++
		return fmt.Sprintf("bet-%d", n)
	})

	_, err := svc.PlaceBet(context.Background(), "u1", "dice", 400, "", "seed", games.Params{Target: 50, Mode: "over"})
	if err == nil {
		t.Fatal("debito com timeout deveria falhar a aposta")
	}
	if errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("timeout nao e saldo insuficiente: %v", err)
	}

	// o debito entrou no wallet apesar da resposta perdida; o estorno
	// pelo mesmo betID devolve o valor
	if got := mw.balance("u1"); got != 1_000 {
		t.Fatalf("saldo apos estorno = %d, quer 1000", got)
	}
	// a aposta morre cancelada, nunca pendente
	for _, b := range store.bets {
		if b.Status != repo.StatusCancelled {
			t.Fatalf("aposta deveria estar cancelada: %+v", b)
		}
	}
}

func TestCicloCompletoDebitaECredita(t *testing.T) {
	w := newMemWallet(map[string]int64{"u1": 10_000})
	d := &memDirectives{directive: &control.Directive{Type: control.OutcomeWin, UseExact: true, Target: 2.0, Source: "user"}}
	svc, _, publ := newService(w, d)
	ctx := context.Background()

	bet, err := svc.PlaceBet(ctx, "u1", "dice", 1_000, "", "seed", games.Params{Target: 50, Mode: "over"})
	if err != nil {
		t.Fatal(err)
	}
	if bet.ServerSecretHash == "" || bet.ServerSecret == "" {
		t.Fatalf("aposta sem commitment de seed")
	}
	if w.balance("u1") != 9_000 {
		t.Fatalf("débito não aplicado: %d", w.balance("u1"))
	}

	resolved, err := svc.CompleteBet(ctx, bet.ID, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !resolved.Win || resolved.Multiplier != 2.0 {
		t.Fatalf("win exato 2.0 esperado: %+v", resolved)
	}
	// profit = amount*mult - amount
	if resolved.ProfitCents != 1_000 {
		t.Fatalf("profit %d, esperava 1000", resolved.ProfitCents)
	}
	if w.balance("u1") != 11_000 {
		t.Fatalf("crédito do prêmio não aplicado: %d", w.balance("u1"))
	}
	if len(publ.events) != 1 || !publ.events[0].Forced {
		t.Fatalf("evento bet_settled não publicado corretamente: %+v", publ.events)
	}
	if d.consumed[bet.ID] != 1 {
		t.Fatalf("diretiva não consumida exatamente uma vez")
	}
}

func TestResolucaoIdempotente(t *testing.T) {
	w := newMemWallet(map[string]int64{"u1": 10_000})
	d := &memDirectives{directive: &control.Directive{Type: control.OutcomeWin, Source: "user"}}
	svc, _, _ := newService(w, d)
	ctx := context.Background()

	bet, err := svc.PlaceBet(ctx, "u1", "cups", 1_000, "", "seed", games.Params{PickedCup: 0})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.CompleteBet(ctx, bet.ID, nil); err != nil {
		t.Fatal(err)
	}
	after := w.balance("u1")

	// segundo resolve: rejeitado, sem crédito duplicado
	if _, err := svc.CompleteBet(ctx, bet.ID, nil); !errors.Is(err, ErrBetAlreadyResolved) {
		t.Fatalf("esperava ErrBetAlreadyResolved, veio %v", err)
	}
	if w.balance("u1") != after {
		t.Fatalf("crédito aplicado duas vezes: %d != %d", w.balance("u1"), after)
	}
}

func TestConservacaoDoLedger(t *testing.T) {
	w := newMemWallet(map[string]int64{"u1": 100_000})
	svc, _, _ := newService(w, &memDirectives{})
	ctx := context.Background()

	var lost, wonPayout int64
	for i := 0; i < 40; i++ {
		amount := int64(500 + i*10)
		bet, err := svc.PlaceBet(ctx, "u1", "dice", amount, "", fmt.Sprintf("seed-%d", i), games.Params{Target: 50, Mode: "over"})
		if err != nil {
			t.Fatal(err)
		}
		resolved, err := svc.CompleteBet(ctx, bet.ID, nil)
		if err != nil {
			t.Fatal(err)
		}
		if resolved.Win {
			wonPayout += amount*2 - amount // multiplicador 2.00, payout menos a aposta já debitada
		} else {
			lost += amount
		}
		if w.balance("u1") < 0 {
			t.Fatalf("saldo negativo na aposta %d", i)
		}
	}

	want := 100_000 - lost + wonPayout
	if got := w.balance("u1"); got != want {
		t.Fatalf("conservação violada: saldo %d, esperava %d", got, want)
	}
}

func TestCompleteBetInexistente(t *testing.T) {
	svc, _, _ := newService(newMemWallet(nil), &memDirectives{})
	if _, err := svc.CompleteBet(context.Background(), "nao-existe", nil); !errors.Is(err, ErrBetNotFound) {
		t.Fatalf("esperava ErrBetNotFound, veio %v", err)
	}
}

func TestVerify(t *testing.T) {
	svc, _, _ := newService(newMemWallet(map[string]int64{"u1": 10_000}), &memDirectives{})
	ctx := context.Background()

	bet, err := svc.PlaceBet(ctx, "u1", "dice", 1_000, "", "seed", games.Params{Target: 50, Mode: "over"})
	if err != nil {
		t.Fatal(err)
	}
	resolved, err := svc.CompleteBet(ctx, bet.ID, nil)
	if err != nil {
		t.Fatal(err)
	}

	// recomputa com o segredo revelado: mesmo resultado
	out, err := svc.Verify(ctx, bet.ServerSecret, bet.ClientSeed, bet.Nonce, "dice", bet.ServerSecretHash, games.Params{Target: 50, Mode: "over"})
	if err != nil {
		t.Fatal(err)
	}
	if out.Win != resolved.Win {
		t.Fatalf("auditoria divergiu do resultado original")
	}

	// segredo trocado contra o hash publicado: falha de fairness explícita
	if _, err := svc.Verify(ctx, "segredo-falso", bet.ClientSeed, bet.Nonce, "dice", bet.ServerSecretHash, games.Params{}); !errors.Is(err, ErrSeedMismatch) {
		t.Fatalf("esperava ErrSeedMismatch, veio %v", err)
	}
}
