package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/radieske/casino-games-platform-poc/internal/wallet-service/dto"
	"github.com/radieske/casino-games-platform-poc/internal/wallet-service/repo"
)

// memRepo reproduz em memória a semântica do repo Postgres: movimentos
// idempotentes por (operação, reference) e saldo nunca negativo.
type memRepo struct {
	balances map[string]int64
	seen     map[string]bool
	ledger   map[string][]repo.LedgerEntry
}

func newMemRepo() *memRepo {
	return &memRepo{
		balances: map[string]int64{},
		seen:     map[string]bool{},
		ledger:   map[string][]repo.LedgerEntry{},
	}
}

func (m *memRepo) GetOrCreateWallet(_ context.Context, userID string) (string, int64, error) {
	return "w-" + userID, m.balances[userID], nil
}

func (m *memRepo) move(userID string, amount int64, reference, op string) (int64, error) {
	key := userID + "|" + op + "|" + reference
	if m.seen[key] {
		return m.balances[userID], nil
	}
	debits := op == "DEBIT" || op == "WITHDRAW"
	if debits && m.balances[userID] < amount {
		return 0, repo.ErrInsufficientFunds
	}
	m.seen[key] = true
	if debits {
		m.balances[userID] -= amount
	} else {
		m.balances[userID] += amount
	}
	m.ledger[userID] = append(m.ledger[userID], repo.LedgerEntry{
		ID: key, OperationType: op, AmountCents: amount, Reference: reference,
	})
	return m.balances[userID], nil
}

func (m *memRepo) Deposit(_ context.Context, u string, a int64, r string) (int64, error) {
	return m.move(u, a, r, "DEPOSIT")
}
func (m *memRepo) Withdraw(_ context.Context, u string, a int64, r string) (int64, error) {
	return m.move(u, a, r, "WITHDRAW")
}
func (m *memRepo) Debit(_ context.Context, u string, a int64, r string) (int64, error) {
	return m.move(u, a, r, "DEBIT")
}
func (m *memRepo) Credit(_ context.Context, u string, a int64, r string) (int64, error) {
	return m.move(u, a, r, "CREDIT")
}
func (m *memRepo) Ledger(_ context.Context, u string, _ int) ([]repo.LedgerEntry, error) {
	return m.ledger[u], nil
}

func postMove(t *testing.T, h http.Handler, path string, req dto.MoveRequest) *httptest.ResponseRecorder {
	t.Helper()
	body, _ := json.Marshal(req)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body)))
	return rec
}

func TestDepositEntaoDebito(t *testing.T) {
	h := NewServer(zap.NewNop(), newMemRepo()).Router()

	rec := postMove(t, h, "/wallet/deposit", dto.MoveRequest{UserID: "u1", AmountCents: 10_000, Reference: "dep-1"})
	if rec.Code != http.StatusOK {
		t.Fatalf("deposit: status %d", rec.Code)
	}
	var resp dto.MoveResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.BalanceCents != 10_000 {
		t.Fatalf("saldo apos deposito = %d, quer 10000", resp.BalanceCents)
	}

	rec = postMove(t, h, "/wallet/debit", dto.MoveRequest{UserID: "u1", AmountCents: 2_500, Reference: "bet-1"})
	if rec.Code != http.StatusOK {
		t.Fatalf("debit: status %d", rec.Code)
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.BalanceCents != 7_500 {
		t.Fatalf("saldo apos debito = %d, quer 7500", resp.BalanceCents)
	}
}

func TestDebitoSemSaldoRetorna409(t *testing.T) {
	h := NewServer(zap.NewNop(), newMemRepo()).Router()

	rec := postMove(t, h, "/wallet/debit", dto.MoveRequest{UserID: "u1", AmountCents: 100, Reference: "bet-1"})
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, quer 409", rec.Code)
	}
}

func TestMovimentoRepetidoNaoDuplica(t *testing.T) {
	m := newMemRepo()
	h := NewServer(zap.NewNop(), m).Router()

	postMove(t, h, "/wallet/deposit", dto.MoveRequest{UserID: "u1", AmountCents: 5_000, Reference: "dep-1"})
	// retry com o mesmo reference: saldo nao muda
	rec := postMove(t, h, "/wallet/deposit", dto.MoveRequest{UserID: "u1", AmountCents: 5_000, Reference: "dep-1"})

	var resp dto.MoveResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.BalanceCents != 5_000 {
		t.Fatalf("saldo apos retry = %d, quer 5000", resp.BalanceCents)
	}
}

func TestRetryDeDebitoAplicadoComSaldoResidual(t *testing.T) {
	m := newMemRepo()
	h := NewServer(zap.NewNop(), m).Router()

	postMove(t, h, "/wallet/deposit", dto.MoveRequest{UserID: "u1", AmountCents: 1_000, Reference: "dep-1"})
	rec := postMove(t, h, "/wallet/debit", dto.MoveRequest{UserID: "u1", AmountCents: 800, Reference: "bet-1"})
	if rec.Code != http.StatusOK {
		t.Fatalf("debit: status %d", rec.Code)
	}

	// retry do mesmo debito: o saldo residual (200) nao cobre 800, mas o
	// movimento ja aplicou, entao a resposta e o saldo corrente, nao 409
	rec = postMove(t, h, "/wallet/debit", dto.MoveRequest{UserID: "u1", AmountCents: 800, Reference: "bet-1"})
	if rec.Code != http.StatusOK {
		t.Fatalf("retry de debito aplicado: status %d, quer 200", rec.Code)
	}
	var resp dto.MoveResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.BalanceCents != 200 {
		t.Fatalf("saldo apos retry = %d, quer 200", resp.BalanceCents)
	}
}

func TestPayloadInvalido(t *testing.T) {
	h := NewServer(zap.NewNop(), newMemRepo()).Router()

	rec := postMove(t, h, "/wallet/credit", dto.MoveRequest{UserID: "u1", AmountCents: 100})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("sem reference: status = %d, quer 400", rec.Code)
	}
	rec = postMove(t, h, "/wallet/credit", dto.MoveRequest{UserID: "u1", AmountCents: -5, Reference: "x"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("valor negativo: status = %d, quer 400", rec.Code)
	}
}

func TestConsultaCarteira(t *testing.T) {
	m := newMemRepo()
	m.balances["u9"] = 1_234
	h := NewServer(zap.NewNop(), m).Router()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/wallet?userId=u9", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	var resp dto.WalletResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.BalanceCents != 1_234 || resp.WalletID != "w-u9" {
		t.Fatalf("resposta inesperada: %+v", resp)
	}
}
